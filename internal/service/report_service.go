package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/repository"
	apperrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
)

// ── 报表模块 ──

// 报表种类
const (
	ReportMembership    = "membership"
	ReportRegistrations = "registrations"
	ReportAttendance    = "attendance"
	ReportFinancial     = "financial"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var ErrReportGenerateFail = errors.New("生成报表文件失败")

// ReportFile 导出的报表文件
type ReportFile struct {
	Content     *bytes.Buffer
	ContentType string
	Filename    string
}

// ReportService 报表业务接口
//
// JSON 报表直接返回行数据；csv / xlsx 由 Export 生成文件，Handler 负责写响应头
type ReportService interface {
	Membership(ctx context.Context, actor domain.Actor, req *dto.ReportRequest) ([]dto.MembershipReportRow, error)
	Registrations(ctx context.Context, actor domain.Actor, req *dto.ReportRequest) ([]dto.RegistrationReportRow, error)
	Attendance(ctx context.Context, actor domain.Actor, req *dto.ReportRequest) ([]dto.AttendanceReportRow, error)
	Financial(ctx context.Context, actor domain.Actor) (*dto.FinancialReport, error)
	Export(ctx context.Context, actor domain.Actor, kind string, req *dto.ReportRequest) (*ReportFile, error)
}

type reportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, logger: logger}
}

// reportRange from/to 均为闭区间日期
func reportRange(req *dto.ReportRequest) (repository.ReportRange, error) {
	var rng repository.ReportRange
	from, err := dto.ParseDate(req.From)
	if err != nil {
		return rng, apperrors.Validation("起始日期格式不正确")
	}
	to, err := dto.ParseDate(req.To)
	if err != nil {
		return rng, apperrors.Validation("截止日期格式不正确")
	}
	if to != nil {
		end := to.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	if from != nil && to != nil && to.Before(*from) {
		return rng, apperrors.Validation("截止日期不能早于起始日期")
	}
	rng.From, rng.To = from, to
	return rng, nil
}

// ────────────────────── Membership ──────────────────────

func (s *reportService) Membership(ctx context.Context, actor domain.Actor, req *dto.ReportRequest) ([]dto.MembershipReportRow, error) {
	if err := domain.Authorize(actor, domain.CapViewReports); err != nil {
		return nil, err
	}
	rng, err := reportRange(req)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.Report.ListMembers(ctx, actor.OrgID, repository.MemberReportFilter{
		Status:          domain.MembershipStatus(req.Status),
		Category:        req.Category,
		IncludeInactive: req.IncludeInactive,
		Range:           rng,
	})
	if err != nil {
		s.logger.Error("查询会员报表失败", zap.Error(err))
		return nil, err
	}

	out := make([]dto.MembershipReportRow, 0, len(rows))
	for i := range rows {
		m := &rows[i].Member
		out = append(out, dto.MembershipReportRow{
			MemberID:           m.MemberID,
			FirstName:          m.FirstName,
			LastName:           m.LastName,
			Email:              memberEmail(m),
			Phone:              m.Phone,
			MembershipStatus:   string(m.MembershipStatus),
			MembershipCategory: m.MembershipCategory,
			MembershipFee:      m.MembershipFee,
			StartDate:          dto.FormatDate(m.MembershipStartDate),
			FamilyMembers:      rows[i].FamilyCount,
			CreatedAt:          formatTime(m.CreatedAt),
		})
	}
	return out, nil
}

// ────────────────────── Registrations ──────────────────────

func (s *reportService) Registrations(ctx context.Context, actor domain.Actor, req *dto.ReportRequest) ([]dto.RegistrationReportRow, error) {
	if err := domain.Authorize(actor, domain.CapViewReports); err != nil {
		return nil, err
	}
	rng, err := reportRange(req)
	if err != nil {
		return nil, err
	}

	regs, err := s.repo.Report.ListRegistrations(ctx, actor.OrgID, repository.RegistrationReportFilter{
		EventID: req.EventID,
		Status:  domain.RegistrationStatus(req.Status),
		Range:   rng,
	})
	if err != nil {
		s.logger.Error("查询报名报表失败", zap.Error(err))
		return nil, err
	}
	names, err := resolveRegistrantNames(ctx, s.repo, actor.OrgID, regs)
	if err != nil {
		return nil, err
	}

	out := make([]dto.RegistrationReportRow, 0, len(regs))
	for i := range regs {
		r := &regs[i]
		row := dto.RegistrationReportRow{
			RegistrationID: r.RegistrationID,
			RegistrantType: string(r.RegistrantType),
			RegistrantName: names[r.Registrant().String()],
			Status:         string(r.Status),
			RegisteredAt:   formatTime(r.RegisteredAt),
			CheckedIn:      r.CheckedIn,
		}
		if r.Event != nil {
			row.EventTitle = r.Event.Title
			row.EventStartsAt = formatTime(r.Event.StartsAt)
		}
		out = append(out, row)
	}
	return out, nil
}

// ────────────────────── Attendance ──────────────────────

func (s *reportService) Attendance(ctx context.Context, actor domain.Actor, req *dto.ReportRequest) ([]dto.AttendanceReportRow, error) {
	if err := domain.Authorize(actor, domain.CapViewReports); err != nil {
		return nil, err
	}
	rng, err := reportRange(req)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.Report.Attendance(ctx, actor.OrgID, rng)
	if err != nil {
		s.logger.Error("查询出勤报表失败", zap.Error(err))
		return nil, err
	}

	out := make([]dto.AttendanceReportRow, 0, len(rows))
	for _, r := range rows {
		row := dto.AttendanceReportRow{
			EventID:         r.EventID,
			Title:           r.Title,
			StartsAt:        formatTime(r.StartsAt),
			Capacity:        r.Capacity,
			TotalRegistered: r.TotalRegistered,
			TotalCheckedIn:  r.TotalCheckedIn,
		}
		if r.TotalRegistered > 0 {
			row.AttendanceRate = float64(r.TotalCheckedIn) / float64(r.TotalRegistered)
		}
		out = append(out, row)
	}
	return out, nil
}

// ────────────────────── Financial ──────────────────────

// Financial 仅统计 ACTIVE 会员的会费
func (s *reportService) Financial(ctx context.Context, actor domain.Actor) (*dto.FinancialReport, error) {
	if err := domain.Authorize(actor, domain.CapViewFinancial); err != nil {
		return nil, err
	}

	rows, err := s.repo.Report.ListMembers(ctx, actor.OrgID, repository.MemberReportFilter{
		Status: domain.MembershipActive,
	})
	if err != nil {
		s.logger.Error("查询会费报表失败", zap.Error(err))
		return nil, err
	}

	report := &dto.FinancialReport{
		ExpectedAnnual: decimal.Zero,
		ByCategory:     []dto.FinancialCategoryRow{},
		Overdue:        []dto.FinancialOverdueRow{},
		OverdueTotal:   decimal.Zero,
	}
	today := now().Truncate(24 * time.Hour)
	byCategory := make(map[string]*dto.FinancialCategoryRow)
	for i := range rows {
		m := &rows[i].Member
		report.ExpectedAnnual = report.ExpectedAnnual.Add(m.MembershipFee)

		cat, ok := byCategory[m.MembershipCategory]
		if !ok {
			cat = &dto.FinancialCategoryRow{Category: m.MembershipCategory, Total: decimal.Zero}
			byCategory[m.MembershipCategory] = cat
		}
		cat.Members++
		cat.Total = cat.Total.Add(m.MembershipFee)

		if m.NextPaymentDue != nil && m.NextPaymentDue.Before(today) {
			report.Overdue = append(report.Overdue, dto.FinancialOverdueRow{
				MemberID:       m.MemberID,
				FullName:       m.FullName(),
				Email:          memberEmail(m),
				Fee:            m.MembershipFee,
				NextPaymentDue: dto.FormatDate(m.NextPaymentDue),
				DaysOverdue:    int(today.Sub(m.NextPaymentDue.Truncate(24*time.Hour)).Hours() / 24),
			})
			report.OverdueTotal = report.OverdueTotal.Add(m.MembershipFee)
		}
	}

	for _, cat := range byCategory {
		report.ByCategory = append(report.ByCategory, *cat)
	}
	sort.Slice(report.ByCategory, func(i, j int) bool {
		return report.ByCategory[i].Category < report.ByCategory[j].Category
	})
	sort.Slice(report.Overdue, func(i, j int) bool {
		return report.Overdue[i].DaysOverdue > report.Overdue[j].DaysOverdue
	})
	return report, nil
}

// ────────────────────── Export ──────────────────────

// reportTable 一张导出表，xlsx 中对应一个 Sheet
type reportTable struct {
	Sheet  string
	Header []string
	Rows   [][]any
}

func (s *reportService) Export(ctx context.Context, actor domain.Actor, kind string, req *dto.ReportRequest) (*ReportFile, error) {
	format := req.GetFormat()
	if format != dto.FormatCSV && format != dto.FormatXLSX {
		return nil, apperrors.Validation("导出格式仅支持 csv 或 xlsx")
	}

	tables, err := s.buildTables(ctx, actor, kind, req)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("%s_report_%s.%s", kind, now().Format("20060102"), format)
	if format == dto.FormatCSV {
		buf, err := writeCSV(tables)
		if err != nil {
			s.logger.Error("写入 CSV 失败", zap.String("report", kind), zap.Error(err))
			return nil, ErrReportGenerateFail
		}
		return &ReportFile{Content: buf, ContentType: contentTypeCSV, Filename: filename}, nil
	}

	buf, err := writeXLSX(tables)
	if err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("report", kind), zap.Error(err))
		return nil, ErrReportGenerateFail
	}
	return &ReportFile{Content: buf, ContentType: contentTypeXLSX, Filename: filename}, nil
}

func (s *reportService) buildTables(ctx context.Context, actor domain.Actor, kind string, req *dto.ReportRequest) ([]reportTable, error) {
	switch kind {
	case ReportMembership:
		rows, err := s.Membership(ctx, actor, req)
		if err != nil {
			return nil, err
		}
		t := reportTable{
			Sheet:  "Members",
			Header: []string{"Member ID", "First Name", "Last Name", "Email", "Phone", "Status", "Category", "Fee", "Start Date", "Family Members", "Created At"},
		}
		for _, r := range rows {
			t.Rows = append(t.Rows, []any{r.MemberID, r.FirstName, r.LastName, r.Email, r.Phone, r.MembershipStatus, r.MembershipCategory, r.MembershipFee.StringFixed(2), r.StartDate, r.FamilyMembers, r.CreatedAt})
		}
		return []reportTable{t}, nil

	case ReportRegistrations:
		rows, err := s.Registrations(ctx, actor, req)
		if err != nil {
			return nil, err
		}
		t := reportTable{
			Sheet:  "Registrations",
			Header: []string{"Registration ID", "Event", "Event Starts At", "Registrant Type", "Registrant", "Status", "Registered At", "Checked In"},
		}
		for _, r := range rows {
			t.Rows = append(t.Rows, []any{r.RegistrationID, r.EventTitle, r.EventStartsAt, r.RegistrantType, r.RegistrantName, r.Status, r.RegisteredAt, r.CheckedIn})
		}
		return []reportTable{t}, nil

	case ReportAttendance:
		rows, err := s.Attendance(ctx, actor, req)
		if err != nil {
			return nil, err
		}
		t := reportTable{
			Sheet:  "Attendance",
			Header: []string{"Event ID", "Title", "Starts At", "Capacity", "Registered", "Checked In", "Attendance Rate"},
		}
		for _, r := range rows {
			t.Rows = append(t.Rows, []any{r.EventID, r.Title, r.StartsAt, r.Capacity, r.TotalRegistered, r.TotalCheckedIn, fmt.Sprintf("%.2f", r.AttendanceRate)})
		}
		return []reportTable{t}, nil

	case ReportFinancial:
		report, err := s.Financial(ctx, actor)
		if err != nil {
			return nil, err
		}
		summary := reportTable{
			Sheet:  "By Category",
			Header: []string{"Category", "Members", "Total"},
		}
		for _, r := range report.ByCategory {
			summary.Rows = append(summary.Rows, []any{r.Category, r.Members, r.Total.StringFixed(2)})
		}
		summary.Rows = append(summary.Rows, []any{"TOTAL", "", report.ExpectedAnnual.StringFixed(2)})

		overdue := reportTable{
			Sheet:  "Overdue",
			Header: []string{"Member ID", "Name", "Email", "Fee", "Next Payment Due", "Days Overdue"},
		}
		for _, r := range report.Overdue {
			overdue.Rows = append(overdue.Rows, []any{r.MemberID, r.FullName, r.Email, r.Fee.StringFixed(2), r.NextPaymentDue, r.DaysOverdue})
		}
		return []reportTable{summary, overdue}, nil
	}
	return nil, apperrors.Validation("未知的报表类型 %q", kind)
}

// writeCSV 多张表之间以空行分隔
func writeCSV(tables []reportTable) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	for i, t := range tables {
		if i > 0 {
			if err := w.Write(nil); err != nil {
				return nil, err
			}
		}
		if err := w.Write(t.Header); err != nil {
			return nil, err
		}
		for _, row := range t.Rows {
			record := make([]string, len(row))
			for j, v := range row {
				record[j] = fmt.Sprint(v)
			}
			if err := w.Write(record); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf, w.Error()
}

func writeXLSX(tables []reportTable) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.Sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(t.Sheet); err != nil {
			return nil, err
		}

		header := make([]any, len(t.Header))
		for j, h := range t.Header {
			header[j] = h
		}
		if err := f.SetSheetRow(t.Sheet, "A1", &header); err != nil {
			return nil, err
		}
		last, _ := excelize.CoordinatesToCellName(len(t.Header), 1)
		if err := f.SetCellStyle(t.Sheet, "A1", last, headerStyle); err != nil {
			return nil, err
		}
		lastCol, _ := excelize.ColumnNumberToName(len(t.Header))
		if err := f.SetColWidth(t.Sheet, "A", lastCol, 18); err != nil {
			return nil, err
		}

		for r, row := range t.Rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(t.Sheet, cell, &row); err != nil {
				return nil, err
			}
		}
	}
	f.SetActiveSheet(0)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
