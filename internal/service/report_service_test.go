package service

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/model"
	apperrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
)

// seedReportData 三名 ACTIVE 会员（两名逾期）、一名停用会员，以及一场带签到的活动
func seedReportData(t *testing.T, env *testEnv) *model.Event {
	t.Helper()
	today := time.Now().UTC().Truncate(24 * time.Hour)

	actorA, a := env.addMember(t, "Ana", "Silva", domain.MembershipActive)
	env.addFamily(t, a, "Leo")
	_, b := env.addMember(t, "Ben", "Okafor", domain.MembershipActive)
	_, c := env.addMember(t, "Cleo", "Hart", domain.MembershipActive)
	env.addMember(t, "Ivy", "Stone", domain.MembershipInactive)

	env.store.mu.Lock()
	due10 := today.AddDate(0, 0, -10)
	due3 := today.AddDate(0, 0, -3)
	env.store.members[b.MemberID].NextPaymentDue = &due10
	env.store.members[c.MemberID].NextPaymentDue = &due3
	env.store.members[c.MemberID].MembershipCategory = "SENIOR"
	env.store.members[c.MemberID].MembershipFee = decimal.NewFromInt(30)
	env.store.mu.Unlock()

	ev := env.addEvent(t, eventOpts{capacity: 10})
	resp, err := register(env, actorA, ev, domain.MemberRef(a.MemberID))
	require.NoError(t, err)
	_, err = register(env, env.admin, ev, domain.MemberRef(b.MemberID))
	require.NoError(t, err)
	_, err = env.svc.Registration.CheckIn(context.Background(), env.admin, ev.EventID, &dto.CheckInRequest{
		RegistrationIDs: []string{resp.Registrations[0].RegistrationID},
	})
	require.NoError(t, err)
	return ev
}

func TestMembershipReport(t *testing.T) {
	env := newTestEnv(t)
	seedReportData(t, env)
	ctx := context.Background()

	rows, err := env.svc.Report.Membership(ctx, env.admin, &dto.ReportRequest{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Hart", rows[0].LastName)
	assert.Equal(t, int64(0), rows[0].FamilyMembers)
	assert.Equal(t, "Silva", rows[2].LastName)
	assert.Equal(t, int64(1), rows[2].FamilyMembers)
	assert.Equal(t, "ana.silva@example.org", rows[2].Email)

	rows, err = env.svc.Report.Membership(ctx, env.admin, &dto.ReportRequest{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	_, err = env.svc.Report.Membership(ctx, env.admin, &dto.ReportRequest{From: "2024-05-01", To: "2024-04-01"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRegistrationAndAttendanceReports(t *testing.T) {
	env := newTestEnv(t)
	ev := seedReportData(t, env)
	ctx := context.Background()
	staff := env.addUser(t, "staff@example.org", domain.RoleEventStaff)

	regs, err := env.svc.Report.Registrations(ctx, staff, &dto.ReportRequest{EventID: ev.EventID})
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, "Ana Silva", regs[0].RegistrantName)
	assert.Equal(t, "Community Picnic", regs[0].EventTitle)
	assert.True(t, regs[0].CheckedIn)
	assert.False(t, regs[1].CheckedIn)

	attendance, err := env.svc.Report.Attendance(ctx, staff, &dto.ReportRequest{})
	require.NoError(t, err)
	require.Len(t, attendance, 1)
	assert.Equal(t, int64(2), attendance[0].TotalRegistered)
	assert.Equal(t, int64(1), attendance[0].TotalCheckedIn)
	assert.InDelta(t, 0.5, attendance[0].AttendanceRate, 0.0001)

	// 时间范围之外
	attendance, err = env.svc.Report.Attendance(ctx, staff, &dto.ReportRequest{To: "2020-01-01"})
	require.NoError(t, err)
	assert.Empty(t, attendance)
}

func TestFinancialReport(t *testing.T) {
	env := newTestEnv(t)
	seedReportData(t, env)
	ctx := context.Background()

	report, err := env.svc.Report.Financial(ctx, env.admin)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(130).Equal(report.ExpectedAnnual), "expected 130, got %s", report.ExpectedAnnual)
	require.Len(t, report.ByCategory, 2)
	assert.Equal(t, "REGULAR", report.ByCategory[0].Category)
	assert.Equal(t, 2, report.ByCategory[0].Members)
	assert.Equal(t, "SENIOR", report.ByCategory[1].Category)

	require.Len(t, report.Overdue, 2)
	assert.Equal(t, "Ben Okafor", report.Overdue[0].FullName)
	assert.Equal(t, 10, report.Overdue[0].DaysOverdue)
	assert.Equal(t, 3, report.Overdue[1].DaysOverdue)
	assert.True(t, decimal.NewFromInt(80).Equal(report.OverdueTotal))

	// 工作人员可看报表但不能看会费
	staff := env.addUser(t, "staff@example.org", domain.RoleEventStaff)
	_, err = env.svc.Report.Financial(ctx, staff)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	actor, _ := env.addMember(t, "Nia", "Brooks", domain.MembershipActive)
	_, err = env.svc.Report.Membership(ctx, actor, &dto.ReportRequest{})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t)
	seedReportData(t, env)

	file, err := env.svc.Report.Export(context.Background(), env.admin, ReportMembership, &dto.ReportRequest{Format: dto.FormatCSV})
	require.NoError(t, err)
	assert.Equal(t, contentTypeCSV, file.ContentType)
	assert.True(t, strings.HasPrefix(file.Filename, "membership_report_"))
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	records, err := csv.NewReader(file.Content).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "Member ID", records[0][0])
	assert.Equal(t, "50.00", records[3][7])
}

func TestExportFinancialCSV_TwoTables(t *testing.T) {
	env := newTestEnv(t)
	seedReportData(t, env)

	file, err := env.svc.Report.Export(context.Background(), env.admin, ReportFinancial, &dto.ReportRequest{Format: dto.FormatCSV})
	require.NoError(t, err)

	r := csv.NewReader(file.Content)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	// 表头 + 两个类别 + 合计，空行被跳过，然后是逾期表头 + 两行
	require.Len(t, records, 7)
	assert.Equal(t, []string{"TOTAL", "", "130.00"}, records[3])
	assert.Equal(t, "Member ID", records[4][0])
}

func TestExportXLSX(t *testing.T) {
	env := newTestEnv(t)
	seedReportData(t, env)

	file, err := env.svc.Report.Export(context.Background(), env.admin, ReportFinancial, &dto.ReportRequest{Format: dto.FormatXLSX})
	require.NoError(t, err)
	assert.Equal(t, contentTypeXLSX, file.ContentType)

	f, err := excelize.OpenReader(file.Content)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"By Category", "Overdue"}, f.GetSheetList())
	rows, err := f.GetRows("Overdue")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Ben Okafor", rows[1][1])
}

func TestExport_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Report.Export(ctx, env.admin, ReportMembership, &dto.ReportRequest{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = env.svc.Report.Export(ctx, env.admin, "payroll", &dto.ReportRequest{Format: dto.FormatCSV})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	actor, _ := env.addMember(t, "Ana", "Silva", domain.MembershipActive)
	_, err = env.svc.Report.Export(ctx, actor, ReportAttendance, &dto.ReportRequest{Format: dto.FormatXLSX})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}
