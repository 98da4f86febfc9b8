package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/model"
)

// ReportRange 报表时间范围，零值表示不限
type ReportRange struct {
	From *time.Time
	To   *time.Time
}

// MemberReportFilter 会员报表过滤条件
type MemberReportFilter struct {
	Status          domain.MembershipStatus
	Category        string
	IncludeInactive bool
	Range           ReportRange // 按入会日期过滤
}

// MemberReportRow 会员报表行
type MemberReportRow struct {
	Member      model.MemberProfile
	FamilyCount int64
}

// RegistrationReportFilter 报名报表过滤条件
type RegistrationReportFilter struct {
	EventID string
	Status  domain.RegistrationStatus
	Range   ReportRange // 按活动开始时间过滤
}

// AttendanceRow 出勤报表行
type AttendanceRow struct {
	EventID         string
	Title           string
	StartsAt        time.Time
	Capacity        int
	TotalRegistered int64
	TotalCheckedIn  int64
}

// ReportRepository 报表聚合查询接口
type ReportRepository interface {
	ListMembers(ctx context.Context, orgID string, filter MemberReportFilter) ([]MemberReportRow, error)
	ListRegistrations(ctx context.Context, orgID string, filter RegistrationReportFilter) ([]model.Registration, error)
	Attendance(ctx context.Context, orgID string, rng ReportRange) ([]AttendanceRow, error)
}

type reportRepo struct {
	db *gorm.DB
}

// NewReportRepo 创建 ReportRepository 实例
func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db: db}
}

func (r *reportRepo) ListMembers(ctx context.Context, orgID string, filter MemberReportFilter) ([]MemberReportRow, error) {
	db := r.db.WithContext(ctx).Preload("User").Where("org_id = ?", orgID)
	switch {
	case filter.Status != "":
		db = db.Where("membership_status = ?", filter.Status)
	case !filter.IncludeInactive:
		db = db.Where("membership_status = ?", domain.MembershipActive)
	}
	if filter.Category != "" {
		db = db.Where("membership_category = ?", filter.Category)
	}
	if filter.Range.From != nil {
		db = db.Where("membership_start_date >= ?", *filter.Range.From)
	}
	if filter.Range.To != nil {
		db = db.Where("membership_start_date <= ?", *filter.Range.To)
	}

	var members []model.MemberProfile
	if err := db.Order("last_name ASC, first_name ASC").Find(&members).Error; err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.MemberID)
	}
	counts := make(map[string]int64, len(members))
	if len(ids) > 0 {
		var rows []groupCount
		err := r.db.WithContext(ctx).Model(&model.FamilyMember{}).
			Select("member_id AS key, COUNT(*) AS total").
			Where("member_id IN ? AND is_active = ?", ids, true).
			Group("member_id").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			counts[row.Key] = row.Total
		}
	}

	out := make([]MemberReportRow, 0, len(members))
	for _, m := range members {
		out = append(out, MemberReportRow{Member: m, FamilyCount: counts[m.MemberID]})
	}
	return out, nil
}

func (r *reportRepo) ListRegistrations(ctx context.Context, orgID string, filter RegistrationReportFilter) ([]model.Registration, error) {
	db := r.db.WithContext(ctx).
		Preload("Event").
		Joins("JOIN events e ON e.event_id = registrations.event_id").
		Where("registrations.org_id = ?", orgID)
	if filter.EventID != "" {
		db = db.Where("registrations.event_id = ?", filter.EventID)
	}
	if filter.Status != "" {
		db = db.Where("registrations.status = ?", filter.Status)
	}
	if filter.Range.From != nil {
		db = db.Where("e.starts_at >= ?", *filter.Range.From)
	}
	if filter.Range.To != nil {
		db = db.Where("e.starts_at <= ?", *filter.Range.To)
	}

	var regs []model.Registration
	err := db.Order("e.starts_at DESC, registrations.registered_at ASC").Find(&regs).Error
	return regs, err
}

func (r *reportRepo) Attendance(ctx context.Context, orgID string, rng ReportRange) ([]AttendanceRow, error) {
	db := r.db.WithContext(ctx).Table("events e").
		Select(`e.event_id, e.title, e.starts_at, e.capacity,
			COUNT(reg.registration_id) FILTER (WHERE reg.status <> ?) AS total_registered,
			COUNT(reg.registration_id) FILTER (WHERE reg.checked_in) AS total_checked_in`, domain.RegistrationCancelled).
		Joins("LEFT JOIN registrations reg ON reg.event_id = e.event_id").
		Where("e.org_id = ?", orgID)
	if rng.From != nil {
		db = db.Where("e.starts_at >= ?", *rng.From)
	}
	if rng.To != nil {
		db = db.Where("e.starts_at <= ?", *rng.To)
	}

	var rows []AttendanceRow
	err := db.Group("e.event_id, e.title, e.starts_at, e.capacity").
		Order("e.starts_at DESC").
		Scan(&rows).Error
	return rows, err
}
