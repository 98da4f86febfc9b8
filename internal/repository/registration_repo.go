package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/model"
)

// RegistrationFilter 报名列表过滤条件
type RegistrationFilter struct {
	Status    domain.RegistrationStatus
	CheckedIn *bool
}

// RegistrationRepository 报名数据访问接口
type RegistrationRepository interface {
	BatchCreate(ctx context.Context, regs []model.Registration) error
	GetByID(ctx context.Context, orgID, id string) (*model.Registration, error)
	Update(ctx context.Context, reg *model.Registration) error
	// CountByStatus 统计活动下各状态报名数
	CountByStatus(ctx context.Context, eventID string) (map[domain.RegistrationStatus]int64, error)
	CountCheckedIn(ctx context.Context, eventID string) (int64, error)
	// FindActive 返回给定主体在活动下的未取消报名
	FindActive(ctx context.Context, eventID string, refs []domain.RegistrantRef) ([]model.Registration, error)
	ListByEvent(ctx context.Context, eventID string, filter RegistrationFilter) ([]model.Registration, error)
	ListByEventAndIDs(ctx context.Context, eventID string, ids []string) ([]model.Registration, error)
	// ListByRegistrants 返回给定主体的全部报名（含活动信息），按活动开始时间排序
	ListByRegistrants(ctx context.Context, orgID string, refs []domain.RegistrantRef, includeCancelled bool) ([]model.Registration, error)
	// ListWaitlisted 按报名时间先后返回候补名单
	ListWaitlisted(ctx context.Context, eventID string, limit int) ([]model.Registration, error)
	// CountActiveUpcoming 统计主体在未开始活动中的未取消报名
	CountActiveUpcoming(ctx context.Context, ref domain.RegistrantRef, now time.Time) (int64, error)
}

type registrationRepo struct {
	db *gorm.DB
}

// NewRegistrationRepo 创建 RegistrationRepository 实例
func NewRegistrationRepo(db *gorm.DB) RegistrationRepository {
	return &registrationRepo{db: db}
}

func (r *registrationRepo) BatchCreate(ctx context.Context, regs []model.Registration) error {
	if len(regs) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Omit("Event").Create(&regs).Error)
}

func (r *registrationRepo) GetByID(ctx context.Context, orgID, id string) (*model.Registration, error) {
	var reg model.Registration
	err := r.db.WithContext(ctx).
		Preload("Event").
		Where("org_id = ? AND registration_id = ?", orgID, id).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepo) Update(ctx context.Context, reg *model.Registration) error {
	return translateError(r.db.WithContext(ctx).Omit("Event").Save(reg).Error)
}

func (r *registrationRepo) CountByStatus(ctx context.Context, eventID string) (map[domain.RegistrationStatus]int64, error) {
	var rows []groupCount
	err := r.db.WithContext(ctx).Model(&model.Registration{}).
		Select("status AS key, COUNT(*) AS total").
		Where("event_id = ?", eventID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[domain.RegistrationStatus]int64, len(rows))
	for _, row := range rows {
		out[domain.RegistrationStatus(row.Key)] = row.Total
	}
	return out, nil
}

func (r *registrationRepo) CountCheckedIn(ctx context.Context, eventID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Registration{}).
		Where("event_id = ? AND checked_in = ?", eventID, true).
		Count(&total).Error
	return total, err
}

// refCondition 将主体列表拼成 (registrant_type, registrant_id) 条件
func refCondition(db *gorm.DB, refs []domain.RegistrantRef) *gorm.DB {
	var memberIDs, familyIDs []string
	for _, ref := range refs {
		switch ref.Kind {
		case domain.RegistrantMember:
			memberIDs = append(memberIDs, ref.ID)
		case domain.RegistrantFamilyMember:
			familyIDs = append(familyIDs, ref.ID)
		}
	}
	cond := db.Where("1 = 0")
	if len(memberIDs) > 0 {
		cond = cond.Or("registrant_type = ? AND registrant_id IN ?", domain.RegistrantMember, memberIDs)
	}
	if len(familyIDs) > 0 {
		cond = cond.Or("registrant_type = ? AND registrant_id IN ?", domain.RegistrantFamilyMember, familyIDs)
	}
	return cond
}

func (r *registrationRepo) FindActive(ctx context.Context, eventID string, refs []domain.RegistrantRef) ([]model.Registration, error) {
	var regs []model.Registration
	if len(refs) == 0 {
		return regs, nil
	}
	db := r.db.WithContext(ctx)
	err := db.
		Where("event_id = ? AND status <> ?", eventID, domain.RegistrationCancelled).
		Where(refCondition(db.Session(&gorm.Session{NewDB: true}), refs)).
		Find(&regs).Error
	return regs, err
}

func (r *registrationRepo) ListByEvent(ctx context.Context, eventID string, filter RegistrationFilter) ([]model.Registration, error) {
	var regs []model.Registration
	db := r.db.WithContext(ctx).Where("event_id = ?", eventID)
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.CheckedIn != nil {
		db = db.Where("checked_in = ?", *filter.CheckedIn)
	}
	err := db.Order("registered_at ASC").Find(&regs).Error
	return regs, err
}

func (r *registrationRepo) ListByEventAndIDs(ctx context.Context, eventID string, ids []string) ([]model.Registration, error) {
	var regs []model.Registration
	if len(ids) == 0 {
		return regs, nil
	}
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND registration_id IN ?", eventID, ids).
		Find(&regs).Error
	return regs, err
}

func (r *registrationRepo) ListByRegistrants(ctx context.Context, orgID string, refs []domain.RegistrantRef, includeCancelled bool) ([]model.Registration, error) {
	var regs []model.Registration
	if len(refs) == 0 {
		return regs, nil
	}
	db := r.db.WithContext(ctx)
	q := db.Preload("Event").
		Joins("JOIN events e ON e.event_id = registrations.event_id").
		Where("registrations.org_id = ?", orgID).
		Where(refCondition(db.Session(&gorm.Session{NewDB: true}), refs))
	if !includeCancelled {
		q = q.Where("registrations.status <> ?", domain.RegistrationCancelled)
	}
	err := q.Order("e.starts_at ASC").Find(&regs).Error
	return regs, err
}

func (r *registrationRepo) ListWaitlisted(ctx context.Context, eventID string, limit int) ([]model.Registration, error) {
	var regs []model.Registration
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND status = ?", eventID, domain.RegistrationWaitlisted).
		Order("registered_at ASC, created_at ASC").
		Limit(limit).
		Find(&regs).Error
	return regs, err
}

func (r *registrationRepo) CountActiveUpcoming(ctx context.Context, ref domain.RegistrantRef, now time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Registration{}).
		Joins("JOIN events e ON e.event_id = registrations.event_id").
		Where("registrations.registrant_type = ? AND registrations.registrant_id = ?", ref.Kind, ref.ID).
		Where("registrations.status <> ? AND e.starts_at > ?", domain.RegistrationCancelled, now).
		Count(&total).Error
	return total, err
}
