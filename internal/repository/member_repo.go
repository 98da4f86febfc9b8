package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/model"
	pkgerrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
)

// MemberFilter 会员列表过滤条件
type MemberFilter struct {
	Status   domain.MembershipStatus
	Category string
	Search   string // 匹配姓名或邮箱
}

// MemberRepository 会员档案数据访问接口
type MemberRepository interface {
	Create(ctx context.Context, member *model.MemberProfile) error
	GetByID(ctx context.Context, orgID, id string) (*model.MemberProfile, error)
	GetByUserID(ctx context.Context, userID string) (*model.MemberProfile, error)
	GetByOrgAndEmail(ctx context.Context, orgID, email string) (*model.MemberProfile, error)
	ListByIDs(ctx context.Context, orgID string, ids []string) ([]model.MemberProfile, error)
	List(ctx context.Context, orgID string, filter MemberFilter, offset, limit int) ([]model.MemberProfile, int64, error)
	// Update 按 version 乐观锁更新，版本不匹配返回 ErrOptimisticLock
	Update(ctx context.Context, member *model.MemberProfile) error
	CountByStatus(ctx context.Context, orgID string) (map[domain.MembershipStatus]int64, error)
	CountByCategory(ctx context.Context, orgID string) (map[string]int64, error)
	CountCreatedSince(ctx context.Context, orgID string, since time.Time) (int64, error)
}

type memberRepo struct {
	db *gorm.DB
}

// NewMemberRepo 创建 MemberRepository 实例
func NewMemberRepo(db *gorm.DB) MemberRepository {
	return &memberRepo{db: db}
}

func (r *memberRepo) Create(ctx context.Context, member *model.MemberProfile) error {
	return translateError(r.db.WithContext(ctx).Omit("User", "FamilyMembers").Create(member).Error)
}

func (r *memberRepo) GetByID(ctx context.Context, orgID, id string) (*model.MemberProfile, error) {
	var member model.MemberProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("org_id = ? AND member_id = ?", orgID, id).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepo) GetByUserID(ctx context.Context, userID string) (*model.MemberProfile, error) {
	var member model.MemberProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepo) GetByOrgAndEmail(ctx context.Context, orgID, email string) (*model.MemberProfile, error) {
	var member model.MemberProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN user_accounts u ON u.user_id = member_profiles.user_id").
		Where("member_profiles.org_id = ? AND u.email = ?", orgID, strings.ToLower(email)).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepo) ListByIDs(ctx context.Context, orgID string, ids []string) ([]model.MemberProfile, error) {
	var members []model.MemberProfile
	if len(ids) == 0 {
		return members, nil
	}
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("org_id = ? AND member_id IN ?", orgID, ids).
		Find(&members).Error
	return members, err
}

func (r *memberRepo) List(ctx context.Context, orgID string, filter MemberFilter, offset, limit int) ([]model.MemberProfile, int64, error) {
	var members []model.MemberProfile
	var total int64

	db := r.db.WithContext(ctx).Model(&model.MemberProfile{}).
		Joins("JOIN user_accounts u ON u.user_id = member_profiles.user_id").
		Where("member_profiles.org_id = ?", orgID)
	if filter.Status != "" {
		db = db.Where("member_profiles.membership_status = ?", filter.Status)
	}
	if filter.Category != "" {
		db = db.Where("member_profiles.membership_category = ?", filter.Category)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		db = db.Where("LOWER(member_profiles.first_name) LIKE ? OR LOWER(member_profiles.last_name) LIKE ? OR u.email LIKE ?", like, like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").
		Offset(offset).Limit(limit).
		Order("member_profiles.last_name ASC, member_profiles.first_name ASC").
		Find(&members).Error; err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

func (r *memberRepo) Update(ctx context.Context, member *model.MemberProfile) error {
	oldVersion := member.Version
	result := r.db.WithContext(ctx).
		Model(member).
		Where("member_id = ? AND version = ?", member.MemberID, oldVersion).
		Updates(map[string]interface{}{
			"first_name":            member.FirstName,
			"last_name":             member.LastName,
			"phone":                 member.Phone,
			"address":               member.Address,
			"city":                  member.City,
			"state":                 member.State,
			"zip_code":              member.ZipCode,
			"date_of_birth":         member.DateOfBirth,
			"membership_category":   member.MembershipCategory,
			"membership_fee":        member.MembershipFee,
			"membership_start_date": member.MembershipStartDate,
			"next_payment_due":      member.NextPaymentDue,
			"last_payment_date":     member.LastPaymentDate,
			"custom_fields":         member.CustomFields,
			"membership_status":     member.MembershipStatus,
			"invited_at":            member.InvitedAt,
			"approved_at":           member.ApprovedAt,
			"denied_at":             member.DeniedAt,
			"denial_reason":         member.DenialReason,
			"activated_at":          member.ActivatedAt,
			"inactivated_at":        member.InactivatedAt,
			"inactivation_reason":   member.InactivationReason,
			"updated_by":            member.UpdatedBy,
			"version":               oldVersion + 1,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	member.Version = oldVersion + 1
	return nil
}

type groupCount struct {
	Key   string
	Total int64
}

func (r *memberRepo) CountByStatus(ctx context.Context, orgID string) (map[domain.MembershipStatus]int64, error) {
	var rows []groupCount
	err := r.db.WithContext(ctx).Model(&model.MemberProfile{}).
		Select("membership_status AS key, COUNT(*) AS total").
		Where("org_id = ?", orgID).
		Group("membership_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[domain.MembershipStatus]int64, len(rows))
	for _, row := range rows {
		out[domain.MembershipStatus(row.Key)] = row.Total
	}
	return out, nil
}

func (r *memberRepo) CountByCategory(ctx context.Context, orgID string) (map[string]int64, error) {
	var rows []groupCount
	err := r.db.WithContext(ctx).Model(&model.MemberProfile{}).
		Select("membership_category AS key, COUNT(*) AS total").
		Where("org_id = ? AND membership_status = ?", orgID, domain.MembershipActive).
		Group("membership_category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Total
	}
	return out, nil
}

func (r *memberRepo) CountCreatedSince(ctx context.Context, orgID string, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.MemberProfile{}).
		Where("org_id = ? AND created_at >= ?", orgID, since).
		Count(&total).Error
	return total, err
}
