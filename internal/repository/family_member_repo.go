package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/shyamsasidharan1/eventbuddy/internal/model"
)

// FamilyMemberRepository 家庭成员数据访问接口
type FamilyMemberRepository interface {
	Create(ctx context.Context, fm *model.FamilyMember) error
	GetByID(ctx context.Context, orgID, id string) (*model.FamilyMember, error)
	ListByMember(ctx context.Context, orgID, memberID string) ([]model.FamilyMember, error)
	ListByIDs(ctx context.Context, orgID string, ids []string) ([]model.FamilyMember, error)
	Update(ctx context.Context, fm *model.FamilyMember) error
	CountActive(ctx context.Context, orgID string) (int64, error)
}

type familyMemberRepo struct {
	db *gorm.DB
}

// NewFamilyMemberRepo 创建 FamilyMemberRepository 实例
func NewFamilyMemberRepo(db *gorm.DB) FamilyMemberRepository {
	return &familyMemberRepo{db: db}
}

func (r *familyMemberRepo) Create(ctx context.Context, fm *model.FamilyMember) error {
	return translateError(r.db.WithContext(ctx).Create(fm).Error)
}

func (r *familyMemberRepo) GetByID(ctx context.Context, orgID, id string) (*model.FamilyMember, error) {
	var fm model.FamilyMember
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND family_member_id = ?", orgID, id).
		First(&fm).Error
	if err != nil {
		return nil, err
	}
	return &fm, nil
}

// ListByMember 仅返回未移除的家庭成员
func (r *familyMemberRepo) ListByMember(ctx context.Context, orgID, memberID string) ([]model.FamilyMember, error) {
	var list []model.FamilyMember
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND member_id = ? AND is_active = ?", orgID, memberID, true).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *familyMemberRepo) ListByIDs(ctx context.Context, orgID string, ids []string) ([]model.FamilyMember, error) {
	var list []model.FamilyMember
	if len(ids) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND family_member_id IN ?", orgID, ids).
		Find(&list).Error
	return list, err
}

func (r *familyMemberRepo) Update(ctx context.Context, fm *model.FamilyMember) error {
	return translateError(r.db.WithContext(ctx).Save(fm).Error)
}

func (r *familyMemberRepo) CountActive(ctx context.Context, orgID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.FamilyMember{}).
		Where("org_id = ? AND is_active = ?", orgID, true).
		Count(&total).Error
	return total, err
}
