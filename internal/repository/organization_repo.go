package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/shyamsasidharan1/eventbuddy/internal/model"
)

// OrganizationRepository 组织数据访问接口
type OrganizationRepository interface {
	Create(ctx context.Context, org *model.Organization) error
	GetByID(ctx context.Context, id string) (*model.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*model.Organization, error)
	Update(ctx context.Context, org *model.Organization) error
}

type organizationRepo struct {
	db *gorm.DB
}

// NewOrganizationRepo 创建 OrganizationRepository 实例
func NewOrganizationRepo(db *gorm.DB) OrganizationRepository {
	return &organizationRepo{db: db}
}

func (r *organizationRepo) Create(ctx context.Context, org *model.Organization) error {
	return translateError(r.db.WithContext(ctx).Create(org).Error)
}

func (r *organizationRepo) GetByID(ctx context.Context, id string) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).Where("org_id = ?", id).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepo) GetBySlug(ctx context.Context, slug string) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepo) Update(ctx context.Context, org *model.Organization) error {
	return translateError(r.db.WithContext(ctx).Save(org).Error)
}
