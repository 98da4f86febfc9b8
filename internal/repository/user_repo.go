package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/model"
)

// UserRepository 账号数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.UserAccount) error
	GetByID(ctx context.Context, id string) (*model.UserAccount, error)
	GetByOrgAndEmail(ctx context.Context, orgID, email string) (*model.UserAccount, error)
	// ListByEmail 跨组织按邮箱查找，用于未指定组织的登录
	ListByEmail(ctx context.Context, email string) ([]model.UserAccount, error)
	// ListActiveByRole 组织内指定角色的启用账号，用于通知管理员
	ListActiveByRole(ctx context.Context, orgID string, role domain.Role) ([]model.UserAccount, error)
	Update(ctx context.Context, user *model.UserAccount) error
	SetActive(ctx context.Context, userID string, active bool) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.UserAccount) error {
	user.Email = strings.ToLower(user.Email)
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.UserAccount, error) {
	var user model.UserAccount
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByOrgAndEmail(ctx context.Context, orgID, email string) (*model.UserAccount, error) {
	var user model.UserAccount
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND email = ?", orgID, strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ListByEmail(ctx context.Context, email string) ([]model.UserAccount, error) {
	var users []model.UserAccount
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Where("email = ?", strings.ToLower(email)).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) ListActiveByRole(ctx context.Context, orgID string, role domain.Role) ([]model.UserAccount, error) {
	var users []model.UserAccount
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND role = ? AND is_active = ?", orgID, role, true).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) Update(ctx context.Context, user *model.UserAccount) error {
	return translateError(r.db.WithContext(ctx).Omit("Organization").Save(user).Error)
}

func (r *userRepo) SetActive(ctx context.Context, userID string, active bool) error {
	return r.db.WithContext(ctx).
		Model(&model.UserAccount{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"is_active": active, "updated_at": time.Now()}).Error
}

func (r *userRepo) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.UserAccount{}).
		Where("user_id = ?", userID).
		Update("last_login_at", at).Error
}
