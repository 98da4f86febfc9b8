package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shyamsasidharan1/eventbuddy/config"
	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/model"
	"github.com/shyamsasidharan1/eventbuddy/internal/repository"
	apperrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
)

// ErrOrgSlugTaken 组织标识已被占用
var ErrOrgSlugTaken = apperrors.New(apperrors.ErrConflict, 40905, "组织标识已存在")

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// BootstrapInput 初始化组织及其首个管理员
type BootstrapInput struct {
	OrgName       string
	OrgSlug       string
	AdminEmail    string
	AdminPassword string
	FirstName     string
	LastName      string
}

func (in *BootstrapInput) normalize() error {
	in.OrgName = strings.TrimSpace(in.OrgName)
	in.OrgSlug = strings.ToLower(strings.TrimSpace(in.OrgSlug))
	in.AdminEmail = normalizeEmail(in.AdminEmail)
	switch {
	case in.OrgName == "":
		return apperrors.Validation("组织名称不能为空")
	case !slugPattern.MatchString(in.OrgSlug):
		return apperrors.Validation("组织标识只能包含小写字母、数字和连字符")
	case !strings.Contains(in.AdminEmail, "@"):
		return apperrors.Validation("管理员邮箱无效")
	case len(in.AdminPassword) < 8:
		return apperrors.Validation("管理员密码至少 8 位")
	}
	if in.FirstName == "" {
		in.FirstName = "Admin"
	}
	if in.LastName == "" {
		in.LastName = in.OrgName
	}
	return nil
}

// Bootstrap 创建组织与一个已激活的 org_admin 账号（含 ACTIVE 会员档案）
func Bootstrap(ctx context.Context, cfg *config.Config, repo *repository.Repository, in BootstrapInput, logger *zap.Logger) (*model.Organization, *model.MemberProfile, error) {
	if err := in.normalize(); err != nil {
		return nil, nil, err
	}

	if _, err := repo.Organization.GetBySlug(ctx, in.OrgSlug); err == nil {
		return nil, nil, ErrOrgSlugTaken
	} else if !repository.IsNotFound(err) {
		return nil, nil, err
	}

	hash, err := hashPassword(in.AdminPassword, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, nil, err
	}

	org := &model.Organization{
		OrgID:        uuid.NewString(),
		Name:         in.OrgName,
		Slug:         in.OrgSlug,
		ContactEmail: in.AdminEmail,
		IsActive:     true,
		Settings:     toJSON(nil, "{}"),
	}
	var admin *model.MemberProfile
	err = repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Organization.Create(ctx, org); err != nil {
			return err
		}
		var err error
		admin, err = createMember(ctx, tx, newApplicant{
			OrgID:        org.OrgID,
			Email:        in.AdminEmail,
			Role:         domain.RoleOrgAdmin,
			PasswordHash: &hash,
			Profile:      model.MemberProfile{FirstName: in.FirstName, LastName: in.LastName},
		}, domain.TransitionRequestJoin, "", "bootstrap")
		if err != nil {
			return err
		}
		_, err = transitionMember(ctx, tx, admin, domain.TransitionApprove, "", "")
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("组织初始化完成",
		zap.String("org_id", org.OrgID),
		zap.String("slug", org.Slug),
		zap.String("admin_user_id", admin.UserID),
	)
	return org, admin, nil
}
