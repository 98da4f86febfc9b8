package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/shyamsasidharan1/eventbuddy/config"
	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/model"
	"github.com/shyamsasidharan1/eventbuddy/internal/repository"
	apperrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
	"github.com/shyamsasidharan1/eventbuddy/pkg/jwt"
	"github.com/shyamsasidharan1/eventbuddy/pkg/redis"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials = apperrors.New(apperrors.ErrUnauthenticated, 40101, "邮箱或密码错误")
	ErrAccountDisabled    = apperrors.New(apperrors.ErrUnauthenticated, 40102, "账号未激活或已停用")
	ErrTokenInvalid       = apperrors.New(apperrors.ErrUnauthenticated, 40103, "Token 无效或已过期")
	ErrOrgRequired        = apperrors.New(apperrors.ErrValidation, 40001, "该邮箱属于多个组织，请指定组织")
	ErrOldPasswordWrong   = apperrors.New(apperrors.ErrValidation, 40002, "原密码错误")
	ErrUserNotFound       = apperrors.New(apperrors.ErrNotFound, 40401, "用户不存在")
)

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	Me(ctx context.Context, actor domain.Actor) (*dto.MeResponse, error)
	ChangePassword(ctx context.Context, actor domain.Actor, req *dto.ChangePasswordRequest) error
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	rdb    *redis.Client
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		rdb:    rdb,
		logger: logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	email := normalizeEmail(req.Email)

	// 1. 定位账号：指定组织时精确查找，否则要求邮箱在全部组织中唯一
	user, err := s.findLoginUser(ctx, email, strings.TrimSpace(req.OrgSlug))
	if err != nil {
		return nil, err
	}

	// 2. 接受邀请前没有密码
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 账号与组织均需启用
	if !user.IsActive || (user.Organization != nil && !user.Organization.IsActive) {
		return nil, ErrAccountDisabled
	}

	if err := s.repo.User.TouchLastLogin(ctx, user.UserID, now()); err != nil {
		s.logger.Warn("更新最后登录时间失败", zap.String("user_id", user.UserID), zap.Error(err))
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) findLoginUser(ctx context.Context, email, orgSlug string) (*model.UserAccount, error) {
	if orgSlug != "" {
		org, err := s.repo.Organization.GetBySlug(ctx, orgSlug)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, ErrInvalidCredentials
			}
			s.logger.Error("查询组织失败", zap.String("slug", orgSlug), zap.Error(err))
			return nil, err
		}
		user, err := s.repo.User.GetByOrgAndEmail(ctx, org.OrgID, email)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, ErrInvalidCredentials
			}
			s.logger.Error("查询用户失败", zap.Error(err))
			return nil, err
		}
		user.Organization = org
		return user, nil
	}

	users, err := s.repo.User.ListByEmail(ctx, email)
	if err != nil {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	switch len(users) {
	case 0:
		return nil, ErrInvalidCredentials
	case 1:
		return &users[0], nil
	default:
		return nil, ErrOrgRequired
	}
}

func (s *authService) issueTokens(ctx context.Context, user *model.UserAccount) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.OrgID, string(user.Role))
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.OrgID, string(user.Role))
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	me, err := s.buildMe(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         *me,
	}, nil
}

// ────────────────────── Refresh ──────────────────────

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseTokenOfType(refreshToken, jwt.TypeRefresh)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	if s.rdb != nil {
		blacklisted, err := s.rdb.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("查询 Token 黑名单失败", zap.Error(err))
		} else if blacklisted {
			return nil, ErrTokenInvalid
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrTokenInvalid
		}
		s.logger.Error("查询用户失败", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	// 轮换：旧 Refresh Token 作废
	if claims.ExpiresAt != nil {
		if err := s.Logout(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			s.logger.Warn("作废旧 RefreshToken 失败", zap.Error(err))
		}
	}

	return s.issueTokens(ctx, user)
}

// ────────────────────── Logout ──────────────────────

// Logout 将 jti 加入黑名单直至其过期；未启用 Redis 时为空操作
func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.rdb == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.BlacklistToken(ctx, jti, ttl)
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, actor domain.Actor) (*dto.MeResponse, error) {
	user, err := s.repo.User.GetByID(ctx, actor.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", actor.UserID), zap.Error(err))
		return nil, err
	}
	return s.buildMe(ctx, user)
}

func (s *authService) buildMe(ctx context.Context, user *model.UserAccount) (*dto.MeResponse, error) {
	me := &dto.MeResponse{
		UserID:      user.UserID,
		OrgID:       user.OrgID,
		Email:       user.Email,
		Role:        string(user.Role),
		LastLoginAt: formatTimePtr(user.LastLoginAt),
	}
	if user.Organization != nil {
		me.OrgName = user.Organization.Name
	}

	member, err := s.repo.Member.GetByUserID(ctx, user.UserID)
	switch {
	case err == nil:
		me.MemberID = member.MemberID
		me.FirstName = member.FirstName
		me.LastName = member.LastName
		me.MembershipStatus = string(member.MembershipStatus)
	case repository.IsNotFound(err):
		// 管理员账号可以没有会员档案
	default:
		s.logger.Error("查询会员档案失败", zap.String("user_id", user.UserID), zap.Error(err))
		return nil, err
	}
	return me, nil
}

// ────────────────────── ChangePassword ──────────────────────

func (s *authService) ChangePassword(ctx context.Context, actor domain.Actor, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, actor.UserID)
	if err != nil {
		return notFoundAs(err, ErrUserNotFound)
	}
	if user.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.OldPassword)) != nil {
		return ErrOldPasswordWrong
	}

	hash, err := hashPassword(req.NewPassword, s.cfg.Auth.BcryptCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}
	user.PasswordHash = &hash
	user.UpdatedBy = &actor.UserID
	return s.repo.User.Update(ctx, user)
}

// ── 辅助 ──

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperrors.Validation("密码过长")
		}
		return "", err
	}
	return string(hash), nil
}
