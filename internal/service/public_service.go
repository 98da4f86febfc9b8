package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"go.uber.org/zap"

	"github.com/shyamsasidharan1/eventbuddy/config"
	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/model"
	"github.com/shyamsasidharan1/eventbuddy/internal/notify"
	"github.com/shyamsasidharan1/eventbuddy/internal/repository"
	apperrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
	"github.com/shyamsasidharan1/eventbuddy/pkg/metrics"
)

// ── 公开接口业务错误 ──

var ErrPublicRegistrationClosed = apperrors.New(apperrors.ErrInvalidState, 42203, "该组织暂未开放在线入会申请")

// 美国邮编：12345 或 12345-6789
var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

const defaultPhoneRegion = "US"

// PublicService 无需登录的公开接口
type PublicService interface {
	GetOrganization(ctx context.Context, slug string) (*dto.PublicOrgResponse, error)
	SubmitRegistrationRequest(ctx context.Context, slug string, req *dto.PublicRegistrationRequest) (*dto.PublicRegistrationResponse, error)
	ListPublicEvents(ctx context.Context, slug string, page *dto.PaginationRequest) ([]dto.EventResponse, int64, error)
	ValidatePhone(req *dto.ValidatePhoneRequest) *dto.ValidatePhoneResponse
	ValidateZip(req *dto.ValidateZipRequest) *dto.ValidateZipResponse
}

type publicService struct {
	cfg      *config.Config
	repo     *repository.Repository
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewPublicService 创建 PublicService 实例
func NewPublicService(
	cfg *config.Config,
	repo *repository.Repository,
	notifier notify.Notifier,
	logger *zap.Logger,
) PublicService {
	return &publicService{cfg: cfg, repo: repo, notifier: notifier, logger: logger}
}

func (s *publicService) activeOrg(ctx context.Context, slug string) (*model.Organization, error) {
	org, err := s.repo.Organization.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrOrgNotFound
		}
		s.logger.Error("查询组织失败", zap.String("slug", slug), zap.Error(err))
		return nil, err
	}
	if !org.IsActive {
		return nil, ErrOrgNotFound
	}
	return org, nil
}

// ────────────────────── GetOrganization ──────────────────────

func (s *publicService) GetOrganization(ctx context.Context, slug string) (*dto.PublicOrgResponse, error) {
	org, err := s.activeOrg(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &dto.PublicOrgResponse{
		OrgID:            org.OrgID,
		Name:             org.Name,
		Slug:             org.Slug,
		Description:      org.Description,
		ContactEmail:     org.ContactEmail,
		ContactPhone:     org.ContactPhone,
		Website:          org.Website,
		RegistrationOpen: s.cfg.Feature.PublicRegistration,
	}, nil
}

// ────────────────────── SubmitRegistrationRequest ──────────────────────

func (s *publicService) SubmitRegistrationRequest(ctx context.Context, slug string, req *dto.PublicRegistrationRequest) (*dto.PublicRegistrationResponse, error) {
	if !s.cfg.Feature.PublicRegistration {
		return nil, ErrPublicRegistrationClosed
	}

	// 1. 输入校验
	phone := req.Phone
	if phone != "" {
		formatted, ok := normalizePhone(phone, defaultPhoneRegion)
		if !ok {
			return nil, apperrors.Validation("电话号码格式不正确")
		}
		phone = formatted
	}
	if req.ZipCode != "" && !zipPattern.MatchString(req.ZipCode) {
		return nil, apperrors.Validation("邮编格式不正确")
	}
	dob, err := dto.ParseDate(req.DateOfBirth)
	if err != nil {
		return nil, apperrors.Validation("出生日期格式不正确")
	}

	// 2. 组织须存在且启用
	org, err := s.activeOrg(ctx, slug)
	if err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password, s.cfg.Auth.BcryptCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	// 3. 事务内创建账号 + 档案（PENDING_APPROVAL）+ 审计
	email := normalizeEmail(req.Email)
	var member *model.MemberProfile
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		member, err = createMember(ctx, tx, newApplicant{
			OrgID:        org.OrgID,
			Email:        email,
			Role:         domain.RoleMember,
			PasswordHash: &hash,
			Profile: model.MemberProfile{
				FirstName:   req.FirstName,
				LastName:    req.LastName,
				Phone:       phone,
				Address:     req.Address,
				City:        req.City,
				State:       req.State,
				ZipCode:     req.ZipCode,
				DateOfBirth: dob,
			},
		}, domain.TransitionRequestJoin, "", req.Message)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.ObserveMemberTransition(string(domain.TransitionRequestJoin), string(member.MembershipStatus))

	// 4. 提交后通知申请人与管理员
	s.notifier.RegistrationRequestReceived(ctx, org, member, email, req.Message, s.adminEmails(ctx, org.OrgID))

	return &dto.PublicRegistrationResponse{
		MemberID: member.MemberID,
		Status:   string(member.MembershipStatus),
	}, nil
}

func (s *publicService) adminEmails(ctx context.Context, orgID string) []string {
	admins, err := s.repo.User.ListActiveByRole(ctx, orgID, domain.RoleOrgAdmin)
	if err != nil {
		s.logger.Warn("查询管理员失败，跳过管理员通知", zap.String("org_id", orgID), zap.Error(err))
		return nil
	}
	emails := make([]string, 0, len(admins))
	for _, a := range admins {
		emails = append(emails, a.Email)
	}
	return emails
}

// ────────────────────── ListPublicEvents ──────────────────────

func (s *publicService) ListPublicEvents(ctx context.Context, slug string, page *dto.PaginationRequest) ([]dto.EventResponse, int64, error) {
	org, err := s.activeOrg(ctx, slug)
	if err != nil {
		return nil, 0, err
	}

	from := now()
	events, total, err := s.repo.Event.List(ctx, org.OrgID, repository.EventFilter{
		ActiveOnly:   true,
		PublicOnly:   true,
		UpcomingFrom: &from,
	}, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询公开活动失败", zap.Error(err))
		return nil, 0, err
	}

	items := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		resp, err := eventWithAvailability(ctx, s.repo, &events[i])
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *resp)
	}
	return items, total, nil
}

// ────────────────────── 校验工具 ──────────────────────

func (s *publicService) ValidatePhone(req *dto.ValidatePhoneRequest) *dto.ValidatePhoneResponse {
	region := strings.ToUpper(req.Country)
	if region == "" {
		region = defaultPhoneRegion
	}
	formatted, ok := normalizePhone(req.Phone, region)
	return &dto.ValidatePhoneResponse{Valid: ok, Formatted: formatted}
}

func (s *publicService) ValidateZip(req *dto.ValidateZipRequest) *dto.ValidateZipResponse {
	return &dto.ValidateZipResponse{Valid: zipPattern.MatchString(strings.TrimSpace(req.ZipCode))}
}

// normalizePhone 解析并校验号码，合法时返回 E.164 格式
func normalizePhone(raw, region string) (string, bool) {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}
