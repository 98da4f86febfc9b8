package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shyamsasidharan1/eventbuddy/config"
	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/model"
	"github.com/shyamsasidharan1/eventbuddy/internal/notify"
	"github.com/shyamsasidharan1/eventbuddy/internal/repository"
	apperrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
	"github.com/shyamsasidharan1/eventbuddy/pkg/jwt"
	"github.com/shyamsasidharan1/eventbuddy/pkg/metrics"
)

// ── 会员模块业务错误 ──

var (
	ErrMemberNotFound       = apperrors.New(apperrors.ErrNotFound, 40402, "会员不存在")
	ErrOrgNotFound          = apperrors.New(apperrors.ErrNotFound, 40403, "组织不存在")
	ErrNoMemberProfile      = apperrors.New(apperrors.ErrNotFound, 40409, "当前账号没有会员档案")
	ErrMemberExists         = apperrors.New(apperrors.ErrConflict, 40902, "该邮箱在本组织已有会员记录")
	ErrMemberInactiveExists = apperrors.New(apperrors.ErrInvalidState, 42202, "该邮箱对应的会员已停用，请使用激活操作")
	ErrInviteTokenInvalid   = apperrors.New(apperrors.ErrValidation, 40003, "邀请链接无效或已过期")
)

// recentSignupWindow 会员统计中“近期入会”的时间窗口
const recentSignupWindow = 30 * 24 * time.Hour

// MemberService 会员业务接口
type MemberService interface {
	Invite(ctx context.Context, actor domain.Actor, req *dto.InviteMemberRequest) (*dto.InviteResponse, error)
	ResendInvite(ctx context.Context, actor domain.Actor, memberID string) (*dto.InviteResponse, error)
	AcceptInvite(ctx context.Context, req *dto.AcceptInviteRequest) (*dto.MemberResponse, error)
	Approve(ctx context.Context, actor domain.Actor, memberID string) (*dto.MemberResponse, error)
	Deny(ctx context.Context, actor domain.Actor, memberID, reason string) (*dto.MemberResponse, error)
	Inactivate(ctx context.Context, actor domain.Actor, memberID, reason string) (*dto.MemberResponse, error)
	Activate(ctx context.Context, actor domain.Actor, memberID string) (*dto.MemberResponse, error)
	List(ctx context.Context, actor domain.Actor, req *dto.MemberListRequest) ([]dto.MemberResponse, int64, error)
	PendingApprovals(ctx context.Context, actor domain.Actor, page *dto.PaginationRequest) ([]dto.MemberResponse, int64, error)
	Get(ctx context.Context, actor domain.Actor, memberID string) (*dto.MemberResponse, error)
	GetMyProfile(ctx context.Context, actor domain.Actor) (*dto.MemberResponse, error)
	Update(ctx context.Context, actor domain.Actor, memberID string, req *dto.UpdateMemberRequest) (*dto.MemberResponse, error)
	Stats(ctx context.Context, actor domain.Actor) (*dto.MemberStatsResponse, error)
}

type memberService struct {
	cfg      *config.Config
	repo     *repository.Repository
	jwtMgr   *jwt.Manager
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewMemberService 创建 MemberService 实例
func NewMemberService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	notifier notify.Notifier,
	logger *zap.Logger,
) MemberService {
	return &memberService{
		cfg:      cfg,
		repo:     repo,
		jwtMgr:   jwtMgr,
		notifier: notifier,
		logger:   logger,
	}
}

// ────────────────────── Invite ──────────────────────

func (s *memberService) Invite(ctx context.Context, actor domain.Actor, req *dto.InviteMemberRequest) (*dto.InviteResponse, error) {
	if err := domain.Authorize(actor, domain.CapManageMembers); err != nil {
		return nil, err
	}

	role := domain.RoleMember
	if req.Role != "" {
		role = domain.Role(req.Role)
	}
	profile := model.MemberProfile{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Phone:              req.Phone,
		MembershipCategory: req.MembershipCategory,
	}
	if req.MembershipFee != nil {
		if req.MembershipFee.IsNegative() {
			return nil, apperrors.Validation("会费不能为负数")
		}
		profile.MembershipFee = *req.MembershipFee
	}

	var member *model.MemberProfile
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		member, err = createMember(ctx, tx, newApplicant{
			OrgID:   actor.OrgID,
			Email:   normalizeEmail(req.Email),
			Role:    role,
			Profile: profile,
		}, domain.TransitionInvite, actor.UserID, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.ObserveMemberTransition(string(domain.TransitionInvite), string(member.MembershipStatus))

	return s.sendInvite(ctx, actor.OrgID, member)
}

// sendInvite 签发邀请 token 并发送邀请邮件
func (s *memberService) sendInvite(ctx context.Context, orgID string, member *model.MemberProfile) (*dto.InviteResponse, error) {
	email := memberEmail(member)
	token, err := s.jwtMgr.GenerateInviteToken(member.UserID, orgID, member.MemberID, email)
	if err != nil {
		s.logger.Error("生成邀请 Token 失败", zap.String("member_id", member.MemberID), zap.Error(err))
		return nil, err
	}
	expiresAt := now().Add(s.cfg.Auth.InviteTokenTTL)

	if org := s.loadOrg(ctx, orgID); org != nil {
		s.notifier.MemberInvited(ctx, org, member, email, token)
	}

	return &dto.InviteResponse{
		Member:    toMemberResponse(member),
		ExpiresAt: formatTime(expiresAt),
	}, nil
}

// ────────────────────── ResendInvite ──────────────────────

func (s *memberService) ResendInvite(ctx context.Context, actor domain.Actor, memberID string) (*dto.InviteResponse, error) {
	if err := domain.Authorize(actor, domain.CapManageMembers); err != nil {
		return nil, err
	}

	var member *model.MemberProfile
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		member, err = tx.Member.GetByID(ctx, actor.OrgID, memberID)
		if err != nil {
			return notFoundAs(err, ErrMemberNotFound)
		}
		if member.MembershipStatus != domain.MembershipInvited {
			return domain.ErrInvalidTransition
		}

		at := now()
		member.InvitedAt = &at
		member.UpdatedBy = strPtr(actor.UserID)
		if err := tx.Member.Update(ctx, member); err != nil {
			return err
		}
		return writeAudit(ctx, tx, auditEntry{
			OrgID:      actor.OrgID,
			ActorID:    actor.UserID,
			Action:     model.AuditInviteResent,
			EntityType: "member",
			EntityID:   member.MemberID,
			From:       string(member.MembershipStatus),
			To:         string(member.MembershipStatus),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.sendInvite(ctx, actor.OrgID, member)
}

// ────────────────────── AcceptInvite ──────────────────────

func (s *memberService) AcceptInvite(ctx context.Context, req *dto.AcceptInviteRequest) (*dto.MemberResponse, error) {
	claims, err := s.jwtMgr.ParseTokenOfType(req.Token, jwt.TypeMemberInvite)
	if err != nil {
		return nil, ErrInviteTokenInvalid
	}

	hash, err := hashPassword(req.Password, s.cfg.Auth.BcryptCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	var member *model.MemberProfile
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		member, err = tx.Member.GetByID(ctx, claims.OrgID, claims.MemberID)
		if err != nil {
			return notFoundAs(err, ErrInviteTokenInvalid)
		}
		if member.UserID != claims.UserID {
			return ErrInviteTokenInvalid
		}
		// 先校验状态，避免对非 INVITED 账号设置密码
		if _, err := domain.NextMembershipStatus(member.MembershipStatus, domain.TransitionAcceptInvite); err != nil {
			return err
		}

		user, err := tx.User.GetByID(ctx, member.UserID)
		if err != nil {
			return notFoundAs(err, ErrInviteTokenInvalid)
		}
		user.PasswordHash = &hash
		user.EmailVerified = true
		user.UpdatedBy = strPtr(user.UserID)
		if err := tx.User.Update(ctx, user); err != nil {
			return err
		}
		member.User = user

		_, err = transitionMember(ctx, tx, member, domain.TransitionAcceptInvite, user.UserID, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.ObserveMemberTransition(string(domain.TransitionAcceptInvite), string(member.MembershipStatus))

	resp := toMemberResponse(member)
	return &resp, nil
}

// ────────────────────── Approve / Deny / Inactivate / Activate ──────────────────────

func (s *memberService) Approve(ctx context.Context, actor domain.Actor, memberID string) (*dto.MemberResponse, error) {
	member, err := s.transition(ctx, actor, memberID, domain.TransitionApprove, "")
	if err != nil {
		return nil, err
	}
	if org := s.loadOrg(ctx, actor.OrgID); org != nil {
		s.notifier.MemberApproved(ctx, org, member, memberEmail(member))
	}
	resp := toMemberResponse(member)
	return &resp, nil
}

func (s *memberService) Deny(ctx context.Context, actor domain.Actor, memberID, reason string) (*dto.MemberResponse, error) {
	member, err := s.transition(ctx, actor, memberID, domain.TransitionDeny, reason)
	if err != nil {
		return nil, err
	}
	if org := s.loadOrg(ctx, actor.OrgID); org != nil {
		s.notifier.MemberDenied(ctx, org, member, memberEmail(member), derefStr(member.DenialReason))
	}
	resp := toMemberResponse(member)
	return &resp, nil
}

func (s *memberService) Inactivate(ctx context.Context, actor domain.Actor, memberID, reason string) (*dto.MemberResponse, error) {
	member, err := s.transition(ctx, actor, memberID, domain.TransitionInactivate, reason)
	if err != nil {
		return nil, err
	}
	if org := s.loadOrg(ctx, actor.OrgID); org != nil {
		s.notifier.MemberInactivated(ctx, org, member, memberEmail(member), derefStr(member.InactivationReason))
	}
	resp := toMemberResponse(member)
	return &resp, nil
}

func (s *memberService) Activate(ctx context.Context, actor domain.Actor, memberID string) (*dto.MemberResponse, error) {
	member, err := s.transition(ctx, actor, memberID, domain.TransitionActivate, "")
	if err != nil {
		return nil, err
	}
	if org := s.loadOrg(ctx, actor.OrgID); org != nil {
		s.notifier.MemberActivated(ctx, org, member, memberEmail(member))
	}
	resp := toMemberResponse(member)
	return &resp, nil
}

// transition 管理员触发的状态转移：能力检查 → 原因校验 → 事务内转移
func (s *memberService) transition(
	ctx context.Context,
	actor domain.Actor,
	memberID string,
	on domain.MembershipTransition,
	reason string,
) (*model.MemberProfile, error) {
	if err := domain.Authorize(actor, domain.CapManageMembers); err != nil {
		return nil, err
	}
	if err := domain.ValidateTransitionReason(on, reason); err != nil {
		return nil, err
	}

	var member *model.MemberProfile
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		member, err = tx.Member.GetByID(ctx, actor.OrgID, memberID)
		if err != nil {
			return notFoundAs(err, ErrMemberNotFound)
		}
		_, err = transitionMember(ctx, tx, member, on, actor.UserID, reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveMemberTransition(string(on), string(member.MembershipStatus))
	s.logger.Info("会员状态变更",
		zap.String("member_id", member.MemberID),
		zap.String("transition", string(on)),
		zap.String("to", string(member.MembershipStatus)),
		zap.String("actor", actor.UserID),
	)
	return member, nil
}

// loadOrg 通知所需的组织信息；失败只记录日志
func (s *memberService) loadOrg(ctx context.Context, orgID string) *model.Organization {
	org, err := s.repo.Organization.GetByID(ctx, orgID)
	if err != nil {
		s.logger.Warn("加载组织信息失败，跳过通知", zap.String("org_id", orgID), zap.Error(err))
		return nil
	}
	return org
}

// ────────────────────── List / Get ──────────────────────

func (s *memberService) List(ctx context.Context, actor domain.Actor, req *dto.MemberListRequest) ([]dto.MemberResponse, int64, error) {
	if err := domain.Authorize(actor, domain.CapViewMembers); err != nil {
		return nil, 0, err
	}
	filter := repository.MemberFilter{
		Status:   domain.MembershipStatus(req.Status),
		Category: req.Category,
		Search:   req.Search,
	}
	return s.list(ctx, actor.OrgID, filter, &req.PaginationRequest)
}

func (s *memberService) PendingApprovals(ctx context.Context, actor domain.Actor, page *dto.PaginationRequest) ([]dto.MemberResponse, int64, error) {
	if err := domain.Authorize(actor, domain.CapManageMembers); err != nil {
		return nil, 0, err
	}
	return s.list(ctx, actor.OrgID, repository.MemberFilter{Status: domain.MembershipPendingApproval}, page)
}

func (s *memberService) list(ctx context.Context, orgID string, filter repository.MemberFilter, page *dto.PaginationRequest) ([]dto.MemberResponse, int64, error) {
	members, total, err := s.repo.Member.List(ctx, orgID, filter, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询会员列表失败", zap.Error(err))
		return nil, 0, err
	}
	items := make([]dto.MemberResponse, 0, len(members))
	for i := range members {
		items = append(items, toMemberResponse(&members[i]))
	}
	return items, total, nil
}

func (s *memberService) Get(ctx context.Context, actor domain.Actor, memberID string) (*dto.MemberResponse, error) {
	member, err := s.repo.Member.GetByID(ctx, actor.OrgID, memberID)
	if err != nil {
		return nil, notFoundAs(err, ErrMemberNotFound)
	}
	if err := authorizeMemberAccess(actor, member, domain.CapViewMembers); err != nil {
		return nil, err
	}
	resp := toMemberResponse(member)
	return &resp, nil
}

func (s *memberService) GetMyProfile(ctx context.Context, actor domain.Actor) (*dto.MemberResponse, error) {
	if err := domain.Authorize(actor, domain.CapManageOwnProfile); err != nil {
		return nil, err
	}
	member, err := s.repo.Member.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, notFoundAs(err, ErrNoMemberProfile)
	}
	resp := toMemberResponse(member)
	return &resp, nil
}

// authorizeMemberAccess 本人档案按 CapManageOwnProfile 放行，他人档案需要 othersCap
func authorizeMemberAccess(actor domain.Actor, member *model.MemberProfile, othersCap domain.Capability) error {
	if member.UserID == actor.UserID {
		return domain.Authorize(actor, domain.CapManageOwnProfile)
	}
	return domain.Authorize(actor, othersCap)
}

// ────────────────────── Update ──────────────────────

func (s *memberService) Update(ctx context.Context, actor domain.Actor, memberID string, req *dto.UpdateMemberRequest) (*dto.MemberResponse, error) {
	member, err := s.repo.Member.GetByID(ctx, actor.OrgID, memberID)
	if err != nil {
		return nil, notFoundAs(err, ErrMemberNotFound)
	}
	if err := authorizeMemberAccess(actor, member, domain.CapManageMembers); err != nil {
		return nil, err
	}
	if req.AdminOnly() && !actor.Can(domain.CapManageMembers) {
		return nil, domain.ErrForbidden
	}
	if req.Version != member.Version {
		return nil, apperrors.ErrOptimisticLock
	}

	if err := applyMemberUpdate(member, req); err != nil {
		return nil, err
	}
	member.UpdatedBy = strPtr(actor.UserID)

	if err := s.repo.Member.Update(ctx, member); err != nil {
		if apperrors.KindOf(err) == nil {
			s.logger.Error("更新会员失败", zap.String("member_id", memberID), zap.Error(err))
		}
		return nil, err
	}
	resp := toMemberResponse(member)
	return &resp, nil
}

func applyMemberUpdate(m *model.MemberProfile, req *dto.UpdateMemberRequest) error {
	if req.FirstName != nil {
		m.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		m.LastName = *req.LastName
	}
	if req.Phone != nil {
		m.Phone = *req.Phone
	}
	if req.Address != nil {
		m.Address = *req.Address
	}
	if req.City != nil {
		m.City = *req.City
	}
	if req.State != nil {
		m.State = *req.State
	}
	if req.ZipCode != nil {
		if *req.ZipCode != "" && !zipPattern.MatchString(*req.ZipCode) {
			return apperrors.Validation("邮编格式不正确")
		}
		m.ZipCode = *req.ZipCode
	}
	if req.CustomFields != nil {
		m.CustomFields = toJSON(req.CustomFields, "{}")
	}
	if req.MembershipCategory != nil {
		m.MembershipCategory = *req.MembershipCategory
	}
	if req.MembershipFee != nil {
		if req.MembershipFee.IsNegative() {
			return apperrors.Validation("会费不能为负数")
		}
		m.MembershipFee = *req.MembershipFee
	}

	dates := []struct {
		in  *string
		out **time.Time
		msg string
	}{
		{req.DateOfBirth, &m.DateOfBirth, "出生日期格式不正确"},
		{req.MembershipStartDate, &m.MembershipStartDate, "入会日期格式不正确"},
		{req.NextPaymentDue, &m.NextPaymentDue, "下次缴费日期格式不正确"},
		{req.LastPaymentDate, &m.LastPaymentDate, "上次缴费日期格式不正确"},
	}
	for _, d := range dates {
		if d.in == nil {
			continue
		}
		t, err := dto.ParseDate(*d.in)
		if err != nil {
			return apperrors.Validation("%s", d.msg)
		}
		*d.out = t
	}
	return nil
}

// ────────────────────── Stats ──────────────────────

func (s *memberService) Stats(ctx context.Context, actor domain.Actor) (*dto.MemberStatsResponse, error) {
	if err := domain.Authorize(actor, domain.CapViewReports); err != nil {
		return nil, err
	}

	byStatus, err := s.repo.Member.CountByStatus(ctx, actor.OrgID)
	if err != nil {
		s.logger.Error("统计会员状态失败", zap.Error(err))
		return nil, err
	}
	byCategory, err := s.repo.Member.CountByCategory(ctx, actor.OrgID)
	if err != nil {
		s.logger.Error("统计会员类别失败", zap.Error(err))
		return nil, err
	}
	recent, err := s.repo.Member.CountCreatedSince(ctx, actor.OrgID, now().Add(-recentSignupWindow))
	if err != nil {
		return nil, err
	}
	family, err := s.repo.FamilyMember.CountActive(ctx, actor.OrgID)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.repo.Event.CountUpcoming(ctx, actor.OrgID, now())
	if err != nil {
		return nil, err
	}

	resp := &dto.MemberStatsResponse{
		ByStatus:       make(map[string]int64, len(byStatus)),
		ByCategory:     byCategory,
		RecentSignups:  recent,
		FamilyMembers:  family,
		UpcomingEvents: upcoming,
	}
	for status, n := range byStatus {
		resp.ByStatus[string(status)] = n
		resp.Total += n
	}
	return resp, nil
}

// ── 转换 ──

func memberEmail(m *model.MemberProfile) string {
	if m.User == nil {
		return ""
	}
	return m.User.Email
}

func toMemberResponse(m *model.MemberProfile) dto.MemberResponse {
	resp := dto.MemberResponse{
		MemberID:            m.MemberID,
		UserID:              m.UserID,
		Email:               memberEmail(m),
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		Phone:               m.Phone,
		Address:             m.Address,
		City:                m.City,
		State:               m.State,
		ZipCode:             m.ZipCode,
		DateOfBirth:         dto.FormatDate(m.DateOfBirth),
		MembershipCategory:  m.MembershipCategory,
		MembershipFee:       m.MembershipFee,
		MembershipStartDate: dto.FormatDate(m.MembershipStartDate),
		NextPaymentDue:      dto.FormatDate(m.NextPaymentDue),
		LastPaymentDate:     dto.FormatDate(m.LastPaymentDate),
		CustomFields:        jsonObject(m.CustomFields),
		MembershipStatus:    string(m.MembershipStatus),
		InvitedAt:           formatTimePtr(m.InvitedAt),
		ApprovedAt:          formatTimePtr(m.ApprovedAt),
		DeniedAt:            formatTimePtr(m.DeniedAt),
		DenialReason:        derefStr(m.DenialReason),
		ActivatedAt:         formatTimePtr(m.ActivatedAt),
		InactivatedAt:       formatTimePtr(m.InactivatedAt),
		InactivationReason:  derefStr(m.InactivationReason),
		Version:             m.Version,
		CreatedAt:           formatTime(m.CreatedAt),
	}
	if m.User != nil {
		resp.Role = string(m.User.Role)
	}
	return resp
}
