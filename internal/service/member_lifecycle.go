package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/model"
	"github.com/shyamsasidharan1/eventbuddy/internal/repository"
)

// 会员生命周期事件对应的审计动作
var transitionAuditActions = map[domain.MembershipTransition]string{
	domain.TransitionInvite:       model.AuditMemberInvited,
	domain.TransitionRequestJoin:  model.AuditRegistrationRequested,
	domain.TransitionAcceptInvite: model.AuditInviteAccepted,
	domain.TransitionApprove:      model.AuditMemberApproved,
	domain.TransitionDeny:         model.AuditMemberDenied,
	domain.TransitionInactivate:   model.AuditMemberInactivated,
	domain.TransitionActivate:     model.AuditMemberActivated,
}

// stampTransition 计算目标状态并写入对应时间戳，不落库
func stampTransition(m *model.MemberProfile, on domain.MembershipTransition, reason string, at time.Time) (domain.MembershipStatus, error) {
	to, err := domain.NextMembershipStatus(m.MembershipStatus, on)
	if err != nil {
		return "", err
	}

	reason = strings.TrimSpace(reason)
	switch on {
	case domain.TransitionInvite:
		m.InvitedAt = &at
	case domain.TransitionAcceptInvite:
		m.ActivatedAt = &at
		startMembership(m, at)
	case domain.TransitionApprove:
		m.ApprovedAt = &at
		m.ActivatedAt = &at
		startMembership(m, at)
	case domain.TransitionDeny:
		m.DeniedAt = &at
		m.DenialReason = &reason
	case domain.TransitionInactivate:
		m.InactivatedAt = &at
		m.InactivationReason = &reason
	case domain.TransitionActivate:
		m.ActivatedAt = &at
		m.InactivatedAt = nil
		m.InactivationReason = nil
	}
	m.MembershipStatus = to
	return to, nil
}

func startMembership(m *model.MemberProfile, at time.Time) {
	if m.MembershipStartDate == nil {
		day := at.Truncate(24 * time.Hour)
		m.MembershipStartDate = &day
	}
}

// transitionMember 在事务内对已存在的会员执行一次状态转移：
// 写档案（乐观锁）、同步账号启用标志、写审计
func transitionMember(
	ctx context.Context,
	tx *repository.Repository,
	m *model.MemberProfile,
	on domain.MembershipTransition,
	actorID, reason string,
) (from domain.MembershipStatus, err error) {
	from = m.MembershipStatus
	to, err := stampTransition(m, on, reason, now())
	if err != nil {
		return "", err
	}
	if actorID != "" {
		m.UpdatedBy = strPtr(actorID)
	}

	if err := tx.Member.Update(ctx, m); err != nil {
		return "", err
	}
	if err := tx.User.SetActive(ctx, m.UserID, to.AccountEnabled()); err != nil {
		return "", err
	}
	if m.User != nil {
		m.User.IsActive = to.AccountEnabled()
	}

	err = writeAudit(ctx, tx, auditEntry{
		OrgID:      m.OrgID,
		ActorID:    actorID,
		Action:     transitionAuditActions[on],
		EntityType: "member",
		EntityID:   m.MemberID,
		From:       string(from),
		To:         string(to),
		Message:    strings.TrimSpace(reason),
	})
	return from, err
}

// newApplicant 待创建的账号与会员档案
type newApplicant struct {
	OrgID        string
	Email        string
	Role         domain.Role
	PasswordHash *string
	Profile      model.MemberProfile // 仅使用资料字段
}

// ensureNoMemberRecord 同一组织内邮箱已有记录时拒绝创建；停用记录提示改用激活
func ensureNoMemberRecord(ctx context.Context, tx *repository.Repository, orgID, email string) error {
	existing, err := tx.Member.GetByOrgAndEmail(ctx, orgID, email)
	switch {
	case err == nil:
		if existing.MembershipStatus == domain.MembershipInactive {
			return ErrMemberInactiveExists
		}
		return ErrMemberExists
	case !repository.IsNotFound(err):
		return err
	}

	if _, err := tx.User.GetByOrgAndEmail(ctx, orgID, email); err == nil {
		return ErrMemberExists
	} else if !repository.IsNotFound(err) {
		return err
	}
	return nil
}

// createMember 在事务内创建账号与会员档案，并执行 invite 或 request_join 初始转移
func createMember(
	ctx context.Context,
	tx *repository.Repository,
	a newApplicant,
	on domain.MembershipTransition,
	actorID, message string,
) (*model.MemberProfile, error) {
	if err := ensureNoMemberRecord(ctx, tx, a.OrgID, a.Email); err != nil {
		return nil, err
	}

	var createdBy *string
	if actorID != "" {
		createdBy = strPtr(actorID)
	}

	user := &model.UserAccount{
		UserID:       uuid.NewString(),
		OrgID:        a.OrgID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Role:         a.Role,
		IsActive:     false,
		BaseModel:    model.BaseModel{CreatedBy: createdBy},
	}
	if err := tx.User.Create(ctx, user); err != nil {
		return nil, err
	}

	m := a.Profile
	m.MemberID = uuid.NewString()
	m.OrgID = a.OrgID
	m.UserID = user.UserID
	m.MembershipStatus = domain.MembershipNone
	m.CreatedBy = createdBy
	if m.MembershipCategory == "" {
		m.MembershipCategory = "REGULAR"
	}
	if len(m.CustomFields) == 0 {
		m.CustomFields = toJSON(nil, "{}")
	}

	to, err := stampTransition(&m, on, "", now())
	if err != nil {
		return nil, err
	}
	if err := tx.Member.Create(ctx, &m); err != nil {
		return nil, err
	}
	m.User = user

	if err := writeAudit(ctx, tx, auditEntry{
		OrgID:      a.OrgID,
		ActorID:    actorID,
		Action:     transitionAuditActions[on],
		EntityType: "member",
		EntityID:   m.MemberID,
		To:         string(to),
		Message:    message,
		Metadata:   map[string]any{"email": a.Email},
	}); err != nil {
		return nil, err
	}
	return &m, nil
}
