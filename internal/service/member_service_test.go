package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/model"
	apperrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
	"github.com/shyamsasidharan1/eventbuddy/pkg/jwt"
)

func inviteRequest(email string) *dto.InviteMemberRequest {
	fee := decimal.NewFromInt(120)
	return &dto.InviteMemberRequest{
		Email:         email,
		FirstName:     "Nia",
		LastName:      "Brooks",
		MembershipFee: &fee,
	}
}

// ────────────────────── Invite / AcceptInvite ──────────────────────

func TestInvite_CreatesInvitedMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.Member.Invite(ctx, env.admin, inviteRequest(" Nia@Example.org "))
	require.NoError(t, err)
	assert.Equal(t, string(domain.MembershipInvited), resp.Member.MembershipStatus)
	assert.Equal(t, "nia@example.org", resp.Member.Email)
	assert.NotEmpty(t, resp.ExpiresAt)

	user, err := env.repo.User.GetByOrgAndEmail(ctx, env.org.OrgID, "nia@example.org")
	require.NoError(t, err)
	assert.False(t, user.IsActive)
	assert.Nil(t, user.PasswordHash)

	assert.Equal(t, []string{"invite"}, env.notifier.kinds())
	assert.Contains(t, env.store.auditActions(), model.AuditMemberInvited)
}

func TestInvite_ExistingRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, _ = env.addMember(t, "Ana", "Silva", domain.MembershipActive)
	_, _ = env.addMember(t, "Ivy", "Stone", domain.MembershipInactive)

	_, err := env.svc.Member.Invite(ctx, env.admin, inviteRequest("Ana.Silva@example.org"))
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// 停用会员须走激活流程
	_, err = env.svc.Member.Invite(ctx, env.admin, inviteRequest("Ivy.Stone@example.org"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestInvite_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	actor, _ := env.addMember(t, "Ana", "Silva", domain.MembershipActive)

	_, err := env.svc.Member.Invite(context.Background(), actor, inviteRequest("x@example.org"))
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestAcceptInvite_ActivatesAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.Member.Invite(ctx, env.admin, inviteRequest("nia@example.org"))
	require.NoError(t, err)
	member, err := env.repo.Member.GetByID(ctx, env.org.OrgID, resp.Member.MemberID)
	require.NoError(t, err)

	token, err := env.jwtMgr.GenerateInviteToken(member.UserID, env.org.OrgID, member.MemberID, "nia@example.org")
	require.NoError(t, err)

	accepted, err := env.svc.Member.AcceptInvite(ctx, &dto.AcceptInviteRequest{Token: token, Password: "new-password"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.MembershipActive), accepted.MembershipStatus)
	assert.NotEmpty(t, accepted.MembershipStartDate)

	login, err := env.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "nia@example.org", Password: "new-password"})
	require.NoError(t, err)
	assert.Equal(t, member.MemberID, login.User.MemberID)

	// 邀请只能接受一次
	_, err = env.svc.Member.AcceptInvite(ctx, &dto.AcceptInviteRequest{Token: token, Password: "other-password"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestAcceptInvite_BadToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Member.AcceptInvite(ctx, &dto.AcceptInviteRequest{Token: "garbage", Password: "new-password"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// access token 不能当作邀请 token
	access, err := env.jwtMgr.GenerateAccessToken(env.admin.UserID, env.org.OrgID, string(domain.RoleOrgAdmin))
	require.NoError(t, err)
	_, err = env.svc.Member.AcceptInvite(ctx, &dto.AcceptInviteRequest{Token: access, Password: "new-password"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestResendInvite_OnlyForInvited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, active := env.addMember(t, "Ana", "Silva", domain.MembershipActive)

	resp, err := env.svc.Member.Invite(ctx, env.admin, inviteRequest("nia@example.org"))
	require.NoError(t, err)

	_, err = env.svc.Member.ResendInvite(ctx, env.admin, resp.Member.MemberID)
	require.NoError(t, err)
	assert.Equal(t, []string{"invite", "invite"}, env.notifier.kinds())

	_, err = env.svc.Member.ResendInvite(ctx, env.admin, active.MemberID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

// ────────────────────── 状态转移 ──────────────────────

func TestApproveDeny(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, pending := env.addMember(t, "Pat", "Lee", domain.MembershipPendingApproval)
	_, other := env.addMember(t, "Quinn", "Diaz", domain.MembershipPendingApproval)

	resp, err := env.svc.Member.Approve(ctx, env.admin, pending.MemberID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.MembershipActive), resp.MembershipStatus)
	user, err := env.repo.User.GetByID(ctx, pending.UserID)
	require.NoError(t, err)
	assert.True(t, user.IsActive)

	// 拒绝必须填写原因
	_, err = env.svc.Member.Deny(ctx, env.admin, other.MemberID, "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	resp, err = env.svc.Member.Deny(ctx, env.admin, other.MemberID, "Outside service area")
	require.NoError(t, err)
	assert.Equal(t, string(domain.MembershipInactive), resp.MembershipStatus)
	assert.Equal(t, "Outside service area", resp.DenialReason)

	// 已处理的申请不能再次审批
	_, err = env.svc.Member.Approve(ctx, env.admin, other.MemberID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	assert.Equal(t, []string{"approved", "denied"}, env.notifier.kinds())
}

func TestInactivateActivate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, member := env.addMember(t, "Ana", "Silva", domain.MembershipActive)

	_, err := env.svc.Member.Inactivate(ctx, env.admin, member.MemberID, "bad")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	resp, err := env.svc.Member.Inactivate(ctx, env.admin, member.MemberID, "Moved away")
	require.NoError(t, err)
	assert.Equal(t, string(domain.MembershipInactive), resp.MembershipStatus)
	user, err := env.repo.User.GetByID(ctx, member.UserID)
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	resp, err = env.svc.Member.Activate(ctx, env.admin, member.MemberID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.MembershipActive), resp.MembershipStatus)
	assert.Empty(t, resp.InactivationReason)

	actions := env.store.auditActions()
	assert.Contains(t, actions, model.AuditMemberInactivated)
	assert.Contains(t, actions, model.AuditMemberActivated)
}

func TestInactivate_InvitedMemberRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.svc.Member.Invite(ctx, env.admin, inviteRequest("nia@example.org"))
	require.NoError(t, err)

	_, err = env.svc.Member.Inactivate(ctx, env.admin, resp.Member.MemberID, "Never joined")
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestTransition_UnknownMember(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Member.Approve(context.Background(), env.admin, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// ────────────────────── Get / Update / List ──────────────────────

func TestGetMember_Access(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actorA, memberA := env.addMember(t, "Ana", "Silva", domain.MembershipActive)
	_, memberB := env.addMember(t, "Ben", "Okafor", domain.MembershipActive)

	resp, err := env.svc.Member.Get(ctx, actorA, memberA.MemberID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", resp.FirstName)

	_, err = env.svc.Member.Get(ctx, actorA, memberB.MemberID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	mine, err := env.svc.Member.GetMyProfile(ctx, actorA)
	require.NoError(t, err)
	assert.Equal(t, memberA.MemberID, mine.MemberID)

	_, err = env.svc.Member.GetMyProfile(ctx, env.admin)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor, member := env.addMember(t, "Ana", "Silva", domain.MembershipActive)
	city := "Austin"
	category := "SENIOR"

	resp, err := env.svc.Member.Update(ctx, actor, member.MemberID, &dto.UpdateMemberRequest{Version: 1, City: &city})
	require.NoError(t, err)
	assert.Equal(t, "Austin", resp.City)
	assert.Equal(t, 2, resp.Version)

	// 会员不能修改会籍字段
	_, err = env.svc.Member.Update(ctx, actor, member.MemberID, &dto.UpdateMemberRequest{Version: 2, MembershipCategory: &category})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	// 过期版本号
	_, err = env.svc.Member.Update(ctx, env.admin, member.MemberID, &dto.UpdateMemberRequest{Version: 1, MembershipCategory: &category})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	resp, err = env.svc.Member.Update(ctx, env.admin, member.MemberID, &dto.UpdateMemberRequest{Version: 2, MembershipCategory: &category})
	require.NoError(t, err)
	assert.Equal(t, "SENIOR", resp.MembershipCategory)
}

func TestListMembersAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, _ = env.addMember(t, "Ana", "Silva", domain.MembershipActive)
	_, _ = env.addMember(t, "Ben", "Okafor", domain.MembershipActive)
	_, _ = env.addMember(t, "Pat", "Lee", domain.MembershipPendingApproval)

	list, total, err := env.svc.Member.List(ctx, env.admin, &dto.MemberListRequest{Status: string(domain.MembershipActive)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	pending, total, err := env.svc.Member.PendingApprovals(ctx, env.admin, &dto.PaginationRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Pat", pending[0].FirstName)

	stats, err := env.svc.Member.Stats(ctx, env.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.ByStatus[string(domain.MembershipActive)])
	assert.Equal(t, int64(2), stats.ByCategory["REGULAR"])
	assert.Equal(t, int64(3), stats.RecentSignups)
}

func TestInviteToken_TypeIsChecked(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.jwtMgr.GenerateInviteToken("u", env.org.OrgID, "m", "x@example.org")
	require.NoError(t, err)

	claims, err := env.jwtMgr.ParseTokenOfType(token, jwt.TypeMemberInvite)
	require.NoError(t, err)
	assert.Equal(t, "m", claims.MemberID)
}
