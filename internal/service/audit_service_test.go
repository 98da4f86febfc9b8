package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
	"github.com/shyamsasidharan1/eventbuddy/internal/dto"
	"github.com/shyamsasidharan1/eventbuddy/internal/model"
	apperrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
)

func TestAuditList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, member := env.addMember(t, "Ana", "Silva", domain.MembershipActive)

	_, err := env.svc.Member.Inactivate(ctx, env.admin, member.MemberID, "Moved away")
	require.NoError(t, err)
	_, err = env.svc.Member.Activate(ctx, env.admin, member.MemberID)
	require.NoError(t, err)

	logs, total, err := env.svc.Audit.List(ctx, env.admin, &dto.AuditLogListRequest{EntityID: member.MemberID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, logs, 2)

	var inactivated *dto.AuditLogResponse
	for i := range logs {
		if logs[i].Action == model.AuditMemberInactivated {
			inactivated = &logs[i]
		}
	}
	require.NotNil(t, inactivated)
	assert.Equal(t, string(domain.MembershipActive), inactivated.PreviousStatus)
	assert.Equal(t, string(domain.MembershipInactive), inactivated.NewStatus)
	assert.Equal(t, "Moved away", inactivated.Message)
	assert.Equal(t, env.admin.UserID, inactivated.ActorID)

	logs, _, err = env.svc.Audit.List(ctx, env.admin, &dto.AuditLogListRequest{Action: model.AuditMemberActivated})
	require.NoError(t, err)
	require.Len(t, logs, 1)
}

func TestAuditList_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	staff := env.addUser(t, "staff@example.org", domain.RoleEventStaff)

	_, _, err := env.svc.Audit.List(context.Background(), staff, &dto.AuditLogListRequest{})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}
