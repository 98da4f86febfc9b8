package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
)

// 转移表之外的所有组合均返回 InvalidState
func TestNextMembershipStatus_Exhaustive(t *testing.T) {
	allowed := map[transitionKey]MembershipStatus{
		{MembershipNone, TransitionInvite}:             MembershipInvited,
		{MembershipNone, TransitionRequestJoin}:        MembershipPendingApproval,
		{MembershipInvited, TransitionAcceptInvite}:    MembershipActive,
		{MembershipPendingApproval, TransitionApprove}: MembershipActive,
		{MembershipPendingApproval, TransitionDeny}:    MembershipInactive,
		{MembershipActive, TransitionInactivate}:       MembershipInactive,
		{MembershipInactive, TransitionActivate}:       MembershipActive,
	}
	states := []MembershipStatus{MembershipNone, MembershipInvited, MembershipPendingApproval, MembershipActive, MembershipInactive}

	for _, from := range states {
		for _, on := range AllMembershipTransitions() {
			to, err := NextMembershipStatus(from, on)
			if want, ok := allowed[transitionKey{from, on}]; ok {
				require.NoError(t, err, "%q --%s-->", from, on)
				assert.Equal(t, want, to)
				continue
			}
			require.Error(t, err, "%q --%s--> 应被拒绝", from, on)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
			assert.True(t, errors.Is(err, ErrInvalidTransition))
		}
	}
}

func TestNextMembershipStatus_InactivateInvited(t *testing.T) {
	_, err := NextMembershipStatus(MembershipInvited, TransitionInactivate)
	assert.Equal(t, apperrors.ErrInvalidState, apperrors.KindOf(err))
}

func TestValidateTransitionReason(t *testing.T) {
	assert.True(t, errors.Is(ValidateTransitionReason(TransitionDeny, ""), apperrors.ErrValidation))
	assert.True(t, errors.Is(ValidateTransitionReason(TransitionDeny, "   "), apperrors.ErrValidation))
	assert.NoError(t, ValidateTransitionReason(TransitionDeny, "no"))

	assert.True(t, errors.Is(ValidateTransitionReason(TransitionInactivate, "move"), apperrors.ErrValidation))
	assert.NoError(t, ValidateTransitionReason(TransitionInactivate, "moved away"))
	assert.True(t, errors.Is(ValidateTransitionReason(TransitionInactivate, strings.Repeat("x", 501)), apperrors.ErrValidation))

	assert.NoError(t, ValidateTransitionReason(TransitionApprove, ""))
}

func TestMembershipStatus_AccountEnabled(t *testing.T) {
	assert.True(t, MembershipActive.AccountEnabled())
	assert.False(t, MembershipInvited.AccountEnabled())
	assert.False(t, MembershipPendingApproval.AccountEnabled())
	assert.False(t, MembershipInactive.AccountEnabled())
}
