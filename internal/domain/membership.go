package domain

import (
	"fmt"
	"strings"

	apperrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
)

// MembershipStatus 会员状态
type MembershipStatus string

const (
	MembershipNone            MembershipStatus = "" // 尚无档案
	MembershipInvited         MembershipStatus = "INVITED"
	MembershipPendingApproval MembershipStatus = "PENDING_APPROVAL"
	MembershipActive          MembershipStatus = "ACTIVE"
	MembershipInactive        MembershipStatus = "INACTIVE"
)

// Valid 是否为已知状态（不含 MembershipNone）
func (s MembershipStatus) Valid() bool {
	switch s {
	case MembershipInvited, MembershipPendingApproval, MembershipActive, MembershipInactive:
		return true
	}
	return false
}

// AccountEnabled 该状态下关联账号是否允许登录
func (s MembershipStatus) AccountEnabled() bool {
	return s == MembershipActive
}

// MembershipTransition 会员生命周期事件
type MembershipTransition string

const (
	TransitionInvite       MembershipTransition = "invite"
	TransitionRequestJoin  MembershipTransition = "request_join"
	TransitionAcceptInvite MembershipTransition = "accept_invite"
	TransitionApprove      MembershipTransition = "approve"
	TransitionDeny         MembershipTransition = "deny"
	TransitionInactivate   MembershipTransition = "inactivate"
	TransitionActivate     MembershipTransition = "activate"
)

type transitionKey struct {
	from MembershipStatus
	on   MembershipTransition
}

// membershipTransitions 完整转移表，未列出的组合一律非法
var membershipTransitions = map[transitionKey]MembershipStatus{
	{MembershipNone, TransitionInvite}:             MembershipInvited,
	{MembershipNone, TransitionRequestJoin}:        MembershipPendingApproval,
	{MembershipInvited, TransitionAcceptInvite}:    MembershipActive,
	{MembershipPendingApproval, TransitionApprove}: MembershipActive,
	{MembershipPendingApproval, TransitionDeny}:    MembershipInactive,
	{MembershipActive, TransitionInactivate}:       MembershipInactive,
	{MembershipInactive, TransitionActivate}:       MembershipActive,
}

// ErrInvalidTransition 当前状态不允许该生命周期操作
var ErrInvalidTransition = apperrors.New(apperrors.ErrInvalidState, 42201, "当前会员状态不允许该操作")

// NextMembershipStatus 返回 from 状态触发 on 后的目标状态
func NextMembershipStatus(from MembershipStatus, on MembershipTransition) (MembershipStatus, error) {
	to, ok := membershipTransitions[transitionKey{from, on}]
	if !ok {
		return "", fmt.Errorf("%w: %s 不能从 %q 执行", ErrInvalidTransition, on, from)
	}
	return to, nil
}

// AllMembershipTransitions 全部生命周期事件，供穷举测试使用
func AllMembershipTransitions() []MembershipTransition {
	return []MembershipTransition{
		TransitionInvite, TransitionRequestJoin, TransitionAcceptInvite,
		TransitionApprove, TransitionDeny, TransitionInactivate, TransitionActivate,
	}
}

// 原因长度限制
const (
	InactivationReasonMin = 5
	ReasonMax             = 500
)

// ValidateTransitionReason 校验 deny / inactivate 所需的原因
func ValidateTransitionReason(on MembershipTransition, reason string) error {
	n := len([]rune(strings.TrimSpace(reason)))
	switch on {
	case TransitionDeny:
		if n == 0 {
			return apperrors.Validation("拒绝申请必须填写原因")
		}
	case TransitionInactivate:
		if n < InactivationReasonMin {
			return apperrors.Validation("停用原因至少 %d 个字符", InactivationReasonMin)
		}
	default:
		return nil
	}
	if n > ReasonMax {
		return apperrors.Validation("原因不能超过 %d 个字符", ReasonMax)
	}
	return nil
}
