package domain

import (
	apperrors "github.com/shyamsasidharan1/eventbuddy/pkg/errors"
)

// Role 账号角色
type Role string

const (
	RoleOrgAdmin   Role = "org_admin"
	RoleEventStaff Role = "event_staff"
	RoleMember     Role = "member"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleOrgAdmin, RoleEventStaff, RoleMember:
		return true
	}
	return false
}

// Actor 调用方身份，由认证层注入
type Actor struct {
	UserID string
	OrgID  string
	Role   Role
}

// IsAdmin 是否组织管理员
func (a Actor) IsAdmin() bool { return a.Role == RoleOrgAdmin }

// Capability 业务能力，每个操作在执行业务逻辑前检查一次
type Capability string

const (
	CapManageMembers       Capability = "members:manage"       // 邀请、审批、停用、激活、修改任意会员
	CapViewMembers         Capability = "members:view"         // 查看会员列表与详情
	CapManageOwnProfile    Capability = "profile:own"          // 查看修改本人档案与家庭成员
	CapManageEvents        Capability = "events:manage"        // 创建、修改、下线活动
	CapViewEvents          Capability = "events:view"          // 查看活动
	CapRegister            Capability = "registrations:create" // 为本人或家庭成员报名
	CapRegisterOnBehalf    Capability = "registrations:any"    // 代任意会员报名或取消
	CapViewRegistrations   Capability = "registrations:view"   // 查看活动报名名单
	CapManageRegistrations Capability = "registrations:manage" // 修改报名状态
	CapCheckIn             Capability = "registrations:checkin"
	CapViewReports         Capability = "reports:view"
	CapViewFinancial       Capability = "reports:financial"
	CapViewAudit           Capability = "audit:view"
)

var rolePolicy = map[Role]map[Capability]bool{
	RoleOrgAdmin: {
		CapManageMembers: true, CapViewMembers: true, CapManageOwnProfile: true,
		CapManageEvents: true, CapViewEvents: true,
		CapRegister: true, CapRegisterOnBehalf: true,
		CapViewRegistrations: true, CapManageRegistrations: true, CapCheckIn: true,
		CapViewReports: true, CapViewFinancial: true, CapViewAudit: true,
	},
	RoleEventStaff: {
		CapViewMembers: true, CapManageOwnProfile: true,
		CapViewEvents: true, CapRegister: true,
		CapViewRegistrations: true, CapCheckIn: true,
		CapViewReports: true,
	},
	RoleMember: {
		CapManageOwnProfile: true, CapViewEvents: true, CapRegister: true,
	},
}

// ErrForbidden 能力校验失败
var ErrForbidden = apperrors.New(apperrors.ErrPermissionDenied, 40301, "无权执行该操作")

// Can 判断角色是否拥有能力
func (a Actor) Can(c Capability) bool {
	return rolePolicy[a.Role][c]
}

// Authorize 执行一次能力检查，失败返回 PermissionDenied
func Authorize(a Actor, c Capability) error {
	if a.UserID == "" || a.OrgID == "" || !a.Can(c) {
		return ErrForbidden
	}
	return nil
}
