package dto

import "github.com/shopspring/decimal"

// ── 会员模块 DTO ──

// InviteMemberRequest 邀请会员请求
type InviteMemberRequest struct {
	Email              string           `json:"email"               binding:"required,email,max=255"`
	FirstName          string           `json:"first_name"          binding:"required,max=100"`
	LastName           string           `json:"last_name"           binding:"required,max=100"`
	Phone              string           `json:"phone"               binding:"omitempty,max=50"`
	Role               string           `json:"role"                binding:"omitempty,oneof=org_admin event_staff member"`
	MembershipCategory string           `json:"membership_category" binding:"omitempty,max=50"`
	MembershipFee      *decimal.Decimal `json:"membership_fee"`
}

// InviteResponse 邀请结果
type InviteResponse struct {
	Member    MemberResponse `json:"member"`
	ExpiresAt string         `json:"expires_at"`
}

// AcceptInviteRequest 接受邀请并设置密码
type AcceptInviteRequest struct {
	Token    string `json:"token"    binding:"required"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// ReasonRequest 拒绝或停用时提交的原因，长度由业务层按操作校验
type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// MemberListRequest 会员列表查询参数
type MemberListRequest struct {
	PaginationRequest
	Status   string `form:"status"   binding:"omitempty,oneof=INVITED PENDING_APPROVAL ACTIVE INACTIVE"`
	Category string `form:"category" binding:"omitempty,max=50"`
	Search   string `form:"search"   binding:"omitempty,max=100"`
}

// UpdateMemberRequest 更新会员档案；状态与会费字段仅管理员可改
type UpdateMemberRequest struct {
	Version             int              `json:"version"               binding:"required,min=1"`
	FirstName           *string          `json:"first_name"            binding:"omitempty,min=1,max=100"`
	LastName            *string          `json:"last_name"             binding:"omitempty,min=1,max=100"`
	Phone               *string          `json:"phone"                 binding:"omitempty,max=50"`
	Address             *string          `json:"address"               binding:"omitempty,max=255"`
	City                *string          `json:"city"                  binding:"omitempty,max=100"`
	State               *string          `json:"state"                 binding:"omitempty,max=100"`
	ZipCode             *string          `json:"zip_code"              binding:"omitempty,max=20"`
	DateOfBirth         *string          `json:"date_of_birth"         binding:"omitempty,datetime=2006-01-02"`
	CustomFields        map[string]any   `json:"custom_fields"`
	MembershipCategory  *string          `json:"membership_category"   binding:"omitempty,max=50"`
	MembershipFee       *decimal.Decimal `json:"membership_fee"`
	MembershipStartDate *string          `json:"membership_start_date" binding:"omitempty,datetime=2006-01-02"`
	NextPaymentDue      *string          `json:"next_payment_due"      binding:"omitempty,datetime=2006-01-02"`
	LastPaymentDate     *string          `json:"last_payment_date"     binding:"omitempty,datetime=2006-01-02"`
}

// AdminOnly 是否包含仅管理员可修改的字段
func (r *UpdateMemberRequest) AdminOnly() bool {
	return r.MembershipCategory != nil || r.MembershipFee != nil || r.MembershipStartDate != nil ||
		r.NextPaymentDue != nil || r.LastPaymentDate != nil
}

// MemberResponse 会员档案
type MemberResponse struct {
	MemberID            string          `json:"member_id"`
	UserID              string          `json:"user_id"`
	Email               string          `json:"email"`
	Role                string          `json:"role,omitempty"`
	FirstName           string          `json:"first_name"`
	LastName            string          `json:"last_name"`
	Phone               string          `json:"phone,omitempty"`
	Address             string          `json:"address,omitempty"`
	City                string          `json:"city,omitempty"`
	State               string          `json:"state,omitempty"`
	ZipCode             string          `json:"zip_code,omitempty"`
	DateOfBirth         string          `json:"date_of_birth,omitempty"`
	MembershipCategory  string          `json:"membership_category"`
	MembershipFee       decimal.Decimal `json:"membership_fee"`
	MembershipStartDate string          `json:"membership_start_date,omitempty"`
	NextPaymentDue      string          `json:"next_payment_due,omitempty"`
	LastPaymentDate     string          `json:"last_payment_date,omitempty"`
	CustomFields        map[string]any  `json:"custom_fields,omitempty"`
	MembershipStatus    string          `json:"membership_status"`
	InvitedAt           string          `json:"invited_at,omitempty"`
	ApprovedAt          string          `json:"approved_at,omitempty"`
	DeniedAt            string          `json:"denied_at,omitempty"`
	DenialReason        string          `json:"denial_reason,omitempty"`
	ActivatedAt         string          `json:"activated_at,omitempty"`
	InactivatedAt       string          `json:"inactivated_at,omitempty"`
	InactivationReason  string          `json:"inactivation_reason,omitempty"`
	Version             int             `json:"version"`
	CreatedAt           string          `json:"created_at"`
}

// MemberStatsResponse 会员统计
type MemberStatsResponse struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"by_status"`
	ByCategory     map[string]int64 `json:"by_category"`
	RecentSignups  int64            `json:"recent_signups"` // 近 30 天
	FamilyMembers  int64            `json:"family_members"`
	UpcomingEvents int64            `json:"upcoming_events"`
}

// ── 家庭成员 DTO ──

// FamilyMemberRequest 新增家庭成员
type FamilyMemberRequest struct {
	FirstName    string `json:"first_name"    binding:"required,max=100"`
	LastName     string `json:"last_name"     binding:"required,max=100"`
	Relationship string `json:"relationship"  binding:"required,oneof=SPOUSE CHILD PARENT SIBLING OTHER"`
	DateOfBirth  string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Phone        string `json:"phone"         binding:"omitempty,max=50"`
}

// UpdateFamilyMemberRequest 更新家庭成员
type UpdateFamilyMemberRequest struct {
	FirstName    *string `json:"first_name"    binding:"omitempty,min=1,max=100"`
	LastName     *string `json:"last_name"     binding:"omitempty,min=1,max=100"`
	Relationship *string `json:"relationship"  binding:"omitempty,oneof=SPOUSE CHILD PARENT SIBLING OTHER"`
	DateOfBirth  *string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Phone        *string `json:"phone"         binding:"omitempty,max=50"`
}

// FamilyMemberResponse 家庭成员
type FamilyMemberResponse struct {
	FamilyMemberID string `json:"family_member_id"`
	MemberID       string `json:"member_id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Relationship   string `json:"relationship"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	Phone          string `json:"phone,omitempty"`
}
