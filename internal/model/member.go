package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
)

// MemberProfile 会员档案表 — 对应 member_profiles（与 user_accounts 1:1）
type MemberProfile struct {
	MemberID            string                  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"member_id"`
	OrgID               string                  `gorm:"type:uuid;not null"                             json:"org_id"`
	UserID              string                  `gorm:"type:uuid;not null;uniqueIndex"                 json:"user_id"`
	FirstName           string                  `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName            string                  `gorm:"type:varchar(100);not null"                     json:"last_name"`
	Phone               string                  `gorm:"type:varchar(50)"                               json:"phone,omitempty"`
	Address             string                  `gorm:"type:varchar(255)"                              json:"address,omitempty"`
	City                string                  `gorm:"type:varchar(100)"                              json:"city,omitempty"`
	State               string                  `gorm:"type:varchar(100)"                              json:"state,omitempty"`
	ZipCode             string                  `gorm:"type:varchar(20)"                               json:"zip_code,omitempty"`
	DateOfBirth         *time.Time              `gorm:"type:date"                                      json:"date_of_birth,omitempty"`
	MembershipCategory  string                  `gorm:"type:varchar(50);not null;default:'REGULAR'"    json:"membership_category"`
	MembershipFee       decimal.Decimal         `gorm:"type:numeric(10,2);not null;default:0"          json:"membership_fee"`
	MembershipStartDate *time.Time              `gorm:"type:date"                                      json:"membership_start_date,omitempty"`
	NextPaymentDue      *time.Time              `gorm:"type:date"                                      json:"next_payment_due,omitempty"`
	LastPaymentDate     *time.Time              `gorm:"type:date"                                      json:"last_payment_date,omitempty"`
	CustomFields        datatypes.JSON          `gorm:"type:jsonb;not null;default:'{}'"               json:"custom_fields"`
	MembershipStatus    domain.MembershipStatus `gorm:"type:varchar(20);not null"                      json:"membership_status"`
	InvitedAt           *time.Time              `json:"invited_at,omitempty"`
	ApprovedAt          *time.Time              `json:"approved_at,omitempty"`
	DeniedAt            *time.Time              `json:"denied_at,omitempty"`
	DenialReason        *string                 `gorm:"type:varchar(500)" json:"denial_reason,omitempty"`
	ActivatedAt         *time.Time              `json:"activated_at,omitempty"`
	InactivatedAt       *time.Time              `json:"inactivated_at,omitempty"`
	InactivationReason  *string                 `gorm:"type:varchar(500)" json:"inactivation_reason,omitempty"`
	VersionedModel

	// 关联
	User          *UserAccount   `gorm:"foreignKey:UserID;references:UserID"     json:"user,omitempty"`
	FamilyMembers []FamilyMember `gorm:"foreignKey:MemberID;references:MemberID" json:"family_members,omitempty"`
}

// TableName 指定表名
func (MemberProfile) TableName() string { return "member_profiles" }

// FullName 姓名
func (m *MemberProfile) FullName() string {
	return m.FirstName + " " + m.LastName
}

// TimestampsConsistent 当前状态对应的时间戳是否已填写
func (m *MemberProfile) TimestampsConsistent() bool {
	switch m.MembershipStatus {
	case domain.MembershipInvited:
		return m.InvitedAt != nil
	case domain.MembershipPendingApproval:
		return m.ApprovedAt == nil && m.DeniedAt == nil && m.ActivatedAt == nil
	case domain.MembershipActive:
		return m.ActivatedAt != nil
	case domain.MembershipInactive:
		return m.InactivatedAt != nil || m.DeniedAt != nil
	}
	return false
}
