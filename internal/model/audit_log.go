package model

import (
	"time"

	"gorm.io/datatypes"
)

// 审计动作
const (
	AuditMemberInvited         = "MEMBER_INVITED"
	AuditInviteResent          = "INVITE_RESENT"
	AuditInviteAccepted        = "INVITE_ACCEPTED"
	AuditRegistrationRequested = "REGISTRATION_REQUESTED"
	AuditMemberApproved        = "MEMBER_APPROVED"
	AuditMemberDenied          = "MEMBER_DENIED"
	AuditMemberInactivated     = "MEMBER_INACTIVATED"
	AuditMemberActivated       = "MEMBER_ACTIVATED"
	AuditRegistrationStatus    = "REGISTRATION_STATUS_CHANGED"
	AuditRegistrationCancelled = "REGISTRATION_CANCELLED"
	AuditEventDeactivated      = "EVENT_DEACTIVATED"
)

// AuditLog 审计日志表 — 对应 audit_logs，只追加
type AuditLog struct {
	AuditLogID     string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_log_id"`
	OrgID          string         `gorm:"type:uuid;not null;index"                       json:"org_id"`
	ActorID        *string        `gorm:"type:uuid"                                      json:"actor_id,omitempty"` // 公开申请时为空
	Action         string         `gorm:"type:varchar(50);not null"                      json:"action"`
	EntityType     string         `gorm:"type:varchar(30);not null"                      json:"entity_type"`
	EntityID       string         `gorm:"type:uuid;not null"                             json:"entity_id"`
	PreviousStatus *string        `gorm:"type:varchar(20)"                               json:"previous_status,omitempty"`
	NewStatus      *string        `gorm:"type:varchar(20)"                               json:"new_status,omitempty"`
	Message        string         `gorm:"type:text"                                      json:"message,omitempty"`
	Metadata       datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"metadata"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (AuditLog) TableName() string { return "audit_logs" }
