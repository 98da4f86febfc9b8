package model

import "time"

// 通知投递状态
const (
	NotificationQueued = "queued"
	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

// Notification 邮件通知投递记录表 — 对应 notifications
type Notification struct {
	NotificationID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	OrgID          string     `gorm:"type:uuid;not null;index"                       json:"org_id"`
	Recipient      string     `gorm:"type:varchar(255);not null"                     json:"recipient"`
	Kind           string     `gorm:"type:varchar(50);not null"                      json:"kind"` // member_invite | member_approved | ...
	Subject        string     `gorm:"type:varchar(255);not null"                     json:"subject"`
	Status         string     `gorm:"type:varchar(20);not null"                      json:"status"`
	Error          *string    `gorm:"type:text"                                      json:"error,omitempty"`
	RelatedType    *string    `gorm:"type:varchar(20)"                               json:"related_type,omitempty"` // member | registration
	RelatedID      *string    `gorm:"type:uuid"                                      json:"related_id,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }
