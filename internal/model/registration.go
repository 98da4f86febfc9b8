package model

import (
	"time"

	"gorm.io/datatypes"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
)

// Registration 活动报名表 — 对应 registrations
// 报名主体以 (registrant_type, registrant_id) 表示，同一活动同一主体最多一条未取消报名
type Registration struct {
	RegistrationID string                    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"registration_id"`
	OrgID          string                    `gorm:"type:uuid;not null"                             json:"org_id"`
	EventID        string                    `gorm:"type:uuid;not null;index"                       json:"event_id"`
	RegistrantType domain.RegistrantKind     `gorm:"type:varchar(20);not null"                      json:"registrant_type"`
	RegistrantID   string                    `gorm:"type:uuid;not null"                             json:"registrant_id"`
	Status         domain.RegistrationStatus `gorm:"type:varchar(20);not null"                      json:"status"`
	CustomData     datatypes.JSON            `gorm:"type:jsonb;not null;default:'{}'"               json:"custom_data"`
	Notes          string                    `gorm:"type:text"                                      json:"notes,omitempty"`
	RegisteredAt   time.Time                 `gorm:"not null"                                       json:"registered_at"`
	CheckedIn      bool                      `gorm:"not null;default:false"                         json:"checked_in"`
	CheckedInAt    *time.Time                `json:"checked_in_at,omitempty"`
	CheckedInBy    *string                   `gorm:"type:uuid" json:"checked_in_by,omitempty"`
	CancelledAt    *time.Time                `json:"cancelled_at,omitempty"`
	BaseModel

	// 关联
	Event *Event `gorm:"foreignKey:EventID;references:EventID" json:"event,omitempty"`
}

// TableName 指定表名
func (Registration) TableName() string { return "registrations" }

// Registrant 报名主体
func (r *Registration) Registrant() domain.RegistrantRef {
	return domain.RegistrantRef{Kind: r.RegistrantType, ID: r.RegistrantID}
}

// SetRegistrant 设置报名主体
func (r *Registration) SetRegistrant(ref domain.RegistrantRef) {
	r.RegistrantType = ref.Kind
	r.RegistrantID = ref.ID
}

// ClearCheckIn 清除签到信息（离开 CONFIRMED 状态时调用）
func (r *Registration) ClearCheckIn() {
	r.CheckedIn = false
	r.CheckedInAt = nil
	r.CheckedInBy = nil
}
