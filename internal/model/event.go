package model

import (
	"time"

	"gorm.io/datatypes"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
)

// Event 活动表 — 对应 events，通过 is_active 软删除
type Event struct {
	EventID          string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_id"`
	OrgID            string         `gorm:"type:uuid;not null;index"                       json:"org_id"`
	Title            string         `gorm:"type:varchar(200);not null"                     json:"title"`
	Description      string         `gorm:"type:text"                                      json:"description,omitempty"`
	Location         string         `gorm:"type:varchar(255)"                              json:"location,omitempty"`
	StartsAt         time.Time      `gorm:"not null"                                       json:"starts_at"`
	EndsAt           *time.Time     `json:"ends_at,omitempty"`
	Capacity         int            `gorm:"not null"                                       json:"capacity"`
	MaxCapacity      *int           `json:"max_capacity,omitempty"`
	WaitlistEnabled  bool           `gorm:"not null"                                       json:"waitlist_enabled"`
	RequiresApproval bool           `gorm:"not null;default:false"                         json:"requires_approval"`
	IsPublic         bool           `gorm:"not null;default:false"                         json:"is_public"`
	IsActive         bool           `gorm:"not null"                                       json:"is_active"`
	CustomFields     datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"               json:"custom_fields"`
	BaseModel
}

// TableName 指定表名
func (Event) TableName() string { return "events" }

// CapacityPolicy 活动的名额判定配置
func (e *Event) CapacityPolicy() domain.CapacityPolicy {
	return domain.CapacityPolicy{
		Capacity:         e.Capacity,
		MaxCapacity:      e.MaxCapacity,
		WaitlistEnabled:  e.WaitlistEnabled,
		RequiresApproval: e.RequiresApproval,
	}
}

// IsUpcoming 是否尚未开始
func (e *Event) IsUpcoming(now time.Time) bool {
	return e.StartsAt.After(now)
}
