package dto

import "github.com/shyamsasidharan1/eventbuddy/internal/domain"

// ── 活动模块 DTO ──

// CreateEventRequest 创建活动请求
type CreateEventRequest struct {
	Title            string           `json:"title"             binding:"required,max=200"`
	Description      string           `json:"description"`
	Location         string           `json:"location"          binding:"omitempty,max=255"`
	StartsAt         string           `json:"starts_at"         binding:"required"` // RFC3339
	EndsAt           string           `json:"ends_at"`
	Capacity         int              `json:"capacity"          binding:"required,min=1"`
	MaxCapacity      *int             `json:"max_capacity"      binding:"omitempty,min=1"`
	WaitlistEnabled  *bool            `json:"waitlist_enabled"` // 默认开启
	RequiresApproval bool             `json:"requires_approval"`
	IsPublic         bool             `json:"is_public"`
	CustomFields     []map[string]any `json:"custom_fields"`
}

// UpdateEventRequest 更新活动请求
type UpdateEventRequest struct {
	Title            *string          `json:"title"             binding:"omitempty,min=1,max=200"`
	Description      *string          `json:"description"`
	Location         *string          `json:"location"          binding:"omitempty,max=255"`
	StartsAt         *string          `json:"starts_at"`
	EndsAt           *string          `json:"ends_at"`
	Capacity         *int             `json:"capacity"          binding:"omitempty,min=1"`
	MaxCapacity      *int             `json:"max_capacity"      binding:"omitempty,min=1"`
	WaitlistEnabled  *bool            `json:"waitlist_enabled"`
	RequiresApproval *bool            `json:"requires_approval"`
	IsPublic         *bool            `json:"is_public"`
	CustomFields     []map[string]any `json:"custom_fields"`
}

// EventListRequest 活动列表查询参数
type EventListRequest struct {
	PaginationRequest
	Upcoming        bool   `form:"upcoming"`
	IncludeInactive bool   `form:"include_inactive"` // 仅管理员生效
	Search          string `form:"search" binding:"omitempty,max=100"`
}

// EventResponse 活动详情
type EventResponse struct {
	EventID          string               `json:"event_id"`
	Title            string               `json:"title"`
	Description      string               `json:"description,omitempty"`
	Location         string               `json:"location,omitempty"`
	StartsAt         string               `json:"starts_at"`
	EndsAt           string               `json:"ends_at,omitempty"`
	Capacity         int                  `json:"capacity"`
	MaxCapacity      *int                 `json:"max_capacity,omitempty"`
	WaitlistEnabled  bool                 `json:"waitlist_enabled"`
	RequiresApproval bool                 `json:"requires_approval"`
	IsPublic         bool                 `json:"is_public"`
	IsActive         bool                 `json:"is_active"`
	CustomFields     []map[string]any     `json:"custom_fields,omitempty"`
	Availability     *domain.Availability `json:"availability,omitempty"`
	CreatedAt        string               `json:"created_at"`
}

// EventCapacityResponse 活动名额占用
type EventCapacityResponse struct {
	EventID        string `json:"event_id"`
	Capacity       int    `json:"capacity"`
	MaxCapacity    *int   `json:"max_capacity,omitempty"`
	Confirmed      int64  `json:"confirmed"`
	Pending        int64  `json:"pending"`
	Waitlisted     int64  `json:"waitlisted"`
	AvailableSpots int    `json:"available_spots"`
	WaitlistSpots  int    `json:"waitlist_spots"`
	CanRegister    bool   `json:"can_register"`
	CanWaitlist    bool   `json:"can_waitlist"`
}

// EventStatsResponse 活动统计
type EventStatsResponse struct {
	EventID        string           `json:"event_id"`
	ByStatus       map[string]int64 `json:"by_status"`
	TotalActive    int64            `json:"total_active"`
	CheckedIn      int64            `json:"checked_in"`
	AttendanceRate float64          `json:"attendance_rate"` // 签到数 / CONFIRMED 数
}
