package dto

import "github.com/shyamsasidharan1/eventbuddy/internal/domain"

// ── 报名模块 DTO ──

// RegisterRequest 批量报名请求，同一批次共享一个状态
type RegisterRequest struct {
	Registrants []domain.RegistrantRef `json:"registrants" binding:"required,min=1,max=20,dive"`
	CustomData  map[string]any         `json:"custom_data"`
	Notes       string                 `json:"notes"       binding:"omitempty,max=1000"`
}

// RegisterResponse 批量报名结果
type RegisterResponse struct {
	Status        string                 `json:"status"`
	Registrations []RegistrationResponse `json:"registrations"`
}

// RegistrationResponse 报名记录
type RegistrationResponse struct {
	RegistrationID string         `json:"registration_id"`
	EventID        string         `json:"event_id"`
	EventTitle     string         `json:"event_title,omitempty"`
	EventStartsAt  string         `json:"event_starts_at,omitempty"`
	RegistrantType string         `json:"registrant_type"`
	RegistrantID   string         `json:"registrant_id"`
	RegistrantName string         `json:"registrant_name,omitempty"`
	Status         string         `json:"status"`
	CustomData     map[string]any `json:"custom_data,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	RegisteredAt   string         `json:"registered_at"`
	CheckedIn      bool           `json:"checked_in"`
	CheckedInAt    string         `json:"checked_in_at,omitempty"`
	CancelledAt    string         `json:"cancelled_at,omitempty"`
}

// RegistrationListRequest 活动报名名单查询参数
type RegistrationListRequest struct {
	Status    string `form:"status"     binding:"omitempty,oneof=PENDING CONFIRMED WAITLISTED CANCELLED"`
	CheckedIn *bool  `form:"checked_in"`
}

// RegistrationSummary 报名名单汇总
type RegistrationSummary struct {
	Pending    int64 `json:"pending"`
	Confirmed  int64 `json:"confirmed"`
	Waitlisted int64 `json:"waitlisted"`
	Cancelled  int64 `json:"cancelled"`
	CheckedIn  int64 `json:"checked_in"`
}

// EventRegistrationsResponse 活动报名名单
type EventRegistrationsResponse struct {
	Registrations []RegistrationResponse `json:"registrations"`
	Summary       RegistrationSummary    `json:"summary"`
}

// UpdateRegistrationStatusRequest 管理员修改报名状态
type UpdateRegistrationStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING CONFIRMED WAITLISTED CANCELLED"`
	Notes  string `json:"notes"  binding:"omitempty,max=1000"`
}

// CancelRegistrationResponse 取消结果
type CancelRegistrationResponse struct {
	Registration RegistrationResponse `json:"registration"`
	Promoted     int                  `json:"promoted"` // 候补转正人数
}

// CheckInRequest 批量签到请求
type CheckInRequest struct {
	RegistrationIDs []string `json:"registration_ids" binding:"required,min=1,max=200,dive,uuid"`
}

// CheckInResponse 批量签到结果
type CheckInResponse struct {
	CheckedIn        int `json:"checked_in"`
	AlreadyCheckedIn int `json:"already_checked_in"`
}
