package dto

import "github.com/shopspring/decimal"

// ── 报表模块 DTO ──

// 报表导出格式
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ReportRequest 报表查询参数
type ReportRequest struct {
	Format          string `form:"format"           binding:"omitempty,oneof=json csv xlsx"`
	From            string `form:"from"             binding:"omitempty,datetime=2006-01-02"`
	To              string `form:"to"               binding:"omitempty,datetime=2006-01-02"`
	Status          string `form:"status"           binding:"omitempty,max=20"`
	Category        string `form:"category"         binding:"omitempty,max=50"`
	EventID         string `form:"event_id"         binding:"omitempty,uuid"`
	IncludeInactive bool   `form:"include_inactive"`
}

// GetFormat 导出格式（默认 JSON）
func (r *ReportRequest) GetFormat() string {
	if r.Format == "" {
		return FormatJSON
	}
	return r.Format
}

// MembershipReportRow 会员报表行
type MembershipReportRow struct {
	MemberID           string          `json:"member_id"`
	FirstName          string          `json:"first_name"`
	LastName           string          `json:"last_name"`
	Email              string          `json:"email"`
	Phone              string          `json:"phone,omitempty"`
	MembershipStatus   string          `json:"membership_status"`
	MembershipCategory string          `json:"membership_category"`
	MembershipFee      decimal.Decimal `json:"membership_fee"`
	StartDate          string          `json:"membership_start_date,omitempty"`
	FamilyMembers      int64           `json:"family_members"`
	CreatedAt          string          `json:"created_at"`
}

// RegistrationReportRow 报名报表行
type RegistrationReportRow struct {
	RegistrationID string `json:"registration_id"`
	EventTitle     string `json:"event_title"`
	EventStartsAt  string `json:"event_starts_at"`
	RegistrantType string `json:"registrant_type"`
	RegistrantName string `json:"registrant_name"`
	Status         string `json:"status"`
	RegisteredAt   string `json:"registered_at"`
	CheckedIn      bool   `json:"checked_in"`
}

// AttendanceReportRow 出勤报表行
type AttendanceReportRow struct {
	EventID         string  `json:"event_id"`
	Title           string  `json:"title"`
	StartsAt        string  `json:"starts_at"`
	Capacity        int     `json:"capacity"`
	TotalRegistered int64   `json:"total_registered"`
	TotalCheckedIn  int64   `json:"total_checked_in"`
	AttendanceRate  float64 `json:"attendance_rate"`
}

// FinancialReport 会费报表
type FinancialReport struct {
	ExpectedAnnual decimal.Decimal        `json:"expected_annual"` // ACTIVE 会员会费合计
	ByCategory     []FinancialCategoryRow `json:"by_category"`
	Overdue        []FinancialOverdueRow  `json:"overdue"`
	OverdueTotal   decimal.Decimal        `json:"overdue_total"`
}

// FinancialCategoryRow 按会员类别汇总的会费
type FinancialCategoryRow struct {
	Category string          `json:"category"`
	Members  int             `json:"members"`
	Total    decimal.Decimal `json:"total"`
}

// FinancialOverdueRow 逾期未缴会员
type FinancialOverdueRow struct {
	MemberID       string          `json:"member_id"`
	FullName       string          `json:"full_name"`
	Email          string          `json:"email"`
	Fee            decimal.Decimal `json:"fee"`
	NextPaymentDue string          `json:"next_payment_due"`
	DaysOverdue    int             `json:"days_overdue"`
}

// ── 审计日志 DTO ──

// AuditLogListRequest 审计日志查询参数
type AuditLogListRequest struct {
	PaginationRequest
	EntityType string `form:"entity_type" binding:"omitempty,oneof=member registration event"`
	EntityID   string `form:"entity_id"   binding:"omitempty,uuid"`
	Action     string `form:"action"      binding:"omitempty,max=50"`
}

// AuditLogResponse 审计日志
type AuditLogResponse struct {
	AuditLogID     string         `json:"audit_log_id"`
	ActorID        string         `json:"actor_id,omitempty"`
	Action         string         `json:"action"`
	EntityType     string         `json:"entity_type"`
	EntityID       string         `json:"entity_id"`
	PreviousStatus string         `json:"previous_status,omitempty"`
	NewStatus      string         `json:"new_status,omitempty"`
	Message        string         `json:"message,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      string         `json:"created_at"`
}
