package dto

// ── 公开接口 DTO ──

// PublicOrgResponse 组织公开信息
type PublicOrgResponse struct {
	OrgID            string `json:"org_id"`
	Name             string `json:"name"`
	Slug             string `json:"slug"`
	Description      string `json:"description,omitempty"`
	ContactEmail     string `json:"contact_email,omitempty"`
	ContactPhone     string `json:"contact_phone,omitempty"`
	Website          string `json:"website,omitempty"`
	RegistrationOpen bool   `json:"registration_open"`
}

// PublicRegistrationRequest 公开入会申请
type PublicRegistrationRequest struct {
	Email       string `json:"email"         binding:"required,email,max=255"`
	Password    string `json:"password"      binding:"required,min=8,max=72"`
	FirstName   string `json:"first_name"    binding:"required,max=100"`
	LastName    string `json:"last_name"     binding:"required,max=100"`
	Phone       string `json:"phone"         binding:"omitempty,max=50"`
	Address     string `json:"address"       binding:"omitempty,max=255"`
	City        string `json:"city"          binding:"omitempty,max=100"`
	State       string `json:"state"         binding:"omitempty,max=100"`
	ZipCode     string `json:"zip_code"      binding:"omitempty,max=20"`
	DateOfBirth string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Message     string `json:"message"       binding:"omitempty,max=1000"`
}

// PublicRegistrationResponse 入会申请受理结果
type PublicRegistrationResponse struct {
	MemberID string `json:"member_id"`
	Status   string `json:"status"`
}

// ValidatePhoneRequest 校验电话号码
type ValidatePhoneRequest struct {
	Phone   string `json:"phone"   binding:"required,max=50"`
	Country string `json:"country" binding:"omitempty,len=2"` // ISO 3166-1 alpha-2，默认 US
}

// ValidatePhoneResponse 电话号码校验结果
type ValidatePhoneResponse struct {
	Valid     bool   `json:"valid"`
	Formatted string `json:"formatted,omitempty"` // E.164
}

// ValidateZipRequest 校验邮编
type ValidateZipRequest struct {
	ZipCode string `json:"zip_code" binding:"required,max=20"`
}

// ValidateZipResponse 邮编校验结果
type ValidateZipResponse struct {
	Valid bool `json:"valid"`
}
