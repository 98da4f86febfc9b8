package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求；同一邮箱属于多个组织时需指定 org_slug
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
	OrgSlug  string `json:"org_slug" binding:"omitempty,max=100"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int        `json:"expires_in"` // Access Token 有效期（秒）
	User         MeResponse `json:"user"`
}

// MeResponse 当前登录账号信息
type MeResponse struct {
	UserID           string `json:"user_id"`
	OrgID            string `json:"org_id"`
	OrgName          string `json:"org_name,omitempty"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	MemberID         string `json:"member_id,omitempty"`
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	MembershipStatus string `json:"membership_status,omitempty"`
	LastLoginAt      string `json:"last_login_at,omitempty"`
}
