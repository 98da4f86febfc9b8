package model

import (
	"time"

	"github.com/shyamsasidharan1/eventbuddy/internal/domain"
)

// UserAccount 登录账号表 — 对应 user_accounts，(org_id, email) 唯一
type UserAccount struct {
	UserID        string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	OrgID         string      `gorm:"type:uuid;not null"                             json:"org_id"`
	Email         string      `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash  *string     `gorm:"type:varchar(255)"                              json:"-"` // 接受邀请前为空
	Role          domain.Role `gorm:"type:varchar(20);not null;default:'member'"     json:"role"`
	IsActive      bool        `gorm:"not null;default:false"                         json:"is_active"`
	EmailVerified bool        `gorm:"not null;default:false"                         json:"email_verified"`
	LastLoginAt   *time.Time  `json:"last_login_at,omitempty"`
	BaseModel

	// 关联
	Organization *Organization `gorm:"foreignKey:OrgID;references:OrgID" json:"organization,omitempty"`
}

// TableName 指定表名
func (UserAccount) TableName() string { return "user_accounts" }
