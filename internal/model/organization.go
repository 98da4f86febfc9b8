package model

import "gorm.io/datatypes"

// Organization 组织（租户）表 — 对应 organizations
type Organization struct {
	OrgID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"org_id"`
	Name         string         `gorm:"type:varchar(200);not null"                     json:"name"`
	Slug         string         `gorm:"type:varchar(100);not null;uniqueIndex"         json:"slug"`
	Description  string         `gorm:"type:text"                                      json:"description,omitempty"`
	ContactEmail string         `gorm:"type:varchar(255)"                              json:"contact_email,omitempty"`
	ContactPhone string         `gorm:"type:varchar(50)"                               json:"contact_phone,omitempty"`
	Website      string         `gorm:"type:varchar(255)"                              json:"website,omitempty"`
	IsActive     bool           `gorm:"not null"                                       json:"is_active"`
	Settings     datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"settings"`
	BaseModel
}

// TableName 指定表名
func (Organization) TableName() string { return "organizations" }
