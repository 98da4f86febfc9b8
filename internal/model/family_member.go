package model

import "time"

// FamilyMember 家庭成员表 — 对应 family_members
type FamilyMember struct {
	FamilyMemberID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"family_member_id"`
	OrgID          string     `gorm:"type:uuid;not null"                             json:"org_id"`
	MemberID       string     `gorm:"type:uuid;not null;index"                       json:"member_id"`
	FirstName      string     `gorm:"type:varchar(100);not null"                     json:"first_name"`
	LastName       string     `gorm:"type:varchar(100);not null"                     json:"last_name"`
	Relationship   string     `gorm:"type:varchar(50);not null"                      json:"relationship"`
	DateOfBirth    *time.Time `gorm:"type:date"                                      json:"date_of_birth,omitempty"`
	Phone          string     `gorm:"type:varchar(50)"                               json:"phone,omitempty"`
	IsActive       bool       `gorm:"not null"                                       json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (FamilyMember) TableName() string { return "family_members" }

// FullName 姓名
func (f *FamilyMember) FullName() string {
	return f.FirstName + " " + f.LastName
}
