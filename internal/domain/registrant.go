package domain

import "fmt"

// RegistrantKind 报名主体类型
type RegistrantKind string

const (
	RegistrantMember       RegistrantKind = "MEMBER"
	RegistrantFamilyMember RegistrantKind = "FAMILY_MEMBER"
)

// RegistrantRef 报名主体：会员本人或其家庭成员，二者必居其一
type RegistrantRef struct {
	Kind RegistrantKind `json:"type"`
	ID   string         `json:"id"`
}

// MemberRef 构造指向会员本人的报名主体
func MemberRef(memberID string) RegistrantRef {
	return RegistrantRef{Kind: RegistrantMember, ID: memberID}
}

// FamilyMemberRef 构造指向家庭成员的报名主体
func FamilyMemberRef(familyMemberID string) RegistrantRef {
	return RegistrantRef{Kind: RegistrantFamilyMember, ID: familyMemberID}
}

// Validate 校验类型合法且 ID 非空
func (r RegistrantRef) Validate() error {
	switch r.Kind {
	case RegistrantMember, RegistrantFamilyMember:
	default:
		return fmt.Errorf("未知的报名主体类型 %q", r.Kind)
	}
	if r.ID == "" {
		return fmt.Errorf("报名主体 ID 不能为空")
	}
	return nil
}

func (r RegistrantRef) String() string {
	return string(r.Kind) + ":" + r.ID
}
