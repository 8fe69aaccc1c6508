package entity

import "strings"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole accepts USER and ADMIN in any case, with or without the
// ROLE_ prefix some token issuers add.
func ParseRole(s string) (Role, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "ROLE_")
	switch Role(s) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

type User struct {
	ID              int64  `json:"id,omitempty"`
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Role            Role   `json:"role,omitempty" validate:"omitempty,oneof=USER ADMIN"`
	Password        string `json:"password,omitempty" validate:"omitempty,min=6"`
	ConfirmPassword string `json:"confirmPassword,omitempty" validate:"omitempty,eqfield=Password"`
}

type Profile struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=30"`
	UserEmail string `json:"userEmail" validate:"required,email"`
}

// Identity is who the session belongs to. The zero value is the anonymous
// identity.
type Identity struct {
	Token    string
	Role     Role
	Username string
	Email    string
	UserID   int64
}

func (i Identity) Anonymous() bool {
	return i.Token == ""
}
