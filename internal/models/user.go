package models

import (
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Role names as stored in User.Roles.
const (
	RoleUser    = "USER"
	RoleOfficer = "OFFICER"
	RoleAdmin   = "ADMIN"
)

// User is an account that can sign in. Officers and admins are users whose
// Roles include OFFICER or ADMIN.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"type:text;uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"type:text;uniqueIndex;not null" json:"email"`
	FullName     string         `gorm:"type:text" json:"fullName"`
	PasswordHash string         `gorm:"type:text;not null" json:"-"`
	Roles        pq.StringArray `gorm:"type:text[]" json:"roles"`
}

// BeforeCreate normalizes identity fields and gives new accounts the USER
// role when none was set.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if len(u.Roles) == 0 {
		u.Roles = pq.StringArray{RoleUser}
	}
	for i, r := range u.Roles {
		u.Roles[i] = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(r)), "ROLE_")
	}
	return
}

// HasRole reports whether the user holds role (case-insensitive, ROLE_
// prefix allowed).
func (u *User) HasRole(role string) bool {
	want := strings.TrimPrefix(strings.ToUpper(role), "ROLE_")
	for _, r := range u.Roles {
		if strings.TrimPrefix(strings.ToUpper(r), "ROLE_") == want {
			return true
		}
	}
	return false
}

// IsStaff reports whether the user may be assigned complaints.
func (u *User) IsStaff() bool {
	return u.HasRole(RoleOfficer) || u.HasRole(RoleAdmin)
}

// DisplayName prefers the full name.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
