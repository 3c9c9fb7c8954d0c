// Package auth resolves who is acting and what they may do.
package auth

import "strings"

// Role is the closed set of capability tags an actor can carry.
type Role string

const (
	RoleAnonymous Role = "ANONYMOUS"
	RoleUser      Role = "USER"
	RoleOfficer   Role = "OFFICER"
	RoleAdmin     Role = "ADMIN"
	RoleSystem    Role = "SYSTEM"
)

var rank = map[Role]int{
	RoleAnonymous: 0,
	RoleUser:      1,
	RoleOfficer:   2,
	RoleAdmin:     3,
	RoleSystem:    4,
}

// ParseRole accepts "admin", "ROLE_ADMIN" and friends.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "ROLE_"))
	if _, ok := rank[r]; !ok {
		return "", false
	}
	return r, true
}

// ResolveRole picks the most capable of the stored role names. SYSTEM and
// ANONYMOUS are never granted from stored roles; an account with nothing
// recognisable is a plain user.
func ResolveRole(stored []string) Role {
	best := RoleUser
	for _, s := range stored {
		r, ok := ParseRole(s)
		if !ok || r == RoleSystem || r == RoleAnonymous {
			continue
		}
		if rank[r] > rank[best] {
			best = r
		}
	}
	return best
}

// IsStaff reports whether r handles complaints (officer, admin or system).
func (r Role) IsStaff() bool {
	return r == RoleOfficer || r == RoleAdmin || r == RoleSystem
}

func (r Role) String() string {
	return string(r)
}
