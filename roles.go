package authkit

import "strings"

// Role is the principal's role
type Role = string

const (
	// RoleUser is the default role (i.e. own content only)
	RoleUser Role = "user"
	// RoleAdmin is the elevated role (i.e. all content, user management)
	RoleAdmin Role = "admin"
)

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a Role type
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, IsValidRole(role)
}

// AdminWhitelist is the configured set of emails permitted to self-register
// with the admin role. Membership checks are case-insensitive.
type AdminWhitelist []string

// Allows reports whether the email may register as an admin.
func (w AdminWhitelist) Allows(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, allowed := range w {
		if strings.ToLower(strings.TrimSpace(allowed)) == email {
			return true
		}
	}
	return false
}
