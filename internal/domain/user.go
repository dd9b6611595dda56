// Package domain contains entities without logic, just meta-data
// and the validation rules that come with them.
package domain

type UserID string

type Role string

const (
	RoleStudent   Role = "student"
	RoleCounselor Role = "counselor"
	RoleAdmin     Role = "admin"
)

// ValidRole reports whether r is one of the portal roles. An empty or
// unknown role is treated as a plain participant with no admin override.
func ValidRole(r Role) bool {
	switch r {
	case RoleStudent, RoleCounselor, RoleAdmin:
		return true
	}
	return false
}
