package models

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleMentor  UserRole = "mentor"
	RoleAdmin   UserRole = "admin"
)

// ParseRole maps a raw role claim to a known role, defaulting to student.
func ParseRole(raw string) UserRole {
	switch UserRole(raw) {
	case RoleMentor:
		return RoleMentor
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleStudent
	}
}

// Session identifies the user a running engine instance serves. One engine
// instance is constructed per session; there is no shared singleton.
type Session struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Phone    string   `json:"phone,omitempty"`
	Role     UserRole `json:"role"`
}
