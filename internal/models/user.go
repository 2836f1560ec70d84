package models

// UserRole represents the roles the LMS distinguishes.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// Valid reports whether the role is one the server accepts.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// UserProfile is the client-side copy of a user record. The password never
// travels back from the server; it only appears in forms on the way out.
type UserProfile struct {
	ID      int      `json:"id"`
	Email   string   `json:"email"`
	Login   string   `json:"login"`
	FIO     string   `json:"fio"`
	Role    UserRole `json:"role"`
	GroupID *int     `json:"group_id,omitempty"`
	Group   *Group   `json:"group,omitempty"`
}
