package models

// Form payloads mirror the request bodies the API expects. The validate
// tags are evaluated by internal/validation, which also translates
// violations into per-field messages.

// LoginForm feeds POST /auth/login.
type LoginForm struct {
	Login    string `json:"login" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
}

// RegistrationForm feeds POST /auth/register.
type RegistrationForm struct {
	Username        string `json:"username" validate:"required,min=3,login_chars"`
	Email           string `json:"email" validate:"required,email_shape"`
	FullName        string `json:"full_name" validate:"required,trimmed_min=2"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// UserForm is the admin user create/update payload. Password stays empty on
// edit unless the operator wants to replace it.
type UserForm struct {
	FIO      string   `json:"fio" validate:"required,trimmed_min=2"`
	Login    string   `json:"login" validate:"required,min=3,login_chars"`
	Email    string   `json:"email" validate:"required,email_shape"`
	Password string   `json:"password" validate:"omitempty,min=8"`
	Role     UserRole `json:"role" validate:"required,oneof=student teacher admin"`
	GroupID  *int     `json:"group_id"`
}

// GroupForm is the admin group create/update payload.
type GroupForm struct {
	Name string `json:"name" validate:"required"`
}

// TestForm is the admin test create/update payload.
type TestForm struct {
	Name     string `json:"name" validate:"required"`
	CourseID *int   `json:"course_id" validate:"required"`
}

// CourseForm is the admin course create/update payload.
type CourseForm struct {
	Name      string `json:"name" validate:"required"`
	TeacherID *int   `json:"teacher_id" validate:"required"`
	GroupID   *int   `json:"group_id" validate:"required"`
}

// TestResultForm feeds POST /api/completed-tests.
type TestResultForm struct {
	TestID int `json:"test_id" validate:"required"`
	Score  int `json:"score" validate:"gte=0,lte=10"`
}

// EmptyUserForm returns the initial user form shape; role defaults to
// student the way the original form did.
func EmptyUserForm() UserForm { return UserForm{Role: RoleStudent} }

// EmptyGroupForm returns the initial group form shape.
func EmptyGroupForm() GroupForm { return GroupForm{} }

// EmptyTestForm returns the initial test form shape.
func EmptyTestForm() TestForm { return TestForm{} }

// EmptyCourseForm returns the initial course form shape.
func EmptyCourseForm() CourseForm { return CourseForm{} }
