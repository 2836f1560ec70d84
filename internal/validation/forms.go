package validation

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/edulms/admin-console/internal/models"
)

var (
	loginCharsRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	emailShapeRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Result is the outcome of a pure validation pass. A form is OK iff no
// field violates its rule; every violated field appears in FieldErrors
// keyed by its wire name.
type Result struct {
	OK          bool
	FieldErrors map[string]string
}

// FormValidator evaluates form payloads. All fields are checked in one
// pass; validation never touches the network.
type FormValidator struct {
	validate *validator.Validate
}

// New builds a FormValidator with the console's custom rules registered.
func New() *FormValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("login_chars", func(fl validator.FieldLevel) bool {
		return loginCharsRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("email_shape", func(fl validator.FieldLevel) bool {
		return emailShapeRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("trimmed_min", func(fl validator.FieldLevel) bool {
		min, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len([]rune(strings.TrimSpace(fl.Field().String()))) >= min
	})

	return &FormValidator{validate: v}
}

// Login applies the single canonical login rule set: login at least three
// characters, password at least eight.
func (f *FormValidator) Login(form models.LoginForm) Result {
	return f.check(form)
}

// Registration validates the self-registration form.
func (f *FormValidator) Registration(form models.RegistrationForm) Result {
	return f.check(form)
}

// User validates the admin user form. A password is mandatory when creating
// an account and optional when editing one.
func (f *FormValidator) User(form models.UserForm, editing bool) Result {
	res := f.check(form)
	if !editing && strings.TrimSpace(form.Password) == "" {
		if res.FieldErrors == nil {
			res.FieldErrors = map[string]string{}
		}
		res.FieldErrors["password"] = messageFor("password", "required")
		res.OK = false
	}
	return res
}

// Group validates the group form.
func (f *FormValidator) Group(form models.GroupForm) Result {
	return f.check(form)
}

// Test validates the test form.
func (f *FormValidator) Test(form models.TestForm) Result {
	return f.check(form)
}

// Course validates the course form.
func (f *FormValidator) Course(form models.CourseForm) Result {
	return f.check(form)
}

// TestResult validates a student's score submission: the score must stay
// within 0..10 or the request is never issued.
func (f *FormValidator) TestResult(form models.TestResultForm) Result {
	return f.check(form)
}

func (f *FormValidator) check(form interface{}) Result {
	err := f.validate.Struct(form)
	if err == nil {
		return Result{OK: true, FieldErrors: map[string]string{}}
	}

	fieldErrors := map[string]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			if _, seen := fieldErrors[fe.Field()]; seen {
				continue
			}
			fieldErrors[fe.Field()] = messageFor(fe.Field(), fe.Tag())
		}
	} else {
		fieldErrors["_form"] = "invalid form payload"
	}

	return Result{OK: false, FieldErrors: fieldErrors}
}

// messageFor maps a violated rule to the operator-facing message rendered
// next to the offending input.
func messageFor(field, tag string) string {
	switch tag {
	case "required":
		switch field {
		case "login", "username":
			return "Enter a login"
		case "password":
			return "Enter a password"
		case "confirm_password":
			return "Confirm the password"
		case "email":
			return "Enter an email"
		case "full_name", "fio":
			return "Enter a full name"
		case "name":
			return "Enter a name"
		case "course_id":
			return "Select a course"
		case "teacher_id":
			return "Select a teacher"
		case "group_id":
			return "Select a group"
		case "role":
			return "Select a role"
		case "test_id":
			return "Select a test"
		}
		return "This field is required"
	case "min":
		switch field {
		case "login", "username":
			return "Login must be at least 3 characters"
		case "password":
			return "Password must be at least 8 characters"
		}
		return "Value is too short"
	case "trimmed_min":
		return "Full name is too short"
	case "login_chars":
		return "Login may only contain latin letters, digits and underscores"
	case "email_shape":
		return "Enter a valid email"
	case "eqfield":
		return "Passwords do not match"
	case "oneof":
		return "Unknown role"
	case "gte", "lte":
		return "Score must be between 0 and 10"
	}
	return "Invalid value"
}
