package controller

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/edulms/admin-console/internal/api"
	"github.com/edulms/admin-console/internal/models"
	"github.com/edulms/admin-console/internal/notify"
	"github.com/edulms/admin-console/internal/validation"
	apperrors "github.com/edulms/admin-console/pkg/errors"
)

// Deps carries the collaborators shared by every resource controller.
// Profile yields the verified operator profile for local guards.
type Deps struct {
	API       *api.Client
	Notifier  *notify.Notifier
	Validator *validation.FormValidator
	Logger    *zap.Logger
	Confirm   ConfirmFunc
	OnChange  func()
	Profile   func() *models.UserProfile
}

// NewUsers builds the user management controller. Deleting a teacher
// cascades to their courses and tests, deleting a student to their
// completed-test records; the prompts spell this out even though the
// server enforces it. Operators can never delete themselves.
func NewUsers(deps Deps) *Controller[models.UserProfile, models.UserForm] {
	return New(Config[models.UserProfile, models.UserForm]{
		Name:   "user",
		Plural: "users",
		Endpoints: Endpoints{
			List:   "/api/admin/users",
			Create: "/api/admin/users",
			Update: "/api/admin/users/%d",
			Delete: "/api/admin/users/%d",
		},
		API:      deps.API,
		Notifier: deps.Notifier,
		Logger:   deps.Logger,
		Validate: func(form models.UserForm, editing bool) validation.Result {
			return deps.Validator.User(form, editing)
		},
		ID:        func(u models.UserProfile) int { return u.ID },
		EmptyForm: models.EmptyUserForm,
		FormOf: func(u models.UserProfile) models.UserForm {
			groupID := u.GroupID
			if u.Group != nil {
				id := u.Group.ID
				groupID = &id
			}
			return models.UserForm{
				FIO:     u.FIO,
				Login:   u.Login,
				Email:   u.Email,
				Role:    u.Role,
				GroupID: groupID,
			}
		},
		DeletePrompt: func(u models.UserProfile) string {
			prompt := fmt.Sprintf("Delete user %q?", u.FIO)
			switch u.Role {
			case models.RoleTeacher:
				prompt += " All of this teacher's courses and their tests will be deleted as well."
			case models.RoleStudent:
				prompt += " All of this student's completed tests will be deleted as well."
			}
			return prompt
		},
		Guard: func(u models.UserProfile) error {
			if profile := deps.Profile(); profile != nil && profile.ID == u.ID {
				return apperrors.New(apperrors.KindValidation, 0, "You cannot delete your own account")
			}
			return nil
		},
		Decorate: decorateUsersWithGroups(deps),
		Confirm:  deps.Confirm,
		OnChange: deps.OnChange,
	})
}

// decorateUsersWithGroups resolves the weak group reference of each user by
// a follow-up sequential groups load. A failed decoration leaves the users
// undecorated rather than failing the whole list.
func decorateUsersWithGroups(deps Deps) func(ctx context.Context, users []models.UserProfile) []models.UserProfile {
	return func(ctx context.Context, users []models.UserProfile) []models.UserProfile {
		var groups []models.Group
		if err := deps.API.Get(ctx, "/api/admin/groups", &groups); err != nil {
			return users
		}
		byID := make(map[int]models.Group, len(groups))
		for _, group := range groups {
			byID[group.ID] = group
		}
		for i := range users {
			if users[i].GroupID == nil {
				continue
			}
			if group, ok := byID[*users[i].GroupID]; ok {
				g := group
				users[i].Group = &g
			}
		}
		return users
	}
}

// NewGroups builds the group management controller.
func NewGroups(deps Deps) *Controller[models.Group, models.GroupForm] {
	return New(Config[models.Group, models.GroupForm]{
		Name:   "group",
		Plural: "groups",
		Endpoints: Endpoints{
			List:   "/api/admin/groups",
			Create: "/api/admin/groups",
			Update: "/api/admin/groups/%d",
			Delete: "/api/admin/groups/%d",
		},
		API:      deps.API,
		Notifier: deps.Notifier,
		Logger:   deps.Logger,
		Validate: func(form models.GroupForm, _ bool) validation.Result {
			return deps.Validator.Group(form)
		},
		ID:        func(g models.Group) int { return g.ID },
		EmptyForm: models.EmptyGroupForm,
		FormOf: func(g models.Group) models.GroupForm {
			return models.GroupForm{Name: g.Name}
		},
		DeletePrompt: func(g models.Group) string {
			return fmt.Sprintf("Delete group %q? All users in this group will be detached from it.", g.Name)
		},
		Confirm:  deps.Confirm,
		OnChange: deps.OnChange,
	})
}

// NewTests builds the test management controller.
func NewTests(deps Deps) *Controller[models.TestWithCourse, models.TestForm] {
	return New(Config[models.TestWithCourse, models.TestForm]{
		Name:   "test",
		Plural: "tests",
		Endpoints: Endpoints{
			List:   "/api/admin/tests",
			Create: "/api/admin/tests",
			Update: "/api/admin/tests/%d",
			Delete: "/api/admin/tests/%d",
		},
		API:      deps.API,
		Notifier: deps.Notifier,
		Logger:   deps.Logger,
		Validate: func(form models.TestForm, _ bool) validation.Result {
			return deps.Validator.Test(form)
		},
		ID:        func(t models.TestWithCourse) int { return t.ID },
		EmptyForm: models.EmptyTestForm,
		FormOf: func(t models.TestWithCourse) models.TestForm {
			courseID := t.CourseID
			return models.TestForm{Name: t.Name, CourseID: &courseID}
		},
		DeletePrompt: func(t models.TestWithCourse) string {
			return fmt.Sprintf("Delete test %q? All completion results for this test will be deleted as well.", t.Name)
		},
		Confirm:  deps.Confirm,
		OnChange: deps.OnChange,
	})
}

// NewCourses builds the course management controller.
func NewCourses(deps Deps) *Controller[models.CourseWithDetails, models.CourseForm] {
	return New(Config[models.CourseWithDetails, models.CourseForm]{
		Name:   "course",
		Plural: "courses",
		Endpoints: Endpoints{
			List:   "/api/admin/courses",
			Create: "/api/admin/courses",
			Update: "/api/admin/courses/%d",
			Delete: "/api/admin/courses/%d",
		},
		API:      deps.API,
		Notifier: deps.Notifier,
		Logger:   deps.Logger,
		Validate: func(form models.CourseForm, _ bool) validation.Result {
			return deps.Validator.Course(form)
		},
		ID:        func(course models.CourseWithDetails) int { return course.ID },
		EmptyForm: models.EmptyCourseForm,
		FormOf: func(course models.CourseWithDetails) models.CourseForm {
			form := models.CourseForm{Name: course.Name}
			if course.Teacher != nil {
				id := course.Teacher.ID
				form.TeacherID = &id
			}
			if course.Group != nil {
				id := course.Group.ID
				form.GroupID = &id
			}
			return form
		},
		DeletePrompt: func(course models.CourseWithDetails) string {
			return fmt.Sprintf("Delete course %q? All tests in this course and their completion results will be deleted as well.", course.Name)
		},
		Confirm:  deps.Confirm,
		OnChange: deps.OnChange,
	})
}
