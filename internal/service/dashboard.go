package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/edulms/admin-console/internal/api"
	"github.com/edulms/admin-console/internal/models"
	"github.com/edulms/admin-console/internal/notify"
	"github.com/edulms/admin-console/internal/validation"
	apperrors "github.com/edulms/admin-console/pkg/errors"
)

// DashboardService loads the role-specific dashboard data. Calls are
// strictly sequential: courses first, then the stats for the verified
// role. Ordering between independent loads is enforced by awaiting each
// call, never by concurrent dispatch.
type DashboardService struct {
	api       *api.Client
	notifier  *notify.Notifier
	validator *validation.FormValidator
	logger    *zap.Logger
	onChange  func()

	mu           sync.Mutex
	loading      bool
	testsLoading bool
	statsLoading bool

	courses        []models.CourseWithDetails
	studentStats   *models.StudentStats
	studentDetails []models.StudentTestDetail
	teacherStats   *models.TeacherStats
	adminStats     *models.AdminStats
}

// NewDashboardService wires the dashboard loader.
func NewDashboardService(client *api.Client, notifier *notify.Notifier, formValidator *validation.FormValidator, logger *zap.Logger, onChange func()) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if formValidator == nil {
		formValidator = validation.New()
	}
	return &DashboardService{
		api:       client,
		notifier:  notifier,
		validator: formValidator,
		logger:    logger,
		onChange:  onChange,
	}
}

// LoadAll fetches everything the given role's dashboard shows. Any failed
// sub-load surfaces one error notification; partial data stays usable.
func (s *DashboardService) LoadAll(ctx context.Context, profile *models.UserProfile) error {
	s.setLoading(true)
	defer s.setLoading(false)

	var firstErr error

	if err := s.loadCourses(ctx); err != nil {
		firstErr = err
	}

	switch profile.Role {
	case models.RoleStudent:
		if err := s.loadStudentStats(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := s.loadStudentDetails(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	case models.RoleTeacher:
		if err := s.loadTeacherStats(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	case models.RoleAdmin:
		if err := s.loadAdminStats(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		s.notifier.Error("Failed to load dashboard data")
	}
	return firstErr
}

func (s *DashboardService) loadCourses(ctx context.Context) error {
	var courses []models.CourseWithDetails
	if err := s.api.Get(ctx, "/api/courses/my", &courses); err != nil {
		s.logger.Warn("failed to load courses", zap.Error(err))
		return err
	}
	s.mu.Lock()
	s.courses = courses
	s.mu.Unlock()
	s.changed()
	return nil
}

func (s *DashboardService) loadStudentStats(ctx context.Context) error {
	var stats models.StudentStats
	if err := s.api.Get(ctx, "/api/student/stats", &stats); err != nil {
		s.logger.Warn("failed to load student stats", zap.Error(err))
		return err
	}
	s.mu.Lock()
	s.studentStats = &stats
	s.mu.Unlock()
	s.changed()
	return nil
}

func (s *DashboardService) loadStudentDetails(ctx context.Context) error {
	var details []models.StudentTestDetail
	if err := s.api.Get(ctx, "/api/student/completed-tests", &details); err != nil {
		s.logger.Warn("failed to load completed tests", zap.Error(err))
		return err
	}
	s.mu.Lock()
	s.studentDetails = details
	s.mu.Unlock()
	s.changed()
	return nil
}

func (s *DashboardService) loadTeacherStats(ctx context.Context) error {
	var stats models.TeacherStats
	if err := s.api.Get(ctx, "/api/teacher/stats", &stats); err != nil {
		s.logger.Warn("failed to load teacher stats", zap.Error(err))
		return err
	}
	s.mu.Lock()
	s.teacherStats = &stats
	s.mu.Unlock()
	s.changed()
	return nil
}

func (s *DashboardService) loadAdminStats(ctx context.Context) error {
	var stats models.AdminStats
	if err := s.api.Get(ctx, "/api/admin/stats", &stats); err != nil {
		s.logger.Warn("failed to load admin stats", zap.Error(err))
		return err
	}
	s.mu.Lock()
	s.adminStats = &stats
	s.mu.Unlock()
	s.changed()
	return nil
}

// CourseTests loads the student view of one course's tests.
func (s *DashboardService) CourseTests(ctx context.Context, courseID int) ([]models.TestWithCompletion, error) {
	s.setTestsLoading(true)
	defer s.setTestsLoading(false)

	var tests []models.TestWithCompletion
	path := fmt.Sprintf("/api/courses/%d/tests-with-completion", courseID)
	if err := s.api.Get(ctx, path, &tests); err != nil {
		s.notifier.Error("Failed to load course tests")
		return nil, err
	}
	return tests, nil
}

// SubmitTestResult reports a completed test. The score is checked locally
// against 0..10 before any request is issued; success triggers the same
// sequential reloads the dashboard performed initially.
func (s *DashboardService) SubmitTestResult(ctx context.Context, courseID int, form models.TestResultForm) error {
	if result := s.validator.TestResult(form); !result.OK {
		s.notifier.Warning("Score must be between 0 and 10")
		return apperrors.Clone(apperrors.ErrValidation, "score must be between 0 and 10")
	}

	if err := s.api.Post(ctx, "/api/completed-tests", form, nil); err != nil {
		appErr := apperrors.FromError(err)
		message := "Failed to save test result"
		if appErr.Message != "" {
			message = appErr.Message
		}
		s.notifier.Error(message)
		return err
	}

	s.notifier.Success("Test result saved")

	if _, err := s.CourseTests(ctx, courseID); err != nil {
		return err
	}
	if err := s.loadStudentStats(ctx); err != nil {
		return err
	}
	return s.loadStudentDetails(ctx)
}

// CourseStatistics loads the teacher drill-in for one course.
func (s *DashboardService) CourseStatistics(ctx context.Context, courseID int) (*models.CourseStatistics, error) {
	s.setStatsLoading(true)
	defer s.setStatsLoading(false)

	var stats models.CourseStatistics
	path := fmt.Sprintf("/api/teacher/courses/%d/statistics", courseID)
	if err := s.api.Get(ctx, path, &stats); err != nil {
		s.notifier.Error("Failed to load course statistics")
		return nil, err
	}
	return &stats, nil
}

// TeacherCourseTests loads the teacher view of one course's tests.
func (s *DashboardService) TeacherCourseTests(ctx context.Context, courseID int) ([]models.TestWithStatistics, error) {
	s.setTestsLoading(true)
	defer s.setTestsLoading(false)

	var tests []models.TestWithStatistics
	path := fmt.Sprintf("/api/teacher/courses/%d/tests", courseID)
	if err := s.api.Get(ctx, path, &tests); err != nil {
		s.notifier.Error("Failed to load course tests")
		return nil, err
	}
	return tests, nil
}

// Courses returns the loaded course list.
func (s *DashboardService) Courses() []models.CourseWithDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]models.CourseWithDetails, len(s.courses))
	copy(snapshot, s.courses)
	return snapshot
}

// StudentStats returns the loaded student stats, if any.
func (s *DashboardService) StudentStats() *models.StudentStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.studentStats
}

// StudentDetails returns the student's completed-test rows.
func (s *DashboardService) StudentDetails() []models.StudentTestDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]models.StudentTestDetail, len(s.studentDetails))
	copy(snapshot, s.studentDetails)
	return snapshot
}

// TeacherStats returns the loaded teacher stats, if any.
func (s *DashboardService) TeacherStats() *models.TeacherStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teacherStats
}

// AdminStats returns the loaded admin stats, if any.
func (s *DashboardService) AdminStats() *models.AdminStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminStats
}

// Loading reports whether the initial dashboard load is in flight.
func (s *DashboardService) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *DashboardService) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
	s.changed()
}

func (s *DashboardService) setTestsLoading(v bool) {
	s.mu.Lock()
	s.testsLoading = v
	s.mu.Unlock()
	s.changed()
}

func (s *DashboardService) setStatsLoading(v bool) {
	s.mu.Lock()
	s.statsLoading = v
	s.mu.Unlock()
	s.changed()
}

func (s *DashboardService) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
