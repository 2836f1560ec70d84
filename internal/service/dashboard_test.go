package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edulms/admin-console/internal/api"
	"github.com/edulms/admin-console/internal/models"
	"github.com/edulms/admin-console/internal/notify"
	"github.com/edulms/admin-console/internal/validation"
	apperrors "github.com/edulms/admin-console/pkg/errors"
)

type dashFixture struct {
	svc      *DashboardService
	calls    *callRecorder
	messages *[]notify.Notification
}

type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) record(method, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, method+" "+path)
}

func (r *callRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make([]string, len(r.calls))
	copy(snapshot, r.calls)
	return snapshot
}

func newDashFixture(t *testing.T, register func(*gin.Engine)) *dashFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	calls := &callRecorder{}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		calls.record(c.Request.Method, c.Request.URL.Path)
		c.Next()
	})
	register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	var messages []notify.Notification
	notifier := notify.New(zap.NewNop(), func(n notify.Notification) {
		messages = append(messages, n)
	})
	client := api.NewClient(srv.URL, nil)
	return &dashFixture{
		svc:      NewDashboardService(client, notifier, validation.New(), zap.NewNop(), nil),
		calls:    calls,
		messages: &messages,
	}
}

func okCourses(r *gin.Engine) {
	r.GET("/api/courses/my", func(c *gin.Context) {
		c.JSON(http.StatusOK, []models.CourseWithDetails{
			{ID: 1, Name: "Databases", TotalTests: 4},
		})
	})
}

func TestLoadAllStudent(t *testing.T) {
	f := newDashFixture(t, func(r *gin.Engine) {
		okCourses(r)
		r.GET("/api/student/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, models.StudentStats{CompletedTestsCount: 3, TotalTestsCount: 4, AverageScore: 8.5, CompletionPercentage: 75})
		})
		r.GET("/api/student/completed-tests", func(c *gin.Context) {
			c.JSON(http.StatusOK, []models.StudentTestDetail{{TestName: "Midterm", Score: 9, MaxScore: 10}})
		})
	})

	err := f.svc.LoadAll(context.Background(), &models.UserProfile{Role: models.RoleStudent})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"GET /api/courses/my",
		"GET /api/student/stats",
		"GET /api/student/completed-tests",
	}, f.calls.all())

	require.Len(t, f.svc.Courses(), 1)
	require.NotNil(t, f.svc.StudentStats())
	assert.InDelta(t, 8.5, f.svc.StudentStats().AverageScore, 0.001)
	assert.Len(t, f.svc.StudentDetails(), 1)
	assert.Nil(t, f.svc.TeacherStats())
	assert.False(t, f.svc.Loading())
}

func TestLoadAllTeacher(t *testing.T) {
	f := newDashFixture(t, func(r *gin.Engine) {
		okCourses(r)
		r.GET("/api/teacher/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, models.TeacherStats{CourseCount: 2, GroupCount: 2, StudentCount: 40})
		})
	})

	require.NoError(t, f.svc.LoadAll(context.Background(), &models.UserProfile{Role: models.RoleTeacher}))

	assert.Equal(t, []string{"GET /api/courses/my", "GET /api/teacher/stats"}, f.calls.all())
	require.NotNil(t, f.svc.TeacherStats())
	assert.Equal(t, 40, f.svc.TeacherStats().StudentCount)
	assert.Nil(t, f.svc.StudentStats())
}

func TestLoadAllAdmin(t *testing.T) {
	f := newDashFixture(t, func(r *gin.Engine) {
		okCourses(r)
		r.GET("/api/admin/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, models.AdminStats{CourseCount: 5, UserCount: 120, GroupCount: 6})
		})
	})

	require.NoError(t, f.svc.LoadAll(context.Background(), &models.UserProfile{Role: models.RoleAdmin}))

	assert.Equal(t, []string{"GET /api/courses/my", "GET /api/admin/stats"}, f.calls.all())
	require.NotNil(t, f.svc.AdminStats())
	assert.Equal(t, 120, f.svc.AdminStats().UserCount)
}

func TestLoadAllPartialFailureKeepsGoodData(t *testing.T) {
	f := newDashFixture(t, func(r *gin.Engine) {
		okCourses(r)
		r.GET("/api/student/stats", func(c *gin.Context) {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "stats exploded"})
		})
		r.GET("/api/student/completed-tests", func(c *gin.Context) {
			c.JSON(http.StatusOK, []models.StudentTestDetail{{TestName: "Midterm"}})
		})
	})

	err := f.svc.LoadAll(context.Background(), &models.UserProfile{Role: models.RoleStudent})
	require.Error(t, err)

	assert.Len(t, f.svc.Courses(), 1)
	assert.Nil(t, f.svc.StudentStats())
	assert.Len(t, f.svc.StudentDetails(), 1)

	require.Len(t, *f.messages, 1)
	assert.Equal(t, "Failed to load dashboard data", (*f.messages)[0].Message)
	assert.Equal(t, notify.KindError, (*f.messages)[0].Kind)
}

func TestCourseTests(t *testing.T) {
	f := newDashFixture(t, func(r *gin.Engine) {
		r.GET("/api/courses/1/tests-with-completion", func(c *gin.Context) {
			c.JSON(http.StatusOK, []models.TestWithCompletion{
				{ID: 7, Name: "Midterm", Completed: true, Score: ptr(9)},
			})
		})
	})

	tests, err := f.svc.CourseTests(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.True(t, tests[0].Completed)
}

func TestSubmitTestResultRejectsOutOfRangeScoreLocally(t *testing.T) {
	f := newDashFixture(t, func(r *gin.Engine) {})

	err := f.svc.SubmitTestResult(context.Background(), 1, models.TestResultForm{TestID: 7, Score: 11})
	require.Error(t, err)

	assert.Equal(t, apperrors.KindValidation, apperrors.FromError(err).Kind)
	assert.Empty(t, f.calls.all())
	require.Len(t, *f.messages, 1)
	assert.Equal(t, notify.KindWarning, (*f.messages)[0].Kind)
}

func TestSubmitTestResultReloadsSequentially(t *testing.T) {
	f := newDashFixture(t, func(r *gin.Engine) {
		r.POST("/api/completed-tests", func(c *gin.Context) {
			var form models.TestResultForm
			require.NoError(t, c.ShouldBindJSON(&form))
			assert.Equal(t, 7, form.TestID)
			c.JSON(http.StatusCreated, gin.H{"id": 1})
		})
		r.GET("/api/courses/1/tests-with-completion", func(c *gin.Context) {
			c.JSON(http.StatusOK, []models.TestWithCompletion{})
		})
		r.GET("/api/student/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, models.StudentStats{})
		})
		r.GET("/api/student/completed-tests", func(c *gin.Context) {
			c.JSON(http.StatusOK, []models.StudentTestDetail{})
		})
	})

	err := f.svc.SubmitTestResult(context.Background(), 1, models.TestResultForm{TestID: 7, Score: 9})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"POST /api/completed-tests",
		"GET /api/courses/1/tests-with-completion",
		"GET /api/student/stats",
		"GET /api/student/completed-tests",
	}, f.calls.all())

	require.NotEmpty(t, *f.messages)
	assert.Equal(t, "Test result saved", (*f.messages)[0].Message)
}

func TestSubmitTestResultSurfacesServerDetail(t *testing.T) {
	f := newDashFixture(t, func(r *gin.Engine) {
		r.POST("/api/completed-tests", func(c *gin.Context) {
			c.JSON(http.StatusConflict, gin.H{"detail": "Test already completed"})
		})
	})

	err := f.svc.SubmitTestResult(context.Background(), 1, models.TestResultForm{TestID: 7, Score: 9})
	require.Error(t, err)

	require.Len(t, *f.messages, 1)
	assert.Equal(t, "Test already completed", (*f.messages)[0].Message)
	assert.Equal(t, []string{"POST /api/completed-tests"}, f.calls.all())
}

func TestCourseStatistics(t *testing.T) {
	f := newDashFixture(t, func(r *gin.Engine) {
		r.GET("/api/teacher/courses/3/statistics", func(c *gin.Context) {
			c.JSON(http.StatusOK, models.CourseStatistics{
				CourseID:   3,
				CourseName: "Databases",
				GroupName:  "IS-21",
				StudentProgress: []models.StudentProgress{
					{StudentName: "Anna Smirnova", CompletedTests: 3, TotalTests: 4},
				},
			})
		})
	})

	stats, err := f.svc.CourseStatistics(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Databases", stats.CourseName)
	require.Len(t, stats.StudentProgress, 1)
}

func TestTeacherCourseTests(t *testing.T) {
	f := newDashFixture(t, func(r *gin.Engine) {
		r.GET("/api/teacher/courses/3/tests", func(c *gin.Context) {
			c.JSON(http.StatusOK, []models.TestWithStatistics{
				{ID: 7, Name: "Midterm", CompletedCount: 12},
			})
		})
	})

	tests, err := f.svc.TeacherCourseTests(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, 12, tests[0].CompletedCount)
}

func ptr[T any](v T) *T { return &v }
