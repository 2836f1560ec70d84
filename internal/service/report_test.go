package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edulms/admin-console/internal/api"
	"github.com/edulms/admin-console/internal/models"
	"github.com/edulms/admin-console/pkg/storage"
)

func newReportFixture(t *testing.T, register func(*gin.Engine)) *ReportService {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewReportService(api.NewClient(srv.URL, nil), store, zap.NewNop())
}

func courseStatsRoute(r *gin.Engine) {
	r.GET("/api/teacher/courses/3/statistics", func(c *gin.Context) {
		activity := time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC)
		c.JSON(http.StatusOK, models.CourseStatistics{
			CourseID:   3,
			CourseName: "Databases",
			GroupName:  "IS-21",
			StudentProgress: []models.StudentProgress{
				{StudentName: "Anna Smirnova", StudentLogin: "asmirnova", CompletedTests: 3, TotalTests: 4, CompletionRate: 75, AverageScore: 8.3, LastActivity: &activity},
				{StudentName: "Boris Orlov", StudentLogin: "borlov", CompletedTests: 0, TotalTests: 4},
			},
		})
	})
}

func TestExportCourseStatisticsCSV(t *testing.T) {
	svc := newReportFixture(t, courseStatsRoute)

	path, err := svc.ExportCourseStatistics(context.Background(), 3, FormatCSV)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".csv"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "Student,Login,Completed")
	assert.Contains(t, content, "Anna Smirnova,asmirnova,3,4,75.0,8.3,2026-05-12")
	assert.Contains(t, content, "Boris Orlov")
}

func TestExportCourseStatisticsPDF(t *testing.T) {
	svc := newReportFixture(t, courseStatsRoute)

	path, err := svc.ExportCourseStatistics(context.Background(), 3, FormatPDF)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".pdf"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "%PDF"))
}

func TestExportStudentResults(t *testing.T) {
	svc := newReportFixture(t, func(r *gin.Engine) {
		r.GET("/api/student/completed-tests", func(c *gin.Context) {
			c.JSON(http.StatusOK, []models.StudentTestDetail{
				{
					TestName:    "Midterm",
					CourseName:  "Databases",
					TeacherName: "Olga Ivanova",
					Score:       9,
					MaxScore:    models.MaxTestScore,
					CompletedAt: time.Date(2026, 4, 2, 14, 30, 0, 0, time.UTC),
				},
			})
		})
	})

	path, err := svc.ExportStudentResults(context.Background(), FormatCSV)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Midterm,Databases,Olga Ivanova,9/10,2026-04-02")
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := newReportFixture(t, courseStatsRoute)

	_, err := svc.ExportCourseStatistics(context.Background(), 3, "xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported report format")
}

func TestExportPropagatesAPIFailure(t *testing.T) {
	svc := newReportFixture(t, func(r *gin.Engine) {
		r.GET("/api/teacher/courses/3/statistics", func(c *gin.Context) {
			c.JSON(http.StatusForbidden, gin.H{"detail": "Not your course"})
		})
	})

	_, err := svc.ExportCourseStatistics(context.Background(), 3, FormatCSV)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not your course")
}
