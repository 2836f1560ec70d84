package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/edulms/admin-console/internal/api"
	"github.com/edulms/admin-console/internal/models"
	"github.com/edulms/admin-console/pkg/export"
	"github.com/edulms/admin-console/pkg/storage"
)

// Report formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// ReportService turns server-computed statistics into files on disk.
type ReportService struct {
	api     *api.Client
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	storage *storage.LocalStorage
	logger  *zap.Logger
}

// NewReportService wires the exporters and their output directory.
func NewReportService(client *api.Client, store *storage.LocalStorage, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		api:     client,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		storage: store,
		logger:  logger,
	}
}

// ExportCourseStatistics fetches the teacher statistics for one course and
// writes them as csv or pdf, returning the file path.
func (s *ReportService) ExportCourseStatistics(ctx context.Context, courseID int, format string) (string, error) {
	var stats models.CourseStatistics
	path := fmt.Sprintf("/api/teacher/courses/%d/statistics", courseID)
	if err := s.api.Get(ctx, path, &stats); err != nil {
		return "", err
	}

	data := export.Dataset{
		Headers: []string{"Student", "Login", "Completed", "Total", "Completion %", "Average score", "Last activity"},
	}
	for _, row := range stats.StudentProgress {
		lastActivity := ""
		if row.LastActivity != nil {
			lastActivity = row.LastActivity.Format("2006-01-02")
		}
		data.Rows = append(data.Rows, []string{
			row.StudentName,
			row.StudentLogin,
			strconv.Itoa(row.CompletedTests),
			strconv.Itoa(row.TotalTests),
			fmt.Sprintf("%.1f", row.CompletionRate),
			fmt.Sprintf("%.1f", row.AverageScore),
			lastActivity,
		})
	}

	title := fmt.Sprintf("%s - %s", stats.CourseName, stats.GroupName)
	filename := fmt.Sprintf("course-%d-statistics-%s.%s", courseID, time.Now().Format("20060102"), format)
	return s.write(data, title, filename, format)
}

// ExportStudentResults writes the signed-in student's completed tests as
// csv or pdf, returning the file path.
func (s *ReportService) ExportStudentResults(ctx context.Context, format string) (string, error) {
	var details []models.StudentTestDetail
	if err := s.api.Get(ctx, "/api/student/completed-tests", &details); err != nil {
		return "", err
	}

	data := export.Dataset{
		Headers: []string{"Test", "Course", "Teacher", "Score", "Completed at"},
	}
	for _, row := range details {
		data.Rows = append(data.Rows, []string{
			row.TestName,
			row.CourseName,
			row.TeacherName,
			fmt.Sprintf("%d/%d", row.Score, row.MaxScore),
			row.CompletedAt.Format("2006-01-02"),
		})
	}

	filename := fmt.Sprintf("my-results-%s.%s", time.Now().Format("20060102"), format)
	return s.write(data, "Completed tests", filename, format)
}

func (s *ReportService) write(data export.Dataset, title, filename, format string) (string, error) {
	var rendered []byte
	var err error
	switch format {
	case FormatPDF:
		rendered, err = s.pdf.Render(data, title)
	case FormatCSV, "":
		rendered, err = s.csv.Render(data)
	default:
		return "", fmt.Errorf("unsupported report format %q", format)
	}
	if err != nil {
		return "", err
	}

	path, err := s.storage.Save(filename, rendered)
	if err != nil {
		return "", err
	}
	s.logger.Info("report exported", zap.String("path", path))
	return path, nil
}
