package models

import "time"

// StudentStats summarises a student's own progress.
type StudentStats struct {
	CompletedTestsCount  int     `json:"completed_tests_count"`
	AverageScore         float64 `json:"average_score"`
	TotalTestsCount      int     `json:"total_tests_count"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// StudentTestDetail is one row of the student's completed-tests listing.
type StudentTestDetail struct {
	TestName    string    `json:"test_name"`
	CourseName  string    `json:"course_name"`
	Score       int       `json:"score"`
	MaxScore    int       `json:"max_score"`
	CompletedAt time.Time `json:"completed_at"`
	TeacherName string    `json:"teacher_name"`
}

// TeacherStats summarises a teacher's reach.
type TeacherStats struct {
	CourseCount  int `json:"course_count"`
	GroupCount   int `json:"group_count"`
	StudentCount int `json:"student_count"`
}

// AdminStats summarises the whole installation.
type AdminStats struct {
	CourseCount int `json:"course_count"`
	UserCount   int `json:"user_count"`
	GroupCount  int `json:"group_count"`
}

// StudentProgress is one student row inside course statistics.
type StudentProgress struct {
	StudentID      int        `json:"student_id"`
	StudentName    string     `json:"student_name"`
	StudentLogin   string     `json:"student_login"`
	CompletedTests int        `json:"completed_tests"`
	TotalTests     int        `json:"total_tests"`
	CompletionRate float64    `json:"completion_rate"`
	AverageScore   float64    `json:"average_score"`
	LastActivity   *time.Time `json:"last_activity,omitempty"`
}

// CourseStatistics is the teacher drill-in for one course.
type CourseStatistics struct {
	CourseID              int               `json:"course_id"`
	CourseName            string            `json:"course_name"`
	GroupName             string            `json:"group_name"`
	TotalStudents         int               `json:"total_students"`
	TotalTests            int               `json:"total_tests"`
	AverageCompletionRate float64           `json:"average_completion_rate"`
	AverageScore          float64           `json:"average_score"`
	StudentProgress       []StudentProgress `json:"student_progress"`
}
