package models

import "time"

// Test belongs to a course, referenced by id.
type Test struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CourseID  int       `json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TestWithCourse is the admin list shape: each test decorated with its
// course details.
type TestWithCourse struct {
	ID        int                `json:"id"`
	Name      string             `json:"name"`
	CourseID  int                `json:"course_id"`
	CreatedAt time.Time          `json:"created_at"`
	Course    *CourseWithDetails `json:"course,omitempty"`
}

// TestWithCompletion is the student view of a course test.
type TestWithCompletion struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	CourseID    int        `json:"course_id"`
	CreatedAt   time.Time  `json:"created_at"`
	Completed   bool       `json:"completed"`
	Score       *int       `json:"score,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TestWithStatistics is the teacher view of a course test.
type TestWithStatistics struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	CourseID       int       `json:"course_id"`
	CreatedAt      time.Time `json:"created_at"`
	TotalStudents  int       `json:"total_students"`
	CompletedCount int       `json:"completed_count"`
	AverageScore   float64   `json:"average_score"`
	CompletionRate float64   `json:"completion_rate"`
}

// CompletedTest is immutable from the client's perspective once created.
type CompletedTest struct {
	ID          int       `json:"id"`
	StudentID   int       `json:"student_id"`
	TestID      int       `json:"test_id"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completed_at"`
}

// MaxTestScore bounds the score a student may report for a test.
const MaxTestScore = 10
