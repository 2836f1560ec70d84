package models

import "time"

// Course references its teacher and group weakly by id; the decorated
// variant carries the expanded records plus aggregate counters the server
// computes per caller role.
type Course struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	TeacherID int       `json:"teacher_id"`
	GroupID   int       `json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CourseWithDetails is the list shape of /api/courses/my and
// /api/admin/courses.
type CourseWithDetails struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	Teacher   *UserProfile `json:"teacher,omitempty"`
	Group     *Group       `json:"group,omitempty"`
	CreatedAt time.Time    `json:"created_at"`

	TotalTests     int     `json:"total_tests"`
	CompletedTests int     `json:"completed_tests"`
	CompletionRate float64 `json:"completion_rate"`

	StudentCount    int     `json:"student_count"`
	AverageProgress float64 `json:"average_progress"`
}
