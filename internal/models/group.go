package models

import "time"

// Group is a student group, referenced weakly by users and courses.
type Group struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
