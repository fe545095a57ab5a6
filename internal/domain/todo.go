package domain

import "time"

// Todo represents a single task owned by a user.
type Todo struct {
	ID        int64
	UserID    int64
	Title     string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
