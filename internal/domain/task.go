// Package domain holds the DayQuest entities and error kinds.
// A Task is created pending, completes at most once (freezing its points),
// and may be deleted at any time.
package domain

import "time"

// TaskStatus tracks task lifecycle.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskDeleted   TaskStatus = "deleted"
)

// ParseTaskStatus validates a status filter value.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch st := TaskStatus(s); st {
	case TaskPending, TaskCompleted, TaskDeleted:
		return st, true
	}
	return "", false
}

// Difficulty is the immutable base-point tier of a task.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// Difficulties lists the tiers in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyDifficult}

// Task is a unit of personal work that earns points on completion.
type Task struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Difficulty   Difficulty `json:"difficulty"`
	Status       TaskStatus `json:"status"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	PointsEarned int        `json:"points_earned"`
	Reflection   string     `json:"reflection,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsCompleted reports whether the task has been completed and its points frozen.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskCompleted && t.CompletedAt != nil
}

// CompletedWithin reports whether the task was completed inside [start, end].
func (t *Task) CompletedWithin(start, end time.Time) bool {
	if !t.IsCompleted() {
		return false
	}
	at := *t.CompletedAt
	return !at.Before(start) && !at.After(end)
}
