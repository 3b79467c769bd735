package domain

// ─── Streak Types ───────────────────────────────────────────────────────────

// Streak is the persisted streak state of a user.
// Current never exceeds Max; Max never decreases.
type Streak struct {
	Current      int   `json:"current"`
	Max          int   `json:"max"`
	LastTaskDate *Date `json:"last_task_date,omitempty"`
}

// StreakOf extracts the streak snapshot of a user.
func StreakOf(u *User) Streak {
	return Streak{Current: u.CurrentStreak, Max: u.MaxStreak, LastTaskDate: u.LastTaskDate}
}

// Apply writes s back onto the user.
func (s Streak) Apply(u *User) {
	u.CurrentStreak = s.Current
	u.MaxStreak = s.Max
	u.LastTaskDate = s.LastTaskDate
}

// ─── Statistics ─────────────────────────────────────────────────────────────

// TaskStats summarizes completed tasks over a period.
type TaskStats struct {
	PeriodDays     int                `json:"period_days"`
	TotalPoints    int64              `json:"total_points"`
	TasksCompleted int                `json:"tasks_completed"`
	AveragePoints  float64            `json:"average_points_per_task"`
	ByDifficulty   map[Difficulty]int `json:"by_difficulty"`
}

// Completion is the outcome of completing a task.
type Completion struct {
	Task         Task `json:"task"`
	PointsEarned int  `json:"points_earned"`
	User         User `json:"user"`
}

// Deletion is the outcome of deleting a task.
type Deletion struct {
	TaskID     string `json:"task_id"`
	PointsLost int    `json:"points_lost"`
	User       User   `json:"user"`
}
