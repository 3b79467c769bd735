package domain

import "time"

// MaxCompetitionParticipants caps a competition, creator included.
const MaxCompetitionParticipants = 5

// Competition is a time-boxed leaderboard among a few users.
type Competition struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	CreatorID    string    `json:"creator_id"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasParticipant reports whether userID takes part in the competition.
func (c *Competition) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// IsActive reports whether now falls inside the competition window.
func (c *Competition) IsActive(now time.Time) bool {
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// LeaderboardEntry is one ranked row of a derived leaderboard.
type LeaderboardEntry struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username,omitempty"`
	TotalPoints    int64  `json:"total_points"`
	TasksCompleted int    `json:"tasks_completed"`
	Rank           int    `json:"rank"`
}
