package gamification

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/dayquest/dayquest/internal/domain"
)

// Participant identifies a leaderboard competitor.
type Participant struct {
	UserID   string
	Username string
}

// ComputeLeaderboard ranks participants by points earned from tasks
// completed inside [windowStart, windowEnd] (both inclusive).
//
// Ordering is total: points descending, then user ID ascending. Ranks are
// 1-based positions in that order. Duplicate participants are counted once.
// Inputs are never modified.
func ComputeLeaderboard(
	participants []Participant,
	tasksByParticipant map[string][]domain.Task,
	windowStart, windowEnd time.Time,
) ([]domain.LeaderboardEntry, error) {
	if windowEnd.Before(windowStart) {
		return nil, fmt.Errorf("%w: %s < %s", domain.ErrInvalidWindow,
			windowEnd.Format(time.RFC3339), windowStart.Format(time.RFC3339))
	}

	seen := make(map[string]bool, len(participants))
	board := make([]domain.LeaderboardEntry, 0, len(participants))
	for _, p := range participants {
		if seen[p.UserID] {
			continue
		}
		seen[p.UserID] = true

		entry := domain.LeaderboardEntry{UserID: p.UserID, Username: p.Username}
		for _, t := range tasksByParticipant[p.UserID] {
			if t.UserID != "" && t.UserID != p.UserID {
				continue
			}
			if !t.CompletedWithin(windowStart, windowEnd) {
				continue
			}
			entry.TotalPoints += int64(t.PointsEarned)
			entry.TasksCompleted++
		}
		board = append(board, entry)
	}

	slices.SortFunc(board, func(a, b domain.LeaderboardEntry) int {
		if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	for i := range board {
		board[i].Rank = i + 1
	}
	return board, nil
}
