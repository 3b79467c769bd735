package gamification

import (
	"time"

	"github.com/dayquest/dayquest/internal/domain"
)

// SummarizeTasks totals the tasks completed in the last periodDays days
// before now.
func SummarizeTasks(tasks []domain.Task, now time.Time, periodDays int) domain.TaskStats {
	stats := domain.TaskStats{
		PeriodDays:   periodDays,
		ByDifficulty: make(map[domain.Difficulty]int),
	}
	since := now.AddDate(0, 0, -periodDays)

	for _, t := range tasks {
		if !t.CompletedWithin(since, now) {
			continue
		}
		stats.TotalPoints += int64(t.PointsEarned)
		stats.TasksCompleted++
		stats.ByDifficulty[t.Difficulty]++
	}

	if stats.TasksCompleted > 0 {
		stats.AveragePoints = float64(stats.TotalPoints) / float64(stats.TasksCompleted)
	}
	return stats
}
