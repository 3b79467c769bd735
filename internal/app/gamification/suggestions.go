package gamification

import (
	"fmt"
	"time"

	"github.com/dayquest/dayquest/internal/domain"
)

// SuggestionWindow is how far back suggestions look.
const SuggestionWindow = 7 * 24 * time.Hour

// GenerateSuggestions derives productivity hints from the last week of
// completed tasks and the current streak. Completion hours are read in each
// timestamp's own location.
func GenerateSuggestions(streak domain.Streak, tasks []domain.Task, now time.Time) []string {
	var recent []domain.Task
	for _, t := range tasks {
		if t.CompletedWithin(now.Add(-SuggestionWindow), now) {
			recent = append(recent, t)
		}
	}

	if len(recent) == 0 {
		return []string{
			"Start with small, easy tasks to build momentum!",
			"Set your day start time to when you're most productive.",
		}
	}

	var suggestions []string

	early, late := 0, 0
	counts := make(map[domain.Difficulty]int)
	for _, t := range recent {
		switch h := t.CompletedAt.Hour(); {
		case h < 12:
			early++
		case h >= 18:
			late++
		}
		counts[t.Difficulty]++
	}

	switch {
	case early > late:
		suggestions = append(suggestions, "Great job completing tasks early! Keep this momentum going.")
	case late > early:
		suggestions = append(suggestions, "Try completing tasks earlier in the day for bonus points!")
	}

	total := float64(len(recent))
	switch {
	case float64(counts[domain.DifficultyEasy])/total > 0.7:
		suggestions = append(suggestions, "Challenge yourself with more medium-difficulty tasks!")
	case float64(counts[domain.DifficultyDifficult])/total > 0.5:
		suggestions = append(suggestions, "Great work tackling challenging tasks! Don't forget to balance with easier ones.")
	}

	switch {
	case streak.Current == 0:
		suggestions = append(suggestions, "Start a new streak today! Every task counts.")
	case streak.Current >= 3:
		suggestions = append(suggestions, fmt.Sprintf("Amazing %d-day streak! Keep it going!", streak.Current))
	}
	if streak.Max > 0 && streak.Current == streak.Max {
		suggestions = append(suggestions, "You're at your personal best streak! Push for a new record!")
	}

	if len(suggestions) == 0 {
		suggestions = append(suggestions,
			"Mix easy and challenging tasks for optimal productivity.",
			"Complete tasks early in your day for maximum points!",
		)
	}
	return suggestions
}
