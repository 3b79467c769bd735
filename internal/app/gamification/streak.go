package gamification

import (
	"fmt"
	"slices"
	"time"

	"github.com/dayquest/dayquest/internal/domain"
)

// UpdateStreak advances a streak by one completion.
// Only the calendar date of completedAt (in its own location) matters.
// Same day: unchanged. Next day: +1. Gap: reset to 1.
// The returned state carries the new LastTaskDate; persisting it is up to
// the caller.
func UpdateStreak(s domain.Streak, completedAt time.Time) (domain.Streak, error) {
	if completedAt.IsZero() {
		return s, fmt.Errorf("%w: zero completion time", domain.ErrInvalidTimestamp)
	}
	return UpdateStreakOn(s, domain.DateOf(completedAt))
}

// UpdateStreakOn is UpdateStreak for an already-extracted calendar date.
func UpdateStreakOn(s domain.Streak, day domain.Date) (domain.Streak, error) {
	next := s

	if s.LastTaskDate == nil {
		// First completion ever
		next.Current = 1
	} else {
		switch gap := day.Sub(*s.LastTaskDate); {
		case gap < 0:
			return s, fmt.Errorf("%w: %s before %s", domain.ErrStreakOutOfOrder, day, *s.LastTaskDate)
		case gap == 0:
			// Same day, already counted
		case gap == 1:
			next.Current = s.Current + 1
		default:
			next.Current = 1
		}
	}

	next.Max = max(s.Max, next.Current)
	next.LastTaskDate = &day
	return next, nil
}

// ResetStreak clears the running streak when no completed task remains.
// Max is kept: it never decreases.
func ResetStreak(s domain.Streak) domain.Streak {
	return domain.Streak{Current: 0, Max: s.Max}
}

// RecomputeStreak derives the streak forward from completion history.
// The current streak is the run of consecutive days ending at the latest
// completion; previousMax is carried so Max never decreases.
// An empty history yields a reset streak.
func RecomputeStreak(previousMax int, completions []time.Time) domain.Streak {
	days := make([]domain.Date, 0, len(completions))
	for _, c := range completions {
		if !c.IsZero() {
			days = append(days, domain.DateOf(c))
		}
	}
	slices.SortFunc(days, func(a, b domain.Date) int { return a.Sub(b) })
	days = slices.Compact(days)

	s := domain.Streak{}
	for _, d := range days {
		// Sorted input never goes backwards, so no error is possible.
		s, _ = UpdateStreakOn(s, d)
	}
	s.Max = max(s.Max, previousMax)
	return s
}

// StreakAfterDeletion returns the streak to persist after a completed task
// was deleted. deleted is the removed task's completion time; remaining are
// the completion times still on record.
//
// If the deleted task was not on the latest completion day the stored state
// stands. Otherwise the streak is re-derived from the remaining history, or
// reset if nothing remains.
func StreakAfterDeletion(stored domain.Streak, deleted time.Time, remaining []time.Time) domain.Streak {
	if len(remaining) == 0 {
		return ResetStreak(stored)
	}

	deletedDay := domain.DateOf(deleted)
	for _, c := range remaining {
		if domain.DateOf(c).Sub(deletedDay) >= 0 {
			// Another completion on or after the deleted day keeps the
			// latest day intact.
			return stored
		}
	}
	return RecomputeStreak(stored.Max, remaining)
}
