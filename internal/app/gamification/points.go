// Package gamification implements the DayQuest scoring rules.
// Points decay with hours since the user's day start, streaks count
// consecutive calendar days, leaderboards rank competitors in a window.
// Every function here is pure: value snapshots in, plain values out.
package gamification

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dayquest/dayquest/internal/domain"
)

// basePoints is the canonical difficulty table.
var basePoints = map[domain.Difficulty]int{
	domain.DifficultyEasy:      50,
	domain.DifficultyMedium:    70,
	domain.DifficultyDifficult: 100,
}

// BasePoints returns the undecayed point value of a difficulty tier.
func BasePoints(d domain.Difficulty) (int, error) {
	base, ok := basePoints[d]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownDifficulty, d)
	}
	return base, nil
}

// ParseDifficulty normalizes user input ("Medium", " easy ") to a tier.
func ParseDifficulty(s string) (domain.Difficulty, error) {
	d := domain.Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if _, err := BasePoints(d); err != nil {
		return "", err
	}
	return d, nil
}

// DayStart is the clock time at which a user's productivity day begins.
type DayStart struct {
	Hour   int
	Minute int
	Second int
}

// ParseDayStart accepts "HH:MM" or "HH:MM:SS".
func ParseDayStart(s string) (DayStart, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return DayStart{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return DayStart{}, fmt.Errorf("%w: got %q", domain.ErrInvalidDayStart, s)
}

// String renders the day start as "HH:MM:SS".
func (ds DayStart) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", ds.Hour, ds.Minute, ds.Second)
}

// Boundary returns the most recent day-start boundary at or before t.
// A completion before the day start belongs to the previous day's window.
func (ds DayStart) Boundary(t time.Time) time.Time {
	y, m, d := t.Date()
	b := time.Date(y, m, d, ds.Hour, ds.Minute, ds.Second, 0, t.Location())
	if b.After(t) {
		b = time.Date(y, m, d-1, ds.Hour, ds.Minute, ds.Second, 0, t.Location())
	}
	return b
}

// HoursSinceStart returns the elapsed hours since the boundary, floored at 1.
func (ds DayStart) HoursSinceStart(t time.Time) float64 {
	return math.Max(t.Sub(ds.Boundary(t)).Hours(), 1)
}

// ComputePoints converts a completion into points:
//
//	round(base / max(hoursSinceDayStart, 1))
//
// Rounding is half-up. The result is never negative and equals the base
// value for any completion within the first hour of the day.
func ComputePoints(d domain.Difficulty, completedAt time.Time, ds DayStart) (int, error) {
	base, err := BasePoints(d)
	if err != nil {
		return 0, err
	}
	if completedAt.IsZero() {
		return 0, fmt.Errorf("%w: zero completion time", domain.ErrInvalidTimestamp)
	}
	return roundHalfUp(float64(base) / ds.HoursSinceStart(completedAt)), nil
}

// RecomputePoints recalculates the frozen points of a completed task after
// its difficulty has been revised. The original completion time is kept.
func RecomputePoints(task domain.Task, revised domain.Difficulty, ds DayStart) (int, error) {
	if !task.IsCompleted() {
		return 0, fmt.Errorf("%w: task %s is not completed", domain.ErrPreconditionFailed, task.ID)
	}
	return ComputePoints(revised, *task.CompletedAt, ds)
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
