// Package tasks implements the task lifecycle: create, edit, complete and
// delete. Every mutation runs in one SQLite transaction that loads the user
// and task rows, applies the pure gamification rules and writes the results
// together with a points ledger entry.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dayquest/dayquest/internal/app/gamification"
	"github.com/dayquest/dayquest/internal/domain"
	"github.com/dayquest/dayquest/internal/infra/metrics"
	"github.com/dayquest/dayquest/internal/infra/sqlite"
)

// MaxStatsPeriodDays bounds the stats window.
const MaxStatsPeriodDays = 365

// Service manages a user's tasks and the points they earn.
type Service struct {
	db  *sqlite.DB
	loc *time.Location
	log *slog.Logger
	now func() time.Time
}

// NewService creates a task service. Completion times are read in loc
// when deriving day-start boundaries and streak dates.
func NewService(db *sqlite.DB, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, loc: loc, log: logger, now: time.Now}
}

// SetClock replaces the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// clock returns the current time in the service location, at the
// millisecond precision the store keeps.
func (s *Service) clock() time.Time {
	return s.now().In(s.loc).Truncate(time.Millisecond)
}

// ─── Create & Edit ──────────────────────────────────────────────────────────

// CreateInput describes a new task.
type CreateInput struct {
	Title       string
	Description string
	Difficulty  domain.Difficulty
	DueDate     *time.Time
}

// Create stores a new pending task.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Task{}, fmt.Errorf("%w: title is required", domain.ErrInvalidArgument)
	}
	if _, err := gamification.BasePoints(in.Difficulty); err != nil {
		return domain.Task{}, err
	}

	now := s.clock()
	task := domain.Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Difficulty:  in.Difficulty,
		Status:      domain.TaskPending,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.InsertTask(ctx, task); err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}

	metrics.TasksCreated.WithLabelValues(string(task.Difficulty)).Inc()
	return task, nil
}

// UpdateInput carries the fields to change; nil fields are left alone.
type UpdateInput struct {
	Title       *string
	Description *string
	Difficulty  *domain.Difficulty
	DueDate     *time.Time
}

// Update edits a pending task. Completed and deleted tasks are frozen.
func (s *Service) Update(ctx context.Context, userID, taskID string, in UpdateInput) (domain.Task, error) {
	var task domain.Task
	err := s.db.WithTx(ctx, func(q *sqlite.Queries) error {
		var err error
		task, err = q.TaskByID(ctx, userID, taskID)
		if err != nil {
			return err
		}
		if err := editable(task); err != nil {
			return err
		}

		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return fmt.Errorf("%w: title is required", domain.ErrInvalidArgument)
			}
			task.Title = title
		}
		if in.Description != nil {
			task.Description = strings.TrimSpace(*in.Description)
		}
		if in.Difficulty != nil {
			if _, err := gamification.BasePoints(*in.Difficulty); err != nil {
				return err
			}
			task.Difficulty = *in.Difficulty
		}
		if in.DueDate != nil {
			task.DueDate = in.DueDate
		}
		task.UpdatedAt = s.clock()

		ok, err := q.UpdatePendingTask(ctx, task)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		if !ok {
			return domain.ErrTaskNotPending
		}
		return nil
	})
	return task, err
}

func editable(t domain.Task) error {
	switch t.Status {
	case domain.TaskDeleted:
		return domain.ErrTaskDeleted
	case domain.TaskCompleted:
		return domain.ErrTaskNotPending
	}
	return nil
}

// ─── Complete ───────────────────────────────────────────────────────────────

// Complete marks a pending task done, awarding decayed points and advancing
// the streak. A reflection note is mandatory.
func (s *Service) Complete(ctx context.Context, userID, taskID, reflection string) (domain.Completion, error) {
	reflection = strings.TrimSpace(reflection)
	if reflection == "" {
		return domain.Completion{}, domain.ErrReflectionRequired
	}

	now := s.clock()
	var (
		out  domain.Completion
		prev domain.Streak
	)
	err := s.db.WithTx(ctx, func(q *sqlite.Queries) error {
		task, err := q.TaskByID(ctx, userID, taskID)
		if err != nil {
			return err
		}
		switch task.Status {
		case domain.TaskDeleted:
			return domain.ErrTaskDeleted
		case domain.TaskCompleted:
			return domain.ErrTaskAlreadyCompleted
		}

		user, err := q.UserByID(ctx, userID)
		if err != nil {
			return err
		}
		ds, err := gamification.ParseDayStart(user.DayStartTime)
		if err != nil {
			return fmt.Errorf("user %s: %w", userID, err)
		}

		points, err := gamification.ComputePoints(task.Difficulty, now, ds)
		if err != nil {
			return err
		}
		prev = domain.StreakOf(&user)
		if prev.LastTaskDate != nil && domain.DateOf(now).Sub(*prev.LastTaskDate) < 0 {
			// Stored under an earlier game.timezone: re-derive in this one
			times, err := q.CompletionTimes(ctx, userID)
			if err != nil {
				return fmt.Errorf("completion history: %w", err)
			}
			for i := range times {
				times[i] = times[i].In(s.loc)
			}
			prev = gamification.RecomputeStreak(prev.Max, times)
		}
		next, err := gamification.UpdateStreak(prev, now)
		if err != nil {
			return err
		}

		ok, err := q.MarkCompleted(ctx, userID, taskID, now, points, reflection)
		if err != nil {
			return fmt.Errorf("mark completed: %w", err)
		}
		if !ok {
			// Lost a race with a concurrent completion
			return domain.ErrTaskAlreadyCompleted
		}

		user.TotalPoints += int64(points)
		next.Apply(&user)
		user.UpdatedAt = now
		if err := q.SaveProgress(ctx, user); err != nil {
			return fmt.Errorf("save progress: %w", err)
		}
		if _, err := q.InsertLedgerEntry(ctx, domain.LedgerEntry{
			UserID:    userID,
			TaskID:    taskID,
			Kind:      domain.LedgerAward,
			Amount:    int64(points),
			Balance:   user.TotalPoints,
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("ledger award: %w", err)
		}

		task.Status = domain.TaskCompleted
		task.CompletedAt = &now
		task.PointsEarned = points
		task.Reflection = reflection
		task.UpdatedAt = now
		out = domain.Completion{Task: task, PointsEarned: points, User: user}
		return nil
	})
	if err != nil {
		return domain.Completion{}, err
	}

	metrics.TasksCompleted.WithLabelValues(string(out.Task.Difficulty)).Inc()
	metrics.PointsAwarded.Add(float64(out.PointsEarned))
	metrics.PointsPerCompletion.Observe(float64(out.PointsEarned))
	if prev.LastTaskDate != nil && out.User.CurrentStreak < prev.Current {
		metrics.StreakResets.WithLabelValues("gap").Inc()
	}

	s.log.Info("task completed",
		"user_id", userID,
		"task_id", taskID,
		"difficulty", out.Task.Difficulty,
		"points", out.PointsEarned,
		"streak", out.User.CurrentStreak,
	)
	return out, nil
}

// ─── Delete ─────────────────────────────────────────────────────────────────

// Delete soft-deletes a task. Deleting a completed task takes its points
// back and re-derives the streak from the remaining completions.
func (s *Service) Delete(ctx context.Context, userID, taskID string) (domain.Deletion, error) {
	now := s.clock()
	var (
		out       domain.Deletion
		prior     domain.TaskStatus
		wasStreak int
	)
	err := s.db.WithTx(ctx, func(q *sqlite.Queries) error {
		task, err := q.TaskByID(ctx, userID, taskID)
		if err != nil {
			return err
		}
		if task.Status == domain.TaskDeleted {
			return domain.ErrTaskDeleted
		}
		prior = task.Status

		ok, err := q.MarkDeleted(ctx, userID, taskID, now)
		if err != nil {
			return fmt.Errorf("mark deleted: %w", err)
		}
		if !ok {
			return domain.ErrTaskDeleted
		}

		user, err := q.UserByID(ctx, userID)
		if err != nil {
			return err
		}
		out = domain.Deletion{TaskID: taskID, User: user}
		if !task.IsCompleted() {
			return nil
		}

		remaining, err := q.CompletionTimes(ctx, userID)
		if err != nil {
			return fmt.Errorf("completion history: %w", err)
		}
		for i := range remaining {
			remaining[i] = remaining[i].In(s.loc)
		}

		stored := domain.StreakOf(&user)
		wasStreak = stored.Current
		next := gamification.StreakAfterDeletion(stored, task.CompletedAt.In(s.loc), remaining)

		user.TotalPoints -= int64(task.PointsEarned)
		next.Apply(&user)
		user.UpdatedAt = now
		if err := q.SaveProgress(ctx, user); err != nil {
			return fmt.Errorf("save progress: %w", err)
		}
		if _, err := q.InsertLedgerEntry(ctx, domain.LedgerEntry{
			UserID:    userID,
			TaskID:    taskID,
			Kind:      domain.LedgerRevoke,
			Amount:    -int64(task.PointsEarned),
			Balance:   user.TotalPoints,
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("ledger revoke: %w", err)
		}

		out = domain.Deletion{TaskID: taskID, PointsLost: task.PointsEarned, User: user}
		return nil
	})
	if err != nil {
		return domain.Deletion{}, err
	}

	metrics.TasksDeleted.WithLabelValues(string(prior)).Inc()
	if out.PointsLost > 0 {
		metrics.PointsRevoked.Add(float64(out.PointsLost))
	}
	if wasStreak > 0 && out.User.CurrentStreak == 0 {
		metrics.StreakResets.WithLabelValues("deletion").Inc()
	}

	s.log.Info("task deleted",
		"user_id", userID,
		"task_id", taskID,
		"prior_status", prior,
		"points_lost", out.PointsLost,
	)
	return out, nil
}

// ─── Difficulty Revision ────────────────────────────────────────────────────

// ReviseDifficulty re-scores a completed task after its difficulty was
// reviewed. Points are recomputed with the same formula against the
// original completion time; the owner's total moves by the difference.
func (s *Service) ReviseDifficulty(ctx context.Context, taskID string, revised domain.Difficulty) (domain.Task, error) {
	now := s.clock()
	var task domain.Task
	err := s.db.WithTx(ctx, func(q *sqlite.Queries) error {
		owner, err := q.TaskOwner(ctx, taskID)
		if err != nil {
			return err
		}
		task, err = q.TaskByID(ctx, owner, taskID)
		if err != nil {
			return err
		}
		user, err := q.UserByID(ctx, owner)
		if err != nil {
			return err
		}
		ds, err := gamification.ParseDayStart(user.DayStartTime)
		if err != nil {
			return fmt.Errorf("user %s: %w", owner, err)
		}

		local := task
		if task.CompletedAt != nil {
			at := task.CompletedAt.In(s.loc)
			local.CompletedAt = &at
		}
		points, err := gamification.RecomputePoints(local, revised, ds)
		if err != nil {
			return err
		}

		delta := int64(points - task.PointsEarned)
		if _, err := q.RevisePoints(ctx, taskID, revised, points, now); err != nil {
			return fmt.Errorf("revise points: %w", err)
		}
		task.Difficulty = revised
		task.PointsEarned = points
		task.UpdatedAt = now
		if delta == 0 {
			return nil
		}

		user.TotalPoints += delta
		user.UpdatedAt = now
		if err := q.SaveProgress(ctx, user); err != nil {
			return fmt.Errorf("save progress: %w", err)
		}
		_, err = q.InsertLedgerEntry(ctx, domain.LedgerEntry{
			UserID:    owner,
			TaskID:    taskID,
			Kind:      domain.LedgerRevise,
			Amount:    delta,
			Balance:   user.TotalPoints,
			CreatedAt: now,
		})
		return err
	})
	if err != nil {
		return domain.Task{}, err
	}

	s.log.Info("task difficulty revised",
		"task_id", taskID,
		"difficulty", revised,
		"points", task.PointsEarned,
	)
	return task, nil
}

// ─── Queries ────────────────────────────────────────────────────────────────

// List returns a user's tasks. An empty status lists all live tasks.
func (s *Service) List(ctx context.Context, userID, status string) ([]domain.Task, error) {
	var filter *domain.TaskStatus
	if status != "" {
		st, ok := domain.ParseTaskStatus(status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, status)
		}
		filter = &st
	}
	return s.db.ListTasks(ctx, userID, filter)
}

// Get returns one task.
func (s *Service) Get(ctx context.Context, userID, taskID string) (domain.Task, error) {
	return s.db.TaskByID(ctx, userID, taskID)
}

// Stats summarizes completions over the last periodDays days.
func (s *Service) Stats(ctx context.Context, userID string, periodDays int) (domain.TaskStats, error) {
	if periodDays < 1 || periodDays > MaxStatsPeriodDays {
		return domain.TaskStats{}, fmt.Errorf("%w: period must be 1..%d days, got %d",
			domain.ErrInvalidArgument, MaxStatsPeriodDays, periodDays)
	}
	now := s.clock()
	tasks, err := s.db.CompletedSince(ctx, userID, now.AddDate(0, 0, -periodDays))
	if err != nil {
		return domain.TaskStats{}, fmt.Errorf("completed tasks: %w", err)
	}
	return gamification.SummarizeTasks(tasks, now, periodDays), nil
}

// Suggestions returns productivity hints from the last week.
func (s *Service) Suggestions(ctx context.Context, userID string) ([]string, error) {
	user, err := s.db.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	tasks, err := s.db.CompletedSince(ctx, userID, now.Add(-gamification.SuggestionWindow))
	if err != nil {
		return nil, fmt.Errorf("completed tasks: %w", err)
	}
	for i := range tasks {
		if tasks[i].CompletedAt != nil {
			at := tasks[i].CompletedAt.In(s.loc)
			tasks[i].CompletedAt = &at
		}
	}
	return gamification.GenerateSuggestions(domain.StreakOf(&user), tasks, now), nil
}
