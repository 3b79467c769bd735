package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dayquest/dayquest/internal/domain"
)

// ─── Task Repository ────────────────────────────────────────────────────────

const taskColumns = `id, user_id, title, description, difficulty, status, due_date,
	completed_at, points_earned, reflection, created_at, updated_at`

type taskRow struct {
	ID           string        `db:"id"`
	UserID       string        `db:"user_id"`
	Title        string        `db:"title"`
	Description  string        `db:"description"`
	Difficulty   string        `db:"difficulty"`
	Status       string        `db:"status"`
	DueDate      sql.NullInt64 `db:"due_date"`
	CompletedAt  sql.NullInt64 `db:"completed_at"`
	PointsEarned int           `db:"points_earned"`
	Reflection   string        `db:"reflection"`
	CreatedAt    int64         `db:"created_at"`
	UpdatedAt    int64         `db:"updated_at"`
}

func (r taskRow) toDomain() domain.Task {
	return domain.Task{
		ID:           r.ID,
		UserID:       r.UserID,
		Title:        r.Title,
		Description:  r.Description,
		Difficulty:   domain.Difficulty(r.Difficulty),
		Status:       domain.TaskStatus(r.Status),
		DueDate:      millisPtr(r.DueDate),
		CompletedAt:  millisPtr(r.CompletedAt),
		PointsEarned: r.PointsEarned,
		Reflection:   r.Reflection,
		CreatedAt:    fromMillis(r.CreatedAt),
		UpdatedAt:    fromMillis(r.UpdatedAt),
	}
}

func (q *Queries) selectTasks(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	var rows []taskRow
	if err := sqlx.SelectContext(ctx, q.q, &rows, q.q.Rebind(query), args...); err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, len(rows))
	for i, r := range rows {
		tasks[i] = r.toDomain()
	}
	return tasks, nil
}

// InsertTask stores a new task.
func (q *Queries) InsertTask(ctx context.Context, t domain.Task) error {
	_, err := q.q.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Description, string(t.Difficulty), string(t.Status),
		nullableMillis(t.DueDate), nullableMillis(t.CompletedAt), t.PointsEarned,
		t.Reflection, toMillis(t.CreatedAt), toMillis(t.UpdatedAt),
	)
	return err
}

// TaskByID loads a task owned by userID, whatever its status.
func (q *Queries) TaskByID(ctx context.Context, userID, id string) (domain.Task, error) {
	var row taskRow
	err := sqlx.GetContext(ctx, q.q, &row,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	if err != nil {
		return domain.Task{}, err
	}
	return row.toDomain(), nil
}

// ListTasks returns a user's tasks, newest first. A nil status lists every
// task that is not deleted.
func (q *Queries) ListTasks(ctx context.Context, userID string, status *domain.TaskStatus) ([]domain.Task, error) {
	if status != nil {
		return q.selectTasks(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND status = ?
			 ORDER BY created_at DESC, id`, userID, string(*status))
	}
	return q.selectTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? AND status != 'deleted'
		 ORDER BY created_at DESC, id`, userID)
}

// UpdatePendingTask rewrites the editable fields of a pending task.
// Reports false when the task is missing or no longer pending.
func (q *Queries) UpdatePendingTask(ctx context.Context, t domain.Task) (bool, error) {
	res, err := q.q.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, difficulty = ?, due_date = ?, updated_at = ?
		 WHERE id = ? AND user_id = ? AND status = 'pending'`,
		t.Title, t.Description, string(t.Difficulty), nullableMillis(t.DueDate),
		toMillis(t.UpdatedAt), t.ID, t.UserID,
	)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// MarkCompleted freezes a pending task's completion. The status guard makes
// a second completion affect no rows, so it reports false.
func (q *Queries) MarkCompleted(ctx context.Context, userID, id string, completedAt time.Time, points int, reflection string) (bool, error) {
	res, err := q.q.ExecContext(ctx,
		`UPDATE tasks SET status = 'completed', completed_at = ?, points_earned = ?,
			reflection = ?, updated_at = ?
		 WHERE id = ? AND user_id = ? AND status = 'pending'`,
		toMillis(completedAt), points, reflection, toMillis(completedAt), id, userID,
	)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// MarkDeleted soft-deletes a task and clears its completion, so only
// completed tasks ever carry points. Reports false if it was already deleted.
func (q *Queries) MarkDeleted(ctx context.Context, userID, id string, now time.Time) (bool, error) {
	res, err := q.q.ExecContext(ctx,
		`UPDATE tasks SET status = 'deleted', points_earned = 0, completed_at = NULL, updated_at = ?
		 WHERE id = ? AND user_id = ? AND status != 'deleted'`,
		toMillis(now), id, userID,
	)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// RevisePoints stores a revised difficulty and recomputed points on a
// completed task.
func (q *Queries) RevisePoints(ctx context.Context, id string, d domain.Difficulty, points int, now time.Time) (bool, error) {
	res, err := q.q.ExecContext(ctx,
		`UPDATE tasks SET difficulty = ?, points_earned = ?, updated_at = ?
		 WHERE id = ? AND status = 'completed'`,
		string(d), points, toMillis(now), id,
	)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// TaskOwner returns the user a task belongs to.
func (q *Queries) TaskOwner(ctx context.Context, id string) (string, error) {
	var owner string
	err := sqlx.GetContext(ctx, q.q, &owner, `SELECT user_id FROM tasks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrTaskNotFound
	}
	return owner, err
}

// CompletionTimes returns when each of a user's completed tasks was
// completed, oldest first.
func (q *Queries) CompletionTimes(ctx context.Context, userID string) ([]time.Time, error) {
	var ms []int64
	err := sqlx.SelectContext(ctx, q.q, &ms,
		`SELECT completed_at FROM tasks
		 WHERE user_id = ? AND status = 'completed' AND completed_at IS NOT NULL
		 ORDER BY completed_at`, userID)
	if err != nil {
		return nil, err
	}
	times := make([]time.Time, len(ms))
	for i, m := range ms {
		times[i] = fromMillis(m)
	}
	return times, nil
}

// CompletedSince returns a user's tasks completed at or after since.
func (q *Queries) CompletedSince(ctx context.Context, userID string, since time.Time) ([]domain.Task, error) {
	return q.selectTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE user_id = ? AND status = 'completed' AND completed_at >= ?
		 ORDER BY completed_at`, userID, toMillis(since))
}

// CompletedBetween returns the tasks of userIDs completed inside
// [start, end], grouped by owner.
func (q *Queries) CompletedBetween(ctx context.Context, userIDs []string, start, end time.Time) (map[string][]domain.Task, error) {
	out := make(map[string][]domain.Task, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(
		`SELECT `+taskColumns+` FROM tasks
		 WHERE user_id IN (?) AND status = 'completed'
			AND completed_at >= ? AND completed_at <= ?
		 ORDER BY completed_at`, userIDs, toMillis(start), toMillis(end))
	if err != nil {
		return nil, err
	}
	tasks, err := q.selectTasks(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		out[t.UserID] = append(out[t.UserID], t)
	}
	return out, nil
}
