package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dayquest/dayquest/internal/domain"
)

// ─── User Repository ────────────────────────────────────────────────────────

const userColumns = `id, username, email, password_hash, day_start_time, total_points,
	current_streak, max_streak, last_task_date, created_at, updated_at`

type userRow struct {
	ID            string         `db:"id"`
	Username      string         `db:"username"`
	Email         string         `db:"email"`
	PasswordHash  string         `db:"password_hash"`
	DayStartTime  string         `db:"day_start_time"`
	TotalPoints   int64          `db:"total_points"`
	CurrentStreak int            `db:"current_streak"`
	MaxStreak     int            `db:"max_streak"`
	LastTaskDate  sql.NullString `db:"last_task_date"`
	CreatedAt     int64          `db:"created_at"`
	UpdatedAt     int64          `db:"updated_at"`
}

func (r userRow) toDomain() (domain.User, error) {
	u := domain.User{
		ID:            r.ID,
		Username:      r.Username,
		Email:         r.Email,
		PasswordHash:  r.PasswordHash,
		DayStartTime:  r.DayStartTime,
		TotalPoints:   r.TotalPoints,
		CurrentStreak: r.CurrentStreak,
		MaxStreak:     r.MaxStreak,
		CreatedAt:     fromMillis(r.CreatedAt),
		UpdatedAt:     fromMillis(r.UpdatedAt),
	}
	if r.LastTaskDate.Valid {
		d, err := domain.ParseDate(r.LastTaskDate.String)
		if err != nil {
			return domain.User{}, fmt.Errorf("user %s last_task_date: %w", r.ID, err)
		}
		u.LastTaskDate = &d
	}
	return u, nil
}

func nullableDate(d *domain.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

// InsertUser stores a new account. A taken username or email yields
// domain.ErrUserExists.
func (q *Queries) InsertUser(ctx context.Context, u domain.User) error {
	_, err := q.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.DayStartTime, u.TotalPoints,
		u.CurrentStreak, u.MaxStreak, nullableDate(u.LastTaskDate),
		toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return domain.ErrUserExists
	}
	return err
}

// UserByID loads one account.
func (q *Queries) UserByID(ctx context.Context, id string) (domain.User, error) {
	return q.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// UserByLogin loads an account by username or email.
func (q *Queries) UserByLogin(ctx context.Context, login string) (domain.User, error) {
	return q.getUser(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? OR email = ? LIMIT 1`,
		login, login)
}

func (q *Queries) getUser(ctx context.Context, query string, args ...any) (domain.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, q.q, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return row.toDomain()
}

// UsersByIDs loads the accounts among ids that exist, ordered by id.
func (q *Queries) UsersByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}

	var rows []userRow
	if err := sqlx.SelectContext(ctx, q.q, &rows, q.q.Rebind(query), args...); err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		u, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// SaveProgress writes back points and streak state.
func (q *Queries) SaveProgress(ctx context.Context, u domain.User) error {
	res, err := q.q.ExecContext(ctx,
		`UPDATE users SET total_points = ?, current_streak = ?, max_streak = ?,
			last_task_date = ?, updated_at = ?
		 WHERE id = ?`,
		u.TotalPoints, u.CurrentStreak, u.MaxStreak, nullableDate(u.LastTaskDate),
		toMillis(u.UpdatedAt), u.ID,
	)
	if err != nil {
		return err
	}
	if ok, err := affected(res); err != nil {
		return err
	} else if !ok {
		return domain.ErrUserNotFound
	}
	return nil
}

// UpdateDayStart changes a user's day start clock time.
func (q *Queries) UpdateDayStart(ctx context.Context, id, dayStart string, now time.Time) error {
	res, err := q.q.ExecContext(ctx,
		`UPDATE users SET day_start_time = ?, updated_at = ? WHERE id = ?`,
		dayStart, toMillis(now), id,
	)
	if err != nil {
		return err
	}
	if ok, err := affected(res); err != nil {
		return err
	} else if !ok {
		return domain.ErrUserNotFound
	}
	return nil
}

// UserCount returns the number of registered accounts.
func (q *Queries) UserCount(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, q.q, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}
