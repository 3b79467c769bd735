package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/dayquest/dayquest/internal/domain"
)

// ─── Points Ledger ──────────────────────────────────────────────────────────

type ledgerRow struct {
	ID        int64  `db:"id"`
	UserID    string `db:"user_id"`
	TaskID    string `db:"task_id"`
	Kind      string `db:"kind"`
	Amount    int64  `db:"amount"`
	Balance   int64  `db:"balance"`
	CreatedAt int64  `db:"created_at"`
}

// InsertLedgerEntry appends a points movement.
func (q *Queries) InsertLedgerEntry(ctx context.Context, e domain.LedgerEntry) (int64, error) {
	res, err := q.q.ExecContext(ctx,
		`INSERT INTO points_ledger (user_id, task_id, kind, amount, balance, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.TaskID, string(e.Kind), e.Amount, e.Balance, toMillis(e.CreatedAt),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LedgerEntries returns a user's most recent points movements, newest first.
func (q *Queries) LedgerEntries(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	var rows []ledgerRow
	err := sqlx.SelectContext(ctx, q.q, &rows,
		`SELECT id, user_id, task_id, kind, amount, balance, created_at
		 FROM points_ledger WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LedgerEntry, len(rows))
	for i, r := range rows {
		entries[i] = domain.LedgerEntry{
			ID:        r.ID,
			UserID:    r.UserID,
			TaskID:    r.TaskID,
			Kind:      domain.LedgerKind(r.Kind),
			Amount:    r.Amount,
			Balance:   r.Balance,
			CreatedAt: fromMillis(r.CreatedAt),
		}
	}
	return entries, nil
}

// LedgerSum totals every movement of a user.
func (q *Queries) LedgerSum(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := sqlx.GetContext(ctx, q.q, &sum,
		`SELECT COALESCE(SUM(amount), 0) FROM points_ledger WHERE user_id = ?`, userID)
	return sum, err
}
