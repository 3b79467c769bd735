package domain

import "time"

// ─── Points Ledger ──────────────────────────────────────────────────────────
// Every change to User.TotalPoints is journaled. For any user
// SUM(amount) == total_points is an invariant.

// LedgerKind classifies a points movement.
type LedgerKind string

const (
	LedgerAward  LedgerKind = "award"  // task completed
	LedgerRevoke LedgerKind = "revoke" // completed task deleted
	LedgerRevise LedgerKind = "revise" // difficulty of a completed task revised
)

// LedgerEntry is one signed points movement with the resulting balance.
type LedgerEntry struct {
	ID        int64      `json:"id"`
	UserID    string     `json:"user_id"`
	TaskID    string     `json:"task_id"`
	Kind      LedgerKind `json:"kind"`
	Amount    int64      `json:"amount"`
	Balance   int64      `json:"balance"`
	CreatedAt time.Time  `json:"created_at"`
}
