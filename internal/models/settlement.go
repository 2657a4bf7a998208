package models

// Settlement represents "FromID owes ToID Amount" inside a group.
//
// Rows are created only by a recompute, always pending. A client settles a
// row by flipping Settled; settled rows survive later recomputes as history.
// Amounts are never adjusted in place: a changed balance means the pending
// rows are deleted and recreated.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// FromID is the person who owes (debtor).
	FromID string

	// ToID is the person who is owed (creditor).
	ToID string

	// Amount is the payment amount, rounded to cents.
	Amount float64

	// Settled is true once a client has marked the payment as done.
	Settled bool

	// CreatedAt is the Unix timestamp when the recompute produced this row.
	CreatedAt int64

	// SettledAt is the Unix timestamp when the row was settled, zero while pending.
	SettledAt int64
}

// RecomputeResult summarizes one recompute of a group's settlements.
type RecomputeResult struct {
	// SettlementsCount is the number of pending settlements written.
	SettlementsCount int

	// PreservedCount is the number of settled rows left untouched.
	PreservedCount int

	// PreservedIDs identifies the settled rows that were kept.
	PreservedIDs []string
}
