// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/settleup/internal/models"
)

var (
	// ErrNotFound is returned when a group, person, expense or settlement does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the requester is neither owner nor member of a group.
	ErrForbidden = errors.New("forbidden")
)

// LedgerSource supplies a read-only ledger snapshot for a group.
type LedgerSource interface {
	// GetGroupLedger returns the group's people, expenses and shares.
	// Fails with ErrNotFound if the group is absent and ErrForbidden if
	// requesterID is not the owner or a member.
	GetGroupLedger(ctx context.Context, groupID, requesterID string) (*models.Ledger, error)
}

// SettlementReader reads persisted settlements.
type SettlementReader interface {
	// ListSettlements returns every settlement of a group, oldest first.
	ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// GetSettlement returns one settlement or ErrNotFound.
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)
}

// Tx is the set of operations available inside one persistence transaction.
// Either all writes made through a Tx are committed or none are.
type Tx interface {
	LedgerSource
	SettlementReader

	// InsertSettlements bulk-inserts settlements, assigning missing IDs and timestamps.
	InsertSettlements(ctx context.Context, settlements []*models.Settlement) error

	// DeleteSettlements deletes the group's settlements whose settled flag
	// equals settled, returning how many rows were removed.
	DeleteSettlements(ctx context.Context, groupID string, settled bool) (int64, error)

	// DeleteSettlement removes one settlement by ID.
	DeleteSettlement(ctx context.Context, settlementID string) error

	// MarkSettled flips the given settlements to settled at the given time,
	// returning how many pending rows changed.
	MarkSettled(ctx context.Context, settlementIDs []string, settledAt int64) (int64, error)
}

// Store defines the interface for ledger and settlement storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	LedgerSource
	SettlementReader

	// CreateUser persists a new user.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns the user or ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns the user or ErrNotFound.
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// CreateGroup persists a new group; ID and CreatedAt are filled in.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup returns a group with its member IDs, or ErrNotFound.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// AddGroupMember grants userID access to the group.
	AddGroupMember(ctx context.Context, groupID, userID string) error

	// AddPerson adds a ledger participant to the group.
	AddPerson(ctx context.Context, person *models.Person) error

	// DeletePerson removes a person together with their shares.
	DeletePerson(ctx context.Context, personID string) error

	// CreateExpense persists an expense atomically with its shares.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense returns an expense with its shares, or ErrNotFound.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// DeleteExpense removes an expense and its shares.
	DeleteExpense(ctx context.Context, expenseID string) error

	// InTx runs fn inside one transaction, committing if fn returns nil
	// and rolling back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}
