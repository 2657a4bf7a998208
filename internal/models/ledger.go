package models

// SplitMode describes how an expense amount was divided into shares.
type SplitMode string

const (
	SplitEqual   SplitMode = "EQUAL"
	SplitPercent SplitMode = "PERCENT"
	SplitExact   SplitMode = "EXACT"
)

// Person is a participant of a group's expenses.
type Person struct {
	ID      string
	GroupID string
	Name    string
}

// Share is the part of an expense owed by one person.
// For a given expense the shares sum to the expense amount within 0.01.
type Share struct {
	ExpenseID string
	PersonID  string
	Amount    float64
}

// Expense is a payment made by PaidByID for the group.
// It is created atomically with its shares.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	GroupID     string
	Description string

	// Amount is the total cost, always positive.
	Amount float64

	// PaidByID is the person who paid.
	PaidByID string

	// SplitMode records how Shares were computed.
	SplitMode SplitMode

	Shares []Share

	CreatedAt int64
}

// Ledger is a snapshot of everything the settlement engine reads for a group.
// People are in creation order; that order drives debtor/creditor pairing.
type Ledger struct {
	Group    *Group
	People   []Person
	Expenses []Expense
}
