// Package calculator turns a group's ledger into net balances and a
// settlement plan. Everything here is pure: no I/O, no clocks, no globals.
package calculator

import (
	"math"

	"github.com/mmynk/settleup/internal/models"
)

// Epsilon is the money tolerance. Balances and residues at or below it are
// treated as settled.
const Epsilon = 0.01

// floatSlack absorbs binary rounding when a residue should equal Epsilon
// exactly (e.g. 30 - 29.99).
const floatSlack = 1e-9

// Balance is one person's net position in a group.
// Positive = owed money, Negative = owes money.
type Balance struct {
	PersonID string  `json:"person_id" yaml:"person_id"`
	Amount   float64 `json:"amount" yaml:"amount"`
}

// Balances is an insertion-ordered list of net balances, one per person.
// The order is the group's people order and is what the simplifier pairs by.
type Balances []Balance

// Get returns the balance for personID.
func (b Balances) Get(personID string) (float64, bool) {
	for _, bal := range b {
		if bal.PersonID == personID {
			return bal.Amount, true
		}
	}
	return 0, false
}

// Sum returns the total of all balances. For a consistent ledger it is zero
// within Epsilon.
func (b Balances) Sum() float64 {
	var sum float64
	for _, bal := range b {
		sum += bal.Amount
	}
	return sum
}

// Aggregate computes each person's net balance from a group's expenses.
//
// Algorithm:
// - Every known person starts at 0, in the order of people
// - For each expense: payer gets +amount, each share holder gets -share
// - No rounding; float drift is absorbed later by Epsilon
//
// A payer or share holder missing from people is appended in first-seen
// order so the balances still sum to zero.
func Aggregate(people []models.Person, expenses []models.Expense) Balances {
	index := make(map[string]int, len(people))
	balances := make(Balances, 0, len(people))

	slot := func(personID string) int {
		if i, ok := index[personID]; ok {
			return i
		}
		index[personID] = len(balances)
		balances = append(balances, Balance{PersonID: personID})
		return len(balances) - 1
	}

	for _, p := range people {
		slot(p.ID)
	}

	for _, expense := range expenses {
		// Payer paid the full amount
		balances[slot(expense.PaidByID)].Amount += expense.Amount

		// Each share holder owes their part
		for _, share := range expense.Shares {
			balances[slot(share.PersonID)].Amount -= share.Amount
		}
	}

	return balances
}

// RoundCents rounds an amount to two decimals.
func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// ApplySettled credits payments that were already made. Each settled
// transfer raises the payer's balance and lowers the receiver's, so a
// recompute only plans what is still outstanding. The input is not modified.
func ApplySettled(balances Balances, settled []Transfer) Balances {
	out := make(Balances, len(balances), len(balances)+len(settled))
	copy(out, balances)

	index := make(map[string]int, len(out))
	for i, bal := range out {
		index[bal.PersonID] = i
	}
	slot := func(personID string) int {
		if i, ok := index[personID]; ok {
			return i
		}
		index[personID] = len(out)
		out = append(out, Balance{PersonID: personID})
		return len(out) - 1
	}

	for _, t := range settled {
		out[slot(t.FromID)].Amount += t.Amount
		out[slot(t.ToID)].Amount -= t.Amount
	}
	return out
}
