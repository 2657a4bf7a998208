package calculator

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvariantViolation is returned when balances do not sum to zero, i.e.
// some expense's shares do not add up to its amount.
var ErrInvariantViolation = errors.New("balances do not sum to zero")

// InvariantError carries the balances left over after matching.
type InvariantError struct {
	// Residual holds the unmatched balances, in input order.
	Residual Balances

	// Input is the full set of balances the simplifier was given.
	Input Balances
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%v: %d unmatched balance(s), total %.4f",
		ErrInvariantViolation, len(e.Residual), e.Residual.Sum())
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}

// Transfer is a single payment in a settlement plan: From owes To Amount.
type Transfer struct {
	FromID string  `json:"from_id" yaml:"from_id"`
	ToID   string  `json:"to_id" yaml:"to_id"`
	Amount float64 `json:"amount" yaml:"amount"`
}

// Simplify matches debtors with creditors to produce a settlement plan.
//
// Algorithm:
// - Drop balances with |balance| <= Epsilon
// - Split the rest into debtors and creditors, keeping input order (no sorting)
// - Walk both lists with two cursors, paying min(debt, credit) each step and
//   advancing whichever side drops below Epsilon
//
// The plan has at most debtors+creditors-1 transfers. Which pairs appear
// depends on input order, so callers must pass balances in a stable order.
//
// If one side runs out while the other still holds more than Epsilon and the
// input does not sum to zero, the ledger was inconsistent and an
// *InvariantError is returned. A leftover on a zero-sum input is dust shed
// by the Epsilon cut-offs and is dropped.
func Simplify(balances Balances) ([]Transfer, error) {
	var debtors, creditors Balances
	for _, bal := range balances {
		if math.Abs(bal.Amount) <= Epsilon {
			continue
		}
		if bal.Amount > 0 {
			creditors = append(creditors, bal)
		} else {
			debtors = append(debtors, bal)
		}
	}

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := math.Min(-debtor.Amount, creditor.Amount)
		if amount > 0 {
			transfers = append(transfers, Transfer{
				FromID: debtor.PersonID,
				ToID:   creditor.PersonID,
				Amount: amount,
			})
			debtor.Amount += amount
			creditor.Amount -= amount
		}

		// Both may advance in the same step
		if math.Abs(debtor.Amount) < Epsilon {
			i++
		}
		if math.Abs(creditor.Amount) < Epsilon {
			j++
		}
	}

	var residual Balances
	for ; i < len(debtors); i++ {
		if math.Abs(debtors[i].Amount) > Epsilon+floatSlack {
			residual = append(residual, debtors[i])
		}
	}
	for ; j < len(creditors); j++ {
		if math.Abs(creditors[j].Amount) > Epsilon+floatSlack {
			residual = append(residual, creditors[j])
		}
	}
	if len(residual) > 0 && math.Abs(balances.Sum()) > Epsilon+floatSlack {
		return nil, &InvariantError{Residual: residual, Input: balances}
	}

	return transfers, nil
}
