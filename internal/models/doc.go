// Package models defines the core domain models for settleup.
//
// # Ledger Models
//
// The ledger of a group is the authoritative input of the settlement engine:
//   - Person: someone who takes part in a group's expenses
//   - Expense: a payment made by one person on behalf of the group
//   - Share: the part of an expense owed by one person
//
// # Settlement Models
//
//   - Settlement: a persisted "from owes to amount" obligation, produced in
//     bulk by a recompute and later marked settled by a client
//
// # Access Models
//
//   - User: a registered account, used to authenticate requests
//   - Group: owns people, expenses and settlements; users are its owner or members
//
// # Design Principles
//
// 1. **Ledger is read-only to the engine**: balances are always derived from
//    raw expenses and shares, never cached
// 2. **Avoid circular references**: Use ID strings instead of pointers for relationships
// 3. **Float money**: amounts are float64 compared with a 0.01 tolerance
package models
