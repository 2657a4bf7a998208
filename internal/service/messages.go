package service

import (
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
)

// Wire messages. Field names follow the JSON mapping of the settleup.v1
// API: lowerCamelCase, timestamps in Unix seconds.

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	CreatedAt   int64  `json:"createdAt"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	OwnerID   string   `json:"ownerId"`
	MemberIDs []string `json:"memberIds"`
	CreatedAt int64    `json:"createdAt"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

// AddMemberRequest grants the registered user with Email access to a group.
type AddMemberRequest struct {
	GroupID string `json:"groupId"`
	Email   string `json:"email"`
}

type AddMemberResponse struct {
	Group *Group `json:"group"`
}

type Person struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AddPersonRequest struct {
	GroupID string `json:"groupId"`
	Name    string `json:"name"`
}

type AddPersonResponse struct {
	Person *Person `json:"person"`
}

type Share struct {
	PersonID string  `json:"personId"`
	Amount   float64 `json:"amount"`
}

type Expense struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	PaidByID    string  `json:"paidById"`
	SplitMode   string  `json:"splitMode"`
	Shares      []Share `json:"shares"`
	CreatedAt   int64   `json:"createdAt"`
}

type RemovePersonRequest struct {
	GroupID  string `json:"groupId"`
	PersonID string `json:"personId"`
}

type RemovePersonResponse struct{}

// ShareInput names one participant of a new expense. Value is ignored for
// EQUAL, a percentage for PERCENT and an amount for EXACT.
type ShareInput struct {
	PersonID string  `json:"personId"`
	Value    float64 `json:"value"`
}

// CreateExpenseRequest adds an expense. With EQUAL mode and no shares the
// amount is split across every person of the group.
type CreateExpenseRequest struct {
	GroupID     string       `json:"groupId"`
	Description string       `json:"description"`
	Amount      float64      `json:"amount"`
	PaidByID    string       `json:"paidById"`
	SplitMode   string       `json:"splitMode"`
	Shares      []ShareInput `json:"shares"`
}

type CreateExpenseResponse struct {
	Expense   *Expense         `json:"expense"`
	Recompute *RecomputeResult `json:"recompute"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type DeleteExpenseResponse struct {
	Recompute *RecomputeResult `json:"recompute"`
}

type GetLedgerRequest struct {
	GroupID string `json:"groupId"`
}

type GetLedgerResponse struct {
	Group    *Group     `json:"group"`
	People   []*Person  `json:"people"`
	Expenses []*Expense `json:"expenses"`
}

type Settlement struct {
	ID        string  `json:"id"`
	GroupID   string  `json:"groupId"`
	FromID    string  `json:"fromId"`
	ToID      string  `json:"toId"`
	Amount    float64 `json:"amount"`
	Settled   bool    `json:"settled"`
	CreatedAt int64   `json:"createdAt"`
	SettledAt int64   `json:"settledAt,omitempty"`
}

type RecomputeResult struct {
	SettlementsCount int `json:"settlementsCount"`
	PreservedCount   int `json:"preservedCount"`
}

type ListSettlementsRequest struct {
	GroupID string `json:"groupId"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

type RecomputeRequest struct {
	GroupID string `json:"groupId"`
}

type RecomputeResponse struct {
	SettlementsCount int `json:"settlementsCount"`
	PreservedCount   int `json:"preservedCount"`
}

type SettleRequest struct {
	SettlementID string `json:"settlementId"`
}

type SettleResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type SettleAllRequest struct {
	GroupID string `json:"groupId"`
}

type SettleAllResponse struct {
	SettledCount int `json:"settledCount"`
}

type GetBalancesRequest struct {
	GroupID string `json:"groupId"`
}

type Balance struct {
	PersonID string  `json:"personId"`
	Amount   float64 `json:"amount"`
}

type Transfer struct {
	FromID string  `json:"fromId"`
	ToID   string  `json:"toId"`
	Amount float64 `json:"amount"`
}

// GetBalancesResponse shows current net balances and the plan a recompute
// would write. Positive balances are owed money.
type GetBalancesResponse struct {
	Balances []Balance  `json:"balances"`
	Plan     []Transfer `json:"plan"`
}

func toUser(u *models.User) *User {
	return &User{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, CreatedAt: u.CreatedAt}
}

func toGroup(g *models.Group) *Group {
	members := g.MemberIDs
	if members == nil {
		members = []string{}
	}
	return &Group{ID: g.ID, Name: g.Name, OwnerID: g.OwnerID, MemberIDs: members, CreatedAt: g.CreatedAt}
}

func toPerson(p *models.Person) *Person {
	return &Person{ID: p.ID, Name: p.Name}
}

func toExpense(e *models.Expense) *Expense {
	shares := make([]Share, len(e.Shares))
	for i, s := range e.Shares {
		shares[i] = Share{PersonID: s.PersonID, Amount: s.Amount}
	}
	return &Expense{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		PaidByID:    e.PaidByID,
		SplitMode:   string(e.SplitMode),
		Shares:      shares,
		CreatedAt:   e.CreatedAt,
	}
}

func toSettlement(s *models.Settlement) *Settlement {
	return &Settlement{
		ID:        s.ID,
		GroupID:   s.GroupID,
		FromID:    s.FromID,
		ToID:      s.ToID,
		Amount:    s.Amount,
		Settled:   s.Settled,
		CreatedAt: s.CreatedAt,
		SettledAt: s.SettledAt,
	}
}

func toRecomputeResult(r *models.RecomputeResult) *RecomputeResult {
	return &RecomputeResult{SettlementsCount: r.SettlementsCount, PreservedCount: r.PreservedCount}
}

func toBalances(balances calculator.Balances) []Balance {
	out := make([]Balance, len(balances))
	for i, b := range balances {
		out[i] = Balance{PersonID: b.PersonID, Amount: calculator.RoundCents(b.Amount)}
	}
	return out
}

func toTransfers(plan []calculator.Transfer) []Transfer {
	out := make([]Transfer, len(plan))
	for i, t := range plan {
		out[i] = Transfer{FromID: t.FromID, ToID: t.ToID, Amount: calculator.RoundCents(t.Amount)}
	}
	return out
}
