package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// LedgerService implements settleup.v1.LedgerService: groups, people and
// expenses. Every expense change is followed by a recompute of the group's
// settlements.
type LedgerService struct {
	store  storage.Store
	engine SettlementEngine
}

// NewLedgerService creates a LedgerService.
func NewLedgerService(store storage.Store, engine SettlementEngine) *LedgerService {
	return &LedgerService{store: store, engine: engine}
}

// CreateGroup creates a group owned by the caller.
func (s *LedgerService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument(errNameRequired)
	}

	group := &models.Group{Name: name, OwnerID: userID}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID, "owner_id", userID)
	return connect.NewResponse(&CreateGroupResponse{Group: toGroup(group)}), nil
}

// AddMember gives a registered user access to the group. Owner only.
func (s *LedgerService) AddMember(ctx context.Context, req *connect.Request[AddMemberRequest]) (*connect.Response[AddMemberResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.GroupID == "" {
		return nil, invalidArgument(errGroupRequired)
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if group.OwnerID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errOwnerOnly)
	}

	member, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Msg.Email)))
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.AddGroupMember(ctx, group.ID, member.ID); err != nil {
		slog.Error("AddMember failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	group, err = s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("Member added", "group_id", group.ID, "member_id", member.ID)
	return connect.NewResponse(&AddMemberResponse{Group: toGroup(group)}), nil
}

// AddPerson adds a ledger participant to the group.
func (s *LedgerService) AddPerson(ctx context.Context, req *connect.Request[AddPersonRequest]) (*connect.Response[AddPersonResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Msg.Name)
	if req.Msg.GroupID == "" {
		return nil, invalidArgument(errGroupRequired)
	}
	if name == "" {
		return nil, invalidArgument(errNameRequired)
	}

	if _, err := s.authorize(ctx, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}

	person := &models.Person{GroupID: req.Msg.GroupID, Name: name}
	if err := s.store.AddPerson(ctx, person); err != nil {
		slog.Error("AddPerson failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Person added", "group_id", person.GroupID, "person_id", person.ID)
	return connect.NewResponse(&AddPersonResponse{Person: toPerson(person)}), nil
}

// RemovePerson deletes a person who takes no part in any expense or settlement.
func (s *LedgerService) RemovePerson(ctx context.Context, req *connect.Request[RemovePersonRequest]) (*connect.Response[RemovePersonResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.GroupID == "" {
		return nil, invalidArgument(errGroupRequired)
	}

	ledger, err := s.store.GetGroupLedger(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	found := false
	for _, p := range ledger.People {
		found = found || p.ID == req.Msg.PersonID
	}
	if !found {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("person %s: %w", req.Msg.PersonID, storage.ErrNotFound))
	}
	// Removing a participant would leave their expenses unbalanced.
	for _, e := range ledger.Expenses {
		if e.PaidByID == req.Msg.PersonID {
			return nil, connect.NewError(connect.CodeFailedPrecondition, errPersonInUse)
		}
		for _, share := range e.Shares {
			if share.PersonID == req.Msg.PersonID {
				return nil, connect.NewError(connect.CodeFailedPrecondition, errPersonInUse)
			}
		}
	}
	// Settlement rows cascade with the person, settled history included.
	settlements, err := s.store.ListSettlements(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	for _, st := range settlements {
		if st.FromID == req.Msg.PersonID || st.ToID == req.Msg.PersonID {
			return nil, connect.NewError(connect.CodeFailedPrecondition, errPersonInUse)
		}
	}

	if err := s.store.DeletePerson(ctx, req.Msg.PersonID); err != nil {
		slog.Error("RemovePerson failed", "group_id", req.Msg.GroupID, "person_id", req.Msg.PersonID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Person removed", "group_id", req.Msg.GroupID, "person_id", req.Msg.PersonID)
	return connect.NewResponse(&RemovePersonResponse{}), nil
}

// CreateExpense records an expense, computes its shares from the split mode
// and recomputes the group's settlements. The expense stays committed when
// the recompute fails; the error is returned and the next recompute of the
// group picks the expense up.
func (s *LedgerService) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	slog.Info("CreateExpense request received",
		"group_id", msg.GroupID,
		"amount", msg.Amount,
		"split_mode", msg.SplitMode,
		"participants", len(msg.Shares),
	)
	if msg.GroupID == "" {
		return nil, invalidArgument(errGroupRequired)
	}

	ledger, err := s.store.GetGroupLedger(ctx, msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	inGroup := make(map[string]bool, len(ledger.People))
	for _, p := range ledger.People {
		inGroup[p.ID] = true
	}
	if !inGroup[msg.PaidByID] {
		return nil, invalidArgument(fmt.Errorf("%w: payer %q", errUnknownPerson, msg.PaidByID))
	}

	mode := models.SplitMode(strings.ToUpper(msg.SplitMode))
	if mode == "" {
		mode = models.SplitEqual
	}

	inputs := make([]calculator.ShareInput, 0, len(msg.Shares))
	for _, in := range msg.Shares {
		if !inGroup[in.PersonID] {
			return nil, invalidArgument(fmt.Errorf("%w: %q", errUnknownPerson, in.PersonID))
		}
		inputs = append(inputs, calculator.ShareInput{PersonID: in.PersonID, Value: in.Value})
	}
	if len(inputs) == 0 && mode == models.SplitEqual {
		for _, p := range ledger.People {
			inputs = append(inputs, calculator.ShareInput{PersonID: p.ID})
		}
	}

	shares, err := calculator.SplitShares(mode, msg.Amount, inputs)
	if err != nil {
		return nil, toConnectError(err)
	}

	expense := &models.Expense{
		GroupID:     msg.GroupID,
		Description: strings.TrimSpace(msg.Description),
		Amount:      msg.Amount,
		PaidByID:    msg.PaidByID,
		SplitMode:   mode,
		Shares:      shares,
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense failed", "group_id", msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	slog.Info("Expense created", "group_id", expense.GroupID, "expense_id", expense.ID)

	result, err := s.engine.Recompute(ctx, expense.GroupID, userID)
	if err != nil {
		slog.Error("Recompute after CreateExpense failed", "group_id", expense.GroupID, "expense_id", expense.ID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&CreateExpenseResponse{
		Expense:   toExpense(expense),
		Recompute: toRecomputeResult(result),
	}), nil
}

// DeleteExpense removes an expense and recomputes the group's settlements.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.ExpenseID == "" {
		return nil, invalidArgument(errExpenseRequired)
	}

	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if _, err := s.authorize(ctx, expense.GroupID, userID); err != nil {
		return nil, err
	}

	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expense.ID, "error", err)
		return nil, toConnectError(err)
	}
	slog.Info("Expense deleted", "group_id", expense.GroupID, "expense_id", expense.ID)

	result, err := s.engine.Recompute(ctx, expense.GroupID, userID)
	if err != nil {
		slog.Error("Recompute after DeleteExpense failed", "group_id", expense.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&DeleteExpenseResponse{Recompute: toRecomputeResult(result)}), nil
}

// GetLedger returns the group with its people and expenses.
func (s *LedgerService) GetLedger(ctx context.Context, req *connect.Request[GetLedgerRequest]) (*connect.Response[GetLedgerResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.GroupID == "" {
		return nil, invalidArgument(errGroupRequired)
	}

	ledger, err := s.store.GetGroupLedger(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &GetLedgerResponse{
		Group:    toGroup(ledger.Group),
		People:   make([]*Person, len(ledger.People)),
		Expenses: make([]*Expense, len(ledger.Expenses)),
	}
	for i := range ledger.People {
		resp.People[i] = toPerson(&ledger.People[i])
	}
	for i := range ledger.Expenses {
		resp.Expenses[i] = toExpense(&ledger.Expenses[i])
	}
	return connect.NewResponse(resp), nil
}

func (s *LedgerService) authorize(ctx context.Context, groupID, userID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !group.HasAccess(userID) {
		return nil, connect.NewError(connect.CodePermissionDenied, storage.ErrForbidden)
	}
	return group, nil
}
