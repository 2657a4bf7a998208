package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/reconciler"
)

// SettlementEngine is the reconciler surface the services call.
type SettlementEngine interface {
	Recompute(ctx context.Context, groupID, requesterID string) (*models.RecomputeResult, error)
	List(ctx context.Context, groupID, requesterID string) ([]*models.Settlement, error)
	Settle(ctx context.Context, settlementID, requesterID string) (*models.Settlement, error)
	SettleAll(ctx context.Context, groupID, requesterID string) (int, error)
	Balances(ctx context.Context, groupID, requesterID string) (*reconciler.BalanceReport, error)
}

// SettlementService implements settleup.v1.SettlementService.
type SettlementService struct {
	engine SettlementEngine
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(engine SettlementEngine) *SettlementService {
	return &SettlementService{engine: engine}
}

// ListSettlements returns the group's persisted settlements, settled and
// pending, without recomputing.
func (s *SettlementService) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.GroupID == "" {
		return nil, invalidArgument(errGroupRequired)
	}

	settlements, err := s.engine.List(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]*Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toSettlement(st)
	}
	return connect.NewResponse(&ListSettlementsResponse{Settlements: out}), nil
}

// Recompute rebuilds the group's pending settlements from its ledger.
func (s *SettlementService) Recompute(ctx context.Context, req *connect.Request[RecomputeRequest]) (*connect.Response[RecomputeResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.GroupID == "" {
		return nil, invalidArgument(errGroupRequired)
	}
	slog.Info("Recompute request received", "group_id", req.Msg.GroupID)

	result, err := s.engine.Recompute(ctx, req.Msg.GroupID, userID)
	if err != nil {
		slog.Warn("Recompute failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&RecomputeResponse{
		SettlementsCount: result.SettlementsCount,
		PreservedCount:   result.PreservedCount,
	}), nil
}

// Settle marks one settlement as paid.
func (s *SettlementService) Settle(ctx context.Context, req *connect.Request[SettleRequest]) (*connect.Response[SettleResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.SettlementID == "" {
		return nil, invalidArgument(errSettlementRequired)
	}

	settlement, err := s.engine.Settle(ctx, req.Msg.SettlementID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SettleResponse{Settlement: toSettlement(settlement)}), nil
}

// SettleAll marks every pending settlement of the group as paid.
func (s *SettlementService) SettleAll(ctx context.Context, req *connect.Request[SettleAllRequest]) (*connect.Response[SettleAllResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.GroupID == "" {
		return nil, invalidArgument(errGroupRequired)
	}

	n, err := s.engine.SettleAll(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SettleAllResponse{SettledCount: n}), nil
}

// GetBalances returns net balances and the plan a recompute would produce.
// Nothing is written.
func (s *SettlementService) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.GroupID == "" {
		return nil, invalidArgument(errGroupRequired)
	}

	report, err := s.engine.Balances(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetBalancesResponse{
		Balances: toBalances(report.Balances),
		Plan:     toTransfers(report.Plan),
	}), nil
}
