package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/reconciler"
	"github.com/mmynk/settleup/internal/storage"
)

var (
	errGroupRequired      = errors.New("group_id is required")
	errNameRequired       = errors.New("name is required")
	errSettlementRequired = errors.New("settlement_id is required")
	errExpenseRequired    = errors.New("expense_id is required")
	errUnknownPerson      = errors.New("person does not belong to the group")
	errOwnerOnly          = errors.New("only the group owner can add members")
	errPersonInUse        = errors.New("person still appears in expenses or settlements")
)

// toConnectError maps domain errors onto Connect codes. Reconcile failures
// carry a generic message; the detail stays in the server log.
func toConnectError(err error) error {
	var connectErr *connect.Error
	switch {
	case errors.As(err, &connectErr):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrForbidden):
		return connect.NewError(connect.CodePermissionDenied, storage.ErrForbidden)
	case errors.Is(err, calculator.ErrInvalidSplit):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, reconciler.ErrReconcile):
		return connect.NewError(connect.CodeInternal, reconciler.ErrReconcile)
	case errors.Is(err, reconciler.ErrUnavailable):
		return connect.NewError(connect.CodeUnavailable, reconciler.ErrUnavailable)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func invalidArgument(err error) error {
	return connect.NewError(connect.CodeInvalidArgument, err)
}

// requireUser returns the authenticated caller's ID.
func requireUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}
