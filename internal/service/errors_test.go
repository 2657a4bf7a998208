package service

import (
	"errors"
	"fmt"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/reconciler"
	"github.com/mmynk/settleup/internal/storage"
)

func TestToConnectError(t *testing.T) {
	invariant := fmt.Errorf("%w: %w", reconciler.ErrReconcile, &calculator.InvariantError{})

	tests := []struct {
		name string
		err  error
		code connect.Code
	}{
		{"not found", fmt.Errorf("group g1: %w", storage.ErrNotFound), connect.CodeNotFound},
		{"forbidden", storage.ErrForbidden, connect.CodePermissionDenied},
		{"invalid split", fmt.Errorf("%w: bad", calculator.ErrInvalidSplit), connect.CodeInvalidArgument},
		{"reconcile", invariant, connect.CodeInternal},
		{"unavailable", fmt.Errorf("%w: disk full", reconciler.ErrUnavailable), connect.CodeUnavailable},
		{"other", errors.New("boom"), connect.CodeInternal},
		{"already connect", connect.NewError(connect.CodeAborted, errors.New("x")), connect.CodeAborted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, connect.CodeOf(toConnectError(tt.err)))
		})
	}

	// Reconcile failures do not leak residual balances
	var connectErr *connect.Error
	assert.True(t, errors.As(toConnectError(invariant), &connectErr))
	assert.Equal(t, reconciler.ErrReconcile.Error(), connectErr.Message())
}
