// Package reconciler keeps a group's persisted settlements in line with its
// ledger. A recompute derives a fresh plan from the ledger and replaces the
// pending rows in one transaction; settled rows are history and are kept.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/events"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

var (
	// ErrReconcile is what callers see when the ledger could not be turned
	// into a consistent plan. Details are logged, not returned.
	ErrReconcile = errors.New("could not reconcile settlements")

	// ErrUnavailable wraps persistence and lock failures. The whole call
	// may be retried.
	ErrUnavailable = errors.New("settlement store unavailable")
)

// DefaultLockTimeout bounds how long a call waits for a busy group.
const DefaultLockTimeout = 5 * time.Second

// Options configures a Reconciler. The zero value is usable.
type Options struct {
	// LockTimeout bounds the wait for a group's lock. Zero means DefaultLockTimeout.
	LockTimeout time.Duration

	// Publisher receives events after commit. Nil drops events.
	Publisher events.Publisher

	// Registerer receives the reconciler metrics. Nil leaves them unregistered.
	Registerer prometheus.Registerer

	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// Reconciler orchestrates recompute, settle and settle-all for groups.
// Calls on the same group are serialized; different groups run in parallel.
type Reconciler struct {
	store       storage.Store
	locks       *groupLocks
	publisher   events.Publisher
	metrics     *metrics
	lockTimeout time.Duration
	now         func() time.Time
}

// New creates a Reconciler over store.
func New(store storage.Store, opts Options) *Reconciler {
	r := &Reconciler{
		store:       store,
		locks:       newGroupLocks(),
		publisher:   opts.Publisher,
		metrics:     newMetrics(opts.Registerer),
		lockTimeout: opts.LockTimeout,
		now:         opts.Now,
	}
	if r.publisher == nil {
		r.publisher = events.NopPublisher{}
	}
	if r.lockTimeout <= 0 {
		r.lockTimeout = DefaultLockTimeout
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// BalanceReport is the read-only view of a group's current position.
type BalanceReport struct {
	Balances calculator.Balances
	Plan     []calculator.Transfer
}

// Recompute rebuilds the group's pending settlements from its ledger.
//
// Steps:
// 1. Check requester access
// 2. Under the group lock, in one transaction: load the ledger, aggregate,
//    credit settled rows, simplify, delete pending rows, insert the new plan
// 3. Publish a recomputed event
//
// On any failure nothing is written.
func (r *Reconciler) Recompute(ctx context.Context, groupID, requesterID string) (*models.RecomputeResult, error) {
	start := time.Now()
	result, err := r.recompute(ctx, groupID, requesterID)
	r.metrics.recomputeDuration.Observe(time.Since(start).Seconds())
	r.metrics.recomputes.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		if errors.Is(err, calculator.ErrInvariantViolation) {
			r.metrics.invariantViolations.Inc()
		}
		return nil, err
	}

	r.metrics.settlementsWritten.Add(float64(result.SettlementsCount))
	r.metrics.settlementsKept.Add(float64(result.PreservedCount))

	slog.Info("Settlements recomputed",
		"group_id", groupID,
		"settlements_count", result.SettlementsCount,
		"preserved_count", result.PreservedCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (r *Reconciler) recompute(ctx context.Context, groupID, requesterID string) (*models.RecomputeResult, error) {
	if err := r.authorize(ctx, groupID, requesterID); err != nil {
		return nil, err
	}

	unlock, err := r.lock(ctx, groupID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	result := &models.RecomputeResult{}
	var written []string
	err = r.store.InTx(ctx, func(tx storage.Tx) error {
		ledger, err := tx.GetGroupLedger(ctx, groupID, requesterID)
		if err != nil {
			return err
		}

		existing, err := tx.ListSettlements(ctx, groupID)
		if err != nil {
			return err
		}
		for _, s := range existing {
			if s.Settled {
				result.PreservedIDs = append(result.PreservedIDs, s.ID)
			}
		}

		balances := calculator.ApplySettled(calculator.Aggregate(ledger.People, ledger.Expenses), settledTransfers(existing))
		plan, err := calculator.Simplify(balances)
		if err != nil {
			slog.Error("Recompute aborted - balances do not sum to zero",
				"group_id", groupID,
				"balances", balances,
				"sum", balances.Sum(),
				"error", err,
			)
			return err
		}

		if _, err := tx.DeleteSettlements(ctx, groupID, false); err != nil {
			return err
		}

		createdAt := r.now().Unix()
		rows := make([]*models.Settlement, 0, len(plan))
		for _, transfer := range plan {
			amount := calculator.RoundCents(transfer.Amount)
			if amount <= 0 {
				continue
			}
			rows = append(rows, &models.Settlement{
				GroupID:   groupID,
				FromID:    transfer.FromID,
				ToID:      transfer.ToID,
				Amount:    amount,
				CreatedAt: createdAt,
			})
		}
		if err := tx.InsertSettlements(ctx, rows); err != nil {
			return err
		}

		for _, row := range rows {
			written = append(written, row.ID)
		}
		result.SettlementsCount = len(rows)
		result.PreservedCount = len(result.PreservedIDs)
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	event := events.NewEvent(events.TypeRecomputed, groupID, written)
	event.PreservedCount = result.PreservedCount
	r.publish(ctx, event)

	return result, nil
}

// List returns the group's settlements without recomputing.
func (r *Reconciler) List(ctx context.Context, groupID, requesterID string) ([]*models.Settlement, error) {
	if err := r.authorize(ctx, groupID, requesterID); err != nil {
		return nil, err
	}

	settlements, err := r.store.ListSettlements(ctx, groupID)
	if err != nil {
		return nil, classify(err)
	}
	return settlements, nil
}

// Settle marks one settlement as settled. Settling a settled row is a no-op
// that returns the row unchanged.
func (r *Reconciler) Settle(ctx context.Context, settlementID, requesterID string) (*models.Settlement, error) {
	settlement, err := r.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, classify(err)
	}
	groupID := settlement.GroupID

	if err := r.authorize(ctx, groupID, requesterID); err != nil {
		return nil, err
	}

	unlock, err := r.lock(ctx, groupID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	changed := false
	err = r.store.InTx(ctx, func(tx storage.Tx) error {
		// Re-read under the lock: a recompute may have replaced the row.
		current, err := tx.GetSettlement(ctx, settlementID)
		if err != nil {
			return err
		}
		settlement = current
		if settlement.Settled {
			return nil
		}

		settledAt := r.now().Unix()
		n, err := tx.MarkSettled(ctx, []string{settlementID}, settledAt)
		if err != nil {
			return err
		}
		settlement.Settled = true
		settlement.SettledAt = settledAt
		changed = n > 0
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	if changed {
		r.metrics.settlementsSettled.Inc()
		r.publish(ctx, events.NewEvent(events.TypeSettled, groupID, []string{settlementID}))
	}

	slog.Info("Settlement settled", "settlement_id", settlementID, "group_id", groupID, "changed", changed)
	return settlement, nil
}

// SettleAll marks every pending settlement of the group as settled in one
// transaction and returns how many rows changed.
func (r *Reconciler) SettleAll(ctx context.Context, groupID, requesterID string) (int, error) {
	if err := r.authorize(ctx, groupID, requesterID); err != nil {
		return 0, err
	}

	unlock, err := r.lock(ctx, groupID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	var ids []string
	var settled int64
	err = r.store.InTx(ctx, func(tx storage.Tx) error {
		existing, err := tx.ListSettlements(ctx, groupID)
		if err != nil {
			return err
		}
		for _, s := range existing {
			if !s.Settled {
				ids = append(ids, s.ID)
			}
		}

		settled, err = tx.MarkSettled(ctx, ids, r.now().Unix())
		return err
	})
	if err != nil {
		return 0, classify(err)
	}

	if settled > 0 {
		r.metrics.settlementsSettled.Add(float64(settled))
		r.publish(ctx, events.NewEvent(events.TypeSettled, groupID, ids))
	}

	slog.Info("Group settled", "group_id", groupID, "count", settled)
	return int(settled), nil
}

// Balances computes the group's current net balances and the plan a
// recompute would write. Nothing is persisted.
func (r *Reconciler) Balances(ctx context.Context, groupID, requesterID string) (*BalanceReport, error) {
	ledger, err := r.store.GetGroupLedger(ctx, groupID, requesterID)
	if err != nil {
		return nil, classify(err)
	}

	existing, err := r.store.ListSettlements(ctx, groupID)
	if err != nil {
		return nil, classify(err)
	}

	balances := calculator.ApplySettled(calculator.Aggregate(ledger.People, ledger.Expenses), settledTransfers(existing))
	plan, err := calculator.Simplify(balances)
	if err != nil {
		slog.Error("Balances failed - balances do not sum to zero",
			"group_id", groupID,
			"balances", balances,
			"error", err,
		)
		return nil, classify(err)
	}

	return &BalanceReport{Balances: balances, Plan: plan}, nil
}

// settledTransfers returns the payments already made, as transfers.
func settledTransfers(settlements []*models.Settlement) []calculator.Transfer {
	var out []calculator.Transfer
	for _, s := range settlements {
		if s.Settled {
			out = append(out, calculator.Transfer{FromID: s.FromID, ToID: s.ToID, Amount: s.Amount})
		}
	}
	return out
}

// authorize checks that requesterID is the owner or a member of the group.
func (r *Reconciler) authorize(ctx context.Context, groupID, requesterID string) error {
	group, err := r.store.GetGroup(ctx, groupID)
	if err != nil {
		return classify(err)
	}
	if !group.HasAccess(requesterID) {
		return fmt.Errorf("user %s on group %s: %w", requesterID, groupID, storage.ErrForbidden)
	}
	return nil
}

func (r *Reconciler) lock(ctx context.Context, groupID string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	unlock, err := r.locks.acquire(lockCtx, groupID)
	if err != nil {
		return nil, fmt.Errorf("%w: waiting for group %s: %w", ErrUnavailable, groupID, err)
	}
	return unlock, nil
}

// publish delivers an event after commit. Failures are logged only: the
// change is already durable.
func (r *Reconciler) publish(ctx context.Context, event *events.Event) {
	if err := r.publisher.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish settlement event",
			"type", event.Type,
			"group_id", event.GroupID,
			"error", err,
		)
	}
}

// classify maps errors into the reconciler's taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrForbidden):
		return err
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrReconcile):
		return err
	case errors.Is(err, calculator.ErrInvariantViolation):
		return fmt.Errorf("%w: %w", ErrReconcile, err)
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, storage.ErrForbidden):
		return outcomeForbidden
	case errors.Is(err, storage.ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, calculator.ErrInvariantViolation):
		return outcomeInvariant
	default:
		return outcomeError
	}
}
