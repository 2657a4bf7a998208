package reconciler

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/events"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/internal/storage/sqlite"
)

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store     *sqlite.SQLiteStore
	rec       *Reconciler
	publisher *recordingPublisher
	registry  *prometheus.Registry
	owner     *models.User
	group     *models.Group
	ids       map[string]string // person name -> id
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	owner := models.NewUser("owner@example.com", "Owner", "hash")
	require.NoError(t, store.CreateUser(ctx, owner))
	group := &models.Group{Name: "Trip", OwnerID: owner.ID}
	require.NoError(t, store.CreateGroup(ctx, group))

	ids := make(map[string]string)
	for _, name := range []string{"A", "B", "C"} {
		p := &models.Person{GroupID: group.ID, Name: name}
		require.NoError(t, store.AddPerson(ctx, p))
		ids[name] = p.ID
	}

	publisher := &recordingPublisher{}
	registry := prometheus.NewRegistry()
	rec := New(store, Options{Publisher: publisher, Registerer: registry, LockTimeout: time.Second})

	return &fixture{store: store, rec: rec, publisher: publisher, registry: registry, owner: owner, group: group, ids: ids}
}

// addExpense stores an expense whose shares are given by person name, in A, B, C order.
func (f *fixture) addExpense(t *testing.T, desc, paidBy string, amount float64, shares map[string]float64) *models.Expense {
	t.Helper()
	e := &models.Expense{GroupID: f.group.ID, Description: desc, Amount: amount, PaidByID: f.ids[paidBy]}
	for _, name := range []string{"A", "B", "C"} {
		if v, ok := shares[name]; ok {
			e.Shares = append(e.Shares, models.Share{PersonID: f.ids[name], Amount: v})
		}
	}
	require.NoError(t, f.store.CreateExpense(context.Background(), e))
	return e
}

func (f *fixture) name(id string) string {
	for n, pid := range f.ids {
		if pid == id {
			return n
		}
	}
	return id
}

type row struct {
	From, To string
	Amount   float64
	Settled  bool
}

func (f *fixture) rows(t *testing.T) []row {
	t.Helper()
	list, err := f.rec.List(context.Background(), f.group.ID, f.owner.ID)
	require.NoError(t, err)
	var out []row
	for _, s := range list {
		out = append(out, row{f.name(s.FromID), f.name(s.ToID), s.Amount, s.Settled})
	}
	return out
}

func pendingOnly(rows []row) []row {
	var out []row
	for _, r := range rows {
		if !r.Settled {
			out = append(out, r)
		}
	}
	return out
}

func TestRecompute_Scenarios(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addExpense(t, "Dinner", "A", 90, map[string]float64{"A": 30, "B": 30, "C": 30})
	res, err := f.rec.Recompute(ctx, f.group.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SettlementsCount)
	assert.Equal(t, 0, res.PreservedCount)
	assert.Equal(t, []row{{"B", "A", 30, false}, {"C", "A", 30, false}}, f.rows(t))

	f.addExpense(t, "Taxi", "B", 30, map[string]float64{"A": 10, "B": 10, "C": 10})
	_, err = f.rec.Recompute(ctx, f.group.ID, f.owner.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []row{{"C", "A", 40, false}, {"B", "A", 10, false}}, f.rows(t))
}

func TestRecompute_DriftWithinEpsilon(t *testing.T) {
	f := newFixture(t)

	f.addExpense(t, "Dinner", "A", 90, map[string]float64{"A": 30, "B": 30, "C": 29.99})
	res, err := f.rec.Recompute(context.Background(), f.group.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SettlementsCount)
	assert.Equal(t, []row{{"B", "A", 30, false}, {"C", "A", 29.99, false}}, f.rows(t))
}

func TestRecompute_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addExpense(t, "Dinner", "A", 90, map[string]float64{"A": 30, "B": 30, "C": 30})
	f.addExpense(t, "Taxi", "B", 30, map[string]float64{"A": 10, "B": 10, "C": 10})

	_, err := f.rec.Recompute(ctx, f.group.ID, f.owner.ID)
	require.NoError(t, err)
	first, err := f.store.ListSettlements(ctx, f.group.ID)
	require.NoError(t, err)

	_, err = f.rec.Recompute(ctx, f.group.ID, f.owner.ID)
	require.NoError(t, err)
	second, err := f.store.ListSettlements(ctx, f.group.ID)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].FromID, second[i].FromID)
		assert.Equal(t, first[i].ToID, second[i].ToID)
		assert.Equal(t, first[i].Amount, second[i].Amount)
		assert.NotEqual(t, first[i].ID, second[i].ID, "pending rows are recreated")
	}

	// IDs handed out before the second recompute are gone
	_, err = f.rec.Settle(ctx, first[0].ID, f.owner.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestRecompute_PreservesSettled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A owes B 30
	f.addExpense(t, "Groceries", "B", 60, map[string]float64{"A": 30, "B": 30})
	_, err := f.rec.Recompute(ctx, f.group.ID, f.owner.ID)
	require.NoError(t, err)

	list, err := f.store.ListSettlements(ctx, f.group.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	settledRow, err := f.rec.Settle(ctx, list[0].ID, f.owner.ID)
	require.NoError(t, err)
	require.True(t, settledRow.Settled)

	// New expense changes live balances
	f.addExpense(t, "Hotel", "C", 90, map[string]float64{"A": 30, "B": 30, "C": 30})
	res, err := f.rec.Recompute(ctx, f.group.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.PreservedCount)
	assert.Equal(t, []string{settledRow.ID}, res.PreservedIDs)

	kept, err := f.store.GetSettlement(ctx, settledRow.ID)
	require.NoError(t, err)
	assert.Equal(t, settledRow.Amount, kept.Amount)
	assert.True(t, kept.Settled)
	assert.Equal(t, settledRow.SettledAt, kept.SettledAt)

	// The payment already made is credited: only what is outstanding is planned.
	assert.Equal(t, []row{{"A", "C", 30, false}, {"B", "C", 30, false}}, pendingOnly(f.rows(t)))
}

// Settling flips a flag instead of deleting the row. Whether product wants
// settled rows kept as history or removed is still open; this pins the
// flag-based behavior.
func TestSettle_FlagsInsteadOfDeleting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addExpense(t, "Dinner", "A", 90, map[string]float64{"A": 30, "B": 30, "C": 30})
	_, err := f.rec.Recompute(ctx, f.group.ID, f.owner.ID)
	require.NoError(t, err)
	list, err := f.store.ListSettlements(ctx, f.group.ID)
	require.NoError(t, err)

	got, err := f.rec.Settle(ctx, list[0].ID, f.owner.ID)
	require.NoError(t, err)
	assert.True(t, got.Settled)
	assert.NotZero(t, got.SettledAt)

	again, err := f.rec.Settle(ctx, list[0].ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, got.SettledAt, again.SettledAt, "settling twice is a no-op")

	assert.Equal(t, []row{{"B", "A", 30, true}, {"C", "A", 30, false}}, f.rows(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.rec.metrics.settlementsSettled))
}

func TestSettleAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addExpense(t, "Dinner", "A", 90, map[string]float64{"A": 30, "B": 30, "C": 30})
	_, err := f.rec.Recompute(ctx, f.group.ID, f.owner.ID)
	require.NoError(t, err)

	n, err := f.rec.SettleAll(ctx, f.group.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []row{{"B", "A", 30, true}, {"C", "A", 30, true}}, f.rows(t))

	n, err = f.rec.SettleAll(ctx, f.group.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Everything is paid: a recompute plans nothing and keeps history.
	res, err := f.rec.Recompute(ctx, f.group.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.SettlementsCount)
	assert.Equal(t, 2, res.PreservedCount)

	assert.Equal(t, []string{events.TypeRecomputed, events.TypeSettled, events.TypeRecomputed}, f.publisher.types())
}

func TestRecompute_InvariantViolationRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addExpense(t, "Dinner", "A", 90, map[string]float64{"A": 30, "B": 30, "C": 30})
	_, err := f.rec.Recompute(ctx, f.group.ID, f.owner.ID)
	require.NoError(t, err)
	before, err := f.store.ListSettlements(ctx, f.group.ID)
	require.NoError(t, err)

	// Shares sum to 20 against a 30 expense
	f.addExpense(t, "Broken", "B", 30, map[string]float64{"A": 10, "C": 10})
	_, err = f.rec.Recompute(ctx, f.group.ID, f.owner.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReconcile))
	assert.True(t, errors.Is(err, calculator.ErrInvariantViolation))

	after, err := f.store.ListSettlements(ctx, f.group.ID)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(f.rec.metrics.invariantViolations))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.rec.metrics.recomputes.WithLabelValues(outcomeInvariant)))

	_, err = f.rec.Balances(ctx, f.group.ID, f.owner.ID)
	assert.True(t, errors.Is(err, ErrReconcile))
}

func TestAccessErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addExpense(t, "Dinner", "A", 90, map[string]float64{"A": 30, "B": 30, "C": 30})
	_, err := f.rec.Recompute(ctx, f.group.ID, f.owner.ID)
	require.NoError(t, err)
	list, err := f.store.ListSettlements(ctx, f.group.ID)
	require.NoError(t, err)

	t.Run("outsider is forbidden", func(t *testing.T) {
		_, err := f.rec.Recompute(ctx, f.group.ID, "stranger")
		assert.True(t, errors.Is(err, storage.ErrForbidden))
		_, err = f.rec.List(ctx, f.group.ID, "stranger")
		assert.True(t, errors.Is(err, storage.ErrForbidden))
		_, err = f.rec.Settle(ctx, list[0].ID, "stranger")
		assert.True(t, errors.Is(err, storage.ErrForbidden))
		_, err = f.rec.SettleAll(ctx, f.group.ID, "stranger")
		assert.True(t, errors.Is(err, storage.ErrForbidden))
		_, err = f.rec.Balances(ctx, f.group.ID, "stranger")
		assert.True(t, errors.Is(err, storage.ErrForbidden))
	})

	t.Run("member is allowed", func(t *testing.T) {
		member := models.NewUser("member@example.com", "Member", "hash")
		require.NoError(t, f.store.CreateUser(ctx, member))
		require.NoError(t, f.store.AddGroupMember(ctx, f.group.ID, member.ID))

		_, err := f.rec.Recompute(ctx, f.group.ID, member.ID)
		assert.NoError(t, err)
	})

	t.Run("unknown ids are not found", func(t *testing.T) {
		_, err := f.rec.Recompute(ctx, "nonexistent-id", f.owner.ID)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
		_, err = f.rec.Settle(ctx, "nonexistent-id", f.owner.ID)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(f.rec.metrics.recomputes.WithLabelValues(outcomeForbidden)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.rec.metrics.recomputes.WithLabelValues(outcomeNotFound)))
}

func TestBalances_ReadOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addExpense(t, "Dinner", "A", 90, map[string]float64{"A": 30, "B": 30, "C": 30})
	report, err := f.rec.Balances(ctx, f.group.ID, f.owner.ID)
	require.NoError(t, err)

	require.Len(t, report.Balances, 3)
	assert.InDelta(t, 60, report.Balances[0].Amount, 1e-9)
	assert.Len(t, report.Plan, 2)

	list, err := f.store.ListSettlements(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecompute_ConcurrentSameGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addExpense(t, "Dinner", "A", 90, map[string]float64{"A": 30, "B": 30, "C": 30})
	f.addExpense(t, "Taxi", "B", 30, map[string]float64{"A": 10, "B": 10, "C": 10})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.rec.Recompute(ctx, f.group.ID, f.owner.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got := f.rows(t)
	sort.Slice(got, func(i, j int) bool { return got[i].From < got[j].From })
	assert.Equal(t, []row{{"B", "A", 10, false}, {"C", "A", 40, false}}, got)
}

func TestRecompute_LockTimeout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.rec.lockTimeout = 10 * time.Millisecond

	unlock, err := f.rec.locks.acquire(ctx, f.group.ID)
	require.NoError(t, err)
	defer unlock()

	_, err = f.rec.Recompute(ctx, f.group.ID, f.owner.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestRecompute_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	f.addExpense(t, "Dinner", "A", 90, map[string]float64{"A": 30, "B": 30, "C": 30})
	res, err := f.rec.Recompute(context.Background(), f.group.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SettlementsCount)
}

func TestClassify(t *testing.T) {
	assert.True(t, errors.Is(classify(storage.ErrNotFound), storage.ErrNotFound))
	assert.True(t, errors.Is(classify(errors.New("disk I/O error")), ErrUnavailable))
	assert.True(t, errors.Is(classify(&calculator.InvariantError{}), ErrReconcile))
	assert.Equal(t, outcomeOK, outcome(nil))
}
