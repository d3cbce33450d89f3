package colormix

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/factory-mix/internal/domain/errs"
	"github.com/Spok95/factory-mix/internal/domain/formulas"
	"github.com/Spok95/factory-mix/internal/domain/inventory"
	"github.com/Spok95/factory-mix/internal/domain/materials"
	"github.com/Spok95/factory-mix/internal/domain/users"
	"github.com/Spok95/factory-mix/internal/infra/logger"
)

// memState is one snapshot of everything a mix operation touches.
type memState struct {
	formulas map[int64]*formulas.Formula
	stock    map[int64]materials.Material
	entries  map[int64]Entry
	moves    []inventory.Movement
	nextID   int64
}

func (s *memState) clone() *memState {
	c := &memState{
		formulas: s.formulas,
		stock:    make(map[int64]materials.Material, len(s.stock)),
		entries:  make(map[int64]Entry, len(s.entries)),
		moves:    append([]inventory.Movement(nil), s.moves...),
		nextID:   s.nextID,
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	return c
}

// memScope commits a working copy on success and drops it on error.
type memScope struct {
	mu        sync.Mutex
	state     *memState
	conflicts int
	calls     int
}

func (m *memScope) Execute(_ context.Context, fn func(Repos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.conflicts > 0 {
		m.conflicts--
		return fmt.Errorf("%w: injected", errs.ErrConcurrencyConflict)
	}
	work := m.state.clone()
	if err := fn(memRepos{work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

type memRepos struct{ s *memState }

func (r memRepos) Formulas() FormulaSource { return r }
func (r memRepos) Stock() StockStore       { return r }
func (r memRepos) Entries() EntryStore     { return r }
func (r memRepos) Movements() MovementLog  { return r }

func (r memRepos) Resolve(_ context.Context, id int64) (*formulas.Formula, error) {
	f, ok := r.s.formulas[id]
	if !ok {
		return nil, fmt.Errorf("formula %d: %w", id, errs.ErrNotFound)
	}
	return f, nil
}

func (r memRepos) GetMany(_ context.Context, ids []int64) (map[int64]materials.Material, error) {
	out := map[int64]materials.Material{}
	for _, id := range ids {
		if m, ok := r.s.stock[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (r memRepos) SetQuantity(_ context.Context, id int64, expected, next decimal.Decimal) error {
	m := r.s.stock[id]
	if !m.Quantity.Equal(expected) {
		return fmt.Errorf("material %d: %w", id, errs.ErrConcurrencyConflict)
	}
	m.Quantity = next
	r.s.stock[id] = m
	return nil
}

func (r memRepos) Get(_ context.Context, id int64) (*Entry, error) {
	e, ok := r.s.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r memRepos) List(context.Context) ([]Entry, error) {
	out := make([]Entry, 0, len(r.s.entries))
	for _, e := range r.s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memRepos) Insert(_ context.Context, e *Entry) error {
	r.s.nextID++
	e.ID = r.s.nextID
	e.CreatedAt, e.UpdatedAt = time.Now(), time.Now()
	r.s.entries[e.ID] = *e
	return nil
}

func (r memRepos) Update(_ context.Context, e *Entry) error {
	old, ok := r.s.entries[e.ID]
	if !ok {
		return fmt.Errorf("entry %d: %w", e.ID, errs.ErrNotFound)
	}
	e.CreatedBy, e.CreatedAt, e.UpdatedAt = old.CreatedBy, old.CreatedAt, time.Now()
	r.s.entries[e.ID] = *e
	return nil
}

func (r memRepos) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.entries[id]; !ok {
		return fmt.Errorf("entry %d: %w", id, errs.ErrNotFound)
	}
	delete(r.s.entries, id)
	return nil
}

func (r memRepos) Record(_ context.Context, moves ...inventory.Movement) error {
	r.s.moves = append(r.s.moves, moves...)
	return nil
}

type lowRecorder struct{ got [][]materials.Material }

func (l *lowRecorder) LowStock(_ context.Context, mats []materials.Material) {
	l.got = append(l.got, mats)
}

var (
	admin  = users.Actor{ID: 1, Role: users.RoleAdmin}
	worker = users.Actor{ID: 3, Role: users.RoleWorker}
)

func newTestService(stock ...materials.Material) (*Service, *memScope, *lowRecorder) {
	st := &memState{
		formulas: map[int64]*formulas.Formula{1: redA()},
		stock:    map[int64]materials.Material{},
		entries:  map[int64]Entry{},
	}
	for _, m := range stock {
		st.stock[m.ID] = m
	}
	scope := &memScope{state: st}
	low := &lowRecorder{}
	svc := NewService(scope, low, 1, logger.Discard())
	svc.backoff = time.Millisecond
	return svc, scope, low
}

func base() []materials.Material {
	return []materials.Material{
		{ID: 1, Name: "Base", Quantity: d("100"), Threshold: d("10")},
		{ID: 2, Name: "Pigment", Quantity: d("100"), Threshold: d("10")},
	}
}

func input(pairs ...any) Input {
	return Input{FormulaID: 1, Materials: items(pairs...), ColorRequirement: d("100")}
}

func qty(scope *memScope, id int64) decimal.Decimal {
	return scope.state.stock[id].Quantity
}

func TestService_Lifecycle(t *testing.T) {
	svc, scope, _ := newTestService(base()...)
	ctx := context.Background()

	e, err := svc.Create(ctx, worker, input(1, "6", 2, "14"))
	require.NoError(t, err)
	assert.Equal(t, "Red-A", e.FormulaName)
	assert.Equal(t, worker.ID, e.CreatedBy)
	require.True(t, e.SuggestedColor.Valid)
	assert.True(t, d("100").Equal(e.SuggestedColor.Decimal))
	assert.True(t, d("94").Equal(qty(scope, 1)))
	assert.True(t, d("86").Equal(qty(scope, 2)))

	e, err = svc.Update(ctx, worker, e.ID, input(1, "3", 2, "7"))
	require.NoError(t, err)
	assert.True(t, d("50").Equal(e.SuggestedColor.Decimal))
	assert.Equal(t, worker.ID, e.CreatedBy)
	assert.True(t, d("97").Equal(qty(scope, 1)))
	assert.True(t, d("93").Equal(qty(scope, 2)))

	got, err := svc.Get(ctx, worker, e.ID)
	require.NoError(t, err)
	assert.Len(t, got.Materials, 2)

	require.NoError(t, svc.Delete(ctx, admin, e.ID))
	assert.True(t, d("100").Equal(qty(scope, 1)))
	assert.True(t, d("100").Equal(qty(scope, 2)))

	_, err = svc.Get(ctx, worker, e.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	// 2 out, 2 refund, 2 refund
	require.Len(t, scope.state.moves, 6)
	net := map[int64]decimal.Decimal{}
	for _, m := range scope.state.moves {
		net[m.MaterialID] = net[m.MaterialID].Add(m.Qty)
	}
	assert.True(t, net[1].IsZero())
	assert.True(t, net[2].IsZero())
}

func TestService_CreateInsufficientStockChangesNothing(t *testing.T) {
	svc, scope, _ := newTestService(
		materials.Material{ID: 1, Name: "Base", Quantity: d("100")},
		materials.Material{ID: 2, Name: "Pigment", Quantity: d("5")},
	)

	_, err := svc.Create(context.Background(), worker, input(1, "6", 2, "14"))
	var short *errs.InsufficientStockError
	require.True(t, errors.As(err, &short))
	require.Len(t, short.Shortages, 1)
	assert.Equal(t, int64(2), short.Shortages[0].MaterialID)
	assert.True(t, d("9").Equal(short.Shortages[0].Shortfall))

	assert.True(t, d("100").Equal(qty(scope, 1)))
	assert.True(t, d("5").Equal(qty(scope, 2)))
	assert.Empty(t, scope.state.entries)
	assert.Empty(t, scope.state.moves)
}

func TestService_UpdateInsufficientStockKeepsEntry(t *testing.T) {
	svc, scope, _ := newTestService(base()...)
	ctx := context.Background()

	e, err := svc.Create(ctx, worker, input(1, "6", 2, "14"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, worker, e.ID, input(1, "3", 2, "200"))
	var short *errs.InsufficientStockError
	require.ErrorAs(t, err, &short)

	assert.True(t, d("94").Equal(qty(scope, 1)))
	assert.True(t, d("86").Equal(qty(scope, 2)))
	assert.True(t, d("14").Equal(scope.state.entries[e.ID].Materials[1].Quantity))
}

func TestService_UpdateSameQuantitiesTouchesNoStock(t *testing.T) {
	svc, scope, _ := newTestService(base()...)
	ctx := context.Background()

	e, err := svc.Create(ctx, worker, input(1, "6", 2, "14"))
	require.NoError(t, err)
	moves := len(scope.state.moves)

	_, err = svc.Update(ctx, worker, e.ID, input(2, "14", 1, "6"))
	require.NoError(t, err)
	assert.Len(t, scope.state.moves, moves)
	assert.True(t, d("94").Equal(qty(scope, 1)))
}

func TestService_QuantityScale(t *testing.T) {
	svc, scope, _ := newTestService(base()...)
	ctx := context.Background()

	_, err := svc.Create(ctx, worker, input(1, "0.0005", 2, "1"))
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = svc.Update(ctx, worker, 1, input(1, "1.2345"))
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = svc.Create(ctx, worker, Input{FormulaID: 1, Materials: items(1, "1"), ColorRequirement: d("10.0001")})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	assert.True(t, d("100").Equal(qty(scope, 1)))
	assert.Empty(t, scope.state.moves)

	// trailing zeros past the third place are still exact
	e, err := svc.Create(ctx, worker, input(1, "0.1250", 2, "2.5000"))
	require.NoError(t, err)
	assert.True(t, d("99.875").Equal(qty(scope, 1)))
	assert.True(t, d("97.5").Equal(qty(scope, 2)))

	require.NoError(t, svc.Delete(ctx, admin, e.ID))
	assert.Equal(t, "100", qty(scope, 1).String())
	assert.Equal(t, "100", qty(scope, 2).String())
}

func TestService_Errors(t *testing.T) {
	svc, _, _ := newTestService(base()...)
	ctx := context.Background()

	_, err := svc.Create(ctx, worker, Input{FormulaID: 9, Materials: items(1, "1"), ColorRequirement: d("1")})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = svc.Create(ctx, worker, input(7, "1"))
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = svc.Create(ctx, worker, input(1, "-1"))
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = svc.Create(ctx, worker, Input{FormulaID: 1, Materials: items(1, "1")})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = svc.Update(ctx, worker, 42, input(1, "1"))
	assert.ErrorIs(t, err, errs.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, admin, 42), errs.ErrNotFound)
}

func TestService_WorkerCannotDelete(t *testing.T) {
	svc, scope, _ := newTestService(base()...)
	ctx := context.Background()

	e, err := svc.Create(ctx, worker, input(1, "6"))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, worker, e.ID), errs.ErrForbidden)
	assert.Contains(t, scope.state.entries, e.ID)
	assert.True(t, d("94").Equal(qty(scope, 1)))
}

func TestService_RetriesConflictOnce(t *testing.T) {
	svc, scope, _ := newTestService(base()...)
	scope.conflicts = 1

	_, err := svc.Create(context.Background(), worker, input(1, "6"))
	require.NoError(t, err)
	assert.Equal(t, 2, scope.calls)
	assert.True(t, d("94").Equal(qty(scope, 1)))
}

func TestService_GivesUpAfterRetries(t *testing.T) {
	svc, scope, _ := newTestService(base()...)
	scope.conflicts = 5

	_, err := svc.Create(context.Background(), worker, input(1, "6"))
	assert.ErrorIs(t, err, errs.ErrConcurrencyConflict)
	assert.Equal(t, 2, scope.calls)
	assert.True(t, d("100").Equal(qty(scope, 1)))
}

func TestService_NotifiesLowStock(t *testing.T) {
	svc, _, low := newTestService(base()...)

	_, err := svc.Create(context.Background(), worker, input(1, "90", 2, "5"))
	require.NoError(t, err)
	require.Len(t, low.got, 1)
	require.Len(t, low.got[0], 1)
	assert.Equal(t, int64(1), low.got[0][0].ID)
	assert.True(t, d("10").Equal(low.got[0][0].Quantity))
}

func TestService_Suggest(t *testing.T) {
	svc, _, _ := newTestService(base()...)
	ctx := context.Background()

	v, err := svc.Suggest(ctx, worker, 1, []Entered{{MaterialID: 1, Quantity: q("6")}, {MaterialID: 2, Quantity: q("14")}})
	require.NoError(t, err)
	require.True(t, v.Valid)
	assert.True(t, d("100").Equal(v.Decimal))

	v, err = svc.Suggest(ctx, worker, 1, []Entered{{MaterialID: 1}})
	require.NoError(t, err)
	assert.False(t, v.Valid)

	_, err = svc.Suggest(ctx, worker, 9, nil)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
