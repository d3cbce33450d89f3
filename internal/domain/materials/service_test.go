package materials

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/factory-mix/internal/domain/errs"
	"github.com/Spok95/factory-mix/internal/domain/users"
	"github.com/Spok95/factory-mix/internal/infra/logger"
)

type memStore struct {
	next  int64
	items map[int64]Material
	inUse map[int64]bool
}

func (m *memStore) Create(_ context.Context, in Input) (*Material, error) {
	m.next++
	mat := Material{ID: m.next, Name: in.Name, Quantity: in.Quantity, Unit: in.Unit, Threshold: in.Threshold, Description: in.Description}
	m.items[mat.ID] = mat
	return &mat, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*Material, error) {
	mat, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &mat, nil
}

func (m *memStore) List(context.Context) ([]Material, error) {
	var out []Material
	for id := int64(1); id <= m.next; id++ {
		if mat, ok := m.items[id]; ok {
			out = append(out, mat)
		}
	}
	return out, nil
}

func (m *memStore) ListLowStock(ctx context.Context) ([]Material, error) {
	all, _ := m.List(ctx)
	var out []Material
	for _, mat := range all {
		if mat.LowStock() {
			out = append(out, mat)
		}
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, id int64, in Input) (*Material, error) {
	mat, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	mat.Name, mat.Unit, mat.Threshold, mat.Description = in.Name, in.Unit, in.Threshold, in.Description
	m.items[id] = mat
	return &mat, nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	if m.inUse[id] {
		return fmt.Errorf("material %d: %w", id, errs.ErrInUse)
	}
	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("material %d: %w", id, errs.ErrNotFound)
	}
	delete(m.items, id)
	return nil
}

var (
	admin  = users.Actor{ID: 1, Role: users.RoleAdmin}
	worker = users.Actor{ID: 3, Role: users.RoleWorker}
)

func newTestService() (*Service, *memStore) {
	store := &memStore{items: map[int64]Material{}, inUse: map[int64]bool{}}
	return NewService(store, logger.Discard()), store
}

func TestService_CRUD(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	m, err := svc.Create(ctx, admin, Input{Name: " Base ", Unit: "KG", Quantity: decimal.NewFromInt(20), Threshold: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.Equal(t, "Base", m.Name)
	assert.Equal(t, UnitKg, m.Unit)

	got, err := svc.Get(ctx, worker, m.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(got.Quantity))

	up, err := svc.Update(ctx, admin, m.ID, Input{Name: "Base white", Unit: UnitKg, Quantity: decimal.NewFromInt(999), Threshold: decimal.NewFromInt(30)})
	require.NoError(t, err)
	assert.Equal(t, "Base white", up.Name)
	assert.True(t, decimal.NewFromInt(20).Equal(up.Quantity))

	low, err := svc.LowStock(ctx, worker)
	require.NoError(t, err)
	assert.Len(t, low, 1)

	store.inUse[m.ID] = true
	assert.ErrorIs(t, svc.Delete(ctx, admin, m.ID), errs.ErrInUse)
	store.inUse[m.ID] = false
	require.NoError(t, svc.Delete(ctx, admin, m.ID))

	_, err = svc.Get(ctx, worker, m.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = svc.Update(ctx, admin, m.ID, Input{Name: "x", Unit: UnitG})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestService_Rules(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, worker, Input{Name: "Base", Unit: UnitKg})
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = svc.Create(ctx, admin, Input{Name: "Base", Unit: "ton"})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = svc.Create(ctx, admin, Input{Name: "Base", Unit: UnitKg, Quantity: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	assert.ErrorIs(t, svc.Delete(ctx, worker, 1), errs.ErrForbidden)
}
