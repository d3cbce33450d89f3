package colormix

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Spok95/factory-mix/internal/domain/errs"
	"github.com/Spok95/factory-mix/internal/domain/inventory"
	"github.com/Spok95/factory-mix/internal/domain/materials"
)

// Delta is the change in consumption of one material: new quantity minus old quantity.
// Stock moves by -Consumed.
type Delta struct {
	MaterialID int64
	Consumed   decimal.Decimal
}

// Change is a validated stock mutation.
type Change struct {
	Material materials.Material
	Consumed decimal.Decimal
	Before   decimal.Decimal
	After    decimal.Decimal
}

// Deltas nets prev against next per material. prev is nil on create, next is nil on delete.
// Materials whose consumption does not change are left out. The result is sorted by material id.
func Deltas(prev, next []Item) []Delta {
	net := make(map[int64]decimal.Decimal)
	for _, it := range next {
		net[it.MaterialID] = net[it.MaterialID].Add(it.Quantity)
	}
	for _, it := range prev {
		net[it.MaterialID] = net[it.MaterialID].Sub(it.Quantity)
	}

	out := make([]Delta, 0, len(net))
	for id, q := range net {
		if q.IsZero() {
			continue
		}
		out = append(out, Delta{MaterialID: id, Consumed: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MaterialID < out[j].MaterialID })
	return out
}

// Plan checks every delta against current stock before anything is written.
// Any material that would go negative fails the whole plan with *errs.InsufficientStockError.
func Plan(deltas []Delta, stock map[int64]materials.Material) ([]Change, error) {
	changes := make([]Change, 0, len(deltas))
	var shortages []errs.Shortage
	for _, d := range deltas {
		m, ok := stock[d.MaterialID]
		if !ok {
			return nil, fmt.Errorf("material %d: %w", d.MaterialID, errs.ErrNotFound)
		}
		after := m.Quantity.Sub(d.Consumed)
		if after.IsNegative() {
			shortages = append(shortages, errs.Shortage{
				MaterialID: m.ID,
				Name:       m.Name,
				Available:  m.Quantity,
				Shortfall:  after.Neg(),
			})
			continue
		}
		changes = append(changes, Change{Material: m, Consumed: d.Consumed, Before: m.Quantity, After: after})
	}
	if len(shortages) > 0 {
		return nil, &errs.InsufficientStockError{Shortages: shortages}
	}
	return changes, nil
}

type StockStore interface {
	GetMany(ctx context.Context, ids []int64) (map[int64]materials.Material, error)
	SetQuantity(ctx context.Context, id int64, expected, next decimal.Decimal) error
}

// Reconcile computes, validates and applies the stock deltas between prev and next.
// Writes are conditional on the quantities read, so a concurrent writer yields ErrConcurrencyConflict.
// It must run inside the same transaction as the entry write.
func Reconcile(ctx context.Context, stock StockStore, prev, next []Item) ([]Change, error) {
	deltas := Deltas(prev, next)
	if len(deltas) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(deltas))
	for _, d := range deltas {
		ids = append(ids, d.MaterialID)
	}
	current, err := stock.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load stock: %w", err)
	}
	changes, err := Plan(deltas, current)
	if err != nil {
		return nil, err
	}
	for i, c := range changes {
		if err := stock.SetQuantity(ctx, c.Material.ID, c.Before, c.After); err != nil {
			return nil, err
		}
		changes[i].Material.Quantity = c.After
	}
	return changes, nil
}

// Movements turns applied changes into ledger rows for entryID.
func Movements(changes []Change, actorID, entryID int64) []inventory.Movement {
	out := make([]inventory.Movement, 0, len(changes))
	for _, c := range changes {
		typ := inventory.MoveMixOut
		if c.Consumed.IsNegative() {
			typ = inventory.MoveMixRefund
		}
		id := entryID
		out = append(out, inventory.Movement{
			ActorID:    actorID,
			MaterialID: c.Material.ID,
			Qty:        c.Consumed.Neg(),
			Type:       typ,
			EntryID:    &id,
			Note:       fmt.Sprintf("color mix entry %d", entryID),
		})
	}
	return out
}
