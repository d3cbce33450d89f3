package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Spok95/factory-mix/internal/domain/errs"
	"github.com/Spok95/factory-mix/internal/domain/materials"
	"github.com/Spok95/factory-mix/internal/domain/users"
	"github.com/Spok95/factory-mix/internal/infra/db"
)

// Service covers the manual stock operations: restock and physical counts.
type Service struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewService(pool *pgxpool.Pool, log *slog.Logger) *Service {
	return &Service{pool: pool, log: log}
}

// Receive adds qty to a material and logs an "in" movement.
func (s *Service) Receive(ctx context.Context, actor users.Actor, materialID int64, qty decimal.Decimal, note string) (*materials.Material, error) {
	if err := users.RequireAdmin(actor, "receive stock"); err != nil {
		return nil, err
	}
	if !qty.IsPositive() {
		return nil, errs.Invalid("qty must be > 0")
	}
	if !materials.FitsScale(qty) {
		return nil, errs.Invalid("qty allows at most %d decimal places", materials.QuantityScale)
	}

	var out *materials.Material
	err := db.InTx(ctx, s.pool, pgx.ReadCommitted, func(tx pgx.Tx) error {
		mats := materials.NewRepo(tx)
		if _, err := mats.AddQuantity(ctx, materialID, qty); err != nil {
			return err
		}
		if err := NewRepo(tx).Record(ctx, Movement{
			ActorID: actor.ID, MaterialID: materialID, Qty: qty, Type: MoveIn, Note: note,
		}); err != nil {
			return err
		}
		m, err := mats.GetByID(ctx, materialID)
		out = m
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("receive material %d: %w", materialID, err)
	}
	s.log.Info("stock received", "material_id", materialID, "qty", qty.String(), "actor_id", actor.ID)
	return out, nil
}

// ApplyCounts sets every counted material to its counted quantity in one transaction.
// Unknown ids abort the whole import.
func (s *Service) ApplyCounts(ctx context.Context, actor users.Actor, counts []Count, note string) (int, error) {
	if err := users.RequireAdmin(actor, "import stock count"); err != nil {
		return 0, err
	}
	ids := make([]int64, 0, len(counts))
	for _, c := range counts {
		if c.Counted.IsNegative() {
			return 0, errs.Invalid("material %d: counted quantity must not be negative", c.MaterialID)
		}
		if !materials.FitsScale(c.Counted) {
			return 0, errs.Invalid("material %d: counted quantity allows at most %d decimal places", c.MaterialID, materials.QuantityScale)
		}
		ids = append(ids, c.MaterialID)
	}

	changed := 0
	err := db.InTx(ctx, s.pool, pgx.RepeatableRead, func(tx pgx.Tx) error {
		mats := materials.NewRepo(tx)
		moves := NewRepo(tx)

		current, err := mats.GetMany(ctx, ids)
		if err != nil {
			return err
		}
		for _, c := range counts {
			m, ok := current[c.MaterialID]
			if !ok {
				return fmt.Errorf("material %d: %w", c.MaterialID, errs.ErrNotFound)
			}
			delta := c.Counted.Sub(m.Quantity)
			if delta.IsZero() {
				continue
			}
			if err := mats.SetQuantity(ctx, m.ID, m.Quantity, c.Counted); err != nil {
				return err
			}
			if err := moves.Record(ctx, Movement{
				ActorID: actor.ID, MaterialID: m.ID, Qty: delta, Type: MoveAdjust, Note: note,
			}); err != nil {
				return err
			}
			m.Quantity = c.Counted
			current[m.ID] = m
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("apply stock count: %w", err)
	}
	s.log.Info("stock count applied", "rows", len(counts), "changed", changed, "actor_id", actor.ID)
	return changed, nil
}

func (s *Service) Movements(ctx context.Context, actor users.Actor, materialID int64, limit int) ([]Movement, error) {
	if err := users.RequireAny(actor, "list movements"); err != nil {
		return nil, err
	}
	return NewRepo(s.pool).ListByMaterial(ctx, materialID, limit)
}
