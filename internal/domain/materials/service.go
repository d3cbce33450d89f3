package materials

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Spok95/factory-mix/internal/domain/errs"
	"github.com/Spok95/factory-mix/internal/domain/users"
)

type Store interface {
	Create(ctx context.Context, in Input) (*Material, error)
	GetByID(ctx context.Context, id int64) (*Material, error)
	List(ctx context.Context) ([]Material, error)
	ListLowStock(ctx context.Context) ([]Material, error)
	Update(ctx context.Context, id int64, in Input) (*Material, error)
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	store Store
	log   *slog.Logger
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

func (s *Service) Get(ctx context.Context, actor users.Actor, id int64) (*Material, error) {
	if err := users.RequireAny(actor, "read material"); err != nil {
		return nil, err
	}
	m, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("material %d: %w", id, errs.ErrNotFound)
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, actor users.Actor) ([]Material, error) {
	if err := users.RequireAny(actor, "list materials"); err != nil {
		return nil, err
	}
	return s.store.List(ctx)
}

func (s *Service) LowStock(ctx context.Context, actor users.Actor) ([]Material, error) {
	if err := users.RequireAny(actor, "list low stock"); err != nil {
		return nil, err
	}
	return s.store.ListLowStock(ctx)
}

func (s *Service) Create(ctx context.Context, actor users.Actor, in Input) (*Material, error) {
	if err := users.RequireAdmin(actor, "create material"); err != nil {
		return nil, err
	}
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	m, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create material: %w", err)
	}
	s.log.Info("material created", "material_id", m.ID, "name", m.Name, "actor_id", actor.ID)
	return m, nil
}

// Update changes the descriptive fields. Quantity is ignored; use restock or a stock count instead.
func (s *Service) Update(ctx context.Context, actor users.Actor, id int64, in Input) (*Material, error) {
	if err := users.RequireAdmin(actor, "update material"); err != nil {
		return nil, err
	}
	in.Quantity = decimal.Zero
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	m, err := s.store.Update(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("update material %d: %w", id, err)
	}
	if m == nil {
		return nil, fmt.Errorf("material %d: %w", id, errs.ErrNotFound)
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, actor users.Actor, id int64) error {
	if err := users.RequireAdmin(actor, "delete material"); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete material %d: %w", id, err)
	}
	s.log.Info("material deleted", "material_id", id, "actor_id", actor.ID)
	return nil
}
