package formulas

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Spok95/factory-mix/internal/domain/errs"
	"github.com/Spok95/factory-mix/internal/domain/materials"
	"github.com/Spok95/factory-mix/internal/domain/users"
)

type Store interface {
	RecordSource
	ListRecords(ctx context.Context) ([]Record, error)
	Create(ctx context.Context, name, description, ratios string, colorWeight decimal.Decimal, createdBy int64) (*Record, error)
	Update(ctx context.Context, id int64, name, description, ratios string, colorWeight decimal.Decimal) (*Record, error)
	Delete(ctx context.Context, id int64) error
}

type MaterialLookup interface {
	GetMany(ctx context.Context, ids []int64) (map[int64]materials.Material, error)
}

// Service is the admin-facing formula CRUD. Reads go through the Resolver so malformed rows surface as errors.
type Service struct {
	store     Store
	materials MaterialLookup
	resolver  *Resolver
	log       *slog.Logger
}

func NewService(store Store, mats MaterialLookup, log *slog.Logger) *Service {
	return &Service{store: store, materials: mats, resolver: NewResolver(store), log: log}
}

func (s *Service) Get(ctx context.Context, actor users.Actor, id int64) (*Formula, error) {
	if err := users.RequireAny(actor, "read formula"); err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, id)
}

// List skips nothing: a malformed stored formula fails the whole listing with ErrInvalidFormula.
func (s *Service) List(ctx context.Context, actor users.Actor) ([]Formula, error) {
	if err := users.RequireAny(actor, "list formulas"); err != nil {
		return nil, err
	}
	recs, err := s.store.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Formula, 0, len(recs))
	for _, rec := range recs {
		f, err := FromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("formula %d: %w", rec.ID, err)
		}
		out = append(out, *f)
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, actor users.Actor, in Input) (*Formula, error) {
	if err := users.RequireAdmin(actor, "create formula"); err != nil {
		return nil, err
	}
	raw, err := s.prepare(ctx, &in)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.Create(ctx, in.Name, in.Description, raw, in.ColorWeight, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("create formula: %w", err)
	}
	s.log.Info("formula created", "formula_id", rec.ID, "actor_id", actor.ID)
	return FromRecord(*rec)
}

func (s *Service) Update(ctx context.Context, actor users.Actor, id int64, in Input) (*Formula, error) {
	if err := users.RequireAdmin(actor, "update formula"); err != nil {
		return nil, err
	}
	raw, err := s.prepare(ctx, &in)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.Update(ctx, id, in.Name, in.Description, raw, in.ColorWeight)
	if err != nil {
		return nil, fmt.Errorf("update formula %d: %w", id, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("formula %d: %w", id, errs.ErrNotFound)
	}
	s.log.Info("formula updated", "formula_id", id, "actor_id", actor.ID)
	return FromRecord(*rec)
}

func (s *Service) Delete(ctx context.Context, actor users.Actor, id int64) error {
	if err := users.RequireAdmin(actor, "delete formula"); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("formula deleted", "formula_id", id, "actor_id", actor.ID)
	return nil
}

func (s *Service) prepare(ctx context.Context, in *Input) (string, error) {
	if err := in.Normalize(); err != nil {
		return "", err
	}
	ids := make([]int64, 0, len(in.Ratios))
	for _, r := range in.Ratios {
		ids = append(ids, r.MaterialID)
	}
	found, err := s.materials.GetMany(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("load materials: %w", err)
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return "", fmt.Errorf("material %d: %w", id, errs.ErrNotFound)
		}
	}
	return EncodeRatios(in.Ratios)
}
