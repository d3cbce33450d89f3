package formulas

import (
	"context"
	"fmt"

	"github.com/Spok95/factory-mix/internal/domain/errs"
)

// RecordSource loads stored formula rows. Repo implements it.
type RecordSource interface {
	GetRecord(ctx context.Context, id int64) (*Record, error)
}

// Resolver turns stored rows into validated formulas. It has no side effects.
type Resolver struct {
	src RecordSource
}

func NewResolver(src RecordSource) *Resolver { return &Resolver{src: src} }

func (r *Resolver) Resolve(ctx context.Context, id int64) (*Formula, error) {
	rec, err := r.src.GetRecord(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load formula %d: %w", id, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("formula %d: %w", id, errs.ErrNotFound)
	}
	f, err := FromRecord(*rec)
	if err != nil {
		return nil, fmt.Errorf("formula %d: %w", id, err)
	}
	return f, nil
}

// FromRecord parses the stored mapping and checks the reference color weight.
func FromRecord(rec Record) (*Formula, error) {
	ratios, err := ParseRatios(rec.Ratios)
	if err != nil {
		return nil, err
	}
	if !rec.ColorWeight.IsPositive() {
		return nil, errs.InvalidFormula("reference color weight must be positive")
	}
	return &Formula{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		Ratios:      ratios,
		ColorWeight: rec.ColorWeight,
		CreatedBy:   rec.CreatedBy,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}, nil
}
