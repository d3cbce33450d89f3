package colormix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/Spok95/factory-mix/internal/domain/errs"
	"github.com/Spok95/factory-mix/internal/domain/formulas"
	"github.com/Spok95/factory-mix/internal/domain/inventory"
	"github.com/Spok95/factory-mix/internal/domain/materials"
	"github.com/Spok95/factory-mix/internal/domain/users"
	"github.com/Spok95/factory-mix/internal/infra/metrics"
)

type FormulaSource interface {
	Resolve(ctx context.Context, id int64) (*formulas.Formula, error)
}

type EntryStore interface {
	Get(ctx context.Context, id int64) (*Entry, error)
	List(ctx context.Context) ([]Entry, error)
	Insert(ctx context.Context, e *Entry) error
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id int64) error
}

type MovementLog interface {
	Record(ctx context.Context, moves ...inventory.Movement) error
}

// Repos are the stores bound to one transaction.
type Repos interface {
	Formulas() FormulaSource
	Stock() StockStore
	Entries() EntryStore
	Movements() MovementLog
}

// TxScope commits when fn returns nil and rolls everything back otherwise.
type TxScope interface {
	Execute(ctx context.Context, fn func(Repos) error) error
}

// LowStockNotifier is told about materials left at or below their threshold after a committed change.
type LowStockNotifier interface {
	LowStock(ctx context.Context, mats []materials.Material)
}

type Service struct {
	scope    TxScope
	notifier LowStockNotifier
	retries  uint64
	backoff  time.Duration
	log      *slog.Logger
}

func NewService(scope TxScope, notifier LowStockNotifier, conflictRetries uint64, log *slog.Logger) *Service {
	return &Service{scope: scope, notifier: notifier, retries: conflictRetries, backoff: 20 * time.Millisecond, log: log}
}

func (s *Service) Get(ctx context.Context, actor users.Actor, id int64) (*Entry, error) {
	if err := users.RequireAny(actor, "read mix entry"); err != nil {
		return nil, err
	}
	var out *Entry
	err := s.scope.Execute(ctx, func(r Repos) error {
		e, err := r.Entries().Get(ctx, id)
		if err != nil {
			return err
		}
		if e == nil {
			return fmt.Errorf("entry %d: %w", id, errs.ErrNotFound)
		}
		// a broken formula must not hide the entry itself
		if f, err := r.Formulas().Resolve(ctx, e.FormulaID); err == nil {
			e.SuggestedColor = suggestNullable(f, e.Materials)
		}
		out = e
		return nil
	})
	return out, err
}

func (s *Service) List(ctx context.Context, actor users.Actor) ([]Entry, error) {
	if err := users.RequireAny(actor, "list mix entries"); err != nil {
		return nil, err
	}
	var out []Entry
	err := s.scope.Execute(ctx, func(r Repos) error {
		list, err := r.Entries().List(ctx)
		out = list
		return err
	})
	return out, err
}

// Suggest resolves the formula and runs the calculator. A missing suggestion is a null value, not an error.
func (s *Service) Suggest(ctx context.Context, actor users.Actor, formulaID int64, entered []Entered) (decimal.NullDecimal, error) {
	if err := users.RequireAny(actor, "suggest color"); err != nil {
		return decimal.NullDecimal{}, err
	}
	var out decimal.NullDecimal
	err := s.scope.Execute(ctx, func(r Repos) error {
		f, err := r.Formulas().Resolve(ctx, formulaID)
		if err != nil {
			return err
		}
		if v, ok := SuggestColor(f, entered); ok {
			out = decimal.NewNullDecimal(v)
		}
		return nil
	})
	return out, err
}

func (s *Service) Create(ctx context.Context, actor users.Actor, in Input) (*Entry, error) {
	if err := users.RequireAny(actor, "create mix entry"); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var out *Entry
	var changes []Change
	err := s.mutate(ctx, "create", func(r Repos) error {
		f, err := r.Formulas().Resolve(ctx, in.FormulaID)
		if err != nil {
			return err
		}
		changes, err = Reconcile(ctx, r.Stock(), nil, in.Materials)
		if err != nil {
			return err
		}
		e := &Entry{
			FormulaID:        f.ID,
			FormulaName:      f.Name,
			Materials:        in.Materials,
			ColorRequirement: in.ColorRequirement,
			CreatedBy:        actor.ID,
		}
		if err := r.Entries().Insert(ctx, e); err != nil {
			return err
		}
		if err := r.Movements().Record(ctx, Movements(changes, actor.ID, e.ID)...); err != nil {
			return err
		}
		e.SuggestedColor = suggestNullable(f, e.Materials)
		out = e
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create mix entry: %w", err)
	}
	s.log.Info("mix entry created", "entry_id", out.ID, "formula_id", out.FormulaID, "actor_id", actor.ID, "materials", len(changes))
	s.notifyLow(ctx, changes)
	return out, nil
}

func (s *Service) Update(ctx context.Context, actor users.Actor, id int64, in Input) (*Entry, error) {
	if err := users.RequireAny(actor, "update mix entry"); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var out *Entry
	var changes []Change
	err := s.mutate(ctx, "update", func(r Repos) error {
		old, err := r.Entries().Get(ctx, id)
		if err != nil {
			return err
		}
		if old == nil {
			return fmt.Errorf("entry %d: %w", id, errs.ErrNotFound)
		}
		f, err := r.Formulas().Resolve(ctx, in.FormulaID)
		if err != nil {
			return err
		}
		changes, err = Reconcile(ctx, r.Stock(), old.Materials, in.Materials)
		if err != nil {
			return err
		}
		e := &Entry{
			ID:               id,
			FormulaID:        f.ID,
			FormulaName:      f.Name,
			Materials:        in.Materials,
			ColorRequirement: in.ColorRequirement,
		}
		if err := r.Entries().Update(ctx, e); err != nil {
			return err
		}
		if err := r.Movements().Record(ctx, Movements(changes, actor.ID, id)...); err != nil {
			return err
		}
		e.SuggestedColor = suggestNullable(f, e.Materials)
		out = e
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update mix entry %d: %w", id, err)
	}
	s.log.Info("mix entry updated", "entry_id", id, "actor_id", actor.ID, "materials", len(changes))
	s.notifyLow(ctx, changes)
	return out, nil
}

// Delete refunds every material of the entry and removes it.
func (s *Service) Delete(ctx context.Context, actor users.Actor, id int64) error {
	if err := users.RequireAdmin(actor, "delete mix entry"); err != nil {
		return err
	}

	var changes []Change
	err := s.mutate(ctx, "delete", func(r Repos) error {
		old, err := r.Entries().Get(ctx, id)
		if err != nil {
			return err
		}
		if old == nil {
			return fmt.Errorf("entry %d: %w", id, errs.ErrNotFound)
		}
		changes, err = Reconcile(ctx, r.Stock(), old.Materials, nil)
		if err != nil {
			return err
		}
		if err := r.Entries().Delete(ctx, id); err != nil {
			return err
		}
		return r.Movements().Record(ctx, Movements(changes, actor.ID, id)...)
	})
	if err != nil {
		return fmt.Errorf("delete mix entry %d: %w", id, err)
	}
	s.log.Info("mix entry deleted", "entry_id", id, "actor_id", actor.ID, "materials", len(changes))
	return nil
}

// mutate runs fn in a transaction and retries it from scratch when stock was changed underneath.
func (s *Service) mutate(ctx context.Context, op string, fn func(Repos) error) error {
	backoff := retry.WithMaxRetries(s.retries, retry.NewConstant(s.backoff))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := s.scope.Execute(ctx, fn)
		if errors.Is(err, errs.ErrConcurrencyConflict) {
			metrics.ConflictRetries.Inc()
			s.log.Info("stock conflict", "op", op, "attempt", attempt, "err", err)
			return retry.RetryableError(err)
		}
		return err
	})

	var shortage *errs.InsufficientStockError
	switch {
	case err == nil:
		metrics.MixOperations.WithLabelValues(op, "ok").Inc()
	case errors.As(err, &shortage):
		metrics.MixOperations.WithLabelValues(op, "insufficient_stock").Inc()
		metrics.StockShortages.Inc()
		s.log.Warn("insufficient stock", "op", op, "err", err)
	case errors.Is(err, errs.ErrConcurrencyConflict):
		metrics.MixOperations.WithLabelValues(op, "conflict").Inc()
	default:
		metrics.MixOperations.WithLabelValues(op, "error").Inc()
	}
	return err
}

func (s *Service) notifyLow(ctx context.Context, changes []Change) {
	if s.notifier == nil {
		return
	}
	var low []materials.Material
	for _, c := range changes {
		if c.Material.LowStock() {
			low = append(low, c.Material)
		}
	}
	if len(low) > 0 {
		s.notifier.LowStock(ctx, low)
	}
}
