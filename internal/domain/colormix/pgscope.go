package colormix

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/factory-mix/internal/domain/errs"
	"github.com/Spok95/factory-mix/internal/domain/formulas"
	"github.com/Spok95/factory-mix/internal/domain/inventory"
	"github.com/Spok95/factory-mix/internal/domain/materials"
	"github.com/Spok95/factory-mix/internal/infra/db"
)

// PgScope runs each mix operation in one repeatable-read transaction.
type PgScope struct {
	pool *pgxpool.Pool
}

func NewPgScope(pool *pgxpool.Pool) *PgScope { return &PgScope{pool: pool} }

func (s *PgScope) Execute(ctx context.Context, fn func(Repos) error) error {
	err := db.InTx(ctx, s.pool, pgx.RepeatableRead, func(tx pgx.Tx) error {
		return fn(pgRepos{tx: tx})
	})
	if db.IsSerializationFailure(err) {
		return fmt.Errorf("%w: %v", errs.ErrConcurrencyConflict, err)
	}
	return err
}

type pgRepos struct{ tx pgx.Tx }

func (r pgRepos) Formulas() FormulaSource {
	return formulas.NewResolver(formulas.NewRepo(r.tx))
}
func (r pgRepos) Stock() StockStore      { return materials.NewRepo(r.tx) }
func (r pgRepos) Entries() EntryStore    { return NewEntryRepo(r.tx) }
func (r pgRepos) Movements() MovementLog { return inventory.NewRepo(r.tx) }

var _ TxScope = (*PgScope)(nil)
