package materials

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/Spok95/factory-mix/internal/domain/errs"
	"github.com/Spok95/factory-mix/internal/infra/db"
)

type Repo struct{ db db.DBTX }

func NewRepo(conn db.DBTX) *Repo { return &Repo{db: conn} }

const materialColumns = `id, name, quantity, unit, threshold, description, created_at, updated_at`

func scanMaterial(row pgx.Row) (Material, error) {
	var m Material
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Quantity,
		&m.Unit,
		&m.Threshold,
		&m.Description,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

func (r *Repo) Create(ctx context.Context, in Input) (*Material, error) {
	m, err := scanMaterial(r.db.QueryRow(ctx, `
		INSERT INTO materials (name, quantity, unit, threshold, description)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING `+materialColumns,
		in.Name, in.Quantity, string(in.Unit), in.Threshold, in.Description))
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Material, error) {
	m, err := scanMaterial(r.db.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *Repo) list(ctx context.Context, q string, args ...any) ([]Material, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) List(ctx context.Context) ([]Material, error) {
	return r.list(ctx, `SELECT `+materialColumns+` FROM materials ORDER BY name, id`)
}

// ListLowStock returns materials whose quantity is at or below the threshold.
func (r *Repo) ListLowStock(ctx context.Context) ([]Material, error) {
	return r.list(ctx, `
		SELECT `+materialColumns+`
		FROM materials
		WHERE quantity <= threshold
		ORDER BY quantity - threshold, name
	`)
}

// GetMany returns the requested materials keyed by id. Missing ids are simply absent.
func (r *Repo) GetMany(ctx context.Context, ids []int64) (map[int64]Material, error) {
	list, err := r.list(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]Material, len(list))
	for _, m := range list {
		out[m.ID] = m
	}
	return out, nil
}

func (r *Repo) Update(ctx context.Context, id int64, in Input) (*Material, error) {
	m, err := scanMaterial(r.db.QueryRow(ctx, `
		UPDATE materials
		SET name=$2, unit=$3, threshold=$4, description=$5, updated_at=now()
		WHERE id=$1
		RETURNING `+materialColumns,
		id, in.Name, string(in.Unit), in.Threshold, in.Description))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// SetQuantity writes next only if the stored quantity still equals expected.
func (r *Repo) SetQuantity(ctx context.Context, id int64, expected, next decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE materials SET quantity=$3, updated_at=now()
		WHERE id=$1 AND quantity=$2
	`, id, expected, next)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("material %d: %w", id, errs.ErrConcurrencyConflict)
	}
	return nil
}

// AddQuantity applies delta in a single statement and returns the new quantity.
// The table CHECK rejects results below zero.
func (r *Repo) AddQuantity(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	var q decimal.Decimal
	err := r.db.QueryRow(ctx, `
		UPDATE materials SET quantity = quantity + $2, updated_at=now()
		WHERE id=$1
		RETURNING quantity
	`, id, delta).Scan(&q)
	if errors.Is(err, pgx.ErrNoRows) {
		return q, fmt.Errorf("material %d: %w", id, errs.ErrNotFound)
	}
	return q, err
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM materials WHERE id=$1`, id)
	if err != nil {
		if errs.IsForeignKeyViolation(err) {
			return fmt.Errorf("material %d is used by a color mix entry: %w", id, errs.ErrInUse)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("material %d: %w", id, errs.ErrNotFound)
	}
	return nil
}
