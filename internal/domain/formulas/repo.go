package formulas

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

const formulaColumns = `id, name, description, formula, color_weight, created_by, created_at, updated_at`

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Ratios, &r.ColorWeight, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (r *Repo) GetRecord(ctx context.Context, id int64) (*Record, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx, `SELECT `+formulaColumns+` FROM color_mix_formulas WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *Repo) ListRecords(ctx context.Context) ([]Record, error) {
	rows, err := r.db.Query(ctx, `SELECT `+formulaColumns+` FROM color_mix_formulas ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, name, description, ratios string, colorWeight decimal.Decimal, createdBy int64) (*Record, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx, `
		INSERT INTO color_mix_formulas (name, description, formula, color_weight, created_by)
		VALUES ($1,$2,$3,$4,NULLIF($5,0))
		RETURNING `+formulaColumns,
		name, description, ratios, colorWeight, createdBy))
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *Repo) Update(ctx context.Context, id int64, name, description, ratios string, colorWeight decimal.Decimal) (*Record, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx, `
		UPDATE color_mix_formulas
		SET name=$2, description=$3, formula=$4, color_weight=$5, updated_at=now()
		WHERE id=$1
		RETURNING `+formulaColumns,
		id, name, description, ratios, colorWeight))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM color_mix_formulas WHERE id=$1`, id)
	if err != nil {
		if errs.IsForeignKeyViolation(err) {
			return fmt.Errorf("formula %d has mix entries: %w", id, errs.ErrInUse)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("formula %d: %w", id, errs.ErrNotFound)
	}
	return nil
}
