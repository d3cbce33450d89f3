package colormix

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Spok95/factory-mix/internal/domain/errs"
	"github.com/Spok95/factory-mix/internal/infra/db"
)

// EntryRepo stores entries in color_mix_entries and their items, one row per pair, in color_mix_entry_materials.
type EntryRepo struct{ db db.DBTX }

func NewEntryRepo(conn db.DBTX) *EntryRepo { return &EntryRepo{db: conn} }

const entrySelect = `
	SELECT e.id, e.formula_id, COALESCE(f.name,''), e.color_requirement, COALESCE(e.created_by,0), e.created_at, e.updated_at
	FROM color_mix_entries e
	LEFT JOIN color_mix_formulas f ON f.id = e.formula_id
`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.FormulaID, &e.FormulaName, &e.ColorRequirement, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func (r *EntryRepo) Get(ctx context.Context, id int64) (*Entry, error) {
	e, err := scanEntry(r.db.QueryRow(ctx, entrySelect+` WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	items, err := r.items(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	e.Materials = items[id]
	return &e, nil
}

func (r *EntryRepo) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.Query(ctx, entrySelect+` ORDER BY e.created_at DESC, e.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	var ids []int64
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Materials = items[out[i].ID]
	}
	return out, nil
}

func (r *EntryRepo) items(ctx context.Context, entryIDs []int64) (map[int64][]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT entry_id, material_id, quantity
		FROM color_mix_entry_materials
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, position
	`, entryIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]Item, len(entryIDs))
	for rows.Next() {
		var entryID int64
		var it Item
		if err := rows.Scan(&entryID, &it.MaterialID, &it.Quantity); err != nil {
			return nil, err
		}
		out[entryID] = append(out[entryID], it)
	}
	return out, rows.Err()
}

func (r *EntryRepo) writeItems(ctx context.Context, entryID int64, items []Item) error {
	for pos, it := range items {
		if _, err := r.db.Exec(ctx, `
			INSERT INTO color_mix_entry_materials (entry_id, position, material_id, quantity)
			VALUES ($1,$2,$3,$4)
		`, entryID, pos, it.MaterialID, it.Quantity); err != nil {
			if errs.IsForeignKeyViolation(err) {
				return fmt.Errorf("material %d: %w", it.MaterialID, errs.ErrNotFound)
			}
			return err
		}
	}
	return nil
}

// Insert sets e.ID and the timestamps.
func (r *EntryRepo) Insert(ctx context.Context, e *Entry) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO color_mix_entries (formula_id, color_requirement, created_by)
		VALUES ($1,$2,NULLIF($3,0))
		RETURNING id, created_at, updated_at
	`, e.FormulaID, e.ColorRequirement, e.CreatedBy).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return err
	}
	return r.writeItems(ctx, e.ID, e.Materials)
}

// Update replaces the formula, the color requirement and the whole item list.
func (r *EntryRepo) Update(ctx context.Context, e *Entry) error {
	err := r.db.QueryRow(ctx, `
		UPDATE color_mix_entries
		SET formula_id=$2, color_requirement=$3, updated_at=now()
		WHERE id=$1
		RETURNING created_at, updated_at, COALESCE(created_by,0)
	`, e.ID, e.FormulaID, e.ColorRequirement).Scan(&e.CreatedAt, &e.UpdatedAt, &e.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("entry %d: %w", e.ID, errs.ErrNotFound)
		}
		return err
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM color_mix_entry_materials WHERE entry_id=$1`, e.ID); err != nil {
		return err
	}
	return r.writeItems(ctx, e.ID, e.Materials)
}

func (r *EntryRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM color_mix_entries WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entry %d: %w", id, errs.ErrNotFound)
	}
	return nil
}
