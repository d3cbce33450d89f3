package inventory

import (
	"context"

	"github.com/Spok95/factory-mix/internal/infra/db"
)

type Repo struct{ db db.DBTX }

func NewRepo(conn db.DBTX) *Repo { return &Repo{db: conn} }

func (r *Repo) Record(ctx context.Context, moves ...Movement) error {
	for _, m := range moves {
		if _, err := r.db.Exec(ctx, `
			INSERT INTO movements (actor_id, material_id, qty, type, entry_id, note)
			VALUES (NULLIF($1,0),$2,$3,$4,$5,$6)
		`, m.ActorID, m.MaterialID, m.Qty, string(m.Type), m.EntryID, m.Note); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) ListByMaterial(ctx context.Context, materialID int64, limit int) ([]Movement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, created_at, COALESCE(actor_id,0), material_id, qty, type, entry_id, note
		FROM movements
		WHERE material_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, materialID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.CreatedAt, &m.ActorID, &m.MaterialID, &m.Qty, &m.Type, &m.EntryID, &m.Note); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
