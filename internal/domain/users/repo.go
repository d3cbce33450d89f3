package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Spok95/factory-mix/internal/infra/db"
)

type Repo struct {
	db db.DBTX
}

func NewRepo(conn db.DBTX) *Repo { return &Repo{db: conn} }

const userColumns = `id, user_id, name, role, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.UserID, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByLogin matches the login pair used by the factory floor: the user code plus the display name.
func (r *Repo) GetByLogin(ctx context.Context, userID, name string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE user_id = $1 AND name = $2
	`, userID, name))
}
