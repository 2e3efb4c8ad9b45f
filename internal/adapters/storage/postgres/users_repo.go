package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"group-calendar/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	aliases, err := json.Marshal(u.Aliases)
	if err != nil {
		return err
	}
	_, err = q(ctx, r.db).ExecContext(ctx, `
		INSERT INTO users (id, display_name, default_timezone, dnd_window_start, dnd_window_end, aliases, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, u.ID, u.DisplayName, u.Timezone, u.DNDWindowStart, u.DNDWindowEnd, aliases, u.CreatedAt, u.UpdatedAt)
	return err
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	aliases, err := json.Marshal(u.Aliases)
	if err != nil {
		return err
	}
	res, err := q(ctx, r.db).ExecContext(ctx, `
		UPDATE users
		SET display_name = $2, default_timezone = $3, dnd_window_start = $4,
		    dnd_window_end = $5, aliases = $6, updated_at = $7
		WHERE id = $1
	`, u.ID, u.DisplayName, u.Timezone, u.DNDWindowStart, u.DNDWindowEnd, aliases, u.UpdatedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	row := q(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, display_name, default_timezone, dnd_window_start, dnd_window_end, aliases, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *UsersRepo) List(ctx context.Context) ([]users.User, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx, `
		SELECT id, display_name, default_timezone, dnd_window_start, dnd_window_end, aliases, created_at, updated_at
		FROM users
		ORDER BY display_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(row rowScanner) (users.User, error) {
	var u users.User
	var aliases []byte
	if err := row.Scan(&u.ID, &u.DisplayName, &u.Timezone, &u.DNDWindowStart, &u.DNDWindowEnd, &aliases, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}
	if len(aliases) > 0 {
		if err := json.Unmarshal(aliases, &u.Aliases); err != nil {
			return users.User{}, err
		}
	}
	return u, nil
}
