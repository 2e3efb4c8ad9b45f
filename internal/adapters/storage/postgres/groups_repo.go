package postgres

import (
	"context"
	"database/sql"

	"group-calendar/internal/domain/groups"
)

type GroupsRepo struct {
	db *sql.DB
}

func NewGroupsRepo(db *sql.DB) *GroupsRepo {
	return &GroupsRepo{db: db}
}

func (r *GroupsRepo) Create(ctx context.Context, g groups.Group) error {
	_, err := q(ctx, r.db).ExecContext(ctx, `
		INSERT INTO groups (id, name, created_by, created_at)
		VALUES ($1,$2,$3,$4)
	`, g.ID, g.Name, g.CreatedBy, g.CreatedAt)
	return err
}

func (r *GroupsRepo) GetByID(ctx context.Context, id string) (groups.Group, error) {
	var g groups.Group
	err := q(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, name, created_by, created_at FROM groups WHERE id = $1
	`, id).Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return groups.Group{}, groups.ErrNotFound
	}
	return g, err
}

func (r *GroupsRepo) List(ctx context.Context) ([]groups.Group, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx, `
		SELECT id, name, created_by, created_at FROM groups ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]groups.Group, 0)
	for rows.Next() {
		var g groups.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// AddMember es idempotente: repetir la alta solo actualiza el rol.
func (r *GroupsRepo) AddMember(ctx context.Context, m groups.Member) error {
	_, err := q(ctx, r.db).ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id, role, joined_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (group_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`, m.GroupID, m.UserID, string(m.Role), m.JoinedAt)
	return err
}

func (r *GroupsRepo) RemoveMember(ctx context.Context, groupID, userID string) error {
	res, err := q(ctx, r.db).ExecContext(ctx, `
		DELETE FROM group_members WHERE group_id = $1 AND user_id = $2
	`, groupID, userID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return groups.ErrNotFound
	}
	return nil
}

func (r *GroupsRepo) ListMembers(ctx context.Context, groupID string) ([]groups.Member, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx, `
		SELECT group_id, user_id, role, joined_at
		FROM group_members
		WHERE group_id = $1
		ORDER BY joined_at
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]groups.Member, 0)
	for rows.Next() {
		var m groups.Member
		var role string
		if err := rows.Scan(&m.GroupID, &m.UserID, &role, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.Role = groups.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}
