package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"group-calendar/internal/domain/changerequests"
)

type ChangeRequestsRepo struct {
	db *sql.DB
}

func NewChangeRequestsRepo(db *sql.DB) *ChangeRequestsRepo {
	return &ChangeRequestsRepo{db: db}
}

func (r *ChangeRequestsRepo) Create(ctx context.Context, cr changerequests.ChangeRequest) error {
	payload, err := json.Marshal(cr.Payload)
	if err != nil {
		return err
	}
	_, err = q(ctx, r.db).ExecContext(ctx, `
		INSERT INTO change_requests (id, event_id, requester_id, request_type, payload, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, cr.ID, cr.EventID, cr.RequesterID, string(cr.Type), payload, string(cr.Status), cr.CreatedAt)
	return err
}

func (r *ChangeRequestsRepo) GetByID(ctx context.Context, id string) (changerequests.ChangeRequest, error) {
	row := q(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, event_id, requester_id, request_type, payload, status, created_at
		FROM change_requests
		WHERE id = $1
	`, id)
	return scanChangeRequest(row)
}

func (r *ChangeRequestsRepo) Update(ctx context.Context, cr changerequests.ChangeRequest) error {
	res, err := q(ctx, r.db).ExecContext(ctx, `
		UPDATE change_requests SET status = $2 WHERE id = $1
	`, cr.ID, string(cr.Status))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return changerequests.ErrNotFound
	}
	return nil
}

func (r *ChangeRequestsRepo) List(ctx context.Context, filter changerequests.ListFilter) ([]changerequests.ChangeRequest, error) {
	sb := strings.Builder{}
	sb.WriteString(`
		SELECT id, event_id, requester_id, request_type, payload, status, created_at
		FROM change_requests
		WHERE 1=1
	`)
	args := []any{}
	argN := 1

	if filter.EventID != "" {
		sb.WriteString(fmt.Sprintf(" AND event_id = $%d", argN))
		args = append(args, filter.EventID)
		argN++
	}
	if filter.Status != "" {
		sb.WriteString(fmt.Sprintf(" AND status = $%d", argN))
		args = append(args, string(filter.Status))
		argN++
	}
	sb.WriteString(" ORDER BY created_at DESC")

	rows, err := q(ctx, r.db).QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]changerequests.ChangeRequest, 0)
	for rows.Next() {
		cr, err := scanChangeRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

func scanChangeRequest(row rowScanner) (changerequests.ChangeRequest, error) {
	var cr changerequests.ChangeRequest
	var typ, status string
	var payload []byte

	if err := row.Scan(&cr.ID, &cr.EventID, &cr.RequesterID, &typ, &payload, &status, &cr.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return changerequests.ChangeRequest{}, changerequests.ErrNotFound
		}
		return changerequests.ChangeRequest{}, err
	}
	cr.Type = changerequests.Type(typ)
	cr.Status = changerequests.Status(status)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &cr.Payload); err != nil {
			return changerequests.ChangeRequest{}, err
		}
	}
	return cr, nil
}
