package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"group-calendar/internal/domain/events"
)

type EventsRepo struct {
	db *sql.DB
}

func NewEventsRepo(db *sql.DB) *EventsRepo {
	return &EventsRepo{db: db}
}

func (r *EventsRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, fn)
}

const eventColumns = `
	id, group_id, title, start_time_utc, end_time_utc, organizer_id,
	status, constraint_level, event_type, location_type, location_text,
	cancelled_at, cancelled_by, cancel_reason,
	version, created_at, updated_at
`

func (r *EventsRepo) CreateEvent(ctx context.Context, e events.Event) error {
	_, err := q(ctx, r.db).ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		e.ID,
		e.GroupID,
		e.Title,
		e.StartUTC,
		e.EndUTC,
		e.OrganizerID,
		string(e.Status),
		string(e.ConstraintLevel),
		string(e.Type),
		string(e.LocationType),
		e.LocationText,
		e.CancelledAt,
		e.CancelledBy,
		e.CancelReason,
		e.Version,
		e.CreatedAt,
		e.UpdatedAt,
	)
	return err
}

func (r *EventsRepo) GetEvent(ctx context.Context, id string) (events.Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return events.Event{}, events.ErrNotFound
	}

	row := q(ctx, r.db).QueryRowContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE id = $1
	`, id)

	return scanEvent(row)
}

// UpdateEvent escribe la fila solo si sigue en expectedVersion; el
// guard WHERE cubre la carrera contra otro writer concurrente.
func (r *EventsRepo) UpdateEvent(ctx context.Context, e events.Event, expectedVersion int) error {
	res, err := q(ctx, r.db).ExecContext(ctx, `
		UPDATE events SET
			title = $3,
			start_time_utc = $4,
			end_time_utc = $5,
			status = $6,
			constraint_level = $7,
			event_type = $8,
			location_type = $9,
			location_text = $10,
			cancelled_at = $11,
			cancelled_by = $12,
			cancel_reason = $13,
			version = $14,
			updated_at = $15
		WHERE id = $1 AND version = $2
	`,
		e.ID,
		expectedVersion,
		e.Title,
		e.StartUTC,
		e.EndUTC,
		string(e.Status),
		string(e.ConstraintLevel),
		string(e.Type),
		string(e.LocationType),
		e.LocationText,
		e.CancelledAt,
		e.CancelledBy,
		e.CancelReason,
		e.Version,
		e.UpdatedAt,
	)
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		// Fila ausente o versión movida debajo nuestro.
		var exists bool
		if err := q(ctx, r.db).QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, e.ID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return events.ErrNotFound
		}
		return events.ErrVersionConflict
	}
	return nil
}

func (r *EventsRepo) ListEvents(ctx context.Context, filter events.ListFilter) ([]events.Event, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT ` + eventColumns + ` FROM events WHERE 1=1`)

	args := []any{}
	argN := 1

	if filter.GroupID != "" {
		sb.WriteString(fmt.Sprintf(" AND group_id = $%d", argN))
		args = append(args, filter.GroupID)
		argN++
	}
	if !filter.IncludeCancelled {
		sb.WriteString(fmt.Sprintf(" AND status <> $%d", argN))
		args = append(args, string(events.StatusCancelled))
		argN++
	}
	if filter.StartAfter != nil {
		sb.WriteString(fmt.Sprintf(" AND start_time_utc >= $%d", argN))
		args = append(args, *filter.StartAfter)
		argN++
	}
	if filter.StartBefore != nil {
		sb.WriteString(fmt.Sprintf(" AND start_time_utc <= $%d", argN))
		args = append(args, *filter.StartBefore)
		argN++
	}

	sb.WriteString(" ORDER BY start_time_utc")

	return r.queryEvents(ctx, sb.String(), args...)
}

func (r *EventsRepo) ListOverlappingHard(ctx context.Context, userID string, startUTC, endUTC time.Time, excludeEventID string) ([]events.Event, error) {
	sb := strings.Builder{}
	sb.WriteString(`
		SELECT ` + eventColumns + `
		FROM events e
		JOIN event_attendees a ON a.event_id = e.id
		WHERE a.user_id = $1
		  AND e.status <> 'Cancelled'
		  AND e.constraint_level = 'Hard'
		  AND e.start_time_utc < $2
		  AND e.end_time_utc > $3
	`)
	args := []any{userID, endUTC, startUTC}
	if excludeEventID != "" {
		sb.WriteString(" AND e.id <> $4")
		args = append(args, excludeEventID)
	}
	sb.WriteString(" ORDER BY e.start_time_utc")

	return r.queryEvents(ctx, sb.String(), args...)
}

func (r *EventsRepo) ListForUserInRange(ctx context.Context, userID string, startUTC, endUTC time.Time) ([]events.Event, error) {
	return r.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM events e
		JOIN event_attendees a ON a.event_id = e.id
		WHERE a.user_id = $1
		  AND e.status <> 'Cancelled'
		  AND e.start_time_utc < $2
		  AND e.end_time_utc > $3
		ORDER BY e.start_time_utc
	`, userID, endUTC, startUTC)
}

func (r *EventsRepo) CreateAttendees(ctx context.Context, atts []events.Attendee) error {
	for _, a := range atts {
		if _, err := q(ctx, r.db).ExecContext(ctx, `
			INSERT INTO event_attendees (event_id, user_id, rsvp_status, is_required, responded_at)
			VALUES ($1,$2,$3,$4,$5)
		`, a.EventID, a.UserID, string(a.RSVP), a.Required, a.RespondedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *EventsRepo) ListAttendees(ctx context.Context, eventID string) ([]events.Attendee, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx, `
		SELECT event_id, user_id, rsvp_status, is_required, responded_at
		FROM event_attendees
		WHERE event_id = $1
		ORDER BY user_id
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]events.Attendee, 0)
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *EventsRepo) GetAttendee(ctx context.Context, eventID, userID string) (events.Attendee, error) {
	row := q(ctx, r.db).QueryRowContext(ctx, `
		SELECT event_id, user_id, rsvp_status, is_required, responded_at
		FROM event_attendees
		WHERE event_id = $1 AND user_id = $2
	`, eventID, userID)

	a, err := scanAttendee(row)
	if err == sql.ErrNoRows {
		return events.Attendee{}, events.ErrNotAttendee
	}
	return a, err
}

func (r *EventsRepo) UpdateAttendee(ctx context.Context, a events.Attendee) error {
	res, err := q(ctx, r.db).ExecContext(ctx, `
		UPDATE event_attendees
		SET rsvp_status = $3, is_required = $4, responded_at = $5
		WHERE event_id = $1 AND user_id = $2
	`, a.EventID, a.UserID, string(a.RSVP), a.Required, a.RespondedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return events.ErrNotAttendee
	}
	return nil
}

func (r *EventsRepo) AppendMutation(ctx context.Context, m events.Mutation) error {
	var before any
	if m.Before != nil {
		b, err := json.Marshal(m.Before)
		if err != nil {
			return err
		}
		before = b
	}
	after, err := json.Marshal(m.After)
	if err != nil {
		return err
	}

	_, err = q(ctx, r.db).ExecContext(ctx, `
		INSERT INTO event_mutations (id, event_id, actor_id, action, before_snapshot, after_snapshot, idempotency_key, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, m.ID, m.EventID, m.ActorID, string(m.Action), before, after, m.IdempotencyKey, m.CreatedAt)
	if isUniqueViolation(err) {
		return events.ErrIdempotencyConflict
	}
	return err
}

func (r *EventsRepo) ListMutationsByEvent(ctx context.Context, eventID string) ([]events.Mutation, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx, `
		SELECT id, event_id, actor_id, action, before_snapshot, after_snapshot, idempotency_key, created_at
		FROM event_mutations
		WHERE event_id = $1
		ORDER BY created_at
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]events.Mutation, 0)
	for rows.Next() {
		var m events.Mutation
		var action string
		var before, after []byte

		if err := rows.Scan(&m.ID, &m.EventID, &m.ActorID, &action, &before, &after, &m.IdempotencyKey, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Action = events.Action(action)
		if len(before) > 0 {
			var snap events.Snapshot
			if err := json.Unmarshal(before, &snap); err != nil {
				return nil, err
			}
			m.Before = &snap
		}
		if err := json.Unmarshal(after, &m.After); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *EventsRepo) queryEvents(ctx context.Context, query string, args ...any) ([]events.Event, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]events.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (events.Event, error) {
	var e events.Event
	var status, level, typ, locType string

	if err := row.Scan(
		&e.ID,
		&e.GroupID,
		&e.Title,
		&e.StartUTC,
		&e.EndUTC,
		&e.OrganizerID,
		&status,
		&level,
		&typ,
		&locType,
		&e.LocationText,
		&e.CancelledAt,
		&e.CancelledBy,
		&e.CancelReason,
		&e.Version,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return events.Event{}, events.ErrNotFound
		}
		return events.Event{}, err
	}

	e.Status = events.Status(status)
	e.ConstraintLevel = events.ConstraintLevel(level)
	e.Type = events.EventType(typ)
	e.LocationType = events.LocationType(locType)
	return e, nil
}

func scanAttendee(row rowScanner) (events.Attendee, error) {
	var a events.Attendee
	var rsvp string
	if err := row.Scan(&a.EventID, &a.UserID, &rsvp, &a.Required, &a.RespondedAt); err != nil {
		return events.Attendee{}, err
	}
	a.RSVP = events.RSVPStatus(rsvp)
	return a, nil
}
