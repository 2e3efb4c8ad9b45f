package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"group-calendar/internal/domain/events"
)

type txKey struct{}

type eventsRepo struct {
	mu sync.RWMutex

	events    map[string]events.Event
	attendees map[string][]events.Attendee // eventID -> links
	mutations []events.Mutation
	mutKeys   map[string]struct{} // idempotency keys ya usadas
}

func NewEventsRepo() events.Repository {
	return &eventsRepo{
		events:    make(map[string]events.Event),
		attendees: make(map[string][]events.Attendee),
		mutKeys:   make(map[string]struct{}),
	}
}

// WithTx toma el write lock por toda la unidad: single-writer, así que
// los checks y escrituras de fn son atómicos frente a otros callers.
// El service valida todo antes de escribir, por lo que un fallo dentro
// de fn ocurre antes de la primera escritura.
func (r *eventsRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, struct{}{}))
}

// rlock/lock saltan el locking cuando ya estamos dentro de WithTx.
func (r *eventsRepo) rlock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	r.mu.RLock()
	return r.mu.RUnlock
}

func (r *eventsRepo) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

func (r *eventsRepo) CreateEvent(ctx context.Context, e events.Event) error {
	defer r.lock(ctx)()

	if e.ID == "" {
		return errors.New("event id required")
	}
	if _, exists := r.events[e.ID]; exists {
		return errors.New("event already exists")
	}
	r.events[e.ID] = e
	return nil
}

func (r *eventsRepo) GetEvent(ctx context.Context, id string) (events.Event, error) {
	defer r.rlock(ctx)()

	e, ok := r.events[id]
	if !ok {
		return events.Event{}, events.ErrNotFound
	}
	return e, nil
}

func (r *eventsRepo) UpdateEvent(ctx context.Context, e events.Event, expectedVersion int) error {
	defer r.lock(ctx)()

	cur, ok := r.events[e.ID]
	if !ok {
		return events.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return events.ErrVersionConflict
	}
	r.events[e.ID] = e
	return nil
}

func (r *eventsRepo) ListEvents(ctx context.Context, filter events.ListFilter) ([]events.Event, error) {
	defer r.rlock(ctx)()

	out := make([]events.Event, 0)
	for _, e := range r.events {
		if filter.GroupID != "" && e.GroupID != filter.GroupID {
			continue
		}
		if !filter.IncludeCancelled && e.Status == events.StatusCancelled {
			continue
		}
		if filter.StartAfter != nil && e.StartUTC.Before(*filter.StartAfter) {
			continue
		}
		if filter.StartBefore != nil && e.StartUTC.After(*filter.StartBefore) {
			continue
		}
		out = append(out, e)
	}

	// Orden por start_time ascendente
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartUTC.Before(out[j].StartUTC)
	})
	return out, nil
}

func (r *eventsRepo) ListOverlappingHard(ctx context.Context, userID string, startUTC, endUTC time.Time, excludeEventID string) ([]events.Event, error) {
	defer r.rlock(ctx)()
	return r.listForUser(userID, startUTC, endUTC, excludeEventID, true), nil
}

func (r *eventsRepo) ListForUserInRange(ctx context.Context, userID string, startUTC, endUTC time.Time) ([]events.Event, error) {
	defer r.rlock(ctx)()
	return r.listForUser(userID, startUTC, endUTC, "", false), nil
}

// listForUser asume lock tomado. Overlap half-open: start < rangoEnd
// && end > rangoStart.
func (r *eventsRepo) listForUser(userID string, startUTC, endUTC time.Time, excludeEventID string, hardOnly bool) []events.Event {
	out := make([]events.Event, 0)
	for id, e := range r.events {
		if id == excludeEventID {
			continue
		}
		if e.Status == events.StatusCancelled {
			continue
		}
		if hardOnly && e.ConstraintLevel != events.ConstraintHard {
			continue
		}
		if !e.StartUTC.Before(endUTC) || !e.EndUTC.After(startUTC) {
			continue
		}
		isAttendee := false
		for _, a := range r.attendees[id] {
			if a.UserID == userID {
				isAttendee = true
				break
			}
		}
		if !isAttendee {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartUTC.Before(out[j].StartUTC)
	})
	return out
}

func (r *eventsRepo) CreateAttendees(ctx context.Context, atts []events.Attendee) error {
	defer r.lock(ctx)()

	for _, a := range atts {
		if a.EventID == "" || a.UserID == "" {
			return errors.New("attendee requires event and user")
		}
		r.attendees[a.EventID] = append(r.attendees[a.EventID], a)
	}
	return nil
}

func (r *eventsRepo) ListAttendees(ctx context.Context, eventID string) ([]events.Attendee, error) {
	defer r.rlock(ctx)()

	out := append([]events.Attendee(nil), r.attendees[eventID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *eventsRepo) GetAttendee(ctx context.Context, eventID, userID string) (events.Attendee, error) {
	defer r.rlock(ctx)()

	for _, a := range r.attendees[eventID] {
		if a.UserID == userID {
			return a, nil
		}
	}
	return events.Attendee{}, events.ErrNotAttendee
}

func (r *eventsRepo) UpdateAttendee(ctx context.Context, att events.Attendee) error {
	defer r.lock(ctx)()

	links := r.attendees[att.EventID]
	for i, a := range links {
		if a.UserID == att.UserID {
			links[i] = att
			return nil
		}
	}
	return events.ErrNotAttendee
}

func (r *eventsRepo) AppendMutation(ctx context.Context, m events.Mutation) error {
	defer r.lock(ctx)()

	if _, dup := r.mutKeys[m.IdempotencyKey]; dup {
		return events.ErrIdempotencyConflict
	}
	r.mutKeys[m.IdempotencyKey] = struct{}{}
	r.mutations = append(r.mutations, m)
	return nil
}

func (r *eventsRepo) ListMutationsByEvent(ctx context.Context, eventID string) ([]events.Mutation, error) {
	defer r.rlock(ctx)()

	out := make([]events.Mutation, 0)
	for _, m := range r.mutations {
		if m.EventID == eventID {
			out = append(out, m)
		}
	}
	// r.mutations ya está en orden de inserción
	return out, nil
}
