package events

import (
	"context"
	"time"
)

// Repository agrupa el estado persistido del módulo: eventos, attendees
// y el mutation ledger. WithTx ejecuta fn como unidad atómica: todo lo
// que escriba fn se confirma o se descarta junto.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreateEvent(ctx context.Context, e Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	// UpdateEvent escribe e solo si la fila sigue en expectedVersion.
	UpdateEvent(ctx context.Context, e Event, expectedVersion int) error
	ListEvents(ctx context.Context, filter ListFilter) ([]Event, error)

	// ListOverlappingHard devuelve eventos Hard no cancelados del usuario
	// que se solapan con [startUTC, endUTC), excluyendo excludeEventID
	// cuando no es vacío.
	ListOverlappingHard(ctx context.Context, userID string, startUTC, endUTC time.Time, excludeEventID string) ([]Event, error)
	// ListForUserInRange devuelve eventos no cancelados del usuario que
	// se solapan con el rango, de cualquier constraint level.
	ListForUserInRange(ctx context.Context, userID string, startUTC, endUTC time.Time) ([]Event, error)

	CreateAttendees(ctx context.Context, atts []Attendee) error
	ListAttendees(ctx context.Context, eventID string) ([]Attendee, error)
	GetAttendee(ctx context.Context, eventID, userID string) (Attendee, error)
	UpdateAttendee(ctx context.Context, a Attendee) error

	// AppendMutation es insert puro; el store rechaza idempotency keys
	// repetidas con ErrIdempotencyConflict.
	AppendMutation(ctx context.Context, m Mutation) error
	ListMutationsByEvent(ctx context.Context, eventID string) ([]Mutation, error)
}

type ListFilter struct {
	GroupID          string
	StartAfter       *time.Time
	StartBefore      *time.Time
	IncludeCancelled bool
}
