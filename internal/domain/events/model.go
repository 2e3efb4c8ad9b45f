package events

import "time"

// Event representa un bloque de tiempo propuesto o confirmado del grupo.
// Toda mutación pasa por el Service; el campo Version sube de a 1 por
// mutación aceptada (optimistic locking).
type Event struct {
	ID      string
	GroupID string

	Title    string
	StartUTC time.Time
	EndUTC   time.Time

	OrganizerID string

	Status          Status
	ConstraintLevel ConstraintLevel
	Type            EventType

	LocationType LocationType // opcional ("" = sin location)
	LocationText string

	// Metadata de cancelación; poblada solo cuando Status = Cancelled.
	CancelledAt  *time.Time
	CancelledBy  string
	CancelReason string

	Version int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Attendee es el vínculo (evento, usuario) con su estado de RSVP.
// Se crea junto con el evento y es propiedad del evento.
type Attendee struct {
	EventID     string
	UserID      string
	RSVP        RSVPStatus
	Required    bool
	RespondedAt *time.Time
}

// Snapshot es la vista JSON-safe de un evento que guarda el ledger.
type Snapshot struct {
	EventID         string          `json:"event_id"`
	Title           string          `json:"title"`
	StartUTC        time.Time       `json:"start_time_utc"`
	EndUTC          time.Time       `json:"end_time_utc"`
	Status          Status          `json:"status"`
	ConstraintLevel ConstraintLevel `json:"constraint_level"`
	Version         int             `json:"version"`
}

// Mutation es una entrada del ledger append-only: una por mutación
// aceptada, nunca se actualiza ni se borra.
type Mutation struct {
	ID      string
	EventID string
	ActorID string
	Action  Action

	// Before es nil solo para create.
	Before *Snapshot
	After  Snapshot

	// IdempotencyKey es única en todo el ledger (replay tripwire).
	IdempotencyKey string

	CreatedAt time.Time
}

func snapshotOf(e Event) Snapshot {
	return Snapshot{
		EventID:         e.ID,
		Title:           e.Title,
		StartUTC:        e.StartUTC,
		EndUTC:          e.EndUTC,
		Status:          e.Status,
		ConstraintLevel: e.ConstraintLevel,
		Version:         e.Version,
	}
}
