package events

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("event not found")
	ErrForbidden       = errors.New("forbidden")
	ErrVersionConflict = errors.New("version conflict")
	ErrInvalidState    = errors.New("invalid state")
	ErrNotAttendee     = errors.New("user is not an attendee of this event")

	// ErrIdempotencyConflict: el store rechazó una idempotency key repetida.
	ErrIdempotencyConflict = errors.New("idempotency key conflict")
)

// Conflict describe un choque de constraints para un participante.
type Conflict struct {
	UserID string       `json:"user_id"`
	Kind   ConflictKind `json:"kind"`

	// Para hard_overlap:
	ConflictingEventID string    `json:"conflicting_event_id,omitempty"`
	ConflictingTitle   string    `json:"conflicting_title,omitempty"`
	Start              time.Time `json:"start,omitzero"`
	End                time.Time `json:"end,omitzero"`

	// Para dnd_window:
	Window   string `json:"dnd_window,omitempty"` // "22:00-07:00"
	Timezone string `json:"timezone,omitempty"`
}

// ConflictError lleva la lista estructurada de conflictos para que el
// caller pueda explicar por qué se rechazó (redesign: resultado tipado
// en lugar de excepciones).
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("constraint conflict: %d conflict(s)", len(e.Conflicts))
}
