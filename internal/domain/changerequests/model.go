package changerequests

import "time"

// Type clasifica qué propone el request; el payload lleva los valores
// literales propuestos (nunca una descripción re-narrada de la acción).
type Type string

const (
	TypeTimeChange    Type = "time_change"
	TypeCancel        Type = "cancel"
	TypeUpdateDetails Type = "update_details"
)

func ValidType(t Type) bool {
	switch t {
	case TypeTimeChange, TypeCancel, TypeUpdateDetails:
		return true
	}
	return false
}

// Status: pending -> approved | rejected. Terminal en ambos casos.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ChangeRequest es una propuesta diferida de un no-organizer sobre un
// evento, a la espera de la decisión del organizer.
type ChangeRequest struct {
	ID          string
	EventID     string
	RequesterID string
	Type        Type
	Payload     map[string]any
	Status      Status
	CreatedAt   time.Time
}
