package events

type Status string

const (
	StatusProposed  Status = "Proposed"
	StatusConfirmed Status = "Confirmed"
	StatusCancelled Status = "Cancelled"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusProposed, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// ConstraintLevel define qué tan negociable es un evento.
// Hard: no puede solaparse con otros Hard ni con ventanas DND.
// Soft: nunca bloquea ni es bloqueado.
type ConstraintLevel string

const (
	ConstraintHard ConstraintLevel = "Hard"
	ConstraintSoft ConstraintLevel = "Soft"
)

func ValidConstraintLevel(c ConstraintLevel) bool {
	return c == ConstraintHard || c == ConstraintSoft
}

// EventType es clasificación libre; no afecta constraints.
type EventType string

const (
	EventTypeDefault     EventType = "default"
	EventTypeOutOfOffice EventType = "outOfOffice"
	EventTypeFocusTime   EventType = "focusTime"
)

func ValidEventType(t EventType) bool {
	switch t {
	case EventTypeDefault, EventTypeOutOfOffice, EventTypeFocusTime:
		return true
	}
	return false
}

type LocationType string

const (
	LocationRemote   LocationType = "remote"
	LocationInPerson LocationType = "in_person"
)

type RSVPStatus string

const (
	RSVPInvited  RSVPStatus = "invited"
	RSVPGoing    RSVPStatus = "going"
	RSVPMaybe    RSVPStatus = "maybe"
	RSVPDeclined RSVPStatus = "declined"
)

// Action identifica el tipo de mutación registrada en el ledger.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionCancel Action = "cancel"
)

// ConflictKind clasifica un conflicto de constraints.
type ConflictKind string

const (
	ConflictDNDWindow   ConflictKind = "dnd_window"
	ConflictHardOverlap ConflictKind = "hard_overlap"
)
