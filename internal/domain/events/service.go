package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service orquesta las mutaciones de eventos. Cada operación de
// escritura corre como una unidad atómica del Repository: autorización,
// check de versión, constraints, escritura de estado y entrada de
// ledger pasan o fallan juntos.
type Service struct {
	repo      Repository
	directory ParticipantDirectory
	now       func() time.Time
}

func NewService(repo Repository, directory ParticipantDirectory) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		now:       time.Now,
	}
}

type CreateInput struct {
	GroupID     string
	Title       string
	StartUTC    time.Time
	EndUTC      time.Time
	OrganizerID string
	AttendeeIDs []string

	ConstraintLevel ConstraintLevel // opcional, default Soft
	Status          Status          // opcional, default Proposed
	Type            EventType       // opcional, default "default"
	LocationType    LocationType    // opcional
	LocationText    string
}

// Create valida constraints y persiste evento + attendees + entrada de
// ledger en una sola transacción. Conflictos se devuelven como
// *ConflictError sin persistir nada.
func (s *Service) Create(ctx context.Context, in CreateInput) (Event, error) {
	if strings.TrimSpace(in.GroupID) == "" ||
		strings.TrimSpace(in.Title) == "" ||
		strings.TrimSpace(in.OrganizerID) == "" {
		return Event{}, ErrInvalidInput
	}
	if in.StartUTC.IsZero() || in.EndUTC.IsZero() || !in.EndUTC.After(in.StartUTC) {
		return Event{}, ErrInvalidInput
	}

	level := in.ConstraintLevel
	if level == "" {
		level = ConstraintSoft
	}
	status := in.Status
	if status == "" {
		status = StatusProposed
	}
	typ := in.Type
	if typ == "" {
		typ = EventTypeDefault
	}
	if !ValidConstraintLevel(level) || !ValidStatus(status) || !ValidEventType(typ) {
		return Event{}, ErrInvalidInput
	}

	participants := unionIDs(in.OrganizerID, in.AttendeeIDs)
	now := s.now()

	var result Event
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		conflicts, err := s.resolveConstraints(txCtx, in.StartUTC, in.EndUTC, level, participants, "")
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &ConflictError{Conflicts: conflicts}
		}

		e := Event{
			ID:              uuid.NewString(),
			GroupID:         in.GroupID,
			Title:           strings.TrimSpace(in.Title),
			StartUTC:        in.StartUTC.UTC(),
			EndUTC:          in.EndUTC.UTC(),
			OrganizerID:     in.OrganizerID,
			Status:          status,
			ConstraintLevel: level,
			Type:            typ,
			LocationType:    in.LocationType,
			LocationText:    strings.TrimSpace(in.LocationText),
			Version:         1,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.repo.CreateEvent(txCtx, e); err != nil {
			return err
		}

		atts := make([]Attendee, 0, len(participants))
		for _, uid := range participants {
			rsvp := RSVPInvited
			if uid == in.OrganizerID {
				rsvp = RSVPGoing
			}
			atts = append(atts, Attendee{
				EventID:  e.ID,
				UserID:   uid,
				RSVP:     rsvp,
				Required: true,
			})
		}
		if err := s.repo.CreateAttendees(txCtx, atts); err != nil {
			return err
		}

		if err := s.repo.AppendMutation(txCtx, Mutation{
			ID:             uuid.NewString(),
			EventID:        e.ID,
			ActorID:        in.OrganizerID,
			Action:         ActionCreate,
			Before:         nil,
			After:          snapshotOf(e),
			IdempotencyKey: uuid.NewString(),
			CreatedAt:      now,
		}); err != nil {
			return err
		}

		result = e
		return nil
	})
	if err != nil {
		return Event{}, err
	}
	return result, nil
}

// Update aplica cambios de campos con autorización (solo organizer) y
// optimistic locking. No re-evalúa constraints sobre el nuevo intervalo
// y no bloquea eventos cancelados: ambos son decisiones de política
// vigentes, no bugs.
func (s *Service) Update(ctx context.Context, eventID, actorID string, expectedVersion int, updates map[string]any) (Event, error) {
	if strings.TrimSpace(eventID) == "" || strings.TrimSpace(actorID) == "" {
		return Event{}, ErrInvalidInput
	}

	var result Event
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		e, err := s.repo.GetEvent(txCtx, eventID)
		if err != nil {
			return err
		}
		if e.OrganizerID != actorID {
			return ErrForbidden
		}
		if e.Version != expectedVersion {
			return ErrVersionConflict
		}

		before := snapshotOf(e)

		if err := applyUpdates(&e, updates); err != nil {
			return err
		}

		now := s.now()
		e.Version++
		e.UpdatedAt = now

		if err := s.repo.UpdateEvent(txCtx, e, expectedVersion); err != nil {
			return err
		}

		after := snapshotOf(e)
		if err := s.repo.AppendMutation(txCtx, Mutation{
			ID:             uuid.NewString(),
			EventID:        e.ID,
			ActorID:        actorID,
			Action:         ActionUpdate,
			Before:         &before,
			After:          after,
			IdempotencyKey: uuid.NewString(),
			CreatedAt:      now,
		}); err != nil {
			return err
		}

		result = e
		return nil
	})
	if err != nil {
		return Event{}, err
	}
	return result, nil
}

// Cancel es soft delete: transición terminal a Cancelled con metadata.
// Nunca borra la fila ni su historial.
func (s *Service) Cancel(ctx context.Context, eventID, actorID string, expectedVersion int, reason string) (Event, error) {
	if strings.TrimSpace(eventID) == "" || strings.TrimSpace(actorID) == "" {
		return Event{}, ErrInvalidInput
	}

	var result Event
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		e, err := s.repo.GetEvent(txCtx, eventID)
		if err != nil {
			return err
		}
		if e.OrganizerID != actorID {
			return ErrForbidden
		}
		if e.Status == StatusCancelled {
			return ErrInvalidState
		}
		if e.Version != expectedVersion {
			return ErrVersionConflict
		}

		before := snapshotOf(e)
		now := s.now()

		e.Status = StatusCancelled
		e.CancelledAt = &now
		e.CancelledBy = actorID
		e.CancelReason = strings.TrimSpace(reason)
		e.Version++
		e.UpdatedAt = now

		if err := s.repo.UpdateEvent(txCtx, e, expectedVersion); err != nil {
			return err
		}

		after := snapshotOf(e)
		if err := s.repo.AppendMutation(txCtx, Mutation{
			ID:             uuid.NewString(),
			EventID:        e.ID,
			ActorID:        actorID,
			Action:         ActionCancel,
			Before:         &before,
			After:          after,
			IdempotencyKey: uuid.NewString(),
			CreatedAt:      now,
		}); err != nil {
			return err
		}

		result = e
		return nil
	})
	if err != nil {
		return Event{}, err
	}
	return result, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Event{}, ErrInvalidInput
	}
	return s.repo.GetEvent(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Event, error) {
	return s.repo.ListEvents(ctx, filter)
}

// ListForUser devuelve los eventos no cancelados donde el usuario es
// attendee y que tocan el rango [startUTC, endUTC).
func (s *Service) ListForUser(ctx context.Context, userID string, startUTC, endUTC time.Time) ([]Event, error) {
	if strings.TrimSpace(userID) == "" || !endUTC.After(startUTC) {
		return nil, ErrInvalidInput
	}
	return s.repo.ListForUserInRange(ctx, userID, startUTC, endUTC)
}

func (s *Service) Attendees(ctx context.Context, eventID string) ([]Attendee, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListAttendees(ctx, eventID)
}

// Mutations lista el ledger de un evento en orden de creación.
// Solo lectura: auditoría y tests.
func (s *Service) Mutations(ctx context.Context, eventID string) ([]Mutation, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListMutationsByEvent(ctx, eventID)
}

// SetRSVP actualiza la respuesta de un attendee existente.
func (s *Service) SetRSVP(ctx context.Context, eventID, userID string, rsvp RSVPStatus) (Attendee, error) {
	if strings.TrimSpace(eventID) == "" || strings.TrimSpace(userID) == "" {
		return Attendee{}, ErrInvalidInput
	}
	switch rsvp {
	case RSVPGoing, RSVPMaybe, RSVPDeclined:
	default:
		return Attendee{}, ErrInvalidInput
	}

	if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
		return Attendee{}, err
	}

	a, err := s.repo.GetAttendee(ctx, eventID, userID)
	if err != nil {
		return Attendee{}, ErrNotAttendee
	}

	now := s.now()
	a.RSVP = rsvp
	a.RespondedAt = &now

	if err := s.repo.UpdateAttendee(ctx, a); err != nil {
		return Attendee{}, err
	}
	return a, nil
}

// applyUpdates aplica solo campos mutables reconocidos; keys
// desconocidas se ignoran (identidad, versión y created_at jamás se
// tocan por este camino).
func applyUpdates(e *Event, updates map[string]any) error {
	for field, value := range updates {
		switch field {
		case "title":
			s, ok := value.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return ErrInvalidInput
			}
			e.Title = strings.TrimSpace(s)
		case "start_time_utc":
			t, err := asTime(value)
			if err != nil {
				return ErrInvalidInput
			}
			e.StartUTC = t
		case "end_time_utc":
			t, err := asTime(value)
			if err != nil {
				return ErrInvalidInput
			}
			e.EndUTC = t
		case "status":
			s, ok := value.(string)
			if !ok || !ValidStatus(Status(s)) {
				return ErrInvalidInput
			}
			e.Status = Status(s)
		case "constraint_level":
			s, ok := value.(string)
			if !ok || !ValidConstraintLevel(ConstraintLevel(s)) {
				return ErrInvalidInput
			}
			e.ConstraintLevel = ConstraintLevel(s)
		case "event_type":
			s, ok := value.(string)
			if !ok || !ValidEventType(EventType(s)) {
				return ErrInvalidInput
			}
			e.Type = EventType(s)
		case "location_type":
			s, ok := value.(string)
			if !ok {
				return ErrInvalidInput
			}
			e.LocationType = LocationType(s)
		case "location_text":
			s, ok := value.(string)
			if !ok {
				return ErrInvalidInput
			}
			e.LocationText = strings.TrimSpace(s)
		}
	}
	if !e.EndUTC.After(e.StartUTC) {
		return ErrInvalidInput
	}
	return nil
}

func asTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil
	default:
		return time.Time{}, ErrInvalidInput
	}
}

// unionIDs junta organizer + attendees sin duplicados, organizer primero.
func unionIDs(organizerID string, attendeeIDs []string) []string {
	seen := map[string]struct{}{organizerID: {}}
	out := []string{organizerID}
	for _, id := range attendeeIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
