package changerequests

import (
	"context"
	"errors"
	"strings"
	"time"

	"group-calendar/internal/domain/events"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("change request not found")
	ErrEventNotFound = errors.New("event not found")
	ErrInvalidState  = errors.New("change request already decided")
)

// EventMutator es lo único que este módulo necesita del servicio de
// eventos: la aprobación re-aplica la propuesta por el mismo camino
// guardado de mutaciones.
type EventMutator interface {
	GetByID(ctx context.Context, id string) (events.Event, error)
	Update(ctx context.Context, eventID, actorID string, expectedVersion int, updates map[string]any) (events.Event, error)
	Cancel(ctx context.Context, eventID, actorID string, expectedVersion int, reason string) (events.Event, error)
}

// Service implementa el workflow HITL: submit (sin autorización, es el
// camino PARA actores no autorizados), approve y reject (terminales).
type Service struct {
	repo   Repository
	events EventMutator
	now    func() time.Time
}

func NewService(repo Repository, ev EventMutator) *Service {
	return &Service{
		repo:   repo,
		events: ev,
		now:    time.Now,
	}
}

// Submit persiste la propuesta verbatim como pending. El evento debe
// existir; el requester no necesita permiso alguno.
func (s *Service) Submit(ctx context.Context, eventID, requesterID string, typ Type, payload map[string]any) (ChangeRequest, error) {
	eventID = strings.TrimSpace(eventID)
	requesterID = strings.TrimSpace(requesterID)
	if eventID == "" || requesterID == "" || !ValidType(typ) {
		return ChangeRequest{}, ErrInvalidInput
	}

	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, events.ErrNotFound) {
			return ChangeRequest{}, ErrEventNotFound
		}
		return ChangeRequest{}, err
	}

	if payload == nil {
		payload = map[string]any{}
	}

	cr := ChangeRequest{
		ID:          uuid.NewString(),
		EventID:     eventID,
		RequesterID: requesterID,
		Type:        typ,
		Payload:     payload,
		Status:      StatusPending,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, cr); err != nil {
		return ChangeRequest{}, err
	}
	return cr, nil
}

// Approve aplica la mutación propuesta actuando como el ORGANIZER del
// evento (no el requester original): este workflow es el trust boundary
// que convierte la propuesta de un tercero en una acción autorizada,
// re-validada por los mismos invariantes del servicio de eventos.
// El request queda approved solo si la mutación subyacente tuvo éxito;
// si falla (ej versión stale), sigue pending.
func (s *Service) Approve(ctx context.Context, requestID string) (ChangeRequest, error) {
	cr, err := s.getPending(ctx, requestID)
	if err != nil {
		return ChangeRequest{}, err
	}

	ev, err := s.events.GetByID(ctx, cr.EventID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			return ChangeRequest{}, ErrEventNotFound
		}
		return ChangeRequest{}, err
	}

	switch cr.Type {
	case TypeCancel:
		reason := "Approved change request"
		if v, ok := cr.Payload["reason"].(string); ok && strings.TrimSpace(v) != "" {
			reason = v
		}
		if _, err := s.events.Cancel(ctx, cr.EventID, ev.OrganizerID, ev.Version, reason); err != nil {
			return ChangeRequest{}, err
		}
	case TypeTimeChange, TypeUpdateDetails:
		if _, err := s.events.Update(ctx, cr.EventID, ev.OrganizerID, ev.Version, cr.Payload); err != nil {
			return ChangeRequest{}, err
		}
	}

	cr.Status = StatusApproved
	if err := s.repo.Update(ctx, cr); err != nil {
		return ChangeRequest{}, err
	}
	return cr, nil
}

// Reject marca rejected sin tocar el evento.
func (s *Service) Reject(ctx context.Context, requestID string) (ChangeRequest, error) {
	cr, err := s.getPending(ctx, requestID)
	if err != nil {
		return ChangeRequest{}, err
	}

	cr.Status = StatusRejected
	if err := s.repo.Update(ctx, cr); err != nil {
		return ChangeRequest{}, err
	}
	return cr, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (ChangeRequest, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ChangeRequest{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]ChangeRequest, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) getPending(ctx context.Context, requestID string) (ChangeRequest, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ChangeRequest{}, ErrInvalidInput
	}
	cr, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return ChangeRequest{}, err
	}
	if cr.Status != StatusPending {
		return ChangeRequest{}, ErrInvalidState
	}
	return cr, nil
}
