package events

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"group-calendar/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/events", func(er chi.Router) {
		er.Post("/", createEventHandler(svc))
		er.Get("/", listEventsHandler(svc))
		er.Post("/rsvp", rsvpHandler(svc))
		er.Get("/{eventID}", getEventHandler(svc))
		er.Put("/{eventID}", updateEventHandler(svc))
		er.Post("/{eventID}/cancel", cancelEventHandler(svc))
		er.Get("/{eventID}/mutations", listMutationsHandler(svc))
	})

	r.Get("/availability", availabilityHandler(svc))
	r.Get("/groups/{groupID}/calendar.ics", groupCalendarHandler(svc))
}

// createEventRequest es el cuerpo para agendar un evento nuevo.
// El organizer es el usuario autenticado, no viene en el payload.
type createEventRequest struct {
	GroupID         string   `json:"group_id"`
	Title           string   `json:"title"`
	StartTimeUTC    string   `json:"start_time_utc"` // RFC3339
	EndTimeUTC      string   `json:"end_time_utc"`   // RFC3339
	AttendeeIDs     []string `json:"attendee_ids"`
	ConstraintLevel string   `json:"constraint_level" enums:"Hard,Soft"`
	Status          string   `json:"status" enums:"Proposed,Confirmed"`
	EventType       string   `json:"event_type" enums:"default,outOfOffice,focusTime"`
	LocationType    string   `json:"location_type" enums:"remote,in_person"`
	LocationText    string   `json:"location_text"`
}

type updateEventRequest struct {
	Version int            `json:"version"`
	Updates map[string]any `json:"updates"`
}

type cancelEventRequest struct {
	Version      int    `json:"version"`
	CancelReason string `json:"cancel_reason"`
}

type rsvpRequest struct {
	EventID    string `json:"event_id"`
	RSVPStatus string `json:"rsvp_status" enums:"going,maybe,declined"`
}

// eventResponse representa un evento devuelto por la API.
type eventResponse struct {
	ID              string             `json:"id"`
	GroupID         string             `json:"group_id"`
	Title           string             `json:"title"`
	StartTimeUTC    time.Time          `json:"start_time_utc"`
	EndTimeUTC      time.Time          `json:"end_time_utc"`
	OrganizerID     string             `json:"organizer_id"`
	Status          Status             `json:"status"`
	ConstraintLevel ConstraintLevel    `json:"constraint_level"`
	EventType       EventType          `json:"event_type"`
	LocationType    LocationType       `json:"location_type,omitempty"`
	LocationText    string             `json:"location_text,omitempty"`
	CancelledAt     *time.Time         `json:"cancelled_at,omitempty"`
	CancelledBy     string             `json:"cancelled_by,omitempty"`
	CancelReason    string             `json:"cancel_reason,omitempty"`
	Version         int                `json:"version"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Attendees       []attendeeResponse `json:"attendees,omitempty"`
}

type attendeeResponse struct {
	UserID      string     `json:"user_id"`
	RSVPStatus  RSVPStatus `json:"rsvp_status"`
	IsRequired  bool       `json:"is_required"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

type mutationResponse struct {
	ID             string    `json:"id"`
	EventID        string    `json:"event_id"`
	ActorID        string    `json:"actor_id"`
	Action         Action    `json:"action"`
	Before         *Snapshot `json:"before_snapshot"`
	After          Snapshot  `json:"after_snapshot"`
	IdempotencyKey string    `json:"idempotency_key"`
	CreatedAt      time.Time `json:"created_at"`
}

type conflictResponse struct {
	Message   string     `json:"message"`
	Conflicts []Conflict `json:"conflicts"`
}

// createEventHandler godoc
// @Summary Crear evento
// @Description Crea un evento con attendees y todos los checks de invariantes (constraints Hard/Soft, ventanas DND). El organizer es el usuario autenticado. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags events
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param payload body createEventRequest true "Datos del evento; tiempos en RFC3339 UTC"
// @Success 201 {object} eventResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 409 {object} conflictResponse "conflictos Hard/DND"
// @Router /events [post]
func createEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		start, err := time.Parse(time.RFC3339, req.StartTimeUTC)
		if err != nil {
			http.Error(w, "start_time_utc must be RFC3339", http.StatusBadRequest)
			return
		}
		end, err := time.Parse(time.RFC3339, req.EndTimeUTC)
		if err != nil {
			http.Error(w, "end_time_utc must be RFC3339", http.StatusBadRequest)
			return
		}

		e, err := svc.Create(r.Context(), CreateInput{
			GroupID:         req.GroupID,
			Title:           req.Title,
			StartUTC:        start,
			EndUTC:          end,
			OrganizerID:     claims.UserID,
			AttendeeIDs:     req.AttendeeIDs,
			ConstraintLevel: ConstraintLevel(req.ConstraintLevel),
			Status:          Status(req.Status),
			Type:            EventType(req.EventType),
			LocationType:    LocationType(req.LocationType),
			LocationText:    req.LocationText,
		})
		if err != nil {
			writeEventError(w, err)
			return
		}

		atts, _ := svc.Attendees(r.Context(), e.ID)
		writeJSON(w, http.StatusCreated, toEventResponse(e, atts))
	}
}

// listEventsHandler godoc
// @Summary Listar eventos
// @Description Lista eventos con filtros opcionales de grupo y rango de inicio. Por defecto excluye cancelados.
// @Tags events
// @Produce json
// @Param group_id query string false "Filtrar por grupo"
// @Param start_after query string false "start_time_utc mínimo (RFC3339)"
// @Param start_before query string false "start_time_utc máximo (RFC3339)"
// @Param include_cancelled query bool false "Incluir eventos cancelados"
// @Success 200 {array} eventResponse
// @Failure 400 {string} string "filtros inválidos"
// @Router /events [get]
func listEventsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ListFilter{
			GroupID:          strings.TrimSpace(r.URL.Query().Get("group_id")),
			IncludeCancelled: r.URL.Query().Get("include_cancelled") == "true",
		}
		if v := strings.TrimSpace(r.URL.Query().Get("start_after")); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				http.Error(w, "start_after must be RFC3339", http.StatusBadRequest)
				return
			}
			filter.StartAfter = &t
		}
		if v := strings.TrimSpace(r.URL.Query().Get("start_before")); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				http.Error(w, "start_before must be RFC3339", http.StatusBadRequest)
				return
			}
			filter.StartBefore = &t
		}

		items, err := svc.List(r.Context(), filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]eventResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEventResponse(e, nil))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getEventHandler godoc
// @Summary Obtener evento
// @Tags events
// @Produce json
// @Param eventID path string true "ID del evento"
// @Success 200 {object} eventResponse
// @Failure 404 {string} string "event not found"
// @Router /events/{eventID} [get]
func getEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.GetByID(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeEventError(w, err)
			return
		}
		atts, _ := svc.Attendees(r.Context(), e.ID)
		writeJSON(w, http.StatusOK, toEventResponse(e, atts))
	}
}

// updateEventHandler godoc
// @Summary Actualizar evento
// @Description Solo el organizer puede actualizar. Requiere la versión observada (optimistic locking); mismatch => 409. Campos reconocidos en updates: title, start_time_utc, end_time_utc, status, constraint_level, event_type, location_type, location_text.
// @Tags events
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param eventID path string true "ID del evento"
// @Param payload body updateEventRequest true "Versión esperada + campos a cambiar"
// @Success 200 {object} eventResponse
// @Failure 400 {string} string "invalid json / valores inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden (usa change requests)"
// @Failure 404 {string} string "event not found"
// @Failure 409 {string} string "version conflict"
// @Router /events/{eventID} [put]
func updateEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		e, err := svc.Update(r.Context(), chi.URLParam(r, "eventID"), claims.UserID, req.Version, req.Updates)
		if err != nil {
			writeEventError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(e, nil))
	}
}

// cancelEventHandler godoc
// @Summary Cancelar evento
// @Description Soft delete: transición terminal a Cancelled con metadata. Solo organizer; optimistic locking; doble cancel => 400.
// @Tags events
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param eventID path string true "ID del evento"
// @Param payload body cancelEventRequest true "Versión esperada + razón opcional"
// @Success 200 {object} eventResponse
// @Failure 400 {string} string "already cancelled"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "event not found"
// @Failure 409 {string} string "version conflict"
// @Router /events/{eventID}/cancel [post]
func cancelEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req cancelEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		e, err := svc.Cancel(r.Context(), chi.URLParam(r, "eventID"), claims.UserID, req.Version, req.CancelReason)
		if err != nil {
			writeEventError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(e, nil))
	}
}

// listMutationsHandler godoc
// @Summary Ledger de mutaciones de un evento
// @Description Entradas append-only en orden de creación (auditoría).
// @Tags events
// @Produce json
// @Param eventID path string true "ID del evento"
// @Success 200 {array} mutationResponse
// @Failure 404 {string} string "event not found"
// @Router /events/{eventID}/mutations [get]
func listMutationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventID")
		if _, err := svc.GetByID(r.Context(), eventID); err != nil {
			writeEventError(w, err)
			return
		}
		items, err := svc.Mutations(r.Context(), eventID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]mutationResponse, 0, len(items))
		for _, m := range items {
			out = append(out, mutationResponse{
				ID:             m.ID,
				EventID:        m.EventID,
				ActorID:        m.ActorID,
				Action:         m.Action,
				Before:         m.Before,
				After:          m.After,
				IdempotencyKey: m.IdempotencyKey,
				CreatedAt:      m.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// rsvpHandler godoc
// @Summary Responder RSVP
// @Description El usuario autenticado responde going/maybe/declined a un evento del que es attendee.
// @Tags events
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param payload body rsvpRequest true "Evento y respuesta"
// @Success 200 {object} attendeeResponse
// @Failure 400 {string} string "rsvp_status inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "event not found / not an attendee"
// @Router /events/rsvp [post]
func rsvpHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req rsvpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.SetRSVP(r.Context(), req.EventID, claims.UserID, RSVPStatus(req.RSVPStatus))
		if err != nil {
			writeEventError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, attendeeResponse{
			UserID:      a.UserID,
			RSVPStatus:  a.RSVP,
			IsRequired:  a.Required,
			RespondedAt: a.RespondedAt,
		})
	}
}

// availabilityHandler godoc
// @Summary Consultar disponibilidad
// @Description Bloques ocupados + conflictos DND (informativos) para un set de usuarios en un rango. Solo lectura.
// @Tags availability
// @Produce json
// @Param user_ids query string true "CSV de IDs de usuario"
// @Param start query string true "Inicio del rango (RFC3339)"
// @Param end query string true "Fin del rango (RFC3339)"
// @Success 200 {object} Availability
// @Failure 400 {string} string "parámetros inválidos"
// @Router /availability [get]
func availabilityHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawIDs := strings.Split(r.URL.Query().Get("user_ids"), ",")
		userIDs := make([]string, 0, len(rawIDs))
		for _, id := range rawIDs {
			if id = strings.TrimSpace(id); id != "" {
				userIDs = append(userIDs, id)
			}
		}

		start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
		if err != nil {
			http.Error(w, "start must be RFC3339", http.StatusBadRequest)
			return
		}
		end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
		if err != nil {
			http.Error(w, "end must be RFC3339", http.StatusBadRequest)
			return
		}

		av, err := svc.CheckAvailability(r.Context(), userIDs, start, end)
		if err != nil {
			writeEventError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, av)
	}
}

// groupCalendarHandler godoc
// @Summary Exportar calendario del grupo (iCal)
// @Tags groups
// @Produce plain
// @Param groupID path string true "ID del grupo"
// @Success 200 {string} string "text/calendar"
// @Router /groups/{groupID}/calendar.ics [get]
func groupCalendarHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := svc.GroupCalendar(r.Context(), chi.URLParam(r, "groupID"))
		if err != nil {
			writeEventError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}
}

// writeEventError mapea error kinds del dominio a status HTTP.
func writeEventError(w http.ResponseWriter, err error) {
	var ce *ConflictError
	switch {
	case errors.As(err, &ce):
		writeJSON(w, http.StatusConflict, conflictResponse{
			Message:   "constraint conflict",
			Conflicts: ce.Conflicts,
		})
	case errors.Is(err, ErrNotFound):
		http.Error(w, "event not found", http.StatusNotFound)
	case errors.Is(err, ErrNotAttendee):
		http.Error(w, "user is not an attendee of this event", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "only the organizer may modify this event; create a change request instead", http.StatusForbidden)
	case errors.Is(err, ErrVersionConflict):
		http.Error(w, "version mismatch: re-fetch and retry", http.StatusConflict)
	case errors.Is(err, ErrInvalidState):
		http.Error(w, "event is already cancelled", http.StatusBadRequest)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toEventResponse(e Event, atts []Attendee) eventResponse {
	out := eventResponse{
		ID:              e.ID,
		GroupID:         e.GroupID,
		Title:           e.Title,
		StartTimeUTC:    e.StartUTC,
		EndTimeUTC:      e.EndUTC,
		OrganizerID:     e.OrganizerID,
		Status:          e.Status,
		ConstraintLevel: e.ConstraintLevel,
		EventType:       e.Type,
		LocationType:    e.LocationType,
		LocationText:    e.LocationText,
		CancelledAt:     e.CancelledAt,
		CancelledBy:     e.CancelledBy,
		CancelReason:    e.CancelReason,
		Version:         e.Version,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	for _, a := range atts {
		out.Attendees = append(out.Attendees, attendeeResponse{
			UserID:      a.UserID,
			RSVPStatus:  a.RSVP,
			IsRequired:  a.Required,
			RespondedAt: a.RespondedAt,
		})
	}
	return out
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// (mismo criterio que el resto del repo: helpers compartidos recién
// cuando se repiten de verdad).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
