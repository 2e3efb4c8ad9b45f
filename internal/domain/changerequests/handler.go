package changerequests

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"group-calendar/internal/domain/events"
	"group-calendar/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/change-requests", func(cr chi.Router) {
		cr.Post("/", submitHandler(svc))
		cr.Get("/", listHandler(svc))
		cr.Post("/{requestID}/approve", approveHandler(svc))
		cr.Post("/{requestID}/reject", rejectHandler(svc))
	})
}

type submitRequest struct {
	EventID     string         `json:"event_id"`
	RequestType string         `json:"request_type" enums:"time_change,cancel,update_details"`
	Payload     map[string]any `json:"payload"`
}

type changeRequestResponse struct {
	ID          string         `json:"id"`
	EventID     string         `json:"event_id"`
	RequesterID string         `json:"requester_id"`
	RequestType Type           `json:"request_type"`
	Payload     map[string]any `json:"payload"`
	Status      Status         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
}

// submitHandler godoc
// @Summary Proponer un cambio (no-organizers)
// @Description Un usuario que no es organizer propone un cambio sobre un evento. Se guarda pending hasta que el organizer decida. El payload lleva los valores literales propuestos.
// @Tags change-requests
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param payload body submitRequest true "Evento, tipo y payload propuesto"
// @Success 201 {object} changeRequestResponse
// @Failure 400 {string} string "tipo inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "event not found"
// @Router /change-requests [post]
func submitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		cr, err := svc.Submit(r.Context(), req.EventID, claims.UserID, Type(req.RequestType), req.Payload)
		if err != nil {
			writeCRError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toResponse(cr))
	}
}

// listHandler godoc
// @Summary Listar change requests
// @Tags change-requests
// @Produce json
// @Param event_id query string false "Filtrar por evento"
// @Param status query string false "Filtrar por estado" enums(pending,approved,rejected)
// @Success 200 {array} changeRequestResponse
// @Router /change-requests [get]
func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ListFilter{
			EventID: strings.TrimSpace(r.URL.Query().Get("event_id")),
			Status:  Status(strings.TrimSpace(r.URL.Query().Get("status"))),
		}
		items, err := svc.List(r.Context(), filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]changeRequestResponse, 0, len(items))
		for _, cr := range items {
			out = append(out, toResponse(cr))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// approveHandler godoc
// @Summary Aprobar un change request
// @Description Solo el organizer del evento target puede aprobar. La mutación se aplica bajo la identidad del organizer con la versión vigente del evento; si falla, el request sigue pending.
// @Tags change-requests
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param requestID path string true "ID del change request"
// @Success 200 {object} changeRequestResponse
// @Failure 400 {string} string "request ya decidido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "request o evento no encontrado"
// @Failure 409 {string} string "version conflict / constraint conflict al aplicar"
// @Router /change-requests/{requestID}/approve [post]
func approveHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, ok := authorizeDecision(w, r, svc)
		if !ok {
			return
		}
		cr, err := svc.Approve(r.Context(), requestID)
		if err != nil {
			writeCRError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(cr))
	}
}

// rejectHandler godoc
// @Summary Rechazar un change request
// @Description Solo el organizer del evento target. No toca el evento.
// @Tags change-requests
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param requestID path string true "ID del change request"
// @Success 200 {object} changeRequestResponse
// @Failure 400 {string} string "request ya decidido"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "request no encontrado"
// @Router /change-requests/{requestID}/reject [post]
func rejectHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, ok := authorizeDecision(w, r, svc)
		if !ok {
			return
		}
		cr, err := svc.Reject(r.Context(), requestID)
		if err != nil {
			writeCRError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(cr))
	}
}

// authorizeDecision: la decisión (approve/reject) exige que el caller
// autenticado sea el organizer del evento target. La autorización vive
// en el handler, como en el resto de los módulos.
func authorizeDecision(w http.ResponseWriter, r *http.Request, svc *Service) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}

	requestID := chi.URLParam(r, "requestID")
	cr, err := svc.GetByID(r.Context(), requestID)
	if err != nil {
		writeCRError(w, err)
		return "", false
	}

	ev, err := svc.events.GetByID(r.Context(), cr.EventID)
	if err != nil {
		writeCRError(w, err)
		return "", false
	}
	if ev.OrganizerID != claims.UserID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return "", false
	}
	return requestID, true
}

func writeCRError(w http.ResponseWriter, err error) {
	var ce *events.ConflictError
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "change request not found", http.StatusNotFound)
	case errors.Is(err, ErrEventNotFound), errors.Is(err, events.ErrNotFound):
		http.Error(w, "event not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidState):
		http.Error(w, "change request already decided", http.StatusBadRequest)
	case errors.Is(err, events.ErrVersionConflict):
		http.Error(w, "version conflict applying change; retry approval", http.StatusConflict)
	case errors.As(err, &ce):
		http.Error(w, "constraint conflict applying change", http.StatusConflict)
	case errors.Is(err, events.ErrInvalidState):
		http.Error(w, "event is already cancelled", http.StatusBadRequest)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, events.ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toResponse(cr ChangeRequest) changeRequestResponse {
	return changeRequestResponse{
		ID:          cr.ID,
		EventID:     cr.EventID,
		RequesterID: cr.RequesterID,
		RequestType: cr.Type,
		Payload:     cr.Payload,
		Status:      cr.Status,
		CreatedAt:   cr.CreatedAt,
	}
}

// writeJSON duplicado a propósito (ver criterio en events/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
