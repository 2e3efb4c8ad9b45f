package agent

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"group-calendar/internal/middleware"
)

func RegisterRoutes(r chi.Router, a *Agent) {
	r.Post("/agent/chat", chatHandler(a))
}

type chatRequest struct {
	GroupID string    `json:"group_id"`
	Message string    `json:"message"`
	History []Message `json:"history"`
}

// chatHandler godoc
// @Summary      Conversar con el asistente de agenda
// @Description  Envía un mensaje al agente; puede consultar disponibilidad y mutar eventos en nombre del usuario autenticado.
// @Tags         agent
// @Accept       json
// @Produce      json
// @Param        payload body chatRequest true "Mensaje"
// @Success      200 {object} Result
// @Failure      400 {object} map[string]string
// @Failure      401 {object} map[string]string
// @Router       /agent/chat [post]
func chatHandler(a *Agent) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "missing identity"})
			return
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json body"})
			return
		}

		result, err := a.Run(r.Context(), RunInput{
			UserID:  claims.UserID,
			GroupID: req.GroupID,
			Message: req.Message,
			History: req.History,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"message": "message is required"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal error"})
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// writeJSON duplicado a propósito: cada módulo mantiene su helper para
// no acoplar handlers entre dominios.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
