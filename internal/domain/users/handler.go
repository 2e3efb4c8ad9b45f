package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/users", func(ur chi.Router) {
		ur.Post("/", createUserHandler(svc))
		ur.Get("/", listUsersHandler(svc))
		ur.Get("/{userID}", getUserHandler(svc))
		ur.Patch("/{userID}", updateUserHandler(svc))
	})
}

type createUserRequest struct {
	DisplayName    string   `json:"display_name"`
	Timezone       string   `json:"default_timezone"` // IANA, default UTC
	DNDWindowStart string   `json:"dnd_window_start_local"`
	DNDWindowEnd   string   `json:"dnd_window_end_local"`
	Aliases        []string `json:"aliases"`
}

type updateUserRequest struct {
	DisplayName    *string  `json:"display_name"`
	Timezone       *string  `json:"default_timezone"`
	DNDWindowStart *string  `json:"dnd_window_start_local"`
	DNDWindowEnd   *string  `json:"dnd_window_end_local"`
	Aliases        []string `json:"aliases"`
}

type userResponse struct {
	ID             string    `json:"id"`
	DisplayName    string    `json:"display_name"`
	Timezone       string    `json:"default_timezone"`
	DNDWindowStart string    `json:"dnd_window_start_local,omitempty"`
	DNDWindowEnd   string    `json:"dnd_window_end_local,omitempty"`
	Aliases        []string  `json:"aliases,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// createUserHandler godoc
// @Summary Crear usuario
// @Description Crea un usuario con timezone y ventana DND opcional ("HH:MM", puede cruzar medianoche).
// @Tags users
// @Accept json
// @Produce json
// @Param payload body createUserRequest true "Datos del usuario"
// @Success 201 {object} userResponse
// @Failure 400 {string} string "invalid json / timezone o ventana inválida"
// @Router /users [post]
func createUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.Create(r.Context(), CreateInput{
			DisplayName:    req.DisplayName,
			Timezone:       req.Timezone,
			DNDWindowStart: req.DNDWindowStart,
			DNDWindowEnd:   req.DNDWindowEnd,
			Aliases:        req.Aliases,
		})
		if err != nil {
			writeUserError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toUserResponse(u))
	}
}

// listUsersHandler godoc
// @Summary Listar usuarios
// @Tags users
// @Produce json
// @Success 200 {array} userResponse
// @Router /users [get]
func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toUserResponse(u))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getUserHandler godoc
// @Summary Obtener usuario
// @Tags users
// @Produce json
// @Param userID path string true "ID del usuario"
// @Success 200 {object} userResponse
// @Failure 404 {string} string "user not found"
// @Router /users/{userID} [get]
func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.GetByID(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeUserError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

// updateUserHandler godoc
// @Summary Actualizar preferencias de usuario
// @Description Patch parcial: solo los campos presentes se modifican.
// @Tags users
// @Accept json
// @Produce json
// @Param userID path string true "ID del usuario"
// @Param payload body updateUserRequest true "Campos a cambiar"
// @Success 200 {object} userResponse
// @Failure 400 {string} string "valores inválidos"
// @Failure 404 {string} string "user not found"
// @Router /users/{userID} [patch]
func updateUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.Update(r.Context(), chi.URLParam(r, "userID"), UpdateInput{
			DisplayName:    req.DisplayName,
			Timezone:       req.Timezone,
			DNDWindowStart: req.DNDWindowStart,
			DNDWindowEnd:   req.DNDWindowEnd,
			Aliases:        req.Aliases,
		})
		if err != nil {
			writeUserError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:             u.ID,
		DisplayName:    u.DisplayName,
		Timezone:       u.Timezone,
		DNDWindowStart: u.DNDWindowStart,
		DNDWindowEnd:   u.DNDWindowEnd,
		Aliases:        u.Aliases,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// writeJSON duplicado a propósito (ver criterio en events/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
