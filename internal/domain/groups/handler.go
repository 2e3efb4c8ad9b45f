package groups

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
	r.Route("/groups", func(gr chi.Router) {
		gr.Post("/", createGroupHandler(svc))
		gr.Get("/", listGroupsHandler(svc))
		gr.Get("/{groupID}", getGroupHandler(svc))
		gr.Post("/{groupID}/members", addMemberHandler(svc))
		gr.Get("/{groupID}/members", listMembersHandler(svc))
		gr.Delete("/{groupID}/members/{userID}", removeMemberHandler(svc))
	})
}

type createGroupRequest struct {
	Name string `json:"name"`
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role" enums:"admin,member"`
}

type groupResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

type memberResponse struct {
	GroupID  string    `json:"group_id"`
	UserID   string    `json:"user_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// createGroupHandler godoc
// @Summary Crear grupo
// @Description Crea un grupo; el usuario autenticado queda como admin.
// @Tags groups
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param payload body createGroupRequest true "Nombre del grupo"
// @Success 201 {object} groupResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Router /groups [post]
func createGroupHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createGroupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.Create(r.Context(), req.Name, claims.UserID)
		if err != nil {
			writeGroupError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toGroupResponse(g))
	}
}

// listGroupsHandler godoc
// @Summary Listar grupos
// @Tags groups
// @Produce json
// @Success 200 {array} groupResponse
// @Router /groups [get]
func listGroupsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]groupResponse, 0, len(items))
		for _, g := range items {
			out = append(out, toGroupResponse(g))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getGroupHandler godoc
// @Summary Obtener grupo
// @Tags groups
// @Produce json
// @Param groupID path string true "ID del grupo"
// @Success 200 {object} groupResponse
// @Failure 404 {string} string "group not found"
// @Router /groups/{groupID} [get]
func getGroupHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := svc.GetByID(r.Context(), chi.URLParam(r, "groupID"))
		if err != nil {
			writeGroupError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGroupResponse(g))
	}
}

// addMemberHandler godoc
// @Summary Agregar miembro al grupo
// @Tags groups
// @Accept json
// @Produce json
// @Param groupID path string true "ID del grupo"
// @Param payload body addMemberRequest true "Usuario y rol"
// @Success 201 {object} memberResponse
// @Failure 400 {string} string "rol inválido"
// @Failure 404 {string} string "group not found"
// @Router /groups/{groupID}/members [post]
func addMemberHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addMemberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		m, err := svc.AddMember(r.Context(), chi.URLParam(r, "groupID"), req.UserID, Role(req.Role))
		if err != nil {
			writeGroupError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toMemberResponse(m))
	}
}

// listMembersHandler godoc
// @Summary Listar miembros del grupo
// @Tags groups
// @Produce json
// @Param groupID path string true "ID del grupo"
// @Success 200 {array} memberResponse
// @Failure 404 {string} string "group not found"
// @Router /groups/{groupID}/members [get]
func listMembersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListMembers(r.Context(), chi.URLParam(r, "groupID"))
		if err != nil {
			writeGroupError(w, err)
			return
		}
		out := make([]memberResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMemberResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// removeMemberHandler godoc
// @Summary Quitar miembro del grupo
// @Tags groups
// @Param groupID path string true "ID del grupo"
// @Param userID path string true "ID del usuario"
// @Success 204 {string} string "sin contenido"
// @Failure 404 {string} string "group not found"
// @Router /groups/{groupID}/members/{userID} [delete]
func removeMemberHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.RemoveMember(r.Context(), chi.URLParam(r, "groupID"), chi.URLParam(r, "userID")); err != nil {
			writeGroupError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeGroupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "group not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toGroupResponse(g Group) groupResponse {
	return groupResponse{ID: g.ID, Name: g.Name, CreatedBy: g.CreatedBy, CreatedAt: g.CreatedAt}
}

func toMemberResponse(m Member) memberResponse {
	return memberResponse{GroupID: m.GroupID, UserID: m.UserID, Role: m.Role, JoinedAt: m.JoinedAt}
}

// writeJSON duplicado a propósito (ver criterio en events/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
