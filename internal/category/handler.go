package category

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/incroft/staffdir/internal/platform/httpx"
	"github.com/incroft/staffdir/internal/shared"
)

// Handler exposes taxonomy endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers taxonomy routes. Departments and designations share
// the mutation endpoints; the listing routes fix the type.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/departments", h.listType(TypeDepartment))
	r.Get("/designations", h.listType(TypeDesignation))
	r.Post("/", h.create)
	r.Put("/", h.update)
	r.Delete("/", h.remove)
}

func (h *Handler) listType(categoryType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := Filter{ID: r.URL.Query().Get("id"), Search: r.URL.Query().Get("search")}
		list, err := h.service.List(r.Context(), shared.PrincipalFromContext(r.Context()), categoryType, f)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, list)
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, shared.WrapError(shared.CodeBadUserInput, "malformed request body", err))
		return
	}
	c, err := h.service.Create(r.Context(), shared.PrincipalFromContext(r.Context()), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, shared.WrapError(shared.CodeBadUserInput, "malformed request body", err))
		return
	}
	c, err := h.service.Update(r.Context(), shared.PrincipalFromContext(r.Context()), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	var in DeleteInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, shared.WrapError(shared.CodeBadUserInput, "malformed request body", err))
		return
	}
	deleted, err := h.service.Delete(r.Context(), shared.PrincipalFromContext(r.Context()), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}
