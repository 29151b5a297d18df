package company

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/incroft/staffdir/internal/platform/httpx"
	"github.com/incroft/staffdir/internal/shared"
)

// Handler exposes company profile endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers company routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/profile", h.profile)
	r.Put("/profile", h.updateProfile)
	r.Get("/kv-assets/{key}", h.kvAsset)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Profile(r.Context(), shared.PrincipalFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in Profile
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, shared.WrapError(shared.CodeBadUserInput, "malformed request body", err))
		return
	}
	profile, err := h.service.UpdateProfile(r.Context(), shared.PrincipalFromContext(r.Context()), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) kvAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := h.service.KVAsset(r.Context(), shared.PrincipalFromContext(r.Context()), chi.URLParam(r, "key"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, asset)
}
