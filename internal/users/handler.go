package users

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/incroft/staffdir/internal/platform/httpx"
	"github.com/incroft/staffdir/internal/shared"
)

// Handler exposes the directory endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers directory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.paginated)
	r.Get("/all", h.listAll)
	r.Get("/by-email", h.byEmail)
	r.Get("/by-field", h.byField)
	r.Get("/{id}", h.byID)
	r.Get("/{id}/profile", h.profile)
	r.Put("/{id}", h.edit)
	r.Delete("/{id}", h.remove)
	r.Post("/{id}/disable", h.disable)
	r.Post("/{id}/enable", h.enable)
}

func (h *Handler) paginated(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := PaginatedUsersInput{
		After:   q.Get("after"),
		Sort:    q.Get("sort"),
		SortBy:  q.Get("sort_by"),
		EmpCode: q.Get("emp_code"),
		Name:    q.Get("name"),
		Email:   q.Get("email"),
		Phone:   q.Get("phone"),
		Role:    q.Get("role"),
	}
	if raw := q.Get("first"); raw != "" {
		first, err := strconv.Atoi(raw)
		if err != nil {
			httpx.RespondError(w, shared.WrapError(shared.CodeBadUserInput, "first must be an integer", err))
			return
		}
		in.First = first
	}
	in.IncludeDisabled = q.Get("include_disabled") == "true"

	var ids []string
	if raw := q.Get("ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}

	conn, err := h.service.Paginated(r.Context(), shared.PrincipalFromContext(r.Context()), ids, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, conn)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListAll(r.Context(), shared.PrincipalFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) byID(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.ByID(r.Context(), shared.PrincipalFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.ProfileByID(r.Context(), shared.PrincipalFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) byEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		httpx.RespondError(w, shared.NewError(shared.CodeBadUserInput, "email query parameter is required"))
		return
	}
	u, err := h.service.ByEmail(r.Context(), shared.PrincipalFromContext(r.Context()), email)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) byField(w http.ResponseWriter, r *http.Request) {
	in := ByFieldInput{Field: r.URL.Query().Get("field"), Value: r.URL.Query().Get("value")}
	list, err := h.service.ByField(r.Context(), shared.PrincipalFromContext(r.Context()), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	var in EditUserInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, shared.WrapError(shared.CodeBadUserInput, "malformed request body", err))
		return
	}
	in.ID = chi.URLParam(r, "id")
	u, err := h.service.Edit(r.Context(), shared.PrincipalFromContext(r.Context()), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.Delete(r.Context(), shared.PrincipalFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *Handler) disable(w http.ResponseWriter, r *http.Request) {
	h.setDisabled(w, r, true)
}

func (h *Handler) enable(w http.ResponseWriter, r *http.Request) {
	h.setDisabled(w, r, false)
}

func (h *Handler) setDisabled(w http.ResponseWriter, r *http.Request, disabled bool) {
	changed, err := h.service.SetDisabled(r.Context(), shared.PrincipalFromContext(r.Context()), chi.URLParam(r, "id"), disabled)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"changed": changed})
}
