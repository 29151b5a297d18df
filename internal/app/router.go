package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/incroft/staffdir/internal/auth"
	"github.com/incroft/staffdir/internal/category"
	"github.com/incroft/staffdir/internal/company"
	"github.com/incroft/staffdir/internal/observability"
	"github.com/incroft/staffdir/internal/users"
	"github.com/incroft/staffdir/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Verifier        *auth.Verifier
	AuthHandler     *auth.Handler
	UsersHandler    *users.Handler
	CategoryHandler *category.Handler
	CompanyHandler  *company.Handler
	JobsHandler     *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router. Health and metrics endpoints stay
// outside the project-token gate; everything under /api is inside it.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(ProjectTokenMiddleware(params.Config.ProjectToken))
		r.Use(PrincipalMiddleware(params.Verifier, params.Metrics))

		r.Route("/auth", params.AuthHandler.MountRoutes)
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.CategoryHandler != nil {
			r.Route("/categories", params.CategoryHandler.MountRoutes)
		}
		if params.CompanyHandler != nil {
			r.Route("/company", params.CompanyHandler.MountRoutes)
		}
		if params.JobsHandler != nil {
			r.Route("/jobs", params.JobsHandler.MountRoutes)
		}
	})

	return r
}
