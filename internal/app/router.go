package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/campuscore/campuscore/internal/assignments"
	"github.com/campuscore/campuscore/internal/auth"
	"github.com/campuscore/campuscore/internal/blogs"
	"github.com/campuscore/campuscore/internal/courses"
	"github.com/campuscore/campuscore/internal/enrollments"
	"github.com/campuscore/campuscore/internal/events"
	"github.com/campuscore/campuscore/internal/notices"
	"github.com/campuscore/campuscore/internal/observability"
	"github.com/campuscore/campuscore/internal/users"
	"github.com/campuscore/campuscore/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AuthMiddleware func(http.Handler) http.Handler

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	CoursesHandler     *courses.Handler
	EnrollmentsHandler *enrollments.Handler
	AssignmentsHandler *assignments.Handler
	NoticesHandler     *notices.Handler
	EventsHandler      *events.Handler
	BlogsHandler       *blogs.Handler

	JobHandler *jobs.Handler
	Metrics    *observability.Metrics
}

// NewRouter constructs the chi.Router with CampusCore defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Auth:    params.AuthMiddleware,
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

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/courses", params.CoursesHandler.MountRoutes)
		r.Route("/enrollments", params.EnrollmentsHandler.MountRoutes)
		r.Route("/assignments", params.AssignmentsHandler.MountRoutes)
		r.Route("/notices", params.NoticesHandler.MountRoutes)
		r.Route("/events", params.EventsHandler.MountRoutes)
		r.Route("/blogs", params.BlogsHandler.MountRoutes)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
