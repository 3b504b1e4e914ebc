package enrollments

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campuscore/campuscore/internal/authz"
	"github.com/campuscore/campuscore/internal/bulk"
	"github.com/campuscore/campuscore/internal/observability"
	"github.com/campuscore/campuscore/internal/platform/httpx"
	"github.com/campuscore/campuscore/internal/shared"
)

// Handler manages enrollment endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	authz    authz.Middleware
	idem     shared.IdempotencyGuard
	metrics  *observability.Metrics
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware, idem shared.IdempotencyGuard, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, idem: idem, metrics: metrics, validate: validator.New()}
}

// MountRoutes registers enrollment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty, shared.RoleStudent))
		r.Get("/", h.listEnrollments)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleStudent))
		r.Post("/", h.enroll)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty, shared.RoleStudent))
		r.Use(h.authz.RequireOwner(authz.KindEnrollment, "id"))
		r.Get("/{id}", h.getEnrollment)
		r.Post("/{id}/drop", h.drop)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty))
		r.Use(h.authz.RequireOwner(authz.KindEnrollment, "id"))
		r.Post("/{id}/complete", h.complete)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty))
		r.Post("/bulk", h.bulkOperate)
	})
}

func (h *Handler) listEnrollments(w http.ResponseWriter, r *http.Request) {
	var req ListEnrollmentsRequest
	if raw := r.URL.Query().Get("course_id"); raw != "" {
		id, err := shared.ParseID(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		req.CourseID = &id
	}
	if raw := r.URL.Query().Get("student_id"); raw != "" {
		id, err := shared.ParseID(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		req.StudentID = &id
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := Status(raw)
		req.Status = &status
	}
	req.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	req.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	actor := shared.PrincipalFromContext(r.Context())
	out, page, err := h.service.ListEnrollments(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("list enrollments failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", map[string]any{"enrollments": out, "pagination": page})
}

func (h *Handler) enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FailFields(w, "validation failed", httpx.ValidationFields(err))
		return
	}
	actor := shared.PrincipalFromContext(r.Context())
	enrollment, err := h.service.Enroll(r.Context(), actor, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, "enrolled", enrollment)
}

func (h *Handler) getEnrollment(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	enrollment, err := h.service.GetEnrollment(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", enrollment)
}

func (h *Handler) drop(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Drop(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "enrollment dropped", nil)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Complete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "enrollment completed", nil)
}

func (h *Handler) bulkOperate(w http.ResponseWriter, r *http.Request) {
	var req bulk.Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	key := r.Header.Get("Idempotency-Key")
	if key != "" && h.idem != nil {
		if err := h.idem.CheckAndInsert(r.Context(), key, "enrollments"); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	actor := shared.PrincipalFromContext(r.Context())
	result, err := h.service.Bulk(r.Context(), actor, req)
	if err != nil {
		h.releaseKey(r.Context(), key)
		httpx.RespondError(w, err)
		return
	}
	h.metrics.RecordBulk("enrollments", len(result.Succeeded), len(result.Failed))
	httpx.OK(w, "bulk operation completed", result)
}

// releaseKey frees the idempotency key after a rejected batch so the
// corrected retry can reuse it.
func (h *Handler) releaseKey(ctx context.Context, key string) {
	if key == "" || h.idem == nil {
		return
	}
	if err := h.idem.Delete(ctx, key); err != nil {
		h.logger.Warn("release idempotency key", slog.Any("error", err))
	}
}
