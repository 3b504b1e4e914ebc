package assignments

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

// Handler manages assignment, submission and grading endpoints.
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

// MountRoutes registers assignment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty, shared.RoleStudent))
		r.Get("/", h.listAssignments)
		r.Get("/{id}", h.getAssignment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty))
		r.Post("/", h.createAssignment)
		r.Post("/bulk", h.bulkOperate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty))
		r.Use(h.authz.RequireOwner(authz.KindAssignment, "id"))
		r.Put("/{id}", h.updateAssignment)
		r.Post("/{id}/publish", h.publish)
		r.Post("/{id}/close", h.close)
		r.Delete("/{id}", h.deleteAssignment)
		r.Get("/{id}/submissions", h.listSubmissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleStudent))
		r.Post("/{id}/submissions", h.submit)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty, shared.RoleStudent))
		r.Use(h.authz.RequireOwner(authz.KindSubmission, "submissionID"))
		r.Get("/submissions/{submissionID}", h.getSubmission)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty))
		r.Use(h.authz.RequireOwner(authz.KindSubmission, "submissionID"))
		r.Post("/submissions/{submissionID}/grade", h.grade)
	})
}

func (h *Handler) listAssignments(w http.ResponseWriter, r *http.Request) {
	var req ListAssignmentsRequest
	if raw := r.URL.Query().Get("course_id"); raw != "" {
		id, err := shared.ParseID(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		req.CourseID = &id
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := Status(raw)
		req.Status = &status
	}
	req.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	req.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	actor := shared.PrincipalFromContext(r.Context())
	out, page, err := h.service.ListAssignments(r.Context(), actor, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", map[string]any{"assignments": out, "pagination": page})
}

func (h *Handler) getAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	assignment, err := h.service.GetAssignment(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", assignment)
}

func (h *Handler) createAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FailFields(w, "validation failed", httpx.ValidationFields(err))
		return
	}
	actor := shared.PrincipalFromContext(r.Context())
	assignment, err := h.service.CreateAssignment(r.Context(), actor, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, "assignment created", assignment)
}

func (h *Handler) updateAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateAssignmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FailFields(w, "validation failed", httpx.ValidationFields(err))
		return
	}
	assignment, err := h.service.UpdateAssignment(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "assignment updated", assignment)
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Publish(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "assignment published", nil)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Close(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "assignment closed", nil)
}

func (h *Handler) deleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteAssignment(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "assignment deleted", nil)
}

func (h *Handler) bulkOperate(w http.ResponseWriter, r *http.Request) {
	var req bulk.Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	key := r.Header.Get("Idempotency-Key")
	if key != "" && h.idem != nil {
		if err := h.idem.CheckAndInsert(r.Context(), key, "assignments"); err != nil {
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
	h.metrics.RecordBulk("assignments", len(result.Succeeded), len(result.Failed))
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

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req SubmitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FailFields(w, "validation failed", httpx.ValidationFields(err))
		return
	}
	actor := shared.PrincipalFromContext(r.Context())
	submission, err := h.service.Submit(r.Context(), actor, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, "submission recorded", submission)
}

func (h *Handler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.ListSubmissions(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", map[string]any{"submissions": out})
}

func (h *Handler) getSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "submissionID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	submission, err := h.service.GetSubmission(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", submission)
}

func (h *Handler) grade(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "submissionID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req GradeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FailFields(w, "validation failed", httpx.ValidationFields(err))
		return
	}
	actor := shared.PrincipalFromContext(r.Context())
	submission, err := h.service.Grade(r.Context(), actor, id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "submission graded", submission)
}
