package notices

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

// Handler manages notice endpoints.
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

// MountRoutes registers notice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty, shared.RoleStudent))
		r.Get("/", h.listNotices)
		r.Get("/{id}", h.getNotice)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty))
		r.Post("/", h.createNotice)
		r.Post("/bulk", h.bulkOperate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty))
		r.Use(h.authz.RequireOwner(authz.KindNotice, "id"))
		r.Put("/{id}", h.updateNotice)
		r.Post("/{id}/publish", h.publish)
		r.Post("/{id}/archive", h.archive)
		r.Delete("/{id}", h.deleteNotice)
	})
}

func (h *Handler) listNotices(w http.ResponseWriter, r *http.Request) {
	var req ListNoticesRequest
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := Status(raw)
		req.Status = &status
	}
	if raw := r.URL.Query().Get("audience"); raw != "" {
		req.Audiences = []Audience{Audience(raw)}
	}
	req.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	req.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	actor := shared.PrincipalFromContext(r.Context())
	out, page, err := h.service.ListNotices(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("list notices failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", map[string]any{"notices": out, "pagination": page})
}

func (h *Handler) getNotice(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.PrincipalFromContext(r.Context())
	notice, err := h.service.GetNotice(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", notice)
}

func (h *Handler) createNotice(w http.ResponseWriter, r *http.Request) {
	var req CreateNoticeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FailFields(w, "validation failed", httpx.ValidationFields(err))
		return
	}
	actor := shared.PrincipalFromContext(r.Context())
	notice, err := h.service.CreateNotice(r.Context(), actor, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, "notice created", notice)
}

func (h *Handler) updateNotice(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateNoticeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FailFields(w, "validation failed", httpx.ValidationFields(err))
		return
	}
	notice, err := h.service.UpdateNotice(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "notice updated", notice)
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
	httpx.OK(w, "notice published", nil)
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Archive(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "notice archived", nil)
}

func (h *Handler) deleteNotice(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteNotice(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "notice deleted", nil)
}

func (h *Handler) bulkOperate(w http.ResponseWriter, r *http.Request) {
	var req bulk.Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	key := r.Header.Get("Idempotency-Key")
	if key != "" && h.idem != nil {
		if err := h.idem.CheckAndInsert(r.Context(), key, "notices"); err != nil {
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
	h.metrics.RecordBulk("notices", len(result.Succeeded), len(result.Failed))
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
