package users

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

// Handler manages user management endpoints.
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

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty))
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.getUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin))
		r.Post("/", h.createUser)
		r.Post("/bulk-create", h.bulkCreate)
		r.Post("/bulk", h.bulkOperate)
		r.Put("/{id}/role", h.updateRole)
		r.Post("/{id}/activate", h.activate)
		r.Post("/{id}/suspend", h.suspend)
		r.Delete("/{id}", h.deleteUser)
	})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	req := ListUsersRequest{Search: r.URL.Query().Get("search")}
	if raw := r.URL.Query().Get("role"); raw != "" {
		role := shared.Role(raw)
		req.Role = &role
	}
	if raw := r.URL.Query().Get("is_active"); raw != "" {
		active := raw == "true"
		req.IsActive = &active
	}
	req.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	req.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	users, page, err := h.service.ListUsers(r.Context(), req)
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", map[string]any{"users": users, "pagination": page})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", user)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FailFields(w, "validation failed", httpx.ValidationFields(err))
		return
	}
	user, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, "user created", user)
}

func (h *Handler) bulkCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Users []CreateUserRequest `json:"users"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	for _, req := range body.Users {
		if err := h.validate.Struct(req); err != nil {
			httpx.FailFields(w, "validation failed", httpx.ValidationFields(err))
			return
		}
	}
	result, err := h.service.BulkCreate(r.Context(), body.Users)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "bulk create completed", result)
}

func (h *Handler) bulkOperate(w http.ResponseWriter, r *http.Request) {
	var req bulk.Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	key := r.Header.Get("Idempotency-Key")
	if key != "" && h.idem != nil {
		if err := h.idem.CheckAndInsert(r.Context(), key, "users"); err != nil {
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
	h.metrics.RecordBulk("users", len(result.Succeeded), len(result.Failed))
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

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var body struct {
		Role shared.Role `json:"role"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.UpdateRole(r.Context(), id, body.Role); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "role updated", nil)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Activate(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "user activated", nil)
}

func (h *Handler) suspend(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.PrincipalFromContext(r.Context())
	if err := h.service.Suspend(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "user suspended", nil)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "user deleted", nil)
}
