package blogs

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campuscore/campuscore/internal/authz"
	"github.com/campuscore/campuscore/internal/platform/httpx"
	"github.com/campuscore/campuscore/internal/shared"
)

// Handler manages blog endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	authz    authz.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, validate: validator.New()}
}

// MountRoutes registers blog routes. Any authenticated role may write.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty, shared.RoleStudent))
		r.Get("/", h.listPosts)
		r.Get("/{id}", h.getPost)
		r.Post("/", h.createPost)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty, shared.RoleStudent))
		r.Use(h.authz.RequireOwner(authz.KindBlog, "id"))
		r.Put("/{id}", h.updatePost)
		r.Post("/{id}/publish", h.publish)
		r.Post("/{id}/unpublish", h.unpublish)
		r.Delete("/{id}", h.deletePost)
	})
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	var req ListPostsRequest
	if raw := r.URL.Query().Get("author_id"); raw != "" {
		id, err := shared.ParseID(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		req.AuthorID = &id
	}
	if raw := r.URL.Query().Get("published"); raw != "" {
		published := raw == "true"
		req.Published = &published
	}
	req.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	req.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	actor := shared.PrincipalFromContext(r.Context())
	out, page, err := h.service.ListPosts(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("list posts failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", map[string]any{"posts": out, "pagination": page})
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor := shared.PrincipalFromContext(r.Context())
	post, err := h.service.GetPost(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", post)
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FailFields(w, "validation failed", httpx.ValidationFields(err))
		return
	}
	actor := shared.PrincipalFromContext(r.Context())
	post, err := h.service.CreatePost(r.Context(), actor, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, "post created", post)
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdatePostRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FailFields(w, "validation failed", httpx.ValidationFields(err))
		return
	}
	post, err := h.service.UpdatePost(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "post updated", post)
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
	httpx.OK(w, "post published", nil)
}

func (h *Handler) unpublish(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Unpublish(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "post unpublished", nil)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeletePost(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "post deleted", nil)
}
