package courses

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

// Handler manages course endpoints.
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

// MountRoutes registers course routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty, shared.RoleStudent))
		r.Get("/", h.listCourses)
		r.Get("/{id}", h.getCourse)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty))
		r.Post("/", h.createCourse)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty))
		r.Use(h.authz.RequireOwner(authz.KindCourse, "id"))
		r.Put("/{id}", h.updateCourse)
		r.Post("/{id}/archive", h.archiveCourse)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin))
		r.Delete("/{id}", h.deleteCourse)
	})
}

func (h *Handler) listCourses(w http.ResponseWriter, r *http.Request) {
	req := ListCoursesRequest{
		Term:   r.URL.Query().Get("term"),
		Search: r.URL.Query().Get("search"),
	}
	if raw := r.URL.Query().Get("instructor_id"); raw != "" {
		id, err := shared.ParseID(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		req.InstructorID = &id
	}
	if raw := r.URL.Query().Get("archived"); raw != "" {
		archived := raw == "true"
		req.Archived = &archived
	}
	req.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	req.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	courses, page, err := h.service.ListCourses(r.Context(), req)
	if err != nil {
		h.logger.Error("list courses failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", map[string]any{"courses": courses, "pagination": page})
}

func (h *Handler) getCourse(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	course, err := h.service.GetCourse(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", course)
}

func (h *Handler) createCourse(w http.ResponseWriter, r *http.Request) {
	var req CreateCourseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FailFields(w, "validation failed", httpx.ValidationFields(err))
		return
	}
	actor := shared.PrincipalFromContext(r.Context())
	course, err := h.service.CreateCourse(r.Context(), actor, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, "course created", course)
}

func (h *Handler) updateCourse(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateCourseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FailFields(w, "validation failed", httpx.ValidationFields(err))
		return
	}
	course, err := h.service.UpdateCourse(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "course updated", course)
}

func (h *Handler) archiveCourse(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.ArchiveCourse(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "course archived", nil)
}

func (h *Handler) deleteCourse(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteCourse(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "course deleted", nil)
}
