package events

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campuscore/campuscore/internal/authz"
	"github.com/campuscore/campuscore/internal/platform/httpx"
	"github.com/campuscore/campuscore/internal/shared"
)

// Handler manages event endpoints.
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

// MountRoutes registers event routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty, shared.RoleStudent))
		r.Get("/", h.listEvents)
		r.Get("/{id}", h.getEvent)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty))
		r.Post("/", h.createEvent)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRoles(shared.RoleAdmin, shared.RoleFaculty))
		r.Use(h.authz.RequireOwner(authz.KindEvent, "id"))
		r.Put("/{id}", h.updateEvent)
		r.Delete("/{id}", h.deleteEvent)
	})
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	var req ListEventsRequest
	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "from must be RFC 3339")
			return
		}
		req.From = &from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, httpx.CodeValidation, "to must be RFC 3339")
			return
		}
		req.To = &to
	}
	if raw := r.URL.Query().Get("organizer_id"); raw != "" {
		id, err := shared.ParseID(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		req.OrganizerID = &id
	}
	req.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	req.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	out, page, err := h.service.ListEvents(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", map[string]any{"events": out, "pagination": page})
}

func (h *Handler) getEvent(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	event, err := h.service.GetEvent(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "", event)
}

func (h *Handler) createEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FailFields(w, "validation failed", httpx.ValidationFields(err))
		return
	}
	actor := shared.PrincipalFromContext(r.Context())
	event, err := h.service.CreateEvent(r.Context(), actor, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, "event created", event)
}

func (h *Handler) updateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateEventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.FailFields(w, "validation failed", httpx.ValidationFields(err))
		return
	}
	event, err := h.service.UpdateEvent(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "event updated", event)
}

func (h *Handler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteEvent(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, "event deleted", nil)
}
