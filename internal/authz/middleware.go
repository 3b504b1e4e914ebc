package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campuscore/campuscore/internal/platform/httpx"
	"github.com/campuscore/campuscore/internal/shared"
)

// RefResolver abstracts ownership lookups for the middleware.
type RefResolver interface {
	Resolve(ctx context.Context, kind Kind, id int64) (ResourceRef, error)
}

// Middleware wires the guards into chi route groups.
type Middleware struct {
	Resolver RefResolver
	Logger   *slog.Logger
}

// RequireRoles gates a route group on the principal's role. Anonymous
// requests answer 401, authenticated but insufficient ones 403.
func (m Middleware) RequireRoles(roles ...shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := shared.PrincipalFromContext(r.Context())
			if d := RequireRole(p, roles...); !d.Allowed {
				m.deny(w, r, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwner gates a route group on ownership of the resource addressed by
// the given path parameter. The role check has already run when this is
// stacked after RequireRoles, so only the ownership lookup remains.
func (m Middleware) RequireOwner(kind Kind, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := shared.PrincipalFromContext(r.Context())
			if p == nil {
				m.deny(w, r, Deny(ReasonNoAuth))
				return
			}
			id, err := shared.ParseID(chi.URLParam(r, param))
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			// Admins skip the lookup entirely.
			if p.Role == shared.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}
			ref, err := m.Resolver.Resolve(r.Context(), kind, id)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			if d := RequireOwnership(p, ref); !d.Allowed {
				m.deny(w, r, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, d Decision) {
	if m.Logger != nil {
		m.Logger.Warn("authorization denied",
			slog.String("path", r.URL.Path),
			slog.String("reason", string(d.Reason)))
	}
	httpx.RespondError(w, d.Err())
}
