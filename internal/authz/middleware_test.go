package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscore/campuscore/internal/shared"
)

type stubResolver struct {
	refs map[int64]ResourceRef
}

func (s *stubResolver) Resolve(ctx context.Context, kind Kind, id int64) (ResourceRef, error) {
	ref, ok := s.refs[id]
	if !ok {
		return ResourceRef{}, shared.ErrNotFound
	}
	return ref, nil
}

func newTestRouter(mw Middleware) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireRoles(shared.RoleAdmin, shared.RoleFaculty))
		r.Get("/admin-only", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireOwner(KindCourse, "id"))
		r.Get("/courses/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, path string, p *shared.Principal) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if p != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), p))
	}
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func TestRequireRolesStatusMapping(t *testing.T) {
	h := newTestRouter(Middleware{Resolver: &stubResolver{}})

	res := doRequest(t, h, "/admin-only", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = doRequest(t, h, "/admin-only", &shared.Principal{ID: 1, Role: shared.RoleStudent})
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = doRequest(t, h, "/admin-only", &shared.Principal{ID: 1, Role: shared.RoleFaculty})
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestRequireOwnerStatusMapping(t *testing.T) {
	resolver := &stubResolver{refs: map[int64]ResourceRef{
		10: {ID: 10, OwnerID: 2, MemberIDs: []int64{5}},
	}}
	h := newTestRouter(Middleware{Resolver: resolver})

	instructor := &shared.Principal{ID: 2, Role: shared.RoleFaculty}
	enrolled := &shared.Principal{ID: 5, Role: shared.RoleStudent}
	outsider := &shared.Principal{ID: 9, Role: shared.RoleStudent}
	admin := &shared.Principal{ID: 1, Role: shared.RoleAdmin}

	require.Equal(t, http.StatusOK, doRequest(t, h, "/courses/10", instructor).Code)
	require.Equal(t, http.StatusOK, doRequest(t, h, "/courses/10", enrolled).Code)
	require.Equal(t, http.StatusForbidden, doRequest(t, h, "/courses/10", outsider).Code)
	require.Equal(t, http.StatusOK, doRequest(t, h, "/courses/10", admin).Code)

	// Malformed id answers 400, missing resource 404 — the caller can tell
	// the two apart.
	require.Equal(t, http.StatusBadRequest, doRequest(t, h, "/courses/abc", outsider).Code)
	require.Equal(t, http.StatusNotFound, doRequest(t, h, "/courses/123", outsider).Code)

	require.Equal(t, http.StatusUnauthorized, doRequest(t, h, "/courses/10", nil).Code)
}
