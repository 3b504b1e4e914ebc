package users

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/campuscore/campuscore/internal/authz"
	"github.com/campuscore/campuscore/internal/shared"
)

type recordingGuard struct {
	inserted []string
	deleted  []string
}

func (g *recordingGuard) CheckAndInsert(ctx context.Context, key, module string) error {
	g.inserted = append(g.inserted, key)
	return nil
}

func (g *recordingGuard) Delete(ctx context.Context, key string) error {
	g.deleted = append(g.deleted, key)
	return nil
}

func newTestHandler(repo *mockRepository, guard shared.IdempotencyGuard) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, newTestService(repo), authz.Middleware{Logger: logger}, guard, nil)
	r := chi.NewRouter()
	r.Route("/users", h.MountRoutes)
	return r
}

func doAdminRequest(t *testing.T, handler http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for name, values := range header {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), &shared.Principal{ID: 999, Role: shared.RoleAdmin}))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestBulkCreateRespondsOK(t *testing.T) {
	handler := newTestHandler(newMockRepository(), nil)

	body := `{"users":[{"first_name":"Ada","last_name":"Lovelace","role":"student","password":"changeme123"}]}`
	res := doAdminRequest(t, handler, http.MethodPost, "/users/bulk-create", body, nil)

	assert.Equal(t, http.StatusOK, res.Code, "bulk create reports per-item outcomes, not a single creation")
	assert.Contains(t, res.Body.String(), "bulk create completed")
}

func TestBulkRejectionReleasesIdempotencyKey(t *testing.T) {
	guard := &recordingGuard{}
	handler := newTestHandler(newMockRepository(), guard)
	header := http.Header{"Idempotency-Key": []string{"batch-1"}}

	res := doAdminRequest(t, handler, http.MethodPost, "/users/bulk", `{"operation":"explode","target_ids":[1]}`, header)

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, []string{"batch-1"}, guard.inserted)
	assert.Equal(t, []string{"batch-1"}, guard.deleted, "a rejected batch must free its key for the corrected retry")
}

func TestBulkSuccessKeepsIdempotencyKey(t *testing.T) {
	repo := newMockRepository()
	guard := &recordingGuard{}
	handler := newTestHandler(repo, guard)
	ids := seedUsers(t, repo, 1)
	header := http.Header{"Idempotency-Key": []string{"batch-2"}}

	body := fmt.Sprintf(`{"operation":"suspend","target_ids":[%d]}`, ids[0])
	res := doAdminRequest(t, handler, http.MethodPost, "/users/bulk", body, header)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, []string{"batch-2"}, guard.inserted)
	assert.Empty(t, guard.deleted, "a processed batch keeps its key to block replays")
}
