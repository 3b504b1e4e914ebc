package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/campuscore/campuscore/internal/platform/httpx"
	"github.com/campuscore/campuscore/internal/shared"
)

// Middleware resolves the Authorization header into a request principal.
// Requests without a header pass through anonymous; route guards decide
// whether that is acceptable. A header carrying an unknown or expired token
// is rejected here with 401 so clients learn their credential is stale.
func Middleware(tokens *TokenStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := bearerToken(header)
			if !ok {
				httpx.Fail(w, http.StatusUnauthorized, httpx.CodeNoAuth, "Invalid token")
				return
			}
			p, err := tokens.Resolve(r.Context(), token)
			if err != nil {
				if logger != nil {
					logger.Warn("token resolution failed", slog.String("path", r.URL.Path))
				}
				httpx.Fail(w, http.StatusUnauthorized, httpx.CodeNoAuth, "Invalid token")
				return
			}
			if !p.IsActive {
				httpx.Fail(w, http.StatusUnauthorized, httpx.CodeNoAuth, "Invalid token")
				return
			}
			ctx := shared.ContextWithPrincipal(r.Context(), p)
			ctx = contextWithToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
