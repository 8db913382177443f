package middleware

import (
	"context"
	"net/http"

	"github.com/bluenumberfoundation/moviedb-api/internal/session"
)

// TokenHeader carries the session token on every authenticated call. The
// token is opaque to clients.
const TokenHeader = "X-Access-Token"

// unexported, collision-proof context key
type identityContextKeyType struct{}

var identityKey = identityContextKeyType{}

// IdentityFromContext extracts the validated session identity from context.
func IdentityFromContext(ctx context.Context) (*session.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(*session.Identity)
	return ident, ok
}

// AuthMiddleware is the request gate: it re-derives session validity on
// every request through the session manager; there is no session store to
// consult.
type AuthMiddleware struct {
	Sessions *session.Manager
}

func NewAuthMiddleware(sessions *session.Manager) *AuthMiddleware {
	return &AuthMiddleware{Sessions: sessions}
}

func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(TokenHeader)

		ident, err := a.Sessions.Validate(r.Context(), token)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"unauthorized"}`))
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, ident)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
