package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluenumberfoundation/moviedb-api/internal/session"
	"github.com/bluenumberfoundation/moviedb-api/internal/users"
)

type staticVerifier struct{ handle string }

func (v staticVerifier) Verify(ctx context.Context, exchangeToken string) (string, error) {
	return v.handle, nil
}

func newGate(t *testing.T) (*AuthMiddleware, *session.Manager) {
	t.Helper()

	dir := users.NewMemoryDirectory()
	m := session.NewManager(
		session.NewCodec([]byte("test-secret")),
		dir,
		staticVerifier{handle: "h1"},
		time.Hour,
	)
	return NewAuthMiddleware(m), m
}

func TestRequireAuth_MissingToken(t *testing.T) {
	gate, _ := newGate(t)

	called := false
	h := gate.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/profile", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"unauthorized"}`, rec.Body.String())
	assert.False(t, called)
}

func TestRequireAuth_BadToken(t *testing.T) {
	gate, _ := newGate(t)

	h := gate.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
	req.Header.Set(TokenHeader, "garbage")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_ValidTokenAttachesIdentity(t *testing.T) {
	gate, m := newGate(t)

	sess, err := m.Login(context.Background(), "tok-A")
	require.NoError(t, err)

	var got *session.Identity
	h := gate.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		got = ident
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
	req.Header.Set(TokenHeader, sess.Token)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.NotEmpty(t, got.InternalID)
	assert.NotEmpty(t, got.ExternalID)
}
