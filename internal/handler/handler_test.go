package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluenumberfoundation/moviedb-api/internal/identity"
	"github.com/bluenumberfoundation/moviedb-api/internal/middleware"
	"github.com/bluenumberfoundation/moviedb-api/internal/session"
	"github.com/bluenumberfoundation/moviedb-api/internal/users"
)

const testClientSecret = "test-client-secret"

type fakeVerifier struct {
	handle string
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(ctx context.Context, exchangeToken string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.handle, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T, verifier identity.Verifier) (*gin.Engine, *users.MemoryDirectory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := users.NewMemoryDirectory()
	sessions := session.NewManager(
		session.NewCodec([]byte("test-secret")),
		dir,
		verifier,
		time.Hour,
	)

	h := NewHandler(sessions, dir, testClientSecret)
	gate := middleware.GinRequireAuth(middleware.NewAuthMiddleware(sessions))

	router := gin.New()
	h.RegisterRoutes(router, gate)

	return router, dir
}

func doRequest(router *gin.Engine, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func login(t *testing.T, router *gin.Engine) (token string) {
	t.Helper()

	rec, env := doRequest(router, http.MethodPost, "/auth/login",
		`{"exchangeToken":"tok-A"}`,
		map[string]string{ClientSecretHeader: testClientSecret},
	)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	var data struct {
		Token     string `json:"token"`
		ExpiresAt int64  `json:"expiresAt"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	require.Greater(t, data.ExpiresAt, time.Now().Unix())

	return data.Token
}

func TestLogin_WrongClientSecretNeverReachesVerifier(t *testing.T) {
	verifier := &fakeVerifier{handle: "h1"}
	router, _ := newTestRouter(t, verifier)

	rec, env := doRequest(router, http.MethodPost, "/auth/login",
		`{"exchangeToken":"tok-A"}`,
		map[string]string{ClientSecretHeader: "wrong"},
	)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, 0, verifier.calls)
}

func TestLogin_MissingExchangeToken(t *testing.T) {
	verifier := &fakeVerifier{handle: "h1"}
	router, _ := newTestRouter(t, verifier)

	for _, body := range []string{``, `{}`, `{"exchangeToken":""}`} {
		rec, env := doRequest(router, http.MethodPost, "/auth/login",
			body,
			map[string]string{ClientSecretHeader: testClientSecret},
		)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		assert.False(t, env.Success)
	}
	assert.Equal(t, 0, verifier.calls)
}

func TestLogin_VerifierRejection(t *testing.T) {
	verifier := &fakeVerifier{err: identity.ErrVerificationFailed}
	router, dir := newTestRouter(t, verifier)

	rec, env := doRequest(router, http.MethodPost, "/auth/login",
		`{"exchangeToken":"tok-bad"}`,
		map[string]string{ClientSecretHeader: testClientSecret},
	)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "identity verification failed", env.Error)
	assert.Equal(t, 0, dir.Len())
}

func TestLoginProfileLogoutScenario(t *testing.T) {
	verifier := &fakeVerifier{handle: "h1"}
	router, _ := newTestRouter(t, verifier)

	token := login(t, router)

	// Profile is readable with the fresh token and carries the generated
	// display name.
	rec, env := doRequest(router, http.MethodGet, "/users/profile", "",
		map[string]string{middleware.TokenHeader: token},
	)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile struct {
		UserID      string `json:"userId"`
		DisplayName string `json:"displayName"`
		UpdatedAt   int64  `json:"updatedAt"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "guest-"+profile.UserID, profile.DisplayName)
	assert.NotZero(t, profile.UpdatedAt)

	// Logout succeeds...
	rec, env = doRequest(router, http.MethodPost, "/auth/logout", "",
		map[string]string{middleware.TokenHeader: token},
	)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"logged_out"}`, string(env.Data))

	// ...and the token is dead afterwards, well before its stated expiry.
	rec, _ = doRequest(router, http.MethodGet, "/users/profile", "",
		map[string]string{middleware.TokenHeader: token},
	)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A second logout with the dead token still reports success.
	rec, env = doRequest(router, http.MethodPost, "/auth/logout", "",
		map[string]string{middleware.TokenHeader: token},
	)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"session_already_invalid"}`, string(env.Data))
}

func TestRefresh_IssuesWorkingSession(t *testing.T) {
	verifier := &fakeVerifier{handle: "h1"}
	router, _ := newTestRouter(t, verifier)

	token := login(t, router)

	rec, env := doRequest(router, http.MethodPost, "/auth/refresh", "",
		map[string]string{middleware.TokenHeader: token},
	)
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Token     string `json:"token"`
		ExpiresAt int64  `json:"expiresAt"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	assert.Greater(t, data.ExpiresAt, time.Now().Unix())

	rec, _ = doRequest(router, http.MethodGet, "/users/profile", "",
		map[string]string{middleware.TokenHeader: data.Token},
	)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefresh_RequiresValidSession(t *testing.T) {
	verifier := &fakeVerifier{handle: "h1"}
	router, _ := newTestRouter(t, verifier)

	rec, _ := doRequest(router, http.MethodPost, "/auth/refresh", "",
		map[string]string{middleware.TokenHeader: "garbage"},
	)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateProfile(t *testing.T) {
	verifier := &fakeVerifier{handle: "h1"}
	router, dir := newTestRouter(t, verifier)

	token := login(t, router)

	rec, _ := doRequest(router, http.MethodPut, "/users/profile",
		`{"displayName":""}`,
		map[string]string{middleware.TokenHeader: token},
	)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doRequest(router, http.MethodPut, "/users/profile",
		`{"displayName":"Ada"}`,
		map[string]string{middleware.TokenHeader: token},
	)
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := dir.FindByIdentityHandle(context.Background(), "h1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.DisplayName)

	// Display-name updates do not touch login state: the token stays valid.
	rec, _ = doRequest(router, http.MethodGet, "/users/profile", "",
		map[string]string{middleware.TokenHeader: token},
	)
	assert.Equal(t, http.StatusOK, rec.Code)
}
