package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bluenumberfoundation/moviedb-api/internal/identity"
	"github.com/bluenumberfoundation/moviedb-api/internal/users"
)

// ErrUnauthorized covers every way a presented token can fail: bad or
// expired signature, unknown user, or a fingerprint minted against an
// older login state.
var ErrUnauthorized = errors.New("session: unauthorized")

// Session is a freshly minted credential.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Identity is the resolved owner of a validated session.
type Identity struct {
	InternalID string
	ExternalID string
}

// LogoutOutcome distinguishes a real logout from one presented with an
// already-invalid session, which is deliberately treated as success.
type LogoutOutcome int

const (
	LogoutOK LogoutOutcome = iota
	LogoutIgnoredInvalidSession
)

func (o LogoutOutcome) String() string {
	if o == LogoutIgnoredInvalidSession {
		return "session_already_invalid"
	}
	return "logged_out"
}

// Manager orchestrates the session lifecycle against the identity verifier
// and the user directory. It holds no session state of its own.
type Manager struct {
	codec     *Codec
	directory users.Directory
	verifier  identity.Verifier
	ttl       time.Duration
	now       func() time.Time
}

func NewManager(codec *Codec, directory users.Directory, verifier identity.Verifier, ttl time.Duration) *Manager {
	return &Manager{
		codec:     codec,
		directory: directory,
		verifier:  verifier,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Login redeems a one-time humanID exchange token, finds or creates the
// user behind it, and rotates that user's session. Verification failures
// surface as identity.ErrVerificationFailed and are never retried here.
func (m *Manager) Login(ctx context.Context, exchangeToken string) (*Session, error) {
	handle, err := m.verifier.Verify(ctx, exchangeToken)
	if err != nil {
		return nil, err
	}

	user, err := m.directory.FindByIdentityHandle(ctx, handle)
	switch {
	case errors.Is(err, users.ErrNotFound):
		user, err = m.createUser(ctx, handle)
		if err != nil {
			return nil, err
		}
		log.Info().Str("external_id", user.ExternalID).Msg("first login, user created")
	case err != nil:
		return nil, err
	}

	return m.RotateSession(ctx, user.ID, user.ExternalID)
}

func (m *Manager) createUser(ctx context.Context, handle string) (*users.User, error) {
	// The public id is the current time in whole seconds, as the original
	// service assigned it. Two first-time logins in the same second can
	// collide on the unique index; known weakness, kept rather than fixed.
	externalID := strconv.FormatInt(m.now().Unix(), 10)

	return m.directory.Create(ctx, &users.User{
		ExternalID:     externalID,
		IdentityHandle: handle,
		DisplayName:    "guest-" + externalID,
	})
}

// RotateSession is the single-active-session policy. Advancing
// last_login_at changes the fingerprint every outstanding token was minted
// against, so each rotation (login or refresh) invalidates all prior
// tokens for the user. Concurrent rotations race benignly: the last write
// wins and the loser's token is silently dead.
func (m *Manager) RotateSession(ctx context.Context, internalID, externalID string) (*Session, error) {
	now := m.now().Truncate(time.Second)
	marker := now.Unix()

	if err := m.directory.RecordLogin(ctx, internalID, marker); err != nil {
		return nil, err
	}

	fingerprint := m.codec.DeriveFingerprint(externalID, marker)

	token, expiresAt, err := m.codec.MintToken(externalID, fingerprint, now, m.ttl)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

// Refresh reissues a session for an already-validated caller.
func (m *Manager) Refresh(ctx context.Context, internalID, externalID string) (*Session, error) {
	return m.RotateSession(ctx, internalID, externalID)
}

// Validate checks the token's signature and expiry, then recomputes the
// fingerprint from the user's current login state and compares it to the
// one the token was minted with. A mismatch means the session was rotated
// away or logged out since.
func (m *Manager) Validate(ctx context.Context, token string) (*Identity, error) {
	payload, err := m.codec.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	user, err := m.directory.FindByExternalID(ctx, payload.ExternalID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user", ErrUnauthorized)
		}
		return nil, err
	}

	marker := NoLoginMarker
	if user.LastLoginAt.Valid {
		marker = user.LastLoginAt.Int64
	}

	current := m.codec.DeriveFingerprint(user.ExternalID, marker)
	if subtle.ConstantTimeCompare([]byte(current), []byte(payload.Fingerprint)) != 1 {
		return nil, fmt.Errorf("%w: stale session", ErrUnauthorized)
	}

	return &Identity{InternalID: user.ID, ExternalID: user.ExternalID}, nil
}

// Logout clears the caller's login state, which kills every outstanding
// token for the user. A token that no longer validates is not an error:
// logging out of a dead session must look like success to the client, so
// that path is reported as LogoutIgnoredInvalidSession instead.
func (m *Manager) Logout(ctx context.Context, token string) (LogoutOutcome, error) {
	ident, err := m.Validate(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			log.Debug().Err(err).Msg("logout with invalid session ignored")
			return LogoutIgnoredInvalidSession, nil
		}
		return 0, err
	}

	if err := m.directory.ClearLogin(ctx, ident.InternalID); err != nil {
		return 0, err
	}

	return LogoutOK, nil
}
