// Package session implements the stateless session protocol: a keyed
// fingerprint derived from the user's current login state, carried inside
// a signed time-limited token. Validity is re-derived on every request;
// nothing is stored per session.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// NoLoginMarker is the last-login sentinel for a user who has never logged
// in or has logged out.
const NoLoginMarker int64 = -1

var (
	// ErrSessionExpired: signature checks out but the token is past its
	// expiry.
	ErrSessionExpired = errors.New("session: expired")

	// ErrSessionInvalid: missing, malformed, or failed signature.
	ErrSessionInvalid = errors.New("session: invalid")
)

type sessionData struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Data sessionData `json:"data"`
}

// Payload is the verified content of a session token.
type Payload struct {
	ExternalID  string
	Fingerprint string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Codec builds and verifies session tokens. It is pure: no clock beyond
// expiry validation, no storage, no side effects.
type Codec struct {
	secret []byte
}

func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret}
}

// DeriveFingerprint computes the keyed one-way fingerprint binding a token
// to a user's login state. The marker is the user's last_login_at in whole
// seconds, or NoLoginMarker. Any change to the marker changes the
// fingerprint, which is what invalidates outstanding tokens without a
// revocation list.
func (c *Codec) DeriveFingerprint(externalID string, marker int64) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(externalID))
	mac.Write([]byte(strconv.FormatInt(marker, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// MintToken signs a token carrying the external id and fingerprint.
// Timestamps are truncated to whole seconds.
func (c *Codec) MintToken(externalID, fingerprint string, issuedAt time.Time, ttl time.Duration) (string, time.Time, error) {
	issuedAt = issuedAt.Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Data: sessionData{
			UserID:    externalID,
			SessionID: fingerprint,
		},
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// ParseToken verifies signature and expiry and returns the embedded
// payload. Expiry with a good signature is ErrSessionExpired; every other
// failure is ErrSessionInvalid.
func (c *Codec) ParseToken(tokenString string) (*Payload, error) {
	if tokenString == "" {
		return nil, ErrSessionInvalid
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrSessionInvalid
	}

	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, ErrSessionInvalid
	}
	if claims.Data.UserID == "" || claims.Data.SessionID == "" {
		return nil, ErrSessionInvalid
	}

	return &Payload{
		ExternalID:  claims.Data.UserID,
		Fingerprint: claims.Data.SessionID,
		IssuedAt:    claims.IssuedAt.Time,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
