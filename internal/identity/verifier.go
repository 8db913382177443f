// Package identity talks to the humanID core API. It redeems one-time
// exchange tokens for a stable, opaque user hash and makes no decisions
// beyond that.
package identity

import (
	"context"
	"errors"
)

// ErrVerificationFailed covers every way the exchange can go wrong: the
// core API rejected the token, answered with an unexpected shape, or was
// unreachable. Callers treat all of them as a failed login and never retry.
var ErrVerificationFailed = errors.New("identity: verification failed")

// Verifier redeems a one-time exchange token for the stable identity
// handle of the person behind it.
type Verifier interface {
	Verify(ctx context.Context, exchangeToken string) (identityHandle string, err error)
}
