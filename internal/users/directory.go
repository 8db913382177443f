package users

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("users: not found")

// Directory is the user store the session layer runs against. It is the
// ONLY holder of cross-request state: session validity is re-derived from
// the last_login_at column rather than looked up anywhere.
type Directory interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	FindByIdentityHandle(ctx context.Context, handle string) (*User, error)

	// Create inserts a new user and returns it with ID and timestamps set.
	Create(ctx context.Context, u *User) (*User, error)

	// RecordLogin sets last_login_at to the given whole-second timestamp.
	// Advancing it invalidates every previously minted session token.
	RecordLogin(ctx context.Context, id string, atSeconds int64) error

	// ClearLogin resets last_login_at to the unset sentinel (logout).
	ClearLogin(ctx context.Context, id string) error

	UpdateDisplayName(ctx context.Context, id string, name string) error
}
