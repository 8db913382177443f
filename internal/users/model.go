package users

import (
	"database/sql"
	"time"
)

// User is one end user of the client application, keyed internally by ID
// and publicly by ExternalID.
type User struct {
	ID             string        // surrogate key, never leaves the server
	ExternalID     string        // public identifier handed to API clients
	IdentityHandle string        // opaque humanID user hash, unique, set once
	DisplayName    string        // user-editable
	LastLoginAt    sql.NullInt64 // whole seconds since epoch; NULL = never logged in / logged out
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
