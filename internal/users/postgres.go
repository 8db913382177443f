package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bluenumberfoundation/moviedb-api/internal/db"
)

// PostgresDirectory is the canonical Directory backed by the users table.
type PostgresDirectory struct {
	db *db.DB
}

func NewPostgresDirectory(db *db.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

const userColumns = `id, external_id, identity_handle, display_name, last_login_at, created_at, updated_at`

func (d *PostgresDirectory) FindByID(ctx context.Context, id string) (*User, error) {
	return d.findBy(ctx, "id", id)
}

func (d *PostgresDirectory) FindByExternalID(ctx context.Context, externalID string) (*User, error) {
	return d.findBy(ctx, "external_id", externalID)
}

func (d *PostgresDirectory) FindByIdentityHandle(ctx context.Context, handle string) (*User, error) {
	return d.findBy(ctx, "identity_handle", handle)
}

func (d *PostgresDirectory) findBy(ctx context.Context, column, value string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)

	u := &User{}
	err := d.db.QueryRowContext(ctx, query, value).Scan(
		&u.ID,
		&u.ExternalID,
		&u.IdentityHandle,
		&u.DisplayName,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return u, nil
}

func (d *PostgresDirectory) Create(ctx context.Context, u *User) (*User, error) {
	query := `
		INSERT INTO users (external_id, identity_handle, display_name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := d.db.QueryRowContext(ctx, query,
		u.ExternalID, u.IdentityHandle, u.DisplayName,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return u, nil
}

func (d *PostgresDirectory) RecordLogin(ctx context.Context, id string, atSeconds int64) error {
	return d.update(ctx, id, `
		UPDATE users SET last_login_at = $2, updated_at = NOW()
		WHERE id = $1
	`, atSeconds)
}

func (d *PostgresDirectory) ClearLogin(ctx context.Context, id string) error {
	return d.update(ctx, id, `
		UPDATE users SET last_login_at = NULL, updated_at = NOW()
		WHERE id = $1
	`)
}

func (d *PostgresDirectory) UpdateDisplayName(ctx context.Context, id string, name string) error {
	return d.update(ctx, id, `
		UPDATE users SET display_name = $2, updated_at = NOW()
		WHERE id = $1
	`, name)
}

func (d *PostgresDirectory) update(ctx context.Context, id, query string, args ...any) error {
	res, err := d.db.ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}
