package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryDirectory is an in-memory Directory with the same observable
// semantics as the postgres one. Used by tests and local runs without a
// database.
type MemoryDirectory struct {
	mu    sync.Mutex
	users map[string]*User // keyed by internal id
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[string]*User)}
}

func (d *MemoryDirectory) FindByID(ctx context.Context, id string) (*User, error) {
	return d.findBy(func(u *User) bool { return u.ID == id })
}

func (d *MemoryDirectory) FindByExternalID(ctx context.Context, externalID string) (*User, error) {
	return d.findBy(func(u *User) bool { return u.ExternalID == externalID })
}

func (d *MemoryDirectory) FindByIdentityHandle(ctx context.Context, handle string) (*User, error) {
	return d.findBy(func(u *User) bool { return u.IdentityHandle == handle })
}

func (d *MemoryDirectory) findBy(match func(*User) bool) (*User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, u := range d.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (d *MemoryDirectory) Create(ctx context.Context, u *User) (*User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	cp := *u
	cp.ID = uuid.NewString()
	cp.CreatedAt = now
	cp.UpdatedAt = now

	d.users[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (d *MemoryDirectory) RecordLogin(ctx context.Context, id string, atSeconds int64) error {
	return d.update(id, func(u *User) {
		u.LastLoginAt.Int64 = atSeconds
		u.LastLoginAt.Valid = true
	})
}

func (d *MemoryDirectory) ClearLogin(ctx context.Context, id string) error {
	return d.update(id, func(u *User) {
		u.LastLoginAt.Int64 = 0
		u.LastLoginAt.Valid = false
	})
}

func (d *MemoryDirectory) UpdateDisplayName(ctx context.Context, id string, name string) error {
	return d.update(id, func(u *User) {
		u.DisplayName = name
	})
}

func (d *MemoryDirectory) update(id string, apply func(*User)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[id]
	if !ok {
		return ErrNotFound
	}

	apply(u)
	u.UpdatedAt = time.Now()
	return nil
}

// Len reports the number of stored users. Test helper.
func (d *MemoryDirectory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.users)
}
