package user

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryDirectory keeps users in a map. Writes to the same key are last-write-wins.
// It backs DB_DRIVER=memory and the service tests.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]User
	now   func() time.Time
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		users: make(map[string]User),
		now:   time.Now,
	}
}

func (d *MemoryDirectory) EmailExists(_ context.Context, email string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.users[email]
	return ok, nil
}

func (d *MemoryDirectory) Create(_ context.Context, u *User) (*User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[u.Email]; ok {
		return nil, ErrDuplicateEmail
	}

	now := d.now().UTC()
	stored := User{
		ID:           uuid.New(),
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.users[u.Email] = stored

	return &stored, nil
}

func (d *MemoryDirectory) FindByEmail(_ context.Context, email string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (d *MemoryDirectory) SetVerified(_ context.Context, email string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[email]
	if !ok {
		return false, nil
	}
	u.EmailVerified = true
	u.UpdatedAt = d.now().UTC()
	d.users[email] = u
	return true, nil
}

func (d *MemoryDirectory) UpdatePassword(_ context.Context, email, passwordHash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[email]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = d.now().UTC()
	d.users[email] = u
	return nil
}
