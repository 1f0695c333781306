package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type InMemoryUserRepository struct {
	mu         sync.RWMutex
	byID       map[string]*User
	byEmail    map[string]string
	byUsername map[string]string
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		byID:       make(map[string]*User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return ErrDuplicateCredential
	}
	if _, ok := r.byUsername[user.Username]; ok {
		return ErrDuplicateCredential
	}

	// Generate UUID if not already set
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	stored := *user
	r.byID[stored.ID] = &stored
	r.byEmail[stored.Email] = stored.ID
	r.byUsername[stored.Username] = stored.ID
	return nil
}

func (r *InMemoryUserRepository) Update(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	if id, ok := r.byEmail[user.Email]; ok && id != user.ID {
		return ErrDuplicateCredential
	}
	if id, ok := r.byUsername[user.Username]; ok && id != user.ID {
		return ErrDuplicateCredential
	}

	delete(r.byEmail, current.Email)
	delete(r.byUsername, current.Username)

	stored := *user
	r.byID[stored.ID] = &stored
	r.byEmail[stored.Email] = stored.ID
	r.byUsername[stored.Username] = stored.ID
	return nil
}

// Delete removes a user. Accounts are never deleted through the API; tests
// use it to simulate an account removed after a token was issued.
func (r *InMemoryUserRepository) Delete(ctx context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.byID[id]; ok {
		delete(r.byEmail, u.Email)
		delete(r.byUsername, u.Username)
		delete(r.byID, id)
	}
}

func (r *InMemoryUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	found := *u
	return &found, nil
}

func (r *InMemoryUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	found := *r.byID[id]
	return &found, nil
}

func (r *InMemoryUserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		id, ok = r.byUsername[username]
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	found := *r.byID[id]
	return &found, nil
}
