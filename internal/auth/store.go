package auth

import (
	"context"
	"fmt"
)

// CredentialStore is the only path by which passwords reach a repository.
// Hashing happens here, explicitly, before any write.
type CredentialStore struct {
	repo   UserRepository
	hasher *PasswordHasher
}

func NewCredentialStore(repo UserRepository, hasher *PasswordHasher) *CredentialStore {
	return &CredentialStore{repo: repo, hasher: hasher}
}

func (s *CredentialStore) FindByID(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.FindByEmail(ctx, email)
}

func (s *CredentialStore) FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error) {
	return s.repo.FindByEmailOrUsername(ctx, email, username)
}

func (s *CredentialStore) Create(ctx context.Context, nu NewUser) (*User, error) {
	hash, err := s.hasher.Hash(nu.Password)
	if err != nil {
		return nil, err
	}

	role := nu.Role
	if role == "" {
		role = RoleUser
	}

	user := &User{
		Username:     nu.Username,
		Email:        nu.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Save writes user back. The hash is recomputed only when pw.Changed is
// set, so an already-hashed value is never hashed twice.
func (s *CredentialStore) Save(ctx context.Context, user *User, pw PasswordChange) error {
	if pw.Changed {
		hash, err := s.hasher.Hash(pw.Plaintext)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("save user %s: %w", user.ID, err)
	}
	return nil
}

// VerifyPassword checks plaintext against the user's stored hash.
func (s *CredentialStore) VerifyPassword(user *User, plaintext string) bool {
	if user == nil {
		s.hasher.VerifyDummy(plaintext)
		return false
	}
	return s.hasher.Verify(plaintext, user.PasswordHash)
}
