package auth

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrDuplicateCredential = errors.New("email or username already registered")
)

// UserRepository defines the data-access contract.
// Create must enforce email/username uniqueness atomically and report a
// violation as ErrDuplicateCredential. Finders return ErrUserNotFound.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error)
}
