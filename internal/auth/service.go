package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"incidentlog/internal/apperr"
)

const msgInvalidCredentials = "invalid email or password"

type RegisterInput struct {
	Username string `validate:"required,min=3,max=50"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=6,max=72"`
	Role     Role
}

// Service orchestrates registration, login and account changes.
// Every error it returns is an *apperr.Error.
type Service struct {
	store    *CredentialStore
	tokens   *TokenService
	validate *validator.Validate
	log      *slog.Logger
}

func NewService(store *CredentialStore, tokens *TokenService, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		tokens:   tokens,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// REGISTER
//
// actor is the caller's identity when the request carried a valid token,
// nil otherwise. Only an admin actor may create another admin.
func (s *Service) Register(ctx context.Context, in RegisterInput, actor *User) (*AuthResult, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, apperr.Validation("username, email, and password are required")
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, apperr.Validation("validation failed", validationDetails(err)...)
	}

	if in.Role == "" {
		in.Role = RoleUser
	}
	if !in.Role.Valid() {
		return nil, apperr.Validation("validation failed", "role must be one of: user, admin")
	}
	if in.Role == RoleAdmin && !actor.IsAdmin() {
		return nil, apperr.Forbidden("admin privileges required to assign the admin role")
	}

	_, err := s.store.FindByEmailOrUsername(ctx, in.Email, in.Username)
	switch {
	case err == nil:
		return nil, apperr.Duplicate("user with this email or username already exists")
	case !errors.Is(err, ErrUserNotFound):
		return nil, apperr.Internal("registration failed", err)
	}

	user, err := s.store.Create(ctx, NewUser{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
		Role:     in.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateCredential):
			// lost a race with a concurrent registration
			return nil, apperr.Duplicate("user with this email or username already exists")
		case errors.Is(err, ErrPasswordTooLong):
			return nil, apperr.Validation("validation failed", "password must be at most 72 bytes")
		}
		return nil, apperr.Internal("registration failed", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.Internal("registration failed", err)
	}

	s.log.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return &AuthResult{User: user, Token: token}, nil
}

// LOGIN
//
// Unknown email and wrong password produce the same error, and both paths
// run one bcrypt comparison.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.store.VerifyPassword(nil, password)
			return nil, apperr.Unauthenticated(msgInvalidCredentials)
		}
		return nil, apperr.Internal("login failed", err)
	}

	if !s.store.VerifyPassword(user, password) {
		return nil, apperr.Unauthenticated(msgInvalidCredentials)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.Internal("login failed", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *Service) ChangePassword(ctx context.Context, user *User, current, next string) error {
	if user == nil {
		return apperr.Unauthenticated("authentication required")
	}
	if current == "" || next == "" {
		return apperr.Validation("current_password and new_password are required")
	}
	if err := s.validate.Var(next, "min=6,max=72"); err != nil {
		return apperr.Validation("validation failed", "new_password must be between 6 and 72 characters")
	}
	if !s.store.VerifyPassword(user, current) {
		return apperr.Unauthenticated("current password is incorrect")
	}

	if err := s.store.Save(ctx, user, PasswordChange{Changed: true, Plaintext: next}); err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			return apperr.Validation("validation failed", "new_password must be at most 72 bytes")
		}
		return apperr.Internal("password change failed", err)
	}

	s.log.InfoContext(ctx, "password changed", "user_id", user.ID)
	return nil
}

// SetRole grants or revokes admin. The caller must already be an admin.
func (s *Service) SetRole(ctx context.Context, actor *User, userID string, role Role) (*User, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("access denied, admin privileges required")
	}
	if !role.Valid() {
		return nil, apperr.Validation("validation failed", "role must be one of: user, admin")
	}

	target, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal("role update failed", err)
	}

	target.Role = role
	if err := s.store.Save(ctx, target, NoPasswordChange); err != nil {
		return nil, apperr.Internal("role update failed", err)
	}

	s.log.InfoContext(ctx, "role updated", "user_id", target.ID, "role", role, "by", actor.ID)
	return target, nil
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			details = append(details, field+" is required")
		case "email":
			details = append(details, field+" must be a valid email address")
		case "min":
			details = append(details, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			details = append(details, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			details = append(details, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}
	return details
}
