package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"incidentlog/internal/apperr"
	"incidentlog/internal/auth"
)

const (
	msgNoToken       = "access denied, no token provided"
	msgBadHeader     = "invalid authorization format, use 'Bearer <token>'"
	msgTokenExpired  = "token expired, please login again"
	msgTokenInvalid  = "invalid token"
	msgUserNotFound  = "invalid token, user not found"
	msgAuthFailed    = "authentication failed"
	msgAuthRequired  = "authentication required"
	msgAdminRequired = "access denied, admin privileges required"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserFinder looks a user up by id and returns auth.ErrUserNotFound when
// the account no longer exists.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*auth.User, error)
}

// Gate authenticates requests. Required rejects anything without a usable
// token, Optional never rejects, RequireAdmin runs after Required.
type Gate struct {
	tokens TokenVerifier
	users  UserFinder
	log    *slog.Logger
}

func NewGate(tokens TokenVerifier, users UserFinder, log *slog.Logger) *Gate {
	return &Gate{tokens: tokens, users: users, log: log}
}

func (g *Gate) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := g.resolve(c)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		// Attach user info to request context
		auth.SetCurrentUser(c, user)
		c.Next()
	}
}

func (g *Gate) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := g.resolve(c)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindInternal {
				g.log.WarnContext(c.Request.Context(), "optional auth lookup failed", "error", err)
			}
			c.Next()
			return
		}

		auth.SetCurrentUser(c, user)
		c.Next()
	}
}

func (g *Gate) RequireAdmin() gin.HandlerFunc {
	return RequireRole(auth.RoleAdmin)
}

func (g *Gate) resolve(c *gin.Context) (*auth.User, error) {
	token, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		return nil, err
	}

	userID, err := g.tokens.Verify(token)
	if err != nil {
		if auth.IsTokenExpired(err) {
			return nil, apperr.Unauthenticated(msgTokenExpired)
		}
		return nil, apperr.Unauthenticated(msgTokenInvalid)
	}

	user, err := g.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, apperr.Unauthenticated(msgUserNotFound)
		}
		return nil, apperr.Internal(msgAuthFailed, err)
	}
	return user, nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperr.Unauthenticated(msgNoToken)
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", apperr.Unauthenticated(msgBadHeader)
	}
	return parts[1], nil
}
