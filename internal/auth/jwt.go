package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 7 * 24 * time.Hour

var ErrMissingSecret = errors.New("jwt signing secret is not set")

type TokenErrorKind int

const (
	// TokenMalformed covers bad structure, wrong algorithm, bad signature
	// and missing claims.
	TokenMalformed TokenErrorKind = iota + 1
	// TokenExpired means the signature verified but exp has passed.
	TokenExpired
)

func (k TokenErrorKind) String() string {
	switch k {
	case TokenExpired:
		return "expired"
	default:
		return "malformed"
	}
}

type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return "token " + e.Kind.String() + ": " + e.Err.Error()
	}
	return "token " + e.Kind.String()
}

func (e *TokenError) Unwrap() error { return e.Err }

// IsTokenExpired reports whether err is a TokenError of kind TokenExpired.
func IsTokenExpired(err error) bool {
	var te *TokenError
	return errors.As(err, &te) && te.Kind == TokenExpired
}

type claims struct {
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens. It holds no
// session state, so a token stays valid until it expires.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &TokenService{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
		// expiry is checked by Verify against s.now after the signature
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

func (s *TokenService) TTL() time.Duration { return s.ttl }

func (s *TokenService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("empty userID passed to Issue")
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	return token.SignedString(s.secret)
}

// Verify returns the subject user id of a valid token, or a *TokenError.
func (s *TokenService) Verify(tokenString string) (string, error) {
	c := &claims{}

	_, err := s.parser.ParseWithClaims(tokenString, c, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", &TokenError{Kind: TokenMalformed, Err: err}
	}

	if c.Subject == "" {
		return "", &TokenError{Kind: TokenMalformed, Err: errors.New("missing subject claim")}
	}
	if c.ExpiresAt == nil {
		return "", &TokenError{Kind: TokenMalformed, Err: errors.New("missing exp claim")}
	}
	if !s.now().Before(c.ExpiresAt.Time) {
		return "", &TokenError{Kind: TokenExpired}
	}

	return c.Subject, nil
}
