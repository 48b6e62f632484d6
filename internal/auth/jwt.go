package auth

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	svcErr "github.com/onikinet/oniki-match/internal/errors"
)

var (
	ErrTokenExpired = fmt.Errorf("token expired: %w", svcErr.ErrUnauthenticated)
	ErrTokenInvalid = fmt.Errorf("token invalid: %w", svcErr.ErrUnauthenticated)
)

type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`

	jwtlib.RegisteredClaims
}

// TokenService issues and validates HS256 access tokens.
type TokenService struct {
	secret    []byte
	issuer    string
	expiresIn time.Duration

	now func() time.Time
}

func NewTokenService(secret, issuer string, expiresIn time.Duration) *TokenService {
	return &TokenService{
		secret:    []byte(secret),
		issuer:    issuer,
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

// Issue signs a token for userID.
func (s *TokenService) Issue(userID, email, role string) (string, error) {
	if len(s.secret) == 0 || s.expiresIn <= 0 || userID == "" {
		return "", ErrTokenInvalid
	}
	now := s.now().UTC()
	c := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.expiresIn)),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString(s.secret)
}

// Validate parses tokenString and returns the session it carries.
func (s *TokenService) Validate(tokenString string) (Session, error) {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
		jwtlib.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(s.issuer))
	}

	var c Claims
	tok, err := jwtlib.NewParser(opts...).ParseWithClaims(tokenString, &c, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return Session{}, ErrTokenExpired
		}
		return Session{}, ErrTokenInvalid
	}
	if tok == nil || !tok.Valid || c.Subject == "" {
		return Session{}, ErrTokenInvalid
	}
	return Session{UserID: c.Subject, Email: c.Email, Role: c.Role}, nil
}
