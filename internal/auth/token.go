package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"marketplace/pkg/status"
)

var (
	ErrMissingToken   = errors.New("missing token")
	ErrMissingKey     = errors.New("missing signing secret")
	ErrInvalidSubject = errors.New("token subject is not a user id")
)

type Claims struct {
	jwt.RegisteredClaims

	Role string `json:"role"`
}

// Identity is the authenticated caller resolved from a session token.
type Identity struct {
	UserID    string
	Role      status.Role
	ExpiresAt time.Time
}

// VerifyToken validates an HS256 session token and returns the caller identity.
// The subject must be a user uuid and the role must be known. When audience is
// set the token must also carry it.
func VerifyToken(tokenString, secret, audience string, now time.Time) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	if secret == "" {
		return nil, ErrMissingKey
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	claims := &Claims{}
	tok, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token | %w", err)
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return nil, fmt.Errorf("missing subject in token")
	}
	uid, err := uuid.Parse(subject)
	if err != nil {
		return nil, ErrInvalidSubject
	}

	role, err := status.ParseRole(claims.Role)
	if err != nil {
		return nil, err
	}

	return &Identity{
		UserID:    uid.String(),
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// IssueToken signs a session token for userID. Used by dev tooling and tests;
// production tokens come from the identity provider sharing the secret.
func IssueToken(secret, audience, userID string, role status.Role, now time.Time, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingKey
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(role),
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
