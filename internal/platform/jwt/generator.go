package jwtmw

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the role claim required by AdminRequired.
const RoleAdmin = "admin"

// Generator defines the interface for JWT token generation.
type Generator interface {
	// GenerateToken creates a signed admin token for the given subject.
	GenerateToken(subject string) (string, error)
}

// TokenGenerator implements the Generator interface.
type TokenGenerator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

var _ Generator = (*TokenGenerator)(nil)

// NewGenerator creates a new JWT generator with the provided secret and expiration duration.
func NewGenerator(secret string, expiration time.Duration) *TokenGenerator {
	return &TokenGenerator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// GenerateToken creates a signed JWT token carrying the admin role.
func (g *TokenGenerator) GenerateToken(subject string) (string, error) {
	if len(g.secret) == 0 {
		return "", fmt.Errorf("jwt secret is empty")
	}
	now := g.now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": RoleAdmin,
		"iat":  now.Unix(),
		"exp":  now.Add(g.expiration).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
