package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonathan/preflight/internal/config"
	"github.com/jonathan/preflight/internal/server/middleware"
)

// Claims represents backoffice token claims. Groups holds the names of
// the editor's user groups.
type Claims struct {
	Groups []string `json:"groups,omitempty"`
	jwt.RegisteredClaims
}

// JWTService validates the tokens the CMS backoffice issues to editors.
type JWTService struct {
	config *config.JWTConfig
}

// NewJWTService creates a new JWT service with the given configuration.
func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{config: cfg}
}

// GenerateToken signs a token for subject carrying groups.
func (s *JWTService) GenerateToken(subject string, groups []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Groups: groups,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates a token and returns the caller's identity.
// This implements middleware.TokenValidator.
func (s *JWTService) ValidateToken(tokenString string) (middleware.Identity, error) {
	if tokenString == "" {
		return middleware.Identity{}, fmt.Errorf("token string is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithLeeway(s.config.Leeway))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrSignatureInvalid), errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return middleware.Identity{}, fmt.Errorf("invalid token signature: %w", err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return middleware.Identity{}, fmt.Errorf("token expired: %w", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return middleware.Identity{}, fmt.Errorf("malformed token: %w", err)
		}
		return middleware.Identity{}, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return middleware.Identity{}, fmt.Errorf("token is not valid")
	}

	return middleware.Identity{Subject: claims.Subject, Groups: claims.Groups}, nil
}
