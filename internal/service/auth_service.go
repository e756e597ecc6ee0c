package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ujianku/practice-exam-backend/internal/config"
)

// TokenTypeParticipant is the only token kind this service issues.
const TokenTypeParticipant = "participant"

// Claims extends JWT standard claims with the exam session binding.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// AuthService issues and validates session-scoped JWTs. A token is minted at
// login and required for every exam endpoint.
type AuthService struct {
	cfg *config.Config
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg}
}

// GenerateSessionToken creates a JWT bound to the given exam session.
func (s *AuthService) GenerateSessionToken(sessionID uuid.UUID, userID string) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType: TokenTypeParticipant,
		SessionID: sessionID.String(),
		UserID:    userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// SessionUUID parses the session id carried by the claims.
func (c *Claims) SessionUUID() (uuid.UUID, error) {
	return uuid.Parse(c.SessionID)
}
