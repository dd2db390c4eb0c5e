package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// --- Error Definitions ---
var (
	ErrTokenGeneration = errors.New("failed to generate session token")
)

// Session is an established anonymous identity. Every data operation is
// gated on one of these existing first.
type Session struct {
	Subject string `json:"subject"`
	Token   string `json:"token"`
}

// --- Service Interface ---
type SessionService interface {
	// Establish mints a new anonymous session with a generated subject id.
	Establish() (*Session, error)
}

// sessionService implements the SessionService interface.
type sessionService struct {
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewSessionService creates a new instance of sessionService.
func NewSessionService(jwtSecret string, jwtExpiration time.Duration) SessionService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = 24 * time.Hour
	}
	return &sessionService{
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Establish issues an anonymous session token. There are no credentials:
// identity exists only to scope trips to their creator and to gate data
// operations behind an established session.
func (s *sessionService) Establish() (*Session, error) {
	subject := uuid.NewString()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, ErrTokenGeneration
	}
	return &Session{Subject: subject, Token: signed}, nil
}
