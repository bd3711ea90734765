package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/streamjoy/streamjoy/internal/database"
)

const (
	// SessionDuration is how long admin sessions last
	SessionDuration = 7 * 24 * time.Hour
)

var (
	// ErrNotConfigured is returned when no admin secret is configured.
	// It is deliberately distinct from ErrInvalidCredentials so a missing
	// deployment secret is never reported as a wrong password.
	ErrNotConfigured = errors.New("no admin password configured")

	// ErrInvalidCredentials is returned when the supplied secret does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Session represents an admin session
type Session struct {
	ID        string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Service verifies the admin secret and manages sessions.
type Service struct {
	db     *database.DB
	secret string
}

// NewService creates an auth service. secret is the expected admin secret
// from process configuration; it may be empty (login then always fails with
// ErrNotConfigured) or a bcrypt hash.
func NewService(db *database.DB, secret string) *Service {
	return &Service{db: db, secret: strings.TrimSpace(secret)}
}

// Configured reports whether an admin secret is set. It never reveals
// anything about the secret itself.
func (s *Service) Configured() bool {
	return s.secret != ""
}

// Verify checks a candidate secret against the configured one. Values are
// compared trimmed. The configured secret is never included in any error.
func (s *Service) Verify(candidate string) error {
	if s.secret == "" {
		return ErrNotConfigured
	}

	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return ErrInvalidCredentials
	}

	// A bcrypt-hashed secret lets deployments keep the plaintext out of the
	// environment entirely.
	if strings.HasPrefix(s.secret, "$2a$") || strings.HasPrefix(s.secret, "$2b$") || strings.HasPrefix(s.secret, "$2y$") {
		if err := bcrypt.CompareHashAndPassword([]byte(s.secret), []byte(candidate)); err != nil {
			return ErrInvalidCredentials
		}
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(candidate), []byte(s.secret)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// CreateSession creates a new admin session
func (s *Service) CreateSession() (*Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(SessionDuration)

	_, err = s.db.Exec(`
		INSERT INTO sessions (id, expires_at, created_at)
		VALUES (?, ?, ?)
	`, sessionID, expiresAt, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &Session{
		ID:        sessionID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// GetSession retrieves a session by ID. Expired sessions are deleted and
// reported as absent.
func (s *Service) GetSession(sessionID string) (*Session, error) {
	session := &Session{}
	err := s.db.QueryRow(`
		SELECT id, expires_at, created_at
		FROM sessions WHERE id = ?
	`, sessionID).Scan(&session.ID, &session.ExpiresAt, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		if err := s.DeleteSession(sessionID); err != nil {
			return nil, fmt.Errorf("failed to delete expired session: %w", err)
		}
		return nil, nil
	}

	return session, nil
}

// DeleteSession removes a session
func (s *Service) DeleteSession(sessionID string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ExtendSession extends a session's expiration
func (s *Service) ExtendSession(sessionID string) error {
	expiresAt := time.Now().Add(SessionDuration)
	_, err := s.db.Exec("UPDATE sessions SET expires_at = ? WHERE id = ?", expiresAt, sessionID)
	if err != nil {
		return fmt.Errorf("failed to extend session: %w", err)
	}
	return nil
}

// generateSessionID creates a cryptographically secure session ID
func generateSessionID() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
