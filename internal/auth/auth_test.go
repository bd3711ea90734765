package auth

import (
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/streamjoy/streamjoy/internal/database"
)

func newTestService(t *testing.T, secret string) *Service {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.New(dbPath)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return NewService(db, secret)
}

func TestVerify_NoSecretConfigured(t *testing.T) {
	s := newTestService(t, "")

	if err := s.Verify("anything"); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	// A blank candidate must also report misconfiguration, not a wrong password.
	if err := s.Verify(""); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured for empty candidate, got %v", err)
	}
}

func TestVerify_TrimmedComparison(t *testing.T) {
	s := newTestService(t, "  hunter2  ")

	if err := s.Verify("hunter2"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := s.Verify("  hunter2\n"); err != nil {
		t.Fatalf("expected trimmed match, got %v", err)
	}
	if err := s.Verify("wrong"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := s.Verify("   "); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for blank candidate, got %v", err)
	}
}

func TestVerify_BcryptHashedSecret(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	s := newTestService(t, string(hash))

	if err := s.Verify("hunter2"); err != nil {
		t.Fatalf("expected hashed match, got %v", err)
	}
	if err := s.Verify("wrong"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSessions_CreateGetDelete(t *testing.T) {
	s := newTestService(t, "secret")

	session, err := s.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected non-empty session id")
	}

	got, err := s.GetSession(session.ID)
	if err != nil {
		t.Fatalf("GetSession returned error: %v", err)
	}
	if got == nil || got.ID != session.ID {
		t.Fatalf("expected session %s, got %+v", session.ID, got)
	}

	if err := s.DeleteSession(session.ID); err != nil {
		t.Fatalf("DeleteSession returned error: %v", err)
	}
	got, err = s.GetSession(session.ID)
	if err != nil {
		t.Fatalf("GetSession returned error: %v", err)
	}
	if got != nil {
		t.Fatal("expected deleted session to be absent")
	}
}
