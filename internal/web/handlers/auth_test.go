package handlers

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/streamjoy/streamjoy/internal/auth"
	"github.com/streamjoy/streamjoy/internal/catalog"
	"github.com/streamjoy/streamjoy/internal/database"
	"github.com/streamjoy/streamjoy/internal/playback"
)

func newTestHandlers(t *testing.T, secret string) *Handlers {
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

	store := catalog.NewStore(db)
	mgr := playback.NewManager(playback.DefaultConfig())
	t.Cleanup(mgr.Stop)

	return New(store, auth.NewService(db, secret), mgr, nil, true)
}

func postLogin(t *testing.T, h *Handlers, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Login(w, req)
	return w
}

func TestLogin_NoSecretConfiguredIsServerError(t *testing.T) {
	h := newTestHandlers(t, "")

	w := postLogin(t, h, `{"password":"anything"}`)

	// A missing deployment secret must never look like a wrong password.
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No admin password set") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newTestHandlers(t, "hunter2")

	w := postLogin(t, h, `{"password":"wrong"}`)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "hunter2") {
		t.Fatal("response leaked the configured secret")
	}
}

func TestLogin_SuccessSetsSessionCookie(t *testing.T) {
	h := newTestHandlers(t, "hunter2")

	w := postLogin(t, h, `{"password":"hunter2"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("expected session cookie")
	}

	session, err := h.authService.GetSession(sessionCookie.Value)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session == nil {
		t.Fatal("expected persisted session")
	}
}

func TestLogin_MalformedBody(t *testing.T) {
	h := newTestHandlers(t, "hunter2")

	if w := postLogin(t, h, "{not json"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestStatus_ReportsWhetherPasswordIsConfigured(t *testing.T) {
	for secret, want := range map[string]string{
		"":        `"hasPassword":false`,
		"hunter2": `"hasPassword":true`,
	} {
		h := newTestHandlers(t, secret)

		w := httptest.NewRecorder()
		h.Status(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), want) {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
		if strings.Contains(w.Body.String(), "hunter2") {
			t.Fatal("response leaked the configured secret")
		}
	}
}
