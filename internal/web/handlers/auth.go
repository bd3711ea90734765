package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/streamjoy/streamjoy/internal/auth"
)

// Status reports pre-login configuration state. The login screen uses it to
// explain a missing admin secret up front instead of after a failed attempt.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]bool{
		"hasPassword": h.authService.Configured(),
	})
}

// Login verifies the admin password and issues a session cookie. A missing
// deployment secret is a 500 configuration error, distinct from a wrong
// password's 401; the configured secret is never echoed back.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}

	switch err := h.authService.Verify(req.Password); {
	case errors.Is(err, auth.ErrNotConfigured):
		log.Error().Msg("Login attempted but no admin password is configured")
		h.jsonError(w, "No admin password set", http.StatusInternalServerError)
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.jsonError(w, "Invalid password", http.StatusUnauthorized)
		return
	case err != nil:
		log.Error().Err(err).Msg("Authentication error")
		h.jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	session, err := h.authService.CreateSession()
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		h.jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	cookie := &http.Cookie{
		Name:     "session",
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
	}
	h.applyCookieSecurity(cookie)
	http.SetCookie(w, cookie)

	log.Info().Msg("Admin logged in")
	h.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Logout deletes the session and clears the cookie
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("session"); err == nil {
		if err := h.authService.DeleteSession(cookie.Value); err != nil {
			log.Debug().Err(err).Msg("Failed to delete session during logout")
		}
	}

	cookie := &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	}
	h.applyCookieSecurity(cookie)
	http.SetCookie(w, cookie)

	h.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
