package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/streamjoy/streamjoy/internal/auth"
	"github.com/streamjoy/streamjoy/internal/catalog"
	"github.com/streamjoy/streamjoy/internal/playback"
	"github.com/streamjoy/streamjoy/internal/web/sse"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	store       *catalog.Store
	authService *auth.Service
	playbackMgr *playback.Manager
	sseBroker   *sse.Broker
	isDev       bool

	// Connected playback bridges by client id. The websocket handler
	// registers the transport pair; the REST open handler consumes it.
	bridgeMu sync.Mutex
	bridges  map[string]*bridge
}

type bridge struct {
	video *remoteTransport
	audio *remoteTransport
}

// New creates a new Handlers instance
func New(store *catalog.Store, authService *auth.Service, playbackMgr *playback.Manager, broker *sse.Broker, isDev bool) *Handlers {
	return &Handlers{
		store:       store,
		authService: authService,
		playbackMgr: playbackMgr,
		sseBroker:   broker,
		isDev:       isDev,
		bridges:     make(map[string]*bridge),
	}
}

func (h *Handlers) registerBridge(clientID string, video, audio *remoteTransport) {
	h.bridgeMu.Lock()
	h.bridges[clientID] = &bridge{video: video, audio: audio}
	h.bridgeMu.Unlock()
}

func (h *Handlers) unregisterBridge(clientID string) {
	h.bridgeMu.Lock()
	delete(h.bridges, clientID)
	h.bridgeMu.Unlock()
}

func (h *Handlers) getBridge(clientID string) *bridge {
	h.bridgeMu.Lock()
	defer h.bridgeMu.Unlock()
	return h.bridges[clientID]
}

// broadcastEvent sends an SSE event if the broker is configured
func (h *Handlers) broadcastEvent(eventType sse.EventType, data any) {
	if h.sseBroker != nil {
		h.sseBroker.Broadcast(sse.Event{Type: eventType, Data: data})
	}
}

// respondJSON writes a JSON response body
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// decodeJSON parses the request body into v, replying 400 on failure
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.jsonError(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// jsonError sends a JSON error response
func (h *Handlers) jsonError(w http.ResponseWriter, message string, status int) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// applyCookieSecurity sets Secure/SameSite defaults based on environment.
func (h *Handlers) applyCookieSecurity(c *http.Cookie) {
	if h.isDev {
		if c.SameSite == 0 {
			c.SameSite = http.SameSiteLaxMode
		}
		return
	}
	c.Secure = true
	if c.SameSite == 0 {
		c.SameSite = http.SameSiteStrictMode
	}
}
