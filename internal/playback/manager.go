package playback

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/streamjoy/streamjoy/internal/catalog"
)

// Manager tracks at most one live session per client. Opening a new session
// for a client closes the previous one first, so an episode change can
// never leave a ghost audio transport behind.
type Manager struct {
	cfg Config

	mu       sync.Mutex
	sessions map[string]*Session

	onState func(clientID string, state State)
}

// NewManager creates a session manager with the given sync configuration.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// SetOnState installs a hook invoked with every selection change of any
// managed session.
func (m *Manager) SetOnState(fn func(clientID string, state State)) {
	m.mu.Lock()
	m.onState = fn
	m.mu.Unlock()
}

// Open starts a session for the client, replacing (and closing) any
// existing one. The close-and-replace runs under one critical section so
// concurrent Opens for the same client can never strand a live session
// outside the map.
func (m *Manager) Open(clientID string, episode catalog.Episode, video, audio Transport) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if previous := m.sessions[clientID]; previous != nil {
		previous.Close()
	}

	session := Open(episode, video, audio, m.cfg)
	if onState := m.onState; onState != nil {
		session.SetOnState(func(state State) {
			onState(clientID, state)
		})
	}
	m.sessions[clientID] = session

	log.Info().Str("client_id", clientID).Str("episode_id", episode.ID).Msg("Playback session started")
	return session
}

// Get returns the client's live session, or nil.
func (m *Manager) Get(clientID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[clientID]
}

// Close shuts down the client's session if one exists.
func (m *Manager) Close(clientID string) {
	m.mu.Lock()
	session := m.sessions[clientID]
	delete(m.sessions, clientID)
	m.mu.Unlock()

	if session != nil {
		session.Close()
		log.Info().Str("client_id", clientID).Msg("Playback session ended")
	}
}

// Stop closes all live sessions.
func (m *Manager) Stop() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for clientID, session := range sessions {
		session.Close()
		log.Debug().Str("client_id", clientID).Msg("Playback session closed during shutdown")
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
