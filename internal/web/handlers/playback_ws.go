package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/streamjoy/streamjoy/internal/web/sse"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Session cookie auth already ran in middleware; the bridge serves the
	// same origin as the admin panel.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientFrame is a message from the browser: either a transport state
// mirror or a transport event.
type clientFrame struct {
	Type string `json:"type"`

	// For "state" frames.
	Target   string  `json:"target,omitempty"` // "video" or "audio"
	Position float64 `json:"position,omitempty"`
	Rate     float64 `json:"rate,omitempty"`
	Playing  bool    `json:"playing,omitempty"`
	Muted    bool    `json:"muted,omitempty"`

	// For "event" frames (video transport events).
	Name string `json:"name,omitempty"` // play, pause, seeked, ratechange
}

// command is a corrective instruction sent down to a browser media element.
type command struct {
	Cmd      string  `json:"cmd"` // load, unload, play, pause, seek, rate, mute
	Target   string  `json:"target"`
	URL      string  `json:"url,omitempty"`
	Position float64 `json:"position,omitempty"`
	Rate     float64 `json:"rate,omitempty"`
	Muted    bool    `json:"muted,omitempty"`
}

// remoteTransport adapts one browser media element to the playback
// Transport interface. Reads come from the client's last state frame;
// writes become commands on the socket and optimistically update the
// mirror, so a rejected command shows up as drift on the next frame and
// the reconciler corrects it.
type remoteTransport struct {
	target string
	send   func(command)

	mu       sync.Mutex
	url      string
	position float64
	rate     float64
	playing  bool
	muted    bool
}

func newRemoteTransport(target string, send func(command)) *remoteTransport {
	return &remoteTransport{target: target, send: send, rate: 1.0}
}

// update applies a state frame from the client.
func (t *remoteTransport) update(frame clientFrame) {
	t.mu.Lock()
	t.position = frame.Position
	if frame.Rate > 0 {
		t.rate = frame.Rate
	}
	t.playing = frame.Playing
	t.muted = frame.Muted
	t.mu.Unlock()
}

func (t *remoteTransport) Load(url string) {
	t.mu.Lock()
	t.url = url
	t.position = 0
	t.mu.Unlock()
	t.send(command{Cmd: "load", Target: t.target, URL: url})
}

func (t *remoteTransport) Unload() {
	t.mu.Lock()
	t.url = ""
	t.playing = false
	t.mu.Unlock()
	t.send(command{Cmd: "unload", Target: t.target})
}

func (t *remoteTransport) Play() error {
	t.mu.Lock()
	t.playing = true
	t.mu.Unlock()
	t.send(command{Cmd: "play", Target: t.target})
	return nil
}

func (t *remoteTransport) Pause() {
	t.mu.Lock()
	t.playing = false
	t.mu.Unlock()
	t.send(command{Cmd: "pause", Target: t.target})
}

func (t *remoteTransport) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

func (t *remoteTransport) Seek(position float64) {
	t.mu.Lock()
	t.position = position
	t.mu.Unlock()
	t.send(command{Cmd: "seek", Target: t.target, Position: position})
}

func (t *remoteTransport) Position() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.position
}

func (t *remoteTransport) Rate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rate
}

func (t *remoteTransport) SetRate(rate float64) {
	t.mu.Lock()
	t.rate = rate
	t.mu.Unlock()
	t.send(command{Cmd: "rate", Target: t.target, Rate: rate})
}

func (t *remoteTransport) SetMuted(muted bool) {
	t.mu.Lock()
	t.muted = muted
	t.mu.Unlock()
	t.send(command{Cmd: "mute", Target: t.target, Muted: muted})
}

func (t *remoteTransport) Muted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.muted
}

// PlaybackWS bridges a browser's media elements into a playback session.
// The client streams transport state frames up; corrective commands flow
// back down. The session for this client must already be open via the REST
// controls, with the transports this handler registered.
func (h *Handlers) PlaybackWS(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		h.jsonError(w, "client_id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Writes are serialized through one goroutine; gorilla connections do
	// not allow concurrent writers.
	commands := make(chan command, 32)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-done:
				return
			case cmd := <-commands:
				if err := conn.WriteJSON(cmd); err != nil {
					log.Debug().Err(err).Str("client_id", clientID).Msg("Websocket write failed")
					return
				}
			}
		}
	}()

	send := func(cmd command) {
		select {
		case commands <- cmd:
		default:
			log.Warn().Str("client_id", clientID).Str("cmd", cmd.Cmd).Msg("Playback command buffer full, dropping")
		}
	}

	video := newRemoteTransport("video", send)
	audio := newRemoteTransport("audio", send)
	h.registerBridge(clientID, video, audio)
	defer func() {
		h.unregisterBridge(clientID)
		h.playbackMgr.Close(clientID)
		h.broadcastEvent(sse.EventPlaybackClosed, map[string]string{"client_id": clientID})
	}()

	log.Info().Str("client_id", clientID).Msg("Playback bridge connected")

	for {
		var frame clientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("client_id", clientID).Msg("Playback bridge read error")
			}
			return
		}
		h.handleFrame(clientID, video, audio, frame)
	}
}

// handleFrame routes one client frame to the session.
func (h *Handlers) handleFrame(clientID string, video, audio *remoteTransport, frame clientFrame) {
	switch frame.Type {
	case "state":
		switch frame.Target {
		case "video":
			video.update(frame)
		case "audio":
			audio.update(frame)
		}

	case "event":
		session := h.playbackMgr.Get(clientID)
		if session == nil {
			return
		}
		switch frame.Name {
		case "play":
			session.VideoPlay()
		case "pause":
			session.VideoPause()
		case "seeked":
			session.VideoSeeked()
		case "ratechange":
			session.VideoRateChange()
		default:
			log.Debug().Str("event", frame.Name).Msg("Unknown transport event")
		}

	default:
		log.Debug().Str("type", frame.Type).Msg("Unknown playback frame")
	}
}
