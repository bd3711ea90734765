package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/streamjoy/streamjoy/internal/playback"
	"github.com/streamjoy/streamjoy/internal/web/sse"
)

// PlaybackOpen starts a playback session for a connected bridge. The
// websocket bridge for the client must be connected first; its media
// elements become the session's transports.
func (h *Handlers) PlaybackOpen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID  string `json:"clientId"`
		SeriesID  string `json:"seriesId"`
		SeasonID  string `json:"seasonId"`
		EpisodeID string `json:"episodeId"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.ClientID == "" {
		h.jsonError(w, "clientId is required", http.StatusBadRequest)
		return
	}

	episode, ok := h.store.FindEpisode(req.SeriesID, req.SeasonID, req.EpisodeID)
	if !ok {
		h.jsonError(w, "Episode not found", http.StatusNotFound)
		return
	}

	br := h.getBridge(req.ClientID)
	if br == nil {
		h.jsonError(w, "No playback bridge connected for this client", http.StatusConflict)
		return
	}

	session := h.playbackMgr.Open(req.ClientID, episode, br.video, br.audio)

	h.broadcastEvent(sse.EventPlaybackOpened, map[string]any{
		"client_id": req.ClientID,
		"state":     session.State(),
	})
	h.respondJSON(w, http.StatusOK, session.State())
}

// PlaybackSelectAudio switches the audio selection. The body's audio field
// is "embedded" or a decimal index into the episode's audio list.
func (h *Handlers) PlaybackSelectAudio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID string `json:"clientId"`
		Audio    string `json:"audio"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}

	session := h.playbackMgr.Get(req.ClientID)
	if session == nil {
		h.jsonError(w, "No playback session for this client", http.StatusNotFound)
		return
	}

	if req.Audio == "embedded" {
		session.SelectAudio(playback.EmbeddedAudio)
	} else {
		index, err := strconv.Atoi(req.Audio)
		if err != nil || index < 0 {
			h.jsonError(w, "audio must be \"embedded\" or a track index", http.StatusBadRequest)
			return
		}
		session.SelectAudio(index)
	}

	h.respondJSON(w, http.StatusOK, session.State())
}

// PlaybackSelectSubtitle switches the subtitle selection ("off" or a
// language code).
func (h *Handlers) PlaybackSelectSubtitle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID string `json:"clientId"`
		Subtitle string `json:"subtitle"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}

	session := h.playbackMgr.Get(req.ClientID)
	if session == nil {
		h.jsonError(w, "No playback session for this client", http.StatusNotFound)
		return
	}

	session.SelectSubtitle(req.Subtitle)
	h.respondJSON(w, http.StatusOK, session.State())
}

// PlaybackState returns the current selection readout for a client.
func (h *Handlers) PlaybackState(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	session := h.playbackMgr.Get(clientID)
	if session == nil {
		h.jsonError(w, "No playback session for this client", http.StatusNotFound)
		return
	}
	h.respondJSON(w, http.StatusOK, session.State())
}

// PlaybackClose ends a client's playback session.
func (h *Handlers) PlaybackClose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID string `json:"clientId"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}

	h.playbackMgr.Close(req.ClientID)
	log.Debug().Str("client_id", req.ClientID).Msg("Playback session closed via API")

	h.broadcastEvent(sse.EventPlaybackClosed, map[string]string{"client_id": req.ClientID})
	h.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
