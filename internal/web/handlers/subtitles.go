package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/streamjoy/streamjoy/internal/subtitles"
)

const maxSubtitleBytes = 10 << 20

var subtitleClient = &http.Client{Timeout: 15 * time.Second}

// SubtitlesProbe fetches a subtitle resource and reports its shape, so bad
// files are caught at edit time. An unparseable file is a valid=false
// report, not a server error.
func (h *Handlers) SubtitlesProbe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		h.jsonError(w, "url is required", http.StatusBadRequest)
		return
	}

	httpReq, err := http.NewRequestWithContext(r.Context(), http.MethodGet, req.URL, nil)
	if err != nil {
		h.jsonError(w, "Invalid url", http.StatusBadRequest)
		return
	}

	resp, err := subtitleClient.Do(httpReq)
	if err != nil {
		log.Debug().Err(err).Str("url", req.URL).Msg("Subtitle fetch failed")
		h.respondJSON(w, http.StatusOK, subtitles.Report{Error: "fetch failed: " + err.Error()})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.respondJSON(w, http.StatusOK, subtitles.Report{Error: "fetch failed: " + resp.Status})
		return
	}

	report := subtitles.Probe(req.URL, io.LimitReader(resp.Body, maxSubtitleBytes))
	h.respondJSON(w, http.StatusOK, report)
}
