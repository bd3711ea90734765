package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/streamjoy/streamjoy/internal/catalog"
)

// Catalog returns the current snapshot in display order.
func (h *Handlers) Catalog(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.store.Snapshot().Sorted())
}

// SeriesCreate adds a series
func (h *Handlers) SeriesCreate(w http.ResponseWriter, r *http.Request) {
	var fields catalog.SeriesFields
	if !h.decodeJSON(w, r, &fields) {
		return
	}

	snap, err := h.store.AddSeries(fields)
	if err != nil {
		h.catalogError(w, err)
		return
	}
	h.catalogChanged(w, snap)
}

// SeriesUpdate patches a series. A missing id leaves the catalog unchanged.
func (h *Handlers) SeriesUpdate(w http.ResponseWriter, r *http.Request) {
	var patch catalog.SeriesPatch
	if !h.decodeJSON(w, r, &patch) {
		return
	}
	h.catalogChanged(w, h.store.UpdateSeries(chi.URLParam(r, "seriesID"), patch))
}

// SeriesDelete removes a series and everything beneath it
func (h *Handlers) SeriesDelete(w http.ResponseWriter, r *http.Request) {
	h.catalogChanged(w, h.store.DeleteSeries(chi.URLParam(r, "seriesID")))
}

// SeasonCreate appends a season to a series
func (h *Handlers) SeasonCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Number int `json:"number"`
	}
	if !h.decodeJSON(w, r, &req) {
		return
	}
	h.catalogChanged(w, h.store.AddSeason(chi.URLParam(r, "seriesID"), req.Number))
}

// EpisodeCreate appends an episode to a season
func (h *Handlers) EpisodeCreate(w http.ResponseWriter, r *http.Request) {
	var fields catalog.EpisodeFields
	if !h.decodeJSON(w, r, &fields) {
		return
	}

	snap, err := h.store.AddEpisode(chi.URLParam(r, "seriesID"), chi.URLParam(r, "seasonID"), fields)
	if err != nil {
		h.catalogError(w, err)
		return
	}
	h.catalogChanged(w, snap)
}

// EpisodeUpdate patches an episode
func (h *Handlers) EpisodeUpdate(w http.ResponseWriter, r *http.Request) {
	var patch catalog.EpisodePatch
	if !h.decodeJSON(w, r, &patch) {
		return
	}
	snap := h.store.UpdateEpisode(
		chi.URLParam(r, "seriesID"),
		chi.URLParam(r, "seasonID"),
		chi.URLParam(r, "episodeID"),
		patch,
	)
	h.catalogChanged(w, snap)
}

// EpisodeDelete removes an episode
func (h *Handlers) EpisodeDelete(w http.ResponseWriter, r *http.Request) {
	snap := h.store.DeleteEpisode(
		chi.URLParam(r, "seriesID"),
		chi.URLParam(r, "seasonID"),
		chi.URLParam(r, "episodeID"),
	)
	h.catalogChanged(w, snap)
}

// catalogChanged replies with the new snapshot. Broadcast fan-out happens
// through the store's change hook, so every mutation path (HTTP, importer)
// notifies SSE clients the same way.
func (h *Handlers) catalogChanged(w http.ResponseWriter, snap catalog.Snapshot) {
	h.respondJSON(w, http.StatusOK, snap.Sorted())
}

func (h *Handlers) catalogError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrTitleRequired) || errors.Is(err, catalog.ErrVideoURLRequired) {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.jsonError(w, "Internal server error", http.StatusInternalServerError)
}
