package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/streamjoy/streamjoy/internal/catalog"
)

func newCatalogRouter(t *testing.T) (*Handlers, *chi.Mux) {
	t.Helper()
	h := newTestHandlers(t, "hunter2")

	r := chi.NewRouter()
	r.Get("/api/catalog", h.Catalog)
	r.Post("/api/series", h.SeriesCreate)
	r.Patch("/api/series/{seriesID}", h.SeriesUpdate)
	r.Delete("/api/series/{seriesID}", h.SeriesDelete)
	r.Post("/api/series/{seriesID}/seasons", h.SeasonCreate)
	r.Post("/api/series/{seriesID}/seasons/{seasonID}/episodes", h.EpisodeCreate)
	return h, r
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) catalog.Snapshot {
	t.Helper()
	var snap catalog.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	return snap
}

func TestSeriesCreate_RejectsBlankTitle(t *testing.T) {
	_, r := newCatalogRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/series", `{"title":"  "}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCatalogEndpoints_FullEditFlow(t *testing.T) {
	_, r := newCatalogRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/series", `{"title":"A"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("create series: %d %s", w.Code, w.Body.String())
	}
	snap := decodeSnapshot(t, w)
	seriesID := snap.Series[0].ID

	w = doJSON(t, r, http.MethodPost, "/api/series/"+seriesID+"/seasons", `{"number":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("create season: %d %s", w.Code, w.Body.String())
	}
	snap = decodeSnapshot(t, w)
	seasonID := snap.Series[0].Seasons[0].ID

	w = doJSON(t, r, http.MethodPost,
		"/api/series/"+seriesID+"/seasons/"+seasonID+"/episodes",
		`{"title":"Pilot","number":1,"videoUrl":"x.mp4","audios":[{"label":"French","url":"fr.mp3"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("create episode: %d %s", w.Code, w.Body.String())
	}
	snap = decodeSnapshot(t, w)
	ep := snap.Series[0].Seasons[0].Episodes[0]
	if ep.Title != "Pilot" || len(ep.Audios) != 1 {
		t.Fatalf("unexpected episode: %+v", ep)
	}

	w = doJSON(t, r, http.MethodPatch, "/api/series/"+seriesID, `{"description":"updated"}`)
	snap = decodeSnapshot(t, w)
	if snap.Series[0].Description != "updated" {
		t.Fatalf("patch did not apply: %+v", snap.Series[0])
	}
	if snap.Series[0].Title != "A" {
		t.Fatal("patch clobbered untouched field")
	}

	w = doJSON(t, r, http.MethodDelete, "/api/series/"+seriesID, "")
	snap = decodeSnapshot(t, w)
	if len(snap.Series) != 0 {
		t.Fatalf("expected empty catalog after delete, got %+v", snap)
	}
}

func TestCatalogEndpoints_MissingIDIsNoOpNotError(t *testing.T) {
	h, r := newCatalogRouter(t)

	if _, err := h.store.AddSeries(catalog.SeriesFields{Title: "Keep"}); err != nil {
		t.Fatalf("AddSeries: %v", err)
	}

	w := doJSON(t, r, http.MethodPatch, "/api/series/missing", `{"title":"ghost"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for missing id, got %d", w.Code)
	}
	snap := decodeSnapshot(t, w)
	if len(snap.Series) != 1 || snap.Series[0].Title != "Keep" {
		t.Fatalf("catalog changed by missing-id patch: %+v", snap)
	}
}

func TestCatalog_ReturnsDisplayOrder(t *testing.T) {
	h, r := newCatalogRouter(t)

	snap, err := h.store.AddSeries(catalog.SeriesFields{Title: "Show"})
	if err != nil {
		t.Fatalf("AddSeries: %v", err)
	}
	seriesID := snap.Series[0].ID
	h.store.AddSeason(seriesID, 2)
	h.store.AddSeason(seriesID, 1)

	w := doJSON(t, r, http.MethodGet, "/api/catalog", "")
	got := decodeSnapshot(t, w)
	seasons := got.Series[0].Seasons
	if seasons[0].Number != 1 || seasons[1].Number != 2 {
		t.Fatalf("expected seasons sorted by number, got %+v", seasons)
	}
}
