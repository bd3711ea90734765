package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/streamjoy/streamjoy/internal/catalog"
)

type memPersister struct {
	data []byte
}

func (m *memPersister) SaveCatalog(data []byte) error {
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *memPersister) LoadCatalog() ([]byte, error) {
	return m.data, nil
}

func writeImportFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write import file: %v", err)
	}
	return path
}

func TestImportFile_ReplacesCatalogAndRemovesFile(t *testing.T) {
	store := catalog.NewStore(&memPersister{})
	dir := t.TempDir()
	w, err := New(store, Config{Enabled: true, Dir: dir, Settle: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path := writeImportFile(t, dir, "drop.json",
		`{"series":[{"id":"s1","title":"Imported","seasons":[]}]}`)

	w.importFile(path)

	snap := store.Snapshot()
	if len(snap.Series) != 1 || snap.Series[0].Title != "Imported" {
		t.Fatalf("expected imported catalog, got %+v", snap)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected import file removed")
	}
}

func TestImportFile_SkipsCorruptAndEmptyFiles(t *testing.T) {
	store := catalog.NewStore(&memPersister{})
	if _, err := store.AddSeries(catalog.SeriesFields{Title: "Keep"}); err != nil {
		t.Fatalf("AddSeries: %v", err)
	}
	before := store.Snapshot()

	dir := t.TempDir()
	w, err := New(store, Config{Enabled: true, Dir: dir, Settle: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	corrupt := writeImportFile(t, dir, "corrupt.json", "{not json")
	empty := writeImportFile(t, dir, "empty.json", `{"series":[]}`)
	w.importFile(corrupt)
	w.importFile(empty)

	got := store.Snapshot()
	if len(got.Series) != 1 || got.Series[0].ID != before.Series[0].ID {
		t.Fatalf("expected catalog untouched, got %+v", got)
	}
	// Skipped files stay in place for inspection.
	if _, err := os.Stat(corrupt); err != nil {
		t.Fatal("expected corrupt file left in place")
	}
}

func TestStart_ImportsExistingFilesAndWatchesNewOnes(t *testing.T) {
	store := catalog.NewStore(&memPersister{})
	dir := t.TempDir()
	writeImportFile(t, dir, "existing.json",
		`{"series":[{"id":"s1","title":"Existing","seasons":[]}]}`)

	w, err := New(store, Config{Enabled: true, Dir: dir, Settle: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(w.Stop)

	if got := store.Snapshot(); len(got.Series) != 1 || got.Series[0].Title != "Existing" {
		t.Fatalf("expected startup import, got %+v", got)
	}

	writeImportFile(t, dir, "dropped.json",
		`{"series":[{"id":"s2","title":"Dropped","seasons":[]}]}`)

	deadline := time.After(5 * time.Second)
	for {
		snap := store.Snapshot()
		if len(snap.Series) == 1 && snap.Series[0].Title == "Dropped" {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("dropped file never imported, catalog %+v", store.Snapshot())
		case <-time.After(20 * time.Millisecond):
		}
	}
}
