package backup

import (
	"os"
	"path/filepath"
	"reflect"
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

func TestRunNow_WritesDecodableExport(t *testing.T) {
	store := catalog.NewStore(&memPersister{})
	if _, err := store.AddSeries(catalog.SeriesFields{Title: "Show"}); err != nil {
		t.Fatalf("AddSeries: %v", err)
	}

	dir := t.TempDir()
	m := NewManager(store, Config{Enabled: false, Keep: 5, Dir: dir})

	path, err := m.RunNow()
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if got := catalog.Decode(data); !reflect.DeepEqual(got, store.Snapshot()) {
		t.Fatalf("export does not decode to the live snapshot: %+v", got)
	}
}

func TestPrune_KeepsNewestExports(t *testing.T) {
	store := catalog.NewStore(&memPersister{})
	dir := t.TempDir()
	m := NewManager(store, Config{Enabled: false, Keep: 2, Dir: dir})

	stamps := []string{
		"catalog-20240101-000000.json",
		"catalog-20240102-000000.json",
		"catalog-20240103-000000.json",
		"catalog-20240104-000000.json",
	}
	for _, name := range stamps {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(`{"series":[]}`), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	// Unrelated files are never pruned.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep me"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if err := m.prune(); err != nil {
		t.Fatalf("prune: %v", err)
	}

	for _, name := range stamps[:2] {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Fatalf("expected %s pruned", name)
		}
	}
	for _, name := range append(stamps[2:], "notes.txt") {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s kept: %v", name, err)
		}
	}
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	store := catalog.NewStore(&memPersister{})
	m := NewManager(store, Config{Enabled: true, Schedule: "not a schedule", Dir: t.TempDir()})

	if err := m.Start(); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestStart_DisabledSchedulesNothing(t *testing.T) {
	store := catalog.NewStore(&memPersister{})
	m := NewManager(store, Config{Enabled: false, Dir: t.TempDir()})

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(m.Stop)

	if next := m.NextRun(); !next.Equal(time.Time{}) {
		t.Fatalf("expected no scheduled run, got %v", next)
	}
}
