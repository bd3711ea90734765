package importer

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/streamjoy/streamjoy/internal/catalog"
	"github.com/streamjoy/streamjoy/internal/config"
)

// Config controls the bulk-import drop directory.
type Config struct {
	Enabled bool
	Dir     string
	// Settle is how long to wait after the last write event before reading
	// the file, so a partially copied file is not imported.
	Settle time.Duration
}

// DefaultConfig returns the default importer configuration.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Dir:     "import",
		Settle:  250 * time.Millisecond,
	}
}

// ConfigFromSettings builds an importer configuration from stored settings,
// keeping dir from the command line.
func ConfigFromSettings(loader *config.Loader, dir string) Config {
	cfg := DefaultConfig()
	cfg.Enabled = loader.Bool("import.enabled", cfg.Enabled)
	cfg.Settle = loader.DurationMillis("import.settle_ms", int(cfg.Settle/time.Millisecond))
	if dir != "" {
		cfg.Dir = dir
	}
	return cfg
}

// Watcher imports whole-catalog snapshots from JSON files dropped into a
// directory. A valid non-empty snapshot replaces the catalog through the
// store, so it persists and broadcasts like any edit; the file is removed
// afterwards. Corrupt files are logged and skipped.
type Watcher struct {
	store   *catalog.Store
	config  Config
	watcher *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]*time.Timer

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// New creates an import watcher for the given store.
func New(store *catalog.Store, cfg Config) (*Watcher, error) {
	if cfg.Dir == "" {
		cfg.Dir = DefaultConfig().Dir
	}
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultConfig().Settle
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		store:   store,
		config:  cfg,
		watcher: fsWatcher,
		pending: make(map[string]*time.Timer),
	}, nil
}

// Start begins watching the drop directory. Files already sitting there
// are imported immediately.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running || !w.config.Enabled {
		return nil
	}

	if err := os.MkdirAll(w.config.Dir, 0o755); err != nil {
		return err
	}
	if err := w.watcher.Add(w.config.Dir); err != nil {
		return err
	}

	w.running = true
	w.wg.Add(1)
	go w.eventLoop()

	w.importExisting()

	log.Info().Str("dir", w.config.Dir).Msg("Import watcher started")
	return nil
}

// Stop stops the watcher and cancels pending imports.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.watcher.Close()
	w.wg.Wait()

	w.pendingMu.Lock()
	for _, timer := range w.pending {
		timer.Stop()
	}
	w.pending = make(map[string]*time.Timer)
	w.pendingMu.Unlock()

	log.Info().Msg("Import watcher stopped")
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Import watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
		return
	}

	// Reset the settle timer on every write so a file still being copied
	// is only read once it goes quiet.
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if timer, ok := w.pending[event.Name]; ok {
		timer.Reset(w.config.Settle)
		return
	}
	path := event.Name
	w.pending[path] = time.AfterFunc(w.config.Settle, func() {
		w.pendingMu.Lock()
		delete(w.pending, path)
		w.pendingMu.Unlock()
		w.importFile(path)
	})
}

func (w *Watcher) importExisting() {
	entries, err := os.ReadDir(w.config.Dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", w.config.Dir).Msg("Failed to list import directory")
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		w.importFile(filepath.Join(w.config.Dir, entry.Name()))
	}
}

// importFile reads, decodes, and applies one dropped snapshot file.
func (w *Watcher) importFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to read import file")
		return
	}

	snap := catalog.Decode(data)
	if len(snap.Series) == 0 {
		log.Warn().Str("path", path).Msg("Import file is empty or corrupt, skipping")
		return
	}

	w.store.Replace(snap)
	log.Info().Str("path", path).Int("series", len(snap.Series)).Msg("Catalog imported")

	if err := os.Remove(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to remove imported file")
	}
}
