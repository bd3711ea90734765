package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/streamjoy/streamjoy/internal/catalog"
	"github.com/streamjoy/streamjoy/internal/config"
)

// Config controls scheduled catalog exports.
type Config struct {
	Enabled  bool
	Schedule string
	Keep     int
	Dir      string
}

// DefaultConfig returns the default backup configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		Schedule: "0 3 * * *",
		Keep:     14,
		Dir:      "backups",
	}
}

// Manager exports the catalog snapshot to timestamped JSON files on a cron
// schedule and prunes old exports past the retention count.
type Manager struct {
	store  *catalog.Store
	config Config

	cron        *cron.Cron
	cronEntryID cron.EntryID

	mu      sync.RWMutex
	running bool
}

// NewManager creates a backup manager for the given store.
func NewManager(store *catalog.Store, cfg Config) *Manager {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultConfig().Schedule
	}
	if cfg.Keep <= 0 {
		cfg.Keep = DefaultConfig().Keep
	}
	if cfg.Dir == "" {
		cfg.Dir = DefaultConfig().Dir
	}
	return &Manager{
		store:  store,
		config: cfg,
		cron:   cron.New(),
	}
}

// ConfigFromSettings builds a backup configuration from stored settings,
// keeping dir from the command line.
func ConfigFromSettings(loader *config.Loader, dir string) Config {
	cfg := DefaultConfig()
	cfg.Enabled = loader.Bool("backup.enabled", cfg.Enabled)
	cfg.Schedule = loader.String("backup.schedule", cfg.Schedule)
	cfg.Keep = loader.Int("backup.keep", cfg.Keep)
	if dir != "" {
		cfg.Dir = dir
	}
	return cfg
}

// Start starts the scheduler. Disabled configuration is not an error; the
// manager just stays idle so RunNow still works for manual exports.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	if err := os.MkdirAll(m.config.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	m.running = true
	m.cron.Start()

	if m.config.Enabled {
		id, err := m.cron.AddFunc(m.config.Schedule, m.scheduledRun)
		if err != nil {
			return fmt.Errorf("invalid backup schedule %q: %w", m.config.Schedule, err)
		}
		m.cronEntryID = id
	}

	log.Info().
		Bool("enabled", m.config.Enabled).
		Str("schedule", m.config.Schedule).
		Int("keep", m.config.Keep).
		Str("dir", m.config.Dir).
		Msg("Backup manager started")

	return nil
}

// Stop stops the scheduler and waits for an in-flight export.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	ctx := m.cron.Stop()
	<-ctx.Done()
	m.running = false

	log.Info().Msg("Backup manager stopped")
}

// NextRun returns the next scheduled export time, or zero when disabled.
func (m *Manager) NextRun() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cronEntryID == 0 {
		return time.Time{}
	}
	return m.cron.Entry(m.cronEntryID).Next
}

func (m *Manager) scheduledRun() {
	if _, err := m.RunNow(); err != nil {
		log.Error().Err(err).Msg("Scheduled catalog backup failed")
	}
}

// RunNow exports the current snapshot immediately and prunes old exports.
// It returns the path of the written file.
func (m *Manager) RunNow() (string, error) {
	data, err := catalog.Encode(m.store.Snapshot())
	if err != nil {
		return "", fmt.Errorf("failed to encode catalog: %w", err)
	}

	name := fmt.Sprintf("catalog-%s.json", time.Now().UTC().Format("20060102-150405"))
	path := filepath.Join(m.config.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	log.Info().Str("path", path).Int("bytes", len(data)).Msg("Catalog backup written")

	if err := m.prune(); err != nil {
		log.Warn().Err(err).Msg("Failed to prune old backups")
	}
	return path, nil
}

// prune deletes the oldest exports beyond the retention count.
func (m *Manager) prune() error {
	entries, err := os.ReadDir(m.config.Dir)
	if err != nil {
		return err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "catalog-") && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	if len(names) <= m.config.Keep {
		return nil
	}

	// Timestamped names sort chronologically.
	sort.Strings(names)
	for _, name := range names[:len(names)-m.config.Keep] {
		path := filepath.Join(m.config.Dir, name)
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to remove old backup")
			continue
		}
		log.Debug().Str("path", path).Msg("Pruned old backup")
	}
	return nil
}
