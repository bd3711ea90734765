package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/streamjoy/streamjoy/internal/auth"
	"github.com/streamjoy/streamjoy/internal/backup"
	"github.com/streamjoy/streamjoy/internal/catalog"
	"github.com/streamjoy/streamjoy/internal/config"
	"github.com/streamjoy/streamjoy/internal/database"
	"github.com/streamjoy/streamjoy/internal/importer"
	"github.com/streamjoy/streamjoy/internal/logging"
	"github.com/streamjoy/streamjoy/internal/playback"
	"github.com/streamjoy/streamjoy/internal/web"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI flags
var (
	port        int
	bind        string
	allowSubnet string
	dbPath      string
	backupDir   string
	importDir   string
	verbosity   int
	isDev       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "streamjoy",
		Short: "StreamJoy - Media catalog and synchronized playback server",
		Long:  `StreamJoy is a self-hosted media catalog server with an admin API and a synchronized multi-track playback engine.`,
		RunE:  run,
	}

	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (required, or set PORT env var)")
	rootCmd.Flags().StringVarP(&bind, "bind", "b", "", "IP address to bind to (e.g., 127.0.0.1, 0.0.0.0)")
	rootCmd.Flags().StringVarP(&allowSubnet, "allow-subnet", "a", "", "CIDR subnet allowed to connect (e.g., 192.168.1.0/24)")
	rootCmd.Flags().StringVarP(&dbPath, "db", "d", "./streamjoy.db", "SQLite database path (or set DB_PATH env var)")
	rootCmd.Flags().StringVar(&backupDir, "backup-dir", "", "Directory for scheduled catalog exports (default: backups/ next to the database)")
	rootCmd.Flags().StringVar(&importDir, "import-dir", "", "Drop directory for catalog imports (default: import/ next to the database)")
	rootCmd.Flags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")
	rootCmd.Flags().BoolVar(&isDev, "dev", false, "Development mode (relaxed cookie security)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("streamjoy %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Check for PORT env var if flag not set
	if port == 0 {
		if envPort := os.Getenv("PORT"); envPort != "" {
			if _, err := fmt.Sscanf(envPort, "%d", &port); err != nil {
				return fmt.Errorf("invalid PORT environment variable %q: %w", envPort, err)
			}
		}
	}

	// Check for DB_PATH env var if using default
	if dbPath == "./streamjoy.db" {
		if envDB := os.Getenv("DB_PATH"); envDB != "" {
			dbPath = envDB
		}
	}

	if port == 0 {
		return fmt.Errorf("--port flag or PORT environment variable is required")
	}

	if bind != "" {
		if ip := net.ParseIP(bind); ip == nil {
			return fmt.Errorf("invalid bind address: %s", bind)
		}
	}

	var allowedNet *net.IPNet
	if allowSubnet != "" {
		_, parsedNet, err := net.ParseCIDR(allowSubnet)
		if err != nil {
			return fmt.Errorf("invalid allow-subnet CIDR: %s", allowSubnet)
		}
		allowedNet = parsedNet
	}

	if (bind == "" || bind == "0.0.0.0" || bind == "::") && allowSubnet == "" {
		log.Warn().Msg("Server is accessible from all interfaces without subnet restrictions. Consider using --bind or --allow-subnet for security.")
	}

	log.Info().
		Str("version", version).
		Int("port", port).
		Str("bind", bind).
		Str("allow_subnet", allowSubnet).
		Str("database", dbPath).
		Msg("Starting StreamJoy")

	db, err := database.New(dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}
	if err := db.InitializeDefaults(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize default settings")
	}

	loader := config.NewLoader(db)
	logging.Apply(logLevel(verbosity, loader), loader, logging.FilePathForDB(dbPath))

	store := catalog.NewStore(db)
	authService := auth.NewService(db, os.Getenv("ADMIN_PASSWORD"))

	playbackCfg := playback.Config{
		SyncInterval:   loader.DurationMillis("playback.sync_interval_ms", 500),
		DriftTolerance: float64(loader.Int("playback.drift_tolerance_ms", 300)) / 1000.0,
	}
	playbackMgr := playback.NewManager(playbackCfg)

	server := web.NewServer(store, authService, playbackMgr, port, bind, allowedNet, isDev)

	backupMgr := backup.NewManager(store, backup.ConfigFromSettings(loader, defaultedDir(backupDir, dbPath, "backups")))
	if err := backupMgr.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start backup manager")
	} else {
		defer backupMgr.Stop()
	}

	importWatcher, err := importer.New(store, importer.ConfigFromSettings(loader, defaultedDir(importDir, dbPath, "import")))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize import watcher")
	} else {
		if err := importWatcher.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start import watcher")
		} else {
			defer importWatcher.Stop()
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}

	log.Info().Msg("StreamJoy stopped")
	return nil
}

// logLevel picks the level from -v flags, falling back to the stored setting.
func logLevel(verbosity int, loader *config.Loader) string {
	switch verbosity {
	case 0:
		return loader.String("log.level", "info")
	case 1:
		return "debug"
	default: // 2+
		return "trace"
	}
}

// defaultedDir resolves an optional directory flag to a directory next to
// the database file.
func defaultedDir(flagValue, dbPath, name string) string {
	if flagValue != "" {
		return flagValue
	}
	return filepath.Join(filepath.Dir(dbPath), name)
}
