package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// GetSetting retrieves a setting value by key
func (db *DB) GetSetting(key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a setting value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// SetSettingJSON stores a setting as JSON
func (db *DB) SetSettingJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal setting %s: %w", key, err)
	}
	return db.SetSetting(key, string(data))
}

// GetAllSettings retrieves all settings
func (db *DB) GetAllSettings() (map[string]string, error) {
	rows, err := db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[key] = value
	}

	return settings, rows.Err()
}

// Default settings
var DefaultSettings = map[string]any{
	"log.level":        "info",
	"log.max_size_mb":  50,
	"log.max_backups":  5,
	"log.max_age_days": 30,
	"log.compress":     true,

	"playback.sync_interval_ms":   500, // period of the drift-correction tick
	"playback.drift_tolerance_ms": 300, // max allowed |video - audio| position gap

	"backup.enabled":  true,
	"backup.schedule": "0 3 * * *", // daily at 03:00
	"backup.keep":     14,          // number of snapshot exports retained

	"import.enabled":   true,
	"import.settle_ms": 250, // wait after fsnotify event before reading the file
}

// InitializeDefaults sets default values for settings that don't exist
func (db *DB) InitializeDefaults() error {
	for key, value := range DefaultSettings {
		existing, err := db.GetSetting(key)
		if err != nil {
			return err
		}
		if existing == "" {
			// Strings are stored raw so typed loaders read them back verbatim.
			if s, ok := value.(string); ok {
				err = db.SetSetting(key, s)
			} else {
				err = db.SetSettingJSON(key, value)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
