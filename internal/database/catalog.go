package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SaveCatalog stores the serialized catalog snapshot, replacing the
// previous version. The catalog table holds exactly one row.
func (db *DB) SaveCatalog(data []byte) error {
	_, err := db.Exec(`
		INSERT INTO catalog (id, snapshot, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at
	`, string(data), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	return nil
}

// LoadCatalog returns the serialized catalog snapshot, or an empty slice on
// virgin storage. The caller's codec is responsible for tolerating corrupt
// payloads.
func (db *DB) LoadCatalog() ([]byte, error) {
	var snapshot string
	err := db.QueryRow("SELECT snapshot FROM catalog WHERE id = 1").Scan(&snapshot)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return []byte(snapshot), nil
}
