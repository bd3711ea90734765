package catalog

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
)

// Encode serializes a snapshot to its durable JSON form.
func Encode(snap Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// Decode parses a serialized snapshot. It fails soft: absent, empty, or
// unparseable input yields the canonical empty snapshot rather than an
// error, so corrupt storage can never take the catalog down.
func Decode(data []byte) Snapshot {
	if strings.TrimSpace(string(data)) == "" {
		return Empty()
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Warn().Err(err).Msg("Stored catalog is not valid JSON, starting empty")
		return Empty()
	}
	if snap.Series == nil {
		snap.Series = []Series{}
	}
	return snap
}
