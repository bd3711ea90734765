package catalog

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Persister is the durable storage boundary for the serialized catalog.
type Persister interface {
	SaveCatalog(data []byte) error
	LoadCatalog() ([]byte, error)
}

// Store is the single source of truth for the catalog tree. Every mutation
// runs reducer, write-through persist, and subscriber broadcast under one
// lock, so no torn snapshot is ever observable.
type Store struct {
	mu        sync.Mutex
	snapshot  Snapshot
	persister Persister
	newID     func() string

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int

	onChange func(Snapshot)
}

// NewStore hydrates a store from the persister. Load failures and corrupt
// data degrade to the empty catalog.
func NewStore(persister Persister) *Store {
	s := &Store{
		persister: persister,
		newID:     uuid.NewString,
		subs:      make(map[int]chan Snapshot),
	}

	data, err := persister.LoadCatalog()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load stored catalog, starting empty")
		s.snapshot = Empty()
		return s
	}
	s.snapshot = Decode(data)

	log.Info().Int("series", len(s.snapshot.Series)).Msg("Catalog loaded")
	return s
}

// SetOnChange installs a hook invoked with each new snapshot, for broadcast
// fan-out beyond channel subscribers. The hook runs synchronously on the
// mutating goroutine so consumers see commits in order; it must not block
// and must not call back into the store.
func (s *Store) SetOnChange(fn func(Snapshot)) {
	s.subMu.Lock()
	s.onChange = fn
	s.subMu.Unlock()
}

// Subscribe registers a snapshot channel. The returned cancel function
// removes the subscription and closes the channel.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 4)
	s.subs[id] = ch

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

// Snapshot returns the current catalog version.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// FindEpisode looks up an episode by its full path in the current version.
func (s *Store) FindEpisode(seriesID, seasonID, episodeID string) (Episode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.FindEpisode(seriesID, seasonID, episodeID)
}

// AddSeries creates a series with a fresh id. The title must be non-empty.
func (s *Store) AddSeries(fields SeriesFields) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := addSeries(s.snapshot, s.newID(), fields)
	if err != nil {
		return s.snapshot.Clone(), err
	}
	s.commit(next)
	return next.Clone(), nil
}

// UpdateSeries shallow-merges the patch into the matching series. A missing
// id is a silent no-op.
func (s *Store) UpdateSeries(seriesID string, patch SeriesPatch) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := updateSeries(s.snapshot, seriesID, patch)
	if changed {
		s.commit(next)
	}
	return next.Clone()
}

// DeleteSeries removes the series and everything beneath it.
func (s *Store) DeleteSeries(seriesID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := deleteSeries(s.snapshot, seriesID)
	if changed {
		s.commit(next)
	}
	return next.Clone()
}

// AddSeason appends a season to the series. A missing series id is a
// silent no-op.
func (s *Store) AddSeason(seriesID string, number int) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := addSeason(s.snapshot, seriesID, s.newID(), number)
	if changed {
		s.commit(next)
	}
	return next.Clone()
}

// AddEpisode appends an episode to the season. Title and video URL must be
// non-empty; a missing series/season path is a silent no-op.
func (s *Store) AddEpisode(seriesID, seasonID string, fields EpisodeFields) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed, err := addEpisode(s.snapshot, seriesID, seasonID, s.newID(), fields)
	if err != nil {
		return s.snapshot.Clone(), err
	}
	if changed {
		s.commit(next)
	}
	return next.Clone(), nil
}

// UpdateEpisode shallow-merges the patch into the matching episode.
func (s *Store) UpdateEpisode(seriesID, seasonID, episodeID string, patch EpisodePatch) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := updateEpisode(s.snapshot, seriesID, seasonID, episodeID, patch)
	if changed {
		s.commit(next)
	}
	return next.Clone()
}

// DeleteEpisode removes the matching episode.
func (s *Store) DeleteEpisode(seriesID, seasonID, episodeID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := deleteEpisode(s.snapshot, seriesID, seasonID, episodeID)
	if changed {
		s.commit(next)
	}
	return next.Clone()
}

// Replace installs an externally supplied snapshot wholesale (bulk import),
// persisting and broadcasting it like any mutation.
func (s *Store) Replace(snap Snapshot) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := snap.Clone()
	if next.Series == nil {
		next.Series = []Series{}
	}
	s.commit(next)
	return next.Clone()
}

// commit installs the new version, write-through persists it, and notifies
// subscribers. Persist failures are logged but do not roll back the
// in-memory state; browsing continues on the live copy.
func (s *Store) commit(next Snapshot) {
	s.snapshot = next

	data, err := Encode(next)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode catalog for persistence")
	} else if err := s.persister.SaveCatalog(data); err != nil {
		log.Error().Err(err).Msg("Failed to persist catalog")
	}

	s.notify(next.Clone())
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Slow subscriber; it will catch up on the next change.
		}
	}
	if s.onChange != nil {
		s.onChange(snap)
	}
}
