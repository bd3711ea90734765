package playback

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/streamjoy/streamjoy/internal/catalog"
)

// EmbeddedAudio selects the audio track packaged inside the video resource
// (the default on open).
const EmbeddedAudio = -1

// SubtitlesOff is the subtitle selection meaning no active track.
const SubtitlesOff = "off"

// Config holds the drift-correction knobs.
type Config struct {
	// SyncInterval is the period of the correction tick.
	SyncInterval time.Duration

	// DriftTolerance is the maximum allowed |video - audio| position gap in
	// seconds before the audio position is forced back to the video's. This
	// is a soft lock: drift inside the tolerance is left alone.
	DriftTolerance float64
}

// DefaultConfig returns the default synchronization configuration.
func DefaultConfig() Config {
	return Config{
		SyncInterval:   500 * time.Millisecond,
		DriftTolerance: 0.3,
	}
}

// State is the subscribable readout of a session's current selection.
type State struct {
	EpisodeID string `json:"episodeId"`
	// Audio is "embedded" or the decimal index into the episode's audio list.
	Audio string `json:"audio"`
	// Subtitle is "off" or a language code.
	Subtitle string `json:"subtitle"`
	Playing  bool   `json:"playing"`
}

// Session drives one primary video transport and an optional secondary
// audio transport as a single logical unit for exactly one episode, plus
// the subtitle selection.
//
// Two correction tiers keep the transports phase-locked: transport events
// (play, pause, seek, rate change) are applied immediately, and an interval
// tick catches the slow clock drift that accumulates during steady
// playback. Corrections always read the transports' current state under the
// session lock, so a correction can never apply on top of a newer state.
type Session struct {
	cfg   config
	video Transport
	audio Transport

	mu       sync.Mutex
	episode  catalog.Episode
	audioSel int
	subtitle string
	closed   bool

	cancel context.CancelFunc
	done   chan struct{}

	onState func(State)
}

type config struct {
	syncInterval   time.Duration
	driftTolerance float64
}

// Open starts a session for the given episode. The initial selection is
// embedded audio with subtitles off. The caller owns both transports; the
// session owns their transport state until Close.
func Open(episode catalog.Episode, video, audio Transport, cfg Config) *Session {
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = DefaultConfig().SyncInterval
	}
	if cfg.DriftTolerance <= 0 {
		cfg.DriftTolerance = DefaultConfig().DriftTolerance
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg: config{
			syncInterval:   cfg.SyncInterval,
			driftTolerance: cfg.DriftTolerance,
		},
		video:    video,
		audio:    audio,
		episode:  episode,
		audioSel: EmbeddedAudio,
		subtitle: SubtitlesOff,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	video.Load(episode.VideoURL)
	video.SetMuted(false)

	go s.syncLoop(ctx)

	log.Debug().Str("episode_id", episode.ID).Msg("Playback session opened")
	return s
}

// SetOnState installs a hook invoked with the new state after every
// selection change. The hook runs synchronously under the session lock so
// state frames are delivered in commit order; it must not block and must
// not call back into the session.
func (s *Session) SetOnState(fn func(State)) {
	s.mu.Lock()
	s.onState = fn
	s.mu.Unlock()
}

// State returns the current selection readout.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	audio := "embedded"
	if s.audioSel != EmbeddedAudio {
		audio = strconv.Itoa(s.audioSel)
	}
	return State{
		EpisodeID: s.episode.ID,
		Audio:     audio,
		Subtitle:  s.subtitle,
		Playing:   s.video.Playing(),
	}
}

// Episode returns the episode this session was opened for.
func (s *Session) Episode() catalog.Episode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.episode
}

// SelectAudio switches the audio selection. EmbeddedAudio restores the
// video's own audio and stops the secondary transport; a valid index mutes
// the video, loads the external track aligned to the video's position and
// rate, and plays it iff the video is playing. An out-of-range index is
// ignored.
func (s *Session) SelectAudio(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if index == EmbeddedAudio {
		s.audioSel = EmbeddedAudio
		s.audio.Pause()
		s.audio.Unload()
		s.video.SetMuted(false)
		s.notifyLocked()
		return
	}

	if index < 0 || index >= len(s.episode.Audios) {
		log.Warn().Int("index", index).Str("episode_id", s.episode.ID).Msg("Audio track index out of range")
		return
	}

	s.audioSel = index
	s.video.SetMuted(true)
	s.audio.Load(s.episode.Audios[index].URL)
	s.audio.Seek(s.video.Position())
	s.audio.SetRate(s.video.Rate())
	if s.video.Playing() {
		s.startAudioLocked()
	}
	s.notifyLocked()
}

// SelectSubtitle switches the active subtitle track reference without
// touching either transport. SubtitlesOff removes the active track.
func (s *Session) SelectSubtitle(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if lang == "" {
		lang = SubtitlesOff
	}
	s.subtitle = lang
	s.notifyLocked()
}

// VideoPlay handles the video transport's play event.
func (s *Session) VideoPlay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.audioSel == EmbeddedAudio {
		return
	}
	s.audio.Seek(s.video.Position())
	s.startAudioLocked()
}

// VideoPause handles the video transport's pause event.
func (s *Session) VideoPause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.audioSel == EmbeddedAudio {
		return
	}
	s.audio.Pause()
}

// VideoSeeked handles the video transport's seek events: the audio position
// is realigned immediately rather than waiting for the next tick.
func (s *Session) VideoSeeked() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.audioSel == EmbeddedAudio {
		return
	}
	s.audio.Seek(s.video.Position())
}

// VideoRateChange propagates the video's new playback rate to the audio.
func (s *Session) VideoRateChange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.audioSel == EmbeddedAudio {
		return
	}
	s.audio.SetRate(s.video.Rate())
}

// Reconcile runs one drift-correction pass. It is called from the interval
// loop and exposed for callers that need an immediate pass.
func (s *Session) Reconcile() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconcileLocked()
}

func (s *Session) reconcileLocked() {
	if s.closed || s.audioSel == EmbeddedAudio {
		return
	}

	videoPos := s.video.Position()
	drift := videoPos - s.audio.Position()
	if math.Abs(drift) > s.cfg.driftTolerance {
		log.Trace().
			Float64("drift", drift).
			Float64("video_pos", videoPos).
			Str("episode_id", s.episode.ID).
			Msg("Correcting audio drift")
		s.audio.Seek(videoPos)
	}

	// Catch play/pause transitions missed between events.
	if s.video.Playing() && !s.audio.Playing() {
		s.startAudioLocked()
	} else if !s.video.Playing() && s.audio.Playing() {
		s.audio.Pause()
	}
}

// startAudioLocked starts the secondary audio, swallowing refusals (for
// example an autoplay policy rejection). Video playback continues either
// way; the reconciler retries on later ticks once the environment allows it.
func (s *Session) startAudioLocked() {
	if err := s.audio.Play(); err != nil {
		log.Debug().Err(err).Str("episode_id", s.episode.ID).Msg("Secondary audio refused to start, continuing degraded")
	}
}

// Close stops both transports and releases the interval loop. It is
// idempotent and must run on every exit path so no detached audio keeps
// playing after the video is gone.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	episodeID := s.episode.ID

	s.audio.Pause()
	s.audio.Unload()
	s.video.Pause()
	s.video.SetMuted(false)
	s.video.Unload()
	s.mu.Unlock()

	s.cancel()
	<-s.done

	log.Debug().Str("episode_id", episodeID).Msg("Playback session closed")
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) syncLoop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Reconcile()
		}
	}
}

func (s *Session) notifyLocked() {
	if s.onState == nil {
		return
	}
	s.onState(s.stateLocked())
}
