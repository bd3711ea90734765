package catalog

import "sort"

// AudioTrack is an externally sourced alternate-language audio resource.
type AudioTrack struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// SubtitleTrack is a subtitle resource keyed by language code.
type SubtitleTrack struct {
	Lang string `json:"lang"`
	URL  string `json:"url"`
}

// Episode is a playable entry inside a season. Audios and Subtitles are
// independent optional enrichments; an episode with neither plays with the
// audio embedded in the video and no subtitles.
type Episode struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Number      int             `json:"number"`
	Description string          `json:"description,omitempty"`
	VideoURL    string          `json:"videoUrl"`
	Audios      []AudioTrack    `json:"audios,omitempty"`
	Subtitles   []SubtitleTrack `json:"subtitles,omitempty"`
}

// Season groups episodes under a display number. Numbers need not be
// unique; display order is by number with insertion order as tie-break.
type Season struct {
	ID       string    `json:"id"`
	Number   int       `json:"number"`
	Episodes []Episode `json:"episodes"`
}

// Series is the root catalog entity and exclusively owns its seasons.
type Series struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	PosterURL   string   `json:"posterUrl,omitempty"`
	BackdropURL string   `json:"backdropUrl,omitempty"`
	Seasons     []Season `json:"seasons"`
}

// Snapshot is the whole catalog value. It is the unit of persistence and
// notification; each mutation produces a fresh version and versions already
// handed out are never mutated.
type Snapshot struct {
	Series []Series `json:"series"`
}

// Empty returns the canonical empty snapshot.
func Empty() Snapshot {
	return Snapshot{Series: []Series{}}
}

// Clone deep-copies the snapshot so mutators never alias a version a
// subscriber already holds.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Series: make([]Series, len(s.Series))}
	for i, series := range s.Series {
		out.Series[i] = series.clone()
	}
	return out
}

func (s Series) clone() Series {
	out := s
	out.Seasons = make([]Season, len(s.Seasons))
	for i, season := range s.Seasons {
		out.Seasons[i] = season.clone()
	}
	return out
}

func (s Season) clone() Season {
	out := s
	out.Episodes = make([]Episode, len(s.Episodes))
	for i, episode := range s.Episodes {
		out.Episodes[i] = episode.clone()
	}
	return out
}

func (e Episode) clone() Episode {
	out := e
	out.Audios = cloneTracks(e.Audios)
	out.Subtitles = cloneSubtitles(e.Subtitles)
	return out
}

// cloneTracks and cloneSubtitles preserve nil-ness so a snapshot round-trips
// through the codec value-equal.
func cloneTracks(tracks []AudioTrack) []AudioTrack {
	if tracks == nil {
		return nil
	}
	out := make([]AudioTrack, len(tracks))
	copy(out, tracks)
	return out
}

func cloneSubtitles(tracks []SubtitleTrack) []SubtitleTrack {
	if tracks == nil {
		return nil
	}
	out := make([]SubtitleTrack, len(tracks))
	copy(out, tracks)
	return out
}

// Sorted returns a display-ordered copy: seasons and episodes sorted by
// number ascending, with the stored insertion order as the stable tie-break.
func (s Snapshot) Sorted() Snapshot {
	out := s.Clone()
	for i := range out.Series {
		seasons := out.Series[i].Seasons
		sort.SliceStable(seasons, func(a, b int) bool {
			return seasons[a].Number < seasons[b].Number
		})
		for j := range seasons {
			episodes := seasons[j].Episodes
			sort.SliceStable(episodes, func(a, b int) bool {
				return episodes[a].Number < episodes[b].Number
			})
		}
	}
	return out
}

// FindSeries looks up a series by id.
func (s Snapshot) FindSeries(seriesID string) (Series, bool) {
	for _, series := range s.Series {
		if series.ID == seriesID {
			return series.clone(), true
		}
	}
	return Series{}, false
}

// FindEpisode looks up an episode by its full path.
func (s Snapshot) FindEpisode(seriesID, seasonID, episodeID string) (Episode, bool) {
	for _, series := range s.Series {
		if series.ID != seriesID {
			continue
		}
		for _, season := range series.Seasons {
			if season.ID != seasonID {
				continue
			}
			for _, episode := range season.Episodes {
				if episode.ID == episodeID {
					return episode.clone(), true
				}
			}
		}
	}
	return Episode{}, false
}

// SeriesFields holds the caller-supplied fields for a series create.
type SeriesFields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PosterURL   string `json:"posterUrl"`
	BackdropURL string `json:"backdropUrl"`
}

// SeriesPatch is a partial series update. Nil fields are left untouched.
type SeriesPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	PosterURL   *string `json:"posterUrl"`
	BackdropURL *string `json:"backdropUrl"`
}

// EpisodeFields holds the caller-supplied fields for an episode create.
type EpisodeFields struct {
	Title       string          `json:"title"`
	Number      int             `json:"number"`
	Description string          `json:"description"`
	VideoURL    string          `json:"videoUrl"`
	Audios      []AudioTrack    `json:"audios"`
	Subtitles   []SubtitleTrack `json:"subtitles"`
}

// EpisodePatch is a partial episode update. Nil fields are left untouched;
// a non-nil slice pointer replaces the whole list (shallow merge).
type EpisodePatch struct {
	Title       *string          `json:"title"`
	Number      *int             `json:"number"`
	Description *string          `json:"description"`
	VideoURL    *string          `json:"videoUrl"`
	Audios      *[]AudioTrack    `json:"audios"`
	Subtitles   *[]SubtitleTrack `json:"subtitles"`
}
