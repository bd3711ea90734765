package catalog

import (
	"errors"
	"strings"
)

var (
	// ErrTitleRequired rejects a create with a blank title.
	ErrTitleRequired = errors.New("title is required")

	// ErrVideoURLRequired rejects an episode create with a blank video URL.
	ErrVideoURLRequired = errors.New("videoUrl is required")
)

// The reducers below are pure: snapshot in, new snapshot out, no I/O.
// Missing ids are silent no-ops (changed=false), matching a forgiving
// single-writer editing tool. The Store wraps them with persistence and
// broadcast.

func addSeries(snap Snapshot, id string, fields SeriesFields) (Snapshot, error) {
	if strings.TrimSpace(fields.Title) == "" {
		return snap, ErrTitleRequired
	}

	next := snap.Clone()
	next.Series = append(next.Series, Series{
		ID:          id,
		Title:       fields.Title,
		Description: fields.Description,
		PosterURL:   fields.PosterURL,
		BackdropURL: fields.BackdropURL,
		Seasons:     []Season{},
	})
	return next, nil
}

func updateSeries(snap Snapshot, seriesID string, patch SeriesPatch) (Snapshot, bool) {
	next := snap.Clone()
	for i := range next.Series {
		if next.Series[i].ID != seriesID {
			continue
		}
		series := &next.Series[i]
		if patch.Title != nil {
			series.Title = *patch.Title
		}
		if patch.Description != nil {
			series.Description = *patch.Description
		}
		if patch.PosterURL != nil {
			series.PosterURL = *patch.PosterURL
		}
		if patch.BackdropURL != nil {
			series.BackdropURL = *patch.BackdropURL
		}
		return next, true
	}
	return snap, false
}

// deleteSeries cascades: dropping the series entry removes its seasons and
// their episodes with it, so no orphan can survive.
func deleteSeries(snap Snapshot, seriesID string) (Snapshot, bool) {
	next := snap.Clone()
	for i := range next.Series {
		if next.Series[i].ID == seriesID {
			next.Series = append(next.Series[:i], next.Series[i+1:]...)
			return next, true
		}
	}
	return snap, false
}

func addSeason(snap Snapshot, seriesID, id string, number int) (Snapshot, bool) {
	next := snap.Clone()
	for i := range next.Series {
		if next.Series[i].ID != seriesID {
			continue
		}
		next.Series[i].Seasons = append(next.Series[i].Seasons, Season{
			ID:       id,
			Number:   number,
			Episodes: []Episode{},
		})
		return next, true
	}
	return snap, false
}

func addEpisode(snap Snapshot, seriesID, seasonID, id string, fields EpisodeFields) (Snapshot, bool, error) {
	if strings.TrimSpace(fields.Title) == "" {
		return snap, false, ErrTitleRequired
	}
	if strings.TrimSpace(fields.VideoURL) == "" {
		return snap, false, ErrVideoURLRequired
	}

	next := snap.Clone()
	season := findSeason(&next, seriesID, seasonID)
	if season == nil {
		return snap, false, nil
	}
	season.Episodes = append(season.Episodes, Episode{
		ID:          id,
		Title:       fields.Title,
		Number:      fields.Number,
		Description: fields.Description,
		VideoURL:    fields.VideoURL,
		Audios:      cloneTracks(fields.Audios),
		Subtitles:   cloneSubtitles(fields.Subtitles),
	})
	return next, true, nil
}

func updateEpisode(snap Snapshot, seriesID, seasonID, episodeID string, patch EpisodePatch) (Snapshot, bool) {
	next := snap.Clone()
	season := findSeason(&next, seriesID, seasonID)
	if season == nil {
		return snap, false
	}
	for i := range season.Episodes {
		if season.Episodes[i].ID != episodeID {
			continue
		}
		episode := &season.Episodes[i]
		if patch.Title != nil {
			episode.Title = *patch.Title
		}
		if patch.Number != nil {
			episode.Number = *patch.Number
		}
		if patch.Description != nil {
			episode.Description = *patch.Description
		}
		if patch.VideoURL != nil {
			episode.VideoURL = *patch.VideoURL
		}
		if patch.Audios != nil {
			episode.Audios = cloneTracks(*patch.Audios)
		}
		if patch.Subtitles != nil {
			episode.Subtitles = cloneSubtitles(*patch.Subtitles)
		}
		return next, true
	}
	return snap, false
}

func deleteEpisode(snap Snapshot, seriesID, seasonID, episodeID string) (Snapshot, bool) {
	next := snap.Clone()
	season := findSeason(&next, seriesID, seasonID)
	if season == nil {
		return snap, false
	}
	for i := range season.Episodes {
		if season.Episodes[i].ID == episodeID {
			season.Episodes = append(season.Episodes[:i], season.Episodes[i+1:]...)
			return next, true
		}
	}
	return snap, false
}

func findSeason(snap *Snapshot, seriesID, seasonID string) *Season {
	for i := range snap.Series {
		if snap.Series[i].ID != seriesID {
			continue
		}
		for j := range snap.Series[i].Seasons {
			if snap.Series[i].Seasons[j].ID == seasonID {
				return &snap.Series[i].Seasons[j]
			}
		}
	}
	return nil
}
