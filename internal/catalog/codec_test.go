package catalog

import (
	"reflect"
	"testing"
)

func TestDecode_EmptyAndCorruptInputsYieldEmptySnapshot(t *testing.T) {
	inputs := map[string][]byte{
		"nil":             nil,
		"empty":           []byte(""),
		"whitespace":      []byte("   \n\t"),
		"truncated json":  []byte("{not json"),
		"wrong shape":     []byte("[1,2,3]"),
		"bare string":     []byte(`"series"`),
		"wrong type":      []byte(`{"series": 5}`),
		"null series key": []byte(`{"series": null}`),
	}

	for name, data := range inputs {
		got := Decode(data)
		if !reflect.DeepEqual(got, Empty()) {
			t.Fatalf("%s: expected empty snapshot, got %+v", name, got)
		}
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	snap := Snapshot{Series: []Series{
		{
			ID:          "s1",
			Title:       "Show",
			Description: "a show",
			PosterURL:   "https://cdn.example/poster.jpg",
			Seasons: []Season{
				{
					ID:     "se1",
					Number: 1,
					Episodes: []Episode{
						{
							ID:       "ep1",
							Title:    "Pilot",
							Number:   1,
							VideoURL: "https://cdn.example/pilot.mp4",
							Audios:   []AudioTrack{{Label: "French", URL: "fr.mp3"}},
							Subtitles: []SubtitleTrack{
								{Lang: "en", URL: "en.vtt"},
								{Lang: "fr", URL: "fr.vtt"},
							},
						},
						{ID: "ep2", Title: "Two", Number: 2, VideoURL: "two.mp4"},
					},
				},
				{ID: "se2", Number: 2, Episodes: []Episode{}},
			},
		},
		{ID: "s2", Title: "Other", Seasons: []Season{}},
	}}

	data, err := Encode(snap)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got := Decode(data)
	if !reflect.DeepEqual(got, snap) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, snap)
	}
}

func TestEncodeDecode_RoundTripsStoreBuiltSnapshot(t *testing.T) {
	s, _ := newTestStore(t)
	seriesID, seasonID, episodeID := seedEpisode(t, s, "Show")

	audios := []AudioTrack{{Label: "Commentary", URL: "c.m4a"}}
	s.UpdateEpisode(seriesID, seasonID, episodeID, EpisodePatch{Audios: &audios})

	snap := s.Snapshot()
	data, err := Encode(snap)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got := Decode(data); !reflect.DeepEqual(got, snap) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, snap)
	}
}
