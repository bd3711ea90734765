package subtitles

import (
	"io"
	"path"
	"strings"

	"github.com/asticode/go-astisub"
	"github.com/rs/zerolog/log"
)

// Report summarizes a parsed subtitle resource. A resource that fails to
// parse still yields a report with Valid false; probing is advisory and
// never blocks catalog edits.
type Report struct {
	Valid    bool    `json:"valid"`
	Format   string  `json:"format,omitempty"`
	CueCount int     `json:"cueCount"`
	FirstCue float64 `json:"firstCue,omitempty"`
	LastCue  float64 `json:"lastCue,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// Probe parses subtitle content and reports its shape. The format is
// picked from the URL's extension, defaulting to WebVTT since that is what
// browser text tracks use.
func Probe(url string, r io.Reader) Report {
	format := formatFor(url)

	var (
		subs *astisub.Subtitles
		err  error
	)
	switch format {
	case "srt":
		subs, err = astisub.ReadFromSRT(r)
	default:
		format = "vtt"
		subs, err = astisub.ReadFromWebVTT(r)
	}
	if err != nil {
		log.Debug().Err(err).Str("url", url).Str("format", format).Msg("Subtitle probe failed to parse")
		return Report{Format: format, Error: err.Error()}
	}

	report := Report{
		Valid:    true,
		Format:   format,
		CueCount: len(subs.Items),
	}
	if len(subs.Items) > 0 {
		report.FirstCue = subs.Items[0].StartAt.Seconds()
		report.LastCue = subs.Items[len(subs.Items)-1].EndAt.Seconds()
	}
	return report
}

func formatFor(url string) string {
	ext := strings.ToLower(path.Ext(strings.SplitN(url, "?", 2)[0]))
	switch ext {
	case ".srt":
		return "srt"
	default:
		return "vtt"
	}
}
