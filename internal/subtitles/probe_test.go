package subtitles

import (
	"strings"
	"testing"
)

const sampleVTT = `WEBVTT

00:00:01.000 --> 00:00:04.000
First line

00:00:05.000 --> 00:00:09.500
Second line
`

const sampleSRT = `1
00:00:02,000 --> 00:00:04,000
Hello

2
00:00:06,000 --> 00:00:08,000
World
`

func TestProbe_WebVTT(t *testing.T) {
	report := Probe("https://cdn.example/ep1.en.vtt", strings.NewReader(sampleVTT))

	if !report.Valid {
		t.Fatalf("expected valid report, got error %q", report.Error)
	}
	if report.Format != "vtt" {
		t.Fatalf("expected vtt format, got %q", report.Format)
	}
	if report.CueCount != 2 {
		t.Fatalf("expected 2 cues, got %d", report.CueCount)
	}
	if report.FirstCue != 1.0 {
		t.Fatalf("expected first cue at 1.0s, got %v", report.FirstCue)
	}
	if report.LastCue != 9.5 {
		t.Fatalf("expected last cue at 9.5s, got %v", report.LastCue)
	}
}

func TestProbe_SRT(t *testing.T) {
	report := Probe("https://cdn.example/ep1.srt?token=abc", strings.NewReader(sampleSRT))

	if !report.Valid {
		t.Fatalf("expected valid report, got error %q", report.Error)
	}
	if report.Format != "srt" {
		t.Fatalf("expected srt format, got %q", report.Format)
	}
	if report.CueCount != 2 {
		t.Fatalf("expected 2 cues, got %d", report.CueCount)
	}
}

func TestProbe_GarbageIsInvalidNotFatal(t *testing.T) {
	report := Probe("https://cdn.example/broken.vtt", strings.NewReader("this is not a subtitle file"))

	if report.Valid {
		t.Fatal("expected invalid report for garbage input")
	}
	if report.Error == "" {
		t.Fatal("expected parse error in report")
	}
}

func TestProbe_UnknownExtensionDefaultsToVTT(t *testing.T) {
	report := Probe("https://cdn.example/track", strings.NewReader(sampleVTT))

	if !report.Valid || report.Format != "vtt" {
		t.Fatalf("expected valid vtt, got %+v", report)
	}
}
