package render

import (
	"encoding/json"
	"strings"
	"testing"

	"podcastpipe/internal/models"
)

func sampleTranscript() models.MergedTranscript {
	return models.MergedTranscript{
		Text:          "hello there\n\ngeneral kenobi",
		Language:      "en",
		DurationSec:   12,
		TotalSegments: 2,
		Segments: []models.Segment{
			{Start: 0, End: 5, Text: "hello there"},
			{Start: 65, End: 70, Text: "general kenobi"},
		},
	}
}

func TestTXTIncludesTimestampsAndDividerWhenMultiSegment(tester *testing.T) {
	output := TXT(sampleTranscript())

	if !strings.Contains(output, "[00:00 - 00:05] hello there") {
		tester.Errorf("missing first segment line, got:\n%s", output)
	}
	if !strings.Contains(output, "[01:05 - 01:10] general kenobi") {
		tester.Errorf("missing second segment line, got:\n%s", output)
	}
	if !strings.Contains(output, "=== Segment 0 ===") || !strings.Contains(output, "=== Segment 1 ===") {
		tester.Errorf("expected per-segment dividers for a multi-segment transcript, got:\n%s", output)
	}
}

func TestTXTOmitsDividerForSingleSegment(tester *testing.T) {
	transcript := sampleTranscript()
	transcript.Segments = transcript.Segments[:1]
	transcript.TotalSegments = 1

	output := TXT(transcript)
	if strings.Contains(output, "=== Segment") {
		tester.Errorf("did not expect a divider for a single segment, got:\n%s", output)
	}
}

func TestTXTFallsBackToRawTextWithNoSegments(tester *testing.T) {
	transcript := models.MergedTranscript{Text: "just plain text"}
	if got := TXT(transcript); got != "just plain text" {
		tester.Fatalf("expected raw text fallback, got %q", got)
	}
}

func TestSRTFormatsIndexAndCommaMillis(tester *testing.T) {
	output := SRT(sampleTranscript())

	if !strings.HasPrefix(output, "1\n00:00:00,000 --> 00:00:05,000\nhello there\n\n") {
		tester.Fatalf("unexpected SRT head:\n%s", output)
	}
	if !strings.Contains(output, "2\n00:01:05,000 --> 00:01:10,000\ngeneral kenobi\n\n") {
		tester.Fatalf("unexpected second SRT cue:\n%s", output)
	}
}

func TestVTTHasHeaderAndDotMillisNoIndex(tester *testing.T) {
	output := VTT(sampleTranscript())

	if !strings.HasPrefix(output, "WEBVTT\n\n00:00:00.000 --> 00:00:05.000\nhello there\n\n") {
		tester.Fatalf("unexpected VTT output:\n%s", output)
	}
	if strings.Contains(output, "\n1\n") {
		tester.Fatal("VTT cues must not carry an index")
	}
}

func TestJSONRoundTripsSegmentsAndMetadata(tester *testing.T) {
	raw := JSON(sampleTranscript(), "whisper-1", true)

	var decoded struct {
		Text     string `json:"text"`
		Language string `json:"language"`
		Duration float64 `json:"duration"`
		Segments []struct {
			ID    string  `json:"id"`
			Text  string  `json:"text"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
		} `json:"segments"`
		Metadata struct {
			Model         string `json:"model"`
			Processed     bool   `json:"processed"`
			TotalSegments int    `json:"total_segments"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		tester.Fatalf("rendered JSON did not parse: %v", err)
	}

	if decoded.Metadata.Model != "whisper-1" || !decoded.Metadata.Processed || decoded.Metadata.TotalSegments != 2 {
		tester.Fatalf("unexpected metadata: %+v", decoded.Metadata)
	}
	if len(decoded.Segments) != 2 || decoded.Segments[0].ID == "" {
		tester.Fatalf("expected 2 segments each with a generated id, got %+v", decoded.Segments)
	}
}

func TestRenderProducesOnlyRequestedFormats(tester *testing.T) {
	formats := Render(sampleTranscript(), []models.OutputFormat{models.FormatTXT, models.FormatSRT}, "whisper-1", false)

	if len(formats) != 2 {
		tester.Fatalf("expected exactly 2 rendered formats, got %d", len(formats))
	}
	if _, ok := formats[models.FormatVTT]; ok {
		tester.Fatal("did not request vtt, it should not be rendered")
	}
}
