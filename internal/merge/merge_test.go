package merge

import (
	"errors"
	"testing"

	"podcastpipe/internal/models"
	"podcastpipe/internal/transcribe"
)

func TestSinglePassesThroughUnchanged(tester *testing.T) {
	raw := models.RawTranscript{
		Text:        "hello world",
		DurationSec: 12.5,
		Language:    "en",
		Segments:    []models.Segment{{Start: 0, End: 5, Text: "hello"}},
	}

	merged := Single(raw)

	if merged.TotalSegments != 1 {
		tester.Fatalf("expected TotalSegments 1, got %d", merged.TotalSegments)
	}
	if merged.Text != raw.Text || merged.Language != raw.Language || merged.DurationSec != raw.DurationSec {
		tester.Fatal("Single must pass text/language/duration through unchanged")
	}
}

func TestSegmentsUsesFixedOffsetsNotAccumulatedDuration(tester *testing.T) {
	const segmentDurationSec = 300

	outcomes := []transcribe.SegmentOutcome{
		{Index: 0, Raw: models.RawTranscript{Text: "first", Segments: []models.Segment{{Start: 0, End: 10, Text: "first"}}}},
		{Index: 1, Raw: models.RawTranscript{Text: "second", Segments: []models.Segment{{Start: 0, End: 8, Text: "second"}}}},
	}

	merged := Segments(outcomes, segmentDurationSec)

	if len(merged.Segments) != 2 {
		tester.Fatalf("expected 2 merged segments, got %d", len(merged.Segments))
	}
	// offset_i = i * segmentDurationSec, not the sum of each segment's own reported duration.
	if merged.Segments[0].Start != 0 || merged.Segments[0].End != 10 {
		tester.Errorf("segment 0 should be unshifted: got start=%v end=%v", merged.Segments[0].Start, merged.Segments[0].End)
	}
	if merged.Segments[1].Start != segmentDurationSec || merged.Segments[1].End != segmentDurationSec+8 {
		tester.Errorf("segment 1 should be shifted by exactly %ds: got start=%v end=%v", segmentDurationSec, merged.Segments[1].Start, merged.Segments[1].End)
	}
}

func TestSegmentsSkipsFailedSegmentsButKeepsFullDuration(tester *testing.T) {
	const segmentDurationSec = 300

	outcomes := []transcribe.SegmentOutcome{
		{Index: 0, Raw: models.RawTranscript{Text: "first", Segments: []models.Segment{{Start: 0, End: 10, Text: "first"}}}},
		{Index: 1, Err: errors.New("provider exhausted retries")},
		{Index: 2, Raw: models.RawTranscript{Text: "third", Segments: []models.Segment{{Start: 0, End: 5, Text: "third"}}}},
	}

	merged := Segments(outcomes, segmentDurationSec)

	if merged.TotalSegments != 3 {
		tester.Fatalf("expected TotalSegments to count every outcome including failures, got %d", merged.TotalSegments)
	}
	if merged.DurationSec != 3*segmentDurationSec {
		tester.Fatalf("expected duration to advance for the failed segment too, got %v", merged.DurationSec)
	}
	if len(merged.Segments) != 2 {
		tester.Fatalf("expected only the 2 successful segments' text, got %d", len(merged.Segments))
	}
	if merged.Segments[1].Start != 2*segmentDurationSec {
		tester.Errorf("segment at original index 2 should offset by 2*segmentDurationSec regardless of the skipped segment, got %v", merged.Segments[1].Start)
	}
}

func TestSegmentsToleratesOutOfOrderCompletion(tester *testing.T) {
	const segmentDurationSec = 60

	outcomes := []transcribe.SegmentOutcome{
		{Index: 2, Raw: models.RawTranscript{Text: "third"}},
		{Index: 0, Raw: models.RawTranscript{Text: "first"}},
		{Index: 1, Raw: models.RawTranscript{Text: "second"}},
	}

	merged := Segments(outcomes, segmentDurationSec)

	want := "=== Segment 0 ===\nfirst\n\n=== Segment 1 ===\nsecond\n\n=== Segment 2 ===\nthird"
	if merged.Text != want {
		tester.Fatalf("expected text ordered by Index regardless of completion order, got %q", merged.Text)
	}
}

func TestSegmentsEmbedsADividerWhenMultiSegment(tester *testing.T) {
	outcomes := []transcribe.SegmentOutcome{
		{Index: 0, Raw: models.RawTranscript{Text: "first"}},
		{Index: 1, Raw: models.RawTranscript{Text: "second"}},
	}

	merged := Segments(outcomes, 60)

	want := "=== Segment 0 ===\nfirst\n\n=== Segment 1 ===\nsecond"
	if merged.Text != want {
		tester.Fatalf("expected a Segment i divider before each block for a multi-segment merge, got %q", merged.Text)
	}
}

func TestSegmentsNeverDividesWhenOnlyOneOutcome(tester *testing.T) {
	outcomes := []transcribe.SegmentOutcome{
		{Index: 0, Raw: models.RawTranscript{Text: "only"}},
	}

	merged := Segments(outcomes, 60)

	if merged.Text != "only" {
		tester.Fatalf("a single-outcome segmented merge should not carry a divider, got %q", merged.Text)
	}
}
