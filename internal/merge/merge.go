// Package merge implements spec §4.5: recombining per-segment transcription results into one
// drift-free MergedTranscript using fixed segment offsets rather than accumulated provider
// durations — grounded on the teacher's internal/transcription/service.go, whose
// `segmentBaseOffsetMilliseconds := int64(idx) * int64(segmentDurationSeconds) * 1000`
// calculation is exactly this spec's critical design decision, generalized here into a
// standalone, side-effect-free stage instead of being inlined in the transcription loop.
package merge

import (
	"fmt"
	"sort"
	"strings"

	"podcastpipe/internal/models"
	"podcastpipe/internal/transcribe"
)

// Single passes a single-file RawTranscript through unchanged: no offset adjustment is
// needed, and language/duration come straight from the response (spec §4.5).
func Single(raw models.RawTranscript) models.MergedTranscript {
	return models.MergedTranscript{
		Text:          raw.Text,
		Language:      raw.Language,
		DurationSec:   raw.DurationSec,
		TotalSegments: 1,
		Segments:      raw.Segments,
	}
}

// Segments merges a segmented plan's outcomes. Failed segments are skipped but still advance
// the timeline: duration is always N * segmentDurationSec regardless of how many segments
// actually succeeded (spec §4.5, testable property #1 and scenario #3).
func Segments(outcomes []transcribe.SegmentOutcome, segmentDurationSec int) models.MergedTranscript {
	sorted := make([]transcribe.SegmentOutcome, len(outcomes))
	copy(sorted, outcomes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	merged := models.MergedTranscript{
		TotalSegments: len(outcomes),
		DurationSec:   float64(len(outcomes) * segmentDurationSec),
	}

	var textParts []indexedText
	var detectedLanguage string

	for _, outcome := range sorted {
		if outcome.Err != nil {
			continue
		}

		offsetSec := float64(outcome.Index * segmentDurationSec)
		for _, segment := range outcome.Raw.Segments {
			shifted := segment
			shifted.Start = clampNonNegative(segment.Start) + offsetSec
			shifted.End = clampNonNegative(segment.End) + offsetSec
			merged.Segments = append(merged.Segments, shifted)
		}

		if detectedLanguage == "" && outcome.Raw.Language != "" {
			detectedLanguage = outcome.Raw.Language
		}

		textParts = append(textParts, indexedText{index: outcome.Index, text: outcome.Raw.Text})
	}

	merged.Language = detectedLanguage
	merged.Text = joinWithDividers(textParts, merged.TotalSegments > 1)
	return merged
}

func clampNonNegative(value float64) float64 {
	if value < 0 {
		return 0
	}
	return value
}

type indexedText struct {
	index int
	text  string
}

// joinWithDividers builds MergedTranscript.Text from the successfully transcribed parts,
// preceding each with an "=== Segment i ===" divider when withDividers is true (spec §4.5
// step 3: a multi-segment job's merged text carries the divider even before package render
// gets to decide anything about TXT-specific formatting).
func joinWithDividers(parts []indexedText, withDividers bool) string {
	blocks := make([]string, 0, len(parts))
	for _, part := range parts {
		if withDividers {
			blocks = append(blocks, fmt.Sprintf("=== Segment %d ===\n%s", part.index, part.text))
			continue
		}
		blocks = append(blocks, part.text)
	}
	return strings.Join(blocks, "\n\n")
}
