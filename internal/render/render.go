// Package render implements spec §4.7/§6.4: producing TXT/SRT/VTT/JSON from a
// MergedTranscript. All four derive from the same segment list and are pure functions — no
// I/O, no shared state — so the same MergedTranscript renders identically every time
// (spec §8's idempotence law) except for JSON's timestamp/uuid fields.
package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"podcastpipe/internal/models"
)

// Render produces every format in formats from transcript. model is recorded in the JSON
// metadata block (spec §4.7).
func Render(transcript models.MergedTranscript, formats []models.OutputFormat, model string, processed bool) models.RenderedFormats {
	out := make(models.RenderedFormats, len(formats))
	for _, format := range formats {
		switch format {
		case models.FormatTXT:
			out[format] = TXT(transcript)
		case models.FormatSRT:
			out[format] = SRT(transcript)
		case models.FormatVTT:
			out[format] = VTT(transcript)
		case models.FormatJSON:
			out[format] = JSON(transcript, model, processed)
		}
	}
	return out
}

// TXT renders `[MM:SS - MM:SS] <text>` blocks separated by blank lines, with a
// `=== Segment i ===` divider (i being the block's position in Segments) preceding each block
// only when the transcript was merged from more than one slice (TotalSegments > 1) (spec §4.7,
// §9 Open Question: dividers are TXT-only). Falls back to the raw text when there are no
// segments.
func TXT(transcript models.MergedTranscript) string {
	if len(transcript.Segments) == 0 {
		return transcript.Text
	}

	var builder strings.Builder
	multiSegment := transcript.TotalSegments > 1
	for index, segment := range transcript.Segments {
		if index > 0 {
			builder.WriteString("\n\n")
		}
		if multiSegment {
			fmt.Fprintf(&builder, "=== Segment %d ===\n", index)
		}
		fmt.Fprintf(&builder, "[%s - %s] %s", formatMinutesSeconds(segment.Start), formatMinutesSeconds(segment.End), segment.Text)
	}
	return builder.String()
}

// SRT renders `index\nHH:MM:SS,mmm --> HH:MM:SS,mmm\ntext\n\n` blocks, milliseconds floored.
func SRT(transcript models.MergedTranscript) string {
	var builder strings.Builder
	for index, segment := range transcript.Segments {
		fmt.Fprintf(&builder, "%d\n%s --> %s\n%s\n\n", index+1, formatSRTTimestamp(segment.Start), formatSRTTimestamp(segment.End), segment.Text)
	}
	return builder.String()
}

// VTT renders a WEBVTT header followed by `HH:MM:SS.mmm --> HH:MM:SS.mmm\ntext\n\n` blocks,
// with no cue index.
func VTT(transcript models.MergedTranscript) string {
	var builder strings.Builder
	builder.WriteString("WEBVTT\n\n")
	for _, segment := range transcript.Segments {
		fmt.Fprintf(&builder, "%s --> %s\n%s\n\n", formatVTTTimestamp(segment.Start), formatVTTTimestamp(segment.End), segment.Text)
	}
	return builder.String()
}

type jsonSegment struct {
	ID    string        `json:"id"`
	Text  string        `json:"text"`
	Start float64       `json:"start"`
	End   float64       `json:"end"`
	Words []models.Word `json:"words,omitempty"`
}

type jsonMetadata struct {
	Model         string    `json:"model"`
	Timestamp     time.Time `json:"timestamp"`
	Processed     bool      `json:"processed"`
	TotalSegments int       `json:"total_segments"`
}

type jsonTranscript struct {
	Text     string        `json:"text"`
	Language string        `json:"language"`
	Duration float64       `json:"duration"`
	Segments []jsonSegment `json:"segments"`
	Metadata jsonMetadata  `json:"metadata"`
}

// JSON renders the structured document of spec §4.7, pretty-printed with a 2-space indent
// (spec §6.4). A fresh UUID is generated for each segment on every render, so segment ids
// differ between two renders of the same transcript.
func JSON(transcript models.MergedTranscript, model string, processed bool) string {
	document := jsonTranscript{
		Text:     transcript.Text,
		Language: transcript.Language,
		Duration: transcript.DurationSec,
		Metadata: jsonMetadata{
			Model:         model,
			Timestamp:     time.Now(),
			Processed:     processed,
			TotalSegments: transcript.TotalSegments,
		},
	}
	for _, segment := range transcript.Segments {
		document.Segments = append(document.Segments, jsonSegment{
			ID:    uuid.NewString(),
			Text:  segment.Text,
			Start: segment.Start,
			End:   segment.End,
			Words: segment.Words,
		})
	}

	encoded, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(encoded)
}

func formatMinutesSeconds(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func formatSRTTimestamp(seconds float64) string {
	return formatTimestamp(seconds, ",")
}

func formatVTTTimestamp(seconds float64) string {
	return formatTimestamp(seconds, ".")
}

func formatTimestamp(seconds float64, millisSeparator string) string {
	totalMillis := int64(seconds * 1000)
	hours := totalMillis / 3_600_000
	totalMillis %= 3_600_000
	minutes := totalMillis / 60_000
	totalMillis %= 60_000
	secs := totalMillis / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, secs, millisSeparator, millis)
}
