package postprocess

import (
	"testing"

	"podcastpipe/internal/models"
)

func TestLabelSpeakersNoopOnEmptyTranscript(tester *testing.T) {
	transcript := &models.MergedTranscript{}
	LabelSpeakers(transcript, 1)
	if len(transcript.Segments) != 0 {
		tester.Fatal("expected no segments to appear out of nowhere")
	}
}

func TestLabelSpeakersLabelsEverySegment(tester *testing.T) {
	transcript := &models.MergedTranscript{
		Segments: []models.Segment{
			{Start: 0, End: 5, Text: "hello there"},
			{Start: 5, End: 9, Text: "hi"},
			{Start: 40, End: 45, Text: "a completely different and much longer response that shifts the conversation"},
		},
	}

	LabelSpeakers(transcript, 42)

	for index, segment := range transcript.Segments {
		if segment.Speaker == "" {
			tester.Errorf("segment %d has no speaker label", index)
		}
	}
	if transcript.Segments[0].Speaker != "Speaker 1" {
		tester.Fatalf("expected the first segment to be Speaker 1, got %s", transcript.Segments[0].Speaker)
	}
}

func TestLabelSpeakersIsDeterministicForAGivenSeed(tester *testing.T) {
	build := func() *models.MergedTranscript {
		return &models.MergedTranscript{
			Segments: []models.Segment{
				{Start: 0, End: 5, Text: "hello there"},
				{Start: 20, End: 25, Text: "a much longer reply that changes the subject entirely"},
				{Start: 50, End: 55, Text: "yet another long interjection after a big pause"},
			},
		}
	}

	first := build()
	second := build()
	LabelSpeakers(first, 7)
	LabelSpeakers(second, 7)

	for index := range first.Segments {
		if first.Segments[index].Speaker != second.Segments[index].Speaker {
			tester.Fatalf("same seed must produce the same labelling at segment %d: %s vs %s", index, first.Segments[index].Speaker, second.Segments[index].Speaker)
		}
	}
}

func TestLabelSpeakersNeverExceedsMaxSpeakers(tester *testing.T) {
	transcript := &models.MergedTranscript{}
	for i := 0; i < 30; i++ {
		transcript.Segments = append(transcript.Segments, models.Segment{
			Start: float64(i * 100),
			End:   float64(i*100 + 5),
			Text:  "a sufficiently long segment of text to trigger a length jump consideration",
		})
	}

	LabelSpeakers(transcript, 3)

	seen := map[string]bool{}
	for _, segment := range transcript.Segments {
		seen[segment.Speaker] = true
	}
	if len(seen) > maxSpeakers {
		tester.Fatalf("expected at most %d distinct speakers, got %d", maxSpeakers, len(seen))
	}
}
