package postprocess

import (
	"context"
	"testing"

	"podcastpipe/internal/llm"
	"podcastpipe/internal/models"
)

type fakeChatProvider struct {
	response string
	chatErr  error
}

func (provider *fakeChatProvider) Chat(ctx context.Context, request *llm.ChatRequest) (<-chan llm.ChatResponseChunk, error) {
	if provider.chatErr != nil {
		return nil, provider.chatErr
	}
	channel := make(chan llm.ChatResponseChunk, 1)
	channel <- llm.ChatResponseChunk{Text: provider.response}
	close(channel)
	return channel, nil
}

func (provider *fakeChatProvider) Name() string { return "fake" }

func TestSpellCorrectAppliesWellFormedResponse(tester *testing.T) {
	transcript := &models.MergedTranscript{
		Text: "helo wrold",
		Segments: []models.Segment{
			{Start: 0, End: 2, Text: "helo"},
			{Start: 2, End: 4, Text: "wrold"},
		},
	}

	provider := &fakeChatProvider{response: `{"correctedText":"hello world","correctedSegments":[{"start":0,"end":2,"text":"hello"},{"start":2,"end":4,"text":"world"}],"corrections":["helo->hello","wrold->world"],"hasErrors":true}`}

	SpellCorrect(context.Background(), provider, "some-model", transcript)

	if transcript.Text != "hello world" {
		tester.Fatalf("expected corrected text to be applied, got %q", transcript.Text)
	}
	if transcript.Segments[0].Text != "hello" || transcript.Segments[1].Text != "world" {
		tester.Fatalf("expected corrected segment text, got %+v", transcript.Segments)
	}
	if transcript.Segments[0].Start != 0 || transcript.Segments[1].End != 4 {
		tester.Fatal("correction must never touch segment timing")
	}
}

func TestSpellCorrectLeavesTranscriptUntouchedOnChatError(tester *testing.T) {
	transcript := &models.MergedTranscript{Text: "original", Segments: []models.Segment{{Start: 0, End: 1, Text: "original"}}}
	provider := &fakeChatProvider{chatErr: errBoom}

	SpellCorrect(context.Background(), provider, "some-model", transcript)

	if transcript.Text != "original" {
		tester.Fatalf("expected the original transcript on chat failure, got %q", transcript.Text)
	}
}

func TestSpellCorrectLeavesTranscriptUntouchedOnNonJSONResponse(tester *testing.T) {
	transcript := &models.MergedTranscript{Text: "original"}
	provider := &fakeChatProvider{response: "not json at all"}

	SpellCorrect(context.Background(), provider, "some-model", transcript)

	if transcript.Text != "original" {
		tester.Fatalf("expected the original transcript on a non-JSON response, got %q", transcript.Text)
	}
}

func TestSpellCorrectIgnoresOutOfRangeCorrectedSegments(tester *testing.T) {
	transcript := &models.MergedTranscript{
		Text:     "one",
		Segments: []models.Segment{{Start: 0, End: 1, Text: "one"}},
	}
	provider := &fakeChatProvider{response: `{"correctedText":"one","correctedSegments":[{"start":0,"end":1,"text":"one"},{"start":1,"end":2,"text":"extra segment the transcript doesn't have"}]}`}

	SpellCorrect(context.Background(), provider, "some-model", transcript)

	if len(transcript.Segments) != 1 {
		tester.Fatalf("expected applyCorrection to bounds-check against existing segments, got %d", len(transcript.Segments))
	}
}

var errBoom = &boomError{}

type boomError struct{}

func (e *boomError) Error() string { return "boom" }
