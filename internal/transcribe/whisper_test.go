package transcribe

import (
	"errors"
	"testing"

	"podcastpipe/internal/models"
)

func TestParseWhisperOutputMapsTextLanguageAndSegments(tester *testing.T) {
	payload := []byte(`{
		"text": "hello world",
		"language": "en",
		"segments": [
			{"start": 0, "end": 1.5, "text": "hello"},
			{"start": 1.5, "end": 3, "text": "world"}
		]
	}`)

	raw, err := parseWhisperOutput(payload)
	if err != nil {
		tester.Fatalf("unexpected error: %v", err)
	}
	if raw.Text != "hello world" || raw.Language != "en" {
		tester.Fatalf("unexpected top-level fields: %+v", raw)
	}
	if len(raw.Segments) != 2 {
		tester.Fatalf("expected 2 segments, got %d", len(raw.Segments))
	}
	if raw.Segments[1].Start != 1.5 || raw.Segments[1].Text != "world" {
		tester.Errorf("unexpected second segment: %+v", raw.Segments[1])
	}
}

func TestParseWhisperOutputRejectsMalformedJSON(tester *testing.T) {
	_, err := parseWhisperOutput([]byte("not json"))
	if err == nil {
		tester.Fatal("expected an error for malformed JSON")
	}

	var providerError *ProviderError
	if !errors.As(err, &providerError) || providerError.Class != models.ClassInternal {
		tester.Fatalf("expected a ClassInternal ProviderError, got %v", err)
	}
}
