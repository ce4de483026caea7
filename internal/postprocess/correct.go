package postprocess

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"podcastpipe/internal/llm"
	"podcastpipe/internal/models"
)

// correctionResponse is the JSON contract spec §4.6.2 requires the LLM to return.
type correctionResponse struct {
	CorrectedText     string `json:"correctedText"`
	CorrectedSegments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"correctedSegments"`
	Corrections []string `json:"corrections"`
	HasErrors   bool     `json:"hasErrors"`
}

const maxCorrectionSegments = 50

// SpellCorrect implements spec §4.6.2: best-effort LLM spell/grammar correction. Any failure
// — transport, non-JSON response, provider error — is logged and swallowed; the caller keeps
// using the original MergedTranscript untouched, exactly as the teacher's
// cleanupTranscriptChunk falls back to the raw text on LLM failure.
func SpellCorrect(ctx context.Context, provider llm.Provider, model string, transcript *models.MergedTranscript) {
	prompt := buildCorrectionPrompt(transcript)

	responseChannel, chatErr := provider.Chat(ctx, &llm.ChatRequest{
		Model: model,
		Messages: []llm.Message{
			{Role: "user", Content: []llm.ContentPart{{Type: "text", Text: prompt}}},
		},
	})
	if chatErr != nil {
		slog.Warn("postprocess: spell-correction request failed, keeping original transcript", "error", chatErr)
		return
	}

	var builder strings.Builder
	for chunk := range responseChannel {
		if chunk.Error != nil {
			slog.Warn("postprocess: spell-correction stream failed, keeping original transcript", "error", chunk.Error)
			return
		}
		builder.WriteString(chunk.Text)
	}

	var decoded correctionResponse
	if err := json.Unmarshal([]byte(builder.String()), &decoded); err != nil {
		slog.Warn("postprocess: spell-correction returned non-JSON response, keeping original transcript", "error", err)
		return
	}

	applyCorrection(transcript, decoded)
}

func buildCorrectionPrompt(transcript *models.MergedTranscript) string {
	var labelled strings.Builder
	limit := len(transcript.Segments)
	if limit > maxCorrectionSegments {
		limit = maxCorrectionSegments
	}
	for i := 0; i < limit; i++ {
		segment := transcript.Segments[i]
		fmt.Fprintf(&labelled, "[%.0f-%.0f] %s\n", segment.Start, segment.End, segment.Text)
	}

	return "Correct spelling, punctuation, and grammar in the following transcript without " +
		"changing its meaning or its timing. Do not translate. Respond with ONLY a JSON object " +
		"shaped like {\"correctedText\": string, \"correctedSegments\": [{\"start\": number, " +
		"\"end\": number, \"text\": string}], \"corrections\": [string], \"hasErrors\": boolean}.\n\n" +
		"Full text:\n" + transcript.Text + "\n\nFirst segments:\n" + labelled.String()
}

// applyCorrection merges corrected segment text back by positional index, preserving every
// other field (words, speaker) exactly as spec §4.6.2 requires. start/end are never
// overwritten from the LLM response — they are authoritative from the Merger.
func applyCorrection(transcript *models.MergedTranscript, response correctionResponse) {
	if response.CorrectedText != "" {
		transcript.Text = response.CorrectedText
	}
	for index, corrected := range response.CorrectedSegments {
		if index >= len(transcript.Segments) {
			break
		}
		transcript.Segments[index].Text = corrected.Text
	}
}
