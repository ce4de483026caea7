package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"podcastpipe/internal/models"
)

// WhisperProvider drives a local `whisper` CLI installation, adapted from the teacher's
// internal/transcription/whisper.go to satisfy this package's Provider interface (RawTranscript
// instead of a bare []Segment) and to honor the Options.Language the Transcriber now threads
// through explicitly.
type WhisperProvider struct {
	model  string
	device string
}

func NewWhisperProvider(model, device string) *WhisperProvider {
	return &WhisperProvider{model: model, device: device}
}

func (whisper *WhisperProvider) Name() string { return "whisper-local" }

func (whisper *WhisperProvider) CheckDependencies() error {
	if _, err := exec.LookPath("whisper"); err != nil {
		return fmt.Errorf("whisper executable not found in PATH")
	}
	return nil
}

type whisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []whisperSegment `json:"segments"`
}

type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func (whisper *WhisperProvider) Transcribe(ctx context.Context, audioPath string, options Options) (models.RawTranscript, error) {
	outputDirectory := filepath.Dir(audioPath)

	arguments := []string{
		audioPath,
		"--model", whisper.model,
		"--output_format", "json",
		"--output_dir", outputDirectory,
	}
	if whisper.device != "" && whisper.device != "auto" {
		arguments = append(arguments, "--device", whisper.device)
	}
	if options.Prompt != "" {
		arguments = append(arguments, "--initial_prompt", options.Prompt)
	}
	if options.Language != "" {
		arguments = append(arguments, "--language", options.Language)
	}

	command := exec.CommandContext(ctx, "whisper", arguments...)
	if err := command.Run(); err != nil {
		return models.RawTranscript{}, &ProviderError{Class: models.ClassProviderTransientFailed, Message: "whisper execution failed", Err: err}
	}

	baseName := filepath.Base(audioPath)
	extension := filepath.Ext(baseName)
	jsonFileName := baseName[:len(baseName)-len(extension)] + ".json"
	jsonPath := filepath.Join(outputDirectory, jsonFileName)
	defer os.Remove(jsonPath)

	data, readErr := os.ReadFile(jsonPath)
	if readErr != nil {
		return models.RawTranscript{}, &ProviderError{Class: models.ClassInternal, Message: "failed to read whisper output", Err: readErr}
	}

	return parseWhisperOutput(data)
}

// parseWhisperOutput decodes the CLI's --output_format json sidecar into a RawTranscript,
// split out from Transcribe so the decoding logic is testable without a real whisper binary.
func parseWhisperOutput(data []byte) (models.RawTranscript, error) {
	var output whisperOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return models.RawTranscript{}, &ProviderError{Class: models.ClassInternal, Message: "failed to parse whisper output", Err: err}
	}

	raw := models.RawTranscript{Text: output.Text, Language: output.Language}
	for _, segment := range output.Segments {
		raw.Segments = append(raw.Segments, models.Segment{Start: segment.Start, End: segment.End, Text: segment.Text})
	}
	return raw, nil
}
