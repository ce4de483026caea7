package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"podcastpipe/internal/models"
)

// OpenAIProvider implements Provider against an OpenAI-Whisper-compatible transcription
// endpoint, generalized from the teacher's internal/transcription/openai.go (which only sent
// model/prompt/response_format and had no error classification at all) to also send
// language/timestamp_granularities and classify every non-2xx/transport failure per spec
// §4.4's table.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{apiKey: apiKey, baseURL: baseURL, client: &http.Client{}}
}

func (provider *OpenAIProvider) Name() string { return "openai" }

func (provider *OpenAIProvider) CheckDependencies() error {
	if provider.apiKey == "" {
		return fmt.Errorf("OpenAI API key is missing")
	}
	return nil
}

type openAITranscriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Words []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Word  string  `json:"word"`
	} `json:"words"`
}

func (provider *OpenAIProvider) Transcribe(ctx context.Context, audioPath string, options Options) (models.RawTranscript, error) {
	file, openErr := os.Open(audioPath)
	if openErr != nil {
		return models.RawTranscript{}, &ProviderError{Class: models.ClassInternal, Message: "cannot open audio file", Err: openErr}
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return models.RawTranscript{}, &ProviderError{Class: models.ClassInternal, Message: "multipart encode failed", Err: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return models.RawTranscript{}, &ProviderError{Class: models.ClassInternal, Message: "failed to stream audio", Err: err}
	}

	writer.WriteField("model", options.Model)
	if options.Prompt != "" {
		writer.WriteField("prompt", options.Prompt)
	}
	if options.Language != "" {
		writer.WriteField("language", options.Language)
	}
	responseFormat := options.ResponseFormat
	if responseFormat == "" {
		responseFormat = "verbose_json"
	}
	writer.WriteField("response_format", responseFormat)
	for _, granularity := range options.TimestampGranularities {
		writer.WriteField("timestamp_granularities[]", granularity)
	}

	if err := writer.Close(); err != nil {
		return models.RawTranscript{}, &ProviderError{Class: models.ClassInternal, Message: "multipart close failed", Err: err}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return models.RawTranscript{}, &ProviderError{Class: models.ClassInternal, Message: "request construction failed", Err: err}
	}
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.Header.Set("Authorization", "Bearer "+provider.apiKey)

	response, doErr := provider.client.Do(request)
	if doErr != nil {
		return models.RawTranscript{}, classifyTransportError(doErr)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(response.Body)
		return models.RawTranscript{}, &ProviderError{
			Class:   classifyStatus(response.StatusCode),
			Message: fmt.Sprintf("provider returned HTTP %d: %s", response.StatusCode, string(errorBody)),
		}
	}

	var decoded openAITranscriptionResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return models.RawTranscript{}, &ProviderError{Class: models.ClassProviderTransientFailed, Message: "failed to decode provider response", Err: err}
	}

	raw := models.RawTranscript{
		Text:        decoded.Text,
		DurationSec: decoded.Duration,
		Language:    decoded.Language,
	}
	if len(decoded.Segments) > 0 {
		for _, segment := range decoded.Segments {
			raw.Segments = append(raw.Segments, models.Segment{Start: segment.Start, End: segment.End, Text: segment.Text})
		}
	} else if decoded.Text != "" {
		// Tolerate a response with no `segments` field (spec §6.3).
		raw.Segments = append(raw.Segments, models.Segment{Start: 0, End: decoded.Duration, Text: decoded.Text})
	}
	if len(decoded.Words) > 0 && len(raw.Segments) > 0 {
		words := make([]models.Word, 0, len(decoded.Words))
		for _, word := range decoded.Words {
			words = append(words, models.Word{Start: word.Start, End: word.End, Text: word.Word})
		}
		raw.Segments[0].Words = words
	}
	return raw, nil
}

// classifyTransportError distinguishes a connection reset (retryable, spec §4.4, and treated
// as quota-suspected so it gets the longer backoff base) from a generic network failure (also
// retryable, but the shorter base applies) and from context cancellation/timeout.
func classifyTransportError(err error) *ProviderError {
	if errors.Is(err, context.Canceled) {
		return &ProviderError{Class: models.ClassCancelled, Message: "request cancelled", Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Class: models.ClassTimeout, Message: "request deadline exceeded", Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, net.ErrClosed) {
			return &ProviderError{Class: models.ClassProviderTransientFailed, Message: "connection reset", Err: err, QuotaSuspected: true}
		}
	}
	if isConnectionReset(err) {
		return &ProviderError{Class: models.ClassProviderTransientFailed, Message: "connection reset", Err: err, QuotaSuspected: true}
	}
	return &ProviderError{Class: models.ClassProviderTransientFailed, Message: "network error", Err: err}
}

func isConnectionReset(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "reset by peer") || strings.Contains(message, "ECONNRESET") || strings.Contains(message, "connection reset")
}
