// Package transcribe implements spec §4.4: driving the external speech-to-text provider,
// single-file or bounded-concurrency segmented, with retry/backoff and error classification.
// The Provider interface is grounded on the teacher's internal/transcription/provider.go,
// generalized per spec §9's design note ("Global OpenAI client singleton → injected
// interface") to carry model/language/prompt/granularity options instead of a bare path.
package transcribe

import (
	"context"

	"podcastpipe/internal/models"
)

// Options carries the per-request parameters the Transcriber assembles from Params and
// passes to the Provider (spec §6.3's provider contract).
type Options struct {
	Model                  string
	Language               string // empty when sourceLanguage == auto: provider detects
	Prompt                 string
	ResponseFormat         string
	TimestampGranularities []string
}

// Provider is the speech-to-text abstraction injected into the Transcriber, allowing the
// test suite to substitute a deterministic fake implementing the retry/error taxonomy of
// spec §4.4's classification table.
type Provider interface {
	// Transcribe submits one audio file and returns a RawTranscript, or a *ProviderError
	// classified per spec §4.4's table.
	Transcribe(ctx context.Context, audioPath string, options Options) (models.RawTranscript, error)
	CheckDependencies() error
	Name() string
}

// ProviderError carries the classification spec §4.4 requires the Transcriber's retry loop
// to act on.
type ProviderError struct {
	Class   models.ErrorClass
	Message string
	Err     error

	// QuotaSuspected marks a ProviderTransientFailed error that looks like the provider is
	// throttling us even without a 429 — a reset connection, most often — so callWithRetry
	// should back off at the same base as an explicit rate limit (spec §4.4).
	QuotaSuspected bool
}

func (providerError *ProviderError) Error() string {
	if providerError.Err != nil {
		return providerError.Message + ": " + providerError.Err.Error()
	}
	return providerError.Message
}

func (providerError *ProviderError) Unwrap() error {
	return providerError.Err
}

// classifyStatus maps an HTTP status code to spec §4.4's classification table.
func classifyStatus(status int) models.ErrorClass {
	switch status {
	case 429:
		return models.ClassProviderRateLimited
	case 402:
		return models.ClassProviderQuotaExhausted
	case 401:
		return models.ClassProviderAuthFailed
	case 403:
		return models.ClassProviderRequestInvalid
	default:
		if status >= 500 {
			return models.ClassProviderTransientFailed
		}
		return models.ClassProviderRequestInvalid
	}
}
