package models

import (
	"errors"
	"testing"
)

func TestErrorClassRetryable(tester *testing.T) {
	cases := []struct {
		class     ErrorClass
		retryable bool
	}{
		{ClassProviderRateLimited, true},
		{ClassProviderTransientFailed, true},
		{ClassProviderQuotaExhausted, false},
		{ClassProviderAuthFailed, false},
		{ClassProviderRequestInvalid, false},
		{ClassInvalidInput, false},
		{ClassCancelled, false},
	}
	for _, testCase := range cases {
		if got := testCase.class.Retryable(); got != testCase.retryable {
			tester.Errorf("class %s: Retryable() = %v, want %v", testCase.class, got, testCase.retryable)
		}
	}
}

func TestPipelineErrorUnwrap(tester *testing.T) {
	inner := errors.New("connection reset")
	wrapped := NewPipelineError("transcriber", ClassProviderTransientFailed, "provider call failed", inner)

	if !errors.Is(wrapped, inner) {
		tester.Fatal("errors.Is did not see through PipelineError.Unwrap")
	}
	if wrapped.Error() == "" {
		tester.Fatal("Error() returned empty string")
	}
}

func TestWithSuggestionsChains(tester *testing.T) {
	wrapped := NewPipelineError("preparer", ClassPrepareFailed, "no codec succeeded", nil).
		WithSuggestions("install ffmpeg with libmp3lame", "check input file integrity")

	if len(wrapped.Suggestions) != 2 {
		tester.Fatalf("expected 2 suggestions, got %d", len(wrapped.Suggestions))
	}
}

func TestAsErrorResponseWrapsUnknownErrorsAsInternal(tester *testing.T) {
	response := AsErrorResponse(errors.New("boom"))
	if response.Class != ClassInternal {
		tester.Fatalf("expected ClassInternal for a plain error, got %s", response.Class)
	}
}

func TestAsErrorResponsePreservesPipelineErrorClass(tester *testing.T) {
	pipelineError := NewPipelineError("fetch", ClassFetchFailed, "redirect cycle detected", nil)
	response := AsErrorResponse(pipelineError)
	if response.Class != ClassFetchFailed {
		tester.Fatalf("expected ClassFetchFailed, got %s", response.Class)
	}
	if response.Message != "redirect cycle detected" {
		tester.Fatalf("unexpected message: %s", response.Message)
	}
}

func TestAsErrorResponseWalksWrappedChain(tester *testing.T) {
	inner := NewPipelineError("validator", ClassInvalidInput, "unsupported extension", nil)
	outer := errorsWrap{err: inner}

	response := AsErrorResponse(outer)
	if response.Class != ClassInvalidInput {
		tester.Fatalf("expected ClassInvalidInput from the wrapped chain, got %s", response.Class)
	}
}

// errorsWrap is a minimal Unwrap-capable error used to exercise asPipelineError's walk
// through intermediate wrappers, without pulling in fmt.Errorf's %w at the test layer.
type errorsWrap struct{ err error }

func (w errorsWrap) Error() string { return "wrapped: " + w.err.Error() }
func (w errorsWrap) Unwrap() error { return w.err }
