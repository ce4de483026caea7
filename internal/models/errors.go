package models

import "fmt"

// ErrorClass is the stable, user-facing taxonomy from spec §7. Every pipeline stage that can
// fail maps its failure onto one of these before returning.
type ErrorClass string

const (
	ClassInvalidInput             ErrorClass = "InvalidInput"
	ClassFetchFailed              ErrorClass = "FetchFailed"
	ClassPrepareFailed            ErrorClass = "PrepareFailed"
	ClassProviderRateLimited      ErrorClass = "ProviderRateLimited"
	ClassProviderQuotaExhausted   ErrorClass = "ProviderQuotaExhausted"
	ClassProviderAuthFailed       ErrorClass = "ProviderAuthFailed"
	ClassProviderRequestInvalid   ErrorClass = "ProviderRequestInvalid"
	ClassProviderTransientFailed  ErrorClass = "ProviderTransientFailed"
	ClassCancelled                ErrorClass = "Cancelled"
	ClassTimeout                  ErrorClass = "Timeout"
	ClassInternal                 ErrorClass = "Internal"
)

// Retryable reports whether the Transcriber should retry an error of this class, per the
// classification table in spec §4.4.
func (class ErrorClass) Retryable() bool {
	switch class {
	case ClassProviderRateLimited, ClassProviderTransientFailed:
		return true
	default:
		return false
	}
}

// PipelineError is the typed error every stage wraps failures in, grounded on the
// Stage/Message/Err shape used for staged pipelines elsewhere in the example pack, adapted to
// carry a stable ErrorClass and user-facing suggestions instead of a free-text message only.
type PipelineError struct {
	Stage       string
	Class       ErrorClass
	Message     string
	Suggestions []string
	Err         error
}

func (pipelineError *PipelineError) Error() string {
	if pipelineError.Err != nil {
		return fmt.Sprintf("%s: %s: %v", pipelineError.Stage, pipelineError.Message, pipelineError.Err)
	}
	return fmt.Sprintf("%s: %s", pipelineError.Stage, pipelineError.Message)
}

func (pipelineError *PipelineError) Unwrap() error {
	return pipelineError.Err
}

// NewPipelineError builds a PipelineError with no suggestions.
func NewPipelineError(stage string, class ErrorClass, message string, err error) *PipelineError {
	return &PipelineError{Stage: stage, Class: class, Message: message, Err: err}
}

// WithSuggestions attaches user-facing remediation hints (spec §7's "suggestions[]").
func (pipelineError *PipelineError) WithSuggestions(suggestions ...string) *PipelineError {
	pipelineError.Suggestions = suggestions
	return pipelineError
}

// ErrorResponse is the `{class, message, suggestions[]}` surface spec §7 requires callers see.
type ErrorResponse struct {
	Class       ErrorClass `json:"class"`
	Message     string     `json:"message"`
	Suggestions []string   `json:"suggestions,omitempty"`
}

// AsErrorResponse converts any error into the user-visible surface, classifying unknown
// errors as Internal.
func AsErrorResponse(err error) ErrorResponse {
	var pipelineError *PipelineError
	if asPipelineError(err, &pipelineError) {
		return ErrorResponse{
			Class:       pipelineError.Class,
			Message:     pipelineError.Message,
			Suggestions: pipelineError.Suggestions,
		}
	}
	return ErrorResponse{Class: ClassInternal, Message: err.Error()}
}

func asPipelineError(err error, target **PipelineError) bool {
	for err != nil {
		if pipelineError, ok := err.(*PipelineError); ok {
			*target = pipelineError
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
