// Package models holds the data types shared across every stage of the transcription
// pipeline: jobs, audio artifacts, plans, transcripts, job log entries, and the taxonomy
// of errors the core API surfaces to its callers.
package models

import "time"

// JobState is the forward-only lifecycle of a Job.
type JobState string

const (
	JobStateQueued        JobState = "queued"
	JobStatePreparing     JobState = "preparing"
	JobStateTranscribing  JobState = "transcribing"
	JobStatePostProcessing JobState = "post_processing"
	JobStateRendering     JobState = "rendering"
	JobStateDone          JobState = "done"
	JobStateFailed        JobState = "failed"
	JobStateCancelled     JobState = "cancelled"
)

// OutputFormat names one of the renderer's supported output kinds.
type OutputFormat string

const (
	FormatTXT  OutputFormat = "txt"
	FormatSRT  OutputFormat = "srt"
	FormatVTT  OutputFormat = "vtt"
	FormatJSON OutputFormat = "json"
)

// ContentType selects the prompt template family the Transcriber assembles.
type ContentType string

const (
	ContentTypePodcast   ContentType = "podcast"
	ContentTypeInterview ContentType = "interview"
	ContentTypeLecture   ContentType = "lecture"
)

// AutoLanguage is the sentinel value of Params.SourceLanguage meaning "let the provider
// detect the spoken language".
const AutoLanguage = "auto"

// Params carries every per-job option the HTTP layer (out of scope here) would otherwise
// decode from the request body; the core API accepts it as a plain struct.
type Params struct {
	OutputFormats            []OutputFormat `json:"output_formats"`
	ContentType               ContentType    `json:"content_type"`
	SourceLanguage            string         `json:"source_language"`
	Keywords                  string         `json:"keywords,omitempty"`
	EnableSpeakerDiarization  bool           `json:"enable_speaker_diarization"`
}

// DefaultParams mirrors spec §6.1's defaults column.
func DefaultParams() Params {
	return Params{
		OutputFormats:  []OutputFormat{FormatTXT},
		ContentType:    ContentTypePodcast,
		SourceLanguage: AutoLanguage,
	}
}

// Job is one submitted transcription request and its forward-only lifecycle.
type Job struct {
	ID          string
	Title       string
	Params      Params
	State       JobState
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Error       *PipelineError
}

// ArtifactRole classifies an on-disk AudioArtifact within a job's temp directory.
type ArtifactRole string

const (
	RoleOriginal   ArtifactRole = "original"
	RoleTranscoded ArtifactRole = "transcoded"
	RoleSegment    ArtifactRole = "segment"
)

// AudioArtifact is one file the custodian is responsible for deleting.
type AudioArtifact struct {
	Path      string
	SizeBytes int64
	Ext       string
	Role      ArtifactRole
	Index     int // time order within a Segmented plan; 0 for Single/Original/Transcoded
}

// PlanKind distinguishes the two shapes a Plan can take.
type PlanKind string

const (
	PlanSingle    PlanKind = "single"
	PlanSegmented PlanKind = "segmented"
)

// Plan is the Preparer's decision on how to present audio to the Transcriber: either a
// single artifact submitted whole, or an ordered list of fixed-duration segments.
//
// In the Segmented case, SegmentDurationSec is a declared fixed value (not derived per
// segment) used by the Merger for offset arithmetic — see package merge.
type Plan struct {
	Kind               PlanKind
	Single             *AudioArtifact
	Segments           []AudioArtifact
	SegmentDurationSec int
}

// Word is a single timestamped token within a Segment, when the provider returns
// word-level granularity.
type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Segment is one timestamped span of transcribed text.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Words   []Word  `json:"words,omitempty"`
	Speaker string  `json:"speaker,omitempty"`
}

// RawTranscript is one provider response, before merging.
type RawTranscript struct {
	Text        string
	DurationSec float64
	Language    string
	Segments    []Segment
}

// MergedTranscript is the Fetcher→...→Merger pipeline's output: one drift-free,
// time-ordered transcript assembled from one or more RawTranscripts.
type MergedTranscript struct {
	Text          string
	Language      string
	DurationSec   float64
	TotalSegments int
	Segments      []Segment
}

// RenderedFormats maps a requested OutputFormat to its serialized content.
type RenderedFormats map[OutputFormat]string

// LogLevel classifies a JobLogEntry.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogSuccess LogLevel = "success"
	LogWarn    LogLevel = "warn"
	LogError   LogLevel = "error"
)

// JobLogEntry is one append-only event in a job's ring-buffer log.
type JobLogEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	Level          LogLevel  `json:"level"`
	Message        string    `json:"message"`
	Stage          string    `json:"stage"`
	MemorySnapshot string    `json:"memory_snapshot"`
}

// Result is what AwaitResult returns on success.
type Result struct {
	Formats     RenderedFormats `json:"formats"`
	Metadata    ResultMetadata  `json:"metadata"`
	Segments    []Segment       `json:"segments"`
	Language    string          `json:"language"`
	DurationSec float64         `json:"duration_sec"`
}

// ResultMetadata carries the Renderer's JSON metadata block (spec §4.7).
type ResultMetadata struct {
	Model         string    `json:"model"`
	Timestamp     time.Time `json:"timestamp"`
	Processed     bool      `json:"processed"`
	TotalSegments int       `json:"total_segments"`
}
