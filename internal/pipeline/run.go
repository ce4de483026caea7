package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podcastpipe/internal/custodian"
	"podcastpipe/internal/media"
	"podcastpipe/internal/merge"
	"podcastpipe/internal/models"
	"podcastpipe/internal/postprocess"
	"podcastpipe/internal/render"
	"podcastpipe/internal/transcribe"
)

// runStages drives original through Validator → Preparer → Transcriber → Merger →
// Post-processor → Renderer, in spec §2's stage order, updating record.job.State as it goes
// and appending to the job log at every transition.
func (pipeline *Pipeline) runStages(ctx context.Context, record *jobRecord, custodianHandle *custodian.Custodian, original models.AudioArtifact) {
	jobID := record.job.ID

	pipeline.setState(record, models.JobStatePreparing)

	warning, err := media.Validate(original.Path, original.Ext)
	if err != nil {
		pipeline.fail(record, err)
		return
	}
	if warning != "" {
		pipeline.logStore.Append(jobID, models.LogWarn, "validator", warning)
	}

	plan, err := pipeline.preparer.Prepare(ctx, original, custodianHandle.Dir())
	if err != nil {
		pipeline.fail(record, err)
		return
	}
	pipeline.logStore.Append(jobID, models.LogInfo, "preparer", planSummary(plan))

	pipeline.setState(record, models.JobStateTranscribing)

	merged, err := pipeline.transcribeAndMerge(ctx, record, plan)
	if err != nil {
		pipeline.fail(record, err)
		return
	}

	pipeline.setState(record, models.JobStatePostProcessing)
	pipeline.postProcess(ctx, record, &merged)

	pipeline.setState(record, models.JobStateRendering)
	formats := render.Render(merged, outputFormatsOrDefault(record.job.Params.OutputFormats), pipeline.transcriptionModelName(), pipeline.llmProvider != nil)

	pipeline.succeed(record, models.Result{
		Formats:     formats,
		Segments:    merged.Segments,
		Language:    merged.Language,
		DurationSec: merged.DurationSec,
		Metadata: models.ResultMetadata{
			Model:         pipeline.transcriptionModelName(),
			Timestamp:     time.Now(),
			Processed:     pipeline.llmProvider != nil,
			TotalSegments: merged.TotalSegments,
		},
	})
}

func (pipeline *Pipeline) transcribeAndMerge(ctx context.Context, record *jobRecord, plan models.Plan) (models.MergedTranscript, error) {
	jobID := record.job.ID
	params := record.job.Params

	options := transcribe.Options{
		Model:                  pipeline.transcriptionModelName(),
		Language:               resolveRequestLanguage(params.SourceLanguage),
		Prompt:                 transcribe.BuildPrompt(params.ContentType, params.SourceLanguage, params.Keywords, pipeline.config.Transcriber.PromptMaxChars),
		ResponseFormat:         "verbose_json",
		TimestampGranularities: []string{"word"},
	}

	if plan.Kind == models.PlanSingle {
		raw, err := pipeline.transcriber.TranscribeSingle(ctx, plan.Single.Path, options)
		if err != nil {
			return models.MergedTranscript{}, err
		}
		return merge.Single(raw), nil
	}

	segmentPaths := make([]string, len(plan.Segments))
	for i, segment := range plan.Segments {
		segmentPaths[i] = segment.Path
	}

	outcomes, err := pipeline.transcriber.TranscribeSegments(ctx, segmentPaths, options)
	if err != nil {
		return models.MergedTranscript{}, err
	}

	failures := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failures++
			pipeline.logStore.Append(jobID, models.LogWarn, "transcriber", "segment failed: "+outcome.Err.Error())
		}
	}
	if failures == len(outcomes) {
		return models.MergedTranscript{}, models.NewPipelineError("transcriber", models.ClassProviderTransientFailed, "every segment failed to transcribe", nil)
	}

	return merge.Segments(outcomes, plan.SegmentDurationSec), nil
}

// postProcess runs language resolution, optional LLM spell-correction, and optional
// heuristic speaker labelling. Spell-correction failures are swallowed by package
// postprocess itself; this stage never fails the job.
func (pipeline *Pipeline) postProcess(ctx context.Context, record *jobRecord, merged *models.MergedTranscript) {
	postprocess.ResolveLanguage(merged, record.job.Params.SourceLanguage)

	if pipeline.llmProvider != nil {
		pipeline.logStore.Append(record.job.ID, models.LogInfo, "postprocess", "requesting spell-correction")
		postprocess.SpellCorrect(ctx, pipeline.llmProvider, pipeline.llmModelName(), merged)
	}

	if record.job.Params.EnableSpeakerDiarization {
		postprocess.LabelSpeakers(merged, record.job.CreatedAt.UnixNano())
	}
}

func (pipeline *Pipeline) setState(record *jobRecord, state models.JobState) {
	record.mutex.Lock()
	record.job.State = state
	if state == models.JobStatePreparing && record.job.StartedAt == nil {
		started := time.Now()
		record.job.StartedAt = &started
	}
	record.mutex.Unlock()
	pipeline.logStore.Append(record.job.ID, models.LogInfo, "pipeline", "entering state "+string(state))
}

func (pipeline *Pipeline) fail(record *jobRecord, err error) {
	pipelineError := models.AsErrorResponse(err)
	record.mutex.Lock()
	record.job.State = models.JobStateFailed
	completed := time.Now()
	record.job.CompletedAt = &completed
	record.err = err
	record.mutex.Unlock()

	pipeline.logStore.Append(record.job.ID, models.LogError, "pipeline", pipelineError.Message)
	pipeline.logStore.ExpireAfterTTL(record.job.ID)
	slog.Error("pipeline: job failed", "job_id", record.job.ID, "class", pipelineError.Class, "message", pipelineError.Message)
}

func (pipeline *Pipeline) succeed(record *jobRecord, result models.Result) {
	record.mutex.Lock()
	record.job.State = models.JobStateDone
	completed := time.Now()
	record.job.CompletedAt = &completed
	record.result = result
	record.mutex.Unlock()

	pipeline.logStore.Append(record.job.ID, models.LogSuccess, "pipeline", "job completed")
	pipeline.logStore.ExpireAfterTTL(record.job.ID)
}

func (pipeline *Pipeline) transcriptionModelName() string {
	switch pipeline.config.Transcription.Provider {
	case "whisper-local":
		return pipeline.config.Transcription.Whisper.Model
	default:
		return pipeline.config.Transcription.OpenAI.Model
	}
}

func (pipeline *Pipeline) llmModelName() string {
	switch pipeline.config.LLM.Provider {
	case "ollama":
		return pipeline.config.LLM.Ollama.DefaultModel
	default:
		return pipeline.config.LLM.OpenRouter.DefaultModel
	}
}

func resolveRequestLanguage(sourceLanguage string) string {
	return transcribe.NormalizeLanguageTag(sourceLanguage)
}

func outputFormatsOrDefault(formats []models.OutputFormat) []models.OutputFormat {
	if len(formats) == 0 {
		return []models.OutputFormat{models.FormatTXT}
	}
	return formats
}

func planSummary(plan models.Plan) string {
	if plan.Kind == models.PlanSingle {
		return "prepared as a single file"
	}
	return "prepared as segmented audio"
}

// writeOriginal persists payload under tempDir as original.<ext> and stats it into an
// AudioArtifact, the shape both submission paths converge on before validation.
func writeOriginal(tempDir string, payload []byte, ext string) (models.AudioArtifact, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = "mp3"
	}
	path := filepath.Join(tempDir, "original."+ext)
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return models.AudioArtifact{}, models.NewPipelineError("fetch", models.ClassInternal, "failed to write original audio to disk", err)
	}
	return models.AudioArtifact{
		Path:      path,
		SizeBytes: int64(len(payload)),
		Ext:       ext,
		Role:      models.RoleOriginal,
	}, nil
}

// extensionFromURL derives a file extension from a source URL's path, defaulting to mp3
// when absent or unparsable — the Fetcher itself (spec §4.1) does not sniff content type.
func extensionFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "mp3"
	}
	ext := strings.TrimPrefix(filepath.Ext(parsed.Path), ".")
	if ext == "" {
		return "mp3"
	}
	return ext
}
