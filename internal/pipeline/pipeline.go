// Package pipeline wires the Fetcher, Validator, Preparer, Transcriber, Merger,
// Post-processor, Renderer, job log, and custodian into the Core API of spec §6.1:
// SubmitFromBytes, SubmitFromUrl, AwaitResult, PollLogs, Cancel. One Pipeline serves many
// concurrent jobs; each job runs in its own goroutine against its own cancellable context.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"podcastpipe/internal/config"
	"podcastpipe/internal/custodian"
	"podcastpipe/internal/fetch"
	"podcastpipe/internal/joblog"
	"podcastpipe/internal/llm"
	"podcastpipe/internal/models"
	"podcastpipe/internal/prepare"
	"podcastpipe/internal/transcribe"
)

// Pipeline is the Core API: the single entry point the out-of-scope HTTP layer would call
// into.
type Pipeline struct {
	config      *config.Configuration
	fetcher     *fetch.Fetcher
	preparer    *prepare.Preparer
	transcriber *transcribe.Transcriber
	llmProvider llm.Provider // may be nil: spell-correction becomes a no-op
	logStore    *joblog.Store

	mutex   sync.RWMutex
	records map[string]*jobRecord
}

// jobRecord is a Pipeline's bookkeeping for one submitted job, separate from models.Job
// itself so the orchestrator can hold a cancel func and a completion channel alongside the
// caller-visible state.
type jobRecord struct {
	mutex  sync.Mutex
	job    models.Job
	cancel context.CancelFunc
	done   chan struct{}
	result models.Result
	err    error
}

// New builds a Pipeline from configuration and an already-constructed speech-to-text
// provider and (optional) LLM provider. Keeping provider construction outside Pipeline
// mirrors the teacher's dependency-injected handlers: the pipeline itself never decides
// which concrete provider to talk to.
func New(configuration *config.Configuration, transcriptionProvider transcribe.Provider, llmProvider llm.Provider) *Pipeline {
	transcoder := prepare.NewTranscoder(configuration.Storage.BinDirectory)
	return &Pipeline{
		config:      configuration,
		fetcher:     fetch.New(configuration.Fetcher),
		preparer:    prepare.New(configuration.Preparer, transcoder),
		transcriber: transcribe.New(configuration.Transcriber, transcriptionProvider),
		llmProvider: llmProvider,
		logStore:    joblog.New(configuration.Job.LogCapacity, configuration.Job.LogTTL),
		records:     make(map[string]*jobRecord),
	}
}

// SubmitFromUrl fetches audio from url and starts the pipeline (spec §6.1). Returns the new
// job's ID immediately; the pipeline itself runs asynchronously.
func (pipeline *Pipeline) SubmitFromUrl(ctx context.Context, title, sourceURL string, params models.Params) string {
	jobID := pipeline.newRecord(title, params)
	pipeline.runAsync(jobID, func(jobCtx context.Context, tempDir string) (models.AudioArtifact, error) {
		pipeline.logStore.Append(jobID, models.LogInfo, "fetch", "fetching "+sourceURL)
		payload, err := pipeline.fetcher.Fetch(jobCtx, sourceURL)
		if err != nil {
			return models.AudioArtifact{}, err
		}
		return writeOriginal(tempDir, payload, extensionFromURL(sourceURL))
	})
	return jobID
}

// SubmitFromBytes starts the pipeline directly from an in-memory payload (spec §6.1) —
// the path an upload endpoint would use. A payload over config.Uploads.MaxBodyBytes is
// rejected as spec §7's InvalidInput before a job ever reaches the Preparing stage, the same
// backpressure check a size-limited upload handler would otherwise have to perform itself.
func (pipeline *Pipeline) SubmitFromBytes(ctx context.Context, title string, payload []byte, ext string, params models.Params) string {
	jobID := pipeline.newRecord(title, params)

	if maxBodyBytes := pipeline.config.Uploads.MaxBodyBytes; maxBodyBytes > 0 && int64(len(payload)) > maxBodyBytes {
		record := pipeline.lookup(jobID)
		pipeline.rejectBeforeRun(record, models.NewPipelineError("pipeline", models.ClassInvalidInput,
			fmt.Sprintf("payload size %d bytes exceeds the %d byte upload cap", len(payload), maxBodyBytes), nil))
		return jobID
	}

	pipeline.runAsync(jobID, func(jobCtx context.Context, tempDir string) (models.AudioArtifact, error) {
		pipeline.logStore.Append(jobID, models.LogInfo, "fetch", "accepted uploaded payload")
		return writeOriginal(tempDir, payload, ext)
	})
	return jobID
}

// rejectBeforeRun fails a job that never starts runAsync's goroutine, so it still needs its
// own cancel no-op and its own close of the done channel (runAsync normally owns both).
func (pipeline *Pipeline) rejectBeforeRun(record *jobRecord, err error) {
	record.cancel = func() {}
	pipeline.fail(record, err)
	close(record.done)
}

// AwaitResult blocks until jobID reaches a terminal state or ctx is done, per spec §6.1.
func (pipeline *Pipeline) AwaitResult(ctx context.Context, jobID string) (models.Result, error) {
	record := pipeline.lookup(jobID)
	if record == nil {
		return models.Result{}, models.NewPipelineError("pipeline", models.ClassInvalidInput, "unknown job id", nil)
	}

	select {
	case <-record.done:
		record.mutex.Lock()
		defer record.mutex.Unlock()
		return record.result, record.err
	case <-ctx.Done():
		return models.Result{}, ctx.Err()
	}
}

// PollLogs returns the job's current log snapshot (spec §6.1, §4.8).
func (pipeline *Pipeline) PollLogs(jobID string) []models.JobLogEntry {
	return pipeline.logStore.Poll(jobID)
}

// Cancel requests cancellation of an in-flight job (spec §6.1). Returns an InvalidInput
// error if the job is unknown; a no-op if the job is already terminal.
func (pipeline *Pipeline) Cancel(jobID string) error {
	record := pipeline.lookup(jobID)
	if record == nil {
		return models.NewPipelineError("pipeline", models.ClassInvalidInput, "unknown job id", nil)
	}
	record.cancel()
	return nil
}

func (pipeline *Pipeline) newRecord(title string, params models.Params) string {
	jobID := uuid.NewString()
	pipeline.logStore.Open(jobID)

	record := &jobRecord{
		job: models.Job{
			ID:        jobID,
			Title:     title,
			Params:    params,
			State:     models.JobStateQueued,
			CreatedAt: time.Now(),
		},
		done: make(chan struct{}),
	}

	pipeline.mutex.Lock()
	pipeline.records[jobID] = record
	pipeline.mutex.Unlock()
	return jobID
}

func (pipeline *Pipeline) lookup(jobID string) *jobRecord {
	pipeline.mutex.RLock()
	defer pipeline.mutex.RUnlock()
	return pipeline.records[jobID]
}

func (pipeline *Pipeline) deadline() time.Duration {
	deadline := pipeline.config.Transcriber.OverallDeadline
	if deadline <= 0 || deadline > pipeline.config.Transcriber.MaxOverallDeadline {
		deadline = pipeline.config.Transcriber.MaxOverallDeadline
	}
	return deadline
}

// runAsync spins up the job's goroutine, builds its cancellable+deadline-bound context and
// temp directory, obtains the original artifact via acquire, then hands off to run. Kept
// separate from SubmitFromUrl/SubmitFromBytes so both entry points share one orchestration
// path past the fetch-vs-accept-upload split.
func (pipeline *Pipeline) runAsync(jobID string, acquire func(ctx context.Context, tempDir string) (models.AudioArtifact, error)) {
	record := pipeline.lookup(jobID)

	ctx, cancel := context.WithTimeout(context.Background(), pipeline.deadline())
	record.cancel = cancel

	go func() {
		defer close(record.done)
		defer cancel()

		custodianHandle, err := custodian.New(pipeline.config.Storage.DataDirectory, jobID)
		if err != nil {
			pipeline.fail(record, models.NewPipelineError("pipeline", models.ClassInternal, "failed to allocate temp directory", err))
			return
		}
		defer custodianHandle.Cleanup()

		original, err := acquire(ctx, custodianHandle.Dir())
		if err != nil {
			pipeline.fail(record, err)
			return
		}

		pipeline.runStages(ctx, record, custodianHandle, original)
	}()
}
