package transcribe

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"podcastpipe/internal/config"
	"podcastpipe/internal/models"
)

// SegmentOutcome is one segment's result, successful or not. A segment that exhausts retries
// does not abort the job: the Merger (package merge) skips its content but still advances the
// timeline by SegmentDurationSec (spec §4.4).
type SegmentOutcome struct {
	Index int
	Raw   models.RawTranscript
	Err   error
}

// Transcriber drives Provider for either a Single or Segmented Plan (spec §4.4).
type Transcriber struct {
	config   config.TranscriberConfig
	provider Provider
}

func New(configuration config.TranscriberConfig, provider Provider) *Transcriber {
	return &Transcriber{config: configuration, provider: provider}
}

// TranscribeSingle drives the single-file path: one logical request with up to
// SingleFileMaxAttempts attempts in total.
func (transcriber *Transcriber) TranscribeSingle(ctx context.Context, audioPath string, options Options) (models.RawTranscript, error) {
	return transcriber.callWithRetry(ctx, audioPath, options, transcriber.config.SingleFileMaxAttempts)
}

// TranscribeSegments drives the segmented path: a bounded worker pool of ConcurrentLimit
// dispatches segments in index order; completion order is unconstrained; every segment gets
// up to SegmentMaxAttempts attempts independently. A segment's final failure is recorded as a
// SegmentOutcome, not returned as an error. Workers never return an error to the group, so
// the returned error is always nil; a cancelled context shows up as per-segment errors.
func (transcriber *Transcriber) TranscribeSegments(ctx context.Context, segmentPaths []string, options Options) ([]SegmentOutcome, error) {
	outcomes := make([]SegmentOutcome, len(segmentPaths))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(transcriber.config.ConcurrentLimit)

	for index, path := range segmentPaths {
		index, path := index, path
		group.Go(func() error {
			raw, err := transcriber.callWithRetry(groupCtx, path, options, transcriber.config.SegmentMaxAttempts)
			outcomes[index] = SegmentOutcome{Index: index, Raw: raw, Err: err}
			return nil // never abort the group: failures are recorded, not propagated
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// callWithRetry implements spec §4.4's retry policy: delay_i = min(base * 2^(i-1), cap), with
// base = BackoffBaseQuota for a rate limit, a connection reset, or any other error the
// Provider flagged as quota-suspected, else BackoffBaseDefault. Non-retryable classes (quota
// exhausted, auth, forbidden) fail fast with
// zero retries. Each attempt opens a fresh file handle via the Provider (spec: "retries create
// a fresh input stream each attempt").
func (transcriber *Transcriber) callWithRetry(ctx context.Context, audioPath string, options Options, maxAttempts int) (models.RawTranscript, error) {
	var result models.RawTranscript
	var base time.Duration // chosen once the first failure reveals the error class
	attempt := 0

	operation := func() error {
		attempt++
		raw, err := transcriber.provider.Transcribe(ctx, audioPath, options)
		if err == nil {
			result = raw
			return nil
		}

		var providerError *ProviderError
		if !errors.As(err, &providerError) {
			return backoff.Permanent(err)
		}
		if !providerError.Class.Retryable() {
			slog.Warn("transcriber: non-retryable provider error, failing fast", "class", providerError.Class, "attempt", attempt)
			return backoff.Permanent(err)
		}
		if base == 0 {
			base = transcriber.config.BackoffBaseDefault
			if providerError.Class == models.ClassProviderRateLimited || providerError.QuotaSuspected {
				base = transcriber.config.BackoffBaseQuota
			}
		}
		slog.Warn("transcriber: retrying after provider error", "class", providerError.Class, "attempt", attempt)
		return err
	}

	policy := backoff.WithMaxRetries(transcriber.backoffPolicy(&base), uint64(maxAttempts-1))
	err := backoff.Retry(operation, backoff.WithContext(policy, ctx))
	return result, err
}

// backoffPolicy returns an exponential policy matching spec §4.4's exact shape
// (delay_i = min(base * 2^(i-1), cap), no jitter), reading base lazily via the pointer since
// the applicable base is only known once the first error's class is observed.
func (transcriber *Transcriber) backoffPolicy(base *time.Duration) backoff.BackOff {
	return &lazyExponentialBackOff{
		base: base,
		cap:  transcriber.config.BackoffCap,
		next: 0,
	}
}

// lazyExponentialBackOff implements backoff.BackOff, deferring its initial interval until the
// first retryable error reveals which base (quota vs default) applies.
type lazyExponentialBackOff struct {
	base *time.Duration
	cap  time.Duration
	next time.Duration
}

func (policy *lazyExponentialBackOff) NextBackOff() time.Duration {
	if policy.next == 0 {
		policy.next = *policy.base
	} else {
		policy.next *= 2
	}
	if policy.next > policy.cap {
		return policy.cap
	}
	return policy.next
}

func (policy *lazyExponentialBackOff) Reset() {
	policy.next = 0
}
