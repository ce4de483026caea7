package prepare

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"podcastpipe/internal/config"
	"podcastpipe/internal/media"
	"podcastpipe/internal/models"
)

// Preparer implements spec §4.3's size-adaptive decision: pass the original through
// untouched if it already fits the provider limit, otherwise transcode (trying the codec
// cascade in order) and, if still too large, time-slice the transcoded artifact.
type Preparer struct {
	config     config.PreparerConfig
	transcoder *Transcoder
}

func New(configuration config.PreparerConfig, transcoder *Transcoder) *Preparer {
	return &Preparer{config: configuration, transcoder: transcoder}
}

// Prepare builds a Plan for original (an AudioArtifact already validated by package media),
// writing any transcoded/segmented output under workDir. ctx bounds every subprocess this
// stage starts, so a cancelled or expired job (spec §5) kills an in-flight ffmpeg call
// instead of letting it run to completion.
func (preparer *Preparer) Prepare(ctx context.Context, original models.AudioArtifact, workDir string) (models.Plan, error) {
	if original.SizeBytes <= preparer.config.ProviderLimitBytes {
		return models.Plan{Kind: models.PlanSingle, Single: &original}, nil
	}

	transcoded, transcodeErr := preparer.transcodeCascade(ctx, original, workDir)
	if transcodeErr != nil {
		return models.Plan{}, transcodeErr
	}

	if transcoded.SizeBytes <= preparer.config.ProviderLimitBytes {
		return models.Plan{Kind: models.PlanSingle, Single: &transcoded}, nil
	}

	segments, segmentErr := preparer.sliceSegments(ctx, transcoded, workDir)
	if segmentErr != nil {
		return models.Plan{}, segmentErr
	}
	return models.Plan{
		Kind:               models.PlanSegmented,
		Segments:           segments,
		SegmentDurationSec: preparer.config.SegmentDurationSec,
	}, nil
}

// transcodeCascade tries each codec in config order, falling through on unavailability or
// ffmpeg failure; the first to succeed wins (spec §4.3).
func (preparer *Preparer) transcodeCascade(ctx context.Context, original models.AudioArtifact, workDir string) (models.AudioArtifact, error) {
	var lastErr error
	for _, codec := range preparer.config.CodecCascade {
		outputPath := filepath.Join(workDir, "transcoded."+codec.Ext)
		if err := preparer.transcoder.TryTranscode(ctx, original.Path, outputPath, codec.Encoder); err != nil {
			lastErr = err
			continue
		}

		if _, validateErr := media.Validate(outputPath, codec.Ext); validateErr != nil {
			lastErr = validateErr
			os.Remove(outputPath)
			continue
		}

		info, statErr := os.Stat(outputPath)
		if statErr != nil {
			lastErr = statErr
			continue
		}
		return models.AudioArtifact{
			Path: outputPath, SizeBytes: info.Size(), Ext: codec.Ext, Role: models.RoleTranscoded,
		}, nil
	}

	cascadeError := models.NewPipelineError("preparer", models.ClassPrepareFailed, "no codec in the transcode cascade succeeded", lastErr)
	cascadeError.WithSuggestions(
		"the transcoder binary on PATH may be missing encoder support",
		"try pre-compressing the audio manually before submitting",
	)
	return models.AudioArtifact{}, cascadeError
}

// sliceSegments time-slices transcoded into fixed-duration parts. Output format is derived
// from the transcoded artifact's extension (spec §4.3): .m4a → AAC, .ogg → Vorbis, .wav →
// PCM, otherwise MP3 — but since transcoded is already encoded, slicing always stream-copies,
// so the output extension simply matches the input's.
func (preparer *Preparer) sliceSegments(ctx context.Context, transcoded models.AudioArtifact, workDir string) ([]models.AudioArtifact, error) {
	segmentsDir := filepath.Join(workDir, "segments")
	paths, err := preparer.transcoder.Segment(ctx, transcoded.Path, segmentsDir, preparer.config.SegmentDurationSec, transcoded.Ext)
	if err != nil {
		return nil, &models.PipelineError{Stage: "preparer", Class: models.ClassPrepareFailed, Message: "segmentation failed", Err: err}
	}
	if len(paths) == 0 {
		return nil, &models.PipelineError{Stage: "preparer", Class: models.ClassPrepareFailed, Message: "segmentation produced no output files"}
	}

	// segment_%03d.ext names sort lexicographically in time order already; sort defensively.
	sort.Strings(paths)

	artifacts := make([]models.AudioArtifact, 0, len(paths))
	for index, path := range paths {
		if _, validateErr := media.Validate(path, transcoded.Ext); validateErr != nil {
			return nil, &models.PipelineError{Stage: "preparer", Class: models.ClassPrepareFailed, Message: fmt.Sprintf("segment %d failed validation", index), Err: validateErr}
		}
		info, statErr := os.Stat(path)
		if statErr != nil {
			return nil, statErr
		}
		artifacts = append(artifacts, models.AudioArtifact{
			Path: path, SizeBytes: info.Size(), Ext: transcoded.Ext, Role: models.RoleSegment, Index: index,
		})
	}
	return artifacts, nil
}
