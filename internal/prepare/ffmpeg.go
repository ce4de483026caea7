// Package prepare implements spec §4.3: size-adaptive transcode/segment decisions, driving
// the ffmpeg/ffprobe CLI exactly as the teacher's internal/transcription/ffmpeg.go does
// (same os/exec + stderr-capture idiom), generalized to the spec's exact flags and codec
// cascade instead of the teacher's single hardcoded libmp3lame call. Binary resolution and
// subprocess invocation are owned here rather than in a shared media helper, since the
// Transcoder is the only caller and spec §5 requires every subprocess it starts to be
// killable via the job's context.
package prepare

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
)

// Transcoder drives ffmpeg/ffprobe as subprocesses (spec §6.2's subprocess contract).
type Transcoder struct {
	binDir string
}

func NewTranscoder(binDir string) *Transcoder {
	return &Transcoder{binDir: binDir}
}

func (transcoder *Transcoder) CheckDependencies() error {
	if _, err := exec.LookPath(transcoder.locate("ffmpeg")); err != nil {
		return fmt.Errorf("ffmpeg not found")
	}
	if _, err := exec.LookPath(transcoder.locate("ffprobe")); err != nil {
		return fmt.Errorf("ffprobe not found")
	}
	return nil
}

// locate resolves binName against the configured bin directory first, falling back to
// system PATH, and finally to the bare name — letting exec fail with its own clear error
// when neither location has it.
func (transcoder *Transcoder) locate(binName string) string {
	if transcoder.binDir != "" {
		binDir := transcoder.binDir
		if binDir[0] == '~' {
			if home, err := os.UserHomeDir(); err == nil {
				binDir = filepath.Join(home, binDir[1:])
			}
		}
		ext := ""
		if runtime.GOOS == "windows" {
			ext = ".exe"
		}
		candidate := filepath.Join(binDir, binName+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if path, err := exec.LookPath(binName); err == nil {
		return path
	}
	return binName
}

// TryTranscode attempts one codec of the cascade: mono, 16 kHz, ~48 kbit/s (spec §4.3/§6.2).
// Returns an error (codec unavailable or ffmpeg failure) the caller should treat as
// "fall through to the next codec in the cascade". ctx bounds the subprocess so a cancelled
// or expired job (spec §5) kills an in-flight transcode rather than letting it run to
// completion.
func (transcoder *Transcoder) TryTranscode(ctx context.Context, inputPath, outputPath, encoder string) error {
	command := exec.CommandContext(ctx, transcoder.locate("ffmpeg"),
		"-y", "-i", inputPath,
		"-vn", "-ac", "1", "-ar", "16000", "-b:a", "48k",
		"-acodec", encoder,
		outputPath,
	)
	var stderr bytes.Buffer
	command.Stderr = &stderr
	if err := command.Run(); err != nil {
		return fmt.Errorf("ffmpeg transcode (%s) failed: %v, stderr: %s", encoder, err, stderr.String())
	}
	return nil
}

// Segment time-slices inputPath into fixed-duration segments under outputDirectory, named
// with a zero-padded monotonic index so lexicographic sort equals time order (spec §4.3).
// ctx bounds the subprocess the same way TryTranscode's does.
func (transcoder *Transcoder) Segment(ctx context.Context, inputPath, outputDirectory string, segmentDurationSec int, ext string) ([]string, error) {
	if err := os.MkdirAll(outputDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create segment directory: %w", err)
	}

	outputPattern := filepath.Join(outputDirectory, "segment_%03d."+ext)
	command := exec.CommandContext(ctx, transcoder.locate("ffmpeg"),
		"-y", "-i", inputPath,
		"-f", "segment", "-segment_time", strconv.Itoa(segmentDurationSec), "-reset_timestamps", "1",
		"-c", "copy",
		outputPattern,
	)
	var stderr bytes.Buffer
	command.Stderr = &stderr
	if err := command.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg segment failed: %v, stderr: %s", err, stderr.String())
	}

	segmentFiles, globErr := filepath.Glob(filepath.Join(outputDirectory, "segment_*."+ext))
	if globErr != nil {
		return nil, globErr
	}
	return segmentFiles, nil
}
