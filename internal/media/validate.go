package media

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"podcastpipe/internal/models"
)

// AcceptedExtensions is the set spec §4.2 names, lowercased.
var AcceptedExtensions = map[string]bool{
	"flac": true, "m4a": true, "mp3": true, "mp4": true,
	"mpeg": true, "mpga": true, "oga": true, "ogg": true,
	"wav": true, "webm": true,
}

// mp3FrameSyncs are the three frame-sync byte pairs spec §4.2 lists for MP3 without an ID3 tag.
var mp3FrameSyncs = [][2]byte{{0xFF, 0xFB}, {0xFF, 0xF3}, {0xFF, 0xF2}}

// Validate checks path's extension against the accepted set and its first 12 bytes against
// the known container signatures, per spec §4.2. It never rejects on an unrecognized
// signature paired with a known extension — that case is accepted with a warning, which the
// caller is expected to log.
func Validate(path string, ext string) (warning string, err error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if !AcceptedExtensions[ext] {
		return "", &models.PipelineError{
			Stage:   "validator",
			Class:   models.ClassInvalidInput,
			Message: fmt.Sprintf("unsupported file extension %q", ext),
		}
	}

	info, statError := os.Stat(path)
	if statError != nil {
		return "", &models.PipelineError{Stage: "validator", Class: models.ClassInvalidInput, Message: "cannot stat file", Err: statError}
	}
	if info.Size() == 0 {
		return "", &models.PipelineError{Stage: "validator", Class: models.ClassInvalidInput, Message: "file is empty"}
	}
	if info.Size() < 1000 {
		return "", &models.PipelineError{Stage: "validator", Class: models.ClassInvalidInput, Message: "file is truncated (below 1000 bytes)"}
	}

	header := make([]byte, 12)
	file, openError := os.Open(path)
	if openError != nil {
		return "", &models.PipelineError{Stage: "validator", Class: models.ClassInvalidInput, Message: "cannot open file", Err: openError}
	}
	defer file.Close()

	read, readError := file.Read(header)
	if readError != nil || read < 12 {
		return "", &models.PipelineError{Stage: "validator", Class: models.ClassInvalidInput, Message: "file is truncated"}
	}

	if !recognizedSignature(header) {
		return fmt.Sprintf("unrecognized container signature for extension %q; accepting on extension alone", ext), nil
	}
	return "", nil
}

func recognizedSignature(header []byte) bool {
	if bytes.HasPrefix(header, []byte("ID3")) {
		return true
	}
	for _, sync := range mp3FrameSyncs {
		if header[0] == sync[0] && header[1] == sync[1] {
			return true
		}
	}
	if bytes.HasPrefix(header, []byte("RIFF")) && bytes.Contains(header, []byte("WAVE")) {
		return true
	}
	if bytes.Contains(header, []byte("ftyp")) {
		return true
	}
	if bytes.HasPrefix(header, []byte("OggS")) {
		return true
	}
	if bytes.HasPrefix(header, []byte("fLaC")) {
		return true
	}
	return false
}
