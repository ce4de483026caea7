package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(tester *testing.T, name string, content []byte) string {
	tester.Helper()
	path := filepath.Join(tester.TempDir(), name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		tester.Fatalf("failed to write test fixture: %v", err)
	}
	return path
}

func padded(prefix []byte) []byte {
	body := make([]byte, 1200)
	copy(body, prefix)
	return body
}

func TestValidateRejectsUnsupportedExtension(tester *testing.T) {
	path := writeTestFile(tester, "clip.exe", padded([]byte("MZ")))
	if _, err := Validate(path, "exe"); err == nil {
		tester.Fatal("expected an error for an unsupported extension")
	}
}

func TestValidateRejectsEmptyFile(tester *testing.T) {
	path := writeTestFile(tester, "clip.mp3", []byte{})
	if _, err := Validate(path, "mp3"); err == nil {
		tester.Fatal("expected an error for an empty file")
	}
}

func TestValidateRejectsTruncatedFile(tester *testing.T) {
	path := writeTestFile(tester, "clip.mp3", []byte{0xFF, 0xFB, 0x00})
	if _, err := Validate(path, "mp3"); err == nil {
		tester.Fatal("expected an error for a file below the 1000 byte floor")
	}
}

func TestValidateAcceptsRecognizedSignatures(tester *testing.T) {
	cases := []struct {
		name   string
		ext    string
		header []byte
	}{
		{"id3", "mp3", []byte("ID3")},
		{"mp3-frame-sync", "mp3", []byte{0xFF, 0xFB}},
		{"wave", "wav", append([]byte("RIFF\x00\x00\x00\x00"), []byte("WAVE")...)},
		{"ogg", "ogg", []byte("OggS")},
		{"flac", "flac", []byte("fLaC")},
	}
	for _, testCase := range cases {
		path := writeTestFile(tester, testCase.name+"."+testCase.ext, padded(testCase.header))
		warning, err := Validate(path, testCase.ext)
		if err != nil {
			tester.Errorf("%s: unexpected error: %v", testCase.name, err)
		}
		if warning != "" {
			tester.Errorf("%s: expected no warning, got %q", testCase.name, warning)
		}
	}
}

func TestValidateWarnsOnUnrecognizedSignatureWithKnownExtension(tester *testing.T) {
	path := writeTestFile(tester, "clip.mp3", padded([]byte("not-a-real-header")))
	warning, err := Validate(path, "mp3")
	if err != nil {
		tester.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(warning, "unrecognized container signature") {
		tester.Fatalf("expected an unrecognized-signature warning, got %q", warning)
	}
}
