package custodian

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewCreatesJobDirectory(tester *testing.T) {
	root := tester.TempDir()

	handle, err := New(root, "job-1")
	if err != nil {
		tester.Fatalf("New failed: %v", err)
	}

	if info, statErr := os.Stat(handle.Dir()); statErr != nil || !info.IsDir() {
		tester.Fatalf("expected the job directory to exist at %s", handle.Dir())
	}
	if handle.Path("segment_000.mp3") != filepath.Join(root, "job-1", "segment_000.mp3") {
		tester.Fatalf("Path did not join under the job directory: %s", handle.Path("segment_000.mp3"))
	}
}

func TestCleanupRemovesTheJobDirectory(tester *testing.T) {
	root := tester.TempDir()
	handle, err := New(root, "job-1")
	if err != nil {
		tester.Fatalf("New failed: %v", err)
	}
	os.WriteFile(handle.Path("leftover.mp3"), []byte("data"), 0644)

	handle.Cleanup()

	if _, statErr := os.Stat(handle.Dir()); !os.IsNotExist(statErr) {
		tester.Fatal("expected the job directory to be gone after Cleanup")
	}
}

func TestSweepOrphansDeletesOnlyStaleDirectories(tester *testing.T) {
	root := tester.TempDir()

	freshHandle, err := New(root, "fresh")
	if err != nil {
		tester.Fatalf("New failed: %v", err)
	}
	staleHandle, err := New(root, "stale")
	if err != nil {
		tester.Fatalf("New failed: %v", err)
	}

	staleTime := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(staleHandle.Dir(), staleTime, staleTime); err != nil {
		tester.Fatalf("failed to backdate stale directory: %v", err)
	}

	SweepOrphans(root, time.Hour)

	if _, statErr := os.Stat(freshHandle.Dir()); statErr != nil {
		tester.Fatal("expected the fresh directory to survive the sweep")
	}
	if _, statErr := os.Stat(staleHandle.Dir()); !os.IsNotExist(statErr) {
		tester.Fatal("expected the stale directory to be swept")
	}
}
