package prepare

import (
	"context"
	"testing"

	"podcastpipe/internal/config"
	"podcastpipe/internal/models"
)

func TestPrepareReturnsSinglePlanWhenUnderLimit(tester *testing.T) {
	preparer := New(config.PreparerConfig{ProviderLimitBytes: 1024 * 1024}, NewTranscoder(""))

	original := models.AudioArtifact{Path: "/tmp/original.mp3", SizeBytes: 2048, Ext: "mp3", Role: models.RoleOriginal}
	plan, err := preparer.Prepare(context.Background(), original, tester.TempDir())
	if err != nil {
		tester.Fatalf("unexpected error: %v", err)
	}
	if plan.Kind != models.PlanSingle {
		tester.Fatalf("expected PlanSingle for a file under the provider limit, got %s", plan.Kind)
	}
	if plan.Single == nil || plan.Single.Path != original.Path {
		tester.Fatal("expected the single artifact to be the untouched original")
	}
}
