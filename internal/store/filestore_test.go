package store

import (
	"context"
	"testing"
	"time"

	"github.com/soochol/litsearch-mcp/internal/pipeline"
)

func TestFilePipelineRepository_SaveGetRoundTrip(t *testing.T) {
	root := t.TempDir()
	repo := NewFilePipelineRepository(root, t.TempDir())

	cfg := &pipeline.Config{
		Description: "weekly scan",
		Steps: []pipeline.Step{
			{ID: "search", Action: pipeline.ActionSearch, Params: map[string]any{"query": "x"}},
		},
	}

	meta, err := repo.Save(context.Background(), pipeline.ScopeWorkspace, "weekly", cfg)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if meta.StepCount != 1 {
		t.Fatalf("StepCount = %d, want 1", meta.StepCount)
	}

	got, gotMeta, err := repo.Get(context.Background(), pipeline.ScopeWorkspace, "weekly")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Description != cfg.Description {
		t.Fatalf("Description = %q, want %q", got.Description, cfg.Description)
	}
	if gotMeta.ContentHash != meta.ContentHash {
		t.Fatalf("ContentHash mismatch after round trip: %q vs %q", gotMeta.ContentHash, meta.ContentHash)
	}
}

func TestFilePipelineRepository_ContentHashStableUnderResave(t *testing.T) {
	root := t.TempDir()
	repo := NewFilePipelineRepository(root, t.TempDir())
	cfg := &pipeline.Config{Steps: []pipeline.Step{{ID: "s", Action: pipeline.ActionSearch}}}

	first, err := repo.Save(context.Background(), pipeline.ScopeWorkspace, "p", cfg)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := repo.Save(context.Background(), pipeline.ScopeWorkspace, "p", cfg)
	if err != nil {
		t.Fatalf("Save (again): %v", err)
	}
	if first.ContentHash != second.ContentHash {
		t.Fatalf("hash changed across idempotent resave: %q vs %q", first.ContentHash, second.ContentHash)
	}
}

func TestFilePipelineRepository_RejectsInvalidName(t *testing.T) {
	repo := NewFilePipelineRepository(t.TempDir(), t.TempDir())
	_, err := repo.Save(context.Background(), pipeline.ScopeWorkspace, "../escape", &pipeline.Config{})
	if err == nil {
		t.Fatal("expected error for path-traversal pipeline name")
	}
}

func TestFilePipelineRepository_GetMissingIsNotFound(t *testing.T) {
	repo := NewFilePipelineRepository(t.TempDir(), t.TempDir())
	_, _, err := repo.Get(context.Background(), pipeline.ScopeWorkspace, "nope")
	if err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestFilePipelineRepository_DeleteRemovesRunDirectory(t *testing.T) {
	root := t.TempDir()
	pipelines := NewFilePipelineRepository(root, t.TempDir())
	runs := NewFileRunRepository(root, t.TempDir())

	cfg := &pipeline.Config{Steps: []pipeline.Step{{ID: "s", Action: pipeline.ActionSearch}}}
	if _, err := pipelines.Save(context.Background(), pipeline.ScopeWorkspace, "p", cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	run := &pipeline.Run{RunID: "r1", PipelineName: "p", Status: pipeline.RunStatusOK}
	if err := runs.Append(context.Background(), pipeline.ScopeWorkspace, "p", run); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := pipelines.Delete(context.Background(), pipeline.ScopeWorkspace, "p"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := runs.Last(context.Background(), pipeline.ScopeWorkspace, "p"); err == nil {
		t.Fatal("expected run history to be gone after pipeline delete")
	}
}

func TestFileRunRepository_LastReturnsMostRecent(t *testing.T) {
	root := t.TempDir()
	runs := NewFileRunRepository(root, t.TempDir())

	older := &pipeline.Run{RunID: "r1", PipelineName: "p"}
	older.StartedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := &pipeline.Run{RunID: "r2", PipelineName: "p"}
	newer.StartedAt = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	if err := runs.Append(context.Background(), pipeline.ScopeWorkspace, "p", older); err != nil {
		t.Fatalf("Append older: %v", err)
	}
	if err := runs.Append(context.Background(), pipeline.ScopeWorkspace, "p", newer); err != nil {
		t.Fatalf("Append newer: %v", err)
	}

	last, err := runs.Last(context.Background(), pipeline.ScopeWorkspace, "p")
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if last.RunID != "r2" {
		t.Fatalf("RunID = %q, want r2", last.RunID)
	}
}

func TestFileScheduleRepository_UpsertAndRemove(t *testing.T) {
	root := t.TempDir()
	repo := NewFileScheduleRepository(root, t.TempDir())

	err := repo.Upsert(context.Background(), pipeline.ScopeWorkspace, Schedule{
		PipelineName: "weekly", Cron: "0 6 * * 1", Enabled: true,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	n, err := repo.EnabledCount(context.Background())
	if err != nil {
		t.Fatalf("EnabledCount: %v", err)
	}
	if n != 1 {
		t.Fatalf("EnabledCount = %d, want 1", n)
	}

	if err := repo.Remove(context.Background(), pipeline.ScopeWorkspace, "weekly"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	scheds, err := repo.List(context.Background(), pipeline.ScopeWorkspace)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(scheds) != 0 {
		t.Fatalf("List = %v, want empty after removal", scheds)
	}
}
