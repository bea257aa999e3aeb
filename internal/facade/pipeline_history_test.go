package facade

import (
	"context"
	"testing"

	"github.com/soochol/litsearch-mcp/internal/pipeline"
)

func TestPipelineHistory_ReturnsAppendedRuns(t *testing.T) {
	f := newTestFacade(t)
	save := &SavePipelineTool{f}
	history := &PipelineHistoryTool{f}

	if _, err := save.Execute(context.Background(), map[string]any{
		"name": "history-target", "config": validPipelineText,
	}); err != nil {
		t.Fatalf("save Execute: %v", err)
	}

	run := &pipeline.Run{
		RunID:        "20260731T000000.000000000Z",
		PipelineName: "history-target",
		Scope:        pipeline.ScopeWorkspace,
		Status:       pipeline.RunStatusOK,
		ArticleCount: 3,
	}
	if err := f.Runs.Append(context.Background(), pipeline.ScopeWorkspace, "history-target", run); err != nil {
		t.Fatalf("Runs.Append: %v", err)
	}

	out, err := history.Execute(context.Background(), map[string]any{"name": "history-target"})
	if err != nil {
		t.Fatalf("history Execute: %v", err)
	}
	result := out.(map[string]any)
	if result["count"].(int) != 1 {
		t.Fatalf("expected 1 run in history, got %v", result["count"])
	}
}

func TestPipelineHistory_UnknownNameErrors(t *testing.T) {
	f := newTestFacade(t)
	history := &PipelineHistoryTool{f}

	if _, err := history.Execute(context.Background(), map[string]any{"name": "ghost"}); err == nil {
		t.Fatal("expected an error for an unknown pipeline name")
	}
}
