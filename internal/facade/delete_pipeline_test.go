package facade

import (
	"context"
	"testing"

	"github.com/soochol/litsearch-mcp/internal/pipeline"
	"github.com/soochol/litsearch-mcp/internal/store"
)

func TestDeletePipeline_RemovesPipelineAndSchedule(t *testing.T) {
	f := newTestFacade(t)
	save := &SavePipelineTool{f}
	del := &DeletePipelineTool{f}
	list := &ListPipelinesTool{f}

	if _, err := save.Execute(context.Background(), map[string]any{
		"name": "to-delete", "config": validPipelineText,
	}); err != nil {
		t.Fatalf("save Execute: %v", err)
	}
	if err := f.Scheduler.Enable(context.Background(), store.Schedule{
		PipelineName: "to-delete", Scope: pipeline.ScopeWorkspace, Cron: "0 6 * * 1", Enabled: true,
	}); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	if _, err := del.Execute(context.Background(), map[string]any{"name": "to-delete"}); err != nil {
		t.Fatalf("delete Execute: %v", err)
	}

	out, err := list.Execute(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("list Execute: %v", err)
	}
	if out.(map[string]any)["count"].(int) != 0 {
		t.Fatal("expected the pipeline to be gone after delete")
	}

	scheds, err := f.Schedules.List(context.Background(), pipeline.ScopeWorkspace)
	if err != nil {
		t.Fatalf("Schedules.List: %v", err)
	}
	if len(scheds) != 0 {
		t.Fatalf("expected the schedule entry to be removed too, got %d", len(scheds))
	}
}

func TestDeletePipeline_UnknownNameErrors(t *testing.T) {
	f := newTestFacade(t)
	del := &DeletePipelineTool{f}

	if _, err := del.Execute(context.Background(), map[string]any{"name": "ghost"}); err == nil {
		t.Fatal("expected an error deleting an unknown pipeline")
	}
}
