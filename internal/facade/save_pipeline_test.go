package facade

import (
	"context"
	"testing"
)

const validPipelineText = `
name: my_search
steps:
  - id: search
    action: search
    params:
      query: "diabetes"
      sources: ["pubmed"]
  - id: rank
    action: rank
    params:
      strategy: balanced
      limit: 10
`

func TestSavePipeline_SavesAndIsListable(t *testing.T) {
	f := newTestFacade(t)
	save := &SavePipelineTool{f}
	list := &ListPipelinesTool{f}

	if _, err := save.Execute(context.Background(), map[string]any{
		"name": "my-search", "config": validPipelineText,
	}); err != nil {
		t.Fatalf("save Execute: %v", err)
	}

	out, err := list.Execute(context.Background(), map[string]any{})
	if err != nil {
		t.Fatalf("list Execute: %v", err)
	}
	result := out.(map[string]any)
	if result["count"].(int) != 1 {
		t.Fatalf("expected 1 saved pipeline, got %v", result["count"])
	}
}

func TestSavePipeline_RejectsReservedName(t *testing.T) {
	f := newTestFacade(t)
	save := &SavePipelineTool{f}

	_, err := save.Execute(context.Background(), map[string]any{
		"name": "last", "config": validPipelineText,
	})
	if err == nil {
		t.Fatal("expected the reserved name \"last\" to be rejected")
	}
}

func TestSavePipeline_RejectsInvalidDAG(t *testing.T) {
	f := newTestFacade(t)
	save := &SavePipelineTool{f}

	cyclic := `
name: cyclic
steps:
  - id: a
    action: search
    params: {query: "x"}
    depends_on: ["b"]
  - id: b
    action: rank
    params: {strategy: balanced}
    depends_on: ["a"]
`
	_, err := save.Execute(context.Background(), map[string]any{
		"name": "cyclic-pipeline", "config": cyclic,
	})
	if err == nil {
		t.Fatal("expected a dependency cycle to be rejected at save time")
	}
}
