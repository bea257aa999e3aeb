package facade

import (
	"context"
	"strings"
	"testing"
)

func TestUnifiedSearch_SimpleQueryReturnsStructuredResults(t *testing.T) {
	f := newTestFacade(t)
	tool := &UnifiedSearchTool{f}

	out, err := tool.Execute(context.Background(), map[string]any{"query": "diabetes"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	result, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("expected a map result, got %T", out)
	}
	if result["status"] == "" {
		t.Fatal("expected a non-empty status")
	}
	if result["session_id"] == "" {
		t.Fatal("expected a minted session_id when none was supplied")
	}
	if result["output_format"] != "structured" {
		t.Fatalf("expected structured output_format, got %v", result["output_format"])
	}
}

func TestUnifiedSearch_RequiresExactlyOneOfQueryOrPipeline(t *testing.T) {
	f := newTestFacade(t)
	tool := &UnifiedSearchTool{f}

	if _, err := tool.Execute(context.Background(), map[string]any{}); err == nil {
		t.Fatal("expected an error when neither query nor pipeline is given")
	}
	if _, err := tool.Execute(context.Background(), map[string]any{
		"query": "x", "pipeline": "saved:y",
	}); err == nil {
		t.Fatal("expected an error when both query and pipeline are given")
	}
}

func TestUnifiedSearch_OutputFormatOverrideAppliesToResult(t *testing.T) {
	f := newTestFacade(t)
	tool := &UnifiedSearchTool{f}

	out, err := tool.Execute(context.Background(), map[string]any{
		"query":         "diabetes",
		"output_format": "tabular",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	result := out.(map[string]any)
	if result["output_format"] != "tabular" {
		t.Fatalf("expected tabular output_format, got %v", result["output_format"])
	}
	body, _ := result["output_body"].(string)
	if !strings.Contains(body, "Title") {
		t.Fatalf("expected a tabular header row in the body, got %q", body)
	}
}

func TestUnifiedSearch_InlinePipelineRunsThroughEngine(t *testing.T) {
	f := newTestFacade(t)
	tool := &UnifiedSearchTool{f}

	pipelineText := `
name: inline
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
	out, err := tool.Execute(context.Background(), map[string]any{"pipeline": pipelineText})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	result := out.(map[string]any)
	if result["article_count"].(int) == 0 {
		t.Fatal("expected at least one article from the fake adapter")
	}
}
