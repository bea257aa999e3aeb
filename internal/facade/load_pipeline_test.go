package facade

import (
	"context"
	"strings"
	"testing"
)

func TestLoadPipeline_RoundTripsSavedPipeline(t *testing.T) {
	f := newTestFacade(t)
	save := &SavePipelineTool{f}
	load := &LoadPipelineTool{f}

	if _, err := save.Execute(context.Background(), map[string]any{
		"name": "roundtrip", "config": validPipelineText,
	}); err != nil {
		t.Fatalf("save Execute: %v", err)
	}

	out, err := load.Execute(context.Background(), map[string]any{"source": "roundtrip"})
	if err != nil {
		t.Fatalf("load Execute: %v", err)
	}
	result := out.(map[string]any)
	if result["name"] != "my_search" {
		t.Fatalf("expected the saved pipeline's name, got %v", result["name"])
	}
	if !strings.Contains(result["text"].(string), "search") {
		t.Fatalf("expected the canonical text to mention the search step, got %q", result["text"])
	}
}

func TestLoadPipeline_UnknownNameErrors(t *testing.T) {
	f := newTestFacade(t)
	load := &LoadPipelineTool{f}

	if _, err := load.Execute(context.Background(), map[string]any{"source": "does-not-exist"}); err == nil {
		t.Fatal("expected an error for an unknown pipeline name")
	}
}

func TestIsSavedName(t *testing.T) {
	cases := map[string]bool{
		"my-pipeline":              true,
		"saved:my-pipeline":        true,
		"file:/tmp/p.yaml":         false,
		"url:https://example.com": false,
	}
	for source, want := range cases {
		if got := isSavedName(source); got != want {
			t.Errorf("isSavedName(%q) = %v, want %v", source, got, want)
		}
	}
}
