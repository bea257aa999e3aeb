package facade

import (
	"context"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
)

// PipelineHistoryTool is get_pipeline_history: the ordered run history for
// a saved pipeline, each entry carrying its diff against the run before it.
type PipelineHistoryTool struct{ f *Facade }

func (t *PipelineHistoryTool) Name() string { return "get_pipeline_history" }

func (t *PipelineHistoryTool) Description() string {
	return "Return a saved pipeline's run history, most recent first, each with its status, article count, and diff against the prior run."
}

func (t *PipelineHistoryTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":  map[string]any{"type": "string"},
			"limit": map[string]any{"type": "number", "description": "Maximum number of runs to return (default 20)"},
			"scope": map[string]any{"type": "string", "description": "workspace | global | auto (default auto)"},
		},
		"required": []any{"name"},
	}
}

func (t *PipelineHistoryTool) Execute(ctx context.Context, input any) (any, error) {
	args, err := asArgs(input)
	if err != nil {
		return nil, toolError(err)
	}
	name := argString(args, "name")
	if name == "" {
		return nil, toolError(litsearcherr.New(litsearcherr.InvalidInput, "name is required"))
	}
	limit := argInt(args, "limit", 20)

	_, _, scope, err := t.f.getAutoScope(ctx, argString(args, "scope"), name)
	if err != nil {
		return nil, toolError(err)
	}

	runs, err := t.f.Runs.List(ctx, scope, name, limit)
	if err != nil {
		return nil, toolError(err)
	}

	return map[string]any{
		"name":  name,
		"scope": string(scope),
		"runs":  runs,
		"count": len(runs),
	}, nil
}
