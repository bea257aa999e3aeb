package facade

import (
	"context"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
)

// DeletePipelineTool is delete_pipeline: removes a saved pipeline, its run
// history, and any schedule entry referring to it.
type DeletePipelineTool struct{ f *Facade }

func (t *DeletePipelineTool) Name() string { return "delete_pipeline" }

func (t *DeletePipelineTool) Description() string {
	return "Delete a saved pipeline, its run history, and any schedule entry that references it."
}

func (t *DeletePipelineTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":  map[string]any{"type": "string"},
			"scope": map[string]any{"type": "string", "description": "workspace | global | auto (default auto)"},
		},
		"required": []any{"name"},
	}
}

func (t *DeletePipelineTool) Execute(ctx context.Context, input any) (any, error) {
	args, err := asArgs(input)
	if err != nil {
		return nil, toolError(err)
	}
	name := argString(args, "name")
	if name == "" {
		return nil, toolError(litsearcherr.New(litsearcherr.InvalidInput, "name is required"))
	}

	_, _, scope, err := t.f.getAutoScope(ctx, argString(args, "scope"), name)
	if err != nil {
		return nil, toolError(err)
	}

	if err := t.f.Pipelines.Delete(ctx, scope, name); err != nil {
		return nil, toolError(err)
	}
	if err := t.f.Schedules.Remove(ctx, scope, name); err != nil {
		return nil, toolError(err)
	}

	return map[string]any{"deleted": name, "scope": string(scope)}, nil
}
