package facade

import (
	"context"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/pipeline"
)

// SavePipelineTool is save_pipeline: parses and upserts a named pipeline
// document at the requested scope.
type SavePipelineTool struct{ f *Facade }

func (t *SavePipelineTool) Name() string { return "save_pipeline" }

func (t *SavePipelineTool) Description() string {
	return "Save a pipeline document (YAML or braces form) under a name at workspace or global scope. Overwrites any existing pipeline with the same name."
}

func (t *SavePipelineTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":        map[string]any{"type": "string", "description": "Pipeline name, ^[A-Za-z0-9_-]{1,64}$"},
			"config":      map[string]any{"type": "string", "description": "Pipeline document text (YAML or braces form)"},
			"tags":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"description": map[string]any{"type": "string"},
			"scope":       map[string]any{"type": "string", "description": "workspace | global | auto (default auto)"},
		},
		"required": []any{"name", "config"},
	}
}

func (t *SavePipelineTool) Execute(ctx context.Context, input any) (any, error) {
	args, err := asArgs(input)
	if err != nil {
		return nil, toolError(err)
	}

	name := argString(args, "name")
	if name == "" {
		return nil, toolError(litsearcherr.New(litsearcherr.InvalidInput, "name is required"))
	}
	if reservedPipelineNames[name] {
		return nil, toolError(litsearcherr.New(litsearcherr.Conflict, "pipeline name is reserved: "+name))
	}

	configText := argString(args, "config")
	if configText == "" {
		return nil, toolError(litsearcherr.New(litsearcherr.InvalidInput, "config is required"))
	}
	cfg, err := pipeline.Parse(configText)
	if err != nil {
		return nil, toolError(err)
	}
	// Validate against the expanded form (so a template reference's steps
	// are checked too) but persist the original, template-preserving cfg —
	// a saved pipeline re-expands its template on every run.
	resolved, err := pipeline.Resolve(cfg)
	if err != nil {
		return nil, toolError(err)
	}
	if err := pipeline.Validate(resolved); err != nil {
		return nil, toolError(err)
	}

	if description := argString(args, "description"); description != "" {
		cfg.Description = description
	}
	if tags, ok := args["tags"].([]any); ok {
		cfg.Tags = make([]string, 0, len(tags))
		for _, tag := range tags {
			if s, ok := tag.(string); ok {
				cfg.Tags = append(cfg.Tags, s)
			}
		}
	}

	scope := t.f.resolveScope(argString(args, "scope"))
	meta, err := t.f.Pipelines.Save(ctx, scope, name, cfg)
	if err != nil {
		return nil, toolError(err)
	}
	return meta, nil
}
