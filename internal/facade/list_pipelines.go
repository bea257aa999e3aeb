package facade

import (
	"context"

	"github.com/soochol/litsearch-mcp/internal/pipeline"
)

// ListPipelinesTool is list_pipelines: the combined, scope-tagged catalog
// of saved pipelines, optionally filtered by tag.
type ListPipelinesTool struct{ f *Facade }

func (t *ListPipelinesTool) Name() string { return "list_pipelines" }

func (t *ListPipelinesTool) Description() string {
	return "List saved pipelines, combining workspace and global scope, each tagged with its scope. Optionally filter by tag or restrict to one scope."
}

func (t *ListPipelinesTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tag":   map[string]any{"type": "string", "description": "Only return pipelines carrying this tag"},
			"scope": map[string]any{"type": "string", "description": "workspace | global; omit to list both"},
		},
	}
}

func (t *ListPipelinesTool) Execute(ctx context.Context, input any) (any, error) {
	args, err := asArgs(input)
	if err != nil {
		return nil, toolError(err)
	}
	tag := argString(args, "tag")
	scopeArg := argString(args, "scope")

	var scopes []pipeline.Scope
	switch scopeArg {
	case string(pipeline.ScopeWorkspace):
		scopes = []pipeline.Scope{pipeline.ScopeWorkspace}
	case string(pipeline.ScopeGlobal):
		scopes = []pipeline.Scope{pipeline.ScopeGlobal}
	default:
		scopes = []pipeline.Scope{pipeline.ScopeWorkspace, pipeline.ScopeGlobal}
	}

	var out []pipeline.Meta
	for _, scope := range scopes {
		metas, err := t.f.Pipelines.List(ctx, scope)
		if err != nil {
			return nil, toolError(err)
		}
		for _, m := range metas {
			if tag != "" && !hasTag(m.Tags, tag) {
				continue
			}
			out = append(out, m)
		}
	}
	return map[string]any{"pipelines": out, "count": len(out)}, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
