package facade

import (
	"context"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/pipeline"
)

// LoadPipelineTool is load_pipeline: resolves a name/file/url reference
// and returns the canonical pipeline text plus its metadata, without
// running it.
type LoadPipelineTool struct{ f *Facade }

func (t *LoadPipelineTool) Name() string { return "load_pipeline" }

func (t *LoadPipelineTool) Description() string {
	return "Load a pipeline document by saved name, local path (file:...), or HTTPS URL (url:...) and return its canonical text."
}

func (t *LoadPipelineTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"source": map[string]any{"type": "string", "description": "name, saved:name, file:path, or url:https://..."},
			"scope":  map[string]any{"type": "string", "description": "workspace | global | auto (default auto); only used for name/saved: lookups"},
		},
		"required": []any{"source"},
	}
}

func (t *LoadPipelineTool) Execute(ctx context.Context, input any) (any, error) {
	args, err := asArgs(input)
	if err != nil {
		return nil, toolError(err)
	}
	source := argString(args, "source")
	if source == "" {
		return nil, toolError(litsearcherr.New(litsearcherr.InvalidInput, "source is required"))
	}

	var cfg *pipeline.Config
	var err2 error
	scopeArg := argString(args, "scope")
	if isSavedName(source) {
		name := strings.TrimPrefix(source, "saved:")
		cfg, _, _, err2 = t.f.getAutoScope(ctx, scopeArg, name)
	} else {
		cfg, err2 = t.f.Loader.Load(ctx, t.f.resolveScope(scopeArg), source)
	}
	if err2 != nil {
		return nil, toolError(err2)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, toolError(litsearcherr.Wrap(litsearcherr.Internal, "render canonical pipeline text", err))
	}

	return map[string]any{
		"text":       string(data),
		"name":       cfg.Name,
		"step_count": len(cfg.Steps),
		"template":   cfg.Template,
	}, nil
}

func isSavedName(source string) bool {
	return !strings.HasPrefix(source, "file:") && !strings.HasPrefix(source, "url:")
}
