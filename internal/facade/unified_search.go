package facade

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/pipeline"
)

// UnifiedSearchTool is unified_search: the combined simple-query /
// inline-pipeline / saved-pipeline-reference search surface (§6, §4.10).
type UnifiedSearchTool struct{ f *Facade }

func (t *UnifiedSearchTool) Name() string { return "unified_search" }

func (t *UnifiedSearchTool) Description() string {
	return "Run a literature search: a free-text query (simple path), an inline pipeline document (advanced path), or a reference to a saved pipeline (saved:name, file:path, url:https://...). Exactly one of query or pipeline must be given."
}

func (t *UnifiedSearchTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Free-text topic, structured query, or clinical PICO question",
			},
			"pipeline": map[string]any{
				"type":        "string",
				"description": "Inline pipeline document (YAML or braces form), or a reference: saved:<name>, file:<path>, url:<https-url>",
			},
			"scope": map[string]any{
				"type":        "string",
				"description": "workspace | global | auto (default auto); only consulted for saved:/bare-name pipeline references",
			},
			"session_id": map[string]any{
				"type":        "string",
				"description": "Session id to record this result set under; a new one is minted if omitted",
			},
			"output_format": map[string]any{
				"type":        "string",
				"description": "structured | tabular | xlsx (default structured)",
			},
			"output_limit": map[string]any{
				"type":        "number",
				"description": "Maximum number of ranked articles to return",
			},
			"output_strategy": map[string]any{
				"type":        "string",
				"description": "Ranker strategy: balanced | relevance | recent | most-cited | quality | impact",
			},
		},
	}
}

func (t *UnifiedSearchTool) Execute(ctx context.Context, input any) (any, error) {
	args, err := asArgs(input)
	if err != nil {
		return nil, toolError(err)
	}

	query := argString(args, "query")
	pipelineText := argString(args, "pipeline")
	if (query == "") == (pipelineText == "") {
		return nil, toolError(litsearcherr.New(litsearcherr.InvalidInput, "exactly one of query or pipeline must be provided"))
	}

	cfg, err := t.resolveConfig(ctx, args, query, pipelineText)
	if err != nil {
		return nil, toolError(err)
	}

	if v := argString(args, "output_format"); v != "" {
		cfg.Output.Format = v
	}
	if _, ok := args["output_limit"]; ok {
		cfg.Output.Limit = argInt(args, "output_limit", cfg.Output.Limit)
	}
	if v := argString(args, "output_strategy"); v != "" {
		cfg.Output.Strategy = v
	}
	for i := range cfg.Steps {
		if cfg.Steps[i].Action != pipeline.ActionRank {
			continue
		}
		if cfg.Steps[i].Params == nil {
			cfg.Steps[i].Params = map[string]any{}
		}
		if _, ok := args["output_limit"]; ok {
			cfg.Steps[i].Params["limit"] = cfg.Output.Limit
		}
		if v := argString(args, "output_strategy"); v != "" {
			cfg.Steps[i].Params["strategy"] = v
		}
	}

	initialQuery := query
	if initialQuery == "" {
		initialQuery = pipeline.QueryHint(cfg)
	}

	outcome, execErr := t.f.Engine.Execute(ctx, cfg, initialQuery)
	if execErr != nil {
		// A fatal step failure becomes the pipeline's result per the
		// error-handling design: surface it as a single error kind rather
		// than a partial success, even though outcome still carries the
		// per-step detail for diagnostics.
		return nil, toolError(execErr)
	}

	sessionID := argString(args, "session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	origin := query
	if origin == "" {
		origin = cfg.Name
	}
	t.f.Sessions.AddResultSet(sessionID, origin, outcome.Articles)

	formatter, err := resolveOutput(cfg.Output.Format)
	if err != nil {
		return nil, toolError(err)
	}
	body, mime, err := formatter.Format(outcome.Articles)
	if err != nil {
		return nil, toolError(err)
	}

	return map[string]any{
		"status":         string(outcome.Status),
		"session_id":     sessionID,
		"article_count":  len(outcome.Articles),
		"step_errors":    outcome.StepErrors,
		"output_format":  mimeToFormat(mime, cfg.Output.Format),
		"output_mime":    mime,
		"output_body":    string(body),
	}, nil
}

// resolveConfig builds the executable Config for either the simple
// query path (quick_search template) or the pipeline path (inline text
// or a saved/file/url reference), expanding any template reference.
func (t *UnifiedSearchTool) resolveConfig(ctx context.Context, args map[string]any, query, pipelineText string) (*pipeline.Config, error) {
	if query != "" {
		return pipeline.ResolveTemplate("quick_search", map[string]any{"topic": query})
	}

	if isPipelineReference(pipelineText) {
		scope := t.f.resolveScope(argString(args, "scope"))
		cfg, err := t.f.Loader.Load(ctx, scope, pipelineText)
		if err != nil {
			return nil, err
		}
		return pipeline.Resolve(cfg)
	}

	cfg, err := pipeline.Parse(pipelineText)
	if err != nil {
		return nil, err
	}
	return pipeline.Resolve(cfg)
}

func isPipelineReference(s string) bool {
	return strings.HasPrefix(s, "saved:") || strings.HasPrefix(s, "file:") || strings.HasPrefix(s, "url:")
}

func mimeToFormat(mime, requested string) string {
	if requested != "" {
		return requested
	}
	switch mime {
	case "text/plain":
		return "tabular"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return "xlsx"
	default:
		return "structured"
	}
}
