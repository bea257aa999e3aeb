package pipeline

import (
	"fmt"
	"regexp"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
)

// templatePattern matches {{key}} placeholders in step params, the same
// convention the teacher's agent templates use for session-state
// substitution (internal/agents/builders.go's templatePattern).
var templatePattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// templateDef is one entry in the built-in, closed, versioned catalog.
type templateDef struct {
	name         string
	defaults     map[string]any
	buildSteps   func(params map[string]any) []Step
	defaultOut   OutputSpec
}

// Templates is the fixed catalog the resolver looks up by name.
var Templates = map[string]templateDef{
	"quick_search": {
		name:     "quick_search",
		defaults: map[string]any{"sources": []string{"pubmed", "europepmc"}, "limit": 20},
		buildSteps: func(p map[string]any) []Step {
			return []Step{
				{ID: "search", Action: ActionSearch, Params: map[string]any{
					"query": "{{topic}}", "sources": p["sources"],
				}},
				{ID: "rank", Action: ActionRank, Params: map[string]any{
					"strategy": "balanced", "limit": p["limit"],
				}},
			}
		},
		defaultOut: OutputSpec{Format: "structured", Limit: 20, Strategy: "balanced"},
	},
	"pico": {
		name:     "pico",
		defaults: map[string]any{"limit": 30},
		buildSteps: func(p map[string]any) []Step {
			return []Step{
				{ID: "search_pubmed", Action: ActionSearch, Params: map[string]any{
					"query": "{{clinical_question}}", "sources": []string{"pubmed"},
				}},
				{ID: "search_europepmc", Action: ActionSearch, Params: map[string]any{
					"query": "{{clinical_question}}", "sources": []string{"europepmc"},
				}},
				{ID: "search_semanticscholar", Action: ActionSearch, Params: map[string]any{
					"query": "{{clinical_question}}", "sources": []string{"semanticscholar"},
				}},
				{ID: "search_crossref", Action: ActionSearch, Params: map[string]any{
					"query": "{{clinical_question}}", "sources": []string{"crossref"},
				}},
				{ID: "merge", Action: ActionMerge, Params: map[string]any{},
					DependsOn: []string{"search_pubmed", "search_europepmc", "search_semanticscholar", "search_crossref"}},
				{ID: "rank", Action: ActionRank, Params: map[string]any{
					"strategy": "balanced", "limit": p["limit"],
				}},
			}
		},
		defaultOut: OutputSpec{Format: "structured", Limit: 30, Strategy: "balanced"},
	},
	"systematic_review": {
		name:     "systematic_review",
		defaults: map[string]any{"sources": []string{"pubmed", "pmc", "europepmc", "crossref"}, "limit": 200},
		buildSteps: func(p map[string]any) []Step {
			return []Step{
				{ID: "expand", Action: ActionExpand, Params: map[string]any{"query": "{{topic}}"}},
				{ID: "search", Action: ActionSearch, Params: map[string]any{
					"query": "{{topic}}", "sources": p["sources"], "page_size": 100,
				}, DependsOn: []string{"expand"}},
				{ID: "filter", Action: ActionFilter, Params: map[string]any{
					"predicate": "{{filter_predicate}}",
				}},
				{ID: "enrich", Action: ActionEnrich, Params: map[string]any{"source": "opencitations"}},
				{ID: "rank", Action: ActionRank, Params: map[string]any{
					"strategy": "quality", "limit": p["limit"],
				}},
			}
		},
		defaultOut: OutputSpec{Format: "tabular", Limit: 200, Strategy: "quality"},
	},
	"citation_chase": {
		name:     "citation_chase",
		defaults: map[string]any{"limit": 50},
		buildSteps: func(p map[string]any) []Step {
			return []Step{
				{ID: "fetch_references", Action: ActionFetchReferences, Params: map[string]any{"id": "{{seed_id}}"}},
				{ID: "fetch_citations", Action: ActionFetchCitations, Params: map[string]any{"id": "{{seed_id}}"}},
				{ID: "merge", Action: ActionMerge, Params: map[string]any{},
					DependsOn: []string{"fetch_references", "fetch_citations"}},
				{ID: "fetch_details", Action: ActionFetchDetails, Params: map[string]any{}},
				{ID: "rank", Action: ActionRank, Params: map[string]any{
					"strategy": "most-cited", "limit": p["limit"],
				}},
			}
		},
		defaultOut: OutputSpec{Format: "structured", Limit: 50, Strategy: "most-cited"},
	},
}

// QueryHint recovers the free-text query a pipeline was authored
// against, used to drive the query analyzer's classification for
// ranking when no query was supplied directly (e.g. by the scheduler,
// or by a saved/inline pipeline run through the tool facade). It reads
// the first search step's query param.
func QueryHint(cfg *Config) string {
	for _, st := range cfg.Steps {
		if st.Action == ActionSearch {
			if q, ok := st.Params["query"].(string); ok {
				return q
			}
		}
	}
	return ""
}

// Resolve expands cfg's template reference (if any) into concrete steps,
// leaving an explicit-steps Config untouched. The facade calls this once,
// after Parse and before Execute, since the engine itself only ever runs
// a fully expanded step list.
func Resolve(cfg *Config) (*Config, error) {
	if cfg.Template == "" {
		return cfg, nil
	}
	if len(cfg.Steps) > 0 {
		return nil, litsearcherr.New(litsearcherr.InvalidInput, "pipeline may set either template or steps, not both")
	}
	expanded, err := ResolveTemplate(cfg.Template, cfg.TemplateParams)
	if err != nil {
		return nil, err
	}
	if cfg.Name != "" {
		expanded.Name = cfg.Name
	}
	if cfg.Description != "" {
		expanded.Description = cfg.Description
	}
	if len(cfg.Tags) > 0 {
		expanded.Tags = cfg.Tags
	}
	if cfg.Output != (OutputSpec{}) {
		expanded.Output = cfg.Output
	}
	expanded.Schedule = cfg.Schedule
	return expanded, nil
}

// ResolveTemplate looks up a catalog template by name, merges caller
// params over its defaults, substitutes {{param}} placeholders, and
// returns a fully expanded Config. Every referenced parameter must be
// supplied or carry a default; anything else is invalid-pipeline.
func ResolveTemplate(name string, params map[string]any) (*Config, error) {
	def, ok := Templates[name]
	if !ok {
		return nil, litsearcherr.New(litsearcherr.InvalidInput, "unknown pipeline template: "+name)
	}

	merged := make(map[string]any, len(def.defaults)+len(params))
	for k, v := range def.defaults {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}

	steps := def.buildSteps(merged)
	for i := range steps {
		resolved, err := substituteParams(steps[i].Params, merged)
		if err != nil {
			return nil, err
		}
		steps[i].Params = resolved
	}

	return &Config{
		Name:     name,
		Template: name,
		Steps:    steps,
		Output:   def.defaultOut,
	}, nil
}

func substituteParams(params map[string]any, vars map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for k, v := range params {
		resolved, err := substituteValue(v, vars)
		if err != nil {
			return nil, err
		}
		out[k] = resolved
	}
	return out, nil
}

func substituteValue(v any, vars map[string]any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	var missing string
	result := templatePattern.ReplaceAllStringFunc(s, func(match string) string {
		key := templatePattern.FindStringSubmatch(match)[1]
		val, ok := vars[key]
		if !ok {
			missing = key
			return match
		}
		return fmt.Sprintf("%v", val)
	})
	if missing != "" {
		return nil, litsearcherr.New(litsearcherr.InvalidInput, "missing required template parameter: "+missing)
	}
	return result, nil
}
