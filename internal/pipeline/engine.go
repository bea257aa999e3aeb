package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/soochol/litsearch-mcp/internal/article"
	"github.com/soochol/litsearch-mcp/internal/dedup"
	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/normalizer"
	"github.com/soochol/litsearch-mcp/internal/query"
	"github.com/soochol/litsearch-mcp/internal/ranker"
	"github.com/soochol/litsearch-mcp/internal/sources"
)

const (
	defaultSearchDeadline   = 30 * time.Second
	defaultFulltextDeadline = 60 * time.Second
)

// Deps is everything a step handler needs, wired once at process start and
// shared read-only across runs — mirroring the teacher Runner's
// (eventBus, sessions) pair of shared collaborators.
type Deps struct {
	Registry *sources.Registry
	Analyzer *query.Analyzer
	Now      func() time.Time
}

// Engine executes a validated Config against a set of adapters.
type Engine struct {
	deps Deps
}

func NewEngine(deps Deps) *Engine {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Engine{deps: deps}
}

// Outcome is everything the caller needs to build a Run record.
type Outcome struct {
	Status     RunStatus
	Articles   []article.UnifiedArticle
	StepErrors map[string]string
	Query      *query.NormalizedQuery
}

// Execute runs cfg to completion or fatal failure. Step deadlines are
// inherited from ctx; Execute does not itself impose an overall pipeline
// deadline, the caller is expected to have set one on ctx.
func (e *Engine) Execute(ctx context.Context, cfg *Config, initialQuery string) (*Outcome, error) {
	d, err := buildDAG(cfg.Steps)
	if err != nil {
		return nil, err
	}

	nq := e.deps.Analyzer.Analyze(initialQuery)

	results := make(map[string]StepResult, len(cfg.Steps))
	var resultsMu sync.Mutex
	stepErrors := make(map[string]string)
	var errMu sync.Mutex

	singleSourceSearch := isSingleSourceSearch(cfg.Steps)

	for _, level := range d.Levels() {
		var wg sync.WaitGroup
		for _, stepID := range level {
			stepID := stepID
			wg.Add(1)
			go func() {
				defer wg.Done()

				step := d.Step(stepID)
				inputs := gatherInputs(d.Parents(stepID), &resultsMu, results)

				stepCtx, cancel := context.WithTimeout(ctx, stepDeadline(step.Action))
				defer cancel()

				res, err := e.runStep(stepCtx, step, inputs, nq)

				resultsMu.Lock()
				results[stepID] = res
				resultsMu.Unlock()

				if err != nil {
					errMu.Lock()
					stepErrors[stepID] = err.Error()
					errMu.Unlock()
				}
			}()
		}
		wg.Wait()

		// Re-check fatality after each level completes: a level-local
		// failure might already be fatal, so there is no reason to pay
		// for further levels.
		for _, stepID := range level {
			if errMsg, failed := stepErrors[stepID]; failed {
				step := d.Step(stepID)
				if isFatal(step, results[stepID], singleSourceSearch) {
					return &Outcome{
						Status:     RunStatusFailure,
						Articles:   finalArticles(d, results),
						StepErrors: stepErrors,
						Query:      nq,
					}, litsearcherr.New(litsearcherr.Internal, "pipeline step "+stepID+" failed fatally: "+errMsg)
				}
			}
		}
	}

	status := RunStatusOK
	if len(stepErrors) > 0 {
		status = RunStatusPartial
	}

	return &Outcome{
		Status:     status,
		Articles:   finalArticles(d, results),
		StepErrors: stepErrors,
		Query:      nq,
	}, nil
}

// finalArticles returns the articles produced by the last topological
// level's steps — the pipeline's terminal output.
func finalArticles(d *dag, results map[string]StepResult) []article.UnifiedArticle {
	levels := d.Levels()
	if len(levels) == 0 {
		return nil
	}
	last := levels[len(levels)-1]
	var out []article.UnifiedArticle
	for _, id := range last {
		out = append(out, results[id].Articles...)
	}
	return out
}

func gatherInputs(parents []string, mu *sync.Mutex, results map[string]StepResult) []StepResult {
	mu.Lock()
	defer mu.Unlock()
	out := make([]StepResult, 0, len(parents))
	for _, p := range parents {
		out = append(out, results[p])
	}
	return out
}

func stepDeadline(action Action) time.Duration {
	switch action {
	case ActionFetchFulltext:
		return defaultFulltextDeadline
	case ActionSearch:
		return defaultSearchDeadline
	default:
		return defaultSearchDeadline
	}
}

// isFatal implements the classification rule: merge/rank whose inputs are
// all missing, or the single search step of a one-source pipeline. merge
// and rank only ever fail when every input step's result was empty (see
// runMerge/runRank), so res.Empty() is the actual fatal condition rather
// than a blanket failure — a future step that can fail while still
// carrying partial articles would not be wrongly treated as fatal here.
func isFatal(step Step, res StepResult, singleSourceSearch bool) bool {
	switch step.Action {
	case ActionMerge, ActionRank:
		return res.Empty()
	case ActionSearch:
		return singleSourceSearch
	default:
		return false
	}
}

func isSingleSourceSearch(steps []Step) bool {
	searchCount := 0
	var sourceCount int
	for _, s := range steps {
		if s.Action == ActionSearch {
			searchCount++
			if srcs, ok := s.Params["sources"].([]string); ok {
				sourceCount = len(srcs)
			} else if srcs, ok := s.Params["sources"].([]any); ok {
				sourceCount = len(srcs)
			}
		}
	}
	return searchCount == 1 && sourceCount <= 1
}

func (e *Engine) runStep(ctx context.Context, step Step, inputs []StepResult, nq *query.NormalizedQuery) (StepResult, error) {
	switch step.Action {
	case ActionSearch:
		return e.runSearch(ctx, step, nq)
	case ActionExpand:
		return StepResult{}, nil // vocabulary expansion already folded into Analyze
	case ActionMerge:
		return runMerge(inputs)
	case ActionFilter:
		return runFilter(step, inputs)
	case ActionRank:
		return e.runRank(step, inputs, nq)
	case ActionEnrich:
		return e.runEnrich(ctx, step, inputs)
	case ActionFetchDetails:
		return e.runFetchDetails(ctx, step, inputs)
	case ActionFetchCitations:
		return e.runFetchGraph(ctx, step, true)
	case ActionFetchReferences:
		return e.runFetchGraph(ctx, step, false)
	case ActionFetchFulltext:
		return e.runFetchFulltext(ctx, step)
	default:
		return StepResult{}, litsearcherr.New(litsearcherr.InvalidInput, "unknown step action: "+string(step.Action))
	}
}

func (e *Engine) runSearch(ctx context.Context, step Step, nq *query.NormalizedQuery) (StepResult, error) {
	names := stringListParam(step.Params, "sources")
	searchers := e.deps.Registry.Searchers(names)
	if len(searchers) == 0 {
		return StepResult{}, litsearcherr.New(litsearcherr.InvalidInput, "no searchable sources configured for step "+step.ID)
	}

	pageSize := 20
	if v, ok := step.Params["page_size"].(int); ok && v > 0 {
		pageSize = v
	}

	var mu sync.Mutex
	var articles []article.UnifiedArticle
	var firstErr error
	var wg sync.WaitGroup
	now := e.deps.Now()

	for name, searcher := range searchers {
		name, searcher := name, searcher
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := searcher.Search(ctx, nq, sources.Filters{PageSize: pageSize})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			for _, rec := range res.Records {
				articles = append(articles, normalizer.Normalize(name, rec, now))
			}
		}()
	}
	wg.Wait()

	if len(articles) == 0 && firstErr != nil {
		return StepResult{}, firstErr
	}
	return StepResult{Articles: articles}, nil
}

// allInputsEmpty reports whether every parent step produced nothing —
// the condition under which merge/rank have no work to do and should
// fail rather than silently produce an empty result.
func allInputsEmpty(inputs []StepResult) bool {
	if len(inputs) == 0 {
		return false
	}
	for _, in := range inputs {
		if !in.Empty() {
			return false
		}
	}
	return true
}

func runMerge(inputs []StepResult) (StepResult, error) {
	if allInputsEmpty(inputs) {
		return StepResult{}, litsearcherr.New(litsearcherr.Upstream, "merge: all input steps failed or returned no results")
	}
	var ids []string
	seen := make(map[string]bool)
	for _, in := range inputs {
		for _, id := range in.IDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return StepResult{Articles: dedup.Merge(inputArticles(inputs)), IDs: ids}, nil
}

func (e *Engine) runRank(step Step, inputs []StepResult, nq *query.NormalizedQuery) (StepResult, error) {
	if allInputsEmpty(inputs) {
		return StepResult{}, litsearcherr.New(litsearcherr.Upstream, "rank: all input steps failed or returned no results")
	}

	strategy := ranker.StrategyBalanced
	if v, ok := step.Params["strategy"].(string); ok && v != "" {
		strategy = ranker.Strategy(v)
	}
	limit := 0
	if v, ok := step.Params["limit"].(int); ok {
		limit = v
	}

	var batch []article.UnifiedArticle
	for _, in := range inputs {
		batch = append(batch, in.Articles...)
	}
	if len(batch) == 0 && len(inputs) == 1 {
		batch = inputs[0].Articles
	}

	scored := ranker.Rank(batch, nq, strategy, limit, e.deps.Now().Year())
	out := make([]article.UnifiedArticle, 0, len(scored))
	for _, s := range scored {
		out = append(out, s.Article)
	}
	return StepResult{Articles: out}, nil
}

func stringListParam(params map[string]any, key string) []string {
	switch v := params[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func inputArticles(inputs []StepResult) []article.UnifiedArticle {
	var out []article.UnifiedArticle
	for _, in := range inputs {
		out = append(out, in.Articles...)
	}
	return out
}
