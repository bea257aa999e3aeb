package pipeline

import (
	"context"
	"sync"

	"github.com/expr-lang/expr"

	"github.com/soochol/litsearch-mcp/internal/article"
	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/normalizer"
	"github.com/soochol/litsearch-mcp/internal/sources"
)

// runFilter evaluates a boolean predicate expression per article, the same
// expr-lang condition evaluator the teacher uses for branch steps, keyed
// here against article fields instead of session state.
func runFilter(step Step, inputs []StepResult) (StepResult, error) {
	predicate, _ := step.Params["predicate"].(string)
	if predicate == "" {
		return StepResult{Articles: inputArticles(inputs)}, nil
	}

	program, err := expr.Compile(predicate, expr.AllowUndefinedVariables())
	if err != nil {
		return StepResult{}, litsearcherr.Wrap(litsearcherr.InvalidInput, "invalid filter predicate", err)
	}

	var kept []article.UnifiedArticle
	for _, a := range inputArticles(inputs) {
		env := filterEnv(a)
		result, err := expr.Run(program, env)
		if err != nil {
			continue // a predicate that fails for one article excludes it, not the whole step
		}
		if isTruthy(result) {
			kept = append(kept, a)
		}
	}
	return StepResult{Articles: kept}, nil
}

func filterEnv(a article.UnifiedArticle) map[string]any {
	year := 0
	if !a.PublicationDate.Unknown() {
		year = a.PublicationDate.Year
	}
	citations := 0
	if a.Metrics.CitationCount != nil {
		citations = *a.Metrics.CitationCount
	}
	pubTypes := make([]string, 0, len(a.PublicationTypes))
	for _, pt := range a.PublicationTypes {
		pubTypes = append(pubTypes, string(pt))
	}
	return map[string]any{
		"title":             a.Title,
		"journal":           a.Journal,
		"language":          a.Language,
		"year":              year,
		"citation_count":    citations,
		"is_open_access":    a.HasOpenAccessLink(),
		"publication_types": pubTypes,
		"descriptor_count":  len(a.Descriptors),
		"source_count":      len(a.Provenance),
	}
}

func isTruthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}

// runEnrich fetches supplementary data for every article from a single
// named source — typically citation counts from OpenCitations for a
// systematic-review pipeline that already has a merged batch — and folds
// it in via WithEnrichment.
func (e *Engine) runEnrich(ctx context.Context, step Step, inputs []StepResult) (StepResult, error) {
	sourceName, _ := step.Params["source"].(string)
	if sourceName == "" {
		sourceName = "opencitations"
	}
	adapter, ok := e.deps.Registry.Get(sourceName)
	if !ok {
		return StepResult{}, litsearcherr.New(litsearcherr.InvalidInput, "unknown enrichment source: "+sourceName)
	}
	fetcher, ok := adapter.(sources.Fetcher)
	if !ok {
		return StepResult{}, litsearcherr.New(litsearcherr.InvalidInput, sourceName+" does not support single-record fetch")
	}

	batch := inputArticles(inputs)
	now := e.deps.Now()

	var mu sync.Mutex
	var wg sync.WaitGroup
	out := make([]article.UnifiedArticle, len(batch))
	copy(out, batch)

	for i, a := range batch {
		id := enrichmentKey(a)
		if id == "" {
			continue
		}
		i, id := i, id
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := fetcher.FetchOne(ctx, id)
			if err != nil {
				return
			}
			enriched := normalizer.Normalize(sourceName, *rec, now)
			mu.Lock()
			out[i] = out[i].WithEnrichment(sourceName, enriched.Provenance[sourceName], enriched.Metrics, nil)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return StepResult{Articles: out}, nil
}

func enrichmentKey(a article.UnifiedArticle) string {
	if a.Identifiers.DOI != "" {
		return a.Identifiers.DOI
	}
	return a.PrimaryID()
}

// runFetchDetails resolves the id list carried by the prior step (e.g. a
// citation-chase merge of references and citations) into full article
// records from one source.
func (e *Engine) runFetchDetails(ctx context.Context, step Step, inputs []StepResult) (StepResult, error) {
	sourceName, _ := step.Params["source"].(string)
	if sourceName == "" {
		sourceName = "semanticscholar"
	}
	adapter, ok := e.deps.Registry.Get(sourceName)
	if !ok {
		return StepResult{}, litsearcherr.New(litsearcherr.InvalidInput, "unknown detail source: "+sourceName)
	}
	fetcher, ok := adapter.(sources.Fetcher)
	if !ok {
		return StepResult{}, litsearcherr.New(litsearcherr.InvalidInput, sourceName+" does not support single-record fetch")
	}

	var ids []string
	for _, in := range inputs {
		ids = append(ids, in.IDs...)
	}

	now := e.deps.Now()
	var mu sync.Mutex
	var wg sync.WaitGroup
	var articles []article.UnifiedArticle

	for _, id := range ids {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := fetcher.FetchOne(ctx, id)
			if err != nil {
				return
			}
			a := normalizer.Normalize(sourceName, *rec, now)
			mu.Lock()
			articles = append(articles, a)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return StepResult{Articles: articles}, nil
}

// runFetchGraph lists the ids a seed work cites (references) or is cited
// by (citations). The result carries IDs, not Articles — a later
// fetch-details step resolves them.
func (e *Engine) runFetchGraph(ctx context.Context, step Step, citations bool) (StepResult, error) {
	sourceName, _ := step.Params["source"].(string)
	if sourceName == "" {
		sourceName = "semanticscholar"
	}
	seedID, _ := step.Params["id"].(string)
	if seedID == "" {
		return StepResult{}, litsearcherr.New(litsearcherr.InvalidInput, "fetch-references/fetch-citations step requires an id")
	}

	adapter, ok := e.deps.Registry.Get(sourceName)
	if !ok {
		return StepResult{}, litsearcherr.New(litsearcherr.InvalidInput, "unknown graph source: "+sourceName)
	}

	var ids []string
	var err error
	if citations {
		fetcher, ok := adapter.(sources.CitationFetcher)
		if !ok {
			return StepResult{}, litsearcherr.New(litsearcherr.InvalidInput, sourceName+" does not support citation lookup")
		}
		ids, err = fetcher.FetchCitations(ctx, seedID)
	} else {
		fetcher, ok := adapter.(sources.ReferenceFetcher)
		if !ok {
			return StepResult{}, litsearcherr.New(litsearcherr.InvalidInput, sourceName+" does not support reference lookup")
		}
		ids, err = fetcher.FetchReferences(ctx, seedID)
	}
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{IDs: ids}, nil
}

// pdfFallbackFetcher resolves an id's best open-access PDF link and
// extracts its text, used when the requested source has no structured
// fulltext API of its own (unpaywall is the only adapter that implements
// this today).
type pdfFallbackFetcher interface {
	FetchPDFText(ctx context.Context, id string) (string, error)
}

// runFetchFulltext retrieves full text for the single id given in the
// step's params from the named source (pmc by default) and returns it as
// the step's Scalar result. When the named source exposes no structured
// fulltext API, or reports the id as not found, it falls back to
// extracting text from the best open-access PDF link unpaywall can
// resolve for the same id.
func (e *Engine) runFetchFulltext(ctx context.Context, step Step) (StepResult, error) {
	sourceName, _ := step.Params["source"].(string)
	if sourceName == "" {
		sourceName = "pmc"
	}
	id, _ := step.Params["id"].(string)
	if id == "" {
		return StepResult{}, litsearcherr.New(litsearcherr.InvalidInput, "fetch-fulltext step requires an id")
	}

	adapter, ok := e.deps.Registry.Get(sourceName)
	if !ok {
		return StepResult{}, litsearcherr.New(litsearcherr.InvalidInput, "unknown fulltext source: "+sourceName)
	}

	fetcher, ok := adapter.(sources.FulltextFetcher)
	if !ok {
		return e.fetchFulltextViaPDF(ctx, id)
	}

	sections := stringListParam(step.Params, "sections")
	text, err := fetcher.FetchFulltext(ctx, id, sections)
	if err != nil {
		if litsearcherr.KindOf(err) == litsearcherr.NotFound {
			return e.fetchFulltextViaPDF(ctx, id)
		}
		return StepResult{}, err
	}
	return StepResult{Scalar: text}, nil
}

func (e *Engine) fetchFulltextViaPDF(ctx context.Context, id string) (StepResult, error) {
	adapter, ok := e.deps.Registry.Get("unpaywall")
	if !ok {
		return StepResult{}, litsearcherr.New(litsearcherr.InvalidInput, "no fulltext source available and unpaywall is not registered")
	}
	fallback, ok := adapter.(pdfFallbackFetcher)
	if !ok {
		return StepResult{}, litsearcherr.New(litsearcherr.InvalidInput, "unpaywall adapter does not support pdf text extraction")
	}
	text, err := fallback.FetchPDFText(ctx, id)
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{Scalar: text}, nil
}
