package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/soochol/litsearch-mcp/internal/query"
	"github.com/soochol/litsearch-mcp/internal/sources"
)

type fakeSearcher struct {
	name    string
	records []sources.RawRecord
	err     error
}

func (f *fakeSearcher) Name() string { return f.name }

func (f *fakeSearcher) Search(ctx context.Context, q *query.NormalizedQuery, filt sources.Filters) (*sources.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &sources.SearchResult{Records: f.records, Total: len(f.records)}, nil
}

func newTestEngine(t *testing.T, adapters ...sources.Adapter) *Engine {
	t.Helper()
	reg := sources.NewRegistry()
	for _, a := range adapters {
		reg.Register(a)
	}
	return NewEngine(Deps{
		Registry: reg,
		Analyzer: query.NewAnalyzer(nil),
		Now:      func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
	})
}

func TestExecute_QuickSearchTemplate(t *testing.T) {
	pm := &fakeSearcher{name: "pubmed", records: []sources.RawRecord{
		{BiomedicalAccessionID: "111", Title: "Metformin and longevity", DateRaw: "2024"},
	}}
	epmc := &fakeSearcher{name: "europepmc", records: []sources.RawRecord{
		{BiomedicalAccessionID: "222", Title: "Rapamycin in aging models", DateRaw: "2023"},
	}}

	cfg, err := ResolveTemplate("quick_search", map[string]any{"topic": "metformin aging"})
	if err != nil {
		t.Fatalf("ResolveTemplate: %v", err)
	}

	e := newTestEngine(t, pm, epmc)
	out, err := e.Execute(context.Background(), cfg, "metformin aging")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Status != RunStatusOK {
		t.Fatalf("status = %v, want ok", out.Status)
	}
	if len(out.Articles) != 2 {
		t.Fatalf("len(articles) = %d, want 2", len(out.Articles))
	}
}

func TestExecute_SingleSourceSearchFailureIsFatal(t *testing.T) {
	cfg := &Config{
		Name: "broken",
		Steps: []Step{
			{ID: "search", Action: ActionSearch, Params: map[string]any{"sources": []string{"missing"}}},
		},
	}
	e := newTestEngine(t)
	_, err := e.Execute(context.Background(), cfg, "x")
	if err == nil {
		t.Fatal("expected fatal error for single-source search against an unregistered source")
	}
}

func TestExecute_PICOTemplateMergesFourSources(t *testing.T) {
	sourcesList := []*fakeSearcher{
		{name: "pubmed", records: []sources.RawRecord{{DOI: "10.1/a", Title: "A", DateRaw: "2020"}}},
		{name: "europepmc", records: []sources.RawRecord{{DOI: "10.1/a", Title: "A", DateRaw: "2020"}}},
		{name: "semanticscholar", records: []sources.RawRecord{{DOI: "10.1/b", Title: "B", DateRaw: "2021"}}},
		{name: "crossref", records: []sources.RawRecord{{DOI: "10.1/c", Title: "C", DateRaw: "2022"}}},
	}
	adapters := make([]sources.Adapter, len(sourcesList))
	for i, s := range sourcesList {
		adapters[i] = s
	}

	cfg, err := ResolveTemplate("pico", map[string]any{
		"clinical_question": "metformin vs placebo in older adults for mortality",
	})
	if err != nil {
		t.Fatalf("ResolveTemplate: %v", err)
	}

	e := newTestEngine(t, adapters...)
	out, err := e.Execute(context.Background(), cfg, "metformin vs placebo in older adults for mortality")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// 10.1/a is reported by two sources and should merge into one article.
	if len(out.Articles) != 3 {
		t.Fatalf("len(articles) = %d, want 3 after dedup", len(out.Articles))
	}
}

func TestExecute_FilterStepExcludesByYear(t *testing.T) {
	pm := &fakeSearcher{name: "pubmed", records: []sources.RawRecord{
		{BiomedicalAccessionID: "1", Title: "Old", DateRaw: "2010"},
		{BiomedicalAccessionID: "2", Title: "New", DateRaw: "2025"},
	}}
	cfg := &Config{
		Name: "filtered",
		Steps: []Step{
			{ID: "search", Action: ActionSearch, Params: map[string]any{"sources": []string{"pubmed"}}},
			{ID: "filter", Action: ActionFilter, Params: map[string]any{"predicate": "year >= 2020"}},
		},
	}
	e := newTestEngine(t, pm)
	out, err := e.Execute(context.Background(), cfg, "x")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out.Articles) != 1 || out.Articles[0].Title != "New" {
		t.Fatalf("unexpected filtered result: %+v", out.Articles)
	}
}
