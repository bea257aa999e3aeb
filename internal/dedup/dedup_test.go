package dedup

import (
	"testing"

	"github.com/soochol/litsearch-mcp/internal/article"
	"github.com/soochol/litsearch-mcp/internal/normalize"
)

func TestMerge_ByPMID(t *testing.T) {
	a := article.UnifiedArticle{
		Identifiers: article.Identifiers{BiomedicalAccessionID: "111"},
		Title:       "Study A",
		Provenance:  map[string]article.Provenance{"pubmed": {SourceLocalID: "111"}},
	}
	b := article.UnifiedArticle{
		Identifiers: article.Identifiers{BiomedicalAccessionID: "111", DOI: "10.1/x"},
		Abstract:    "abstract from second source",
		Provenance:  map[string]article.Provenance{"semanticscholar": {SourceLocalID: "abc"}},
	}

	out := Merge([]article.UnifiedArticle{a, b})
	if len(out) != 1 {
		t.Fatalf("expected 1 merged article, got %d", len(out))
	}
	merged := out[0]
	if merged.Title != "Study A" {
		t.Errorf("Title = %q, want kept from first source", merged.Title)
	}
	if merged.Identifiers.DOI != "10.1/x" {
		t.Errorf("DOI not unioned: %+v", merged.Identifiers)
	}
	if merged.Abstract != "abstract from second source" {
		t.Errorf("Abstract not filled from second source: %q", merged.Abstract)
	}
	if len(merged.Provenance) != 2 {
		t.Errorf("expected provenance count 2 (sum of inputs), got %d", len(merged.Provenance))
	}
}

func TestMerge_DistinctArticlesStaySeparate(t *testing.T) {
	a := article.UnifiedArticle{
		Identifiers: article.Identifiers{BiomedicalAccessionID: "111"},
		Provenance:  map[string]article.Provenance{"pubmed": {}},
	}
	b := article.UnifiedArticle{
		Identifiers: article.Identifiers{BiomedicalAccessionID: "222"},
		Provenance:  map[string]article.Provenance{"pubmed": {}},
	}
	out := Merge([]article.UnifiedArticle{a, b})
	if len(out) != 2 {
		t.Fatalf("expected 2 distinct articles, got %d", len(out))
	}
}

func TestMerge_TitleAuthorYearFallback(t *testing.T) {
	a := article.UnifiedArticle{
		Title:           "A Great Study, Indeed!",
		Authors:         []article.Author{{Name: "Jane Doe"}},
		PublicationDate: normalize.ParseDate("2020"),
		Provenance:      map[string]article.Provenance{"crossref": {}},
	}
	b := article.UnifiedArticle{
		Title:           "a great study indeed",
		Authors:         []article.Author{{Name: "J. Doe"}, {Name: "Sam Lee"}},
		PublicationDate: normalize.ParseDate("2020"),
		Provenance:      map[string]article.Provenance{"opencitations": {}},
	}
	out := Merge([]article.UnifiedArticle{a, b})
	if len(out) != 1 {
		t.Fatalf("expected title+author+year fallback to merge, got %d groups", len(out))
	}
	if len(out[0].Authors) != 2 {
		t.Errorf("expected 2 unioned authors (Doe merges, Lee adds), got %d: %+v", len(out[0].Authors), out[0].Authors)
	}
}

func TestMerge_CitationCountTakesMax(t *testing.T) {
	c1, c2 := 10, 40
	a := article.UnifiedArticle{
		Identifiers: article.Identifiers{DOI: "10.1/y"},
		Metrics:     article.Metrics{CitationCount: &c1},
		Provenance:  map[string]article.Provenance{"crossref": {}},
	}
	b := article.UnifiedArticle{
		Identifiers: article.Identifiers{DOI: "10.1/y"},
		Metrics:     article.Metrics{CitationCount: &c2},
		Provenance:  map[string]article.Provenance{"semanticscholar": {}},
	}
	out := Merge([]article.UnifiedArticle{a, b})
	if out[0].Metrics.CitationCount == nil || *out[0].Metrics.CitationCount != 40 {
		t.Errorf("expected max citation count 40, got %+v", out[0].Metrics.CitationCount)
	}
}

func TestMerge_TransitiveClosure(t *testing.T) {
	// a links to b via DOI, b links to c via PMID; all three must merge.
	a := article.UnifiedArticle{
		Identifiers: article.Identifiers{DOI: "10.1/z"},
		Provenance:  map[string]article.Provenance{"crossref": {}},
	}
	b := article.UnifiedArticle{
		Identifiers: article.Identifiers{DOI: "10.1/z", BiomedicalAccessionID: "999"},
		Provenance:  map[string]article.Provenance{"pubmed": {}},
	}
	c := article.UnifiedArticle{
		Identifiers: article.Identifiers{BiomedicalAccessionID: "999"},
		Provenance:  map[string]article.Provenance{"europepmc": {}},
	}
	out := Merge([]article.UnifiedArticle{a, b, c})
	if len(out) != 1 {
		t.Fatalf("expected transitive merge into 1 group, got %d", len(out))
	}
	if len(out[0].Provenance) != 3 {
		t.Errorf("expected 3 provenance entries, got %d", len(out[0].Provenance))
	}
}
