package ranker

import (
	"testing"

	"github.com/soochol/litsearch-mcp/internal/article"
	"github.com/soochol/litsearch-mcp/internal/normalize"
	"github.com/soochol/litsearch-mcp/internal/query"
)

func TestRank_MostCitedStrategyOrdersByCitations(t *testing.T) {
	low, high := 2, 500
	a := article.UnifiedArticle{
		Identifiers: article.Identifiers{DOI: "10.1/a"},
		Title:       "Study A",
		Metrics:     article.Metrics{CitationCount: &low},
	}
	b := article.UnifiedArticle{
		Identifiers: article.Identifiers{DOI: "10.1/b"},
		Title:       "Study B",
		Metrics:     article.Metrics{CitationCount: &high},
	}

	scored := Rank([]article.UnifiedArticle{a, b}, &query.NormalizedQuery{Class: query.ClassSimpleTopic}, StrategyMostCited, 0, 2026)
	if len(scored) != 2 {
		t.Fatalf("expected 2 scored, got %d", len(scored))
	}
	if scored[0].Article.Identifiers.DOI != "10.1/b" {
		t.Errorf("expected higher-cited article first, got %+v", scored[0].Article.Identifiers)
	}
}

func TestRank_RelevanceFallsBackToTokenOverlap(t *testing.T) {
	a := article.UnifiedArticle{Identifiers: article.Identifiers{DOI: "10.1/match"}, Title: "diabetes treatment outcomes"}
	b := article.UnifiedArticle{Identifiers: article.Identifiers{DOI: "10.1/nomatch"}, Title: "unrelated topic entirely"}

	q := &query.NormalizedQuery{Class: query.ClassSimpleTopic, FreeText: "diabetes treatment"}
	scored := Rank([]article.UnifiedArticle{a, b}, q, StrategyRelevance, 0, 2026)
	if scored[0].Article.Identifiers.DOI != "10.1/match" {
		t.Errorf("expected matching-title article ranked first, got %+v", scored[0].Article.Identifiers)
	}
}

func TestRank_RecencyDecaysWithAge(t *testing.T) {
	recent := article.UnifiedArticle{Identifiers: article.Identifiers{DOI: "10.1/new"}, PublicationDate: normalize.ParseDate("2025")}
	old := article.UnifiedArticle{Identifiers: article.Identifiers{DOI: "10.1/old"}, PublicationDate: normalize.ParseDate("1990")}

	scored := Rank([]article.UnifiedArticle{old, recent}, &query.NormalizedQuery{Class: query.ClassSimpleTopic}, StrategyRecent, 0, 2026)
	if scored[0].Article.Identifiers.DOI != "10.1/new" {
		t.Errorf("expected recent article ranked first, got %+v", scored[0].Article.Identifiers)
	}
}

func TestRank_UnknownDateScoresZeroRecency(t *testing.T) {
	a := article.UnifiedArticle{Identifiers: article.Identifiers{DOI: "10.1/x"}}
	if got := recencyScore(a, 2026); got != 0 {
		t.Errorf("recencyScore with unknown date = %v, want 0", got)
	}
}

func TestRank_TieBreaksByPrimaryID(t *testing.T) {
	a := article.UnifiedArticle{Identifiers: article.Identifiers{DOI: "10.1/bbb"}}
	b := article.UnifiedArticle{Identifiers: article.Identifiers{DOI: "10.1/aaa"}}
	scored := Rank([]article.UnifiedArticle{a, b}, nil, StrategyBalanced, 0, 2026)
	if scored[0].Article.Identifiers.DOI != "10.1/aaa" {
		t.Errorf("expected stable tie-break by PrimaryID, got %+v first", scored[0].Article.Identifiers)
	}
}

func TestRank_LimitTruncates(t *testing.T) {
	batch := []article.UnifiedArticle{
		{Identifiers: article.Identifiers{DOI: "10.1/1"}},
		{Identifiers: article.Identifiers{DOI: "10.1/2"}},
		{Identifiers: article.Identifiers{DOI: "10.1/3"}},
	}
	scored := Rank(batch, nil, StrategyBalanced, 2, 2026)
	if len(scored) != 2 {
		t.Errorf("expected limit to truncate to 2, got %d", len(scored))
	}
}
