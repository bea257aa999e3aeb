package sessioncache

import (
	"testing"
	"time"

	"github.com/soochol/litsearch-mcp/internal/article"
)

func TestAddResultSet_AndResolveLast(t *testing.T) {
	c := New(WithMaxResultSets(2), WithMaxDetails(10))
	articles := []article.UnifiedArticle{
		{Identifiers: article.Identifiers{DOI: "10.1/a"}},
		{Identifiers: article.Identifiers{DOI: "10.1/b"}},
	}
	c.AddResultSet("sess1", "topic search", articles)

	resolved := c.ResolveIDs("sess1", []string{"last"})
	if len(resolved) != 2 {
		t.Fatalf("expected 2 resolved ids, got %d: %v", len(resolved), resolved)
	}
}

func TestResolveIDs_PassesThroughNonLastTokens(t *testing.T) {
	c := New()
	resolved := c.ResolveIDs("sess1", []string{"doi:10.1/x", "pmid:123"})
	if len(resolved) != 2 || resolved[0] != "doi:10.1/x" {
		t.Errorf("expected tokens passed through unchanged, got %v", resolved)
	}
}

func TestAddResultSet_EvictsOldestResultSetsPastBound(t *testing.T) {
	c := New(WithMaxResultSets(1), WithMaxDetails(10))
	c.AddResultSet("sess1", "first", []article.UnifiedArticle{{Identifiers: article.Identifiers{DOI: "10.1/first"}}})
	c.AddResultSet("sess1", "second", []article.UnifiedArticle{{Identifiers: article.Identifiers{DOI: "10.1/second"}}})

	resolved := c.ResolveIDs("sess1", []string{"last"})
	if len(resolved) != 1 || resolved[0] != "doi:10.1/second" {
		t.Errorf("expected only the second result set to survive, got %v", resolved)
	}
}

func TestAddResultSet_EvictsOldestDetailsPastBound(t *testing.T) {
	c := New(WithMaxResultSets(10), WithMaxDetails(1))
	c.AddResultSet("sess1", "q1", []article.UnifiedArticle{{Identifiers: article.Identifiers{DOI: "10.1/old"}}})
	c.AddResultSet("sess1", "q2", []article.UnifiedArticle{{Identifiers: article.Identifiers{DOI: "10.1/new"}}})

	if _, ok := c.Detail("sess1", "doi:10.1/old"); ok {
		t.Errorf("expected oldest detail to be evicted")
	}
	if _, ok := c.Detail("sess1", "doi:10.1/new"); !ok {
		t.Errorf("expected newest detail to remain cached")
	}
}

func TestSweep_DiscardsSessionsPastMaxAge(t *testing.T) {
	start := time.Now()
	current := start
	clock := func() time.Time { return current }

	c := New(WithMaxAge(time.Hour), withClock(clock))
	c.AddResultSet("stale", "q", []article.UnifiedArticle{{Identifiers: article.Identifiers{DOI: "10.1/x"}}})

	current = start.Add(2 * time.Hour)
	c.Sweep()

	if c.SessionCount() != 0 {
		t.Errorf("expected stale session swept, count = %d", c.SessionCount())
	}
}

func TestDetail_UnknownIDMisses(t *testing.T) {
	c := New()
	if _, ok := c.Detail("sess1", "doi:nope"); ok {
		t.Errorf("expected miss for unknown id")
	}
}
