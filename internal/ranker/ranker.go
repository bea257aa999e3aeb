// Package ranker scores deduplicated articles across six weighted
// dimensions per the component design (§4.5) and returns them in ranked
// order with each article's score breakdown retained for the cache.
package ranker

import (
	"math"
	"sort"

	"github.com/soochol/litsearch-mcp/internal/article"
	"github.com/soochol/litsearch-mcp/internal/query"
)

// Strategy selects a weight vector over the six score components.
type Strategy string

const (
	StrategyRelevance Strategy = "relevance"
	StrategyRecent    Strategy = "recent"
	StrategyMostCited Strategy = "most-cited"
	StrategyQuality   Strategy = "quality"
	StrategyImpact    Strategy = "impact"
	StrategyBalanced  Strategy = "balanced"
)

// weights is [relevance, recency, citation, authority, fulltext, specificity].
type weights [6]float64

var weightTable = map[Strategy]weights{
	StrategyBalanced:  {0.35, 0.15, 0.20, 0.10, 0.10, 0.10},
	StrategyRelevance: {0.60, 0.05, 0.10, 0.10, 0.10, 0.05},
	StrategyRecent:    {0.15, 0.55, 0.10, 0.05, 0.10, 0.05},
	StrategyMostCited: {0.15, 0.05, 0.55, 0.10, 0.10, 0.05},
	StrategyQuality:   {0.20, 0.10, 0.20, 0.30, 0.15, 0.05},
	StrategyImpact:    {0.15, 0.10, 0.35, 0.20, 0.15, 0.05},
}

const halfLifeYears = 5.0

// Scored pairs an article with its per-component breakdown.
type Scored struct {
	Article    article.UnifiedArticle
	Total      float64
	Components Components
}

// Components is the six score dimensions, each already weighted.
type Components struct {
	Relevance   float64
	Recency     float64
	Citation    float64
	Authority   float64
	Fulltext    float64
	Specificity float64
}

// Rank scores and sorts batch for strategy and the originating query,
// returning at most limit entries (0 means unlimited). referenceYear
// anchors recency decay; callers pass the wall-clock year so the scorer
// itself stays deterministic and test-friendly.
func Rank(batch []article.UnifiedArticle, q *query.NormalizedQuery, strategy Strategy, limit int, referenceYear int) []Scored {
	w, ok := weightTable[strategy]
	if !ok {
		w = weightTable[StrategyBalanced]
	}

	omitSpecificity := q == nil || q.Class != query.ClassClinicalQuestion
	if omitSpecificity {
		w = renormalizeWithoutSpecificity(w)
	}

	maxCitations := maxCitationCount(batch)
	queryTokens := queryTokenSet(q)

	scored := make([]Scored, 0, len(batch))
	for _, a := range batch {
		rel := relevanceScore(a, queryTokens)
		rec := recencyScore(a, referenceYear)
		cit := citationScore(a, maxCitations)
		auth := authorityScore(a)
		ft := fulltextScore(a)
		spec := 0.0
		if !omitSpecificity {
			spec = specificityScore(q)
		}

		comp := Components{
			Relevance:   w[0] * rel,
			Recency:     w[1] * rec,
			Citation:    w[2] * cit,
			Authority:   w[3] * auth,
			Fulltext:    w[4] * ft,
			Specificity: w[5] * spec,
		}
		total := comp.Relevance + comp.Recency + comp.Citation + comp.Authority + comp.Fulltext + comp.Specificity
		scored = append(scored, Scored{Article: a, Total: total, Components: comp})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Total != scored[j].Total {
			return scored[i].Total > scored[j].Total
		}
		return scored[i].Article.PrimaryID() < scored[j].Article.PrimaryID()
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func renormalizeWithoutSpecificity(w weights) weights {
	sum := w[0] + w[1] + w[2] + w[3] + w[4]
	if sum == 0 {
		return w
	}
	return weights{w[0] / sum, w[1] / sum, w[2] / sum, w[3] / sum, w[4] / sum, 0}
}

func maxCitationCount(batch []article.UnifiedArticle) int {
	max := 0
	for _, a := range batch {
		if a.Metrics.CitationCount != nil && *a.Metrics.CitationCount > max {
			max = *a.Metrics.CitationCount
		}
	}
	return max
}

func queryTokenSet(q *query.NormalizedQuery) map[string]bool {
	set := make(map[string]bool)
	if q == nil {
		return set
	}
	for _, t := range tokenize(q.FreeText) {
		set[t] = true
	}
	for term := range q.VocabularyExpansion {
		for _, t := range tokenize(term) {
			set[t] = true
		}
	}
	return set
}

// relevanceScore prefers a per-source relevance score already present in
// provenance; falling back to token overlap between the query and the
// article's title+abstract when none was supplied.
func relevanceScore(a article.UnifiedArticle, queryTokens map[string]bool) float64 {
	best := -1.0
	for _, p := range a.Provenance {
		if p.RawScore != nil && *p.RawScore > best {
			best = *p.RawScore
		}
	}
	if best >= 0 {
		return clamp01(best)
	}
	if len(queryTokens) == 0 {
		return 0
	}
	docTokens := tokenize(a.Title + " " + a.Abstract)
	if len(docTokens) == 0 {
		return 0
	}
	docSet := make(map[string]bool, len(docTokens))
	for _, t := range docTokens {
		docSet[t] = true
	}
	overlap := 0
	for t := range queryTokens {
		if docSet[t] {
			overlap++
		}
	}
	return float64(overlap) / float64(len(queryTokens))
}

func recencyScore(a article.UnifiedArticle, referenceYear int) float64 {
	if a.PublicationDate.Unknown() {
		return 0
	}
	// Reduced recency weight for partial dates is achieved naturally: a
	// year-only date still decays on full years, the ranker just can't be
	// more precise than that — no extra scaling beyond the decay itself.
	yearsAgo := referenceYear - a.PublicationDate.Year
	if yearsAgo < 0 {
		yearsAgo = 0
	}
	return math.Pow(0.5, float64(yearsAgo)/halfLifeYears)
}

func citationScore(a article.UnifiedArticle, maxInBatch int) float64 {
	if a.Metrics.CitationCount == nil || maxInBatch == 0 {
		return 0
	}
	return math.Log1p(float64(*a.Metrics.CitationCount)) / math.Log1p(float64(maxInBatch))
}

func authorityScore(a article.UnifiedArticle) float64 {
	k := len(a.Provenance)
	if k == 0 {
		return 0
	}
	return 1 - math.Pow(0.7, float64(k))
}

func fulltextScore(a article.UnifiedArticle) float64 {
	if a.HasOpenAccessLink() {
		return 1
	}
	if len(a.Links) > 0 {
		return 0.5
	}
	return 0
}

func specificityScore(q *query.NormalizedQuery) float64 {
	if q == nil {
		return 0
	}
	return float64(q.Clinical.Matched()) / 4.0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
