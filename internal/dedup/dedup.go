// Package dedup merges UnifiedArticles that represent the same underlying
// work, following the component design's identifier-priority graph and
// six merge rules (§4.3).
package dedup

import (
	"sort"
	"strings"

	"github.com/soochol/litsearch-mcp/internal/article"
	"github.com/soochol/litsearch-mcp/internal/normalize"
	"github.com/soochol/litsearch-mcp/internal/sources"
)

// Merge deduplicates a batch, returning one UnifiedArticle per connected
// component. Input order is preserved for the first-written-value rule.
func Merge(batch []article.UnifiedArticle) []article.UnifiedArticle {
	n := len(batch)
	if n == 0 {
		return nil
	}
	uf := newUnionFind(n)

	keyIndex := make(map[string]int, n*2)
	for i, a := range batch {
		for _, key := range identityKeys(a) {
			if j, ok := keyIndex[key]; ok {
				uf.union(i, j)
			} else {
				keyIndex[key] = i
			}
		}
	}

	groups := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}

	roots := make([]int, 0, len(groups))
	for r := range groups {
		roots = append(roots, r)
	}
	sort.Ints(roots)

	out := make([]article.UnifiedArticle, 0, len(roots))
	for _, r := range roots {
		members := groups[r]
		sort.Ints(members)
		merged := batch[members[0]]
		for _, idx := range members[1:] {
			merged = mergeTwo(merged, batch[idx])
		}
		out = append(out, merged)
	}
	return out
}

// identityKeys returns, in priority order, the identifier strings that
// establish equivalence with another article. Only non-empty keys
// participate — an article with no identifiers at all links to nothing
// but itself.
func identityKeys(a article.UnifiedArticle) []string {
	var keys []string
	if a.Identifiers.BiomedicalAccessionID != "" {
		keys = append(keys, "pmid:"+a.Identifiers.BiomedicalAccessionID)
	}
	if a.Identifiers.ArchiveID != "" {
		keys = append(keys, "archive:"+a.Identifiers.ArchiveID)
	}
	if a.Identifiers.DOI != "" {
		keys = append(keys, "doi:"+normalize.DOI(a.Identifiers.DOI))
	}
	if key, ok := titleAuthorYearKey(a); ok {
		keys = append(keys, key)
	}
	return keys
}

func titleAuthorYearKey(a article.UnifiedArticle) (string, bool) {
	if a.Title == "" || a.PublicationDate.Unknown() || len(a.Authors) == 0 {
		return "", false
	}
	firstAuthor := normalize.AuthorLastName(a.Authors[0].Name)
	if firstAuthor == "" {
		return "", false
	}
	return strings.Join([]string{"tay", normalize.Title(a.Title), firstAuthor, itoa(a.PublicationDate.Year)}, "|"), true
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// authority returns the ranking constant for provenance source name,
// lowest if unknown (never negative, so an unseen source still merges,
// it simply never wins a tie-break it would otherwise lose).
func authority(source string) int {
	if v, ok := sources.Authority[source]; ok {
		return v
	}
	return 0
}

// bestSource returns the provenance source name with the highest
// authority, breaking ties on lexical order for determinism.
func bestSource(prov map[string]article.Provenance) string {
	best := ""
	bestScore := -1
	names := make([]string, 0, len(prov))
	for name := range prov {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if s := authority(name); s > bestScore {
			bestScore = s
			best = name
		}
	}
	return best
}

func mergeTwo(a, b article.UnifiedArticle) article.UnifiedArticle {
	aBest := bestSource(a.Provenance)
	bBest := bestSource(b.Provenance)
	preferB := authority(bBest) > authority(aBest)

	out := a

	// Rule 1: scalar bibliographic fields — keep first-written, but prefer
	// the higher-authority source's value when both are non-empty.
	out.Title = pickScalar(a.Title, b.Title, preferB)
	out.Abstract = pickScalar(a.Abstract, b.Abstract, preferB)
	out.Journal = pickScalar(a.Journal, b.Journal, preferB)
	out.Language = pickScalar(a.Language, b.Language, preferB)
	if a.PublicationDate.Unknown() && !b.PublicationDate.Unknown() {
		out.PublicationDate = b.PublicationDate
	} else if preferB && !b.PublicationDate.Unknown() {
		out.PublicationDate = b.PublicationDate
	}
	if len(a.PublicationTypes) == 0 {
		out.PublicationTypes = b.PublicationTypes
	}
	if len(a.Descriptors) == 0 {
		out.Descriptors = b.Descriptors
	} else {
		out.Descriptors = unionStrings(a.Descriptors, b.Descriptors)
	}

	// Rule 3: union identifier fields.
	out.Identifiers = unionIdentifiers(a.Identifiers, b.Identifiers)

	// Rule 2: union author lists by normalized last-name+initial, order
	// follows the higher-authority source first.
	first, second := a.Authors, b.Authors
	if preferB {
		first, second = b.Authors, a.Authors
	}
	out.Authors = unionAuthors(first, second)

	// Rule 4: union links by kind, keep both when a kind collides.
	out.Links = unionLinks(a.Links, b.Links)

	// Rule 5: metrics — max citation count; influential/impact from the
	// single source that supplies them (first-seen wins).
	out.Metrics = mergeMetrics(a.Metrics, b.Metrics)

	// Rule 6: append all provenance entries.
	out.Provenance = unionProvenance(a.Provenance, b.Provenance)

	return out
}

func pickScalar(a, b string, preferB bool) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if preferB {
		return b
	}
	return a
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func unionIdentifiers(a, b article.Identifiers) article.Identifiers {
	out := a
	if out.BiomedicalAccessionID == "" {
		out.BiomedicalAccessionID = b.BiomedicalAccessionID
	}
	if out.ArchiveID == "" {
		out.ArchiveID = b.ArchiveID
	}
	if out.DOI == "" {
		out.DOI = b.DOI
	}
	if len(b.OtherIDs) > 0 {
		merged := make(map[string]string, len(out.OtherIDs)+len(b.OtherIDs))
		for k, v := range out.OtherIDs {
			merged[k] = v
		}
		for k, v := range b.OtherIDs {
			if _, exists := merged[k]; !exists {
				merged[k] = v
			}
		}
		out.OtherIDs = merged
	}
	return out
}

func unionAuthors(first, second []article.Author) []article.Author {
	seen := make(map[string]bool)
	out := make([]article.Author, 0, len(first)+len(second))
	for _, list := range [][]article.Author{first, second} {
		for _, au := range list {
			key := normalize.AuthorKey(au.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, au)
		}
	}
	return out
}

func unionLinks(a, b []article.Link) []article.Link {
	out := make([]article.Link, 0, len(a)+len(b))
	seen := make(map[article.Link]bool, len(a)+len(b))
	for _, list := range [][]article.Link{a, b} {
		for _, l := range list {
			if seen[l] {
				continue
			}
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

func mergeMetrics(a, b article.Metrics) article.Metrics {
	out := article.Metrics{}
	out.CitationCount = maxIntPtr(a.CitationCount, b.CitationCount)
	if a.InfluentialCitationCount != nil {
		out.InfluentialCitationCount = a.InfluentialCitationCount
	} else {
		out.InfluentialCitationCount = b.InfluentialCitationCount
	}
	if a.Impact != nil {
		out.Impact = a.Impact
	} else {
		out.Impact = b.Impact
	}
	return out
}

func maxIntPtr(a, b *int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *a >= *b:
		return a
	default:
		return b
	}
}

func unionProvenance(a, b map[string]article.Provenance) map[string]article.Provenance {
	out := make(map[string]article.Provenance, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent, rank: make([]int, n)}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}
