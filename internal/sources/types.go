// Package sources implements one adapter per external scholarly data source.
// Adapters translate a normalized query into that service's wire form, parse
// its response, and produce raw per-source records plus pagination metadata.
// Adapters never share state; any bookkeeping lives in the gateway.
package sources

import (
	"context"

	"github.com/soochol/litsearch-mcp/internal/article"
	"github.com/soochol/litsearch-mcp/internal/query"
)

// RawLink is a source-reported link, pre-normalization.
type RawLink struct {
	Kind       article.LinkKind
	URL        string
	OpenAccess bool
}

// RawRecord is the source-specific shape an adapter produces. Field names
// intentionally mirror UnifiedArticle's so the normalizer's mapping is a
// thin, mostly mechanical pass that fills mandatory defaults and builds
// provenance — the actual wire-format parsing (JSON/XML, nested envelopes,
// namespace drift) lives entirely in the adapter, never here.
type RawRecord struct {
	BiomedicalAccessionID string
	ArchiveID             string
	DOI                   string
	OtherIDs              map[string]string

	Title     string
	Abstract  string
	Authors   []RawAuthor
	Journal   string
	DateRaw   string
	PubTypes  []string
	Language  string
	Descriptors []string

	Links []RawLink

	CitationCount            *int
	InfluentialCitationCount *int
	Impact                   *float64
	RawScore                 *float64
}

// RawAuthor is a source-reported author entry.
type RawAuthor struct {
	Name        string
	Affiliation string
}

// SearchResult is what a Searcher's Search call returns.
type SearchResult struct {
	Records     []RawRecord
	Total       int
	Cursor      string // opaque to the engine; empty if the source uses Offset instead
	Offset      int
	Unsupported []query.UnsupportedFilter
}

// Filters carries pagination plus the subset of NormalizedQuery fields a
// caller wants applied; adapters silently ignore filters they don't support
// but report them back via SearchResult.Unsupported.
type Filters struct {
	Page     int
	PageSize int
	Cursor   string
}

// Searcher is implemented by adapters that support free-text/structured search.
type Searcher interface {
	Search(ctx context.Context, q *query.NormalizedQuery, f Filters) (*SearchResult, error)
}

// Fetcher retrieves a single record by its source-local id.
type Fetcher interface {
	FetchOne(ctx context.Context, id string) (*RawRecord, error)
}

// ReferenceFetcher lists the ids a work cites.
type ReferenceFetcher interface {
	FetchReferences(ctx context.Context, id string) ([]string, error)
}

// CitationFetcher lists the ids that cite a work.
type CitationFetcher interface {
	FetchCitations(ctx context.Context, id string) ([]string, error)
}

// FulltextSections is the result of a FulltextFetcher call.
type FulltextSections struct {
	Sections map[string]string
	Raw      string
}

// FulltextFetcher retrieves full text, optionally scoped to named sections.
type FulltextFetcher interface {
	FetchFulltext(ctx context.Context, id string, sections []string) (*FulltextSections, error)
}

// Adapter is the minimal identity every source exposes; capability
// interfaces above are satisfied selectively, never through a common
// base — the engine type-asserts against the capability it needs.
type Adapter interface {
	Name() string
}

// Authority is a fixed per-source ranking constant used by the
// deduplicator's merge rules (component design §4.3 rule 1) to prefer
// values from the most authoritative contributing source.
var Authority = map[string]int{
	"pubmed":           100,
	"pmc":              90,
	"europepmc":        85,
	"crossref":         80,
	"semanticscholar":  75,
	"unpaywall":        70,
	"opencitations":    60,
	"genepubmed":       55,
	"imagerepository":  40,
	"meshthesaurus":    0,
}
