// Package article defines UnifiedArticle, the canonical record the rest of
// the search pipeline engine operates on, matching the data model section
// of the system design.
package article

import (
	"time"

	"github.com/soochol/litsearch-mcp/internal/normalize"
)

// LinkKind enumerates the recognized link kinds on an article.
type LinkKind string

const (
	LinkHTMLLanding LinkKind = "html-landing"
	LinkPDF         LinkKind = "pdf"
	LinkXML         LinkKind = "xml"
	LinkRawText     LinkKind = "raw-text"
)

// PubType enumerates the controlled publication-type vocabulary.
type PubType string

const (
	PubTypeJournalArticle PubType = "journal-article"
	PubTypeReview         PubType = "review"
	PubTypeClinicalTrial  PubType = "clinical-trial"
	PubTypeMetaAnalysis   PubType = "meta-analysis"
	PubTypePreprint       PubType = "preprint"
)

// Author is one entry in an article's ordered author list.
type Author struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
}

// Link is a single URL the article can be resolved against.
type Link struct {
	Kind         LinkKind `json:"kind"`
	URL          string   `json:"url"`
	Source       string   `json:"source"`
	OpenAccess   bool     `json:"open_access"`
}

// Identifiers holds every identifier kind an article may carry. At least
// one must be non-empty after normalization (data model invariant).
type Identifiers struct {
	BiomedicalAccessionID string            `json:"biomedical_accession_id,omitempty"`
	ArchiveID             string            `json:"archive_id,omitempty"`
	DOI                   string            `json:"doi,omitempty"`
	OtherIDs              map[string]string `json:"other_ids,omitempty"` // source name -> id
}

// Empty reports whether no identifier is set at all.
func (id Identifiers) Empty() bool {
	return id.BiomedicalAccessionID == "" && id.ArchiveID == "" && id.DOI == "" && len(id.OtherIDs) == 0
}

// Metrics holds the optional citation/impact numbers.
type Metrics struct {
	CitationCount            *int     `json:"citation_count,omitempty"`
	InfluentialCitationCount *int     `json:"influential_citation_count,omitempty"`
	Impact                   *float64 `json:"impact,omitempty"` // normalized 0-1
}

// Provenance records where (and when) a source contributed to a merged
// article, and any raw relevance score it supplied.
type Provenance struct {
	SourceLocalID string    `json:"source_local_id"`
	FetchedAt     time.Time `json:"fetched_at"`
	RawScore      *float64  `json:"raw_score,omitempty"`
}

// UnifiedArticle is the canonical article record produced by the
// normalizer and consumed by every downstream component.
//
// Identifier fields are immutable once constructed: enrichment always
// produces a new UnifiedArticle value rather than mutating Identifiers
// in place (callers build a copy via WithEnrichment).
type UnifiedArticle struct {
	Identifiers Identifiers `json:"identifiers"`

	Title             string                 `json:"title"`
	Abstract          string                 `json:"abstract"`
	Authors           []Author               `json:"authors"`
	Journal           string                 `json:"journal"`
	PublicationDate   normalize.PartialDate  `json:"publication_date"`
	PublicationTypes  []PubType              `json:"publication_types"`
	Language          string                 `json:"language"`
	Descriptors       []string               `json:"descriptors"`

	Links   []Link  `json:"links"`
	Metrics Metrics `json:"metrics"`

	// Provenance maps source name to what that source contributed.
	// Invariant: non-empty after normalization, every entry names a
	// distinct source (it is a map, so distinctness is structural).
	Provenance map[string]Provenance `json:"provenance"`
}

// PrimaryID returns a single identifier usable for stable tie-break
// ordering, preferring the biomedical accession id, then archive id, then
// DOI, then an arbitrary other-source id.
func (a *UnifiedArticle) PrimaryID() string {
	switch {
	case a.Identifiers.BiomedicalAccessionID != "":
		return "pmid:" + a.Identifiers.BiomedicalAccessionID
	case a.Identifiers.ArchiveID != "":
		return "pmc:" + a.Identifiers.ArchiveID
	case a.Identifiers.DOI != "":
		return "doi:" + a.Identifiers.DOI
	}
	for name, id := range a.Identifiers.OtherIDs {
		return name + ":" + id
	}
	return ""
}

// HasOpenAccessLink reports whether any link is flagged open access.
func (a *UnifiedArticle) HasOpenAccessLink() bool {
	for _, l := range a.Links {
		if l.OpenAccess {
			return true
		}
	}
	return false
}

// LinksOfKind returns the links matching the given kind, preserving order.
func (a *UnifiedArticle) LinksOfKind(kind LinkKind) []Link {
	var out []Link
	for _, l := range a.Links {
		if l.Kind == kind {
			out = append(out, l)
		}
	}
	return out
}

// WithEnrichment returns a copy of a with an additional source's
// contribution folded in: the new provenance entry is recorded, citation
// metrics are filled wherever they were previously unset, and any links
// the enriching source reports are appended. It never overwrites an
// existing metric or identifier, so the first source to report a value
// wins.
func (a UnifiedArticle) WithEnrichment(source string, prov Provenance, metrics Metrics, links []Link) UnifiedArticle {
	out := a
	if out.Provenance == nil {
		out.Provenance = make(map[string]Provenance, 1)
	} else {
		merged := make(map[string]Provenance, len(a.Provenance)+1)
		for k, v := range a.Provenance {
			merged[k] = v
		}
		out.Provenance = merged
	}
	out.Provenance[source] = prov

	if out.Metrics.CitationCount == nil {
		out.Metrics.CitationCount = metrics.CitationCount
	}
	if out.Metrics.InfluentialCitationCount == nil {
		out.Metrics.InfluentialCitationCount = metrics.InfluentialCitationCount
	}
	if out.Metrics.Impact == nil {
		out.Metrics.Impact = metrics.Impact
	}

	if len(links) > 0 {
		out.Links = append(append([]Link{}, a.Links...), links...)
	}
	return out
}
