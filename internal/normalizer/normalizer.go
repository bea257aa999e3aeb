// Package normalizer maps a source adapter's RawRecord into the canonical
// UnifiedArticle, applying the mandatory defaults the data model requires
// (empty title kept rather than invented, "unknown" year when no date
// parses, empty author list rather than nil) and building the per-source
// provenance entry.
package normalizer

import (
	"time"

	"github.com/soochol/litsearch-mcp/internal/article"
	"github.com/soochol/litsearch-mcp/internal/normalize"
	"github.com/soochol/litsearch-mcp/internal/sources"
)

// Normalize converts one source's RawRecord, fetched at fetchedAt, into a
// UnifiedArticle carrying a single provenance entry for sourceName.
func Normalize(sourceName string, rec sources.RawRecord, fetchedAt time.Time) article.UnifiedArticle {
	a := article.UnifiedArticle{
		Identifiers: article.Identifiers{
			BiomedicalAccessionID: rec.BiomedicalAccessionID,
			ArchiveID:             rec.ArchiveID,
			DOI:                   normalize.DOI(rec.DOI),
			OtherIDs:              copyOtherIDs(rec.OtherIDs),
		},
		Title:            rec.Title,
		Abstract:         rec.Abstract,
		Journal:          rec.Journal,
		PublicationDate:  normalize.ParseDate(rec.DateRaw),
		Language:         rec.Language,
		Descriptors:      append([]string(nil), rec.Descriptors...),
		PublicationTypes: toPubTypes(rec.PubTypes),
		Authors:          toAuthors(rec.Authors),
		Links:            toLinks(sourceName, rec.Links),
		Metrics: article.Metrics{
			CitationCount:            rec.CitationCount,
			InfluentialCitationCount: rec.InfluentialCitationCount,
			Impact:                   rec.Impact,
		},
		Provenance: map[string]article.Provenance{
			sourceName: {
				SourceLocalID: sourceLocalID(rec),
				FetchedAt:     fetchedAt,
				RawScore:      rec.RawScore,
			},
		},
	}
	if a.Authors == nil {
		a.Authors = []article.Author{}
	}
	return a
}

// sourceLocalID picks the id the source itself would recognize for this
// record, preferring its own namespace's identifier over generic ones.
func sourceLocalID(rec sources.RawRecord) string {
	switch {
	case rec.BiomedicalAccessionID != "":
		return rec.BiomedicalAccessionID
	case rec.ArchiveID != "":
		return rec.ArchiveID
	case rec.DOI != "":
		return normalize.DOI(rec.DOI)
	}
	for _, id := range rec.OtherIDs {
		return id
	}
	return ""
}

func copyOtherIDs(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func toPubTypes(in []string) []article.PubType {
	if len(in) == 0 {
		return nil
	}
	out := make([]article.PubType, 0, len(in))
	for _, t := range in {
		out = append(out, article.PubType(t))
	}
	return out
}

func toAuthors(in []sources.RawAuthor) []article.Author {
	if len(in) == 0 {
		return nil
	}
	out := make([]article.Author, 0, len(in))
	for _, a := range in {
		out = append(out, article.Author{Name: a.Name, Affiliation: a.Affiliation})
	}
	return out
}

func toLinks(sourceName string, in []sources.RawLink) []article.Link {
	if len(in) == 0 {
		return nil
	}
	out := make([]article.Link, 0, len(in))
	for _, l := range in {
		out = append(out, article.Link{Kind: l.Kind, URL: l.URL, Source: sourceName, OpenAccess: l.OpenAccess})
	}
	return out
}
