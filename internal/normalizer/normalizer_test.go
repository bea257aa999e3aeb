package normalizer

import (
	"testing"
	"time"

	"github.com/soochol/litsearch-mcp/internal/sources"
)

func TestNormalize_PrimaryIdentifiers(t *testing.T) {
	rec := sources.RawRecord{
		BiomedicalAccessionID: "12345",
		DOI:                   "https://doi.org/10.1234/ABC",
		Title:                 "A Study of Things",
		DateRaw:               "2023-04",
		Authors:               []sources.RawAuthor{{Name: "Jane Doe"}},
	}
	got := Normalize("pubmed", rec, time.Unix(0, 0))

	if got.Identifiers.BiomedicalAccessionID != "12345" {
		t.Errorf("BiomedicalAccessionID = %q, want 12345", got.Identifiers.BiomedicalAccessionID)
	}
	if got.Identifiers.DOI != "10.1234/abc" {
		t.Errorf("DOI = %q, want normalized lowercase", got.Identifiers.DOI)
	}
	if got.PublicationDate.Year != 2023 || got.PublicationDate.Month != 4 {
		t.Errorf("PublicationDate = %+v, want year 2023 month 4", got.PublicationDate)
	}
	if len(got.Authors) != 1 || got.Authors[0].Name != "Jane Doe" {
		t.Errorf("Authors = %+v", got.Authors)
	}
	prov, ok := got.Provenance["pubmed"]
	if !ok {
		t.Fatalf("expected provenance entry for pubmed")
	}
	if prov.SourceLocalID != "12345" {
		t.Errorf("SourceLocalID = %q, want 12345 (accession id preferred)", prov.SourceLocalID)
	}
}

func TestNormalize_NoDateNoAuthors(t *testing.T) {
	rec := sources.RawRecord{Title: "Untitled Finding", DOI: "10.1/x"}
	got := Normalize("crossref", rec, time.Unix(0, 0))

	if !got.PublicationDate.Unknown() {
		t.Errorf("expected unknown date when no DateRaw, got %+v", got.PublicationDate)
	}
	if got.Authors == nil {
		t.Errorf("expected empty non-nil author slice, got nil")
	}
	if len(got.Authors) != 0 {
		t.Errorf("expected zero authors, got %d", len(got.Authors))
	}
}

func TestNormalize_SourceLocalIDFallsBackToOtherIDs(t *testing.T) {
	rec := sources.RawRecord{
		Title:    "Indexed Only Elsewhere",
		OtherIDs: map[string]string{"semanticscholar": "abc123"},
	}
	got := Normalize("semanticscholar", rec, time.Unix(0, 0))

	prov := got.Provenance["semanticscholar"]
	if prov.SourceLocalID != "abc123" {
		t.Errorf("SourceLocalID = %q, want abc123", prov.SourceLocalID)
	}
	if got.Identifiers.OtherIDs["semanticscholar"] != "abc123" {
		t.Errorf("OtherIDs not carried through: %+v", got.Identifiers.OtherIDs)
	}
}

func TestNormalize_LinksCarrySourceName(t *testing.T) {
	rec := sources.RawRecord{
		Title: "Open Access Work",
		Links: []sources.RawLink{{Kind: "pdf", URL: "https://example.org/a.pdf", OpenAccess: true}},
	}
	got := Normalize("unpaywall", rec, time.Unix(0, 0))

	if len(got.Links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(got.Links))
	}
	if got.Links[0].Source != "unpaywall" || !got.Links[0].OpenAccess {
		t.Errorf("link = %+v", got.Links[0])
	}
	if !got.HasOpenAccessLink() {
		t.Errorf("expected HasOpenAccessLink to report true")
	}
}
