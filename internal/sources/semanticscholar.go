package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/soochol/litsearch-mcp/internal/gateway"
	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/query"
)

// SemanticScholarAdapter is the academic knowledge graph: search, single
// fetch, and the strongest reference/citation graph support of the pack.
type SemanticScholarAdapter struct {
	gw      *gateway.Gateway
	baseURL string
}

func NewSemanticScholarAdapter(gw *gateway.Gateway) *SemanticScholarAdapter {
	return &SemanticScholarAdapter{gw: gw, baseURL: "https://api.semanticscholar.org/graph/v1"}
}

func (a *SemanticScholarAdapter) Name() string { return "semanticscholar" }

const s2Fields = "title,abstract,venue,year,authors,externalIds,citationCount,influentialCitationCount,publicationTypes,openAccessPdf"

type s2Paper struct {
	PaperID      string            `json:"paperId"`
	Title        string            `json:"title"`
	Abstract     string            `json:"abstract"`
	Venue        string            `json:"venue"`
	Year         int               `json:"year"`
	ExternalIDs  map[string]string `json:"externalIds"`
	Authors      []struct{ Name string `json:"name"` } `json:"authors"`
	CitationCount int `json:"citationCount"`
	InfluentialCitationCount int `json:"influentialCitationCount"`
	PublicationTypes []string `json:"publicationTypes"`
	OpenAccessPDF *struct{ URL string `json:"url"` } `json:"openAccessPdf"`
}

type s2SearchResponse struct {
	Total int       `json:"total"`
	Offset int      `json:"offset"`
	Data  []s2Paper `json:"data"`
}

func (a *SemanticScholarAdapter) Search(ctx context.Context, q *query.NormalizedQuery, f Filters) (*SearchResult, error) {
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := f.Page * pageSize
	searchURL := fmt.Sprintf("%s/paper/search?query=%s&offset=%d&limit=%d&fields=%s",
		a.baseURL, url.QueryEscape(q.FreeText), offset, pageSize, s2Fields)

	resp, err := a.gw.Fetch(ctx, searchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var parsed s2SearchResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: search json", 0, err)
	}
	records := make([]RawRecord, 0, len(parsed.Data))
	for _, p := range parsed.Data {
		records = append(records, p.toRawRecord())
	}
	return &SearchResult{Records: records, Total: parsed.Total, Offset: offset}, nil
}

func (a *SemanticScholarAdapter) FetchOne(ctx context.Context, id string) (*RawRecord, error) {
	fetchURL := fmt.Sprintf("%s/paper/%s?fields=%s", a.baseURL, url.PathEscape(id), s2Fields)
	resp, err := a.gw.Fetch(ctx, fetchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var p s2Paper
	if err := json.Unmarshal(resp.Body, &p); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: paper json", 0, err)
	}
	rec := p.toRawRecord()
	return &rec, nil
}

type s2IDList struct {
	Data []struct {
		CitedPaper *s2Paper `json:"citedPaper"`
		CitingPaper *s2Paper `json:"citingPaper"`
	} `json:"data"`
}

func (a *SemanticScholarAdapter) FetchReferences(ctx context.Context, id string) ([]string, error) {
	fetchURL := fmt.Sprintf("%s/paper/%s/references?fields=externalIds", a.baseURL, url.PathEscape(id))
	resp, err := a.gw.Fetch(ctx, fetchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var parsed s2IDList
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: references json", 0, err)
	}
	out := make([]string, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		if d.CitedPaper != nil {
			out = append(out, d.CitedPaper.PaperID)
		}
	}
	return out, nil
}

func (a *SemanticScholarAdapter) FetchCitations(ctx context.Context, id string) ([]string, error) {
	fetchURL := fmt.Sprintf("%s/paper/%s/citations?fields=externalIds", a.baseURL, url.PathEscape(id))
	resp, err := a.gw.Fetch(ctx, fetchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var parsed s2IDList
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: citations json", 0, err)
	}
	out := make([]string, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		if d.CitingPaper != nil {
			out = append(out, d.CitingPaper.PaperID)
		}
	}
	return out, nil
}

func (p s2Paper) toRawRecord() RawRecord {
	cited := p.CitationCount
	influential := p.InfluentialCitationCount
	rec := RawRecord{
		Title:                    p.Title,
		Abstract:                 p.Abstract,
		Journal:                  p.Venue,
		CitationCount:            &cited,
		InfluentialCitationCount: &influential,
		OtherIDs:                 map[string]string{"semanticscholar": p.PaperID},
	}
	if p.Year > 0 {
		rec.DateRaw = fmt.Sprintf("%d", p.Year)
	}
	if doi, ok := p.ExternalIDs["DOI"]; ok {
		rec.DOI = doi
	}
	if pmid, ok := p.ExternalIDs["PubMed"]; ok {
		rec.BiomedicalAccessionID = pmid
	}
	for _, t := range p.PublicationTypes {
		rec.PubTypes = append(rec.PubTypes, t)
	}
	for _, au := range p.Authors {
		rec.Authors = append(rec.Authors, RawAuthor{Name: au.Name})
	}
	if p.OpenAccessPDF != nil && p.OpenAccessPDF.URL != "" {
		rec.Links = append(rec.Links, RawLink{Kind: "pdf", URL: p.OpenAccessPDF.URL, OpenAccess: true})
	}
	return rec
}

var (
	_ Searcher         = (*SemanticScholarAdapter)(nil)
	_ Fetcher          = (*SemanticScholarAdapter)(nil)
	_ ReferenceFetcher = (*SemanticScholarAdapter)(nil)
	_ CitationFetcher  = (*SemanticScholarAdapter)(nil)
)
