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

// EuropePMCAdapter is the European full-text archive mirror: JSON search,
// with references/citations support (its knowledge-graph endpoint covers
// both directions, unlike most of the other adapters).
type EuropePMCAdapter struct {
	gw      *gateway.Gateway
	baseURL string
}

func NewEuropePMCAdapter(gw *gateway.Gateway) *EuropePMCAdapter {
	return &EuropePMCAdapter{gw: gw, baseURL: "https://www.ebi.ac.uk/europepmc/webservices/rest"}
}

func (a *EuropePMCAdapter) Name() string { return "europepmc" }

type europePMCSearchResponse struct {
	HitCount    int `json:"hitCount"`
	NextCursorMark string `json:"nextCursorMark"`
	ResultList  struct {
		Result []europePMCResult `json:"result"`
	} `json:"resultList"`
}

type europePMCResult struct {
	ID         string `json:"id"`
	PMID       string `json:"pmid"`
	PMCID      string `json:"pmcid"`
	DOI        string `json:"doi"`
	Title      string `json:"title"`
	AbstractText string `json:"abstractText"`
	JournalInfo struct {
		Journal struct {
			Title string `json:"title"`
		} `json:"journal"`
	} `json:"journalInfo"`
	FirstPublicationDate string `json:"firstPublicationDate"`
	PubTypeList struct {
		PubType []string `json:"pubType"`
	} `json:"pubTypeList"`
	AuthorList struct {
		Author []struct {
			FullName string `json:"fullName"`
		} `json:"author"`
	} `json:"authorList"`
	IsOpenAccess string `json:"isOpenAccess"`
	CitedByCount int    `json:"citedByCount"`
}

func (a *EuropePMCAdapter) Search(ctx context.Context, q *query.NormalizedQuery, f Filters) (*SearchResult, error) {
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	cursor := f.Cursor
	if cursor == "" {
		cursor = "*"
	}
	searchURL := fmt.Sprintf("%s/search?query=%s&format=json&pageSize=%d&cursorMark=%s",
		a.baseURL, url.QueryEscape(q.FreeText), pageSize, url.QueryEscape(cursor))

	resp, err := a.gw.Fetch(ctx, searchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var parsed europePMCSearchResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: search json", 0, err)
	}

	records := make([]RawRecord, 0, len(parsed.ResultList.Result))
	for _, r := range parsed.ResultList.Result {
		records = append(records, r.toRawRecord())
	}
	return &SearchResult{Records: records, Total: parsed.HitCount, Cursor: parsed.NextCursorMark}, nil
}

func (a *EuropePMCAdapter) FetchOne(ctx context.Context, id string) (*RawRecord, error) {
	fetchURL := fmt.Sprintf("%s/search?query=EXT_ID:%s&format=json&pageSize=1", a.baseURL, url.QueryEscape(id))
	resp, err := a.gw.Fetch(ctx, fetchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var parsed europePMCSearchResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: search json", 0, err)
	}
	if len(parsed.ResultList.Result) == 0 {
		return nil, litsearcherr.WrapSource(litsearcherr.NotFound, a.Name(), "id not found: "+id, 0, nil)
	}
	rec := parsed.ResultList.Result[0].toRawRecord()
	return &rec, nil
}

type europePMCXrefResponse struct {
	CitationList struct {
		Citation []struct{ ID string `json:"id"` } `json:"citation"`
	} `json:"citationList"`
	ReferenceList struct {
		Reference []struct{ ID string `json:"id"` } `json:"reference"`
	} `json:"referenceList"`
}

func (a *EuropePMCAdapter) FetchCitations(ctx context.Context, id string) ([]string, error) {
	fetchURL := fmt.Sprintf("%s/MED/%s/citations?format=json", a.baseURL, url.QueryEscape(id))
	resp, err := a.gw.Fetch(ctx, fetchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var parsed europePMCXrefResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: citations json", 0, err)
	}
	out := make([]string, 0, len(parsed.CitationList.Citation))
	for _, c := range parsed.CitationList.Citation {
		out = append(out, c.ID)
	}
	return out, nil
}

func (a *EuropePMCAdapter) FetchReferences(ctx context.Context, id string) ([]string, error) {
	fetchURL := fmt.Sprintf("%s/MED/%s/references?format=json", a.baseURL, url.QueryEscape(id))
	resp, err := a.gw.Fetch(ctx, fetchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var parsed europePMCXrefResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: references json", 0, err)
	}
	out := make([]string, 0, len(parsed.ReferenceList.Reference))
	for _, c := range parsed.ReferenceList.Reference {
		out = append(out, c.ID)
	}
	return out, nil
}

func (r europePMCResult) toRawRecord() RawRecord {
	rec := RawRecord{
		BiomedicalAccessionID: r.PMID,
		ArchiveID:             r.PMCID,
		DOI:                   r.DOI,
		Title:                 r.Title,
		Abstract:              r.AbstractText,
		Journal:               r.JournalInfo.Journal.Title,
		DateRaw:               r.FirstPublicationDate,
		PubTypes:              r.PubTypeList.PubType,
	}
	for _, au := range r.AuthorList.Author {
		rec.Authors = append(rec.Authors, RawAuthor{Name: au.FullName})
	}
	count := r.CitedByCount
	rec.CitationCount = &count

	if r.PMCID != "" {
		rec.Links = append(rec.Links, RawLink{
			Kind:       "html-landing",
			URL:        "https://europepmc.org/article/PMC/" + r.PMCID,
			OpenAccess: r.IsOpenAccess == "Y",
		})
	}
	return rec
}

var _ ReferenceFetcher = (*EuropePMCAdapter)(nil)
var _ CitationFetcher = (*EuropePMCAdapter)(nil)
