package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/soochol/litsearch-mcp/internal/gateway"
	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/normalize"
	"github.com/soochol/litsearch-mcp/internal/query"
)

// CrossrefAdapter is the DOI registry of record: authoritative DOI
// metadata, plus reverse lookup by free-text/title/author.
type CrossrefAdapter struct {
	gw      *gateway.Gateway
	mailto  string
	baseURL string
}

func NewCrossrefAdapter(gw *gateway.Gateway, mailto string) *CrossrefAdapter {
	return &CrossrefAdapter{gw: gw, mailto: mailto, baseURL: "https://api.crossref.org"}
}

func (a *CrossrefAdapter) Name() string { return "crossref" }

type crossrefWork struct {
	DOI      string `json:"DOI"`
	Title    []string `json:"title"`
	Abstract string `json:"abstract"`
	ContainerTitle []string `json:"container-title"`
	Type     string `json:"type"`
	Language string `json:"language"`
	IsReferencedByCount int `json:"is-referenced-by-count"`
	Published struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"published"`
	Author []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"author"`
	Link []struct {
		URL         string `json:"URL"`
		ContentType string `json:"content-type"`
	} `json:"link"`
}

type crossrefWorksResponse struct {
	Message struct {
		TotalResults int            `json:"total-results"`
		Items        []crossrefWork `json:"items"`
	} `json:"message"`
}

type crossrefWorkResponse struct {
	Message crossrefWork `json:"message"`
}

func (a *CrossrefAdapter) Search(ctx context.Context, q *query.NormalizedQuery, f Filters) (*SearchResult, error) {
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := f.Page * pageSize
	searchURL := fmt.Sprintf("%s/works?query=%s&rows=%d&offset=%d&mailto=%s",
		a.baseURL, url.QueryEscape(q.FreeText), pageSize, offset, url.QueryEscape(a.mailto))

	resp, err := a.gw.Fetch(ctx, searchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var parsed crossrefWorksResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: works json", 0, err)
	}
	records := make([]RawRecord, 0, len(parsed.Message.Items))
	for _, w := range parsed.Message.Items {
		records = append(records, w.toRawRecord())
	}
	return &SearchResult{Records: records, Total: parsed.Message.TotalResults, Offset: offset}, nil
}

func (a *CrossrefAdapter) FetchOne(ctx context.Context, id string) (*RawRecord, error) {
	doi := normalize.DOI(id)
	fetchURL := fmt.Sprintf("%s/works/%s?mailto=%s", a.baseURL, url.PathEscape(doi), url.QueryEscape(a.mailto))
	resp, err := a.gw.Fetch(ctx, fetchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var parsed crossrefWorkResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: work json", 0, err)
	}
	rec := parsed.Message.toRawRecord()
	return &rec, nil
}

func (w crossrefWork) toRawRecord() RawRecord {
	rec := RawRecord{
		DOI:      w.DOI,
		Journal:  strings.Join(w.ContainerTitle, " "),
		Abstract: w.Abstract,
		Language: w.Language,
	}
	if len(w.Title) > 0 {
		rec.Title = w.Title[0]
	}
	if w.Type != "" {
		rec.PubTypes = append(rec.PubTypes, w.Type)
	}
	if len(w.Published.DateParts) > 0 {
		parts := w.Published.DateParts[0]
		str := make([]string, 0, len(parts))
		for _, p := range parts {
			str = append(str, fmt.Sprintf("%02d", p))
		}
		rec.DateRaw = strings.Join(str, "-")
	}
	for _, au := range w.Author {
		name := strings.TrimSpace(au.Given + " " + au.Family)
		if name != "" {
			rec.Authors = append(rec.Authors, RawAuthor{Name: name})
		}
	}
	count := w.IsReferencedByCount
	rec.CitationCount = &count
	for _, l := range w.Link {
		if l.ContentType == "application/pdf" {
			rec.Links = append(rec.Links, RawLink{Kind: "pdf", URL: l.URL})
		}
	}
	if w.DOI != "" {
		rec.Links = append(rec.Links, RawLink{Kind: "html-landing", URL: "https://doi.org/" + w.DOI})
	}
	return rec
}

var (
	_ Searcher = (*CrossrefAdapter)(nil)
	_ Fetcher  = (*CrossrefAdapter)(nil)
)
