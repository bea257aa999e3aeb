package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/soochol/litsearch-mcp/internal/extract"
	"github.com/soochol/litsearch-mcp/internal/gateway"
	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/normalize"
)

// UnpaywallAdapter is the large open-access aggregator. It is DOI-keyed
// only: it has no free-text search capability, so it implements Fetcher
// but not Searcher (an absent capability, not an error).
type UnpaywallAdapter struct {
	gw      *gateway.Gateway
	email   string
	baseURL string
}

func NewUnpaywallAdapter(gw *gateway.Gateway, email string) *UnpaywallAdapter {
	return &UnpaywallAdapter{gw: gw, email: email, baseURL: "https://api.unpaywall.org/v2"}
}

func (a *UnpaywallAdapter) Name() string { return "unpaywall" }

type unpaywallResponse struct {
	DOI      string `json:"doi"`
	Title    string `json:"title"`
	Journal  string `json:"journal_name"`
	Year     int    `json:"year"`
	IsOA     bool   `json:"is_oa"`
	BestOALocation *struct {
		URLForPDF     string `json:"url_for_pdf"`
		URLForLanding string `json:"url"`
	} `json:"best_oa_location"`
	ZAuthors []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"z_authors"`
}

func (a *UnpaywallAdapter) FetchOne(ctx context.Context, id string) (*RawRecord, error) {
	doi := normalize.DOI(id)
	fetchURL := fmt.Sprintf("%s/%s?email=%s", a.baseURL, url.PathEscape(doi), url.QueryEscape(a.email))
	resp, err := a.gw.Fetch(ctx, fetchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var parsed unpaywallResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: unpaywall json", 0, err)
	}

	rec := &RawRecord{
		DOI:     normalize.DOI(parsed.DOI),
		Title:   parsed.Title,
		Journal: parsed.Journal,
	}
	if parsed.Year > 0 {
		rec.DateRaw = fmt.Sprintf("%d", parsed.Year)
	}
	for _, au := range parsed.ZAuthors {
		name := (au.Given + " " + au.Family)
		rec.Authors = append(rec.Authors, RawAuthor{Name: name})
	}
	if parsed.BestOALocation != nil {
		if parsed.BestOALocation.URLForPDF != "" {
			rec.Links = append(rec.Links, RawLink{Kind: "pdf", URL: parsed.BestOALocation.URLForPDF, OpenAccess: parsed.IsOA})
		}
		if parsed.BestOALocation.URLForLanding != "" {
			rec.Links = append(rec.Links, RawLink{Kind: "html-landing", URL: parsed.BestOALocation.URLForLanding, OpenAccess: parsed.IsOA})
		}
	}
	return rec, nil
}

// FetchPDFText resolves id's best open-access PDF link and extracts its
// text, for sources (most of them) that expose no structured fulltext API
// of their own — the PDF-link fallback a pipeline's fetch-fulltext step
// reaches for when the requested source can't satisfy FulltextFetcher.
func (a *UnpaywallAdapter) FetchPDFText(ctx context.Context, id string) (string, error) {
	rec, err := a.FetchOne(ctx, id)
	if err != nil {
		return "", err
	}
	var pdfURL string
	for _, link := range rec.Links {
		if link.Kind == "pdf" {
			pdfURL = link.URL
			break
		}
	}
	if pdfURL == "" {
		return "", litsearcherr.New(litsearcherr.NotFound, "no open-access pdf link for "+id)
	}

	resp, err := a.gw.Fetch(ctx, pdfURL, http.MethodGet, nil, nil)
	if err != nil {
		return "", err
	}
	text, err := extract.Extract("application/pdf", bytes.NewReader(resp.Body))
	if err != nil {
		return "", litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "extract pdf text", resp.Status, err)
	}
	return text, nil
}

var _ Fetcher = (*UnpaywallAdapter)(nil)
