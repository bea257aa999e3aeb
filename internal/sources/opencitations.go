package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/soochol/litsearch-mcp/internal/gateway"
	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/normalize"
)

// OpenCitationsAdapter is the citation-metrics service: DOI-keyed citation
// counts and citing/cited lists only, no free-text search.
type OpenCitationsAdapter struct {
	gw      *gateway.Gateway
	baseURL string
}

func NewOpenCitationsAdapter(gw *gateway.Gateway) *OpenCitationsAdapter {
	return &OpenCitationsAdapter{gw: gw, baseURL: "https://opencitations.net/index/coci/api/v1"}
}

func (a *OpenCitationsAdapter) Name() string { return "opencitations" }

type ociLink struct {
	OCI      string `json:"oci"`
	Citing   string `json:"citing"`
	Cited    string `json:"cited"`
}

func (a *OpenCitationsAdapter) FetchOne(ctx context.Context, id string) (*RawRecord, error) {
	doi := normalize.DOI(id)
	count, err := a.citationCount(ctx, doi)
	if err != nil {
		return nil, err
	}
	rec := &RawRecord{
		DOI:           doi,
		CitationCount: &count,
	}
	return rec, nil
}

func (a *OpenCitationsAdapter) citationCount(ctx context.Context, doi string) (int, error) {
	fetchURL := fmt.Sprintf("%s/citation-count/%s", a.baseURL, url.PathEscape(doi))
	resp, err := a.gw.Fetch(ctx, fetchURL, http.MethodGet, nil, nil)
	if err != nil {
		return 0, err
	}
	var parsed []struct {
		Count string `json:"count"`
	}
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return 0, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: citation-count json", 0, err)
	}
	if len(parsed) == 0 {
		return 0, nil
	}
	n, _ := strconv.Atoi(parsed[0].Count)
	return n, nil
}

func (a *OpenCitationsAdapter) FetchCitations(ctx context.Context, id string) ([]string, error) {
	doi := normalize.DOI(id)
	fetchURL := fmt.Sprintf("%s/citations/%s", a.baseURL, url.PathEscape(doi))
	resp, err := a.gw.Fetch(ctx, fetchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var parsed []ociLink
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: citations json", 0, err)
	}
	out := make([]string, 0, len(parsed))
	for _, l := range parsed {
		out = append(out, l.Citing)
	}
	return out, nil
}

func (a *OpenCitationsAdapter) FetchReferences(ctx context.Context, id string) ([]string, error) {
	doi := normalize.DOI(id)
	fetchURL := fmt.Sprintf("%s/references/%s", a.baseURL, url.PathEscape(doi))
	resp, err := a.gw.Fetch(ctx, fetchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var parsed []ociLink
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: references json", 0, err)
	}
	out := make([]string, 0, len(parsed))
	for _, l := range parsed {
		out = append(out, l.Cited)
	}
	return out, nil
}

var (
	_ Fetcher          = (*OpenCitationsAdapter)(nil)
	_ ReferenceFetcher = (*OpenCitationsAdapter)(nil)
	_ CitationFetcher  = (*OpenCitationsAdapter)(nil)
)
