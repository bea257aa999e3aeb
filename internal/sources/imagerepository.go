package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/soochol/litsearch-mcp/internal/gateway"
	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/query"
)

// ImageRepositoryAdapter is the image repository adapter. It has no JSON
// API; both search and single-record fetch scrape the repository's public
// HTML pages with goquery's CSS-selector matching, the same token-stream
// style as the rest of the pack's webpage scraping but selector-driven
// since result cards and detail pages are structured, not free text.
type ImageRepositoryAdapter struct {
	gw      *gateway.Gateway
	baseURL string
}

func NewImageRepositoryAdapter(gw *gateway.Gateway) *ImageRepositoryAdapter {
	return &ImageRepositoryAdapter{gw: gw, baseURL: "https://openi.nlm.nih.gov"}
}

func (a *ImageRepositoryAdapter) Name() string { return "imagerepository" }

func (a *ImageRepositoryAdapter) Search(ctx context.Context, q *query.NormalizedQuery, f Filters) (*SearchResult, error) {
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	start := f.Page * pageSize
	searchURL := fmt.Sprintf("%s/gridquery.php?q=%s&it=%d&m=%d", a.baseURL, url.QueryEscape(q.FreeText), start, start+pageSize)

	resp, err := a.gw.Fetch(ctx, searchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.Body)))
	if err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: search html", 0, err)
	}

	var records []RawRecord
	doc.Find(".gResult, .result-item, article.result").Each(func(_ int, s *goquery.Selection) {
		rec, ok := parseImageResultCard(a.baseURL, s)
		if ok {
			records = append(records, rec)
		}
	})
	return &SearchResult{Records: records, Total: len(records), Offset: start}, nil
}

func (a *ImageRepositoryAdapter) FetchOne(ctx context.Context, id string) (*RawRecord, error) {
	detailURL := fmt.Sprintf("%s/detailedresult.php?img=%s", a.baseURL, url.QueryEscape(id))
	resp, err := a.gw.Fetch(ctx, detailURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.Body)))
	if err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: detail html", 0, err)
	}

	title := strings.TrimSpace(doc.Find("h1, .panel-title, .caption").First().Text())
	if title == "" {
		return nil, litsearcherr.WrapSource(litsearcherr.NotFound, a.Name(), "id not found: "+id, 0, nil)
	}
	rec := &RawRecord{
		Title:    title,
		Abstract: strings.TrimSpace(doc.Find(".abstract, .caption-text, p.description").First().Text()),
		OtherIDs: map[string]string{a.Name(): id},
	}
	if journal := strings.TrimSpace(doc.Find(".journal, .source").First().Text()); journal != "" {
		rec.Journal = journal
	}
	if thumb, ok := doc.Find("img.figure, img.thumbnail, img#img").First().Attr("src"); ok && thumb != "" {
		rec.Links = append(rec.Links, RawLink{Kind: "pdf", URL: resolveURL(a.baseURL, thumb), OpenAccess: true})
	}
	return rec, nil
}

func parseImageResultCard(baseURL string, s *goquery.Selection) (RawRecord, bool) {
	link := s.Find("a").First()
	href, hasHref := link.Attr("href")
	title := strings.TrimSpace(link.Find("img").AttrOr("alt", ""))
	if title == "" {
		title = strings.TrimSpace(s.Find(".title, .caption").First().Text())
	}
	if !hasHref || title == "" {
		return RawRecord{}, false
	}

	id := extractImageID(href)
	rec := RawRecord{
		Title:    title,
		OtherIDs: map[string]string{"imagerepository": id},
	}
	if thumb, ok := s.Find("img").First().Attr("src"); ok && thumb != "" {
		rec.Links = append(rec.Links, RawLink{Kind: "pdf", URL: resolveURL(baseURL, thumb), OpenAccess: true})
	}
	return rec, true
}

func extractImageID(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if v := u.Query().Get("img"); v != "" {
		return v
	}
	return strings.TrimPrefix(u.Path, "/")
}

func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

var (
	_ Searcher = (*ImageRepositoryAdapter)(nil)
	_ Fetcher  = (*ImageRepositoryAdapter)(nil)
)
