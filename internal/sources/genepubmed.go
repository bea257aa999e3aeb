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
)

// GenePubMedAdapter is the gene/compound/variant literature family: given a
// gene symbol or compound id it returns the PubMed records the upstream
// database has already curated as relevant, rather than running its own
// search. It therefore implements Fetcher only — FetchOne's id is a gene
// symbol or accession, not an article id.
type GenePubMedAdapter struct {
	gw      *gateway.Gateway
	baseURL string
}

func NewGenePubMedAdapter(gw *gateway.Gateway) *GenePubMedAdapter {
	return &GenePubMedAdapter{gw: gw, baseURL: "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"}
}

func (a *GenePubMedAdapter) Name() string { return "genepubmed" }

type geneSearchResult struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type geneSummaryResult struct {
	Result map[string]json.RawMessage `json:"result"`
}

type geneSummaryDoc struct {
	UID     string `json:"uid"`
	Title   string `json:"title"`
	FullJournalName string `json:"fulljournalname"`
	PubDate string `json:"pubdate"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ArticleIds []struct {
		IDType string `json:"idtype"`
		Value  string `json:"value"`
	} `json:"articleids"`
}

// FetchOne treats id as a gene symbol and returns the first, most relevant
// curated PubMed record for it (gene2pubmed-style linkage via esearch with
// a [gene] field qualifier, then esummary for display fields).
func (a *GenePubMedAdapter) FetchOne(ctx context.Context, id string) (*RawRecord, error) {
	term := fmt.Sprintf("%s[gene]", id)
	searchURL := fmt.Sprintf("%s/esearch.fcgi?db=pubmed&retmode=json&retmax=1&term=%s", a.baseURL, url.QueryEscape(term))
	resp, err := a.gw.Fetch(ctx, searchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var search geneSearchResult
	if err := json.Unmarshal(resp.Body, &search); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: esearch json", 0, err)
	}
	if len(search.ESearchResult.IDList) == 0 {
		return nil, litsearcherr.WrapSource(litsearcherr.NotFound, a.Name(), "no linked articles for gene: "+id, 0, nil)
	}

	pmid := search.ESearchResult.IDList[0]
	summaryURL := fmt.Sprintf("%s/esummary.fcgi?db=pubmed&retmode=json&id=%s", a.baseURL, url.QueryEscape(pmid))
	resp, err = a.gw.Fetch(ctx, summaryURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var summary geneSummaryResult
	if err := json.Unmarshal(resp.Body, &summary); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: esummary json", 0, err)
	}
	raw, ok := summary.Result[pmid]
	if !ok {
		return nil, litsearcherr.WrapSource(litsearcherr.NotFound, a.Name(), "esummary missing doc for pmid: "+pmid, 0, nil)
	}
	var doc geneSummaryDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: esummary doc json", 0, err)
	}

	rec := &RawRecord{
		BiomedicalAccessionID: pmid,
		Title:                 doc.Title,
		Journal:               doc.FullJournalName,
		DateRaw:               doc.PubDate,
	}
	for _, au := range doc.Authors {
		rec.Authors = append(rec.Authors, RawAuthor{Name: au.Name})
	}
	for _, aid := range doc.ArticleIds {
		if strings.EqualFold(aid.IDType, "doi") {
			rec.DOI = aid.Value
		}
	}
	rec.Links = append(rec.Links, RawLink{Kind: "html-landing", URL: "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/"})
	return rec, nil
}

var _ Fetcher = (*GenePubMedAdapter)(nil)
