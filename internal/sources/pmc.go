package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/soochol/litsearch-mcp/internal/gateway"
	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/query"
)

// PMCAdapter is the first continental full-text archive adapter (PubMed
// Central style): search via the shared eutils envelope, full text via a
// JATS-like XML body. Like PubMed, it tolerates namespace drift and
// missing optional elements.
type PMCAdapter struct {
	gw      *gateway.Gateway
	baseURL string
}

func NewPMCAdapter(gw *gateway.Gateway) *PMCAdapter {
	return &PMCAdapter{gw: gw, baseURL: "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"}
}

func (a *PMCAdapter) Name() string { return "pmc" }

func (a *PMCAdapter) Search(ctx context.Context, q *query.NormalizedQuery, f Filters) (*SearchResult, error) {
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	retstart := f.Page * pageSize

	searchURL := fmt.Sprintf("%s/esearch.fcgi?db=pmc&retmode=json&term=%s&retstart=%d&retmax=%d",
		a.baseURL, url.QueryEscape(q.FreeText), retstart, pageSize)
	resp, err := a.gw.Fetch(ctx, searchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var parsed esearchResult
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: esearch json", 0, err)
	}
	total, _ := strconv.Atoi(parsed.ESearchResult.Count)
	if len(parsed.ESearchResult.IDList) == 0 {
		return &SearchResult{Total: total, Offset: retstart}, nil
	}

	records, err := a.fetchMany(ctx, parsed.ESearchResult.IDList)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Records: records, Total: total, Offset: retstart}, nil
}

func (a *PMCAdapter) FetchOne(ctx context.Context, id string) (*RawRecord, error) {
	records, err := a.fetchMany(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, litsearcherr.WrapSource(litsearcherr.NotFound, a.Name(), "id not found: "+id, 0, nil)
	}
	return &records[0], nil
}

func (a *PMCAdapter) fetchMany(ctx context.Context, ids []string) ([]RawRecord, error) {
	fetchURL := fmt.Sprintf("%s/efetch.fcgi?db=pmc&retmode=xml&id=%s", a.baseURL, url.QueryEscape(strings.Join(ids, ",")))
	resp, err := a.gw.Fetch(ctx, fetchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var set pmcArticleSet
	if err := xml.Unmarshal(resp.Body, &set); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: efetch xml", 0, err)
	}
	out := make([]RawRecord, 0, len(set.Articles))
	for _, art := range set.Articles {
		out = append(out, art.toRawRecord())
	}
	return out, nil
}

func (a *PMCAdapter) FetchFulltext(ctx context.Context, id string, sections []string) (*FulltextSections, error) {
	fetchURL := fmt.Sprintf("%s/efetch.fcgi?db=pmc&retmode=xml&id=%s", a.baseURL, url.QueryEscape(id))
	resp, err := a.gw.Fetch(ctx, fetchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	var set pmcArticleSet
	if err := xml.Unmarshal(resp.Body, &set); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: efetch xml", 0, err)
	}
	if len(set.Articles) == 0 {
		return nil, litsearcherr.WrapSource(litsearcherr.NotFound, a.Name(), "id not found: "+id, 0, nil)
	}
	art := set.Articles[0]
	out := &FulltextSections{Sections: make(map[string]string)}
	for _, sec := range art.Body.Sections {
		title := strings.ToLower(strings.TrimSpace(sec.Title))
		if title == "" {
			title = "untitled"
		}
		if len(sections) > 0 && !containsFold(sections, title) {
			continue
		}
		out.Sections[title] = strings.Join(sec.Paragraphs, "\n\n")
	}
	return out, nil
}

func containsFold(list []string, want string) bool {
	for _, s := range list {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}

type pmcArticleSet struct {
	XMLName  xml.Name     `xml:"pmc-articleset"`
	Articles []pmcArticle `xml:"article"`
}

type pmcArticle struct {
	Front struct {
		ArticleMeta struct {
			ArticleIDs []pmcArticleID `xml:"article-id"`
			TitleGroup struct {
				ArticleTitle string `xml:"article-title"`
			} `xml:"title-group"`
			Abstract struct {
				Paragraphs []string `xml:"p"`
			} `xml:"abstract"`
			ContribGroup struct {
				Contribs []pmcContrib `xml:"contrib"`
			} `xml:"contrib-group"`
			PubDate struct {
				Year  string `xml:"year"`
				Month string `xml:"month"`
				Day   string `xml:"day"`
			} `xml:"pub-date"`
		} `xml:"article-meta"`
		JournalMeta struct {
			JournalTitle string `xml:"journal-title"`
		} `xml:"journal-meta"`
	} `xml:"front"`
	Body struct {
		Sections []pmcSection `xml:"sec"`
	} `xml:"body"`
}

type pmcArticleID struct {
	PubIDType string `xml:"pub-id-type,attr"`
	Value     string `xml:",chardata"`
}

type pmcContrib struct {
	Surname string `xml:"name>surname"`
	GivenNames string `xml:"name>given-names"`
}

type pmcSection struct {
	Title      string   `xml:"title"`
	Paragraphs []string `xml:"p"`
}

func (p pmcArticle) toRawRecord() RawRecord {
	rec := RawRecord{
		Title:   p.Front.ArticleMeta.TitleGroup.ArticleTitle,
		Journal: p.Front.JournalMeta.JournalTitle,
	}
	rec.Abstract = strings.Join(p.Front.ArticleMeta.Abstract.Paragraphs, " ")
	rec.DateRaw = joinDateParts(p.Front.ArticleMeta.PubDate.Year, p.Front.ArticleMeta.PubDate.Month, p.Front.ArticleMeta.PubDate.Day)

	for _, id := range p.Front.ArticleMeta.ArticleIDs {
		switch id.PubIDType {
		case "pmc":
			rec.ArchiveID = id.Value
		case "pmid":
			rec.BiomedicalAccessionID = id.Value
		case "doi":
			rec.DOI = id.Value
		}
	}

	for _, c := range p.Front.ArticleMeta.ContribGroup.Contribs {
		name := strings.TrimSpace(c.GivenNames + " " + c.Surname)
		if name != "" {
			rec.Authors = append(rec.Authors, RawAuthor{Name: name})
		}
	}

	if rec.ArchiveID != "" {
		rec.Links = append(rec.Links, RawLink{
			Kind:       "html-landing",
			URL:        "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC" + rec.ArchiveID + "/",
			OpenAccess: true,
		})
		rec.Links = append(rec.Links, RawLink{
			Kind:       "xml",
			URL:        "https://www.ncbi.nlm.nih.gov/pmc/articles/PMC" + rec.ArchiveID + "/?report=xml",
			OpenAccess: true,
		})
	}

	return rec
}
