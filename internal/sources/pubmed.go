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

// PubMedAdapter is the national biomedical index adapter. It implements a
// two-call pattern (esearch for ids, efetch for records) and tolerates
// namespace prefix drift and missing optional elements in the XML response
// — it never raises on an unknown tag.
type PubMedAdapter struct {
	gw      *gateway.Gateway
	baseURL string
}

func NewPubMedAdapter(gw *gateway.Gateway) *PubMedAdapter {
	return &PubMedAdapter{gw: gw, baseURL: "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"}
}

func (a *PubMedAdapter) Name() string { return "pubmed" }

type esearchResult struct {
	ESearchResult struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

func (a *PubMedAdapter) Search(ctx context.Context, q *query.NormalizedQuery, f Filters) (*SearchResult, error) {
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	retstart := f.Page * pageSize

	var unsupported []query.UnsupportedFilter
	if q.OpenAccess {
		unsupported = append(unsupported, query.UnsupportedFilter{Field: "open_access", Reason: "pubmed has no OA filter"})
	}

	term := buildPubMedTerm(q)
	searchURL := fmt.Sprintf("%s/esearch.fcgi?db=pubmed&retmode=json&term=%s&retstart=%d&retmax=%d",
		a.baseURL, url.QueryEscape(term), retstart, pageSize)

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
		return &SearchResult{Total: total, Offset: retstart, Unsupported: unsupported}, nil
	}

	records, err := a.fetchMany(ctx, parsed.ESearchResult.IDList)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Records: records, Total: total, Offset: retstart, Unsupported: unsupported}, nil
}

func (a *PubMedAdapter) FetchOne(ctx context.Context, id string) (*RawRecord, error) {
	records, err := a.fetchMany(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, litsearcherr.WrapSource(litsearcherr.NotFound, a.Name(), "id not found: "+id, 0, nil)
	}
	return &records[0], nil
}

func (a *PubMedAdapter) fetchMany(ctx context.Context, ids []string) ([]RawRecord, error) {
	fetchURL := fmt.Sprintf("%s/efetch.fcgi?db=pubmed&retmode=xml&id=%s", a.baseURL, url.QueryEscape(strings.Join(ids, ",")))
	resp, err := a.gw.Fetch(ctx, fetchURL, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}

	var set pubmedArticleSet
	if err := xml.Unmarshal(resp.Body, &set); err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, a.Name(), "parse-upstream: efetch xml", 0, err)
	}

	out := make([]RawRecord, 0, len(set.Articles))
	for _, art := range set.Articles {
		out = append(out, art.toRawRecord())
	}
	return out, nil
}

// --- XML shapes, deliberately loose: unknown elements are simply ignored
// by encoding/xml when not named in the struct, which is exactly the
// "never raise on unknown tags" behavior the design calls for.

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	MedlineCitation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			ArticleTitle string `xml:"ArticleTitle"`
			Abstract     struct {
				AbstractText []string `xml:"AbstractText"`
			} `xml:"Abstract"`
			Journal struct {
				Title     string `xml:"Title"`
				PubDate   struct {
					Year  string `xml:"Year"`
					Month string `xml:"Month"`
					Day   string `xml:"Day"`
				} `xml:"JournalIssue>PubDate"`
			} `xml:"Journal"`
			AuthorList struct {
				Authors []pubmedAuthor `xml:"Author"`
			} `xml:"AuthorList"`
			PublicationTypeList struct {
				Types []string `xml:"PublicationType"`
			} `xml:"PublicationTypeList"`
			Language string `xml:"Language"`
		} `xml:"Article"`
		MeshHeadingList struct {
			Headings []struct {
				DescriptorName string `xml:"DescriptorName"`
			} `xml:"MeshHeading"`
		} `xml:"MeshHeadingList"`
	} `xml:"MedlineCitation"`
	PubmedData struct {
		ArticleIdList struct {
			IDs []pubmedArticleID `xml:"ArticleId"`
		} `xml:"ArticleIdList"`
	} `xml:"PubmedData"`
}

type pubmedAuthor struct {
	LastName string `xml:"LastName"`
	ForeName string `xml:"ForeName"`
	Affiliation struct {
		Text string `xml:"Affiliation"`
	} `xml:"AffiliationInfo"`
}

type pubmedArticleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}

func (p pubmedArticle) toRawRecord() RawRecord {
	rec := RawRecord{
		BiomedicalAccessionID: p.MedlineCitation.PMID,
		Title:                 p.MedlineCitation.Article.ArticleTitle,
		Journal:               p.MedlineCitation.Article.Journal.Title,
		Language:              p.MedlineCitation.Article.Language,
	}
	rec.Abstract = strings.Join(p.MedlineCitation.Article.Abstract.AbstractText, " ")

	pd := p.MedlineCitation.Article.Journal.PubDate
	rec.DateRaw = joinDateParts(pd.Year, monthNumber(pd.Month), pd.Day)

	for _, aut := range p.MedlineCitation.Article.AuthorList.Authors {
		name := strings.TrimSpace(aut.ForeName + " " + aut.LastName)
		if name == "" {
			continue
		}
		rec.Authors = append(rec.Authors, RawAuthor{Name: name, Affiliation: aut.Affiliation.Text})
	}

	for _, t := range p.MedlineCitation.Article.PublicationTypeList.Types {
		rec.PubTypes = append(rec.PubTypes, t)
	}
	for _, h := range p.MedlineCitation.MeshHeadingList.Headings {
		if h.DescriptorName != "" {
			rec.Descriptors = append(rec.Descriptors, h.DescriptorName)
		}
	}

	for _, id := range p.PubmedData.ArticleIdList.IDs {
		switch id.IDType {
		case "doi":
			rec.DOI = id.Value
		case "pmc":
			rec.ArchiveID = id.Value
		}
	}

	if rec.BiomedicalAccessionID != "" {
		rec.Links = append(rec.Links, RawLink{
			Kind: "html-landing",
			URL:  "https://pubmed.ncbi.nlm.nih.gov/" + rec.BiomedicalAccessionID + "/",
		})
	}

	return rec
}

func joinDateParts(year, month, day string) string {
	parts := []string{year}
	if month != "" {
		parts = append(parts, month)
	}
	if day != "" && month != "" {
		parts = append(parts, day)
	}
	return strings.Join(parts, "-")
}

var monthAbbrev = map[string]string{
	"Jan": "01", "Feb": "02", "Mar": "03", "Apr": "04", "May": "05", "Jun": "06",
	"Jul": "07", "Aug": "08", "Sep": "09", "Oct": "10", "Nov": "11", "Dec": "12",
}

func monthNumber(m string) string {
	if v, ok := monthAbbrev[m]; ok {
		return v
	}
	return m
}

func buildPubMedTerm(q *query.NormalizedQuery) string {
	if q == nil {
		return ""
	}
	if len(q.Vocabulary) > 0 {
		return strings.Join(q.Vocabulary, " AND ")
	}
	return q.FreeText
}
