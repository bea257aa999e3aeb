package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/soochol/litsearch-mcp/internal/gateway"
)

// MeshThesaurusAdapter is the controlled biomedical vocabulary source. It
// satisfies query.Thesaurus rather than the Searcher/Fetcher capability
// set: its only consumer is the query analyzer's term-expansion step, not
// the source-fanout engine. Lookups are cached in-process since the same
// handful of topic terms recur across a session's queries.
type MeshThesaurusAdapter struct {
	gw      *gateway.Gateway
	baseURL string

	mu    sync.Mutex
	cache map[string]meshEntry
}

type meshEntry struct {
	synonyms  []string
	canonical string
	found     bool
}

func NewMeshThesaurusAdapter(gw *gateway.Gateway) *MeshThesaurusAdapter {
	return &MeshThesaurusAdapter{
		gw:      gw,
		baseURL: "https://id.nlm.nih.gov/mesh/lookup",
		cache:   make(map[string]meshEntry),
	}
}

func (a *MeshThesaurusAdapter) Name() string { return "meshthesaurus" }

type meshTermRecord struct {
	Resource string `json:"resource"`
	Label    string `json:"label"`
}

// Synonyms implements query.Thesaurus: it looks up descriptor matches for
// term and returns the entry points (synonyms) plus the preferred label.
// An upstream error is treated the same as a miss — vocabulary expansion
// is a best-effort enrichment, never a hard dependency for search to run.
func (a *MeshThesaurusAdapter) Synonyms(term string) (synonyms []string, canonical string, ok bool) {
	key := strings.ToLower(strings.TrimSpace(term))
	if key == "" {
		return nil, "", false
	}

	a.mu.Lock()
	if entry, hit := a.cache[key]; hit {
		a.mu.Unlock()
		return entry.synonyms, entry.canonical, entry.found
	}
	a.mu.Unlock()

	entry := a.lookup(key)

	a.mu.Lock()
	a.cache[key] = entry
	a.mu.Unlock()

	return entry.synonyms, entry.canonical, entry.found
}

func (a *MeshThesaurusAdapter) lookup(term string) meshEntry {
	ctx := context.Background()
	fetchURL := fmt.Sprintf("%s/term?label=%s&match=contains&limit=10", a.baseURL, url.QueryEscape(term))
	resp, err := a.gw.Fetch(ctx, fetchURL, http.MethodGet, nil, nil)
	if err != nil {
		return meshEntry{}
	}
	var records []meshTermRecord
	if err := json.Unmarshal(resp.Body, &records); err != nil {
		return meshEntry{found: false}
	}
	if len(records) == 0 {
		return meshEntry{}
	}

	canonical := records[0].Label
	seen := map[string]bool{strings.ToLower(canonical): true}
	var syns []string
	for _, r := range records {
		low := strings.ToLower(r.Label)
		if seen[low] {
			continue
		}
		seen[low] = true
		syns = append(syns, r.Label)
	}
	return meshEntry{synonyms: syns, canonical: canonical, found: true}
}
