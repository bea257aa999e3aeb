// Package sessioncache holds per-session recent-result history and a
// detail cache of UnifiedArticles, bounded by count and age, generalizing
// the teacher's engine.SessionManager to the search pipeline's session
// model (component design §4.7).
package sessioncache

import (
	"sync"
	"time"

	"github.com/soochol/litsearch-mcp/internal/article"
)

const (
	defaultMaxResultSets = 20
	defaultMaxDetails    = 500
	defaultMaxAge        = 24 * time.Hour
)

// RecentResultSet is one search or pipeline run's identifier list.
type RecentResultSet struct {
	Identifiers []string
	Origin      string // the query or pipeline name that produced it
	CreatedAt   time.Time
}

// session holds one session's bounded history, guarded by its own mutex
// so concurrent step executions in different sessions never block each
// other (component design §4.7's "reads do not block other sessions").
type session struct {
	mu          sync.Mutex
	resultSets  []RecentResultSet
	details     map[string]article.UnifiedArticle
	detailOrder []string // insertion order, for count-bounded eviction
	lastActive  time.Time
}

// Cache manages every active session.
type Cache struct {
	mu             sync.Mutex
	sessions       map[string]*session
	maxResultSets  int
	maxDetails     int
	maxAge         time.Duration
	now            func() time.Time
}

// Option configures a Cache at construction time.
type Option func(*Cache)

func WithMaxResultSets(n int) Option { return func(c *Cache) { c.maxResultSets = n } }
func WithMaxDetails(n int) Option    { return func(c *Cache) { c.maxDetails = n } }
func WithMaxAge(d time.Duration) Option { return func(c *Cache) { c.maxAge = d } }
func withClock(fn func() time.Time) Option { return func(c *Cache) { c.now = fn } }

func New(opts ...Option) *Cache {
	c := &Cache{
		sessions:      make(map[string]*session),
		maxResultSets: defaultMaxResultSets,
		maxDetails:    defaultMaxDetails,
		maxAge:        defaultMaxAge,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) getOrCreate(sessionID string) *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[sessionID]
	if !ok {
		s = &session{details: make(map[string]article.UnifiedArticle), lastActive: c.now()}
		c.sessions[sessionID] = s
	}
	return s
}

// AddResultSet records a new result set and refreshes the detail cache
// with the articles it names, evicting the oldest entries past each bound.
func (c *Cache) AddResultSet(sessionID, origin string, articles []article.UnifiedArticle) {
	s := c.getOrCreate(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(articles))
	for _, a := range articles {
		id := a.PrimaryID()
		if id == "" {
			continue
		}
		ids = append(ids, id)
		if _, exists := s.details[id]; !exists {
			s.detailOrder = append(s.detailOrder, id)
		}
		s.details[id] = a
	}

	s.resultSets = append(s.resultSets, RecentResultSet{Identifiers: ids, Origin: origin, CreatedAt: c.now()})
	if len(s.resultSets) > c.maxResultSets {
		s.resultSets = s.resultSets[len(s.resultSets)-c.maxResultSets:]
	}
	for len(s.detailOrder) > c.maxDetails {
		evict := s.detailOrder[0]
		s.detailOrder = s.detailOrder[1:]
		delete(s.details, evict)
	}
	s.lastActive = c.now()
}

// ResolveIDs resolves an id list that may contain the literal token "last",
// which expands to the identifiers of the most recent result set.
func (c *Cache) ResolveIDs(sessionID string, ids []string) []string {
	s := c.getOrCreate(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = c.now()

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "last" {
			if len(s.resultSets) == 0 {
				continue
			}
			out = append(out, s.resultSets[len(s.resultSets)-1].Identifiers...)
			continue
		}
		out = append(out, id)
	}
	return out
}

// Detail returns the cached UnifiedArticle for id, if present.
func (c *Cache) Detail(sessionID, id string) (article.UnifiedArticle, bool) {
	s := c.getOrCreate(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = c.now()
	a, ok := s.details[id]
	return a, ok
}

// Sweep discards sessions idle beyond maxAge in their entirety.
func (c *Cache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for id, s := range c.sessions {
		s.mu.Lock()
		expired := now.Sub(s.lastActive) > c.maxAge
		s.mu.Unlock()
		if expired {
			delete(c.sessions, id)
		}
	}
}

// SessionCount reports how many sessions are currently tracked, for tests
// and the status server.
func (c *Cache) SessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}
