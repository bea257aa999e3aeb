package facade

import (
	"context"
	"testing"
	"time"

	"github.com/soochol/litsearch-mcp/internal/pipeline"
	"github.com/soochol/litsearch-mcp/internal/query"
	"github.com/soochol/litsearch-mcp/internal/scheduler"
	"github.com/soochol/litsearch-mcp/internal/sessioncache"
	"github.com/soochol/litsearch-mcp/internal/sources"
	"github.com/soochol/litsearch-mcp/internal/store"
)

// fakeAdapter is a minimal in-memory Searcher standing in for a real
// scholarly-source adapter in facade tests, which exercise the tool
// surface rather than any one source's wire format.
type fakeAdapter struct {
	name    string
	records []sources.RawRecord
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Search(ctx context.Context, q *query.NormalizedQuery, f sources.Filters) (*sources.SearchResult, error) {
	return &sources.SearchResult{Records: a.records, Total: len(a.records)}, nil
}

func sampleRecords() []sources.RawRecord {
	return []sources.RawRecord{
		{BiomedicalAccessionID: "1", Title: "Diabetes treatment outcomes", DateRaw: "2024-01-01"},
		{BiomedicalAccessionID: "2", Title: "Diabetes and exercise", DateRaw: "2023-06-01"},
	}
}

// newTestFacade builds a Facade backed by temp-directory file stores and a
// registry carrying one fake adapter per quick_search default source, so
// the facade's unified_search path resolves and runs end to end.
func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	workspaceRoot := t.TempDir()
	globalRoot := t.TempDir()

	pipelines := store.NewFilePipelineRepository(workspaceRoot, globalRoot)
	runs := store.NewFileRunRepository(workspaceRoot, globalRoot)
	schedules := store.NewFileScheduleRepository(workspaceRoot, globalRoot)
	loader := store.NewLoader(pipelines, workspaceRoot, globalRoot)

	registry := sources.NewRegistry()
	registry.Register(&fakeAdapter{name: "pubmed", records: sampleRecords()})
	registry.Register(&fakeAdapter{name: "europepmc", records: sampleRecords()})

	engine := pipeline.NewEngine(pipeline.Deps{Registry: registry, Analyzer: query.NewAnalyzer(nil)})
	sched := scheduler.New(schedules, pipelines, runs, engine)
	sessions := sessioncache.New()

	fixedNow := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	return New(Facade{
		Pipelines:        pipelines,
		Runs:             runs,
		Schedules:        schedules,
		Loader:           loader,
		Engine:           engine,
		Scheduler:        sched,
		Sessions:         sessions,
		Now:              func() time.Time { return fixedNow },
		WorkspaceEnabled: true,
	})
}
