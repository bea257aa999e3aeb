// Package scheduler runs enabled pipelines on their cron schedule,
// generalizing the teacher's internal/services/scheduler*.go (robfig/cron
// wrapper plus ConcurrencyLimiter) from workflow execution to pipeline
// execution: a 5-field-only cron parser (internal/services/scheduler/cron.go's
// parseCronExpr, minus its 6-field fallback, per spec.md), a fixed fleet
// ceiling (five enabled schedules, five concurrent runs) enforced with a
// buffered-channel semaphore in place of the teacher's two-level
// ConcurrencyLimiter, and a fresh diff/notify step the teacher has no
// equivalent for.
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/soochol/litsearch-mcp/internal/article"
	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/pipeline"
	"github.com/soochol/litsearch-mcp/internal/store"
)

const (
	tickInterval   = 60 * time.Second
	maxEnabled     = 5
	maxConcurrent  = 5
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Notifier delivers a best-effort "new run available" event. The real
// MCP resources/updated transport is out of scope; tests and the default
// wiring use an in-process implementation.
type Notifier interface {
	Notify(ctx context.Context, scope pipeline.Scope, pipelineName string, run *pipeline.Run)
}

// NoopNotifier drops every event.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, pipeline.Scope, string, *pipeline.Run) {}

// Scheduler ticks once a minute, finds every enabled schedule whose cron
// expression is due, and runs its pipeline — bounded by a fleet-wide
// concurrency semaphore so one slow source never lets the whole schedule
// set back up.
type Scheduler struct {
	Schedules *store.FileScheduleRepository
	Pipelines *store.FilePipelineRepository
	Runs      *store.FileRunRepository
	Engine    *pipeline.Engine
	Notifier  Notifier
	Now       func() time.Time

	sem     chan struct{}
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	nextRun map[string]time.Time // "scope/name" -> next scheduled fire time
}

func New(schedules *store.FileScheduleRepository, pipelines *store.FilePipelineRepository, runs *store.FileRunRepository, engine *pipeline.Engine) *Scheduler {
	s := &Scheduler{
		Schedules: schedules,
		Pipelines: pipelines,
		Runs:      runs,
		Engine:    engine,
		Notifier:  NoopNotifier{},
		Now:       time.Now,
		sem:       make(chan struct{}, maxConcurrent),
		stopCh:    make(chan struct{}),
		nextRun:   make(map[string]time.Time),
	}
	return s
}

// ParseCron parses a 5-field cron expression, the only form spec.md
// accepts (unlike the teacher, which also tries a 6-field-with-seconds
// form).
func ParseCron(expr string) (cron.Schedule, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, litsearcherr.Wrap(litsearcherr.InvalidInput, "invalid cron expression", err)
	}
	return sched, nil
}

// Enable validates the fleet ceiling before turning a schedule on.
func (s *Scheduler) Enable(ctx context.Context, sched store.Schedule) error {
	if sched.Enabled {
		n, err := s.Schedules.EnabledCount(ctx)
		if err != nil {
			return err
		}
		existing, _ := s.Schedules.List(ctx, sched.Scope)
		alreadyEnabled := false
		for _, e := range existing {
			if e.PipelineName == sched.PipelineName && e.Enabled {
				alreadyEnabled = true
			}
		}
		if !alreadyEnabled && n >= maxEnabled {
			return litsearcherr.New(litsearcherr.InvalidInput, "at most five schedules may be enabled at once")
		}
	}
	cronSched, err := ParseCron(sched.Cron)
	if err != nil {
		return err
	}
	if err := s.Schedules.Upsert(ctx, sched.Scope, sched); err != nil {
		return err
	}
	if sched.Enabled {
		s.mu.Lock()
		s.nextRun[string(sched.Scope)+"/"+sched.PipelineName] = cronSched.Next(s.Now())
		s.mu.Unlock()
	}
	return nil
}

// Start runs the tick loop in a background goroutine until Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.recomputeNextRuns(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// recomputeNextRuns rebuilds the next-fire-time table from each enabled
// schedule's cron expression and the current time, the step a process
// restart needs. A fire time missed while the process was down is not run
// on the first tick; the schedule next fires at its next cron occurrence
// after start.
func (s *Scheduler) recomputeNextRuns(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	for _, scope := range []pipeline.Scope{pipeline.ScopeWorkspace, pipeline.ScopeGlobal} {
		scheds, err := s.Schedules.List(ctx, scope)
		if err != nil {
			continue
		}
		for _, sc := range scheds {
			if !sc.Enabled {
				continue
			}
			cronSched, err := ParseCron(sc.Cron)
			if err != nil {
				slog.Warn("scheduler: skipping schedule with invalid cron", "pipeline", sc.PipelineName, "err", err)
				continue
			}
			key := string(scope) + "/" + sc.PipelineName
			s.nextRun[key] = cronSched.Next(now)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.Now()
	for _, scope := range []pipeline.Scope{pipeline.ScopeWorkspace, pipeline.ScopeGlobal} {
		scheds, err := s.Schedules.List(ctx, scope)
		if err != nil {
			slog.Warn("scheduler: list schedules failed", "scope", scope, "err", err)
			continue
		}
		for _, sc := range scheds {
			if !sc.Enabled {
				continue
			}
			key := string(scope) + "/" + sc.PipelineName
			s.mu.Lock()
			due, scheduled := s.nextRun[key]
			s.mu.Unlock()
			if !scheduled || now.Before(due) {
				continue
			}
			s.runOne(ctx, scope, sc)

			cronSched, err := ParseCron(sc.Cron)
			if err == nil {
				s.mu.Lock()
				s.nextRun[key] = cronSched.Next(now)
				s.mu.Unlock()
			}
		}
	}
}

func (s *Scheduler) runOne(ctx context.Context, scope pipeline.Scope, sc store.Schedule) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.sem }()
		s.execute(ctx, scope, sc)
	}()
}

func (s *Scheduler) execute(ctx context.Context, scope pipeline.Scope, sc store.Schedule) {
	cfg, _, err := s.Pipelines.Get(ctx, scope, sc.PipelineName)
	if err != nil {
		slog.Warn("scheduler: pipeline lookup failed", "pipeline", sc.PipelineName, "err", err)
		return
	}
	cfg, err = pipeline.Resolve(cfg)
	if err != nil {
		slog.Warn("scheduler: pipeline template resolution failed", "pipeline", sc.PipelineName, "err", err)
		return
	}

	started := s.Now()
	out, execErr := s.Engine.Execute(ctx, cfg, pipeline.QueryHint(cfg))
	run := &pipeline.Run{
		RunID:        started.Format("20060102T150405.000000000Z"),
		PipelineName: sc.PipelineName,
		Scope:        scope,
		StartedAt:    started,
		FinishedAt:   s.Now(),
	}
	if out != nil {
		run.Status = out.Status
		run.StepErrors = out.StepErrors
		run.ArticleCount = len(out.Articles)
		run.Identifiers = identifiersOf(out.Articles)
		run.TopArticles = topArticles(out.Articles, 10)
	} else {
		run.Status = pipeline.RunStatusFailure
	}
	if execErr != nil {
		slog.Warn("scheduler: pipeline run failed", "pipeline", sc.PipelineName, "err", execErr)
	}

	if sc.Diff {
		if prev, err := s.Runs.Last(ctx, scope, sc.PipelineName); err == nil {
			run.Diff = diffIdentifiers(prev.Identifiers, run.Identifiers)
		}
	}

	if err := s.Runs.Append(ctx, scope, sc.PipelineName, run); err != nil {
		slog.Warn("scheduler: failed to persist run record", "pipeline", sc.PipelineName, "err", err)
	}

	sc.LastRun = started
	if err := s.Schedules.Upsert(ctx, scope, sc); err != nil {
		slog.Warn("scheduler: failed to update schedule", "pipeline", sc.PipelineName, "err", err)
	}

	if sc.Notify {
		s.Notifier.Notify(ctx, scope, sc.PipelineName, run)
	}
}

func identifiersOf(articles []article.UnifiedArticle) []string {
	ids := make([]string, 0, len(articles))
	for i := range articles {
		ids = append(ids, articles[i].PrimaryID())
	}
	return ids
}

func topArticles(articles []article.UnifiedArticle, n int) []pipeline.ArticleSummary {
	if len(articles) < n {
		n = len(articles)
	}
	out := make([]pipeline.ArticleSummary, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, pipeline.ArticleSummary{PrimaryID: articles[i].PrimaryID(), Title: articles[i].Title})
	}
	return out
}

func diffIdentifiers(previous, current []string) *pipeline.DiffSummary {
	prevSet := make(map[string]bool, len(previous))
	for _, id := range previous {
		prevSet[id] = true
	}
	currSet := make(map[string]bool, len(current))
	for _, id := range current {
		currSet[id] = true
	}

	var added, removed []string
	for _, id := range current {
		if !prevSet[id] {
			added = append(added, id)
		}
	}
	for _, id := range previous {
		if !currSet[id] {
			removed = append(removed, id)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)

	unchanged := 0
	for _, id := range current {
		if prevSet[id] {
			unchanged++
		}
	}
	return &pipeline.DiffSummary{New: added, Removed: removed, UnchangedCount: unchanged}
}
