// Package store implements the two-scope, file-backed persistence layer
// for pipelines, their run history, and schedules — generalizing the
// teacher's Postgres-backed internal/repository interfaces
// (PipelineRepository, PipelineRunRepository, ScheduleRepository) onto a
// rename-into-place file backing store in the manner of
// internal/storage/local.go, rather than SQL.
package store

import (
	"context"
	"regexp"
	"time"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/pipeline"
)

// namePattern bounds pipeline names to something safe to use as a
// filename component: no path separators, no leading dot, ASCII only.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateName rejects anything that isn't a safe store key.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return litsearcherr.New(litsearcherr.InvalidInput, "invalid pipeline name: "+name)
	}
	return nil
}

// PipelineRepository persists pipeline definitions, one per scope root.
type PipelineRepository interface {
	Save(ctx context.Context, scope pipeline.Scope, name string, cfg *pipeline.Config) (pipeline.Meta, error)
	Get(ctx context.Context, scope pipeline.Scope, name string) (*pipeline.Config, pipeline.Meta, error)
	List(ctx context.Context, scope pipeline.Scope) ([]pipeline.Meta, error)
	Delete(ctx context.Context, scope pipeline.Scope, name string) error
}

// PipelineRunRepository persists run records under a pipeline's run
// directory, one JSON file per run keyed by timestamp.
type PipelineRunRepository interface {
	Append(ctx context.Context, scope pipeline.Scope, name string, run *pipeline.Run) error
	Last(ctx context.Context, scope pipeline.Scope, name string) (*pipeline.Run, error)
	List(ctx context.Context, scope pipeline.Scope, name string, limit int) ([]*pipeline.Run, error)
}

// Schedule is one scheduled pipeline entry, persisted in the shared
// schedules.json file for its scope.
type Schedule struct {
	PipelineName string    `json:"pipeline_name"`
	Scope        pipeline.Scope `json:"scope"`
	Cron         string    `json:"cron"`
	Enabled      bool      `json:"enabled"`
	Diff         bool      `json:"diff"`
	Notify       bool      `json:"notify"`
	NextRun      time.Time `json:"next_run"`
	LastRun      time.Time `json:"last_run,omitempty"`
}

// ScheduleRepository persists the fixed-size set of scheduled pipelines.
type ScheduleRepository interface {
	Upsert(ctx context.Context, scope pipeline.Scope, sched Schedule) error
	Remove(ctx context.Context, scope pipeline.Scope, pipelineName string) error
	List(ctx context.Context, scope pipeline.Scope) ([]Schedule, error)
	EnabledCount(ctx context.Context) (int, error)
}
