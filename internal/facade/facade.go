// Package facade implements the agent-visible tool surface (system
// design §6/§4.10): unified_search, save_pipeline, list_pipelines,
// load_pipeline, delete_pipeline, get_pipeline_history,
// schedule_pipeline, and watch_journal_feed, each a tools.Tool routed into
// the pipeline engine, store, scheduler, session cache, or journal-feed
// watcher. It generalizes the teacher's
// internal/tools package (one Tool implementation per file, registered
// into a shared Registry) from generic web/LLM utilities to this
// system's own domain operations.
package facade

import (
	"context"
	"fmt"
	"time"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/output"
	"github.com/soochol/litsearch-mcp/internal/pipeline"
	"github.com/soochol/litsearch-mcp/internal/scheduler"
	"github.com/soochol/litsearch-mcp/internal/sessioncache"
	"github.com/soochol/litsearch-mcp/internal/sourcealert"
	"github.com/soochol/litsearch-mcp/internal/store"
	"github.com/soochol/litsearch-mcp/internal/tools"
)

// reservedPipelineNames collides with tokens the facade treats specially
// (the session cache's "last" handle, the "auto" scope selector); saving
// a pipeline under one of these names is a Conflict per §7.
var reservedPipelineNames = map[string]bool{
	"last": true,
	"auto": true,
}

// Facade wires every tool to its backing collaborator. One Facade is
// shared by every tool instance the process registers.
type Facade struct {
	Pipelines        store.PipelineRepository
	Runs             store.PipelineRunRepository
	Schedules        store.ScheduleRepository
	Loader           *store.Loader
	Engine           *pipeline.Engine
	Scheduler        *scheduler.Scheduler
	Sessions         *sessioncache.Cache
	Alerts           *sourcealert.Watcher
	Now              func() time.Time
	WorkspaceEnabled bool // whether a workspace scope root is configured at all
}

// New builds a Facade and backs it with sensible defaults for any
// collaborator left nil (tests construct a Facade directly and only set
// what they exercise).
func New(f Facade) *Facade {
	if f.Now == nil {
		f.Now = time.Now
	}
	if f.Alerts == nil {
		f.Alerts = sourcealert.NewWatcher()
	}
	return &f
}

// Tools returns every tool this facade exposes, ready to register into a
// tools.Registry.
func (f *Facade) Tools() []tools.Tool {
	return []tools.Tool{
		&UnifiedSearchTool{f},
		&SavePipelineTool{f},
		&ListPipelinesTool{f},
		&LoadPipelineTool{f},
		&DeletePipelineTool{f},
		&PipelineHistoryTool{f},
		&SchedulePipelineTool{f},
		&WatchJournalFeedTool{f},
	}
}

// toolError renders any error into the single-kind-plus-explanation shape
// §7 requires at the tool facade boundary; detailed per-step errors stay
// attached to the PipelineRun instead.
func toolError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %s", litsearcherr.KindOf(err), err.Error())
}

// resolveScope implements "auto": prefer workspace when it is configured,
// otherwise fall back to global, matching the pipeline store's
// workspace-first lookup order (invariant 5).
func (f *Facade) resolveScope(requested string) pipeline.Scope {
	switch requested {
	case string(pipeline.ScopeGlobal):
		return pipeline.ScopeGlobal
	case string(pipeline.ScopeWorkspace):
		return pipeline.ScopeWorkspace
	default: // "", "auto", or anything unrecognized
		if f.WorkspaceEnabled {
			return pipeline.ScopeWorkspace
		}
		return pipeline.ScopeGlobal
	}
}

// getAutoScope looks up a pipeline by name, trying the workspace scope
// before the global one when the caller asked for "auto" lookup —
// invariant 5's combined list/lookup order.
func (f *Facade) getAutoScope(ctx context.Context, requested, name string) (*pipeline.Config, pipeline.Meta, pipeline.Scope, error) {
	if requested == string(pipeline.ScopeWorkspace) || requested == string(pipeline.ScopeGlobal) {
		scope := pipeline.Scope(requested)
		cfg, meta, err := f.Pipelines.Get(ctx, scope, name)
		return cfg, meta, scope, err
	}
	if f.WorkspaceEnabled {
		if cfg, meta, err := f.Pipelines.Get(ctx, pipeline.ScopeWorkspace, name); err == nil {
			return cfg, meta, pipeline.ScopeWorkspace, nil
		}
	}
	cfg, meta, err := f.Pipelines.Get(ctx, pipeline.ScopeGlobal, name)
	return cfg, meta, pipeline.ScopeGlobal, err
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argBool(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func argInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func asArgs(input any) (map[string]any, error) {
	args, ok := input.(map[string]any)
	if !ok {
		return nil, litsearcherr.New(litsearcherr.InvalidInput, "expected an object input")
	}
	return args, nil
}

func resolveOutput(format string) (output.Formatter, error) {
	return output.Resolve(format)
}
