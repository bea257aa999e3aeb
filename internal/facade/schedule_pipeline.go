package facade

import (
	"context"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/store"
)

// SchedulePipelineTool is schedule_pipeline: set, list, or check the cron
// schedule for a saved pipeline, bounded by the scheduler's fleet ceiling.
type SchedulePipelineTool struct{ f *Facade }

func (t *SchedulePipelineTool) Name() string { return "schedule_pipeline" }

func (t *SchedulePipelineTool) Description() string {
	return "Set, remove, list, or check the cron schedule for a saved pipeline. At most five schedules may be enabled at once."
}

func (t *SchedulePipelineTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action":    map[string]any{"type": "string", "description": "set | remove | list | status (default set)"},
			"name":      map[string]any{"type": "string", "description": "Pipeline name (required for set/remove/status)"},
			"cron":      map[string]any{"type": "string", "description": "5-field cron expression (required for action=set)"},
			"enabled":   map[string]any{"type": "boolean", "description": "Whether the schedule should run (default true for set)"},
			"diff":      map[string]any{"type": "boolean", "description": "Record a diff against the previous run (default false)"},
			"notify":    map[string]any{"type": "boolean", "description": "Emit a notification when a new run completes (default false)"},
			"scope":     map[string]any{"type": "string", "description": "workspace | global | auto (default auto)"},
		},
	}
}

func (t *SchedulePipelineTool) Execute(ctx context.Context, input any) (any, error) {
	args, err := asArgs(input)
	if err != nil {
		return nil, toolError(err)
	}

	action := argString(args, "action")
	if action == "" {
		action = "set"
	}

	switch action {
	case "list":
		return t.list(ctx, args)
	case "status":
		return t.status(ctx, args)
	case "remove":
		return t.remove(ctx, args)
	case "set":
		return t.set(ctx, args)
	default:
		return nil, toolError(litsearcherr.New(litsearcherr.InvalidInput, "unknown action: "+action))
	}
}

func (t *SchedulePipelineTool) set(ctx context.Context, args map[string]any) (any, error) {
	name := argString(args, "name")
	if name == "" {
		return nil, toolError(litsearcherr.New(litsearcherr.InvalidInput, "name is required"))
	}
	cron := argString(args, "cron")
	if cron == "" {
		return nil, toolError(litsearcherr.New(litsearcherr.InvalidInput, "cron is required"))
	}

	_, _, scope, err := t.f.getAutoScope(ctx, argString(args, "scope"), name)
	if err != nil {
		return nil, toolError(err)
	}

	enabled := true
	if _, ok := args["enabled"]; ok {
		enabled = argBool(args, "enabled")
	}

	sched := store.Schedule{
		PipelineName: name,
		Scope:        scope,
		Cron:         cron,
		Enabled:      enabled,
		Diff:         argBool(args, "diff"),
		Notify:       argBool(args, "notify"),
	}
	if err := t.f.Scheduler.Enable(ctx, sched); err != nil {
		return nil, toolError(err)
	}
	return map[string]any{"scheduled": name, "scope": string(scope), "cron": cron, "enabled": enabled}, nil
}

func (t *SchedulePipelineTool) remove(ctx context.Context, args map[string]any) (any, error) {
	name := argString(args, "name")
	if name == "" {
		return nil, toolError(litsearcherr.New(litsearcherr.InvalidInput, "name is required"))
	}
	_, _, scope, err := t.f.getAutoScope(ctx, argString(args, "scope"), name)
	if err != nil {
		return nil, toolError(err)
	}
	if err := t.f.Schedules.Remove(ctx, scope, name); err != nil {
		return nil, toolError(err)
	}
	return map[string]any{"removed": name, "scope": string(scope)}, nil
}

func (t *SchedulePipelineTool) status(ctx context.Context, args map[string]any) (any, error) {
	name := argString(args, "name")
	if name == "" {
		return nil, toolError(litsearcherr.New(litsearcherr.InvalidInput, "name is required"))
	}
	_, _, scope, err := t.f.getAutoScope(ctx, argString(args, "scope"), name)
	if err != nil {
		return nil, toolError(err)
	}
	scheds, err := t.f.Schedules.List(ctx, scope)
	if err != nil {
		return nil, toolError(err)
	}
	for _, sc := range scheds {
		if sc.PipelineName == name {
			return sc, nil
		}
	}
	return nil, toolError(litsearcherr.New(litsearcherr.NotFound, "no schedule for pipeline: "+name))
}

func (t *SchedulePipelineTool) list(ctx context.Context, args map[string]any) (any, error) {
	scopeArg := argString(args, "scope")
	var scopes []string
	if scopeArg != "" {
		scopes = []string{scopeArg}
	} else {
		scopes = []string{"workspace", "global"}
	}

	var out []store.Schedule
	for _, s := range scopes {
		scheds, err := t.f.Schedules.List(ctx, t.f.resolveScope(s))
		if err != nil {
			return nil, toolError(err)
		}
		out = append(out, scheds...)
	}
	return map[string]any{"schedules": out, "count": len(out)}, nil
}
