// Command litsearch-mcp wires the gateway, source adapters, query
// analyzer, pipeline engine, file-backed stores, scheduler, and tool
// facade together and serves the MCP tool surface over stdio — the thin
// entrypoint mirroring the teacher's cmd/upal/main.go wiring order
// (config → provider clients → registries → server) and its
// subcommand dispatch (`upal serve`).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/soochol/litsearch-mcp/internal/config"
	"github.com/soochol/litsearch-mcp/internal/facade"
	"github.com/soochol/litsearch-mcp/internal/gateway"
	"github.com/soochol/litsearch-mcp/internal/mcpserver"
	"github.com/soochol/litsearch-mcp/internal/pipeline"
	"github.com/soochol/litsearch-mcp/internal/query"
	"github.com/soochol/litsearch-mcp/internal/scheduler"
	"github.com/soochol/litsearch-mcp/internal/sessioncache"
	"github.com/soochol/litsearch-mcp/internal/sources"
	"github.com/soochol/litsearch-mcp/internal/statusapi"
	"github.com/soochol/litsearch-mcp/internal/store"
	"github.com/soochol/litsearch-mcp/internal/tools"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		serve()
		return
	}
	fmt.Println("litsearch-mcp v0.1.0")
	fmt.Println("Usage: litsearch-mcp serve")
}

func serve() {
	cfg, err := config.LoadDefault()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	gw := buildGateway(cfg)
	registry := buildSourceRegistry(gw, cfg)
	analyzer := query.NewAnalyzer(meshThesaurus(registry))

	workspaceRoot := cfg.Store.WorkspaceDir
	globalRoot := cfg.Store.GlobalDir
	pipelines := store.NewFilePipelineRepository(workspaceRoot, globalRoot)
	runs := store.NewFileRunRepository(workspaceRoot, globalRoot)
	schedules := store.NewFileScheduleRepository(workspaceRoot, globalRoot)
	loader := store.NewLoader(pipelines, workspaceRoot, globalRoot, cfg.Gateway.AllowedPipelineHosts...)

	engine := pipeline.NewEngine(pipeline.Deps{Registry: registry, Analyzer: analyzer})
	sched := scheduler.New(schedules, pipelines, runs, engine)
	sessions := sessioncache.New()

	f := facade.New(facade.Facade{
		Pipelines:        pipelines,
		Runs:             runs,
		Schedules:        schedules,
		Loader:           loader,
		Engine:           engine,
		Scheduler:        sched,
		Sessions:         sessions,
		WorkspaceEnabled: workspaceRoot != "",
	})

	toolRegistry := tools.NewRegistry()
	for _, t := range f.Tools() {
		toolRegistry.Register(t)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start(ctx)
	defer sched.Stop()

	if cfg.Server.Port > 0 {
		status := statusapi.New(pipelines, schedules)
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("statusapi: listening", "addr", addr)
			if err := http.ListenAndServe(addr, status.Handler()); err != nil {
				slog.Error("statusapi: server stopped", "err", err)
			}
		}()
	}

	srv := mcpserver.New(toolRegistry)
	slog.Info("litsearch-mcp: serving tools over stdio", "tool_count", len(toolRegistry.List()))
	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil {
		slog.Error("mcpserver: stopped", "err", err)
		os.Exit(1)
	}
}

func buildGateway(cfg *config.Config) *gateway.Gateway {
	defaultPolicy := gateway.HostPolicy{RefillRate: 3, Burst: 5}
	limiter := gateway.NewRateLimiter(defaultPolicy)
	for name, sc := range cfg.Sources {
		policy := gateway.HostPolicy{
			RefillRate: sc.RefillRate,
			Burst:      sc.Burst,
			APIKey:     sc.APIKey,
		}
		if policy.RefillRate <= 0 {
			policy.RefillRate = defaultPolicy.RefillRate
		}
		if policy.Burst <= 0 {
			policy.Burst = defaultPolicy.Burst
		}
		limiter.SetPolicy(name, policy)
	}
	return gateway.New(limiter, "litsearch-mcp/0.1 ("+cfg.Gateway.ContactEmail+")")
}

func buildSourceRegistry(gw *gateway.Gateway, cfg *config.Config) *sources.Registry {
	registry := sources.NewRegistry()
	registry.Register(sources.NewPubMedAdapter(gw))
	registry.Register(sources.NewPMCAdapter(gw))
	registry.Register(sources.NewEuropePMCAdapter(gw))
	registry.Register(sources.NewUnpaywallAdapter(gw, cfg.Gateway.ContactEmail))
	registry.Register(sources.NewSemanticScholarAdapter(gw))
	registry.Register(sources.NewOpenCitationsAdapter(gw))
	registry.Register(sources.NewCrossrefAdapter(gw, cfg.Gateway.ContactEmail))
	registry.Register(sources.NewMeshThesaurusAdapter(gw))
	registry.Register(sources.NewGenePubMedAdapter(gw))
	registry.Register(sources.NewImageRepositoryAdapter(gw))
	return registry
}

// meshThesaurus adapts the registered MeshThesaurusAdapter to
// query.Thesaurus, or returns nil if registration somehow failed — the
// analyzer treats a nil thesaurus as "no vocabulary expansion available."
func meshThesaurus(registry *sources.Registry) query.Thesaurus {
	adapter, ok := registry.Get("meshthesaurus")
	if !ok {
		return nil
	}
	thesaurus, ok := adapter.(query.Thesaurus)
	if !ok {
		return nil
	}
	return thesaurus
}
