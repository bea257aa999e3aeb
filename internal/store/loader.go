package store

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/pipeline"
)

const maxLoadedPipelineBytes = 100 * 1024

// DefaultAllowedHosts is the small default allow-list for URL-loaded
// pipelines; callers extend it via Loader.AllowedHosts.
var DefaultAllowedHosts = []string{
	"raw.githubusercontent.com",
	"gist.githubusercontent.com",
}

// Loader resolves the three source kinds load_pipeline accepts: a bare
// store name, a local path scoped under a store root, or an HTTPS URL on
// the allow-list.
type Loader struct {
	Pipelines     *FilePipelineRepository
	AllowedHosts  map[string]bool
	HTTPClient    *http.Client
	WorkspaceRoot string
	GlobalRoot    string
}

func NewLoader(pipelines *FilePipelineRepository, workspaceRoot, globalRoot string, extraHosts ...string) *Loader {
	allowed := make(map[string]bool, len(DefaultAllowedHosts)+len(extraHosts))
	for _, h := range DefaultAllowedHosts {
		allowed[h] = true
	}
	for _, h := range extraHosts {
		allowed[h] = true
	}
	return &Loader{
		Pipelines:     pipelines,
		AllowedHosts:  allowed,
		HTTPClient:    http.DefaultClient,
		WorkspaceRoot: workspaceRoot,
		GlobalRoot:    globalRoot,
	}
}

// Load dispatches on source's prefix: "saved:<name>" (or a bare name) is a
// store lookup, "file:<path>" is a local-path load scoped under a store
// root, and "url:<https-url>" is an allow-listed HTTPS fetch.
func (l *Loader) Load(ctx context.Context, scope pipeline.Scope, source string) (*pipeline.Config, error) {
	switch {
	case strings.HasPrefix(source, "saved:"):
		return l.loadSaved(ctx, scope, strings.TrimPrefix(source, "saved:"))
	case strings.HasPrefix(source, "file:"):
		return l.loadFile(strings.TrimPrefix(source, "file:"))
	case strings.HasPrefix(source, "url:"):
		return l.loadURL(ctx, strings.TrimPrefix(source, "url:"))
	default:
		return l.loadSaved(ctx, scope, source)
	}
}

func (l *Loader) loadSaved(ctx context.Context, scope pipeline.Scope, name string) (*pipeline.Config, error) {
	cfg, _, err := l.Pipelines.Get(ctx, scope, name)
	return cfg, err
}

// loadFile refuses symlinks and any path that escapes either scope root,
// including via ".." segments, per the load_pipeline contract.
func (l *Loader) loadFile(path string) (*pipeline.Config, error) {
	clean := filepath.Clean(path)
	if strings.Contains(clean, "..") {
		return nil, litsearcherr.New(litsearcherr.InvalidInput, "local pipeline path must not contain \"..\" segments")
	}
	abs, err := filepath.Abs(clean)
	if err != nil {
		return nil, litsearcherr.Wrap(litsearcherr.InvalidInput, "resolve local pipeline path", err)
	}
	if !underRoot(abs, l.WorkspaceRoot) && !underRoot(abs, l.GlobalRoot) {
		return nil, litsearcherr.New(litsearcherr.InvalidInput, "local pipeline path must be under the workspace or global scope root")
	}
	info, err := os.Lstat(abs)
	if err != nil {
		return nil, litsearcherr.Wrap(litsearcherr.NotFound, "local pipeline not found", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, litsearcherr.New(litsearcherr.InvalidInput, "local pipeline path must not be a symbolic link")
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, litsearcherr.Wrap(litsearcherr.Internal, "read local pipeline", err)
	}
	if len(data) > maxLoadedPipelineBytes {
		return nil, litsearcherr.New(litsearcherr.InvalidInput, "local pipeline exceeds 100 KiB")
	}
	return pipeline.Parse(string(data))
}

func underRoot(abs, root string) bool {
	if root == "" {
		return false
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(rootAbs, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (l *Loader) loadURL(ctx context.Context, rawURL string) (*pipeline.Config, error) {
	if !strings.HasPrefix(rawURL, "https://") {
		return nil, litsearcherr.New(litsearcherr.InvalidInput, "pipeline URL must use https")
	}
	host := hostOf(rawURL)
	if !l.AllowedHosts[host] {
		return nil, litsearcherr.New(litsearcherr.InvalidInput, "pipeline URL host is not on the allow-list: "+host)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, litsearcherr.Wrap(litsearcherr.InvalidInput, "build pipeline URL request", err)
	}
	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Transient, host, "fetch pipeline URL", 0, err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "text/") &&
		!strings.Contains(ct, "yaml") && !strings.Contains(ct, "json") {
		return nil, litsearcherr.New(litsearcherr.InvalidInput, "pipeline URL body must be text-typed")
	}

	limited := io.LimitReader(resp.Body, maxLoadedPipelineBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, litsearcherr.WrapSource(litsearcherr.Transient, host, "read pipeline URL body", resp.StatusCode, err)
	}
	if len(data) > maxLoadedPipelineBytes {
		return nil, litsearcherr.New(litsearcherr.InvalidInput, "pipeline URL body exceeds 100 KiB")
	}
	if resp.StatusCode >= 400 {
		return nil, litsearcherr.WrapSource(litsearcherr.Upstream, host, "pipeline URL returned an error status", resp.StatusCode, nil)
	}
	return pipeline.Parse(string(data))
}

func hostOf(rawURL string) string {
	rest := strings.TrimPrefix(rawURL, "https://")
	if idx := strings.IndexAny(rest, "/?#"); idx >= 0 {
		rest = rest[:idx]
	}
	if idx := strings.Index(rest, "@"); idx >= 0 {
		rest = rest[idx+1:]
	}
	if idx := strings.LastIndex(rest, ":"); idx >= 0 {
		rest = rest[:idx]
	}
	return rest
}
