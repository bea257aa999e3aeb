package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/pipeline"
)

// roots resolves a scope to its backing directory tree. workspaceRoot and
// globalRoot are independent: callers typically point workspaceRoot at
// the project's working directory and globalRoot at a process-wide data
// directory.
type roots struct {
	workspace string
	global    string
	now       func() time.Time
}

func newRoots(workspaceRoot, globalRoot string) roots {
	return roots{workspace: workspaceRoot, global: globalRoot, now: time.Now}
}

func (r roots) root(scope pipeline.Scope) string {
	if scope == pipeline.ScopeGlobal {
		return r.global
	}
	return r.workspace
}

// writeAtomic writes data to path via a temp-file-then-rename sequence so
// a reader never observes a partially written file, the same durability
// shape as the teacher's LocalStorage.Save.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// contentHash hashes the canonical YAML form of cfg, with the name
// stripped, so re-saving a reformatted-but-unchanged pipeline (or one
// saved under a different name) yields the same hash.
func contentHash(cfg *pipeline.Config) (string, error) {
	canon := *cfg
	canon.Name = ""
	data, err := yaml.Marshal(canon)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// FilePipelineRepository is the file-backed PipelineRepository: one YAML
// file per pipeline under <scope-root>/pipelines/<name>.yaml.
type FilePipelineRepository struct{ roots roots }

func NewFilePipelineRepository(workspaceRoot, globalRoot string) *FilePipelineRepository {
	return &FilePipelineRepository{roots: newRoots(workspaceRoot, globalRoot)}
}

func (r *FilePipelineRepository) path(scope pipeline.Scope, name string) string {
	return filepath.Join(r.roots.root(scope), "pipelines", name+".yaml")
}

func (r *FilePipelineRepository) Save(ctx context.Context, scope pipeline.Scope, name string, cfg *pipeline.Config) (pipeline.Meta, error) {
	if err := ValidateName(name); err != nil {
		return pipeline.Meta{}, err
	}
	hash, err := contentHash(cfg)
	if err != nil {
		return pipeline.Meta{}, litsearcherr.Wrap(litsearcherr.Internal, "hash pipeline", err)
	}

	toWrite := *cfg
	toWrite.Name = name
	data, err := yaml.Marshal(toWrite)
	if err != nil {
		return pipeline.Meta{}, litsearcherr.Wrap(litsearcherr.Internal, "marshal pipeline", err)
	}

	path := r.path(scope, name)
	if err := writeAtomic(path, data); err != nil {
		return pipeline.Meta{}, litsearcherr.Wrap(litsearcherr.Internal, "save pipeline", err)
	}

	meta := pipeline.Meta{
		Name:        name,
		Description: cfg.Description,
		Tags:        cfg.Tags,
		Scope:       scope,
		CreatedAt:   r.roots.now(),
		UpdatedAt:   r.roots.now(),
		ContentHash: hash,
		StepCount:   len(cfg.Steps),
	}
	// CreatedAt/UpdatedAt approximate the file's true timestamps with its
	// mtime; stdlib exposes no portable birthtime and the
	// one-file-per-pipeline layout rules out a sidecar to track it
	// precisely.
	if info, statErr := os.Stat(path); statErr == nil {
		meta.UpdatedAt = info.ModTime()
		meta.CreatedAt = info.ModTime()
	}
	return meta, nil
}

func (r *FilePipelineRepository) Get(ctx context.Context, scope pipeline.Scope, name string) (*pipeline.Config, pipeline.Meta, error) {
	if err := ValidateName(name); err != nil {
		return nil, pipeline.Meta{}, err
	}
	path := r.path(scope, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pipeline.Meta{}, litsearcherr.New(litsearcherr.NotFound, "pipeline not found: "+name)
		}
		return nil, pipeline.Meta{}, litsearcherr.Wrap(litsearcherr.Internal, "read pipeline", err)
	}
	var cfg pipeline.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, pipeline.Meta{}, litsearcherr.Wrap(litsearcherr.Internal, "parse stored pipeline", err)
	}
	hash, err := contentHash(&cfg)
	if err != nil {
		return nil, pipeline.Meta{}, litsearcherr.Wrap(litsearcherr.Internal, "hash pipeline", err)
	}
	meta := pipeline.Meta{
		Name:        name,
		Description: cfg.Description,
		Tags:        cfg.Tags,
		Scope:       scope,
		ContentHash: hash,
		StepCount:   len(cfg.Steps),
	}
	if info, statErr := os.Stat(path); statErr == nil {
		meta.CreatedAt = info.ModTime()
		meta.UpdatedAt = info.ModTime()
	}
	return &cfg, meta, nil
}

func (r *FilePipelineRepository) List(ctx context.Context, scope pipeline.Scope) ([]pipeline.Meta, error) {
	dir := filepath.Join(r.roots.root(scope), "pipelines")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, litsearcherr.Wrap(litsearcherr.Internal, "list pipelines", err)
	}
	var out []pipeline.Meta
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		name := e.Name()[:len(e.Name())-len(".yaml")]
		_, meta, err := r.Get(ctx, scope, name)
		if err != nil {
			continue
		}
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *FilePipelineRepository) Delete(ctx context.Context, scope pipeline.Scope, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	path := r.path(scope, name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return litsearcherr.New(litsearcherr.NotFound, "pipeline not found: "+name)
		}
		return litsearcherr.Wrap(litsearcherr.Internal, "delete pipeline", err)
	}
	_ = os.RemoveAll(filepath.Join(r.roots.root(scope), "runs", name))
	return nil
}

// FileRunRepository is the file-backed PipelineRunRepository: one JSON
// file per run under <scope-root>/runs/<name>/<timestamp>.json.
type FileRunRepository struct{ roots roots }

func NewFileRunRepository(workspaceRoot, globalRoot string) *FileRunRepository {
	return &FileRunRepository{roots: newRoots(workspaceRoot, globalRoot)}
}

func (r *FileRunRepository) dir(scope pipeline.Scope, name string) string {
	return filepath.Join(r.roots.root(scope), "runs", name)
}

func (r *FileRunRepository) Append(ctx context.Context, scope pipeline.Scope, name string, run *pipeline.Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return litsearcherr.Wrap(litsearcherr.Internal, "marshal run", err)
	}
	ts := run.StartedAt.UTC().Format("20060102T150405.000000000Z")
	path := filepath.Join(r.dir(scope, name), ts+".json")
	if err := writeAtomic(path, data); err != nil {
		return litsearcherr.Wrap(litsearcherr.Internal, "write run record", err)
	}
	return nil
}

func (r *FileRunRepository) listFiles(scope pipeline.Scope, name string) ([]string, error) {
	dir := r.dir(scope, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files) // timestamp-prefixed names sort chronologically
	return files, nil
}

func (r *FileRunRepository) Last(ctx context.Context, scope pipeline.Scope, name string) (*pipeline.Run, error) {
	files, err := r.listFiles(scope, name)
	if err != nil {
		return nil, litsearcherr.Wrap(litsearcherr.Internal, "list runs", err)
	}
	if len(files) == 0 {
		return nil, litsearcherr.New(litsearcherr.NotFound, "no runs recorded for "+name)
	}
	return readRun(files[len(files)-1])
}

func (r *FileRunRepository) List(ctx context.Context, scope pipeline.Scope, name string, limit int) ([]*pipeline.Run, error) {
	files, err := r.listFiles(scope, name)
	if err != nil {
		return nil, litsearcherr.Wrap(litsearcherr.Internal, "list runs", err)
	}
	if limit > 0 && len(files) > limit {
		files = files[len(files)-limit:]
	}
	out := make([]*pipeline.Run, 0, len(files))
	for _, f := range files {
		run, err := readRun(f)
		if err != nil {
			continue
		}
		out = append(out, run)
	}
	return out, nil
}

func readRun(path string) (*pipeline.Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, litsearcherr.Wrap(litsearcherr.Internal, "read run record", err)
	}
	var run pipeline.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, litsearcherr.Wrap(litsearcherr.Internal, "parse run record", err)
	}
	return &run, nil
}

// FileScheduleRepository is the file-backed ScheduleRepository: one
// shared schedules.json per scope. mu serializes the read-modify-write
// cycle in Upsert/Remove against concurrent writers — the scheduler runs
// one goroutine per due schedule, and a schedule_pipeline tool call can
// race any of them against the same scope's file.
type FileScheduleRepository struct {
	roots roots
	mu    sync.Mutex
}

func NewFileScheduleRepository(workspaceRoot, globalRoot string) *FileScheduleRepository {
	return &FileScheduleRepository{roots: newRoots(workspaceRoot, globalRoot)}
}

func (r *FileScheduleRepository) path(scope pipeline.Scope) string {
	return filepath.Join(r.roots.root(scope), "schedules.json")
}

func (r *FileScheduleRepository) read(scope pipeline.Scope) ([]Schedule, error) {
	data, err := os.ReadFile(r.path(scope))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var scheds []Schedule
	if err := json.Unmarshal(data, &scheds); err != nil {
		return nil, err
	}
	return scheds, nil
}

func (r *FileScheduleRepository) write(scope pipeline.Scope, scheds []Schedule) error {
	data, err := json.MarshalIndent(scheds, "", "  ")
	if err != nil {
		return litsearcherr.Wrap(litsearcherr.Internal, "marshal schedules", err)
	}
	if err := writeAtomic(r.path(scope), data); err != nil {
		return litsearcherr.Wrap(litsearcherr.Internal, "write schedules", err)
	}
	return nil
}

func (r *FileScheduleRepository) Upsert(ctx context.Context, scope pipeline.Scope, sched Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	scheds, err := r.read(scope)
	if err != nil {
		return litsearcherr.Wrap(litsearcherr.Internal, "read schedules", err)
	}
	found := false
	for i, existing := range scheds {
		if existing.PipelineName == sched.PipelineName {
			scheds[i] = sched
			found = true
			break
		}
	}
	if !found {
		scheds = append(scheds, sched)
	}
	return r.write(scope, scheds)
}

func (r *FileScheduleRepository) Remove(ctx context.Context, scope pipeline.Scope, pipelineName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	scheds, err := r.read(scope)
	if err != nil {
		return litsearcherr.Wrap(litsearcherr.Internal, "read schedules", err)
	}
	out := scheds[:0]
	for _, existing := range scheds {
		if existing.PipelineName != pipelineName {
			out = append(out, existing)
		}
	}
	return r.write(scope, out)
}

func (r *FileScheduleRepository) List(ctx context.Context, scope pipeline.Scope) ([]Schedule, error) {
	scheds, err := r.read(scope)
	if err != nil {
		return nil, litsearcherr.Wrap(litsearcherr.Internal, "read schedules", err)
	}
	return scheds, nil
}

func (r *FileScheduleRepository) EnabledCount(ctx context.Context) (int, error) {
	n := 0
	for _, scope := range []pipeline.Scope{pipeline.ScopeWorkspace, pipeline.ScopeGlobal} {
		scheds, err := r.read(scope)
		if err != nil {
			return 0, litsearcherr.Wrap(litsearcherr.Internal, "read schedules", err)
		}
		for _, sc := range scheds {
			if sc.Enabled {
				n++
			}
		}
	}
	return n, nil
}
