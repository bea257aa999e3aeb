package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/soochol/litsearch-mcp/internal/pipeline"
)

func TestLoader_LoadFile_RejectsPathTraversal(t *testing.T) {
	root := t.TempDir()
	repo := NewFilePipelineRepository(root, t.TempDir())
	loader := NewLoader(repo, root, t.TempDir())

	_, err := loader.Load(context.Background(), pipeline.ScopeWorkspace, "file:../../etc/passwd")
	if err == nil {
		t.Fatal("expected error for path containing \"..\"")
	}
}

func TestLoader_LoadFile_RejectsPathOutsideScopeRoots(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	outsideFile := filepath.Join(outside, "p.yaml")
	if err := os.WriteFile(outsideFile, []byte("name: x\nsteps: []\n"), 0o644); err != nil {
		t.Fatalf("write outside file: %v", err)
	}

	repo := NewFilePipelineRepository(root, t.TempDir())
	loader := NewLoader(repo, root, t.TempDir())

	_, err := loader.Load(context.Background(), pipeline.ScopeWorkspace, "file:"+outsideFile)
	if err == nil {
		t.Fatal("expected error for a path outside both scope roots")
	}
}

func TestLoader_LoadFile_AcceptsPathUnderWorkspaceRoot(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "p.yaml")
	content := "name: p\nsteps:\n  - id: search\n    action: search\n    params:\n      query: x\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	repo := NewFilePipelineRepository(root, t.TempDir())
	loader := NewLoader(repo, root, t.TempDir())

	cfg, err := loader.Load(context.Background(), pipeline.ScopeWorkspace, "file:"+path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Steps) != 1 {
		t.Fatalf("len(Steps) = %d, want 1", len(cfg.Steps))
	}
}

func TestLoader_LoadURL_RejectsNonAllowlistedHost(t *testing.T) {
	repo := NewFilePipelineRepository(t.TempDir(), t.TempDir())
	loader := NewLoader(repo, t.TempDir(), t.TempDir())

	_, err := loader.Load(context.Background(), pipeline.ScopeWorkspace, "url:https://evil.example.com/p.yaml")
	if err == nil {
		t.Fatal("expected error for a host not on the allow-list")
	}
}

func TestLoader_LoadURL_RejectsNonHTTPS(t *testing.T) {
	repo := NewFilePipelineRepository(t.TempDir(), t.TempDir())
	loader := NewLoader(repo, t.TempDir(), t.TempDir())

	_, err := loader.Load(context.Background(), pipeline.ScopeWorkspace, "url:http://raw.githubusercontent.com/p.yaml")
	if err == nil {
		t.Fatal("expected error for a non-https URL")
	}
}
