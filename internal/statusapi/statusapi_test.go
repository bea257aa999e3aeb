package statusapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soochol/litsearch-mcp/internal/pipeline"
	"github.com/soochol/litsearch-mcp/internal/store"
)

func TestHandler_Healthz(t *testing.T) {
	pipelines := store.NewFilePipelineRepository(t.TempDir(), t.TempDir())
	schedules := store.NewFileScheduleRepository(t.TempDir(), t.TempDir())
	s := New(pipelines, schedules)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestHandler_PipelinesListsSavedPipelines(t *testing.T) {
	workspaceRoot := t.TempDir()
	globalRoot := t.TempDir()
	pipelines := store.NewFilePipelineRepository(workspaceRoot, globalRoot)
	schedules := store.NewFileScheduleRepository(workspaceRoot, globalRoot)

	cfg := &pipeline.Config{Name: "p1", Steps: []pipeline.Step{{ID: "search", Action: pipeline.ActionSearch, Params: map[string]any{"query": "x"}}}}
	_, err := pipelines.Save(context.Background(), pipeline.ScopeWorkspace, "p1", cfg)
	require.NoError(t, err)

	s := New(pipelines, schedules)
	req := httptest.NewRequest(http.MethodGet, "/pipelines", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(1), body["count"])
}

func TestHandler_SchedulesEmptyByDefault(t *testing.T) {
	pipelines := store.NewFilePipelineRepository(t.TempDir(), t.TempDir())
	schedules := store.NewFileScheduleRepository(t.TempDir(), t.TempDir())
	s := New(pipelines, schedules)

	req := httptest.NewRequest(http.MethodGet, "/schedules", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(0), body["count"])
}
