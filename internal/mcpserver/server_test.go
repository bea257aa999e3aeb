package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soochol/litsearch-mcp/internal/tools"
)

type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "Echoes its input back." }
func (echoTool) InputSchema() map[string]any {
	return map[string]any{"type": "object"}
}
func (echoTool) Execute(ctx context.Context, input any) (any, error) {
	return input, nil
}

type failingTool struct{}

func (failingTool) Name() string                { return "fail" }
func (failingTool) Description() string         { return "Always errors." }
func (failingTool) InputSchema() map[string]any { return map[string]any{"type": "object"} }
func (failingTool) Execute(ctx context.Context, input any) (any, error) {
	return nil, context.DeadlineExceeded
}

func newTestServer() *Server {
	reg := tools.NewRegistry()
	reg.Register(echoTool{})
	reg.Register(failingTool{})
	return New(reg)
}

func runLine(t *testing.T, s *Server, req string) Response {
	t.Helper()
	var out bytes.Buffer
	err := s.Serve(context.Background(), strings.NewReader(req+"\n"), &out)
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp), "body=%s", out.String())
	return resp
}

func TestServer_ToolsListReturnsRegisteredTools(t *testing.T) {
	s := newTestServer()
	resp := runLine(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(map[string]any)
	require.True(t, ok, "expected a result map, got %T", resp.Result)

	toolList, ok := result["tools"].([]any)
	require.True(t, ok)
	require.Len(t, toolList, 2)
}

func TestServer_ToolsCallDispatchesToRegistry(t *testing.T) {
	s := newTestServer()
	resp := runLine(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"x":1}}}`)
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(1), result["x"])
}

func TestServer_ToolsCallSurfacesToolError(t *testing.T) {
	s := newTestServer()
	resp := runLine(t, s, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"fail","arguments":{}}}`)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeToolError, resp.Error.Code)
}

func TestServer_UnknownMethodReturnsMethodNotFound(t *testing.T) {
	s := newTestServer()
	resp := runLine(t, s, `{"jsonrpc":"2.0","id":4,"method":"bogus"}`)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestServer_InvalidJSONReturnsParseError(t *testing.T) {
	s := newTestServer()
	resp := runLine(t, s, `not json`)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeParseError, resp.Error.Code)
}
