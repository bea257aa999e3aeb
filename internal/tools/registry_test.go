package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	name string
}

func (f fakeTool) Name() string               { return f.name }
func (f fakeTool) Description() string        { return "fake tool " + f.name }
func (f fakeTool) InputSchema() map[string]any { return map[string]any{"type": "object"} }
func (f fakeTool) Execute(ctx context.Context, input any) (any, error) {
	return map[string]any{"echo": input}, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeTool{name: "alpha"})

	tool, ok := r.Get("alpha")
	require.True(t, ok)
	require.Equal(t, "alpha", tool.Name())
}

func TestRegistry_ExecuteDispatchesToTool(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeTool{name: "alpha"})

	out, err := r.Execute(context.Background(), "alpha", "hello")
	require.NoError(t, err)

	result, ok := out.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "hello", result["echo"])
}

func TestRegistry_ExecuteUnknownToolErrors(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), "missing", nil)
	require.Error(t, err)
}

func TestRegistry_ListReturnsRegisteredTools(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeTool{name: "alpha"})
	r.Register(fakeTool{name: "beta"})

	require.Len(t, r.List(), 2)
}
