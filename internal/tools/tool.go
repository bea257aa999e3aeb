package tools

import "context"

// Tool is a custom tool executed by this process and exposed over the
// MCP tool surface.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]any
	Execute(ctx context.Context, input any) (any, error)
}
