// Package mcpserver implements the minimal MCP-shaped JSON-RPC 2.0
// dispatcher that exposes a tools.Registry over stdio, generalizing the
// teacher's internal/a2atypes/jsonrpc.go envelope shapes (JSONRPCRequest,
// JSONRPCResponse, JSONRPCError) from the A2A protocol's sendMessage
// method to the "tools/list" and "tools/call" methods an MCP client
// speaks. The wire framing itself — newline-delimited JSON over stdin/
// stdout — is the simplest shape that satisfies that contract; nothing in
// the teacher or the rest of the pack ships a richer MCP transport.
package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
	"github.com/soochol/litsearch-mcp/internal/tools"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object, code taken from the standard
// JSON-RPC reserved range plus one application-level bucket for a tool
// that itself failed (-32000), tagged with the litsearcherr kind.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolError      = -32000
)

// toolDescriptor is one entry in a "tools/list" response.
type toolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// callParams is "tools/call"'s params shape.
type callParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Server dispatches JSON-RPC requests read line-by-line from an io.Reader
// to a tools.Registry, writing one JSON-RPC response line per request.
type Server struct {
	Registry *tools.Registry
}

func New(registry *tools.Registry) *Server {
	return &Server{Registry: registry}
}

// Serve reads requests from r until EOF or ctx is cancelled, dispatching
// each to completion before reading the next — matching the teacher's
// single-writer assumption for stdout framing (internal/a2a/server.go
// writes one response object per request, never interleaved).
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		resp := s.handleLine(ctx, line)
		if err := writeResponse(w, resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return scanner.Err()
}

func (s *Server) handleLine(ctx context.Context, line []byte) Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Response{JSONRPC: "2.0", Error: &Error{Code: codeParseError, Message: "invalid JSON-RPC request: " + err.Error()}}
	}
	if req.Method == "" {
		return Response{JSONRPC: "2.0", ID: req.ID, Error: &Error{Code: codeInvalidRequest, Message: "method is required"}}
	}

	switch req.Method {
	case "tools/list":
		return s.handleList(req)
	case "tools/call":
		return s.handleCall(ctx, req)
	default:
		return Response{JSONRPC: "2.0", ID: req.ID, Error: &Error{Code: codeMethodNotFound, Message: "unknown method: " + req.Method}}
	}
}

func (s *Server) handleList(req Request) Response {
	toolList := s.Registry.List()
	descriptors := make([]toolDescriptor, 0, len(toolList))
	for _, t := range toolList {
		descriptors = append(descriptors, toolDescriptor{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{"tools": descriptors}}
}

func (s *Server) handleCall(ctx context.Context, req Request) Response {
	var params callParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return Response{JSONRPC: "2.0", ID: req.ID, Error: &Error{Code: codeInvalidParams, Message: "invalid params: " + err.Error()}}
		}
	}
	if params.Name == "" {
		return Response{JSONRPC: "2.0", ID: req.ID, Error: &Error{Code: codeInvalidParams, Message: "params.name is required"}}
	}

	result, err := s.Registry.Execute(ctx, params.Name, argsOrEmpty(params.Arguments))
	if err != nil {
		slog.Warn("mcpserver: tool call failed", "tool", params.Name, "err", err)
		return Response{JSONRPC: "2.0", ID: req.ID, Error: &Error{
			Code:    codeToolError,
			Message: err.Error(),
			Data:    map[string]any{"kind": string(litsearcherr.KindOf(err))},
		}}
	}
	return Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func argsOrEmpty(args map[string]any) map[string]any {
	if args == nil {
		return map[string]any{}
	}
	return args
}

func writeResponse(w io.Writer, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
