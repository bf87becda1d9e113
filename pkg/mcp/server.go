// bolaget-mcp - Systembolaget Model Context Protocol server
// License: MIT

package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/nordkatt/bolaget-mcp/pkg/logger"
	"github.com/nordkatt/bolaget-mcp/pkg/tools"
)

const (
	// ProtocolVersion is the MCP spec version this server supports.
	ProtocolVersion = "2024-11-05"
	ServerName      = "bolaget-mcp"
	ServerVersion   = "1.0.0"
)

// Server is a stdio MCP server backed by the Systembolaget tool registry.
type Server struct {
	registry *tools.Registry
	in       io.Reader
	out      io.Writer
	mu       sync.Mutex // serializes writes to stdout
}

// NewServer creates an MCP server reading JSON-RPC from stdin and writing
// responses to stdout.
func NewServer(registry *tools.Registry) *Server {
	return &Server{registry: registry, in: os.Stdin, out: os.Stdout}
}

// NewServerWithIO creates an MCP server with custom I/O (for testing).
func NewServerWithIO(registry *tools.Registry, in io.Reader, out io.Writer) *Server {
	return &Server{registry: registry, in: in, out: out}
}

// Serve runs the request loop until EOF or ctx cancellation.
func (s *Server) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	// Tool results (raw JSON product lists) can be large.
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			s.sendError(nil, ErrParse, "parse error: "+err.Error())
			continue
		}

		s.dispatch(ctx, &req)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stdin read error: %w", err)
	}
	return nil
}

func (s *Server) dispatch(ctx context.Context, req *Request) {
	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "notifications/initialized":
		// Client ack, nothing to do.
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolsCall(ctx, req)
	case "ping":
		s.sendResult(req.ID, map[string]any{})
	default:
		// Unknown notifications (no ID) are silently ignored per the MCP protocol.
		if req.ID != nil {
			s.sendError(req.ID, ErrNotFound, "method not found: "+req.Method)
		}
	}
}

func (s *Server) handleInitialize(req *Request) {
	s.sendResult(req.ID, InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapability{
			Tools: &ToolsCapability{ListChanged: false},
		},
		ServerInfo: EntityInfo{Name: ServerName, Version: ServerVersion},
	})
}

func (s *Server) handleToolsList(req *Request) {
	all := s.registry.All()
	infos := make([]ToolInfo, 0, len(all))
	for _, t := range all {
		schema := t.Parameters()
		if schema == nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		infos = append(infos, ToolInfo{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: schema,
			Annotations: map[string]any{"readOnlyHint": true},
		})
	}
	s.sendResult(req.ID, ToolsListResult{Tools: infos})
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) {
	raw, err := json.Marshal(req.Params)
	if err != nil {
		s.sendError(req.ID, ErrInternal, "failed to marshal params")
		return
	}

	var params ToolCallParams
	if err := json.Unmarshal(raw, &params); err != nil {
		s.sendError(req.ID, ErrInvalidReq, "invalid tools/call params: "+err.Error())
		return
	}
	if params.Name == "" {
		s.sendError(req.ID, ErrInvalidReq, "tool name is required")
		return
	}

	logger.InfoCF("mcp", "tool call", map[string]any{"tool": params.Name})

	result := s.registry.Execute(ctx, params.Name, params.Arguments)

	text := result.ForLLM
	if text == "" {
		text = result.ForUser
	}
	if text == "" {
		text = "(no output)"
	}

	s.sendResult(req.ID, ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
		IsError: result.IsError,
	})
}

// ── wire helpers ───────────────────────────────────────────────────

func (s *Server) sendResult(id any, result any) {
	s.writeJSON(Response{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) sendError(id any, code int, message string) {
	s.writeJSON(Response{JSONRPC: "2.0", ID: id, Error: &Error{Code: code, Message: message}})
}

func (s *Server) writeJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.ErrorCF("mcp", "failed to marshal response", map[string]any{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Stdio transport: one JSON object per line.
	_, _ = s.out.Write(data)
	_, _ = s.out.Write([]byte("\n"))
}
