// bolaget-mcp - Systembolaget Model Context Protocol server
// License: MIT

// Package tools defines the tool abstraction and the four Systembolaget
// tools exposed over MCP: product search, product detail, store search, and
// store detail.
//
// Every failure — validation, key extraction, gateway — is converted to a
// plain-text error result at this boundary. The MCP layer never sees a
// raised error from a tool.
package tools

import (
	"context"
	"fmt"
	"sync"
)

// Tool is a single callable tool.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the tool's input schema as JSON Schema.
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) *ToolResult
}

// ToolResult is the outcome of a tool execution. ForLLM is what the calling
// model sees; ForUser is an optional human-oriented variant.
type ToolResult struct {
	ForLLM  string
	ForUser string
	IsError bool
}

// NewToolResult creates a successful result with the same text for both
// audiences.
func NewToolResult(text string) *ToolResult {
	return &ToolResult{ForLLM: text, ForUser: text}
}

// ErrorResult creates an error result. The "Error:" prefix marks it as a
// failure in transcripts where isError flags are not rendered.
func ErrorResult(msg string) *ToolResult {
	text := "Error: " + msg
	return &ToolResult{ForLLM: text, ForUser: text, IsError: true}
}

// Registry holds registered tools in registration order.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Re-registering a name replaces the previous tool.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// All returns the registered tools in registration order.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Execute runs the named tool. Unknown names and panics become error
// results, never propagated errors.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (result *ToolResult) {
	t, ok := r.Get(name)
	if !ok {
		return ErrorResult(fmt.Sprintf("unknown tool: %s", name))
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = ErrorResult(fmt.Sprintf("tool %s panicked: %v", name, rec))
		}
	}()

	return t.Execute(ctx, args)
}
