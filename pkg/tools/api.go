// bolaget-mcp - Systembolaget Model Context Protocol server
// License: MIT

package tools

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/nordkatt/bolaget-mcp/pkg/gateway"
)

// Caller is the slice of the gateway the tools need. *gateway.Client
// satisfies it; tests substitute a stub.
type Caller interface {
	GetJSON(ctx context.Context, url string, query map[string]string, headers map[string]string, retryOnAuth bool) (json.RawMessage, error)
}

// callAPI issues a gateway request with the bounded one-shot auth retry.
// A retry-advised authorization failure means the stale key was already
// invalidated, so the second attempt acquires a fresh one. The second
// attempt runs with the retry disallowed: a 403 with a fresh key is a real
// authorization problem and must surface.
func callAPI(ctx context.Context, api Caller, url string, query, headers map[string]string) (json.RawMessage, error) {
	body, err := api.GetJSON(ctx, url, query, headers, true)
	if err == nil {
		return body, nil
	}
	if apiErr, ok := gateway.AsAPIError(err); ok && apiErr.RetryAdvised {
		return api.GetJSON(ctx, url, query, headers, false)
	}
	return nil, err
}

// prettyJSON re-indents a raw JSON payload for the json output format.
func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// formatProperty is the schema fragment shared by every tool's format field.
func formatProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"enum":        []string{formatMarkdown, formatJSON},
		"description": "Response format: 'markdown' for human-readable or 'json' for structured data",
	}
}
