// bolaget-mcp - Systembolaget Model Context Protocol server
// License: MIT

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nordkatt/bolaget-mcp/pkg/config"
	"github.com/nordkatt/bolaget-mcp/pkg/format"
)

// SearchStoresTool searches for stores by name or city.
//
// The vendor's site-search endpoint ignores pagination parameters and
// returns the full result set, so offset/limit are applied client-side.
type SearchStoresTool struct {
	api    Caller
	cfg    *config.Config
	logger *slog.Logger
}

// NewSearchStoresTool creates the store search tool.
func NewSearchStoresTool(api Caller, cfg *config.Config, logger *slog.Logger) *SearchStoresTool {
	return &SearchStoresTool{api: api, cfg: cfg, logger: logger}
}

func (t *SearchStoresTool) Name() string { return "systembolaget_search_stores" }

func (t *SearchStoresTool) Description() string {
	return `Search for Systembolaget stores.

Find stores by name, location, or city. Returns addresses, opening hours,
and store features. All matching stores are fetched from the API and
pagination is applied client-side.`
}

func (t *SearchStoresTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search query for store name or location",
			},
			"city": map[string]any{
				"type":        "string",
				"description": "Filter by city",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": fmt.Sprintf("Number of results to return (1-%d)", t.cfg.MaxPageSize),
			},
			"offset": map[string]any{
				"type":        "integer",
				"description": "Number of results to skip for pagination",
			},
			"format": formatProperty(),
		},
	}
}

func (t *SearchStoresTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	in := SearchStoresInput{Limit: t.cfg.DefaultPageSize, Format: formatMarkdown}
	if err := decodeInput(args, &in); err != nil {
		return ErrorResult(err.Error())
	}

	t.logger.Info("searching stores", "query", in.Query, "city", in.City)

	query := map[string]string{"includePredictions": "true"}

	// Query and city become a single search term upstream.
	var terms []string
	if in.Query != "" {
		terms = append(terms, in.Query)
	}
	if in.City != "" {
		terms = append(terms, in.City)
	}
	if len(terms) > 0 {
		query["q"] = strings.Join(terms, " ")
	}

	headers := map[string]string{"Origin": t.cfg.WebsiteURL}

	body, err := callAPI(ctx, t.api, t.cfg.APIBaseURL+"/sitesearch/site", query, headers)
	if err != nil {
		return ErrorResult(err.Error())
	}

	stores := gjson.GetBytes(body, "siteSearchResults").Array()
	total := len(stores)
	page := paginate(stores, in.Offset, in.Limit)

	t.logger.Info("store search done", "total", total, "returned", len(page))

	if in.Format == formatJSON {
		out, err := format.StoreEnvelope(page, format.Pagination{
			Limit:         in.Limit,
			Offset:        in.Offset,
			TotalCount:    total,
			ReturnedCount: len(page),
			HasMore:       in.Offset+in.Limit < total,
		})
		if err != nil {
			return ErrorResult(err.Error())
		}
		return NewToolResult(format.Truncate(out, t.cfg.CharacterLimit))
	}

	if len(page) == 0 {
		return NewToolResult(format.NoStores)
	}

	var b strings.Builder
	b.WriteString(format.StoreListHeader(total, len(page)))
	for _, s := range page {
		b.WriteString(format.Store(s))
		b.WriteString("\n\n")
	}
	if in.Offset+in.Limit < total {
		b.WriteString(format.MoreHint(in.Offset + in.Limit))
	}

	return NewToolResult(format.Truncate(b.String(), t.cfg.CharacterLimit))
}

// paginate slices records [offset, offset+limit), clamped to bounds.
func paginate(records []gjson.Result, offset, limit int) []gjson.Result {
	if offset >= len(records) {
		return nil
	}
	end := offset + limit
	if end > len(records) {
		end = len(records)
	}
	return records[offset:end]
}

// GetStoreTool retrieves detail for one store by site ID.
//
// The upstream /site/{id} endpoint currently returns 404 for every ID. The
// tool stays on the surface so existing clients keep a stable tool list and
// it starts working the day the endpoint does; until then callers get a
// clear not-found error and should use systembolaget_search_stores instead.
type GetStoreTool struct {
	api    Caller
	cfg    *config.Config
	logger *slog.Logger
}

// NewGetStoreTool creates the store detail tool.
func NewGetStoreTool(api Caller, cfg *config.Config, logger *slog.Logger) *GetStoreTool {
	return &GetStoreTool{api: api, cfg: cfg, logger: logger}
}

func (t *GetStoreTool) Name() string { return "systembolaget_get_store" }

func (t *GetStoreTool) Description() string {
	return `Get detailed information about a specific store.

Note: the upstream store-detail endpoint is currently unavailable and
returns not-found for all store IDs. Prefer systembolaget_search_stores;
this tool is retained for when the endpoint comes back.`
}

func (t *GetStoreTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"store_id": map[string]any{
				"type":        "string",
				"description": "The store ID (site ID) to retrieve",
			},
			"format": formatProperty(),
		},
		"required": []string{"store_id"},
	}
}

func (t *GetStoreTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	in := GetStoreInput{Format: formatMarkdown}
	if err := decodeInput(args, &in); err != nil {
		return ErrorResult(err.Error())
	}

	t.logger.Info("getting store", "store_id", in.StoreID)

	body, err := callAPI(ctx, t.api, t.cfg.APIBaseURL+"/site/"+in.StoreID, nil, nil)
	if err != nil {
		return ErrorResult(err.Error())
	}

	if in.Format == formatJSON {
		return NewToolResult(format.Truncate(prettyJSON(body), t.cfg.CharacterLimit))
	}

	md := format.StoreDetail(gjson.ParseBytes(body))
	return NewToolResult(format.Truncate(md, t.cfg.CharacterLimit))
}
