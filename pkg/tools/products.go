// bolaget-mcp - Systembolaget Model Context Protocol server
// License: MIT

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nordkatt/bolaget-mcp/pkg/config"
	"github.com/nordkatt/bolaget-mcp/pkg/format"
)

// SearchProductsTool searches the product catalog with filters and
// pagination.
type SearchProductsTool struct {
	api    Caller
	cfg    *config.Config
	logger *slog.Logger
}

// NewSearchProductsTool creates the product search tool.
func NewSearchProductsTool(api Caller, cfg *config.Config, logger *slog.Logger) *SearchProductsTool {
	return &SearchProductsTool{api: api, cfg: cfg, logger: logger}
}

func (t *SearchProductsTool) Name() string { return "systembolaget_search_products" }

func (t *SearchProductsTool) Description() string {
	return `Search for products in Systembolaget's catalog.

Searches the product database with filters like category, price range,
alcohol content, and country of origin. Returns product details including
prices, volumes, and taste profiles.`
}

func (t *SearchProductsTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search query for product name or description",
			},
			"category": map[string]any{
				"type":        "string",
				"description": "Filter by category (e.g. 'Öl', 'Vin', 'Sprit')",
			},
			"min_price": map[string]any{
				"type":        "number",
				"description": "Minimum price in SEK",
			},
			"max_price": map[string]any{
				"type":        "number",
				"description": "Maximum price in SEK",
			},
			"min_alcohol": map[string]any{
				"type":        "number",
				"description": "Minimum alcohol percentage (0-100)",
			},
			"max_alcohol": map[string]any{
				"type":        "number",
				"description": "Maximum alcohol percentage (0-100)",
			},
			"country": map[string]any{
				"type":        "string",
				"description": "Filter by country of origin",
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

func (t *SearchProductsTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	in := SearchProductsInput{Limit: t.cfg.DefaultPageSize, Format: formatMarkdown}
	if err := decodeInput(args, &in); err != nil {
		return ErrorResult(err.Error())
	}
	if err := checkRange("price", in.MinPrice, in.MaxPrice); err != nil {
		return ErrorResult(err.Error())
	}
	if err := checkRange("alcohol", in.MinAlcohol, in.MaxAlcohol); err != nil {
		return ErrorResult(err.Error())
	}

	t.logger.Info("searching products", "query", in.Query, "category", in.Category)

	query := map[string]string{}
	if in.Query != "" {
		query["searchQuery"] = in.Query
	}
	if in.Category != "" {
		query["category"] = in.Category
	}
	if in.MinPrice != nil {
		query["minPrice"] = formatFloat(*in.MinPrice)
	}
	if in.MaxPrice != nil {
		query["maxPrice"] = formatFloat(*in.MaxPrice)
	}
	if in.MinAlcohol != nil {
		query["minAlcohol"] = formatFloat(*in.MinAlcohol)
	}
	if in.MaxAlcohol != nil {
		query["maxAlcohol"] = formatFloat(*in.MaxAlcohol)
	}
	if in.Country != "" {
		query["country"] = in.Country
	}

	// The vendor API pages by index, not offset. Offsets that are multiples
	// of limit map exactly; others land on the containing page.
	query["page"] = strconv.Itoa(in.Offset / in.Limit)
	query["pageSize"] = strconv.Itoa(in.Limit)

	body, err := callAPI(ctx, t.api, t.cfg.APIBaseURL+"/productsearch/search", query, nil)
	if err != nil {
		return ErrorResult(err.Error())
	}

	products := gjson.GetBytes(body, "products").Array()
	total := len(products)
	if tc := gjson.GetBytes(body, "metadata.totalCount"); tc.Exists() {
		total = int(tc.Int())
	}

	t.logger.Info("product search done", "total", total, "returned", len(products))

	if in.Format == formatJSON {
		out, err := format.ProductEnvelope(products, format.Pagination{
			Limit:         in.Limit,
			Offset:        in.Offset,
			TotalCount:    total,
			ReturnedCount: len(products),
			HasMore:       in.Offset+len(products) < total,
		})
		if err != nil {
			return ErrorResult(err.Error())
		}
		return NewToolResult(format.Truncate(out, t.cfg.CharacterLimit))
	}

	if len(products) == 0 {
		return NewToolResult(format.NoProducts)
	}

	var b strings.Builder
	b.WriteString(format.ProductListHeader(total, len(products)))
	for _, p := range products {
		b.WriteString(format.Product(p))
		b.WriteString("\n\n")
	}
	if in.Offset+len(products) < total {
		b.WriteString(format.MoreHint(in.Offset + in.Limit))
	}

	return NewToolResult(format.Truncate(b.String(), t.cfg.CharacterLimit))
}

// GetProductTool retrieves full detail for one product by number.
type GetProductTool struct {
	api    Caller
	cfg    *config.Config
	logger *slog.Logger
}

// NewGetProductTool creates the product detail tool.
func NewGetProductTool(api Caller, cfg *config.Config, logger *slog.Logger) *GetProductTool {
	return &GetProductTool{api: api, cfg: cfg, logger: logger}
}

func (t *GetProductTool) Name() string { return "systembolaget_get_product" }

func (t *GetProductTool) Description() string {
	return `Get detailed information about a specific product.

Retrieves price, volume, alcohol content, taste profile, food pairings,
and serving suggestions for one product.`
}

func (t *GetProductTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"product_number": map[string]any{
				"type":        "string",
				"description": "The product number (artikelnummer) to retrieve",
			},
			"format": formatProperty(),
		},
		"required": []string{"product_number"},
	}
}

func (t *GetProductTool) Execute(ctx context.Context, args map[string]any) *ToolResult {
	in := GetProductInput{Format: formatMarkdown}
	if err := decodeInput(args, &in); err != nil {
		return ErrorResult(err.Error())
	}

	t.logger.Info("getting product", "product_number", in.ProductNumber)

	body, err := callAPI(ctx, t.api, t.cfg.APIBaseURL+"/product/"+in.ProductNumber, nil, nil)
	if err != nil {
		return ErrorResult(err.Error())
	}

	if in.Format == formatJSON {
		return NewToolResult(format.Truncate(prettyJSON(body), t.cfg.CharacterLimit))
	}

	md := format.ProductDetail(gjson.ParseBytes(body))
	return NewToolResult(format.Truncate(md, t.cfg.CharacterLimit))
}

// formatFloat renders a query-parameter float without a trailing ".0" for
// whole numbers.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
