// bolaget-mcp - Systembolaget Model Context Protocol server
// License: MIT

// Package format renders raw Systembolaget records as markdown or as a
// machine-readable JSON envelope. Records are opaque vendor JSON; known keys
// are read with gjson and absent fields are simply omitted.
package format

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// TruncationNotice is appended whenever output is cut to the character budget.
const TruncationNotice = "\n\n... [Response truncated. Try filtering results to see more details]"

// Fixed messages for empty result sets.
const (
	NoProducts = "No products found matching your criteria."
	NoStores   = "No stores found matching your criteria."
)

// Pagination is the envelope metadata attached to JSON-format list responses.
type Pagination struct {
	Limit         int  `json:"limit"`
	Offset        int  `json:"offset"`
	TotalCount    int  `json:"total_count"`
	ReturnedCount int  `json:"returned_count"`
	HasMore       bool `json:"has_more"`
}

type productEnvelope struct {
	Products   []json.RawMessage `json:"products"`
	Pagination Pagination        `json:"pagination"`
}

type storeEnvelope struct {
	Stores     []json.RawMessage `json:"stores"`
	Pagination Pagination        `json:"pagination"`
}

// ProductEnvelope serializes products plus pagination as indented JSON.
func ProductEnvelope(products []gjson.Result, p Pagination) (string, error) {
	env := productEnvelope{Products: rawRecords(products), Pagination: p}
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal product envelope: %w", err)
	}
	return string(out), nil
}

// StoreEnvelope serializes stores plus pagination as indented JSON.
func StoreEnvelope(stores []gjson.Result, p Pagination) (string, error) {
	env := storeEnvelope{Stores: rawRecords(stores), Pagination: p}
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal store envelope: %w", err)
	}
	return string(out), nil
}

func rawRecords(records []gjson.Result) []json.RawMessage {
	raw := make([]json.RawMessage, 0, len(records))
	for _, r := range records {
		raw = append(raw, json.RawMessage(r.Raw))
	}
	return raw
}

// stringOr reads a key from a record, falling back when absent.
func stringOr(rec gjson.Result, key, fallback string) string {
	if v := rec.Get(key); v.Exists() {
		return v.String()
	}
	return fallback
}

// Product renders the standard markdown block for one product record.
func Product(p gjson.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### %s", stringOr(p, "productNameBold", "Unknown"))
	if subtitle := p.Get("productNameThin"); subtitle.Exists() && subtitle.String() != "" {
		fmt.Fprintf(&b, " - %s", subtitle.String())
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "- **Product Number:** %s\n", stringOr(p, "productNumber", "N/A"))
	fmt.Fprintf(&b, "- **Price:** %s SEK\n", stringOr(p, "price", "N/A"))
	fmt.Fprintf(&b, "- **Volume:** %s ml\n", stringOr(p, "volume", "N/A"))
	fmt.Fprintf(&b, "- **Alcohol:** %s%%\n", stringOr(p, "alcoholPercentage", "N/A"))
	fmt.Fprintf(&b, "- **Category:** %s\n", stringOr(p, "categoryLevel1", "N/A"))

	if country := p.Get("country"); country.Exists() {
		fmt.Fprintf(&b, "- **Country:** %s\n", country.String())
	}
	if assortment := p.Get("assortmentText"); assortment.Exists() {
		fmt.Fprintf(&b, "- **Assortment:** %s\n", assortment.String())
	}

	bitter := p.Get("tasteClockBitter")
	sweet := p.Get("tasteClockSweetness")
	body := p.Get("tasteClockBody")
	if bitter.Exists() || sweet.Exists() || body.Exists() {
		b.WriteString("\n**Taste Profile:**\n")
		if bitter.Exists() {
			fmt.Fprintf(&b, "- Bitterness: %s/12\n", bitter.String())
		}
		if sweet.Exists() {
			fmt.Fprintf(&b, "- Sweetness: %s/12\n", sweet.String())
		}
		if body.Exists() {
			fmt.Fprintf(&b, "- Body: %s/12\n", body.String())
		}
	}

	return b.String()
}

// ProductDetail renders a product with the extended sections only present on
// the single-product endpoint.
func ProductDetail(p gjson.Result) string {
	var b strings.Builder
	b.WriteString(Product(p))

	if desc := p.Get("description"); desc.Exists() {
		fmt.Fprintf(&b, "\n**Description:**\n%s\n", desc.String())
	}
	if taste := p.Get("taste"); taste.Exists() {
		fmt.Fprintf(&b, "\n**Taste:**\n%s\n", taste.String())
	}
	if usage := p.Get("usage"); usage.Exists() {
		fmt.Fprintf(&b, "\n**Serving Suggestions:**\n%s\n", usage.String())
	}
	if symbols := p.Get("tasteSymbols"); symbols.IsArray() && len(symbols.Array()) > 0 {
		b.WriteString("\n**Food Pairings:**\n")
		for _, sym := range symbols.Array() {
			fmt.Fprintf(&b, "- %s\n", sym.String())
		}
	}

	return b.String()
}

// Store renders the standard markdown block for one store record.
func Store(s gjson.Result) string {
	var b strings.Builder

	name := stringOr(s, "displayName", stringOr(s, "alias", "Unknown"))
	fmt.Fprintf(&b, "### %s\n\n", name)
	fmt.Fprintf(&b, "- **Store ID:** %s\n", stringOr(s, "siteId", "N/A"))

	if street := s.Get("streetAddress"); street.Exists() && street.String() != "" {
		parts := []string{street.String()}
		if postal := s.Get("postalCode"); postal.Exists() && postal.String() != "" {
			parts = append(parts, postal.String())
		}
		if city := s.Get("city"); city.Exists() && city.String() != "" {
			parts = append(parts, city.String())
		}
		fmt.Fprintf(&b, "- **Address:** %s\n", strings.Join(parts, " "))
	}

	if s.Get("isAgent").Bool() {
		b.WriteString("- **Type:** Agent\n")
	}
	if s.Get("isTastingStore").Bool() {
		b.WriteString("- **Features:** Tasting Store\n")
	}

	// Render the first real opening slot among the next few days; closed days
	// report openFrom as "00:00:00".
	if hours := s.Get("openingHours"); hours.IsArray() {
		days := hours.Array()
		if len(days) > 3 {
			days = days[:3]
		}
		for _, day := range days {
			openFrom := day.Get("openFrom").String()
			if openFrom == "00:00:00" || openFrom == "" {
				continue
			}
			openTo := day.Get("openTo").String()
			fmt.Fprintf(&b, "- **Hours:** %s - %s\n", clock(openFrom), clock(openTo))
			break
		}
	}

	if pos := s.Get("position"); pos.Exists() {
		lat := pos.Get("latitude")
		lon := pos.Get("longitude")
		if lat.Exists() && lon.Exists() && lat.Float() != 0 && lon.Float() != 0 {
			fmt.Fprintf(&b, "- **Location:** %.4f, %.4f\n", lat.Float(), lon.Float())
		}
	}

	return b.String()
}

// StoreDetail renders a store with the extended sections of the
// single-store endpoint.
func StoreDetail(s gjson.Result) string {
	var b strings.Builder
	b.WriteString(Store(s))

	if services := s.Get("services"); services.IsArray() && len(services.Array()) > 0 {
		b.WriteString("\n**Services:**\n")
		for _, svc := range services.Array() {
			fmt.Fprintf(&b, "- %s\n", svc.String())
		}
	}
	if parking := s.Get("parkingInfo"); parking.Exists() {
		fmt.Fprintf(&b, "\n**Parking:** %s\n", parking.String())
	}
	if transport := s.Get("publicTransport"); transport.Exists() {
		fmt.Fprintf(&b, "\n**Public Transport:** %s\n", transport.String())
	}

	return b.String()
}

// clock shortens "HH:MM:SS" to "HH:MM".
func clock(t string) string {
	if len(t) > 5 {
		return t[:5]
	}
	return t
}

// ProductListHeader renders the heading line for product search results.
func ProductListHeader(total, shown int) string {
	return fmt.Sprintf("# Product Search Results\n\nFound %d products (showing %d)\n\n", total, shown)
}

// StoreListHeader renders the heading line for store search results.
func StoreListHeader(total, shown int) string {
	return fmt.Sprintf("# Store Search Results\n\nFound %d stores (showing %d)\n\n", total, shown)
}

// MoreHint renders the pagination hint pointing at the next offset.
func MoreHint(nextOffset int) string {
	return fmt.Sprintf("\n---\n**More results available.** Use `offset: %d` to see the next page.\n", nextOffset)
}

// Truncate cuts content to the character budget, truncation notice included.
// Space for the notice is reserved up front so the final string never exceeds
// the budget. If the last newline before the cut point falls within 80% of
// it, the cut happens there so the output ends on a complete line; otherwise
// it is a hard cut.
func Truncate(content string, limit int) string {
	if len(content) <= limit {
		return content
	}

	budget := limit - len(TruncationNotice)
	if budget < 0 {
		budget = 0
	}

	cut := strings.LastIndex(content[:budget], "\n")
	if cut > int(float64(budget)*0.8) {
		content = content[:cut]
	} else {
		content = content[:budget]
	}
	return content + TruncationNotice
}
