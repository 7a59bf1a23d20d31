package importer

import (
	"regexp"
	"strings"
)

// ParsedLineItem is one BOQ line produced by either the smart parser or a
// manual column mapping.
type ParsedLineItem struct {
	Category    string  `json:"category"`
	ItemCode    string  `json:"item_code,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	UnitCost    float64 `json:"unit_cost"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
	Optional    bool    `json:"optional,omitempty"`
	// CostEstimated is set when UnitCost was derived from UnitPrice.
	CostEstimated bool `json:"cost_estimated,omitempty"`
}

// Cost is the line cost (quantity x unit cost).
func (it ParsedLineItem) Cost() float64 {
	return it.Quantity * it.UnitCost
}

// Price is the client-facing line amount.
func (it ParsedLineItem) Price() float64 {
	return it.Total
}

// BOQParseResult is the output of ParseBOQ.
type BOQParseResult struct {
	Items []ParsedLineItem `json:"items"`
	// Categories lists every category that received at least one item, in
	// order of first appearance.
	Categories []string `json:"categories"`
	// HeaderRow is the detected header row index, or -1 when the profile's
	// fallback data row was used.
	HeaderRow int `json:"header_row"`
	// Skipped counts rows after the header that matched no branch.
	Skipped int `json:"skipped"`
}

var (
	categoryPattern = regexp.MustCompile(`^[A-Za-z]\.\s*\S`)
	itemCodePattern = regexp.MustCompile(`^([A-Za-z]?\d+(\.\d+)*\.?|[A-Za-z]\.\d+(\.\d+)*\.?)$`)
)

// ParseBOQ scans a fixed-layout BOQ workbook. It never fails: rows that do not
// look like a category, a marker or an item are counted and skipped.
func ParseBOQ(t *RawTable, p FormatProfile) BOQParseResult {
	res := BOQParseResult{HeaderRow: findBOQHeader(t, p)}

	start := res.HeaderRow + 1
	if res.HeaderRow < 0 {
		start = p.FallbackDataRow
	}

	current := Uncategorised
	seen := make(map[string]bool)

	for i := start; i < len(t.Rows); i++ {
		row := t.Rows[i]
		if row.NonEmpty() == 0 {
			continue
		}
		first := row.At(0).Trimmed()

		if isMarkerRow(first, p) {
			continue
		}

		if isCategoryRow(row, first, p) {
			current = first
			continue
		}

		item, ok := parseItemRow(row, p)
		if !ok {
			res.Skipped++
			continue
		}
		item.Category = current
		if !seen[current] {
			seen[current] = true
			res.Categories = append(res.Categories, current)
		}
		res.Items = append(res.Items, item)
	}

	return res
}

// findBOQHeader returns the header row index or -1.
func findBOQHeader(t *RawTable, p FormatProfile) int {
	limit := min(p.HeaderScanRows, len(t.Rows))
	for i := 0; i < limit; i++ {
		line := strings.Join(t.Rows[i].Lower(), " ")
		if p.HeaderPhrase != "" && strings.Contains(line, p.HeaderPhrase) {
			return i
		}
		if len(p.HeaderTerms) > 0 && containsAll(line, p.HeaderTerms) {
			return i
		}
	}
	return -1
}

func isMarkerRow(first string, p FormatProfile) bool {
	lower := strings.ToLower(first)
	for _, m := range p.MarkerSubstrings {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func isCategoryRow(row Row, first string, p FormatProfile) bool {
	if !categoryPattern.MatchString(first) || itemCodePattern.MatchString(first) {
		return false
	}
	for _, col := range p.PricedCols {
		if n, ok := row.At(col).Float(); ok && n > 0 {
			return false
		}
	}
	return true
}

func parseItemRow(row Row, p FormatProfile) (ParsedLineItem, bool) {
	desc := ""
	for _, col := range p.DescriptionCols {
		if s := row.At(col).Trimmed(); s != "" {
			desc = s
			break
		}
	}
	if len([]rune(desc)) < p.MinDescriptionLen {
		return ParsedLineItem{}, false
	}

	unitPrice := amount(row.At(p.UnitPriceCol))
	total := amount(row.At(p.TotalCol))
	optional := strings.Contains(strings.ToLower(row.At(p.OptionalCol).Trimmed()), "optional")
	if unitPrice == 0 && total == 0 && !optional {
		return ParsedLineItem{}, false
	}

	qty := amount(row.At(p.QuantityCol))
	if qty <= 0 {
		qty = 1
	}
	unit := row.At(p.UnitCol).Trimmed()
	if unit == "" {
		unit = DefaultUnit
	}
	if total == 0 {
		total = qty * unitPrice
	}
	if unitPrice == 0 && total != 0 {
		unitPrice = total / qty
	}

	item := ParsedLineItem{
		ItemCode:    row.At(0).Trimmed(),
		Description: desc,
		Quantity:    qty,
		Unit:        unit,
		UnitPrice:   unitPrice,
		Total:       total,
		Optional:    optional,
	}

	for _, col := range p.CostCols {
		if c := amount(row.At(col)); c > 0 {
			item.UnitCost = c
			break
		}
	}
	if item.UnitCost == 0 {
		item.UnitCost = unitPrice * p.CostFactor
		item.CostEstimated = true
	}
	return item, true
}

func containsAll(s string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(s, t) {
			return false
		}
	}
	return true
}
