package importer

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ColumnMapping assigns header names to logical BOQ roles. Empty means the
// role is not mapped.
type ColumnMapping struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Unit        string `json:"unit"`
	Rate        string `json:"rate"`
	Category    string `json:"category"`
}

// Validate checks that the required roles are mapped to known headers.
func (m ColumnMapping) Validate(headers []string) error {
	known := make([]any, len(headers))
	for i, h := range headers {
		known[i] = h
	}
	optional := validation.When(len(known) > 0, validation.In(known...).Error("is not a column in this file"))
	return validation.ValidateStruct(&m,
		validation.Field(&m.Description, validation.Required.Error("map a Description column"), optional),
		validation.Field(&m.Rate, validation.Required.Error("map a Rate column"), optional),
		validation.Field(&m.Quantity, optional),
		validation.Field(&m.Unit, optional),
		validation.Field(&m.Category, optional),
	)
}

// SuggestMapping guesses roles from header text. Each header is given at
// most one role and the first header matching a role keeps it.
func SuggestMapping(headers []string) ColumnMapping {
	var m ColumnMapping
	for _, h := range headers {
		lower := strings.ToLower(h)
		switch {
		case containsAny(lower, "desc", "work"):
			if m.Description == "" {
				m.Description = h
			}
		case containsAny(lower, "qty", "quantity"):
			if m.Quantity == "" {
				m.Quantity = h
			}
		case strings.Contains(lower, "unit") && !containsAny(lower, "rate", "price", "cost"):
			if m.Unit == "" {
				m.Unit = h
			}
		case containsAny(lower, "rate", "cost", "price"):
			if m.Rate == "" {
				m.Rate = h
			}
		case containsAny(lower, "cat", "section", "trade"):
			if m.Category == "" {
				m.Category = h
			}
		}
	}
	return m
}

// ApplyMapping derives line items from records using the same rule for every
// row: cost = quantity x rate and price = cost x (1 + margin/100). Rows whose
// description is blank are dropped.
func ApplyMapping(records []Record, m ColumnMapping, marginPercent float64) []ParsedLineItem {
	items := make([]ParsedLineItem, 0, len(records))
	markup := 1 + marginPercent/100

	for _, rec := range records {
		desc := strings.TrimSpace(rec[m.Description].String())
		if desc == "" {
			continue
		}

		qty := 1.0
		if m.Quantity != "" {
			if q, ok := quantity(rec[m.Quantity]); ok && q > 0 {
				qty = q
			}
		}

		unit := DefaultUnit
		if m.Unit != "" {
			if u := strings.TrimSpace(rec[m.Unit].String()); u != "" {
				unit = u
			}
		}

		category := Uncategorised
		if m.Category != "" {
			if c := strings.TrimSpace(rec[m.Category].String()); c != "" {
				category = c
			}
		}

		rate := amount(rec[m.Rate])
		cost := qty * rate
		price := cost * markup

		items = append(items, ParsedLineItem{
			Category:    category,
			Description: desc,
			Quantity:    qty,
			Unit:        unit,
			UnitCost:    rate,
			UnitPrice:   rate * markup,
			Total:       price,
		})
	}
	return items
}

// GroupCategories returns category names in order of first appearance.
func GroupCategories(items []ParsedLineItem) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		if !seen[it.Category] {
			seen[it.Category] = true
			out = append(out, it.Category)
		}
	}
	return out
}

func quantity(c Cell) (float64, bool) {
	switch c.Kind {
	case CellNumber:
		return c.Number, finite(c.Number)
	case CellText:
		return leadingFloat(c.Text)
	}
	return 0, false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
