// Package services persists imported BOQs and schedules and keeps the derived
// BOQ totals consistent with their line items.
package services

import (
	"fmt"
	"math"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// dec converts an amount to a decimal. NaN and infinities count as zero.
func dec(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// CalcItemCost is quantity x unit cost.
func CalcItemCost(quantity, unitCost float64) float64 {
	return dec(quantity).Mul(dec(unitCost)).InexactFloat64()
}

// CalcItemPrice applies the BOQ default margin to a cost.
func CalcItemPrice(cost, marginPercent float64) float64 {
	markup := decimal.NewFromInt(1).Add(dec(marginPercent).Div(decimal.NewFromInt(100)))
	return dec(cost).Mul(markup).InexactFloat64()
}

// CalcMarginPercent is the effective margin over cost. It is 0 when there is
// no cost.
func CalcMarginPercent(totalCost, clientPrice float64) float64 {
	cost := dec(totalCost)
	if !cost.IsPositive() {
		return 0
	}
	return dec(clientPrice).Sub(cost).Div(cost).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// RollupItem is the slice of a line item the rollup needs.
type RollupItem struct {
	Category string
	Cost     float64
	Price    float64
}

// CategoryTotals are the derived subtotals of one category.
type CategoryTotals struct {
	Cost  float64
	Price float64
}

// Rollup holds every derived amount of a BOQ.
type Rollup struct {
	Categories    map[string]CategoryTotals
	TotalCost     float64
	ClientPrice   float64
	MarginPercent float64
}

// CalcRollup re-sums a BOQ from its items. Categories without items are not
// listed; callers treat a missing entry as zero.
func CalcRollup(items []RollupItem) Rollup {
	costs := make(map[string]decimal.Decimal)
	prices := make(map[string]decimal.Decimal)
	var order []string

	for _, it := range items {
		if _, ok := costs[it.Category]; !ok {
			order = append(order, it.Category)
			costs[it.Category] = decimal.Zero
			prices[it.Category] = decimal.Zero
		}
		costs[it.Category] = costs[it.Category].Add(dec(it.Cost))
		prices[it.Category] = prices[it.Category].Add(dec(it.Price))
	}

	r := Rollup{Categories: make(map[string]CategoryTotals, len(order))}
	totalCost, clientPrice := decimal.Zero, decimal.Zero
	for _, c := range order {
		r.Categories[c] = CategoryTotals{
			Cost:  costs[c].InexactFloat64(),
			Price: prices[c].InexactFloat64(),
		}
		totalCost = totalCost.Add(costs[c])
		clientPrice = clientPrice.Add(prices[c])
	}
	r.TotalCost = totalCost.InexactFloat64()
	r.ClientPrice = clientPrice.InexactFloat64()
	r.MarginPercent = CalcMarginPercent(r.TotalCost, r.ClientPrice)
	return r
}

// RecalculateBOQ re-sums every item of a BOQ and writes the category
// subtotals and the BOQ totals. Call it with the transaction app when the
// items were changed inside a transaction.
func RecalculateBOQ(app core.App, boqID string) (Rollup, error) {
	boq, err := app.FindRecordById("boq", boqID)
	if err != nil {
		return Rollup{}, fmt.Errorf("boq %s not found: %w", boqID, err)
	}

	items, err := app.FindRecordsByFilter("boq_items", "boq = {:boq}", "", 0, 0, map[string]any{"boq": boqID})
	if err != nil {
		return Rollup{}, fmt.Errorf("load items: %w", err)
	}
	rollupItems := make([]RollupItem, len(items))
	for i, it := range items {
		rollupItems[i] = RollupItem{
			Category: it.GetString("category"),
			Cost:     it.GetFloat("cost"),
			Price:    it.GetFloat("price"),
		}
	}
	r := CalcRollup(rollupItems)

	categories, err := app.FindRecordsByFilter("boq_categories", "boq = {:boq}", "", 0, 0, map[string]any{"boq": boqID})
	if err != nil {
		return Rollup{}, fmt.Errorf("load categories: %w", err)
	}
	for _, cat := range categories {
		totals := r.Categories[cat.Id]
		cat.Set("subtotal_cost", totals.Cost)
		cat.Set("subtotal_price", totals.Price)
		if err := app.Save(cat); err != nil {
			return Rollup{}, fmt.Errorf("save category %s: %w", cat.Id, err)
		}
	}

	boq.Set("total_cost", r.TotalCost)
	boq.Set("client_price", r.ClientPrice)
	if err := app.Save(boq); err != nil {
		return Rollup{}, fmt.Errorf("save boq totals: %w", err)
	}
	return r, nil
}
