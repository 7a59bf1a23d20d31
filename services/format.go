package services

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Currency is prefixed to every formatted money amount.
const Currency = "AED"

// FormatMoney formats an amount with thousands separators and exactly two
// decimal places, e.g. "AED 1,234.50" or "-AED 80.00".
func FormatMoney(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + Currency + " " + humanize.FormatFloat("#,###.##", amount)
}

// formatQty returns a string representation of the quantity value.
// Whole numbers are formatted without decimals; fractional values get 2 decimal places.
func formatQty(qty float64) string {
	if qty == math.Trunc(qty) {
		return fmt.Sprintf("%.0f", qty)
	}
	return fmt.Sprintf("%.2f", qty)
}

// formatPercent renders a margin percentage with one decimal.
func formatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
