// Package importer turns supplier spreadsheets (BOQ workbooks and project
// schedule exports) into normalized line items and phases. Everything in this
// package is pure in-memory computation; persistence lives in services.
package importer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// CellKind tags the value held by a Cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is a single spreadsheet value: empty, text or number.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// Row is an ordered sequence of cells. Rows may be ragged.
type Row []Cell

// RawTable is the verbatim content of one worksheet.
type RawTable struct {
	Sheet string
	Rows  []Row
}

// TextCell returns a text cell, or an empty cell for blank strings.
func TextCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// NumberCell returns a numeric cell. NaN and infinities yield an empty cell.
func NumberCell(n float64) Cell {
	if !finite(n) {
		return Cell{}
	}
	return Cell{Kind: CellNumber, Number: n}
}

func finite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}

// InferCell types a raw string the way spreadsheet readers do for CSV input:
// anything that parses as a plain number becomes numeric, the rest is text.
func InferCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Cell{}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil && finite(n) {
		return NumberCell(n)
	}
	return Cell{Kind: CellText, Text: raw}
}

// IsEmpty reports whether the cell holds no usable value.
func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case CellText:
		return strings.TrimSpace(c.Text) == ""
	case CellNumber:
		return false
	}
	return true
}

// String renders the cell as text. Numbers use the shortest exact form.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	}
	return ""
}

// Trimmed is String with surrounding whitespace removed.
func (c Cell) Trimmed() string {
	return strings.TrimSpace(c.String())
}

// Float returns the numeric value of the cell. Text cells are converted
// leniently; ok is false when nothing numeric could be read.
func (c Cell) Float() (float64, bool) {
	switch c.Kind {
	case CellNumber:
		if finite(c.Number) {
			return c.Number, true
		}
	case CellText:
		if n, err := cast.ToFloat64E(strings.TrimSpace(c.Text)); err == nil && finite(n) {
			return n, true
		}
		if n, ok := parseAmount(c.Text); ok {
			return n, true
		}
	}
	return 0, false
}

// At returns the cell at index i, or an empty cell when the row is shorter.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}

// NonEmpty counts cells holding a value.
func (r Row) NonEmpty() int {
	n := 0
	for _, c := range r {
		if !c.IsEmpty() {
			n++
		}
	}
	return n
}

// Lower returns the lower-cased trimmed text of every cell.
func (r Row) Lower() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = strings.ToLower(c.Trimmed())
	}
	return out
}

var nonAmountChars = regexp.MustCompile(`[^0-9.\-]`)

// parseAmount strips currency symbols, thousand separators and any other
// character that is not a digit, dot or minus before parsing.
func parseAmount(s string) (float64, bool) {
	cleaned := nonAmountChars.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, false
	}
	if n, err := strconv.ParseFloat(cleaned, 64); err == nil && finite(n) {
		return n, true
	}
	if n, ok := leadingFloat(cleaned); ok {
		return n, true
	}
	return 0, false
}

var leadingNumber = regexp.MustCompile(`^\s*[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)

// leadingFloat reads the numeric prefix of s ("3 nos" -> 3).
func leadingFloat(s string) (float64, bool) {
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil || !finite(n) {
		return 0, false
	}
	return n, true
}

// amount returns the numeric value of a money cell, 0 when absent.
func amount(c Cell) float64 {
	switch c.Kind {
	case CellNumber:
		if finite(c.Number) {
			return c.Number
		}
	case CellText:
		if n, ok := parseAmount(c.Text); ok {
			return n
		}
	}
	return 0
}
