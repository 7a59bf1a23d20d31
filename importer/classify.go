package importer

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Mode is the ingestion strategy chosen for a BOQ file.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeManual Mode = "manual"
)

// DefaultAutoThreshold is the item count the smart parser must exceed for a
// file to be accepted without manual mapping.
const DefaultAutoThreshold = 5

// Classification is the outcome of Classify. Exactly one of BOQ (auto) or
// Headers/Records (manual) is populated.
type Classification struct {
	Mode Mode `json:"mode"`

	BOQ *BOQParseResult `json:"boq,omitempty"`

	HeaderRow int      `json:"header_row"`
	Headers   []string `json:"headers,omitempty"`
	Records   []Record `json:"-"`
}

// Record is one data row keyed by header name.
type Record map[string]Cell

// Classify runs the smart parser and keeps its result only when it yields
// more than threshold items; otherwise the whole file falls back to manual
// mapping. There is no partial mode.
func Classify(t *RawTable, p FormatProfile, threshold int) (Classification, error) {
	res := ParseBOQ(t, p)
	if len(res.Items) > threshold {
		return Classification{Mode: ModeAuto, BOQ: &res, HeaderRow: res.HeaderRow}, nil
	}

	header := FindHeaderRow(t)
	if header < 0 {
		return Classification{}, ErrEmptyTable
	}
	headers, records := Records(t, header)
	if len(records) == 0 {
		return Classification{}, ErrEmptyTable
	}
	return Classification{
		Mode:      ModeManual,
		HeaderRow: header,
		Headers:   headers,
		Records:   records,
	}, nil
}

// FindHeaderRow returns the first row with at least two non-empty cells, or -1.
func FindHeaderRow(t *RawTable) int {
	for i, row := range t.Rows {
		if row.NonEmpty() >= 2 {
			return i
		}
	}
	return -1
}

// Records converts the rows below header into records keyed by the header
// text. Blank header cells are named after their column letter and repeated
// names get a numeric suffix. Fully empty rows are dropped.
func Records(t *RawTable, header int) ([]string, []Record) {
	if header < 0 || header >= len(t.Rows) {
		return nil, nil
	}
	width := 0
	for _, row := range t.Rows[header:] {
		width = max(width, len(row))
	}

	headRow := t.Rows[header]
	headers := make([]string, width)
	used := make(map[string]int)
	for i := range width {
		name := headRow.At(i).Trimmed()
		if name == "" {
			col, _ := excelize.ColumnNumberToName(i + 1)
			name = "Column " + col
		}
		if n, dup := used[name]; dup {
			used[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			used[name] = 0
		}
		headers[i] = name
	}

	var records []Record
	for _, row := range t.Rows[header+1:] {
		if row.NonEmpty() == 0 {
			continue
		}
		rec := make(Record, len(headers))
		for i, h := range headers {
			if c := row.At(i); !c.IsEmpty() {
				rec[h] = c
			}
		}
		records = append(records, rec)
	}
	return headers, records
}

// Sample returns up to n records rendered as strings for previews.
func Sample(headers []string, records []Record, n int) []map[string]string {
	n = min(n, len(records))
	out := make([]map[string]string, 0, n)
	for _, rec := range records[:n] {
		m := make(map[string]string, len(headers))
		for _, h := range headers {
			m[h] = strings.TrimSpace(rec[h].String())
		}
		out = append(out, m)
	}
	return out
}
