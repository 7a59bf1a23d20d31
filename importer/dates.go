package importer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

// DateLayout is the ISO calendar date format used for every schedule date.
const DateLayout = "2006-01-02"

var (
	shortDate = regexp.MustCompile(`^(\d{1,2})-([A-Za-z]{3})-(\d{2})$`)

	// Primavera suffixes actual dates with "A" and constrained dates with "*".
	primaveraFlag = regexp.MustCompile(`\s*(\*|\bA)$`)

	months = map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March,
		"apr": time.April, "may": time.May, "jun": time.June,
		"jul": time.July, "aug": time.August, "sep": time.September,
		"oct": time.October, "nov": time.November, "dec": time.December,
	}

	// Layouts tried before the generic conversion. Slash dates follow the
	// month-first reading of the exporting tool.
	extraLayouts = []string{
		"2-Jan-2006",
		"2 Jan 2006",
		"2 Jan 06",
		"1/2/2006",
		"1/2/06",
		"2006/01/02",
	}
)

// ParseDate normalizes a schedule date cell to YYYY-MM-DD. Numeric cells are
// Excel serial dates. Unparsable input returns "" rather than an error.
func ParseDate(c Cell) string {
	switch c.Kind {
	case CellNumber:
		if c.Number <= 0 {
			return ""
		}
		t, err := excelize.ExcelDateToTime(c.Number, false)
		if err != nil {
			return ""
		}
		return t.Format(DateLayout)
	case CellText:
		return ParseDateString(c.Text)
	}
	return ""
}

// ParseDateString handles the DD-MMM-YY export form (two-digit years above 50
// are 19xx, the rest 20xx) and falls back to generic date parsing.
func ParseDateString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = primaveraFlag.ReplaceAllString(s, "")

	if m := shortDate.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		yy, _ := strconv.Atoi(m[3])
		month, ok := months[strings.ToLower(m[2])]
		if ok {
			year := 2000 + yy
			if yy > 50 {
				year = 1900 + yy
			}
			t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			if t.Day() != day || t.Month() != month {
				return ""
			}
			return t.Format(DateLayout)
		}
	}

	for _, layout := range extraLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}
	if t, err := cast.ToTimeE(s); err == nil {
		return t.Format(DateLayout)
	}
	return ""
}
