package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// formatBOQReference constructs the generated reference from its parts.
func formatBOQReference(year, sequence int) string {
	return fmt.Sprintf("BOQ-%d-%03d", year, sequence)
}

// GenerateBOQReference creates the next generated reference for the year.
// Format: BOQ-{year}-{sequence}
// - sequence: 3-digit zero-padded, one past the highest generated reference
//   of that year across all projects
func GenerateBOQReference(app core.App, now time.Time) (string, error) {
	prefix := fmt.Sprintf("BOQ-%d-", now.Year())

	existing, err := app.FindRecordsByFilter(
		"boq",
		"reference ~ {:prefix}",
		"",
		0,
		0,
		map[string]any{"prefix": prefix + "%"},
	)
	if err != nil {
		return "", fmt.Errorf("query references: %w", err)
	}

	next := 1
	for _, r := range existing {
		seq, err := strconv.Atoi(strings.TrimPrefix(r.GetString("reference"), prefix))
		if err == nil && seq >= next {
			next = seq + 1
		}
	}
	return formatBOQReference(now.Year(), next), nil
}
