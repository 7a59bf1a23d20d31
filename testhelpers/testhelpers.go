// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"sitebook/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: t.TempDir(),
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestProject creates a project record with the given name and returns it.
func CreateTestProject(t *testing.T, app core.App, name string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		t.Fatalf("failed to find projects collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", name)
	record.Set("status", "active")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test project: %v", err)
	}
	return record
}

// CreateTestBOQ creates a draft BOQ (version 1) for a project.
func CreateTestBOQ(t *testing.T, app core.App, projectID string, marginPercent float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("boq")
	if err != nil {
		t.Fatalf("failed to find boq collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("project", projectID)
	record.Set("reference", "BOQ-TEST-001")
	record.Set("status", collections.BOQStatusDraft)
	record.Set("version", 1)
	record.Set("margin_percent", marginPercent)
	record.Set("import_mode", collections.ImportModeEditor)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test BOQ: %v", err)
	}
	return record
}

// CreateTestCategory creates a category under a BOQ.
func CreateTestCategory(t *testing.T, app core.App, boqID, name string, sortOrder int) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("boq_categories")
	if err != nil {
		t.Fatalf("failed to find boq_categories collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("boq", boqID)
	record.Set("name", name)
	record.Set("sort_order", sortOrder)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test category: %v", err)
	}
	return record
}

// CreateTestItem creates an item with cost = qty x unitCost and the given
// price. Totals are not recalculated.
func CreateTestItem(t *testing.T, app core.App, boqID, categoryID, description string, qty, unitCost, price float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("boq_items")
	if err != nil {
		t.Fatalf("failed to find boq_items collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("boq", boqID)
	record.Set("category", categoryID)
	record.Set("description", description)
	record.Set("quantity", qty)
	record.Set("unit", "item")
	record.Set("unit_cost", unitCost)
	record.Set("cost", qty*unitCost)
	record.Set("price", price)
	if qty > 0 {
		record.Set("unit_price", price/qty)
	}

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test item: %v", err)
	}
	return record
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
