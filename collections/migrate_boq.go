package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

// MigrateSingleActiveBOQ supersedes every non-superseded BOQ of a project
// except the highest version, so each project has at most one active BOQ.
// Safe to call on every startup -- returns early if nothing to migrate.
func MigrateSingleActiveBOQ(app core.App) error {
	active, err := app.FindRecordsByFilter(
		"boq",
		"status != {:superseded}",
		"project,-version",
		0,
		0,
		map[string]any{"superseded": BOQStatusSuperseded},
	)
	if err != nil {
		return fmt.Errorf("migrate: could not query active BOQs: %w", err)
	}

	seen := make(map[string]bool)
	var stale []*core.Record
	for _, boq := range active {
		project := boq.GetString("project")
		if seen[project] {
			stale = append(stale, boq)
			continue
		}
		seen[project] = true
	}

	if len(stale) == 0 {
		return nil
	}

	log.Printf("migrate: found %d extra active BOQ(s) -- marking superseded...\n", len(stale))

	for _, boq := range stale {
		boq.Set("status", BOQStatusSuperseded)
		if err := app.Save(boq); err != nil {
			log.Printf("migrate: failed to supersede BOQ %s (v%d): %v\n", boq.Id, boq.GetInt("version"), err)
			continue
		}
		log.Printf("migrate: BOQ %s v%d of project %s -> superseded\n",
			boq.Id, boq.GetInt("version"), boq.GetString("project"))
	}

	log.Println("migrate: single active BOQ migration complete.")
	return nil
}
