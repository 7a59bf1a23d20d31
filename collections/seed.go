package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// ── Definition structs ───────────────────────────────────────────────────

type itemDef struct {
	code        string
	description string
	qty         float64
	unit        string
	unitCost    float64
	optional    bool
}

type categoryDef struct {
	name  string
	items []itemDef
}

type taskDef struct {
	code  string
	name  string
	start string
	end   string
}

type phaseDef struct {
	prefix string
	name   string
	tasks  []taskDef
}

const seedMarginPercent = 25.0

var seedCategories = []categoryDef{
	{name: "A. Demolition", items: []itemDef{
		{"A.1", "Remove existing floor tiles and screed", 145, "m2", 28, false},
		{"A.2", "Strip out kitchen units and dispose", 1, "item", 1800, false},
	}},
	{name: "B. MEP", items: []itemDef{
		{"B.1", "Rewire ground floor lighting circuits", 1, "sum", 6500, false},
		{"B.2", "Supply and fix LED downlights", 36, "nr", 145, false},
		{"B.3", "Replace split AC units, 2 ton", 3, "nr", 4200, true},
	}},
	{name: "C. Joinery", items: []itemDef{
		{"C.1", "Built-in wardrobes, full height", 4, "nr", 7800, false},
		{"C.2", "Kitchen cabinets with quartz top", 1, "item", 32000, false},
	}},
}

var seedPhases = []phaseDef{
	{prefix: "A", name: "Preliminaries", tasks: []taskDef{
		{"A1", "Site mobilisation", "2026-03-02", "2026-03-03"},
		{"A2", "Protection and hoarding", "2026-03-03", "2026-03-05"},
	}},
	{prefix: "B", name: "Demolition", tasks: []taskDef{
		{"B1", "Strip out kitchen", "2026-03-06", "2026-03-09"},
		{"B2", "Remove floor finishes", "2026-03-09", "2026-03-13"},
	}},
	{prefix: "T", name: "Tiling", tasks: []taskDef{
		{"T1", "Floor tiling ground floor", "2026-03-23", "2026-04-03"},
	}},
}

// Seed inserts a demo project with one draft BOQ and a schedule when the
// projects collection is empty. Safe to call on every startup.
func Seed(app *pocketbase.PocketBase) error {
	projectsCol, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		return fmt.Errorf("seed: could not find projects collection: %w", err)
	}
	existing, err := app.FindAllRecords(projectsCol)
	if err != nil {
		return fmt.Errorf("seed: could not query projects: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	log.Println("seed: projects collection is empty – inserting seed data …")

	return app.RunInTransaction(func(txApp core.App) error {
		project := core.NewRecord(projectsCol)
		project.Set("name", "Villa 12 – Jumeirah Park")
		project.Set("reference", "BBC/01/2026")
		project.Set("client_name", "Mr. & Mrs. Haddad")
		project.Set("status", "active")
		if err := txApp.Save(project); err != nil {
			return fmt.Errorf("seed: save project: %w", err)
		}

		if err := seedBOQ(txApp, project.Id); err != nil {
			return err
		}
		if err := seedSchedule(txApp, project.Id); err != nil {
			return err
		}

		log.Printf("seed: created project %q (%s)\n", project.GetString("name"), project.Id)
		return nil
	})
}

func seedBOQ(app core.App, projectID string) error {
	boqCol, err := app.FindCollectionByNameOrId("boq")
	if err != nil {
		return fmt.Errorf("seed: could not find boq collection: %w", err)
	}
	catCol, err := app.FindCollectionByNameOrId("boq_categories")
	if err != nil {
		return fmt.Errorf("seed: could not find boq_categories collection: %w", err)
	}
	itemCol, err := app.FindCollectionByNameOrId("boq_items")
	if err != nil {
		return fmt.Errorf("seed: could not find boq_items collection: %w", err)
	}

	boq := core.NewRecord(boqCol)
	boq.Set("project", projectID)
	boq.Set("reference", "BBC/01/2026")
	boq.Set("status", BOQStatusDraft)
	boq.Set("version", 1)
	boq.Set("margin_percent", seedMarginPercent)
	boq.Set("import_mode", ImportModeEditor)
	if err := app.Save(boq); err != nil {
		return fmt.Errorf("seed: save boq: %w", err)
	}

	markup := 1 + seedMarginPercent/100
	var totalCost, totalPrice float64
	sortOrder := 0
	for ci, c := range seedCategories {
		cat := core.NewRecord(catCol)
		cat.Set("boq", boq.Id)
		cat.Set("name", c.name)
		cat.Set("sort_order", ci)
		if err := app.Save(cat); err != nil {
			return fmt.Errorf("seed: save category %q: %w", c.name, err)
		}

		var subCost, subPrice float64
		for _, d := range c.items {
			cost := d.qty * d.unitCost
			price := cost * markup

			r := core.NewRecord(itemCol)
			r.Set("boq", boq.Id)
			r.Set("category", cat.Id)
			r.Set("sort_order", sortOrder)
			r.Set("item_code", d.code)
			r.Set("description", d.description)
			r.Set("quantity", d.qty)
			r.Set("unit", d.unit)
			r.Set("unit_cost", d.unitCost)
			r.Set("unit_price", d.unitCost*markup)
			r.Set("cost", cost)
			r.Set("price", price)
			r.Set("is_optional", d.optional)
			if err := app.Save(r); err != nil {
				return fmt.Errorf("seed: save item %q: %w", d.description, err)
			}
			sortOrder++
			subCost += cost
			subPrice += price
		}

		cat.Set("subtotal_cost", subCost)
		cat.Set("subtotal_price", subPrice)
		if err := app.Save(cat); err != nil {
			return fmt.Errorf("seed: save category totals %q: %w", c.name, err)
		}
		totalCost += subCost
		totalPrice += subPrice
	}

	boq.Set("total_cost", totalCost)
	boq.Set("client_price", totalPrice)
	if err := app.Save(boq); err != nil {
		return fmt.Errorf("seed: save boq totals: %w", err)
	}
	return nil
}

func seedSchedule(app core.App, projectID string) error {
	scheduleCol, err := app.FindCollectionByNameOrId("schedules")
	if err != nil {
		return fmt.Errorf("seed: could not find schedules collection: %w", err)
	}
	phaseCol, err := app.FindCollectionByNameOrId("phases")
	if err != nil {
		return fmt.Errorf("seed: could not find phases collection: %w", err)
	}
	taskCol, err := app.FindCollectionByNameOrId("tasks")
	if err != nil {
		return fmt.Errorf("seed: could not find tasks collection: %w", err)
	}

	schedule := core.NewRecord(scheduleCol)
	schedule.Set("project", projectID)
	schedule.Set("start_date", "2026-03-02")
	schedule.Set("end_date", "2026-04-03")
	if err := app.Save(schedule); err != nil {
		return fmt.Errorf("seed: save schedule: %w", err)
	}

	for pi, p := range seedPhases {
		phase := core.NewRecord(phaseCol)
		phase.Set("schedule", schedule.Id)
		phase.Set("prefix", p.prefix)
		phase.Set("name", p.name)
		phase.Set("start_date", p.tasks[0].start)
		phase.Set("end_date", p.tasks[len(p.tasks)-1].end)
		phase.Set("status", "not_started")
		phase.Set("sort_order", pi)
		if err := app.Save(phase); err != nil {
			return fmt.Errorf("seed: save phase %q: %w", p.name, err)
		}

		for ti, d := range p.tasks {
			task := core.NewRecord(taskCol)
			task.Set("phase", phase.Id)
			task.Set("code", d.code)
			task.Set("description", d.code+": "+d.name)
			task.Set("start_date", d.start)
			task.Set("due_date", d.end)
			task.Set("status", "pending")
			task.Set("sort_order", ti)
			if err := app.Save(task); err != nil {
				return fmt.Errorf("seed: save task %q: %w", d.code, err)
			}
		}
	}
	return nil
}
