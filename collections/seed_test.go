package collections_test

import (
	"testing"

	"sitebook/collections"
	"sitebook/testhelpers"
)

func TestSeed_CreatesData(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	projects, err := app.FindAllRecords("projects")
	if err != nil {
		t.Fatalf("query projects error: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}

	boqs, _ := app.FindAllRecords("boq")
	if len(boqs) != 1 {
		t.Fatalf("expected 1 BOQ, got %d", len(boqs))
	}
	boq := boqs[0]
	if boq.GetString("project") != projects[0].Id {
		t.Errorf("BOQ project = %q, want %q", boq.GetString("project"), projects[0].Id)
	}
	if boq.GetString("status") != collections.BOQStatusDraft || boq.GetInt("version") != 1 {
		t.Errorf("BOQ status/version = %q/%d", boq.GetString("status"), boq.GetInt("version"))
	}

	categories, _ := app.FindAllRecords("boq_categories")
	if len(categories) != 3 {
		t.Errorf("expected 3 categories, got %d", len(categories))
	}
	items, _ := app.FindAllRecords("boq_items")
	if len(items) != 7 {
		t.Errorf("expected 7 items, got %d", len(items))
	}

	var sumCost, sumPrice float64
	for _, c := range categories {
		sumCost += c.GetFloat("subtotal_cost")
		sumPrice += c.GetFloat("subtotal_price")
	}
	if sumCost != boq.GetFloat("total_cost") {
		t.Errorf("category costs %v != total cost %v", sumCost, boq.GetFloat("total_cost"))
	}
	if sumPrice != boq.GetFloat("client_price") {
		t.Errorf("category prices %v != client price %v", sumPrice, boq.GetFloat("client_price"))
	}

	phases, _ := app.FindAllRecords("phases")
	if len(phases) != 3 {
		t.Errorf("expected 3 phases, got %d", len(phases))
	}
	tasks, _ := app.FindAllRecords("tasks")
	if len(tasks) != 5 {
		t.Errorf("expected 5 tasks, got %d", len(tasks))
	}
}

func TestSeed_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("first Seed() error: %v", err)
	}
	if err := collections.Seed(app); err != nil {
		t.Fatalf("second Seed() error: %v", err)
	}

	projects, _ := app.FindAllRecords("projects")
	if len(projects) != 1 {
		t.Errorf("expected 1 project after two seeds, got %d", len(projects))
	}
}
