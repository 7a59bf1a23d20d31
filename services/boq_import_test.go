package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"sitebook/collections"
	"sitebook/importer"
	"sitebook/testhelpers"
)

var importNow = time.Date(2026, time.February, 23, 10, 0, 0, 0, time.UTC)

func sampleItems() []importer.ParsedLineItem {
	return []importer.ParsedLineItem{
		{Category: "A. Demolition", Description: "Strip tiles", Quantity: 10, Unit: "m2", UnitCost: 20, UnitPrice: 25, Total: 250},
		{Category: "A. Demolition", Description: "Skip hire", Quantity: 1, Unit: "item", UnitCost: 300, UnitPrice: 375, Total: 375},
		{Category: "B. MEP", Description: "Downlights", Quantity: 4, Unit: "nr", UnitCost: 50, UnitPrice: 62.5, Total: 250, Optional: true},
	}
}

func TestCommitBOQImport_CreatesDraft(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Villa 12")

	res, err := CommitBOQImport(app, BOQImport{
		ProjectID:     proj.Id,
		Reference:     "BBC/01/2026",
		SourceFile:    "BBC-01-2026.xlsx",
		Mode:          importer.ModeAuto,
		MarginPercent: 25,
		Items:         sampleItems(),
	}, importNow)
	if err != nil {
		t.Fatalf("CommitBOQImport() error: %v", err)
	}

	if res.Version != 1 || res.Superseded != 0 {
		t.Errorf("version/superseded = %d/%d, want 1/0", res.Version, res.Superseded)
	}
	if res.Categories != 2 || res.Items != 3 {
		t.Errorf("categories/items = %d/%d, want 2/3", res.Categories, res.Items)
	}
	if res.Rollup.TotalCost != 700 || res.Rollup.ClientPrice != 875 {
		t.Errorf("rollup = %v / %v, want 700 / 875", res.Rollup.TotalCost, res.Rollup.ClientPrice)
	}

	boq, err := app.FindRecordById("boq", res.BOQID)
	if err != nil {
		t.Fatalf("find boq: %v", err)
	}
	if boq.GetString("status") != collections.BOQStatusDraft {
		t.Errorf("status = %q, want draft", boq.GetString("status"))
	}
	if boq.GetString("reference") != "BBC/01/2026" {
		t.Errorf("reference = %q", boq.GetString("reference"))
	}
	if boq.GetString("import_mode") != collections.ImportModeAuto {
		t.Errorf("import_mode = %q, want auto", boq.GetString("import_mode"))
	}

	view, err := LoadBOQ(app, res.BOQID)
	if err != nil {
		t.Fatalf("LoadBOQ() error: %v", err)
	}
	if len(view.Categories) != 2 || view.ItemCount() != 3 {
		t.Fatalf("loaded %d categories / %d items", len(view.Categories), view.ItemCount())
	}
	if view.Categories[0].Record.GetString("name") != "A. Demolition" {
		t.Errorf("first category = %q", view.Categories[0].Record.GetString("name"))
	}
	mep := view.Categories[1].Items[0]
	if !mep.GetBool("is_optional") {
		t.Error("expected optional flag on MEP item")
	}
	if mep.GetBool("price_is_manual") {
		t.Error("imported items should not be manually priced")
	}
}

func TestCommitBOQImport_SupersedesPrevious(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Villa 12")

	in := BOQImport{ProjectID: proj.Id, Mode: importer.ModeManual, MarginPercent: 25, Items: sampleItems()}
	first, err := CommitBOQImport(app, in, importNow)
	if err != nil {
		t.Fatalf("first import error: %v", err)
	}
	second, err := CommitBOQImport(app, in, importNow)
	if err != nil {
		t.Fatalf("second import error: %v", err)
	}

	if second.Version != 2 || second.Superseded != 1 {
		t.Errorf("second version/superseded = %d/%d, want 2/1", second.Version, second.Superseded)
	}

	old, _ := app.FindRecordById("boq", first.BOQID)
	if old.GetString("status") != collections.BOQStatusSuperseded {
		t.Errorf("first BOQ status = %q, want superseded", old.GetString("status"))
	}

	active, err := ActiveBOQ(app, proj.Id)
	if err != nil {
		t.Fatalf("ActiveBOQ() error: %v", err)
	}
	if active.Id != second.BOQID {
		t.Errorf("active BOQ = %s, want %s", active.Id, second.BOQID)
	}
}

func TestCommitBOQImport_GeneratesReference(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Villa 12")

	in := BOQImport{ProjectID: proj.Id, Mode: importer.ModeAuto, Items: sampleItems()}
	first, err := CommitBOQImport(app, in, importNow)
	if err != nil {
		t.Fatalf("import error: %v", err)
	}
	second, err := CommitBOQImport(app, in, importNow)
	if err != nil {
		t.Fatalf("import error: %v", err)
	}

	if first.Reference != "BOQ-2026-001" {
		t.Errorf("first reference = %q, want BOQ-2026-001", first.Reference)
	}
	if second.Reference != "BOQ-2026-002" {
		t.Errorf("second reference = %q, want BOQ-2026-002", second.Reference)
	}
}

func TestCommitBOQImport_Validation(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Villa 12")

	tests := []struct {
		name    string
		in      BOQImport
		wantErr string
	}{
		{"no items", BOQImport{ProjectID: proj.Id, Mode: importer.ModeAuto}, "empty or could not be parsed"},
		{"no project", BOQImport{Mode: importer.ModeAuto, Items: sampleItems()}, "cannot be blank"},
		{"bad margin", BOQImport{ProjectID: proj.Id, Mode: importer.ModeAuto, MarginPercent: -1, Items: sampleItems()}, "no less than"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CommitBOQImport(app, tt.in, importNow)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCommitBOQImport_UnknownProjectRollsBack(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	_, err := CommitBOQImport(app, BOQImport{
		ProjectID: "missing",
		Mode:      importer.ModeAuto,
		Items:     sampleItems(),
	}, importNow)
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("error = %v, want ErrProjectNotFound", err)
	}

	count, err := app.CountRecords("boq")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no BOQ rows, got %d", count)
	}
}

func TestImportItems_Manual(t *testing.T) {
	c := importer.Classification{
		Mode:    importer.ModeManual,
		Headers: []string{"Work Description", "Rate"},
		Records: []importer.Record{
			{"Work Description": importer.TextCell("Paint walls"), "Rate": importer.NumberCell(100)},
			{"Work Description": importer.TextCell(""), "Rate": importer.NumberCell(5)},
		},
	}

	items, skipped, err := ImportItems(c, nil, 25)
	if err != nil {
		t.Fatalf("ImportItems() error: %v", err)
	}
	if len(items) != 1 || skipped != 1 {
		t.Fatalf("items/skipped = %d/%d, want 1/1", len(items), skipped)
	}
	it := items[0]
	if it.Quantity != 1 || it.Unit != "item" || it.Category != "Uncategorised" {
		t.Errorf("defaults = %v %q %q", it.Quantity, it.Unit, it.Category)
	}
	if it.Price() != 125 {
		t.Errorf("price = %v, want 125", it.Price())
	}
}

func TestImportItems_ManualMissingRate(t *testing.T) {
	c := importer.Classification{
		Mode:    importer.ModeManual,
		Headers: []string{"Work Description", "Notes"},
		Records: []importer.Record{
			{"Work Description": importer.TextCell("Paint walls"), "Notes": importer.TextCell("two coats")},
		},
	}

	if _, _, err := ImportItems(c, nil, 25); err == nil {
		t.Error("expected a mapping error when no rate column is mapped")
	}
}

func TestImportItems_Auto(t *testing.T) {
	parsed := &importer.BOQParseResult{Items: sampleItems(), Skipped: 4}
	c := importer.Classification{Mode: importer.ModeAuto, BOQ: parsed}

	items, skipped, err := ImportItems(c, nil, 25)
	if err != nil {
		t.Fatalf("ImportItems() error: %v", err)
	}
	if len(items) != 3 || skipped != 4 {
		t.Errorf("items/skipped = %d/%d, want 3/4", len(items), skipped)
	}
}

func TestImportItems_NonFiniteRatesFromCSV(t *testing.T) {
	csv := "Description,Qty,Rate\nPaint walls,2,NaN\nSkirting,inf,12\nDoors,1,-Infinity\n"
	tbl, err := importer.ReadTable(strings.NewReader(csv), "rates.csv")
	if err != nil {
		t.Fatalf("ReadTable() error: %v", err)
	}
	c, err := importer.Classify(tbl, importer.BolsoverBOQv1, importer.DefaultAutoThreshold)
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}

	items, _, err := ImportItems(c, nil, 25)
	if err != nil {
		t.Fatalf("ImportItems() error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	want := []struct{ qty, rate float64 }{{2, 0}, {1, 12}, {1, 0}}
	for i, it := range items {
		if it.Quantity != want[i].qty || it.UnitCost != want[i].rate {
			t.Errorf("item %d qty/rate = %v/%v, want %v/%v", i, it.Quantity, it.UnitCost, want[i].qty, want[i].rate)
		}
		if got := CalcItemCost(it.Quantity, it.UnitCost); got != want[i].qty*want[i].rate {
			t.Errorf("item %d cost = %v", i, got)
		}
	}
}
