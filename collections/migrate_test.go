package collections_test

import (
	"testing"

	"sitebook/collections"
	"sitebook/testhelpers"
)

func TestMigrateSingleActiveBOQ_SupersedesOlderVersions(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Villa 12")
	other := testhelpers.CreateTestProject(t, app, "Office 4")

	v1 := testhelpers.CreateTestBOQ(t, app, proj.Id, 25)
	v2 := testhelpers.CreateTestBOQ(t, app, proj.Id, 25)
	v2.Set("version", 2)
	if err := app.Save(v2); err != nil {
		t.Fatalf("save v2: %v", err)
	}
	solo := testhelpers.CreateTestBOQ(t, app, other.Id, 25)

	if err := collections.MigrateSingleActiveBOQ(app); err != nil {
		t.Fatalf("MigrateSingleActiveBOQ() error: %v", err)
	}

	tests := []struct {
		id     string
		status string
	}{
		{v1.Id, collections.BOQStatusSuperseded},
		{v2.Id, collections.BOQStatusDraft},
		{solo.Id, collections.BOQStatusDraft},
	}
	for _, tt := range tests {
		rec, err := app.FindRecordById("boq", tt.id)
		if err != nil {
			t.Fatalf("find boq %s: %v", tt.id, err)
		}
		if rec.GetString("status") != tt.status {
			t.Errorf("boq v%d status = %q, want %q", rec.GetInt("version"), rec.GetString("status"), tt.status)
		}
	}
}

func TestMigrateSingleActiveBOQ_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proj := testhelpers.CreateTestProject(t, app, "Villa 12")
	testhelpers.CreateTestBOQ(t, app, proj.Id, 25)

	for i := 0; i < 2; i++ {
		if err := collections.MigrateSingleActiveBOQ(app); err != nil {
			t.Fatalf("run %d error: %v", i+1, err)
		}
	}

	boqs, err := app.FindRecordsByFilter("boq", "status = 'draft'", "", 0, 0, nil)
	if err != nil {
		t.Fatalf("query boqs: %v", err)
	}
	if len(boqs) != 1 {
		t.Errorf("expected the single BOQ to stay draft, got %d drafts", len(boqs))
	}
}
