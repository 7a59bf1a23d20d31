package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"

	"sitebook/collections"
	"sitebook/importer"
)

// ErrProjectNotFound is returned when an import targets an unknown project.
var ErrProjectNotFound = errors.New("project not found")

// BOQImport is everything needed to persist a parsed BOQ.
type BOQImport struct {
	ProjectID     string
	Reference     string
	SourceFile    string
	Mode          importer.Mode
	MarginPercent float64
	Items         []importer.ParsedLineItem
	Skipped       int
}

// Validate checks the import request before anything is written.
func (in BOQImport) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ProjectID, validation.Required),
		validation.Field(&in.Reference, validation.Length(0, 100)),
		validation.Field(&in.Mode, validation.Required, validation.In(importer.ModeAuto, importer.ModeManual)),
		validation.Field(&in.MarginPercent, validation.Min(0.0), validation.Max(1000.0)),
		validation.Field(&in.Items, validation.Required.Error("the file appears to be empty or could not be parsed")),
	)
}

// BOQImportResult summarises a committed import.
type BOQImportResult struct {
	BOQID      string
	Reference  string
	Version    int
	Categories int
	Items      int
	Superseded int
	Rollup     Rollup
}

// CommitBOQImport writes a new BOQ version with its categories and items in
// one transaction, marks the project's previous BOQs superseded and computes
// the totals. Nothing is written when any step fails.
func CommitBOQImport(app core.App, in BOQImport, now time.Time) (*BOQImportResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	result := &BOQImportResult{}
	err := app.RunInTransaction(func(txApp core.App) error {
		if _, err := txApp.FindRecordById("projects", in.ProjectID); err != nil {
			return ErrProjectNotFound
		}

		version, superseded, err := supersedeActiveBOQs(txApp, in.ProjectID)
		if err != nil {
			return err
		}
		result.Version = version
		result.Superseded = superseded

		reference := strings.TrimSpace(in.Reference)
		if reference == "" {
			reference, err = GenerateBOQReference(txApp, now)
			if err != nil {
				return err
			}
		}
		result.Reference = reference

		boqCol, err := txApp.FindCollectionByNameOrId("boq")
		if err != nil {
			return fmt.Errorf("boq collection not found: %w", err)
		}
		boq := core.NewRecord(boqCol)
		boq.Set("project", in.ProjectID)
		boq.Set("reference", reference)
		boq.Set("status", collections.BOQStatusDraft)
		boq.Set("version", version)
		boq.Set("margin_percent", in.MarginPercent)
		boq.Set("source_file", in.SourceFile)
		boq.Set("import_mode", string(in.Mode))
		if err := txApp.Save(boq); err != nil {
			return fmt.Errorf("save boq: %w", err)
		}
		result.BOQID = boq.Id

		categoryIDs, err := createCategories(txApp, boq.Id, importer.GroupCategories(in.Items))
		if err != nil {
			return err
		}
		result.Categories = len(categoryIDs)

		itemCol, err := txApp.FindCollectionByNameOrId("boq_items")
		if err != nil {
			return fmt.Errorf("boq_items collection not found: %w", err)
		}
		for i, it := range in.Items {
			rec := core.NewRecord(itemCol)
			rec.Set("boq", boq.Id)
			rec.Set("category", categoryIDs[it.Category])
			rec.Set("sort_order", i)
			rec.Set("item_code", it.ItemCode)
			rec.Set("description", it.Description)
			rec.Set("quantity", it.Quantity)
			rec.Set("unit", it.Unit)
			rec.Set("unit_cost", it.UnitCost)
			rec.Set("unit_price", it.UnitPrice)
			rec.Set("cost", CalcItemCost(it.Quantity, it.UnitCost))
			rec.Set("price", it.Price())
			rec.Set("is_optional", it.Optional)
			if err := txApp.Save(rec); err != nil {
				return fmt.Errorf("save item %d (%q): %w", i+1, it.Description, err)
			}
		}
		result.Items = len(in.Items)

		result.Rollup, err = RecalculateBOQ(txApp, boq.Id)
		return err
	})
	if err != nil {
		return nil, err
	}

	app.Logger().Info("boq import committed",
		"project", in.ProjectID,
		"boq", result.BOQID,
		"reference", result.Reference,
		"mode", string(in.Mode),
		"categories", result.Categories,
		"items", result.Items,
		"skipped", in.Skipped,
	)
	return result, nil
}

// supersedeActiveBOQs marks every non-superseded BOQ of the project superseded
// and returns the version number for the next BOQ.
func supersedeActiveBOQs(app core.App, projectID string) (int, int, error) {
	existing, err := app.FindRecordsByFilter(
		"boq",
		"project = {:project}",
		"-version",
		0,
		0,
		map[string]any{"project": projectID},
	)
	if err != nil {
		return 0, 0, fmt.Errorf("query existing boqs: %w", err)
	}

	next, superseded := 1, 0
	for _, b := range existing {
		if v := b.GetInt("version"); v >= next {
			next = v + 1
		}
		if b.GetString("status") == collections.BOQStatusSuperseded {
			continue
		}
		b.Set("status", collections.BOQStatusSuperseded)
		if err := app.Save(b); err != nil {
			return 0, 0, fmt.Errorf("supersede boq %s: %w", b.Id, err)
		}
		superseded++
	}
	return next, superseded, nil
}

// createCategories inserts categories in the given order and returns their
// ids by name.
func createCategories(app core.App, boqID string, names []string) (map[string]string, error) {
	col, err := app.FindCollectionByNameOrId("boq_categories")
	if err != nil {
		return nil, fmt.Errorf("boq_categories collection not found: %w", err)
	}
	ids := make(map[string]string, len(names))
	for i, name := range names {
		rec := core.NewRecord(col)
		rec.Set("boq", boqID)
		rec.Set("name", name)
		rec.Set("sort_order", i)
		if err := app.Save(rec); err != nil {
			return nil, fmt.Errorf("save category %q: %w", name, err)
		}
		ids[name] = rec.Id
	}
	return ids, nil
}

// ImportItems resolves the line items of a classified upload. Auto mode uses
// the smart parser's items as they are; manual mode needs a mapping, which
// falls back to the suggested one when nil.
func ImportItems(c importer.Classification, mapping *importer.ColumnMapping, marginPercent float64) ([]importer.ParsedLineItem, int, error) {
	if c.Mode == importer.ModeAuto && c.BOQ != nil {
		return c.BOQ.Items, c.BOQ.Skipped, nil
	}

	m := importer.SuggestMapping(c.Headers)
	if mapping != nil {
		m = *mapping
	}
	if err := m.Validate(c.Headers); err != nil {
		return nil, 0, err
	}
	items := importer.ApplyMapping(c.Records, m, marginPercent)
	if len(items) == 0 {
		return nil, 0, importer.ErrEmptyTable
	}
	return items, len(c.Records) - len(items), nil
}
