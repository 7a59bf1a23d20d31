package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// BOQ statuses. A project has exactly one active BOQ: the highest version
// that is not superseded.
const (
	BOQStatusDraft           = "draft"
	BOQStatusPendingApproval = "pending_approval"
	BOQStatusApproved        = "approved"
	BOQStatusSent            = "sent"
	BOQStatusSuperseded      = "superseded"
)

// Import modes recorded on a BOQ.
const (
	ImportModeAuto   = "auto"
	ImportModeManual = "manual"
	ImportModeEditor = "editor"
)

// Setup programmatically creates/ensures the project, BOQ and schedule
// collections exist.
func Setup(app *pocketbase.PocketBase) {
	projects := ensureCollection(app, "projects", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "reference"})
		c.Fields.Add(&core.TextField{Name: "client_name"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Values:    []string{"active", "on_hold", "completed"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	boq := ensureCollection(app, "boq", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "project",
			Required:      true,
			CollectionId:  projects.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "reference"})
		c.Fields.Add(&core.SelectField{
			Name:     "status",
			Required: true,
			Values: []string{
				BOQStatusDraft,
				BOQStatusPendingApproval,
				BOQStatusApproved,
				BOQStatusSent,
				BOQStatusSuperseded,
			},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "version", Required: true, OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "margin_percent"})
		c.Fields.Add(&core.NumberField{Name: "total_cost"})
		c.Fields.Add(&core.NumberField{Name: "client_price"})
		c.Fields.Add(&core.TextField{Name: "source_file"})
		c.Fields.Add(&core.SelectField{
			Name:      "import_mode",
			Values:    []string{ImportModeAuto, ImportModeManual, ImportModeEditor},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "submitted_at"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	categories := ensureCollection(app, "boq_categories", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "boq",
			Required:      true,
			CollectionId:  boq.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.NumberField{Name: "sort_order", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "subtotal_cost"})
		c.Fields.Add(&core.NumberField{Name: "subtotal_price"})
	})

	ensureCollection(app, "boq_items", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "boq",
			Required:      true,
			CollectionId:  boq.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.RelationField{
			Name:          "category",
			Required:      true,
			CollectionId:  categories.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "sort_order", OnlyInt: true})
		c.Fields.Add(&core.TextField{Name: "item_code"})
		c.Fields.Add(&core.TextField{Name: "description", Required: true})
		c.Fields.Add(&core.NumberField{Name: "quantity"})
		c.Fields.Add(&core.TextField{Name: "unit"})
		c.Fields.Add(&core.NumberField{Name: "unit_cost"})
		c.Fields.Add(&core.NumberField{Name: "unit_price"})
		c.Fields.Add(&core.NumberField{Name: "cost"})
		c.Fields.Add(&core.NumberField{Name: "price"})
		c.Fields.Add(&core.BoolField{Name: "price_is_manual"})
		c.Fields.Add(&core.BoolField{Name: "is_optional"})
		c.Fields.Add(&core.BoolField{Name: "is_inhouse"})
	})

	schedules := ensureCollection(app, "schedules", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "project",
			Required:      true,
			CollectionId:  projects.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "start_date"})
		c.Fields.Add(&core.TextField{Name: "end_date"})
		c.Fields.Add(&core.TextField{Name: "source_file"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	phases := ensureCollection(app, "phases", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "schedule",
			Required:      true,
			CollectionId:  schedules.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "prefix"})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "start_date"})
		c.Fields.Add(&core.TextField{Name: "end_date"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Values:    []string{"not_started", "in_progress", "completed"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "progress_percent"})
		c.Fields.Add(&core.NumberField{Name: "sort_order", OnlyInt: true})
	})

	ensureCollection(app, "tasks", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "phase",
			Required:      true,
			CollectionId:  phases.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "code"})
		c.Fields.Add(&core.TextField{Name: "description", Required: true})
		c.Fields.Add(&core.TextField{Name: "start_date"})
		c.Fields.Add(&core.TextField{Name: "due_date"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Values:    []string{"pending", "in_progress", "done"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "sort_order", OnlyInt: true})
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
