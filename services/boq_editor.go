package services

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"

	"sitebook/collections"
	"sitebook/importer"
)

var (
	// ErrBOQLocked is returned when editing a superseded BOQ.
	ErrBOQLocked = errors.New("superseded BOQs cannot be edited")

	// ErrItemNotFound is returned when an item does not belong to the BOQ.
	ErrItemNotFound = errors.New("item not found")
)

// NewItem is a line item added in the editor.
type NewItem struct {
	Category    string   `json:"category"`
	ItemCode    string   `json:"item_code"`
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	Unit        string   `json:"unit"`
	UnitCost    float64  `json:"unit_cost"`
	Price       *float64 `json:"price"`
	IsOptional  bool     `json:"is_optional"`
	IsInhouse   bool     `json:"is_inhouse"`
}

// Validate checks a new item.
func (n NewItem) Validate() error {
	n.Description = strings.TrimSpace(n.Description)
	return validation.ValidateStruct(&n,
		validation.Field(&n.Description, validation.Required, validation.Length(1, 500)),
		validation.Field(&n.Quantity, validation.Min(0.0)),
		validation.Field(&n.UnitCost, validation.Min(0.0)),
		validation.Field(&n.Price, validation.Min(0.0)),
	)
}

// ItemEdit carries the fields changed by a PATCH. Nil means unchanged.
type ItemEdit struct {
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	Quantity    *float64 `json:"quantity"`
	Unit        *string  `json:"unit"`
	UnitCost    *float64 `json:"unit_cost"`
	Price       *float64 `json:"price"`
	IsOptional  *bool    `json:"is_optional"`
	IsInhouse   *bool    `json:"is_inhouse"`
}

// Validate checks the provided fields.
func (e ItemEdit) Validate() error {
	if e.Description != nil {
		trimmed := strings.TrimSpace(*e.Description)
		e.Description = &trimmed
	}
	return validation.ValidateStruct(&e,
		validation.Field(&e.Description, validation.NilOrNotEmpty),
		validation.Field(&e.Quantity, validation.Min(0.0)),
		validation.Field(&e.UnitCost, validation.Min(0.0)),
		validation.Field(&e.Price, validation.Min(0.0)),
	)
}

// ApplyItemEdit updates an item record in memory. A quantity or unit cost
// change recomputes the cost. An explicit price wins and pins the item as
// manually priced; otherwise a cost change reprices the item with the BOQ
// margin unless its price was pinned earlier.
func ApplyItemEdit(item *core.Record, edit ItemEdit, marginPercent float64) {
	if edit.Description != nil {
		item.Set("description", strings.TrimSpace(*edit.Description))
	}
	if edit.Unit != nil {
		unit := strings.TrimSpace(*edit.Unit)
		if unit == "" {
			unit = importer.DefaultUnit
		}
		item.Set("unit", unit)
	}
	if edit.IsOptional != nil {
		item.Set("is_optional", *edit.IsOptional)
	}
	if edit.IsInhouse != nil {
		item.Set("is_inhouse", *edit.IsInhouse)
	}

	costChanged := false
	if edit.Quantity != nil {
		q := *edit.Quantity
		if q <= 0 {
			q = 1
		}
		item.Set("quantity", q)
		costChanged = true
	}
	if edit.UnitCost != nil {
		item.Set("unit_cost", *edit.UnitCost)
		costChanged = true
	}

	qty := item.GetFloat("quantity")
	if costChanged {
		item.Set("cost", CalcItemCost(qty, item.GetFloat("unit_cost")))
	}

	switch {
	case edit.Price != nil:
		item.Set("price", *edit.Price)
		item.Set("price_is_manual", true)
	case costChanged && !item.GetBool("price_is_manual"):
		item.Set("price", CalcItemPrice(item.GetFloat("cost"), marginPercent))
	}
	if qty > 0 {
		item.Set("unit_price", item.GetFloat("price")/qty)
	}
}

// AddBOQItem inserts an item, creating its category when needed, then
// re-sums the BOQ and bumps its version.
func AddBOQItem(app core.App, boqID string, in NewItem) (*core.Record, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var item *core.Record
	err := app.RunInTransaction(func(txApp core.App) error {
		boq, err := editableBOQ(txApp, boqID)
		if err != nil {
			return err
		}

		categoryID, err := findOrCreateCategory(txApp, boqID, in.Category)
		if err != nil {
			return err
		}

		col, err := txApp.FindCollectionByNameOrId("boq_items")
		if err != nil {
			return fmt.Errorf("boq_items collection not found: %w", err)
		}
		siblings, err := txApp.FindRecordsByFilter("boq_items", "boq = {:boq}", "", 0, 0,
			map[string]any{"boq": boqID})
		if err != nil {
			return fmt.Errorf("count items: %w", err)
		}

		qty := in.Quantity
		if qty <= 0 {
			qty = 1
		}
		unit := strings.TrimSpace(in.Unit)
		if unit == "" {
			unit = importer.DefaultUnit
		}

		item = core.NewRecord(col)
		item.Set("boq", boqID)
		item.Set("category", categoryID)
		item.Set("sort_order", len(siblings))
		item.Set("item_code", strings.TrimSpace(in.ItemCode))
		item.Set("description", strings.TrimSpace(in.Description))
		item.Set("quantity", qty)
		item.Set("unit", unit)
		item.Set("unit_cost", in.UnitCost)
		item.Set("is_optional", in.IsOptional)
		item.Set("is_inhouse", in.IsInhouse)
		item.Set("cost", CalcItemCost(qty, in.UnitCost))
		if in.Price != nil {
			item.Set("price", *in.Price)
			item.Set("price_is_manual", true)
		} else {
			item.Set("price", CalcItemPrice(item.GetFloat("cost"), boq.GetFloat("margin_percent")))
		}
		item.Set("unit_price", item.GetFloat("price")/qty)
		if err := txApp.Save(item); err != nil {
			return fmt.Errorf("save item: %w", err)
		}

		return finishEdit(txApp, boq)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateBOQItem applies an edit to one item, re-sums the BOQ and bumps its
// version.
func UpdateBOQItem(app core.App, boqID, itemID string, edit ItemEdit) (*core.Record, error) {
	if err := edit.Validate(); err != nil {
		return nil, err
	}

	var item *core.Record
	err := app.RunInTransaction(func(txApp core.App) error {
		boq, err := editableBOQ(txApp, boqID)
		if err != nil {
			return err
		}
		item, err = boqItem(txApp, boqID, itemID)
		if err != nil {
			return err
		}

		if edit.Category != nil {
			categoryID, err := findOrCreateCategory(txApp, boqID, *edit.Category)
			if err != nil {
				return err
			}
			item.Set("category", categoryID)
		}
		ApplyItemEdit(item, edit, boq.GetFloat("margin_percent"))
		if err := txApp.Save(item); err != nil {
			return fmt.Errorf("save item: %w", err)
		}

		return finishEdit(txApp, boq)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteBOQItem removes one item, re-sums the BOQ and bumps its version.
func DeleteBOQItem(app core.App, boqID, itemID string) error {
	return app.RunInTransaction(func(txApp core.App) error {
		boq, err := editableBOQ(txApp, boqID)
		if err != nil {
			return err
		}
		item, err := boqItem(txApp, boqID, itemID)
		if err != nil {
			return err
		}
		if err := txApp.Delete(item); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		return finishEdit(txApp, boq)
	})
}

func editableBOQ(app core.App, boqID string) (*core.Record, error) {
	boq, err := app.FindRecordById("boq", boqID)
	if err != nil {
		return nil, fmt.Errorf("boq %s not found: %w", boqID, err)
	}
	if boq.GetString("status") == collections.BOQStatusSuperseded {
		return nil, ErrBOQLocked
	}
	return boq, nil
}

func boqItem(app core.App, boqID, itemID string) (*core.Record, error) {
	item, err := app.FindRecordById("boq_items", itemID)
	if err != nil || item.GetString("boq") != boqID {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// finishEdit re-sums the BOQ and records the structural edit.
func finishEdit(app core.App, boq *core.Record) error {
	if _, err := RecalculateBOQ(app, boq.Id); err != nil {
		return err
	}
	// RecalculateBOQ saved a fresh copy; reload before bumping the version.
	fresh, err := app.FindRecordById("boq", boq.Id)
	if err != nil {
		return fmt.Errorf("reload boq: %w", err)
	}
	fresh.Set("version", fresh.GetInt("version")+1)
	if err := app.Save(fresh); err != nil {
		return fmt.Errorf("bump boq version: %w", err)
	}
	return nil
}

func findOrCreateCategory(app core.App, boqID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = importer.Uncategorised
	}

	existing, err := app.FindRecordsByFilter("boq_categories", "boq = {:boq} && name = {:name}", "", 1, 0,
		map[string]any{"boq": boqID, "name": name})
	if err != nil {
		return "", fmt.Errorf("query category: %w", err)
	}
	if len(existing) > 0 {
		return existing[0].Id, nil
	}

	all, err := app.FindRecordsByFilter("boq_categories", "boq = {:boq}", "", 0, 0,
		map[string]any{"boq": boqID})
	if err != nil {
		return "", fmt.Errorf("query categories: %w", err)
	}

	col, err := app.FindCollectionByNameOrId("boq_categories")
	if err != nil {
		return "", fmt.Errorf("boq_categories collection not found: %w", err)
	}
	rec := core.NewRecord(col)
	rec.Set("boq", boqID)
	rec.Set("name", name)
	rec.Set("sort_order", len(all))
	if err := app.Save(rec); err != nil {
		return "", fmt.Errorf("save category %q: %w", name, err)
	}
	return rec.Id, nil
}
