package handlers

import (
	"fmt"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"sitebook/services"
)

// HandleAddBOQItem adds a line item and returns the recalculated BOQ.
// Route: POST /projects/{projectId}/boq/{id}/items
func HandleAddBOQItem(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		boqID := e.Request.PathValue("id")
		if _, ok := projectBOQ(app, projectID, boqID); !ok {
			return ErrorToast(e, http.StatusNotFound, "BOQ not found")
		}

		var in services.NewItem
		if isJSONBody(e) {
			if err := decodeJSON(e, &in); err != nil {
				return ErrorToast(e, http.StatusBadRequest, "Invalid item data")
			}
		} else {
			edit, err := parseItemForm(e)
			if err != nil {
				return ErrorToast(e, http.StatusBadRequest, err.Error())
			}
			in = newItemFromEdit(edit)
			in.ItemCode = e.Request.PostForm.Get("item_code")
		}

		if _, err := services.AddBOQItem(app, boqID, in); err != nil {
			return failWith(e, "boq_add_item", err)
		}
		SetToast(e, "success", "Item added")
		return renderBOQ(e, app, projectID, boqID, http.StatusCreated)
	}
}

// HandlePatchBOQItem updates the fields present in the request.
// Route: PATCH /projects/{projectId}/boq/{id}/items/{itemId}
func HandlePatchBOQItem(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		boqID := e.Request.PathValue("id")
		itemID := e.Request.PathValue("itemId")
		if _, ok := projectBOQ(app, projectID, boqID); !ok {
			return ErrorToast(e, http.StatusNotFound, "BOQ not found")
		}

		var edit services.ItemEdit
		if isJSONBody(e) {
			if err := decodeJSON(e, &edit); err != nil {
				return ErrorToast(e, http.StatusBadRequest, "Invalid item data")
			}
		} else {
			var err error
			if edit, err = parseItemForm(e); err != nil {
				return ErrorToast(e, http.StatusBadRequest, err.Error())
			}
		}

		if _, err := services.UpdateBOQItem(app, boqID, itemID, edit); err != nil {
			return failWith(e, "boq_patch_item", err)
		}
		SetToast(e, "info", "Item saved")
		return renderBOQ(e, app, projectID, boqID, http.StatusOK)
	}
}

// HandleDeleteBOQItem removes a line item. Its category is kept even when
// it becomes empty.
// Route: DELETE /projects/{projectId}/boq/{id}/items/{itemId}
func HandleDeleteBOQItem(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		boqID := e.Request.PathValue("id")
		itemID := e.Request.PathValue("itemId")
		if _, ok := projectBOQ(app, projectID, boqID); !ok {
			return ErrorToast(e, http.StatusNotFound, "BOQ not found")
		}

		if err := services.DeleteBOQItem(app, boqID, itemID); err != nil {
			return failWith(e, "boq_delete_item", err)
		}
		SetToast(e, "success", "Item deleted")
		return renderBOQ(e, app, projectID, boqID, http.StatusOK)
	}
}

// parseItemForm reads the item fields posted by the editor. Fields that are
// absent stay nil.
func parseItemForm(e *core.RequestEvent) (services.ItemEdit, error) {
	var edit services.ItemEdit
	if err := e.Request.ParseForm(); err != nil {
		return edit, fmt.Errorf("Invalid form data")
	}

	for key, values := range e.Request.PostForm {
		if len(values) == 0 {
			continue
		}
		val := values[0]
		switch key {
		case "category":
			edit.Category = &val
		case "description":
			edit.Description = &val
		case "unit":
			edit.Unit = &val
		case "quantity", "unit_cost", "price":
			f, err := cast.ToFloat64E(val)
			if err != nil {
				return edit, fmt.Errorf("%s must be a number", key)
			}
			switch key {
			case "quantity":
				edit.Quantity = &f
			case "unit_cost":
				edit.UnitCost = &f
			default:
				edit.Price = &f
			}
		case "is_optional", "is_inhouse":
			b, err := cast.ToBoolE(val)
			if err != nil {
				b = val == "on"
			}
			if key == "is_optional" {
				edit.IsOptional = &b
			} else {
				edit.IsInhouse = &b
			}
		}
	}
	return edit, nil
}

func newItemFromEdit(edit services.ItemEdit) services.NewItem {
	in := services.NewItem{Price: edit.Price}
	if edit.Category != nil {
		in.Category = *edit.Category
	}
	if edit.Description != nil {
		in.Description = *edit.Description
	}
	if edit.Quantity != nil {
		in.Quantity = *edit.Quantity
	}
	if edit.Unit != nil {
		in.Unit = *edit.Unit
	}
	if edit.UnitCost != nil {
		in.UnitCost = *edit.UnitCost
	}
	if edit.IsOptional != nil {
		in.IsOptional = *edit.IsOptional
	}
	if edit.IsInhouse != nil {
		in.IsInhouse = *edit.IsInhouse
	}
	return in
}
