package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"sitebook/collections"
	"sitebook/services"
	"sitebook/templates"
)

// projectBOQ loads a BOQ and checks it belongs to the project in the URL.
func projectBOQ(app core.App, projectID, boqID string) (*core.Record, bool) {
	boq, err := app.FindRecordById("boq", boqID)
	if err != nil || boq.GetString("project") != projectID {
		return nil, false
	}
	return boq, true
}

// buildBOQViewData flattens a loaded BOQ for JSON and the editor partial.
func buildBOQViewData(projectID string, view *services.BOQView) templates.BOQViewData {
	boq := view.BOQ
	data := templates.BOQViewData{
		ProjectID:     projectID,
		ID:            boq.Id,
		Reference:     boq.GetString("reference"),
		Status:        boq.GetString("status"),
		Version:       boq.GetInt("version"),
		MarginPercent: boq.GetFloat("margin_percent"),
		TotalCost:     boq.GetFloat("total_cost"),
		ClientPrice:   boq.GetFloat("client_price"),
		Locked:        boq.GetString("status") == collections.BOQStatusSuperseded,
		Categories:    make([]templates.CategoryView, 0, len(view.Categories)),
	}
	data.Effective = services.CalcMarginPercent(data.TotalCost, data.ClientPrice)
	data.TotalLabel = services.FormatMoney(data.ClientPrice)
	data.CostLabel = services.FormatMoney(data.TotalCost)

	for _, c := range view.Categories {
		cv := templates.CategoryView{
			ID:            c.Record.Id,
			Name:          c.Record.GetString("name"),
			SubtotalCost:  c.Record.GetFloat("subtotal_cost"),
			SubtotalPrice: c.Record.GetFloat("subtotal_price"),
			Items:         make([]templates.ItemView, 0, len(c.Items)),
		}
		cv.PriceLabel = services.FormatMoney(cv.SubtotalPrice)
		for _, it := range c.Items {
			cv.Items = append(cv.Items, templates.ItemView{
				ID:            it.Id,
				Code:          it.GetString("item_code"),
				Description:   it.GetString("description"),
				Quantity:      it.GetFloat("quantity"),
				Unit:          it.GetString("unit"),
				UnitCost:      it.GetFloat("unit_cost"),
				UnitPrice:     it.GetFloat("unit_price"),
				Cost:          it.GetFloat("cost"),
				Price:         it.GetFloat("price"),
				PriceIsManual: it.GetBool("price_is_manual"),
				Optional:      it.GetBool("is_optional"),
				Inhouse:       it.GetBool("is_inhouse"),
				PriceLabel:    services.FormatMoney(it.GetFloat("price")),
			})
		}
		data.Categories = append(data.Categories, cv)
	}
	return data
}

// renderBOQ reloads a BOQ and renders it.
func renderBOQ(e *core.RequestEvent, app core.App, projectID, boqID string, status int) error {
	view, err := services.LoadBOQ(app, boqID)
	if err != nil {
		log.Printf("boq_view: %v", err)
		return ErrorToast(e, http.StatusNotFound, "BOQ not found")
	}
	data := buildBOQViewData(projectID, view)
	return render(e, status, data, templates.BOQView(data))
}

// HandleActiveBOQ returns the project's active BOQ with its categories and items.
// Route: GET /projects/{projectId}/boq/active
func HandleActiveBOQ(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		active, err := services.ActiveBOQ(app, projectID)
		if err != nil {
			return failWith(e, "boq_active", err)
		}
		return renderBOQ(e, app, projectID, active.Id, http.StatusOK)
	}
}

// HandleBOQView returns one BOQ version, superseded ones included.
// Route: GET /projects/{projectId}/boq/{id}
func HandleBOQView(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		boqID := e.Request.PathValue("id")
		if _, ok := projectBOQ(app, projectID, boqID); !ok {
			return ErrorToast(e, http.StatusNotFound, "BOQ not found")
		}
		return renderBOQ(e, app, projectID, boqID, http.StatusOK)
	}
}
