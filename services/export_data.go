package services

import (
	"fmt"
	"time"
)

// ExportRow is a single row in the BOQ export: a category heading or an item.
type ExportRow struct {
	IsCategory  bool
	Index       string // "1", "1.1", "1.2" etc
	Description string
	Qty         float64
	Unit        string
	UnitPrice   float64
	Price       float64
	Cost        float64
	Optional    bool
}

// ExportData holds all data needed for export.
type ExportData struct {
	Title           string
	ReferenceNumber string
	Version         int
	Status          string
	CreatedDate     string
	Rows            []ExportRow
	TotalCost       float64
	ClientPrice     float64
	Margin          float64
	MarginPercent   float64
}

// BuildExportData flattens a loaded BOQ into export rows. Each category is
// followed by its items; the category row carries the subtotal.
func BuildExportData(view *BOQView, projectName string, now time.Time) ExportData {
	boq := view.BOQ
	title := "Bill of Quantities"
	if projectName != "" {
		title = projectName + " - " + title
	}

	data := ExportData{
		Title:           title,
		ReferenceNumber: boq.GetString("reference"),
		Version:         boq.GetInt("version"),
		Status:          boq.GetString("status"),
		CreatedDate:     now.Format("02 Jan 2006"),
		TotalCost:       boq.GetFloat("total_cost"),
		ClientPrice:     boq.GetFloat("client_price"),
	}
	data.Margin = data.ClientPrice - data.TotalCost
	data.MarginPercent = CalcMarginPercent(data.TotalCost, data.ClientPrice)

	for ci, cat := range view.Categories {
		data.Rows = append(data.Rows, ExportRow{
			IsCategory:  true,
			Index:       fmt.Sprintf("%d", ci+1),
			Description: cat.Record.GetString("name"),
			Price:       cat.Record.GetFloat("subtotal_price"),
			Cost:        cat.Record.GetFloat("subtotal_cost"),
		})
		for ii, it := range cat.Items {
			data.Rows = append(data.Rows, ExportRow{
				Index:       fmt.Sprintf("%d.%d", ci+1, ii+1),
				Description: it.GetString("description"),
				Qty:         it.GetFloat("quantity"),
				Unit:        it.GetString("unit"),
				UnitPrice:   it.GetFloat("unit_price"),
				Price:       it.GetFloat("price"),
				Cost:        it.GetFloat("cost"),
				Optional:    it.GetBool("is_optional"),
			})
		}
	}
	return data
}
