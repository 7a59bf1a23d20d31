package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"sitebook/services"
)

// HandleBOQTemplateDownload serves the example workbook for manual imports.
// Route: GET /projects/{projectId}/boq/import/template
func HandleBOQTemplateDownload(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		xlsxBytes, err := services.GenerateBOQTemplate()
		if err != nil {
			log.Printf("boq_template: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to generate template")
		}

		e.Response.Header().Set("Content-Type",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", `attachment; filename="BOQ_Import_Template.xlsx"`)
		e.Response.Write(xlsxBytes)
		return nil
	}
}
