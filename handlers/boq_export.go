package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"sitebook/services"
)

// exportData loads a project BOQ ready for the Excel and PDF generators.
func exportData(app core.App, projectID, boqID string) (services.ExportData, error) {
	project, err := app.FindRecordById("projects", projectID)
	if err != nil {
		return services.ExportData{}, fmt.Errorf("project not found: %w", err)
	}
	if _, ok := projectBOQ(app, projectID, boqID); !ok {
		return services.ExportData{}, fmt.Errorf("boq %s not in project %s", boqID, projectID)
	}
	view, err := services.LoadBOQ(app, boqID)
	if err != nil {
		return services.ExportData{}, err
	}
	return services.BuildExportData(view, project.GetString("name"), time.Now()), nil
}

// exportFilename builds "BOQ_<reference>_v<version>.<ext>".
func exportFilename(data services.ExportData, ext string) string {
	ref := data.ReferenceNumber
	if ref == "" {
		ref = data.Title
	}
	return fmt.Sprintf("BOQ_%s_v%d.%s", sanitizeFilename(ref), data.Version, ext)
}

// sanitizeFilename replaces characters that are unsafe in a download name.
func sanitizeFilename(s string) string {
	return strings.NewReplacer(" ", "-", "/", "-", "\\", "-", ":", "-", `"`, "").Replace(s)
}

// HandleBOQExportExcel downloads a BOQ as an Excel workbook with costs.
// Route: GET /projects/{projectId}/boq/{id}/export/excel
func HandleBOQExportExcel(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, err := exportData(app, e.Request.PathValue("projectId"), e.Request.PathValue("id"))
		if err != nil {
			log.Printf("export_excel: %v", err)
			return ErrorToast(e, http.StatusNotFound, "BOQ not found")
		}

		xlsxBytes, err := services.GenerateExcel(data)
		if err != nil {
			log.Printf("export_excel: generate: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to generate Excel file")
		}

		e.Response.Header().Set("Content-Type",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, exportFilename(data, "xlsx")))
		e.Response.Write(xlsxBytes)
		return nil
	}
}

// HandleBOQExportPDF downloads the client-facing PDF of a BOQ.
// Route: GET /projects/{projectId}/boq/{id}/export/pdf
func HandleBOQExportPDF(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, err := exportData(app, e.Request.PathValue("projectId"), e.Request.PathValue("id"))
		if err != nil {
			log.Printf("export_pdf: %v", err)
			return ErrorToast(e, http.StatusNotFound, "BOQ not found")
		}

		pdfBytes, err := services.GeneratePDF(data)
		if err != nil {
			log.Printf("export_pdf: generate: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to generate PDF")
		}

		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, exportFilename(data, "pdf")))
		e.Response.Write(pdfBytes)
		return nil
	}
}
