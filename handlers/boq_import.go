package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"sitebook/config"
	"sitebook/importer"
	"sitebook/services"
	"sitebook/templates"
)

// sampleRows is how many records a manual-mapping preview shows.
const sampleRows = 5

// boqCommitRequest is the commit payload. Forms send map_<role> fields
// instead of the mapping object.
type boqCommitRequest struct {
	Reference     string                  `json:"reference"`
	MarginPercent *float64                `json:"margin_percent"`
	Mapping       *importer.ColumnMapping `json:"mapping"`
}

// HandleBOQImportUpload parses an uploaded BOQ in the background, stages the
// result as an import session and returns the preview.
// Route: POST /projects/{projectId}/boq/import
func HandleBOQImportUpload(app *pocketbase.PocketBase, cfg config.ImportConfig) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		if _, err := app.FindRecordById("projects", projectID); err != nil {
			return ErrorToast(e, http.StatusNotFound, "Project not found")
		}

		fileName, data, err := readUpload(e, cfg.MaxUploadBytes())
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, err.Error())
		}

		classification, err := importer.RunInBackground(e.Request.Context(), func() (importer.Classification, error) {
			table, err := importer.ReadTable(bytes.NewReader(data), fileName)
			if err != nil {
				return importer.Classification{}, err
			}
			return importer.Classify(table, cfg.Profile(), cfg.AutoThreshold)
		})
		if err != nil {
			return failWith(e, "boq_import_upload", err)
		}

		session := &services.ImportSession{
			Kind:      services.SessionBOQ,
			ProjectID: projectID,
			FileName:  fileName,
			Reference: importer.ExtractReference(fileName),
			BOQ:       &classification,
		}
		services.SaveImportSession(app, session, time.Now())

		preview := buildBOQPreview(session, cfg.DefaultMarginPercent)
		return render(e, http.StatusOK, preview, templates.BOQImportPreview(preview))
	}
}

func buildBOQPreview(s *services.ImportSession, margin float64) templates.BOQPreviewData {
	c := s.BOQ
	data := templates.BOQPreviewData{
		ProjectID: s.ProjectID,
		SessionID: s.ID,
		FileName:  s.FileName,
		Mode:      string(c.Mode),
		Reference: s.Reference,
		Margin:    margin,
	}

	if c.Mode == importer.ModeAuto {
		counts := map[string]int{}
		prices := map[string]float64{}
		for _, it := range c.BOQ.Items {
			counts[it.Category]++
			prices[it.Category] += it.Price()
		}
		for _, name := range c.BOQ.Categories {
			data.Categories = append(data.Categories, templates.CategorySummary{
				Name:  name,
				Items: counts[name],
				Price: services.FormatMoney(prices[name]),
			})
		}
		data.ItemCount = len(c.BOQ.Items)
		data.Skipped = c.BOQ.Skipped
		return data
	}

	suggested := importer.SuggestMapping(c.Headers)
	data.Headers = c.Headers
	data.Suggested = map[string]string{
		"description": suggested.Description,
		"quantity":    suggested.Quantity,
		"unit":        suggested.Unit,
		"rate":        suggested.Rate,
		"category":    suggested.Category,
	}
	data.Sample = importer.Sample(c.Headers, c.Records, sampleRows)
	data.ItemCount = len(c.Records)
	return data
}

// HandleBOQImportCommit turns a staged BOQ session into a new BOQ version.
// Route: POST /projects/{projectId}/boq/import/{sessionId}/commit
func HandleBOQImportCommit(app *pocketbase.PocketBase, cfg config.ImportConfig) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		sessionID := e.Request.PathValue("sessionId")

		session, err := services.GetImportSession(app, projectID, services.SessionBOQ, sessionID, time.Now())
		if err != nil {
			return failWith(e, "boq_import_commit", err)
		}

		req, err := decodeBOQCommit(e)
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid import request")
		}

		margin := cfg.DefaultMarginPercent
		if req.MarginPercent != nil {
			margin = *req.MarginPercent
		}

		items, skipped, err := services.ImportItems(*session.BOQ, req.Mapping, margin)
		if err != nil {
			return failWith(e, "boq_import_commit", err)
		}

		reference := strings.TrimSpace(req.Reference)
		if reference == "" {
			reference = session.Reference
		}

		if session, err = services.ClaimImportSession(app, projectID, services.SessionBOQ, sessionID, time.Now()); err != nil {
			return failWith(e, "boq_import_commit", err)
		}

		res, err := services.CommitBOQImport(app, services.BOQImport{
			ProjectID:     projectID,
			Reference:     reference,
			SourceFile:    session.FileName,
			Mode:          session.BOQ.Mode,
			MarginPercent: margin,
			Items:         items,
			Skipped:       skipped,
		}, time.Now())
		if err != nil {
			services.ReleaseImportSession(app, session)
			return failWith(e, "boq_import_commit", err)
		}
		services.DropImportSession(app, sessionID)

		result := templates.BOQImportResultData{
			ProjectID:   projectID,
			BOQID:       res.BOQID,
			Reference:   res.Reference,
			Version:     res.Version,
			Categories:  res.Categories,
			Items:       res.Items,
			Superseded:  res.Superseded,
			TotalCost:   services.FormatMoney(res.Rollup.TotalCost),
			ClientPrice: services.FormatMoney(res.Rollup.ClientPrice),
			Margin:      fmt.Sprintf("%.1f%%", res.Rollup.MarginPercent),
		}
		SetToast(e, "success", fmt.Sprintf("%d items imported into %s", res.Items, res.Reference))
		return render(e, http.StatusCreated, result, templates.BOQImportResult(result))
	}
}

func decodeBOQCommit(e *core.RequestEvent) (boqCommitRequest, error) {
	var req boqCommitRequest
	if isJSONBody(e) {
		return req, decodeJSON(e, &req)
	}

	if err := e.Request.ParseForm(); err != nil {
		return req, err
	}
	req.Reference = e.Request.PostForm.Get("reference")
	if raw := strings.TrimSpace(e.Request.PostForm.Get("margin_percent")); raw != "" {
		margin, err := cast.ToFloat64E(raw)
		if err != nil {
			return req, err
		}
		req.MarginPercent = &margin
	}
	if roles := formFields(e, "map_"); len(roles) > 0 {
		req.Mapping = &importer.ColumnMapping{
			Description: roles["description"],
			Quantity:    roles["quantity"],
			Unit:        roles["unit"],
			Rate:        roles["rate"],
			Category:    roles["category"],
		}
	}
	return req, nil
}
