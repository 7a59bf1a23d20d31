package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"sitebook/config"
	"sitebook/importer"
	"sitebook/services"
	"sitebook/templates"
)

type scheduleCommitRequest struct {
	PhaseNames map[string]string `json:"phase_names"`
	StartDate  string            `json:"start_date"`
	EndDate    string            `json:"end_date"`
}

// HandleScheduleImportUpload parses a schedule export and stages it.
// Route: POST /projects/{projectId}/schedule/import
func HandleScheduleImportUpload(app *pocketbase.PocketBase, cfg config.ImportConfig) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		if _, err := app.FindRecordById("projects", projectID); err != nil {
			return ErrorToast(e, http.StatusNotFound, "Project not found")
		}

		fileName, data, err := readUpload(e, cfg.MaxUploadBytes())
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, err.Error())
		}

		parsed, err := importer.RunInBackground(e.Request.Context(), func() (importer.ScheduleParseResult, error) {
			table, err := importer.ReadTable(bytes.NewReader(data), fileName)
			if err != nil {
				return importer.ScheduleParseResult{}, err
			}
			return importer.ParseSchedule(table)
		})
		if err != nil {
			return failWith(e, "schedule_import_upload", err)
		}
		if parsed.TaskCount() == 0 {
			return ErrorToast(e, http.StatusBadRequest, msgEmpty)
		}

		session := &services.ImportSession{
			Kind:      services.SessionSchedule,
			ProjectID: projectID,
			FileName:  fileName,
			Schedule:  &parsed,
		}
		services.SaveImportSession(app, session, time.Now())

		preview := buildSchedulePreview(session)
		return render(e, http.StatusOK, preview, templates.SchedulePreview(preview))
	}
}

func buildSchedulePreview(s *services.ImportSession) templates.SchedulePreviewData {
	p := s.Schedule
	data := templates.SchedulePreviewData{
		ProjectID: s.ProjectID,
		SessionID: s.ID,
		FileName:  s.FileName,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		TaskCount: p.TaskCount(),
		Skipped:   p.Skipped,
	}
	for _, phase := range p.Phases {
		pv := templates.PhasePreview{
			Prefix:    phase.Prefix,
			Name:      phase.Name,
			StartDate: phase.StartDate,
			EndDate:   phase.EndDate,
		}
		for _, t := range phase.Tasks {
			pv.Tasks = append(pv.Tasks, templates.TaskPreview{
				Code:      t.Code,
				Name:      t.Name,
				StartDate: t.StartDate,
				EndDate:   t.EndDate,
			})
		}
		data.Phases = append(data.Phases, pv)
	}
	return data
}

// HandleScheduleImportCommit replaces the project's schedule with a staged one.
// Route: POST /projects/{projectId}/schedule/import/{sessionId}/commit
func HandleScheduleImportCommit(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		sessionID := e.Request.PathValue("sessionId")

		session, err := services.GetImportSession(app, projectID, services.SessionSchedule, sessionID, time.Now())
		if err != nil {
			return failWith(e, "schedule_import_commit", err)
		}

		req, err := decodeScheduleCommit(e)
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid import request")
		}

		if session, err = services.ClaimImportSession(app, projectID, services.SessionSchedule, sessionID, time.Now()); err != nil {
			return failWith(e, "schedule_import_commit", err)
		}

		res, err := services.CommitScheduleImport(app, services.ScheduleImport{
			ProjectID:  projectID,
			SourceFile: session.FileName,
			Parsed:     *session.Schedule,
			PhaseNames: req.PhaseNames,
			StartDate:  req.StartDate,
			EndDate:    req.EndDate,
		}, time.Now())
		if err != nil {
			services.ReleaseImportSession(app, session)
			return failWith(e, "schedule_import_commit", err)
		}
		services.DropImportSession(app, sessionID)

		result := templates.ScheduleImportResultData{
			ProjectID:     projectID,
			ScheduleID:    res.ScheduleID,
			Phases:        res.Phases,
			Tasks:         res.Tasks,
			StartDate:     res.StartDate,
			EndDate:       res.EndDate,
			ReplacedTasks: res.RemovedTasks,
		}
		SetToast(e, "success", fmt.Sprintf("Schedule imported: %d phases, %d tasks", res.Phases, res.Tasks))
		return render(e, http.StatusCreated, result, templates.ScheduleImportResult(result))
	}
}

func decodeScheduleCommit(e *core.RequestEvent) (scheduleCommitRequest, error) {
	var req scheduleCommitRequest
	if isJSONBody(e) {
		return req, decodeJSON(e, &req)
	}
	if err := e.Request.ParseForm(); err != nil {
		return req, err
	}
	req.StartDate = e.Request.PostForm.Get("start_date")
	req.EndDate = e.Request.PostForm.Get("end_date")
	req.PhaseNames = formFields(e, "phase_")
	return req, nil
}
