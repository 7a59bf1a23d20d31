package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"sitebook/services"
)

// HandleBOQStatus moves a BOQ to the posted status.
// Route: POST /projects/{projectId}/boq/{id}/status
func HandleBOQStatus(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		boqID := e.Request.PathValue("id")
		if _, ok := projectBOQ(app, projectID, boqID); !ok {
			return ErrorToast(e, http.StatusNotFound, "BOQ not found")
		}

		var req struct {
			Status string `json:"status"`
		}
		if isJSONBody(e) {
			if err := decodeJSON(e, &req); err != nil {
				return ErrorToast(e, http.StatusBadRequest, "Invalid status request")
			}
		} else {
			if err := e.Request.ParseForm(); err != nil {
				return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
			}
			req.Status = e.Request.PostForm.Get("status")
		}

		to := strings.TrimSpace(req.Status)
		if to == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing status")
		}

		if _, err := services.TransitionBOQStatus(app, boqID, to, time.Now()); err != nil {
			return failWith(e, "boq_status", err)
		}
		SetToast(e, "success", fmt.Sprintf("BOQ marked %s", strings.ReplaceAll(to, "_", " ")))
		return renderBOQ(e, app, projectID, boqID, http.StatusOK)
	}
}
