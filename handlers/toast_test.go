package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase/core"

	"sitebook/importer"
	"sitebook/services"
)

func newToastEvent(htmx bool) (*core.RequestEvent, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	e := &core.RequestEvent{}
	e.Request = req
	e.Response = rec
	return e, rec
}

func parseToast(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	trigger := rec.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("expected HX-Trigger header to be set")
	}
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trigger), &parsed); err != nil {
		t.Fatalf("HX-Trigger is not valid JSON: %v", err)
	}
	var toast map[string]string
	if err := json.Unmarshal(parsed["showToast"], &toast); err != nil {
		t.Fatalf("showToast is not valid JSON: %v", err)
	}
	return toast
}

func TestSetToast_Types(t *testing.T) {
	tests := []struct {
		name      string
		toastType string
		message   string
	}{
		{"success", "success", "12 items imported into BBC/01/2026"},
		{"error", "error", "Failed to import"},
		{"info", "info", "Item saved"},
		{"special characters", "info", `<b>"Villa 12" – \ \n</b>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := newToastEvent(true)
			SetToast(e, tt.toastType, tt.message)

			toast := parseToast(t, rec)
			if toast["type"] != tt.toastType {
				t.Errorf("expected type %q, got %q", tt.toastType, toast["type"])
			}
			if toast["message"] != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, toast["message"])
			}
		})
	}
}

func TestSetToast_MergesWithExisting(t *testing.T) {
	e, rec := newToastEvent(true)
	rec.Header().Set("HX-Trigger", `{"boqChanged":{"id":"abc"}}`)

	SetToast(e, "success", "Merged toast")

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &parsed); err != nil {
		t.Fatalf("HX-Trigger is not valid JSON: %v", err)
	}
	if _, ok := parsed["boqChanged"]; !ok {
		t.Error("expected boqChanged key to be preserved after merge")
	}
	if _, ok := parsed["showToast"]; !ok {
		t.Error("expected showToast key in merged HX-Trigger JSON")
	}
}

func TestSetToast_OverwritesInvalidExisting(t *testing.T) {
	e, rec := newToastEvent(true)
	rec.Header().Set("HX-Trigger", "notValidJSON")

	SetToast(e, "error", "Overwritten")

	if toast := parseToast(t, rec); toast["message"] != "Overwritten" {
		t.Errorf("expected message Overwritten, got %q", toast["message"])
	}
}

func TestErrorToast_HTMX(t *testing.T) {
	e, rec := newToastEvent(true)

	if err := ErrorToast(e, http.StatusNotFound, "Project not found"); err != nil {
		t.Fatalf("ErrorToast returned error: %v", err)
	}

	toast := parseToast(t, rec)
	if toast["type"] != "error" || toast["message"] != "Project not found" {
		t.Errorf("unexpected toast %v", toast)
	}
	if rec.Header().Get("HX-Reswap") != "none" {
		t.Errorf("expected HX-Reswap none, got %q", rec.Header().Get("HX-Reswap"))
	}
	if rec.Body.String() != "Project not found" {
		t.Errorf("expected body 'Project not found', got %q", rec.Body.String())
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestErrorToast_JSON(t *testing.T) {
	e, rec := newToastEvent(false)

	if err := ErrorToast(e, http.StatusUnprocessableEntity, "Could not find activity/task name column"); err != nil {
		t.Fatalf("ErrorToast returned error: %v", err)
	}

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", rec.Code)
	}
	if rec.Header().Get("HX-Trigger") != "" {
		t.Error("API clients should not get an HX-Trigger header")
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["message"] != "Could not find activity/task name column" {
		t.Errorf("message = %q", body["message"])
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"unreadable", fmt.Errorf("open: %w", importer.ErrUnreadableFile), http.StatusBadRequest, msgUnreadable},
		{"empty", importer.ErrEmptyTable, http.StatusBadRequest, msgEmpty},
		{"missing name column", importer.ErrMissingNameColumn, http.StatusUnprocessableEntity, "Could not find activity/task name column"},
		{"unsupported", importer.ErrUnsupportedFormat, http.StatusBadRequest, "Unsupported file format"},
		{"session expired", services.ErrSessionNotFound, http.StatusNotFound, "Import session expired"},
		{"locked", fmt.Errorf("edit: %w", services.ErrBOQLocked), http.StatusConflict, "superseded"},
		{"transition", fmt.Errorf("%w: sent -> draft", services.ErrInvalidTransition), http.StatusConflict, "sent -> draft"},
		{"persistence", errors.New("database is locked"), http.StatusInternalServerError, msgImportFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := errorResponse(tt.err)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if !strings.Contains(msg, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", msg, tt.wantMsg)
			}
		})
	}
}
