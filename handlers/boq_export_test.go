package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"sitebook/testhelpers"
)

func TestHandleBOQExportExcel(t *testing.T) {
	f := newEditorFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.SetPathValue("projectId", f.project.Id)
	req.SetPathValue("id", f.boq.Id)
	rec := httptest.NewRecorder()

	if err := HandleBOQExportExcel(f.app)(newTestRequestEvent(f.app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="BOQ_BOQ-TEST-001_v1.xlsx"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a workbook: %v", err)
	}
	defer wb.Close()
	title, _ := wb.GetCellValue("BOQ", "A1")
	if !strings.Contains(title, "Villa 12") {
		t.Errorf("A1 = %q, want the project name", title)
	}
}

func TestHandleBOQExportPDF(t *testing.T) {
	f := newEditorFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.SetPathValue("projectId", f.project.Id)
	req.SetPathValue("id", f.boq.Id)
	rec := httptest.NewRecorder()

	if err := HandleBOQExportPDF(f.app)(newTestRequestEvent(f.app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/pdf" {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("body is not a PDF")
	}
}

func TestHandleBOQExport_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Villa 12")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.SetPathValue("projectId", project.Id)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()

	if err := HandleBOQExportExcel(app)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleBOQTemplateDownload(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	if err := HandleBOQTemplateDownload(app)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("template is not a workbook: %v", err)
	}
	defer wb.Close()
	header, _ := wb.GetCellValue("BOQ", "B1")
	if header != "Description" {
		t.Errorf("B1 = %q, want Description", header)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"BBC/01/2026", "BBC-01-2026"},
		{`Villa 12: "Phase 1"`, "Villa-12--Phase-1"},
		{`a\b`, "a-b"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
