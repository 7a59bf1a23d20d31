package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/pocketbase/pocketbase"

	"sitebook/collections"
	"sitebook/templates"
	"sitebook/testhelpers"
)

const manualBOQCSV = "Description,Qty,Unit,Rate\n" +
	"Paint walls,10,m2,20\n" +
	"Skirting,4,lm,12.5\n" +
	",,,\n"

// stageBOQ uploads a file and returns the JSON preview.
func stageBOQ(t *testing.T, app *pocketbase.PocketBase, projectID, fileName, content string) templates.BOQPreviewData {
	t.Helper()
	req := newUploadRequest(t, "/test", fileName, []byte(content))
	req.SetPathValue("projectId", projectID)
	rec := httptest.NewRecorder()
	if err := HandleBOQImportUpload(app, testImportConfig())(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("upload returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var preview templates.BOQPreviewData
	decodeBody(t, rec, &preview)
	return preview
}

func TestHandleBOQImportUpload_ManualPreview(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Villa 12")

	req := newUploadRequest(t, "/test", "BBC-01-2026.csv", []byte(manualBOQCSV))
	req.SetPathValue("projectId", project.Id)
	rec := httptest.NewRecorder()

	if err := HandleBOQImportUpload(app, testImportConfig())(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var preview templates.BOQPreviewData
	decodeBody(t, rec, &preview)
	if preview.Mode != "manual" {
		t.Errorf("mode = %q, want manual", preview.Mode)
	}
	if preview.Reference != "BBC/01/2026" {
		t.Errorf("reference = %q, want BBC/01/2026", preview.Reference)
	}
	if preview.SessionID == "" {
		t.Error("expected a session id")
	}
	if preview.Suggested["description"] != "Description" || preview.Suggested["rate"] != "Rate" {
		t.Errorf("suggested mapping = %v", preview.Suggested)
	}
	if len(preview.Sample) == 0 || preview.Sample[0]["Description"] != "Paint walls" {
		t.Errorf("sample = %v", preview.Sample)
	}
}

func TestHandleBOQImportUpload_HTMXPartial(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Villa 12")

	req := newUploadRequest(t, "/test", "estimate.csv", []byte(manualBOQCSV))
	req.SetPathValue("projectId", project.Id)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()

	if err := HandleBOQImportUpload(app, testImportConfig())(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	testhelpers.AssertHTMLContains(t, rec.Body.String(),
		`id="boq-import-preview"`,
		`name="map_description"`,
		`<option value="Rate" selected>`,
		"Paint walls",
	)
}

func TestHandleBOQImportUpload_Errors(t *testing.T) {
	tests := []struct {
		name       string
		fileName   string
		content    string
		wantStatus int
		wantMsg    string
	}{
		{"unsupported extension", "boq.pdf", "%PDF-1.4", http.StatusBadRequest, "Unsupported file format"},
		{"corrupt workbook", "boq.xlsx", "not a workbook", http.StatusBadRequest, "Failed to parse file"},
		{"empty file", "boq.csv", "", http.StatusBadRequest, "empty or could not be parsed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := testhelpers.NewTestApp(t)
			project := testhelpers.CreateTestProject(t, app, "Villa 12")

			req := newUploadRequest(t, "/test", tt.fileName, []byte(tt.content))
			req.SetPathValue("projectId", project.Id)
			rec := httptest.NewRecorder()

			if err := HandleBOQImportUpload(app, testImportConfig())(newTestRequestEvent(app, req, rec)); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			var body map[string]string
			decodeBody(t, rec, &body)
			if !strings.Contains(body["message"], tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", body["message"], tt.wantMsg)
			}
		})
	}
}

func TestHandleBOQImportUpload_UnknownProject(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	req := newUploadRequest(t, "/test", "boq.csv", []byte(manualBOQCSV))
	req.SetPathValue("projectId", "missing")
	rec := httptest.NewRecorder()

	if err := HandleBOQImportUpload(app, testImportConfig())(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleBOQImportCommit_Manual(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Villa 12")
	cfg := testImportConfig()

	preview := stageBOQ(t, app, project.Id, "BBC-01-2026.csv", manualBOQCSV)

	req := newJSONRequest(http.MethodPost, "/test", `{"margin_percent": 25}`)
	req.SetPathValue("projectId", project.Id)
	req.SetPathValue("sessionId", preview.SessionID)
	rec := httptest.NewRecorder()

	if err := HandleBOQImportCommit(app, cfg)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("commit returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var result templates.BOQImportResultData
	decodeBody(t, rec, &result)
	if result.Items != 2 || result.Categories != 1 {
		t.Errorf("items/categories = %d/%d, want 2/1", result.Items, result.Categories)
	}
	if result.Reference != "BBC/01/2026" {
		t.Errorf("reference = %q, want BBC/01/2026", result.Reference)
	}

	boq, err := app.FindRecordById("boq", result.BOQID)
	if err != nil {
		t.Fatalf("find boq: %v", err)
	}
	if boq.GetString("import_mode") != collections.ImportModeManual {
		t.Errorf("import_mode = %q, want manual", boq.GetString("import_mode"))
	}
	// (10 x 20 + 4 x 12.5) x 1.25
	if boq.GetFloat("client_price") != 312.5 {
		t.Errorf("client_price = %v, want 312.5", boq.GetFloat("client_price"))
	}

	// The session is consumed by the commit.
	again := newJSONRequest(http.MethodPost, "/test", `{}`)
	again.SetPathValue("projectId", project.Id)
	again.SetPathValue("sessionId", preview.SessionID)
	againRec := httptest.NewRecorder()
	if err := HandleBOQImportCommit(app, cfg)(newTestRequestEvent(app, again, againRec)); err != nil {
		t.Fatalf("second commit returned error: %v", err)
	}
	if againRec.Code != http.StatusNotFound {
		t.Errorf("second commit: expected 404, got %d", againRec.Code)
	}
}

func TestHandleBOQImportCommit_FormMapping(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Villa 12")
	cfg := testImportConfig()

	csv := "Item,Work,Cost\n1,Paint walls,100\n2,Hang doors,50\n"
	preview := stageBOQ(t, app, project.Id, "estimate.csv", csv)

	form := url.Values{}
	form.Set("reference", "EST-7")
	form.Set("margin_percent", "10")
	form.Set("map_description", "Work")
	form.Set("map_rate", "Cost")
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	req.SetPathValue("projectId", project.Id)
	req.SetPathValue("sessionId", preview.SessionID)
	rec := httptest.NewRecorder()

	if err := HandleBOQImportCommit(app, cfg)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("commit returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	testhelpers.AssertHTMLContains(t, rec.Body.String(), "Imported EST-7 (v1)", "AED 165.00")
	if rec.Header().Get("HX-Trigger") == "" {
		t.Error("expected a success toast")
	}
}

func TestHandleBOQImportCommit_MissingRateMapping(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Villa 12")
	cfg := testImportConfig()

	preview := stageBOQ(t, app, project.Id, "estimate.csv", manualBOQCSV)

	req := newJSONRequest(http.MethodPost, "/test", `{"mapping": {"description": "Description"}}`)
	req.SetPathValue("projectId", project.Id)
	req.SetPathValue("sessionId", preview.SessionID)
	rec := httptest.NewRecorder()

	if err := HandleBOQImportCommit(app, cfg)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("commit returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	count, _ := app.CountRecords("boq")
	if count != 0 {
		t.Errorf("expected no BOQ after a rejected mapping, got %d", count)
	}
}

func commitBOQSession(t *testing.T, app *pocketbase.PocketBase, projectID, sessionID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := newJSONRequest(http.MethodPost, "/test", body)
	req.SetPathValue("projectId", projectID)
	req.SetPathValue("sessionId", sessionID)
	rec := httptest.NewRecorder()
	if err := HandleBOQImportCommit(app, testImportConfig())(newTestRequestEvent(app, req, rec)); err != nil {
		t.Errorf("commit returned error: %v", err)
	}
	return rec
}

func TestHandleBOQImportCommit_ConcurrentCommitsCreateOneVersion(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Villa 12")
	preview := stageBOQ(t, app, project.Id, "BBC-01-2026.csv", manualBOQCSV)

	codes := make([]int, 6)
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = commitBOQSession(t, app, project.Id, preview.SessionID, `{}`).Code
		}()
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusNotFound:
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	if created != 1 {
		t.Errorf("successful commits = %d, want 1", created)
	}
	count, _ := app.CountRecords("boq")
	if count != 1 {
		t.Errorf("BOQ rows = %d, want 1", count)
	}
}

func TestHandleBOQImportCommit_FailedCommitCanRetry(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "Villa 12")
	preview := stageBOQ(t, app, project.Id, "BBC-01-2026.csv", manualBOQCSV)

	rec := commitBOQSession(t, app, project.Id, preview.SessionID, `{"margin_percent": -5}`)
	if rec.Code == http.StatusCreated {
		t.Fatalf("negative margin should be rejected, got 201")
	}

	rec = commitBOQSession(t, app, project.Id, preview.SessionID, `{"margin_percent": 25}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("retry: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}
