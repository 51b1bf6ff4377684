package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func uploadDoc(t *testing.T, cookie *http.Cookie, projectID, category, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if projectID != "" {
		mw.WriteField("project_id", projectID)
	}
	if category != "" {
		mw.WriteField("category", category)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	handleUploadDocument(w, req)
	return w
}

func TestDocumentUploadAndServe(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	origDir := appConfig.UploadDir
	appConfig.UploadDir = t.TempDir()
	defer func() { appConfig.UploadDir = origDir }()

	w := uploadDoc(t, cookie, "P-2026-0001", "drawing", "housing_rev3.pdf", "%PDF-1.4 fake")
	if w.Code != 201 {
		t.Fatalf("upload: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct{ Data Document }
	json.Unmarshal(w.Body.Bytes(), &resp)
	doc := resp.Data
	if doc.OriginalName != "housing_rev3.pdf" {
		t.Errorf("original name = %s", doc.OriginalName)
	}
	if doc.Filename == "housing_rev3.pdf" {
		t.Error("stored filename should be opaque")
	}
	if filepath.Ext(doc.Filename) != ".pdf" {
		t.Errorf("stored name should keep the extension, got %s", doc.Filename)
	}
	if doc.UploadedBy != "admin" {
		t.Errorf("uploaded_by = %s", doc.UploadedBy)
	}
	if _, err := os.Stat(filepath.Join(appConfig.UploadDir, doc.Filename)); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}

	// Listed under the project.
	req := authedRequest("GET", "/api/v1/projects/P-2026-0001/documents", "", cookie)
	rec := httptest.NewRecorder()
	handleListProjectDocuments(rec, req, "P-2026-0001")
	var list struct{ Data []Document }
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list.Data) != 1 {
		t.Fatalf("expected 1 document, got %d", len(list.Data))
	}

	// Served back with the original name.
	req = authedRequest("GET", "/files/"+doc.Filename, "", cookie)
	rec = httptest.NewRecorder()
	handleServeFile(rec, req, doc.Filename)
	if rec.Code != 200 {
		t.Fatalf("serve: expected 200, got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="housing_rev3.pdf"` {
		t.Errorf("content-disposition = %s", cd)
	}
	if rec.Body.String() != "%PDF-1.4 fake" {
		t.Error("served content mismatch")
	}

	// Delete removes the row and the file.
	req = authedRequest("DELETE", "/api/v1/documents/1", "", cookie)
	rec = httptest.NewRecorder()
	handleDeleteDocument(rec, req, "1")
	if rec.Code != 200 {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	if _, err := os.Stat(filepath.Join(appConfig.UploadDir, doc.Filename)); !os.IsNotExist(err) {
		t.Error("stored file should be removed")
	}
}

func TestDocumentUploadValidation(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	origDir := appConfig.UploadDir
	appConfig.UploadDir = t.TempDir()
	defer func() { appConfig.UploadDir = origDir }()

	if w := uploadDoc(t, cookie, "", "drawing", "a.pdf", "x"); w.Code != 400 {
		t.Errorf("missing project_id should be rejected, got %d", w.Code)
	}
	if w := uploadDoc(t, cookie, "P-2026-0001", "blueprints", "a.pdf", "x"); w.Code != 400 {
		t.Errorf("bad category should be rejected, got %d", w.Code)
	}
	if w := uploadDoc(t, cookie, "P-9999-0000", "drawing", "a.pdf", "x"); w.Code != 400 {
		t.Errorf("unknown project should be rejected, got %d", w.Code)
	}
}

func TestServeFileRejectsTraversal(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	req := authedRequest("GET", "/files/x", "", cookie)
	w := httptest.NewRecorder()
	handleServeFile(w, req, "../etc/passwd")
	if w.Code != 404 {
		t.Errorf("traversal should 404, got %d", w.Code)
	}
}
