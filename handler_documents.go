package main

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"factorypulse/internal/validation"

	"github.com/google/uuid"
)

// --- Project Document Handlers ---

func loadProjectDocuments(projectID string) []Document {
	rows, err := db.Query(`SELECT id, project_id, filename, original_name, category, size_bytes, mime_type, uploaded_by, created_at
		FROM documents WHERE project_id=? ORDER BY created_at DESC`, projectID)
	if err != nil {
		return []Document{}
	}
	defer rows.Close()
	items := []Document{}
	for rows.Next() {
		var d Document
		rows.Scan(&d.ID, &d.ProjectID, &d.Filename, &d.OriginalName, &d.Category, &d.SizeBytes, &d.MimeType, &d.UploadedBy, &d.CreatedAt)
		items = append(items, d)
	}
	return items
}

func handleListProjectDocuments(w http.ResponseWriter, r *http.Request, projectID string) {
	var exists string
	if err := db.QueryRow(`SELECT id FROM projects WHERE id=?`, projectID).Scan(&exists); err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	jsonResp(w, loadProjectDocuments(projectID))
}

func handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max
		jsonErr(w, "Failed to parse form", 400)
		return
	}
	projectID := r.FormValue("project_id")
	category := r.FormValue("category")
	if projectID == "" {
		jsonErr(w, "project_id required", 400)
		return
	}
	if category == "" {
		category = "other"
	}
	ve := &validation.ValidationErrors{}
	validation.ValidateEnum(ve, "category", category, validation.ValidDocCategories)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	var exists string
	if err := db.QueryRow(`SELECT id FROM projects WHERE id=?`, projectID).Scan(&exists); err != nil {
		jsonErr(w, "unknown project_id", 400)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonErr(w, "File required", 400)
		return
	}
	defer file.Close()

	// Stored name is opaque; the original name survives in metadata.
	ext := filepath.Ext(header.Filename)
	filename := uuid.NewString() + strings.ToLower(ext)

	outPath := filepath.Join(appConfig.UploadDir, filename)
	out, err := os.Create(outPath)
	if err != nil {
		jsonErr(w, "Failed to save file", 500)
		return
	}
	defer out.Close()
	written, err := io.Copy(out, file)
	if err != nil {
		jsonErr(w, "Failed to write file", 500)
		return
	}

	uploadedBy := "unknown"
	if u := getCurrentUser(r); u != nil {
		uploadedBy = u.Username
	}

	mimeType := header.Header.Get("Content-Type")
	result, err := db.Exec(`INSERT INTO documents (project_id, filename, original_name, category, size_bytes, mime_type, uploaded_by)
		VALUES (?,?,?,?,?,?,?)`,
		projectID, filename, header.Filename, category, written, mimeType, uploadedBy)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	id, _ := result.LastInsertId()
	logAudit(uploadedBy, AuditActionCreate, "documents", filename, "Uploaded "+header.Filename+" to "+projectID)
	broadcast("document", "create", id)

	w.WriteHeader(201)
	jsonResp(w, Document{
		ID:           int(id),
		ProjectID:    projectID,
		Filename:     filename,
		OriginalName: header.Filename,
		Category:     category,
		SizeBytes:    written,
		MimeType:     mimeType,
		UploadedBy:   uploadedBy,
	})
}

func handleDeleteDocument(w http.ResponseWriter, r *http.Request, id string) {
	var filename string
	err := db.QueryRow(`SELECT filename FROM documents WHERE id=?`, id).Scan(&filename)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}

	if _, err := db.Exec(`DELETE FROM documents WHERE id=?`, id); err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	os.Remove(filepath.Join(appConfig.UploadDir, filename))

	logAudit(getUser(r), AuditActionDelete, "documents", id, "Deleted document "+filename)
	broadcast("document", "delete", id)
	jsonResp(w, map[string]string{"status": "deleted"})
}

// handleServeFile streams an uploaded document with its original name.
func handleServeFile(w http.ResponseWriter, r *http.Request, filename string) {
	// Stored names are uuid-generated; reject any path traversal.
	if strings.Contains(filename, "/") || strings.Contains(filename, "..") {
		http.NotFound(w, r)
		return
	}

	var originalName, mimeType string
	err := db.QueryRow(`SELECT original_name, mime_type FROM documents WHERE filename=?`, filename).
		Scan(&originalName, &mimeType)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if mimeType != "" {
		w.Header().Set("Content-Type", mimeType)
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+originalName+`"`)
	http.ServeFile(w, r, filepath.Join(appConfig.UploadDir, filename))
}
