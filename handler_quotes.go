package main

import (
	"database/sql"
	"net/http"
	"time"

	"factorypulse/internal/validation"
)

// --- Supplier Quote Handlers ---

const quoteSelect = `SELECT q.id, q.project_id, q.supplier_id, COALESCE(s.name,''), q.status,
	q.unit_price, q.lead_time_days, q.currency, COALESCE(q.quoted_at,''), COALESCE(q.notes,''),
	q.created_at, q.updated_at
	FROM supplier_quotes q LEFT JOIN suppliers s ON q.supplier_id=s.id`

func scanQuote(scanner interface{ Scan(...any) error }) (SupplierQuote, error) {
	var q SupplierQuote
	var price sql.NullFloat64
	err := scanner.Scan(&q.ID, &q.ProjectID, &q.SupplierID, &q.SupplierName, &q.Status,
		&price, &q.LeadTimeDays, &q.Currency, &q.QuotedAt, &q.Notes,
		&q.CreatedAt, &q.UpdatedAt)
	if price.Valid {
		v := price.Float64
		q.UnitPrice = &v
	}
	return q, err
}

func loadProjectQuotes(projectID string) []SupplierQuote {
	rows, err := db.Query(quoteSelect+` WHERE q.project_id=? ORDER BY q.created_at`, projectID)
	if err != nil {
		return []SupplierQuote{}
	}
	defer rows.Close()
	items := []SupplierQuote{}
	for rows.Next() {
		if q, err := scanQuote(rows); err == nil {
			items = append(items, q)
		}
	}
	return items
}

func handleListProjectQuotes(w http.ResponseWriter, r *http.Request, projectID string) {
	var exists string
	if err := db.QueryRow(`SELECT id FROM projects WHERE id=?`, projectID).Scan(&exists); err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	jsonResp(w, loadProjectQuotes(projectID))
}

func handleCreateProjectQuote(w http.ResponseWriter, r *http.Request, projectID string) {
	var exists string
	if err := db.QueryRow(`SELECT id FROM projects WHERE id=?`, projectID).Scan(&exists); err != nil {
		jsonErr(w, "not found", 404)
		return
	}

	var q SupplierQuote
	if err := decodeBody(r, &q); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "supplier_id", q.SupplierID)
	validation.ValidateEnum(ve, "status", q.Status, validation.ValidQuoteStatuses)
	validation.ValidateNonNegativeInt(ve, "lead_time_days", q.LeadTimeDays)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	var supplierCount int
	db.QueryRow(`SELECT COUNT(*) FROM suppliers WHERE id=?`, q.SupplierID).Scan(&supplierCount)
	if supplierCount == 0 {
		jsonErr(w, "unknown supplier_id", 400)
		return
	}

	q.ID = nextID("SQ", "supplier_quotes", 4)
	q.ProjectID = projectID
	if q.Status == "" {
		q.Status = "pending"
	}
	if q.Currency == "" {
		q.Currency = "USD"
	}
	now := time.Now().Format(time.RFC3339)
	q.CreatedAt = now
	q.UpdatedAt = now

	_, err := db.Exec(`INSERT INTO supplier_quotes (id, project_id, supplier_id, status, unit_price, lead_time_days, currency, notes, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		q.ID, q.ProjectID, q.SupplierID, q.Status, nf(q.UnitPrice), q.LeadTimeDays, q.Currency, q.Notes, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUser(r), AuditActionCreate, "quotes", q.ID, "Created supplier quote for "+projectID)
	broadcast("quote", "create", q.ID)
	w.WriteHeader(201)
	jsonResp(w, q)
}

func handleGetQuote(w http.ResponseWriter, r *http.Request, id string) {
	q, err := scanQuote(db.QueryRow(quoteSelect+` WHERE q.id=?`, id))
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	jsonResp(w, q)
}

func handleUpdateQuote(w http.ResponseWriter, r *http.Request, id string) {
	var existing SupplierQuote
	err := db.QueryRow(`SELECT id, project_id FROM supplier_quotes WHERE id=?`, id).Scan(&existing.ID, &existing.ProjectID)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}

	var q SupplierQuote
	if err := decodeBody(r, &q); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	ve := &validation.ValidationErrors{}
	validation.ValidateEnum(ve, "status", q.Status, validation.ValidQuoteStatuses)
	validation.ValidateNonNegativeInt(ve, "lead_time_days", q.LeadTimeDays)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	now := time.Now().Format(time.RFC3339)
	_, err = db.Exec(`UPDATE supplier_quotes SET status=COALESCE(NULLIF(?,''), status), unit_price=?, lead_time_days=?, currency=COALESCE(NULLIF(?,''), currency), notes=?, updated_at=? WHERE id=?`,
		q.Status, nf(q.UnitPrice), q.LeadTimeDays, q.Currency, q.Notes, now, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUser(r), AuditActionUpdate, "quotes", id, "Updated supplier quote")
	broadcast("quote", "update", id)
	handleGetQuote(w, r, id)
}

// handleReceiveQuote records the supplier's response and flips the
// quote to received, which feeds the supplier_rfq_sent → quoted rule.
func handleReceiveQuote(w http.ResponseWriter, r *http.Request, id string) {
	var projectID, status string
	err := db.QueryRow(`SELECT project_id, status FROM supplier_quotes WHERE id=?`, id).Scan(&projectID, &status)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	if status == "received" {
		jsonErr(w, "quote already received", 400)
		return
	}

	var body struct {
		UnitPrice    *float64 `json:"unit_price"`
		LeadTimeDays int      `json:"lead_time_days"`
		Notes        string   `json:"notes"`
	}
	if err := decodeBody(r, &body); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if body.UnitPrice == nil || *body.UnitPrice < 0 {
		jsonErr(w, "unit_price required", 400)
		return
	}

	now := time.Now().Format(time.RFC3339)
	_, err = db.Exec(`UPDATE supplier_quotes SET status='received', unit_price=?, lead_time_days=?, notes=?, quoted_at=?, updated_at=? WHERE id=?`,
		*body.UnitPrice, body.LeadTimeDays, body.Notes, now, now, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUser(r), AuditActionUpdate, "quotes", id, "Received supplier quote for "+projectID)
	broadcast("quote", "update", id)
	handleGetQuote(w, r, id)
}

func handleDeleteQuote(w http.ResponseWriter, r *http.Request, id string) {
	res, err := db.Exec(`DELETE FROM supplier_quotes WHERE id=?`, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		jsonErr(w, "not found", 404)
		return
	}
	logAudit(getUser(r), AuditActionDelete, "quotes", id, "Deleted supplier quote")
	broadcast("quote", "delete", id)
	jsonResp(w, map[string]string{"status": "deleted"})
}
