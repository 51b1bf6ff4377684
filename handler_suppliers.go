package main

import (
	"net/http"

	"factorypulse/internal/validation"
)

// --- Supplier Handlers ---

func handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	query := `SELECT id, name, contact_name, email, phone, country, lead_time_days, rating, status, notes, created_at
		FROM suppliers`
	args := []interface{}{}
	if status := r.URL.Query().Get("status"); status != "" {
		query += ` WHERE status=?`
		args = append(args, status)
	}
	query += ` ORDER BY name`

	rows, err := db.Query(query, args...)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	items := []Supplier{}
	for rows.Next() {
		var s Supplier
		rows.Scan(&s.ID, &s.Name, &s.ContactName, &s.Email, &s.Phone, &s.Country,
			&s.LeadTimeDays, &s.Rating, &s.Status, &s.Notes, &s.CreatedAt)
		items = append(items, s)
	}
	jsonResp(w, items)
}

func handleGetSupplier(w http.ResponseWriter, r *http.Request, id string) {
	var s Supplier
	err := db.QueryRow(`SELECT id, name, contact_name, email, phone, country, lead_time_days, rating, status, notes, created_at
		FROM suppliers WHERE id=?`, id).
		Scan(&s.ID, &s.Name, &s.ContactName, &s.Email, &s.Phone, &s.Country,
			&s.LeadTimeDays, &s.Rating, &s.Status, &s.Notes, &s.CreatedAt)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	jsonResp(w, s)
}

func validateSupplier(s Supplier) *validation.ValidationErrors {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "name", s.Name)
	validation.ValidateEnum(ve, "status", s.Status, validation.ValidSupplierStatuses)
	validation.ValidateEmail(ve, "email", s.Email)
	validation.ValidateNonNegativeInt(ve, "lead_time_days", s.LeadTimeDays)
	return ve
}

func handleCreateSupplier(w http.ResponseWriter, r *http.Request) {
	var s Supplier
	if err := decodeBody(r, &s); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if ve := validateSupplier(s); ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}
	if s.Status == "" {
		s.Status = "active"
	}

	s.ID = nextID("S", "suppliers", 4)
	_, err := db.Exec(`INSERT INTO suppliers (id, name, contact_name, email, phone, country, lead_time_days, rating, status, notes)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		s.ID, s.Name, s.ContactName, s.Email, s.Phone, s.Country, s.LeadTimeDays, s.Rating, s.Status, s.Notes)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUser(r), AuditActionCreate, "suppliers", s.ID, "Created supplier: "+s.Name)
	broadcast("supplier", "create", s.ID)
	w.WriteHeader(201)
	handleGetSupplier(w, r, s.ID)
}

func handleUpdateSupplier(w http.ResponseWriter, r *http.Request, id string) {
	var exists string
	if err := db.QueryRow(`SELECT id FROM suppliers WHERE id=?`, id).Scan(&exists); err != nil {
		jsonErr(w, "not found", 404)
		return
	}

	var s Supplier
	if err := decodeBody(r, &s); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if ve := validateSupplier(s); ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	_, err := db.Exec(`UPDATE suppliers SET name=?, contact_name=?, email=?, phone=?, country=?, lead_time_days=?, rating=?, status=?, notes=? WHERE id=?`,
		s.Name, s.ContactName, s.Email, s.Phone, s.Country, s.LeadTimeDays, s.Rating, s.Status, s.Notes, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUser(r), AuditActionUpdate, "suppliers", id, "Updated supplier")
	broadcast("supplier", "update", id)
	handleGetSupplier(w, r, id)
}

func handleDeleteSupplier(w http.ResponseWriter, r *http.Request, id string) {
	var quoteCount int
	db.QueryRow(`SELECT COUNT(*) FROM supplier_quotes WHERE supplier_id=?`, id).Scan(&quoteCount)
	if quoteCount > 0 {
		jsonErr(w, "supplier has quotes on record; cannot delete", 409)
		return
	}

	res, err := db.Exec(`DELETE FROM suppliers WHERE id=?`, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		jsonErr(w, "not found", 404)
		return
	}
	logAudit(getUser(r), AuditActionDelete, "suppliers", id, "Deleted supplier")
	broadcast("supplier", "delete", id)
	jsonResp(w, map[string]string{"status": "deleted"})
}
