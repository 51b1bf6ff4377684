package main

import (
	"net/http"

	"factorypulse/internal/validation"
)

// --- Customer Handlers ---

func handleListCustomers(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query(`SELECT id, company, contact_name, email, phone, address, country, notes, created_at
		FROM customers ORDER BY company`)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	items := []Customer{}
	for rows.Next() {
		var c Customer
		rows.Scan(&c.ID, &c.Company, &c.ContactName, &c.Email, &c.Phone, &c.Address, &c.Country, &c.Notes, &c.CreatedAt)
		items = append(items, c)
	}
	jsonResp(w, items)
}

func handleGetCustomer(w http.ResponseWriter, r *http.Request, id string) {
	var c Customer
	err := db.QueryRow(`SELECT id, company, contact_name, email, phone, address, country, notes, created_at
		FROM customers WHERE id=?`, id).
		Scan(&c.ID, &c.Company, &c.ContactName, &c.Email, &c.Phone, &c.Address, &c.Country, &c.Notes, &c.CreatedAt)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	jsonResp(w, c)
}

func validateCustomer(c Customer) *validation.ValidationErrors {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "company", c.Company)
	validation.ValidateEmail(ve, "email", c.Email)
	return ve
}

func handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var c Customer
	if err := decodeBody(r, &c); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if ve := validateCustomer(c); ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	c.ID = nextID("C", "customers", 4)
	_, err := db.Exec(`INSERT INTO customers (id, company, contact_name, email, phone, address, country, notes)
		VALUES (?,?,?,?,?,?,?,?)`,
		c.ID, c.Company, c.ContactName, c.Email, c.Phone, c.Address, c.Country, c.Notes)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUser(r), AuditActionCreate, "customers", c.ID, "Created customer: "+c.Company)
	broadcast("customer", "create", c.ID)
	w.WriteHeader(201)
	handleGetCustomer(w, r, c.ID)
}

func handleUpdateCustomer(w http.ResponseWriter, r *http.Request, id string) {
	var exists string
	if err := db.QueryRow(`SELECT id FROM customers WHERE id=?`, id).Scan(&exists); err != nil {
		jsonErr(w, "not found", 404)
		return
	}

	var c Customer
	if err := decodeBody(r, &c); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if ve := validateCustomer(c); ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	_, err := db.Exec(`UPDATE customers SET company=?, contact_name=?, email=?, phone=?, address=?, country=?, notes=? WHERE id=?`,
		c.Company, c.ContactName, c.Email, c.Phone, c.Address, c.Country, c.Notes, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUser(r), AuditActionUpdate, "customers", id, "Updated customer")
	broadcast("customer", "update", id)
	handleGetCustomer(w, r, id)
}

func handleDeleteCustomer(w http.ResponseWriter, r *http.Request, id string) {
	// Refuse to delete while projects reference the customer.
	var projectCount int
	db.QueryRow(`SELECT COUNT(*) FROM projects WHERE customer_id=?`, id).Scan(&projectCount)
	if projectCount > 0 {
		jsonErr(w, "customer has projects; reassign them first", 409)
		return
	}

	res, err := db.Exec(`DELETE FROM customers WHERE id=?`, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		jsonErr(w, "not found", 404)
		return
	}
	logAudit(getUser(r), AuditActionDelete, "customers", id, "Deleted customer")
	broadcast("customer", "delete", id)
	jsonResp(w, map[string]string{"status": "deleted"})
}
