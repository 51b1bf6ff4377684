package main

import (
	"net/http"

	"factorypulse/internal/auth"
	"factorypulse/internal/validation"
)

// --- User Management (admin only) ---

func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	u := getCurrentUser(r)
	if u == nil || u.Role != auth.RoleAdmin {
		jsonErr(w, "admin role required", 403)
		return false
	}
	return true
}

func handleListUsers(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	rows, err := db.Query(`SELECT id, username, COALESCE(display_name,''), role, active, COALESCE(last_login,''), created_at
		FROM users ORDER BY username`)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	items := []User{}
	for rows.Next() {
		var u User
		rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role, &u.Active, &u.LastLogin, &u.CreatedAt)
		items = append(items, u)
	}
	jsonResp(w, items)
}

func handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var body struct {
		Username    string `json:"username"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
		Role        string `json:"role"`
	}
	if err := decodeBody(r, &body); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "username", body.Username)
	validation.RequireField(ve, "password", body.Password)
	validation.RequireField(ve, "role", body.Role)
	validation.ValidateEnum(ve, "role", body.Role, validation.ValidUserRoles)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		jsonErr(w, "failed to hash password", 500)
		return
	}
	res, err := db.Exec(`INSERT INTO users (username, password_hash, display_name, role) VALUES (?,?,?,?)`,
		body.Username, hash, body.DisplayName, body.Role)
	if err != nil {
		jsonErr(w, "username already exists", 409)
		return
	}
	id, _ := res.LastInsertId()

	logAudit(getUser(r), AuditActionCreate, "users", body.Username, "Created user with role "+body.Role)
	w.WriteHeader(201)
	jsonResp(w, User{ID: int(id), Username: body.Username, DisplayName: body.DisplayName, Role: body.Role, Active: true})
}

func handleUpdateUser(w http.ResponseWriter, r *http.Request, id string) {
	if !requireAdmin(w, r) {
		return
	}
	var body struct {
		DisplayName string `json:"display_name"`
		Role        string `json:"role"`
		Active      *bool  `json:"active"`
	}
	if err := decodeBody(r, &body); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	ve := &validation.ValidationErrors{}
	validation.ValidateEnum(ve, "role", body.Role, validation.ValidUserRoles)
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	active := 1
	if body.Active != nil && !*body.Active {
		active = 0
	}
	res, err := db.Exec(`UPDATE users SET display_name=?, role=COALESCE(NULLIF(?,''), role), active=? WHERE id=?`,
		body.DisplayName, body.Role, active, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		jsonErr(w, "not found", 404)
		return
	}

	logAudit(getUser(r), AuditActionUpdate, "users", id, "Updated user")
	jsonResp(w, map[string]string{"status": "updated"})
}

func handleResetPassword(w http.ResponseWriter, r *http.Request, id string) {
	if !requireAdmin(w, r) {
		return
	}
	var body struct {
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil || len(body.Password) < 8 {
		jsonErr(w, "password of at least 8 characters required", 400)
		return
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		jsonErr(w, "failed to hash password", 500)
		return
	}
	res, err := db.Exec(`UPDATE users SET password_hash=? WHERE id=?`, hash, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		jsonErr(w, "not found", 404)
		return
	}

	// Invalidate existing sessions for the user.
	db.Exec(`DELETE FROM sessions WHERE user_id=?`, id)

	logAudit(getUser(r), AuditActionUpdate, "users", id, "Reset password")
	jsonResp(w, map[string]string{"status": "password reset"})
}
