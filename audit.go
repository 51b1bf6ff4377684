package main

import (
	"net/http"
	"strconv"

	"factorypulse/internal/audit"
)

// Audit action aliases used throughout the handlers.
const (
	AuditActionCreate     = audit.ActionCreate
	AuditActionUpdate     = audit.ActionUpdate
	AuditActionDelete     = audit.ActionDelete
	AuditActionTransition = audit.ActionTransition
	AuditActionBypass     = audit.ActionBypass
	AuditActionLogin      = audit.ActionLogin
	AuditActionLogout     = audit.ActionLogout
	AuditActionExport     = audit.ActionExport
)

type AuditEntry = audit.Entry

// logAudit records an audit entry against the global db and hub.
func logAudit(username, action, module, recordID, summary string) {
	audit.Log(db, wsHub, username, action, module, recordID, summary)
}

func getUser(r *http.Request) string {
	return audit.Username(db, r)
}

func handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	query := `SELECT id, username, action, module, record_id, summary, created_at FROM audit_log`
	args := []interface{}{}
	if module := r.URL.Query().Get("module"); module != "" {
		query += ` WHERE module=?`
		args = append(args, module)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	items := []AuditEntry{}
	for rows.Next() {
		var e AuditEntry
		rows.Scan(&e.ID, &e.Username, &e.Action, &e.Module, &e.RecordID, &e.Summary, &e.CreatedAt)
		items = append(items, e)
	}
	jsonResp(w, items)
}
