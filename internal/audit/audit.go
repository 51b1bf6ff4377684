// Package audit records who did what to which record.
package audit

import (
	"database/sql"
	"log"
	"net/http"
)

// Audit actions.
const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionTransition = "transition"
	ActionBypass     = "bypass"
	ActionLogin      = "login"
	ActionLogout     = "logout"
	ActionExport     = "export"
)

// Broadcaster pushes audit events to connected clients. Satisfied by
// the websocket hub.
type Broadcaster interface {
	BroadcastChange(resourceType, action string, id any)
}

// Entry is one audit log row.
type Entry struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Module    string `json:"module"`
	RecordID  string `json:"record_id"`
	Summary   string `json:"summary"`
	CreatedAt string `json:"created_at"`
}

// Log writes an audit entry. Failures are logged, not returned: an
// audit miss must never fail the operation being audited.
func Log(db *sql.DB, hub Broadcaster, username, action, module, recordID, summary string) {
	_, err := db.Exec(`INSERT INTO audit_log (username, action, module, record_id, summary) VALUES (?,?,?,?,?)`,
		username, action, module, recordID, summary)
	if err != nil {
		log.Printf("audit: insert failed: %v", err)
		return
	}
	if hub != nil {
		hub.BroadcastChange("audit", action, recordID)
	}
}

// Username resolves the acting user from the session cookie, falling
// back to "system" for unauthenticated internal calls.
func Username(db *sql.DB, r *http.Request) string {
	cookie, err := r.Cookie("pulse_session")
	if err != nil {
		return "system"
	}
	var username string
	err = db.QueryRow(`SELECT u.username FROM sessions s JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > CURRENT_TIMESTAMP`, cookie.Value).Scan(&username)
	if err != nil {
		return "system"
	}
	return username
}
