package main

import (
	"net/http"
	"time"

	"factorypulse/internal/workflow"
)

// --- Notifications ---

// insertNotification adds a notification unless an unread one of the
// same type already exists for the project.
func insertNotification(ntype, projectID, message string) {
	var existing int
	db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE type=? AND project_id=? AND read=0`, ntype, projectID).Scan(&existing)
	if existing > 0 {
		return
	}
	db.Exec(`INSERT INTO notifications (type, project_id, message) VALUES (?,?,?)`, ntype, projectID, message)
	broadcast("notification", "create", projectID)
}

// generateNotifications scans for overdue projects, projects eligible
// to auto-advance, and stalled quoting. Called from a background
// goroutine on a fixed cadence.
func generateNotifications() {
	today := time.Now().Format("2006-01-02")

	rows, err := db.Query(projectSelect + ` WHERE p.status != 'shipped_closed'`)
	if err != nil {
		return
	}
	var projects []Project
	for rows.Next() {
		if p, err := scanProject(rows); err == nil {
			projects = append(projects, p)
		}
	}
	rows.Close()

	for _, p := range projects {
		if p.DueDate != "" && p.DueDate < today {
			insertNotification("overdue", p.ID, p.ID+" is past its due date ("+p.DueDate+")")
		}

		adv := workflow.CheckAndAutoAdvance(projectSnapshot(p), loadQuoteSnapshots(p.ID))
		if adv.ShouldAdvance {
			insertNotification("auto_advance_ready", p.ID,
				p.ID+" is ready to advance to "+workflow.StageLabel(adv.NextStage))
		}

		// Quoting stalls when the project sits in supplier_rfq_sent
		// with pending quotes for over a week.
		if p.Status == string(workflow.StageSupplierRFQSent) && p.StageEnteredAt != "" {
			entered, err := time.Parse(time.RFC3339, p.StageEnteredAt)
			if err == nil && time.Since(entered) > 7*24*time.Hour {
				var pending int
				db.QueryRow(`SELECT COUNT(*) FROM supplier_quotes WHERE project_id=? AND status='pending'`, p.ID).Scan(&pending)
				if pending > 0 {
					insertNotification("quotes_stalled", p.ID, p.ID+" has pending supplier quotes for over a week")
				}
			}
		}
	}
}

func handleListNotifications(w http.ResponseWriter, r *http.Request) {
	query := `SELECT id, type, project_id, message, read, created_at FROM notifications`
	if r.URL.Query().Get("unread") == "true" {
		query += ` WHERE read=0`
	}
	query += ` ORDER BY id DESC LIMIT 200`

	rows, err := db.Query(query)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	items := []Notification{}
	for rows.Next() {
		var n Notification
		rows.Scan(&n.ID, &n.Type, &n.ProjectID, &n.Message, &n.Read, &n.CreatedAt)
		items = append(items, n)
	}
	jsonResp(w, items)
}

func handleMarkNotificationRead(w http.ResponseWriter, r *http.Request, id string) {
	res, err := db.Exec(`UPDATE notifications SET read=1 WHERE id=?`, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		jsonErr(w, "not found", 404)
		return
	}
	jsonResp(w, map[string]string{"status": "read"})
}
