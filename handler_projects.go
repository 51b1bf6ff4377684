package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"factorypulse/internal/validation"
	"factorypulse/internal/workflow"
)

const projectSelect = `SELECT p.id, p.title, COALESCE(p.description,''), p.status, p.priority,
	COALESCE(p.customer_id,''), COALESCE(c.company,''),
	p.engineering_reviewer_id, p.qa_reviewer_id, p.production_reviewer_id,
	p.estimated_value, COALESCE(p.due_date,''), COALESCE(p.stage_entered_at,''),
	COALESCE(p.notes,''), p.created_by, p.created_at, p.updated_at
	FROM projects p LEFT JOIN customers c ON p.customer_id=c.id`

func scanProject(scanner interface{ Scan(...any) error }) (Project, error) {
	var p Project
	var est sql.NullFloat64
	err := scanner.Scan(&p.ID, &p.Title, &p.Description, &p.Status, &p.Priority,
		&p.CustomerID, &p.CustomerName,
		&p.EngineeringReviewer, &p.QAReviewer, &p.ProductionReviewer,
		&est, &p.DueDate, &p.StageEnteredAt,
		&p.Notes, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if est.Valid {
		v := est.Float64
		p.EstimatedValue = &v
	}
	return p, err
}

// loadProject fetches one project row, or sql.ErrNoRows.
func loadProject(id string) (Project, error) {
	return scanProject(db.QueryRow(projectSelect+` WHERE p.id=?`, id))
}

// projectSnapshot converts a stored project into the validator's input.
func projectSnapshot(p Project) workflow.Project {
	return workflow.Project{
		Status:              workflow.Stage(p.Status),
		CustomerID:          p.CustomerID,
		Description:         p.Description,
		EngineeringReviewer: p.EngineeringReviewer,
		QAReviewer:          p.QAReviewer,
		ProductionReviewer:  p.ProductionReviewer,
		EstimatedValue:      p.EstimatedValue,
		DueDate:             p.DueDate,
	}
}

// loadQuoteSnapshots returns the quote statuses the validator inspects.
func loadQuoteSnapshots(projectID string) []workflow.Quote {
	rows, err := db.Query(`SELECT status FROM supplier_quotes WHERE project_id=?`, projectID)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var quotes []workflow.Quote
	for rows.Next() {
		var q workflow.Quote
		rows.Scan(&q.Status)
		quotes = append(quotes, q)
	}
	return quotes
}

func handleListProjects(w http.ResponseWriter, r *http.Request) {
	query := projectSelect
	var conds []string
	var args []interface{}
	if status := r.URL.Query().Get("status"); status != "" {
		conds = append(conds, "p.status=?")
		args = append(args, status)
	}
	if customer := r.URL.Query().Get("customer_id"); customer != "" {
		conds = append(conds, "p.customer_id=?")
		args = append(args, customer)
	}
	if search := r.URL.Query().Get("q"); search != "" {
		conds = append(conds, "(p.title LIKE ? OR p.description LIKE ? OR p.id LIKE ?)")
		like := "%" + search + "%"
		args = append(args, like, like, like)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY p.updated_at DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()
	items := []Project{}
	for rows.Next() {
		if p, err := scanProject(rows); err == nil {
			items = append(items, p)
		}
	}
	jsonResp(w, items)
}

func handleGetProject(w http.ResponseWriter, r *http.Request, id string) {
	p, err := loadProject(id)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	p.Quotes = loadProjectQuotes(id)
	p.Documents = loadProjectDocuments(id)
	jsonResp(w, p)
}

func validateProjectFields(p Project) *validation.ValidationErrors {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "title", p.Title)
	validation.ValidateEnum(ve, "priority", p.Priority, validation.ValidProjectPriorities)
	validation.ValidateDate(ve, "due_date", p.DueDate)
	if p.EstimatedValue != nil {
		validation.ValidateNonNegativeFloat(ve, "estimated_value", *p.EstimatedValue)
	}
	return ve
}

func handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var p Project
	if err := decodeBody(r, &p); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if ve := validateProjectFields(p); ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}
	if p.CustomerID != "" {
		var exists int
		db.QueryRow(`SELECT COUNT(*) FROM customers WHERE id=?`, p.CustomerID).Scan(&exists)
		if exists == 0 {
			jsonErr(w, "unknown customer_id", 400)
			return
		}
	}

	p.ID = nextID("P", "projects", 4)
	p.Status = string(workflow.StageInquiryReceived)
	if p.Priority == "" {
		p.Priority = "normal"
	}
	p.CreatedBy = getUser(r)
	now := time.Now().Format(time.RFC3339)
	p.CreatedAt = now
	p.UpdatedAt = now
	p.StageEnteredAt = now

	_, err := db.Exec(`INSERT INTO projects (id, title, description, status, priority, customer_id,
		engineering_reviewer_id, qa_reviewer_id, production_reviewer_id,
		estimated_value, due_date, stage_entered_at, notes, created_by, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Title, p.Description, p.Status, p.Priority, p.CustomerID,
		p.EngineeringReviewer, p.QAReviewer, p.ProductionReviewer,
		nf(p.EstimatedValue), nullable(p.DueDate), p.StageEnteredAt, p.Notes, p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUser(r), AuditActionCreate, "projects", p.ID, "Created project: "+p.Title)
	broadcast("project", "create", p.ID)
	w.WriteHeader(201)
	jsonResp(w, p)
}

func handleUpdateProject(w http.ResponseWriter, r *http.Request, id string) {
	existing, err := loadProject(id)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}

	var p Project
	if err := decodeBody(r, &p); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}
	if ve := validateProjectFields(p); ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}
	// Status changes go through the transition endpoint only.
	if p.Status != "" && p.Status != existing.Status {
		jsonErr(w, "status cannot be changed here; use the transition endpoint", 400)
		return
	}

	now := time.Now().Format(time.RFC3339)
	_, err = db.Exec(`UPDATE projects SET title=?, description=?, priority=?, customer_id=?,
		engineering_reviewer_id=?, qa_reviewer_id=?, production_reviewer_id=?,
		estimated_value=?, due_date=?, notes=?, updated_at=? WHERE id=?`,
		p.Title, p.Description, p.Priority, p.CustomerID,
		p.EngineeringReviewer, p.QAReviewer, p.ProductionReviewer,
		nf(p.EstimatedValue), nullable(p.DueDate), p.Notes, now, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUser(r), AuditActionUpdate, "projects", id, "Updated project")
	broadcast("project", "update", id)
	handleGetProject(w, r, id)
}

func handleDeleteProject(w http.ResponseWriter, r *http.Request, id string) {
	res, err := db.Exec(`DELETE FROM projects WHERE id=?`, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		jsonErr(w, "not found", 404)
		return
	}
	logAudit(getUser(r), AuditActionDelete, "projects", id, "Deleted project")
	broadcast("project", "delete", id)
	jsonResp(w, map[string]string{"status": "deleted"})
}

// handleProjectTransition validates and persists a stage change.
// Blocking validator errors return 400. Advisory manager-approval
// outcomes return 409 unless the caller's role can bypass or the
// request sets bypass=true with such a role.
func handleProjectTransition(w http.ResponseWriter, r *http.Request, id string) {
	p, err := loadProject(id)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}

	var body struct {
		NewStatus string `json:"new_status"`
	}
	if err := decodeBody(r, &body); err != nil || body.NewStatus == "" {
		jsonErr(w, "new_status required", 400)
		return
	}

	target := workflow.Stage(body.NewStatus)
	snapshot := projectSnapshot(p)
	quotes := loadQuoteSnapshots(id)
	result := workflow.ValidateStatusChange(snapshot, target, quotes)

	if !result.Valid {
		w.WriteHeader(400)
		jsonResp(w, map[string]interface{}{"validation": result})
		return
	}

	user := getCurrentUser(r)
	role := ""
	username := "system"
	if user != nil {
		role = user.Role
		username = user.Username
	}

	bypassed := false
	if result.RequiresManagerApproval {
		if !workflow.CanBypass(role) {
			w.WriteHeader(409)
			jsonResp(w, map[string]interface{}{
				"validation": result,
				"message":    "Transition requires manager approval",
			})
			return
		}
		bypassed = true
	}

	now := time.Now().Format(time.RFC3339)
	_, err = db.Exec(`UPDATE projects SET status=?, stage_entered_at=?, updated_at=? WHERE id=?`,
		string(target), now, now, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	summary := fmt.Sprintf("Moved from %s to %s", workflow.StageLabel(snapshot.Status), workflow.StageLabel(target))
	action := AuditActionTransition
	if bypassed {
		action = AuditActionBypass
		summary += " (manager bypass)"
	}
	logAudit(username, action, "projects", id, summary)
	wsHub.BroadcastStageChange(id, string(snapshot.Status), string(target))

	updated, _ := loadProject(id)
	jsonResp(w, map[string]interface{}{
		"project":    updated,
		"validation": result,
		"bypassed":   bypassed,
	})
}

func handleProjectProgress(w http.ResponseWriter, r *http.Request, id string) {
	p, err := loadProject(id)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	jsonResp(w, workflow.StageProgress(projectSnapshot(p)))
}

func handleProjectNextStages(w http.ResponseWriter, r *http.Request, id string) {
	p, err := loadProject(id)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	snapshot := projectSnapshot(p)
	stages := workflow.NextValidStages(snapshot.Status)
	type stageInfo struct {
		Stage   string `json:"stage"`
		Label   string `json:"label"`
		CanMove bool   `json:"can_move"`
	}
	out := []stageInfo{}
	for _, s := range stages {
		out = append(out, stageInfo{
			Stage:   string(s),
			Label:   workflow.StageLabel(s),
			CanMove: workflow.CanMoveToStage(snapshot, s),
		})
	}
	jsonResp(w, out)
}

// handleProjectAutoAdvance applies the auto-advance recommendation when
// the workflow allows it.
func handleProjectAutoAdvance(w http.ResponseWriter, r *http.Request, id string) {
	p, err := loadProject(id)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}

	snapshot := projectSnapshot(p)
	adv := workflow.CheckAndAutoAdvance(snapshot, loadQuoteSnapshots(id))
	if !adv.ShouldAdvance {
		jsonResp(w, adv)
		return
	}

	now := time.Now().Format(time.RFC3339)
	_, err = db.Exec(`UPDATE projects SET status=?, stage_entered_at=?, updated_at=? WHERE id=?`,
		string(adv.NextStage), now, now, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(getUser(r), AuditActionTransition, "projects", id, "Auto-advanced: "+adv.Reason)
	wsHub.BroadcastStageChange(id, string(snapshot.Status), string(adv.NextStage))
	jsonResp(w, adv)
}

// handleProjectKanban groups open projects by stage in canonical order.
func handleProjectKanban(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query(projectSelect + ` ORDER BY p.updated_at DESC`)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	byStage := make(map[string][]Project)
	for rows.Next() {
		if p, err := scanProject(rows); err == nil {
			byStage[p.Status] = append(byStage[p.Status], p)
		}
	}

	type column struct {
		Stage    string    `json:"stage"`
		Label    string    `json:"label"`
		Projects []Project `json:"projects"`
	}
	columns := []column{}
	for _, s := range workflow.StageOrder {
		projects := byStage[string(s)]
		if projects == nil {
			projects = []Project{}
		}
		columns = append(columns, column{Stage: string(s), Label: workflow.StageLabel(s), Projects: projects})
	}
	jsonResp(w, columns)
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
