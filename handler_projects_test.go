package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"factorypulse/internal/workflow"
)

func parseProject(body []byte) Project {
	var resp struct{ Data Project }
	json.Unmarshal(body, &resp)
	return resp.Data
}

func parseProjectList(body []byte) []Project {
	var resp struct{ Data []Project }
	json.Unmarshal(body, &resp)
	return resp.Data
}

type transitionResponse struct {
	Project    Project         `json:"project"`
	Validation workflow.Result `json:"validation"`
	Bypassed   bool            `json:"bypassed"`
}

func parseTransition(body []byte) transitionResponse {
	var resp struct{ Data transitionResponse }
	json.Unmarshal(body, &resp)
	return resp.Data
}

func createProject(t *testing.T, cookie *http.Cookie, body string) Project {
	t.Helper()
	req := authedRequest("POST", "/api/v1/projects", body, cookie)
	w := httptest.NewRecorder()
	handleCreateProject(w, req)
	if w.Code != 201 {
		t.Fatalf("create project: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return parseProject(w.Body.Bytes())
}

func transition(t *testing.T, cookie *http.Cookie, projectID, newStatus string) *httptest.ResponseRecorder {
	t.Helper()
	req := authedRequest("POST", "/api/v1/projects/"+projectID+"/transition",
		`{"new_status":"`+newStatus+`"}`, cookie)
	w := httptest.NewRecorder()
	handleProjectTransition(w, req, projectID)
	return w
}

func TestProjectCRUD(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	created := createProject(t, cookie, `{"title":"Gearbox housing","description":"Cast + machined","customer_id":"C-2026-0001","priority":"high"}`)
	if created.ID == "" {
		t.Fatal("expected project ID")
	}
	if created.Status != "inquiry_received" {
		t.Errorf("new project should start at inquiry_received, got %s", created.Status)
	}

	// List
	req := authedRequest("GET", "/api/v1/projects", "", cookie)
	w := httptest.NewRecorder()
	handleListProjects(w, req)
	if w.Code != 200 {
		t.Fatalf("list projects: expected 200, got %d", w.Code)
	}
	list := parseProjectList(w.Body.Bytes())
	if len(list) < 3 { // 2 seeded + 1 created
		t.Errorf("expected at least 3 projects, got %d", len(list))
	}

	// Filter by status
	req = authedRequest("GET", "/api/v1/projects?status=inquiry_received", "", cookie)
	w = httptest.NewRecorder()
	handleListProjects(w, req)
	for _, p := range parseProjectList(w.Body.Bytes()) {
		if p.Status != "inquiry_received" {
			t.Errorf("status filter leaked project in %s", p.Status)
		}
	}

	// Get
	req = authedRequest("GET", "/api/v1/projects/"+created.ID, "", cookie)
	w = httptest.NewRecorder()
	handleGetProject(w, req, created.ID)
	if w.Code != 200 {
		t.Fatalf("get project: expected 200, got %d", w.Code)
	}
	fetched := parseProject(w.Body.Bytes())
	if fetched.CustomerName == "" {
		t.Error("expected customer name to be joined in")
	}

	// Update
	fetched.Title = "Gearbox housing rev B"
	body, _ := json.Marshal(fetched)
	req = authedRequest("PUT", "/api/v1/projects/"+created.ID, string(body), cookie)
	w = httptest.NewRecorder()
	handleUpdateProject(w, req, created.ID)
	if w.Code != 200 {
		t.Fatalf("update project: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if parseProject(w.Body.Bytes()).Title != "Gearbox housing rev B" {
		t.Error("title not updated")
	}

	// Status changes must go through the transition endpoint
	fetched.Status = "quoted"
	body, _ = json.Marshal(fetched)
	req = authedRequest("PUT", "/api/v1/projects/"+created.ID, string(body), cookie)
	w = httptest.NewRecorder()
	handleUpdateProject(w, req, created.ID)
	if w.Code != 400 {
		t.Errorf("direct status edit should be rejected, got %d", w.Code)
	}

	// Delete
	req = authedRequest("DELETE", "/api/v1/projects/"+created.ID, "", cookie)
	w = httptest.NewRecorder()
	handleDeleteProject(w, req, created.ID)
	if w.Code != 200 {
		t.Fatalf("delete project: expected 200, got %d", w.Code)
	}
	req = authedRequest("GET", "/api/v1/projects/"+created.ID, "", cookie)
	w = httptest.NewRecorder()
	handleGetProject(w, req, created.ID)
	if w.Code != 404 {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestProjectCreateValidation(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	req := authedRequest("POST", "/api/v1/projects", `{"description":"no title"}`, cookie)
	w := httptest.NewRecorder()
	handleCreateProject(w, req)
	if w.Code != 400 {
		t.Errorf("missing title should be rejected, got %d", w.Code)
	}

	req = authedRequest("POST", "/api/v1/projects", `{"title":"x","customer_id":"C-9999-9999"}`, cookie)
	w = httptest.NewRecorder()
	handleCreateProject(w, req)
	if w.Code != 400 {
		t.Errorf("unknown customer should be rejected, got %d", w.Code)
	}

	req = authedRequest("POST", "/api/v1/projects", `{"title":"x","priority":"urgent"}`, cookie)
	w = httptest.NewRecorder()
	handleCreateProject(w, req)
	if w.Code != 400 {
		t.Errorf("invalid priority should be rejected, got %d", w.Code)
	}
}

func TestTransitionMissingCustomerBlocks(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	p := createProject(t, cookie, `{"title":"Walk-in inquiry"}`)
	w := transition(t, cookie, p.ID, "technical_review")
	if w.Code != 400 {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseTransition(w.Body.Bytes())
	if resp.Validation.Valid {
		t.Error("validation should be invalid")
	}
	if len(resp.Validation.Errors) == 0 {
		t.Error("expected a customer-required error")
	}

	// Project stays put
	req := authedRequest("GET", "/api/v1/projects/"+p.ID, "", cookie)
	rec := httptest.NewRecorder()
	handleGetProject(rec, req, p.ID)
	if parseProject(rec.Body.Bytes()).Status != "inquiry_received" {
		t.Error("failed transition must not change status")
	}
}

func TestTransitionBackwardBlocked(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	// Seeded P-2026-0002 sits at supplier_rfq_sent.
	w := transition(t, cookie, "P-2026-0002", "inquiry_received")
	if w.Code != 400 {
		t.Fatalf("expected 400 for backward move, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseTransition(w.Body.Bytes())
	if len(resp.Validation.Errors) == 0 || !strings.Contains(resp.Validation.Errors[0], "backward") {
		t.Errorf("expected backward-move error, got %v", resp.Validation.Errors)
	}
}

func TestTransitionManagerApprovalPath(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	admin := loginAdmin(t)
	engineer := loginAs(t, "engineer")
	manager := loginAs(t, "manager")

	p := createProject(t, admin, `{"title":"Bracket","description":"Sheet metal bracket","customer_id":"C-2026-0001"}`)
	if w := transition(t, admin, p.ID, "technical_review"); w.Code != 200 {
		t.Fatalf("move to technical_review: %d %s", w.Code, w.Body.String())
	}

	// No reviewers assigned: engineering role cannot bypass.
	w := transition(t, engineer, p.ID, "supplier_rfq_sent")
	if w.Code != 409 {
		t.Fatalf("expected 409 without bypass role, got %d: %s", w.Code, w.Body.String())
	}
	resp := parseTransition(w.Body.Bytes())
	if !resp.Validation.RequiresManagerApproval {
		t.Error("expected requires_manager_approval")
	}

	// Management role bypasses the advisory gate.
	w = transition(t, manager, p.ID, "supplier_rfq_sent")
	if w.Code != 200 {
		t.Fatalf("expected 200 with management role, got %d: %s", w.Code, w.Body.String())
	}
	resp = parseTransition(w.Body.Bytes())
	if !resp.Bypassed {
		t.Error("expected bypassed=true")
	}
	if resp.Project.Status != "supplier_rfq_sent" {
		t.Errorf("status = %s, want supplier_rfq_sent", resp.Project.Status)
	}
}

func TestTransitionUnknownStage(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	p := createProject(t, cookie, `{"title":"x","customer_id":"C-2026-0001"}`)
	w := transition(t, cookie, p.ID, "warp_drive")
	if w.Code != 400 {
		t.Errorf("unknown stage should be rejected, got %d", w.Code)
	}
}

func TestProjectProgressAndNextStages(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	req := authedRequest("GET", "/api/v1/projects/P-2026-0002/progress", "", cookie)
	w := httptest.NewRecorder()
	handleProjectProgress(w, req, "P-2026-0002")
	if w.Code != 200 {
		t.Fatalf("progress: expected 200, got %d", w.Code)
	}
	var resp struct{ Data workflow.Progress }
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.CurrentStage != workflow.StageSupplierRFQSent {
		t.Errorf("current stage = %s", resp.Data.CurrentStage)
	}
	if resp.Data.NextStage != workflow.StageQuoted {
		t.Errorf("next stage = %s", resp.Data.NextStage)
	}
	if len(resp.Data.ExitCriteria) == 0 {
		t.Error("expected exit criteria")
	}

	req = authedRequest("GET", "/api/v1/projects/P-2026-0002/next-stages", "", cookie)
	w = httptest.NewRecorder()
	handleProjectNextStages(w, req, "P-2026-0002")
	var next struct {
		Data []struct {
			Stage   string `json:"stage"`
			CanMove bool   `json:"can_move"`
		}
	}
	json.Unmarshal(w.Body.Bytes(), &next)
	if len(next.Data) != 5 { // quoted..shipped_closed
		t.Errorf("expected 5 forward stages, got %d", len(next.Data))
	}
	if next.Data[0].Stage != "quoted" {
		t.Errorf("first forward stage = %s", next.Data[0].Stage)
	}
}

func TestProjectAutoAdvance(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	p := createProject(t, cookie, `{"title":"Complete inquiry","description":"All set","customer_id":"C-2026-0001"}`)

	req := authedRequest("POST", "/api/v1/projects/"+p.ID+"/auto-advance", "", cookie)
	w := httptest.NewRecorder()
	handleProjectAutoAdvance(w, req, p.ID)
	if w.Code != 200 {
		t.Fatalf("auto-advance: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct{ Data workflow.AutoAdvance }
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Data.ShouldAdvance {
		t.Fatalf("expected advance, reason %q", resp.Data.Reason)
	}

	req = authedRequest("GET", "/api/v1/projects/"+p.ID, "", cookie)
	rec := httptest.NewRecorder()
	handleGetProject(rec, req, p.ID)
	if parseProject(rec.Body.Bytes()).Status != "technical_review" {
		t.Error("auto-advance should persist the next stage")
	}

	// Incomplete project does not move.
	p2 := createProject(t, cookie, `{"title":"No customer yet"}`)
	req = authedRequest("POST", "/api/v1/projects/"+p2.ID+"/auto-advance", "", cookie)
	w = httptest.NewRecorder()
	handleProjectAutoAdvance(w, req, p2.ID)
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.ShouldAdvance {
		t.Error("incomplete project must not auto-advance")
	}
	if resp.Data.Reason != "Exit criteria not met" {
		t.Errorf("reason = %q", resp.Data.Reason)
	}
}

func TestProjectKanban(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	req := authedRequest("GET", "/api/v1/projects/kanban", "", cookie)
	w := httptest.NewRecorder()
	handleProjectKanban(w, req)
	if w.Code != 200 {
		t.Fatalf("kanban: expected 200, got %d", w.Code)
	}
	var resp struct {
		Data []struct {
			Stage    string    `json:"stage"`
			Projects []Project `json:"projects"`
		}
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Data) != 8 {
		t.Fatalf("expected 8 kanban columns, got %d", len(resp.Data))
	}
	if resp.Data[0].Stage != "inquiry_received" || resp.Data[7].Stage != "shipped_closed" {
		t.Error("kanban columns out of canonical order")
	}
	found := false
	for _, col := range resp.Data {
		if col.Stage == "supplier_rfq_sent" && len(col.Projects) > 0 {
			found = true
		}
	}
	if !found {
		t.Error("seeded RFQ project missing from its column")
	}
}
