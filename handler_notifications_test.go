package main

import (
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
)

func listNotifications(t *testing.T, unreadOnly bool) []Notification {
	t.Helper()
	path := "/api/v1/notifications"
	if unreadOnly {
		path += "?unread=true"
	}
	cookie := loginAdmin(t)
	req := authedRequest("GET", path, "", cookie)
	w := httptest.NewRecorder()
	handleListNotifications(w, req)
	if w.Code != 200 {
		t.Fatalf("list notifications: expected 200, got %d", w.Code)
	}
	var resp struct{ Data []Notification }
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp.Data
}

func countByType(items []Notification, ntype, projectID string) int {
	n := 0
	for _, item := range items {
		if item.Type == ntype && item.ProjectID == projectID {
			n++
		}
	}
	return n
}

func TestGenerateNotifications(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	// A project clearly past its due date.
	p := createProject(t, cookie,
		`{"title":"Late order","description":"castings","customer_id":"C-2026-0001","due_date":"2020-01-01"}`)

	generateNotifications()
	items := listNotifications(t, false)

	if countByType(items, "overdue", p.ID) != 1 {
		t.Error("expected an overdue notification")
	}
	// The overdue project also satisfies its inquiry exit criteria.
	if countByType(items, "auto_advance_ready", p.ID) != 1 {
		t.Error("expected an auto_advance_ready notification")
	}

	// Unread notifications of the same type are not duplicated.
	generateNotifications()
	items = listNotifications(t, false)
	if countByType(items, "overdue", p.ID) != 1 {
		t.Error("overdue notification duplicated")
	}
}

func TestMarkNotificationRead(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	cookie := loginAdmin(t)

	createProject(t, cookie,
		`{"title":"Late order","description":"castings","customer_id":"C-2026-0001","due_date":"2020-01-01"}`)
	generateNotifications()

	unread := listNotifications(t, true)
	if len(unread) == 0 {
		t.Fatal("expected unread notifications")
	}
	target := unread[0]

	targetID := strconv.Itoa(target.ID)
	req := authedRequest("POST", "/api/v1/notifications/"+targetID+"/read", "", cookie)
	w := httptest.NewRecorder()
	handleMarkNotificationRead(w, req, targetID)
	if w.Code != 200 {
		t.Fatalf("mark read: expected 200, got %d", w.Code)
	}

	for _, n := range listNotifications(t, true) {
		if n.ID == target.ID {
			t.Error("notification still unread")
		}
	}

	// Once read, the dedup window reopens.
	generateNotifications()
	if countByType(listNotifications(t, true), target.Type, target.ProjectID) != 1 {
		t.Errorf("expected a fresh %s notification after the old one was read", target.Type)
	}

	req = authedRequest("POST", "/api/v1/notifications/99999/read", "", cookie)
	w = httptest.NewRecorder()
	handleMarkNotificationRead(w, req, "99999")
	if w.Code != 404 {
		t.Errorf("unknown notification should 404, got %d", w.Code)
	}
}
