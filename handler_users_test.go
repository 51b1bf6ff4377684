package main

import (
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
)

func TestUserManagementRequiresAdmin(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	engineer := loginAs(t, "engineer")

	req := authedRequest("GET", "/api/v1/users", "", engineer)
	w := httptest.NewRecorder()
	handleListUsers(w, req)
	if w.Code != 403 {
		t.Errorf("non-admin list should 403, got %d", w.Code)
	}

	req = authedRequest("POST", "/api/v1/users", `{"username":"eve","password":"longenough","role":"sales"}`, engineer)
	w = httptest.NewRecorder()
	handleCreateUser(w, req)
	if w.Code != 403 {
		t.Errorf("non-admin create should 403, got %d", w.Code)
	}
}

func TestUserCreateAndReset(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	admin := loginAdmin(t)

	req := authedRequest("POST", "/api/v1/users",
		`{"username":"sales1","password":"changeme","display_name":"Sales One","role":"sales"}`, admin)
	w := httptest.NewRecorder()
	handleCreateUser(w, req)
	if w.Code != 201 {
		t.Fatalf("create user: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct{ Data User }
	json.Unmarshal(w.Body.Bytes(), &resp)
	created := resp.Data
	if created.Role != "sales" || !created.Active {
		t.Errorf("unexpected user %+v", created)
	}

	// Duplicate username.
	req = authedRequest("POST", "/api/v1/users",
		`{"username":"sales1","password":"changeme","role":"sales"}`, admin)
	w = httptest.NewRecorder()
	handleCreateUser(w, req)
	if w.Code != 409 {
		t.Errorf("duplicate username should 409, got %d", w.Code)
	}

	// Invalid role.
	req = authedRequest("POST", "/api/v1/users",
		`{"username":"sales2","password":"changeme","role":"superuser"}`, admin)
	w = httptest.NewRecorder()
	handleCreateUser(w, req)
	if w.Code != 400 {
		t.Errorf("invalid role should 400, got %d", w.Code)
	}

	// New user can log in.
	cookie := loginAs(t, "sales1")
	if cookie == nil {
		t.Fatal("new user cannot log in")
	}

	// Short password on reset.
	id := strconv.Itoa(created.ID)
	req = authedRequest("PUT", "/api/v1/users/"+id+"/password", `{"password":"short"}`, admin)
	w = httptest.NewRecorder()
	handleResetPassword(w, req, id)
	if w.Code != 400 {
		t.Errorf("short password should 400, got %d", w.Code)
	}

	// Valid reset invalidates the session.
	req = authedRequest("PUT", "/api/v1/users/"+id+"/password", `{"password":"brandnewpass"}`, admin)
	w = httptest.NewRecorder()
	handleResetPassword(w, req, id)
	if w.Code != 200 {
		t.Fatalf("reset: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	req = authedRequest("GET", "/auth/me", "", cookie)
	w = httptest.NewRecorder()
	handleMe(w, req)
	if w.Code != 401 {
		t.Errorf("old session should be invalid after reset, got %d", w.Code)
	}
}

func TestUserDeactivation(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	admin := loginAdmin(t)

	req := authedRequest("POST", "/api/v1/users",
		`{"username":"temp","password":"changeme","role":"readonly"}`, admin)
	w := httptest.NewRecorder()
	handleCreateUser(w, req)
	if w.Code != 201 {
		t.Fatalf("create: %d", w.Code)
	}
	var resp struct{ Data User }
	json.Unmarshal(w.Body.Bytes(), &resp)
	id := strconv.Itoa(resp.Data.ID)

	cookie := loginAs(t, "temp")

	req = authedRequest("PUT", "/api/v1/users/"+id, `{"active":false}`, admin)
	w = httptest.NewRecorder()
	handleUpdateUser(w, req, id)
	if w.Code != 200 {
		t.Fatalf("deactivate: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Deactivated users lose access even with a live session.
	req = authedRequest("GET", "/auth/me", "", cookie)
	w = httptest.NewRecorder()
	handleMe(w, req)
	if w.Code != 401 {
		t.Errorf("deactivated user should be rejected, got %d", w.Code)
	}
}
