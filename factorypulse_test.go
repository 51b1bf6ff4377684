package main

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"factorypulse/internal/auth"
)

func setupTestDB(t *testing.T) func() {
	t.Helper()
	dbFile := fmt.Sprintf("test_%s.db", strings.ReplaceAll(t.Name(), "/", "_"))
	os.Remove(dbFile)
	if err := initDB(dbFile); err != nil {
		t.Fatal(err)
	}
	seedDB()
	os.MkdirAll(appConfig.UploadDir, 0755)
	return func() {
		os.Remove(dbFile)
		os.Remove(dbFile + "-wal")
		os.Remove(dbFile + "-shm")
	}
}

// loginAs logs in as a seeded user and returns the session cookie.
func loginAs(t *testing.T, username string) *http.Cookie {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":"changeme"}`, username)
	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handleLogin(w, req)
	if w.Code != 200 {
		t.Fatalf("login %s failed: %d %s", username, w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func loginAdmin(t *testing.T) *http.Cookie {
	return loginAs(t, "admin")
}

func authedRequest(method, path string, body string, cookie *http.Cookie) *http.Request {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

// --- Auth Tests ---

func TestLoginSuccess(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	cookie := loginAdmin(t)
	if cookie.Value == "" {
		t.Error("empty session token")
	}
}

func TestLoginFailure(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	body := `{"username":"admin","password":"wrong"}`
	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handleLogin(w, req)
	if w.Code != 401 {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestLogout(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	cookie := loginAdmin(t)
	req := httptest.NewRequest("POST", "/auth/logout", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	handleLogout(w, req)
	if w.Code != 200 {
		t.Errorf("expected 200, got %d", w.Code)
	}

	// Session should be invalid now
	req2 := httptest.NewRequest("GET", "/auth/me", nil)
	req2.AddCookie(cookie)
	w2 := httptest.NewRecorder()
	handleMe(w2, req2)
	if w2.Code != 401 {
		t.Errorf("expected 401 after logout, got %d", w2.Code)
	}
}

func TestMe(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	cookie := loginAs(t, "manager")
	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	handleMe(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"role":"management"`) {
		t.Errorf("expected management role in response: %s", w.Body.String())
	}
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	handler := requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	req := httptest.NewRequest("GET", "/api/v1/projects", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != 401 {
		t.Errorf("expected 401 for anonymous API request, got %d", w.Code)
	}
}
