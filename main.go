package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

var appConfig = defaultConfig()

func main() {
	port := flag.Int("port", 9000, "HTTP port")
	dbPath := flag.String("db", "factorypulse.db", "SQLite database path")
	configPath := flag.String("config", "factorypulse.yml", "YAML config path")
	flag.Parse()

	var err error
	appConfig, err = loadConfig(*configPath)
	if err != nil {
		log.Fatal("Config load failed:", err)
	}

	if err := initDB(*dbPath); err != nil {
		log.Fatal("DB init failed:", err)
	}
	seedDB()
	os.MkdirAll(appConfig.UploadDir, 0755)

	// Background notification generator (run once after short delay, then every 5 min)
	go func() {
		time.Sleep(5 * time.Second)
		generateNotifications()
		for {
			time.Sleep(5 * time.Minute)
			generateNotifications()
		}
	}()

	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "static/index.html")
	})

	// Uploaded document serving
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		filename := strings.TrimPrefix(r.URL.Path, "/files/")
		if filename == "" {
			http.NotFound(w, r)
			return
		}
		handleServeFile(w, r, filename)
	})

	// Auth routes
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			handleLogin(w, r)
		} else {
			http.Error(w, "Method not allowed", 405)
		}
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			handleLogout(w, r)
		} else {
			http.Error(w, "Method not allowed", 405)
		}
	})
	mux.HandleFunc("/auth/me", handleMe)

	// Realtime change feed
	mux.HandleFunc("/ws", handleWebSocket)

	// API routes - simple path switch router
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/")
		path = strings.TrimSuffix(path, "/")
		parts := strings.Split(path, "/")

		switch {
		// Dashboard
		case path == "dashboard" && r.Method == "GET":
			handleDashboard(w, r)

		// Audit
		case path == "audit" && r.Method == "GET":
			handleAuditLog(w, r)

		// Customers
		case parts[0] == "customers" && len(parts) == 1 && r.Method == "GET":
			handleListCustomers(w, r)
		case parts[0] == "customers" && len(parts) == 1 && r.Method == "POST":
			handleCreateCustomer(w, r)
		case parts[0] == "customers" && len(parts) == 2 && r.Method == "GET":
			handleGetCustomer(w, r, parts[1])
		case parts[0] == "customers" && len(parts) == 2 && r.Method == "PUT":
			handleUpdateCustomer(w, r, parts[1])
		case parts[0] == "customers" && len(parts) == 2 && r.Method == "DELETE":
			handleDeleteCustomer(w, r, parts[1])

		// Suppliers
		case parts[0] == "suppliers" && len(parts) == 1 && r.Method == "GET":
			handleListSuppliers(w, r)
		case parts[0] == "suppliers" && len(parts) == 1 && r.Method == "POST":
			handleCreateSupplier(w, r)
		case parts[0] == "suppliers" && len(parts) == 2 && r.Method == "GET":
			handleGetSupplier(w, r, parts[1])
		case parts[0] == "suppliers" && len(parts) == 2 && r.Method == "PUT":
			handleUpdateSupplier(w, r, parts[1])
		case parts[0] == "suppliers" && len(parts) == 2 && r.Method == "DELETE":
			handleDeleteSupplier(w, r, parts[1])

		// Projects
		case parts[0] == "projects" && len(parts) == 2 && parts[1] == "kanban" && r.Method == "GET":
			handleProjectKanban(w, r)
		case parts[0] == "projects" && len(parts) == 1 && r.Method == "GET":
			handleListProjects(w, r)
		case parts[0] == "projects" && len(parts) == 1 && r.Method == "POST":
			handleCreateProject(w, r)
		case parts[0] == "projects" && len(parts) == 2 && r.Method == "GET":
			handleGetProject(w, r, parts[1])
		case parts[0] == "projects" && len(parts) == 2 && r.Method == "PUT":
			handleUpdateProject(w, r, parts[1])
		case parts[0] == "projects" && len(parts) == 2 && r.Method == "DELETE":
			handleDeleteProject(w, r, parts[1])
		case parts[0] == "projects" && len(parts) == 3 && parts[2] == "transition" && r.Method == "POST":
			handleProjectTransition(w, r, parts[1])
		case parts[0] == "projects" && len(parts) == 3 && parts[2] == "progress" && r.Method == "GET":
			handleProjectProgress(w, r, parts[1])
		case parts[0] == "projects" && len(parts) == 3 && parts[2] == "next-stages" && r.Method == "GET":
			handleProjectNextStages(w, r, parts[1])
		case parts[0] == "projects" && len(parts) == 3 && parts[2] == "auto-advance" && r.Method == "POST":
			handleProjectAutoAdvance(w, r, parts[1])
		case parts[0] == "projects" && len(parts) == 3 && parts[2] == "quotes" && r.Method == "GET":
			handleListProjectQuotes(w, r, parts[1])
		case parts[0] == "projects" && len(parts) == 3 && parts[2] == "quotes" && r.Method == "POST":
			handleCreateProjectQuote(w, r, parts[1])
		case parts[0] == "projects" && len(parts) == 3 && parts[2] == "documents" && r.Method == "GET":
			handleListProjectDocuments(w, r, parts[1])

		// Supplier quotes
		case parts[0] == "quotes" && len(parts) == 2 && r.Method == "GET":
			handleGetQuote(w, r, parts[1])
		case parts[0] == "quotes" && len(parts) == 2 && r.Method == "PUT":
			handleUpdateQuote(w, r, parts[1])
		case parts[0] == "quotes" && len(parts) == 2 && r.Method == "DELETE":
			handleDeleteQuote(w, r, parts[1])
		case parts[0] == "quotes" && len(parts) == 3 && parts[2] == "receive" && r.Method == "POST":
			handleReceiveQuote(w, r, parts[1])

		// Documents
		case parts[0] == "documents" && len(parts) == 1 && r.Method == "POST":
			handleUploadDocument(w, r)
		case parts[0] == "documents" && len(parts) == 2 && r.Method == "DELETE":
			handleDeleteDocument(w, r, parts[1])

		// Users
		case parts[0] == "users" && len(parts) == 1 && r.Method == "GET":
			handleListUsers(w, r)
		case parts[0] == "users" && len(parts) == 1 && r.Method == "POST":
			handleCreateUser(w, r)
		case parts[0] == "users" && len(parts) == 2 && r.Method == "PUT":
			handleUpdateUser(w, r, parts[1])
		case parts[0] == "users" && len(parts) == 3 && parts[2] == "password" && r.Method == "PUT":
			handleResetPassword(w, r, parts[1])

		// Notifications
		case parts[0] == "notifications" && len(parts) == 1 && r.Method == "GET":
			handleListNotifications(w, r)
		case parts[0] == "notifications" && len(parts) == 3 && parts[2] == "read" && r.Method == "POST":
			handleMarkNotificationRead(w, r, parts[1])

		// Export
		case parts[0] == "export" && len(parts) == 2 && parts[1] == "projects" && r.Method == "GET":
			handleExportProjects(w, r)
		case parts[0] == "export" && len(parts) == 2 && parts[1] == "quotes" && r.Method == "GET":
			handleExportQuotes(w, r)

		default:
			json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
		}
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Factory Pulse server starting on http://localhost%s", addr)
	log.Fatal(http.ListenAndServe(addr, logging(requireAuth(mux))))
}

func jsonResp(w http.ResponseWriter, data interface{}) {
	json.NewEncoder(w).Encode(APIResponse{Data: data})
}

func jsonRespMeta(w http.ResponseWriter, data interface{}, total, page, limit int) {
	json.NewEncoder(w).Encode(APIResponse{Data: data, Meta: &Meta{Total: total, Page: page, Limit: limit}})
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func decodeBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
