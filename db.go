package main

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"factorypulse/internal/auth"

	_ "modernc.org/sqlite"
)

var db *sql.DB

func initDB(path string) error {
	// Close previous connection if any (prevents goroutine leaks in tests)
	if db != nil {
		db.Close()
	}
	var err error
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err = sql.Open("sqlite", path+sep+"_journal_mode=WAL&_busy_timeout=10000&_foreign_keys=1")
	if err != nil {
		return err
	}

	// SQLite handles 1 writer + multiple readers with WAL mode
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	// Some drivers don't parse connection string params correctly
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000"); err != nil {
		return fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	return runMigrations()
}

func runMigrations() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			display_name TEXT DEFAULT '',
			role TEXT DEFAULT 'readonly' CHECK(role IN ('admin','management','procurement_owner','engineering','qa','production','sales','readonly')),
			active INTEGER DEFAULT 1,
			last_login TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY, company TEXT NOT NULL,
			contact_name TEXT DEFAULT '', email TEXT DEFAULT '', phone TEXT DEFAULT '',
			address TEXT DEFAULT '', country TEXT DEFAULT '', notes TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS suppliers (
			id TEXT PRIMARY KEY, name TEXT NOT NULL,
			contact_name TEXT DEFAULT '', email TEXT DEFAULT '', phone TEXT DEFAULT '',
			country TEXT DEFAULT '',
			lead_time_days INTEGER DEFAULT 0 CHECK(lead_time_days >= 0),
			rating REAL DEFAULT 0 CHECK(rating >= 0 AND rating <= 5),
			status TEXT DEFAULT 'active' CHECK(status IN ('active','preferred','inactive','blocked')),
			notes TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY, title TEXT NOT NULL, description TEXT DEFAULT '',
			status TEXT NOT NULL DEFAULT 'inquiry_received' CHECK(status IN ('inquiry_received','technical_review','supplier_rfq_sent','quoted','order_confirmed','procurement_planning','in_production','shipped_closed')),
			priority TEXT DEFAULT 'normal' CHECK(priority IN ('low','normal','high','critical')),
			customer_id TEXT DEFAULT '',
			engineering_reviewer_id TEXT DEFAULT '',
			qa_reviewer_id TEXT DEFAULT '',
			production_reviewer_id TEXT DEFAULT '',
			estimated_value REAL,
			due_date DATE,
			stage_entered_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			notes TEXT DEFAULT '', created_by TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS supplier_quotes (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			supplier_id TEXT NOT NULL,
			status TEXT DEFAULT 'pending' CHECK(status IN ('pending','received','declined','expired')),
			unit_price REAL CHECK(unit_price >= 0),
			lead_time_days INTEGER DEFAULT 0 CHECK(lead_time_days >= 0),
			currency TEXT DEFAULT 'USD',
			quoted_at DATETIME,
			notes TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE,
			FOREIGN KEY (supplier_id) REFERENCES suppliers(id) ON DELETE RESTRICT
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			original_name TEXT NOT NULL,
			category TEXT DEFAULT 'other' CHECK(category IN ('drawing','specification','quote','po','report','other')),
			size_bytes INTEGER DEFAULT 0,
			mime_type TEXT DEFAULT '',
			uploaded_by TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL CHECK(type IN ('overdue','auto_advance_ready','quotes_stalled')),
			project_id TEXT DEFAULT '',
			message TEXT NOT NULL,
			read INTEGER DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT DEFAULT '',
			action TEXT NOT NULL,
			module TEXT NOT NULL,
			record_id TEXT DEFAULT '',
			summary TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, t := range tables {
		if _, err := db.Exec(t); err != nil {
			return fmt.Errorf("migration: %w", err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status)`,
		`CREATE INDEX IF NOT EXISTS idx_projects_customer ON projects(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_project ON supplier_quotes(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_project ON documents(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_module ON audit_log(module, record_id)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("index migration: %w", err)
		}
	}
	return nil
}

func seedDB() {
	// Always ensure admin user exists
	seedUser := func(username, displayName, role string) {
		var count int
		db.QueryRow("SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&count)
		if count > 0 {
			return
		}
		hash, err := auth.HashPassword("changeme")
		if err != nil {
			log.Printf("seed: hash password for %s: %v", username, err)
			return
		}
		db.Exec("INSERT INTO users (username, password_hash, display_name, role) VALUES (?, ?, ?, ?)",
			username, hash, displayName, role)
	}
	seedUser("admin", "Administrator", "admin")
	seedUser("manager", "Plant Manager", "management")
	seedUser("procurement", "Procurement Owner", "procurement_owner")
	seedUser("engineer", "Engineer", "engineering")

	// Check if already seeded
	var count int
	db.QueryRow("SELECT COUNT(*) FROM customers").Scan(&count)
	if count > 0 {
		return
	}

	now := time.Now().Format(time.RFC3339)

	customers := []struct{ id, company, contact, email, country string }{
		{"C-2026-0001", "Northstar Robotics", "Dana Velez", "dana@northstar-robotics.example", "US"},
		{"C-2026-0002", "Helix Medical", "Priya Raman", "praman@helixmed.example", "DE"},
	}
	for _, c := range customers {
		db.Exec(`INSERT INTO customers (id, company, contact_name, email, country) VALUES (?,?,?,?,?)`,
			c.id, c.company, c.contact, c.email, c.country)
	}

	suppliers := []struct {
		id, name, country, status string
		leadDays                  int
	}{
		{"S-2026-0001", "Apex Machining Co", "US", "preferred", 14},
		{"S-2026-0002", "Shenzhen Precision Parts", "CN", "active", 28},
		{"S-2026-0003", "Baltic Metalworks", "LT", "active", 21},
	}
	for _, s := range suppliers {
		db.Exec(`INSERT INTO suppliers (id, name, country, status, lead_time_days) VALUES (?,?,?,?,?)`,
			s.id, s.name, s.country, s.status, s.leadDays)
	}

	db.Exec(`INSERT INTO projects (id, title, description, status, customer_id, created_by, created_at, updated_at)
		VALUES ('P-2026-0001', 'Sensor housing, anodized', 'CNC machined 6061 housing, 500 pcs', 'inquiry_received', 'C-2026-0001', 'admin', ?, ?)`, now, now)
	db.Exec(`INSERT INTO projects (id, title, description, status, customer_id,
		engineering_reviewer_id, qa_reviewer_id, production_reviewer_id, estimated_value, due_date, created_by, created_at, updated_at)
		VALUES ('P-2026-0002', 'Surgical tray rev B', 'Stamped stainless tray with laser etch', 'supplier_rfq_sent', 'C-2026-0002',
		'engineer', 'engineer', 'engineer', 18500, '2026-11-15', 'admin', ?, ?)`, now, now)

	db.Exec(`INSERT INTO supplier_quotes (id, project_id, supplier_id, status, created_at, updated_at)
		VALUES ('SQ-2026-0001', 'P-2026-0002', 'S-2026-0001', 'pending', ?, ?)`, now, now)
	db.Exec(`INSERT INTO supplier_quotes (id, project_id, supplier_id, status, unit_price, lead_time_days, quoted_at, created_at, updated_at)
		VALUES ('SQ-2026-0002', 'P-2026-0002', 'S-2026-0002', 'received', 34.80, 28, ?, ?, ?)`, now, now, now)
}

// nextID generates sequential ids like P-2026-0042.
func nextID(prefix string, table string, digits int) string {
	year := time.Now().Format("2006")
	pattern := prefix + "-" + year + "-%"
	var maxID sql.NullString
	db.QueryRow("SELECT id FROM "+table+" WHERE id LIKE ? ORDER BY id DESC LIMIT 1", pattern).Scan(&maxID)

	next := 1
	if maxID.Valid {
		parts := strings.Split(maxID.String, "-")
		if len(parts) >= 3 {
			if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
				next = n + 1
			}
		}
	}
	return fmt.Sprintf("%s-%s-%0*d", prefix, year, digits, next)
}

func nf(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
