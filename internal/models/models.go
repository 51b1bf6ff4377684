package models

// APIResponse is the standard JSON envelope for all API responses.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total int `json:"total,omitempty"`
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

type Customer struct {
	ID          string `json:"id"`
	Company     string `json:"company"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Country     string `json:"country"`
	Notes       string `json:"notes"`
	CreatedAt   string `json:"created_at"`
}

type Supplier struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ContactName  string  `json:"contact_name"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	Country      string  `json:"country"`
	LeadTimeDays int     `json:"lead_time_days"`
	Rating       float64 `json:"rating"`
	Status       string  `json:"status"`
	Notes        string  `json:"notes"`
	CreatedAt    string  `json:"created_at"`
}

type Project struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	Status              string          `json:"status"`
	Priority            string          `json:"priority"`
	CustomerID          string          `json:"customer_id"`
	CustomerName        string          `json:"customer_name,omitempty"`
	EngineeringReviewer string          `json:"engineering_reviewer_id"`
	QAReviewer          string          `json:"qa_reviewer_id"`
	ProductionReviewer  string          `json:"production_reviewer_id"`
	EstimatedValue      *float64        `json:"estimated_value"`
	DueDate             string          `json:"due_date"`
	StageEnteredAt      string          `json:"stage_entered_at"`
	Notes               string          `json:"notes"`
	CreatedBy           string          `json:"created_by"`
	CreatedAt           string          `json:"created_at"`
	UpdatedAt           string          `json:"updated_at"`
	Quotes              []SupplierQuote `json:"quotes,omitempty"`
	Documents           []Document      `json:"documents,omitempty"`
}

type SupplierQuote struct {
	ID           string   `json:"id"`
	ProjectID    string   `json:"project_id"`
	SupplierID   string   `json:"supplier_id"`
	SupplierName string   `json:"supplier_name,omitempty"`
	Status       string   `json:"status"`
	UnitPrice    *float64 `json:"unit_price"`
	LeadTimeDays int      `json:"lead_time_days"`
	Currency     string   `json:"currency"`
	QuotedAt     string   `json:"quoted_at"`
	Notes        string   `json:"notes"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

type Document struct {
	ID           int    `json:"id"`
	ProjectID    string `json:"project_id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Category     string `json:"category"`
	SizeBytes    int64  `json:"size_bytes"`
	MimeType     string `json:"mime_type"`
	UploadedBy   string `json:"uploaded_by"`
	CreatedAt    string `json:"created_at"`
}

type Notification struct {
	ID        int    `json:"id"`
	Type      string `json:"type"`
	ProjectID string `json:"project_id"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Active      bool   `json:"active"`
	LastLogin   string `json:"last_login,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// StageCount is one bucket of the dashboard stage distribution.
type StageCount struct {
	Stage string `json:"stage"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type DashboardData struct {
	ActiveProjects    int          `json:"active_projects"`
	OverdueProjects   int          `json:"overdue_projects"`
	PipelineValue     float64      `json:"pipeline_value"`
	QuoteResponseRate float64      `json:"quote_response_rate"`
	StageCounts       []StageCount `json:"stage_counts"`
	RecentProjects    []Project    `json:"recent_projects"`
}
