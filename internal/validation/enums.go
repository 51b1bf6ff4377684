package validation

// Common enum values - these MUST match DB CHECK constraints in db.go.
var (
	ValidProjectStages = []string{
		"inquiry_received", "technical_review", "supplier_rfq_sent", "quoted",
		"order_confirmed", "procurement_planning", "in_production", "shipped_closed",
	}
	ValidProjectPriorities = []string{"low", "normal", "high", "critical"}
	ValidQuoteStatuses     = []string{"pending", "received", "declined", "expired"}
	ValidSupplierStatuses  = []string{"active", "preferred", "inactive", "blocked"}
	ValidDocCategories     = []string{"drawing", "specification", "quote", "po", "report", "other"}
	ValidUserRoles         = []string{
		"admin", "management", "procurement_owner", "engineering",
		"qa", "production", "sales", "readonly",
	}
	ValidNotificationTypes = []string{"overdue", "auto_advance_ready", "quotes_stalled"}
)
