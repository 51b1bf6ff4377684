package main

import (
	"net/http"
	"time"

	"factorypulse/internal/workflow"
)

// handleDashboard summarizes the project pipeline.
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	var dash DashboardData

	db.QueryRow(`SELECT COUNT(*) FROM projects WHERE status != 'shipped_closed'`).Scan(&dash.ActiveProjects)

	today := time.Now().Format("2006-01-02")
	db.QueryRow(`SELECT COUNT(*) FROM projects WHERE status != 'shipped_closed' AND due_date IS NOT NULL AND due_date < ?`, today).
		Scan(&dash.OverdueProjects)

	db.QueryRow(`SELECT COALESCE(SUM(estimated_value),0) FROM projects WHERE status != 'shipped_closed'`).
		Scan(&dash.PipelineValue)

	var totalQuotes, receivedQuotes int
	db.QueryRow(`SELECT COUNT(*) FROM supplier_quotes`).Scan(&totalQuotes)
	db.QueryRow(`SELECT COUNT(*) FROM supplier_quotes WHERE status='received'`).Scan(&receivedQuotes)
	if totalQuotes > 0 {
		dash.QuoteResponseRate = float64(receivedQuotes) / float64(totalQuotes)
	}

	// Stage distribution in canonical order, including empty stages.
	counts := make(map[string]int)
	rows, err := db.Query(`SELECT status, COUNT(*) FROM projects GROUP BY status`)
	if err == nil {
		for rows.Next() {
			var stage string
			var n int
			rows.Scan(&stage, &n)
			counts[stage] = n
		}
		rows.Close()
	}
	dash.StageCounts = []StageCount{}
	for _, s := range workflow.StageOrder {
		dash.StageCounts = append(dash.StageCounts, StageCount{
			Stage: string(s),
			Label: workflow.StageLabel(s),
			Count: counts[string(s)],
		})
	}

	dash.RecentProjects = []Project{}
	pRows, err := db.Query(projectSelect + ` ORDER BY p.updated_at DESC LIMIT 5`)
	if err == nil {
		defer pRows.Close()
		for pRows.Next() {
			if p, err := scanProject(pRows); err == nil {
				dash.RecentProjects = append(dash.RecentProjects, p)
			}
		}
	}

	jsonResp(w, dash)
}
