package main

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"

	"factorypulse/internal/workflow"

	"github.com/xuri/excelize/v2"
)

// --- Excel/CSV Export ---

func exportCSV(w http.ResponseWriter, name string, headers []string, data [][]string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", name))
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write(headers); err != nil {
		return
	}
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			return
		}
	}
}

func exportExcel(w http.ResponseWriter, sheetName string, headers []string, data [][]string) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		http.Error(w, "Failed to create Excel sheet", 500)
		return
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		http.Error(w, "Failed to create header style", 500)
		return
	}

	for i, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+i)))
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, row := range data {
		for colIdx, value := range row {
			cell := fmt.Sprintf("%s%d", string(rune('A'+colIdx)), rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range headers {
		col := string(rune('A' + i))
		f.SetColWidth(sheetName, col, col, 15)
	}

	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", strings.ToLower(sheetName)))

	if err := f.Write(w); err != nil {
		http.Error(w, "Failed to write Excel file", 500)
		return
	}
}

func handleExportProjects(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query(projectSelect + ` ORDER BY p.id`)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	headers := []string{"ID", "Title", "Stage", "Priority", "Customer", "Estimated Value", "Due Date", "Created"}
	var data [][]string
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			continue
		}
		est := ""
		if p.EstimatedValue != nil {
			est = fmt.Sprintf("%.2f", *p.EstimatedValue)
		}
		data = append(data, []string{
			p.ID, p.Title, workflow.StageLabel(workflow.Stage(p.Status)), p.Priority,
			p.CustomerName, est, p.DueDate, p.CreatedAt,
		})
	}

	logAudit(getUser(r), AuditActionExport, "projects", "", fmt.Sprintf("Exported %d projects", len(data)))
	if r.URL.Query().Get("format") == "csv" {
		exportCSV(w, "projects", headers, data)
		return
	}
	exportExcel(w, "Projects", headers, data)
}

func handleExportQuotes(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query(quoteSelect + ` ORDER BY q.id`)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	headers := []string{"ID", "Project", "Supplier", "Status", "Unit Price", "Lead Time (days)", "Currency", "Quoted At"}
	var data [][]string
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			continue
		}
		price := ""
		if q.UnitPrice != nil {
			price = fmt.Sprintf("%.2f", *q.UnitPrice)
		}
		data = append(data, []string{
			q.ID, q.ProjectID, q.SupplierName, q.Status, price,
			fmt.Sprintf("%d", q.LeadTimeDays), q.Currency, q.QuotedAt,
		})
	}

	logAudit(getUser(r), AuditActionExport, "quotes", "", fmt.Sprintf("Exported %d quotes", len(data)))
	if r.URL.Query().Get("format") == "csv" {
		exportCSV(w, "quotes", headers, data)
		return
	}
	exportExcel(w, "Quotes", headers, data)
}
