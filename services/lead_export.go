package services

import (
	"bytes"
	"fmt"
	"time"

	"marketplace_console_go/models"

	"github.com/xuri/excelize/v2"
)

const leadSheet = "Leads"

var leadExportHeaders = []string{"ID", "Name", "Email", "Phone", "Status", "Source", "Converted", "Created At"}

// BuildLeadWorkbook renders leads as an XLSX workbook with one header row
func BuildLeadWorkbook(leads []models.Lead) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", leadSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, header := range leadExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(leadSheet, cell, header)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(leadExportHeaders), 1)
		f.SetCellStyle(leadSheet, "A1", last, style)
	}

	for i, lead := range leads {
		row := i + 2
		converted := "No"
		if models.IsConvertedStatus(lead.Status) {
			converted = "Yes"
		}
		values := []interface{}{
			lead.ID,
			lead.Name,
			lead.Email,
			lead.Phone,
			lead.Status,
			lead.Source,
			converted,
			lead.CreatedAt.UTC().Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(leadSheet, cell, v)
		}
	}

	f.SetColWidth(leadSheet, "A", "A", 38)
	f.SetColWidth(leadSheet, "B", "D", 24)
	f.SetColWidth(leadSheet, "H", "H", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}
