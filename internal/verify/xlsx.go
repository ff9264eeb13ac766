package verify

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ferry-trace/verifier/internal/models"
)

const (
	sheetChecks   = "Checks"
	sheetRejected = "Rejected"
)

// encodeXLSX writes a workbook with one row per diagnostic on the Checks
// sheet and the rejected lines on a second sheet.
func encodeXLSX(w io.Writer, report *models.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetChecks); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	rows := [][]interface{}{
		{"source", report.Source},
		{"run", report.RunID},
		{"events", report.EventCount},
		{"passed", report.Passed},
		{},
		{"check", "passed", "diagnostic"},
	}
	for _, res := range report.Results {
		if len(res.Diagnostics) == 0 {
			rows = append(rows, []interface{}{res.Name, res.Passed, ""})
			continue
		}
		for _, d := range res.Diagnostics {
			rows = append(rows, []interface{}{res.Name, res.Passed, d})
		}
	}
	if err := writeRows(f, sheetChecks, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(sheetRejected); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	rejected := [][]interface{}{{"line", "content", "reason"}}
	for _, pe := range report.RejectedLines {
		rejected = append(rejected, []interface{}{pe.Line, pe.Content, pe.Reason})
	}
	if err := writeRows(f, sheetRejected, rejected); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing xlsx report: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
