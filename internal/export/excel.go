// Package export writes derived test cases to spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"uirecorder/internal/models"
)

const SheetName = "Test Cases"

var Headers = []string{"ID", "Step", "Action", "Target", "Value", "URL", "XPath", "Expected", "Type", "Time"}

var columnWidths = map[string]float64{
	"A": 24, "B": 6, "C": 12, "D": 30, "E": 24, "F": 40, "G": 50, "H": 36, "I": 12, "J": 24,
}

// Filename returns TestCases_<timestamp>.xlsx with the separators of the
// ISO timestamp replaced by dashes.
func Filename(now time.Time) string {
	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return "TestCases_" + stamp + ".xlsx"
}

// Workbook builds a workbook with one row per test case.
func Workbook(tcs []models.TestCase) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(SheetName, "A1", "J1", style)
	}
	for col, width := range columnWidths {
		_ = f.SetColWidth(SheetName, col, col, width)
	}

	for i, tc := range tcs {
		row := []interface{}{
			tc.CaseID,
			tc.Step,
			tc.Action,
			tc.Target,
			tc.Value,
			tc.URL,
			tc.XPath,
			tc.Expected,
			tc.TestType,
			time.UnixMilli(tc.Timestamp).UTC().Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return f, nil
}

// WriteTestCases writes the workbook as xlsx to w.
func WriteTestCases(w io.Writer, tcs []models.TestCase) error {
	f, err := Workbook(tcs)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
