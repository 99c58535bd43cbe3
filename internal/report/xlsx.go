// Package report exports per-file cleaning results as an XLSX workbook for
// reviewers.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/hansardclean/internal/models"
)

// SheetName is the name of the single sheet in an exported workbook.
const SheetName = "Files"

// Columns is the header row of the exported sheet.
var Columns = []string{
	"Name",
	"Status",
	"Lines In",
	"Lines Out",
	"Isolated Numbers",
	"Excessive Whitespace",
	"Empty Lines",
	"Source Path",
	"Output Path",
	"Error",
	"Updated At",
}

var columnWidths = map[string]float64{
	"A": 28, "B": 10, "C": 10, "D": 10, "E": 16, "F": 20,
	"G": 12, "H": 48, "I": 48, "J": 40, "K": 22,
}

// WriteXLSX writes results to a new workbook at path.
func WriteXLSX(path string, results []*models.FileResult) error {
	f, err := build(results)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// WriteWorkbook writes results as XLSX to w.
func WriteWorkbook(w io.Writer, results []*models.FileResult) error {
	f, err := build(results)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func build(results []*models.FileResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeRows(f, results); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func writeRows(f *excelize.File, results []*models.FileResult) error {
	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(Columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return err
	}

	for i, res := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			res.Name,
			string(res.Status),
			res.LinesIn,
			res.LinesOut,
			res.Issues.IsolatedNumbers,
			res.Issues.ExcessiveWhitespace,
			res.Issues.EmptyLines,
			res.SourcePath,
			res.OutputPath,
			res.Error,
			formatTime(res.UpdatedAt),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	for col, width := range columnWidths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return err
		}
	}
	return f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
