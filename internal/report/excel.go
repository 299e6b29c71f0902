// Package report renders extraction results as XLSX workbooks.
package report

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tracedoc/tracedoc/internal/extract"
)

const sheetName = "Extraction"

// BuildWorkbook returns an XLSX workbook (as bytes) with one row per
// requested key. Keys whose batch failed render as "Extraction failed";
// keys the documents don't contain render their nil value as "Not found".
func BuildWorkbook(results map[string]*extract.KeyResult, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheetName); index == -1 {
		if _, err := f.NewSheet(sheetName); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet so the workbook opens on the data.
	if sheetName != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{"Key", "Value", "Description", "Reference"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	row := 2
	for _, key := range keys {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}

		write(1, key)

		r := results[key]
		switch {
		case r == nil:
			write(2, "Extraction failed")
			write(3, "")
			write(4, "No reference")
		case r.KeyValue == nil:
			write(2, "Not found")
			write(3, r.Description)
			write(4, formatReference(r.SourceLocations))
		default:
			write(2, *r.KeyValue)
			write(3, r.Description)
			write(4, formatReference(r.SourceLocations))
		}

		row++
	}

	_ = f.SetColWidth(sheetName, "A", "A", 36)
	_ = f.SetColWidth(sheetName, "B", "B", 28)
	_ = f.SetColWidth(sheetName, "C", "C", 60)
	_ = f.SetColWidth(sheetName, "D", "D", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("built extraction workbook",
		"keys", len(keys),
		"elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

// formatReference renders source locations like
// "spec.pdf (Pages: 1, 2); appendix.pdf (Pages: 7)".
func formatReference(locations []extract.SourceLocation) string {
	if len(locations) == 0 {
		return "No reference"
	}

	parts := make([]string, 0, len(locations))
	for _, loc := range locations {
		pages := make([]string, 0, len(loc.PageNumbers))
		for _, p := range loc.PageNumbers {
			pages = append(pages, fmt.Sprintf("%d", p))
		}
		if len(pages) == 0 {
			parts = append(parts, loc.PDFFilename)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (Pages: %s)", loc.PDFFilename, strings.Join(pages, ", ")))
	}
	return strings.Join(parts, "; ")
}
