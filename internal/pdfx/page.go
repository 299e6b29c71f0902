package pdfx

import (
	"fmt"
	"strings"
)

// Page is the addressable representation of one PDF page.
type Page struct {
	PageNumber    int             `json:"page_number"`
	FormattedText string          `json:"formatted_text"`
	IDMap         map[string]BBox `json:"id_map"`
}

var (
	pageBanner    = strings.Repeat("=", 80)
	sectionBanner = strings.Repeat("-", 80)
	docBanner     = strings.Repeat("#", 80)
)

// extractPage assigns identifiers to a page's layout and renders its
// formatted text.
//
// Free-text lines (those whose center falls outside every table bbox) get
// sequential "{page}_{index}" ids in reading order, starting at 0 and
// counting only kept lines. Table cells get
// "{page}_t{table}_r{row}_c{col}" ids and share their row's bbox, so any
// cell reference highlights the whole row.
//
// Every marker emitted into the formatted text has an IDMap entry and vice
// versa.
func extractPage(layout *PageLayout, pageNumber int) Page {
	var sb strings.Builder
	idMap := make(map[string]BBox)

	tableBoxes := make([]BBox, len(layout.Tables))
	for i, t := range layout.Tables {
		tableBoxes[i] = t.BBox
	}

	fmt.Fprintf(&sb, "\n%s\nPAGE %d\n%s\n", pageBanner, pageNumber, pageBanner)
	fmt.Fprintf(&sb, "\n%s\nTEXT CONTENT (excluding tables)\n%s\n\n", sectionBanner, sectionBanner)

	lineIndex := 0
	for _, line := range layout.Lines {
		bbox := line.BBox
		if LineInAnyTable(&bbox, tableBoxes) {
			continue
		}
		lineID := fmt.Sprintf("%d_%d", pageNumber, lineIndex)
		fmt.Fprintf(&sb, "[line_id: %s] %s\n", lineID, line.Text)
		idMap[lineID] = bbox
		lineIndex++
	}

	if len(layout.Tables) > 0 {
		fmt.Fprintf(&sb, "\n%s\nTABLES\n%s\n\n", sectionBanner, sectionBanner)

		for tableIndex, table := range layout.Tables {
			if len(table.Rows) == 0 {
				continue
			}
			fmt.Fprintf(&sb, "Table %d on Page %d:\n\n", tableIndex+1, pageNumber)

			for rowIndex, row := range table.Rows {
				cellParts := make([]string, 0, len(row.Cells))
				for colIndex, cellText := range row.Cells {
					cellID := fmt.Sprintf("%d_t%d_r%d_c%d", pageNumber, tableIndex, rowIndex, colIndex)
					// Row bbox on purpose: highlighting a cell highlights its row.
					idMap[cellID] = row.BBox
					cellParts = append(cellParts, fmt.Sprintf("[cell_id: %s] %s", cellID, cellText))
				}
				sb.WriteString(strings.Join(cellParts, " | "))
				sb.WriteString("\n")
			}
			sb.WriteString("\n")
		}
	}

	return Page{
		PageNumber:    pageNumber,
		FormattedText: sb.String(),
		IDMap:         idMap,
	}
}

// emptyPage is the degraded form used when a page fails to parse.
func emptyPage(pageNumber int) Page {
	return extractPage(&PageLayout{}, pageNumber)
}
