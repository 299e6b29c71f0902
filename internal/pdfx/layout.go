package pdfx

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextLine is one visual row of text on a page.
type TextLine struct {
	BBox BBox
	Text string
}

// TableRow is one row of a detected table. The bbox spans the entire row.
type TableRow struct {
	BBox  BBox
	Cells []string
}

// Table is a detected tabular region.
type Table struct {
	BBox BBox
	Rows []TableRow
}

// PageLayout is the raw geometric content of one page: every text line with
// its bbox, plus the tabular regions detected among them. Lines inside table
// regions are NOT removed here; the page extractor partitions them.
type PageLayout struct {
	Lines  []TextLine
	Tables []Table
}

// LayoutSource yields the layout of a page by 1-based page number.
// The production implementation reads positioned text from a PDF; tests
// substitute synthetic geometry.
type LayoutSource interface {
	PageLayout(pageNumber int) (*PageLayout, error)
}

// Analyzer tunables. Values are in PDF points and were calibrated against
// technical datasheets with dense spec tables.
const (
	rowTolerance     = 3.0  // Y distance for grouping glyphs into one row
	wordGapFactor    = 0.30 // gap > 30% of font size starts a new word
	cellGapThreshold = 18.0 // gap that separates two cells in a row
	maxTableRowGap   = 24.0 // vertical gap that breaks a table run
	columnTolerance  = 14.0 // X distance for matching cell starts to a column
	defaultPageSize  = 792.0
)

// readerLayout implements LayoutSource over a ledongthuc/pdf reader.
type readerLayout struct {
	reader *pdf.Reader
}

func (rl *readerLayout) PageLayout(pageNumber int) (_ *PageLayout, err error) {
	// The content-stream parser panics on some malformed PDFs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d content parse panic: %v", pageNumber, r)
		}
	}()

	page := rl.reader.Page(pageNumber)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d not found", pageNumber)
	}

	height := pageHeight(page)
	texts := filterTexts(page.Content().Text)

	return analyzeTexts(texts, height), nil
}

// pageHeight reads the MediaBox height, falling back to US Letter.
func pageHeight(page pdf.Page) float64 {
	box := page.V.Key("MediaBox")
	if box.Kind() != pdf.Array || box.Len() < 4 {
		return defaultPageSize
	}
	h := box.Index(3).Float64() - box.Index(1).Float64()
	if h <= 0 {
		return defaultPageSize
	}
	return h
}

func filterTexts(texts []pdf.Text) []pdf.Text {
	kept := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t.S) != "" {
			kept = append(kept, t)
		}
	}
	return kept
}

// analyzeTexts groups positioned glyphs into rows, renders each row as a text
// line, and detects tabular runs among the rows.
func analyzeTexts(texts []pdf.Text, height float64) *PageLayout {
	rows := groupIntoRows(texts)

	layout := &PageLayout{}
	segments := make([][]rowSegment, len(rows))
	for i, row := range rows {
		segments[i] = splitRowSegments(row)
		layout.Lines = append(layout.Lines, renderLine(row, segments[i], height))
	}

	layout.Tables = detectTables(rows, segments, layout.Lines, height)
	return layout
}

// groupIntoRows clusters glyphs by baseline Y and returns rows in reading
// order (top of page first). Glyphs within a row are sorted left to right.
func groupIntoRows(texts []pdf.Text) [][]pdf.Text {
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > rowTolerance {
			return sorted[i].Y > sorted[j].Y // higher Y = higher on page
		}
		return sorted[i].X < sorted[j].X
	})

	var rows [][]pdf.Text
	for _, t := range sorted {
		if len(rows) > 0 {
			last := rows[len(rows)-1]
			if math.Abs(last[0].Y-t.Y) <= rowTolerance {
				rows[len(rows)-1] = append(last, t)
				continue
			}
		}
		rows = append(rows, []pdf.Text{t})
	}
	return rows
}

// rowSegment is a horizontally contiguous run of glyphs within a row.
type rowSegment struct {
	x0, x1 float64
	text   string
}

// splitRowSegments joins glyphs into words and splits the row wherever the
// horizontal gap is wide enough to indicate a cell boundary.
func splitRowSegments(row []pdf.Text) []rowSegment {
	var segs []rowSegment
	var sb strings.Builder
	var segX0, prevEnd float64

	flush := func() {
		if sb.Len() > 0 {
			segs = append(segs, rowSegment{x0: segX0, x1: prevEnd, text: strings.TrimSpace(sb.String())})
			sb.Reset()
		}
	}

	for i, t := range row {
		if i == 0 {
			segX0 = t.X
		} else {
			gap := t.X - prevEnd
			switch {
			case gap >= cellGapThreshold:
				flush()
				segX0 = t.X
			case gap > wordGapFactor*fontSizeOf(t):
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	flush()
	return segs
}

func fontSizeOf(t pdf.Text) float64 {
	if t.FontSize > 0 {
		return t.FontSize
	}
	return 10.0
}

// renderLine converts a row of glyphs into a TextLine with a top-based bbox.
func renderLine(row []pdf.Text, segs []rowSegment, height float64) TextLine {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		parts = append(parts, s.text)
	}
	return TextLine{
		BBox: rowBBox(row, height),
		Text: strings.Join(parts, " "),
	}
}

// rowBBox computes a top-based bbox for a row of glyphs. Glyph Y is the
// baseline in bottom-origin coordinates; ascent and descent are approximated
// from the font size.
func rowBBox(row []pdf.Text, height float64) BBox {
	x0, x1 := row[0].X, row[0].X+row[0].W
	yMin, yMax := row[0].Y, row[0].Y
	fs := fontSizeOf(row[0])
	for _, t := range row[1:] {
		x0 = math.Min(x0, t.X)
		x1 = math.Max(x1, t.X+t.W)
		yMin = math.Min(yMin, t.Y)
		yMax = math.Max(yMax, t.Y)
		fs = math.Max(fs, fontSizeOf(t))
	}
	return BBox{
		X0:     x0,
		Top:    height - (yMax + 0.8*fs),
		X1:     x1,
		Bottom: height - yMin + 0.2*fs,
	}
}

// detectTables finds maximal runs of adjacent multi-segment rows and shapes
// them into tables. A run qualifies when at least two consecutive rows each
// carry two or more cells and sit close enough vertically to read as one grid.
func detectTables(rows [][]pdf.Text, segments [][]rowSegment, lines []TextLine, height float64) []Table {
	var tables []Table

	runStart := -1
	flushRun := func(end int) {
		if runStart >= 0 && end-runStart >= 2 {
			tables = append(tables, buildTable(segments[runStart:end], lines[runStart:end]))
		}
		runStart = -1
	}

	for i := range rows {
		if len(segments[i]) < 2 {
			flushRun(i)
			continue
		}
		if runStart == -1 {
			runStart = i
			continue
		}
		// Rows must be vertically adjacent to belong to the same grid.
		if lines[i].BBox.Top-lines[i-1].BBox.Bottom > maxTableRowGap {
			flushRun(i)
			runStart = i
		}
	}
	flushRun(len(rows))

	return tables
}

// buildTable aligns row segments to a shared set of columns and assembles the
// table with per-row bboxes and a union bbox.
func buildTable(segRows [][]rowSegment, lines []TextLine) Table {
	columns := clusterColumns(segRows)

	t := Table{BBox: lines[0].BBox}
	for i, segs := range segRows {
		cells := make([]string, len(columns))
		for _, s := range segs {
			c := nearestColumn(columns, s.x0)
			if cells[c] != "" {
				cells[c] += " " + s.text
			} else {
				cells[c] = s.text
			}
		}
		t.Rows = append(t.Rows, TableRow{BBox: lines[i].BBox, Cells: cells})
		t.BBox = unionBBox(t.BBox, lines[i].BBox)
	}
	return t
}

// clusterColumns merges segment start positions across rows into column
// anchors, sorted left to right.
func clusterColumns(segRows [][]rowSegment) []float64 {
	var starts []float64
	for _, segs := range segRows {
		for _, s := range segs {
			starts = append(starts, s.x0)
		}
	}
	sort.Float64s(starts)

	var cols []float64
	for _, x := range starts {
		if len(cols) == 0 || x-cols[len(cols)-1] > columnTolerance {
			cols = append(cols, x)
		}
	}
	return cols
}

func nearestColumn(columns []float64, x float64) int {
	best, bestDist := 0, math.MaxFloat64
	for i, c := range columns {
		if d := math.Abs(c - x); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func unionBBox(a, b BBox) BBox {
	return BBox{
		X0:     math.Min(a.X0, b.X0),
		Top:    math.Min(a.Top, b.Top),
		X1:     math.Max(a.X1, b.X1),
		Bottom: math.Max(a.Bottom, b.Bottom),
	}
}
