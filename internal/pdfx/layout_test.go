package pdfx

import (
	"testing"

	"github.com/ledongthuc/pdf"
)

// glyph builds a positioned text fragment. Width is approximated from the
// string length the way a monospace font would lay it out.
func glyph(s string, x, y float64) pdf.Text {
	return pdf.Text{S: s, X: x, Y: y, W: float64(len(s)) * 5, FontSize: 10}
}

func TestGroupIntoRows(t *testing.T) {
	texts := []pdf.Text{
		glyph("world", 60, 700),
		glyph("hello", 10, 701), // within rowTolerance of 700
		glyph("below", 10, 650),
	}

	rows := groupIntoRows(texts)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	// Top row first, glyphs left to right.
	if rows[0][0].S != "hello" || rows[0][1].S != "world" {
		t.Errorf("top row misordered: %q, %q", rows[0][0].S, rows[0][1].S)
	}
	if rows[1][0].S != "below" {
		t.Errorf("expected second row to hold %q, got %q", "below", rows[1][0].S)
	}
}

func TestSplitRowSegments(t *testing.T) {
	tests := []struct {
		name string
		row  []pdf.Text
		want []string
	}{
		{
			name: "adjacent glyphs join into one word",
			row: []pdf.Text{
				glyph("Vol", 10, 700),
				glyph("tage", 25, 700), // zero gap
			},
			want: []string{"Voltage"},
		},
		{
			name: "word gap inserts a space",
			row: []pdf.Text{
				glyph("Rated", 10, 700),
				glyph("frequency", 40, 700), // gap 5 > 0.3*10
			},
			want: []string{"Rated frequency"},
		},
		{
			name: "cell gap splits segments",
			row: []pdf.Text{
				glyph("Kunde", 10, 700),
				glyph("ACME", 100, 700), // gap 65 >= cellGapThreshold
			},
			want: []string{"Kunde", "ACME"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := splitRowSegments(tt.row)
			if len(segs) != len(tt.want) {
				t.Fatalf("expected %d segments, got %d", len(tt.want), len(segs))
			}
			for i, want := range tt.want {
				if segs[i].text != want {
					t.Errorf("segment %d = %q, want %q", i, segs[i].text, want)
				}
			}
		})
	}
}

func TestAnalyzeTextsDetectsTable(t *testing.T) {
	// A title row followed by two table-like rows with two cells each.
	texts := []pdf.Text{
		glyph("Datasheet", 10, 750),

		glyph("Parameter", 10, 700),
		glyph("Value", 200, 700),

		glyph("Frequency", 10, 685),
		glyph("50 Hz", 200, 685),
	}

	layout := analyzeTexts(texts, 792)

	if len(layout.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(layout.Lines))
	}
	if layout.Lines[0].Text != "Datasheet" {
		t.Errorf("first line = %q, want %q", layout.Lines[0].Text, "Datasheet")
	}

	if len(layout.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(layout.Tables))
	}
	table := layout.Tables[0]
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 table rows, got %d", len(table.Rows))
	}
	header := table.Rows[0]
	if len(header.Cells) != 2 || header.Cells[0] != "Parameter" || header.Cells[1] != "Value" {
		t.Errorf("header cells = %v", header.Cells)
	}
	data := table.Rows[1]
	if data.Cells[0] != "Frequency" || data.Cells[1] != "50 Hz" {
		t.Errorf("data cells = %v", data.Cells)
	}

	// Row bboxes nest inside the table's union bbox.
	for i, row := range table.Rows {
		if row.BBox.Top < table.BBox.Top || row.BBox.Bottom > table.BBox.Bottom {
			t.Errorf("row %d bbox %v outside table bbox %v", i, row.BBox, table.BBox)
		}
	}
}

func TestAnalyzeTextsSingleColumnIsNotATable(t *testing.T) {
	texts := []pdf.Text{
		glyph("First paragraph line", 10, 700),
		glyph("Second paragraph line", 10, 685),
		glyph("Third paragraph line", 10, 670),
	}

	layout := analyzeTexts(texts, 792)
	if len(layout.Tables) != 0 {
		t.Errorf("expected no tables in flowing text, got %d", len(layout.Tables))
	}
}

func TestAnalyzeTextsDistantRowsBreakTable(t *testing.T) {
	// Two multi-segment rows separated by far more than maxTableRowGap
	// must not fuse into one table.
	texts := []pdf.Text{
		glyph("A", 10, 700),
		glyph("B", 200, 700),

		glyph("C", 10, 400),
		glyph("D", 200, 400),
	}

	layout := analyzeTexts(texts, 792)
	if len(layout.Tables) != 0 {
		t.Errorf("expected distant rows to stay out of tables, got %d table(s)", len(layout.Tables))
	}
}

func TestRowBBoxTopOrigin(t *testing.T) {
	// Baseline Y 700 on a 792pt page with font size 10 puts the box near the
	// top of the page in top-origin coordinates.
	row := []pdf.Text{glyph("x", 10, 700)}
	box := rowBBox(row, 792)

	if box.Top >= box.Bottom {
		t.Fatalf("invalid bbox: top %v >= bottom %v", box.Top, box.Bottom)
	}
	if box.Top < 80 || box.Top > 90 {
		t.Errorf("top = %v, want 792-(700+8) = 84", box.Top)
	}
	if box.X0 != 10 {
		t.Errorf("x0 = %v, want 10", box.X0)
	}
}
