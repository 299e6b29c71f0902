// Package pdfx turns PDF pages into a flat, addressable text representation.
// Every free-text line and every table cell receives a stable identifier that
// maps back to its bounding geometry, so downstream consumers can trace any
// extracted value to an exact location on a page.
package pdfx

// BBox is an axis-aligned bounding box in page coordinates.
// Top and Bottom are measured from the top edge of the page, matching the
// coordinate space the highlighting frontend expects.
type BBox struct {
	X0     float64 `json:"x0"`
	Top    float64 `json:"top"`
	X1     float64 `json:"x1"`
	Bottom float64 `json:"bottom"`
}

// Contains reports whether the point (x, y) lies within the closed rectangle.
func (b BBox) Contains(x, y float64) bool {
	return x >= b.X0 && x <= b.X1 && y >= b.Top && y <= b.Bottom
}

// Center returns the center point of the box.
func (b BBox) Center() (x, y float64) {
	return (b.X0 + b.X1) / 2, (b.Top + b.Bottom) / 2
}

// LineInAnyTable reports whether a text line belongs to one of the detected
// tables on the same page. The test uses the line's center point so that lines
// straddling a table border are attributed to the table they visually sit in.
//
// A nil line bbox (malformed geometry from the extraction library) always
// classifies as free text. Bad geometry must never abort page processing.
func LineInAnyTable(line *BBox, tables []BBox) bool {
	if line == nil {
		return false
	}
	cx, cy := line.Center()
	for _, t := range tables {
		if t.Contains(cx, cy) {
			return true
		}
	}
	return false
}
