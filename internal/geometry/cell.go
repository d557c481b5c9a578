package geometry

import "strings"

// Cell is a single positioned text run from one PDF page. Coordinates use a
// top-left origin with y growing downward, so Y0 is the top edge and Y1 the
// bottom edge. Cells are built once per decode pass and never mutated.
type Cell struct {
	Text string  `json:"text"`
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	Page int     `json:"page"`
}

// CenterX returns the horizontal center of the cell.
func (c Cell) CenterX() float64 {
	return (c.X0 + c.X1) / 2
}

// CenterY returns the vertical center of the cell.
func (c Cell) CenterY() float64 {
	return (c.Y0 + c.Y1) / 2
}

// Width returns the horizontal extent of the cell.
func (c Cell) Width() float64 {
	return c.X1 - c.X0
}

// Height returns the vertical extent of the cell.
func (c Cell) Height() float64 {
	return c.Y1 - c.Y0
}

// IsEmpty reports whether the cell carries no visible text.
func (c Cell) IsEmpty() bool {
	return strings.TrimSpace(c.Text) == ""
}
