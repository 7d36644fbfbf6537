// Package grid arranges channels into equally sized cells of a frame.
package grid

import "image"

// Grid is a row-major layout of cells over a canvas.
type Grid struct {
	Rows    int
	Columns int

	CellWidth  int
	CellHeight int
}

// New lays out n cells over a width x height canvas. Landscape canvases with
// at least two cells get two columns; everything else is a single column.
// Remainder pixels on the right and bottom are left unused.
func New(width, height, n int) *Grid {
	if n < 1 {
		n = 1
	}
	columns := 1
	if width >= height && n >= 2 {
		columns = 2
	}
	rows := (n + columns - 1) / columns

	return &Grid{
		Rows:       rows,
		Columns:    columns,
		CellWidth:  width / columns,
		CellHeight: height / rows,
	}
}

// Cell returns the bounds of the i-th cell in row-major order.
func (g *Grid) Cell(i int) image.Rectangle {
	row, col := i/g.Columns, i%g.Columns
	x, y := col*g.CellWidth, row*g.CellHeight
	return image.Rect(x, y, x+g.CellWidth, y+g.CellHeight)
}
