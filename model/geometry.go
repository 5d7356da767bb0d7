package model

// BBox is a rectangle in millimetres with its origin at the top left.
type BBox struct {
	X      float64 // Left
	Y      float64 // Top
	Width  float64
	Height float64
}

// NewBBox creates a bounding box from its top left corner and size.
func NewBBox(x, y, width, height float64) BBox {
	return BBox{X: x, Y: y, Width: width, Height: height}
}

// Right returns the right edge X coordinate.
func (b BBox) Right() float64 {
	return b.X + b.Width
}

// Bottom returns the bottom edge Y coordinate.
func (b BBox) Bottom() float64 {
	return b.Y + b.Height
}

// Scale multiplies every coordinate by f, eg to convert millimetres to
// pixels.
func (b BBox) Scale(f float64) BBox {
	return BBox{X: b.X * f, Y: b.Y * f, Width: b.Width * f, Height: b.Height * f}
}

// IsEmpty reports whether the box has no area.
func (b BBox) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// TableGrid holds the boundaries of the rows and columns of a table.
type TableGrid struct {
	Rows []float64 // Y-coordinates of row boundaries
	Cols []float64 // X-coordinates of column boundaries
}

// RowCount returns the number of rows.
func (g *TableGrid) RowCount() int {
	if len(g.Rows) <= 1 {
		return 0
	}
	return len(g.Rows) - 1
}

// ColCount returns the number of columns.
func (g *TableGrid) ColCount() int {
	if len(g.Cols) <= 1 {
		return 0
	}
	return len(g.Cols) - 1
}

// Size returns the width and height of the whole grid.
func (g *TableGrid) Size() (width, height float64) {
	if n := len(g.Cols); n > 0 {
		width = g.Cols[n-1]
	}
	if n := len(g.Rows); n > 0 {
		height = g.Rows[n-1]
	}
	return width, height
}

// CellBBox returns the box covering rowSpan rows and colSpan columns from
// (row, col), clipped to the grid. Out of range cells get an empty box.
func (g *TableGrid) CellBBox(row, col, rowSpan, colSpan int) BBox {
	if row < 0 || row >= g.RowCount() || col < 0 || col >= g.ColCount() {
		return BBox{}
	}
	lastRow := min(row+max(rowSpan, 1), g.RowCount())
	lastCol := min(col+max(colSpan, 1), g.ColCount())
	return BBox{
		X:      g.Cols[col],
		Y:      g.Rows[row],
		Width:  g.Cols[lastCol] - g.Cols[col],
		Height: g.Rows[lastRow] - g.Rows[row],
	}
}
