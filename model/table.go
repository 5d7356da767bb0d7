package model

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// Default row height in millimetres, used when a row declares none.
const DefaultRowHeight = 4.5

// Default column width in millimetres, used when a column declares none.
const DefaultColumnWidth = 22.6

// Table represents a sheet as rows of cells with their sizes
type Table struct {
	Name    string
	Rows    [][]Cell
	Widths  []float64 // column widths in mm, 0 when unknown
	Heights []float64 // row heights in mm, 0 when unknown
}

// GetText returns the cell texts, tab separated, one row per line
func (t *Table) GetText() string {
	var sb strings.Builder
	for _, row := range t.Rows {
		for j, cell := range row {
			sb.WriteString(cell.Text)
			if j < len(row)-1 {
				sb.WriteString("\t")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// NewTable creates a new table with given dimensions
func NewTable(rows, cols int) *Table {
	table := &Table{
		Rows:    make([][]Cell, rows),
		Widths:  make([]float64, cols),
		Heights: make([]float64, rows),
	}
	for i := 0; i < rows; i++ {
		table.Rows[i] = make([]Cell, cols)
		for j := 0; j < cols; j++ {
			table.Rows[i][j] = Cell{
				RowSpan: 1,
				ColSpan: 1,
			}
		}
	}
	return table
}

// RowCount returns the number of rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the number of columns in the first row
func (t *Table) ColCount() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// GetCell returns the cell at the given row and column (0-indexed)
func (t *Table) GetCell(row, col int) *Cell {
	if row < 0 || row >= len(t.Rows) {
		return nil
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return nil
	}
	return &t.Rows[row][col]
}

// SetCell sets the cell at the given position
func (t *Table) SetCell(row, col int, cell Cell) error {
	if row < 0 || row >= len(t.Rows) {
		return fmt.Errorf("row index %d out of bounds", row)
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return fmt.Errorf("col index %d out of bounds", col)
	}
	t.Rows[row][col] = cell
	return nil
}

// Grid returns the row and column boundaries, substituting the defaults for
// unknown sizes.
func (t *Table) Grid() *TableGrid {
	g := &TableGrid{Rows: []float64{0}, Cols: []float64{0}}
	for i := 0; i < t.ColCount(); i++ {
		w := DefaultColumnWidth
		if i < len(t.Widths) && t.Widths[i] > 0 {
			w = t.Widths[i]
		}
		g.Cols = append(g.Cols, g.Cols[i]+w)
	}
	for i := 0; i < t.RowCount(); i++ {
		h := DefaultRowHeight
		if i < len(t.Heights) && t.Heights[i] > 0 {
			h = t.Heights[i]
		}
		g.Rows = append(g.Rows, g.Rows[i]+h)
	}
	return g
}

// ToMarkdown converts the table to markdown format, the first row being the
// header
func (t *Table) ToMarkdown() string {
	if len(t.Rows) == 0 {
		return ""
	}

	var sb strings.Builder
	writeRow := func(row []Cell) {
		for _, cell := range row {
			sb.WriteString("| ")
			sb.WriteString(markdownEscaper.Replace(cell.Text))
			sb.WriteString(" ")
		}
		sb.WriteString("|\n")
	}

	writeRow(t.Rows[0])
	sb.WriteString(strings.Repeat("|---", len(t.Rows[0])))
	sb.WriteString("|\n")
	for _, row := range t.Rows[1:] {
		writeRow(row)
	}
	return sb.String()
}

var markdownEscaper = strings.NewReplacer("\n", " ", "|", `\|`)

// ToCSV converts the table to CSV format
func (t *Table) ToCSV() string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	for _, row := range t.Rows {
		record := make([]string, len(row))
		for j, cell := range row {
			record[j] = cell.Text
		}
		// writing to a strings.Builder cannot fail
		_ = w.Write(record)
	}
	w.Flush()
	return sb.String()
}

// Cell represents a table cell
type Cell struct {
	Text    string
	RowSpan int
	ColSpan int
	Covered bool // hidden by a spanning cell
	Style   CellStyle
}
