package spreadsheet

import "fmt"

// TableModel is a rectangular source of values addressed by row then column,
// both 0-indexed.
type TableModel interface {
	RowCount() int
	ColumnCount() int
	ColumnName(col int) string
	ValueAt(row, col int) (any, error)
}

// MutableTableModel is a TableModel whose values can be set.
type MutableTableModel interface {
	TableModel
	SetValueAt(v any, row, col int) error
}

// sheetModel is a view of the columns [col, lastCol) and rows [row, lastRow)
// of a table.
type sheetModel struct {
	t       *Table
	col     int
	row     int
	lastCol int
	lastRow int
}

func (m *sheetModel) RowCount() int    { return m.lastRow - m.row }
func (m *sheetModel) ColumnCount() int { return m.lastCol - m.col }

func (m *sheetModel) ColumnName(col int) string { return ColumnName(col) }

func (m *sheetModel) ValueAt(row, col int) (any, error) {
	return m.t.ValueAt(m.col+col, m.row+row)
}

type mutableSheetModel struct {
	sheetModel
}

func (m *mutableSheetModel) SetValueAt(v any, row, col int) error {
	return m.t.SetValueAt(v, m.col+col, m.row+row)
}

// SliceModel is a TableModel over rows of values. Rows may be shorter than
// the widest one, missing values read as nil.
type SliceModel struct {
	Columns []string
	Rows    [][]any
}

// RowCount returns the number of rows.
func (m *SliceModel) RowCount() int { return len(m.Rows) }

// ColumnCount returns the larger of the number of column names and the width
// of the widest row.
func (m *SliceModel) ColumnCount() int {
	n := len(m.Columns)
	for _, r := range m.Rows {
		n = max(n, len(r))
	}
	return n
}

// ColumnName returns the declared name of col, or its letters.
func (m *SliceModel) ColumnName(col int) string {
	if col >= 0 && col < len(m.Columns) {
		return m.Columns[col]
	}
	return ColumnName(col)
}

// ValueAt returns the value at row and col.
func (m *SliceModel) ValueAt(row, col int) (any, error) {
	if row < 0 || row >= len(m.Rows) || col < 0 || col >= m.ColumnCount() {
		return nil, fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, row, col)
	}
	if col >= len(m.Rows[row]) {
		return nil, nil
	}
	return m.Rows[row][col], nil
}

// SetValueAt sets the value at row and col, widening a short row.
func (m *SliceModel) SetValueAt(v any, row, col int) error {
	if row < 0 || row >= len(m.Rows) || col < 0 {
		return fmt.Errorf("%w: (%d, %d)", ErrOutOfRange, row, col)
	}
	for len(m.Rows[row]) <= col {
		m.Rows[row] = append(m.Rows[row], nil)
	}
	m.Rows[row][col] = v
	return nil
}
