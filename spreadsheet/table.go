package spreadsheet

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/beevik/etree"

	"github.com/tsawler/opendoc/odf"
)

// Default width of columns created from scratch, in millimetres.
const defaultColumnWidth = 20

// Table is a table:table seen as a dense grid. Repeated rows, columns and
// cells are expanded when the table is created, so every coordinate maps to
// its own element.
type Table struct {
	mu   sync.Mutex
	ss   *SpreadSheet
	el   *etree.Element
	rows []*Row
	cols []*Column
}

func newTable(ss *SpreadSheet, el *etree.Element) (*Table, error) {
	t := &Table{ss: ss, el: el}

	colEls, err := flatten(el, func(e *etree.Element) bool { return odf.Is(e, "table:table-column") }, "table:number-columns-repeated")
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", t.Name(), err)
	}
	for _, c := range colEls {
		t.cols = append(t.cols, &Column{t: t, el: c})
	}

	rowEls, err := flatten(el, func(e *etree.Element) bool { return odf.Is(e, "table:table-row") }, "table:number-rows-repeated")
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", t.Name(), err)
	}
	if err := t.setRows(rowEls); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) setRows(els []*etree.Element) error {
	rows := make([]*Row, 0, len(els))
	for _, el := range els {
		r, err := newRow(t, el, len(rows))
		if err != nil {
			return fmt.Errorf("table %q: %w", t.Name(), err)
		}
		rows = append(rows, r)
	}
	t.rows = rows
	return nil
}

// Element returns the underlying table:table.
func (t *Table) Element() *etree.Element { return t.el }

// Name returns table:name.
func (t *Table) Name() string { return odf.Attr(t.el, "table:name") }

// SetName sets table:name.
func (t *Table) SetName(name string) { t.el.CreateAttr("table:name", name) }

// StyleName returns table:style-name.
func (t *Table) StyleName() string { return odf.Attr(t.el, "table:style-name") }

// Style returns the table style, or nil.
func (t *Table) Style() *Style { return t.ss.style(FamilyTable, t.StyleName()) }

// Width returns the width declared by the table style. It returns ErrNoLength
// when the table has no style or the style no width, as in spreadsheets.
func (t *Table) Width() (float64, error) {
	s := t.Style()
	if s == nil {
		return 0, ErrNoLength
	}
	return s.Width()
}

// PrintRanges returns table:print-ranges, or "".
func (t *Table) PrintRanges() string { return odf.Attr(t.el, "table:print-ranges") }

// SetPrintRanges sets table:print-ranges, eg "Sheet1.A1:Sheet1.D20".
func (t *Table) SetPrintRanges(s string) { t.el.CreateAttr("table:print-ranges", s) }

// RemovePrintRanges removes table:print-ranges.
func (t *Table) RemovePrintRanges() { t.el.RemoveAttr("table:print-ranges") }

// RowCount returns the number of rows.
func (t *Table) RowCount() int { return len(t.rows) }

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int { return len(t.cols) }

// Row returns row y.
func (t *Table) Row(y int) (*Row, error) {
	if y < 0 || y >= len(t.rows) {
		return nil, fmt.Errorf("%w: row %d of %d", ErrOutOfRange, y, len(t.rows))
	}
	return t.rows[y], nil
}

// Column returns column x.
func (t *Table) Column(x int) (*Column, error) {
	if x < 0 || x >= len(t.cols) {
		return nil, fmt.Errorf("%w: column %d of %d", ErrOutOfRange, x, len(t.cols))
	}
	return t.cols[x], nil
}

// DuplicateFirstRows appends copies of the first count rows after them.
func (t *Table) DuplicateFirstRows(count, copies int) error {
	return t.DuplicateRows(0, count, copies)
}

// InsertDuplicatedRows inserts copies of row y right after it.
func (t *Table) InsertDuplicatedRows(y, copies int) error {
	return t.DuplicateRows(y, 1, copies)
}

// DuplicateRows clones the count rows starting at start copies times and
// inserts the clones after the range. To copy rows 2 through 5 once, call
// DuplicateRows(2, 4, 1).
func (t *Table) DuplicateRows(start, count, copies int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	stop := start + count
	if start < 0 || count < 0 || copies < 0 || stop > len(t.rows) {
		return fmt.Errorf("%w: rows [%d, %d) of %d", ErrOutOfRange, start, stop, len(t.rows))
	}
	if count == 0 || copies == 0 {
		return nil
	}

	anchor := t.rows[stop-1].el
	for i := 0; i < copies; i++ {
		for _, r := range t.rows[start:stop] {
			clone := r.el.Copy()
			odf.InsertAfter(anchor, clone)
			anchor = clone
		}
	}
	return t.setRows(odf.Children(t.el, "table:table-row"))
}

// CellAt returns the cell at column x and row y.
func (t *Table) CellAt(x, y int) (*Cell, error) {
	r, err := t.Row(y)
	if err != nil {
		return nil, err
	}
	return r.CellAt(x)
}

// CellAtRef returns the cell at ref, eg "B3".
func (t *Table) CellAtRef(ref string) (*Cell, error) {
	x, y, err := Resolve(ref)
	if err != nil {
		return nil, fmt.Errorf("%w; named ranges resolve on the spreadsheet", err)
	}
	return t.CellAt(x, y)
}

// IsCellValid reports whether (x, y) is inside the table and not covered by a
// spanning cell.
func (t *Table) IsCellValid(x, y int) bool {
	c, err := t.CellAt(x, y)
	return err == nil && c.IsValid()
}

// ValueAt returns the value of the cell at column x and row y.
func (t *Table) ValueAt(x, y int) (any, error) {
	c, err := t.CellAt(x, y)
	if err != nil {
		return nil, err
	}
	return c.Value()
}

// ValueAtRef returns the value of the cell at ref, eg "B3".
func (t *Table) ValueAtRef(ref string) (any, error) {
	c, err := t.CellAtRef(ref)
	if err != nil {
		return nil, err
	}
	return c.Value()
}

// SetValueAt sets the value of the cell at column x and row y. Nil is treated
// as the empty string. The cell is left untouched when it already holds v.
func (t *Table) SetValueAt(v any, x, y int) error {
	if v == nil {
		v = ""
	}
	c, err := t.CellAt(x, y)
	if err != nil {
		return err
	}
	if cur, err := c.Value(); err == nil && sameValue(cur, v) {
		return nil
	}
	c.SetValue(v)
	return nil
}

func sameValue(cur, v any) bool {
	if f, ok := toFloat(v); ok {
		g, ok := cur.(float64)
		return ok && f == g
	}
	switch v := v.(type) {
	case time.Time:
		c, ok := cur.(time.Time)
		return ok && c.Equal(v)
	case string, bool, time.Duration:
		return cur == v
	}
	return false
}

// StyleNameAt returns the name of the style applying to the cell at column x
// and row y: the cell's own, else the row default, else the column default.
func (t *Table) StyleNameAt(x, y int) (string, error) {
	r, err := t.Row(y)
	if err != nil {
		return "", err
	}
	if x < 0 || x >= len(r.cells) {
		return "", fmt.Errorf("%w: column %d of row %d", ErrOutOfRange, x, y)
	}
	return t.styleNameAt(x, r), nil
}

func (t *Table) styleNameAt(x int, r *Row) string {
	if s := odf.Attr(r.cells[x], "table:style-name"); s != "" {
		return s
	}
	if s := r.DefaultCellStyleName(); s != "" {
		return s
	}
	if x < len(t.cols) {
		return t.cols[x].DefaultCellStyleName()
	}
	return ""
}

// StyleAt returns the cell style applying at column x and row y, or nil.
func (t *Table) StyleAt(x, y int) (*Style, error) {
	name, err := t.StyleNameAt(x, y)
	if err != nil {
		return nil, err
	}
	return t.ss.style(FamilyCell, name), nil
}

// SetColumnCount sets the number of columns, adding empty columns of the
// default width when growing.
func (t *Table) SetColumnCount(n int) error {
	return t.SetColumnCountFrom(n, -1, false)
}

// EnsureColumnCount grows the table to at least n columns.
func (t *Table) EnsureColumnCount(n int) error {
	if n > len(t.cols) {
		return t.SetColumnCount(n)
	}
	return nil
}

// SetColumnCountFrom sets the number of columns. New columns are clones of
// column colIndex, or when colIndex is negative empty columns with a new
// style of the default width. With keepTableWidth and a table width, column
// widths are scaled to keep the table width. Otherwise the table width
// becomes the sum of the column widths.
func (t *Table) SetColumnCountFrom(n, colIndex int, keepTableWidth bool) error {
	if n < 0 {
		return fmt.Errorf("%w: column count %d", ErrOutOfRange, n)
	}
	if grow := n - len(t.cols); grow < 0 {
		for _, c := range t.cols[n:] {
			odf.Detach(c.el)
		}
		t.cols = t.cols[:n]
	} else if grow > 0 {
		var tmpl *etree.Element
		if colIndex < 0 {
			style, err := t.newDefaultColumnStyle()
			if err != nil {
				return err
			}
			tmpl = newColumnElement(style.Name())
		} else {
			c, err := t.Column(colIndex)
			if err != nil {
				return err
			}
			tmpl = c.el
		}
		// columns come before rows, keep them together
		var anchor *etree.Element
		if len(t.cols) > 0 {
			anchor = t.cols[len(t.cols)-1].el
		}
		for i := 0; i < grow; i++ {
			clone := tmpl.Copy()
			if anchor != nil {
				odf.InsertAfter(anchor, clone)
			} else {
				odf.InsertElementAt(t.el, t.firstRowIndex(), clone)
			}
			anchor = clone
			t.cols = append(t.cols, &Column{t: t, el: clone})
		}
	}

	if err := t.updateWidths(keepTableWidth); err != nil {
		return err
	}
	for _, r := range t.rows {
		r.columnCountChanged(len(t.cols))
	}
	return nil
}

// firstRowIndex returns the element index of the first row, -1 when there is
// none.
func (t *Table) firstRowIndex() int {
	if len(t.rows) == 0 {
		return -1
	}
	return odf.ElementIndex(t.rows[0].el)
}

func (t *Table) newDefaultColumnStyle() (*Style, error) {
	content := t.ss.pkg.Content()
	style, err := NewStyle(content, FamilyColumn, "defaultCol")
	if err != nil {
		return nil, err
	}
	if err := style.SetWidth(defaultColumnWidth); err != nil {
		return nil, err
	}
	return style, nil
}

// updateWidths reconciles the table width with the column widths. Columns
// without a style or a width do not count.
func (t *Table) updateWidths(keepTableWidth bool) error {
	var (
		sum    float64
		styles []*Style
		seen   = make(map[*etree.Element]bool)
	)
	for _, c := range t.cols {
		s := c.Style()
		if s == nil {
			continue
		}
		w, err := s.Width()
		if err != nil {
			if errors.Is(err, ErrNoLength) {
				continue
			}
			return fmt.Errorf("column width: %w", err)
		}
		sum += w
		if !seen[s.el] {
			seen[s.el] = true
			styles = append(styles, s)
		}
	}

	tableWidth, err := t.Width()
	hasWidth := err == nil
	if err != nil && !errors.Is(err, ErrNoLength) {
		return fmt.Errorf("table width: %w", err)
	}

	if keepTableWidth && hasWidth {
		if sum == 0 {
			return nil
		}
		ratio := tableWidth / sum
		// once per style, columns may share one
		for _, s := range styles {
			w, err := s.Width()
			if err != nil {
				return err
			}
			if err := s.SetWidth(w * ratio); err != nil {
				return err
			}
		}
		return nil
	}

	if s := t.Style(); s != nil {
		if err := s.SetWidth(sum); err != nil {
			return err
		}
	}
	for _, s := range styles {
		s.RemoveRelWidth()
	}
	return nil
}

// SetRowCount sets the number of rows, appending empty rows when growing.
func (t *Table) SetRowCount(n int) error {
	return t.SetRowCountFrom(n, -1)
}

// EnsureRowCount grows the table to at least n rows.
func (t *Table) EnsureRowCount(n int) error {
	if n > len(t.rows) {
		return t.SetRowCount(n)
	}
	return nil
}

// SetRowCountFrom sets the number of rows. New rows are clones of row
// rowIndex, or when rowIndex is negative rows of ColumnCount empty cells, and
// are appended after the last row.
func (t *Table) SetRowCountFrom(n, rowIndex int) error {
	if n < 0 {
		return fmt.Errorf("%w: row count %d", ErrOutOfRange, n)
	}
	grow := n - len(t.rows)
	if grow < 0 {
		for _, r := range t.rows[n:] {
			odf.Detach(r.el)
		}
		t.rows = t.rows[:n]
		return nil
	}

	var tmpl *etree.Element
	if rowIndex < 0 {
		tmpl = etree.NewElement("table:table-row")
		if len(t.cols) > 0 {
			tmpl.AddChild(newCellElement(len(t.cols)))
		}
	} else {
		r, err := t.Row(rowIndex)
		if err != nil {
			return err
		}
		tmpl = r.el
	}
	for i := 0; i < grow; i++ {
		clone := tmpl.Copy()
		t.el.AddChild(clone)
		r, err := newRow(t, clone, len(t.rows))
		if err != nil {
			return err
		}
		t.rows = append(t.rows, r)
	}
	return nil
}

// Model returns a read-only view of the table from column col and row row to
// the last cell.
func (t *Table) Model(col, row int) TableModel {
	return t.ModelRange(col, row, len(t.cols), len(t.rows))
}

// ModelRange returns a read-only view of the columns [col, lastCol) and rows
// [row, lastRow).
func (t *Table) ModelRange(col, row, lastCol, lastRow int) TableModel {
	return &sheetModel{t: t, col: col, row: row, lastCol: lastCol, lastRow: lastRow}
}

// MutableModel returns a writable view of the table from column col and row
// row to the last cell.
func (t *Table) MutableModel(col, row int) MutableTableModel {
	return &mutableSheetModel{sheetModel{t: t, col: col, row: row, lastCol: len(t.cols), lastRow: len(t.rows)}}
}

// Merge writes m into the table with its top left corner at column col and
// row row, growing the table as needed. With includeColNames the column names
// of m are written first, on row row.
func (t *Table) Merge(m TableModel, col, row int, includeColNames bool) error {
	offset := 0
	if includeColNames {
		offset = 1
	}
	if err := t.EnsureColumnCount(col + m.ColumnCount()); err != nil {
		return err
	}
	if err := t.EnsureRowCount(row + m.RowCount() + offset); err != nil {
		return err
	}

	view := t.MutableModel(col, row)
	if includeColNames {
		for x := 0; x < m.ColumnCount(); x++ {
			if err := view.SetValueAt(m.ColumnName(x), 0, x); err != nil {
				return err
			}
		}
	}
	for y := 0; y < m.RowCount(); y++ {
		for x := 0; x < m.ColumnCount(); x++ {
			v, err := m.ValueAt(y, x)
			if err != nil {
				return err
			}
			if err := view.SetValueAt(v, y+offset, x); err != nil {
				return err
			}
		}
	}
	return nil
}
