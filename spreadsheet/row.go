package spreadsheet

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/tsawler/opendoc/odf"
)

// Repeat counts above maxRepeated are treated as cappedRepeated. Office suites
// pad sheets with a huge repeated trailing row or column that would otherwise
// be materialized.
const (
	maxRepeated    = 60000
	cappedRepeated = 10
)

// flatten expands the children of parent accepted by match that carry the
// repeat attribute attr: the attribute is removed and count-1 clones are
// inserted after the original. It returns the accepted children in order.
func flatten(parent *etree.Element, match func(*etree.Element) bool, attr string) ([]*etree.Element, error) {
	var res []*etree.Element
	for _, c := range parent.ChildElements() {
		if !match(c) {
			continue
		}
		res = append(res, c)
		if !odf.HasAttr(c, attr) {
			continue
		}
		v := odf.Attr(c, attr)
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, &odf.PathError{Op: "expand", Path: attr, Err: fmt.Errorf("bad repeat count %q", v)}
		}
		c.RemoveAttr(attr)
		if n > maxRepeated {
			n = cappedRepeated
		}
		prev := c
		for i := 1; i < n; i++ {
			clone := c.Copy()
			odf.InsertAfter(prev, clone)
			res = append(res, clone)
			prev = clone
		}
	}
	return res, nil
}

func isCell(el *etree.Element) bool {
	return odf.Is(el, "table:table-cell") || odf.Is(el, "table:covered-table-cell")
}

// newCellElement returns an empty cell repeated count times.
func newCellElement(count int) *etree.Element {
	el := etree.NewElement("table:table-cell")
	if count > 1 {
		el.CreateAttr("table:number-columns-repeated", strconv.Itoa(count))
	}
	return el
}

// Row is a table:table-row of a flattened table.
type Row struct {
	t     *Table
	el    *etree.Element
	index int
	cells []*etree.Element
}

func newRow(t *Table, el *etree.Element, index int) (*Row, error) {
	cells, err := flatten(el, isCell, "table:number-columns-repeated")
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", index, err)
	}
	return &Row{t: t, el: el, index: index, cells: cells}, nil
}

// Element returns the underlying table:table-row.
func (r *Row) Element() *etree.Element { return r.el }

// Index returns the 0-based position of the row in its table.
func (r *Row) Index() int { return r.index }

// CellCount returns the number of cells, which after a column count change
// equals the column count of the table.
func (r *Row) CellCount() int { return len(r.cells) }

// CellAt returns the cell at column x.
func (r *Row) CellAt(x int) (*Cell, error) {
	if x < 0 || x >= len(r.cells) {
		return nil, fmt.Errorf("%w: column %d of row %d", ErrOutOfRange, x, r.index)
	}
	return &Cell{row: r, el: r.cells[x], x: x}, nil
}

// DefaultCellStyleName returns table:default-cell-style-name.
func (r *Row) DefaultCellStyleName() string {
	return odf.Attr(r.el, "table:default-cell-style-name")
}

// StyleName returns table:style-name.
func (r *Row) StyleName() string { return odf.Attr(r.el, "table:style-name") }

// columnCountChanged pads the row with empty cells or truncates it so that it
// has n cells.
func (r *Row) columnCountChanged(n int) {
	for len(r.cells) > n {
		last := r.cells[len(r.cells)-1]
		odf.Detach(last)
		r.cells = r.cells[:len(r.cells)-1]
	}
	for len(r.cells) < n {
		c := newCellElement(1)
		if len(r.cells) > 0 {
			odf.InsertAfter(r.cells[len(r.cells)-1], c)
		} else {
			r.el.AddChild(c)
		}
		r.cells = append(r.cells, c)
	}
}
