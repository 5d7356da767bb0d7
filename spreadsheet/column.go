package spreadsheet

import (
	"github.com/beevik/etree"

	"github.com/tsawler/opendoc/odf"
)

// Column is a table:table-column of a flattened table.
type Column struct {
	t  *Table
	el *etree.Element
}

// newColumnElement returns an empty column using style. The default cell
// style keeps typed cells (eg dates) from being read as plain floats.
func newColumnElement(style string) *etree.Element {
	el := etree.NewElement("table:table-column")
	el.CreateAttr("table:style-name", style)
	el.CreateAttr("table:default-cell-style-name", "Default")
	return el
}

// Element returns the underlying table:table-column.
func (c *Column) Element() *etree.Element { return c.el }

// StyleName returns table:style-name.
func (c *Column) StyleName() string { return odf.Attr(c.el, "table:style-name") }

// DefaultCellStyleName returns table:default-cell-style-name.
func (c *Column) DefaultCellStyleName() string {
	return odf.Attr(c.el, "table:default-cell-style-name")
}

// Style returns the column style, or nil.
func (c *Column) Style() *Style {
	return c.t.ss.style(FamilyColumn, c.StyleName())
}

// Width returns the column width in millimetres.
func (c *Column) Width() (float64, error) {
	s := c.Style()
	if s == nil {
		return 0, ErrNoLength
	}
	return s.Width()
}
