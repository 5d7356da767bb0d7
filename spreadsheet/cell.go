package spreadsheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/tsawler/opendoc/odf"
)

// Cell value types.
const (
	ValueFloat      = "float"
	ValuePercentage = "percentage"
	ValueCurrency   = "currency"
	ValueDate       = "date"
	ValueTime       = "time"
	ValueBoolean    = "boolean"
	ValueString     = "string"
)

// valueAttrs maps a value type to the attribute holding the value.
var valueAttrs = map[string]string{
	ValueFloat:      "value",
	ValuePercentage: "value",
	ValueCurrency:   "value",
	ValueDate:       "date-value",
	ValueTime:       "time-value",
	ValueBoolean:    "boolean-value",
	ValueString:     "string-value",
}

const dateTextLayout = "02/01/2006"

// Cell is one cell of a flattened row. Unlike the row's repeated elements it
// is unique, so it knows its coordinates.
type Cell struct {
	row *Row
	el  *etree.Element
	x   int
}

// Element returns the underlying table:table-cell or table:covered-table-cell.
func (c *Cell) Element() *etree.Element { return c.el }

// X returns the column index.
func (c *Cell) X() int { return c.x }

// Y returns the row index.
func (c *Cell) Y() int { return c.row.index }

// IsValid reports whether the cell is not covered by a spanning cell.
func (c *Cell) IsValid() bool { return !odf.Is(c.el, "table:covered-table-cell") }

// ColSpan returns table:number-columns-spanned, 1 when absent.
func (c *Cell) ColSpan() int { return c.span("table:number-columns-spanned") }

// RowSpan returns table:number-rows-spanned, 1 when absent.
func (c *Cell) RowSpan() int { return c.span("table:number-rows-spanned") }

func (c *Cell) span(q string) int {
	if n, err := strconv.Atoi(odf.Attr(c.el, q)); err == nil && n > 0 {
		return n
	}
	return 1
}

// value attributes live in office: for OpenDocument and table: for
// OpenOffice.org 1.x.
func (c *Cell) valueQName(local string) string {
	if c.row.t.ss.NS().IsOD() {
		return "office:" + local
	}
	return "table:" + local
}

// ValueType returns the value type, "" for an untyped cell.
func (c *Cell) ValueType() string {
	return odf.Attr(c.el, c.valueQName("value-type"))
}

// Value returns the cell value: float64 for float, percentage and currency,
// time.Time for date, time.Duration for time, bool for boolean and the text
// otherwise.
func (c *Cell) Value() (any, error) {
	vt := c.ValueType()
	if vt == "" || vt == ValueString {
		// office suites write string cells without string-value
		if q := c.valueQName(valueAttrs[ValueString]); vt != "" && odf.HasAttr(c.el, q) {
			return odf.Attr(c.el, q), nil
		}
		return textOf(odf.FirstChild(c.el, "text:p")), nil
	}
	attr, ok := valueAttrs[vt]
	if !ok {
		return nil, fmt.Errorf("cell %s: unknown value type %q", CellRef(c.X(), c.Y()), vt)
	}
	raw := odf.Attr(c.el, c.valueQName(attr))
	var (
		v   any
		err error
	)
	switch vt {
	case ValueFloat, ValuePercentage, ValueCurrency:
		v, err = strconv.ParseFloat(raw, 64)
	case ValueDate:
		v, err = odf.ParseDate(raw)
	case ValueTime:
		v, err = odf.ParseDuration(raw)
	case ValueBoolean:
		v, err = strconv.ParseBool(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("cell %s: %w", CellRef(c.X(), c.Y()), err)
	}
	return v, nil
}

// Text returns the text of every text:p of the cell, one per line.
func (c *Cell) Text() string {
	var lines []string
	for _, p := range odf.Children(c.el, "text:p") {
		lines = append(lines, textOf(p))
	}
	return strings.Join(lines, "\n")
}

func textOf(el *etree.Element) string {
	if el == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, tok := range e.Child {
			switch t := tok.(type) {
			case *etree.CharData:
				b.WriteString(t.Data)
			case *etree.Element:
				switch {
				case odf.Is(t, "text:s"):
					b.WriteByte(' ')
				case odf.Is(t, "text:tab"):
					b.WriteByte('\t')
				default:
					walk(t)
				}
			}
		}
	}
	walk(el)
	return b.String()
}

// SetValue sets the value and its displayed text. Numbers become floats shown
// with two decimals in the document language, time.Time a date, time.Duration
// a time and bool a boolean. Anything else is stored as text.
func (c *Cell) SetValue(v any) {
	switch v := v.(type) {
	case nil:
		c.setValue("", "", "")
	case time.Time:
		c.setValue(ValueDate, v.Format(odf.DateLayout), v.Format(dateTextLayout))
	case time.Duration:
		c.setValue(ValueTime, odf.FormatDuration(v), formatClock(v))
	case bool:
		c.setValue(ValueBoolean, strconv.FormatBool(v), strings.ToUpper(strconv.FormatBool(v)))
	case string:
		c.setValue("", "", v)
	case fmt.Stringer:
		c.setValue("", "", v.String())
	default:
		if f, ok := toFloat(v); ok {
			text := c.row.t.ss.printer().Sprintf("%.2f", f)
			c.setValue(ValueFloat, strconv.FormatFloat(f, 'f', -1, 64), text)
			return
		}
		c.setValue("", "", fmt.Sprint(v))
	}
}

func formatClock(d time.Duration) string {
	s := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s/60%60, s%60)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// ClearValue removes the value and the content of the cell.
func (c *Cell) ClearValue() {
	c.removeValueAttrs()
	clearChildren(c.el)
}

func (c *Cell) setValue(typ, value, text string) {
	c.removeValueAttrs()
	if typ != "" {
		c.el.CreateAttr(c.valueQName("value-type"), typ)
		c.el.CreateAttr(c.valueQName(valueAttrs[typ]), value)
	}
	clearChildren(c.el)
	c.el.CreateElement("text:p").SetText(text)
}

func (c *Cell) removeValueAttrs() {
	vt := c.ValueType()
	if vt == "" {
		return
	}
	c.el.RemoveAttr(c.valueQName("value-type"))
	if attr, ok := valueAttrs[vt]; ok {
		c.el.RemoveAttr(c.valueQName(attr))
	}
}

func clearChildren(el *etree.Element) {
	for len(el.Child) > 0 {
		el.RemoveChildAt(0)
	}
}

// StyleName returns the name of the style that applies to the cell: its own,
// else the default of its row, else the default of its column.
func (c *Cell) StyleName() string {
	return c.row.t.styleNameAt(c.x, c.row)
}

// SetStyleName sets table:style-name.
func (c *Cell) SetStyleName(name string) {
	c.el.CreateAttr("table:style-name", name)
}

// ReplaceText replaces every occurrence of old in the text of the cell.
func (c *Cell) ReplaceText(old, repl string) {
	odf.Walk(c.el, func(e *etree.Element) bool {
		for _, tok := range e.Child {
			if cd, ok := tok.(*etree.CharData); ok {
				cd.Data = strings.ReplaceAll(cd.Data, old, repl)
			}
		}
		return true
	})
}

// SetImage replaces the picture of the image frame in the cell with data,
// stored as Pictures/name. Nil data removes the frame and its picture. It
// returns ErrNoImage if the cell has no image to replace.
func (c *Cell) SetImage(name string, data []byte) error {
	frame := odf.FirstChild(c.el, "draw:frame")
	var img *etree.Element
	if frame != nil {
		img = odf.NewFrame(frame).Image()
	}
	if img == nil {
		if data == nil {
			return nil
		}
		return fmt.Errorf("cell %s: %w", CellRef(c.X(), c.Y()), ErrNoImage)
	}

	pkg := c.row.t.ss.pkg
	pkg.RemoveFile(odf.Attr(img, "xlink:href"))
	if data == nil {
		odf.Detach(frame)
		return nil
	}
	href := "Pictures/" + name
	img.CreateAttr("xlink:href", href)
	pkg.PutFile(href, data, "")
	return nil
}
