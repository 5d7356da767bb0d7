package odf

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Millimetres per unit.
var unitsToMM = map[string]float64{
	"mm": 1,
	"cm": 10,
	"in": 25.4,
	"pt": 25.4 / 72,
	"pc": 25.4 / 6,
}

// ParseLength converts an ODF length such as "1.53cm" to millimetres.
func ParseLength(s string) (float64, error) {
	s = strings.TrimSpace(s)
	i := len(s)
	for i > 0 && (s[i-1] < '0' || s[i-1] > '9') && s[i-1] != '.' {
		i--
	}
	num, unit := s[:i], strings.ToLower(s[i:])
	if unit == "" {
		return 0, &UnitError{Value: s}
	}
	factor, ok := unitsToMM[unit]
	if !ok {
		return 0, &UnitError{Value: s, Unit: unit}
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, &UnitError{Value: s, Unit: unit}
	}
	return v * factor, nil
}

// FormatLength formats millimetres as an ODF length, eg "12.5mm".
func FormatLength(mm float64) string {
	return strconv.FormatFloat(mm, 'f', -1, 64) + "mm"
}

// Frame is a draw:frame, the positioned box holding images and text boxes.
type Frame struct {
	el *etree.Element
}

// NewFrame wraps a draw:frame element.
func NewFrame(el *etree.Element) *Frame { return &Frame{el: el} }

// Element returns the wrapped element.
func (f *Frame) Element() *etree.Element { return f.el }

// Name returns draw:name.
func (f *Frame) Name() string { return Attr(f.el, "draw:name") }

// Width returns svg:width in millimetres.
func (f *Frame) Width() (float64, error) { return f.svg("width") }

// Height returns svg:height in millimetres.
func (f *Frame) Height() (float64, error) { return f.svg("height") }

// X returns svg:x in millimetres.
func (f *Frame) X() (float64, error) { return f.svg("x") }

// Y returns svg:y in millimetres.
func (f *Frame) Y() (float64, error) { return f.svg("y") }

// Ratio returns width divided by height.
func (f *Frame) Ratio() (float64, error) {
	w, err := f.Width()
	if err != nil {
		return 0, err
	}
	h, err := f.Height()
	if err != nil {
		return 0, err
	}
	return w / h, nil
}

// SetSVGAttr sets the svg attribute name, eg "width", to mm millimetres.
func (f *Frame) SetSVGAttr(name string, mm float64) {
	f.el.CreateAttr("svg:"+name, FormatLength(mm))
}

func (f *Frame) svg(name string) (float64, error) {
	return ParseLength(Attr(f.el, "svg:"+name))
}

// Image returns the draw:image of the frame, or nil.
func (f *Frame) Image() *etree.Element { return FirstChild(f.el, "draw:image") }
