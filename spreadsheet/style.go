package spreadsheet

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"

	"github.com/tsawler/opendoc/ns"
	"github.com/tsawler/opendoc/odf"
)

// Style families used by tables.
const (
	FamilyTable  = "table"
	FamilyColumn = "table-column"
	FamilyRow    = "table-row"
	FamilyCell   = "table-cell"
)

// Style is a style:style of one of the table families. The family decides
// which properties element and width attribute apply.
type Style struct {
	el *etree.Element
	ns ns.NS
}

func newStyle(n ns.NS, el *etree.Element) *Style {
	if el == nil {
		return nil
	}
	return &Style{el: el, ns: n}
}

// NewStyle creates an automatic style of family in doc named after base with
// the first free numeric suffix, eg "defaultCol0".
func NewStyle(doc *odf.Document, family, base string) (*Style, error) {
	name, ok := doc.FindUnusedName(family, base)
	if !ok {
		return nil, fmt.Errorf("no unused %s style name for %q", family, base)
	}
	el := etree.NewElement("style:style")
	el.CreateAttr("style:name", name)
	el.CreateAttr("style:family", family)
	doc.AddAutoStyle(el)
	return newStyle(doc.NS(), el), nil
}

// Element returns the underlying style:style.
func (s *Style) Element() *etree.Element { return s.el }

// Name returns style:name.
func (s *Style) Name() string { return odf.Attr(s.el, "style:name") }

// Family returns style:family.
func (s *Style) Family() string { return odf.Attr(s.el, "style:family") }

// ParentName returns style:parent-style-name.
func (s *Style) ParentName() string { return odf.Attr(s.el, "style:parent-style-name") }

// Properties returns the properties element of the style, creating it if
// needed: style:<family>-properties for OpenDocument, style:properties for
// OpenOffice.org 1.x.
func (s *Style) Properties() *etree.Element {
	if p := odf.FirstChild(s.el, s.propertiesName()); p != nil {
		return p
	}
	return s.el.CreateElement(s.propertiesName())
}

func (s *Style) propertiesName() string {
	if s.ns.IsOD() {
		return "style:" + s.Family() + "-properties"
	}
	return "style:properties"
}

// property returns the attribute q of the properties element without creating
// it.
func (s *Style) property(q string) (string, bool) {
	p := odf.FirstChild(s.el, s.propertiesName())
	if p == nil || !odf.HasAttr(p, q) {
		return "", false
	}
	return odf.Attr(p, q), true
}

func (s *Style) widthAttrs() (width, rel string, err error) {
	switch s.Family() {
	case FamilyTable:
		return "style:width", "style:rel-width", nil
	case FamilyColumn:
		return "style:column-width", "style:rel-column-width", nil
	default:
		return "", "", fmt.Errorf("style %q of family %q has no width", s.Name(), s.Family())
	}
}

// Width returns the declared width in millimetres. It returns ErrNoLength
// when the style does not declare one.
func (s *Style) Width() (float64, error) {
	attr, _, err := s.widthAttrs()
	if err != nil {
		return 0, err
	}
	v, ok := s.property(attr)
	if !ok {
		return 0, fmt.Errorf("style %q: %w", s.Name(), ErrNoLength)
	}
	return odf.ParseLength(v)
}

// Height returns style:row-height of a row style in millimetres.
func (s *Style) Height() (float64, error) {
	if s.Family() != FamilyRow {
		return 0, fmt.Errorf("style %q of family %q has no height", s.Name(), s.Family())
	}
	v, ok := s.property("style:row-height")
	if !ok {
		return 0, fmt.Errorf("style %q: %w", s.Name(), ErrNoLength)
	}
	return odf.ParseLength(v)
}

// SetWidth sets the width in millimetres.
func (s *Style) SetWidth(mm float64) error {
	attr, _, err := s.widthAttrs()
	if err != nil {
		return err
	}
	s.Properties().CreateAttr(attr, odf.FormatLength(mm))
	return nil
}

// RemoveRelWidth drops the relative width, which would otherwise contradict
// an absolute width set later.
func (s *Style) RemoveRelWidth() {
	_, rel, err := s.widthAttrs()
	if err != nil {
		return
	}
	if p := odf.FirstChild(s.el, s.propertiesName()); p != nil {
		p.RemoveAttr(rel)
	}
}

// BackgroundColor returns fo:background-color of the properties, eg
// "#ffcc00", or "".
func (s *Style) BackgroundColor() string {
	v, _ := s.property("fo:background-color")
	return v
}

// Bold reports whether the text properties set fo:font-weight to bold.
func (s *Style) Bold() bool {
	return s.attrIn("text", "fo:font-weight") == "bold"
}

// TextAlign returns fo:text-align of the paragraph properties, eg "center".
func (s *Style) TextAlign() string {
	return s.attrIn("paragraph", "fo:text-align")
}

// attrIn reads q from style:<kind>-properties, which OpenOffice.org 1.x folds
// into style:properties.
func (s *Style) attrIn(kind, q string) string {
	name := "style:properties"
	if s.ns.IsOD() {
		name = "style:" + kind + "-properties"
	}
	return odf.Attr(odf.FirstChild(s.el, name), q)
}

var (
	// ErrInvalidRef is returned for strings that are not cell references.
	ErrInvalidRef = errors.New("invalid cell reference")

	// ErrOutOfRange is returned for coordinates outside a table.
	ErrOutOfRange = errors.New("coordinates out of range")

	// ErrNoLength is returned when a style declares no width or height.
	ErrNoLength = errors.New("no length declared")

	// ErrNoImage is returned when setting the image of a cell without one.
	ErrNoImage = errors.New("cell has no image")
)
