package spreadsheet

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tsawler/opendoc/format"
	"github.com/tsawler/opendoc/ns"
	"github.com/tsawler/opendoc/odf"
)

// SpreadSheet is a calc document: its package and its tables in document
// order.
type SpreadSheet struct {
	pkg    *odf.Package
	sheets []*etree.Element
	tables []*Table

	// numbers formats cell text for lang, rebuilt when dc:language changes
	printerMu sync.Mutex
	lang      language.Tag
	numbers   *message.Printer
}

// Open reads the spreadsheet at filename.
func Open(filename string) (*SpreadSheet, error) {
	pkg, err := odf.Open(filename)
	if err != nil {
		return nil, err
	}
	return FromPackage(pkg)
}

// FromPackage returns the spreadsheet held by pkg.
func FromPackage(pkg *odf.Package) (*SpreadSheet, error) {
	if pkg.Content() == nil {
		return nil, fmt.Errorf("%s: %w", odf.ContentFile, odf.ErrNotFound)
	}
	ss := &SpreadSheet{pkg: pkg}
	body, err := ss.body()
	if err != nil {
		return nil, err
	}
	ss.sheets = odf.Children(body, "table:table")
	ss.tables = make([]*Table, len(ss.sheets))
	return ss, nil
}

// CreateEmpty builds a spreadsheet of version n with one sheet holding t,
// column names on the first row.
func CreateEmpty(t TableModel, n ns.NS) (*SpreadSheet, error) {
	doc := odf.NewEmptyDocument(n, "document")
	if !n.IsOD() {
		doc.Root().CreateAttr("office:class", "spreadsheet")
	}
	// office suites need automatic styles to be present
	doc.Child("automatic-styles", true)
	body := doc.Child("body", true)
	if n.IsOD() {
		body = body.CreateElement("office:spreadsheet")
	}
	body.CreateElement("table:table").CreateAttr("table:name", "Sheet1")

	pkg := odf.NewPackage()
	pkg.PutDocument(odf.ContentFile, doc)
	pkg.SetMimeType(format.ForKind(format.KindSpreadsheet, !n.IsOD()).MimeType())

	ss, err := FromPackage(pkg)
	if err != nil {
		return nil, err
	}
	sheet, err := ss.Sheet(0)
	if err != nil {
		return nil, err
	}
	if err := sheet.Merge(t, 0, 0, true); err != nil {
		return nil, err
	}
	return ss, nil
}

// Export saves t to filename as a new spreadsheet of version n. The format
// extension is appended when missing; the name actually written is returned.
func Export(t TableModel, filename string, n ns.NS) (string, error) {
	ss, err := CreateEmpty(t, n)
	if err != nil {
		return "", err
	}
	return ss.SaveAs(filename)
}

func (s *SpreadSheet) body() (*etree.Element, error) {
	body := s.pkg.Content().Child("body", false)
	if body == nil {
		return nil, odf.ErrNoBody
	}
	if !s.NS().IsOD() {
		return body, nil
	}
	if sp := odf.FirstChild(body, "office:spreadsheet"); sp != nil {
		return sp, nil
	}
	return nil, fmt.Errorf("office:spreadsheet: %w", odf.ErrNoBody)
}

// Package returns the underlying package.
func (s *SpreadSheet) Package() *odf.Package { return s.pkg }

// NS returns the namespace set of the content.
func (s *SpreadSheet) NS() ns.NS { return s.pkg.NS() }

// SheetCount returns the number of tables.
func (s *SpreadSheet) SheetCount() int { return len(s.sheets) }

// SheetNames returns the table names in document order.
func (s *SpreadSheet) SheetNames() []string {
	names := make([]string, len(s.sheets))
	for i, el := range s.sheets {
		names[i] = odf.Attr(el, "table:name")
	}
	return names
}

// Sheet returns table i.
func (s *SpreadSheet) Sheet(i int) (*Table, error) {
	if i < 0 || i >= len(s.sheets) {
		return nil, fmt.Errorf("%w: sheet %d of %d", ErrOutOfRange, i, len(s.sheets))
	}
	if s.tables[i] == nil {
		t, err := newTable(s, s.sheets[i])
		if err != nil {
			return nil, err
		}
		s.tables[i] = t
	}
	return s.tables[i], nil
}

// SheetByName returns the table called name.
func (s *SpreadSheet) SheetByName(name string) (*Table, error) {
	for i, el := range s.sheets {
		if odf.Attr(el, "table:name") == name {
			return s.Sheet(i)
		}
	}
	return nil, fmt.Errorf("sheet %q: %w", name, odf.ErrNotFound)
}

// ValueAt returns the value of the cell a named range points at. Cell
// references are rejected: they only make sense on a sheet.
func (s *SpreadSheet) ValueAt(namedRange string) (any, error) {
	if IsCellRef(namedRange) {
		return nil, fmt.Errorf("%w: %q is a cell reference, use it on a sheet", ErrInvalidRef, namedRange)
	}
	sheet, ref, err := s.resolve(namedRange)
	if err != nil {
		return nil, err
	}
	t, err := s.SheetByName(sheet)
	if err != nil {
		return nil, err
	}
	return t.ValueAtRef(ref)
}

// resolve returns the sheet and cell a named range starts at.
func (s *SpreadSheet) resolve(namedRange string) (sheet, ref string, err error) {
	body, err := s.body()
	if err != nil {
		return "", "", err
	}
	for _, r := range odf.Children(odf.FirstChild(body, "table:named-expressions"), "table:named-range") {
		if odf.Attr(r, "table:name") == namedRange {
			return splitAddress(odf.Attr(r, "table:base-cell-address"))
		}
	}
	return "", "", fmt.Errorf("named range %q: %w", namedRange, odf.ErrNotFound)
}

// style returns the style of family and name from the package, or nil.
func (s *SpreadSheet) style(family, name string) *Style {
	if name == "" {
		return nil
	}
	return newStyle(s.NS(), s.pkg.Style(family, name))
}

// language returns dc:language of the document metadata, English when unset
// or unparsable.
func (s *SpreadSheet) language() language.Tag {
	if d := s.meta(); d != nil {
		if lang := odf.FirstChild(d.Child("meta", false), "dc:language"); lang != nil {
			if tag, err := language.Parse(strings.TrimSpace(lang.Text())); err == nil {
				return tag
			}
		}
	}
	return language.English
}

// meta returns the document holding office:meta: meta.xml, or the content of
// a single XML document. It may be nil.
func (s *SpreadSheet) meta() *odf.Document {
	if d := s.pkg.MetaDocument(); d != nil {
		return d
	}
	if c := s.pkg.Content(); c.Root().Tag == "document" {
		return c
	}
	return nil
}

func (s *SpreadSheet) printer() *message.Printer {
	lang := s.language()
	s.printerMu.Lock()
	defer s.printerMu.Unlock()
	if s.numbers == nil || s.lang != lang {
		s.lang = lang
		s.numbers = message.NewPrinter(lang)
	}
	return s.numbers
}

// Write writes the package to w.
func (s *SpreadSheet) Write(w io.Writer) error { return s.pkg.Write(w) }

// SaveAs writes the package to filename, appending the format extension when
// missing, and returns the name written.
func (s *SpreadSheet) SaveAs(filename string) (string, error) {
	return s.pkg.SaveAs(filename)
}
