package odf

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// Name of the user-defined meta field persisting the merge counter. Without
// it, reopening a merged document and adding more content would reuse
// prefixes: P2 and _1P2 merged with another P2 and _1P2 would yield a second
// _1P2.
const countField = "SingleXMLDocument_count"

// PageBreakStyle is the paragraph style inserted between merged documents.
const PageBreakStyle = "PageBreak"

// Elements whose names are global to a document and must keep them across
// merges.
var dontPrefix = map[string]bool{
	"user-field-decl": true,
	"user-field-get":  true,
	"variable-get":    true,
	"variable-decl":   true,
	"variable-set":    true,
}

var dataStyles = []string{
	"number:number-style", "number:currency-style", "number:percentage-style",
	"number:date-style", "number:time-style", "number:boolean-style", "number:text-style",
}

// Single is a whole office document held in one XML tree (office:document),
// to which other documents can be appended. Names local to each appended
// document are prefixed with "_<n>", n being a counter incremented for each
// merge and persisted in the document metadata.
type Single struct {
	*Document

	mu        sync.Mutex
	pkg       *Package
	numero    int
	styles    map[string]bool
	lists     map[string]bool
	pageBreak *etree.Element
	log       *zap.Logger
	generator string
}

// Option configures a Single.
type Option func(*Single)

// WithLogger sets the logger, zap.NewNop by default.
func WithLogger(l *zap.Logger) Option {
	return func(s *Single) {
		if l != nil {
			s.log = l
		}
	}
}

// WithGenerator sets the meta:generator written to the document.
func WithGenerator(g string) Option {
	return func(s *Single) { s.generator = g }
}

// DefaultGenerator is written to meta:generator unless WithGenerator is used.
const DefaultGenerator = "opendoc"

// NewSingle builds a single document from the parts of a package. styles,
// settings and meta may be nil. content is modified in place and pkg, which
// may be nil, is updated to hold the single document as its only XML part.
func NewSingle(content, styles, settings, meta *Document, pkg *Package, opts ...Option) (*Single, error) {
	if content == nil {
		return nil, fmt.Errorf("content: %w", ErrNotFound)
	}
	for _, d := range []*Document{styles, settings, meta} {
		if d != nil && d.Version() != content.Version() {
			return nil, fmt.Errorf("%s part in %s document: %w", d.Version(), content.Version(), ErrVersionMismatch)
		}
	}
	if content.Child("body", false) == nil {
		return nil, fmt.Errorf("content: %w", ErrNoBody)
	}
	if pkg == nil {
		pkg = NewPackage()
	}

	s := &Single{
		Document:  content,
		pkg:       pkg,
		styles:    make(map[string]bool),
		lists:     make(map[string]bool),
		log:       zap.NewNop(),
		generator: DefaultGenerator,
	}
	for _, opt := range opts {
		opt(s)
	}

	// meta, then settings, then the rest
	for _, part := range []*Document{settings, meta} {
		if part == nil {
			continue
		}
		if top := part.Root().ChildElements(); len(top) > 0 {
			if err := content.SetChild(top[0].Copy()); err != nil {
				return nil, err
			}
		}
	}

	pkg.RemoveFile(StylesFile)
	pkg.RemoveFile(SettingsFile)
	pkg.RemoveFile(MetaFile)
	pkg.PutDocument(ContentFile, content)

	root := content.Root()
	root.Tag = "document"
	content.NS().Declare(root)
	root.CreateAttr("office:mimetype", pkg.MimeType())

	content.Child("meta", true)
	if err := pkg.SetGenerator(s.generator); err != nil {
		return nil, err
	}

	n, err := readCount(content)
	if err != nil {
		return nil, err
	}
	s.numero = n

	// common styles stay unprefixed so that they remain shared
	st := content.Child("styles", false)
	for _, el := range Children(st, "style:style") {
		s.styles[Attr(el, "style:name")] = true
	}
	for _, q := range dataStyles {
		for _, el := range Children(st, q) {
			s.styles[Attr(el, "style:name")] = true
		}
	}
	for _, el := range Children(st, "text:list-style") {
		s.lists[Attr(el, "style:name")] = true
	}

	if styles != nil {
		// automatic styles of styles.xml are unrelated to those of
		// content.xml, P1 of one is not P1 of the other
		if err := s.mergeAllStyles(styles, true); err != nil {
			return nil, fmt.Errorf("merging styles: %w", err)
		}
	}
	return s, nil
}

// FromPackage builds a single document from a package, which is modified to
// hold it.
func FromPackage(pkg *Package, opts ...Option) (*Single, error) {
	return NewSingle(pkg.Content(), pkg.Styles(), pkg.Settings(), pkg.MetaDocument(), pkg, opts...)
}

// OpenSingle reads the package at filename as a single document.
func OpenSingle(filename string, opts ...Option) (*Single, error) {
	pkg, err := Open(filename)
	if err != nil {
		return nil, err
	}
	return FromPackage(pkg, opts...)
}

// MergeCounter returns the merge counter persisted in the metadata of pkg, 0
// when the package was never merged into.
func MergeCounter(pkg *Package) (int, error) {
	d := pkg.MetaDocument()
	if d == nil {
		if d = pkg.Content(); d == nil || d.Root().Tag != "document" {
			return 0, nil
		}
	}
	return readCount(d)
}

func readCount(d *Document) (int, error) {
	m, err := d.UserMeta(countField, false)
	if err != nil || m == nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(m.Element().Text()), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid merge counter: %w", err)
	}
	return int(v), nil
}

func (s *Single) setNumero(n int) error {
	s.numero = n
	m, err := s.UserMeta(countField, true)
	if err != nil {
		return err
	}
	// user-defined fields come last in office:meta
	if p := m.Element().Parent(); p.ChildElements()[len(p.ChildElements())-1] != m.Element() {
		Detach(m.Element())
		p.AddChild(m.Element())
	}
	return m.SetValue(n)
}

// Counter returns the number of documents merged so far.
func (s *Single) Counter() int { return s.numero }

// Package returns the package holding the document.
func (s *Single) Package() *Package { return s.pkg }

// Clone returns a deep copy of the document and its package.
func (s *Single) Clone() *Single {
	s.mu.Lock()
	defer s.mu.Unlock()
	pkg := s.pkg.Clone()
	c := &Single{
		Document:  pkg.Content(),
		pkg:       pkg,
		numero:    s.numero,
		styles:    make(map[string]bool, len(s.styles)),
		lists:     make(map[string]bool, len(s.lists)),
		log:       s.log,
		generator: s.generator,
	}
	for k := range s.styles {
		c.styles[k] = true
	}
	for k := range s.lists {
		c.lists[k] = true
	}
	return c
}

// Write writes the package.
func (s *Single) Write(w io.Writer) error { return s.pkg.Write(w) }

// SaveAs writes the package to filename, see Package.SaveAs.
func (s *Single) SaveAs(filename string) (string, error) { return s.pkg.SaveAs(filename) }

func (s *Single) bodyPath() string {
	if !s.NS().IsOD() {
		return "./office:body"
	}
	kind := "text"
	if body := s.Child("body", false); body != nil {
		if c := body.ChildElements(); len(c) > 0 {
			kind = c[0].Tag
		}
	}
	return "./office:body/office:" + kind
}

// Body returns the element holding the content: office:body for OpenOffice.org
// 1.x documents, its office:text (or office:spreadsheet, ...) child for
// OpenDocument.
func (s *Single) Body() *etree.Element {
	el, _ := s.Descendant(s.bodyPath(), true)
	return el
}

// Add appends doc after a page break. A nil doc is a no-op.
func (s *Single) Add(doc *Single) error {
	return s.AddPageBreak(doc, true)
}

// AddPageBreak appends doc, preceded by a page break if pageBreak is true.
func (s *Single) AddPageBreak(doc *Single, pageBreak bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc == nil {
		return nil
	}
	if err := s.checkVersion(doc); err != nil {
		return err
	}
	if pageBreak {
		s.Body().AddChild(s.pageBreakElement())
	}
	return s.add(nil, -1, doc)
}

// AddAt inserts the body of doc as element child number index of where. A nil
// where appends to the body.
func (s *Single) AddAt(where *etree.Element, index int, doc *Single) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(where, index, doc)
}

// Replace puts the body of doc in place of el. A nil doc leaves el in place.
func (s *Single) Replace(el *etree.Element, doc *Single) error {
	if el == nil {
		return &PathError{Op: "replace", Err: fmt.Errorf("nil element: %w", ErrInvalidPath)}
	}
	if doc == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	parent := el.Parent()
	if parent == nil {
		return &PathError{Op: "replace", Path: el.FullTag(), Err: fmt.Errorf("element has no parent: %w", ErrInvalidPath)}
	}
	if err := s.add(parent, ElementIndex(el), doc); err != nil {
		return err
	}
	parent.RemoveChild(el)
	return nil
}

func (s *Single) checkVersion(doc *Single) error {
	if s.Version() != doc.Version() {
		return fmt.Errorf("cannot add %s document to %s document: %w", doc.Version(), s.Version(), ErrVersionMismatch)
	}
	return nil
}

func (s *Single) add(where *etree.Element, index int, doc *Single) error {
	if doc == nil {
		return nil
	}
	if err := s.checkVersion(doc); err != nil {
		return err
	}
	if err := s.setNumero(s.numero + 1); err != nil {
		return err
	}
	log := s.log.With(zap.Int("counter", s.numero))
	embedded := s.mergeEmbedded(doc)
	if err := s.AddIfNotPresent(doc.Document, "./office:settings", 0); err != nil {
		return fmt.Errorf("merging settings: %w", err)
	}
	if err := s.mergeAllStyles(doc.Document, false); err != nil {
		return fmt.Errorf("merging styles: %w", err)
	}
	if err := s.mergeBody(where, index, doc); err != nil {
		return fmt.Errorf("merging body: %w", err)
	}
	log.Debug("merged document", zap.Int("embedded", embedded))
	return nil
}

func (s *Single) prefix(v string) string {
	return "_" + strconv.Itoa(s.numero) + v
}

func (s *Single) mergeEmbedded(doc *Single) int {
	// our thumbnail no longer shows the whole document
	s.pkg.RemoveFile(ThumbnailFile)
	n := 0
	for _, name := range doc.pkg.Entries() {
		if IsStandardFile(name) {
			continue
		}
		e := doc.pkg.Entry(name)
		data, err := e.Bytes()
		if err != nil {
			s.log.Warn("skipping embedded entry", zap.String("name", name), zap.Error(err))
			continue
		}
		s.pkg.PutFile(s.prefix(name), append([]byte(nil), data...), e.MediaType)
		n++
	}
	return n
}

// sameDoc is true when doc holds the styles of this very document, whose
// references to embedded files must not be rewritten.
func (s *Single) mergeAllStyles(doc *Document, sameDoc bool) error {
	if err := s.mergeFontDecls(doc); err != nil {
		return err
	}
	// common styles only refer to other common styles
	if err := s.mergeStyles(doc); err != nil {
		return err
	}
	// automatic styles refer to each other, eg a paragraph style to an
	// automatic list style
	if err := s.mergeAutoStyles(doc, !sameDoc); err != nil {
		return err
	}
	return s.mergeMasterStyles(doc, !sameDoc)
}

func (s *Single) mergeFontDecls(doc *Document) error {
	var err error
	if s.NS().IsOD() {
		_, err = s.mergeUnique(doc, "font-face-decls", "style:font-face", "style:name", nil)
	} else {
		_, err = s.mergeUnique(doc, "font-decls", "style:font-decl", "style:name", nil)
	}
	return err
}

func (s *Single) mergeStyles(doc *Document) error {
	if _, err := s.mergeUnique(doc, "styles", "style:default-style", "style:family", nil); err != nil {
		return err
	}
	names, err := s.mergeUnique(doc, "styles", "style:style", "style:name", nil)
	if err != nil {
		return err
	}
	for _, n := range names {
		s.styles[n] = true
	}
	for _, q := range dataStyles {
		names, err := s.mergeUnique(doc, "styles", q, "style:name", nil)
		if err != nil {
			return err
		}
		for _, n := range names {
			s.styles[n] = true
		}
	}
	if err := s.AddIfNotPresent(doc, "./office:styles/text:outline-style", -1); err != nil {
		return err
	}
	names, err = s.mergeUnique(doc, "styles", "text:list-style", "style:name", nil)
	if err != nil {
		return err
	}
	for _, n := range names {
		s.lists[n] = true
	}
	for _, conf := range []string{"footnotes-configuration", "endnotes-configuration"} {
		if err := s.AddIfNotPresent(doc, "./office:styles/text:"+conf, -1); err != nil {
			return err
		}
	}
	return nil
}

func (s *Single) mergeAutoStyles(doc *Document, refs bool) error {
	theirs := doc.Child("automatic-styles", false)
	if theirs == nil {
		return nil
	}
	ours := s.Child("automatic-styles", true)
	var added []*etree.Element
	for _, el := range theirs.ChildElements() {
		name := findAttr(el, "style:name")
		if name == nil {
			continue
		}
		c := el.Copy()
		c.CreateAttr("style:name", s.prefix(name.Value))
		ours.AddChild(c)
		added = append(added, c)
	}
	for _, c := range added {
		s.prefixRefs(c, refs)
	}
	s.log.Debug("merged automatic styles", zap.Int("count", len(added)))
	return nil
}

func (s *Single) mergeMasterStyles(doc *Document, refs bool) error {
	_, err := s.mergeUnique(doc, "master-styles", "style:master-page", "style:name", func(el *etree.Element) (*etree.Element, error) {
		s.prefixRefs(el, refs)
		return el, nil
	})
	return err
}

// mergeUnique adds the elemQ children of doc's top element whose attrQ value
// is not used by one of ours. It returns the added values.
func (s *Single) mergeUnique(doc *Document, top, elemQ, attrQ string, transform Transform) ([]string, error) {
	ours := s.Child(top, true)
	seen := make(map[string]bool)
	for _, el := range Children(ours, elemQ) {
		if a := findAttr(el, attrQ); a != nil {
			seen[a.Value] = true
		}
	}
	var added []string
	for _, el := range Children(doc.Child(top, false), elemQ) {
		a := findAttr(el, attrQ)
		if a == nil || seen[a.Value] {
			continue
		}
		c := el.Copy()
		if transform != nil {
			var err error
			if c, err = transform(c); err != nil {
				return nil, err
			}
		}
		if c != nil {
			ours.AddChild(c)
		}
		seen[a.Value] = true
		added = append(added, a.Value)
	}
	return added, nil
}

func (s *Single) mergeBody(where *etree.Element, index int, doc *Single) error {
	transform := func(el *etree.Element) (*etree.Element, error) {
		switch el.Tag {
		case "sequence-decls":
			return nil, nil
		case "user-field-decls", "variable-decls":
			// one declaration per name in the whole document
			s.detachDuplicate(el)
		}
		s.prefixRefs(el, true)
		return el, nil
	}
	if where == nil {
		where, index = s.Body(), -1
	}
	return s.Document.AddAt(where, index, doc.Document, doc.bodyPath(), transform)
}

// detachDuplicate removes from a declarations element (eg
// text:user-field-decls) the declarations whose name we already declare.
func (s *Single) detachDuplicate(el *etree.Element) {
	singular := strings.TrimSuffix(el.Tag, "s")
	declared := make(map[string]bool)
	for _, decls := range Children(s.Body(), "text:"+el.Tag) {
		for _, d := range Children(decls, "text:"+singular) {
			declared[Attr(d, "text:name")] = true
		}
	}
	for _, d := range el.ChildElements() {
		if name := Attr(d, "text:name"); declared[name] {
			el.RemoveChild(d)
			s.log.Warn("dropping duplicate declaration", zap.String("element", d.FullTag()), zap.String("name", name))
		}
	}
}

// prefixRefs prefixes the references of el and its descendants. When refs is
// true the paths of embedded objects are rewritten too.
func (s *Single) prefixRefs(el *etree.Element, refs bool) {
	Walk(el, func(e *etree.Element) bool {
		for i := range e.Attr {
			a := &e.Attr[i]
			switch a.Space + ":" + a.Key {
			case "text:style-name", "table:style-name", "draw:style-name", "style:data-style-name":
				// text:list/@text:style-name references a list style
				if !s.lists[a.Value] && !s.styles[a.Value] {
					a.Value = s.prefix(a.Value)
				}
			case "style:list-style-name":
				if !s.lists[a.Value] {
					a.Value = s.prefix(a.Value)
				}
			case "style:page-master-name", "style:page-layout-name", "text:name", "form:name", "form:property-name":
				if !dontPrefix[e.Tag] {
					a.Value = s.prefix(a.Value)
				}
			case "xlink:href":
				if refs && Attr(e, "xlink:show") == "embed" {
					if p, ok := s.prefixPath(a.Value); ok {
						a.Value = p
					}
				}
			}
		}
		return true
	})
}

// prefixPath prefixes an in-package path, eg "./Object 1/content.xml". It
// returns false for external references.
func (s *Single) prefixPath(href string) (string, bool) {
	if !s.NS().IsOD() {
		// OpenOffice.org 1.x marks package paths with a #
		if rest, ok := strings.CutPrefix(href, "#"); ok {
			return "#" + s.prefix(rest), true
		}
		return "", false
	}
	// file names are often not escaped, consider them in the package
	u, err := url.Parse(href)
	inPkg := err != nil || (u.Scheme == "" && u.Host == "" && u.User == nil && u.Path != "" && !strings.HasPrefix(u.Path, "/"))
	if !inPkg {
		return "", false
	}
	if rest, ok := strings.CutPrefix(href, "./"); ok {
		return "./" + s.prefix(rest), true
	}
	return s.prefix(href), true
}

func (s *Single) pageBreakElement() *etree.Element {
	if s.pageBreak == nil {
		styles := s.Child("styles", true)
		exists := false
		for _, el := range Children(styles, "style:style") {
			if Attr(el, "style:name") == PageBreakStyle {
				exists = true
				break
			}
		}
		if !exists {
			st := etree.NewElement("style:style")
			st.CreateAttr("style:name", PageBreakStyle)
			st.CreateAttr("style:family", "paragraph")
			props := "style:properties"
			if s.NS().IsOD() {
				props = "style:paragraph-properties"
			}
			st.CreateElement(props).CreateAttr("fo:break-after", "page")
			styles.AddChild(st)
		}
		s.styles[PageBreakStyle] = true
		s.pageBreak = etree.NewElement("text:p")
		s.pageBreak.CreateAttr("text:style-name", PageBreakStyle)
	}
	return s.pageBreak.Copy()
}

// CheckStyles verifies that the styles referenced by the document are
// declared. It returns a description of the first problem found, or "". Not
// every kind of reference is checked.
func (s *Single) CheckStyles() string {
	declared := make(map[string]bool)
	byFamily := make(map[string]map[string]bool)
	for _, top := range []string{"styles", "automatic-styles"} {
		for _, el := range childElements(s.Child(top, false)) {
			name := Attr(el, "style:name")
			switch {
			case Is(el, "style:style"):
				family := Attr(el, "style:family")
				if byFamily[family] == nil {
					byFamily[family] = make(map[string]bool)
				}
				if byFamily[family][name] {
					return fmt.Sprintf("duplicate style in %s: %s", family, name)
				}
				byFamily[family][name] = true
				declared[name] = true
			case Is(el, "text:list-style"):
				declared[name] = true
			case el.Space == "number" && strings.HasSuffix(el.Tag, "-style"):
				declared[name] = true
			}
		}
	}

	var problem string
	Walk(s.Root(), func(e *etree.Element) bool {
		if problem != "" {
			return false
		}
		for _, a := range e.Attr {
			switch a.Space + ":" + a.Key {
			case "text:style-name", "table:style-name", "draw:style-name", "style:data-style-name", "style:list-style-name":
				if !declared[a.Value] {
					problem = fmt.Sprintf("unknown style referenced by %s in %s", a.FullKey(), outline(e))
					return false
				}
			}
		}
		return true
	})
	return problem
}

// outline serializes el without its children.
func outline(el *etree.Element) string {
	c := el.Copy()
	c.Child = nil
	d := etree.NewDocument()
	d.SetRoot(c)
	str, err := d.WriteToString()
	if err != nil {
		return "<" + el.FullTag() + ">"
	}
	return str
}
