package odf

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/tsawler/opendoc/ns"
)

// Top-level children of an office document in schema order. Only the single
// XML representation (office:document) may contain all of them.
var (
	orderOOo = []string{"meta", "settings", "script", "font-decls", "styles", "automatic-styles", "master-styles", "body"}
	orderOD  = []string{"meta", "settings", "script", "font-face-decls", "styles", "automatic-styles", "master-styles", "body"}
)

// Attribute holding the name of elements looked up by DescendantByName.
var namePrefixes = map[string]string{
	"table:table":   "table",
	"text:a":        "office",
	"draw:text-box": "draw",
	"draw:image":    "draw",
}

// Document is a parsed office XML part (content.xml, styles.xml, ...) along
// with the namespace set of its schema version.
type Document struct {
	doc   *etree.Document
	ns    ns.NS
	order []string
}

// NewDocument wraps an already parsed tree. The version is inferred from the
// namespace of the root element.
func NewDocument(d *etree.Document) (*Document, error) {
	root := d.Root()
	if root == nil {
		return nil, fmt.Errorf("empty document: %w", ErrInvalidPath)
	}
	n, err := ns.VersionOf(root)
	if err != nil {
		return nil, err
	}
	if root.Space != "office" {
		return nil, &PathError{Op: "open", Path: root.FullTag(), Err: fmt.Errorf("root is not an office element: %w", ErrInvalidPath)}
	}
	for _, a := range root.Attr {
		if a.Space != "xmlns" || !n.Has(a.Key) {
			continue
		}
		if want := n.MustURI(a.Key); a.Value != want {
			return nil, fmt.Errorf("prefix %q bound to %q, want %q: %w", a.Key, a.Value, want, ErrUnknownVersion)
		}
	}
	return newDocument(d, n), nil
}

func newDocument(d *etree.Document, n ns.NS) *Document {
	order := orderOD
	if !n.IsOD() {
		order = orderOOo
	}
	return &Document{doc: d, ns: n, order: order}
}

// ParseDocument parses XML data into a Document.
func ParseDocument(data []byte) (*Document, error) {
	d := etree.NewDocument()
	if err := d.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	return NewDocument(d)
}

// NewEmptyDocument creates a document whose root is office:<rootTag> with
// every namespace of n declared, eg "document-content".
func NewEmptyDocument(n ns.NS, rootTag string) *Document {
	d := etree.NewDocument()
	d.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := d.CreateElement("office:" + rootTag)
	n.Declare(root)
	root.CreateAttr("office:version", "1.0")
	return newDocument(d, n)
}

// ETree returns the underlying tree.
func (d *Document) ETree() *etree.Document { return d.doc }

// Root returns the root element.
func (d *Document) Root() *etree.Element { return d.doc.Root() }

// NS returns the namespace set of the document.
func (d *Document) NS() ns.NS { return d.ns }

// Version returns the schema version name.
func (d *Document) Version() string { return d.ns.Version() }

func (d *Document) rank(local string) int {
	for i, n := range d.order {
		if n == local {
			return i
		}
	}
	return -1
}

// Child returns the top-level office child named local, eg "body". When create
// is true and the child is missing it is inserted at its schema position;
// only the names of the top-level order can be created.
func (d *Document) Child(local string, create bool) *etree.Element {
	root := d.Root()
	if el := FirstChild(root, "office:"+local); el != nil || !create {
		return el
	}
	if d.rank(local) < 0 {
		return nil
	}
	el := etree.NewElement("office:" + local)
	d.insertOrdered(el)
	return el
}

// insertOrdered places el after the last top-level child preceding it in the
// schema order.
func (d *Document) insertOrdered(el *etree.Element) {
	root := d.Root()
	rank := d.rank(el.Tag)
	pos := 0
	for i, tok := range root.Child {
		c, ok := tok.(*etree.Element)
		if !ok {
			continue
		}
		if c.Space == "office" {
			if r := d.rank(c.Tag); r >= 0 && r < rank {
				pos = i + 1
			}
		}
	}
	root.InsertChildAt(pos, el)
}

// SetChild replaces the top-level child with the same name as el, or inserts
// el at its schema position.
func (d *Document) SetChild(el *etree.Element) error {
	if el.Space != "office" || d.rank(el.Tag) < 0 {
		return &PathError{Op: "set child", Path: el.FullTag(), Err: fmt.Errorf("not a top-level office element: %w", ErrInvalidPath)}
	}
	Detach(el)
	root := d.Root()
	if old := FirstChild(root, el.FullTag()); old != nil {
		idx := old.Index()
		root.RemoveChildAt(idx)
		root.InsertChildAt(idx, el)
		return nil
	}
	d.insertOrdered(el)
	return nil
}

var stepRE = regexp.MustCompile(`^([A-Za-z][\w.-]*):([A-Za-z_][\w.-]*)((?:\[@[A-Za-z][\w.-]*:[A-Za-z_][\w.-]*='[^']*'\])*)$`)
var predRE = regexp.MustCompile(`\[@([A-Za-z][\w.-]*):([A-Za-z_][\w.-]*)='([^']*)'\]`)

type pathStep struct {
	name  string
	preds [][2]string
}

func (d *Document) parsePath(path string) ([]pathStep, error) {
	p := strings.TrimPrefix(path, "./")
	if p == "" || p == "." {
		return nil, nil
	}
	var steps []pathStep
	for _, s := range strings.Split(p, "/") {
		m := stepRE.FindStringSubmatch(s)
		if m == nil {
			return nil, &PathError{Op: "parse", Path: path, Err: fmt.Errorf("bad step %q: %w", s, ErrInvalidPath)}
		}
		if !d.ns.Has(m[1]) {
			return nil, &PathError{Op: "parse", Path: path, Err: fmt.Errorf("unknown prefix %q: %w", m[1], ErrInvalidPath)}
		}
		st := pathStep{name: m[1] + ":" + m[2]}
		for _, pm := range predRE.FindAllStringSubmatch(m[3], -1) {
			if !d.ns.Has(pm[1]) {
				return nil, &PathError{Op: "parse", Path: path, Err: fmt.Errorf("unknown prefix %q: %w", pm[1], ErrInvalidPath)}
			}
			st.preds = append(st.preds, [2]string{pm[1] + ":" + pm[2], pm[3]})
		}
		steps = append(steps, st)
	}
	return steps, nil
}

func (s pathStep) matches(el *etree.Element) bool {
	if !Is(el, s.name) {
		return false
	}
	for _, p := range s.preds {
		if a := findAttr(el, p[0]); a == nil || a.Value != p[1] {
			return false
		}
	}
	return true
}

// Descendant resolves a path relative to the root, eg
// "./office:body/office:text" or
// "office:meta/meta:user-defined[@meta:name='x']". When create is true the
// missing elements are created, top-level office children at their schema
// position and deeper ones appended. A missing element without create yields
// nil and no error.
func (d *Document) Descendant(path string, create bool) (*etree.Element, error) {
	steps, err := d.parsePath(path)
	if err != nil {
		return nil, err
	}
	cur := d.Root()
	for i, st := range steps {
		var next *etree.Element
		for _, c := range cur.ChildElements() {
			if st.matches(c) {
				next = c
				break
			}
		}
		if next == nil {
			if !create {
				return nil, nil
			}
			space, local := splitQName(st.name)
			if i == 0 && space == "office" && d.rank(local) >= 0 && len(st.preds) == 0 {
				next = d.Child(local, true)
			} else {
				next = cur.CreateElement(st.name)
				for _, p := range st.preds {
					next.CreateAttr(p[0], p[1])
				}
			}
		}
		cur = next
	}
	return cur, nil
}

// DescendantByName returns the first element named qName under root whose
// name attribute equals name. Only table:table, text:a, draw:text-box and
// draw:image are supported. A nil root means the document root.
func (d *Document) DescendantByName(root *etree.Element, qName, name string) (*etree.Element, error) {
	prefix, ok := namePrefixes[qName]
	if !ok {
		return nil, &PathError{Op: "find by name", Path: qName, Err: fmt.Errorf("element has no name: %w", ErrInvalidPath)}
	}
	if root == nil {
		root = d.Root()
	}
	attr := prefix + ":name"
	var res *etree.Element
	for _, el := range Descendants(root, qName) {
		holder := el
		// OpenDocument names the enclosing frame rather than its content
		if d.ns.IsOD() && el.Space == "draw" && !HasAttr(el, attr) && Is(el.Parent(), "draw:frame") {
			holder = el.Parent()
		}
		if Attr(holder, attr) == name {
			res = el
			break
		}
	}
	return res, nil
}

// Style returns the style:style of the given family and name declared in
// office:styles, office:automatic-styles or anywhere under
// office:master-styles, or nil.
func (d *Document) Style(family, name string) *etree.Element {
	match := func(el *etree.Element) bool {
		return Is(el, "style:style") && Attr(el, "style:family") == family && Attr(el, "style:name") == name
	}
	for _, top := range []string{"styles", "automatic-styles"} {
		el := d.Child(top, false)
		if el == nil {
			continue
		}
		for _, c := range el.ChildElements() {
			if match(c) {
				return c
			}
		}
	}
	if ms := d.Child("master-styles", false); ms != nil {
		for _, c := range Descendants(ms, "style:style") {
			if match(c) {
				return c
			}
		}
	}
	return nil
}

// Number of suffixes tried by FindUnusedName.
const maxUnusedProbes = 1000

// FindUnusedName returns base followed by the smallest number in [0, 1000)
// not used by a style of family. It returns false if all are taken.
func (d *Document) FindUnusedName(family, base string) (string, bool) {
	for i := 0; i < maxUnusedProbes; i++ {
		name := base + strconv.Itoa(i)
		if d.Style(family, name) == nil {
			return name, true
		}
	}
	return "", false
}

// AddAutoStyle appends el to office:automatic-styles.
func (d *Document) AddAutoStyle(el *etree.Element) {
	d.Child("automatic-styles", true).AddChild(el)
}

// Transform is applied to each element copied from another document. A nil
// result drops the element.
type Transform func(*etree.Element) (*etree.Element, error)

// MergeAll appends the children of other's path to the element at the same
// path in d, creating it if needed.
func (d *Document) MergeAll(other *Document, path string, transform Transform) error {
	return d.addTo(func() (*etree.Element, error) { return d.Descendant(path, true) }, -1, other, path, transform)
}

// AddAt copies the element children of other's rpath, passes each through
// transform and inserts them as element child number index of parent. A
// negative index appends. A nil parent merges into rpath as MergeAll does.
// Nothing happens if other has no rpath.
func (d *Document) AddAt(parent *etree.Element, index int, other *Document, rpath string, transform Transform) error {
	if parent == nil {
		return d.MergeAll(other, rpath, transform)
	}
	if !d.contains(parent) {
		return &PathError{Op: "add", Path: parent.FullTag(), Err: fmt.Errorf("element not part of document: %w", ErrInvalidPath)}
	}
	return d.addTo(func() (*etree.Element, error) { return parent, nil }, index, other, rpath, transform)
}

func (d *Document) contains(el *etree.Element) bool {
	root := d.Root()
	for e := el; e != nil; e = e.Parent() {
		if e == root {
			return true
		}
	}
	return false
}

func (d *Document) addTo(target func() (*etree.Element, error), index int, other *Document, rpath string, transform Transform) error {
	src, err := other.Descendant(rpath, false)
	if err != nil {
		return err
	}
	if src == nil {
		return nil
	}
	var toAdd []*etree.Element
	for _, c := range src.ChildElements() {
		el := c.Copy()
		if transform != nil {
			if el, err = transform(el); err != nil {
				return err
			}
			if el == nil {
				continue
			}
		}
		toAdd = append(toAdd, el)
	}
	parent, err := target()
	if err != nil {
		return err
	}
	for i, el := range toAdd {
		if index < 0 {
			parent.AddChild(el)
		} else {
			InsertElementAt(parent, index+i, el)
		}
	}
	return nil
}

// AddIfNotPresent copies the element at path from other unless d already has
// one. It becomes element child number index of its parent; top-level office
// children always go to their schema position.
func (d *Document) AddIfNotPresent(other *Document, path string, index int) error {
	mine, err := d.Descendant(path, false)
	if err != nil || mine != nil {
		return err
	}
	theirs, err := other.Descendant(path, false)
	if err != nil || theirs == nil {
		return err
	}
	el := theirs.Copy()
	if theirs.Parent() == other.Root() && el.Space == "office" && d.rank(el.Tag) >= 0 {
		return d.SetChild(el)
	}
	parentPath := "."
	if i := strings.LastIndexByte(strings.TrimPrefix(path, "./"), '/'); i >= 0 {
		parentPath = strings.TrimPrefix(path, "./")[:i]
	}
	parent, err := d.Descendant(parentPath, true)
	if err != nil {
		return err
	}
	InsertElementAt(parent, index, el)
	return nil
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	return newDocument(d.doc.Copy(), d.ns)
}

// Bytes serializes the document, adding an XML declaration if missing.
func (d *Document) Bytes() ([]byte, error) {
	if !hasDecl(d.doc) {
		d.doc.InsertChildAt(0, etree.NewProcInst("xml", `version="1.0" encoding="UTF-8"`))
	}
	b, err := d.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize XML: %w", err)
	}
	return b, nil
}

// WriteTo writes the serialized document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	b, err := d.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// String returns the serialized document, or the error text.
func (d *Document) String() string {
	b, err := d.Bytes()
	if err != nil {
		return err.Error()
	}
	return string(b)
}

func hasDecl(d *etree.Document) bool {
	for _, tok := range d.Child {
		if p, ok := tok.(*etree.ProcInst); ok && p.Target == "xml" {
			return true
		}
	}
	return false
}
