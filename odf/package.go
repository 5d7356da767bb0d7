package odf

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/tsawler/opendoc/format"
	"github.com/tsawler/opendoc/ns"
)

// Standard entry names.
const (
	MimeTypeFile  = "mimetype"
	ContentFile   = "content.xml"
	StylesFile    = "styles.xml"
	SettingsFile  = "settings.xml"
	MetaFile      = "meta.xml"
	ManifestFile  = "META-INF/manifest.xml"
	ThumbnailFile = "Thumbnails/thumbnail.png"
)

var xmlParts = []string{ContentFile, StylesFile, SettingsFile, MetaFile}

// IsStandardFile reports whether name is one of the entries every package may
// carry, as opposed to embedded media and objects.
func IsStandardFile(name string) bool {
	switch name {
	case MimeTypeFile, ContentFile, StylesFile, SettingsFile, MetaFile, ManifestFile, ThumbnailFile:
		return true
	}
	return false
}

// Entry is a file of a package. XML parts have Doc set and Data empty.
type Entry struct {
	Name      string
	MediaType string
	Data      []byte
	Doc       *Document
}

// Bytes returns the content of the entry, serializing Doc if set.
func (e *Entry) Bytes() ([]byte, error) {
	if e.Doc != nil {
		return e.Doc.Bytes()
	}
	return e.Data, nil
}

// Package is an OpenDocument zip package.
type Package struct {
	entries map[string]*Entry
}

// NewPackage returns an empty package.
func NewPackage() *Package {
	return &Package{entries: make(map[string]*Entry)}
}

// Open reads the package at filename.
func Open(filename string) (*Package, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	defer zr.Close()
	return read(&zr.Reader)
}

// OpenReader reads a package from r.
func OpenReader(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	return read(zr)
}

// OpenBytes reads a package held in memory.
func OpenBytes(data []byte) (*Package, error) {
	return OpenReader(bytes.NewReader(data), int64(len(data)))
}

func read(zr *zip.Reader) (*Package, error) {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, "/") {
			files[f.Name] = f
		}
	}
	if _, ok := files[ContentFile]; !ok {
		return nil, fmt.Errorf("missing required file: %s: %w", ContentFile, ErrNotFound)
	}

	types := map[string]string{}
	if f, ok := files[ManifestFile]; ok {
		data, err := readFile(f)
		if err != nil {
			return nil, err
		}
		if types, err = parseManifest(data); err != nil {
			return nil, fmt.Errorf("parsing manifest: %w", err)
		}
	}

	p := NewPackage()
	for name, f := range files {
		if name == ManifestFile {
			continue
		}
		data, err := readFile(f)
		if err != nil {
			return nil, err
		}
		e := &Entry{Name: name, MediaType: types[name]}
		if isXMLPart(name) {
			doc, err := ParseDocument(data)
			if err != nil {
				return nil, fmt.Errorf("parsing %s: %w", name, err)
			}
			e.Doc = doc
			if e.MediaType == "" {
				e.MediaType = "text/xml"
			}
		} else {
			e.Data = data
			if e.MediaType == "" && name != MimeTypeFile {
				e.MediaType = mime.TypeByExtension(path.Ext(name))
			}
		}
		p.entries[name] = e
	}

	version := p.Content().Version()
	for _, name := range xmlParts {
		if e := p.entries[name]; e != nil && e.Doc.Version() != version {
			return nil, fmt.Errorf("%s is %s, content is %s: %w", name, e.Doc.Version(), version, ErrVersionMismatch)
		}
	}
	return p, nil
}

func isXMLPart(name string) bool {
	for _, n := range xmlParts {
		if n == name {
			return true
		}
	}
	return false
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	return data, nil
}

func parseManifest(data []byte) (map[string]string, error) {
	d := etree.NewDocument()
	if err := d.ReadFromBytes(data); err != nil {
		return nil, err
	}
	res := make(map[string]string)
	if d.Root() == nil {
		return res, nil
	}
	for _, fe := range d.Root().ChildElements() {
		if fe.Tag != "file-entry" {
			continue
		}
		var name, typ string
		for _, a := range fe.Attr {
			switch a.Key {
			case "full-path":
				name = a.Value
			case "media-type":
				typ = a.Value
			}
		}
		res[name] = typ
	}
	return res, nil
}

// Content returns the content.xml document, nil for an empty package.
func (p *Package) Content() *Document { return p.doc(ContentFile) }

// Styles returns the styles.xml document, or nil.
func (p *Package) Styles() *Document { return p.doc(StylesFile) }

// Settings returns the settings.xml document, or nil.
func (p *Package) Settings() *Document { return p.doc(SettingsFile) }

// MetaDocument returns the meta.xml document, or nil.
func (p *Package) MetaDocument() *Document { return p.doc(MetaFile) }

func (p *Package) doc(name string) *Document {
	if e := p.entries[name]; e != nil {
		return e.Doc
	}
	return nil
}

// NS returns the namespace set of the content, OpenDocument when the package
// has no content.
func (p *Package) NS() ns.NS {
	if c := p.Content(); c != nil {
		return c.NS()
	}
	return ns.OD()
}

// MimeType returns the mimetype entry, or the one implied by the content.
func (p *Package) MimeType() string {
	if e := p.entries[MimeTypeFile]; e != nil {
		return strings.TrimSpace(string(e.Data))
	}
	return p.Format().MimeType()
}

// SetMimeType replaces the mimetype entry.
func (p *Package) SetMimeType(m string) {
	p.PutFile(MimeTypeFile, []byte(m), "")
}

// Format returns the package format, from the mimetype entry when present,
// otherwise from the content.
func (p *Package) Format() format.Format {
	if e := p.entries[MimeTypeFile]; e != nil {
		return format.FromMimeType(string(e.Data))
	}
	c := p.Content()
	if c == nil {
		return format.Unknown
	}
	var kind format.Kind
	if c.NS().IsOD() {
		if body := c.Child("body", false); body != nil && len(body.ChildElements()) > 0 {
			kind = kindOf(body.ChildElements()[0].Tag)
		}
	} else {
		kind = kindOf(Attr(c.Root(), "office:class"))
	}
	return format.ForKind(kind, !c.NS().IsOD())
}

func kindOf(name string) format.Kind {
	switch name {
	case "text":
		return format.KindText
	case "spreadsheet":
		return format.KindSpreadsheet
	case "presentation":
		return format.KindPresentation
	case "drawing":
		return format.KindGraphics
	}
	return format.KindUnknown
}

// Entry returns the entry called name, or nil.
func (p *Package) Entry(name string) *Entry { return p.entries[name] }

// Entries returns the sorted entry names.
func (p *Package) Entries() []string {
	names := make([]string, 0, len(p.entries))
	for n := range p.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// PutFile adds or replaces a raw entry. An empty media type is guessed from
// the extension.
func (p *Package) PutFile(name string, data []byte, mediaType string) {
	if mediaType == "" && name != MimeTypeFile {
		mediaType = mime.TypeByExtension(path.Ext(name))
	}
	p.entries[name] = &Entry{Name: name, MediaType: mediaType, Data: data}
}

// PutDocument adds or replaces an XML entry.
func (p *Package) PutDocument(name string, doc *Document) {
	p.entries[name] = &Entry{Name: name, MediaType: "text/xml", Doc: doc}
}

// RemoveFile removes an entry, if present.
func (p *Package) RemoveFile(name string) {
	delete(p.entries, name)
}

// Style returns the style of family and name, searching content.xml first
// then styles.xml.
func (p *Package) Style(family, name string) *etree.Element {
	for _, d := range []*Document{p.Content(), p.Styles()} {
		if d == nil {
			continue
		}
		if s := d.Style(family, name); s != nil {
			return s
		}
	}
	return nil
}

// metaDocument returns the document holding office:meta, creating meta.xml
// if needed.
func (p *Package) metaDocument() *Document {
	if d := p.MetaDocument(); d != nil {
		return d
	}
	if c := p.Content(); c != nil && c.Root().Tag == "document" {
		return c
	}
	d := NewEmptyDocument(p.NS(), "document-meta")
	p.PutDocument(MetaFile, d)
	return d
}

// Generator returns meta:generator.
func (p *Package) Generator() string {
	d := p.MetaDocument()
	if d == nil {
		if d = p.Content(); d == nil {
			return ""
		}
	}
	el, _ := d.Descendant("office:meta/meta:generator", false)
	if el == nil {
		return ""
	}
	return el.Text()
}

// SetGenerator sets meta:generator.
func (p *Package) SetGenerator(g string) error {
	el, err := p.metaDocument().Descendant("office:meta/meta:generator", true)
	if err != nil {
		return err
	}
	el.SetText(g)
	return nil
}

// Write writes the package as a zip archive. The mimetype entry comes first
// and is stored uncompressed; the manifest is regenerated.
func (p *Package) Write(w io.Writer) error {
	zw := zip.NewWriter(w)
	mt := p.MimeType()
	f, err := zw.CreateHeader(&zip.FileHeader{Name: MimeTypeFile, Method: zip.Store})
	if err != nil {
		return fmt.Errorf("writing %s: %w", MimeTypeFile, err)
	}
	if _, err := io.WriteString(f, mt); err != nil {
		return fmt.Errorf("writing %s: %w", MimeTypeFile, err)
	}

	for _, name := range p.Entries() {
		if name == MimeTypeFile {
			continue
		}
		data, err := p.entries[name].Bytes()
		if err != nil {
			return fmt.Errorf("serializing %s: %w", name, err)
		}
		if err := writeDeflated(zw, name, data); err != nil {
			return err
		}
	}

	manifest, err := p.manifest(mt).WriteToBytes()
	if err != nil {
		return fmt.Errorf("serializing manifest: %w", err)
	}
	if err := writeDeflated(zw, ManifestFile, manifest); err != nil {
		return err
	}
	return zw.Close()
}

func writeDeflated(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (p *Package) manifest(mimeType string) *etree.Document {
	d := etree.NewDocument()
	d.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := d.CreateElement("manifest:manifest")
	root.CreateAttr("xmlns:manifest", p.NS().Manifest())
	entry := func(name, typ string) {
		fe := root.CreateElement("manifest:file-entry")
		fe.CreateAttr("manifest:media-type", typ)
		fe.CreateAttr("manifest:full-path", name)
	}
	entry("/", mimeType)
	for _, name := range p.Entries() {
		if name == MimeTypeFile {
			continue
		}
		entry(name, p.entries[name].MediaType)
	}
	return d
}

// SaveAs writes the package to filename, appending the extension of the
// package format when filename lacks it. It returns the actual file name.
func (p *Package) SaveAs(filename string) (string, error) {
	if ext := p.Format().Extension(); ext != "" && !strings.EqualFold(filepath.Ext(filename), ext) {
		filename += ext
	}
	f, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	if err := p.Write(f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return filename, nil
}

// Bytes returns the package as a zip archive in memory.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Clone returns a deep copy of the package and its documents.
func (p *Package) Clone() *Package {
	c := NewPackage()
	for name, e := range p.entries {
		ce := &Entry{Name: e.Name, MediaType: e.MediaType}
		if e.Doc != nil {
			ce.Doc = e.Doc.Clone()
		} else {
			ce.Data = append([]byte(nil), e.Data...)
		}
		c.entries[name] = ce
	}
	return c
}
