package opendoc

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tsawler/opendoc/odf"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const odNamespaces = `xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" ` +
	`xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0" ` +
	`xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" ` +
	`xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0" ` +
	`xmlns:meta="urn:oasis:names:tc:opendocument:xmlns:meta:1.0"`

const oooNamespaces = `xmlns:office="http://openoffice.org/2000/office" ` +
	`xmlns:style="http://openoffice.org/2000/style" ` +
	`xmlns:text="http://openoffice.org/2000/text" ` +
	`xmlns:table="http://openoffice.org/2000/table"`

const (
	odtMime = "application/vnd.oasis.opendocument.text"
	odsMime = "application/vnd.oasis.opendocument.spreadsheet"
	sxwMime = "application/vnd.sun.xml.writer"
)

// textDoc returns a content.xml with one automatic paragraph style P1 and
// the given paragraphs.
func textDoc(paras ...string) string {
	var body strings.Builder
	for _, p := range paras {
		body.WriteString(`<text:p text:style-name="P1">` + p + `</text:p>`)
	}
	return `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content ` + odNamespaces + ` office:version="1.0">
<office:automatic-styles><style:style style:name="P1" style:family="paragraph"/></office:automatic-styles>
<office:body><office:text>` + body.String() + `</office:text></office:body>
</office:document-content>`
}

// writePackage writes a zip package with the given mimetype and content.xml
// into dir and returns its path.
func writePackage(t *testing.T, dir, name, mimeType, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", name, err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	mw, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("Failed to create mimetype: %v", err)
	}
	if _, err := mw.Write([]byte(mimeType)); err != nil {
		t.Fatalf("Failed to write mimetype: %v", err)
	}
	cw, err := w.Create("content.xml")
	if err != nil {
		t.Fatalf("Failed to create content.xml: %v", err)
	}
	if _, err := cw.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write content.xml: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	return path
}

func paragraphs(doc *odf.Single) []string {
	var texts []string
	for _, p := range odf.Children(doc.Body(), "text:p") {
		texts = append(texts, p.Text())
	}
	return texts
}

func TestMerge_AppendsInOrder(t *testing.T) {
	dir := t.TempDir()
	a := writePackage(t, dir, "a.odt", odtMime, textDoc("one"))
	b := writePackage(t, dir, "b.odt", odtMime, textDoc("two"))
	c := writePackage(t, dir, "c.odt", odtMime, textDoc("three"))

	doc, warnings, err := Merge(a, b, c).Document(context.Background())
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %s", FormatWarnings(warnings))
	}
	if doc.Counter() != 2 {
		t.Errorf("expected counter 2, got %d", doc.Counter())
	}

	// page breaks are empty paragraphs
	got := strings.Join(paragraphs(doc), "|")
	if got != "one||two||three" {
		t.Errorf("unexpected body %q", got)
	}

	for _, name := range []string{"P1", "_1P1", "_2P1"} {
		if doc.Style("paragraph", name) == nil {
			t.Errorf("expected style %s", name)
		}
	}
}

func TestMerge_WithoutPageBreaks(t *testing.T) {
	dir := t.TempDir()
	a := writePackage(t, dir, "a.odt", odtMime, textDoc("one"))
	b := writePackage(t, dir, "b.odt", odtMime, textDoc("two", "more"))

	doc, _, err := Merge(a, b).WithoutPageBreaks().Document(context.Background())
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if got := strings.Join(paragraphs(doc), "|"); got != "one|two|more" {
		t.Errorf("unexpected body %q", got)
	}
}

func TestMerger_ChainIsImmutable(t *testing.T) {
	base := Merge("a.odt")
	derived := base.WithoutPageBreaks().CheckStyles().Concurrency(1)

	if !base.options.pageBreaks || base.options.checkStyles || base.options.concurrency != 0 {
		t.Error("base merger was modified by chained calls")
	}
	if derived.options.pageBreaks || !derived.options.checkStyles {
		t.Error("derived merger lacks its options")
	}
	if !derived.PageBreaks(true).options.pageBreaks {
		t.Error("PageBreaks(true) not applied")
	}

	paths := base.Paths()
	paths[0] = "changed"
	if base.Paths()[0] != "a.odt" {
		t.Error("Paths exposed the internal slice")
	}
}

func TestMerge_CheckStylesWarns(t *testing.T) {
	dir := t.TempDir()
	a := writePackage(t, dir, "a.odt", odtMime, strings.Replace(textDoc("one"), `text:style-name="P1"`, `text:style-name="Ghost"`, 1))
	b := writePackage(t, dir, "b.odt", odtMime, textDoc("two"))

	core, logs := observer.New(zap.WarnLevel)
	_, warnings, err := Merge(a, b).CheckStyles().Logger(zap.New(core)).Document(context.Background())
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0].Message, "Ghost") {
		t.Fatalf("expected a warning about Ghost, got %v", warnings)
	}
	if warnings[0].Source != a {
		t.Errorf("expected warning source %s, got %s", a, warnings[0].Source)
	}
	if logs.FilterMessage("style check failed").Len() != 1 {
		t.Error("expected the style problem to be logged")
	}
}

func TestMerge_MixedKindsWarn(t *testing.T) {
	dir := t.TempDir()
	a := writePackage(t, dir, "a.odt", odtMime, textDoc("one"))
	b := writePackage(t, dir, "b.ods", odsMime, textDoc("two"))

	_, warnings, err := Merge(a, b).Document(context.Background())
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Source != b {
		t.Fatalf("expected one warning about %s, got %v", b, warnings)
	}
	if !strings.Contains(warnings[0].String(), "spreadsheet document merged into a text document") {
		t.Errorf("unexpected warning %q", warnings[0])
	}
}

func TestMerge_VersionMismatch(t *testing.T) {
	dir := t.TempDir()
	a := writePackage(t, dir, "a.odt", odtMime, textDoc("one"))
	b := writePackage(t, dir, "b.sxw", sxwMime, `<office:document-content `+oooNamespaces+`><office:body><text:p>old</text:p></office:body></office:document-content>`)

	_, _, err := Merge(a, b).Document(context.Background())
	if !errors.Is(err, odf.ErrVersionMismatch) {
		t.Errorf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestMerge_Errors(t *testing.T) {
	dir := t.TempDir()
	a := writePackage(t, dir, "a.odt", odtMime, textDoc("one"))

	if _, _, err := Merge().Document(context.Background()); !errors.Is(err, ErrNoInput) {
		t.Errorf("expected ErrNoInput, got %v", err)
	}

	_, _, err := Merge(a, filepath.Join(dir, "missing.odt")).Concurrency(1).Document(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing.odt") {
		t.Errorf("expected an error naming the missing file, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Merge(a, a).Document(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMerge_SaveAs(t *testing.T) {
	dir := t.TempDir()
	a := writePackage(t, dir, "a.odt", odtMime, textDoc("one"))
	b := writePackage(t, dir, "b.odt", odtMime, textDoc("two"))

	name := MustMerge(Merge(a, b).Generator("odkit test").SaveAs(context.Background(), filepath.Join(dir, "merged")))
	if filepath.Ext(name) != ".odt" {
		t.Errorf("expected .odt extension, got %s", name)
	}

	doc := Must(odf.OpenSingle(name))
	if doc.Counter() != 1 {
		t.Errorf("expected persisted counter 1, got %d", doc.Counter())
	}
	if got := doc.Package().Generator(); got == "" {
		t.Error("expected a generator")
	}
}

func TestMust_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected Must to panic")
		}
	}()
	Must(odf.OpenSingle(filepath.Join(t.TempDir(), "missing.odt")))
}

func TestFormatWarnings(t *testing.T) {
	got := FormatWarnings([]Warning{{Source: "a.odt", Message: "first"}, {Message: "second"}})
	if got != "a.odt: first; second" {
		t.Errorf("unexpected %q", got)
	}
	if FormatWarnings(nil) != "" {
		t.Error("expected empty string for no warnings")
	}
}
