package odf

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/beevik/etree"
)

const odNamespaces = `xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" ` +
	`xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0" ` +
	`xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" ` +
	`xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0" ` +
	`xmlns:draw="urn:oasis:names:tc:opendocument:xmlns:drawing:1.0" ` +
	`xmlns:fo="urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0" ` +
	`xmlns:xlink="http://www.w3.org/1999/xlink" ` +
	`xmlns:meta="urn:oasis:names:tc:opendocument:xmlns:meta:1.0" ` +
	`xmlns:svg="urn:oasis:names:tc:opendocument:xmlns:svg-compatible:1.0"`

const oooNamespaces = `xmlns:office="http://openoffice.org/2000/office" ` +
	`xmlns:style="http://openoffice.org/2000/style" ` +
	`xmlns:text="http://openoffice.org/2000/text" ` +
	`xmlns:table="http://openoffice.org/2000/table"`

const testStyles = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-styles ` + odNamespaces + ` office:version="1.0">
<office:font-face-decls><style:font-face style:name="Arial"/></office:font-face-decls>
<office:styles>
<style:default-style style:family="paragraph"/>
<style:style style:name="Standard" style:family="paragraph"/>
</office:styles>
<office:automatic-styles>
<style:page-layout style:name="pm1"/>
</office:automatic-styles>
<office:master-styles>
<style:master-page style:name="Standard" style:page-layout-name="pm1"/>
</office:master-styles>
</office:document-styles>`

// textContent returns an OpenDocument content.xml whose office:text holds
// body.
func textContent(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content ` + odNamespaces + ` office:version="1.0">
<office:font-face-decls><style:font-face style:name="Arial"/></office:font-face-decls>
<office:automatic-styles>
<style:style style:name="P1" style:family="paragraph" style:parent-style-name="Standard"/>
</office:automatic-styles>
<office:body><office:text>` + body + `</office:text></office:body>
</office:document-content>`
}

// createTestPackage builds an in-memory zip package with the given files, the
// mimetype entry first and stored.
func createTestPackage(t *testing.T, mimeType string, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	mw, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("Failed to create mimetype: %v", err)
	}
	if _, err := mw.Write([]byte(mimeType)); err != nil {
		t.Fatalf("Failed to write mimetype: %v", err)
	}

	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

func openTextPackage(t *testing.T, body string, extra map[string]string) *Package {
	t.Helper()
	files := map[string]string{
		"content.xml": textContent(body),
		"styles.xml":  testStyles,
	}
	for k, v := range extra {
		files[k] = v
	}
	pkg, err := OpenBytes(createTestPackage(t, "application/vnd.oasis.opendocument.text", files))
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	return pkg
}

func openTextSingle(t *testing.T, body string, extra map[string]string) *Single {
	t.Helper()
	s, err := FromPackage(openTextPackage(t, body, extra))
	if err != nil {
		t.Fatalf("FromPackage failed: %v", err)
	}
	return s
}

func newNamed(q, name string) *etree.Element {
	el := etree.NewElement(q)
	el.CreateAttr("style:name", name)
	return el
}
