package spreadsheet

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/tsawler/opendoc/odf"
)

const odNamespaces = `xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" ` +
	`xmlns:style="urn:oasis:names:tc:opendocument:xmlns:style:1.0" ` +
	`xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0" ` +
	`xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0" ` +
	`xmlns:draw="urn:oasis:names:tc:opendocument:xmlns:drawing:1.0" ` +
	`xmlns:fo="urn:oasis:names:tc:opendocument:xmlns:xsl-fo-compatible:1.0" ` +
	`xmlns:xlink="http://www.w3.org/1999/xlink" ` +
	`xmlns:dc="http://purl.org/dc/elements/1.1/" ` +
	`xmlns:meta="urn:oasis:names:tc:opendocument:xmlns:meta:1.0" ` +
	`xmlns:svg="urn:oasis:names:tc:opendocument:xmlns:svg-compatible:1.0"`

const testStyles = `<office:automatic-styles>
<style:style style:name="ta1" style:family="table"><style:table-properties style:width="60mm"/></style:style>
<style:style style:name="co1" style:family="table-column"><style:table-column-properties style:column-width="10mm" style:rel-column-width="1000*"/></style:style>
<style:style style:name="co2" style:family="table-column"><style:table-column-properties style:column-width="2cm"/></style:style>
<style:style style:name="co3" style:family="table-column"><style:table-column-properties style:column-width="30mm"/></style:style>
<style:style style:name="ro1" style:family="table-row"><style:table-row-properties style:row-height="5mm"/></style:style>
<style:style style:name="ce1" style:family="table-cell">
<style:table-cell-properties fo:background-color="#ffcc00"/>
<style:paragraph-properties fo:text-align="center"/>
<style:text-properties fo:font-weight="bold"/>
</style:style>
</office:automatic-styles>`

// dataTable is a 3x3 sheet with typed values, styles and a spanning cell.
const dataTable = `<table:table table:name="Data" table:style-name="ta1">
<table:table-column table:style-name="co1" table:default-cell-style-name="Default"/>
<table:table-column table:style-name="co2"/>
<table:table-column table:style-name="co3"/>
<table:table-row table:style-name="ro1">
<table:table-cell office:value-type="string"><text:p>Name</text:p></table:table-cell>
<table:table-cell table:style-name="ce1" office:value-type="string"><text:p>Amount</text:p></table:table-cell>
<table:table-cell/>
</table:table-row>
<table:table-row>
<table:table-cell><text:p>apples</text:p></table:table-cell>
<table:table-cell office:value-type="float" office:value="12.5"><text:p>twelve and a half</text:p></table:table-cell>
<table:table-cell office:value-type="date" office:date-value="2024-03-09"><text:p>09/03/2024</text:p></table:table-cell>
</table:table-row>
<table:table-row table:default-cell-style-name="ce1">
<table:table-cell table:number-columns-spanned="2" office:value-type="boolean" office:boolean-value="true"><text:p>TRUE</text:p></table:table-cell>
<table:covered-table-cell/>
<table:table-cell office:value-type="time" office:time-value="PT01H30M00S"><text:p>01:30:00</text:p></table:table-cell>
</table:table-row>
</table:table>`

// repeatTable relies on repeat attributes, including an oversized one.
const repeatTable = `<table:table table:name="Repeat">
<table:table-column table:number-columns-repeated="5"/>
<table:table-row table:number-rows-repeated="2"><table:table-cell table:number-columns-repeated="5"/></table:table-row>
<table:table-row table:number-rows-repeated="70000"><table:table-cell table:number-columns-repeated="5"/></table:table-row>
</table:table>`

const picsTable = `<table:table table:name="Pics">
<table:table-column/>
<table:table-row>
<table:table-cell><draw:frame draw:name="logo" svg:width="2cm" svg:height="1cm"><draw:image xlink:href="Pictures/old.png"/></draw:frame></table:table-cell>
<table:table-cell><text:p>no picture</text:p></table:table-cell>
</table:table-row>
</table:table>`

const namedRanges = `<table:named-expressions>
<table:named-range table:name="total" table:base-cell-address="$Data.$B$2" table:cell-range-address="$Data.$B$2"/>
<table:named-range table:name="broken" table:base-cell-address="$Missing.$A$1" table:cell-range-address="$Missing.$A$1"/>
</table:named-expressions>`

func spreadsheetContent(tables string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content ` + odNamespaces + ` office:version="1.0">
` + testStyles + `
<office:body><office:spreadsheet>` + tables + `</office:spreadsheet></office:body>
</office:document-content>`
}

const testMeta = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-meta ` + odNamespaces + ` office:version="1.0"><office:meta>
<meta:generator>calc</meta:generator>
<dc:title>Fruit</dc:title>
<dc:language>en-US</dc:language>
<meta:user-defined meta:name="reviewed" meta:value-type="boolean">true</meta:user-defined>
</office:meta></office:document-meta>`

// createTestODS builds an in-memory spreadsheet package with the given files,
// the mimetype entry first and stored.
func createTestODS(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	mw, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("Failed to create mimetype: %v", err)
	}
	if _, err := mw.Write([]byte("application/vnd.oasis.opendocument.spreadsheet")); err != nil {
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

// openTestSpreadSheet opens a package holding the Data, Repeat and Pics
// sheets.
func openTestSpreadSheet(t *testing.T) *SpreadSheet {
	t.Helper()
	data := createTestODS(t, map[string]string{
		"content.xml":      spreadsheetContent(dataTable + repeatTable + picsTable + namedRanges),
		"meta.xml":         testMeta,
		"Pictures/old.png": "old",
	})
	pkg, err := odf.OpenBytes(data)
	if err != nil {
		t.Fatalf("OpenBytes failed: %v", err)
	}
	ss, err := FromPackage(pkg)
	if err != nil {
		t.Fatalf("FromPackage failed: %v", err)
	}
	return ss
}

func sheet(t *testing.T, ss *SpreadSheet, name string) *Table {
	t.Helper()
	tbl, err := ss.SheetByName(name)
	if err != nil {
		t.Fatalf("SheetByName(%q) failed: %v", name, err)
	}
	return tbl
}
