package spreadsheet

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/opendoc/format"
	"github.com/tsawler/opendoc/ns"
	"github.com/tsawler/opendoc/odf"
)

func TestSpreadSheet_Sheets(t *testing.T) {
	ss := openTestSpreadSheet(t)

	assert.Equal(t, 3, ss.SheetCount())
	assert.Equal(t, []string{"Data", "Repeat", "Pics"}, ss.SheetNames())
	assert.True(t, ss.NS().IsOD())

	first, err := ss.Sheet(0)
	require.NoError(t, err)
	again, err := ss.SheetByName("Data")
	require.NoError(t, err)
	assert.Same(t, first, again)

	_, err = ss.Sheet(3)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = ss.SheetByName("Missing")
	assert.ErrorIs(t, err, odf.ErrNotFound)
}

func TestSpreadSheet_NamedRange(t *testing.T) {
	ss := openTestSpreadSheet(t)

	v, err := ss.ValueAt("total")
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)

	_, err = ss.ValueAt("B2")
	assert.ErrorIs(t, err, ErrInvalidRef)
	_, err = ss.ValueAt("nothing")
	assert.ErrorIs(t, err, odf.ErrNotFound)
	_, err = ss.ValueAt("broken")
	assert.ErrorIs(t, err, odf.ErrNotFound)
}

func TestFromPackage_NotASpreadsheet(t *testing.T) {
	data := createTestODS(t, map[string]string{
		"content.xml": `<office:document-content ` + odNamespaces + ` office:version="1.0"><office:body><office:text/></office:body></office:document-content>`,
	})
	pkg, err := odf.OpenBytes(data)
	require.NoError(t, err)

	_, err = FromPackage(pkg)
	assert.ErrorIs(t, err, odf.ErrNoBody)
}

func TestCreateEmpty(t *testing.T) {
	m := &SliceModel{
		Columns: []string{"name", "qty"},
		Rows:    [][]any{{"a", 1}, {"b", 2.5}},
	}

	ss, err := CreateEmpty(m, ns.OD())
	require.NoError(t, err)
	assert.Equal(t, format.ODS.MimeType(), ss.Package().MimeType())
	assert.Equal(t, []string{"Sheet1"}, ss.SheetNames())

	tbl, err := ss.Sheet(0)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.ColumnCount())
	assert.Equal(t, 3, tbl.RowCount())

	tests := []struct {
		ref  string
		want any
	}{
		{"A1", "name"},
		{"B1", "qty"},
		{"A2", "a"},
		{"B2", 1.0},
		{"A3", "b"},
		{"B3", 2.5},
	}
	for _, tt := range tests {
		v, err := tbl.ValueAtRef(tt.ref)
		require.NoError(t, err)
		assert.Equal(t, tt.want, v, tt.ref)
	}

	c, err := tbl.CellAtRef("B3")
	require.NoError(t, err)
	assert.Equal(t, "2.50", c.Text())
}

func TestCreateEmpty_OOo(t *testing.T) {
	m := &SliceModel{Rows: [][]any{{7}}}

	ss, err := CreateEmpty(m, ns.OOo())
	require.NoError(t, err)
	assert.Equal(t, format.SXC.MimeType(), ss.Package().MimeType())
	assert.Equal(t, "spreadsheet", odf.Attr(ss.Package().Content().Root(), "office:class"))

	tbl, err := ss.Sheet(0)
	require.NoError(t, err)
	c, err := tbl.CellAtRef("A2")
	require.NoError(t, err)
	assert.Equal(t, "float", odf.Attr(c.Element(), "table:value-type"))
	assert.Equal(t, "7", odf.Attr(c.Element(), "table:value"))
	assert.False(t, odf.HasAttr(c.Element(), "office:value-type"))

	v, err := tbl.ValueAtRef("A1")
	require.NoError(t, err)
	assert.Equal(t, "A", v, "unnamed columns get their letters")
}

func TestExport_RoundTrip(t *testing.T) {
	m := &SliceModel{
		Columns: []string{"fruit", "price"},
		Rows:    [][]any{{"apple", 0.5}, {"kiwi", 1.25}},
	}

	out, err := Export(m, filepath.Join(t.TempDir(), "prices"), ns.OD())
	require.NoError(t, err)
	assert.Equal(t, ".ods", filepath.Ext(out))
	_, err = os.Stat(out)
	require.NoError(t, err)

	ss, err := Open(out)
	require.NoError(t, err)
	tbl, err := ss.SheetByName("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.RowCount())

	v, err := tbl.ValueAtRef("B3")
	require.NoError(t, err)
	assert.Equal(t, 1.25, v)
	v, err = tbl.ValueAtRef("A2")
	require.NoError(t, err)
	assert.Equal(t, "apple", v)
}

func TestSpreadSheet_WriteKeepsChanges(t *testing.T) {
	ss := openTestSpreadSheet(t)
	tbl := sheet(t, ss, "Data")
	require.NoError(t, tbl.SetValueAt("pears", 0, 1))

	var buf bytes.Buffer
	require.NoError(t, ss.Write(&buf))

	pkg, err := odf.OpenBytes(buf.Bytes())
	require.NoError(t, err)
	reread, err := FromPackage(pkg)
	require.NoError(t, err)

	v, err := sheet(t, reread, "Data").ValueAt(0, 1)
	require.NoError(t, err)
	assert.Equal(t, "pears", v)
	// expanded repeats are written as they are
	assert.Equal(t, 12, sheet(t, reread, "Repeat").RowCount())
}

func TestSliceModel(t *testing.T) {
	m := &SliceModel{
		Columns: []string{"a"},
		Rows:    [][]any{{1, 2, 3}, {4}},
	}

	assert.Equal(t, 2, m.RowCount())
	assert.Equal(t, 3, m.ColumnCount())
	assert.Equal(t, "a", m.ColumnName(0))
	assert.Equal(t, "C", m.ColumnName(2))

	v, err := m.ValueAt(1, 2)
	require.NoError(t, err)
	assert.Nil(t, v)
	_, err = m.ValueAt(2, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)

	require.NoError(t, m.SetValueAt("x", 1, 2))
	assert.Equal(t, []any{4, nil, "x"}, m.Rows[1])
	assert.ErrorIs(t, m.SetValueAt("x", 5, 0), ErrOutOfRange)
}

func TestSpreadSheet_NumberPrinter(t *testing.T) {
	ss := openTestSpreadSheet(t)

	p := ss.printer()
	assert.Same(t, p, ss.printer(), "printer rebuilt for the same language")
	assert.Equal(t, "1,234.00", p.Sprintf("%.2f", 1234.0))

	lang := odf.FirstChild(ss.meta().Child("meta", false), "dc:language")
	require.NotNil(t, lang)
	lang.SetText("de")

	de := ss.printer()
	assert.NotSame(t, p, de)
	assert.Equal(t, "1.234,00", de.Sprintf("%.2f", 1234.0))
	assert.Same(t, de, ss.printer())
}
