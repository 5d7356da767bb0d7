package spreadsheet

import (
	"fmt"
	"strings"
	"time"

	"github.com/tsawler/opendoc/model"
	"github.com/tsawler/opendoc/odf"
)

// ToModel converts the table into the intermediate representation: cell
// texts, spans and the cell styles, with column widths and row heights when
// declared.
func (t *Table) ToModel() *model.Table {
	cols := len(t.cols)
	for _, r := range t.rows {
		cols = max(cols, len(r.cells))
	}
	mt := model.NewTable(len(t.rows), cols)
	mt.Name = t.Name()

	for x, c := range t.cols {
		if w, err := c.Width(); err == nil {
			mt.Widths[x] = w
		}
	}
	for y, r := range t.rows {
		if s := t.ss.style(FamilyRow, r.StyleName()); s != nil {
			if h, err := s.Height(); err == nil {
				mt.Heights[y] = h
			}
		}
		for x := range r.cells {
			c := &Cell{row: r, el: r.cells[x], x: x}
			mc := model.Cell{
				Text:    c.Text(),
				RowSpan: c.RowSpan(),
				ColSpan: c.ColSpan(),
				Covered: !c.IsValid(),
			}
			if s := t.ss.style(FamilyCell, t.styleNameAt(x, r)); s != nil {
				mc.Style = cellStyle(s)
			}
			mt.Rows[y][x] = mc
		}
	}
	return mt
}

func cellStyle(s *Style) model.CellStyle {
	var cs model.CellStyle
	if c, ok := model.ParseColor(s.BackgroundColor()); ok {
		cs.Background = &c
	}
	cs.Bold = s.Bold()
	cs.Align = model.ParseAlignment(s.TextAlign())
	return cs
}

// ToModel converts every sheet, with the document title, generator and
// language as metadata.
func (s *SpreadSheet) ToModel() (*model.Document, error) {
	doc := model.NewDocument()
	doc.Metadata.Generator = s.pkg.Generator()
	doc.Metadata.Language = s.language().String()
	if meta := s.meta(); meta != nil {
		if title := odf.FirstChild(meta.Child("meta", false), "dc:title"); title != nil {
			doc.Metadata.Title = strings.TrimSpace(title.Text())
		}
		for _, name := range meta.UserMetaNames() {
			m, err := meta.UserMeta(name, false)
			if err != nil || m == nil {
				continue
			}
			if v, err := m.Value(); err == nil {
				doc.Metadata.Custom[name] = formatMeta(v)
			}
		}
	}
	for i := range s.sheets {
		t, err := s.Sheet(i)
		if err != nil {
			return nil, err
		}
		doc.AddTable(t.ToModel())
	}
	return doc, nil
}

func formatMeta(v any) string {
	switch v := v.(type) {
	case time.Time:
		return v.Format(odf.DateLayout)
	case time.Duration:
		return odf.FormatDuration(v)
	}
	return fmt.Sprint(v)
}
