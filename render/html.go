// Package render draws tables of the intermediate model as HTML or PNG.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tsawler/opendoc/model"
)

// HTML writes t as an HTML table. Covered cells are left out since the cell
// spanning over them carries colspan or rowspan.
func HTML(w io.Writer, t *model.Table) error {
	if err := html.Render(w, tableNode(t)); err != nil {
		return fmt.Errorf("rendering table %q: %w", t.Name, err)
	}
	return nil
}

// HTMLDocument writes every table of doc in a complete HTML page, each table
// headed by its name.
func HTMLDocument(w io.Writer, doc *model.Document) error {
	root := element(atom.Html)
	head := element(atom.Head)
	if doc.Metadata.Language != "" {
		root.Attr = append(root.Attr, html.Attribute{Key: "lang", Val: doc.Metadata.Language})
	}
	meta := element(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(meta)
	if doc.Metadata.Title != "" {
		title := element(atom.Title)
		title.AppendChild(text(doc.Metadata.Title))
		head.AppendChild(title)
	}
	root.AppendChild(head)

	body := element(atom.Body)
	for _, t := range doc.Tables {
		h := element(atom.H2)
		h.AppendChild(text(t.Name))
		body.AppendChild(h)
		body.AppendChild(tableNode(t))
	}
	root.AppendChild(body)

	if _, err := io.WriteString(w, "<!DOCTYPE html>\n"); err != nil {
		return err
	}
	return html.Render(w, root)
}

func tableNode(t *model.Table) *html.Node {
	table := element(atom.Table)
	if t.Name != "" {
		table.Attr = append(table.Attr, html.Attribute{Key: "data-name", Val: t.Name})
	}

	colgroup := element(atom.Colgroup)
	for _, w := range t.Widths {
		col := element(atom.Col)
		if w > 0 {
			col.Attr = []html.Attribute{{Key: "style", Val: "width:" + mm(w)}}
		}
		colgroup.AppendChild(col)
	}
	table.AppendChild(colgroup)

	tbody := element(atom.Tbody)
	for i, row := range t.Rows {
		tr := element(atom.Tr)
		if i < len(t.Heights) && t.Heights[i] > 0 {
			tr.Attr = []html.Attribute{{Key: "style", Val: "height:" + mm(t.Heights[i])}}
		}
		for _, cell := range row {
			if cell.Covered {
				continue
			}
			tr.AppendChild(cellNode(cell))
		}
		tbody.AppendChild(tr)
	}
	table.AppendChild(tbody)
	return table
}

func cellNode(cell model.Cell) *html.Node {
	td := element(atom.Td)
	if cell.ColSpan > 1 {
		td.Attr = append(td.Attr, html.Attribute{Key: "colspan", Val: strconv.Itoa(cell.ColSpan)})
	}
	if cell.RowSpan > 1 {
		td.Attr = append(td.Attr, html.Attribute{Key: "rowspan", Val: strconv.Itoa(cell.RowSpan)})
	}
	if css := cellCSS(cell.Style); css != "" {
		td.Attr = append(td.Attr, html.Attribute{Key: "style", Val: css})
	}

	for i, line := range strings.Split(cell.Text, "\n") {
		if i > 0 {
			td.AppendChild(element(atom.Br))
		}
		if line != "" {
			td.AppendChild(text(line))
		}
	}
	return td
}

func cellCSS(s model.CellStyle) string {
	var decls []string
	if s.Background != nil {
		decls = append(decls, "background-color:"+s.Background.Hex())
	}
	if s.Bold {
		decls = append(decls, "font-weight:bold")
	}
	if s.Align != model.AlignDefault {
		decls = append(decls, "text-align:"+s.Align.String())
	}
	return strings.Join(decls, ";")
}

func mm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "mm"
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
