package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/tsawler/opendoc/model"
)

func sampleTable() *model.Table {
	t := model.NewTable(2, 3)
	t.Name = "Data"
	t.Widths = []float64{10, 20, 0}
	t.Heights = []float64{5, 0}
	yellow := model.Color{R: 0xff, G: 0xcc}
	t.Rows[0][0] = model.Cell{Text: "Name", RowSpan: 1, ColSpan: 2, Style: model.CellStyle{Background: &yellow, Bold: true, Align: model.AlignCenter}}
	t.Rows[0][1] = model.Cell{Covered: true, RowSpan: 1, ColSpan: 1}
	t.Rows[0][2] = model.Cell{Text: "a < b", RowSpan: 1, ColSpan: 1}
	t.Rows[1][0] = model.Cell{Text: "one\ntwo", RowSpan: 1, ColSpan: 1}
	return t
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := HTML(&buf, sampleTable()); err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	got := buf.String()

	want := []string{
		`<table data-name="Data">`,
		`<col style="width:10mm"/><col style="width:20mm"/><col/>`,
		`<tr style="height:5mm">`,
		`<td colspan="2" style="background-color:#ffcc00;font-weight:bold;text-align:center">Name</td>`,
		`<td>a &lt; b</td>`,
		`<td>one<br/>two</td>`,
	}
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q:\n%s", w, got)
		}
	}
	if n := strings.Count(got, "<td"); n != 5 {
		t.Errorf("expected 5 cells without the covered one, got %d", n)
	}
}

func TestHTMLDocument(t *testing.T) {
	doc := model.NewDocument()
	doc.Metadata.Title = "Fruit & Co"
	doc.Metadata.Language = "en-US"
	doc.AddTable(sampleTable())

	var buf bytes.Buffer
	if err := HTMLDocument(&buf, doc); err != nil {
		t.Fatalf("HTMLDocument failed: %v", err)
	}
	got := buf.String()

	if !strings.HasPrefix(got, "<!DOCTYPE html>\n<html lang=\"en-US\">") {
		t.Errorf("unexpected start: %.60s", got)
	}
	for _, w := range []string{"<title>Fruit &amp; Co</title>", "<h2>Data</h2>", `<meta charset="utf-8"/>`} {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q", w)
		}
	}
}

func TestImage(t *testing.T) {
	img, err := Image(sampleTable(), Options{Scale: 4})
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}

	// widths 10 + 20 + default, heights 5 + default, at 4 px/mm
	wantW := px(30+model.DefaultColumnWidth, 4) + 1
	wantH := px(5+model.DefaultRowHeight, 4) + 1
	if b := img.Bounds(); b.Dx() != wantW || b.Dy() != wantH {
		t.Fatalf("expected %dx%d, got %dx%d", wantW, wantH, b.Dx(), b.Dy())
	}

	if got := img.RGBAAt(0, 0); got != gridColor {
		t.Errorf("expected grid line at origin, got %v", got)
	}
	// inside the spanning cell, on the inner column boundary at x=40
	if got := img.RGBAAt(40, 1); got != (color.RGBA{R: 0xff, G: 0xcc, A: 0xff}) {
		t.Errorf("expected background over the covered boundary, got %v", got)
	}
	if got := img.RGBAAt(wantW-3, wantH-3); got != (color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}) {
		t.Errorf("expected white in the empty cell, got %v", got)
	}

	var dark int
	b := pixelRect(model.NewBBox(0, 5, 10, model.DefaultRowHeight), 4)
	for y := b.Min.Y + 1; y < b.Max.Y; y++ {
		for x := b.Min.X + 1; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) == textColor {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("expected text pixels in A2")
	}
}

func TestPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := PNG(&buf, sampleTable(), Options{}); err != nil {
		t.Fatalf("PNG failed: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if img.Bounds().Dx() != px(30+model.DefaultColumnWidth, 4)+1 {
		t.Errorf("unexpected width %d", img.Bounds().Dx())
	}
}

func TestImage_TooLarge(t *testing.T) {
	tbl := model.NewTable(1, 1)
	tbl.Widths[0] = 1e6
	tbl.Heights[0] = 1e6
	_, err := Image(tbl, Options{})
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestImage_RaggedRow(t *testing.T) {
	tbl := model.NewTable(2, 2)
	red := model.Color{R: 0xff}
	// past the columns of the first row, so outside the grid
	tbl.Rows[1] = append(tbl.Rows[1], model.Cell{Text: "extra", RowSpan: 1, ColSpan: 2, Style: model.CellStyle{Background: &red}})

	img, err := Image(tbl, Options{Scale: 4})
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if want := px(2*model.DefaultColumnWidth, 4) + 1; img.Bounds().Dx() != want {
		t.Errorf("expected width %d, got %d", want, img.Bounds().Dx())
	}
	if got := img.RGBAAt(0, 0); got != gridColor {
		t.Errorf("expected grid line at origin, got %v", got)
	}
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if img.RGBAAt(x, y) == (color.RGBA{R: 0xff, A: 0xff}) {
				t.Fatalf("cell outside the grid painted at (%d, %d)", x, y)
			}
		}
	}
}

func TestPixelRect(t *testing.T) {
	got := pixelRect(model.NewBBox(1.1, 2, 3, 4.5), 4)
	if want := image.Rect(4, 8, 16, 26); got != want {
		t.Errorf("pixelRect = %v, want %v", got, want)
	}
}
