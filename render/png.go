package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/tsawler/opendoc/model"
)

// Options controls raster output.
type Options struct {
	// Scale is the number of pixels per millimetre. Zero means 4.
	Scale float64
	// Padding is the space in pixels between the cell border and its text.
	// Zero means 2.
	Padding int
}

// ErrTooLarge is returned when the image would exceed maxPixels.
var ErrTooLarge = errors.New("image too large")

const maxPixels = 64 << 20

var (
	gridColor = color.RGBA{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff}
	textColor = color.RGBA{A: 0xff}
)

func (o Options) withDefaults() Options {
	if o.Scale <= 0 {
		o.Scale = 4
	}
	if o.Padding <= 0 {
		o.Padding = 2
	}
	return o
}

// Image draws t on a white canvas: backgrounds, grid lines, then the text of
// every non covered cell clipped to its box.
func Image(t *model.Table, opts Options) (*image.RGBA, error) {
	opts = opts.withDefaults()
	grid := t.Grid()
	w, h := grid.Size()
	pw, ph := px(w, opts.Scale)+1, px(h, opts.Scale)+1
	if pw*ph > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, pw, ph)
	}

	img := image.NewRGBA(image.Rect(0, 0, pw, ph))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	for r, row := range t.Rows {
		for c, cell := range row {
			if cell.Covered || cell.Style.Background == nil {
				continue
			}
			box, ok := cellRect(grid, r, c, cell, opts.Scale)
			if !ok {
				continue
			}
			draw.Draw(img, box, image.NewUniform(cell.Style.Background.ImageColor()), image.Point{}, draw.Src)
		}
	}

	for _, y := range grid.Rows {
		hline(img, px(y, opts.Scale), 0, pw)
	}
	for _, x := range grid.Cols {
		vline(img, px(x, opts.Scale), 0, ph)
	}

	for r, row := range t.Rows {
		for c, cell := range row {
			if cell.Covered || cell.Text == "" {
				continue
			}
			box, ok := cellRect(grid, r, c, cell, opts.Scale)
			if !ok {
				continue
			}
			// clear the inner grid lines of spanning cells
			if cell.RowSpan > 1 || cell.ColSpan > 1 {
				var bg image.Image = image.White
				if cell.Style.Background != nil {
					bg = image.NewUniform(cell.Style.Background.ImageColor())
				}
				inner := image.Rect(box.Min.X+1, box.Min.Y+1, box.Max.X, box.Max.Y)
				draw.Draw(img, inner, bg, image.Point{}, draw.Src)
			}
			drawText(img, box, cell, opts.Padding)
		}
	}
	return img, nil
}

// PNG encodes the image of t to w.
func PNG(w io.Writer, t *model.Table, opts Options) error {
	img, err := Image(t, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func drawText(img *image.RGBA, box image.Rectangle, cell model.Cell, padding int) {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()

	clip := box.Inset(1)
	if clip.Empty() {
		return
	}
	dst := img.SubImage(clip).(*image.RGBA)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(textColor), Face: face}

	y := box.Min.Y + padding + metrics.Ascent.Ceil()
	for _, line := range strings.Split(cell.Text, "\n") {
		if y-metrics.Ascent.Ceil() > box.Max.Y {
			break
		}
		width := d.MeasureString(line).Ceil()
		x := box.Min.X + padding
		switch cell.Style.Align {
		case model.AlignCenter:
			x = box.Min.X + (box.Dx()-width)/2
		case model.AlignRight:
			x = box.Max.X - padding - width
		}
		d.Dot = fixed.P(x, y)
		d.DrawString(line)
		if cell.Style.Bold {
			d.Dot = fixed.P(x+1, y)
			d.DrawString(line)
		}
		y += lineHeight
	}
}

func hline(img *image.RGBA, y, x0, x1 int) {
	for x := x0; x < x1; x++ {
		img.SetRGBA(x, y, gridColor)
	}
}

func vline(img *image.RGBA, x, y0, y1 int) {
	for y := y0; y < y1; y++ {
		img.SetRGBA(x, y, gridColor)
	}
}

func px(mm, scale float64) int {
	return int(math.Round(mm * scale))
}

// cellRect returns the pixel box of cell at (r, c). Cells outside the grid,
// eg past the end of a row longer than the first one, have none.
func cellRect(grid *model.TableGrid, r, c int, cell model.Cell, scale float64) (image.Rectangle, bool) {
	b := grid.CellBBox(r, c, cell.RowSpan, cell.ColSpan)
	if b.IsEmpty() {
		return image.Rectangle{}, false
	}
	return pixelRect(b, scale), true
}

func pixelRect(b model.BBox, scale float64) image.Rectangle {
	b = b.Scale(scale)
	round := func(v float64) int { return int(math.Round(v)) }
	return image.Rect(round(b.X), round(b.Y), round(b.Right()), round(b.Bottom()))
}
