package model

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// TextAlignment represents horizontal text alignment in a cell.
type TextAlignment int

const (
	AlignDefault TextAlignment = iota
	AlignLeft
	AlignCenter
	AlignRight
	AlignJustify
)

func (a TextAlignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignJustify:
		return "justify"
	default:
		return "default"
	}
}

// ParseAlignment converts an fo:text-align value. "start" and "end" are
// taken as left to right.
func ParseAlignment(s string) TextAlignment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "start":
		return AlignLeft
	case "center":
		return AlignCenter
	case "right", "end":
		return AlignRight
	case "justify":
		return AlignJustify
	}
	return AlignDefault
}

// Color represents an RGB color.
type Color struct {
	R, G, B uint8
}

// ParseColor parses a "#rrggbb" color. "transparent" and malformed values
// return false.
func ParseColor(s string) (Color, bool) {
	s = strings.TrimSpace(s)
	if len(s) != 7 || s[0] != '#' {
		return Color{}, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return Color{}, false
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, true
}

// Hex returns the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ImageColor returns the opaque image/color value.
func (c Color) ImageColor() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// CellStyle is the subset of a cell style that survives rendering.
type CellStyle struct {
	Background *Color // nil when transparent
	Bold       bool
	Align      TextAlignment
}
