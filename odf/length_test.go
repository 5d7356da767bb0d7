package odf

import (
	"errors"
	"math"
	"testing"

	"github.com/beevik/etree"
)

func TestParseLength(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.53cm", 15.3},
		{"12mm", 12},
		{"2in", 50.8},
		{"72pt", 25.4},
		{"6pc", 25.4},
		{" 0.5CM ", 5},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLength(tt.in)
			if err != nil {
				t.Fatalf("ParseLength(%q) failed: %v", tt.in, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseLength(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLength_Errors(t *testing.T) {
	tests := []struct {
		in   string
		unit string
	}{
		{"12", ""},
		{"3px", "px"},
		{"", ""},
		{"abccm", "abccm"},
	}

	for _, tt := range tests {
		_, err := ParseLength(tt.in)
		var ue *UnitError
		if !errors.As(err, &ue) {
			t.Errorf("ParseLength(%q): expected *UnitError, got %v", tt.in, err)
			continue
		}
		if ue.Unit != tt.unit {
			t.Errorf("ParseLength(%q): unit %q, want %q", tt.in, ue.Unit, tt.unit)
		}
	}
}

func TestFormatLength(t *testing.T) {
	if got := FormatLength(12.5); got != "12.5mm" {
		t.Errorf("FormatLength(12.5) = %q", got)
	}
	if got := FormatLength(20); got != "20mm" {
		t.Errorf("FormatLength(20) = %q", got)
	}
}

func TestFrame(t *testing.T) {
	el := etree.NewElement("draw:frame")
	el.CreateAttr("draw:name", "Logo")
	el.CreateAttr("svg:width", "4cm")
	el.CreateAttr("svg:height", "20mm")
	el.CreateElement("draw:image")
	f := NewFrame(el)

	if f.Name() != "Logo" {
		t.Errorf("Name() = %q", f.Name())
	}
	r, err := f.Ratio()
	if err != nil {
		t.Fatalf("Ratio failed: %v", err)
	}
	if r != 2 {
		t.Errorf("Ratio() = %v, want 2", r)
	}
	if f.Image() == nil {
		t.Error("Image() = nil")
	}

	f.SetSVGAttr("x", 7.5)
	if x, err := f.X(); err != nil || x != 7.5 {
		t.Errorf("X() = %v, %v", x, err)
	}
	if _, err := f.Y(); err == nil {
		t.Error("Y() without svg:y should fail")
	}
}
