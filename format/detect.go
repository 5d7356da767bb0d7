// Package format provides package format detection for OpenDocument files.
package format

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format represents a supported document package format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// ODT indicates an OpenDocument text (.odt) document.
	ODT
	// ODS indicates an OpenDocument spreadsheet (.ods).
	ODS
	// ODP indicates an OpenDocument presentation (.odp).
	ODP
	// ODG indicates an OpenDocument drawing (.odg).
	ODG
	// SXW indicates an OpenOffice.org 1.x text document (.sxw).
	SXW
	// SXC indicates an OpenOffice.org 1.x spreadsheet (.sxc).
	SXC
	// SXI indicates an OpenOffice.org 1.x presentation (.sxi).
	SXI
	// SXD indicates an OpenOffice.org 1.x drawing (.sxd).
	SXD
)

// Kind is the application family of a format.
type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindSpreadsheet
	KindPresentation
	KindGraphics
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindSpreadsheet:
		return "spreadsheet"
	case KindPresentation:
		return "presentation"
	case KindGraphics:
		return "graphics"
	default:
		return "unknown"
	}
}

type info struct {
	name string
	ext  string
	mime string
	kind Kind
	ooo  bool
}

var formats = map[Format]info{
	ODT: {"ODT", ".odt", "application/vnd.oasis.opendocument.text", KindText, false},
	ODS: {"ODS", ".ods", "application/vnd.oasis.opendocument.spreadsheet", KindSpreadsheet, false},
	ODP: {"ODP", ".odp", "application/vnd.oasis.opendocument.presentation", KindPresentation, false},
	ODG: {"ODG", ".odg", "application/vnd.oasis.opendocument.graphics", KindGraphics, false},
	SXW: {"SXW", ".sxw", "application/vnd.sun.xml.writer", KindText, true},
	SXC: {"SXC", ".sxc", "application/vnd.sun.xml.calc", KindSpreadsheet, true},
	SXI: {"SXI", ".sxi", "application/vnd.sun.xml.impress", KindPresentation, true},
	SXD: {"SXD", ".sxd", "application/vnd.sun.xml.draw", KindGraphics, true},
}

// String returns the string representation of the format.
func (f Format) String() string {
	if i, ok := formats[f]; ok {
		return i.name
	}
	return "Unknown"
}

// Extension returns the file extension for the format.
func (f Format) Extension() string { return formats[f].ext }

// MimeType returns the content of the mimetype entry for the format.
func (f Format) MimeType() string { return formats[f].mime }

// Kind returns the application family of the format.
func (f Format) Kind() Kind { return formats[f].kind }

// IsOOo reports whether f is an OpenOffice.org 1.x format.
func (f Format) IsOOo() bool { return formats[f].ooo }

// ForKind returns the format of kind k in OpenDocument or, when ooo is set,
// OpenOffice.org 1.x flavour.
func ForKind(k Kind, ooo bool) Format {
	for f, i := range formats {
		if i.kind == k && i.ooo == ooo {
			return f
		}
	}
	return Unknown
}

// Detect determines the format from a filename extension.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	for f, i := range formats {
		if i.ext == ext {
			return f
		}
	}
	return Unknown
}

// FromMimeType returns the format whose mimetype entry is m. Template and
// other variants sharing a prefix map to their base format.
func FromMimeType(m string) Format {
	m = strings.TrimSpace(m)
	for f, i := range formats {
		if m == i.mime {
			return f
		}
	}
	for f, i := range formats {
		if strings.HasPrefix(m, i.mime) {
			return f
		}
	}
	return Unknown
}

// DetectFromReader inspects the mimetype entry of a zip package. It is more
// reliable than extension-based detection.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, fmt.Errorf("opening ZIP archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != "mimetype" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return Unknown, err
		}
		defer rc.Close()
		data, err := io.ReadAll(io.LimitReader(rc, 256))
		if err != nil {
			return Unknown, err
		}
		return FromMimeType(string(data)), nil
	}
	return Unknown, nil
}
