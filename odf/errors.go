package odf

import (
	"errors"
	"fmt"

	"github.com/tsawler/opendoc/ns"
)

var (
	// ErrVersionMismatch is returned when documents of different schema
	// versions are combined.
	ErrVersionMismatch = errors.New("version mismatch")

	// ErrNoBody is returned when a document lacks office:body.
	ErrNoBody = errors.New("no body")

	// ErrUnknownVersion is returned when a root element does not belong to a
	// known namespace set.
	ErrUnknownVersion = ns.ErrUnknownVersion

	// ErrNotFound is returned when a package entry or element does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPath is returned for malformed paths and unexpected document
	// shapes.
	ErrInvalidPath = errors.New("invalid path")
)

// PathError records a path that could not be resolved.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// UnitError records a length whose unit is missing or unsupported.
type UnitError struct {
	Value string
	Unit  string
}

func (e *UnitError) Error() string {
	if e.Unit == "" {
		return fmt.Sprintf("length %q has no unit", e.Value)
	}
	return fmt.Sprintf("length %q: unknown unit %q", e.Value, e.Unit)
}
