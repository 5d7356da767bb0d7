// Package opendoc provides a fluent API for merging OpenDocument files into a
// single document.
//
// Basic usage:
//
//	out, warnings, err := opendoc.Merge("a.odt", "b.odt").SaveAs(ctx, "merged.odt")
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", opendoc.FormatWarnings(warnings))
//	}
//
// With options:
//
//	doc, _, err := opendoc.Merge(files...).
//	    WithoutPageBreaks().
//	    CheckStyles().
//	    Logger(logger).
//	    Document(ctx)
//
// Spreadsheets are handled by the spreadsheet package and the underlying
// document and package types by the odf package.
package opendoc

// Merge returns a Merger appending the documents at paths, in order, to the
// first one.
//
// Example:
//
//	doc, warnings, err := opendoc.Merge("cover.odt", "body.odt").Document(ctx)
func Merge(paths ...string) *Merger {
	return &Merger{
		paths:   append([]string(nil), paths...),
		options: defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	ss := opendoc.Must(spreadsheet.Open("prices.ods"))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustMerge is a helper that wraps a call to Document() or SaveAs() and
// panics if the error is non-nil. It discards warnings and returns just the
// value.
//
// Example:
//
//	name := opendoc.MustMerge(opendoc.Merge(files...).SaveAs(ctx, "out.odt"))
func MustMerge[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
