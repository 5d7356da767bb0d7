package opendoc

import "go.uber.org/zap"

// MergeOptions holds configuration for merging.
type MergeOptions struct {
	// Page break inserted before each appended document
	pageBreaks bool

	// Run the style integrity check on the result
	checkStyles bool

	// Loading
	concurrency int // maximum number of inputs opened at once, 0 means all

	logger    *zap.Logger
	generator string
}

// defaultOptions returns the default merge options.
func defaultOptions() MergeOptions {
	return MergeOptions{
		pageBreaks:  true,
		checkStyles: false,
		concurrency: 0,
		logger:      zap.NewNop(),
		generator:   "",
	}
}

// clone creates a copy of MergeOptions. The logger is shared.
func (o MergeOptions) clone() MergeOptions {
	return MergeOptions{
		pageBreaks:  o.pageBreaks,
		checkStyles: o.checkStyles,
		concurrency: o.concurrency,
		logger:      o.logger,
		generator:   o.generator,
	}
}
