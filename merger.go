package opendoc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tsawler/opendoc/odf"
)

// ErrNoInput is returned when a Merger has no document to merge.
var ErrNoInput = errors.New("no input document")

// Merger provides a fluent interface for merging documents. Each
// configuration method returns a new Merger instance, making it safe for
// concurrent use and allowing method chaining.
type Merger struct {
	paths   []string
	options MergeOptions
}

// clone creates a copy of the Merger with a copy of its paths and options.
func (m *Merger) clone() *Merger {
	return &Merger{
		paths:   append([]string(nil), m.paths...),
		options: m.options.clone(),
	}
}

// WithoutPageBreaks appends documents directly after each other instead of
// starting each one on a new page.
func (m *Merger) WithoutPageBreaks() *Merger {
	c := m.clone()
	c.options.pageBreaks = false
	return c
}

// PageBreaks sets whether a page break precedes each appended document.
func (m *Merger) PageBreaks(on bool) *Merger {
	c := m.clone()
	c.options.pageBreaks = on
	return c
}

// CheckStyles verifies the style references of the result. A problem is
// reported as a warning, the merge still succeeds.
func (m *Merger) CheckStyles() *Merger {
	c := m.clone()
	c.options.checkStyles = true
	return c
}

// Logger sets the logger used while loading and merging.
func (m *Merger) Logger(l *zap.Logger) *Merger {
	c := m.clone()
	if l != nil {
		c.options.logger = l
	}
	return c
}

// Generator sets the meta:generator of the result.
func (m *Merger) Generator(g string) *Merger {
	c := m.clone()
	c.options.generator = g
	return c
}

// Concurrency limits the number of documents opened at once. Zero or less
// opens all of them together.
func (m *Merger) Concurrency(n int) *Merger {
	c := m.clone()
	c.options.concurrency = n
	return c
}

// Paths returns the input paths in merge order.
func (m *Merger) Paths() []string {
	return append([]string(nil), m.paths...)
}

// Document opens every input concurrently, then appends them in order to the
// first one. Warnings report non-fatal issues such as mixed document kinds or
// dangling style references.
//
// Example:
//
//	doc, warnings, err := opendoc.Merge("a.odt", "b.odt").CheckStyles().Document(ctx)
func (m *Merger) Document(ctx context.Context) (*odf.Single, []Warning, error) {
	if len(m.paths) == 0 {
		return nil, nil, ErrNoInput
	}
	log := m.options.logger

	docs, err := m.load(ctx)
	if err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	first := docs[0]
	kind := first.Package().Format().Kind()
	for i, doc := range docs[1:] {
		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}
		path := m.paths[i+1]
		if k := doc.Package().Format().Kind(); k != kind {
			warnings = append(warnings, Warning{
				Source:  path,
				Message: fmt.Sprintf("%s document merged into a %s document", k, kind),
			})
		}
		if err := first.AddPageBreak(doc, m.options.pageBreaks); err != nil {
			return nil, warnings, fmt.Errorf("merging %s: %w", path, err)
		}
		log.Debug("appended document", zap.String("path", path), zap.Int("counter", first.Counter()))
	}

	if m.options.checkStyles {
		if problem := first.CheckStyles(); problem != "" {
			warnings = append(warnings, Warning{Source: m.paths[0], Message: problem})
			log.Warn("style check failed", zap.String("problem", problem))
		}
	}

	log.Info("merged documents", zap.Int("count", len(docs)), zap.Int("warnings", len(warnings)))
	return first, warnings, nil
}

// SaveAs merges the inputs and writes the result to filename, appending the
// format extension when missing. It returns the name written.
func (m *Merger) SaveAs(ctx context.Context, filename string) (string, []Warning, error) {
	doc, warnings, err := m.Document(ctx)
	if err != nil {
		return "", warnings, err
	}
	name, err := doc.SaveAs(filename)
	if err != nil {
		return "", warnings, fmt.Errorf("saving %s: %w", filename, err)
	}
	return name, warnings, nil
}

// load opens the inputs, keeping them in argument order.
func (m *Merger) load(ctx context.Context) ([]*odf.Single, error) {
	opts := []odf.Option{odf.WithLogger(m.options.logger)}
	if m.options.generator != "" {
		opts = append(opts, odf.WithGenerator(m.options.generator))
	}

	docs := make([]*odf.Single, len(m.paths))
	g, gctx := errgroup.WithContext(ctx)
	if m.options.concurrency > 0 {
		g.SetLimit(m.options.concurrency)
	}
	for i, path := range m.paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := odf.OpenSingle(path, opts...)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Warning is a non-fatal issue met while merging.
type Warning struct {
	Source  string // input the issue relates to
	Message string
}

func (w Warning) String() string {
	if w.Source == "" {
		return w.Message
	}
	return w.Source + ": " + w.Message
}

// FormatWarnings joins warnings into a single line suitable for logging.
func FormatWarnings(warnings []Warning) string {
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.String()
	}
	return strings.Join(parts, "; ")
}
