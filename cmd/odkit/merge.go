package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsawler/opendoc"
	"github.com/tsawler/opendoc/format"
	"github.com/tsawler/opendoc/odf"
)

// errStyles is returned by check when a style reference is dangling, so that
// the exit status is non zero.
var errStyles = errors.New("style check failed")

func (a *app) mergeCmd() *cobra.Command {
	var (
		output    string
		noBreaks  bool
		skipCheck bool
	)
	cmd := &cobra.Command{
		Use:   "merge -o OUTPUT INPUT...",
		Short: "Merge documents into one",
		Long: `Appends every input to the first one. Styles, lists and embedded files of
each appended document are renamed with a counter prefix so they cannot clash.

Example:
  odkit merge -o book.odt cover.odt chapter1.odt chapter2.odt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := opendoc.Merge(args...).
				PageBreaks(a.cfg.Merge.PageBreaks && !noBreaks).
				Concurrency(a.cfg.Merge.Concurrency).
				Generator(a.cfg.Merge.Generator).
				Logger(a.logger)
			if a.cfg.Merge.CheckStyles && !skipCheck {
				m = m.CheckStyles()
			}

			name, warnings, err := m.SaveAs(cmd.Context(), output)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				a.logger.Warn("merge warning", zap.String("source", w.Source), zap.String("message", w.Message))
			}
			fmt.Fprintln(a.out, name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (required)")
	cmd.Flags().BoolVar(&noBreaks, "no-page-breaks", false, "Do not start appended documents on a new page")
	cmd.Flags().BoolVar(&skipCheck, "no-check", false, "Skip the style check")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Check that every referenced style is declared",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := odf.OpenSingle(args[0], odf.WithLogger(a.logger))
			if err != nil {
				return err
			}
			if problem := doc.CheckStyles(); problem != "" {
				fmt.Fprintln(a.out, problem)
				return fmt.Errorf("%s: %w", args[0], errStyles)
			}
			fmt.Fprintln(a.out, "ok")
			return nil
		},
	}
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE",
		Short: "Describe a document: format, version, sheets and merge counter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := odf.Open(args[0])
			if err != nil {
				return err
			}
			f := pkg.Format()
			fmt.Fprintf(a.out, "format:  %s (%s)\n", f, f.Kind())
			fmt.Fprintf(a.out, "version: %s\n", pkg.NS().Version())
			if g := pkg.Generator(); g != "" {
				fmt.Fprintf(a.out, "generator: %s\n", g)
			}
			n, err := odf.MergeCounter(pkg)
			if err != nil {
				a.logger.Warn("unreadable merge counter", zap.Error(err))
			}
			fmt.Fprintf(a.out, "merges:  %d\n", n)

			if f.Kind() != format.KindSpreadsheet {
				return nil
			}
			ss, err := openSheets(pkg)
			if err != nil {
				return err
			}
			for i, name := range ss.SheetNames() {
				t, err := ss.Sheet(i)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "sheet %q: %d columns, %d rows\n", name, t.ColumnCount(), t.RowCount())
			}
			return nil
		},
	}
}
