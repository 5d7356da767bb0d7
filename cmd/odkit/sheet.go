package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsawler/opendoc/model"
	"github.com/tsawler/opendoc/odf"
	"github.com/tsawler/opendoc/render"
	"github.com/tsawler/opendoc/spreadsheet"
)

func openSheets(pkg *odf.Package) (*spreadsheet.SpreadSheet, error) {
	return spreadsheet.FromPackage(pkg)
}

// openTable opens file and returns it with the sheet called name, or at that
// index when no sheet has this name.
func openTable(file, name string) (*spreadsheet.SpreadSheet, *spreadsheet.Table, error) {
	ss, err := spreadsheet.Open(file)
	if err != nil {
		return nil, nil, err
	}
	t, err := ss.SheetByName(name)
	if err != nil {
		i, convErr := strconv.Atoi(name)
		if convErr != nil {
			return nil, nil, err
		}
		if t, err = ss.Sheet(i); err != nil {
			return nil, nil, err
		}
	}
	return ss, t, nil
}

// parseValue reads a command line value: numbers, booleans, ISO dates and
// durations keep their type, anything else is text.
func parseValue(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch s {
	case "true", "TRUE":
		return true
	case "false", "FALSE":
		return false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	if d, err := odf.ParseDuration(s); err == nil {
		return d
	}
	return s
}

func (a *app) cellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cell FILE SHEET REF [VALUE]",
		Short: "Print or set the value of a cell",
		Long: `Prints the value of the cell at REF, eg B3, on SHEET (a name or a 0-based
index). With VALUE the cell is set instead and the file saved in place.
REF may also be a named range of the document when printing.

Examples:
  odkit cell prices.ods Sheet1 B3
  odkit cell prices.ods Sheet1 B3 12.5
  odkit cell prices.ods Sheet1 total`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, sheet, ref := args[0], args[1], args[2]
			ss, t, err := openTable(file, sheet)
			if err != nil {
				return err
			}

			if len(args) == 3 {
				var v any
				if spreadsheet.IsCellRef(ref) {
					v, err = t.ValueAtRef(ref)
				} else {
					v, err = ss.ValueAt(ref)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, formatValue(v))
				return nil
			}

			x, y, err := spreadsheet.Resolve(ref)
			if err != nil {
				return err
			}
			if err := t.EnsureColumnCount(x + 1); err != nil {
				return err
			}
			if err := t.EnsureRowCount(y + 1); err != nil {
				return err
			}
			if err := t.SetValueAt(parseValue(args[3]), x, y); err != nil {
				return err
			}
			if _, err := ss.SaveAs(file); err != nil {
				return err
			}
			a.logger.Info("cell updated", zap.String("file", file), zap.String("sheet", t.Name()), zap.String("ref", ref))
			return nil
		},
	}
}

func formatValue(v any) string {
	switch v := v.(type) {
	case time.Time:
		return v.Format("2006-01-02")
	case time.Duration:
		return odf.FormatDuration(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func (a *app) resizeCmd() *cobra.Command {
	var (
		columns, rows       int
		fromColumn, fromRow int
		keepWidth           bool
		output              string
	)
	cmd := &cobra.Command{
		Use:   "resize FILE SHEET",
		Short: "Change the number of columns or rows of a sheet",
		Long: `Grows or shrinks a sheet. New columns and rows are empty unless --from-column
or --from-row name one to copy. Column widths are rebalanced: with
--keep-width the table keeps its width, otherwise it grows with its columns.

Example:
  odkit resize report.ods Sheet1 --columns 8 --rows 40 --keep-width`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ss, t, err := openTable(args[0], args[1])
			if err != nil {
				return err
			}
			keep := a.cfg.Spreadsheet.KeepTableWidth
			if cmd.Flags().Changed("keep-width") {
				keep = keepWidth
			}
			if columns >= 0 {
				if err := t.SetColumnCountFrom(columns, fromColumn, keep); err != nil {
					return err
				}
			}
			if rows >= 0 {
				if err := t.SetRowCountFrom(rows, fromRow); err != nil {
					return err
				}
			}

			dst := args[0]
			if output != "" {
				dst = output
			}
			name, err := ss.SaveAs(dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: %d columns, %d rows\n", name, t.ColumnCount(), t.RowCount())
			return nil
		},
	}
	cmd.Flags().IntVar(&columns, "columns", -1, "New column count")
	cmd.Flags().IntVar(&rows, "rows", -1, "New row count")
	cmd.Flags().IntVar(&fromColumn, "from-column", -1, "Column copied for new columns")
	cmd.Flags().IntVar(&fromRow, "from-row", -1, "Row copied for new rows")
	cmd.Flags().BoolVar(&keepWidth, "keep-width", false, "Keep the table width")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: in place)")
	return cmd
}

// renderFormats are the output formats of the render command.
var renderFormats = []string{"html", "png", "csv", "markdown"}

func (a *app) renderCmd() *cobra.Command {
	var (
		formatName string
		output     string
		scale      float64
	)
	cmd := &cobra.Command{
		Use:   "render FILE SHEET",
		Short: "Render a sheet as HTML, PNG, CSV or Markdown",
		Long: `Renders the cells of a sheet. HTML and PNG keep spans, backgrounds, bold
text and alignment; CSV and Markdown keep the text only. The output goes to
standard output unless --output is given, PNG needs --output.

Examples:
  odkit render prices.ods Sheet1 --format png -o prices.png
  odkit render prices.ods 0 --format csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(renderFormats, formatName) {
				return fmt.Errorf("unknown format %q: want one of %s", formatName, strings.Join(renderFormats, ", "))
			}
			if formatName == "png" && output == "" {
				return fmt.Errorf("png output needs --output")
			}
			_, t, err := openTable(args[0], args[1])
			if err != nil {
				return err
			}
			mt := t.ToModel()

			if output == "" {
				return a.render(a.out, mt, formatName, scale)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := a.render(f, mt, formatName, scale); err != nil {
				f.Close()
				os.Remove(output)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			a.logger.Info("sheet rendered", zap.String("sheet", t.Name()), zap.String("format", formatName), zap.String("output", output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "html", "Output format: "+strings.Join(renderFormats, ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	cmd.Flags().Float64Var(&scale, "scale", 0, "Pixels per millimetre for PNG (default from config)")
	return cmd
}

func (a *app) render(w io.Writer, t *model.Table, formatName string, scale float64) error {
	switch formatName {
	case "png":
		opts := render.Options{Scale: a.cfg.Render.Scale, Padding: a.cfg.Render.FontPadding}
		if scale > 0 {
			opts.Scale = scale
		}
		return render.PNG(w, t, opts)
	case "csv":
		_, err := io.WriteString(w, t.ToCSV())
		return err
	case "markdown":
		_, err := io.WriteString(w, t.ToMarkdown())
		return err
	default:
		return render.HTML(w, t)
	}
}
