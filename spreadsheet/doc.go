// Package spreadsheet presents the tables of an OpenDocument spreadsheet as
// dense 0-indexed grids.
//
// Opening a table expands its repeated rows, columns and cells so that every
// coordinate has its own element. Setting a single value or duplicating rows
// is then a local operation on the tree.
//
// # Basic Usage
//
//	ss, err := spreadsheet.Open("invoice.ods")
//	if err != nil {
//		log.Fatal(err)
//	}
//	sheet, err := ss.SheetByName("Invoice")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := sheet.SetValueAt(42.5, 1, 2); err != nil {
//		log.Fatal(err)
//	}
//	if _, err := ss.SaveAs("invoice.ods"); err != nil {
//		log.Fatal(err)
//	}
//
// # Coordinates
//
// Cells are addressed by column then row, both 0-indexed, or by reference:
// [Resolve] turns "AA34" into (26, 33). Named ranges such as "total" resolve
// through [SpreadSheet.ValueAt].
//
// # Resizing
//
// [Table.SetColumnCountFrom] and [Table.SetRowCountFrom] grow a table by
// cloning a column or row, or by adding empty ones. Column growth rebalances
// widths, either keeping the table width or recomputing it from the columns.
//
// # Table Models
//
// A [TableModel] is a rectangular value source. [Table.Model] exposes a
// region of a sheet as one and [Table.Merge] writes one into a sheet;
// [SliceModel] adapts plain Go slices.
package spreadsheet
