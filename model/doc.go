// Package model provides the intermediate representation (IR) of spreadsheet
// content used for export and rendering.
//
// The types here carry no XML: a [Table] is plain rows of [Cell] values with
// their sizes, detached from the document it was read from. Renderers and
// exporters work on this representation only.
//
// # Document Structure
//
// The [Document] type holds metadata and the tables of a spreadsheet:
//
//	doc := model.NewDocument()
//	doc.Metadata.Title = "Budget"
//	doc.AddTable(table)
//
// # Tables
//
// The [Table] type provides:
//
//   - Rows and columns of [Cell] values
//   - Row and column spanning, covered cells
//   - Column widths and row heights in millimetres
//   - Export methods: ToMarkdown() and ToCSV()
//
// # Geometry
//
// [Table.Grid] lays the table out as a [TableGrid] of row and column
// boundaries; [TableGrid.CellBBox] gives the [BBox] of a possibly spanning
// cell. Coordinates are millimetres from the top left corner.
package model
