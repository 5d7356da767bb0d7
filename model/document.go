package model

// Document represents a spreadsheet as a list of tables
type Document struct {
	Metadata Metadata
	Tables   []*Table
}

// Metadata contains document-level information
type Metadata struct {
	Title     string
	Generator string
	Language  string
	// User defined metadata
	Custom map[string]string
}

// NewDocument creates a new empty document
func NewDocument() *Document {
	return &Document{
		Metadata: Metadata{
			Custom: make(map[string]string),
		},
		Tables: make([]*Table, 0),
	}
}

// AddTable appends a table to the document
func (d *Document) AddTable(t *Table) {
	d.Tables = append(d.Tables, t)
}

// Table returns the table called name, or nil
func (d *Document) Table(name string) *Table {
	for _, t := range d.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// TableCount returns the number of tables
func (d *Document) TableCount() int {
	return len(d.Tables)
}

// ExtractText returns the text of every table, tables separated by a blank
// line
func (d *Document) ExtractText() string {
	var text string
	for _, t := range d.Tables {
		text += t.GetText() + "\n"
	}
	return text
}
