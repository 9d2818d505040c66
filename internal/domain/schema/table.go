package schema

import "strings"

// Table is the catalog view of a table: its name, ordered columns and the
// row count recorded when it was last written.
type Table struct {
	Name     string
	Columns  []Column
	RowCount int64
}

// Column looks a column up by name, ignoring case. A name prefixed with
// this table's name ("Customers.FirstName") is accepted too.
func (t *Table) Column(name string) (Column, bool) {
	if prefix, col, ok := strings.Cut(name, "."); ok {
		if !strings.EqualFold(prefix, t.Name) {
			return Column{}, false
		}
		name = col
	}
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// QualifiedColumnNames returns "Table.Column" for every column in
// declaration order.
func (t *Table) QualifiedColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = t.Name + "." + c.Name
	}
	return names
}

// Copy returns a table that shares no slices with t.
func (t *Table) Copy() *Table {
	cols := make([]Column, len(t.Columns))
	copy(cols, t.Columns)
	return &Table{Name: t.Name, Columns: cols, RowCount: t.RowCount}
}
