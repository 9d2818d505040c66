package schema

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestTableColumnLookup(t *testing.T) {
	tbl := &Table{
		Name: "Customers",
		Columns: []Column{
			{Name: "CustomerID", Type: ColumnTypeNumber, PrimaryKey: true},
			{Name: "FirstName", Type: ColumnTypeChar},
		},
	}

	col, ok := tbl.Column("firstname")
	assert.Assert(t, ok)
	assert.Equal(t, col.Type, ColumnTypeChar)

	assert.Assert(t, tbl.HasColumn("Customers.CustomerID"))
	assert.Assert(t, !tbl.HasColumn("Products.CustomerID"))
	assert.Assert(t, !tbl.HasColumn("Missing"))

	assert.DeepEqual(t, tbl.QualifiedColumnNames(), []string{"Customers.CustomerID", "Customers.FirstName"})

	cp := tbl.Copy()
	cp.Columns[0].Name = "Changed"
	assert.Equal(t, tbl.Columns[0].Name, "CustomerID")
}

func TestParseColumnType(t *testing.T) {
	tests := []struct {
		in       string
		expected ColumnType
		ok       bool
	}{
		{"NUMBER", ColumnTypeNumber, true},
		{"int", ColumnTypeNumber, true},
		{"FLOAT", ColumnTypeNumber, true},
		{"TEXT", ColumnTypeChar, true},
		{"char", ColumnTypeChar, true},
		{"EMAIL", ColumnTypeChar, true},
		{"DATE", ColumnTypeDate, true},
		{"TIME", ColumnTypeDate, true},
		{"BLOB", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseColumnType(tt.in)
			assert.Equal(t, ok, tt.ok)
			assert.Equal(t, got, tt.expected)
		})
	}
}
