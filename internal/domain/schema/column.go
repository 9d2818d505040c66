package schema

import "strings"

// ColumnType is the declared data type of a column.
type ColumnType string

const (
	ColumnTypeNumber ColumnType = "NUMBER"
	ColumnTypeChar   ColumnType = "CHAR"
	ColumnTypeDate   ColumnType = "DATE"
)

// ParseColumnType maps a declared type onto the three types the optimizer
// distinguishes. Older table files spell numeric types INT/FLOAT and text
// types TEXT/EMAIL.
func ParseColumnType(s string) (ColumnType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NUMBER", "INT", "INTEGER", "FLOAT", "DECIMAL":
		return ColumnTypeNumber, true
	case "CHAR", "VARCHAR", "TEXT", "EMAIL", "BOOL":
		return ColumnTypeChar, true
	case "DATE", "TIME", "DATETIME":
		return ColumnTypeDate, true
	}
	return "", false
}

type Column struct {
	Name       string
	Type       ColumnType
	PrimaryKey bool
	Unique     bool
	NotNull    bool
}
