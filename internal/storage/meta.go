package storage

import (
	"fmt"

	"github.com/leengari/mini-optimizer/internal/domain/schema"
)

// formatVersion is the newest database meta.json layout this loader reads.
const formatVersion = 1

// DatabaseMeta is <db>/meta.json. Tables, when present, fixes load order.
type DatabaseMeta struct {
	Name    string   `json:"name"`
	Version int      `json:"version"`
	Tables  []string `json:"tables,omitempty"`
}

func (m DatabaseMeta) check() error {
	if m.Version > formatVersion {
		return fmt.Errorf("database %s uses format version %d, newest supported is %d", m.Name, m.Version, formatVersion)
	}
	return nil
}

// TableMeta is <db>/<table>/meta.json. Row data files next to it are
// never read; only the declared row count feeds cost estimates.
type TableMeta struct {
	Name     string       `json:"name"`
	Columns  []ColumnMeta `json:"columns"`
	RowCount int64        `json:"row_count,omitempty"`
}

type ColumnMeta struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	PrimaryKey bool   `json:"primary_key"`
	Unique     bool   `json:"unique"`
	NotNull    bool   `json:"not_null"`
}

func (m TableMeta) table(dir string) (*schema.Table, error) {
	if m.Name == "" {
		return nil, fmt.Errorf("table meta %s has no name", dir)
	}
	if m.RowCount < 0 {
		return nil, fmt.Errorf("table %s has negative row count %d", m.Name, m.RowCount)
	}

	t := &schema.Table{
		Name:     m.Name,
		Columns:  make([]schema.Column, 0, len(m.Columns)),
		RowCount: m.RowCount,
	}
	for _, c := range m.Columns {
		typ, ok := schema.ParseColumnType(c.Type)
		if !ok {
			return nil, fmt.Errorf("table %s: column %s has unknown type %q", m.Name, c.Name, c.Type)
		}
		if _, dup := t.Column(c.Name); dup {
			return nil, fmt.Errorf("table %s: duplicate column %s", m.Name, c.Name)
		}
		t.Columns = append(t.Columns, schema.Column{
			Name:       c.Name,
			Type:       typ,
			PrimaryKey: c.PrimaryKey,
			Unique:     c.Unique,
			NotNull:    c.NotNull,
		})
	}
	return t, nil
}
