package catalog

import (
	"fmt"
	"strings"

	"github.com/google/btree"

	"github.com/leengari/mini-optimizer/internal/domain/schema"
)

// Catalog holds table metadata ordered by case-insensitive table name, so
// every listing it produces is deterministic.
type Catalog struct {
	tables *btree.BTreeG[*schema.Table]
}

func lessTable(a, b *schema.Table) bool {
	return strings.ToLower(a.Name) < strings.ToLower(b.Name)
}

func New(tables ...*schema.Table) *Catalog {
	c := &Catalog{tables: btree.NewG(8, lessTable)}
	for _, t := range tables {
		c.Put(t)
	}
	return c
}

// Put adds or replaces a table.
func (c *Catalog) Put(t *schema.Table) {
	c.tables.ReplaceOrInsert(t)
}

// Get finds a table by name, ignoring case.
func (c *Catalog) Get(name string) (*schema.Table, bool) {
	return c.tables.Get(&schema.Table{Name: name})
}

func (c *Catalog) Len() int {
	return c.tables.Len()
}

// Tables returns every table in name order.
func (c *Catalog) Tables() []*schema.Table {
	out := make([]*schema.Table, 0, c.tables.Len())
	c.tables.Ascend(func(t *schema.Table) bool {
		out = append(out, t)
		return true
	})
	return out
}

func (c *Catalog) Names() []string {
	var names []string
	for _, t := range c.Tables() {
		names = append(names, t.Name)
	}
	return names
}

// Lookup returns copies of the named tables in the order given. The copies
// are the read-only metadata snapshot handed to one optimizer run.
func (c *Catalog) Lookup(names ...string) ([]*schema.Table, error) {
	out := make([]*schema.Table, 0, len(names))
	for _, n := range names {
		t, ok := c.Get(n)
		if !ok {
			return nil, fmt.Errorf("table not found: %s", n)
		}
		out = append(out, t.Copy())
	}
	return out, nil
}

// TablesWithColumn lists, in name order, the tables that declare column.
func (c *Catalog) TablesWithColumn(column string) []*schema.Table {
	var out []*schema.Table
	c.tables.Ascend(func(t *schema.Table) bool {
		if t.HasColumn(column) {
			out = append(out, t)
		}
		return true
	})
	return out
}
