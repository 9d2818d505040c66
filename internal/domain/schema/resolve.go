package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrColumnNotFound  = errors.New("column not found")
	ErrAmbiguousColumn = errors.New("ambiguous column")
	ErrTableNotInQuery = errors.New("table not in query")
)

// ResolveColumn finds the table among tables that owns name. A prefixed
// name must name one of tables; an unprefixed name must belong to exactly
// one of them.
func ResolveColumn(tables []*Table, name string) (*Table, Column, error) {
	if prefix, col, ok := strings.Cut(name, "."); ok {
		for _, t := range tables {
			if !strings.EqualFold(t.Name, prefix) {
				continue
			}
			c, found := t.Column(col)
			if !found {
				return nil, Column{}, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
			}
			return t, c, nil
		}
		return nil, Column{}, fmt.Errorf("%w: %s", ErrTableNotInQuery, prefix)
	}

	var owner *Table
	var found Column
	for _, t := range tables {
		c, ok := t.Column(name)
		if !ok {
			continue
		}
		if owner != nil {
			return nil, Column{}, fmt.Errorf("%w: %s is in both %s and %s", ErrAmbiguousColumn, name, owner.Name, t.Name)
		}
		owner, found = t, c
	}
	if owner == nil {
		return nil, Column{}, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	return owner, found, nil
}

// QualifyColumn returns the canonical "Table.Column" spelling of name.
func QualifyColumn(tables []*Table, name string) (string, error) {
	t, c, err := ResolveColumn(tables, name)
	if err != nil {
		return "", err
	}
	return t.Name + "." + c.Name, nil
}
