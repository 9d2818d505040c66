package plan

import (
	"fmt"
	"strings"
)

// Comparators accepted in predicates.
const (
	Equal        = "="
	NotEqual     = "!="
	Greater      = ">"
	Less         = "<"
	GreaterEqual = ">="
	LessEqual    = "<="
)

// IsComparator reports whether s is one of the supported comparators.
func IsComparator(s string) bool {
	switch s {
	case Equal, NotEqual, Greater, Less, GreaterEqual, LessEqual:
		return true
	}
	return false
}

// IsRange reports whether the comparator orders values rather than
// comparing them for (in)equality.
func IsRange(comparator string) bool {
	switch comparator {
	case Greater, Less, GreaterEqual, LessEqual:
		return true
	}
	return false
}

// Predicate is a single `column comparator value` condition. When
// ValueIsColumn is set, Value names a column and the predicate is a join
// condition.
type Predicate struct {
	Column        string
	Comparator    string
	Value         string
	ValueIsColumn bool
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %s", p.Column, p.Comparator, p.Value)
}

func (p Predicate) columns() []string {
	if p.ValueIsColumn {
		return AppendUnique(nil, p.Column, p.Value)
	}
	return []string{p.Column}
}

// AppendUnique appends the names not already present in dst, keeping
// first-seen order. Comparison is case-insensitive.
func AppendUnique(dst []string, names ...string) []string {
	for _, n := range names {
		if !ContainsColumn(dst, n) {
			dst = append(dst, n)
		}
	}
	return dst
}

// ContainsColumn reports whether cols holds name, ignoring case.
func ContainsColumn(cols []string, name string) bool {
	for _, c := range cols {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// CoversColumns reports whether every name in want appears in have.
func CoversColumns(have, want []string) bool {
	for _, w := range want {
		if !ContainsColumn(have, w) {
			return false
		}
	}
	return true
}
