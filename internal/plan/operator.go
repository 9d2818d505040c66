package plan

import (
	"fmt"
	"strings"
)

// Kind identifies an operator variant. The set is closed: every rewrite
// stage switches on it.
type Kind int

const (
	KindRelation Kind = iota
	KindSimpleSelection
	KindCompoundSelection
	KindProjection
	KindCartesianProduct
	KindJoin
	KindAggregation
)

var kindNames = [...]string{
	KindRelation:          "Relation",
	KindSimpleSelection:   "SimpleSelection",
	KindCompoundSelection: "CompoundSelection",
	KindProjection:        "Projection",
	KindCartesianProduct:  "CartesianProduct",
	KindJoin:              "Join",
	KindAggregation:       "Aggregation",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Arity is the number of children a node of this kind has in a
// well-formed tree.
func (k Kind) Arity() int {
	switch k {
	case KindRelation:
		return 0
	case KindCartesianProduct, KindJoin:
		return 2
	default:
		return 1
	}
}

// Kinds lists every operator kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindRelation,
		KindSimpleSelection,
		KindCompoundSelection,
		KindProjection,
		KindCartesianProduct,
		KindJoin,
		KindAggregation,
	}
}

// Operator is a relational-algebra node payload.
type Operator interface {
	Kind() Kind

	// ReferencedColumnNames returns the columns this operator's own
	// evaluation reads, not those of its children.
	ReferencedColumnNames() []string

	// Copy returns a clone that shares no slices with the receiver.
	Copy() Operator

	// String is the canonical diagnostic rendering.
	String() string

	sealed()
}

// Relation is a base table scan. Always a leaf.
type Relation struct {
	Table string
}

func (r *Relation) Kind() Kind                      { return KindRelation }
func (r *Relation) ReferencedColumnNames() []string { return []string{} }
func (r *Relation) Copy() Operator                  { return &Relation{Table: r.Table} }
func (r *Relation) String() string                  { return r.Table }
func (r *Relation) sealed()                         {}

// SimpleSelection filters on a single predicate.
type SimpleSelection struct {
	Predicate
}

func NewSelection(column, comparator, value string, valueIsColumn bool) *SimpleSelection {
	return &SimpleSelection{Predicate: Predicate{
		Column:        column,
		Comparator:    comparator,
		Value:         value,
		ValueIsColumn: valueIsColumn,
	}}
}

func (s *SimpleSelection) Kind() Kind { return KindSimpleSelection }

func (s *SimpleSelection) ReferencedColumnNames() []string {
	return s.Predicate.columns()
}

func (s *SimpleSelection) Copy() Operator {
	return &SimpleSelection{Predicate: s.Predicate}
}

func (s *SimpleSelection) String() string {
	return fmt.Sprintf("σ (%s)", s.Predicate)
}

func (s *SimpleSelection) sealed() {}

// CompoundSelection is an AND-conjunction of predicates. Order matters.
type CompoundSelection struct {
	Predicates []Predicate
}

func (c *CompoundSelection) Kind() Kind { return KindCompoundSelection }

func (c *CompoundSelection) ReferencedColumnNames() []string {
	var cols []string
	for _, p := range c.Predicates {
		cols = AppendUnique(cols, p.columns()...)
	}
	if cols == nil {
		return []string{}
	}
	return cols
}

func (c *CompoundSelection) Copy() Operator {
	preds := make([]Predicate, len(c.Predicates))
	copy(preds, c.Predicates)
	return &CompoundSelection{Predicates: preds}
}

func (c *CompoundSelection) String() string {
	parts := make([]string, len(c.Predicates))
	for i, p := range c.Predicates {
		parts[i] = p.String()
	}
	return fmt.Sprintf("Σ [%s]", strings.Join(parts, " ∧ "))
}

func (c *CompoundSelection) sealed() {}

// Projection keeps only the listed columns.
type Projection struct {
	Columns []string
}

func NewProjection(columns ...string) *Projection {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Projection{Columns: cols}
}

func (p *Projection) Kind() Kind { return KindProjection }

func (p *Projection) ReferencedColumnNames() []string {
	cols := make([]string, len(p.Columns))
	copy(cols, p.Columns)
	return cols
}

func (p *Projection) Copy() Operator { return NewProjection(p.Columns...) }

func (p *Projection) String() string {
	return fmt.Sprintf("π (%s)", strings.Join(p.Columns, ", "))
}

func (p *Projection) sealed() {}

// CartesianProduct pairs every row of its left input with every row of its
// right input.
type CartesianProduct struct{}

func (c *CartesianProduct) Kind() Kind                      { return KindCartesianProduct }
func (c *CartesianProduct) ReferencedColumnNames() []string { return []string{} }
func (c *CartesianProduct) Copy() Operator                  { return &CartesianProduct{} }
func (c *CartesianProduct) String() string                  { return "×" }
func (c *CartesianProduct) sealed()                         {}

// Join is a cartesian product fused with the selection that sat on it.
type Join struct {
	LeftColumn  string
	Comparator  string
	RightColumn string
}

func (j *Join) Kind() Kind { return KindJoin }

func (j *Join) ReferencedColumnNames() []string {
	return AppendUnique(nil, j.LeftColumn, j.RightColumn)
}

func (j *Join) Copy() Operator {
	cp := *j
	return &cp
}

func (j *Join) String() string {
	return fmt.Sprintf("⋈ (%s %s %s)", j.LeftColumn, j.Comparator, j.RightColumn)
}

func (j *Join) sealed() {}

// Aggregate is a single aggregate function application, e.g. COUNT(T.c).
type Aggregate struct {
	Function string
	Column   string
}

// Name is the output column the aggregate produces.
func (a Aggregate) Name() string {
	return fmt.Sprintf("%s(%s)", a.Function, a.Column)
}

// Aggregation groups its input and computes aggregates per group.
type Aggregation struct {
	GroupBy    []string
	Aggregates []Aggregate
}

func (a *Aggregation) Kind() Kind { return KindAggregation }

func (a *Aggregation) ReferencedColumnNames() []string {
	cols := AppendUnique(nil, a.GroupBy...)
	for _, agg := range a.Aggregates {
		cols = AppendUnique(cols, agg.Column)
	}
	if cols == nil {
		return []string{}
	}
	return cols
}

// OutputColumns are the group-by columns followed by the aggregate names.
func (a *Aggregation) OutputColumns() []string {
	cols := AppendUnique(nil, a.GroupBy...)
	for _, agg := range a.Aggregates {
		cols = AppendUnique(cols, agg.Name())
	}
	return cols
}

func (a *Aggregation) Copy() Operator {
	group := make([]string, len(a.GroupBy))
	copy(group, a.GroupBy)
	aggs := make([]Aggregate, len(a.Aggregates))
	copy(aggs, a.Aggregates)
	return &Aggregation{GroupBy: group, Aggregates: aggs}
}

func (a *Aggregation) String() string {
	parts := make([]string, 0, len(a.GroupBy)+len(a.Aggregates))
	parts = append(parts, a.GroupBy...)
	for _, agg := range a.Aggregates {
		parts = append(parts, agg.Name())
	}
	return fmt.Sprintf("γ (%s)", strings.Join(parts, ", "))
}

func (a *Aggregation) sealed() {}
