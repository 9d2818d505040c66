package planner

import (
	"fmt"
	"strconv"

	"github.com/leengari/mini-optimizer/internal/domain/errors"
	"github.com/leengari/mini-optimizer/internal/domain/schema"
	"github.com/leengari/mini-optimizer/internal/parser/grammar"
	"github.com/leengari/mini-optimizer/internal/plan"
	"github.com/leengari/mini-optimizer/internal/querytree"
)

// build produces the naive tree: a left-deep cartesian product of the FROM
// and JOIN tables, one selection holding every ON and WHERE predicate, an
// aggregation and HAVING selection when the statement groups, and the
// SELECT list projection on top.
func (r *run) build(g *grammar.RuleGraph, tokens []string) (*querytree.QueryTree, error) {
	if err := g.IsSyntacticallyCorrect(tokens); err != nil {
		return nil, errors.NewUnsupportedRewrite(string(StageBuild), "", "", err.Error())
	}

	// 1. Relations
	names := g.Tables(tokens)
	if len(names) == 0 {
		return nil, errors.NewUnsupportedRewrite(string(StageBuild), "", "", "statement names no tables")
	}
	tables := make([]*schema.Table, len(names))
	for i, name := range names {
		t, ok := r.table(name)
		if !ok {
			return nil, errors.NewUnsupportedRewrite(string(StageBuild), "", plan.KindRelation.String(), "no metadata for table "+name)
		}
		tables[i] = t
	}
	tree, err := buildProduct(tables)
	if err != nil {
		return nil, err
	}

	// 2. ON and WHERE predicates
	preds, err := selectionPredicates(g, tokens, tables)
	if err != nil {
		return nil, err
	}
	if sel := selectionOf(preds); sel != nil {
		if err := tree.Add(querytree.Path{}, querytree.Up, sel); err != nil {
			return nil, err
		}
	}

	// 3. Grouping and HAVING
	items, star := g.SelectList(tokens)
	agg, having, err := aggregation(g, tokens, tables, items)
	if err != nil {
		return nil, err
	}
	if agg != nil {
		if err := tree.Add(querytree.Path{}, querytree.Up, agg); err != nil {
			return nil, err
		}
	}
	if sel := selectionOf(having); sel != nil {
		if err := tree.Add(querytree.Path{}, querytree.Up, sel); err != nil {
			return nil, err
		}
	}

	// 4. SELECT list
	var cols []string
	if star {
		for _, t := range tables {
			cols = append(cols, t.QualifiedColumnNames()...)
		}
	} else {
		for _, it := range items {
			name, err := qualify(tables, it.Column)
			if err != nil {
				return nil, err
			}
			if it.IsAggregate() {
				name = plan.Aggregate{Function: it.Function, Column: name}.Name()
			}
			cols = plan.AppendUnique(cols, name)
		}
	}
	if err := tree.Add(querytree.Path{}, querytree.Up, plan.NewProjection(cols...)); err != nil {
		return nil, err
	}
	return tree, nil
}

// buildProduct nests the tables into ((T0 × T1) × T2) × ...
func buildProduct(tables []*schema.Table) (*querytree.QueryTree, error) {
	if len(tables) == 1 {
		return querytree.New(&plan.Relation{Table: tables[0].Name}), nil
	}
	tree := querytree.New(&plan.CartesianProduct{})
	path := querytree.Path{}
	for i := len(tables) - 1; i >= 1; i-- {
		if err := tree.Add(path, querytree.Right, &plan.Relation{Table: tables[i].Name}); err != nil {
			return nil, err
		}
		if i > 1 {
			if err := tree.Add(path, querytree.Left, &plan.CartesianProduct{}); err != nil {
				return nil, err
			}
			path = path.Append(querytree.Left)
			continue
		}
		if err := tree.Add(path, querytree.Left, &plan.Relation{Table: tables[0].Name}); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

func selectionPredicates(g *grammar.RuleGraph, tokens []string, tables []*schema.Table) ([]plan.Predicate, error) {
	var preds []plan.Predicate
	for _, c := range g.JoinConditions(tokens) {
		left, err := qualify(tables, c.Column)
		if err != nil {
			return nil, err
		}
		right, err := qualify(tables, c.Value)
		if err != nil {
			return nil, err
		}
		preds = append(preds, plan.Predicate{Column: left, Comparator: c.Comparator, Value: right, ValueIsColumn: true})
	}
	for _, c := range g.WhereConditions(tokens) {
		col, err := qualify(tables, c.Column)
		if err != nil {
			return nil, err
		}
		p, err := predicateValue(tables, plan.Predicate{Column: col, Comparator: c.Comparator}, c)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

// predicateValue fills in the right-hand side: a quoted string keeps its
// quotes, a number is kept as written and anything else is a column.
func predicateValue(tables []*schema.Table, p plan.Predicate, c grammar.Condition) (plan.Predicate, error) {
	switch {
	case c.Quoted:
		p.Value = `"` + c.Value + `"`
	case isNumber(c.Value):
		p.Value = c.Value
	default:
		col, err := qualify(tables, c.Value)
		if err != nil {
			return p, err
		}
		p.Value = col
		p.ValueIsColumn = true
	}
	return p, nil
}

func aggregation(g *grammar.RuleGraph, tokens []string, tables []*schema.Table, items []grammar.SelectItem) (*plan.Aggregation, []plan.Predicate, error) {
	agg := &plan.Aggregation{}
	for _, name := range g.GroupBy(tokens) {
		col, err := qualify(tables, name)
		if err != nil {
			return nil, nil, err
		}
		agg.GroupBy = plan.AppendUnique(agg.GroupBy, col)
	}

	addAggregate := func(fn, column string) (plan.Aggregate, error) {
		col, err := qualify(tables, column)
		if err != nil {
			return plan.Aggregate{}, err
		}
		a := plan.Aggregate{Function: fn, Column: col}
		for _, have := range agg.Aggregates {
			if have == a {
				return a, nil
			}
		}
		agg.Aggregates = append(agg.Aggregates, a)
		return a, nil
	}

	for _, it := range items {
		if !it.IsAggregate() {
			continue
		}
		if _, err := addAggregate(it.Function, it.Column); err != nil {
			return nil, nil, err
		}
	}

	var having []plan.Predicate
	for _, c := range g.HavingConditions(tokens) {
		a, err := addAggregate(c.Function, c.Column)
		if err != nil {
			return nil, nil, err
		}
		value := c.Value
		if c.Quoted {
			value = `"` + value + `"`
		}
		having = append(having, plan.Predicate{Column: a.Name(), Comparator: c.Comparator, Value: value})
	}

	if len(agg.GroupBy) == 0 && len(agg.Aggregates) == 0 {
		return nil, nil, nil
	}
	return agg, having, nil
}

func selectionOf(preds []plan.Predicate) plan.Operator {
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return &plan.SimpleSelection{Predicate: preds[0]}
	}
	return &plan.CompoundSelection{Predicates: preds}
}

func qualify(tables []*schema.Table, name string) (string, error) {
	col, err := schema.QualifyColumn(tables, name)
	if err != nil {
		return "", errors.NewUnsupportedRewrite(string(StageBuild), "", "", fmt.Sprintf("cannot resolve column %q: %v", name, err))
	}
	return col, nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
