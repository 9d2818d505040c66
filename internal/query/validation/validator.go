package validation

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/leengari/mini-optimizer/internal/catalog"
	"github.com/leengari/mini-optimizer/internal/domain/errors"
	"github.com/leengari/mini-optimizer/internal/domain/schema"
	"github.com/leengari/mini-optimizer/internal/parser/grammar"
	"github.com/leengari/mini-optimizer/internal/plan"
)

// ValidateQuery checks a syntactically correct statement against the
// catalog and returns copies of the referenced tables in FROM order.
// Failures are reported as *errors.QueryError.
func ValidateQuery(g *grammar.RuleGraph, tokens []string, cat *catalog.Catalog) ([]*schema.Table, error) {
	if kw, ok := g.IllegalKeyword(tokens); ok {
		return nil, &errors.QueryError{Clause: "syntax", Token: kw, Reason: "reserved word used as a name or value"}
	}

	// 1. Tables
	tables, err := validateTables(g, tokens, cat)
	if err != nil {
		return nil, err
	}

	items, _ := g.SelectList(tokens)
	on := g.JoinConditions(tokens)
	where := g.WhereConditions(tokens)
	groupBy := g.GroupBy(tokens)
	having := g.HavingConditions(tokens)

	// 2. Columns exist and are unambiguous
	for _, item := range items {
		if _, err := resolve(tables, "SELECT", item.Column); err != nil {
			return nil, err
		}
	}
	for _, c := range on {
		if err := validateJoinCondition(tables, c); err != nil {
			return nil, err
		}
	}
	for _, c := range where {
		if err := validateWhereCondition(tables, c); err != nil {
			return nil, err
		}
	}
	for _, col := range groupBy {
		if _, err := resolve(tables, "GROUP BY", col); err != nil {
			return nil, err
		}
	}

	// 3. Aggregates
	if err := validateAggregates(tables, items, groupBy, having); err != nil {
		return nil, err
	}

	return tables, nil
}

func validateTables(g *grammar.RuleGraph, tokens []string, cat *catalog.Catalog) ([]*schema.Table, error) {
	if dup, ok := g.HasDuplicatesAt(tokens, grammar.TableNames...); ok {
		return nil, &errors.QueryError{Clause: "FROM", Token: dup, Reason: "table listed more than once"}
	}
	names := g.Tables(tokens)
	for _, name := range names {
		if _, ok := cat.Get(name); !ok {
			return nil, &errors.QueryError{Clause: "FROM", Token: name, Reason: "table does not exist"}
		}
	}
	return cat.Lookup(names...)
}

func resolve(tables []*schema.Table, clause, column string) (schema.Column, error) {
	_, col, err := schema.ResolveColumn(tables, column)
	if err != nil {
		reason := "column does not exist"
		switch {
		case stderrors.Is(err, schema.ErrAmbiguousColumn):
			reason = "column name is ambiguous, prefix it with its table name"
		case stderrors.Is(err, schema.ErrTableNotInQuery):
			reason = "column prefix names a table that is not in the query"
		}
		return schema.Column{}, &errors.QueryError{Clause: clause, Token: column, Reason: reason}
	}
	return col, nil
}

func validateJoinCondition(tables []*schema.Table, c grammar.Condition) error {
	left, err := resolve(tables, "JOIN", c.Column)
	if err != nil {
		return err
	}
	right, err := resolve(tables, "JOIN", c.Value)
	if err != nil {
		return err
	}
	if left.Type != right.Type {
		return &errors.QueryError{
			Clause: "JOIN",
			Token:  c.Column,
			Reason: fmt.Sprintf("cannot compare %s with %s (%s)", left.Type, c.Value, right.Type),
		}
	}
	if left.Type == schema.ColumnTypeChar && plan.IsRange(c.Comparator) {
		return &errors.QueryError{Clause: "JOIN", Token: c.Comparator, Reason: "range comparison on CHAR columns"}
	}
	return nil
}

func validateWhereCondition(tables []*schema.Table, c grammar.Condition) error {
	col, err := resolve(tables, "WHERE", c.Column)
	if err != nil {
		return err
	}

	if col.Type == schema.ColumnTypeChar && plan.IsRange(c.Comparator) {
		return &errors.QueryError{Clause: "WHERE", Token: c.Comparator, Reason: "range comparison on CHAR column " + c.Column}
	}

	if c.Quoted {
		if col.Type == schema.ColumnTypeNumber {
			return &errors.QueryError{Clause: "WHERE", Token: c.Value, Reason: fmt.Sprintf("string value compared with NUMBER column %s", c.Column)}
		}
		return nil
	}

	if isNumber(c.Value) {
		if col.Type != schema.ColumnTypeNumber {
			return &errors.QueryError{Clause: "WHERE", Token: c.Value, Reason: fmt.Sprintf("numeric value compared with %s column %s", col.Type, c.Column)}
		}
		return nil
	}

	// an unquoted, non-numeric value must be a column: a join condition
	other, err := resolve(tables, "WHERE", c.Value)
	if err != nil {
		return err
	}
	if other.Type != col.Type {
		return &errors.QueryError{
			Clause: "WHERE",
			Token:  c.Value,
			Reason: fmt.Sprintf("cannot compare %s (%s) with %s (%s)", c.Column, col.Type, c.Value, other.Type),
		}
	}
	return nil
}

func validateAggregates(tables []*schema.Table, items []grammar.SelectItem, groupBy []string, having []grammar.Condition) error {
	var selected []string
	var grouped []string
	hasAggregate := false

	for _, col := range groupBy {
		q, _ := schema.QualifyColumn(tables, col)
		grouped = append(grouped, q)
	}

	for _, item := range items {
		q, _ := schema.QualifyColumn(tables, item.Column)
		if !item.IsAggregate() {
			continue
		}
		hasAggregate = true
		if err := checkAggregateType(tables, "SELECT", item.Function, item.Column); err != nil {
			return err
		}
		selected = append(selected, plan.Aggregate{Function: item.Function, Column: q}.Name())
	}

	if len(groupBy) > 0 && !hasAggregate {
		return &errors.QueryError{Clause: "GROUP BY", Token: groupBy[0], Reason: "GROUP BY used without an aggregate function"}
	}

	if hasAggregate {
		for _, item := range items {
			if item.IsAggregate() {
				continue
			}
			q, _ := schema.QualifyColumn(tables, item.Column)
			if !plan.ContainsColumn(grouped, q) {
				return &errors.QueryError{Clause: "SELECT", Token: item.Column, Reason: "column must appear in GROUP BY"}
			}
		}
	}

	for _, c := range having {
		if _, err := resolve(tables, "HAVING", c.Column); err != nil {
			return err
		}
		if err := checkAggregateType(tables, "HAVING", c.Function, c.Column); err != nil {
			return err
		}
		q, _ := schema.QualifyColumn(tables, c.Column)
		name := plan.Aggregate{Function: c.Function, Column: q}.Name()
		if !plan.ContainsColumn(selected, name) {
			return &errors.QueryError{Clause: "HAVING", Token: name, Reason: "aggregate must also appear in the SELECT list"}
		}
		if !c.Quoted && !isNumber(c.Value) {
			return &errors.QueryError{Clause: "HAVING", Token: c.Value, Reason: "value is not a number"}
		}
		if c.Quoted && c.Function != "MIN" && c.Function != "MAX" {
			return &errors.QueryError{Clause: "HAVING", Token: c.Value, Reason: fmt.Sprintf("%s yields a number", c.Function)}
		}
	}
	return nil
}

// checkAggregateType rejects functions other than COUNT on CHAR columns and
// arithmetic aggregates on DATE columns.
func checkAggregateType(tables []*schema.Table, clause, function, column string) error {
	col, err := resolve(tables, clause, column)
	if err != nil {
		return err
	}
	fn := strings.ToUpper(function)
	switch {
	case col.Type == schema.ColumnTypeChar && fn != "COUNT":
		return &errors.QueryError{Clause: clause, Token: fmt.Sprintf("%s(%s)", fn, column), Reason: "only COUNT applies to CHAR columns"}
	case col.Type == schema.ColumnTypeDate && (fn == "SUM" || fn == "AVG"):
		return &errors.QueryError{Clause: clause, Token: fmt.Sprintf("%s(%s)", fn, column), Reason: fn + " does not apply to DATE columns"}
	}
	return nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
