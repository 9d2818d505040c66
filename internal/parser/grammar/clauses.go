package grammar

import "strings"

// SelectItem is one entry of the SELECT list. Function is empty for a
// plain column.
type SelectItem struct {
	Function string
	Column   string
}

func (s SelectItem) IsAggregate() bool {
	return s.Function != ""
}

// Condition is one predicate pulled out of an ON, WHERE or HAVING clause.
// Function is set for HAVING conditions; Quoted marks a string literal.
type Condition struct {
	Function   string
	Column     string
	Comparator string
	Value      string
	Quoted     bool
}

// IsAggregateFunction reports whether token names an aggregate function.
func IsAggregateFunction(token string) bool {
	switch strings.ToUpper(token) {
	case "MIN", "MAX", "AVG", "COUNT", "SUM":
		return true
	}
	return false
}

// SelectList returns the SELECT items in order. star is set for SELECT *.
func (g *RuleGraph) SelectList(tokens []string) (items []SelectItem, star bool) {
	if len(g.TokensAt(tokens, SelectStar)) > 0 {
		return nil, true
	}
	ids := append([]int{SelectColumn, SelectAggregateColumn}, SelectAggregates...)
	found := g.TokensAt(tokens, ids...)
	for i := 0; i < len(found); i++ {
		if IsAggregateFunction(found[i]) && i+1 < len(found) {
			items = append(items, SelectItem{Function: strings.ToUpper(found[i]), Column: found[i+1]})
			i++
			continue
		}
		items = append(items, SelectItem{Column: found[i]})
	}
	return items, false
}

// Tables returns the FROM and JOIN table names in order of appearance.
func (g *RuleGraph) Tables(tokens []string) []string {
	return g.TokensAt(tokens, TableNames...)
}

// JoinConditions returns the ON predicates. Their values are columns.
func (g *RuleGraph) JoinConditions(tokens []string) []Condition {
	ids := append([]int{OnLeftColumn, OnRightColumn}, OnComparators...)
	found := g.TokensAt(tokens, ids...)
	var out []Condition
	for i := 0; i+2 < len(found); i += 3 {
		out = append(out, Condition{Column: found[i], Comparator: found[i+1], Value: found[i+2]})
	}
	return out
}

// WhereConditions returns the WHERE predicates in order.
func (g *RuleGraph) WhereConditions(tokens []string) []Condition {
	ids := append([]int{WhereColumn, WhereNumericValue, WhereOpenQuote, WhereStringValue}, WhereComparators...)
	found := g.TokensAt(tokens, ids...)

	var out []Condition
	for i := 0; i+2 < len(found); {
		c := Condition{Column: found[i], Comparator: found[i+1]}
		i += 2
		if found[i] == `"` && i+1 < len(found) {
			c.Quoted = true
			i++
		}
		c.Value = found[i]
		i++
		out = append(out, c)
	}
	return out
}

// GroupBy returns the GROUP BY columns.
func (g *RuleGraph) GroupBy(tokens []string) []string {
	return g.TokensAt(tokens, GroupColumn)
}

// HavingConditions returns the HAVING predicates in order.
func (g *RuleGraph) HavingConditions(tokens []string) []Condition {
	ids := []int{HavingColumn, HavingNumericValue, HavingOpenQuote, HavingStringValue}
	ids = append(ids, HavingAggregates...)
	ids = append(ids, HavingComparators...)
	found := g.TokensAt(tokens, ids...)

	var out []Condition
	for i := 0; i+3 < len(found); {
		c := Condition{Function: strings.ToUpper(found[i]), Column: found[i+1], Comparator: found[i+2]}
		i += 3
		if found[i] == `"` && i+1 < len(found) {
			c.Quoted = true
			i++
		}
		c.Value = found[i]
		i++
		out = append(out, c)
	}
	return out
}
