package grammar

import "sync"

// Rule ids of the query grammar.
const (
	Select = iota
	SelectStar
	SelectColumn
	SelectMin
	SelectMax
	SelectAvg
	SelectCount
	SelectSum
	SelectAggregateOpen
	SelectAggregateColumn
	SelectAggregateClose
	SelectComma
	From
	FromTable
	FromComma
	FromNextTable
	Inner
	Join
	JoinTable
	On
	OnLeftColumn
	OnEqual
	OnNotEqual
	OnGreater
	OnLess
	OnGreaterEqual
	OnLessEqual
	OnRightColumn
	Where
	WhereColumn
	WhereEqual
	WhereNotEqual
	WhereGreater
	WhereLess
	WhereGreaterEqual
	WhereLessEqual
	WhereNumericValue
	WhereOpenQuote
	WhereStringValue
	WhereCloseQuote
	WhereAnd
	Group
	GroupBy
	GroupColumn
	GroupComma
	Having
	HavingMin
	HavingMax
	HavingAvg
	HavingCount
	HavingSum
	HavingOpen
	HavingColumn
	HavingClose
	HavingEqual
	HavingNotEqual
	HavingGreater
	HavingLess
	HavingGreaterEqual
	HavingLessEqual
	HavingNumericValue
	HavingOpenQuote
	HavingStringValue
	HavingCloseQuote
	HavingAnd
	End
)

// Rule id groups used when pulling clauses out of a statement.
var (
	SelectAggregates  = []int{SelectMin, SelectMax, SelectAvg, SelectCount, SelectSum}
	TableNames        = []int{FromTable, FromNextTable, JoinTable}
	OnComparators     = []int{OnEqual, OnNotEqual, OnGreater, OnLess, OnGreaterEqual, OnLessEqual}
	WhereComparators  = []int{WhereEqual, WhereNotEqual, WhereGreater, WhereLess, WhereGreaterEqual, WhereLessEqual}
	WhereValues       = []int{WhereNumericValue, WhereStringValue}
	HavingAggregates  = []int{HavingMin, HavingMax, HavingAvg, HavingCount, HavingSum}
	HavingComparators = []int{HavingEqual, HavingNotEqual, HavingGreater, HavingLess, HavingGreaterEqual, HavingLessEqual}
	HavingValues      = []int{HavingNumericValue, HavingStringValue}

	// ColumnReferences are every position where a column name may appear.
	ColumnReferences = []int{SelectColumn, SelectAggregateColumn, OnLeftColumn, OnRightColumn, WhereColumn, GroupColumn, HavingColumn}
)

// Query returns the shared query grammar. It is read-only once built.
var Query = sync.OnceValue(buildQuery)

func buildQuery() *RuleGraph {
	g := NewRuleGraph("query")

	g.AddRule("SELECT", false, Select)
	g.AddRule("*", false, SelectStar)
	g.AddRule("ColumnName", true, SelectColumn)
	g.AddRule("MIN", false, SelectMin)
	g.AddRule("MAX", false, SelectMax)
	g.AddRule("AVG", false, SelectAvg)
	g.AddRule("COUNT", false, SelectCount)
	g.AddRule("SUM", false, SelectSum)
	g.AddRule("(", false, SelectAggregateOpen)
	g.AddRule("ColumnName", true, SelectAggregateColumn)
	g.AddRule(")", false, SelectAggregateClose)
	g.AddRule(",", false, SelectComma)
	g.AddRule("FROM", false, From)
	g.AddRule("TableName", true, FromTable)
	g.AddRule(",", false, FromComma)
	g.AddRule("TableName", true, FromNextTable)
	g.AddRule("INNER", false, Inner)
	g.AddRule("JOIN", false, Join)
	g.AddRule("TableName", true, JoinTable)
	g.AddRule("ON", false, On)
	g.AddRule("ColumnName", true, OnLeftColumn)
	g.AddRule("=", false, OnEqual)
	g.AddRule("!=", false, OnNotEqual)
	g.AddRule(">", false, OnGreater)
	g.AddRule("<", false, OnLess)
	g.AddRule(">=", false, OnGreaterEqual)
	g.AddRule("<=", false, OnLessEqual)
	g.AddRule("ColumnName", true, OnRightColumn)
	g.AddRule("WHERE", false, Where)
	g.AddRule("ColumnName", true, WhereColumn)
	g.AddRule("=", false, WhereEqual)
	g.AddRule("!=", false, WhereNotEqual)
	g.AddRule(">", false, WhereGreater)
	g.AddRule("<", false, WhereLess)
	g.AddRule(">=", false, WhereGreaterEqual)
	g.AddRule("<=", false, WhereLessEqual)
	g.AddRule("NumericValue", true, WhereNumericValue)
	g.AddRule(`"`, false, WhereOpenQuote)
	g.AddRule("StringValue", true, WhereStringValue)
	g.AddRule(`"`, false, WhereCloseQuote)
	g.AddRule("AND", false, WhereAnd)
	g.AddRule("GROUP", false, Group)
	g.AddRule("BY", false, GroupBy)
	g.AddRule("ColumnName", true, GroupColumn)
	g.AddRule(",", false, GroupComma)
	g.AddRule("HAVING", false, Having)
	g.AddRule("MIN", false, HavingMin)
	g.AddRule("MAX", false, HavingMax)
	g.AddRule("AVG", false, HavingAvg)
	g.AddRule("COUNT", false, HavingCount)
	g.AddRule("SUM", false, HavingSum)
	g.AddRule("(", false, HavingOpen)
	g.AddRule("ColumnName", true, HavingColumn)
	g.AddRule(")", false, HavingClose)
	g.AddRule("=", false, HavingEqual)
	g.AddRule("!=", false, HavingNotEqual)
	g.AddRule(">", false, HavingGreater)
	g.AddRule("<", false, HavingLess)
	g.AddRule(">=", false, HavingGreaterEqual)
	g.AddRule("<=", false, HavingLessEqual)
	g.AddRule("NumericValue", true, HavingNumericValue)
	g.AddRule(`"`, false, HavingOpenQuote)
	g.AddRule("StringValue", true, HavingStringValue)
	g.AddRule(`"`, false, HavingCloseQuote)
	g.AddRule("AND", false, HavingAnd)
	g.AddRule(";", false, End)

	g.SetChildren(Select, SelectStar, SelectColumn, SelectMin, SelectMax, SelectAvg, SelectCount, SelectSum)
	g.SetChildren(SelectStar, From)
	g.SetChildren(SelectColumn, SelectComma, From)
	for _, agg := range SelectAggregates {
		g.SetChildren(agg, SelectAggregateOpen)
	}
	g.SetChildren(SelectAggregateOpen, SelectAggregateColumn)
	g.SetChildren(SelectAggregateColumn, SelectAggregateClose)
	g.SetChildren(SelectAggregateClose, SelectComma, From)
	g.SetChildren(SelectComma, SelectColumn, SelectMin, SelectMax, SelectAvg, SelectCount, SelectSum)
	g.SetChildren(From, FromTable)
	g.SetChildren(FromTable, FromComma, Inner, Where, Group, End)
	g.SetChildren(FromComma, FromNextTable)
	g.SetChildren(FromNextTable, FromComma, Where, Group, End)
	g.SetChildren(Inner, Join)
	g.SetChildren(Join, JoinTable)
	g.SetChildren(JoinTable, On)
	g.SetChildren(On, OnLeftColumn)
	g.SetChildren(OnLeftColumn, OnComparators...)
	for _, cmp := range OnComparators {
		g.SetChildren(cmp, OnRightColumn)
	}
	g.SetChildren(OnRightColumn, Inner, Where, Group, End)
	g.SetChildren(Where, WhereColumn)
	g.SetChildren(WhereColumn, WhereComparators...)
	for _, cmp := range WhereComparators {
		g.SetChildren(cmp, WhereNumericValue, WhereOpenQuote)
	}
	g.SetChildren(WhereNumericValue, WhereAnd, Group, End)
	g.SetChildren(WhereOpenQuote, WhereStringValue)
	g.SetChildren(WhereStringValue, WhereCloseQuote)
	g.SetChildren(WhereCloseQuote, WhereAnd, Group, End)
	g.SetChildren(WhereAnd, WhereColumn)
	g.SetChildren(Group, GroupBy)
	g.SetChildren(GroupBy, GroupColumn)
	g.SetChildren(GroupColumn, GroupComma, Having, End)
	g.SetChildren(GroupComma, GroupColumn)
	g.SetChildren(Having, HavingAggregates...)
	for _, agg := range HavingAggregates {
		g.SetChildren(agg, HavingOpen)
	}
	g.SetChildren(HavingOpen, HavingColumn)
	g.SetChildren(HavingColumn, HavingClose)
	g.SetChildren(HavingClose, HavingComparators...)
	for _, cmp := range HavingComparators {
		g.SetChildren(cmp, HavingNumericValue, HavingOpenQuote)
	}
	g.SetChildren(HavingNumericValue, HavingAnd, End)
	g.SetChildren(HavingOpenQuote, HavingStringValue)
	g.SetChildren(HavingStringValue, HavingCloseQuote)
	g.SetChildren(HavingCloseQuote, HavingAnd, End)
	g.SetChildren(HavingAnd, HavingAggregates...)
	g.SetChildren(End)
	g.SetTerminal(End)

	return g
}
