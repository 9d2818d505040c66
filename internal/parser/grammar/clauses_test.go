package grammar

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestClauseExtraction(t *testing.T) {
	g := Query()
	tokens := split(t, `SELECT Customers.FirstName, count(Orders.Total) FROM Customers INNER JOIN Orders ON Customers.CustomerID = Orders.CustomerID WHERE Orders.Total > 5 AND Customers.City = "New York" AND Orders.Total < Orders.Limit GROUP BY Customers.FirstName HAVING SUM(Orders.Total) <= 100 AND MIN(Orders.Total) != '3'`)

	items, star := g.SelectList(tokens)
	assert.Assert(t, !star)
	assert.DeepEqual(t, items, []SelectItem{
		{Column: "Customers.FirstName"},
		{Function: "COUNT", Column: "Orders.Total"},
	})
	assert.Assert(t, items[1].IsAggregate())

	assert.DeepEqual(t, g.Tables(tokens), []string{"Customers", "Orders"})

	assert.DeepEqual(t, g.JoinConditions(tokens), []Condition{
		{Column: "Customers.CustomerID", Comparator: "=", Value: "Orders.CustomerID"},
	})

	assert.DeepEqual(t, g.WhereConditions(tokens), []Condition{
		{Column: "Orders.Total", Comparator: ">", Value: "5"},
		{Column: "Customers.City", Comparator: "=", Value: "New York", Quoted: true},
		{Column: "Orders.Total", Comparator: "<", Value: "Orders.Limit"},
	})

	assert.DeepEqual(t, g.GroupBy(tokens), []string{"Customers.FirstName"})

	assert.DeepEqual(t, g.HavingConditions(tokens), []Condition{
		{Function: "SUM", Column: "Orders.Total", Comparator: "<=", Value: "100"},
		{Function: "MIN", Column: "Orders.Total", Comparator: "!=", Value: "3", Quoted: true},
	})
}

func TestSelectStar(t *testing.T) {
	items, star := Query().SelectList(split(t, "SELECT * FROM Customers"))
	assert.Assert(t, star)
	assert.Equal(t, len(items), 0)
}
