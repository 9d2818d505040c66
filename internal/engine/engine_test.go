package engine

import (
	stderrors "errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"golang.org/x/sync/errgroup"
	"gotest.tools/v3/assert"

	"github.com/leengari/mini-optimizer/databases"
	"github.com/leengari/mini-optimizer/internal/domain/errors"
	"github.com/leengari/mini-optimizer/internal/planner"
	"github.com/leengari/mini-optimizer/internal/storage"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newSampleEngine(t *testing.T, opts ...planner.Option) *Engine {
	t.Helper()
	cat, err := storage.LoadDatabase(databases.Content, databases.SampleDir, quiet)
	assert.NilError(t, err)
	eng := New(cat, opts...)
	eng.SetLogger(quiet)
	return eng
}

func TestExplainLifecycle(t *testing.T) {
	eng := newSampleEngine(t)
	observer := &MockObserver{}
	eng.AddObserver(observer)

	res, err := eng.Explain("SELECT FirstName FROM Customers WHERE CustomerID = 1;")
	assert.NilError(t, err)
	assert.Equal(t, len(res.Snapshots), 7)
	assert.Equal(t, len(res.Tables), 1)
	assert.Equal(t, res.Tables[0].Name, "Customers")

	want := []EventType{
		EventExplainStart,
		EventLexStart, EventLexEnd,
		EventParseStart, EventParseEnd,
		EventValidateStart, EventValidateEnd,
		EventOptimizeStart,
	}
	for range planner.Stages() {
		want = append(want, EventStage)
	}
	want = append(want, EventOptimizeEnd, EventExplainEnd)
	assert.DeepEqual(t, observer.types(), want)

	for _, ev := range observer.Events {
		assert.Equal(t, ev.RunID, res.RunID)
	}
}

func TestExplainErrors(t *testing.T) {
	eng := newSampleEngine(t)

	tests := []struct {
		name   string
		sql    string
		prefix string
		clause string
	}{
		{"lexer", `SELECT * FROM Customers WHERE FirstName = "Jane`, "lexer error", ""},
		{"syntax", "SELECT FROM Customers", "syntax error", "syntax"},
		{"unknown table", "SELECT * FROM Nope", "validation error", "FROM"},
		{"type mismatch", `SELECT * FROM Customers WHERE CustomerID = "one"`, "validation error", "WHERE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observer := &MockObserver{}
			eng.AddObserver(observer)
			defer eng.RemoveObserver(observer)

			res, err := eng.Explain(tt.sql)
			assert.Assert(t, res == nil)
			assert.Assert(t, strings.HasPrefix(err.Error(), tt.prefix), err.Error())

			if tt.clause != "" {
				var qe *errors.QueryError
				assert.Assert(t, stderrors.As(err, &qe))
				assert.Equal(t, qe.Clause, tt.clause)
			}
			types := observer.types()
			assert.Equal(t, types[len(types)-1], EventExplainFailed)
		})
	}
}

func TestExplainWithoutCatalog(t *testing.T) {
	_, err := New(nil).Explain("SELECT * FROM Customers")
	assert.ErrorContains(t, err, "no database loaded")

	_, err = New(nil).ListTables()
	assert.ErrorContains(t, err, "no database loaded")
}

func TestListTables(t *testing.T) {
	names, err := newSampleEngine(t).ListTables()
	assert.NilError(t, err)
	assert.DeepEqual(t, names, []string{
		"CustomerPurchaseDetails", "Customers", "EmployeePurchaseDetails", "Employees", "Products", "Stores",
	})
}

func TestExplainPassesOptimizerOptions(t *testing.T) {
	sql := "SELECT * FROM Customers, Stores"

	on, err := newSampleEngine(t).Explain(sql)
	assert.NilError(t, err)
	off, err := newSampleEngine(t, planner.WithRearrangeLeaves(false)).Explain(sql)
	assert.NilError(t, err)

	stage := planner.StageRearrangeLeaves
	assert.Assert(t, on.Snapshots[4].Stage == stage && off.Snapshots[4].Stage == stage)
	assert.Assert(t, on.Snapshots[4].Tree.String() != off.Snapshots[4].Tree.String())
}

func TestConcurrentExplain(t *testing.T) {
	eng := newSampleEngine(t)
	observer := &MockObserver{}
	eng.AddObserver(observer)

	queries := []string{
		"SELECT FirstName FROM Customers WHERE CustomerID = 1",
		"SELECT * FROM Stores",
		"SELECT State, COUNT(State) FROM Employees GROUP BY State",
		"SELECT ProductName FROM Products WHERE Price > 10",
	}
	results := make([]string, len(queries))

	var g errgroup.Group
	g.SetLimit(2)
	for i, q := range queries {
		g.Go(func() error {
			res, err := eng.Explain(q)
			if err != nil {
				return err
			}
			results[i] = res.Snapshots[len(res.Snapshots)-1].String()
			return nil
		})
	}
	assert.NilError(t, g.Wait())

	for i, q := range queries {
		res, err := eng.Explain(q)
		assert.NilError(t, err)
		assert.Equal(t, res.Snapshots[len(res.Snapshots)-1].String(), results[i])
	}
}
