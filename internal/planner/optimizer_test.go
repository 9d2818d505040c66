package planner

import (
	stderrors "errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"

	"github.com/leengari/mini-optimizer/databases"
	"github.com/leengari/mini-optimizer/internal/catalog"
	"github.com/leengari/mini-optimizer/internal/domain/errors"
	"github.com/leengari/mini-optimizer/internal/domain/schema"
	"github.com/leengari/mini-optimizer/internal/parser/grammar"
	"github.com/leengari/mini-optimizer/internal/parser/lexer"
	"github.com/leengari/mini-optimizer/internal/plan"
	"github.com/leengari/mini-optimizer/internal/querytree"
	"github.com/leengari/mini-optimizer/internal/storage"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func sampleCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := storage.LoadDatabase(databases.Content, databases.SampleDir, quiet)
	assert.NilError(t, err)
	return cat
}

func prepare(t *testing.T, sql string) ([]string, []*schema.Table) {
	t.Helper()
	tokens, err := lexer.Split(sql)
	assert.NilError(t, err)
	tables, err := sampleCatalog(t).Lookup(grammar.Query().Tables(tokens)...)
	assert.NilError(t, err)
	return tokens, tables
}

func optimize(t *testing.T, sql string, opts ...Option) []Snapshot {
	t.Helper()
	tokens, tables := prepare(t, sql)
	snaps, err := New(append([]Option{WithLogger(quiet)}, opts...)...).Optimize(tokens, tables)
	assert.NilError(t, err)
	return snaps
}

func stage(t *testing.T, snaps []Snapshot, s Stage) Snapshot {
	t.Helper()
	for _, snap := range snaps {
		if snap.Stage == s {
			return snap
		}
	}
	t.Fatalf("no %s snapshot", s)
	return Snapshot{}
}

func listing(s Snapshot) []string {
	var out []string
	for _, e := range s.Entries() {
		out = append(out, e.String())
	}
	return out
}

func TestSingleTableSelection(t *testing.T) {
	snaps := optimize(t, "SELECT FirstName FROM Customers WHERE CustomerID = 1")

	want := []string{
		"π (Customers.FirstName): Root",
		"σ (Customers.CustomerID = 1): DOWN",
		"Customers: DOWN, DOWN",
	}
	assert.Equal(t, len(snaps), 7)
	for i, s := range Stages()[:6] {
		assert.Equal(t, snaps[i].Stage, s)
		assert.DeepEqual(t, listing(snaps[i]), want)
	}
	assert.Equal(t, snaps[6].Stage, StagePipeline)
	assert.DeepEqual(t, snaps[6].Pipeline, []querytree.Path{
		{querytree.Down, querytree.Down},
		{querytree.Down},
		{},
	})
	assert.DeepEqual(t, snaps[0].Rows, []float64{20, 20, 200})
}

func TestSelectStar(t *testing.T) {
	snaps := optimize(t, "SELECT * FROM Stores")

	want := []string{
		"π (Stores.StoreID, Stores.StoreName, Stores.ManagerID, Stores.City): Root",
		"Stores: DOWN",
	}
	for _, s := range snaps {
		assert.DeepEqual(t, listing(s), want)
		assert.Equal(t, s.Tree.KindOccurrence(plan.KindSimpleSelection), 0)
		assert.Equal(t, s.Tree.KindOccurrence(plan.KindCompoundSelection), 0)
	}
}

const joinQuery = `SELECT Customers.FirstName, Quantity FROM Customers INNER JOIN CustomerPurchaseDetails ` +
	`ON Customers.CustomerID = CustomerPurchaseDetails.CustomerID WHERE Customers.State = "CA"`

func TestInnerJoin(t *testing.T) {
	snaps := optimize(t, joinQuery)

	assert.DeepEqual(t, listing(stage(t, snaps, StageBuild)), []string{
		"π (Customers.FirstName, CustomerPurchaseDetails.Quantity): Root",
		`Σ [Customers.CustomerID = CustomerPurchaseDetails.CustomerID ∧ Customers.State = "CA"]: DOWN`,
		"×: DOWN, DOWN",
		"Customers: DOWN, DOWN, LEFT",
		"CustomerPurchaseDetails: DOWN, DOWN, RIGHT",
	})

	assert.DeepEqual(t, listing(stage(t, snaps, StagePushDownSelections)), []string{
		"π (Customers.FirstName, CustomerPurchaseDetails.Quantity): Root",
		"σ (Customers.CustomerID = CustomerPurchaseDetails.CustomerID): DOWN",
		"×: DOWN, DOWN",
		`σ (Customers.State = "CA"): DOWN, DOWN, LEFT`,
		"Customers: DOWN, DOWN, LEFT, DOWN",
		"CustomerPurchaseDetails: DOWN, DOWN, RIGHT",
	})

	joined := stage(t, snaps, StageFormJoins)
	assert.DeepEqual(t, listing(joined), []string{
		"π (Customers.FirstName, CustomerPurchaseDetails.Quantity): Root",
		"⋈ (Customers.CustomerID = CustomerPurchaseDetails.CustomerID): DOWN",
		`σ (Customers.State = "CA"): DOWN, LEFT`,
		"Customers: DOWN, LEFT, DOWN",
		"CustomerPurchaseDetails: DOWN, RIGHT",
	})
	assert.Equal(t, joined.Tree.KindOccurrence(plan.KindCartesianProduct), 0)

	assert.DeepEqual(t, listing(stage(t, snaps, StagePushDownProjections)), []string{
		"π (Customers.FirstName, CustomerPurchaseDetails.Quantity): Root",
		"⋈ (Customers.CustomerID = CustomerPurchaseDetails.CustomerID): DOWN",
		`σ (Customers.State = "CA"): DOWN, LEFT`,
		"π (Customers.CustomerID, Customers.FirstName, Customers.State): DOWN, LEFT, DOWN",
		"Customers: DOWN, LEFT, DOWN, DOWN",
		"π (CustomerPurchaseDetails.CustomerID, CustomerPurchaseDetails.Quantity): DOWN, RIGHT",
		"CustomerPurchaseDetails: DOWN, RIGHT, DOWN",
	})
}

func TestPipelineSnapshots(t *testing.T) {
	snaps := optimize(t, joinQuery)

	var pipelines [][]querytree.Path
	for _, s := range snaps {
		if s.Stage == StagePipeline {
			pipelines = append(pipelines, s.Pipeline)
			assert.Equal(t, s.NodeCount(), 7)
		}
	}
	D, L, R := querytree.Down, querytree.Left, querytree.Right
	assert.DeepEqual(t, pipelines, [][]querytree.Path{
		{{D, L, D, D}, {D, L, D}, {D, L}},
		{{D, R, D}, {D, R}},
		{{D}, {}},
	})
}

func TestCascadeKeepsPredicateOrder(t *testing.T) {
	snaps := optimize(t, `SELECT * FROM Customers WHERE State = "CA" AND City = "Austin" AND CustomerID > 10`)

	cascaded := stage(t, snaps, StageCascade)
	assert.Equal(t, cascaded.Tree.KindOccurrence(plan.KindCompoundSelection), 0)

	var preds []string
	for _, e := range cascaded.Tree.OperatorsAndLocationsOfKind(plan.KindSimpleSelection, querytree.Preorder) {
		preds = append(preds, e.Operator.String())
	}
	assert.DeepEqual(t, preds, []string{
		`σ (Customers.State = "CA")`,
		`σ (Customers.City = "Austin")`,
		`σ (Customers.CustomerID > 10)`,
	})
	assert.Equal(t, cascaded.NodeCount(), stage(t, snaps, StageBuild).NodeCount()+2)
}

func TestWhereJoinsAcrossThreeTables(t *testing.T) {
	snaps := optimize(t, `SELECT ProductName FROM Customers, CustomerPurchaseDetails, Products `+
		`WHERE Customers.CustomerID = CustomerPurchaseDetails.CustomerID `+
		`AND CustomerPurchaseDetails.ProductID = Products.ProductID AND Customers.State = "CA"`)

	joined := stage(t, snaps, StageFormJoins)
	assert.Equal(t, joined.Tree.KindOccurrence(plan.KindJoin), 2)
	assert.Equal(t, joined.Tree.KindOccurrence(plan.KindCartesianProduct), 0)

	assert.DeepEqual(t, listing(joined), []string{
		"π (Products.ProductName): Root",
		"⋈ (CustomerPurchaseDetails.ProductID = Products.ProductID): DOWN",
		"⋈ (Customers.CustomerID = CustomerPurchaseDetails.CustomerID): DOWN, LEFT",
		`σ (Customers.State = "CA"): DOWN, LEFT, LEFT`,
		"Customers: DOWN, LEFT, LEFT, DOWN",
		"CustomerPurchaseDetails: DOWN, LEFT, RIGHT",
		"Products: DOWN, RIGHT",
	})
}

func TestJoinConditionStaysAboveProduct(t *testing.T) {
	// Push-down leaves the join condition on the product; form joins
	// then consumes it.
	snaps := optimize(t, `SELECT * FROM Customers, CustomerPurchaseDetails `+
		`WHERE Customers.CustomerID = CustomerPurchaseDetails.CustomerID`)

	pushed := stage(t, snaps, StagePushDownSelections)
	e, err := pushed.Tree.FirstOccurrenceOfKind(plan.KindSimpleSelection)
	assert.NilError(t, err)
	below, err := pushed.Tree.Get(e.Path, querytree.Down)
	assert.NilError(t, err)
	assert.Equal(t, below.Kind(), plan.KindCartesianProduct)

	joined := stage(t, snaps, StageFormJoins)
	assert.Equal(t, joined.Tree.KindOccurrence(plan.KindSimpleSelection), 0)
	assert.Equal(t, joined.Tree.KindOccurrence(plan.KindJoin), 1)
}

func TestMirroredJoinCondition(t *testing.T) {
	snaps := optimize(t, `SELECT * FROM Customers, CustomerPurchaseDetails `+
		`WHERE CustomerPurchaseDetails.Quantity > Customers.CustomerID`)

	e, err := stage(t, snaps, StageFormJoins).Tree.FirstOccurrenceOfKind(plan.KindJoin)
	assert.NilError(t, err)
	assert.Equal(t, e.Operator.String(), "⋈ (Customers.CustomerID < CustomerPurchaseDetails.Quantity)")
}

func TestPushDownIsIdempotent(t *testing.T) {
	tokens, tables := prepare(t, joinQuery)
	snaps, err := New(WithLogger(quiet)).Optimize(tokens, tables)
	assert.NilError(t, err)

	pushed := stage(t, snaps, StagePushDownSelections)
	again, err := pushed.Tree.Clone()
	assert.NilError(t, err)
	assert.NilError(t, pushDownSelections(newRun(tables), again))
	assert.Equal(t, again.String(), pushed.Tree.String())
}

func TestOptimizeIsDeterministic(t *testing.T) {
	render := func(snaps []Snapshot) []string {
		out := make([]string, len(snaps))
		for i, s := range snaps {
			out[i] = s.String()
		}
		return out
	}
	first := render(optimize(t, joinQuery))
	second := render(optimize(t, joinQuery))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("snapshots differ between runs (-first +second):\n%s", diff)
	}
}

func TestSnapshotsAreIndependent(t *testing.T) {
	snaps := optimize(t, joinQuery)
	before := snaps[0].Tree.String()

	_, err := snaps[1].Tree.RemoveSubtree(querytree.Path{querytree.Down})
	assert.NilError(t, err)
	assert.Equal(t, snaps[0].Tree.String(), before)
}

func TestRearrangeLeaves(t *testing.T) {
	const sql = "SELECT * FROM Customers, Stores"

	on := stage(t, optimize(t, sql), StageRearrangeLeaves)
	assert.DeepEqual(t, listing(on)[1:], []string{
		"×: DOWN",
		"Stores: DOWN, LEFT",
		"Customers: DOWN, RIGHT",
	})

	snaps := optimize(t, sql, WithRearrangeLeaves(false))
	off := stage(t, snaps, StageRearrangeLeaves)
	assert.DeepEqual(t, listing(off), listing(stage(t, snaps, StageFormJoins)))
	assert.DeepEqual(t, listing(off)[1:], []string{
		"×: DOWN",
		"Customers: DOWN, LEFT",
		"Stores: DOWN, RIGHT",
	})
}

func TestAggregation(t *testing.T) {
	snaps := optimize(t, "SELECT State, COUNT(State) FROM Employees GROUP BY State HAVING COUNT(State) > 2")

	want := []string{
		"π (Employees.State, COUNT(Employees.State)): Root",
		"σ (COUNT(Employees.State) > 2): DOWN",
		"γ (Employees.State, COUNT(Employees.State)): DOWN, DOWN",
		"Employees: DOWN, DOWN, DOWN",
	}
	assert.DeepEqual(t, listing(stage(t, snaps, StageBuild)), want)
	assert.DeepEqual(t, listing(stage(t, snaps, StagePushDownProjections)), want)

	var pipelines int
	for _, s := range snaps {
		if s.Stage == StagePipeline {
			pipelines++
		}
	}
	assert.Equal(t, pipelines, 2)
}

func TestStageHook(t *testing.T) {
	tokens, tables := prepare(t, joinQuery)
	var events []StageEvent
	_, err := New(WithLogger(quiet), WithStageHook(func(ev StageEvent) {
		events = append(events, ev)
	})).Optimize(tokens, tables)
	assert.NilError(t, err)

	var got []Stage
	for _, ev := range events {
		got = append(got, ev.Stage)
		assert.NilError(t, ev.Err)
	}
	assert.DeepEqual(t, got, Stages())
	assert.Equal(t, events[len(events)-1].Snapshots, 3)
}

func TestOptimizeErrors(t *testing.T) {
	t.Run("missing table metadata", func(t *testing.T) {
		tokens, err := lexer.Split("SELECT * FROM Customers")
		assert.NilError(t, err)
		snaps, err := New(WithLogger(quiet)).Optimize(tokens, nil)
		assert.Assert(t, snaps == nil)
		assert.Assert(t, stderrors.Is(err, errors.ErrUnsupportedRewrite))

		var oe *errors.OptimizerError
		assert.Assert(t, stderrors.As(err, &oe))
		assert.Equal(t, oe.Stage, string(StageBuild))
	})

	t.Run("malformed statement", func(t *testing.T) {
		_, tables := prepare(t, "SELECT * FROM Customers")
		_, err := New(WithLogger(quiet)).Optimize([]string{"SELECT", "FROM"}, tables)
		assert.Assert(t, stderrors.Is(err, errors.ErrUnsupportedRewrite))
	})

	t.Run("failing stage is reported to the hook", func(t *testing.T) {
		var failed []Stage
		hook := WithStageHook(func(ev StageEvent) {
			if ev.Err != nil {
				failed = append(failed, ev.Stage)
			}
		})
		_, err := New(WithLogger(quiet), hook).Optimize([]string{"SELECT", "*", "FROM", "Nope"}, nil)
		assert.Assert(t, err != nil)
		assert.DeepEqual(t, failed, []Stage{StageBuild})
	})
}

func TestStageErrors(t *testing.T) {
	customers := &schema.Table{Name: "Customers", Columns: []schema.Column{{Name: "CustomerID", Type: schema.ColumnTypeNumber}}}

	t.Run("compound selection reaching push-down", func(t *testing.T) {
		tree := querytree.New(&plan.CompoundSelection{Predicates: []plan.Predicate{
			{Column: "Customers.CustomerID", Comparator: "=", Value: "1"},
		}})
		assert.NilError(t, tree.Add(querytree.Path{}, querytree.Down, &plan.Relation{Table: "Customers"}))

		err := pushDownSelections(newRun([]*schema.Table{customers}), tree)
		assert.Assert(t, stderrors.Is(err, errors.ErrUnsupportedRewrite))
	})

	t.Run("relation without metadata", func(t *testing.T) {
		tree := querytree.New(&plan.CartesianProduct{})
		assert.NilError(t, tree.Add(querytree.Path{}, querytree.Left, &plan.Relation{Table: "Customers"}))
		assert.NilError(t, tree.Add(querytree.Path{}, querytree.Right, &plan.Relation{Table: "Ghost"}))
		assert.NilError(t, tree.Add(querytree.Path{}, querytree.Up, plan.NewProjection("Customers.CustomerID")))

		err := pushDownProjections(newRun([]*schema.Table{customers}), tree)
		var oe *errors.OptimizerError
		assert.Assert(t, stderrors.As(err, &oe))
		assert.Equal(t, oe.Kind, errors.ErrUnsupportedRewrite)
		assert.Equal(t, oe.Operator, "Ghost")
	})

	t.Run("empty compound selection", func(t *testing.T) {
		tree := querytree.New(&plan.CompoundSelection{})
		assert.NilError(t, tree.Add(querytree.Path{}, querytree.Down, &plan.Relation{Table: "Customers"}))

		err := cascadeSelections(newRun(nil), tree)
		assert.Assert(t, stderrors.Is(err, errors.ErrUnsupportedRewrite))
	})
}
