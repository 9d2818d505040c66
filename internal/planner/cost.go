package planner

import (
	"math"

	"github.com/leengari/mini-optimizer/internal/plan"
	"github.com/leengari/mini-optimizer/internal/querytree"
)

// defaultRowCount stands in for tables whose metadata has no row count.
const defaultRowCount = 1000

const (
	equalSelectivity    = 1.0 / 10
	rangeSelectivity    = 1.0 / 3
	notEqualSelectivity = 9.0 / 10
	groupReduction      = 1.0 / 10
)

func (r *run) rowCount(table string) float64 {
	t, ok := r.table(table)
	if !ok || t.RowCount <= 0 {
		return defaultRowCount
	}
	return float64(t.RowCount)
}

func selectivity(comparator string) float64 {
	switch {
	case comparator == plan.Equal:
		return equalSelectivity
	case comparator == plan.NotEqual:
		return notEqualSelectivity
	case plan.IsRange(comparator):
		return rangeSelectivity
	}
	return 1
}

// estimateRows returns the estimated output rows of every node, aligned
// with the preorder entries of tree.
func (r *run) estimateRows(tree *querytree.QueryTree) ([]float64, error) {
	rows := make(map[string]float64, tree.Size())
	err := tree.Walk(querytree.Postorder, func(e querytree.Entry) error {
		n, err := tree.Resolve(e.Path)
		if err != nil {
			return err
		}
		var in []float64
		for _, c := range childPaths(n) {
			in = append(in, rows[c.String()])
		}
		rows[e.Path.String()] = r.estimate(e.Operator, in)
		return nil
	})
	if err != nil {
		return nil, err
	}

	entries := tree.OperatorsAndLocations(querytree.Preorder)
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = rows[e.Path.String()]
	}
	return out, nil
}

func (r *run) estimate(op plan.Operator, in []float64) float64 {
	input := 1.0
	if len(in) > 0 {
		input = in[0]
	}

	switch op := op.(type) {
	case *plan.Relation:
		return r.rowCount(op.Table)
	case *plan.SimpleSelection:
		return atLeastOne(input * selectivity(op.Comparator))
	case *plan.CompoundSelection:
		for _, p := range op.Predicates {
			input *= selectivity(p.Comparator)
		}
		return atLeastOne(input)
	case *plan.CartesianProduct:
		if len(in) == 2 {
			return in[0] * in[1]
		}
	case *plan.Join:
		if len(in) == 2 {
			if op.Comparator == plan.Equal {
				return math.Max(in[0], in[1])
			}
			return atLeastOne(in[0] * in[1] * selectivity(op.Comparator))
		}
	case *plan.Aggregation:
		if len(op.GroupBy) == 0 {
			return 1
		}
		return atLeastOne(input * groupReduction)
	}
	return input
}

// atLeastOne rounds up, ignoring float noise below 1e-9.
func atLeastOne(v float64) float64 {
	return math.Max(1, math.Ceil(v-1e-9))
}
