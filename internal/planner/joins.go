package planner

import (
	"github.com/leengari/mini-optimizer/internal/plan"
	"github.com/leengari/mini-optimizer/internal/querytree"
)

// formJoins fuses each column-to-column selection sitting directly on a
// cartesian product into a join, when one column comes from each side.
func formJoins(r *run, tree *querytree.QueryTree) error {
	for {
		formed, err := formOneJoin(r, tree)
		if err != nil {
			return err
		}
		if !formed {
			return nil
		}
	}
}

func formOneJoin(r *run, tree *querytree.QueryTree) (bool, error) {
	for _, e := range tree.OperatorsAndLocationsOfKind(plan.KindSimpleSelection, querytree.Preorder) {
		sel := e.Operator.(*plan.SimpleSelection)
		if !sel.ValueIsColumn {
			continue
		}
		below := e.Path.Append(querytree.Down)
		n, err := tree.Resolve(below)
		if err != nil {
			return false, err
		}
		if n.Operator.Kind() != plan.KindCartesianProduct {
			continue
		}

		left, err := r.produced(tree, below.Append(querytree.Left))
		if err != nil {
			return false, err
		}
		right, err := r.produced(tree, below.Append(querytree.Right))
		if err != nil {
			return false, err
		}

		var join *plan.Join
		switch {
		case plan.ContainsColumn(left, sel.Column) && plan.ContainsColumn(right, sel.Value):
			join = &plan.Join{LeftColumn: sel.Column, Comparator: sel.Comparator, RightColumn: sel.Value}
		case plan.ContainsColumn(left, sel.Value) && plan.ContainsColumn(right, sel.Column):
			join = &plan.Join{LeftColumn: sel.Value, Comparator: mirror(sel.Comparator), RightColumn: sel.Column}
		default:
			continue
		}

		if err := tree.Set(below, querytree.None, join); err != nil {
			return false, err
		}
		if _, err := tree.Remove(e.Path, querytree.None); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// mirror returns the comparator that holds with its operands swapped.
func mirror(comparator string) string {
	switch comparator {
	case plan.Greater:
		return plan.Less
	case plan.Less:
		return plan.Greater
	case plan.GreaterEqual:
		return plan.LessEqual
	case plan.LessEqual:
		return plan.GreaterEqual
	}
	return comparator
}
