package planner

import (
	"github.com/leengari/mini-optimizer/internal/plan"
	"github.com/leengari/mini-optimizer/internal/querytree"
)

// rearrangeLeaves puts the smaller relation on the left wherever a
// product or join has two bare relations as children. Only the leaf
// payloads move.
func rearrangeLeaves(r *run, tree *querytree.QueryTree) error {
	for _, e := range tree.OperatorsAndLocations(querytree.Preorder) {
		if e.Operator.Kind().Arity() != 2 {
			continue
		}
		leftPath := e.Path.Append(querytree.Left)
		rightPath := e.Path.Append(querytree.Right)
		left, err := tree.Get(leftPath, querytree.None)
		if err != nil {
			return err
		}
		right, err := tree.Get(rightPath, querytree.None)
		if err != nil {
			return err
		}
		l, lok := left.(*plan.Relation)
		rr, rok := right.(*plan.Relation)
		if !lok || !rok {
			continue
		}
		if r.rowCount(rr.Table) < r.rowCount(l.Table) {
			if err := tree.Swap(leftPath, rightPath); err != nil {
				return err
			}
		}
	}
	return nil
}
