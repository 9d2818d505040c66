package planner

import (
	"github.com/leengari/mini-optimizer/internal/domain/errors"
	"github.com/leengari/mini-optimizer/internal/plan"
	"github.com/leengari/mini-optimizer/internal/querytree"
)

// pushDownSelections moves every simple selection as far down as the
// columns it reads allow, repeating until nothing moves.
func pushDownSelections(r *run, tree *querytree.QueryTree) error {
	if e, err := tree.FirstOccurrenceOfKind(plan.KindCompoundSelection); err == nil {
		return errors.NewUnsupportedRewrite(string(StagePushDownSelections), e.Path.String(), e.Operator.Kind().String(),
			"compound selection left after cascade")
	}

	limit := tree.Size()*tree.Size() + 1
	for i := 0; ; i++ {
		if i > limit {
			return errors.NewUnsupportedRewrite(string(StagePushDownSelections), "", "", "selections did not settle")
		}
		moved, err := pushDownOne(r, tree)
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}
	}
}

// pushDownOne relocates the first selection, in preorder, that can go
// lower. Paths go stale after a move so the caller starts over.
func pushDownOne(r *run, tree *querytree.QueryTree) (bool, error) {
	for _, e := range tree.OperatorsAndLocationsOfKind(plan.KindSimpleSelection, querytree.Preorder) {
		dest, err := selectionTarget(r, tree, e)
		if err != nil {
			return false, err
		}
		child := e.Path.Append(querytree.Down)
		if dest.Equal(child) {
			continue
		}

		op, err := tree.Remove(e.Path, querytree.None)
		if err != nil {
			return false, err
		}
		// Removing the selection lifts its subtree by one step.
		lifted := append(e.Path.Copy(), dest[len(child):]...)
		if err := tree.Add(lifted, querytree.Up, op); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// selectionTarget finds the node the selection should sit directly above.
// It descends while a single child still produces every referenced
// column. Runs of selections are passed over, and the selection lands on
// top of the run it reaches so relative order is kept.
func selectionTarget(r *run, tree *querytree.QueryTree, e querytree.Entry) (querytree.Path, error) {
	n, err := tree.Resolve(e.Path)
	if err != nil {
		return nil, err
	}
	if n.Shape != querytree.ShapeUnary {
		return nil, errors.NewUnsupportedRewrite(string(StagePushDownSelections), e.Path.String(), e.Operator.Kind().String(),
			"selection does not have a single child")
	}
	refs := e.Operator.ReferencedColumnNames()

	cur := e.Path.Append(querytree.Down)
	var runTop querytree.Path
	for {
		n, err := tree.Resolve(cur)
		if err != nil {
			return nil, err
		}
		isSelection := n.Operator.Kind() == plan.KindSimpleSelection
		if isSelection && runTop == nil {
			runTop = cur
		}

		next, err := descendInto(r, tree, n, refs)
		if err != nil {
			return nil, err
		}
		if next == nil {
			if runTop != nil {
				return runTop, nil
			}
			return cur, nil
		}
		if !isSelection {
			runTop = nil
		}
		cur = next
	}
}

// descendInto picks the child of n that produces refs, left before right.
// It returns nil when the selection has to stay above n.
func descendInto(r *run, tree *querytree.QueryTree, n querytree.Node, refs []string) (querytree.Path, error) {
	for _, c := range childPaths(n) {
		cols, err := r.produced(tree, c)
		if err != nil {
			return nil, err
		}
		if plan.CoversColumns(cols, refs) {
			return c, nil
		}
	}
	return nil, nil
}
