package planner

import (
	"github.com/leengari/mini-optimizer/internal/plan"
	"github.com/leengari/mini-optimizer/internal/querytree"
)

// pushDownProjections narrows each input of a product or join to the
// columns something above it still reads. The projection goes directly
// above the first node below the input's chain of unary operators. Deeper
// inputs are handled first so the inputs above them see final columns.
func pushDownProjections(r *run, tree *querytree.QueryTree) error {
	limit := tree.Size()*2 + 1
	for i := 0; i <= limit; i++ {
		inserted, err := insertOneProjection(r, tree)
		if err != nil || !inserted {
			return err
		}
	}
	return nil
}

func insertOneProjection(r *run, tree *querytree.QueryTree) (bool, error) {
	for _, e := range tree.OperatorsAndLocations(querytree.Postorder) {
		if e.Operator.Kind().Arity() != 2 {
			continue
		}
		for _, side := range []querytree.Step{querytree.Left, querytree.Right} {
			pos, err := chainBottom(tree, e.Path.Append(side))
			if err != nil {
				return false, err
			}
			cols, err := neededColumns(r, tree, pos)
			if err != nil {
				return false, err
			}
			if cols == nil {
				continue
			}
			if err := tree.Add(pos, querytree.Up, plan.NewProjection(cols...)); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// chainBottom follows only-child links from path past selections and
// projections.
func chainBottom(tree *querytree.QueryTree, path querytree.Path) (querytree.Path, error) {
	for {
		n, err := tree.Resolve(path)
		if err != nil {
			return nil, err
		}
		switch n.Operator.Kind() {
		case plan.KindSimpleSelection, plan.KindCompoundSelection, plan.KindProjection:
			if n.Shape == querytree.ShapeUnary {
				path = path.Append(querytree.Down)
				continue
			}
		}
		return path, nil
	}
}

// neededColumns returns the columns a projection above pos should keep, or
// nil when no projection should be placed there.
func neededColumns(r *run, tree *querytree.QueryTree, pos querytree.Path) ([]string, error) {
	produced, err := r.produced(tree, pos)
	if err != nil {
		return nil, err
	}
	above, err := ancestorColumns(tree, pos)
	if err != nil {
		return nil, err
	}

	var keep []string
	for _, c := range produced {
		if plan.ContainsColumn(above, c) {
			keep = plan.AppendUnique(keep, c)
		}
	}
	if len(keep) == 0 || len(keep) == len(produced) {
		return nil, nil
	}

	parent, err := tree.Get(pos.Parent(), querytree.None)
	if err != nil {
		return nil, err
	}
	if p, ok := parent.(*plan.Projection); ok && sameColumns(p.Columns, keep) {
		return nil, nil
	}
	return keep, nil
}

func sameColumns(a, b []string) bool {
	return len(a) == len(b) && plan.CoversColumns(a, b)
}
