package planner

import (
	"github.com/leengari/mini-optimizer/internal/domain/errors"
	"github.com/leengari/mini-optimizer/internal/plan"
	"github.com/leengari/mini-optimizer/internal/querytree"
)

// childPaths returns the paths of the children of the node at path.
func childPaths(n querytree.Node) []querytree.Path {
	switch n.Shape {
	case querytree.ShapeUnary:
		return []querytree.Path{n.Path.Append(querytree.Down)}
	case querytree.ShapeBinary:
		return []querytree.Path{n.Path.Append(querytree.Left), n.Path.Append(querytree.Right)}
	}
	return nil
}

// produced returns the columns the subtree at path outputs, qualified and
// in a stable order.
func (r *run) produced(tree *querytree.QueryTree, path querytree.Path) ([]string, error) {
	n, err := tree.Resolve(path)
	if err != nil {
		return nil, err
	}
	switch op := n.Operator.(type) {
	case *plan.Relation:
		t, ok := r.table(op.Table)
		if !ok {
			return nil, errors.NewUnsupportedRewrite("", n.Path.String(), op.String(), "no metadata for table "+op.Table)
		}
		return t.QualifiedColumnNames(), nil
	case *plan.Projection:
		return append([]string(nil), op.Columns...), nil
	case *plan.Aggregation:
		return op.OutputColumns(), nil
	}

	var cols []string
	for _, c := range childPaths(n) {
		sub, err := r.produced(tree, c)
		if err != nil {
			return nil, err
		}
		cols = plan.AppendUnique(cols, sub...)
	}
	return cols, nil
}

// ancestorColumns collects the columns read by every operator above path.
func ancestorColumns(tree *querytree.QueryTree, path querytree.Path) ([]string, error) {
	var cols []string
	for p := path; len(p) > 0; {
		p = p.Parent()
		op, err := tree.Get(p, querytree.None)
		if err != nil {
			return nil, err
		}
		cols = plan.AppendUnique(cols, op.ReferencedColumnNames()...)
	}
	return cols, nil
}
