package planner

import (
	"github.com/leengari/mini-optimizer/internal/domain/errors"
	"github.com/leengari/mini-optimizer/internal/plan"
	"github.com/leengari/mini-optimizer/internal/querytree"
)

// cascadeSelections replaces every compound selection with a chain of
// simple selections, first predicate on top.
func cascadeSelections(_ *run, tree *querytree.QueryTree) error {
	for {
		entries := tree.OperatorsAndLocationsOfKind(plan.KindCompoundSelection, querytree.Preorder)
		if len(entries) == 0 {
			return nil
		}
		e := entries[0]
		preds := e.Operator.(*plan.CompoundSelection).Predicates
		if len(preds) == 0 {
			return errors.NewUnsupportedRewrite(string(StageCascade), e.Path.String(), e.Operator.Kind().String(), "compound selection without predicates")
		}

		if err := tree.Set(e.Path, querytree.None, &plan.SimpleSelection{Predicate: preds[0]}); err != nil {
			return err
		}
		path := e.Path
		for _, p := range preds[1:] {
			if err := tree.Add(path, querytree.Down, &plan.SimpleSelection{Predicate: p}); err != nil {
				return err
			}
			path = path.Append(querytree.Down)
		}
	}
}
