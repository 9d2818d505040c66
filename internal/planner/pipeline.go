package planner

import (
	"github.com/leengari/mini-optimizer/internal/plan"
	"github.com/leengari/mini-optimizer/internal/querytree"
)

// startsPipeline reports whether kind begins a new pipeline. Scans begin
// one; products, joins and aggregations consume whole inputs before
// producing output.
func startsPipeline(kind plan.Kind) bool {
	switch kind {
	case plan.KindRelation, plan.KindCartesianProduct, plan.KindJoin, plan.KindAggregation:
		return true
	}
	return false
}

// partitionPipelines splits the tree into pipelines in postorder. Each
// result lists the member paths in postorder; unary streaming operators
// join the pipeline of their child.
func partitionPipelines(tree *querytree.QueryTree) ([][]querytree.Path, error) {
	var pipelines [][]querytree.Path
	owner := make(map[string]int, tree.Size())

	err := tree.Walk(querytree.Postorder, func(e querytree.Entry) error {
		id := -1
		if !startsPipeline(e.Operator.Kind()) {
			if pid, ok := owner[e.Path.Append(querytree.Down).String()]; ok {
				id = pid
			}
		}
		if id < 0 {
			id = len(pipelines)
			pipelines = append(pipelines, nil)
		}
		owner[e.Path.String()] = id
		pipelines[id] = append(pipelines[id], e.Path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pipelines, nil
}
