package planner

import (
	"fmt"
	"strings"

	"github.com/leengari/mini-optimizer/internal/querytree"
)

// Snapshot is an independent copy of the tree as a stage left it.
type Snapshot struct {
	Stage Stage
	Tree  *querytree.QueryTree

	// Pipeline lists the members of the highlighted pipeline, in
	// postorder. Only set on pipeline snapshots.
	Pipeline []querytree.Path

	// Rows is the estimated output cardinality of each node, aligned with
	// Entries.
	Rows []float64
}

func (s Snapshot) NodeCount() int {
	return s.Tree.Size()
}

// Entries lists the operators and their paths in preorder.
func (s Snapshot) Entries() []querytree.Entry {
	return s.Tree.OperatorsAndLocations(querytree.Preorder)
}

// InPipeline reports whether the node at path belongs to the highlighted
// pipeline.
func (s Snapshot) InPipeline(path querytree.Path) bool {
	for _, p := range s.Pipeline {
		if p.Equal(path) {
			return true
		}
	}
	return false
}

func (s Snapshot) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", s.Stage)
	sb.WriteString(s.Tree.String())
	if len(s.Pipeline) > 0 {
		parts := make([]string, len(s.Pipeline))
		for i, p := range s.Pipeline {
			parts[i] = "[" + p.String() + "]"
		}
		fmt.Fprintf(&sb, "pipeline: %s\n", strings.Join(parts, " "))
	}
	return sb.String()
}

func (r *run) appendSnapshot(dst []Snapshot, stage Stage, tree *querytree.QueryTree, pipeline []querytree.Path) ([]Snapshot, error) {
	cp, err := tree.Clone()
	if err != nil {
		return dst, err
	}
	rows, err := r.estimateRows(cp)
	if err != nil {
		return dst, err
	}
	return append(dst, Snapshot{Stage: stage, Tree: cp, Pipeline: pipeline, Rows: rows}), nil
}
