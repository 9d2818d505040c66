package querytree

import (
	"fmt"
	"strings"

	"github.com/leengari/mini-optimizer/internal/domain/errors"
	"github.com/leengari/mini-optimizer/internal/plan"
)

// Order selects the traversal order of Walk and OperatorsAndLocations.
type Order int

const (
	// Preorder visits a node, then its only child, left child, right child.
	Preorder Order = iota
	// Postorder visits left child, only child, right child, then the node.
	Postorder
)

// Entry is an operator paired with the path that addresses it.
// The operator is the live payload; Copy it before modifying.
type Entry struct {
	Operator plan.Operator
	Path     Path
}

func (e Entry) String() string {
	return fmt.Sprintf("%s: %s", e.Operator, e.Path)
}

// walk visits the subtree rooted at start using parent/child links and a
// visited set owned by this call. Paths are relative to start.
func (t *QueryTree) walk(start int, order Order, visit func(idx int, path Path) error) error {
	if start == nilNode {
		return nil
	}
	visited := make([]bool, len(t.nodes))
	var path Path
	cur := start

	if order == Preorder {
		visited[cur] = true
		if err := visit(cur, path.Copy()); err != nil {
			return err
		}
	}

	for {
		nxt, step := t.nextUnvisited(cur, order, visited)
		if nxt != nilNode {
			path = append(path, step)
			cur = nxt
			if order == Preorder {
				visited[cur] = true
				if err := visit(cur, path.Copy()); err != nil {
					return err
				}
			}
			continue
		}

		if order == Postorder {
			visited[cur] = true
			if err := visit(cur, path.Copy()); err != nil {
				return err
			}
		}
		if cur == start {
			return nil
		}
		cur = t.nodes[cur].parent
		path = path[:len(path)-1]
	}
}

func (t *QueryTree) nextUnvisited(idx int, order Order, visited []bool) (int, Step) {
	n := &t.nodes[idx]
	type slot struct {
		idx  int
		step Step
	}
	var slots [3]slot
	if order == Preorder {
		slots = [3]slot{{n.only, Down}, {n.left, Left}, {n.right, Right}}
	} else {
		slots = [3]slot{{n.left, Left}, {n.only, Down}, {n.right, Right}}
	}
	for _, s := range slots {
		if s.idx != nilNode && !visited[s.idx] {
			return s.idx, s.step
		}
	}
	return nilNode, None
}

// Walk calls fn for every node in the given order, stopping at the first
// error.
func (t *QueryTree) Walk(order Order, fn func(Entry) error) error {
	return t.walk(t.root, order, func(idx int, path Path) error {
		return fn(Entry{Operator: t.nodes[idx].op, Path: path})
	})
}

// OperatorsAndLocations lists every (operator, path) pair in order.
func (t *QueryTree) OperatorsAndLocations(order Order) []Entry {
	entries := make([]Entry, 0, t.size)
	_ = t.Walk(order, func(e Entry) error {
		entries = append(entries, e)
		return nil
	})
	return entries
}

// OperatorsAndLocationsOfKind lists the pairs whose operator is of kind.
func (t *QueryTree) OperatorsAndLocationsOfKind(kind plan.Kind, order Order) []Entry {
	var entries []Entry
	_ = t.Walk(order, func(e Entry) error {
		if e.Operator.Kind() == kind {
			entries = append(entries, e)
		}
		return nil
	})
	return entries
}

// FirstOccurrenceOfKind returns the first preorder pair of the given kind.
func (t *QueryTree) FirstOccurrenceOfKind(kind plan.Kind) (Entry, error) {
	var found *Entry
	stop := fmt.Errorf("found")
	_ = t.Walk(Preorder, func(e Entry) error {
		if e.Operator.Kind() == kind {
			found = &e
			return stop
		}
		return nil
	})
	if found == nil {
		return Entry{}, errors.NewAddressResolution("", kind.String(), "no operator of this kind in tree")
	}
	return *found, nil
}

// KindOccurrence counts the operators of the given kind.
func (t *QueryTree) KindOccurrence(kind plan.Kind) int {
	return len(t.OperatorsAndLocationsOfKind(kind, Preorder))
}

// Clone deep-copies the tree by replaying the preorder listing into an
// empty tree.
func (t *QueryTree) Clone() (*QueryTree, error) {
	cp := Empty()
	for _, e := range t.OperatorsAndLocations(Preorder) {
		if err := cp.Add(e.Path, None, e.Operator.Copy()); err != nil {
			return nil, err
		}
	}
	return cp, nil
}

// CheckShape verifies the structural invariants every mutation preserves:
// no node has an only child together with left/right children, relations
// are leaves, links are symmetric and Size matches the reachable nodes.
func (t *QueryTree) CheckShape() error {
	if t.root == nilNode {
		if t.size != 0 {
			return errors.NewStructuralViolation("", "", fmt.Sprintf("empty tree reports %d nodes", t.size))
		}
		return nil
	}
	if t.nodes[t.root].parent != nilNode {
		return errors.NewStructuralViolation("Root", t.kindName(t.root), "root has a parent")
	}

	reachable := 0
	err := t.walk(t.root, Preorder, func(idx int, path Path) error {
		reachable++
		n := &t.nodes[idx]
		if n.op == nil {
			return errors.NewStructuralViolation(path.String(), "", "node has no operator")
		}
		if n.only != nilNode && (n.left != nilNode || n.right != nilNode) {
			return errors.NewStructuralViolation(path.String(), n.op.Kind().String(), "node has an only child and left/right children")
		}
		if n.op.Kind() == plan.KindRelation && !n.isLeaf() {
			return errors.NewStructuralViolation(path.String(), n.op.Kind().String(), "relation has children")
		}
		for _, c := range t.children(idx) {
			if t.nodes[c].parent != idx {
				return errors.NewStructuralViolation(path.String(), n.op.Kind().String(), "child does not point back to parent")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if reachable != t.size {
		return errors.NewStructuralViolation("", "", fmt.Sprintf("size %d but %d nodes reachable", t.size, reachable))
	}
	return nil
}

// Validate checks CheckShape and additionally that every operator has the
// number of children its kind requires.
func (t *QueryTree) Validate() error {
	if err := t.CheckShape(); err != nil {
		return err
	}
	return t.walk(t.root, Preorder, func(idx int, path Path) error {
		n := &t.nodes[idx]
		kind := n.op.Kind()
		switch kind.Arity() {
		case 0:
			return nil
		case 1:
			if n.only == nilNode {
				return errors.NewStructuralViolation(path.String(), kind.String(), "unary operator without a child")
			}
		case 2:
			if n.left == nilNode || n.right == nilNode {
				return errors.NewStructuralViolation(path.String(), kind.String(), "binary operator needs left and right children")
			}
		}
		return nil
	})
}

// String lists the tree size followed by one "operator: path" line per
// node in preorder.
func (t *QueryTree) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Query Tree Size: %d\n", t.size)
	for _, e := range t.OperatorsAndLocations(Preorder) {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Render draws the tree with two spaces of indentation per level.
func (t *QueryTree) Render() string {
	var sb strings.Builder
	_ = t.Walk(Preorder, func(e Entry) error {
		sb.WriteString(strings.Repeat("  ", len(e.Path)))
		switch e.Path.Last() {
		case Left:
			sb.WriteString("L: ")
		case Right:
			sb.WriteString("R: ")
		}
		sb.WriteString(e.Operator.String())
		sb.WriteByte('\n')
		return nil
	})
	return sb.String()
}
