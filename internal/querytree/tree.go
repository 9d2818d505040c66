package querytree

import (
	"fmt"

	"github.com/leengari/mini-optimizer/internal/domain/errors"
	"github.com/leengari/mini-optimizer/internal/plan"
)

const nilNode = -1

// node is an arena slot. Links are slot indices, nilNode when absent.
type node struct {
	op     plan.Operator
	parent int
	only   int
	left   int
	right  int
}

func (n *node) isLeaf() bool {
	return n.only == nilNode && n.left == nilNode && n.right == nilNode
}

// Shape describes which child slots of a node are in use.
type Shape int

const (
	ShapeLeaf Shape = iota
	ShapeUnary
	ShapeBinary
)

func (s Shape) String() string {
	switch s {
	case ShapeLeaf:
		return "leaf"
	case ShapeUnary:
		return "unary"
	default:
		return "binary"
	}
}

// Node is a read-only view of a resolved tree node.
type Node struct {
	Operator plan.Operator
	Path     Path // canonical root-relative path, no UP steps
	Shape    Shape
}

// QueryTree is a tree of operators addressed only through traversal paths.
// Nodes live in an index arena; parent and child links are indices.
// A QueryTree is not safe for concurrent mutation.
type QueryTree struct {
	nodes []node
	free  []int
	root  int
	size  int
}

// New creates a tree holding a single root operator.
func New(root plan.Operator) *QueryTree {
	t := Empty()
	t.root = t.alloc(root, nilNode)
	t.size = 1
	return t
}

// Empty creates a tree with no nodes. The first Add with an empty path
// sets the root.
func Empty() *QueryTree {
	return &QueryTree{root: nilNode}
}

// Size is the number of nodes reachable from the root.
func (t *QueryTree) Size() int {
	return t.size
}

func (t *QueryTree) IsEmpty() bool {
	return t.root == nilNode
}

func (t *QueryTree) alloc(op plan.Operator, parent int) int {
	n := node{op: op, parent: parent, only: nilNode, left: nilNode, right: nilNode}
	if k := len(t.free); k > 0 {
		idx := t.free[k-1]
		t.free = t.free[:k-1]
		t.nodes[idx] = n
		return idx
	}
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

func (t *QueryTree) release(idx int) {
	t.nodes[idx] = node{parent: nilNode, only: nilNode, left: nilNode, right: nilNode}
	t.free = append(t.free, idx)
}

// next returns the node one step away from idx, or nilNode.
func (t *QueryTree) next(idx int, step Step) int {
	n := &t.nodes[idx]
	switch step {
	case Left:
		return n.left
	case Right:
		return n.right
	case Down:
		return n.only
	case Up:
		return n.parent
	default:
		return idx
	}
}

func (t *QueryTree) setChild(parent int, slot Step, child int) {
	n := &t.nodes[parent]
	switch slot {
	case Left:
		n.left = child
	case Right:
		n.right = child
	case Down:
		n.only = child
	}
}

func (t *QueryTree) replaceChild(parent, old, replacement int) {
	n := &t.nodes[parent]
	switch old {
	case n.only:
		n.only = replacement
	case n.left:
		n.left = replacement
	case n.right:
		n.right = replacement
	}
}

// children returns the used child slots in only, left, right order.
func (t *QueryTree) children(idx int) []int {
	n := &t.nodes[idx]
	var out []int
	for _, c := range [...]int{n.only, n.left, n.right} {
		if c != nilNode {
			out = append(out, c)
		}
	}
	return out
}

func (t *QueryTree) kindName(idx int) string {
	if idx == nilNode || t.nodes[idx].op == nil {
		return ""
	}
	return t.nodes[idx].op.Kind().String()
}

func (t *QueryTree) locate(path Path) (int, error) {
	if t.root == nilNode {
		return nilNode, errors.NewAddressResolution(path.String(), "", "tree is empty")
	}
	cur := t.root
	for i, step := range path {
		if step == None {
			continue
		}
		nxt := t.next(cur, step)
		if nxt == nilNode {
			return nilNode, errors.NewAddressResolution(path.String(), t.kindName(cur),
				fmt.Sprintf("step %d (%s) has no target", i+1, step))
		}
		cur = nxt
	}
	return cur, nil
}

// pathOf rebuilds the canonical path of idx from parent links.
func (t *QueryTree) pathOf(idx int) Path {
	var rev Path
	for cur := idx; t.nodes[cur].parent != nilNode; cur = t.nodes[cur].parent {
		p := &t.nodes[t.nodes[cur].parent]
		switch cur {
		case p.left:
			rev = append(rev, Left)
		case p.right:
			rev = append(rev, Right)
		default:
			rev = append(rev, Down)
		}
	}
	path := make(Path, len(rev))
	for i, s := range rev {
		path[len(rev)-1-i] = s
	}
	return path
}

func (t *QueryTree) view(idx int) Node {
	n := &t.nodes[idx]
	shape := ShapeLeaf
	switch {
	case n.only != nilNode:
		shape = ShapeUnary
	case n.left != nilNode || n.right != nilNode:
		shape = ShapeBinary
	}
	return Node{Operator: n.op, Path: t.pathOf(idx), Shape: shape}
}

func target(path Path, slot Step) Path {
	if slot == None {
		return path
	}
	return path.Append(slot)
}

// Resolve walks path from the root.
func (t *QueryTree) Resolve(path Path) (Node, error) {
	idx, err := t.locate(path)
	if err != nil {
		return Node{}, err
	}
	return t.view(idx), nil
}

// Get returns the operator one slot away from the node at path.
func (t *QueryTree) Get(path Path, slot Step) (plan.Operator, error) {
	idx, err := t.locate(target(path, slot))
	if err != nil {
		return nil, err
	}
	return t.nodes[idx].op, nil
}

// Set overwrites the operator payload of the addressed node.
func (t *QueryTree) Set(path Path, slot Step, op plan.Operator) error {
	full := target(path, slot)
	if op == nil {
		return errors.NewStructuralViolation(full.String(), "", "operator is nil")
	}
	idx, err := t.locate(full)
	if err != nil {
		return err
	}
	if op.Kind() == plan.KindRelation && !t.nodes[idx].isLeaf() {
		return errors.NewStructuralViolation(full.String(), op.Kind().String(), "relation placed on a node with children")
	}
	t.nodes[idx].op = op
	return nil
}

// Swap exchanges the operator payloads of two nodes. Structure is kept.
func (t *QueryTree) Swap(first, second Path) error {
	a, err := t.locate(first)
	if err != nil {
		return err
	}
	b, err := t.locate(second)
	if err != nil {
		return err
	}
	na, nb := &t.nodes[a], &t.nodes[b]
	if (na.op.Kind() == plan.KindRelation && !nb.isLeaf()) || (nb.op.Kind() == plan.KindRelation && !na.isLeaf()) {
		return errors.NewStructuralViolation(first.String(), na.op.Kind().String(),
			fmt.Sprintf("swap with [%s] would give a relation children", second))
	}
	na.op, nb.op = nb.op, na.op
	return nil
}

// Add attaches op next to the node at path. With slot None the last step
// of path is the slot. An occupied slot is spliced: the occupant becomes
// the new node's only child. Up at the root creates a new root.
func (t *QueryTree) Add(path Path, slot Step, op plan.Operator) error {
	if op == nil {
		return errors.NewStructuralViolation(target(path, slot).String(), "", "operator is nil")
	}
	kind := op.Kind().String()

	if slot == None {
		if len(path) == 0 {
			if t.root == nilNode {
				t.root = t.alloc(op, nilNode)
				t.size = 1
				return nil
			}
			return errors.NewStructuralViolation(path.String(), kind, "no attachment slot given")
		}
		slot = path.Last()
		path = path.Parent()
	}

	if t.root == nilNode {
		if len(path) != 0 {
			return errors.NewAddressResolution(path.String(), kind, "tree is empty")
		}
		t.root = t.alloc(op, nilNode)
		t.size = 1
		return nil
	}

	p, err := t.locate(path)
	if err != nil {
		return err
	}

	isRelation := op.Kind() == plan.KindRelation

	switch slot {
	case Up:
		if isRelation {
			return errors.NewStructuralViolation(path.Append(slot).String(), kind, "relation cannot be placed above a node")
		}
		parent := t.nodes[p].parent
		n := t.alloc(op, parent)
		if parent == nilNode {
			t.root = n
		} else {
			t.replaceChild(parent, p, n)
		}
		t.nodes[n].only = p
		t.nodes[p].parent = n

	case Left, Right, Down:
		pn := &t.nodes[p]
		if pn.op.Kind() == plan.KindRelation {
			return errors.NewStructuralViolation(path.String(), pn.op.Kind().String(), "relation is a leaf")
		}
		if slot == Down && (pn.left != nilNode || pn.right != nilNode) {
			return errors.NewStructuralViolation(path.String(), pn.op.Kind().String(), "node already has left/right children")
		}
		if slot != Down && pn.only != nilNode {
			return errors.NewStructuralViolation(path.String(), pn.op.Kind().String(), "node already has an only child")
		}
		occupant := t.next(p, slot)
		if occupant != nilNode && isRelation {
			return errors.NewStructuralViolation(path.Append(slot).String(), kind, "relation cannot be spliced above a node")
		}
		n := t.alloc(op, p)
		t.setChild(p, slot, n)
		if occupant != nilNode {
			t.nodes[n].only = occupant
			t.nodes[occupant].parent = n
		}

	default:
		return errors.NewStructuralViolation(path.String(), kind, fmt.Sprintf("invalid slot %s", slot))
	}

	t.size++
	return nil
}

// Remove deletes the addressed node and splices its children into the
// vacated position. A binary node may only be removed from under a unary
// parent, which then takes over both children.
func (t *QueryTree) Remove(path Path, slot Step) (plan.Operator, error) {
	full := target(path, slot)
	idx, err := t.locate(full)
	if err != nil {
		return nil, err
	}
	n := t.nodes[idx]
	kids := t.children(idx)
	parent := n.parent

	switch len(kids) {
	case 0:
		if parent == nilNode {
			t.root = nilNode
		} else {
			t.replaceChild(parent, idx, nilNode)
		}

	case 1:
		c := kids[0]
		t.nodes[c].parent = parent
		if parent == nilNode {
			t.root = c
		} else {
			t.replaceChild(parent, idx, c)
		}

	default:
		if parent == nilNode {
			return nil, errors.NewStructuralViolation(full.String(), n.op.Kind().String(), "cannot remove a root with two children")
		}
		pn := &t.nodes[parent]
		if pn.only != idx {
			return nil, errors.NewStructuralViolation(full.String(), n.op.Kind().String(),
				"parent already has left/right children")
		}
		pn.only = nilNode
		pn.left = n.left
		pn.right = n.right
		t.nodes[n.left].parent = parent
		t.nodes[n.right].parent = parent
	}

	t.release(idx)
	t.size--
	return n.op, nil
}

// RemoveSubtree deletes the addressed node with everything below it and
// returns the removed operators in preorder.
func (t *QueryTree) RemoveSubtree(path Path) ([]plan.Operator, error) {
	idx, err := t.locate(path)
	if err != nil {
		return nil, err
	}

	var removed []int
	_ = t.walk(idx, Preorder, func(i int, _ Path) error {
		removed = append(removed, i)
		return nil
	})

	if parent := t.nodes[idx].parent; parent == nilNode {
		t.root = nilNode
	} else {
		t.replaceChild(parent, idx, nilNode)
	}

	ops := make([]plan.Operator, 0, len(removed))
	for _, i := range removed {
		ops = append(ops, t.nodes[i].op)
		t.release(i)
	}
	t.size -= len(removed)
	return ops, nil
}
