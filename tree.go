package arbor

import (
	"errors"
	"fmt"
)

var (
	// ErrCycle is returned by Build when a Data literal contains itself.
	ErrCycle = errors.New("tree contains a cycle")
	// ErrSharedNode is returned by Build when one Data value appears under
	// two parents.
	ErrSharedNode = errors.New("node appears under more than one parent")
	// ErrUnknownNode is returned when an operation names a node that does not
	// belong to the tree it is applied to.
	ErrUnknownNode = errors.New("unknown node")
)

// TreeNode is one entity of the mind map. Children live in a single ordered
// list; the expanded flag decides whether they are currently visible or
// hidden, so the two sets can never overlap.
type TreeNode struct {
	// Identity. ID is the arena index assigned by Build in pre-order and is
	// never reassigned. Zero is never a valid ID.
	ID   uint32
	Name string

	// Hierarchy. Parent is a non-owning back reference; nil for the root.
	Parent   *TreeNode
	Depth    int
	children []*TreeNode
	expanded bool

	// X, Y is the position computed by the most recent layout pass.
	// X0, Y0 is the position persisted by the most recent reconciliation.
	X, Y   float64
	X0, Y0 float64
}

// Children returns the full child list regardless of visibility.
// The returned slice MUST NOT be mutated by the caller.
func (n *TreeNode) Children() []*TreeNode {
	return n.children
}

// VisibleChildren returns the children eligible for layout, or nil.
func (n *TreeNode) VisibleChildren() []*TreeNode {
	if n.expanded {
		return n.children
	}
	return nil
}

// HiddenChildren returns the collapsed children retained for later
// re-expansion, or nil.
func (n *TreeNode) HiddenChildren() []*TreeNode {
	if n.expanded {
		return nil
	}
	return n.children
}

// HasChildren reports whether the node has children, visible or hidden.
func (n *TreeNode) HasChildren() bool {
	return len(n.children) > 0
}

// Expanded reports whether the node's children are visible. Leaves report
// false.
func (n *TreeNode) Expanded() bool {
	return n.expanded && len(n.children) > 0
}

// Collapsed reports whether the node has hidden children.
func (n *TreeNode) Collapsed() bool {
	return !n.expanded && len(n.children) > 0
}

// Tree owns every node built from one Data literal. Nodes are never
// destroyed; collapsing only flips visibility, so identities and persisted
// positions survive any expand/collapse sequence.
type Tree struct {
	nodes        []*TreeNode // arena; index == ID, nodes[0] is nil
	root         *TreeNode
	rootExempt   bool
	breadthStart float64
}

// BuildOption configures Build.
type BuildOption func(*Tree)

// WithRootExpanded exempts the root from every collapse applied from the
// root (initial load, Reset, CollapseAll). Its direct children stay visible
// while their own subtrees collapse.
func WithRootExpanded() BuildOption {
	return func(t *Tree) { t.rootExempt = true }
}

// withRootAnchor sets the root's initial persisted breadth coordinate so the
// very first render grows out of the middle of the layout extent.
func withRootAnchor(y float64) BuildOption {
	return func(t *Tree) { t.breadthStart = y }
}

// Build wraps a Data literal into a Tree, assigns identities in pre-order and
// applies the initial full collapse. The whole literal is validated first; an
// invalid literal produces no tree.
func Build(data *Data, opts ...BuildOption) (*Tree, error) {
	if data == nil {
		return nil, fmt.Errorf("arbor: build tree: $: %w", ErrMissingName)
	}
	if err := validateData(data); err != nil {
		return nil, fmt.Errorf("arbor: build tree: %w", err)
	}

	t := &Tree{nodes: make([]*TreeNode, 1, 64)}
	for _, opt := range opts {
		opt(t)
	}
	t.root = t.build(data, nil, 0)
	t.root.X0 = 0
	t.root.Y0 = t.breadthStart
	t.CollapseAll()
	return t, nil
}

func (t *Tree) build(d *Data, parent *TreeNode, depth int) *TreeNode {
	n := &TreeNode{
		ID:       uint32(len(t.nodes)),
		Name:     d.Name,
		Parent:   parent,
		Depth:    depth,
		expanded: true,
	}
	t.nodes = append(t.nodes, n)
	if len(d.Children) > 0 {
		n.children = make([]*TreeNode, 0, len(d.Children))
		for _, c := range d.Children {
			n.children = append(n.children, t.build(c, n, depth+1))
		}
	}
	return n
}

// validateData walks the literal once, rejecting nil children, cycles and
// values shared between parents.
func validateData(root *Data) error {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[*Data]uint8)
	var walk func(d *Data, path string) error
	walk = func(d *Data, path string) error {
		switch state[d] {
		case visiting:
			return fmt.Errorf("%s (%q): %w", path, d.Name, ErrCycle)
		case done:
			return fmt.Errorf("%s (%q): %w", path, d.Name, ErrSharedNode)
		}
		state[d] = visiting
		for i, c := range d.Children {
			childPath := fmt.Sprintf("%s.children[%d]", path, i)
			if c == nil {
				return fmt.Errorf("%s: %w", childPath, ErrNilChild)
			}
			if err := walk(c, childPath); err != nil {
				return err
			}
		}
		state[d] = done
		return nil
	}
	return walk(root, "$")
}

// Root returns the tree's root node.
func (t *Tree) Root() *TreeNode {
	return t.root
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes) - 1
}

// Node returns the node with the given id, or nil.
func (t *Tree) Node(id uint32) *TreeNode {
	if id == 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Contains reports whether n belongs to this tree.
func (t *Tree) Contains(n *TreeNode) bool {
	return n != nil && t.Node(n.ID) == n
}

// Find returns the first node in pre-order with the given name, or nil.
func (t *Tree) Find(name string) *TreeNode {
	for _, n := range t.nodes[1:] {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Walk calls fn for every node in pre-order, hidden ones included.
func (t *Tree) Walk(fn func(*TreeNode)) {
	for _, n := range t.nodes[1:] {
		fn(n)
	}
}

// VisibleNodes appends every node reachable through visible children, in
// pre-order starting at the root, to buf.
func (t *Tree) VisibleNodes(buf []*TreeNode) []*TreeNode {
	return appendVisible(t.root, buf)
}

func appendVisible(n *TreeNode, buf []*TreeNode) []*TreeNode {
	buf = append(buf, n)
	for _, c := range n.VisibleChildren() {
		buf = appendVisible(c, buf)
	}
	return buf
}

// --- Expand / collapse ---

// Toggle swaps a single level: visible children become hidden or hidden
// children become visible. Descendants keep their own state. Leaves are left
// untouched.
func (t *Tree) Toggle(n *TreeNode) error {
	if !t.Contains(n) {
		return fmt.Errorf("arbor: toggle: %w", ErrUnknownNode)
	}
	if len(n.children) == 0 {
		return nil
	}
	n.expanded = !n.expanded
	return nil
}

// Collapse hides n's children, then recurses into those now-hidden children
// so their descendants are collapsed too.
func (t *Tree) Collapse(n *TreeNode) error {
	if !t.Contains(n) {
		return fmt.Errorf("arbor: collapse: %w", ErrUnknownNode)
	}
	collapse(n)
	return nil
}

// Expand shows n's children, then recurses into the newly visible children.
func (t *Tree) Expand(n *TreeNode) error {
	if !t.Contains(n) {
		return fmt.Errorf("arbor: expand: %w", ErrUnknownNode)
	}
	expand(n)
	return nil
}

func collapse(n *TreeNode) {
	if len(n.children) == 0 {
		return
	}
	n.expanded = false
	for _, c := range n.children {
		collapse(c)
	}
}

func expand(n *TreeNode) {
	if len(n.children) == 0 {
		return
	}
	n.expanded = true
	for _, c := range n.children {
		expand(c)
	}
}

// ExpandAll expands every node from the root down.
func (t *Tree) ExpandAll() {
	expand(t.root)
}

// CollapseAll collapses every node from the root down. A root exempted with
// WithRootExpanded keeps its direct children visible.
func (t *Tree) CollapseAll() {
	if !t.rootExempt {
		collapse(t.root)
		return
	}
	if len(t.root.children) > 0 {
		t.root.expanded = true
	}
	for _, c := range t.root.children {
		collapse(c)
	}
}

// Reset restores the initial fully collapsed state.
func (t *Tree) Reset() {
	t.CollapseAll()
}

// VisibilityState returns the expanded flag of every child-bearing node,
// keyed by id. Two trees with equal states show the same partition.
func (t *Tree) VisibilityState() map[uint32]bool {
	state := make(map[uint32]bool)
	for _, n := range t.nodes[1:] {
		if len(n.children) > 0 {
			state[n.ID] = n.expanded
		}
	}
	return state
}
