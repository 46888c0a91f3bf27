package arbor

// LayoutConfig sizes the layout box. X (depth axis) is DepthSpacing per
// level; Y (breadth axis) is fitted into [0, Breadth].
type LayoutConfig struct {
	DepthSpacing float64
	Breadth      float64
}

// layoutNode is the per-pass scratch record of the linear-time tidy tree
// algorithm (Buchheim, Jünger, Leipert), operating only on visible children.
type layoutNode struct {
	node     *TreeNode
	parent   *layoutNode
	children []*layoutNode
	index    int // position among siblings

	ancestor *layoutNode // "a"
	apport   *layoutNode // leftmost ancestor candidate for apportion ("A")
	thread   *layoutNode // "t"
	prelim   float64     // "z"
	mod      float64     // "m"
	change   float64     // "c"
	shift    float64     // "s"
}

// Layout assigns X, Y to every node reachable through visible children.
// Hidden subtrees contribute nothing, so collapsing a node reflows its
// siblings on the next pass. Runs in O(n) in the number of visible nodes.
type Layout struct {
	cfg      LayoutConfig
	pool     []layoutNode
	ptrs     []*layoutNode
	order    []*layoutNode // pre-order
	sentinel layoutNode    // parent of the root record
}

// NewLayout creates a layout engine with the given sizing.
func NewLayout(cfg LayoutConfig) *Layout {
	return &Layout{cfg: cfg}
}

// Config returns the layout sizing.
func (l *Layout) Config() LayoutConfig {
	return l.cfg
}

// separation mirrors the conventional tidy-tree spacing: siblings one unit
// apart, cousins two.
func separation(a, b *layoutNode) float64 {
	if a.parent == b.parent {
		return 1
	}
	return 2
}

// Apply lays out the visible tree below root.
func (l *Layout) Apply(root *TreeNode) {
	if root == nil {
		return
	}
	l.wrap(root)
	t := l.order[0]

	l.postOrder(t, l.firstWalk)
	l.sentinel.mod = -t.prelim
	for _, v := range l.order {
		v.node.Y = v.prelim + v.parent.mod
		v.mod += v.parent.mod
	}

	l.fit()
}

// wrap builds the scratch tree in pre-order, reusing pooled records.
func (l *Layout) wrap(root *TreeNode) {
	count := 0
	countVisible(root, &count)
	if cap(l.pool) < count {
		l.pool = make([]layoutNode, count)
	}
	l.pool = l.pool[:count]
	l.order = l.order[:0]
	// Child slices alias ptrs, so it must never grow during a pass.
	if cap(l.ptrs) < count {
		l.ptrs = make([]*layoutNode, 0, count)
	}
	l.ptrs = l.ptrs[:0]

	l.sentinel = layoutNode{}
	next := 0
	var visit func(n *TreeNode, parent *layoutNode, index int) *layoutNode
	visit = func(n *TreeNode, parent *layoutNode, index int) *layoutNode {
		v := &l.pool[next]
		next++
		*v = layoutNode{node: n, parent: parent, index: index}
		v.ancestor = v
		l.order = append(l.order, v)
		kids := n.VisibleChildren()
		if len(kids) > 0 {
			start := len(l.ptrs)
			for range kids {
				l.ptrs = append(l.ptrs, nil)
			}
			v.children = l.ptrs[start : start+len(kids) : start+len(kids)]
			for i, c := range kids {
				v.children[i] = visit(c, v, i)
			}
		}
		return v
	}
	t := visit(root, &l.sentinel, 0)
	l.sentinel.children = []*layoutNode{t}
}

func countVisible(n *TreeNode, count *int) {
	*count++
	for _, c := range n.VisibleChildren() {
		countVisible(c, count)
	}
}

func (l *Layout) postOrder(v *layoutNode, fn func(*layoutNode)) {
	for _, c := range v.children {
		l.postOrder(c, fn)
	}
	fn(v)
}

func (l *Layout) firstWalk(v *layoutNode) {
	siblings := v.parent.children
	var w *layoutNode
	if v.index > 0 {
		w = siblings[v.index-1]
	}
	if len(v.children) > 0 {
		executeShifts(v)
		midpoint := (v.children[0].prelim + v.children[len(v.children)-1].prelim) / 2
		if w != nil {
			v.prelim = w.prelim + separation(v, w)
			v.mod = v.prelim - midpoint
		} else {
			v.prelim = midpoint
		}
	} else if w != nil {
		v.prelim = w.prelim + separation(v, w)
	}
	anc := v.parent.apport
	if anc == nil {
		anc = siblings[0]
	}
	v.parent.apport = apportion(v, w, anc)
}

func nextLeft(v *layoutNode) *layoutNode {
	if len(v.children) > 0 {
		return v.children[0]
	}
	return v.thread
}

func nextRight(v *layoutNode) *layoutNode {
	if len(v.children) > 0 {
		return v.children[len(v.children)-1]
	}
	return v.thread
}

func moveSubtree(wm, wp *layoutNode, shift float64) {
	change := shift / float64(wp.index-wm.index)
	wp.change -= change
	wp.shift += shift
	wm.change += change
	wp.prelim += shift
	wp.mod += shift
}

func executeShifts(v *layoutNode) {
	shift, change := 0.0, 0.0
	for i := len(v.children) - 1; i >= 0; i-- {
		w := v.children[i]
		w.prelim += shift
		w.mod += shift
		change += w.change
		shift += w.shift + change
	}
}

func nextAncestor(vim, v, ancestor *layoutNode) *layoutNode {
	if vim.ancestor.parent == v.parent {
		return vim.ancestor
	}
	return ancestor
}

func apportion(v, w, ancestor *layoutNode) *layoutNode {
	if w == nil {
		return ancestor
	}
	vip, vop := v, v
	vim := w
	vom := v.parent.children[0]
	sip, sop := vip.mod, vop.mod
	sim, som := vim.mod, vom.mod
	for {
		vim = nextRight(vim)
		vip = nextLeft(vip)
		if vim == nil || vip == nil {
			break
		}
		vom = nextLeft(vom)
		vop = nextRight(vop)
		vop.ancestor = v
		shift := vim.prelim + sim - vip.prelim - sip + separation(vim, vip)
		if shift > 0 {
			moveSubtree(nextAncestor(vim, v, ancestor), v, shift)
			sip += shift
			sop += shift
		}
		sim += vim.mod
		sip += vip.mod
		som += vom.mod
		sop += vop.mod
	}
	if vim != nil && nextRight(vop) == nil {
		vop.thread = vim
		vop.mod += sim - sop
	}
	if vip != nil && nextLeft(vom) == nil {
		vom.thread = vip
		vom.mod += sip - som
		ancestor = v
	}
	return ancestor
}

// fit scales the breadth coordinates into [0, Breadth] and assigns the
// depth-proportional X coordinate.
func (l *Layout) fit() {
	left, right := l.order[0], l.order[0]
	for _, v := range l.order {
		if v.node.Y < left.node.Y {
			left = v
		}
		if v.node.Y > right.node.Y {
			right = v
		}
	}
	s := 1.0
	if left != right {
		s = separation(left, right) / 2
	}
	tx := s - left.node.Y
	kx := l.cfg.Breadth / (right.node.Y + s + tx)
	for _, v := range l.order {
		v.node.Y = (v.node.Y + tx) * kx
		v.node.X = float64(v.node.Depth) * l.cfg.DepthSpacing
	}
}
