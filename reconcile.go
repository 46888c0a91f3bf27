package arbor

import (
	"fmt"
	"slices"
	"time"

	"github.com/tanema/gween/ease"
)

// collapsedRadius stands in for zero so entering and exiting circles keep a
// defined, invisible size.
const collapsedRadius = 1e-6

// element is the state shared by both kinds of rendered element. Elements
// are keyed by the id of the tree node that owns them; an edge shares the id
// of its child node.
type element struct {
	ID      uint32
	Node    *TreeNode
	exiting bool
	removed bool
	tween   *TweenGroup
}

// Exiting reports whether the element is transitioning out and will be
// removed once its transition completes.
func (e *element) Exiting() bool { return e.exiting }

// Animating reports whether the element has a running transition.
func (e *element) Animating() bool { return e.tween != nil && !e.tween.Done }

// NodeElement is the rendered circle and label of one tree node. Its fields
// hold the current animated state, not the layout target.
type NodeElement struct {
	element
	X, Y       float64
	Radius     float64
	LabelAlpha float64
}

// EdgeElement is the rendered curve from a node's parent (S) to the node (T).
type EdgeElement struct {
	element
	SX, SY float64
	TX, TY float64
}

// Curve returns the edge's current curve.
func (e *EdgeElement) Curve() Bezier {
	return Diagonal(Vec2{e.SX, e.SY}, Vec2{e.TX, e.TY})
}

// Result reports what one reconciliation did.
type Result struct {
	Trigger uint32
	Nodes   Changes
	Edges   Changes
	Elapsed time.Duration
}

// ReconcileConfig tunes transitions.
type ReconcileConfig struct {
	Duration   float32 // seconds; zero snaps every element
	Easing     ease.TweenFunc
	NodeRadius float64
}

// Reconciler keeps the rendered element set in step with the visible tree.
// It is not safe for concurrent use; all calls happen on the game loop.
type Reconciler struct {
	tree   *Tree
	layout *Layout
	cfg    ReconcileConfig

	nodes map[uint32]*NodeElement
	edges map[uint32]*EdgeElement

	nodeOrder  []*NodeElement
	edgeOrder  []*EdgeElement
	orderDirty bool

	// Scratch reused across passes.
	visible   []*TreeNode
	currNodes map[uint32]*TreeNode
	currEdges map[uint32]*TreeNode
}

// NewReconciler creates a reconciler for tree. Nothing is rendered until the
// first Reconcile.
func NewReconciler(tree *Tree, layout *Layout, cfg ReconcileConfig) *Reconciler {
	if cfg.Easing == nil {
		cfg.Easing = ease.InOutCubic
	}
	return &Reconciler{
		tree:      tree,
		layout:    layout,
		cfg:       cfg,
		nodes:     make(map[uint32]*NodeElement),
		edges:     make(map[uint32]*EdgeElement),
		currNodes: make(map[uint32]*TreeNode),
		currEdges: make(map[uint32]*TreeNode),
	}
}

// Tree returns the tree being rendered.
func (r *Reconciler) Tree() *Tree {
	return r.tree
}

// Reconcile lays out the full visible tree, diffs it against the rendered
// elements and schedules a transition for every element:
//
//   - entering elements start at the trigger's previous position,
//   - updating elements move from where they are now,
//   - exiting elements move into the trigger's new position, then go away.
//
// Elements still exiting from an earlier pass count as rendered, so a node
// re-expanded mid-collapse is retargeted instead of recreated. Finally every
// visible node's position is persisted for the next pass.
func (r *Reconciler) Reconcile(trigger *TreeNode) (Result, error) {
	if !r.tree.Contains(trigger) {
		return Result{}, fmt.Errorf("arbor: reconcile: %w", ErrUnknownNode)
	}
	start := time.Now()

	r.layout.Apply(r.tree.root)
	r.visible = r.tree.VisibleNodes(r.visible[:0])
	clear(r.currNodes)
	clear(r.currEdges)
	for _, n := range r.visible {
		r.currNodes[n.ID] = n
		if n.Parent != nil {
			r.currEdges[n.ID] = n
		}
	}

	res := Result{
		Trigger: trigger.ID,
		Nodes:   Diff(r.nodes, r.currNodes),
		Edges:   Diff(r.edges, r.currEdges),
	}

	// Origin of entering elements and destination of exiting ones.
	ox, oy := trigger.X0, trigger.Y0
	dx, dy := trigger.X, trigger.Y

	for _, id := range res.Nodes.Enter {
		n := r.currNodes[id]
		r.nodes[id] = &NodeElement{
			element:    element{ID: id, Node: n},
			X:          ox,
			Y:          oy,
			Radius:     collapsedRadius,
			LabelAlpha: 1,
		}
	}
	for _, id := range res.Edges.Enter {
		n := r.currEdges[id]
		r.edges[id] = &EdgeElement{
			element: element{ID: id, Node: n},
			SX:      ox,
			SY:      oy,
			TX:      ox,
			TY:      oy,
		}
	}

	for _, ids := range [2][]uint32{res.Nodes.Enter, res.Nodes.Update} {
		for _, id := range ids {
			el, n := r.nodes[id], r.currNodes[id]
			el.exiting = false
			el.tween = r.tweenFor(&el.element).
				add(&el.X, n.X).
				add(&el.Y, n.Y).
				add(&el.Radius, r.cfg.NodeRadius).
				add(&el.LabelAlpha, 1)
		}
	}
	for _, id := range res.Nodes.Exit {
		el := r.nodes[id]
		el.exiting = true
		el.tween = r.tweenFor(&el.element).
			add(&el.X, dx).
			add(&el.Y, dy).
			add(&el.Radius, collapsedRadius).
			add(&el.LabelAlpha, collapsedRadius)
	}

	for _, ids := range [2][]uint32{res.Edges.Enter, res.Edges.Update} {
		for _, id := range ids {
			el, n := r.edges[id], r.currEdges[id]
			el.exiting = false
			el.tween = r.tweenFor(&el.element).
				add(&el.SX, n.Parent.X).
				add(&el.SY, n.Parent.Y).
				add(&el.TX, n.X).
				add(&el.TY, n.Y)
		}
	}
	for _, id := range res.Edges.Exit {
		el := r.edges[id]
		el.exiting = true
		el.tween = r.tweenFor(&el.element).
			add(&el.SX, dx).
			add(&el.SY, dy).
			add(&el.TX, dx).
			add(&el.TY, dy)
	}

	for _, n := range r.visible {
		n.X0, n.Y0 = n.X, n.Y
	}

	if len(res.Nodes.Enter)+len(res.Edges.Enter) > 0 {
		r.orderDirty = true
	}
	r.sweep()
	res.Elapsed = time.Since(start)
	return res, nil
}

func (r *Reconciler) tweenFor(el *element) *TweenGroup {
	return newTweenGroup(el, r.cfg.Duration, r.cfg.Easing)
}

// Update advances every running transition by dt seconds and removes exiting
// elements whose transition has completed.
func (r *Reconciler) Update(dt float32) {
	for _, el := range r.nodes {
		if el.tween != nil {
			el.tween.Update(dt)
		}
	}
	for _, el := range r.edges {
		if el.tween != nil {
			el.tween.Update(dt)
		}
	}
	r.sweep()
}

// sweep drops finished tweens and removes elements whose exit completed.
func (r *Reconciler) sweep() {
	for id, el := range r.nodes {
		if el.tween != nil && el.tween.Done {
			el.tween = nil
		}
		if el.exiting && el.tween == nil {
			el.removed = true
			delete(r.nodes, id)
			r.orderDirty = true
		}
	}
	for id, el := range r.edges {
		if el.tween != nil && el.tween.Done {
			el.tween = nil
		}
		if el.exiting && el.tween == nil {
			el.removed = true
			delete(r.edges, id)
			r.orderDirty = true
		}
	}
}

// Settle runs transitions to completion.
func (r *Reconciler) Settle() {
	for !r.Idle() {
		r.Update(float32(r.cfg.Duration) + 1)
	}
}

// Idle reports whether no transition is running.
func (r *Reconciler) Idle() bool {
	for _, el := range r.nodes {
		if el.tween != nil {
			return false
		}
	}
	for _, el := range r.edges {
		if el.tween != nil {
			return false
		}
	}
	return true
}

// Clear drops every rendered element without animating, as when the tree is
// replaced wholesale.
func (r *Reconciler) Clear() {
	for id, el := range r.nodes {
		el.removed = true
		delete(r.nodes, id)
	}
	for id, el := range r.edges {
		el.removed = true
		delete(r.edges, id)
	}
	r.orderDirty = true
}

// NodeElement returns the rendered element for a node id, or nil.
func (r *Reconciler) NodeElement(id uint32) *NodeElement {
	return r.nodes[id]
}

// EdgeElement returns the rendered edge ending at the node with the given
// id, or nil.
func (r *Reconciler) EdgeElement(id uint32) *EdgeElement {
	return r.edges[id]
}

// Nodes returns the rendered node elements in draw order (ascending id, so
// parents before children). The returned slice MUST NOT be mutated.
func (r *Reconciler) Nodes() []*NodeElement {
	r.rebuildOrder()
	return r.nodeOrder
}

// Edges returns the rendered edge elements in draw order. The returned slice
// MUST NOT be mutated.
func (r *Reconciler) Edges() []*EdgeElement {
	r.rebuildOrder()
	return r.edgeOrder
}

func (r *Reconciler) rebuildOrder() {
	if !r.orderDirty {
		return
	}
	r.orderDirty = false
	r.nodeOrder = r.nodeOrder[:0]
	for _, el := range r.nodes {
		r.nodeOrder = append(r.nodeOrder, el)
	}
	slices.SortFunc(r.nodeOrder, func(a, b *NodeElement) int { return int(a.ID) - int(b.ID) })
	r.edgeOrder = r.edgeOrder[:0]
	for _, el := range r.edges {
		r.edgeOrder = append(r.edgeOrder, el)
	}
	slices.SortFunc(r.edgeOrder, func(a, b *EdgeElement) int { return int(a.ID) - int(b.ID) })
}

// AppendCommands appends the draw commands for the current animated state to
// buf: every edge first so curves pass beneath node markers, then each
// node's circle and label.
func (r *Reconciler) AppendCommands(buf []DrawCommand, style *Style) []DrawCommand {
	for _, el := range r.Edges() {
		buf = append(buf, DrawCommand{
			Type:        CommandEdge,
			ID:          el.ID,
			Curve:       el.Curve(),
			Stroke:      style.EdgeColor,
			StrokeWidth: style.EdgeWidth,
		})
	}
	for _, el := range r.Nodes() {
		n := el.Node
		depthColor := style.DepthColor(n.Depth)
		fill := ColorWhite
		if n.Collapsed() {
			fill = depthColor
		}
		buf = append(buf, DrawCommand{
			Type:        CommandCircle,
			ID:          el.ID,
			X:           el.X,
			Y:           el.Y,
			Radius:      el.Radius,
			Fill:        fill,
			Stroke:      depthColor,
			StrokeWidth: style.StrokeWidth,
		})

		label := DrawCommand{
			Type:     CommandLabel,
			ID:       el.ID,
			X:        el.X + style.LabelOffset,
			Y:        el.Y,
			Text:     n.Name,
			Anchor:   AnchorStart,
			Bold:     n.Depth <= 1,
			FontSize: style.FontSize,
			Fill:     style.LabelColor.WithAlpha(clamp01(el.LabelAlpha)),
		}
		if n.HasChildren() {
			label.X = el.X - style.LabelOffset
			label.Anchor = AnchorEnd
		}
		buf = append(buf, label)
	}
	return buf
}
