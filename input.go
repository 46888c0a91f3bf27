package arbor

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// --- Constants ---

const (
	maxPointers         = 10  // pointer 0 = mouse, 1-9 = touch
	defaultDragDeadZone = 4.0 // pixels
)

// HitCircle is a circular hit area in layout coordinates.
type HitCircle struct {
	CenterX, CenterY, Radius float64
}

// Contains reports whether (x, y) lies inside or on the circle.
func (c HitCircle) Contains(x, y float64) bool {
	dx := x - c.CenterX
	dy := y - c.CenterY
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// --- Per-pointer state ---

// pointerState tracks one pointer between press and release. Positions are
// surface coordinates; panning works in surface space.
type pointerState struct {
	down     bool
	startX   float64
	startY   float64
	lastX    float64
	lastY    float64
	hitID    uint32 // node captured at press; 0 when the press hit empty space
	dragging bool
	button   MouseButton
}

type pinchState struct {
	active   bool
	prevDist float64
}

// --- Event contexts ---

// EventType identifies an interaction event.
type EventType uint8

const (
	EventActivate EventType = iota // a node was clicked
	EventPan                       // the view was dragged
	EventZoom                      // the view was zoomed by wheel or pinch
)

// ActivateContext describes a node activation.
type ActivateContext struct {
	Node      *TreeNode
	X, Y      float64 // layout coordinates of the release
	Button    MouseButton
	PointerID int
}

// PanContext describes one pan step.
type PanContext struct {
	DeltaX, DeltaY float64 // surface pixels
	PointerID      int
}

// ZoomContext describes one gesture zoom step.
type ZoomContext struct {
	Factor float64
	X, Y   float64 // surface point held fixed
}

// --- Handler registry ---

type activateHandler struct {
	id uint32
	fn func(ActivateContext)
}

type panHandler struct {
	id uint32
	fn func(PanContext)
}

type zoomHandler struct {
	id uint32
	fn func(ZoomContext)
}

type handlerRegistry struct {
	activate []activateHandler
	pan      []panHandler
	zoom     []zoomHandler
	nextID   uint32
}

// CallbackHandle allows removing a registered callback.
type CallbackHandle struct {
	id    uint32
	reg   *handlerRegistry
	event EventType
}

// Remove unregisters this callback so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	switch h.event {
	case EventActivate:
		h.reg.activate = removeHandler(h.reg.activate, h.id, func(a activateHandler) uint32 { return a.id })
	case EventPan:
		h.reg.pan = removeHandler(h.reg.pan, h.id, func(p panHandler) uint32 { return p.id })
	case EventZoom:
		h.reg.zoom = removeHandler(h.reg.zoom, h.id, func(z zoomHandler) uint32 { return z.id })
	}
}

func removeHandler[H any](s []H, id uint32, idOf func(H) uint32) []H {
	for i := range s {
		if idOf(s[i]) == id {
			var zero H
			copy(s[i:], s[i+1:])
			s[len(s)-1] = zero
			return s[:len(s)-1]
		}
	}
	return s
}

// --- Registration ---

// OnActivate registers a callback fired after a click activates a node. The
// toggle and reconciliation have already happened when it runs.
func (m *MindMap) OnActivate(fn func(ActivateContext)) CallbackHandle {
	m.handlers.nextID++
	id := m.handlers.nextID
	m.handlers.activate = append(m.handlers.activate, activateHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &m.handlers, event: EventActivate}
}

// OnPan registers a callback fired for every pan step of a background drag.
func (m *MindMap) OnPan(fn func(PanContext)) CallbackHandle {
	m.handlers.nextID++
	id := m.handlers.nextID
	m.handlers.pan = append(m.handlers.pan, panHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &m.handlers, event: EventPan}
}

// OnZoom registers a callback fired for every wheel or pinch zoom step.
func (m *MindMap) OnZoom(fn func(ZoomContext)) CallbackHandle {
	m.handlers.nextID++
	id := m.handlers.nextID
	m.handlers.zoom = append(m.handlers.zoom, zoomHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &m.handlers, event: EventZoom}
}

// SetDragDeadZone sets the minimum movement in pixels before a press on
// empty space starts panning.
func (m *MindMap) SetDragDeadZone(pixels float64) {
	m.dragDeadZone = pixels
}

// --- Hit testing ---

// hitTest finds the topmost rendered node at layout point (wx, wy). Exiting
// elements are not interactable. Returns 0 if nothing is hit.
func (m *MindMap) hitTest(wx, wy float64) uint32 {
	nodes := m.rec.Nodes()
	pad := m.style.StrokeWidth / 2
	// Reverse draw order: topmost first.
	for i := len(nodes) - 1; i >= 0; i-- {
		el := nodes[i]
		if el.exiting || el.Radius < minVisibleRadius {
			continue
		}
		hit := HitCircle{CenterX: el.X, CenterY: el.Y, Radius: el.Radius + pad}
		if hit.Contains(wx, wy) {
			return el.ID
		}
	}
	return 0
}

// --- Input processing ---

// processInput reads live mouse, touch and wheel state. Called from Update
// when no injected event is pending.
func (m *MindMap) processInput() {
	m.processMousePointer()
	m.processTouchPointers()
	m.detectPinch()

	if _, dy := ebiten.Wheel(); dy != 0 {
		cx, cy := ebiten.CursorPosition()
		m.processWheel(float64(cx), float64(cy), dy)
	}
}

// processMousePointer handles mouse input (pointer 0).
func (m *MindMap) processMousePointer() {
	mx, my := ebiten.CursorPosition()

	var pressed bool
	var button MouseButton
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	middle := ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)

	if left || right || middle {
		pressed = true
		if left {
			button = MouseButtonLeft
		} else if right {
			button = MouseButtonRight
		} else {
			button = MouseButtonMiddle
		}
	}

	m.processPointer(0, float64(mx), float64(my), pressed, button)
}

// processTouchPointers handles touch input (pointers 1-9).
func (m *MindMap) processTouchPointers() {
	touchIDs := ebiten.AppendTouchIDs(m.prevTouchIDs[:0])
	m.prevTouchIDs = touchIDs

	var activeSlots [maxPointers]bool
	for _, tid := range touchIDs {
		slot := m.touchSlot(tid)
		if slot < 0 {
			continue
		}
		activeSlots[slot] = true
		tx, ty := ebiten.TouchPosition(tid)
		m.processPointer(slot, float64(tx), float64(ty), true, MouseButtonLeft)
	}

	for i := 1; i < maxPointers; i++ {
		if m.touchUsed[i] && !activeSlots[i] {
			ps := &m.pointers[i]
			if ps.down {
				m.processPointer(i, ps.lastX, ps.lastY, false, MouseButtonLeft)
			}
			m.touchUsed[i] = false
			m.touchMap[i] = 0
		}
	}
}

// touchSlot maps an ebiten.TouchID to a pointer slot (1-9).
// Returns the existing slot or allocates a new one. Returns -1 if full.
func (m *MindMap) touchSlot(tid ebiten.TouchID) int {
	for i := 1; i < maxPointers; i++ {
		if m.touchUsed[i] && m.touchMap[i] == tid {
			return i
		}
	}
	for i := 1; i < maxPointers; i++ {
		if !m.touchUsed[i] {
			m.touchUsed[i] = true
			m.touchMap[i] = tid
			return i
		}
	}
	return -1
}

// processPointer runs the pointer state machine for a single pointer at
// surface point (sx, sy).
//
// A press on a node captures the pointer for that node: the release fires
// the activation if it lands on the same node, and no movement in between
// pans the view. A press on empty space pans once the pointer leaves the
// dead zone, and never activates anything.
func (m *MindMap) processPointer(pointerID int, sx, sy float64, pressed bool, button MouseButton) {
	ps := &m.pointers[pointerID]

	switch {
	case pressed && !ps.down:
		wx, wy := m.view.ScreenToWorld(sx, sy)
		ps.down = true
		ps.button = button
		ps.startX, ps.startY = sx, sy
		ps.lastX, ps.lastY = sx, sy
		ps.hitID = m.hitTest(wx, wy)
		ps.dragging = false

	case !pressed && ps.down:
		if ps.hitID != 0 && ps.button == MouseButtonLeft {
			wx, wy := m.view.ScreenToWorld(sx, sy)
			if m.hitTest(wx, wy) == ps.hitID {
				m.fireActivate(ps.hitID, pointerID, wx, wy, ps.button)
			}
		}
		ps.down = false
		ps.hitID = 0
		ps.dragging = false
		ps.lastX, ps.lastY = sx, sy

	case pressed && ps.down:
		if sx == ps.lastX && sy == ps.lastY {
			return
		}
		if !ps.dragging {
			dx := sx - ps.startX
			dy := sy - ps.startY
			if math.Sqrt(dx*dx+dy*dy) > m.dragDeadZone {
				ps.dragging = true
			}
		}
		if ps.dragging && ps.hitID == 0 && !m.pinch.active {
			m.firePan(pointerID, sx-ps.lastX, sy-ps.lastY)
		}
		ps.lastX, ps.lastY = sx, sy

	default:
		ps.lastX, ps.lastY = sx, sy
	}
}

// processWheel zooms about the surface point (sx, sy). Positive notches zoom
// in.
func (m *MindMap) processWheel(sx, sy, notches float64) {
	factor := math.Pow(m.cfg.Viewport.WheelStep, notches)
	m.view.ZoomAt(factor, sx, sy)
	ctx := ZoomContext{Factor: factor, X: sx, Y: sy}
	for _, h := range m.handlers.zoom {
		h.fn(ctx)
	}
}

// --- Pinch detection ---

// detectPinch turns two active touch pointers into zoom steps about their
// midpoint. Neither pointer pans while the pinch lasts.
func (m *MindMap) detectPinch() {
	var p [2]int
	count := 0
	for i := 1; i < maxPointers && count < 3; i++ {
		if m.pointers[i].down {
			if count < 2 {
				p[count] = i
			}
			count++
		}
	}
	if count != 2 {
		m.pinch.active = false
		return
	}

	ps0, ps1 := &m.pointers[p[0]], &m.pointers[p[1]]
	cx := (ps0.lastX + ps1.lastX) / 2
	cy := (ps0.lastY + ps1.lastY) / 2
	dist := math.Hypot(ps1.lastX-ps0.lastX, ps1.lastY-ps0.lastY)

	if m.pinch.active && m.pinch.prevDist > 0 && dist > 0 {
		factor := dist / m.pinch.prevDist
		m.view.ZoomAt(factor, cx, cy)
		ctx := ZoomContext{Factor: factor, X: cx, Y: cy}
		for _, h := range m.handlers.zoom {
			h.fn(ctx)
		}
	}
	m.pinch.active = true
	m.pinch.prevDist = dist
	ps0.dragging = false
	ps1.dragging = false
	ps0.hitID = 0
	ps1.hitID = 0
}

// --- Event dispatch ---

func (m *MindMap) fireActivate(id uint32, pointerID int, wx, wy float64, button MouseButton) {
	n := m.tree.Node(id)
	if n == nil {
		return
	}
	if err := m.Activate(n); err != nil {
		m.log.Warn("activate failed", "node", n.Name, "id", id, "error", err)
		return
	}
	ctx := ActivateContext{Node: n, X: wx, Y: wy, Button: button, PointerID: pointerID}
	for _, h := range m.handlers.activate {
		h.fn(ctx)
	}
}

func (m *MindMap) firePan(pointerID int, dx, dy float64) {
	m.view.Pan(dx, dy)
	ctx := PanContext{DeltaX: dx, DeltaY: dy, PointerID: pointerID}
	for _, h := range m.handlers.pan {
		h.fn(ctx)
	}
}
