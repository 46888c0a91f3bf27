package arbor

// syntheticPointerEvent represents a single injected pointer event in
// surface coordinates, the same space live mouse input arrives in.
type syntheticPointerEvent struct {
	screenX, screenY float64
	pressed          bool
	button           MouseButton
	wheel            float64 // notches; nonzero marks a wheel event
}

// InjectPress queues a pointer press event at the given surface coordinates
// (left button). The event is consumed on the next Step.
func (m *MindMap) InjectPress(x, y float64) {
	m.injectQueue = append(m.injectQueue, syntheticPointerEvent{
		screenX: x, screenY: y,
		pressed: true,
		button:  MouseButtonLeft,
	})
}

// InjectMove queues a pointer move event at the given surface coordinates
// with the button held down. Use this between InjectPress and InjectRelease
// to simulate a drag.
func (m *MindMap) InjectMove(x, y float64) {
	m.injectQueue = append(m.injectQueue, syntheticPointerEvent{
		screenX: x, screenY: y,
		pressed: true,
		button:  MouseButtonLeft,
	})
}

// InjectRelease queues a pointer release event at the given surface
// coordinates.
func (m *MindMap) InjectRelease(x, y float64) {
	m.injectQueue = append(m.injectQueue, syntheticPointerEvent{
		screenX: x, screenY: y,
		pressed: false,
		button:  MouseButtonLeft,
	})
}

// InjectClick is a convenience that queues a press followed by a release
// at the same surface coordinates. Consumes two steps.
func (m *MindMap) InjectClick(x, y float64) {
	m.InjectPress(x, y)
	m.InjectRelease(x, y)
}

// InjectDrag queues a full drag sequence: press at (fromX, fromY),
// linearly interpolated moves over frames-2 intermediate steps, and
// release at (toX, toY). The total sequence consumes `frames` steps.
// Minimum frames is 2 (press + release).
func (m *MindMap) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	m.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		x := fromX + (toX-fromX)*t
		y := fromY + (toY-fromY)*t
		m.InjectMove(x, y)
	}
	m.InjectRelease(toX, toY)
}

// InjectWheel queues a wheel event of the given notches at the surface
// coordinates. Positive notches zoom in.
func (m *MindMap) InjectWheel(x, y, notches float64) {
	if notches == 0 {
		return
	}
	m.injectQueue = append(m.injectQueue, syntheticPointerEvent{
		screenX: x, screenY: y,
		wheel: notches,
	})
}

// processInjectedInput pops one event from the inject queue and feeds it
// through the same pipeline as live input. Returns true if an event was
// consumed (live input should be skipped this step).
func (m *MindMap) processInjectedInput() bool {
	if len(m.injectQueue) == 0 {
		return false
	}
	evt := m.injectQueue[0]
	copy(m.injectQueue, m.injectQueue[1:])
	m.injectQueue = m.injectQueue[:len(m.injectQueue)-1]

	if evt.wheel != 0 {
		m.processWheel(evt.screenX, evt.screenY, evt.wheel)
		return true
	}
	m.processPointer(0, evt.screenX, evt.screenY, evt.pressed, evt.button)
	return true
}
