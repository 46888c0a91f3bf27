package arbor

import (
	"math"
	"testing"

	"github.com/tanema/gween/ease"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func newTestViewport() *Viewport {
	return NewViewport(ViewportConfig{
		Width:         1160,
		Height:        660,
		MinZoom:       0.1,
		MaxZoom:       4,
		ZoomDuration:  0.3,
		ResetDuration: 0.75,
		Easing:        ease.Linear,
		Home:          Transform{X: 120, Y: 20, K: 1},
	})
}

func TestViewportStartsHome(t *testing.T) {
	v := newTestViewport()
	if v.Transform() != (Transform{X: 120, Y: 20, K: 1}) {
		t.Errorf("Transform = %+v, want home", v.Transform())
	}
	sx, sy := v.WorldToScreen(0, 310)
	if sx != 120 || sy != 330 {
		t.Errorf("WorldToScreen(0,310) = (%v,%v), want (120,330)", sx, sy)
	}
}

func TestViewportPan(t *testing.T) {
	v := newTestViewport()
	v.Pan(30, -10)
	if got := v.Transform(); got.X != 150 || got.Y != 10 || got.K != 1 {
		t.Errorf("after Pan = %+v", got)
	}
}

func TestViewportZoomAtKeepsPointFixed(t *testing.T) {
	v := newTestViewport()
	wx, wy := v.ScreenToWorld(400, 300)
	v.ZoomAt(2, 400, 300)
	if v.Transform().K != 2 {
		t.Fatalf("K = %v, want 2", v.Transform().K)
	}
	sx, sy := v.WorldToScreen(wx, wy)
	if !approxEqual(sx, 400, 1e-9) || !approxEqual(sy, 300, 1e-9) {
		t.Errorf("anchor moved to (%v,%v)", sx, sy)
	}
}

func TestViewportZoomClamped(t *testing.T) {
	v := newTestViewport()
	for i := 0; i < 50; i++ {
		v.ZoomAt(1.5, 0, 0)
	}
	if k := v.Transform().K; k != 4 {
		t.Errorf("K = %v, want max 4", k)
	}
	for i := 0; i < 100; i++ {
		v.ZoomAt(0.5, 0, 0)
	}
	if k := v.Transform().K; k != 0.1 {
		t.Errorf("K = %v, want min 0.1", k)
	}
}

func TestViewportZoomByAnimatesAboutCenter(t *testing.T) {
	v := newTestViewport()
	cx, cy := 580.0, 330.0
	wx, wy := v.ScreenToWorld(cx, cy)

	v.ZoomBy(1.3)
	if !v.Animating() {
		t.Fatal("ZoomBy should animate")
	}
	if v.Transform().K != 1 {
		t.Error("ZoomBy must not jump")
	}
	if !approxEqual(v.Target().K, 1.3, 1e-9) {
		t.Errorf("Target K = %v, want 1.3", v.Target().K)
	}

	v.Update(0.15)
	if k := v.Transform().K; k <= 1 || k >= 1.3 {
		t.Errorf("mid-animation K = %v, want in (1, 1.3)", k)
	}
	v.Update(0.15)
	v.Update(0.01)
	if v.Animating() {
		t.Fatal("animation should be finished")
	}
	if !approxEqual(v.Transform().K, 1.3, 1e-9) {
		t.Errorf("K = %v, want 1.3", v.Transform().K)
	}
	sx, sy := v.WorldToScreen(wx, wy)
	if !approxEqual(sx, cx, 1e-6) || !approxEqual(sy, cy, 1e-6) {
		t.Errorf("center moved to (%v,%v)", sx, sy)
	}
}

func TestViewportZoomByCompounds(t *testing.T) {
	v := newTestViewport()
	v.ZoomBy(1.3)
	v.ZoomBy(1.3)
	if !approxEqual(v.Target().K, 1.69, 1e-9) {
		t.Errorf("Target K = %v, want 1.69", v.Target().K)
	}
	v.Settle()
	if !approxEqual(v.Transform().K, 1.69, 1e-9) {
		t.Errorf("K = %v, want 1.69", v.Transform().K)
	}
}

func TestViewportZoomInOutBounds(t *testing.T) {
	v := newTestViewport()
	for i := 0; i < 40; i++ {
		v.ZoomBy(1.3)
		v.Settle()
	}
	if k := v.Transform().K; k != 4 {
		t.Errorf("K = %v, want 4", k)
	}
	for i := 0; i < 60; i++ {
		v.ZoomBy(1 / 1.3)
		v.Settle()
	}
	if k := v.Transform().K; k != 0.1 {
		t.Errorf("K = %v, want 0.1", k)
	}
}

func TestViewportResetTransform(t *testing.T) {
	v := newTestViewport()
	v.Pan(300, 200)
	v.ZoomAt(3, 10, 10)
	v.ResetTransform()
	if !v.Animating() {
		t.Fatal("ResetTransform should animate")
	}
	v.Update(0.5)
	v.Update(0.5)
	if got := v.Transform(); got != v.Home() {
		t.Errorf("after reset = %+v, want %+v", got, v.Home())
	}
}

func TestViewportGestureCancelsAnimation(t *testing.T) {
	v := newTestViewport()
	v.ResetTransform()
	v.ZoomBy(2)
	v.Update(0.1)
	v.Pan(5, 5)
	if v.Animating() {
		t.Error("Pan should cancel the running animation")
	}
	before := v.Transform()
	v.Update(1)
	if v.Transform() != before {
		t.Error("cancelled animation kept moving the view")
	}
}

func TestViewportOnChange(t *testing.T) {
	v := newTestViewport()
	var calls int
	var last Transform
	v.OnChange(func(tr Transform) {
		calls++
		last = tr
	})
	v.Pan(0, 0)
	if calls != 0 {
		t.Error("a no-op pan should not notify")
	}
	v.Pan(1, 2)
	if calls != 1 || last != v.Transform() {
		t.Errorf("calls = %d, last = %+v", calls, last)
	}
}

func TestViewportDefaultsZoomRange(t *testing.T) {
	v := NewViewport(ViewportConfig{Width: 100, Height: 100})
	if v.Transform().K != 1 {
		t.Errorf("K = %v, want 1", v.Transform().K)
	}
	v.ZoomAt(100, 0, 0)
	if v.Transform().K != 4 {
		t.Errorf("K = %v, want default max 4", v.Transform().K)
	}
}

func TestTransformInvertRoundTrip(t *testing.T) {
	tr := Transform{X: -37, Y: 12.5, K: 1.7}
	x, y := tr.Apply(123, -456)
	bx, by := tr.Invert(x, y)
	if !approxEqual(bx, 123, 1e-9) || !approxEqual(by, -456, 1e-9) {
		t.Errorf("round trip = (%v,%v)", bx, by)
	}
	assertMatrix(t, "matrix", tr.Matrix(), [6]float64{1.7, 0, 0, 1.7, -37, 12.5})
}
