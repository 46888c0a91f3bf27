package arbor

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Transform is a view transform: a uniform scale K followed by a translation
// (X, Y). A layout point p maps to the surface point p*K + (X, Y).
type Transform struct {
	X, Y float64
	K    float64
}

// IdentityTransform is the transform that leaves layout coordinates as is.
var IdentityTransform = Transform{K: 1}

// Matrix returns the transform as an affine matrix.
func (t Transform) Matrix() [6]float64 {
	return [6]float64{t.K, 0, 0, t.K, t.X, t.Y}
}

// Apply maps a layout point to the surface.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.K + t.X, y*t.K + t.Y
}

// Invert maps a surface point back to layout coordinates.
func (t Transform) Invert(sx, sy float64) (float64, float64) {
	return (sx - t.X) / t.K, (sy - t.Y) / t.K
}

// ViewportConfig tunes a Viewport.
type ViewportConfig struct {
	Width, Height    float64 // surface size; ZoomBy scales about its center
	MinZoom, MaxZoom float64
	ZoomDuration     float32 // seconds for ZoomBy
	ResetDuration    float32 // seconds for ResetTransform
	Easing           ease.TweenFunc
	// Home is the transform ResetTransform returns to: identity translated
	// by the layout margin.
	Home Transform
}

// viewAnim holds the running tweens of an animated transform change.
type viewAnim struct {
	x, y, k *gween.Tween
	target  Transform
}

// Viewport owns the pan/zoom transform applied to the whole drawing. It never
// touches the tree; nothing it does causes a reconciliation.
type Viewport struct {
	cfg  ViewportConfig
	t    Transform
	anim *viewAnim

	onChange []func(Transform)
}

// NewViewport creates a viewport positioned at cfg.Home.
func NewViewport(cfg ViewportConfig) *Viewport {
	if cfg.Easing == nil {
		cfg.Easing = ease.InOutCubic
	}
	if cfg.Home.K == 0 {
		cfg.Home.K = 1
	}
	if cfg.MinZoom <= 0 || cfg.MaxZoom < cfg.MinZoom {
		cfg.MinZoom, cfg.MaxZoom = 0.1, 4
	}
	v := &Viewport{cfg: cfg}
	v.t = v.clamp(cfg.Home)
	return v
}

// Transform returns the current, possibly mid-animation, transform.
func (v *Viewport) Transform() Transform {
	return v.t
}

// Target returns the transform the viewport is heading to: the end of the
// running animation, or the current transform when idle.
func (v *Viewport) Target() Transform {
	if v.anim != nil {
		return v.anim.target
	}
	return v.t
}

// Home returns the transform ResetTransform returns to.
func (v *Viewport) Home() Transform {
	return v.cfg.Home
}

// Matrix returns the current transform as an affine matrix.
func (v *Viewport) Matrix() [6]float64 {
	return v.t.Matrix()
}

// ScreenToWorld converts surface coordinates to layout coordinates.
func (v *Viewport) ScreenToWorld(sx, sy float64) (float64, float64) {
	return v.t.Invert(sx, sy)
}

// WorldToScreen converts layout coordinates to surface coordinates.
func (v *Viewport) WorldToScreen(wx, wy float64) (float64, float64) {
	return v.t.Apply(wx, wy)
}

// Animating reports whether an animated change is running.
func (v *Viewport) Animating() bool {
	return v.anim != nil
}

// OnChange registers fn to be called with the new transform whenever it
// changes.
func (v *Viewport) OnChange(fn func(Transform)) {
	v.onChange = append(v.onChange, fn)
}

// Pan moves the view by a surface-space offset. A running animation is
// cancelled.
func (v *Viewport) Pan(dx, dy float64) {
	v.anim = nil
	v.set(Transform{X: v.t.X + dx, Y: v.t.Y + dy, K: v.t.K})
}

// ZoomAt scales the view by factor keeping the surface point (sx, sy) fixed.
// The resulting scale is clamped to the zoom range. A running animation is
// cancelled.
func (v *Viewport) ZoomAt(factor, sx, sy float64) {
	v.anim = nil
	v.set(zoomAbout(v.t, v.clampK(v.t.K*factor), sx, sy))
}

// ZoomBy animates a zoom by factor about the surface center. Repeated calls
// compound from the pending target, so two quick ZoomIn presses zoom twice.
func (v *Viewport) ZoomBy(factor float64) {
	from := v.Target()
	to := zoomAbout(from, v.clampK(from.K*factor), v.cfg.Width/2, v.cfg.Height/2)
	v.animateTo(to, v.cfg.ZoomDuration)
}

// ResetTransform animates the view back to its home transform.
func (v *Viewport) ResetTransform() {
	v.animateTo(v.clamp(v.cfg.Home), v.cfg.ResetDuration)
}

// SetTransform jumps to t, clamping its scale.
func (v *Viewport) SetTransform(t Transform) {
	v.anim = nil
	v.set(v.clamp(t))
}

// Update advances a running animation by dt seconds.
func (v *Viewport) Update(dt float32) {
	a := v.anim
	if a == nil {
		return
	}
	x, doneX := a.x.Update(dt)
	y, doneY := a.y.Update(dt)
	k, doneK := a.k.Update(dt)
	if doneX && doneY && doneK {
		v.anim = nil
		v.set(a.target)
		return
	}
	v.set(Transform{X: float64(x), Y: float64(y), K: float64(k)})
}

// Settle finishes a running animation immediately.
func (v *Viewport) Settle() {
	if v.anim != nil {
		t := v.anim.target
		v.anim = nil
		v.set(t)
	}
}

func (v *Viewport) animateTo(to Transform, duration float32) {
	if duration <= 0 {
		v.anim = nil
		v.set(to)
		return
	}
	from := v.t
	v.anim = &viewAnim{
		x:      gween.New(float32(from.X), float32(to.X), duration, v.cfg.Easing),
		y:      gween.New(float32(from.Y), float32(to.Y), duration, v.cfg.Easing),
		k:      gween.New(float32(from.K), float32(to.K), duration, v.cfg.Easing),
		target: to,
	}
}

func (v *Viewport) set(t Transform) {
	if t == v.t {
		return
	}
	v.t = t
	for _, fn := range v.onChange {
		fn(t)
	}
}

func (v *Viewport) clampK(k float64) float64 {
	return math.Max(v.cfg.MinZoom, math.Min(k, v.cfg.MaxZoom))
}

func (v *Viewport) clamp(t Transform) Transform {
	k := v.clampK(t.K)
	if k == t.K {
		return t
	}
	return zoomAbout(t, k, 0, 0)
}

// zoomAbout rescales t to k keeping the surface point (sx, sy) fixed.
func zoomAbout(t Transform, k, sx, sy float64) Transform {
	wx, wy := t.Invert(sx, sy)
	return Transform{X: sx - wx*k, Y: sy - wy*k, K: k}
}
