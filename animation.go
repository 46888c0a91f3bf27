package arbor

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 float64 fields of one rendered element
// simultaneously. Every tween in a group shares a duration and easing. The
// group starts from the fields' current values, which is what lets a new
// reconciliation retarget a running transition in place: the element's old
// group is dropped and a new one starts from wherever the element is now.
//
// If the target element has been removed, the group stops immediately.
type TweenGroup struct {
	tweens   [4]*gween.Tween
	count    int
	fields   [4]*float64
	target   *element
	duration float32
	easing   ease.TweenFunc
	Done     bool
}

func newTweenGroup(target *element, duration float32, fn ease.TweenFunc) *TweenGroup {
	if fn == nil {
		fn = ease.Linear
	}
	return &TweenGroup{target: target, duration: duration, easing: fn, Done: true}
}

// add animates *field from its current value to to. A non-positive duration
// snaps the field immediately.
func (g *TweenGroup) add(field *float64, to float64) *TweenGroup {
	if g.count == len(g.tweens) {
		panic("arbor: tween group is full")
	}
	if g.duration <= 0 {
		*field = to
		return g
	}
	g.tweens[g.count] = gween.New(float32(*field), float32(to), g.duration, g.easing)
	g.fields[g.count] = field
	g.count++
	g.Done = false
	return g
}

// Update advances all tweens by dt seconds and writes values to the target
// fields. If the target element has been removed, Done is set to true and no
// writes occur.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}

	if g.target != nil && g.target.removed {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

// easeByName resolves a configured easing name. Unknown names fall back to
// cubic in-out, the conventional transition default.
func easeByName(name string) ease.TweenFunc {
	switch name {
	case "linear":
		return ease.Linear
	case "in-quad":
		return ease.InQuad
	case "out-quad":
		return ease.OutQuad
	case "in-out-quad":
		return ease.InOutQuad
	case "in-cubic":
		return ease.InCubic
	case "out-cubic":
		return ease.OutCubic
	case "in-out-sine":
		return ease.InOutSine
	case "out-expo":
		return ease.OutExpo
	default:
		return ease.InOutCubic
	}
}
