package arbor

import (
	"fmt"
	"math"
)

// Bezier is a cubic Bézier curve.
type Bezier struct {
	P0, P1, P2, P3 Vec2
}

// Diagonal returns the curve an edge is drawn with: it leaves s and arrives
// at d horizontally, with both control points on the x midpoint. Siblings
// that overlap near their parent separate visibly this way.
func Diagonal(s, d Vec2) Bezier {
	mx := (s.X + d.X) / 2
	return Bezier{
		P0: s,
		P1: Vec2{mx, s.Y},
		P2: Vec2{mx, d.Y},
		P3: d,
	}
}

// Point evaluates the curve at t in [0, 1].
func (b Bezier) Point(t float64) Vec2 {
	u := 1 - t
	a := u * u * u
	c1 := 3 * u * u * t
	c2 := 3 * u * t * t
	d := t * t * t
	return Vec2{
		X: a*b.P0.X + c1*b.P1.X + c2*b.P2.X + d*b.P3.X,
		Y: a*b.P0.Y + c1*b.P1.Y + c2*b.P2.Y + d*b.P3.Y,
	}
}

// Flatten appends segments+1 points sampled uniformly in t to buf.
func (b Bezier) Flatten(buf []Vec2, segments int) []Vec2 {
	if segments < 1 {
		segments = 1
	}
	for i := 0; i <= segments; i++ {
		buf = append(buf, b.Point(float64(i)/float64(segments)))
	}
	return buf
}

// Degenerate reports whether every point of the curve coincides, as it does
// for an edge that has just entered or is about to be removed.
func (b Bezier) Degenerate() bool {
	return b.P0 == b.P1 && b.P1 == b.P2 && b.P2 == b.P3
}

// Bounds returns the bounding box of the control polygon, which contains
// the curve.
func (b Bezier) Bounds() Rect {
	minX := math.Min(math.Min(b.P0.X, b.P1.X), math.Min(b.P2.X, b.P3.X))
	minY := math.Min(math.Min(b.P0.Y, b.P1.Y), math.Min(b.P2.Y, b.P3.Y))
	maxX := math.Max(math.Max(b.P0.X, b.P1.X), math.Max(b.P2.X, b.P3.X))
	maxY := math.Max(math.Max(b.P0.Y, b.P1.Y), math.Max(b.P2.Y, b.P3.Y))
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// PathData renders the curve as SVG path data.
func (b Bezier) PathData() string {
	return fmt.Sprintf("M %g %g C %g %g, %g %g, %g %g",
		b.P0.X, b.P0.Y, b.P1.X, b.P1.Y, b.P2.X, b.P2.Y, b.P3.X, b.P3.Y)
}

// curveSegments picks a flattening resolution from the curve's extent.
func curveSegments(b Bezier, scale float64) int {
	r := b.Bounds()
	n := int((r.Width + r.Height) * scale / 8)
	return max(4, min(n, 48))
}
