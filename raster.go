package arbor

import (
	"errors"
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Rasterizer turns a command list into a bitmap. view maps layout
// coordinates to pixels of a width x height image.
type Rasterizer interface {
	Rasterize(cmds []DrawCommand, width, height int, view [6]float64, background Color) (image.Image, error)
}

// circleSegments is the polygon resolution used for node markers.
const circleSegments = 32

// ImageRasterizer draws commands onto an in-memory RGBA image with the
// x/image vector rasterizer. It needs no GPU, so exports work headless.
type ImageRasterizer struct {
	Fonts *Fonts // nil skips labels

	z   *vector.Rasterizer
	pts []Vec2
}

// NewImageRasterizer returns a rasterizer drawing labels with fonts.
func NewImageRasterizer(fonts *Fonts) *ImageRasterizer {
	return &ImageRasterizer{Fonts: fonts}
}

// Rasterize implements Rasterizer.
func (r *ImageRasterizer) Rasterize(cmds []DrawCommand, width, height int, view [6]float64, background Color) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyViewport
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background.toRGBA()), image.Point{}, draw.Src)

	if r.z == nil {
		r.z = vector.NewRasterizer(width, height)
	}
	k := math.Sqrt(math.Abs(view[0]*view[3] - view[1]*view[2]))

	var errs []error
	for i := range cmds {
		cmd := &cmds[i]
		switch cmd.Type {
		case CommandEdge:
			if cmd.Curve.Degenerate() {
				continue
			}
			r.pts = cmd.Curve.Flatten(r.pts[:0], curveSegments(cmd.Curve, k))
			for j := range r.pts {
				r.pts[j].X, r.pts[j].Y = transformPoint(view, r.pts[j].X, r.pts[j].Y)
			}
			r.z.Reset(width, height)
			strokePolyline(r.z, r.pts, cmd.StrokeWidth*k/2)
			r.fill(dst, cmd.Stroke)

		case CommandCircle:
			if cmd.Radius < minVisibleRadius {
				continue
			}
			cx, cy := transformPoint(view, cmd.X, cmd.Y)
			rad := cmd.Radius * k
			half := cmd.StrokeWidth * k / 2

			r.z.Reset(width, height)
			circlePath(r.z, cx, cy, rad, false)
			r.fill(dst, cmd.Fill)

			r.z.Reset(width, height)
			circlePath(r.z, cx, cy, rad+half, false)
			if rad > half {
				circlePath(r.z, cx, cy, rad-half, true)
			}
			r.fill(dst, cmd.Stroke)

		case CommandLabel:
			if r.Fonts == nil || cmd.Text == "" || cmd.Fill.A < 0.01 {
				continue
			}
			if err := r.label(dst, cmd, view, k); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return dst, nil
}

func (r *ImageRasterizer) fill(dst *image.RGBA, c Color) {
	r.z.DrawOp = draw.Over
	r.z.Draw(dst, dst.Bounds(), image.NewUniform(c.toRGBA()), image.Point{})
}

// label draws a label vertically centered on its anchor.
func (r *ImageRasterizer) label(dst *image.RGBA, cmd *DrawCommand, view [6]float64, k float64) error {
	face, err := r.Fonts.rasterFace(cmd.FontSize*k, cmd.Bold)
	if err != nil {
		return err
	}
	x, y := transformPoint(view, cmd.X, cmd.Y)
	if cmd.Anchor == AnchorEnd {
		x -= fixedToFloat(font.MeasureString(face, cmd.Text))
	}
	m := face.Metrics()
	baseline := y + fixedToFloat(m.Ascent-m.Descent)/2

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(cmd.Fill.toRGBA()),
		Face: face,
		Dot:  fixed.Point26_6{X: floatToFixed(x), Y: floatToFixed(baseline)},
	}
	d.DrawString(cmd.Text)
	return nil
}

// circlePath adds a closed polygonal circle. reverse flips the winding so the
// circle cuts a hole out of an enclosing one.
func circlePath(z *vector.Rasterizer, cx, cy, r float64, reverse bool) {
	step := 2 * math.Pi / circleSegments
	if reverse {
		step = -step
	}
	z.MoveTo(float32(cx+r), float32(cy))
	for i := 1; i < circleSegments; i++ {
		a := float64(i) * step
		z.LineTo(float32(cx+r*math.Cos(a)), float32(cy+r*math.Sin(a)))
	}
	z.ClosePath()
}

// strokePolyline adds a quad per segment and a disc per joint, which
// together cover a round-joined stroke of half-width hw.
func strokePolyline(z *vector.Rasterizer, pts []Vec2, hw float64) {
	if hw <= 0 {
		return
	}
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*hw, dx/l*hw
		// Same winding as circlePath so overlaps add instead of cancel.
		z.MoveTo(float32(a.X-nx), float32(a.Y-ny))
		z.LineTo(float32(b.X-nx), float32(b.Y-ny))
		z.LineTo(float32(b.X+nx), float32(b.Y+ny))
		z.LineTo(float32(a.X+nx), float32(a.Y+ny))
		z.ClosePath()
	}
	for i := 1; i < len(pts)-1; i++ {
		circlePath(z, pts[i].X, pts[i].Y, hw, false)
	}
}
