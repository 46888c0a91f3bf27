package arbor

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// CommandType identifies the kind of draw command.
type CommandType uint8

const (
	CommandEdge   CommandType = iota // stroked cubic curve
	CommandCircle                    // filled + stroked node marker
	CommandLabel                     // node name
)

// TextAnchor selects which end of a label sits at the command position.
type TextAnchor uint8

const (
	AnchorStart TextAnchor = iota // label extends to the right
	AnchorEnd                     // label extends to the left
)

// minVisibleRadius is the smallest circle radius worth submitting.
const minVisibleRadius = 0.05

// DrawCommand is a single draw instruction in layout coordinates. The
// reconciler emits them; a surface (Ebitengine screen, software raster)
// submits them under a view transform.
type DrawCommand struct {
	Type CommandType
	ID   uint32 // owning node id

	// Circle and label anchor.
	X, Y   float64
	Radius float64

	// Edge geometry.
	Curve Bezier

	Fill        Color
	Stroke      Color
	StrokeWidth float64

	// Label fields.
	Text     string
	Anchor   TextAnchor
	Bold     bool
	FontSize float64
}

// Bounds returns a conservative layout-space bounding box used for culling.
// Label extents are estimated from the font size.
func (c *DrawCommand) Bounds() Rect {
	switch c.Type {
	case CommandEdge:
		r := c.Curve.Bounds()
		pad := c.StrokeWidth / 2
		return Rect{r.X - pad, r.Y - pad, r.Width + 2*pad, r.Height + 2*pad}
	case CommandCircle:
		r := c.Radius + c.StrokeWidth/2
		return Rect{c.X - r, c.Y - r, 2 * r, 2 * r}
	default:
		w := float64(len(c.Text)) * c.FontSize * 0.6
		x := c.X
		if c.Anchor == AnchorEnd {
			x -= w
		}
		return Rect{x, c.Y - c.FontSize, w, 2 * c.FontSize}
	}
}

// submitCommands draws cmds onto target under the view matrix. Commands
// whose bounds fall outside the target are skipped.
func submitCommands(target *ebiten.Image, cmds []DrawCommand, view [6]float64, fonts *Fonts, cull bool) {
	k := math.Sqrt(math.Abs(view[0]*view[3] - view[1]*view[2]))
	b := target.Bounds()
	screen := Rect{float64(b.Min.X), float64(b.Min.Y), float64(b.Dx()), float64(b.Dy())}
	var pts []Vec2

	for i := range cmds {
		cmd := &cmds[i]
		if cull && !screenAABB(view, cmd.Bounds()).Intersects(screen) {
			continue
		}
		switch cmd.Type {
		case CommandEdge:
			if cmd.Curve.Degenerate() {
				continue
			}
			pts = cmd.Curve.Flatten(pts[:0], curveSegments(cmd.Curve, k))
			w := float32(cmd.StrokeWidth * k)
			clr := cmd.Stroke.toRGBA()
			for j := 1; j < len(pts); j++ {
				x0, y0 := transformPoint(view, pts[j-1].X, pts[j-1].Y)
				x1, y1 := transformPoint(view, pts[j].X, pts[j].Y)
				vector.StrokeLine(target, float32(x0), float32(y0), float32(x1), float32(y1), w, clr, true)
			}

		case CommandCircle:
			if cmd.Radius < minVisibleRadius {
				continue
			}
			cx, cy := transformPoint(view, cmd.X, cmd.Y)
			r := float32(cmd.Radius * k)
			vector.DrawFilledCircle(target, float32(cx), float32(cy), r, cmd.Fill.toRGBA(), true)
			vector.StrokeCircle(target, float32(cx), float32(cy), r, float32(cmd.StrokeWidth*k), cmd.Stroke.toRGBA(), true)

		case CommandLabel:
			if fonts == nil || cmd.Fill.A < 0.01 || cmd.Text == "" {
				continue
			}
			x, y := transformPoint(view, cmd.X, cmd.Y)
			op := &text.DrawOptions{}
			op.GeoM.Scale(k, k)
			op.GeoM.Translate(x, y)
			op.ColorScale.ScaleWithColor(cmd.Fill.toRGBA())
			op.SecondaryAlign = text.AlignCenter
			if cmd.Anchor == AnchorEnd {
				op.PrimaryAlign = text.AlignEnd
			}
			text.Draw(target, cmd.Text, fonts.Face(cmd.FontSize, cmd.Bold), op)
		}
	}
}

// screenAABB transforms a layout-space rect by an affine matrix and returns
// its axis-aligned bounds.
func screenAABB(m [6]float64, r Rect) Rect {
	x0, y0 := transformPoint(m, r.X, r.Y)
	x1, y1 := transformPoint(m, r.X+r.Width, r.Y+r.Height)
	return Rect{
		X:      math.Min(x0, x1),
		Y:      math.Min(y0, y1),
		Width:  math.Abs(x1 - x0),
		Height: math.Abs(y1 - y0),
	}
}
