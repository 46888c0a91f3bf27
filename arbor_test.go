package arbor

import (
	"image/color"
	"testing"
)

func TestColorToRGBA(t *testing.T) {
	tests := []struct {
		name string
		c    Color
		want color.RGBA
	}{
		{"white", ColorWhite, color.RGBA{255, 255, 255, 255}},
		{"half red", Color{1, 0, 0, 0.5}, color.RGBA{128, 0, 0, 128}},
		{"clamped", Color{2, -1, 0.5, 1}, color.RGBA{255, 0, 128, 255}},
		{"transparent", Color{1, 1, 1, 0}, color.RGBA{}},
	}
	for _, tt := range tests {
		if got := tt.c.toRGBA(); got != tt.want {
			t.Errorf("%s: toRGBA = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestColorWithAlpha(t *testing.T) {
	c := Color{0.2, 0.4, 0.6, 0.5}.WithAlpha(0.5)
	if c.A != 0.25 || c.R != 0.2 {
		t.Errorf("WithAlpha = %+v", c)
	}
}

func TestRect(t *testing.T) {
	r := Rect{10, 20, 100, 50}
	if !r.Contains(10, 20) || !r.Contains(110, 70) || r.Contains(111, 40) {
		t.Error("Contains edges wrong")
	}
	if !r.Intersects(Rect{110, 70, 5, 5}) {
		t.Error("touching rects should intersect")
	}
	if r.Intersects(Rect{200, 200, 5, 5}) {
		t.Error("distant rects intersect")
	}
	if r.Empty() || !(Rect{0, 0, 0, 5}).Empty() {
		t.Error("Empty wrong")
	}
}

func TestKindAndPhaseStrings(t *testing.T) {
	if KindNode.String() != "node" || KindEdge.String() != "edge" {
		t.Error("ElementKind strings")
	}
	for p, want := range map[Phase]string{PhaseEnter: "enter", PhaseUpdate: "update", PhaseExit: "exit", Phase(9): "unknown"} {
		if p.String() != want {
			t.Errorf("Phase(%d) = %q, want %q", p, p.String(), want)
		}
	}
}
