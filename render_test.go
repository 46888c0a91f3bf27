package arbor

import "testing"

func TestDrawCommandBounds(t *testing.T) {
	tests := []struct {
		name string
		cmd  DrawCommand
		want Rect
	}{
		{
			name: "circle includes half stroke",
			cmd:  DrawCommand{Type: CommandCircle, X: 100, Y: 50, Radius: 8, StrokeWidth: 2},
			want: Rect{91, 41, 18, 18},
		},
		{
			name: "edge pads curve hull",
			cmd: DrawCommand{
				Type:        CommandEdge,
				Curve:       Diagonal(Vec2{0, 0}, Vec2{180, 100}),
				StrokeWidth: 2,
			},
			want: Rect{-1, -1, 182, 102},
		},
		{
			name: "start-anchored label extends right",
			cmd:  DrawCommand{Type: CommandLabel, X: 10, Y: 20, Text: "abcd", FontSize: 10},
			want: Rect{10, 10, 24, 20},
		},
		{
			name: "end-anchored label extends left",
			cmd:  DrawCommand{Type: CommandLabel, X: 10, Y: 20, Text: "abcd", FontSize: 10, Anchor: AnchorEnd},
			want: Rect{-14, 10, 24, 20},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cmd.Bounds()
			if !approxEqual(got.X, tt.want.X, 1e-9) || !approxEqual(got.Y, tt.want.Y, 1e-9) ||
				!approxEqual(got.Width, tt.want.Width, 1e-9) || !approxEqual(got.Height, tt.want.Height, 1e-9) {
				t.Errorf("Bounds = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScreenAABB(t *testing.T) {
	tests := []struct {
		name string
		m    [6]float64
		r    Rect
		want Rect
	}{
		{"identity", IdentityTransform.Matrix(), Rect{1, 2, 3, 4}, Rect{1, 2, 3, 4}},
		{"home", Transform{X: 120, Y: 20, K: 1}.Matrix(), Rect{0, 300, 10, 20}, Rect{120, 320, 10, 20}},
		{"zoomed", Transform{X: 0, Y: 0, K: 2}.Matrix(), Rect{5, 5, 10, 10}, Rect{10, 10, 20, 20}},
		{"flipped", [6]float64{-1, 0, 0, -1, 0, 0}, Rect{0, 0, 10, 5}, Rect{-10, -5, 10, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := screenAABB(tt.m, tt.r); got != tt.want {
				t.Errorf("screenAABB = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDrawCommandsFollowElements(t *testing.T) {
	m := newTestMindMap(t)
	m.ExpandAll()
	m.Reconciler().Settle()

	cmds := m.DrawCommands()
	n := m.Tree().Len()
	if len(cmds) != (n-1)+2*n {
		t.Errorf("len = %d, want %d", len(cmds), (n-1)+2*n)
	}
	// Reused buffer.
	again := m.DrawCommands()
	if &again[0] != &cmds[0] {
		t.Error("DrawCommands did not reuse its buffer")
	}
}
