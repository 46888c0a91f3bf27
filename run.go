package arbor

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title string
	// Width and Height size the window. Zero uses the configured surface.
	Width, Height int
	ShowFPS       bool
}

// game adapts a MindMap to ebiten.Game, adding the optional FPS overlay.
type game struct {
	*MindMap
	showFPS bool
	fps     *ebiten.Image
	elapsed float64
}

// Run opens a window and runs m until the window closes.
func Run(m *MindMap, cfg RunConfig) error {
	w, h := cfg.Width, cfg.Height
	if w <= 0 || h <= 0 {
		w, h = m.Layout(0, 0)
	}
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	g := &game{MindMap: m, showFPS: cfg.ShowFPS}
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("arbor: run: %w", err)
	}
	return nil
}

// Update refreshes the FPS overlay every half second.
func (g *game) Update() error {
	if err := g.MindMap.Update(); err != nil {
		return err
	}
	if !g.showFPS {
		return nil
	}
	g.elapsed += 1 / float64(ebiten.TPS())
	if g.fps != nil && g.elapsed < 0.5 {
		return nil
	}
	g.elapsed = 0
	if g.fps == nil {
		// "FPS: 60.0\nTPS: 60.0" fits.
		g.fps = ebiten.NewImage(100, 32)
	}
	g.fps.Clear()
	g.fps.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(g.fps, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	return nil
}

// Draw draws the mind map and the overlay on top.
func (g *game) Draw(screen *ebiten.Image) {
	g.MindMap.Draw(screen)
	if g.showFPS && g.fps != nil {
		screen.DrawImage(g.fps, nil)
	}
}
