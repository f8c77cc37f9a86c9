package vellum

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// fpsGame wraps a canvas and prints FPS, TPS and the last frame's paint
// stats over it.
type fpsGame struct {
	*Canvas
}

func (g *fpsGame) Draw(screen *ebiten.Image) {
	g.Canvas.Draw(screen)
	st := g.Canvas.lastStats
	msg := fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS())
	if debugEnabled() {
		msg += fmt.Sprintf("\nlayers: %d fills: %d strokes: %d\npaint: %v",
			st.layers, st.fills, st.strokes, st.paintTime)
	}
	ebitenutil.DebugPrint(screen, msg)
}
