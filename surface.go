package vellum

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Layer describes an offscreen group opened by BeginLayer. Everything
// painted until the matching EndLayer is collected, filtered, clipped,
// masked and then composited onto the enclosing target.
type Layer struct {
	Composite *Composite
	Clip      Shape  // nil for no clip
	Mask      *Mask  // nil for no mask
	Filter    Filter // nil for no filter
	Bounds    Rect   // node-local extent of the layer content
}

// Surface is the drawing target the paint protocol runs against. It keeps
// a stack of graphics states: Save pushes the current transform and hints,
// Restore pops them. Transform composes m onto the current transform.
// Every BeginLayer that returns nil must be matched by one EndLayer.
type Surface interface {
	Save()
	Restore()
	Transform(m Affine)
	SetRenderingHints(h RenderingHints)

	BeginLayer(l Layer) error
	EndLayer() error

	Fill(p *Path, c Color) error
	Stroke(p *Path, st Stroke) error
	DrawImage(img *ebiten.Image, dst Rect) error
}

// surfaceState is the save/restore unit shared by the surface
// implementations.
type surfaceState struct {
	m     Affine
	hints RenderingHints
}

type stateStack struct {
	cur   surfaceState
	saved []surfaceState
}

func newStateStack(base Affine) stateStack {
	return stateStack{cur: surfaceState{m: base}}
}

func (s *stateStack) save() {
	s.saved = append(s.saved, s.cur)
}

func (s *stateStack) restore() bool {
	n := len(s.saved)
	if n == 0 {
		return false
	}
	s.cur = s.saved[n-1]
	s.saved = s.saved[:n-1]
	return true
}

func (s *stateStack) transform(m Affine) {
	s.cur.m = s.cur.m.Mul(m)
}

func (s *stateStack) setHints(h RenderingHints) {
	s.cur.hints = s.cur.hints.Merge(h)
}

func (s *stateStack) depth() int { return len(s.saved) }
