package vellum

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// EbitenSurface paints onto an ebiten image. Fills and strokes are
// tessellated with ebiten/vector; layers are rendered to pooled offscreen
// images and composited back on EndLayer.
type EbitenSurface struct {
	target *ebiten.Image
	base   Affine
	states stateStack
	layers []*layerFrame
	pool   renderTexturePool

	verts []ebiten.Vertex
	inds  []uint16

	stats paintStats
}

// NewEbitenSurface returns a surface drawing into target with base as the
// user-to-device transform.
func NewEbitenSurface(target *ebiten.Image, base Affine) *EbitenSurface {
	return &EbitenSurface{target: target, base: base, states: newStateStack(base)}
}

// Reset retargets the surface for a new frame. Pooled layer images are
// kept.
func (s *EbitenSurface) Reset(target *ebiten.Image, base Affine) {
	for len(s.layers) > 0 {
		s.discardLayer()
	}
	s.target = target
	s.base = base
	s.states = newStateStack(base)
	s.stats = paintStats{}
}

// Target returns the image currently drawn into.
func (s *EbitenSurface) Target() *ebiten.Image { return s.target }

func (s *EbitenSurface) Save()                              { s.states.save() }
func (s *EbitenSurface) Restore()                           { s.states.restore() }
func (s *EbitenSurface) Transform(m Affine)                 { s.states.transform(m) }
func (s *EbitenSurface) SetRenderingHints(h RenderingHints) { s.states.setHints(h) }

// Fill paints the interior of p with c.
func (s *EbitenSurface) Fill(p *Path, c Color) error {
	if s.target == nil || p == nil || c.A <= 0 {
		return nil
	}
	vp := toVectorPath(p)
	s.verts, s.inds = vp.AppendVerticesAndIndicesForFilling(s.verts[:0], s.inds[:0])
	s.drawTriangles(c, fillRule(p.Rule))
	s.stats.fills++
	return nil
}

// Stroke paints the outline of p with st.
func (s *EbitenSurface) Stroke(p *Path, st Stroke) error {
	if s.target == nil || p == nil || st.Width <= 0 || st.Color.A <= 0 {
		return nil
	}
	vp := toVectorPath(p)
	s.verts, s.inds = vp.AppendVerticesAndIndicesForStroke(s.verts[:0], s.inds[:0], strokeOptions(st))
	s.drawTriangles(st.Color, ebiten.FillRuleFillAll)
	s.stats.strokes++
	return nil
}

// DrawImage stretches img over dst in user space.
func (s *EbitenSurface) DrawImage(img *ebiten.Image, dst Rect) error {
	if s.target == nil || img == nil || dst.IsEmpty() {
		return nil
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil
	}
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(dst.Width/float64(b.Dx()), dst.Height/float64(b.Dy()))
	op.GeoM.Translate(dst.X, dst.Y)
	op.GeoM.Concat(geoM(s.states.cur.m))
	if s.states.cur.hints.LinearFilter() {
		op.Filter = ebiten.FilterLinear
	}
	s.target.DrawImage(img, &op)
	s.stats.images++
	return nil
}

// drawTriangles maps the tessellated vertices from user to device space,
// colors them and draws them with the white pixel.
func (s *EbitenSurface) drawTriangles(c Color, rule ebiten.FillRule) {
	if len(s.inds) == 0 {
		return
	}
	m := s.states.cur.m
	r, g, b, a := float32(c.R*c.A), float32(c.G*c.A), float32(c.B*c.A), float32(c.A)
	for i := range s.verts {
		v := &s.verts[i]
		x, y := m.Apply(float64(v.DstX), float64(v.DstY))
		v.DstX, v.DstY = float32(x), float32(y)
		v.SrcX, v.SrcY = 0.5, 0.5
		v.ColorR, v.ColorG, v.ColorB, v.ColorA = r, g, b, a
	}
	s.target.DrawTriangles(s.verts, s.inds, ensureWhitePixel(), &ebiten.DrawTrianglesOptions{
		AntiAlias: s.states.cur.hints.Antialias(),
		FillRule:  rule,
	})
}

var whitePixelImage *ebiten.Image

// ensureWhitePixel returns a lazily-initialized 1x1 white pixel image.
func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.White)
	}
	return whitePixelImage
}

// toVectorPath converts p to an ebiten vector path in the same space.
func toVectorPath(p *Path) *vector.Path {
	var vp vector.Path
	p.Walk(
		func(x, y float64) { vp.MoveTo(float32(x), float32(y)) },
		func(x, y float64) { vp.LineTo(float32(x), float32(y)) },
		func(cx, cy, x, y float64) {
			vp.QuadTo(float32(cx), float32(cy), float32(x), float32(y))
		},
		func(c1x, c1y, c2x, c2y, x, y float64) {
			vp.CubicTo(float32(c1x), float32(c1y), float32(c2x), float32(c2y), float32(x), float32(y))
		},
		vp.Close,
	)
	return &vp
}

func fillRule(r FillRule) ebiten.FillRule {
	if r == FillRuleEvenOdd {
		return ebiten.FillRuleEvenOdd
	}
	return ebiten.FillRuleNonZero
}

func strokeOptions(st Stroke) *vector.StrokeOptions {
	opts := &vector.StrokeOptions{
		Width:      float32(st.Width),
		MiterLimit: float32(st.MiterLimit),
	}
	if opts.MiterLimit <= 0 {
		opts.MiterLimit = defaultMiterLimit
	}
	switch st.Cap {
	case CapRound:
		opts.LineCap = vector.LineCapRound
	case CapSquare:
		opts.LineCap = vector.LineCapSquare
	default:
		opts.LineCap = vector.LineCapButt
	}
	switch st.Join {
	case JoinRound:
		opts.LineJoin = vector.LineJoinRound
	case JoinBevel:
		opts.LineJoin = vector.LineJoinBevel
	default:
		opts.LineJoin = vector.LineJoinMiter
	}
	return opts
}

// geoM converts an affine matrix to an ebiten.GeoM.
func geoM(m Affine) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}
