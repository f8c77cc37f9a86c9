package vellum

import (
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// --- Render texture pool ---

// renderTexturePool manages reusable offscreen ebiten.Images keyed by
// power-of-two dimensions. After warmup, Acquire/Release are zero-alloc.
type renderTexturePool struct {
	buckets map[uint64][]*ebiten.Image
}

// poolKey packs power-of-two width and height into a single uint64.
func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// Acquire returns a cleared offscreen image with at least (w, h) pixels.
// Dimensions are rounded up to the next power of two.
func (p *renderTexturePool) Acquire(w, h int) *ebiten.Image {
	pw := nextPowerOfTwo(w)
	ph := nextPowerOfTwo(h)
	key := poolKey(pw, ph)

	if p.buckets != nil {
		if stack := p.buckets[key]; len(stack) > 0 {
			img := stack[len(stack)-1]
			p.buckets[key] = stack[:len(stack)-1]
			img.Clear()
			return img
		}
	}

	return ebiten.NewImageWithOptions(
		image.Rect(0, 0, pw, ph),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
}

// Release returns an image to the pool. It is cleared on the next Acquire.
func (p *renderTexturePool) Release(img *ebiten.Image) {
	if img == nil {
		return
	}
	b := img.Bounds()
	key := poolKey(b.Dx(), b.Dy())

	if p.buckets == nil {
		p.buckets = make(map[uint64][]*ebiten.Image)
	}
	p.buckets[key] = append(p.buckets[key], img)
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 1).
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << int(math.Ceil(math.Log2(float64(n))))
}

// maxLayerSize caps a layer's pixel size in each direction.
const maxLayerSize = 8192

// --- Layers ---

// layerFrame is one open BeginLayer on an EbitenSurface.
type layerFrame struct {
	layer  Layer
	parent *ebiten.Image // target to composite into
	states stateStack    // surface state at BeginLayer
	local  Affine        // node-local to layer-pixel transform

	rt     *ebiten.Image // pooled backing image, nil when the layer is empty
	img    *ebiten.Image // rt limited to the layer size
	ox, oy int           // device position of the layer's top-left pixel
	w, h   int
}

// BeginLayer redirects painting to an offscreen image covering the device
// extent of l.Bounds, grown by the filter padding and limited to the
// current target.
func (s *EbitenSurface) BeginLayer(l Layer) error {
	if l.Bounds.IsEmpty() || !l.Bounds.IsFinite() {
		s.pushEmptyLayer(l)
		return nil
	}
	m := s.states.cur.m
	dev := m.TransformRect(l.Bounds)
	if l.Filter != nil {
		dev = dev.Outset(float64(l.Filter.Padding()))
	}
	if s.target != nil {
		tb := s.target.Bounds()
		dev = dev.Intersect(Rect{float64(tb.Min.X), float64(tb.Min.Y), float64(tb.Dx()), float64(tb.Dy())})
	}
	if dev.IsEmpty() || s.target == nil {
		s.pushEmptyLayer(l)
		return nil
	}
	ox, oy := int(math.Floor(dev.X)), int(math.Floor(dev.Y))
	w := int(math.Ceil(dev.MaxX())) - ox
	h := int(math.Ceil(dev.MaxY())) - oy
	if w > maxLayerSize || h > maxLayerSize {
		return errors.Errorf("layer %dx%d exceeds %d pixels", w, h, maxLayerSize)
	}

	rt := s.pool.Acquire(w, h)
	f := &layerFrame{
		layer:  l,
		parent: s.target,
		states: s.states,
		local:  Translate(float64(-ox), float64(-oy)).Mul(m),
		rt:     rt,
		img:    rt.SubImage(image.Rect(0, 0, w, h)).(*ebiten.Image),
		ox:     ox, oy: oy, w: w, h: h,
	}
	s.layers = append(s.layers, f)
	s.target = f.img
	s.states = stateStack{cur: surfaceState{m: f.local, hints: f.states.cur.hints}}
	s.stats.layers++
	return nil
}

// pushEmptyLayer opens a layer that swallows everything painted into it.
func (s *EbitenSurface) pushEmptyLayer(l Layer) {
	s.layers = append(s.layers, &layerFrame{layer: l, parent: s.target, states: s.states})
	s.target = nil
}

// EndLayer applies the layer's filter, mask and clip in that order and
// composites the result onto the enclosing target.
func (s *EbitenSurface) EndLayer() error {
	n := len(s.layers)
	if n == 0 {
		return errors.New("EndLayer without BeginLayer")
	}
	f := s.layers[n-1]
	s.layers = s.layers[:n-1]
	s.target = f.parent
	s.states = f.states
	if f.rt == nil {
		return nil
	}

	var err error
	var scratch []*ebiten.Image
	acquire := func() *ebiten.Image {
		rt := s.pool.Acquire(f.w, f.h)
		scratch = append(scratch, rt)
		return rt.SubImage(image.Rect(0, 0, f.w, f.h)).(*ebiten.Image)
	}
	result := f.img

	if f.layer.Filter != nil {
		dst := acquire()
		applyFilter(f.layer.Filter, result, dst, f.local)
		result = dst
	}

	if mk := f.layer.Mask; mk != nil && mk.Content != nil {
		maskImg := acquire()
		err = multierr.Append(err, s.paintInto(maskImg, f.local, f.states.cur.hints, mk.Content))
		if !mk.Region.IsEmpty() {
			err = multierr.Append(err, s.maskWithShape(result, f.local, RectShape(mk.Region), acquire))
		}
		var op ebiten.DrawImageOptions
		op.Blend = CompositeDstIn.EbitenBlend()
		result.DrawImage(maskImg, &op)
	}

	if f.layer.Clip != nil {
		err = multierr.Append(err, s.maskWithShape(result, f.local, f.layer.Clip, acquire))
	}

	if f.parent != nil {
		var op ebiten.DrawImageOptions
		op.GeoM.Translate(float64(f.ox), float64(f.oy))
		if c := f.layer.Composite; c != nil {
			op.Blend = c.Op.EbitenBlend()
			op.ColorScale.ScaleAlpha(float32(clamp01(c.Alpha)))
		}
		f.parent.DrawImage(result, &op)
	}

	s.pool.Release(f.rt)
	for _, rt := range scratch {
		s.pool.Release(rt)
	}
	return err
}

// maskWithShape keeps only the part of img inside shape, given in the
// space mapped to img pixels by m.
func (s *EbitenSurface) maskWithShape(img *ebiten.Image, m Affine, shape Shape, acquire func() *ebiten.Image) error {
	clipImg := acquire()
	if err := s.fillInto(clipImg, m, shape.ToPath()); err != nil {
		return err
	}
	var op ebiten.DrawImageOptions
	op.Blend = CompositeDstIn.EbitenBlend()
	img.DrawImage(clipImg, &op)
	return nil
}

// paintInto paints node onto img with m as the base transform, then
// restores the surface.
func (s *EbitenSurface) paintInto(img *ebiten.Image, m Affine, hints RenderingHints, node Node) error {
	savedTarget, savedStates := s.target, s.states
	s.target = img
	s.states = stateStack{cur: surfaceState{m: m, hints: hints}}
	err := node.Paint(s)
	s.target, s.states = savedTarget, savedStates
	return err
}

func (s *EbitenSurface) fillInto(img *ebiten.Image, m Affine, p *Path) error {
	savedTarget, savedStates := s.target, s.states
	s.target = img
	s.states = stateStack{cur: surfaceState{m: m, hints: savedStates.cur.hints}}
	err := s.Fill(p, Color{1, 1, 1, 1})
	s.target, s.states = savedTarget, savedStates
	return err
}

// discardLayer drops the innermost layer without compositing it.
func (s *EbitenSurface) discardLayer() {
	n := len(s.layers)
	f := s.layers[n-1]
	s.layers = s.layers[:n-1]
	s.target = f.parent
	s.states = f.states
	if f.rt != nil {
		s.pool.Release(f.rt)
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
