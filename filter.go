package vellum

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// Filter is an image effect applied to a node's rendered layer before
// masking and compositing.
type Filter interface {
	// Apply renders src into dst with the effect. Both images have the
	// same size.
	Apply(src, dst *ebiten.Image)
	// Padding is how far, in user units, the effect can spread past the
	// source content.
	Padding() int
}

// LocalFilter is implemented by filters that place content in the node's
// local space. The layer renderer calls ApplyLocal with the transform from
// node-local coordinates to dst pixels instead of Apply.
type LocalFilter interface {
	Filter
	ApplyLocal(src, dst *ebiten.Image, local Affine)
}

func applyFilter(f Filter, src, dst *ebiten.Image, local Affine) {
	if lf, ok := f.(LocalFilter); ok {
		lf.ApplyLocal(src, dst, local)
		return
	}
	f.Apply(src, dst)
}

// Resolvable is implemented by filters that depend on external content.
// Resolved returns nil once the content is available.
type Resolvable interface {
	Resolved() error
}

// BoundedFilter is implemented by filters whose output extent is not a
// simple outset of their input.
type BoundedFilter interface {
	FilterBounds(src Rect) Rect
}

// filterBounds returns the extent of f's output for input extent src.
func filterBounds(f Filter, src Rect) Rect {
	if b, ok := f.(BoundedFilter); ok {
		return b.FilterBounds(src)
	}
	if p := f.Padding(); p > 0 {
		return src.Outset(float64(p))
	}
	return src
}

// --- Kage shader sources ---
// Ebitengine images hold premultiplied alpha; shaders un-premultiply before
// working on color and premultiply their output.

const colorMatrixShaderSrc = `//kage:unit pixels
package main

var Matrix [20]float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a > 0 {
		c.rgb /= c.a
	}
	r := Matrix[0]*c.r + Matrix[1]*c.g + Matrix[2]*c.b + Matrix[3]*c.a + Matrix[4]
	g := Matrix[5]*c.r + Matrix[6]*c.g + Matrix[7]*c.b + Matrix[8]*c.a + Matrix[9]
	b := Matrix[10]*c.r + Matrix[11]*c.g + Matrix[12]*c.b + Matrix[13]*c.a + Matrix[14]
	a := Matrix[15]*c.r + Matrix[16]*c.g + Matrix[17]*c.b + Matrix[18]*c.a + Matrix[19]
	r = clamp(r, 0, 1)
	g = clamp(g, 0, 1)
	b = clamp(b, 0, 1)
	a = clamp(a, 0, 1)
	return vec4(r*a, g*a, b*a, a)
}
`

const edgeShaderSrc = `//kage:unit pixels
package main

var EdgeColor vec4

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a > 0 {
		return c
	}
	if imageSrc0At(src + vec2(1, 0)).a > 0 ||
		imageSrc0At(src + vec2(-1, 0)).a > 0 ||
		imageSrc0At(src + vec2(0, 1)).a > 0 ||
		imageSrc0At(src + vec2(0, -1)).a > 0 {
		return EdgeColor
	}
	return vec4(0)
}
`

// Shaders compile on first use. No sync.Once: the tree has a single owner.
var (
	colorMatrixShader *ebiten.Shader
	edgeShader        *ebiten.Shader
)

func compileShader(dst **ebiten.Shader, name, src string) *ebiten.Shader {
	if *dst == nil {
		s, err := ebiten.NewShader([]byte(src))
		if err != nil {
			panic("vellum: failed to compile " + name + " shader: " + err.Error())
		}
		*dst = s
	}
	return *dst
}

// --- ColorMatrixFilter ---

// ColorMatrixFilter (feColorMatrix) multiplies each un-premultiplied pixel
// by a 4x5 matrix in row-major order: [Rr, Rg, Rb, Ra, Roffset, Gr, ...].
type ColorMatrixFilter struct {
	Matrix    [20]float64
	matrixF32 [20]float32
	uniforms  map[string]any
	shaderOp  ebiten.DrawRectShaderOptions
}

// NewColorMatrixFilter returns a filter holding the identity matrix.
func NewColorMatrixFilter() *ColorMatrixFilter {
	f := &ColorMatrixFilter{uniforms: make(map[string]any, 1)}
	f.uniforms["Matrix"] = f.matrixF32[:]
	f.Matrix[0] = 1
	f.Matrix[6] = 1
	f.Matrix[12] = 1
	f.Matrix[18] = 1
	return f
}

// SetBrightness adds b in [-1, 1] to each color channel.
func (f *ColorMatrixFilter) SetBrightness(b float64) {
	f.Matrix = [20]float64{
		1, 0, 0, 0, b,
		0, 1, 0, 0, b,
		0, 0, 1, 0, b,
		0, 0, 0, 1, 0,
	}
}

// SetSaturation scales saturation; 1 leaves colors unchanged and 0 gives
// grayscale.
func (f *ColorMatrixFilter) SetSaturation(s float64) {
	sr := (1 - s) * 0.2126
	sg := (1 - s) * 0.7152
	sb := (1 - s) * 0.0722
	f.Matrix = [20]float64{
		sr + s, sg, sb, 0, 0,
		sr, sg + s, sb, 0, 0,
		sr, sg, sb + s, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// SetOpacity scales the alpha channel by a.
func (f *ColorMatrixFilter) SetOpacity(a float64) {
	f.Matrix = [20]float64{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, a, 0,
	}
}

// Apply runs the matrix shader from src into dst.
func (f *ColorMatrixFilter) Apply(src, dst *ebiten.Image) {
	shader := compileShader(&colorMatrixShader, "color matrix", colorMatrixShaderSrc)
	for i, v := range f.Matrix {
		f.matrixF32[i] = float32(v)
	}
	b := src.Bounds()
	f.shaderOp.Images[0] = src
	f.shaderOp.Uniforms = f.uniforms
	dst.DrawRectShader(b.Dx(), b.Dy(), shader, &f.shaderOp)
}

// Padding returns 0.
func (f *ColorMatrixFilter) Padding() int { return 0 }

// --- OutlineFilter ---

// OutlineFilter (feMorphology dilate plus merge) draws the source tinted
// with Color at eight offsets of Thickness, then the source on top.
type OutlineFilter struct {
	Thickness int
	Color     Color
	imgOp     ebiten.DrawImageOptions
}

// NewOutlineFilter returns an outline filter.
func NewOutlineFilter(thickness int, c Color) *OutlineFilter {
	if thickness < 0 {
		thickness = 0
	}
	return &OutlineFilter{Thickness: thickness, Color: c}
}

// Apply draws the tinted offsets and then the source.
func (f *OutlineFilter) Apply(src, dst *ebiten.Image) {
	t := float64(f.Thickness)
	op := &f.imgOp
	for _, off := range [8][2]float64{
		{-t, 0}, {t, 0}, {0, -t}, {0, t},
		{-t, -t}, {t, -t}, {-t, t}, {t, t},
	} {
		op.GeoM.Reset()
		op.ColorScale.Reset()
		op.GeoM.Translate(off[0], off[1])
		op.ColorScale.Scale(
			float32(f.Color.R*f.Color.A),
			float32(f.Color.G*f.Color.A),
			float32(f.Color.B*f.Color.A),
			float32(f.Color.A),
		)
		dst.DrawImage(src, op)
	}
	op.GeoM.Reset()
	op.ColorScale.Reset()
	dst.DrawImage(src, op)
}

// Padding returns the thickness.
func (f *OutlineFilter) Padding() int { return f.Thickness }

// --- EdgeFilter ---

// EdgeFilter paints a one pixel Color border around every opaque pixel
// using a shader that tests the four neighbors.
type EdgeFilter struct {
	Color    Color
	colorF32 [4]float32
	uniforms map[string]any
	shaderOp ebiten.DrawRectShaderOptions
}

// NewEdgeFilter returns an edge filter.
func NewEdgeFilter(c Color) *EdgeFilter {
	f := &EdgeFilter{Color: c, uniforms: make(map[string]any, 1)}
	f.uniforms["EdgeColor"] = f.colorF32[:]
	return f
}

// Apply runs the edge shader from src into dst.
func (f *EdgeFilter) Apply(src, dst *ebiten.Image) {
	shader := compileShader(&edgeShader, "edge", edgeShaderSrc)
	f.colorF32 = [4]float32{
		float32(f.Color.R * f.Color.A),
		float32(f.Color.G * f.Color.A),
		float32(f.Color.B * f.Color.A),
		float32(f.Color.A),
	}
	b := src.Bounds()
	f.shaderOp.Images[0] = src
	f.shaderOp.Uniforms = f.uniforms
	dst.DrawRectShader(b.Dx(), b.Dy(), shader, &f.shaderOp)
}

// Padding returns 1.
func (f *EdgeFilter) Padding() int { return 1 }

// --- CustomShaderFilter ---

// CustomShaderFilter runs a caller-supplied Kage shader. Images[0] is
// always the source; Images[1] and Images[2] are passed through.
type CustomShaderFilter struct {
	Shader   *ebiten.Shader
	Uniforms map[string]any
	Images   [3]*ebiten.Image
	padding  int
	shaderOp ebiten.DrawRectShaderOptions
}

// NewCustomShaderFilter returns a filter for shader spreading padding units.
func NewCustomShaderFilter(shader *ebiten.Shader, padding int) *CustomShaderFilter {
	return &CustomShaderFilter{
		Shader:   shader,
		Uniforms: make(map[string]any),
		padding:  padding,
	}
}

// Apply runs the shader with src as Images[0].
func (f *CustomShaderFilter) Apply(src, dst *ebiten.Image) {
	b := src.Bounds()
	f.shaderOp.Images[0] = src
	f.shaderOp.Images[1] = f.Images[1]
	f.shaderOp.Images[2] = f.Images[2]
	f.shaderOp.Uniforms = f.Uniforms
	dst.DrawRectShader(b.Dx(), b.Dy(), f.Shader, &f.shaderOp)
}

// Padding returns the padding given at construction.
func (f *CustomShaderFilter) Padding() int { return f.padding }

// --- FilterChain ---

// FilterChain applies filters in order, each reading the previous output.
// It is unresolved while any member is.
type FilterChain struct {
	Filters []Filter
	pool    renderTexturePool
}

// NewFilterChain returns a chain of filters.
func NewFilterChain(filters ...Filter) *FilterChain {
	return &FilterChain{Filters: filters}
}

// Apply ping-pongs between pooled scratch images and draws the final
// result into dst.
func (c *FilterChain) Apply(src, dst *ebiten.Image) {
	c.run(src, dst, func(f Filter, in, out *ebiten.Image) { f.Apply(in, out) })
}

// ApplyLocal is Apply with local passed on to members that are
// LocalFilters.
func (c *FilterChain) ApplyLocal(src, dst *ebiten.Image, local Affine) {
	c.run(src, dst, func(f Filter, in, out *ebiten.Image) { applyFilter(f, in, out, local) })
}

func (c *FilterChain) run(src, dst *ebiten.Image, apply func(f Filter, in, out *ebiten.Image)) {
	switch len(c.Filters) {
	case 0:
		dst.DrawImage(src, nil)
		return
	case 1:
		apply(c.Filters[0], src, dst)
		return
	}
	b := src.Bounds()
	area := image.Rect(0, 0, b.Dx(), b.Dy())
	in := src
	var scratch []*ebiten.Image
	for i, f := range c.Filters {
		if i == len(c.Filters)-1 {
			apply(f, in, dst)
			break
		}
		img := c.pool.Acquire(b.Dx(), b.Dy())
		scratch = append(scratch, img)
		out := img.SubImage(area).(*ebiten.Image)
		apply(f, in, out)
		in = out
	}
	for _, img := range scratch {
		c.pool.Release(img)
	}
}

// Padding returns the sum of the members' padding.
func (c *FilterChain) Padding() int {
	pad := 0
	for _, f := range c.Filters {
		pad += f.Padding()
	}
	return pad
}

// FilterBounds threads src through each member.
func (c *FilterChain) FilterBounds(src Rect) Rect {
	for _, f := range c.Filters {
		src = filterBounds(f, src)
	}
	return src
}

// Resolved reports the first unresolved member.
func (c *FilterChain) Resolved() error {
	for _, f := range c.Filters {
		if r, ok := f.(Resolvable); ok {
			if err := r.Resolved(); err != nil {
				return err
			}
		}
	}
	return nil
}

// --- ImageFilter ---

// ImageFilter (feImage) replaces the layer with an external image drawn
// into Region, in the node's local space. It is unresolved until its
// resource has loaded.
type ImageFilter struct {
	Resource *Resource
	Region   Rect
	imgOp    ebiten.DrawImageOptions
}

// NewImageFilter returns an image filter for res drawn into region.
func NewImageFilter(res *Resource, region Rect) *ImageFilter {
	return &ImageFilter{Resource: res, Region: region}
}

// Resolved returns the resource's load error, or nil once it is ready.
func (f *ImageFilter) Resolved() error {
	if f.Resource == nil {
		return ErrUnresolvedResource
	}
	return f.Resource.Resolved()
}

// Apply draws the image stretched over dst. The layer renderer uses
// ApplyLocal instead, which keeps the image on Region.
func (f *ImageFilter) Apply(_, dst *ebiten.Image) {
	img := f.Resource.EbitenImage()
	if img == nil {
		return
	}
	sb, db := img.Bounds(), dst.Bounds()
	op := &f.imgOp
	op.GeoM.Reset()
	op.GeoM.Scale(float64(db.Dx())/float64(sb.Dx()), float64(db.Dy())/float64(sb.Dy()))
	op.GeoM.Translate(float64(db.Min.X), float64(db.Min.Y))
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(img, op)
}

// ApplyLocal draws the image into Region mapped through local, so a layer
// cut short by the screen edge does not distort it.
func (f *ImageFilter) ApplyLocal(src, dst *ebiten.Image, local Affine) {
	img := f.Resource.EbitenImage()
	if img == nil {
		return
	}
	if f.Region.IsEmpty() {
		f.Apply(src, dst)
		return
	}
	op := &f.imgOp
	op.GeoM = f.regionGeoM(img.Bounds(), local)
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(img, op)
}

// regionGeoM maps image pixels of bounds src onto Region, then through
// local.
func (f *ImageFilter) regionGeoM(src image.Rectangle, local Affine) ebiten.GeoM {
	var g ebiten.GeoM
	g.Scale(f.Region.Width/float64(src.Dx()), f.Region.Height/float64(src.Dy()))
	g.Translate(f.Region.X, f.Region.Y)
	g.Concat(geoM(local))
	return g
}

// Padding returns 0.
func (f *ImageFilter) Padding() int { return 0 }

// FilterBounds returns the filter region; the source extent is ignored.
func (f *ImageFilter) FilterBounds(Rect) Rect { return f.Region }
