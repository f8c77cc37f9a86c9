package vellum

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at draw submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is opaque white.
var ColorWhite = Color{1, 1, 1, 1}

// ColorBlack is opaque black.
var ColorBlack = Color{0, 0, 0, 1}

// Vec2 is a 2D point or vector.
type Vec2 struct {
	X, Y float64
}

// Pt is shorthand for Vec2{x, y}.
func Pt(x, y float64) Vec2 { return Vec2{x, y} }

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward. A rectangle with no area in
// either direction is empty.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	if r.IsEmpty() {
		return false
	}
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// IsEmpty reports whether the rectangle covers nothing. Degenerate
// rectangles with zero width but positive height (a vertical line) are not
// empty.
func (r Rect) IsEmpty() bool {
	return !(r.Width > 0 || r.Height > 0) || r.Width < 0 || r.Height < 0 ||
		math.IsNaN(r.X) || math.IsNaN(r.Y)
}

// IsFinite reports whether every field is a finite number.
func (r Rect) IsFinite() bool {
	for _, v := range [...]float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Union returns the smallest rectangle containing both r and other.
// Empty rectangles are ignored.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	x0 := math.Min(r.X, other.X)
	y0 := math.Min(r.Y, other.Y)
	x1 := math.Max(r.MaxX(), other.MaxX())
	y1 := math.Max(r.MaxY(), other.MaxY())
	return Rect{x0, y0, x1 - x0, y1 - y0}
}

// Intersect returns the overlap of r and other, or the zero Rect when they
// do not overlap.
func (r Rect) Intersect(other Rect) Rect {
	if r.IsEmpty() || other.IsEmpty() {
		return Rect{}
	}
	x0 := math.Max(r.X, other.X)
	y0 := math.Max(r.Y, other.Y)
	x1 := math.Min(r.MaxX(), other.MaxX())
	y1 := math.Min(r.MaxY(), other.MaxY())
	if x1 < x0 || y1 < y0 {
		return Rect{}
	}
	out := Rect{x0, y0, x1 - x0, y1 - y0}
	if out.IsEmpty() {
		return Rect{}
	}
	return out
}

// Outset grows the rectangle by d on every side. Negative d shrinks it.
func (r Rect) Outset(d float64) Rect {
	if r.IsEmpty() {
		return r
	}
	out := Rect{r.X - d, r.Y - d, r.Width + 2*d, r.Height + 2*d}
	if out.Width < 0 || out.Height < 0 {
		return Rect{}
	}
	return out
}

// rectFromPoints returns the bounding box of pts.
func rectFromPoints(pts []Vec2) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{minX, minY, maxX - minX, maxY - minY}
}

// CompositeOp selects a compositing operation. Each maps to a specific ebiten.Blend value.
type CompositeOp uint8

const (
	CompositeSrcOver  CompositeOp = iota // source-over (standard alpha blending)
	CompositeAdd                         // additive / lighter
	CompositeMultiply                    // multiply (source * destination; only darkens)
	CompositeScreen                      // screen (1 - (1-src)*(1-dst); only brightens)
	CompositeDstOut                      // destination-out (punch transparent holes)
	CompositeDstIn                       // clip destination to source alpha
	CompositeDstOver                     // destination-over (draw behind existing content)
	CompositeSrc                         // opaque copy (skip blending)
)

// EbitenBlend returns the ebiten.Blend value corresponding to this CompositeOp.
func (op CompositeOp) EbitenBlend() ebiten.Blend {
	switch op {
	case CompositeSrcOver:
		return ebiten.BlendSourceOver
	case CompositeAdd:
		return ebiten.BlendLighter
	case CompositeMultiply:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceAlpha,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case CompositeScreen:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case CompositeDstOut:
		return ebiten.BlendDestinationOut
	case CompositeDstIn:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorZero,
			BlendFactorSourceAlpha:      ebiten.BlendFactorZero,
			BlendFactorDestinationRGB:   ebiten.BlendFactorSourceAlpha,
			BlendFactorDestinationAlpha: ebiten.BlendFactorSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case CompositeDstOver:
		return ebiten.BlendDestinationOver
	case CompositeSrc:
		return ebiten.BlendCopy
	default:
		return ebiten.BlendSourceOver
	}
}

// Composite is the compositing rule used when a node's rendered layer is
// merged into what lies beneath it. Alpha is a multiplier, so a literal
// that leaves it at zero paints nothing; build composites with
// BlendComposite or AlphaComposite.
type Composite struct {
	Op    CompositeOp
	Alpha float64 // extra opacity in [0, 1]
}

// AlphaComposite returns a source-over composite with the given opacity.
func AlphaComposite(alpha float64) *Composite {
	return &Composite{Op: CompositeSrcOver, Alpha: alpha}
}

// BlendComposite returns a fully opaque composite using op.
func BlendComposite(op CompositeOp) *Composite {
	return &Composite{Op: op, Alpha: 1}
}

// WithAlpha returns a copy of c with the given opacity.
func (c Composite) WithAlpha(alpha float64) *Composite {
	c.Alpha = alpha
	return &c
}

// isNoop reports whether compositing with c is indistinguishable from
// plain source-over at full opacity.
func (c *Composite) isNoop() bool {
	return c == nil || (c.Op == CompositeSrcOver && c.Alpha >= 1)
}

// PointerEventType selects which area of a node makes it a pointer target.
type PointerEventType uint8

const (
	VisiblePainted PointerEventType = iota // visible and over a painted fill or stroke
	VisibleFill                            // visible and over the fill area
	VisibleStroke                          // visible and over the stroke area
	Visible                                // visible and over the fill or stroke area
	Painted                                // over a painted fill or stroke, visible or not
	Fill                                   // over the fill area, visible or not
	Stroke                                 // over the stroke area, visible or not
	All                                    // over the fill or stroke area, visible or not
	None                                   // never a target
)

var pointerEventTypeNames = [...]string{
	"visiblePainted", "visibleFill", "visibleStroke", "visible",
	"painted", "fill", "stroke", "all", "none",
}

func (p PointerEventType) String() string {
	if int(p) < len(pointerEventTypeNames) {
		return pointerEventTypeNames[p]
	}
	return "unknown"
}

// ParsePointerEventType maps the CSS pointer-events keyword to its value.
func ParsePointerEventType(s string) (PointerEventType, bool) {
	for i, name := range pointerEventTypeNames {
		if name == s {
			return PointerEventType(i), true
		}
	}
	return VisiblePainted, false
}

// HitAreas describes where a point falls relative to a node's own content.
// Concrete node kinds fill it in; pointer-event policy is applied on top.
type HitAreas struct {
	InFill        bool // point is inside the fill geometry
	InStroke      bool // point is inside the stroke outline
	FillPainted   bool // the fill area has a paint
	StrokePainted bool // the stroke area has a paint
}

// admits reports whether a node with visibility visible is a pointer target
// under policy p for the given hit areas.
func (p PointerEventType) admits(visible bool, h HitAreas) bool {
	painted := (h.InFill && h.FillPainted) || (h.InStroke && h.StrokePainted)
	switch p {
	case VisiblePainted:
		return visible && painted
	case VisibleFill:
		return visible && h.InFill
	case VisibleStroke:
		return visible && h.InStroke
	case Visible:
		return visible && (h.InFill || h.InStroke)
	case Painted:
		return painted
	case Fill:
		return h.InFill
	case Stroke:
		return h.InStroke
	case All:
		return h.InFill || h.InStroke
	default:
		return false
	}
}

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button (scroll wheel click)
)

// KeyModifiers is a bitmask of keyboard modifier keys.
// Values can be combined with bitwise OR (e.g. ModShift | ModCtrl).
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command / Windows key
)
