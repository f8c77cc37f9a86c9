package vellum

import (
	"math"

	"github.com/pkg/errors"
)

// Affine is a 2D affine matrix stored as [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Affine [6]float64

// Identity is the identity matrix.
var Identity = Affine{1, 0, 0, 1, 0, 0}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Affine { return Affine{1, 0, 0, 1, tx, ty} }

// Scale returns a scale matrix.
func Scale(sx, sy float64) Affine { return Affine{sx, 0, 0, sy, 0, 0} }

// Rotate returns a rotation matrix for r radians (clockwise with Y down).
func Rotate(r float64) Affine {
	sin, cos := math.Sincos(r)
	return Affine{cos, sin, -sin, cos, 0, 0}
}

// TransformProps describes a transform by its parts. It is the form
// tweening and interactive tools work with; Matrix flattens it.
type TransformProps struct {
	X, Y         float64
	ScaleX       float64
	ScaleY       float64
	Rotation     float64
	SkewX, SkewY float64
	PivotX       float64
	PivotY       float64
}

// DefaultTransformProps returns props that produce the identity matrix.
func DefaultTransformProps() TransformProps {
	return TransformProps{ScaleX: 1, ScaleY: 1}
}

// Matrix computes the affine matrix for the props.
//
// Composition order:
//
//	Translate(-PivotX, -PivotY) -> Scale -> Skew -> Rotate -> Translate(X, Y)
func (p TransformProps) Matrix() Affine {
	sx := p.ScaleX
	sy := p.ScaleY

	sin, cos := math.Sincos(p.Rotation)

	var tanSkewX, tanSkewY float64
	if p.SkewX != 0 {
		tanSkewX = math.Tan(p.SkewX)
	}
	if p.SkewY != 0 {
		tanSkewY = math.Tan(p.SkewY)
	}

	// After Scale * Translate(-pivot) and Skew:
	a := sx
	b := tanSkewY * sx
	c := tanSkewX * sy
	d := sy

	px := p.PivotX
	py := p.PivotY
	preTx := -px*sx - tanSkewX*py*sy
	preTy := -tanSkewY*px*sx - py*sy

	// After Rotate:
	ra := cos*a - sin*b
	rb := sin*a + cos*b
	rc := cos*c - sin*d
	rd := sin*c + cos*d
	rtx := cos*preTx - sin*preTy
	rty := sin*preTx + cos*preTy

	return Affine{ra, rb, rc, rd, rtx + p.X, rty + p.Y}
}

// Mul returns m * o: the transform that applies o first, then m.
func (m Affine) Mul(o Affine) Affine {
	return multiplyAffine(m, o)
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
func multiplyAffine(p, c Affine) Affine {
	return Affine{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// Determinant returns ad - bc.
func (m Affine) Determinant() float64 {
	return m[0]*m[3] - m[2]*m[1]
}

// IsSingular reports whether the determinant is too close to zero for m to
// be inverted.
func (m Affine) IsSingular() bool {
	det := m.Determinant()
	return det > -1e-12 && det < 1e-12
}

// Invert computes the inverse of m. It returns ErrSingularTransform when m
// is singular.
func (m Affine) Invert() (Affine, error) {
	det := m.Determinant()
	if m.IsSingular() {
		return Identity, errors.Wrapf(ErrSingularTransform, "determinant %g", det)
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Affine{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}, nil
}

// IsIdentity reports whether m is exactly the identity.
func (m Affine) IsIdentity() bool { return m == Identity }

// IsFinite reports whether every component is a finite number.
func (m Affine) IsFinite() bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Apply transforms the point (x, y).
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// ApplyVec transforms p.
func (m Affine) ApplyVec(p Vec2) Vec2 {
	x, y := m.Apply(p.X, p.Y)
	return Vec2{x, y}
}

// TransformRect returns the axis-aligned bounds of r mapped through m.
func (m Affine) TransformRect(r Rect) Rect {
	if r.IsEmpty() {
		return Rect{}
	}
	if m.IsIdentity() {
		return r
	}
	corners := [4]Vec2{
		m.ApplyVec(Vec2{r.X, r.Y}),
		m.ApplyVec(Vec2{r.MaxX(), r.Y}),
		m.ApplyVec(Vec2{r.X, r.MaxY()}),
		m.ApplyVec(Vec2{r.MaxX(), r.MaxY()}),
	}
	return rectFromPoints(corners[:])
}

// maxScale returns the largest factor by which m stretches a unit length.
func (m Affine) maxScale() float64 {
	sx := math.Hypot(m[0], m[1])
	sy := math.Hypot(m[2], m[3])
	return math.Max(sx, sy)
}
