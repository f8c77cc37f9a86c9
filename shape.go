package vellum

import (
	"math"
)

// Shape is a closed area in a node's local user space.
type Shape interface {
	// Bounds returns the shape's bounding box.
	Bounds() Rect
	// TransformedBounds returns the bounding box of the shape mapped
	// through m. Implementations return the tight box where they can.
	TransformedBounds(m Affine) Rect
	// Contains reports whether (x, y) is inside the shape.
	Contains(x, y float64) bool
	// ToPath returns the outline as a path.
	ToPath() *Path
}

// --- RectShape ---

// RectShape is an axis-aligned rectangle.
type RectShape Rect

// Bounds returns the rectangle.
func (r RectShape) Bounds() Rect { return Rect(r) }

// TransformedBounds returns the box around the four mapped corners.
func (r RectShape) TransformedBounds(m Affine) Rect { return m.TransformRect(Rect(r)) }

// Contains reports whether (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r RectShape) Contains(x, y float64) bool { return Rect(r).Contains(x, y) }

// ToPath returns the rectangle as a closed four-segment path.
func (r RectShape) ToPath() *Path {
	p := NewPath(FillRuleNonZero)
	p.MoveTo(r.X, r.Y).
		LineTo(r.X+r.Width, r.Y).
		LineTo(r.X+r.Width, r.Y+r.Height).
		LineTo(r.X, r.Y+r.Height).
		Close()
	return p
}

// --- Ellipse ---

// Ellipse is an axis-aligned ellipse. A circle has RadiusX == RadiusY.
type Ellipse struct {
	CenterX, CenterY float64
	RadiusX, RadiusY float64
}

// Circle returns a circle shape.
func Circle(cx, cy, r float64) Ellipse {
	return Ellipse{CenterX: cx, CenterY: cy, RadiusX: r, RadiusY: r}
}

// Bounds returns the ellipse's bounding box.
func (e Ellipse) Bounds() Rect {
	if e.RadiusX <= 0 || e.RadiusY <= 0 {
		return Rect{}
	}
	return Rect{e.CenterX - e.RadiusX, e.CenterY - e.RadiusY, 2 * e.RadiusX, 2 * e.RadiusY}
}

// TransformedBounds returns the exact box of the mapped ellipse.
func (e Ellipse) TransformedBounds(m Affine) Rect {
	if e.RadiusX <= 0 || e.RadiusY <= 0 {
		return Rect{}
	}
	cx, cy := m.Apply(e.CenterX, e.CenterY)
	hw := math.Hypot(m[0]*e.RadiusX, m[2]*e.RadiusY)
	hh := math.Hypot(m[1]*e.RadiusX, m[3]*e.RadiusY)
	return Rect{cx - hw, cy - hh, 2 * hw, 2 * hh}
}

// Contains reports whether (x, y) lies inside or on the ellipse.
func (e Ellipse) Contains(x, y float64) bool {
	if e.RadiusX <= 0 || e.RadiusY <= 0 {
		return false
	}
	dx := (x - e.CenterX) / e.RadiusX
	dy := (y - e.CenterY) / e.RadiusY
	return dx*dx+dy*dy <= 1
}

// kappa is the control point distance for a quarter circle cubic.
const kappa = 0.5522847498307936

// ToPath returns the ellipse as four cubic arcs.
func (e Ellipse) ToPath() *Path {
	cx, cy, rx, ry := e.CenterX, e.CenterY, e.RadiusX, e.RadiusY
	kx, ky := rx*kappa, ry*kappa
	p := NewPath(FillRuleNonZero)
	p.MoveTo(cx+rx, cy).
		CubicTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry).
		CubicTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy).
		CubicTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry).
		CubicTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy).
		Close()
	return p
}

// --- Polygon ---

// Polygon is a closed polygon in either winding order. It may be concave
// or self-intersecting; Rule decides the inside.
type Polygon struct {
	Points []Vec2
	Rule   FillRule
}

// Bounds returns the bounding box of the vertices.
func (g Polygon) Bounds() Rect { return rectFromPoints(g.Points) }

// TransformedBounds returns the box around the mapped vertices.
func (g Polygon) TransformedBounds(m Affine) Rect {
	if len(g.Points) == 0 {
		return Rect{}
	}
	pts := make([]Vec2, len(g.Points))
	for i, p := range g.Points {
		pts[i] = m.ApplyVec(p)
	}
	return rectFromPoints(pts)
}

// Contains reports whether (x, y) lies inside the polygon.
func (g Polygon) Contains(x, y float64) bool {
	if len(g.Points) < 3 {
		return false
	}
	return g.ToPath().Contains(x, y)
}

// ToPath returns the polygon as a closed path.
func (g Polygon) ToPath() *Path {
	p := NewPath(g.Rule)
	for i, pt := range g.Points {
		if i == 0 {
			p.MoveTo(pt.X, pt.Y)
		} else {
			p.LineTo(pt.X, pt.Y)
		}
	}
	if len(g.Points) > 0 {
		p.Close()
	}
	return p
}

// --- Transformed shapes ---

// transformedShape is a shape viewed through an affine map.
type transformedShape struct {
	shape Shape
	m     Affine
	inv   Affine
	ok    bool // m is invertible
}

// TransformShape returns s mapped through m. A singular m yields a shape
// that contains nothing.
func TransformShape(s Shape, m Affine) Shape {
	if s == nil {
		return nil
	}
	if m.IsIdentity() {
		return s
	}
	inv, err := m.Invert()
	return &transformedShape{shape: s, m: m, inv: inv, ok: err == nil}
}

func (t *transformedShape) Bounds() Rect {
	if !t.ok {
		return Rect{}
	}
	return t.shape.TransformedBounds(t.m)
}

func (t *transformedShape) TransformedBounds(m Affine) Rect {
	if !t.ok {
		return Rect{}
	}
	return t.shape.TransformedBounds(m.Mul(t.m))
}

func (t *transformedShape) Contains(x, y float64) bool {
	if !t.ok {
		return false
	}
	lx, ly := t.inv.Apply(x, y)
	return t.shape.Contains(lx, ly)
}

func (t *transformedShape) ToPath() *Path { return t.shape.ToPath().Transform(t.m) }

// --- Intersections ---

// intersection is the area common to all of its shapes.
type intersection []Shape

// IntersectShapes returns the area common to every non-nil shape. With a
// single shape it returns that shape unchanged.
func IntersectShapes(shapes ...Shape) Shape {
	var out intersection
	for _, s := range shapes {
		if s == nil {
			continue
		}
		if in, ok := s.(intersection); ok {
			out = append(out, in...)
			continue
		}
		out = append(out, s)
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

func (in intersection) Bounds() Rect {
	r := in[0].Bounds()
	for _, s := range in[1:] {
		r = r.Intersect(s.Bounds())
	}
	return r
}

func (in intersection) TransformedBounds(m Affine) Rect {
	r := in[0].TransformedBounds(m)
	for _, s := range in[1:] {
		r = r.Intersect(s.TransformedBounds(m))
	}
	return r
}

func (in intersection) Contains(x, y float64) bool {
	for _, s := range in {
		if !s.Contains(x, y) {
			return false
		}
	}
	return true
}

// ToPath clips the first shape's outline against every convex member with
// Sutherland–Hodgman. Concave members only bound the result; Contains
// stays exact for them.
func (in intersection) ToPath() *Path {
	base := in[0].ToPath()
	polys := base.subpaths()
	clipped := make([][]Vec2, 0, len(polys))
	for _, poly := range polys {
		clipped = append(clipped, append([]Vec2(nil), poly...))
	}
	for _, s := range in[1:] {
		window, ok := convexWindow(s)
		if !ok {
			continue
		}
		for i := range clipped {
			clipped[i] = clipPolygon(clipped[i], window)
		}
	}
	out := NewPath(base.Rule)
	for _, poly := range clipped {
		if len(poly) < 3 {
			continue
		}
		out.MoveTo(poly[0].X, poly[0].Y)
		for _, p := range poly[1:] {
			out.LineTo(p.X, p.Y)
		}
		out.Close()
	}
	return out
}

// convexWindow returns the flattened outline of s when s is known to be
// convex, oriented counter-clockwise in Y-down space.
func convexWindow(s Shape) ([]Vec2, bool) {
	switch v := s.(type) {
	case RectShape:
		r := Rect(v)
		return []Vec2{{r.X, r.Y}, {r.MaxX(), r.Y}, {r.MaxX(), r.MaxY()}, {r.X, r.MaxY()}}, true
	case Ellipse:
		sp := v.ToPath().subpaths()
		if len(sp) == 0 {
			return nil, false
		}
		return sp[0], true
	case Polygon:
		if isConvex(v.Points) {
			return orient(v.Points), true
		}
	}
	return nil, false
}

// isConvex reports whether pts form a convex polygon.
func isConvex(pts []Vec2) bool {
	n := len(pts)
	if n < 3 {
		return false
	}
	var pos, neg bool
	for i := 0; i < n; i++ {
		c := cross(pts[i], pts[(i+1)%n], pts[(i+2)%n].X, pts[(i+2)%n].Y)
		if c > 0 {
			pos = true
		} else if c < 0 {
			neg = true
		}
		if pos && neg {
			return false
		}
	}
	return true
}

// orient returns pts ordered so that cross products of consecutive edges
// are non-negative.
func orient(pts []Vec2) []Vec2 {
	area := 0.0
	n := len(pts)
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		area += a.X*b.Y - b.X*a.Y
	}
	if area >= 0 {
		return pts
	}
	out := make([]Vec2, n)
	for i, p := range pts {
		out[n-1-i] = p
	}
	return out
}

// clipPolygon clips subject against the convex window (Sutherland–Hodgman).
func clipPolygon(subject, window []Vec2) []Vec2 {
	out := subject
	n := len(window)
	for i := 0; i < n && len(out) > 0; i++ {
		a, b := window[i], window[(i+1)%n]
		in := out
		out = nil
		for j := range in {
			cur := in[j]
			prev := in[(j+len(in)-1)%len(in)]
			curIn := cross(a, b, cur.X, cur.Y) >= 0
			prevIn := cross(a, b, prev.X, prev.Y) >= 0
			if curIn {
				if !prevIn {
					out = append(out, lineIntersect(prev, cur, a, b))
				}
				out = append(out, cur)
			} else if prevIn {
				out = append(out, lineIntersect(prev, cur, a, b))
			}
		}
	}
	return out
}

// lineIntersect returns the intersection of segment pq with the infinite
// line through ab.
func lineIntersect(p, q, a, b Vec2) Vec2 {
	d1 := cross(a, b, p.X, p.Y)
	d2 := cross(a, b, q.X, q.Y)
	t := d1 / (d1 - d2)
	return Vec2{p.X + t*(q.X-p.X), p.Y + t*(q.Y-p.Y)}
}
