package vellum

import (
	"math"
)

// FillRule decides which points are inside a self-intersecting or nested
// path.
type FillRule uint8

const (
	FillRuleNonZero FillRule = iota // inside if the winding number is non-zero
	FillRuleEvenOdd                 // inside if a ray crosses an odd number of edges
)

type pathOp uint8

const (
	opMoveTo pathOp = iota
	opLineTo
	opQuadTo
	opCubicTo
	opClose
)

// Number of line segments used to flatten one curve segment for hit
// testing and bounds.
const (
	quadSegments  = 16
	cubicSegments = 24
)

// Path is an outline made of straight and curved segments. The zero value
// is an empty path using the non-zero fill rule.
type Path struct {
	Rule FillRule

	ops []pathOp
	pts []Vec2

	flat      [][]Vec2 // flattened subpaths, rebuilt lazily
	flatDirty bool
	closed    []bool // whether each flattened subpath was explicitly closed
}

// NewPath returns an empty path with the given fill rule.
func NewPath(rule FillRule) *Path {
	return &Path{Rule: rule}
}

// MoveTo starts a new subpath at (x, y).
func (p *Path) MoveTo(x, y float64) *Path {
	p.ops = append(p.ops, opMoveTo)
	p.pts = append(p.pts, Vec2{x, y})
	p.flatDirty = true
	return p
}

// LineTo adds a straight segment to (x, y).
func (p *Path) LineTo(x, y float64) *Path {
	p.ensureStart()
	p.ops = append(p.ops, opLineTo)
	p.pts = append(p.pts, Vec2{x, y})
	p.flatDirty = true
	return p
}

// QuadTo adds a quadratic Bézier segment with control point (cx, cy).
func (p *Path) QuadTo(cx, cy, x, y float64) *Path {
	p.ensureStart()
	p.ops = append(p.ops, opQuadTo)
	p.pts = append(p.pts, Vec2{cx, cy}, Vec2{x, y})
	p.flatDirty = true
	return p
}

// CubicTo adds a cubic Bézier segment with control points (c1x, c1y) and
// (c2x, c2y).
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) *Path {
	p.ensureStart()
	p.ops = append(p.ops, opCubicTo)
	p.pts = append(p.pts, Vec2{c1x, c1y}, Vec2{c2x, c2y}, Vec2{x, y})
	p.flatDirty = true
	return p
}

// Close closes the current subpath.
func (p *Path) Close() *Path {
	if len(p.ops) == 0 {
		return p
	}
	p.ops = append(p.ops, opClose)
	p.flatDirty = true
	return p
}

// ensureStart inserts an implicit MoveTo(0, 0) when a segment is added to
// an empty path.
func (p *Path) ensureStart() {
	if len(p.ops) == 0 {
		p.MoveTo(0, 0)
	}
}

// IsEmpty reports whether the path has no segments.
func (p *Path) IsEmpty() bool {
	return p == nil || len(p.ops) == 0
}

// Walk calls the given functions for each segment in order. Nil functions
// are skipped.
func (p *Path) Walk(moveTo, lineTo func(x, y float64), quadTo func(cx, cy, x, y float64),
	cubicTo func(c1x, c1y, c2x, c2y, x, y float64), closeFn func()) {
	i := 0
	for _, op := range p.ops {
		switch op {
		case opMoveTo:
			if moveTo != nil {
				moveTo(p.pts[i].X, p.pts[i].Y)
			}
			i++
		case opLineTo:
			if lineTo != nil {
				lineTo(p.pts[i].X, p.pts[i].Y)
			}
			i++
		case opQuadTo:
			if quadTo != nil {
				quadTo(p.pts[i].X, p.pts[i].Y, p.pts[i+1].X, p.pts[i+1].Y)
			}
			i += 2
		case opCubicTo:
			if cubicTo != nil {
				cubicTo(p.pts[i].X, p.pts[i].Y, p.pts[i+1].X, p.pts[i+1].Y, p.pts[i+2].X, p.pts[i+2].Y)
			}
			i += 3
		case opClose:
			if closeFn != nil {
				closeFn()
			}
		}
	}
}

// Transform returns a copy of the path with every point mapped through m.
// Affine maps preserve Bézier control structure, so curves stay exact.
func (p *Path) Transform(m Affine) *Path {
	out := &Path{
		Rule:      p.Rule,
		ops:       append([]pathOp(nil), p.ops...),
		pts:       make([]Vec2, len(p.pts)),
		flatDirty: true,
	}
	for i, pt := range p.pts {
		out.pts[i] = m.ApplyVec(pt)
	}
	return out
}

// subpaths returns the path flattened into polylines, one per subpath.
func (p *Path) subpaths() [][]Vec2 {
	if p.flat != nil && !p.flatDirty {
		return p.flat
	}
	p.flat = p.flat[:0]
	p.closed = p.closed[:0]
	var cur []Vec2
	var last, start Vec2
	// reopened is set after Close: cur holds only the restart point, which
	// is dropped unless a segment follows.
	reopened := false
	flush := func(closed bool) {
		if len(cur) > 0 && !reopened {
			p.flat = append(p.flat, cur)
			p.closed = append(p.closed, closed)
		}
		cur = nil
		reopened = false
	}
	p.Walk(
		func(x, y float64) {
			flush(false)
			last = Vec2{x, y}
			start = last
			cur = append(cur, last)
		},
		func(x, y float64) {
			reopened = false
			last = Vec2{x, y}
			cur = append(cur, last)
		},
		func(cx, cy, x, y float64) {
			reopened = false
			p0 := last
			for i := 1; i <= quadSegments; i++ {
				t := float64(i) / quadSegments
				mt := 1 - t
				cur = append(cur, Vec2{
					mt*mt*p0.X + 2*mt*t*cx + t*t*x,
					mt*mt*p0.Y + 2*mt*t*cy + t*t*y,
				})
			}
			last = Vec2{x, y}
		},
		func(c1x, c1y, c2x, c2y, x, y float64) {
			reopened = false
			p0 := last
			for i := 1; i <= cubicSegments; i++ {
				t := float64(i) / cubicSegments
				mt := 1 - t
				a := mt * mt * mt
				b := 3 * mt * mt * t
				c := 3 * mt * t * t
				d := t * t * t
				cur = append(cur, Vec2{
					a*p0.X + b*c1x + c*c2x + d*x,
					a*p0.Y + b*c1y + c*c2y + d*y,
				})
			}
			last = Vec2{x, y}
		},
		func() {
			if reopened {
				return
			}
			flush(true)
			last = start
			cur = append(cur, start)
			reopened = true
		},
	)
	flush(false)
	p.flatDirty = false
	return p.flat
}

// Bounds returns the bounding box of the flattened path.
func (p *Path) Bounds() Rect {
	return p.TransformedBounds(Identity)
}

// TransformedBounds returns the bounding box of the path mapped through m.
func (p *Path) TransformedBounds(m Affine) Rect {
	if p.IsEmpty() {
		return Rect{}
	}
	first := true
	var minX, minY, maxX, maxY float64
	for _, sp := range p.subpaths() {
		for _, pt := range sp {
			x, y := m.Apply(pt.X, pt.Y)
			if first {
				minX, minY, maxX, maxY = x, y, x, y
				first = false
				continue
			}
			minX = math.Min(minX, x)
			minY = math.Min(minY, y)
			maxX = math.Max(maxX, x)
			maxY = math.Max(maxY, y)
		}
	}
	return Rect{minX, minY, maxX - minX, maxY - minY}
}

// Contains reports whether (x, y) is inside the filled path under its fill
// rule. Every subpath is treated as implicitly closed.
func (p *Path) Contains(x, y float64) bool {
	if p.IsEmpty() {
		return false
	}
	winding := 0
	crossings := 0
	for _, sp := range p.subpaths() {
		n := len(sp)
		if n < 3 {
			continue
		}
		for i := 0; i < n; i++ {
			a := sp[i]
			b := sp[(i+1)%n]
			if onSegment(a, b, x, y) {
				return true
			}
			if a.Y <= y {
				if b.Y > y && cross(a, b, x, y) > 0 {
					winding++
					crossings++
				}
			} else if b.Y <= y && cross(a, b, x, y) < 0 {
				winding--
				crossings++
			}
		}
	}
	if p.Rule == FillRuleEvenOdd {
		return crossings%2 == 1
	}
	return winding != 0
}

// ToPath returns p itself.
func (p *Path) ToPath() *Path { return p }

// cross returns the z component of (b-a) x (pt-a).
func cross(a, b Vec2, x, y float64) float64 {
	return (b.X-a.X)*(y-a.Y) - (x-a.X)*(b.Y-a.Y)
}

// onSegment reports whether (x, y) lies on the segment ab (within epsilon).
func onSegment(a, b Vec2, x, y float64) bool {
	return segmentDistance(a, b, x, y) < 1e-9
}

// segmentDistance returns the distance from (x, y) to segment ab.
func segmentDistance(a, b Vec2, x, y float64) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(x-a.X, y-a.Y)
	}
	t := ((x-a.X)*dx + (y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	px := a.X + t*dx
	py := a.Y + t*dy
	return math.Hypot(x-px, y-py)
}
