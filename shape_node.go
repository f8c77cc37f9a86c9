package vellum

import (
	"math"
)

// LineCap is the shape at the open ends of a stroked subpath.
type LineCap uint8

const (
	CapButt   LineCap = iota // flat, ending at the endpoint
	CapRound                 // semicircle around the endpoint
	CapSquare                // square extending half the width past the endpoint
)

// LineJoin is the shape where two stroked segments meet.
type LineJoin uint8

const (
	JoinMiter LineJoin = iota // sharp corner, limited by MiterLimit
	JoinRound                 // rounded corner
	JoinBevel                 // cut corner
)

const defaultMiterLimit = 4.0

// Stroke describes the outline painted along a shape's edge.
type Stroke struct {
	Color      Color
	Width      float64
	Cap        LineCap
	Join       LineJoin
	MiterLimit float64 // 0 means 4
}

// ShapeNode is a leaf node that fills and strokes a shape.
type ShapeNode struct {
	NodeBase

	shape  Shape
	fill   *Color
	stroke *Stroke
}

// NewShapeNode creates a node for shape s with no fill or stroke.
func NewShapeNode(name string, s Shape) *ShapeNode {
	n := &ShapeNode{shape: s}
	n.Init(n, name)
	return n
}

// Shape returns the node's shape.
func (n *ShapeNode) Shape() Shape { return n.shape }

// SetShape replaces the node's shape.
func (n *ShapeNode) SetShape(s Shape) {
	n.willChange()
	n.shape = s
	n.cache.dirty = dirtyAll
	n.invalidateAncestors()
}

// Fill returns the fill color, or nil when unfilled.
func (n *ShapeNode) Fill() *Color { return n.fill }

// SetFill sets the fill color. Nil leaves the interior unpainted.
func (n *ShapeNode) SetFill(c *Color) {
	n.willChange()
	n.fill = c
}

// Stroke returns the stroke, or nil.
func (n *ShapeNode) Stroke() *Stroke { return n.stroke }

// SetStroke sets the stroke. Nil removes it. The stroke changes the
// primitive bounds but not the geometry bounds.
func (n *ShapeNode) SetStroke(st *Stroke) {
	n.willChange()
	n.stroke = st
	n.cache.dirty = dirtyAll
	n.invalidateAncestors()
}

// ComputeGeometryBounds returns the shape's bounds under m.
func (n *ShapeNode) ComputeGeometryBounds(m Affine) Rect {
	if n.shape == nil {
		return Rect{}
	}
	return n.shape.TransformedBounds(m)
}

// ComputePrimitiveBounds returns the shape's bounds under m, grown by the
// stroke.
func (n *ShapeNode) ComputePrimitiveBounds(m Affine) Rect {
	r := n.ComputeGeometryBounds(m)
	if d := strokeOutset(n.stroke); d > 0 {
		r = r.Outset(d * m.maxScale())
	}
	return r
}

// HitAreasAt classifies p against the fill and the stroke band.
func (n *ShapeNode) HitAreasAt(p Vec2) HitAreas {
	if n.shape == nil {
		return HitAreas{}
	}
	h := HitAreas{
		InFill:        n.shape.Contains(p.X, p.Y),
		FillPainted:   n.fill != nil && n.fill.A > 0,
		StrokePainted: n.stroke != nil && n.stroke.Width > 0 && n.stroke.Color.A > 0,
	}
	if n.stroke != nil && n.stroke.Width > 0 {
		h.InStroke = inStroke(n.shape.ToPath(), p, n.stroke.Width/2)
	}
	return h
}

// inStroke reports whether p is within half of any segment of path.
func inStroke(path *Path, p Vec2, half float64) bool {
	sp := path.subpaths()
	for i, poly := range sp {
		n := len(poly)
		if n == 1 {
			if math.Hypot(p.X-poly[0].X, p.Y-poly[0].Y) <= half {
				return true
			}
			continue
		}
		last := n - 1
		if path.closed[i] {
			last = n
		}
		for j := 0; j < last; j++ {
			if segmentDistance(poly[j], poly[(j+1)%n], p.X, p.Y) <= half {
				return true
			}
		}
	}
	return false
}

// PrimitiveOutline returns the shape.
func (n *ShapeNode) PrimitiveOutline() Shape { return n.shape }

// PrimitivePaint fills then strokes the shape.
func (n *ShapeNode) PrimitivePaint(s Surface) error {
	if n.shape == nil {
		return nil
	}
	path := n.shape.ToPath()
	if n.fill != nil {
		if err := s.Fill(path, *n.fill); err != nil {
			return err
		}
	}
	if n.stroke != nil && n.stroke.Width > 0 {
		return s.Stroke(path, *n.stroke)
	}
	return nil
}
