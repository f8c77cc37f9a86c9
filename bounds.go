package vellum

import (
	"math"

	"github.com/pkg/errors"
)

// cacheFlag marks which cached bounds of a node need recomputing.
type cacheFlag uint8

const (
	dirtyPrimitive cacheFlag = 1 << iota
	dirtyGeometry
	dirtyFull
	dirtyParentPrimitive
	dirtyParentGeometry
	dirtyParentFull

	dirtyLocal       = dirtyPrimitive | dirtyGeometry | dirtyFull
	dirtyParentSpace = dirtyParentPrimitive | dirtyParentGeometry | dirtyParentFull
	dirtyAll         = dirtyLocal | dirtyParentSpace
)

// boundsCache memoizes a node's bounds in its own space and in its
// parent's space (own transform applied). A set bit means stale.
type boundsCache struct {
	dirty cacheFlag

	primitive Rect
	geometry  Rect
	full      Rect

	parentPrimitive Rect
	parentGeometry  Rect
	parentFull      Rect
}

// PrimitiveBounds returns the area covered by the node's own paint in
// local space, ignoring clip, mask and filter.
func (n *NodeBase) PrimitiveBounds() Rect {
	c := &n.cache
	if c.dirty&dirtyPrimitive != 0 {
		c.primitive = n.this.ComputePrimitiveBounds(Identity)
		c.dirty &^= dirtyPrimitive
	}
	return c.primitive
}

// GeometryBounds returns the pure shape extent in local space, ignoring
// every rendering attribute including stroke.
func (n *NodeBase) GeometryBounds() Rect {
	c := &n.cache
	if c.dirty&dirtyGeometry != 0 {
		c.geometry = n.this.ComputeGeometryBounds(Identity)
		c.dirty &^= dirtyGeometry
	}
	return c.geometry
}

// Bounds returns the full bounds in local space: primitive bounds grown by
// the filter and cut by clip and mask. Unresolved nodes report an empty
// rectangle.
func (n *NodeBase) Bounds() Rect {
	c := &n.cache
	if c.dirty&dirtyFull != 0 {
		c.full = n.applyEffects(n.PrimitiveBounds())
		c.dirty &^= dirtyFull
	}
	return c.full
}

// applyEffects maps local primitive bounds to local full bounds.
func (n *NodeBase) applyEffects(r Rect) Rect {
	if n.this.Resolved() != nil {
		return Rect{}
	}
	if n.filter != nil {
		r = filterBounds(n.filter, r)
	}
	if n.clip != nil {
		if s := n.clip.Shape(); s != nil {
			r = r.Intersect(s.Bounds())
		} else {
			return Rect{}
		}
	}
	if n.mask != nil {
		r = r.Intersect(n.mask.Area())
	}
	return r
}

// TransformedPrimitiveBounds returns the primitive bounds mapped through
// m · Transform().
func (n *NodeBase) TransformedPrimitiveBounds(m *Affine) (Rect, error) {
	if err := checkQuery(m); err != nil {
		return Rect{}, err
	}
	return n.this.ComputePrimitiveBounds(m.Mul(n.transform)), nil
}

// TransformedGeometryBounds returns the geometry bounds mapped through
// m · Transform().
func (n *NodeBase) TransformedGeometryBounds(m *Affine) (Rect, error) {
	if err := checkQuery(m); err != nil {
		return Rect{}, err
	}
	return n.this.ComputeGeometryBounds(m.Mul(n.transform)), nil
}

// TransformedBounds returns the full bounds mapped through m · Transform().
func (n *NodeBase) TransformedBounds(m *Affine) (Rect, error) {
	if err := checkQuery(m); err != nil {
		return Rect{}, err
	}
	return n.transformedBounds(m.Mul(n.transform)), nil
}

// transformedBounds maps the full bounds through the complete matrix m.
// Without effects the tight primitive box under m is used; otherwise the
// local full box is mapped.
func (n *NodeBase) transformedBounds(m Affine) Rect {
	if n.this.Resolved() != nil {
		return Rect{}
	}
	if n.filter == nil && n.clip == nil && n.mask == nil {
		return n.this.ComputePrimitiveBounds(m)
	}
	return m.TransformRect(n.this.Bounds())
}

// parentPrimitiveBounds returns the primitive bounds in the parent's space.
func (n *NodeBase) parentPrimitiveBounds() Rect {
	c := &n.cache
	if c.dirty&dirtyParentPrimitive != 0 {
		c.parentPrimitive = n.this.ComputePrimitiveBounds(n.transform)
		c.dirty &^= dirtyParentPrimitive
	}
	return c.parentPrimitive
}

// parentGeometryBounds returns the geometry bounds in the parent's space.
func (n *NodeBase) parentGeometryBounds() Rect {
	c := &n.cache
	if c.dirty&dirtyParentGeometry != 0 {
		c.parentGeometry = n.this.ComputeGeometryBounds(n.transform)
		c.dirty &^= dirtyParentGeometry
	}
	return c.parentGeometry
}

// parentBounds returns the full bounds in the parent's space.
func (n *NodeBase) parentBounds() Rect {
	c := &n.cache
	if c.dirty&dirtyParentFull != 0 {
		c.parentFull = n.transformedBounds(n.transform)
		c.dirty &^= dirtyParentFull
	}
	return c.parentFull
}

// checkQuery validates the external matrix of a Transformed* query.
func checkQuery(m *Affine) error {
	if m == nil {
		return errors.Wrap(ErrInvalidQuery, "nil transform")
	}
	if !m.IsFinite() {
		return errors.Wrapf(ErrInvalidQuery, "non-finite transform %v", *m)
	}
	return nil
}

// shapeIntersectsRect reports whether the area of s overlaps r.
func shapeIntersectsRect(s Shape, r Rect) bool {
	if r.IsEmpty() || !s.Bounds().Intersects(r) {
		return false
	}
	corners := [5]Vec2{
		{r.X, r.Y}, {r.MaxX(), r.Y}, {r.MaxX(), r.MaxY()}, {r.X, r.MaxY()},
		{r.X + r.Width/2, r.Y + r.Height/2},
	}
	for _, c := range corners {
		if s.Contains(c.X, c.Y) {
			return true
		}
	}
	edges := [4][2]Vec2{
		{corners[0], corners[1]}, {corners[1], corners[2]},
		{corners[2], corners[3]}, {corners[3], corners[0]},
	}
	for _, sp := range s.ToPath().subpaths() {
		n := len(sp)
		for i := 0; i < n; i++ {
			a := sp[i]
			if r.Contains(a.X, a.Y) {
				return true
			}
			b := sp[(i+1)%n]
			for _, e := range edges {
				if segmentsCross(a, b, e[0], e[1]) {
					return true
				}
			}
		}
	}
	return false
}

// segmentsCross reports whether segments ab and cd intersect.
func segmentsCross(a, b, c, d Vec2) bool {
	d1 := cross(c, d, a.X, a.Y)
	d2 := cross(c, d, b.X, b.Y)
	d3 := cross(a, b, c.X, c.Y)
	d4 := cross(a, b, d.X, d.Y)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return onSegment(c, d, a.X, a.Y) || onSegment(c, d, b.X, b.Y) ||
		onSegment(a, b, c.X, c.Y) || onSegment(a, b, d.X, d.Y)
}

// strokeOutset returns how far a stroke of the given width extends past
// the geometry, accounting for miter joins.
func strokeOutset(st *Stroke) float64 {
	if st == nil || st.Width <= 0 {
		return 0
	}
	half := st.Width / 2
	if st.Join == JoinMiter {
		limit := st.MiterLimit
		if limit <= 0 {
			limit = defaultMiterLimit
		}
		return half * math.Max(1, limit)
	}
	if st.Cap == CapSquare {
		return half * math.Sqrt2
	}
	return half
}
