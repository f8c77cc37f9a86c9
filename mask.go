package vellum

import (
	"github.com/pkg/errors"
)

// Clip limits a node's effective area to a shape in the node's local
// space. It is built either from a shape or from the outline of a clip
// content node.
type Clip struct {
	shape Shape
	node  Node
}

// ClipShape returns a clip to s.
func ClipShape(s Shape) *Clip { return &Clip{shape: s} }

// ClipNode returns a clip to the outline of n, mapped through n's own
// transform. The node is not part of the tree; its transform is relative
// to the clipped node.
func ClipNode(n Node) *Clip { return &Clip{node: n} }

// Node returns the clip content node, or nil for shape clips.
func (c *Clip) Node() Node { return c.node }

// Shape returns the clip area in the clipped node's local space, or nil
// when it cannot be resolved.
func (c *Clip) Shape() Shape {
	if c.node == nil {
		return c.shape
	}
	s := c.node.Outline()
	if s == nil {
		return nil
	}
	return TransformShape(s, c.node.Transform())
}

func (c *Clip) resolved() error {
	if c.node == nil {
		if c.shape == nil {
			return errors.Wrap(ErrUnresolvedResource, "clip has no shape")
		}
		return nil
	}
	if err := c.node.Resolved(); err != nil {
		return unresolved(err, "clip content")
	}
	return nil
}

// Mask controls a node's visibility with the alpha channel of another
// node's rendering. The mask content node is not part of the tree; its
// transform is relative to the masked node. Region, when non-empty, bounds
// the mask in the masked node's local space.
type Mask struct {
	Content Node
	Region  Rect
}

// NewMask returns a mask painted by content and limited to region.
func NewMask(content Node, region Rect) *Mask {
	return &Mask{Content: content, Region: region}
}

// Area returns the part of the masked node's local space the mask can
// leave visible.
func (m *Mask) Area() Rect {
	if m.Content == nil {
		return Rect{}
	}
	ident := Identity
	r, _ := m.Content.TransformedBounds(&ident)
	if !m.Region.IsEmpty() {
		r = r.Intersect(m.Region)
	}
	return r
}

func (m *Mask) resolved() error {
	if m.Content == nil {
		return errors.Wrap(ErrUnresolvedResource, "mask has no content")
	}
	if err := m.Content.Resolved(); err != nil {
		return unresolved(err, "mask content")
	}
	return nil
}
