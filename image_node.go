package vellum

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// ImageNode is a leaf node that draws a raster image stretched over a
// destination rectangle. The image comes either from a Resource, which may
// still be pending or may have been denied, or from an ebiten image set
// directly.
type ImageNode struct {
	NodeBase

	resource *Resource
	img      *ebiten.Image
	dst      Rect
}

// NewImageNode creates a node drawing res over dst. An empty dst uses the
// image's pixel size at the origin once the resource is ready.
func NewImageNode(name string, res *Resource, dst Rect) *ImageNode {
	n := &ImageNode{resource: res, dst: dst}
	n.Init(n, name)
	return n
}

// NewImageNodeFromImage creates a node drawing img at its pixel size.
func NewImageNodeFromImage(name string, img *ebiten.Image) *ImageNode {
	n := &ImageNode{img: img}
	n.Init(n, name)
	return n
}

// Resource returns the node's resource, or nil for direct images.
func (n *ImageNode) Resource() *Resource { return n.resource }

// SetResource replaces the image source with res.
func (n *ImageNode) SetResource(res *Resource) {
	n.willChange()
	n.resource = res
	n.img = nil
	n.cache.dirty = dirtyAll
	n.invalidateAncestors()
}

// SetImage replaces the image source with img.
func (n *ImageNode) SetImage(img *ebiten.Image) {
	n.willChange()
	n.img = img
	n.resource = nil
	n.cache.dirty = dirtyAll
	n.invalidateAncestors()
}

// Dst returns the destination rectangle in local space.
func (n *ImageNode) Dst() Rect { return n.dst }

// SetDst sets the destination rectangle.
func (n *ImageNode) SetDst(r Rect) {
	n.willChange()
	n.dst = r
	n.cache.dirty = dirtyAll
	n.invalidateAncestors()
}

// Resolved adds the resource state to the base checks.
func (n *ImageNode) Resolved() error {
	if n.resource != nil {
		if err := n.resource.Resolved(); err != nil {
			return err
		}
	}
	return n.NodeBase.Resolved()
}

// area returns the local rectangle the image covers.
func (n *ImageNode) area() Rect {
	if !n.dst.IsEmpty() {
		return n.dst
	}
	var w, h int
	switch {
	case n.img != nil:
		b := n.img.Bounds()
		w, h = b.Dx(), b.Dy()
	case n.resource != nil:
		w, h = n.resource.Size()
	}
	return Rect{0, 0, float64(w), float64(h)}
}

// ComputeGeometryBounds returns the destination rectangle under m.
func (n *ImageNode) ComputeGeometryBounds(m Affine) Rect {
	return m.TransformRect(n.area())
}

// ComputePrimitiveBounds equals the geometry bounds.
func (n *ImageNode) ComputePrimitiveBounds(m Affine) Rect {
	return n.ComputeGeometryBounds(m)
}

// HitAreasAt treats the whole destination rectangle as painted fill.
func (n *ImageNode) HitAreasAt(p Vec2) HitAreas {
	in := n.area().Contains(p.X, p.Y)
	painted := n.img != nil || (n.resource != nil && n.resource.State() == ResourceReady)
	return HitAreas{InFill: in, FillPainted: painted}
}

// PrimitiveOutline returns the destination rectangle.
func (n *ImageNode) PrimitiveOutline() Shape {
	a := n.area()
	if a.IsEmpty() {
		return nil
	}
	return RectShape(a)
}

// PrimitivePaint draws the image.
func (n *ImageNode) PrimitivePaint(s Surface) error {
	img := n.source()
	if img == nil {
		return nil
	}
	return s.DrawImage(img, n.area())
}

func (n *ImageNode) source() *ebiten.Image {
	if n.img != nil {
		return n.img
	}
	if n.resource != nil && n.resource.State() == ResourceReady {
		return n.resource.EbitenImage()
	}
	return nil
}
