package vellum

import (
	"go.uber.org/multierr"
)

// CompositeNode is a node that owns an ordered list of children. Children
// are painted in list order, so later children appear on top.
type CompositeNode struct {
	NodeBase

	children   []Node
	background Shape
	bgFill     *Color

	// busy counts in-progress traversals (paint or hit test) of this
	// composite. Structural edits are rejected while it is non-zero.
	busy int
}

// NewCompositeNode creates an empty composite.
func NewCompositeNode(name string) *CompositeNode {
	c := &CompositeNode{}
	c.Init(c, name)
	return c
}

func (c *CompositeNode) composite() *CompositeNode { return c }

// asComposite returns the composite embedded in n, or nil when n has no
// children list.
func asComposite(n Node) *CompositeNode {
	if n == nil {
		return nil
	}
	if c, ok := n.base().this.(interface{ composite() *CompositeNode }); ok {
		return c.composite()
	}
	return nil
}

// isRoot reports whether n is a tree root.
func isRoot(n Node) bool {
	_, ok := n.base().this.(*RootNode)
	return ok
}

// --- Background ---

// SetBackground sets the composite's own content, painted beneath the
// children. A nil shape removes it.
func (c *CompositeNode) SetBackground(s Shape, fill *Color) {
	c.willChange()
	c.background = s
	c.bgFill = fill
	c.cache.dirty = dirtyAll
	c.invalidateAncestors()
}

// Background returns the background shape and fill.
func (c *CompositeNode) Background() (Shape, *Color) { return c.background, c.bgFill }

// --- Tree manipulation ---

// AddChild appends child to the end of the child list.
func (c *CompositeNode) AddChild(child Node) error {
	return c.InsertChildAt(child, len(c.children))
}

// InsertChildAt inserts child at index. It fails with
// ErrStructuralViolation, leaving both trees unchanged, when child is nil,
// already has a parent, is a root, is an ancestor of c (or c itself), when
// the index is out of range, or while c is being traversed.
func (c *CompositeNode) InsertChildAt(child Node, index int) error {
	if child == nil {
		return structural("cannot add nil child to %q", c.name)
	}
	cb := child.base()
	child = cb.this
	if err := c.checkEditable("InsertChildAt"); err != nil {
		return err
	}
	if isRoot(child) {
		return structural("cannot attach root %q", cb.name)
	}
	if cb.parent != nil {
		return structural("node %q already has parent %q", cb.name, cb.parent.name)
	}
	if index < 0 || index > len(c.children) {
		return structural("child index %d out of range [0, %d]", index, len(c.children))
	}
	if cc := asComposite(child); cc != nil && cc.isAncestorOf(c) {
		return structural("adding %q to %q would create a cycle", cb.name, c.name)
	}

	cb.parent = c
	c.children = append(c.children, nil)
	copy(c.children[index+1:], c.children[index:])
	c.children[index] = child
	markSubtreeDirty(child)
	c.cache.dirty = dirtyAll
	c.invalidateAncestors()
	child.base().willChange()

	if debugEnabled() {
		debugCheckTreeDepth(child)
		debugCheckChildCount(c)
	}
	return nil
}

// RemoveChild detaches child from c.
func (c *CompositeNode) RemoveChild(child Node) error {
	if child == nil {
		return structural("cannot remove nil child from %q", c.name)
	}
	if child.base().parent != c {
		return structural("node %q is not a child of %q", child.Name(), c.name)
	}
	for i, ch := range c.children {
		if ch == child.base().this {
			_, err := c.RemoveChildAt(i)
			return err
		}
	}
	return structural("node %q missing from child list of %q", child.Name(), c.name)
}

// RemoveChildAt detaches and returns the child at index.
func (c *CompositeNode) RemoveChildAt(index int) (Node, error) {
	if err := c.checkEditable("RemoveChildAt"); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(c.children) {
		return nil, structural("child index %d out of range [0, %d)", index, len(c.children))
	}
	child := c.children[index]
	cb := child.base()
	cb.willChange()

	copy(c.children[index:], c.children[index+1:])
	c.children[len(c.children)-1] = nil
	c.children = c.children[:len(c.children)-1]
	cb.parent = nil
	markSubtreeDirty(child)
	c.cache.dirty = dirtyAll
	c.invalidateAncestors()
	return child, nil
}

// RemoveChildren detaches every child.
func (c *CompositeNode) RemoveChildren() error {
	if err := c.checkEditable("RemoveChildren"); err != nil {
		return err
	}
	for _, child := range c.children {
		child.base().willChange()
	}
	for i, child := range c.children {
		child.base().parent = nil
		markSubtreeDirty(child)
		c.children[i] = nil
	}
	c.children = c.children[:0]
	c.cache.dirty = dirtyAll
	c.invalidateAncestors()
	return nil
}

// SetChildIndex moves child to index among its siblings.
func (c *CompositeNode) SetChildIndex(child Node, index int) error {
	if err := c.checkEditable("SetChildIndex"); err != nil {
		return err
	}
	if child == nil || child.base().parent != c {
		return structural("node is not a child of %q", c.name)
	}
	child = child.base().this
	nc := len(c.children)
	if index < 0 || index >= nc {
		return structural("child index %d out of range [0, %d)", index, nc)
	}
	oldIndex := c.indexOf(child)
	if oldIndex == index {
		return nil
	}
	child.base().willChange()
	// Shift elements to fill the gap and open the target slot.
	if oldIndex < index {
		copy(c.children[oldIndex:], c.children[oldIndex+1:index+1])
	} else {
		copy(c.children[index+1:], c.children[index:oldIndex])
	}
	c.children[index] = child
	return nil
}

// Children returns a copy of the child list.
func (c *CompositeNode) Children() []Node {
	out := make([]Node, len(c.children))
	copy(out, c.children)
	return out
}

// NumChildren returns the number of children.
func (c *CompositeNode) NumChildren() int { return len(c.children) }

// ChildAt returns the child at index, or nil when out of range.
func (c *CompositeNode) ChildAt(index int) Node {
	if index < 0 || index >= len(c.children) {
		return nil
	}
	return c.children[index]
}

// IndexOf returns the position of child, or -1.
func (c *CompositeNode) IndexOf(child Node) int {
	if child == nil {
		return -1
	}
	return c.indexOf(child.base().this)
}

func (c *CompositeNode) indexOf(child Node) int {
	for i, ch := range c.children {
		if ch == child {
			return i
		}
	}
	return -1
}

// checkEditable rejects structural edits during a traversal of c.
func (c *CompositeNode) checkEditable(op string) error {
	if c.busy > 0 {
		return structural("%s on %q during traversal", op, c.name)
	}
	return nil
}

// isAncestorOf reports whether c is node or one of its ancestors.
func (c *CompositeNode) isAncestorOf(node *CompositeNode) bool {
	for p := node; p != nil; p = p.parent {
		if p == c {
			return true
		}
	}
	return false
}

// --- Kind hooks ---

// ComputePrimitiveBounds returns the union of the background and every
// child's full bounds, all mapped through m.
func (c *CompositeNode) ComputePrimitiveBounds(m Affine) Rect {
	var r Rect
	if c.background != nil {
		r = c.background.TransformedBounds(m)
	}
	ident := m.IsIdentity()
	for _, child := range c.children {
		cb := child.base()
		if ident {
			r = r.Union(cb.parentBounds())
		} else {
			r = r.Union(cb.transformedBounds(m.Mul(cb.transform)))
		}
	}
	return r
}

// ComputeGeometryBounds returns the union of the background and every
// child's geometry bounds, all mapped through m.
func (c *CompositeNode) ComputeGeometryBounds(m Affine) Rect {
	var r Rect
	if c.background != nil {
		r = c.background.TransformedBounds(m)
	}
	ident := m.IsIdentity()
	for _, child := range c.children {
		cb := child.base()
		if ident {
			r = r.Union(cb.parentGeometryBounds())
		} else {
			r = r.Union(child.ComputeGeometryBounds(m.Mul(cb.transform)))
		}
	}
	return r
}

// HitAreasAt classifies p against the background only. Children are
// separate targets.
func (c *CompositeNode) HitAreasAt(p Vec2) HitAreas {
	if c.background == nil || !c.background.Contains(p.X, p.Y) {
		return HitAreas{}
	}
	return HitAreas{InFill: true, FillPainted: c.bgFill != nil}
}

// PrimitiveOutline returns the union of the background and the children's
// outlines in c's space.
func (c *CompositeNode) PrimitiveOutline() Shape {
	var parts union
	if c.background != nil {
		parts = append(parts, c.background)
	}
	for _, child := range c.children {
		if s := child.Outline(); s != nil {
			parts = append(parts, TransformShape(s, child.Transform()))
		}
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	}
	return parts
}

// Contains reports whether p lies in the background or in any child's
// effective shape, cut by c's own clip and mask.
func (c *CompositeNode) Contains(p Vec2) bool {
	if c.this.Resolved() != nil || !c.effectsAdmit(p) {
		return false
	}
	if c.background != nil && c.background.Contains(p.X, p.Y) {
		return true
	}
	for _, child := range c.children {
		inv, err := child.InverseTransform()
		if err != nil {
			continue
		}
		if child.Contains(inv.ApplyVec(p)) {
			return true
		}
	}
	return false
}

// NodeHitAt tests children from last to first, so the topmost child wins,
// then c itself.
func (c *CompositeNode) NodeHitAt(p Vec2) Node {
	if c.this.Resolved() != nil || !c.effectsAdmit(p) {
		return nil
	}
	c.busy++
	defer func() { c.busy-- }()

	for i := len(c.children) - 1; i >= 0; i-- {
		child := c.children[i]
		inv, err := child.InverseTransform()
		if err != nil {
			continue
		}
		if hit := child.NodeHitAt(inv.ApplyVec(p)); hit != nil {
			return hit
		}
	}
	if c.isTarget(p) {
		return c.this
	}
	return nil
}

// PrimitivePaint paints the background, then each child in order. A
// failing child does not stop its siblings; failures are combined.
func (c *CompositeNode) PrimitivePaint(s Surface) error {
	c.busy++
	defer func() { c.busy-- }()

	var err error
	if c.background != nil && c.bgFill != nil {
		err = multierr.Append(err, s.Fill(c.background.ToPath(), *c.bgFill))
	}
	for _, child := range c.children {
		if cerr := child.Paint(s); cerr != nil {
			logger().Warn("child paint failed", "parent", c.name, "child", child.Name(), "err", cerr)
			err = multierr.Append(err, cerr)
		}
	}
	return err
}

// --- Union shape ---

// union is the area covered by any of its shapes.
type union []Shape

func (u union) Bounds() Rect {
	var r Rect
	for _, s := range u {
		r = r.Union(s.Bounds())
	}
	return r
}

func (u union) TransformedBounds(m Affine) Rect {
	var r Rect
	for _, s := range u {
		r = r.Union(s.TransformedBounds(m))
	}
	return r
}

func (u union) Contains(x, y float64) bool {
	for _, s := range u {
		if s.Contains(x, y) {
			return true
		}
	}
	return false
}

// ToPath concatenates the member outlines. The combined path is only used
// for drawing and edge tests; Contains stays exact.
func (u union) ToPath() *Path {
	out := NewPath(FillRuleNonZero)
	for _, s := range u {
		s.ToPath().Walk(
			func(x, y float64) { out.MoveTo(x, y) },
			func(x, y float64) { out.LineTo(x, y) },
			func(cx, cy, x, y float64) { out.QuadTo(cx, cy, x, y) },
			func(c1x, c1y, c2x, c2y, x, y float64) { out.CubicTo(c1x, c1y, c2x, c2y, x, y) },
			func() { out.Close() },
		)
	}
	return out
}
