package vellum

import (
	"github.com/pkg/errors"
)

// --- ID counter ---

// nodeIDCounter is a plain counter (no atomic: the tree has a single owner).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// --- Node ---

// Node is a renderable element of the tree. Concrete kinds embed NodeBase,
// which implements everything except the kind hooks, and call Init with
// themselves so that NodeBase can dispatch back to the outer type.
//
// A node has at most one parent. Parents are always composites.
type Node interface {
	base() *NodeBase

	// Identity
	ID() uint32
	Name() string
	SetName(name string)
	EntityID() uint32
	SetEntityID(id uint32)

	// Hierarchy
	Parent() *CompositeNode
	Root() *RootNode

	// Transform
	Transform() Affine
	HasTransform() bool
	SetTransform(m Affine)
	ResetTransform()
	InverseTransform() (Affine, error)
	GlobalTransform() Affine

	// Rendering attributes
	Composite() *Composite
	SetComposite(c *Composite)
	Clip() *Clip
	SetClip(c *Clip)
	Mask() *Mask
	SetMask(m *Mask)
	Filter() Filter
	SetFilter(f Filter)
	Visible() bool
	SetVisible(v bool)
	RenderingHints() RenderingHints
	SetRenderingHints(h RenderingHints)
	SetRenderingHint(k HintKey, v string)
	PointerEventType() PointerEventType
	SetPointerEventType(p PointerEventType)

	// Resolved returns nil when every resource the node depends on is
	// available, or an error wrapping ErrUnresolvedResource.
	Resolved() error
	// Invalidate drops all cached geometry of the node and its ancestors.
	// Call it after a resource the node depends on finishes loading.
	Invalidate()

	// Bounds
	PrimitiveBounds() Rect
	TransformedPrimitiveBounds(m *Affine) (Rect, error)
	GeometryBounds() Rect
	TransformedGeometryBounds(m *Affine) (Rect, error)
	Bounds() Rect
	TransformedBounds(m *Affine) (Rect, error)

	// Queries
	Contains(p Vec2) bool
	Intersects(r Rect) bool
	NodeHitAt(p Vec2) Node
	Outline() Shape

	// Painting
	Paint(s Surface) error
	PrimitivePaint(s Surface) error

	// Kind hooks. ComputePrimitiveBounds and ComputeGeometryBounds return
	// the node's own extent mapped through m. HitAreasAt classifies a local
	// point against the node's own fill and stroke. PrimitiveOutline is the
	// node's own geometry, or nil.
	ComputePrimitiveBounds(m Affine) Rect
	ComputeGeometryBounds(m Affine) Rect
	HitAreasAt(p Vec2) HitAreas
	PrimitiveOutline() Shape

	// Events
	DispatchEvent(e Event)
	AddMouseListener(l MouseListener)
	RemoveMouseListener(l MouseListener)
	AddKeyListener(l KeyListener)
	RemoveKeyListener(l KeyListener)
	OnMouse(fn func(*MouseEvent)) ListenerHandle
	OnKey(fn func(*KeyEvent)) ListenerHandle
	ProcessMouseEvent(e *MouseEvent)
	ProcessKeyEvent(e *KeyEvent)
	Listeners(c EventCategory) []Listener
}

// NodeBase holds the attributes and cached geometry shared by every node
// kind. The zero value is not usable; call Init.
type NodeBase struct {
	this Node

	id       uint32
	name     string
	entityID uint32

	parent *CompositeNode

	transform    Affine
	hasTransform bool
	global       Affine
	globalDirty  bool

	composite     *Composite
	clip          *Clip
	mask          *Mask
	filter        Filter
	hints         RenderingHints
	visible       bool
	pointerEvents PointerEventType

	cache     boundsCache
	listeners listenerSet

	// effectUsers are the nodes whose clip or mask content is this node.
	effectUsers []*NodeBase
	notifying   bool
}

// Init prepares n for use as the base of this. Kinds defined outside the
// package must call it from their constructor.
func (n *NodeBase) Init(this Node, name string) {
	n.this = this
	n.id = nextNodeID()
	n.name = name
	n.transform = Identity
	n.global = Identity
	n.globalDirty = true
	n.visible = true
	n.pointerEvents = VisiblePainted
	n.cache.dirty = dirtyAll
}

func (n *NodeBase) base() *NodeBase { return n }

// ID returns the node's process-unique identifier.
func (n *NodeBase) ID() uint32 { return n.id }

// Name returns the node's debug name.
func (n *NodeBase) Name() string { return n.name }

// SetName sets the node's debug name.
func (n *NodeBase) SetName(name string) { n.name = name }

// EntityID returns the ECS entity the node is bound to, or 0.
func (n *NodeBase) EntityID() uint32 { return n.entityID }

// SetEntityID binds the node to an ECS entity. Interaction events on the
// node are forwarded to the canvas EntityStore when non-zero.
func (n *NodeBase) SetEntityID(id uint32) { n.entityID = id }

// Parent returns the composite the node is attached to, or nil.
func (n *NodeBase) Parent() *CompositeNode { return n.parent }

// Root returns the root of the tree the node is attached to, or nil when
// the topmost ancestor is not a RootNode.
func (n *NodeBase) Root() *RootNode {
	top := n
	for top.parent != nil {
		top = &top.parent.NodeBase
	}
	r, _ := top.this.(*RootNode)
	return r
}

// --- Transform ---

// Transform returns the local transform, or Identity when none is set.
func (n *NodeBase) Transform() Affine { return n.transform }

// HasTransform reports whether an explicit transform is set.
func (n *NodeBase) HasTransform() bool { return n.hasTransform }

// SetTransform replaces the local transform.
func (n *NodeBase) SetTransform(m Affine) {
	n.willChange()
	n.transform = m
	n.hasTransform = true
	n.transformChanged()
}

// ResetTransform removes the local transform; the node then composes as
// the identity.
func (n *NodeBase) ResetTransform() {
	n.willChange()
	n.transform = Identity
	n.hasTransform = false
	n.transformChanged()
}

func (n *NodeBase) transformChanged() {
	n.cache.dirty |= dirtyParentSpace
	markSubtreeDirty(n.this)
	n.invalidateAncestors()
}

// InverseTransform returns the inverse of the local transform. It fails
// with ErrSingularTransform when the transform cannot be inverted.
func (n *NodeBase) InverseTransform() (Affine, error) {
	inv, err := n.transform.Invert()
	if err != nil {
		return Identity, errors.Wrapf(err, "node %q", n.name)
	}
	return inv, nil
}

// GlobalTransform returns the product of every ancestor's transform,
// outermost first, with the node's own.
func (n *NodeBase) GlobalTransform() Affine {
	if n.globalDirty {
		if n.parent != nil {
			n.global = n.parent.GlobalTransform().Mul(n.transform)
		} else {
			n.global = n.transform
		}
		n.globalDirty = false
	}
	return n.global
}

// --- Rendering attributes ---

// Composite returns the compositing rule, or nil for plain source-over.
func (n *NodeBase) Composite() *Composite { return n.composite }

// SetComposite replaces the compositing rule. Nil means source-over.
func (n *NodeBase) SetComposite(c *Composite) {
	n.willChange()
	n.composite = c
}

// Clip returns the clip, or nil.
func (n *NodeBase) Clip() *Clip { return n.clip }

// SetClip replaces the clip. Nil removes clipping.
func (n *NodeBase) SetClip(c *Clip) {
	n.willChange()
	if n.clip != nil && n.clip.node != nil {
		n.clip.node.base().dropEffectUser(n)
	}
	n.clip = c
	if c != nil && c.node != nil {
		c.node.base().addEffectUser(n)
	}
	n.effectChanged()
}

// Mask returns the mask, or nil.
func (n *NodeBase) Mask() *Mask { return n.mask }

// SetMask replaces the mask. Nil removes masking. Replacing the mask's
// Content field afterwards is not tracked; call SetMask again.
func (n *NodeBase) SetMask(m *Mask) {
	n.willChange()
	if n.mask != nil && n.mask.Content != nil {
		n.mask.Content.base().dropEffectUser(n)
	}
	n.mask = m
	if m != nil && m.Content != nil {
		m.Content.base().addEffectUser(n)
	}
	n.effectChanged()
}

// Filter returns the filter, or nil.
func (n *NodeBase) Filter() Filter { return n.filter }

// SetFilter replaces the filter. Nil removes filtering.
func (n *NodeBase) SetFilter(f Filter) {
	n.willChange()
	n.filter = f
	n.effectChanged()
}

func (n *NodeBase) effectChanged() {
	n.cache.dirty |= dirtyFull | dirtyParentSpace
	n.invalidateAncestors()
}

// Visible reports whether the node is painted.
func (n *NodeBase) Visible() bool { return n.visible }

// SetVisible shows or hides the node. Hidden nodes keep their geometry
// and may still be pointer targets, depending on PointerEventType.
func (n *NodeBase) SetVisible(v bool) {
	if n.visible == v {
		return
	}
	n.willChange()
	n.visible = v
}

// RenderingHints returns the node's hint set. The map must not be mutated.
func (n *NodeBase) RenderingHints() RenderingHints { return n.hints }

// SetRenderingHints replaces the node's hint set with a copy of h.
func (n *NodeBase) SetRenderingHints(h RenderingHints) {
	n.willChange()
	n.hints = h.Clone()
}

// SetRenderingHint sets a single hint, keeping the others. The previous
// map is not modified.
func (n *NodeBase) SetRenderingHint(k HintKey, v string) {
	n.willChange()
	n.hints = n.hints.Merge(RenderingHints{k: v})
}

// PointerEventType returns the pointer-event policy.
func (n *NodeBase) PointerEventType() PointerEventType { return n.pointerEvents }

// SetPointerEventType sets the pointer-event policy.
func (n *NodeBase) SetPointerEventType(p PointerEventType) { n.pointerEvents = p }

// Resolved reports whether the filter, clip and mask are available.
func (n *NodeBase) Resolved() error {
	if n.filter != nil {
		if r, ok := n.filter.(Resolvable); ok {
			if err := r.Resolved(); err != nil {
				return unresolved(err, "filter")
			}
		}
	}
	if n.clip != nil {
		if err := n.clip.resolved(); err != nil {
			return err
		}
	}
	if n.mask != nil {
		if err := n.mask.resolved(); err != nil {
			return err
		}
	}
	return nil
}

// Invalidate drops the node's cached geometry and that of its ancestors.
func (n *NodeBase) Invalidate() {
	n.willChange()
	n.cache.dirty = dirtyAll
	n.invalidateAncestors()
}

// --- Default kind hooks ---

// ComputePrimitiveBounds returns an empty rectangle. Kinds with content
// override it.
func (n *NodeBase) ComputePrimitiveBounds(Affine) Rect { return Rect{} }

// ComputeGeometryBounds returns an empty rectangle. Kinds with content
// override it.
func (n *NodeBase) ComputeGeometryBounds(Affine) Rect { return Rect{} }

// HitAreasAt reports no hit. Kinds with content override it.
func (n *NodeBase) HitAreasAt(Vec2) HitAreas { return HitAreas{} }

// PrimitiveOutline returns nil. Kinds with content override it.
func (n *NodeBase) PrimitiveOutline() Shape { return nil }

// PrimitivePaint paints nothing. Kinds with content override it.
func (n *NodeBase) PrimitivePaint(Surface) error { return nil }

// --- Queries ---

// Contains reports whether p, in the node's local space, lies inside its
// effective shape: the geometry, cut by clip and mask.
func (n *NodeBase) Contains(p Vec2) bool {
	if n.this.Resolved() != nil || !n.effectsAdmit(p) {
		return false
	}
	return n.this.HitAreasAt(p).InFill
}

// Intersects reports whether r, in the node's local space, overlaps the
// node's effective shape.
func (n *NodeBase) Intersects(r Rect) bool {
	if !n.this.Bounds().Intersects(r) {
		return false
	}
	s := n.this.Outline()
	if s == nil {
		return false
	}
	return shapeIntersectsRect(s, r)
}

// NodeHitAt returns the node itself when p lies in an area admitted by its
// pointer-event policy, or nil.
func (n *NodeBase) NodeHitAt(p Vec2) Node {
	if n.isTarget(p) {
		return n.this
	}
	return nil
}

// isTarget applies the pointer-event policy to the node's own content.
func (n *NodeBase) isTarget(p Vec2) bool {
	if n.pointerEvents == None || n.this.Resolved() != nil {
		return false
	}
	if !n.effectsAdmit(p) {
		return false
	}
	return n.pointerEvents.admits(n.visible, n.this.HitAreasAt(p))
}

// effectsAdmit reports whether p survives the node's clip and mask.
func (n *NodeBase) effectsAdmit(p Vec2) bool {
	if n.clip != nil {
		if s := n.clip.Shape(); s == nil || !s.Contains(p.X, p.Y) {
			return false
		}
	}
	if n.mask != nil && !n.mask.Area().Contains(p.X, p.Y) {
		return false
	}
	return true
}

// Outline returns the boundary of the node's effective area, or nil when
// the node has no geometry or is unresolved.
func (n *NodeBase) Outline() Shape {
	if n.this.Resolved() != nil {
		return nil
	}
	s := n.this.PrimitiveOutline()
	if s == nil {
		return nil
	}
	var clip, mask Shape
	if n.clip != nil {
		clip = n.clip.Shape()
	}
	if n.mask != nil {
		mask = RectShape(n.mask.Area())
	}
	return IntersectShapes(s, clip, mask)
}

// --- Helpers ---

// willChange records the node's current extent on its root before a
// mutation so the repaint region covers where it used to be.
func (n *NodeBase) willChange() {
	if r := n.Root(); r != nil {
		r.track(n.this)
	}
	n.notifyEffectUsers(func(u *NodeBase) { u.willChange() })
}

// invalidateAncestors marks every strict ancestor's caches dirty, and
// those of every node clipped or masked by n or one of its ancestors.
func (n *NodeBase) invalidateAncestors() {
	for p := n.parent; p != nil; p = p.parent {
		p.cache.dirty = dirtyAll
	}
	n.notifyEffectUsers(func(u *NodeBase) {
		u.cache.dirty |= dirtyFull | dirtyParentSpace
		u.invalidateAncestors()
	})
}

func (n *NodeBase) addEffectUser(u *NodeBase) {
	n.effectUsers = append(n.effectUsers, u)
}

// dropEffectUser removes one registration of u.
func (n *NodeBase) dropEffectUser(u *NodeBase) {
	for i, e := range n.effectUsers {
		if e == u {
			n.effectUsers = append(n.effectUsers[:i], n.effectUsers[i+1:]...)
			return
		}
	}
}

// notifyEffectUsers calls fn for every node whose clip or mask content
// contains n. A node already being notified is skipped, so content that
// clips itself does not recurse.
func (n *NodeBase) notifyEffectUsers(fn func(u *NodeBase)) {
	for p := n; p != nil; {
		if len(p.effectUsers) > 0 && !p.notifying {
			p.notifying = true
			for _, u := range p.effectUsers {
				fn(u)
			}
			p.notifying = false
		}
		if p.parent == nil {
			break
		}
		p = &p.parent.NodeBase
	}
}

// markSubtreeDirty marks the cached global transform of node and all its
// descendants dirty.
func markSubtreeDirty(node Node) {
	node.base().globalDirty = true
	if c := asComposite(node); c != nil {
		for _, child := range c.children {
			markSubtreeDirty(child)
		}
	}
}

// parentGlobal returns the global transform of n's parent, or Identity.
func parentGlobal(n Node) Affine {
	if p := n.Parent(); p != nil {
		return p.GlobalTransform()
	}
	return Identity
}

// globalBounds returns n's full bounds in root (canvas) space.
func globalBounds(n Node) Rect {
	m := parentGlobal(n)
	r, _ := n.TransformedBounds(&m)
	return r
}

// Detach removes n from its parent. It is a no-op for unattached nodes.
func Detach(n Node) error {
	if p := n.Parent(); p != nil {
		return p.RemoveChild(n)
	}
	return nil
}
