// Package vellum is a retained-mode vector graphics node tree for [Ebitengine].
//
// A document producer (an SVG bridge, an editor, a game) builds a tree of
// [Node] values and mutates their attributes at any time. The tree keeps
// derived geometry consistent, paints itself onto a [Surface], and routes
// pointer and key events to the node under the pointer.
//
// # Node tree
//
// Every renderable element implements [Node]. Concrete kinds embed
// [NodeBase], which stores the attributes shared by all nodes: a local
// [Affine] transform, an optional [Composite], [Clip], [Mask] and
// [Filter], a visibility flag, a [PointerEventType] and a set of
// [RenderingHints].
//
//	root := vellum.NewRootNode("root")
//	group := vellum.NewCompositeNode("group")
//	root.AddChild(group)
//
//	box := vellum.NewShapeNode("box", vellum.RectShape{Width: 80, Height: 40})
//	box.SetFill(&vellum.Color{R: 0.3, G: 0.7, B: 1, A: 1})
//	box.SetTransform(vellum.Translate(100, 50))
//	group.AddChild(box)
//
// Structural edits never re-parent silently: adding a node that already
// has a parent fails with [ErrStructuralViolation] and leaves both trees
// unchanged.
//
// # Bounds
//
// Each node answers three bounds queries, each with a transformed variant:
// [Node.GeometryBounds] (pure shape extent), [Node.PrimitiveBounds] (what
// the node's own paint covers, strokes included) and [Node.Bounds] (the
// visible extent after filter, clip and mask). Results are cached per node
// and invalidated by every mutator, up to the root.
//
// # Events
//
// [RootNode.NodeHitAt] finds the topmost node under a point, honoring each
// node's pointer-event type. A [Dispatcher] turns raw pointer input into
// press, release, click, move, drag, enter and exit events; listeners are
// registered per category with [NodeBase.AddMouseListener] and
// [NodeBase.AddKeyListener] and delivered in insertion order.
//
// # Painting
//
// [NodeBase.Paint] applies transform, hints, composite, clip, mask and
// filter around each node's primitive paint and unwinds them on every exit
// path. [EbitenSurface] draws onto an *ebiten.Image; [Recorder] logs the
// drawing commands for inspection.
//
// [Ebitengine]: https://ebitengine.org
package vellum
