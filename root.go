package vellum

// RootNode is the top of a tree. It cannot be attached to a parent, so its
// global transform is its own transform. It tracks the region that needs
// repainting and holds the keyboard focus.
type RootNode struct {
	CompositeNode

	// dirty maps each node changed since the last ClearDirtyRegion to its
	// global full bounds before the first change.
	dirty map[Node]Rect

	focus  Node
	bubble BubblePolicy
}

// NewRootNode creates an empty root.
func NewRootNode(name string) *RootNode {
	r := &RootNode{
		dirty:  make(map[Node]Rect),
		bubble: BubbleUntilConsumed,
	}
	r.Init(r, name)
	return r
}

// track records n's current global bounds unless n is already tracked.
func (r *RootNode) track(n Node) {
	if _, ok := r.dirty[n]; ok {
		return
	}
	r.dirty[n] = globalBounds(n)
}

// RepaintRegion returns, in canvas space, the union of every changed
// node's bounds before and after its changes since the last
// ClearDirtyRegion. Nodes detached since then contribute only their old
// bounds.
func (r *RootNode) RepaintRegion() Rect {
	var region Rect
	for n, old := range r.dirty {
		region = region.Union(old)
		if n.Root() == r {
			region = region.Union(globalBounds(n))
		}
	}
	return region
}

// IsDirty reports whether anything changed since the last ClearDirtyRegion.
func (r *RootNode) IsDirty() bool { return len(r.dirty) > 0 }

// ClearDirtyRegion forgets all tracked changes. Call it after repainting.
func (r *RootNode) ClearDirtyRegion() {
	clear(r.dirty)
}

// Focus returns the node that receives key events, or nil.
func (r *RootNode) Focus() Node { return r.focus }

// SetFocus makes n receive key events. n must be attached to r; nil
// clears the focus.
func (r *RootNode) SetFocus(n Node) error {
	if n == nil {
		r.focus = nil
		return nil
	}
	if n.Root() != r {
		return structural("focus node %q is not attached to root %q", n.Name(), r.name)
	}
	r.focus = n.base().this
	return nil
}

// BubblePolicy returns how processed events travel to ancestors.
func (r *RootNode) BubblePolicy() BubblePolicy { return r.bubble }

// SetBubblePolicy sets how processed events travel to ancestors.
func (r *RootNode) SetBubblePolicy(p BubblePolicy) { r.bubble = p }
