package vellum

import (
	"testing"

	"github.com/pkg/errors"
)

func TestSetMask(t *testing.T) {
	n := rectNode("n", 0, 0, 100, 100)
	m := NewMask(rectNode("m", 0, 0, 10, 10), Rect{})
	n.SetMask(m)
	if n.Mask() != m {
		t.Error("Mask() should return the mask set")
	}
}

func TestClearMask(t *testing.T) {
	n := rectNode("n", 0, 0, 100, 100)
	n.SetMask(NewMask(rectNode("m", 0, 0, 10, 10), Rect{}))
	n.SetMask(nil)
	if n.Mask() != nil {
		t.Error("mask should be nil after SetMask(nil)")
	}
	assertRect(t, "bounds", n.Bounds(), Rect{0, 0, 100, 100})
}

func TestMaskAreaFollowsContentTransform(t *testing.T) {
	content := rectNode("m", 0, 0, 10, 10)
	content.SetTransform(Translate(20, 30).Mul(Scale(2, 2)))
	m := NewMask(content, Rect{})
	assertRect(t, "area", m.Area(), Rect{20, 30, 20, 20})

	m.Region = Rect{0, 0, 25, 100}
	assertRect(t, "area with region", m.Area(), Rect{20, 30, 5, 20})

	if !NewMask(nil, Rect{}).Area().IsEmpty() {
		t.Error("a mask without content leaves nothing visible")
	}
}

func TestMaskNodeNotInTree(t *testing.T) {
	root := NewRootNode("root")
	n := rectNode("n", 0, 0, 100, 100)
	mustAdd(t, root, n)
	content := rectNode("m", 0, 0, 10, 10)
	n.SetMask(NewMask(content, Rect{}))

	if content.Parent() != nil || content.Root() != nil {
		t.Error("mask content should not be attached to the tree")
	}
	if len(root.Children()) != 1 {
		t.Errorf("root children = %d, want 1", len(root.Children()))
	}
	if got := root.NodeHitAt(Vec2{5, 5}); got != Node(n) {
		t.Errorf("hit = %v, want the masked node, never the mask content", got)
	}
}

func TestMaskResolved(t *testing.T) {
	n := rectNode("n", 0, 0, 100, 100)
	n.SetMask(NewMask(nil, Rect{}))
	if err := n.Resolved(); !errors.Is(err, ErrUnresolvedResource) {
		t.Errorf("empty mask: err = %v, want ErrUnresolvedResource", err)
	}

	content := rectNode("m", 0, 0, 10, 10)
	content.SetFilter(NewImageFilter(nil, Rect{}))
	n.SetMask(NewMask(content, Rect{}))
	if err := n.Resolved(); !errors.Is(err, ErrUnresolvedResource) {
		t.Errorf("unresolved content: err = %v", err)
	}
	if !n.Bounds().IsEmpty() {
		t.Errorf("unresolved mask: bounds = %v, want empty", n.Bounds())
	}

	content.SetFilter(nil)
	n.Invalidate()
	if err := n.Resolved(); err != nil {
		t.Errorf("resolved content: %v", err)
	}
}

func TestClipShapeAndNode(t *testing.T) {
	c := ClipShape(RectShape{0, 0, 5, 5})
	if c.Node() != nil {
		t.Error("shape clip has no node")
	}
	if c.Shape() == nil || c.resolved() != nil {
		t.Error("shape clip should resolve")
	}

	if err := ClipShape(nil).resolved(); !errors.Is(err, ErrUnresolvedResource) {
		t.Errorf("nil shape: err = %v", err)
	}

	content := NewShapeNode("c", Circle(0, 0, 5))
	content.SetTransform(Translate(10, 0))
	cn := ClipNode(content)
	if cn.Node() != Node(content) {
		t.Error("Node() should return the clip content")
	}
	s := cn.Shape()
	if s == nil {
		t.Fatal("clip shape should resolve")
	}
	assertRect(t, "clip bounds", s.Bounds(), Rect{5, -5, 10, 10})
	if !s.Contains(10, 0) || s.Contains(0, 0) {
		t.Error("clip shape should follow the content transform")
	}
}

func TestClipNodeUnresolved(t *testing.T) {
	content := rectNode("c", 0, 0, 5, 5)
	content.SetFilter(NewImageFilter(nil, Rect{}))
	n := rectNode("n", 0, 0, 100, 100)
	n.SetClip(ClipNode(content))
	if err := n.Resolved(); !errors.Is(err, ErrUnresolvedResource) {
		t.Errorf("err = %v, want ErrUnresolvedResource", err)
	}
	if ClipNode(content).Shape() != nil {
		t.Error("an unresolved clip node has no shape")
	}
}

func TestMaskPaintsLayer(t *testing.T) {
	n := rectNode("n", 0, 0, 100, 100)
	n.SetMask(NewMask(rectNode("m", 0, 0, 10, 10), Rect{}))
	rec := NewRecorder(Identity)
	if err := n.Paint(rec); err != nil {
		t.Fatal(err)
	}
	if rec.Count(RecordBeginLayer) != 1 || rec.Count(RecordEndLayer) != 1 {
		t.Errorf("layers: begin=%d end=%d, want 1 each",
			rec.Count(RecordBeginLayer), rec.Count(RecordEndLayer))
	}
	if !rec.Balanced() {
		t.Error("recording should be balanced")
	}
}

func BenchmarkMaskedNodeBounds(b *testing.B) {
	n := rectNode("n", 0, 0, 100, 100)
	content := rectNode("m", 0, 0, 10, 10)
	n.SetMask(NewMask(content, Rect{0, 0, 50, 50}))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n.Invalidate()
		_ = n.Bounds()
	}
}
