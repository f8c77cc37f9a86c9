package vellum

import (
	"testing"

	"github.com/tanema/gween/ease"
)

func TestTweenPositionReachesTarget(t *testing.T) {
	n := rectNode("n", 0, 0, 10, 10)
	n.SetTransform(Translate(0, 0))
	g := TweenPosition(n, 100, 200, 1.0, ease.Linear)

	for i := 0; i < 120; i++ {
		g.Update(1.0 / 60.0)
	}
	if !g.Done {
		t.Error("tween should be done after 2 seconds")
	}
	m := n.Transform()
	assertNear(t, "X", m[4], 100)
	assertNear(t, "Y", m[5], 200)
}

func TestTweenPositionKeepsLinearPart(t *testing.T) {
	n := rectNode("n", 0, 0, 10, 10)
	n.SetTransform(Scale(2, 3))
	g := TweenPosition(n, 10, 0, 1.0, ease.Linear)
	g.Update(2)
	assertMatrix(t, "transform", n.Transform(), Affine{2, 0, 0, 3, 10, 0})
}

func TestTweenTransformReachesTarget(t *testing.T) {
	n := rectNode("n", 0, 0, 10, 10)
	from := DefaultTransformProps()
	to := TransformProps{X: 30, Y: 40, ScaleX: 2, ScaleY: 0.5}
	g := TweenTransform(n, from, to, 0.5, ease.Linear)

	g.Update(0.25)
	mid := n.Transform()
	if !approxEqual(mid[0], 1.5, 1e-3) || !approxEqual(mid[4], 15, 1e-3) {
		t.Errorf("midway transform = %v", mid)
	}
	g.Update(0.5)
	if !g.Done {
		t.Error("tween should be done")
	}
	assertMatrix(t, "end", n.Transform(), to.Matrix())
}

func TestTweenRotationReachesTarget(t *testing.T) {
	n := rectNode("n", 0, 0, 10, 10)
	g := TweenRotation(n, 3.14159, 5, 5, 1.0, ease.Linear)
	g.Update(1.5)
	if !g.Done {
		t.Error("tween should be done")
	}
	// The pivot stays put.
	x, y := n.Transform().Apply(5, 5)
	assertNear(t, "pivot x", x, 5)
	assertNear(t, "pivot y", y, 5)
	x, _ = n.Transform().Apply(0, 5)
	if !approxEqual(x, 10, 1e-4) {
		t.Errorf("left edge rotated to x=%f, want 10", x)
	}
}

func TestTweenFillAllComponents(t *testing.T) {
	n := rectNode("n", 0, 0, 10, 10)
	n.SetFill(&Color{1, 1, 1, 1})
	g := TweenFill(n, Color{0, 0.5, 0.25, 0.5}, 1.0, ease.Linear)
	g.Update(2)
	got := *n.Fill()
	want := Color{0, 0.5, 0.25, 0.5}
	if !approxEqual(got.R, want.R, 1e-6) || !approxEqual(got.G, want.G, 1e-6) ||
		!approxEqual(got.B, want.B, 1e-6) || !approxEqual(got.A, want.A, 1e-6) {
		t.Errorf("fill = %+v, want %+v", got, want)
	}

	bare := NewShapeNode("bare", RectShape{0, 0, 1, 1})
	g = TweenFill(bare, ColorWhite, 1.0, ease.Linear)
	g.Update(0.5)
	if a := bare.Fill().A; !approxEqual(a, 0.5, 1e-3) {
		t.Errorf("unfilled node fades in from transparent: alpha = %f, want 0.5", a)
	}
}

func TestTweenOpacityInterpolates(t *testing.T) {
	n := rectNode("n", 0, 0, 10, 10)
	g := TweenOpacity(n, 0, 1.0, ease.Linear)
	g.Update(0.5)
	c := n.Composite()
	if c == nil {
		t.Fatal("composite should be set")
	}
	if !approxEqual(c.Alpha, 0.5, 1e-3) {
		t.Errorf("alpha midway = %f, want 0.5", c.Alpha)
	}
	if c.Op != CompositeSrcOver {
		t.Errorf("op = %v, want src-over", c.Op)
	}
	g.Update(1)
	assertNear(t, "alpha end", n.Composite().Alpha, 0)
}

func TestTweenGroupDoneFlagTransition(t *testing.T) {
	n := rectNode("n", 0, 0, 10, 10)
	g := TweenPosition(n, 100, 0, 0.5, ease.Linear)
	if g.Done {
		t.Error("should not be done initially")
	}
	g.Update(0.25)
	if g.Done {
		t.Error("should not be done at the halfway mark")
	}
	g.Update(0.3)
	if !g.Done {
		t.Error("should be done after the duration")
	}
	before := n.Transform()
	g.Update(1)
	if n.Transform() != before {
		t.Error("a done group should not touch the node")
	}
}

func TestTweenGroupInvalidatesBounds(t *testing.T) {
	root := NewRootNode("root")
	n := rectNode("n", 0, 0, 10, 10)
	mustAdd(t, root, n)
	_ = root.Bounds()
	root.ClearDirtyRegion()

	g := TweenPosition(n, 50, 0, 1.0, ease.Linear)
	g.Update(1)
	assertRect(t, "root bounds", root.Bounds(), Rect{50, 0, 10, 10})
	assertRect(t, "repaint", root.RepaintRegion(), Rect{0, 0, 60, 10})
}

func TestTweenGroupStopsWhenDetached(t *testing.T) {
	root := NewRootNode("root")
	n := rectNode("n", 0, 0, 10, 10)
	mustAdd(t, root, n)

	g := TweenPosition(n, 100, 0, 1.0, ease.Linear)
	g.Update(0.25)
	moved := n.Transform()
	if err := Detach(n); err != nil {
		t.Fatal(err)
	}
	g.Update(0.25)
	if !g.Done {
		t.Error("group should be done once the target leaves its tree")
	}
	if n.Transform() != moved {
		t.Error("a detached target should not be animated")
	}
}

func TestTweenGroupUnattachedTargetRuns(t *testing.T) {
	n := rectNode("n", 0, 0, 10, 10)
	g := TweenPosition(n, 10, 0, 1.0, ease.Linear)
	g.Update(0.5)
	if g.Done {
		t.Error("a node tweened outside any tree keeps animating")
	}
	if g.Target() != Node(n) {
		t.Error("Target should return the node")
	}
}

func TestTweenEasingFunctionsProduceDifferentCurves(t *testing.T) {
	a := rectNode("a", 0, 0, 1, 1)
	b := rectNode("b", 0, 0, 1, 1)
	ga := TweenPosition(a, 100, 0, 1.0, ease.Linear)
	gb := TweenPosition(b, 100, 0, 1.0, ease.InQuad)
	ga.Update(0.5)
	gb.Update(0.5)
	if approxEqual(a.Transform()[4], b.Transform()[4], 1e-3) {
		t.Errorf("linear and in-quad should differ midway, both = %f", a.Transform()[4])
	}
}

func TestCanvasDropsFinishedTweens(t *testing.T) {
	c := NewCanvas(100, 100)
	n := rectNode("n", 0, 0, 10, 10)
	mustAdd(t, c.Root(), n)
	c.AddTween(TweenPosition(n, 10, 0, 0.1, ease.Linear))
	c.AddTween(TweenPosition(n, 10, 0, 10, ease.Linear))
	if c.Tweens() != 2 {
		t.Fatalf("Tweens = %d, want 2", c.Tweens())
	}
	if err := c.Step(0.2); err != nil {
		t.Fatal(err)
	}
	if c.Tweens() != 1 {
		t.Errorf("Tweens = %d, want 1 after the short one finishes", c.Tweens())
	}
}
