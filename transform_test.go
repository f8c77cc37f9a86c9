package vellum

import (
	"errors"
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want Affine) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

func assertRect(t *testing.T, name string, got, want Rect) {
	t.Helper()
	if math.Abs(got.X-want.X) > 1e-6 || math.Abs(got.Y-want.Y) > 1e-6 ||
		math.Abs(got.Width-want.Width) > 1e-6 || math.Abs(got.Height-want.Height) > 1e-6 {
		t.Errorf("%s = %+v, want %+v", name, got, want)
	}
}

// --- TransformProps.Matrix ---

func TestPropsMatrixIdentity(t *testing.T) {
	got := DefaultTransformProps().Matrix()
	assertMatrix(t, "identity", got, Identity)
}

func TestPropsMatrixTranslation(t *testing.T) {
	p := DefaultTransformProps()
	p.X, p.Y = 10, 20
	assertMatrix(t, "translation", p.Matrix(), Affine{1, 0, 0, 1, 10, 20})
}

func TestPropsMatrixScale(t *testing.T) {
	p := DefaultTransformProps()
	p.ScaleX, p.ScaleY = 2, 3
	assertMatrix(t, "scale", p.Matrix(), Affine{2, 0, 0, 3, 0, 0})
}

func TestPropsMatrixRotation90(t *testing.T) {
	p := DefaultTransformProps()
	p.Rotation = math.Pi / 2
	// cos(90)=0, sin(90)=1 → a=0, b=1, c=-1, d=0
	assertMatrix(t, "rot90", p.Matrix(), Affine{0, 1, -1, 0, 0, 0})
}

func TestPropsMatrixPivot(t *testing.T) {
	p := DefaultTransformProps()
	p.X, p.Y = 100, 100
	p.PivotX, p.PivotY = 10, 10
	p.ScaleX, p.ScaleY = 2, 2
	// Pivot maps to (X, Y).
	x, y := p.Matrix().Apply(10, 10)
	assertNear(t, "pivot x", x, 100)
	assertNear(t, "pivot y", y, 100)
	x, y = p.Matrix().Apply(0, 0)
	assertNear(t, "origin x", x, 80)
	assertNear(t, "origin y", y, 80)
}

func TestPropsMatrixSkew(t *testing.T) {
	p := DefaultTransformProps()
	p.SkewX = math.Pi / 4
	got := p.Matrix()
	// tan(45)=1: c = 1.
	assertMatrix(t, "skewX", got, Affine{1, 0, 1, 1, 0, 0})
}

func TestPropsMatrixMatchesComposition(t *testing.T) {
	p := TransformProps{X: 5, Y: -7, ScaleX: 2, ScaleY: 0.5, Rotation: 0.3, PivotX: 4, PivotY: 3}
	want := Translate(5, -7).Mul(Rotate(0.3)).Mul(Scale(2, 0.5)).Mul(Translate(-4, -3))
	assertMatrix(t, "composed", p.Matrix(), want)
}

// --- Mul ---

func TestMulIdentity(t *testing.T) {
	m := Affine{2, 0.5, -1, 3, 7, 9}
	assertMatrix(t, "I*m", Identity.Mul(m), m)
	assertMatrix(t, "m*I", m.Mul(Identity), m)
}

func TestMulTranslations(t *testing.T) {
	got := Translate(10, 20).Mul(Translate(5, 7))
	assertMatrix(t, "translations", got, Affine{1, 0, 0, 1, 15, 27})
}

func TestMulAppliesRightFirst(t *testing.T) {
	// Scale then translate: (1,1) → (2,2) → (12,2).
	m := Translate(10, 0).Mul(Scale(2, 2))
	x, y := m.Apply(1, 1)
	assertNear(t, "x", x, 12)
	assertNear(t, "y", y, 2)
}

// --- Invert ---

func TestInvertTranslation(t *testing.T) {
	inv, err := Translate(10, -4).Invert()
	if err != nil {
		t.Fatalf("Invert: %v", err)
	}
	assertMatrix(t, "inverse", inv, Translate(-10, 4))
}

func TestInvertComplex(t *testing.T) {
	m := Translate(30, 40).Mul(Rotate(0.7)).Mul(Scale(2, 3))
	inv, err := m.Invert()
	if err != nil {
		t.Fatalf("Invert: %v", err)
	}
	assertMatrix(t, "m*inv", m.Mul(inv), Identity)
	assertMatrix(t, "inv*m", inv.Mul(m), Identity)
}

func TestInvertSingular(t *testing.T) {
	for name, m := range map[string]Affine{
		"zero scale x": Scale(0, 1),
		"zero scale":   Scale(0, 0),
		"collinear":    {1, 2, 2, 4, 0, 0},
	} {
		inv, err := m.Invert()
		if !errors.Is(err, ErrSingularTransform) {
			t.Errorf("%s: err = %v, want ErrSingularTransform", name, err)
		}
		assertMatrix(t, name+" fallback", inv, Identity)
	}
}

func TestNodeInverseTransformSingular(t *testing.T) {
	n := NewShapeNode("flat", RectShape{0, 0, 10, 10})
	n.SetTransform(Scale(0, 1))
	if _, err := n.InverseTransform(); !errors.Is(err, ErrSingularTransform) {
		t.Errorf("InverseTransform err = %v, want ErrSingularTransform", err)
	}
}

// --- Global transforms ---

func TestGlobalTransformParentChild(t *testing.T) {
	root := NewRootNode("root")
	g := NewCompositeNode("g")
	leaf := NewShapeNode("leaf", RectShape{0, 0, 1, 1})
	mustAdd(t, root, g)
	mustAdd(t, g, leaf)

	g.SetTransform(Translate(100, 50))
	leaf.SetTransform(Scale(2, 2))
	assertMatrix(t, "leaf global", leaf.GlobalTransform(), Affine{2, 0, 0, 2, 100, 50})
}

func TestGlobalTransformTracksParentChange(t *testing.T) {
	root := NewRootNode("root")
	g := NewCompositeNode("g")
	leaf := NewShapeNode("leaf", RectShape{0, 0, 1, 1})
	mustAdd(t, root, g)
	mustAdd(t, g, leaf)

	_ = leaf.GlobalTransform()
	g.SetTransform(Translate(5, 5))
	assertMatrix(t, "after parent move", leaf.GlobalTransform(), Translate(5, 5))
	g.ResetTransform()
	assertMatrix(t, "after reset", leaf.GlobalTransform(), Identity)
}

func TestGlobalTransformAfterReparent(t *testing.T) {
	root := NewRootNode("root")
	a := NewCompositeNode("a")
	b := NewCompositeNode("b")
	leaf := NewShapeNode("leaf", RectShape{0, 0, 1, 1})
	mustAdd(t, root, a)
	mustAdd(t, root, b)
	mustAdd(t, a, leaf)
	a.SetTransform(Translate(10, 0))
	b.SetTransform(Translate(0, 10))

	assertMatrix(t, "in a", leaf.GlobalTransform(), Translate(10, 0))
	if err := Detach(leaf); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	mustAdd(t, b, leaf)
	assertMatrix(t, "in b", leaf.GlobalTransform(), Translate(0, 10))
}

func TestDeepHierarchy(t *testing.T) {
	root := NewRootNode("root")
	parent := &root.CompositeNode
	for i := 0; i < 50; i++ {
		c := NewCompositeNode("level")
		c.SetTransform(Translate(1, 2))
		mustAdd(t, parent, c)
		parent = c
	}
	assertMatrix(t, "deep", parent.GlobalTransform(), Translate(50, 100))
}

// --- TransformRect ---

func TestTransformRectRotated(t *testing.T) {
	got := Rotate(math.Pi / 2).TransformRect(Rect{0, 0, 10, 20})
	assertRect(t, "rot90", got, Rect{-20, 0, 20, 10})
}

func TestTransformRectEmpty(t *testing.T) {
	got := Translate(5, 5).TransformRect(Rect{})
	if !got.IsEmpty() {
		t.Errorf("TransformRect(empty) = %v, want empty", got)
	}
}

func TestIsFinite(t *testing.T) {
	if !Identity.IsFinite() {
		t.Error("Identity not finite")
	}
	if (Affine{1, 0, 0, math.NaN(), 0, 0}).IsFinite() {
		t.Error("NaN matrix reported finite")
	}
	if (Affine{1, 0, 0, 1, math.Inf(1), 0}).IsFinite() {
		t.Error("Inf matrix reported finite")
	}
}

func mustAdd(t *testing.T, parent interface{ AddChild(Node) error }, child Node) {
	t.Helper()
	if err := parent.AddChild(child); err != nil {
		t.Fatalf("AddChild(%s): %v", child.Name(), err)
	}
}

func BenchmarkPropsMatrix(b *testing.B) {
	p := TransformProps{X: 1, Y: 2, ScaleX: 2, ScaleY: 2, Rotation: 0.5, PivotX: 4, PivotY: 4}
	for i := 0; i < b.N; i++ {
		_ = p.Matrix()
	}
}

func BenchmarkMul(b *testing.B) {
	m := Translate(1, 2).Mul(Rotate(0.3))
	o := Scale(2, 3)
	for i := 0; i < b.N; i++ {
		_ = m.Mul(o)
	}
}
