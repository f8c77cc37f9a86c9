package vellum

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 float64 fields at once and pushes the result
// into a node through apply. Create one with the constructors below and
// call Update(dt) each frame, or add it to a Canvas. Every applied step
// goes through the node's setters, so caches and the root's repaint region
// stay current. If the node is detached from the tree it was animating
// in, the group stops.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	values [4]float64
	apply  func(v *[4]float64)
	target Node
	root   *RootNode
	Done   bool
}

func newTweenGroup(target Node, apply func(v *[4]float64)) *TweenGroup {
	return &TweenGroup{target: target, root: target.Root(), apply: apply}
}

func (g *TweenGroup) add(from, to float64, duration float32, fn ease.TweenFunc) {
	g.tweens[g.count] = gween.New(float32(from), float32(to), duration, fn)
	g.values[g.count] = from
	g.count++
}

// Target returns the animated node.
func (g *TweenGroup) Target() Node { return g.target }

// Update advances all tweens by dt seconds and applies the values.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.root != nil && g.target.Root() != g.root {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		g.values[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
	g.apply(&g.values)
}

// TweenTransform animates node's transform from the props from to the
// props to. Position, scale and rotation are interpolated; skew and pivot
// are taken from to.
func TweenTransform(node Node, from, to TransformProps, duration float32, fn ease.TweenFunc) *TweenGroup {
	props := to
	g := newTweenGroup(node, func(v *[4]float64) {
		props.X, props.Y = v[0], v[1]
		props.ScaleX, props.ScaleY = v[2], v[3]
		node.SetTransform(props.Matrix())
	})
	g.add(from.X, to.X, duration, fn)
	g.add(from.Y, to.Y, duration, fn)
	g.add(from.ScaleX, to.ScaleX, duration, fn)
	g.add(from.ScaleY, to.ScaleY, duration, fn)
	return g
}

// TweenPosition animates a pure translation of node from its current
// translation to (toX, toY).
func TweenPosition(node Node, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	m := node.Transform()
	g := newTweenGroup(node, func(v *[4]float64) {
		t := m
		t[4], t[5] = v[0], v[1]
		node.SetTransform(t)
	})
	g.add(m[4], toX, duration, fn)
	g.add(m[5], toY, duration, fn)
	return g
}

// TweenRotation animates node's rotation from 0 to the given angle around
// the pivot, composed with its current transform.
func TweenRotation(node Node, to, pivotX, pivotY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	base := node.Transform()
	g := newTweenGroup(node, func(v *[4]float64) {
		r := Translate(pivotX, pivotY).Mul(Rotate(v[0])).Mul(Translate(-pivotX, -pivotY))
		node.SetTransform(base.Mul(r))
	})
	g.add(0, to, duration, fn)
	return g
}

// TweenOpacity animates the alpha of node's composite, keeping its
// operator.
func TweenOpacity(node Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	c := Composite{Op: CompositeSrcOver, Alpha: 1}
	if cur := node.Composite(); cur != nil {
		c = *cur
	}
	g := newTweenGroup(node, func(v *[4]float64) {
		next := c
		next.Alpha = clamp01(v[0])
		node.SetComposite(&next)
	})
	g.add(c.Alpha, to, duration, fn)
	return g
}

// TweenFill animates a shape node's fill color. A node with no fill starts
// from transparent.
func TweenFill(node *ShapeNode, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	var from Color
	if f := node.Fill(); f != nil {
		from = *f
	}
	g := newTweenGroup(node, func(v *[4]float64) {
		node.SetFill(&Color{v[0], v[1], v[2], v[3]})
	})
	g.add(from.R, to.R, duration, fn)
	g.add(from.G, to.G, duration, fn)
	g.add(from.B, to.B, duration, fn)
	g.add(from.A, to.A, duration, fn)
	return g
}
