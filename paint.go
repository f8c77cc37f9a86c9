package vellum

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Paint runs the paint protocol: it skips hidden or unresolved nodes,
// pushes the transform, hints and an effect layer for composite, clip,
// mask and filter, paints the node's own content, and unwinds on every
// exit path.
func (n *NodeBase) Paint(s Surface) (err error) {
	if !n.visible {
		return nil
	}
	if rerr := n.this.Resolved(); rerr != nil {
		logger().Debug("skipping unresolved node", "node", n.name, "id", n.id, "err", rerr)
		return nil
	}
	if n.hasTransform && n.transform.IsSingular() {
		return nil
	}

	s.Save()
	defer s.Restore()

	if n.hasTransform {
		s.Transform(n.transform)
	}
	if len(n.hints) > 0 {
		s.SetRenderingHints(n.hints)
	}
	if n.needsLayer() {
		layer := Layer{
			Composite: n.composite,
			Filter:    n.filter,
			Mask:      n.mask,
			Bounds:    n.this.Bounds(),
		}
		if n.clip != nil {
			layer.Clip = n.clip.Shape()
		}
		if err := s.BeginLayer(layer); err != nil {
			return errors.Wrapf(err, "node %q: begin layer", n.name)
		}
		defer func() {
			err = multierr.Append(err, s.EndLayer())
		}()
	}
	return n.this.PrimitivePaint(s)
}

// needsLayer reports whether painting must be redirected to an offscreen
// layer.
func (n *NodeBase) needsLayer() bool {
	return !n.composite.isNoop() || n.clip != nil || n.mask != nil || n.filter != nil
}

