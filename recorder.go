package vellum

import (
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"
)

// RecordKind identifies a recorded drawing command.
type RecordKind uint8

const (
	RecordFill RecordKind = iota
	RecordStroke
	RecordImage
	RecordBeginLayer
	RecordEndLayer
)

var recordKindNames = [...]string{"fill", "stroke", "image", "begin-layer", "end-layer"}

func (k RecordKind) String() string {
	if int(k) < len(recordKindNames) {
		return recordKindNames[k]
	}
	return "unknown"
}

// Record is one command captured by a Recorder. Transform and Hints are the
// state in effect when the command was issued.
type Record struct {
	Kind      RecordKind
	Transform Affine
	Hints     RenderingHints
	Bounds    Rect // device-space extent of the command
	Color     Color
	Layer     *Layer
}

// Recorder is a Surface that draws nothing and remembers every command.
// It backs headless paint tests and dirty-region debugging.
type Recorder struct {
	Records []Record

	base       Affine
	states     stateStack
	layerDepth int
	maxDepth   int
	saves      int
	restores   int

	// FailOn, when set, makes the matching command kind return an error.
	FailOn func(Record) error
}

// NewRecorder returns an empty recorder whose base transform is base.
func NewRecorder(base Affine) *Recorder {
	return &Recorder{base: base, states: newStateStack(base)}
}

func (r *Recorder) Save() {
	r.saves++
	r.states.save()
	if d := r.states.depth(); d > r.maxDepth {
		r.maxDepth = d
	}
}

func (r *Recorder) Restore() {
	r.restores++
	r.states.restore()
}

func (r *Recorder) Transform(m Affine)                 { r.states.transform(m) }
func (r *Recorder) SetRenderingHints(h RenderingHints) { r.states.setHints(h) }

func (r *Recorder) BeginLayer(l Layer) error {
	rec := r.record(RecordBeginLayer, r.states.cur.m.TransformRect(l.Bounds), Color{})
	rec.Layer = &l
	if err := r.check(rec); err != nil {
		return err
	}
	r.layerDepth++
	r.Records = append(r.Records, rec)
	return nil
}

func (r *Recorder) EndLayer() error {
	if r.layerDepth == 0 {
		return errors.New("recorder: EndLayer without BeginLayer")
	}
	r.layerDepth--
	rec := r.record(RecordEndLayer, Rect{}, Color{})
	r.Records = append(r.Records, rec)
	return r.check(rec)
}

func (r *Recorder) Fill(p *Path, c Color) error {
	return r.add(r.record(RecordFill, p.TransformedBounds(r.states.cur.m), c))
}

func (r *Recorder) Stroke(p *Path, st Stroke) error {
	b := p.TransformedBounds(r.states.cur.m).Outset(strokeOutset(&st) * r.states.cur.m.maxScale())
	return r.add(r.record(RecordStroke, b, st.Color))
}

func (r *Recorder) DrawImage(_ *ebiten.Image, dst Rect) error {
	return r.add(r.record(RecordImage, r.states.cur.m.TransformRect(dst), Color{1, 1, 1, 1}))
}

func (r *Recorder) record(k RecordKind, b Rect, c Color) Record {
	return Record{Kind: k, Transform: r.states.cur.m, Hints: r.states.cur.hints, Bounds: b, Color: c}
}

func (r *Recorder) add(rec Record) error {
	if err := r.check(rec); err != nil {
		return err
	}
	r.Records = append(r.Records, rec)
	return nil
}

func (r *Recorder) check(rec Record) error {
	if r.FailOn == nil {
		return nil
	}
	return r.FailOn(rec)
}

// Balanced reports whether every Save was restored and every layer ended.
func (r *Recorder) Balanced() bool {
	return r.saves == r.restores && r.layerDepth == 0 && r.states.depth() == 0
}

// MaxDepth returns the deepest Save nesting seen.
func (r *Recorder) MaxDepth() int { return r.maxDepth }

// Count returns the number of records of kind k.
func (r *Recorder) Count(k RecordKind) int {
	n := 0
	for _, rec := range r.Records {
		if rec.Kind == k {
			n++
		}
	}
	return n
}

// Extent returns the union of the device bounds of all drawing records.
func (r *Recorder) Extent() Rect {
	var out Rect
	for _, rec := range r.Records {
		if rec.Kind == RecordFill || rec.Kind == RecordStroke || rec.Kind == RecordImage {
			out = out.Union(rec.Bounds)
		}
	}
	return out
}

// Reset drops all records and state.
func (r *Recorder) Reset() {
	*r = Recorder{FailOn: r.FailOn, base: r.base, states: newStateStack(r.base)}
}

// String lists the records one per line.
func (r *Recorder) String() string {
	var sb strings.Builder
	for _, rec := range r.Records {
		fmt.Fprintf(&sb, "%s %.4g,%.4g %.4gx%.4g\n", rec.Kind,
			rec.Bounds.X, rec.Bounds.Y, rec.Bounds.Width, rec.Bounds.Height)
	}
	return sb.String()
}
