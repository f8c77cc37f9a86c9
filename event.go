package vellum

import (
	"reflect"

	"github.com/hajimehoshi/ebiten/v2"
)

// EventCategory selects a listener collection.
type EventCategory uint8

const (
	CategoryMouse EventCategory = iota // pointer events
	CategoryKey                        // keyboard events
)

func (c EventCategory) String() string {
	switch c {
	case CategoryMouse:
		return "mouse"
	case CategoryKey:
		return "key"
	default:
		return "unknown"
	}
}

// Event is delivered to the listeners of its category.
type Event interface {
	Category() EventCategory
}

// BubblePolicy decides whether a processed event continues from its
// target to the target's ancestors.
type BubblePolicy uint8

const (
	// BubbleUntilConsumed delivers to each ancestor in turn until a
	// listener consumes the event.
	BubbleUntilConsumed BubblePolicy = iota
	// BubbleNone delivers to the target only.
	BubbleNone
	// BubbleAll delivers to the target and every ancestor regardless of
	// consumption.
	BubbleAll
)

var bubblePolicyNames = [...]string{"untilConsumed", "none", "all"}

func (p BubblePolicy) String() string {
	if int(p) < len(bubblePolicyNames) {
		return bubblePolicyNames[p]
	}
	return "unknown"
}

// ParseBubblePolicy maps a policy name to its value.
func ParseBubblePolicy(s string) (BubblePolicy, bool) {
	for i, name := range bubblePolicyNames {
		if name == s {
			return BubblePolicy(i), true
		}
	}
	return BubbleUntilConsumed, false
}

// --- Mouse events ---

// MouseEventType identifies a pointer event.
type MouseEventType uint8

const (
	MousePressed  MouseEventType = iota // a button went down
	MouseReleased                       // a button went up
	MouseClicked                        // press and release on the same node without dragging
	MouseMoved                          // the pointer moved with no button held
	MouseDragged                        // the pointer moved with a button held past the dead zone
	MouseEntered                        // the pointer moved onto a node
	MouseExited                         // the pointer moved off a node
)

var mouseEventTypeNames = [...]string{
	"pressed", "released", "clicked", "moved", "dragged", "entered", "exited",
}

func (t MouseEventType) String() string {
	if int(t) < len(mouseEventTypeNames) {
		return mouseEventTypeNames[t]
	}
	return "unknown"
}

// MouseEvent carries pointer data. X and Y are in canvas space; LocalX and
// LocalY are in the local space of Current and are updated as the event
// travels.
type MouseEvent struct {
	Type      MouseEventType
	X, Y      float64
	LocalX    float64
	LocalY    float64
	Button    MouseButton
	Modifiers KeyModifiers
	PointerID int

	// Drag data, in canvas space.
	StartX, StartY float64
	DeltaX, DeltaY float64

	// Target is the node the event was aimed at. Current is the node whose
	// listeners are running. Related is the other node of an enter or exit
	// pair, or nil.
	Target  Node
	Current Node
	Related Node

	consumed bool
}

// Category returns CategoryMouse.
func (e *MouseEvent) Category() EventCategory { return CategoryMouse }

// Consume stops further bubbling under BubbleUntilConsumed.
func (e *MouseEvent) Consume() { e.consumed = true }

// Consumed reports whether a listener consumed the event.
func (e *MouseEvent) Consumed() bool { return e.consumed }

// --- Key events ---

// KeyEventType identifies a keyboard event.
type KeyEventType uint8

const (
	KeyPressed  KeyEventType = iota // a key went down
	KeyReleased                     // a key went up
	KeyTyped                        // a character was entered
)

func (t KeyEventType) String() string {
	switch t {
	case KeyPressed:
		return "pressed"
	case KeyReleased:
		return "released"
	case KeyTyped:
		return "typed"
	default:
		return "unknown"
	}
}

// KeyEvent carries keyboard data. Rune is set for KeyTyped.
type KeyEvent struct {
	Type      KeyEventType
	Key       ebiten.Key
	Rune      rune
	Modifiers KeyModifiers

	Target  Node
	Current Node

	consumed bool
}

// Category returns CategoryKey.
func (e *KeyEvent) Category() EventCategory { return CategoryKey }

// Consume stops further bubbling under BubbleUntilConsumed.
func (e *KeyEvent) Consume() { e.consumed = true }

// Consumed reports whether a listener consumed the event.
func (e *KeyEvent) Consumed() bool { return e.consumed }

// --- Listeners ---

// Listener is a registered MouseListener or KeyListener.
type Listener any

// MouseListener receives mouse events.
type MouseListener interface {
	HandleMouse(e *MouseEvent)
}

// KeyListener receives key events.
type KeyListener interface {
	HandleKey(e *KeyEvent)
}

// MouseListenerFunc adapts a function to MouseListener.
type MouseListenerFunc func(*MouseEvent)

// HandleMouse calls f(e).
func (f MouseListenerFunc) HandleMouse(e *MouseEvent) { f(e) }

// KeyListenerFunc adapts a function to KeyListener.
type KeyListenerFunc func(*KeyEvent)

// HandleKey calls f(e).
func (f KeyListenerFunc) HandleKey(e *KeyEvent) { f(e) }

type listenerEntry struct {
	id uint32
	l  Listener
}

// listenerSet holds one insertion-ordered collection per category.
type listenerSet struct {
	mouse  []listenerEntry
	key    []listenerEntry
	nextID uint32
}

func (s *listenerSet) list(c EventCategory) *[]listenerEntry {
	if c == CategoryKey {
		return &s.key
	}
	return &s.mouse
}

func (s *listenerSet) add(c EventCategory, l Listener) uint32 {
	s.nextID++
	lst := s.list(c)
	*lst = append(*lst, listenerEntry{id: s.nextID, l: l})
	return s.nextID
}

func (s *listenerSet) removeID(c EventCategory, id uint32) {
	lst := s.list(c)
	for i := range *lst {
		if (*lst)[i].id == id {
			*lst = removeEntry(*lst, i)
			return
		}
	}
}

// removeValue removes the first registration equal to l. Listeners whose
// dynamic type is not comparable (funcs, maps) can only be removed through
// their ListenerHandle.
func (s *listenerSet) removeValue(c EventCategory, l Listener) {
	if l == nil || !reflect.TypeOf(l).Comparable() {
		return
	}
	lst := s.list(c)
	for i, e := range *lst {
		if reflect.TypeOf(e.l) == reflect.TypeOf(l) && e.l == l {
			*lst = removeEntry(*lst, i)
			return
		}
	}
}

func removeEntry(s []listenerEntry, i int) []listenerEntry {
	copy(s[i:], s[i+1:])
	s[len(s)-1] = listenerEntry{}
	return s[:len(s)-1]
}

// snapshot returns a copy of the entries so delivery is unaffected by
// listeners that add or remove listeners.
func (s *listenerSet) snapshot(c EventCategory) []listenerEntry {
	lst := *s.list(c)
	if len(lst) == 0 {
		return nil
	}
	return append([]listenerEntry(nil), lst...)
}

// ListenerHandle removes a listener registered with OnMouse or OnKey.
type ListenerHandle struct {
	id       uint32
	category EventCategory
	set      *listenerSet
}

// Remove unregisters the listener. Calling it twice is harmless.
func (h ListenerHandle) Remove() {
	if h.set == nil {
		return
	}
	h.set.removeID(h.category, h.id)
}

// --- Registration ---

// AddMouseListener appends l to the node's mouse listeners.
func (n *NodeBase) AddMouseListener(l MouseListener) {
	if l != nil {
		n.listeners.add(CategoryMouse, l)
	}
}

// RemoveMouseListener removes the first registration of l.
func (n *NodeBase) RemoveMouseListener(l MouseListener) {
	n.listeners.removeValue(CategoryMouse, l)
}

// AddKeyListener appends l to the node's key listeners.
func (n *NodeBase) AddKeyListener(l KeyListener) {
	if l != nil {
		n.listeners.add(CategoryKey, l)
	}
}

// RemoveKeyListener removes the first registration of l.
func (n *NodeBase) RemoveKeyListener(l KeyListener) {
	n.listeners.removeValue(CategoryKey, l)
}

// OnMouse registers fn as a mouse listener.
func (n *NodeBase) OnMouse(fn func(*MouseEvent)) ListenerHandle {
	id := n.listeners.add(CategoryMouse, MouseListenerFunc(fn))
	return ListenerHandle{id: id, category: CategoryMouse, set: &n.listeners}
}

// OnKey registers fn as a key listener.
func (n *NodeBase) OnKey(fn func(*KeyEvent)) ListenerHandle {
	id := n.listeners.add(CategoryKey, KeyListenerFunc(fn))
	return ListenerHandle{id: id, category: CategoryKey, set: &n.listeners}
}

// Listeners returns a copy of the listeners registered for c, in
// registration order.
func (n *NodeBase) Listeners(c EventCategory) []Listener {
	lst := *n.listeners.list(c)
	out := make([]Listener, len(lst))
	for i, e := range lst {
		out[i] = e.l
	}
	return out
}

// --- Delivery ---

// DispatchEvent delivers e to the node's listeners for e's category in
// registration order. It does not route or bubble.
func (n *NodeBase) DispatchEvent(e Event) {
	switch ev := e.(type) {
	case *MouseEvent:
		ev.Current = n.this
		if inv, err := n.GlobalTransform().Invert(); err == nil {
			ev.LocalX, ev.LocalY = inv.Apply(ev.X, ev.Y)
		}
		for _, entry := range n.listeners.snapshot(CategoryMouse) {
			entry.l.(MouseListener).HandleMouse(ev)
		}
	case *KeyEvent:
		ev.Current = n.this
		for _, entry := range n.listeners.snapshot(CategoryKey) {
			entry.l.(KeyListener).HandleKey(ev)
		}
	}
}

// ProcessMouseEvent routes e into the subtree rooted at the node. The
// target is found with NodeHitAt at the event's canvas position unless
// e.Target is already set. The event is dispatched to the target and then
// bubbles to its ancestors following the root's BubblePolicy.
func (n *NodeBase) ProcessMouseEvent(e *MouseEvent) {
	if e.Target == nil {
		inv, err := n.GlobalTransform().Invert()
		if err != nil {
			return
		}
		e.Target = n.this.NodeHitAt(inv.ApplyVec(Vec2{e.X, e.Y}))
		if e.Target == nil {
			return
		}
	}
	deliver(e.Target, e, func() bool { return e.consumed })
}

// ProcessKeyEvent routes e to the root's focus node, or to the node itself
// when nothing in its tree has focus, and bubbles it like a mouse event.
func (n *NodeBase) ProcessKeyEvent(e *KeyEvent) {
	if e.Target == nil {
		e.Target = n.this
		if r := n.Root(); r != nil && r.focus != nil && r.focus.Root() == r {
			e.Target = r.focus
		}
	}
	deliver(e.Target, e, func() bool { return e.consumed })
}

// deliver dispatches e to target and its ancestors per the bubble policy.
func deliver(target Node, e Event, consumed func() bool) {
	policy := BubbleUntilConsumed
	if r := target.Root(); r != nil {
		policy = r.bubble
	}
	target.DispatchEvent(e)
	if policy == BubbleNone {
		return
	}
	for p := target.Parent(); p != nil; p = p.parent {
		if policy == BubbleUntilConsumed && consumed() {
			return
		}
		p.this.DispatchEvent(e)
	}
}
