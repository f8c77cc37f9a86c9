package vellum

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// --- Constants ---

const (
	maxPointers         = 10  // pointer 0 = mouse, 1-9 = touch
	defaultDragDeadZone = 4.0 // pixels
)

// --- Per-pointer state ---

type pointerState struct {
	down      bool
	startX    float64
	startY    float64
	lastX     float64
	lastY     float64
	hitNode   Node
	hoverNode Node // last node under the pointer, for enter/exit
	dragging  bool
	button    MouseButton // button captured at press time
}

// --- ECS bridge ---

// EntityStore receives interaction events for nodes that carry an entity
// ID. See the ecs package for a Donburi-backed implementation.
type EntityStore interface {
	EmitEvent(event InteractionEvent)
}

// InteractionEvent is the flattened form of a MouseEvent sent to an
// EntityStore.
type InteractionEvent struct {
	Type      MouseEventType
	EntityID  uint32
	X, Y      float64
	LocalX    float64
	LocalY    float64
	Button    MouseButton
	Modifiers KeyModifiers
	StartX    float64
	StartY    float64
	DeltaX    float64
	DeltaY    float64
}

// --- Dispatcher ---

// Dispatcher turns raw pointer and keyboard input into node events. It
// runs a per-pointer state machine (press, release, click, move, drag
// past a dead zone, enter and exit), honors pointer capture, and routes
// key input to the root's focus node. Events are delivered with
// RootNode.ProcessMouseEvent and ProcessKeyEvent, so they bubble per the
// root's BubblePolicy.
type Dispatcher struct {
	root *RootNode

	pointers     [maxPointers]pointerState
	captured     [maxPointers]Node
	dragDeadZone float64
	focusOnPress bool

	touchMap     [maxPointers]ebiten.TouchID
	touchUsed    [maxPointers]bool
	prevTouchIDs []ebiten.TouchID

	keyBuf  []ebiten.Key
	charBuf []rune

	injectQueue []syntheticPointerEvent
	store       EntityStore

	// view maps screen coordinates to canvas coordinates.
	view Affine
}

// NewDispatcher returns a dispatcher delivering into root.
func NewDispatcher(root *RootNode) *Dispatcher {
	return &Dispatcher{
		root:         root,
		dragDeadZone: defaultDragDeadZone,
		focusOnPress: true,
		view:         Identity,
	}
}

// Root returns the tree the dispatcher delivers into.
func (d *Dispatcher) Root() *RootNode { return d.root }

// SetDragDeadZone sets the minimum movement in pixels before a drag starts.
func (d *Dispatcher) SetDragDeadZone(pixels float64) { d.dragDeadZone = pixels }

// DragDeadZone returns the drag threshold in pixels.
func (d *Dispatcher) DragDeadZone() float64 { return d.dragDeadZone }

// SetFocusOnPress controls whether a press moves keyboard focus to the
// pressed node.
func (d *Dispatcher) SetFocusOnPress(on bool) { d.focusOnPress = on }

// SetEntityStore sets the optional ECS bridge.
func (d *Dispatcher) SetEntityStore(store EntityStore) { d.store = store }

// SetViewTransform sets the screen-to-canvas mapping applied to raw
// pointer coordinates.
func (d *Dispatcher) SetViewTransform(m Affine) { d.view = m }

// CapturePointer routes all events for pointerID to node until release.
func (d *Dispatcher) CapturePointer(pointerID int, node Node) {
	if pointerID >= 0 && pointerID < maxPointers {
		d.captured[pointerID] = node
	}
}

// ReleasePointer stops routing events for pointerID to a captured node.
func (d *Dispatcher) ReleasePointer(pointerID int) {
	if pointerID >= 0 && pointerID < maxPointers {
		d.captured[pointerID] = nil
	}
}

// Hovered returns the node under pointerID, or nil.
func (d *Dispatcher) Hovered(pointerID int) Node {
	if pointerID < 0 || pointerID >= maxPointers {
		return nil
	}
	return d.pointers[pointerID].hoverNode
}

// --- Hit testing ---

// hitTest finds the deepest admissible node at canvas position (x, y).
func (d *Dispatcher) hitTest(x, y float64) Node {
	if d.root == nil {
		return nil
	}
	inv, err := d.root.GlobalTransform().Invert()
	if err != nil {
		return nil
	}
	return d.root.NodeHitAt(inv.ApplyVec(Vec2{x, y}))
}

// --- Input processing ---

// readModifiers reads the current keyboard modifier state.
func readModifiers() KeyModifiers {
	var mods KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= ModMeta
	}
	return mods
}

// Update polls ebiten for this frame's input and dispatches it. Injected
// pointer events take the mouse's place while any are queued.
func (d *Dispatcher) Update() {
	mods := readModifiers()
	if !d.processInjectedInput(mods) {
		d.processMousePointer(mods)
	}
	d.processTouchPointers(mods)
	d.processKeys(mods)
}

// processMousePointer handles mouse input (pointer 0).
func (d *Dispatcher) processMousePointer(mods KeyModifiers) {
	mx, my := ebiten.CursorPosition()
	x, y := d.view.Apply(float64(mx), float64(my))

	var pressed bool
	var button MouseButton
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	middle := ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)
	if left || right || middle {
		pressed = true
		switch {
		case left:
			button = MouseButtonLeft
		case right:
			button = MouseButtonRight
		default:
			button = MouseButtonMiddle
		}
	}
	d.processPointer(0, x, y, pressed, button, mods)
}

// processTouchPointers handles touch input (pointers 1-9).
func (d *Dispatcher) processTouchPointers(mods KeyModifiers) {
	touchIDs := ebiten.AppendTouchIDs(d.prevTouchIDs[:0])
	d.prevTouchIDs = touchIDs

	var activeSlots [maxPointers]bool
	for _, tid := range touchIDs {
		slot := d.touchSlot(tid)
		if slot < 0 {
			continue
		}
		activeSlots[slot] = true
		tx, ty := ebiten.TouchPosition(tid)
		x, y := d.view.Apply(float64(tx), float64(ty))
		d.processPointer(slot, x, y, true, MouseButtonLeft, mods)
	}

	for i := 1; i < maxPointers; i++ {
		if d.touchUsed[i] && !activeSlots[i] {
			ps := &d.pointers[i]
			if ps.down {
				d.processPointer(i, ps.lastX, ps.lastY, false, MouseButtonLeft, mods)
			}
			d.touchUsed[i] = false
			d.touchMap[i] = 0
		}
	}
}

// touchSlot maps a touch ID to a pointer slot (1-9), or -1 when full.
func (d *Dispatcher) touchSlot(tid ebiten.TouchID) int {
	for i := 1; i < maxPointers; i++ {
		if d.touchUsed[i] && d.touchMap[i] == tid {
			return i
		}
	}
	for i := 1; i < maxPointers; i++ {
		if !d.touchUsed[i] {
			d.touchUsed[i] = true
			d.touchMap[i] = tid
			return i
		}
	}
	return -1
}

// processKeys turns this frame's key edges and typed characters into key
// events.
func (d *Dispatcher) processKeys(mods KeyModifiers) {
	d.keyBuf = inpututil.AppendJustPressedKeys(d.keyBuf[:0])
	for _, k := range d.keyBuf {
		d.DispatchKey(KeyEvent{Type: KeyPressed, Key: k, Modifiers: mods})
	}
	d.keyBuf = inpututil.AppendJustReleasedKeys(d.keyBuf[:0])
	for _, k := range d.keyBuf {
		d.DispatchKey(KeyEvent{Type: KeyReleased, Key: k, Modifiers: mods})
	}
	d.charBuf = ebiten.AppendInputChars(d.charBuf[:0])
	for _, r := range d.charBuf {
		d.DispatchKey(KeyEvent{Type: KeyTyped, Key: -1, Rune: r, Modifiers: mods})
	}
}

// DispatchKey routes a key event to the focus node through the root.
func (d *Dispatcher) DispatchKey(e KeyEvent) {
	if d.root == nil {
		return
	}
	d.root.ProcessKeyEvent(&e)
}

// PointerInput feeds one pointer sample in canvas coordinates through the
// state machine. Update calls it for real input; it is exported for hosts
// that own their own input loop.
func (d *Dispatcher) PointerInput(pointerID int, x, y float64, pressed bool, button MouseButton, mods KeyModifiers) {
	if pointerID < 0 || pointerID >= maxPointers {
		return
	}
	d.processPointer(pointerID, x, y, pressed, button, mods)
}

// processPointer runs the pointer state machine for a single pointer.
func (d *Dispatcher) processPointer(pointerID int, x, y float64, pressed bool, button MouseButton, mods KeyModifiers) {
	ps := &d.pointers[pointerID]

	var target Node
	if d.captured[pointerID] != nil {
		target = d.captured[pointerID]
	} else {
		target = d.hitTest(x, y)
	}

	if target != ps.hoverNode {
		prev := ps.hoverNode
		ps.hoverNode = target
		if prev != nil {
			d.fire(&MouseEvent{Type: MouseExited, Target: prev, Related: target,
				X: x, Y: y, Button: button, Modifiers: mods, PointerID: pointerID})
		}
		if target != nil {
			d.fire(&MouseEvent{Type: MouseEntered, Target: target, Related: prev,
				X: x, Y: y, Button: button, Modifiers: mods, PointerID: pointerID})
		}
	}

	switch {
	case pressed && !ps.down:
		ps.down = true
		ps.button = button
		ps.startX, ps.startY = x, y
		ps.lastX, ps.lastY = x, y
		ps.hitNode = target
		ps.dragging = false
		if d.focusOnPress && target != nil && d.root != nil {
			_ = d.root.SetFocus(target)
		}
		d.fire(&MouseEvent{Type: MousePressed, Target: target,
			X: x, Y: y, Button: ps.button, Modifiers: mods, PointerID: pointerID})

	case !pressed && ps.down:
		d.fire(&MouseEvent{Type: MouseReleased, Target: target,
			X: x, Y: y, Button: ps.button, Modifiers: mods, PointerID: pointerID,
			StartX: ps.startX, StartY: ps.startY})
		if !ps.dragging && ps.hitNode != nil && ps.hitNode == target {
			d.fire(&MouseEvent{Type: MouseClicked, Target: target,
				X: x, Y: y, Button: ps.button, Modifiers: mods, PointerID: pointerID})
		}
		d.captured[pointerID] = nil
		ps.down = false
		ps.hitNode = nil
		ps.dragging = false
		ps.lastX, ps.lastY = x, y

	case pressed && ps.down:
		if x != ps.lastX || y != ps.lastY {
			if !ps.dragging {
				dx := x - ps.startX
				dy := y - ps.startY
				if math.Hypot(dx, dy) > d.dragDeadZone {
					ps.dragging = true
				}
			}
			if ps.dragging {
				d.fire(&MouseEvent{Type: MouseDragged, Target: ps.hitNode,
					X: x, Y: y, Button: ps.button, Modifiers: mods, PointerID: pointerID,
					StartX: ps.startX, StartY: ps.startY,
					DeltaX: x - ps.lastX, DeltaY: y - ps.lastY})
			}
		}
		ps.lastX, ps.lastY = x, y

	default:
		if x != ps.lastX || y != ps.lastY {
			d.fire(&MouseEvent{Type: MouseMoved, Target: target,
				X: x, Y: y, Button: button, Modifiers: mods, PointerID: pointerID,
				DeltaX: x - ps.lastX, DeltaY: y - ps.lastY})
			ps.lastX, ps.lastY = x, y
		}
	}
}

// fire delivers e through the root and mirrors it to the entity store.
// Events without a target are dropped.
func (d *Dispatcher) fire(e *MouseEvent) {
	if e.Target == nil || d.root == nil {
		return
	}
	d.root.ProcessMouseEvent(e)
	d.emitInteractionEvent(e)
}

func (d *Dispatcher) emitInteractionEvent(e *MouseEvent) {
	if d.store == nil {
		return
	}
	id := e.Target.EntityID()
	if id == 0 {
		return
	}
	var lx, ly float64
	if inv, err := e.Target.GlobalTransform().Invert(); err == nil {
		lx, ly = inv.Apply(e.X, e.Y)
	}
	d.store.EmitEvent(InteractionEvent{
		Type:      e.Type,
		EntityID:  id,
		X:         e.X,
		Y:         e.Y,
		LocalX:    lx,
		LocalY:    ly,
		Button:    e.Button,
		Modifiers: e.Modifiers,
		StartX:    e.StartX,
		StartY:    e.StartY,
		DeltaX:    e.DeltaX,
		DeltaY:    e.DeltaY,
	})
}
