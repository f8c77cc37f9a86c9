package vellum

import (
	"testing"
)

// inputScene builds a root with two filled 100x100 squares: a at the
// origin and b at x=200. Every mouse event reaching the root is logged as
// "type:target".
func inputScene(t *testing.T) (*Dispatcher, *ShapeNode, *ShapeNode, *[]string) {
	t.Helper()
	root := NewRootNode("root")
	a := rectNode("a", 0, 0, 100, 100)
	b := rectNode("b", 0, 0, 100, 100)
	b.SetTransform(Translate(200, 0))
	mustAdd(t, root, a)
	mustAdd(t, root, b)

	var log []string
	root.OnMouse(func(e *MouseEvent) {
		log = append(log, e.Type.String()+":"+e.Target.Name())
	})
	return NewDispatcher(root), a, b, &log
}

func assertLog(t *testing.T, got *[]string, want ...string) {
	t.Helper()
	if len(*got) != len(want) {
		t.Fatalf("events = %v, want %v", *got, want)
	}
	for i := range want {
		if (*got)[i] != want[i] {
			t.Errorf("event %d = %q, want %q (all: %v)", i, (*got)[i], want[i], *got)
		}
	}
	*got = (*got)[:0]
}

// --- Hit testing ---

func TestDispatcherHitTestTopmost(t *testing.T) {
	d, a, _, _ := inputScene(t)
	top := rectNode("top", 0, 0, 50, 50)
	mustAdd(t, d.Root(), top)
	if got := d.hitTest(25, 25); got != Node(top) {
		t.Errorf("hitTest(25,25) = %v, want top", got)
	}
	if got := d.hitTest(75, 75); got != Node(a) {
		t.Errorf("hitTest(75,75) = %v, want a", got)
	}
	if got := d.hitTest(150, 50); got != nil {
		t.Errorf("hitTest(150,50) = %v, want nil", got)
	}
}

func TestDispatcherHitTestRootTransform(t *testing.T) {
	d, a, _, _ := inputScene(t)
	d.Root().SetTransform(Scale(2, 2))
	if got := d.hitTest(150, 150); got != Node(a) {
		t.Errorf("hitTest under root scale = %v, want a", got)
	}
	if got := d.hitTest(250, 50); got != nil {
		t.Errorf("hitTest(250,50) = %v, want nil (gap after scaling)", got)
	}
}

// --- State machine ---

func TestClickDetection(t *testing.T) {
	d, _, _, log := inputScene(t)
	d.PointerInput(0, 50, 50, true, MouseButtonLeft, 0)
	d.PointerInput(0, 50, 50, false, MouseButtonLeft, 0)
	assertLog(t, log, "entered:a", "pressed:a", "released:a", "clicked:a")
}

func TestClickNotFiredOnDrag(t *testing.T) {
	d, _, _, log := inputScene(t)
	d.PointerInput(0, 50, 50, true, MouseButtonLeft, 0)
	d.PointerInput(0, 60, 50, true, MouseButtonLeft, 0)
	d.PointerInput(0, 60, 50, false, MouseButtonLeft, 0)
	assertLog(t, log, "entered:a", "pressed:a", "dragged:a", "released:a")
}

func TestClickNotFiredOnDifferentNode(t *testing.T) {
	d, _, _, log := inputScene(t)
	d.SetDragDeadZone(1000)
	d.PointerInput(0, 50, 50, true, MouseButtonLeft, 0)
	d.PointerInput(0, 250, 50, false, MouseButtonLeft, 0)
	assertLog(t, log, "entered:a", "pressed:a", "exited:a", "entered:b", "released:b")
}

func TestDragDeadZone(t *testing.T) {
	d, _, _, log := inputScene(t)
	d.PointerInput(0, 50, 50, true, MouseButtonLeft, 0)
	*log = (*log)[:0]

	d.PointerInput(0, 52, 52, true, MouseButtonLeft, 0)
	if len(*log) != 0 {
		t.Fatalf("events within dead zone: %v", *log)
	}
	d.PointerInput(0, 60, 50, true, MouseButtonLeft, 0)
	assertLog(t, log, "dragged:a")
	d.PointerInput(0, 70, 50, true, MouseButtonLeft, 0)
	assertLog(t, log, "dragged:a")
	d.PointerInput(0, 70, 50, true, MouseButtonLeft, 0)
	assertLog(t, log)
}

func TestSetDragDeadZone(t *testing.T) {
	d, _, _, log := inputScene(t)
	if d.DragDeadZone() != defaultDragDeadZone {
		t.Errorf("DragDeadZone = %v, want %v", d.DragDeadZone(), defaultDragDeadZone)
	}
	d.SetDragDeadZone(0)
	d.PointerInput(0, 50, 50, true, MouseButtonLeft, 0)
	d.PointerInput(0, 51, 50, true, MouseButtonLeft, 0)
	assertLog(t, log, "entered:a", "pressed:a", "dragged:a")
}

func TestDragFields(t *testing.T) {
	d, a, _, _ := inputScene(t)
	var last *MouseEvent
	a.OnMouse(func(e *MouseEvent) {
		if e.Type == MouseDragged {
			cp := *e
			last = &cp
		}
	})
	d.PointerInput(0, 10, 20, true, MouseButtonRight, 0)
	d.PointerInput(0, 30, 20, true, MouseButtonLeft, ModShift)
	d.PointerInput(0, 35, 17, true, MouseButtonLeft, ModShift)
	if last == nil {
		t.Fatal("no drag event")
	}
	if last.StartX != 10 || last.StartY != 20 {
		t.Errorf("Start = (%v,%v), want (10,20)", last.StartX, last.StartY)
	}
	if last.DeltaX != 5 || last.DeltaY != -3 {
		t.Errorf("Delta = (%v,%v), want (5,-3)", last.DeltaX, last.DeltaY)
	}
	if last.Button != MouseButtonRight {
		t.Errorf("Button = %v, want the button captured at press", last.Button)
	}
	if last.Modifiers != ModShift {
		t.Errorf("Modifiers = %v, want ModShift", last.Modifiers)
	}
}

func TestHoverMoveEnterExit(t *testing.T) {
	d, a, _, log := inputScene(t)
	var related Node
	a.OnMouse(func(e *MouseEvent) {
		if e.Type == MouseExited {
			related = e.Related
		}
	})
	d.PointerInput(0, 10, 10, false, MouseButtonLeft, 0)
	d.PointerInput(0, 20, 10, false, MouseButtonLeft, 0)
	d.PointerInput(0, 250, 10, false, MouseButtonLeft, 0)
	d.PointerInput(0, 150, 10, false, MouseButtonLeft, 0)
	assertLog(t, log,
		"entered:a", "moved:a",
		"moved:a",
		"exited:a", "entered:b", "moved:b",
		"exited:b")
	if related == nil || related.Name() != "b" {
		t.Errorf("exit Related = %v, want b", related)
	}
	if d.Hovered(0) != nil {
		t.Errorf("Hovered = %v, want nil", d.Hovered(0))
	}
}

func TestPointerCapture(t *testing.T) {
	d, a, b, log := inputScene(t)
	if got := d.hitTest(50, 50); got != Node(a) {
		t.Fatal("hitTest should return a")
	}
	d.CapturePointer(0, b)
	d.PointerInput(0, 50, 50, true, MouseButtonLeft, 0)
	assertLog(t, log, "entered:b", "pressed:b")

	d.PointerInput(0, 50, 50, false, MouseButtonLeft, 0)
	assertLog(t, log, "released:b", "clicked:b")
	if d.captured[0] != nil {
		t.Error("capture should end on release")
	}
}

func TestReleasePointer(t *testing.T) {
	d, _, b, _ := inputScene(t)
	d.CapturePointer(0, b)
	d.ReleasePointer(0)
	if d.captured[0] != nil {
		t.Error("captured should be nil after release")
	}
	d.CapturePointer(maxPointers, b)
	d.ReleasePointer(-1)
}

func TestFocusOnPress(t *testing.T) {
	d, a, b, _ := inputScene(t)
	d.PointerInput(0, 50, 50, true, MouseButtonLeft, 0)
	d.PointerInput(0, 50, 50, false, MouseButtonLeft, 0)
	if d.Root().Focus() != Node(a) {
		t.Errorf("Focus = %v, want a", d.Root().Focus())
	}

	d.SetFocusOnPress(false)
	d.PointerInput(0, 250, 50, true, MouseButtonLeft, 0)
	if d.Root().Focus() != Node(a) {
		t.Errorf("Focus moved to %v with focusOnPress off", d.Root().Focus())
	}

	var typed []rune
	a.OnKey(func(e *KeyEvent) { typed = append(typed, e.Rune) })
	b.OnKey(func(e *KeyEvent) { t.Error("b should not receive keys") })
	d.DispatchKey(KeyEvent{Type: KeyTyped, Key: -1, Rune: 'q'})
	if string(typed) != "q" {
		t.Errorf("typed = %q, want q", string(typed))
	}
}

func TestPressOnEmptySpace(t *testing.T) {
	d, _, _, log := inputScene(t)
	d.PointerInput(0, 150, 150, true, MouseButtonLeft, 0)
	d.PointerInput(0, 150, 150, false, MouseButtonLeft, 0)
	assertLog(t, log)
	if d.Root().Focus() != nil {
		t.Error("focus should stay empty")
	}
}

func TestInvalidPointerIgnored(t *testing.T) {
	d, _, _, log := inputScene(t)
	d.PointerInput(-1, 50, 50, true, MouseButtonLeft, 0)
	d.PointerInput(maxPointers, 50, 50, true, MouseButtonLeft, 0)
	assertLog(t, log)
}

func TestIndependentPointers(t *testing.T) {
	d, _, _, log := inputScene(t)
	d.PointerInput(0, 50, 50, true, MouseButtonLeft, 0)
	d.PointerInput(1, 250, 50, true, MouseButtonLeft, 0)
	d.PointerInput(1, 250, 50, false, MouseButtonLeft, 0)
	d.PointerInput(0, 50, 50, false, MouseButtonLeft, 0)
	assertLog(t, log,
		"entered:a", "pressed:a",
		"entered:b", "pressed:b", "released:b", "clicked:b",
		"released:a", "clicked:a")
}

// --- ECS bridge ---

type mockStore struct {
	events []InteractionEvent
}

func (m *mockStore) EmitEvent(e InteractionEvent) {
	m.events = append(m.events, e)
}

func TestECSBridge(t *testing.T) {
	d, a, _, _ := inputScene(t)
	store := &mockStore{}
	d.SetEntityStore(store)
	a.SetEntityID(42)

	d.PointerInput(0, 50, 60, true, MouseButtonLeft, 0)
	if len(store.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(store.events))
	}
	e := store.events[1]
	if e.Type != MousePressed || e.EntityID != 42 {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.LocalX != 50 || e.LocalY != 60 {
		t.Errorf("Local = (%v,%v), want (50,60)", e.LocalX, e.LocalY)
	}
}

func TestECSBridgeNoEntity(t *testing.T) {
	d, _, _, _ := inputScene(t)
	store := &mockStore{}
	d.SetEntityStore(store)
	d.PointerInput(0, 50, 50, true, MouseButtonLeft, 0)
	if len(store.events) != 0 {
		t.Errorf("expected 0 events for node without entity ID, got %d", len(store.events))
	}
}

func TestECSBridgeLocalCoordinates(t *testing.T) {
	d, _, b, _ := inputScene(t)
	store := &mockStore{}
	d.SetEntityStore(store)
	b.SetEntityID(7)
	d.PointerInput(0, 210, 20, false, MouseButtonLeft, 0)
	if len(store.events) == 0 {
		t.Fatal("no events")
	}
	e := store.events[0]
	if e.LocalX != 10 || e.LocalY != 20 {
		t.Errorf("Local = (%v,%v), want (10,20)", e.LocalX, e.LocalY)
	}
}

func BenchmarkHitTest1000Nodes(b *testing.B) {
	root := NewRootNode("root")
	for i := 0; i < 1000; i++ {
		n := rectNode("n", 0, 0, 10, 10)
		n.SetTransform(Translate(float64(i%40)*12, float64(i/40)*12))
		_ = root.AddChild(n)
	}
	d := NewDispatcher(root)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.hitTest(250, 150)
	}
}
