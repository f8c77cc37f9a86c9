package vellum

// syntheticPointerEvent is one injected pointer sample. Coordinates are in
// screen space and go through the view transform like real mouse input.
type syntheticPointerEvent struct {
	screenX, screenY float64
	pressed          bool
	button           MouseButton
}

// InjectPress queues a left-button press at the given screen coordinates.
// The event is consumed on the next Update.
func (d *Dispatcher) InjectPress(x, y float64) {
	d.inject(x, y, true, MouseButtonLeft)
}

// InjectMove queues a pointer move with the button held down. Use it
// between InjectPress and InjectRelease to simulate a drag.
func (d *Dispatcher) InjectMove(x, y float64) {
	d.inject(x, y, true, MouseButtonLeft)
}

// InjectHover queues a pointer move with no button held.
func (d *Dispatcher) InjectHover(x, y float64) {
	d.inject(x, y, false, MouseButtonLeft)
}

// InjectRelease queues a release at the given screen coordinates.
func (d *Dispatcher) InjectRelease(x, y float64) {
	d.inject(x, y, false, MouseButtonLeft)
}

// InjectClick queues a press followed by a release at the same screen
// coordinates. Consumes two updates.
func (d *Dispatcher) InjectClick(x, y float64) {
	d.InjectPress(x, y)
	d.InjectRelease(x, y)
}

// InjectDrag queues a full drag: press at (fromX, fromY), frames-2
// interpolated moves and a release at (toX, toY). Minimum frames is 2.
func (d *Dispatcher) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	d.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		d.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	d.InjectRelease(toX, toY)
}

// Pending returns the number of queued synthetic events.
func (d *Dispatcher) Pending() int { return len(d.injectQueue) }

func (d *Dispatcher) inject(x, y float64, pressed bool, b MouseButton) {
	d.injectQueue = append(d.injectQueue, syntheticPointerEvent{
		screenX: x, screenY: y, pressed: pressed, button: b,
	})
}

// processInjectedInput pops one queued event and feeds it through the
// pointer state machine as pointer 0. It reports whether an event was
// consumed, in which case real mouse input is skipped for the frame.
func (d *Dispatcher) processInjectedInput(mods KeyModifiers) bool {
	if len(d.injectQueue) == 0 {
		return false
	}
	evt := d.injectQueue[0]
	copy(d.injectQueue, d.injectQueue[1:])
	d.injectQueue = d.injectQueue[:len(d.injectQueue)-1]

	x, y := d.view.Apply(evt.screenX, evt.screenY)
	d.processPointer(0, x, y, evt.pressed, evt.button, mods)
	return true
}

// Step processes one queued synthetic event without polling devices. It
// reports whether an event was processed. Tests and headless hosts use it
// in place of Update.
func (d *Dispatcher) Step() bool {
	return d.processInjectedInput(0)
}
