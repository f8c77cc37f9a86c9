package vellum

import (
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"
)

// Canvas hosts a node tree in an ebiten game loop. It owns the root, the
// input dispatcher, the paint surface, an optional camera and the running
// tweens. Canvas implements ebiten.Game.
type Canvas struct {
	root       *RootNode
	dispatcher *Dispatcher
	surface    *EbitenSurface
	camera     *Camera
	tweens     []*TweenGroup
	runner     *ScriptRunner

	width, height int
	background    *Color

	// ScreenshotDir is where Screenshot writes PNG files.
	ScreenshotDir   string
	screenshotQueue []string

	// OnUpdate, when set, runs once per tick after input and tweens.
	// Returning an error stops the game loop.
	OnUpdate func() error

	lastStats paintStats
}

// NewCanvas returns a canvas of the given logical size with an empty root.
func NewCanvas(width, height int) *Canvas {
	root := NewRootNode("root")
	return &Canvas{
		root:          root,
		dispatcher:    NewDispatcher(root),
		surface:       NewEbitenSurface(nil, Identity),
		width:         width,
		height:        height,
		ScreenshotDir: "screenshots",
	}
}

// Root returns the canvas's root node.
func (c *Canvas) Root() *RootNode { return c.root }

// Dispatcher returns the canvas's input dispatcher.
func (c *Canvas) Dispatcher() *Dispatcher { return c.dispatcher }

// Size returns the logical canvas size.
func (c *Canvas) Size() (width, height int) { return c.width, c.height }

// SetBackground sets the color the canvas is cleared to. Nil leaves the
// screen as ebiten provides it.
func (c *Canvas) SetBackground(col *Color) { c.background = col }

// Camera returns the canvas camera, or nil.
func (c *Canvas) Camera() *Camera { return c.camera }

// SetCamera sets the view applied on top of the root transform.
func (c *Canvas) SetCamera(cam *Camera) { c.camera = cam }

// AddTween runs g every tick until it is done.
func (c *Canvas) AddTween(g *TweenGroup) {
	if g != nil {
		c.tweens = append(c.tweens, g)
	}
}

// Tweens returns the number of running tweens.
func (c *Canvas) Tweens() int { return len(c.tweens) }

// SetScriptRunner attaches an input script, stepped once per tick before
// input processing.
func (c *Canvas) SetScriptRunner(r *ScriptRunner) { c.runner = r }

// Update advances the camera, the input script, input dispatch and tweens.
func (c *Canvas) Update() error {
	dt := float32(1.0 / float64(ebiten.TPS()))
	return c.Step(dt)
}

// Step is Update with an explicit time step.
func (c *Canvas) Step(dt float32) error {
	var t0 time.Time
	if debugEnabled() {
		t0 = time.Now()
	}

	if c.camera != nil {
		c.camera.Update(dt)
		c.dispatcher.SetViewTransform(c.camera.InverseViewMatrix())
	} else {
		c.dispatcher.SetViewTransform(Identity)
	}
	if c.runner != nil {
		c.runner.step(c)
	}
	c.dispatcher.Update()

	live := c.tweens[:0]
	for _, g := range c.tweens {
		g.Update(dt)
		if !g.Done {
			live = append(live, g)
		}
	}
	clear(c.tweens[len(live):])
	c.tweens = live

	if debugEnabled() {
		c.lastStats.eventTime = time.Since(t0)
	}
	if c.OnUpdate != nil {
		if err := c.OnUpdate(); err != nil {
			return errors.Wrap(err, "update")
		}
	}
	return nil
}

// Draw paints the tree onto screen and clears the repaint region.
func (c *Canvas) Draw(screen *ebiten.Image) {
	if err := c.Paint(screen); err != nil {
		logger().Warn("paint failed", "err", err)
	}
	c.flushScreenshots(screen)
}

// Paint paints the tree onto target without touching screenshots.
func (c *Canvas) Paint(target *ebiten.Image) error {
	var t0 time.Time
	if debugEnabled() {
		t0 = time.Now()
	}
	base := Identity
	if c.camera != nil {
		base = c.camera.ViewMatrix()
	}
	if c.background != nil {
		bg := *c.background
		target.Fill(color.NRGBA{
			R: uint8(clamp01(bg.R) * 255), G: uint8(clamp01(bg.G) * 255),
			B: uint8(clamp01(bg.B) * 255), A: uint8(clamp01(bg.A) * 255),
		})
	}

	dirty := len(c.root.dirty)
	c.surface.Reset(target, base)
	err := c.root.Paint(c.surface)
	c.root.ClearDirtyRegion()

	if debugEnabled() {
		st := c.surface.stats
		st.paintTime = time.Since(t0)
		st.eventTime = c.lastStats.eventTime
		st.dirtyNodes = dirty
		c.lastStats = st
		st.log()
	}
	return err
}

// Layout reports the canvas's logical size to ebiten.
func (c *Canvas) Layout(_, _ int) (int, int) {
	return c.width, c.height
}

// RunConfig holds window settings for Run.
type RunConfig struct {
	Title        string
	Width        int // window size; 0 means the canvas size
	Height       int
	Resizable    bool
	TPS          int // ticks per second; 0 means ebiten's default
	ShowFPS      bool
	ClearScreen  bool
	SkipWindowUI bool // for hosts that configure the window themselves
}

// Run opens a window and runs the canvas until the window is closed or
// Update returns an error.
func Run(c *Canvas, cfg RunConfig) error {
	if !cfg.SkipWindowUI {
		w, h := cfg.Width, cfg.Height
		if w == 0 || h == 0 {
			w, h = c.width, c.height
		}
		ebiten.SetWindowSize(w, h)
		if cfg.Title != "" {
			ebiten.SetWindowTitle(cfg.Title)
		}
		if cfg.Resizable {
			ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
		}
	}
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}
	ebiten.SetScreenClearedEveryFrame(cfg.ClearScreen || c.background == nil)

	var game ebiten.Game = c
	if cfg.ShowFPS {
		game = &fpsGame{Canvas: c}
	}
	return errors.Wrap(ebiten.RunGame(game), "run canvas")
}
