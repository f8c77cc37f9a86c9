package vellum

import (
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

var (
	pkgLogger atomic.Pointer[slog.Logger]
	logLevel  = new(slog.LevelVar)
	debugMode atomic.Bool
)

func init() {
	logLevel.Set(slog.LevelWarn)
	SetLogger(nil)
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// SetLogger routes the package's structured logs to l. Nil restores the
// default stderr logger, which drops records below Warn unless debug mode
// is on.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = defaultLogger()
	}
	pkgLogger.Store(l.With("pkg", "vellum"))
}

// SetDebugMode enables tree sanity warnings, per-frame paint stats and
// debug-level logging on the default logger.
func SetDebugMode(on bool) {
	debugMode.Store(on)
	if on {
		logLevel.Set(slog.LevelDebug)
	} else {
		logLevel.Set(slog.LevelWarn)
	}
}

func logger() *slog.Logger { return pkgLogger.Load() }

func debugEnabled() bool { return debugMode.Load() }

// paintStats holds per-frame timing and layer metrics.
// Only populated in debug mode.
type paintStats struct {
	paintTime  time.Duration
	eventTime  time.Duration
	layers     int
	fills      int
	strokes    int
	images     int
	dirtyNodes int
}

func (st paintStats) log() {
	if !debugEnabled() {
		return
	}
	logger().Debug("frame",
		"paint", st.paintTime,
		"events", st.eventTime,
		"layers", st.layers,
		"fills", st.fills,
		"strokes", st.strokes,
		"images", st.images,
		"dirty", st.dirtyNodes,
	)
}

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n Node) {
	depth := 1
	for p := n.Parent(); p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		logger().Warn("tree depth exceeds threshold",
			"depth", depth, "threshold", debugMaxTreeDepth, "node", n.Name())
	}
}

// debugCheckChildCount warns if a composite has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(c *CompositeNode) {
	if len(c.children) > debugMaxChildCount {
		logger().Warn("child count exceeds threshold",
			"node", c.name, "children", len(c.children), "threshold", debugMaxChildCount)
	}
}
