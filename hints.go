package vellum

import (
	"maps"
	"strings"
)

// HintKey names a rendering hint.
type HintKey string

// Recognized hint keys. Other keys are stored as given and passed through
// to the surface untouched.
const (
	HintAntialias     HintKey = "antialias"
	HintInterpolation HintKey = "interpolation"
	HintRendering     HintKey = "rendering"
)

// Recognized values.
const (
	AntialiasOn  = "on"
	AntialiasOff = "off"

	InterpolationNearest = "nearest"
	InterpolationLinear  = "linear"

	RenderingSpeed   = "speed"
	RenderingQuality = "quality"
)

// RenderingHints maps hint keys to preference values.
type RenderingHints map[HintKey]string

// Clone returns a copy of h, or nil when h is empty.
func (h RenderingHints) Clone() RenderingHints {
	if len(h) == 0 {
		return nil
	}
	return maps.Clone(h)
}

// Merge returns h overlaid with o. Neither input is modified.
func (h RenderingHints) Merge(o RenderingHints) RenderingHints {
	if len(o) == 0 {
		return h.Clone()
	}
	out := make(RenderingHints, len(h)+len(o))
	maps.Copy(out, h)
	maps.Copy(out, o)
	return out
}

// Antialias reports whether antialiasing is preferred. It defaults to true
// unless rendering for speed.
func (h RenderingHints) Antialias() bool {
	switch strings.ToLower(h[HintAntialias]) {
	case AntialiasOff:
		return false
	case AntialiasOn:
		return true
	}
	return !strings.EqualFold(h[HintRendering], RenderingSpeed)
}

// LinearFilter reports whether images should be sampled bilinearly.
func (h RenderingHints) LinearFilter() bool {
	switch strings.ToLower(h[HintInterpolation]) {
	case InterpolationNearest:
		return false
	case InterpolationLinear:
		return true
	}
	return !strings.EqualFold(h[HintRendering], RenderingSpeed)
}
