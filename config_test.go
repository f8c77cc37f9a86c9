package vellum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigYAML(t *testing.T) {
	data := []byte(`
debug: false
width: 1024
height: 768
title: demo
background: "#336699"
dragThreshold: 8
focusOnPress: false
bubble: all
hints:
  antialias: "off"
security: embedded
`)
	cfg, err := ParseConfig(data, ".yaml")
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Width)
	assert.Equal(t, 768, cfg.Height)
	assert.Equal(t, "demo", cfg.Title)
	assert.Equal(t, 8.0, cfg.DragThreshold)
	require.NotNil(t, cfg.FocusOnPress)
	assert.False(t, *cfg.FocusOnPress)
	assert.Equal(t, "all", cfg.Bubble)
	assert.Equal(t, map[string]string{"antialias": "off"}, cfg.Hints)
	assert.Equal(t, EmbeddedResourceSecurity{}, cfg.ResourceSecurity())
}

func TestParseConfigTOML(t *testing.T) {
	data := []byte(`
width = 320
title = "toml"
security = "same-origin"
allowedHosts = ["cdn.example.org"]
resourceDir = "assets"
`)
	cfg, err := ParseConfig(data, ".TOML")
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 480, cfg.Height, "missing fields keep defaults")
	assert.Equal(t, "toml", cfg.Title)
	assert.Equal(t, SameOriginResourceSecurity{AllowedHosts: []string{"cdn.example.org"}}, cfg.ResourceSecurity())
	f, ok := cfg.Fetcher().(MultiFetcher)
	require.True(t, ok)
	assert.Equal(t, FileFetcher{Dir: "assets"}, f["file"])
}

func TestParseConfigEmptyYAMLIsDefault(t *testing.T) {
	cfg, err := ParseConfig(nil, ".yml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseConfigRejectsUnknownFields(t *testing.T) {
	_, err := ParseConfig([]byte("widht: 10\n"), ".yaml")
	assert.Error(t, err)
	_, err = ParseConfig([]byte("widht = 10\n"), ".toml")
	assert.Error(t, err)
	_, err = ParseConfig([]byte("{}"), ".json")
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	base := DefaultConfig()
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"zero width":     func(c *Config) { c.Width = 0 },
		"negative drag":  func(c *Config) { c.DragThreshold = -1 },
		"bad bubble":     func(c *Config) { c.Bubble = "sideways" },
		"bad security":   func(c *Config) { c.Security = "paranoid" },
		"bad background": func(c *Config) { c.Background = "#12" },
	}
	for name, mutate := range cases {
		c := DefaultConfig()
		mutate(&c)
		assert.Error(t, c.Validate(), name)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "canvas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("width: 99\n"), 0o644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 99, cfg.Width)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("width = -1\n"), 0o644))
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, "bad.toml")
}

func TestConfigApply(t *testing.T) {
	defer SetDebugMode(false)
	off := false
	cfg := DefaultConfig()
	cfg.DragThreshold = 12
	cfg.FocusOnPress = &off
	cfg.Bubble = "none"
	cfg.Background = "#fff"
	cfg.Hints = map[string]string{"interpolation": "nearest"}

	cv := cfg.NewCanvas()
	w, h := cv.Size()
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
	assert.Equal(t, 12.0, cv.Dispatcher().DragDeadZone())
	assert.False(t, cv.Dispatcher().focusOnPress)
	assert.Equal(t, BubbleNone, cv.Root().BubblePolicy())
	assert.Equal(t, InterpolationNearest, cv.Root().RenderingHints()[HintInterpolation])
	require.NotNil(t, cv.background)
	assert.Equal(t, ColorWhite, *cv.background)

	rc := cfg.RunConfig()
	assert.Equal(t, "vellum", rc.Title)
	assert.False(t, rc.ShowFPS)
}

func TestParseHexColor(t *testing.T) {
	cases := map[string]Color{
		"#000":      {0, 0, 0, 1},
		"#fff":      {1, 1, 1, 1},
		"ff0000":    {1, 0, 0, 1},
		"#00FF0080": {0, 1, 0, 128.0 / 255},
	}
	for in, want := range cases {
		got, err := ParseHexColor(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want.R, got.R, 1e-9, in)
		assert.InDelta(t, want.G, got.G, 1e-9, in)
		assert.InDelta(t, want.B, got.B, 1e-9, in)
		assert.InDelta(t, want.A, got.A, 1e-9, in)
	}
	for _, bad := range []string{"", "#12", "#ggg", "#12345z"} {
		_, err := ParseHexColor(bad)
		assert.Error(t, err, bad)
	}
}
