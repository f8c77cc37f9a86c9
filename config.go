package vellum

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the canvas settings a host usually keeps in a file. Zero
// fields are filled from DefaultConfig by LoadConfig.
type Config struct {
	Debug         bool              `yaml:"debug" toml:"debug"`
	Width         int               `yaml:"width" toml:"width"`
	Height        int               `yaml:"height" toml:"height"`
	Title         string            `yaml:"title" toml:"title"`
	Background    string            `yaml:"background" toml:"background"` // #rgb, #rrggbb or #rrggbbaa
	DragThreshold float64           `yaml:"dragThreshold" toml:"dragThreshold"`
	FocusOnPress  *bool             `yaml:"focusOnPress" toml:"focusOnPress"`
	Bubble        string            `yaml:"bubble" toml:"bubble"`
	Hints         map[string]string `yaml:"hints" toml:"hints"`

	Security     string   `yaml:"security" toml:"security"`
	AllowedHosts []string `yaml:"allowedHosts" toml:"allowedHosts"`
	ResourceDir  string   `yaml:"resourceDir" toml:"resourceDir"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Width:         640,
		Height:        480,
		Title:         "vellum",
		DragThreshold: defaultDragDeadZone,
		Bubble:        BubbleUntilConsumed.String(),
		Security:      "same-origin",
	}
}

// LoadConfig reads a YAML (.yaml, .yml) or TOML (.toml) file. Missing
// fields keep their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "load config")
	}
	cfg, err := ParseConfig(data, filepath.Ext(path))
	if err != nil {
		return Config{}, errors.Wrapf(err, "load config %s", path)
	}
	return cfg, nil
}

// ParseConfig decodes data in the format named by ext (".yaml", ".yml" or
// ".toml") over DefaultConfig and validates it.
func ParseConfig(data []byte, ext string) (Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, errors.Wrap(err, "decode yaml")
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, errors.Wrap(err, "decode toml")
		}
	default:
		return Config{}, errors.Errorf("unsupported config format %q", ext)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated and numeric fields.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("config: invalid size %dx%d", c.Width, c.Height)
	}
	if c.DragThreshold < 0 {
		return errors.Errorf("config: negative drag threshold %g", c.DragThreshold)
	}
	if _, ok := ParseBubblePolicy(c.Bubble); !ok {
		return errors.Errorf("config: unknown bubble policy %q", c.Bubble)
	}
	if _, err := ParseResourceSecurity(c.Security, c.AllowedHosts); err != nil {
		return errors.Wrap(err, "config")
	}
	if c.Background != "" {
		if _, err := ParseHexColor(c.Background); err != nil {
			return errors.Wrap(err, "config")
		}
	}
	return nil
}

// ResourceSecurity returns the configured security policy.
func (c Config) ResourceSecurity() ResourceSecurity {
	sec, err := ParseResourceSecurity(c.Security, c.AllowedHosts)
	if err != nil {
		return NoLoadResourceSecurity{}
	}
	return sec
}

// Fetcher returns a fetcher rooted at ResourceDir.
func (c Config) Fetcher() Fetcher {
	return DefaultFetcher(c.ResourceDir)
}

// RunConfig returns window settings for Run.
func (c Config) RunConfig() RunConfig {
	return RunConfig{Title: c.Title, Width: c.Width, Height: c.Height, ShowFPS: c.Debug}
}

// NewCanvas builds a canvas from the config.
func (c Config) NewCanvas() *Canvas {
	cv := NewCanvas(c.Width, c.Height)
	c.Apply(cv)
	return cv
}

// Apply pushes the settings into cv: debug mode, dispatcher tuning, the
// root's bubble policy and rendering hints, and the background.
func (c Config) Apply(cv *Canvas) {
	SetDebugMode(c.Debug)
	cv.dispatcher.SetDragDeadZone(c.DragThreshold)
	if c.FocusOnPress != nil {
		cv.dispatcher.SetFocusOnPress(*c.FocusOnPress)
	}
	if p, ok := ParseBubblePolicy(c.Bubble); ok {
		cv.root.SetBubblePolicy(p)
	}
	if len(c.Hints) > 0 {
		h := make(RenderingHints, len(c.Hints))
		for k, v := range c.Hints {
			h[HintKey(k)] = v
		}
		cv.root.SetRenderingHints(cv.root.RenderingHints().Merge(h))
	}
	if c.Background != "" {
		if col, err := ParseHexColor(c.Background); err == nil {
			cv.SetBackground(&col)
		}
	}
}

// ParseHexColor parses #rgb, #rrggbb or #rrggbbaa.
func ParseHexColor(s string) (Color, error) {
	hex := strings.TrimPrefix(s, "#")
	var v [4]uint8
	v[3] = 255
	nib := func(c byte) (uint8, bool) {
		switch {
		case c >= '0' && c <= '9':
			return c - '0', true
		case c >= 'a' && c <= 'f':
			return c - 'a' + 10, true
		case c >= 'A' && c <= 'F':
			return c - 'A' + 10, true
		}
		return 0, false
	}
	switch len(hex) {
	case 3:
		for i := 0; i < 3; i++ {
			n, ok := nib(hex[i])
			if !ok {
				return Color{}, errors.Errorf("invalid color %q", s)
			}
			v[i] = n<<4 | n
		}
	case 6, 8:
		for i := 0; i < len(hex)/2; i++ {
			hi, ok1 := nib(hex[2*i])
			lo, ok2 := nib(hex[2*i+1])
			if !ok1 || !ok2 {
				return Color{}, errors.Errorf("invalid color %q", s)
			}
			v[i] = hi<<4 | lo
		}
	default:
		return Color{}, errors.Errorf("invalid color %q", s)
	}
	return Color{float64(v[0]) / 255, float64(v[1]) / 255, float64(v[2]) / 255, float64(v[3]) / 255}, nil
}
