// Package config loads the compositor's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"deedles.dev/thing/internal/compositor"
	"deedles.dev/thing/internal/harness"
	"deedles.dev/thing/internal/input"
	"deedles.dev/thing/internal/wl"
	"deedles.dev/ximage/geom"
	"github.com/adrg/xdg"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is matched by every error returned from Validate.
var ErrInvalid = errors.New("invalid config")

type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrInvalid, e.Err}
}

type Config struct {
	Seat     string `yaml:"seat"`
	LogLevel string `yaml:"log_level"`

	GrabModifier string `yaml:"grab_modifier"`
	MoveButton   string `yaml:"move_button"`
	ResizeButton string `yaml:"resize_button"`

	// RepeatRate is in keys per second, RepeatDelay in milliseconds.
	RepeatRate  int32 `yaml:"repeat_rate"`
	RepeatDelay int32 `yaml:"repeat_delay"`

	// FrameInterval is how often a compositor run by the harness
	// delivers frame callbacks. The wlroots binary follows its outputs'
	// refresh instead.
	FrameInterval time.Duration `yaml:"frame_interval"`

	// Xwayland is started on XDisplay if enabled.
	Xwayland bool   `yaml:"xwayland"`
	XDisplay string `yaml:"x_display"`

	Outputs []Output `yaml:"outputs"`
}

// Output positions a named output in the global coordinate space. A
// zero size keeps the output's preferred mode.
type Output struct {
	Name   string  `yaml:"name"`
	X      int     `yaml:"x"`
	Y      int     `yaml:"y"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	Scale  float32 `yaml:"scale"`
}

func Default() *Config {
	return &Config{
		Seat:          "seat0",
		LogLevel:      "info",
		GrabModifier:  "alt",
		MoveButton:    "left",
		ResizeButton:  "right",
		RepeatRate:    25,
		RepeatDelay:   600,
		FrameInterval: 16 * time.Millisecond,
		Xwayland:      true,
		XDisplay:      ":1",
	}
}

// DefaultPath returns the location of the config file under the XDG
// config directory.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "thing", "config.yaml")
}

// Load reads the config file at path on top of the defaults. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logrus.WithField("path", path).Debug("no config file, using defaults")
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: parse: %w", path, err)
	}

	for i := range cfg.Outputs {
		if cfg.Outputs[i].Scale == 0 {
			cfg.Outputs[i].Scale = 1
		}
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Seat) == "" {
		return &ValidationError{Path: "seat", Err: fmt.Errorf("seat is required")}
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return &ValidationError{Path: "log_level", Err: err}
	}
	if _, err := ParseModifier(c.GrabModifier); err != nil {
		return &ValidationError{Path: "grab_modifier", Err: err}
	}
	if _, err := ParseButton(c.MoveButton); err != nil {
		return &ValidationError{Path: "move_button", Err: err}
	}
	if _, err := ParseButton(c.ResizeButton); err != nil {
		return &ValidationError{Path: "resize_button", Err: err}
	}
	if c.RepeatRate < 0 || c.RepeatDelay < 0 {
		return &ValidationError{Path: "repeat_rate", Err: fmt.Errorf("repeat_rate and repeat_delay must be >= 0")}
	}
	if c.Xwayland && !strings.HasPrefix(c.XDisplay, ":") {
		return &ValidationError{Path: "x_display", Err: fmt.Errorf("x_display must look like :N, got %q", c.XDisplay)}
	}
	if c.FrameInterval <= 0 {
		return &ValidationError{Path: "frame_interval", Err: fmt.Errorf("frame_interval must be > 0")}
	}

	seen := make(map[string]struct{}, len(c.Outputs))
	for i, out := range c.Outputs {
		path := fmt.Sprintf("outputs[%d]", i)
		if out.Name == "" {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("name is required")}
		}
		if _, ok := seen[out.Name]; ok {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("duplicate output %q", out.Name)}
		}
		seen[out.Name] = struct{}{}

		if out.Scale <= 0 {
			return &ValidationError{Path: path + ".scale", Err: fmt.Errorf("scale must be > 0")}
		}
		if out.Width < 0 || out.Height < 0 {
			return &ValidationError{Path: path, Err: fmt.Errorf("width and height must be >= 0")}
		}
	}

	return nil
}

// Output returns the configuration for the named output.
func (c *Config) Output(name string) (Output, bool) {
	for _, out := range c.Outputs {
		if out.Name == name {
			return out, true
		}
	}
	return Output{}, false
}

// Level returns the configured log level. It must only be called on a
// validated Config.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Options converts the config into compositor options. It must only be
// called on a validated Config.
func (c *Config) Options() compositor.Options {
	opts := compositor.DefaultOptions()
	opts.Seat = c.Seat
	if m, err := ParseModifier(c.GrabModifier); err == nil {
		opts.GrabModifier = m
	}
	if b, err := ParseButton(c.MoveButton); err == nil {
		opts.MoveButton = b
	}
	if b, err := ParseButton(c.ResizeButton); err == nil {
		opts.ResizeButton = b
	}
	return opts
}

// HarnessConfig builds the configuration for running the compositor
// under the harness. The first configured output with a size replaces
// the harness's default output. It must only be called on a validated
// Config.
func (c *Config) HarnessConfig(rt harness.Runtime) harness.Config {
	hc := harness.DefaultConfig(rt)
	hc.Options = c.Options()
	hc.FrameInterval = c.FrameInterval

	for _, out := range c.Outputs {
		if (out.Width == 0) || (out.Height == 0) {
			continue
		}
		origin := geom.Pt(out.X, out.Y)
		hc.Output = wl.Output{
			Name:     out.Name,
			Geometry: geom.Rect[int]{Min: origin, Max: origin.Add(geom.Pt(out.Width, out.Height))},
			Scale:    float64(out.Scale),
		}
		break
	}
	return hc
}

func ParseModifier(name string) (input.Modifiers, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "alt", "mod1":
		return input.ModAlt, nil
	case "super", "logo", "mod4":
		return input.ModLogo, nil
	case "ctrl", "control":
		return input.ModCtrl, nil
	case "shift":
		return input.ModShift, nil
	default:
		return 0, fmt.Errorf("unknown modifier %q, must be one of: alt, super, ctrl, shift", name)
	}
}

func ParseButton(name string) (input.Button, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "left":
		return input.BtnLeft, nil
	case "right":
		return input.BtnRight, nil
	case "middle":
		return input.BtnMiddle, nil
	default:
		return 0, fmt.Errorf("unknown button %q, must be one of: left, right, middle", name)
	}
}
