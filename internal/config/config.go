// Package config loads slotwire settings.
//
// Settings come from three layers, later ones winning:
//
//  1. built-in defaults (Default)
//  2. a TOML file
//  3. SLOTWIRE_* environment variables
//
// A file looks like:
//
//	[log]
//	level = "debug"
//
//	[loop]
//	tick = "10ms"
//
//	[dispatch]
//	max_depth = 32
//	defer_delay = "1ms"
//
//	[toolkit]
//	backend = "term"
//
//	[manifest]
//	path = "wiring.yaml"
//
//	[script]
//	timeout = "2s"
//	call_limit = 10000
//
// Watch reports changes to the file so a running loop can reload.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/slotwire/internal/logging"
)

// Toolkit backends.
const (
	BackendHeadless = "headless"
	BackendTerm     = "term"
)

// Duration is a time.Duration written as a string such as "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds every setting.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Loop     LoopConfig     `toml:"loop"`
	Dispatch DispatchConfig `toml:"dispatch"`
	Toolkit  ToolkitConfig  `toml:"toolkit"`
	Manifest ManifestConfig `toml:"manifest"`
	Script   ScriptConfig   `toml:"script"`

	// Source is the file the config was loaded from, if any.
	Source string `toml:"-"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// LoopConfig configures the application loop.
type LoopConfig struct {
	// Tick is how long the loop sleeps between polls.
	Tick Duration `toml:"tick"`
}

// DispatchConfig configures the signal dispatcher.
type DispatchConfig struct {
	MaxDepth   int      `toml:"max_depth"`
	DeferDelay Duration `toml:"defer_delay"`
}

// ToolkitConfig selects the toolkit backend.
type ToolkitConfig struct {
	Backend string `toml:"backend"`
}

// ManifestConfig locates the wiring manifest.
type ManifestConfig struct {
	Path string `toml:"path"`
}

// ScriptConfig bounds Lua slots.
type ScriptConfig struct {
	Timeout   Duration `toml:"timeout"`
	CallLimit int64    `toml:"call_limit"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log:      LogConfig{Level: "info"},
		Loop:     LoopConfig{Tick: Duration{10 * time.Millisecond}},
		Dispatch: DispatchConfig{MaxDepth: 32, DeferDelay: Duration{time.Millisecond}},
		Toolkit:  ToolkitConfig{Backend: BackendHeadless},
		Script:   ScriptConfig{Timeout: Duration{5 * time.Second}, CallLimit: 10_000},
	}
}

// Load builds a Config from defaults, the TOML file at path and the
// environment, then validates it. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := cfg.Merge(path, data); err != nil {
			return nil, err
		}
		if abs, err := filepath.Abs(path); err == nil {
			cfg.Source = abs
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Merge decodes TOML data over c. Keys absent from data keep their
// current values; unknown keys are errors. source names the data in
// errors.
func (c *Config) Merge(source string, data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		pe := &ParseError{Path: source, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			pe.Line, pe.Column = derr.Position()
		}
		return pe
	}
	return nil
}

// Validate checks every setting. Each problem is a *ValidationError;
// several are joined with errors.Join.
func (c *Config) Validate() error {
	var errs []error
	fail := func(path, msg string, v any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
	}

	if !logging.ValidLevel(c.Log.Level) {
		fail("log.level", "unknown level", c.Log.Level)
	}
	if c.Loop.Tick.Duration <= 0 {
		fail("loop.tick", "must be positive", c.Loop.Tick)
	}
	if c.Dispatch.MaxDepth < 1 {
		fail("dispatch.max_depth", "must be at least 1", c.Dispatch.MaxDepth)
	}
	if c.Dispatch.DeferDelay.Duration < 0 {
		fail("dispatch.defer_delay", "must not be negative", c.Dispatch.DeferDelay)
	}
	switch c.Toolkit.Backend {
	case BackendHeadless, BackendTerm:
	default:
		fail("toolkit.backend", "must be headless or term", c.Toolkit.Backend)
	}
	if c.Script.Timeout.Duration < 0 {
		fail("script.timeout", "must not be negative", c.Script.Timeout)
	}
	if c.Script.CallLimit < 0 {
		fail("script.call_limit", "must not be negative", c.Script.CallLimit)
	}
	return errors.Join(errs...)
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}

// ManifestPath returns the manifest path, resolved against the directory
// of the config file when relative.
func (c *Config) ManifestPath() string {
	p := c.Manifest.Path
	if p == "" || filepath.IsAbs(p) || c.Source == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.Source), p)
}
