package config

import (
	"fmt"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SLOTWIRE_"

type envSetting struct {
	name string
	set  func(c *Config, v string) error
}

var envSettings = []envSetting{
	{"LOG_LEVEL", func(c *Config, v string) error { c.Log.Level = v; return nil }},
	{"LOG_JSON", func(c *Config, v string) error { return parseBool(v, &c.Log.JSON) }},
	{"LOOP_TICK", func(c *Config, v string) error { return parseDuration(v, &c.Loop.Tick) }},
	{"DISPATCH_MAX_DEPTH", func(c *Config, v string) error { return parseInt(v, &c.Dispatch.MaxDepth) }},
	{"DISPATCH_DEFER_DELAY", func(c *Config, v string) error { return parseDuration(v, &c.Dispatch.DeferDelay) }},
	{"TOOLKIT_BACKEND", func(c *Config, v string) error { c.Toolkit.Backend = v; return nil }},
	{"MANIFEST_PATH", func(c *Config, v string) error { c.Manifest.Path = v; return nil }},
	{"SCRIPT_TIMEOUT", func(c *Config, v string) error { return parseDuration(v, &c.Script.Timeout) }},
	{"SCRIPT_CALL_LIMIT", func(c *Config, v string) error { return parseInt64(v, &c.Script.CallLimit) }},
}

// ApplyEnv overrides settings from SLOTWIRE_* variables found by lookup,
// typically os.LookupEnv. Empty values are applied as set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, s := range envSettings {
		name := EnvPrefix + s.name
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := s.set(c, v); err != nil {
			return fmt.Errorf("environment %s=%q: %w", name, v, err)
		}
	}
	return nil
}

// EnvNames lists the recognized environment variables.
func EnvNames() []string {
	names := make([]string, len(envSettings))
	for i, s := range envSettings {
		names[i] = EnvPrefix + s.name
	}
	return names
}

func parseBool(v string, dst *bool) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func parseInt(v string, dst *int) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func parseInt64(v string, dst *int64) error {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func parseDuration(v string, dst *Duration) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	dst.Duration = d
	return nil
}
