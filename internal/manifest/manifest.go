// Package manifest declares a wiring graph in YAML and builds it on a
// dispatcher.
//
// A manifest lists named signals, slots, the connections between them,
// timers that emit signals periodically, toolkit objects whose events
// forward to signals, and animations whose progress is published as
// signals:
//
//	signals: [tick, clicked]
//	slots:
//	  - name: show
//	    kind: log
//	    select: user.name
//	  - name: stop
//	    kind: quit
//	connections:
//	  - {from: tick, to: show}
//	  - {from: clicked, to: stop, mode: deferred}
//	timers:
//	  - {name: ticker, signal: tick, period: 1s, times: 3, payload: {user: {name: ann}}}
//	objects:
//	  - name: ok
//	    label: OK
//	    bounds: [0, 0, 10, 3]
//	    events: {clicked: clicked}
//
// Names of signals and slots share one namespace. Every animation adds
// two signals, "<name>.value" and "<name>.finished".
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Slot kinds.
const (
	KindLog  = "log"
	KindLua  = "lua"
	KindQuit = "quit"
	KindEmit = "emit"
)

// Manifest is a parsed wiring document.
type Manifest struct {
	Signals     []string        `yaml:"signals"`
	Slots       []SlotDef       `yaml:"slots"`
	Connections []ConnectionDef `yaml:"connections"`
	Timers      []TimerDef      `yaml:"timers"`
	Objects     []ObjectDef     `yaml:"objects"`
	Animations  []AnimationDef  `yaml:"animations"`

	// dir resolves relative script files.
	dir string
}

// SlotDef declares a slot.
type SlotDef struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	// log
	Level  string `yaml:"level,omitempty"`
	Select string `yaml:"select,omitempty"`

	// lua
	Code string `yaml:"code,omitempty"`
	File string `yaml:"file,omitempty"`

	// emit
	Signal  string `yaml:"signal,omitempty"`
	Payload any    `yaml:"payload,omitempty"`
}

// ConnectionDef connects a signal to a slot or another signal.
type ConnectionDef struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Mode string `yaml:"mode,omitempty"`
}

// TimerDef emits Signal with Payload every Period. Times bounds the
// number of emits; zero means unlimited.
type TimerDef struct {
	Name      string        `yaml:"name"`
	Signal    string        `yaml:"signal"`
	Period    time.Duration `yaml:"period"`
	Times     int           `yaml:"times,omitempty"`
	Priority  string        `yaml:"priority,omitempty"`
	Payload   any           `yaml:"payload,omitempty"`
	Immediate bool          `yaml:"immediate,omitempty"`
}

// ObjectDef declares a toolkit object. Events maps event kinds to the
// signals they forward to. Label, Bounds and colors apply only on
// toolkits that draw.
type ObjectDef struct {
	Name   string            `yaml:"name"`
	Parent string            `yaml:"parent,omitempty"`
	Label  string            `yaml:"label,omitempty"`
	Bounds []int             `yaml:"bounds,omitempty"`
	FG     string            `yaml:"fg,omitempty"`
	BG     string            `yaml:"bg,omitempty"`
	Events map[string]string `yaml:"events,omitempty"`
}

// AnimationDef declares a tween. Start names a signal that (re)starts the
// animation when emitted.
type AnimationDef struct {
	Name      string        `yaml:"name"`
	From      float64       `yaml:"from"`
	To        float64       `yaml:"to"`
	Duration  time.Duration `yaml:"duration"`
	Easing    string        `yaml:"easing,omitempty"`
	Step      time.Duration `yaml:"step,omitempty"`
	Repeat    int           `yaml:"repeat,omitempty"`
	Start     string        `yaml:"start,omitempty"`
	Autostart bool          `yaml:"autostart,omitempty"`
}

// Load reads and parses the manifest at path. Relative script files are
// resolved against the manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// Parse decodes a manifest. Unknown keys are errors.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &m, nil
}

// SignalNames returns every signal the manifest declares, including the
// ones added by animations.
func (m *Manifest) SignalNames() []string {
	names := append([]string(nil), m.Signals...)
	for _, a := range m.Animations {
		names = append(names, a.Name+".value", a.Name+".finished")
	}
	return names
}

// script returns the Lua source of a lua slot.
func (m *Manifest) script(def SlotDef) (string, error) {
	if def.File == "" {
		return def.Code, nil
	}
	path := def.File
	if !filepath.IsAbs(path) && m.dir != "" {
		path = filepath.Join(m.dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading script: %w", err)
	}
	return string(data), nil
}
