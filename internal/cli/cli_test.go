package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const quitManifest = `
signals: [tick, stop]
slots:
  - {name: show, kind: log}
  - {name: bye, kind: quit}
connections:
  - {from: tick, to: show}
  - {from: stop, to: bye}
timers:
  - {name: ticker, signal: tick, period: 5ms, payload: beat}
  - {name: stopper, signal: stop, period: 30ms, times: 1}
`

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand(BuildInfo{Version: "1.2.3", Commit: "abc", Date: "today"})
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	for _, want := range []string{"Slotwire 1.2.3", "Commit: abc", "Built: today"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunUntilQuit(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wiring.yaml", quitManifest)

	_, stderr, err := execute(t, "run", "--headless", "--log-level", "debug", path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stderr, "tick: beat") {
		t.Errorf("log slot output missing:\n%s", stderr)
	}
	if !strings.Contains(stderr, "quit requested") {
		t.Errorf("quit not logged:\n%s", stderr)
	}
}

func TestRunDuration(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wiring.yaml", "signals: [idle]\n")

	start := time.Now()
	if _, _, err := execute(t, "run", "--headless", "--duration", "40ms", "-m", path); err != nil {
		t.Fatalf("run: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond || elapsed > 5*time.Second {
		t.Errorf("run lasted %v", elapsed)
	}
}

func TestRunManifestFromConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wiring.yaml", quitManifest)
	cfg := writeFile(t, dir, "slotwire.toml", "[manifest]\npath = \"wiring.yaml\"\n")
	logFile := filepath.Join(dir, "slotwire.log")

	if _, _, err := execute(t, "run", "-c", cfg, "--log-file", logFile, "--log-json"); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"tick: beat"`) {
		t.Errorf("JSON log missing slot output:\n%s", data)
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "signals: [a, a]\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no manifest", []string{"run", "--headless"}, "no manifest"},
		{"invalid manifest", []string{"run", "--headless", bad}, "duplicate"},
		{"missing config", []string{"run", "-c", filepath.Join(dir, "nope.toml"), bad}, "not found"},
		{"bad log level", []string{"run", "--log-level", "loud", bad}, "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wiring.yaml", quitManifest)

	out, _, err := execute(t, "check", path)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	for _, want := range []string{
		path + ": ok",
		"signals (2):",
		"connections (2):",
		"  tick -> show",
		"timers (2):",
		"  stopper every 30ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckInvalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wiring.yaml", `
signals: [a]
connections: [{from: a, to: ghost}]
timers: [{name: t, signal: a, period: 0s}]
`)
	_, _, err := execute(t, "check", path)
	if err == nil {
		t.Fatal("check accepted an invalid manifest")
	}
	msg := err.Error()
	if !strings.Contains(msg, "is invalid") || !strings.Contains(msg, "ghost") || !strings.Contains(msg, "period") {
		t.Errorf("err = %v", err)
	}
}
