// Package cli implements the slotwire command line.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/slotwire/internal/config"
	"github.com/dshills/slotwire/internal/logging"
)

// BuildInfo identifies the binary. It is set via ldflags in main.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFile    string
	logJSON    bool
}

// NewRootCommand returns the slotwire command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   "slotwire",
		Short: "Signal and slot runtime driven by a wiring manifest",
		Long: `Slotwire connects named signals to slots as described by a YAML
manifest, then drives timers, animations and toolkit objects from a
single cooperative loop.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "config file (TOML)")
	flags.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&g.logFile, "log-file", "", "write logs to this file instead of stderr")
	flags.BoolVar(&g.logJSON, "log-json", false, "write logs as JSON")

	root.AddCommand(
		newRunCommand(&g),
		newCheckCommand(&g),
		newVersionCommand(info),
	)
	return root
}

// loadConfig layers the config file and environment, then applies the
// global flag overrides.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		if !logging.ValidLevel(g.logLevel) {
			return nil, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", g.logLevel)
		}
		cfg.Log.Level = g.logLevel
	}
	if g.logJSON {
		cfg.Log.JSON = true
	}
	return cfg, nil
}

// newLogger builds the process logger. The returned closer releases the
// log file, if any.
func (g *globalFlags) newLogger(cfg *config.Config, stderr io.Writer) (*logging.Logger, func(), error) {
	out := stderr
	closer := func() {}
	if g.logFile != "" {
		f, err := os.OpenFile(g.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closer = func() { _ = f.Close() }
	}
	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Output: out,
		Prefix: "slotwire",
		JSON:   cfg.Log.JSON,
	})
	return logger, closer, nil
}

// absPath resolves a path given on the command line against the working
// directory, so config-relative resolution does not apply to it.
func absPath(p string) string {
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
