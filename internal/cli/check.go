package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/slotwire/internal/app"
	"github.com/dshills/slotwire/internal/config"
	"github.com/dshills/slotwire/internal/logging"
	"github.com/dshills/slotwire/internal/manifest"
)

func newCheckCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check [manifest]",
		Short: "Validate a manifest and print its wiring",
		Long: `Check loads and validates the manifest, builds it against a headless
toolkit without running the loop, and prints the resulting signals,
connections and timers.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Manifest.Path = absPath(args[0])
			}
			path := cfg.ManifestPath()
			if path == "" {
				return errors.New("no manifest: pass one as an argument or set manifest.path")
			}
			m, err := manifest.Load(path)
			if err != nil {
				return err
			}
			if err := m.Validate(); err != nil {
				return fmt.Errorf("%s is invalid:\n%w", path, err)
			}

			cfg.Toolkit.Backend = config.BackendHeadless
			application, err := app.New(app.Options{
				Config:   cfg,
				Manifest: m,
				Logger:   logging.Null,
			})
			if err != nil {
				return err
			}
			defer application.Shutdown()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: ok\n", path)
			return application.Graph().Describe(out)
		},
	}
}
