package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/slotwire/internal/app"
	"github.com/dshills/slotwire/internal/config"
)

type runFlags struct {
	manifest string
	headless bool
	duration time.Duration
	watch    bool
}

func newRunCommand(g *globalFlags) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [manifest]",
		Short: "Build a manifest and run the loop",
		Long: `Run builds the wiring manifest and drives it until a quit slot fires,
the process is interrupted, or --duration elapses.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				f.manifest = args[0]
			}
			return runManifest(cmd, g, f)
		},
	}
	cmd.Flags().StringVarP(&f.manifest, "manifest", "m", "", "wiring manifest (YAML)")
	cmd.Flags().BoolVar(&f.headless, "headless", false, "use the headless toolkit")
	cmd.Flags().DurationVar(&f.duration, "duration", 0, "stop after this long (0 runs until quit)")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "reload the config file when it changes")
	return cmd
}

func runManifest(cmd *cobra.Command, g *globalFlags, f runFlags) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if f.manifest != "" {
		cfg.Manifest.Path = absPath(f.manifest)
	}
	if f.headless {
		cfg.Toolkit.Backend = config.BackendHeadless
	}
	if cfg.ManifestPath() == "" {
		return errors.New("no manifest: pass one as an argument or set manifest.path")
	}

	logger, closeLog, err := g.newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	application, err := app.New(app.Options{
		Config: cfg,
		Logger: logger,
		Watch:  f.watch,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if f.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.duration)
		defer cancel()
	}

	if err := application.Run(ctx); err != nil {
		return err
	}
	logger.Debug("stopped after %d polls", application.Polls())
	return nil
}
