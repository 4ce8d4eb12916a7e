package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/plectrum/plectrum/internal/ingest"
	"github.com/plectrum/plectrum/internal/watcher"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the source files and import on change",
		Long: `Watch blocks, watching the configured source CSV files, and runs an
import whenever one of them changes. Rapid successive changes coalesce
into a single import after the configured debounce period.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, rootOpts)
		},
	}
}

func runWatch(cmd *cobra.Command, rootOpts *RootOptions) error {
	e, err := openEnv(rootOpts)
	if err != nil {
		return err
	}
	defer e.close()

	if len(e.cfg.Import.Sources) == 0 {
		return fmt.Errorf("no import sources configured")
	}

	sources := e.cfg.Sources()
	importFn := func(ctx context.Context) error {
		pipeline := ingest.New(e.db, sources, ingest.Options{
			BatchSize: e.cfg.Import.BatchSize,
		}, e.logger)
		_, err := pipeline.Run(ctx)
		return err
	}

	paths := make([]string, 0, len(sources))
	for _, src := range sources {
		paths = append(paths, src.Path)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	debounce := time.Duration(e.cfg.Watch.DebounceSeconds) * time.Second
	svc := watcher.NewService(importFn, paths, debounce, e.logger)

	fmt.Fprintln(cmd.OutOrStdout(), "Watching source files. Press Ctrl-C to stop.")
	svc.Start(ctx)
	return nil
}
