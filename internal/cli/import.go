package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/plectrum/plectrum/internal/ingest"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	DryRun bool
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the configured CSV sources into the catalog",
		Long: `Import reads every configured repertoire CSV export, resolves composers
and works against the existing catalog, and merges duplicate sightings.
Re-running an import on unchanged files changes nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "load and validate sources without writing")

	return cmd
}

func runImport(cmd *cobra.Command, opts *ImportOptions) error {
	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.close()

	if len(e.cfg.Import.Sources) == 0 {
		return fmt.Errorf("no import sources configured")
	}

	pipeline := ingest.New(e.db, e.cfg.Sources(), ingest.Options{
		BatchSize: e.cfg.Import.BatchSize,
		DryRun:    opts.DryRun,
	}, e.logger)

	rep, err := pipeline.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s", rep.ID)
	if rep.DryRun {
		fmt.Fprint(out, " (dry run)")
	}
	fmt.Fprintln(out)
	for name, count := range rep.RowsPerSource {
		fmt.Fprintf(out, "  %-24s %d rows\n", name, count)
	}
	fmt.Fprintf(out, "rows seen:         %d\n", rep.RowsSeen)
	fmt.Fprintf(out, "composers created: %d\n", rep.ComposersCreated)
	fmt.Fprintf(out, "composers updated: %d\n", rep.ComposersUpdated)
	fmt.Fprintf(out, "works created:     %d\n", rep.WorksCreated)
	fmt.Fprintf(out, "works merged:      %d\n", rep.WorksMerged)
	fmt.Fprintf(out, "errors:            %d\n", rep.Errors)
	fmt.Fprintf(out, "elapsed:           %s\n", rep.CompletedAt.Sub(rep.StartedAt).Round(time.Millisecond))
	return nil
}
