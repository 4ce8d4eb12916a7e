package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plectrum/plectrum/internal/dedup"
)

// DedupOptions holds flags for the dedup command.
type DedupOptions struct {
	*RootOptions
	DryRun bool
}

// NewDedupCommand creates the dedup command.
func NewDedupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DedupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Remove duplicate works sharing a title and composer",
		Long: `Dedup finds works that share an exact title and composer, keeps the
oldest record in each group, and deletes the rest. Use --dry-run to see
what would be removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDedup(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report duplicate groups without deleting")

	return cmd
}

func runDedup(cmd *cobra.Command, opts *DedupOptions) error {
	e, err := openEnv(opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.close()

	res, err := dedup.New(e.db, e.logger).Run(cmd.Context(), opts.DryRun)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s", res.ID)
	if res.DryRun {
		fmt.Fprint(out, " (dry run)")
	}
	fmt.Fprintln(out)
	for _, g := range res.Planned {
		fmt.Fprintf(out, "  %q (composer %d): %d copies, keeping %d\n",
			g.Title, g.ComposerID, g.Count, g.KeepID)
	}
	fmt.Fprintf(out, "duplicate groups: %d\n", res.GroupsFound)
	if !res.DryRun {
		fmt.Fprintf(out, "works deleted:    %d\n", res.WorksDeleted)
		if res.RemainingGroups > 0 {
			fmt.Fprintf(out, "groups remaining: %d\n", res.RemainingGroups)
		}
	}
	return nil
}
