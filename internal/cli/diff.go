package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/patchstore/internal/patch"
)

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <from> <to>",
		Short: "Print the batch that turns one state into another",
		Long: `Compute the patch batch that turns the first state document into the
second. Applying the printed batch to <from> yields <to>.

Both roots must be containers of the same kind.

Examples:
  patchstore diff before.json after.yaml
  patchstore diff before.cue after.cue --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, rootOpts, args[0], args[1])
		},
	}
	return cmd
}

func runDiff(cmd *cobra.Command, opts *RootOptions, fromPath, toPath string) error {
	out := opts.formatter(cmd)

	from, err := loadState(fromPath)
	if err != nil {
		return reportError(out, "failed to load "+fromPath, err)
	}
	to, err := loadState(toPath)
	if err != nil {
		return reportError(out, "failed to load "+toPath, err)
	}

	ops, err := patch.Diff(from, to)
	if err != nil {
		return fail(out, ErrCodeDiffFailed, ExitFailure, "diff failed", err)
	}
	return out.Value(patch.ToValue(ops))
}
