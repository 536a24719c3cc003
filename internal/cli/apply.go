package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/patchstore/internal/loader"
	"github.com/roach88/patchstore/internal/patch"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	StatePath string
	PatchPath string
	Inverse   bool // print the inverse batch instead of the new state
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a patch batch to a state document",
		Long: `Apply a patch batch to a state document and print the resulting state.

The batch is applied all-or-nothing: if any operation fails (a test that
does not match, an unwritable path) nothing is printed but the error.
With --inverse the batch that undoes the change is printed instead.

Exit codes:
  0 - Batch applied
  1 - Batch rejected
  2 - Command error (unreadable document, etc.)

Examples:
  patchstore apply --state state.json --patch add-todo.yaml
  patchstore apply --state state.cue --patch fix.json --inverse
  patchstore apply --patch seed.json --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.StatePath, "state", "", "state document (default: empty object)")
	cmd.Flags().StringVar(&opts.PatchPath, "patch", "", "patch batch document")
	cmd.Flags().BoolVar(&opts.Inverse, "inverse", false, "print the inverse batch instead of the new state")
	_ = cmd.MarkFlagRequired("patch")

	return cmd
}

func runApply(cmd *cobra.Command, opts *ApplyOptions) error {
	out := opts.formatter(cmd)
	logger := opts.logger()

	state, err := loadState(opts.StatePath)
	if err != nil {
		return reportError(out, "failed to load state", err)
	}
	ops, err := loader.LoadPatch(opts.PatchPath)
	if err != nil {
		return reportError(out, "failed to load patch", err)
	}

	res, err := patch.Apply(ops, state)
	if err != nil {
		return reportError(out, "batch rejected", err)
	}
	logger.Debug("batch applied",
		zap.Int("operations", len(ops)),
		zap.Int("inverse_operations", len(res.Inverse)))

	if opts.Inverse {
		return out.Value(patch.ToValue(res.Inverse))
	}
	return out.Value(res.Root)
}
