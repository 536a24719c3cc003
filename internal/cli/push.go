package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/patchstore/internal/loader"
	"github.com/roach88/patchstore/internal/patch"
)

// NewPushCommand creates the push command.
func NewPushCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemoteOptions{RootOptions: rootOpts}
	var patchPath string

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Commit a patch batch to a served store",
		Long: `Send a patch batch to a store started with "serve" and print the
inverse batch the store returned.

Examples:
  patchstore push --patch add-todo.yaml --url ws://127.0.0.1:8080/`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(cmd, opts, patchPath)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&patchPath, "patch", "", "patch batch document")
	_ = cmd.MarkFlagRequired("patch")

	return cmd
}

func runPush(cmd *cobra.Command, opts *RemoteOptions, patchPath string) error {
	out := opts.formatter(cmd)

	ops, err := loader.LoadPatch(patchPath)
	if err != nil {
		return reportError(out, "failed to load patch", err)
	}

	ctx, cancel, client, err := opts.dial(cmd)
	if err != nil {
		return reportConnectError(out, opts.URL, err)
	}
	defer cancel()
	defer client.Close()

	inverse, err := client.Apply(ctx, ops)
	if err != nil {
		return reportError(out, "push failed", err)
	}
	return out.Value(patch.ToValue(inverse))
}
