package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/patchstore/internal/pointer"
	"github.com/roach88/patchstore/internal/transport"
)

// RemoteOptions holds flags shared by commands that talk to a served store.
type RemoteOptions struct {
	*RootOptions
	URL     string
	Timeout time.Duration
}

func (o *RemoteOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.URL, "url", "ws://127.0.0.1:8080/", "websocket URL of a served store")
	cmd.Flags().DurationVar(&o.Timeout, "timeout", 10*time.Second, "request timeout")
}

// dial connects to the served store; the returned context bounds the request.
func (o *RemoteOptions) dial(cmd *cobra.Command) (context.Context, context.CancelFunc, *transport.Client, error) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, o.Timeout)

	client, err := transport.Dial(ctx, o.URL, transport.WithClientLogger(o.logger()))
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return ctx, cancel, client, nil
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemoteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <pointer>",
		Short: "Read a value from a served store",
		Long: `Read the value at a JSON pointer from a store started with "serve".

Exit codes:
  0 - Value found
  1 - Nothing at the pointer
  2 - Command error (invalid pointer, unreachable server, etc.)

Examples:
  patchstore get /todos/0 --url ws://127.0.0.1:8080/
  patchstore get /settings/theme --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, opts, args[0])
		},
	}
	opts.bind(cmd)

	return cmd
}

func runGet(cmd *cobra.Command, opts *RemoteOptions, raw string) error {
	out := opts.formatter(cmd)

	p, err := pointer.Parse(raw)
	if err != nil {
		return fail(out, pointer.CodeInvalidPointer, ExitCommandError, "invalid pointer", err)
	}

	ctx, cancel, client, err := opts.dial(cmd)
	if err != nil {
		return reportConnectError(out, opts.URL, err)
	}
	defer cancel()
	defer client.Close()

	v, found, err := client.Get(ctx, p)
	if err != nil {
		return reportError(out, "get failed", err)
	}
	if !found {
		msg := fmt.Sprintf("nothing at %s", p)
		if opts.Format == "json" {
			if err := out.Error(ErrCodeNotFound, msg, nil); err != nil {
				return err
			}
		}
		return NewExitError(ExitFailure, msg)
	}
	return out.Value(v)
}

func reportConnectError(out *OutputFormatter, url string, err error) error {
	return fail(out, ErrCodeConnect, ExitCommandError, "cannot reach "+url, err)
}
