package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/patchstore/internal/store"
	"github.com/roach88/patchstore/internal/transport"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr      string
	Path      string
	StatePath string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a store over a websocket",
		Long: `Hold a store in memory and answer apply/get requests over a websocket.

Clients send JSON requests ({"id","type","operations","pointer"}) and
receive responses correlated by id. Every committed batch is logged with
the new store version.

Examples:
  patchstore serve --addr :8080
  patchstore serve --addr 127.0.0.1:9000 --state initial.yaml -v`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&opts.Path, "path", "/", "websocket endpoint path")
	cmd.Flags().StringVar(&opts.StatePath, "state", "", "initial state document (default: empty object)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	out := opts.formatter(cmd)
	logger := opts.logger()

	initial, err := loadState(opts.StatePath)
	if err != nil {
		return reportError(out, "failed to load state", err)
	}
	s := store.New(store.WithInitial(initial), store.WithLogger(logger))

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", zap.Stringer("signal", sig))
			cancel()
		case <-ctx.Done():
		}
	}()

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return fail(out, ErrCodeServeFailed, ExitCommandError, "failed to listen", err)
	}

	mux := http.NewServeMux()
	mux.Handle(opts.Path, transport.NewServer(s, transport.WithServerLogger(logger)).Handler())
	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		// Websocket connections are hijacked; tie them to ctx so they
		// close on shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go logChanges(ctx, s, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Serve(ln)
	}()

	logger.Info("store serving",
		zap.String("store_id", s.ID()),
		zap.String("addr", ln.Addr().String()),
		zap.String("path", opts.Path))
	fmt.Fprintf(cmd.OutOrStdout(), "Serving store on ws://%s%s\n", ln.Addr(), opts.Path)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitFailure, "server error", err)
		}
		return nil
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown failed", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}

// logChanges logs the store version after each coalesced change signal.
func logChanges(ctx context.Context, s *store.Store, logger *zap.Logger) {
	changes, stop := s.Watch()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			logger.Info("state changed",
				zap.String("store_id", s.ID()),
				zap.Int64("version", s.Version()))
		}
	}
}
