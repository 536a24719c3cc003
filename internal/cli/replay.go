package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/patchstore/internal/history"
	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/loader"
	"github.com/roach88/patchstore/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	StatePath string
}

// ReplayResult holds the outcome of replaying a persisted history.
type ReplayResult struct {
	Entries       int             `json:"entries"`
	Cursor        int             `json:"cursor"`
	CanRedo       bool            `json:"can_redo"`
	Hash          string          `json:"hash"`
	Deterministic bool            `json:"deterministic"`
	Reversible    bool            `json:"reversible"`
	State         json.RawMessage `json:"state"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <history>",
		Short: "Replay a persisted history and verify determinism",
		Long: `Replay a serialized undo/redo history onto a state document.

Entries before the cursor are applied in order; the rest stay redoable.
The history is replayed twice into independent stores and the resulting
snapshots must hash equal. The second replay is then undone to the start
and must reproduce the initial state exactly.

Exit codes:
  0 - Replay is deterministic and reversible
  1 - Verification failed or an entry was rejected
  2 - Command error (unreadable document, malformed history, etc.)

Examples:
  patchstore replay history.json
  patchstore replay history.yaml --state initial.json
  patchstore replay history.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.StatePath, "state", "", "initial state document (default: empty object)")

	return cmd
}

func runReplay(cmd *cobra.Command, opts *ReplayOptions, historyPath string) error {
	out := opts.formatter(cmd)
	logger := opts.logger()

	initial, err := loadState(opts.StatePath)
	if err != nil {
		return reportError(out, "failed to load state", err)
	}
	data, err := loader.LoadHistory(historyPath)
	if err != nil {
		return reportError(out, "failed to load history", err)
	}

	first, err := replayOnce(initial, data, logger)
	if err != nil {
		return reportError(out, "replay failed", err)
	}
	second, err := replayOnce(initial, data, logger)
	if err != nil {
		return reportError(out, "replay failed", err)
	}

	firstHash, err := ir.SnapshotHash(first.store.Snapshot())
	if err != nil {
		return reportError(out, "failed to hash state", err)
	}
	secondHash, err := ir.SnapshotHash(second.store.Snapshot())
	if err != nil {
		return reportError(out, "failed to hash state", err)
	}
	state, err := ir.MarshalCanonical(first.store.Snapshot())
	if err != nil {
		return reportError(out, "failed to encode state", err)
	}

	result := ReplayResult{
		Entries:       len(data.History),
		Cursor:        data.Cursor,
		CanRedo:       first.manager.CanRedo(first.store),
		Hash:          firstHash,
		Deterministic: firstHash == secondHash,
		State:         state,
	}

	result.Reversible, err = second.rewind(initial)
	if err != nil {
		return reportError(out, "undo failed", err)
	}
	logger.Debug("history replayed",
		zap.Int("entries", result.Entries),
		zap.Int("cursor", result.Cursor),
		zap.String("hash", result.Hash),
		zap.Bool("deterministic", result.Deterministic),
		zap.Bool("reversible", result.Reversible))

	if opts.Format == "json" {
		return outputReplayJSON(out, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replay is one store with a history restored into it.
type replay struct {
	store   *store.Store
	manager *history.Manager
}

func replayOnce(initial ir.Value, data history.Serialized, logger *zap.Logger) (*replay, error) {
	s := store.New(
		store.WithInitial(initial),
		store.WithID("replay"),
		store.WithLogger(logger),
	)
	m := history.NewManager(history.WithLogger(logger))
	if err := m.Deserialize(s, data); err != nil {
		return nil, err
	}
	return &replay{store: s, manager: m}, nil
}

// rewind undoes every applied entry and reports whether the store is back
// at initial.
func (r *replay) rewind(initial ir.Value) (bool, error) {
	for r.manager.CanUndo(r.store) {
		if err := r.manager.Undo(r.store); err != nil {
			return false, err
		}
	}
	return ir.Equal(r.store.Snapshot(), initial), nil
}

func outputReplayJSON(out *OutputFormatter, result ReplayResult) error {
	if result.Deterministic && result.Reversible {
		return out.Success(result)
	}

	if err := out.Error(ErrCodeDeterminism, verificationMessage(result), result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, verificationMessage(result))
}

func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d entries, cursor %d\n", result.Entries, result.Cursor)
	if verbose {
		fmt.Fprintf(w, "  Hash: %s\n", result.Hash)
		fmt.Fprintf(w, "  Redo available: %v\n", result.CanRedo)
	}
	fmt.Fprintf(w, "  State: %s\n", result.State)
	fmt.Fprintln(w)

	if result.Deterministic && result.Reversible {
		fmt.Fprintln(w, "\u2713 Replay verified deterministic and reversible")
		return nil
	}

	if !result.Deterministic {
		fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
	}
	if !result.Reversible {
		fmt.Fprintln(w, "  Warning: Undoing the history did not restore the initial state!")
	}
	fmt.Fprintln(w, "\u2717 Replay verification failed")
	return NewExitError(ExitFailure, verificationMessage(result))
}

func verificationMessage(result ReplayResult) string {
	if !result.Deterministic {
		return "determinism verification failed"
	}
	return "reversibility verification failed"
}
