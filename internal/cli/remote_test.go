package cli

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/store"
	"github.com/roach88/patchstore/internal/transport"
)

// serveStore starts a websocket server for s and returns its URL.
func serveStore(t *testing.T, s *store.Store) string {
	t.Helper()
	hs := httptest.NewServer(transport.NewServer(s).Handler())
	t.Cleanup(hs.Close)
	return "ws" + strings.TrimPrefix(hs.URL, "http")
}

func todoStore() *store.Store {
	return store.New(store.WithInitial(ir.Object{
		"todos": ir.Array{ir.Object{"title": ir.String("milk")}},
	}))
}

func TestGetCommand(t *testing.T) {
	url := serveStore(t, todoStore())

	out, err := execute(NewGetCommand(&RootOptions{Format: "text"}), "--url", url, "/todos/0")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"milk"}`+"\n", out)
}

func TestGetCommandJSON(t *testing.T) {
	url := serveStore(t, todoStore())

	out, err := execute(NewGetCommand(&RootOptions{Format: "json"}), "--url", url, "/todos/0/title")
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, `"milk"`, string(resp.Data))
}

func TestGetCommandNotFound(t *testing.T) {
	url := serveStore(t, todoStore())

	out, err := execute(NewGetCommand(&RootOptions{Format: "json"}), "--url", url, "/todos/5")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestGetCommandInvalidPointer(t *testing.T) {
	_, err := execute(NewGetCommand(&RootOptions{Format: "text"}), "/")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "INVALID_POINTER")
}

func TestGetCommandUnreachable(t *testing.T) {
	hs := httptest.NewServer(nil)
	url := "ws" + strings.TrimPrefix(hs.URL, "http")
	hs.Close()

	_, err := execute(NewGetCommand(&RootOptions{Format: "text"}), "--url", url, "--timeout", "2s", "/a")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "cannot reach")
}

func TestPushCommand(t *testing.T) {
	s := todoStore()
	url := serveStore(t, s)
	dir := t.TempDir()
	p := writeDoc(t, dir, "patch.yaml", "- {op: replace, path: /todos/0/title, value: eggs}\n")

	changes, stop := s.Watch()
	defer stop()

	out, err := execute(NewPushCommand(&RootOptions{Format: "text"}), "--url", url, "--patch", p)
	require.NoError(t, err)
	assert.Equal(t,
		`[{"op":"test","path":"/todos/0/title","value":"eggs"},{"op":"replace","path":"/todos/0/title","value":"milk"}]`+"\n",
		out)

	got, found := s.Get(s.Path("todos", "0", "title"))
	require.True(t, found)
	assert.Equal(t, ir.String("eggs"), got)

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("store was not invalidated after push")
	}
}

func TestPushCommandRejected(t *testing.T) {
	s := todoStore()
	url := serveStore(t, s)
	dir := t.TempDir()
	p := writeDoc(t, dir, "patch.json", `[{"op":"test","path":"/todos","value":[]}]`)

	_, err := execute(NewPushCommand(&RootOptions{Format: "text"}), "--url", url, "--patch", p)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "TEST_FAILED")
	assert.Equal(t, int64(0), s.Version())
}

func TestServeCommandStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	state := writeDoc(t, dir, "state.yaml", "count: 1\n")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	cmd := NewServeCommand(&RootOptions{Format: "text"})
	cmd.SetContext(ctx)
	out, err := execute(cmd, "--addr", "127.0.0.1:0", "--state", state)
	require.NoError(t, err)
	assert.Contains(t, out, "Serving store on ws://127.0.0.1:")
}

func TestServeCommandBadAddress(t *testing.T) {
	_, err := execute(NewServeCommand(&RootOptions{Format: "text"}), "--addr", "not-an-address")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLogChangesStopsWithContext(t *testing.T) {
	s := store.New()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		logChanges(ctx, s, (&RootOptions{}).logger())
		close(done)
	}()

	s.Invalidate()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("logChanges did not return")
	}
	assert.Eventually(t, func() bool { return s.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}
