package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/patch"
	"github.com/roach88/patchstore/internal/pointer"
)

// Client issues requests to a remote store.
// It is safe for concurrent use; responses are matched to requests by id.
type Client struct {
	conn   Conn
	logger *zap.Logger
	newID  func() string

	mu      sync.Mutex
	pending map[string]chan Response
	err     error // set once the read loop stops
	done    chan struct{}
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRequestIDs overrides the request id generator. Ids must be unique
// among requests in flight on one connection.
func WithRequestIDs(fn func() string) ClientOption {
	return func(c *Client) {
		c.newID = fn
	}
}

// WithClientLogger sets the logger for connection diagnostics.
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient starts a client on conn. The client owns conn from here on.
func NewClient(conn Conn, opts ...ClientOption) *Client {
	c := &Client{
		conn:    conn,
		logger:  zap.NewNop(),
		newID:   uuid.NewString,
		pending: make(map[string]chan Response),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.readLoop()
	return c
}

// Dial connects to a websocket server at url and starts a client on it.
func Dial(ctx context.Context, url string, opts ...ClientOption) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewClient(NewWebSocketConn(ws), opts...), nil
}

// Apply commits ops on the remote store and returns the inverse batch.
func (c *Client) Apply(ctx context.Context, ops []patch.Operation) ([]patch.Operation, error) {
	if ops == nil {
		ops = []patch.Operation{}
	}
	resp, err := c.roundTrip(ctx, Request{Type: TypeApply, Operations: ops})
	if err != nil {
		return nil, err
	}
	if resp.Operations == nil {
		return []patch.Operation{}, nil
	}
	return resp.Operations, nil
}

// Get reads the value at p on the remote store.
func (c *Client) Get(ctx context.Context, p pointer.Pointer) (ir.Value, bool, error) {
	resp, err := c.roundTrip(ctx, Request{Type: TypeGet, Pointer: p.String()})
	if err != nil {
		return nil, false, err
	}
	if !resp.Found {
		return nil, false, nil
	}
	v, err := ir.UnmarshalValue(resp.Value)
	if err != nil {
		return nil, false, fmt.Errorf("decode value at %s: %w", p, err)
	}
	return v, true, nil
}

// Close closes the connection. Requests still in flight fail.
func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Client) roundTrip(ctx context.Context, req Request) (Response, error) {
	req.ID = c.newID()
	fail := func(err error) error {
		return &FailureError{RequestID: req.ID, Type: req.Type, Err: err}
	}

	data, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode %s request: %w", req.Type, err)
	}

	ch := make(chan Response, 1)
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return Response{}, fail(err)
	}
	c.pending[req.ID] = ch
	c.mu.Unlock()

	if err := c.conn.Send(ctx, data); err != nil {
		c.forget(req.ID)
		return Response{}, fail(err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			c.mu.Lock()
			err := c.err
			c.mu.Unlock()
			return Response{}, fail(err)
		}
		if resp.Error != nil {
			return Response{}, resp.Error
		}
		return resp, nil
	case <-ctx.Done():
		c.forget(req.ID)
		return Response{}, fail(ctx.Err())
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// readLoop delivers responses until the connection fails, then fails every
// request still waiting.
func (c *Client) readLoop() {
	defer close(c.done)

	for {
		data, err := c.conn.Receive(context.Background())
		if err != nil {
			c.shutdown(err)
			return
		}

		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			c.logger.Warn("discarding malformed response", zap.Error(err))
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()

		if !ok {
			// Late reply to a request whose caller gave up.
			c.logger.Debug("discarding unmatched response", zap.String("request_id", resp.ID))
			continue
		}
		ch <- resp
	}
}

func (c *Client) shutdown(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.err = err
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.logger.Debug("connection closed", zap.Error(err))
}
