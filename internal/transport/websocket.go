package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// closeGrace bounds how long Close waits to deliver the close frame.
const closeGrace = time.Second

// WebSocketConn adapts a gorilla websocket connection to Conn.
type WebSocketConn struct {
	conn *websocket.Conn

	// Write mutex to ensure thread-safe writes
	writeMu   sync.Mutex
	closeOnce sync.Once
}

// NewWebSocketConn wraps an established websocket connection.
func NewWebSocketConn(conn *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{conn: conn}
}

// Send writes one text message. A context deadline becomes the write deadline.
func (c *WebSocketConn) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	_ = c.conn.SetWriteDeadline(deadline)

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return translate(err)
	}
	return nil
}

// Receive reads the next data message. A context deadline becomes the read
// deadline; cancellation without a deadline is not observed mid-read.
func (c *WebSocketConn) Receive(ctx context.Context) ([]byte, error) {
	deadline, _ := ctx.Deadline()
	_ = c.conn.SetReadDeadline(deadline)

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, translate(err)
		}
		// Only handle text and binary messages
		if messageType == websocket.TextMessage || messageType == websocket.BinaryMessage {
			return data, nil
		}
	}
}

// Close sends a close frame and closes the underlying connection.
func (c *WebSocketConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeGrace))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// translate maps orderly shutdowns onto ErrClosed.
func translate(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, websocket.ErrCloseSent) {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return err
}
