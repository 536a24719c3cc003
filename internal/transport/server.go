package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/roach88/patchstore/internal/ir"
	"github.com/roach88/patchstore/internal/patch"
	"github.com/roach88/patchstore/internal/pointer"
	"github.com/roach88/patchstore/internal/store"
)

// Error codes reported for requests the server could not decode.
const (
	CodeBadRequest     = "BAD_REQUEST"
	CodeInvalidPointer = pointer.CodeInvalidPointer
)

// Server answers remote requests against a local store.
type Server struct {
	store    *store.Store
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the logger for request diagnostics.
func WithServerLogger(logger *zap.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCheckOrigin overrides the websocket origin check used by Handler.
func WithCheckOrigin(fn func(r *http.Request) bool) ServerOption {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// NewServer creates a server for s.
func NewServer(s *store.Store, opts ...ServerOption) *Server {
	srv := &Server{
		store:  s,
		logger: zap.NewNop(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Serve answers requests arriving on conn until it closes or ctx ends.
// Requests are handled concurrently; commits still serialize in the store.
// Serve closes conn before returning and returns nil on an orderly close.
func (srv *Server) Serve(ctx context.Context, conn Conn) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	defer conn.Close()

	for {
		data, err := conn.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrClosed) {
				return nil
			}
			srv.logger.Warn("receive failed", zap.Error(err))
			return err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := srv.handle(data)
			out, err := json.Marshal(resp)
			if err != nil {
				srv.logger.Error("encode response", zap.String("request_id", resp.ID), zap.Error(err))
				return
			}
			if err := conn.Send(ctx, out); err != nil {
				srv.logger.Debug("response dropped", zap.String("request_id", resp.ID), zap.Error(err))
			}
		}()
	}
}

// Handler returns an http.Handler that upgrades to a websocket and serves
// the connection for the lifetime of the request.
func (srv *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := srv.upgrader.Upgrade(w, r, nil)
		if err != nil {
			srv.logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		srv.logger.Debug("client connected", zap.String("remote_addr", r.RemoteAddr))
		if err := srv.Serve(r.Context(), NewWebSocketConn(ws)); err != nil {
			srv.logger.Warn("connection ended", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		}
	})
}

// handle decodes and executes one request.
func (srv *Server) handle(data []byte) Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		var envelope struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(data, &envelope)
		return Response{ID: envelope.ID, Error: remoteError(err)}
	}

	switch req.Type {
	case TypeApply:
		return srv.apply(req)
	case TypeGet:
		return srv.get(req)
	default:
		return Response{ID: req.ID, Error: &RemoteError{
			Code:    CodeBadRequest,
			Message: "unknown request type " + string(req.Type),
		}}
	}
}

func (srv *Server) apply(req Request) Response {
	inverse, err := srv.store.Apply(req.Operations)
	if err != nil {
		return Response{ID: req.ID, Error: remoteError(err)}
	}
	srv.store.Invalidate()
	srv.logger.Debug("remote batch committed",
		zap.String("request_id", req.ID),
		zap.Int("operations", len(req.Operations)))
	return Response{ID: req.ID, Operations: inverse}
}

func (srv *Server) get(req Request) Response {
	p, err := pointer.Parse(req.Pointer)
	if err != nil {
		return Response{ID: req.ID, Error: &RemoteError{Code: CodeInvalidPointer, Message: err.Error()}}
	}
	v, ok := srv.store.Get(p)
	if !ok {
		return Response{ID: req.ID}
	}
	raw, err := ir.MarshalValue(v)
	if err != nil {
		return Response{ID: req.ID, Error: &RemoteError{Code: CodeBadRequest, Message: err.Error()}}
	}
	return Response{ID: req.ID, Value: raw, Found: true}
}

// remoteError carries a patch error code across the wire when there is one.
func remoteError(err error) *RemoteError {
	code := string(patch.ErrorCode(err))
	if code == "" {
		code = CodeBadRequest
	}
	return &RemoteError{Code: code, Message: err.Error()}
}
