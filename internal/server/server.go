// Package server runs the HTTP and gRPC listeners of the service and stops them
// when the context is canceled.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-sod/vtml/internal/logging"
	"golang.org/x/net/netutil"
	"google.golang.org/grpc"
)

const shutdownTimeout = 5 * time.Second

type Option func(*Server)

// WithMaxConns caps simultaneous connections accepted by the listener. Zero
// means no cap.
func WithMaxConns(n int) Option {
	return func(s *Server) {
		s.maxConns = n
	}
}

type Server struct {
	addr     string
	maxConns int
	listener net.Listener
}

func New(addr string, opts ...Option) (*Server, error) {
	s := &Server{addr: addr}
	for _, f := range opts {
		f(s)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to create listener on %s: %w", addr, err)
	}
	if s.maxConns > 0 {
		listener = netutil.LimitListener(listener, s.maxConns)
	}
	s.listener = listener

	return s, nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func (s *Server) ServeHTTP(ctx context.Context, srv *http.Server) error {
	logger := logging.FromContext(ctx)
	errCh := make(chan error, 1)
	go func() {
		<-ctx.Done()

		logger.Debugf("server.Serve: context closed")
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()

		logger.Debugf("server.Serve: shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			select {
			case errCh <- err:
			default:
			}
		}
	}()

	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}

	logger.Debugf("server.Serve: serving stopped")

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to shutdown: %w", err)
	default:
		return nil
	}
}

func (s *Server) ServeHTTPHandler(ctx context.Context, handler http.Handler) error {
	return s.ServeHTTP(ctx, &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	})
}

// ServeGRPC serves srv on its own listener bound to addr until ctx is done.
func ServeGRPC(ctx context.Context, addr string, srv *grpc.Server) error {
	logger := logging.FromContext(ctx)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create grpc listener on %s: %w", addr, err)
	}
	return serveGRPC(ctx, listener, srv, logger.Debugf)
}

func serveGRPC(ctx context.Context, listener net.Listener, srv *grpc.Server, debugf func(string, ...interface{})) error {
	debugf("server.ServeGRPC: listening on %s", listener.Addr())
	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			debugf("server.ServeGRPC: context closed")
			srv.GracefulStop()
		case <-stopped:
		}
	}()
	defer close(stopped)

	if err := srv.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve grpc: %w", err)
	}

	debugf("server.ServeGRPC: serving stopped")
	return nil
}
