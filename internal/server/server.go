package server

import (
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"go.uber.org/zap"
)

// Handler owns conn until it returns and must close it.
type Handler func(conn net.Conn)

type Server struct {
	Listener net.Listener
	Closed   atomic.Bool

	handler    Handler
	dispatcher Dispatcher
	log        *zap.Logger
	done       chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithDispatcher replaces the default unbounded dispatcher.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Server) {
		s.dispatcher = d
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// ListenError reports a failure to bind the listening socket.
type ListenError struct {
	Port  int
	Cause error
}

func (e *ListenError) Error() string {
	return fmt.Sprintf("failed to listen on port %d: %s", e.Port, e.Cause)
}

func (e *ListenError) Unwrap() error {
	return e.Cause
}

func (s *Server) listen() {
	defer close(s.done)

	for {
		conn, err := s.Listener.Accept()
		if err != nil {
			if s.Closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn("accept error", zap.Error(err))
			continue
		}

		s.log.Debug("new connection", zap.Stringer("remote_addr", conn.RemoteAddr()))
		s.dispatcher.Dispatch(func() {
			s.handler(conn)
		})
	}
}

// Addr is the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.Listener.Addr()
}

// Close stops accepting connections. Workers already running are left to
// finish on their own.
func (s *Server) Close() error {
	s.Closed.Store(true)
	if s.Listener != nil {
		return s.Listener.Close()
	}
	return nil
}

// Wait blocks until the accept loop has exited and every dispatched
// connection has been handled. It only returns after Close.
func (s *Server) Wait() {
	<-s.done
	s.dispatcher.Wait()
}

// Serve binds port on all interfaces and starts accepting connections in the
// background, handing each one to handler.
func Serve(handler Handler, port int, opts ...Option) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, &ListenError{Port: port, Cause: err}
	}

	server := &Server{
		Listener:   listener,
		handler:    handler,
		dispatcher: Unbounded(),
		log:        zap.NewNop(),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(server)
	}

	go server.listen()

	return server, nil
}
