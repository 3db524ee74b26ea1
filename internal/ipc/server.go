package ipc

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Handler answers one request. It is called from connection goroutines.
type Handler func(ctx context.Context, req Request) Response

// Server accepts control connections on a unix socket.
type Server struct {
	path    string
	handler Handler
	logger  *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[string]net.Conn
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	onKill func()
}

// NewServer creates a server that will listen on path.
func NewServer(path string, handler Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		path:    path,
		handler: handler,
		logger:  logger,
		conns:   make(map[string]net.Conn),
	}
}

// SetKillCallback sets the function run after a successful Kill response
// has been written. It runs on its own goroutine and may call Stop.
func (s *Server) SetKillCallback(cb func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onKill = cb
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.path
}

// Start creates the socket and begins accepting connections. A stale socket
// file left by a previous daemon is replaced; a live one is an error.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create socket dir: %w", err)
	}
	if _, err := os.Stat(s.path); err == nil {
		if conn, err := net.DialTimeout("unix", s.path, 200*time.Millisecond); err == nil {
			_ = conn.Close()
			return fmt.Errorf("another daemon is listening on %s", s.path)
		}
		if err := os.Remove(s.path); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	l, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.path, err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		_ = l.Close()
		return fmt.Errorf("failed to restrict socket: %w", err)
	}

	s.listener = l
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.wg.Add(1)
	go s.acceptLoop(l)

	s.logger.Info("ipc server listening", "path", s.path)
	return nil
}

// Stop closes the listener and every open connection and waits for the
// connection goroutines to finish.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.listener == nil {
		s.mu.Unlock()
		return
	}
	s.cancel()
	_ = s.listener.Close()
	s.listener = nil
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	_ = os.Remove(s.path)
	s.logger.Info("ipc server stopped")
}

func (s *Server) acceptLoop(l net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("ipc accept failed", "error", err)
			continue
		}

		id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
		s.mu.Lock()
		if s.listener == nil {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conns[id] = conn
		s.wg.Add(1)
		s.mu.Unlock()

		go s.serve(id, conn)
	}
}

func (s *Server) serve(id string, conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, id)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	logger := s.logger.With("conn", id)
	logger.Debug("ipc connection opened")

	for {
		body, err := ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logger.Warn("ipc read failed", "error", err)
			}
			logger.Debug("ipc connection closed")
			return
		}

		var resp Response
		var kill bool
		req, err := UnmarshalRequest(body)
		if err != nil {
			logger.Warn("ipc request rejected", "error", err)
			resp = Errorf("invalid request: %v", err)
		} else {
			logger.Debug("ipc request", "kind", req.Kind)
			resp = s.handler(s.ctx, req)
			kill = req.Kind == KindKill && resp.OK
		}

		if err := WriteFrame(conn, MarshalResponse(resp)); err != nil {
			logger.Warn("ipc write failed", "error", err)
			return
		}

		if kill {
			s.mu.Lock()
			cb := s.onKill
			s.mu.Unlock()
			if cb != nil {
				logger.Info("kill requested")
				go cb()
			}
		}
	}
}
