// Package server implements the TCP listener and per-connection sessions of
// the chat server. The server accepts connections, wraps each one in a
// Session running in its own goroutine, and tears everything down on Stop.
// Failures on one connection never affect the accept loop or any other
// connection.
package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/cyberinferno/go-chat-server/config"
	"github.com/cyberinferno/go-chat-server/logger"
	"github.com/cyberinferno/go-chat-server/registry"
	"github.com/cyberinferno/go-chat-server/router"
)

// Server is the chat server's TCP acceptor. Populate the exported fields
// and call Start; the accept loop runs in a goroutine until Stop. Sessions
// are tracked by connection id so Stop can close every live connection.
type Server struct {
	Logger logger.Logger
	Addr   string
	// Router dispatches decoded requests; required.
	Router *router.Router
	// Registry maps authenticated user ids to sessions; created on Start
	// when nil.
	Registry *registry.Registry[*Session]
	// MaxLineBytes caps the length of one wire line; defaulted on Start.
	MaxLineBytes int

	listener net.Listener
	running  atomic.Bool
	nextID   atomic.Uint64
	sessions sync.Map // connection id -> *Session
	wg       sync.WaitGroup
}

// Start binds Addr and begins accepting connections in a goroutine. It is
// an error to call Start while the server is already running.
//
// Returns:
//   - An error if the server is already running, misconfigured, or if
//     listening on Addr fails
func (s *Server) Start() error {
	if s.Router == nil {
		return fmt.Errorf("server: router is required")
	}
	if s.Logger == nil {
		s.Logger = logger.Nop()
	}
	if s.Registry == nil {
		s.Registry = registry.New[*Session]()
	}
	if s.MaxLineBytes <= 0 {
		s.MaxLineBytes = config.DefaultMaxLineBytes
	}

	if s.running.Load() {
		return fmt.Errorf("server already running on %s", s.Addr)
	}

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	s.listener = ln
	s.running.Store(true)

	s.Logger.Info("chat server started", logger.Field{Key: "addr", Value: ln.Addr().String()})
	go s.acceptLoop()

	return nil
}

// Stop stops the server: it closes the listener, closes every live session
// (which deregisters authenticated ones), and waits for all session
// goroutines to exit. Safe to call when the server is not running.
func (s *Server) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}

	if s.listener != nil {
		_ = s.listener.Close()
	}

	s.sessions.Range(func(_, v any) bool {
		_ = v.(*Session).Close()
		return true
	})
	s.wg.Wait()

	s.Logger.Info("chat server stopped")
}

// ListenAddr returns the bound listener address, useful when Addr requested
// an ephemeral port. Valid only after a successful Start.
func (s *Server) ListenAddr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// SessionCount returns the number of live connections, authenticated or
// not.
func (s *Server) SessionCount() int {
	n := 0
	s.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})

	return n
}

// acceptLoop accepts incoming connections until the listener is closed. For
// each connection it assigns an id, creates a Session, and runs its read
// loop in a new goroutine. Accept errors while running are logged and do
// not stop the loop.
func (s *Server) acceptLoop() {
	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}

			s.Logger.Error("accept error", logger.Field{Key: "error", Value: err})
			continue
		}

		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
		}

		id := s.nextID.Add(1)
		sess := newSession(id, conn, s)
		s.sessions.Store(id, sess)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.sessions.Delete(id)
			sess.run()
		}()
	}
}
