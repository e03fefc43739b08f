package server

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/cyberinferno/go-chat-server/logger"
	"github.com/cyberinferno/go-chat-server/protocol"
)

// SessionState is the lifecycle state of one connection.
type SessionState int32

const (
	// StateConnected means the socket is open but no user is authenticated.
	StateConnected SessionState = iota
	// StateAuthenticated means a LOGIN succeeded and the session is in the
	// registry.
	StateAuthenticated
	// StateClosed is terminal: the socket is released and any registry
	// entry has been removed.
	StateClosed
)

// String returns a human-readable name for the state.
func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Session owns one accepted connection for its whole lifetime: the socket,
// the read loop, and the serialized write path. No other component touches
// the raw conn. The read loop is strictly request/response; within one
// connection, responses are written in the order requests arrived.
type Session struct {
	id   uint64
	conn net.Conn
	srv  *Server

	mu  sync.Mutex // serializes log swap on bind; writes use writeMu
	log logger.Logger

	writeMu   sync.Mutex
	state     atomic.Int32
	userID    atomic.Int64 // 0 while unauthenticated
	closeOnce sync.Once
}

// newSession wraps an accepted connection. The caller runs run() in its own
// goroutine.
func newSession(id uint64, conn net.Conn, srv *Server) *Session {
	return &Session{
		id:   id,
		conn: conn,
		srv:  srv,
		log: srv.Logger.With(
			logger.Field{Key: "conn_id", Value: id},
			logger.Field{Key: "remote", Value: conn.RemoteAddr().String()},
		),
	}
}

// ID returns the per-connection identity assigned at accept time.
func (s *Session) ID() uint64 {
	return s.id
}

// UserID returns the authenticated user id, or 0 while unauthenticated.
func (s *Session) UserID() int64 {
	return s.userID.Load()
}

// State returns the session's current lifecycle state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// RemoteAddr returns the peer address, for logging.
func (s *Session) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}

// run is the session's read loop. It reads one line at a time, decodes,
// dispatches, and writes the response before reading the next line. A
// malformed line yields an ERROR response and the loop continues; only
// EOF, an I/O error, or an oversized line ends the session.
func (s *Session) run() {
	defer s.Close()

	s.logger().Info("client connected")

	sc := bufio.NewScanner(s.conn)
	sc.Buffer(make([]byte, 0, 4096), s.srv.MaxLineBytes)

	for sc.Scan() {
		line := sc.Bytes()

		req, err := protocol.Decode(line)
		if err != nil {
			s.logger().Warn("malformed packet", logger.Field{Key: "error", Value: err.Error()})
			if werr := s.send(protocol.NewError(err.Error())); werr != nil {
				s.logger().Warn("write failed", logger.Field{Key: "error", Value: werr})
				return
			}
			continue
		}

		resp := s.dispatch(req)

		// Registry bookkeeping happens before the response is written, so
		// a client that has read its LOGIN_RESPONSE is already visible as
		// online.
		s.observe(req, resp)

		if err := s.send(resp); err != nil {
			s.logger().Warn("write failed", logger.Field{Key: "error", Value: err})
			return
		}
	}

	if err := sc.Err(); err != nil && s.State() != StateClosed {
		s.logger().Warn("read error", logger.Field{Key: "error", Value: err})
	}
}

// dispatch routes the request through the server's router, converting a
// handler panic into an ERROR response so no request can kill the read
// loop.
func (s *Session) dispatch(req *protocol.Packet) (resp *protocol.Packet) {
	defer func() {
		if r := recover(); r != nil {
			s.logger().Error("handler panic",
				logger.Field{Key: "type", Value: req.Type.String()},
				logger.Field{Key: "panic", Value: fmt.Sprint(r)})
			resp = protocol.NewError(fmt.Sprintf("server error: %v", r))
		}
	}()

	return s.srv.Router.Dispatch(req)
}

// observe applies the session side effects of a request/response pair:
// successful logins bind the session to a user id, successful logouts
// unbind it.
func (s *Session) observe(req, resp *protocol.Packet) {
	switch {
	case req.Type == protocol.LoginRequest && resp.Type == protocol.LoginResponse && resp.Success:
		uid, ok := resp.GetInt64("userId")
		if !ok {
			s.logger().Warn("login response missing userId")
			return
		}
		s.bindUser(uid)

	case req.Type == protocol.LogoutRequest && resp.Success:
		s.unbindUser()
	}
}

// bindUser registers the session under uid, displacing and closing any
// session a previous login registered for the same user.
func (s *Session) bindUser(uid int64) {
	if old := s.userID.Load(); old != 0 && old != uid {
		// Re-login as a different user on the same connection.
		s.srv.Registry.DeregisterSession(old, s)
	}

	prior, evicted := s.srv.Registry.Register(uid, s)
	if evicted {
		prior.logger().Info("session displaced by new login",
			logger.Field{Key: "user_id", Value: uid})
		_ = prior.Close()
	}

	s.userID.Store(uid)
	s.state.Store(int32(StateAuthenticated))

	s.mu.Lock()
	s.log = s.log.With(logger.Field{Key: "user_id", Value: uid})
	s.mu.Unlock()
}

// unbindUser removes the session's registry entry, if it still owns one,
// and returns the session to the connected-unauthenticated state.
func (s *Session) unbindUser() {
	if uid := s.userID.Swap(0); uid != 0 {
		s.srv.Registry.DeregisterSession(uid, s)
	}
	s.state.Store(int32(StateConnected))
}

// send encodes and writes one packet. The mutex guarantees exactly one
// writer at a time, so concurrent writers (a future push path, or an
// eviction racing the read loop) cannot interleave partial lines.
func (s *Session) send(p *protocol.Packet) error {
	line, err := protocol.Encode(p)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.conn.Write(line); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}

// Close transitions the session to CLOSED: the registry entry (if this
// session still owns one) is removed first, then the socket is released.
// Safe to call multiple times and from goroutines other than the read loop.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))

		if uid := s.userID.Swap(0); uid != 0 {
			s.srv.Registry.DeregisterSession(uid, s)
		}

		_ = s.conn.Close()
		s.logger().Info("client disconnected")
	})

	return nil
}

// logger returns the session's current logger; bindUser swaps it for one
// carrying the user id.
func (s *Session) logger() logger.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log
}
