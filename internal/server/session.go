package server

import (
	"net"
	"sync"

	"gomessenger/internal/protocol"
)

// Session is the live handle for one connection. It owns the conn's write
// side: all outbound bytes go through Send, serialized by the mutex, so
// concurrent routing fan-outs cannot interleave frames.
type Session struct {
	conn net.Conn

	mu       sync.Mutex
	username string
}

func NewSession(conn net.Conn) *Session {
	return &Session{conn: conn}
}

// Bind names the session after a successful LOGIN.
func (s *Session) Bind(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
}

func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

func (s *Session) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}

// Send writes one packet to the connection.
func (s *Session) Send(p *protocol.Packet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return protocol.Write(s.conn, p)
}

func (s *Session) Close() error {
	return s.conn.Close()
}
