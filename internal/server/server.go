package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
)

// Server accepts TCP connections and hands each one to the Handler on its
// own goroutine (thread-per-connection with blocking I/O).
type Server struct {
	addr     string
	handler  *Handler
	registry *Registry
	log      *zap.Logger

	wg sync.WaitGroup
}

func New(addr string, handler *Handler, registry *Registry, log *zap.Logger) *Server {
	return &Server{addr: addr, handler: handler, registry: registry, log: log}
}

// ListenAndServe blocks until ctx is cancelled or the listener fails. On
// shutdown it closes every live session so blocked read loops terminate.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.log.Info("listening", zap.String("addr", s.addr))

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.log.Warn("accept failed", zap.Error(err))
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handler.Handle(conn)
		}()
	}

	for _, sess := range s.registry.All() {
		sess.Close()
	}
	s.wg.Wait()
	s.log.Info("server stopped")
	return nil
}
