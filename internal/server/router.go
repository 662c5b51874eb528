package server

import (
	"go.uber.org/zap"

	"gomessenger/internal/protocol"
)

// Router resolves routing targets to live sessions. Delivery is best-effort:
// sending to an offline user is a no-op (messages are persisted regardless),
// and per-session write failures are logged, never propagated — a dead
// receiver must not fail the sender's operation.
type Router struct {
	registry *Registry
	log      *zap.Logger
}

func NewRouter(registry *Registry, log *zap.Logger) *Router {
	return &Router{registry: registry, log: log}
}

// SendTo delivers p to username's live session, if any.
func (r *Router) SendTo(username string, p *protocol.Packet) {
	s, ok := r.registry.Get(username)
	if !ok {
		return
	}
	r.deliver(s, p)
}

// Broadcast delivers p to every live session.
func (r *Router) Broadcast(p *protocol.Packet) {
	for _, s := range r.registry.All() {
		r.deliver(s, p)
	}
}

// BroadcastExcept delivers p to every live session except exclude.
func (r *Router) BroadcastExcept(p *protocol.Packet, exclude *Session) {
	for _, s := range r.registry.All() {
		if s == exclude {
			continue
		}
		r.deliver(s, p)
	}
}

// FanOut delivers p to each named member's live session. The sender's own
// echo is part of the member list. An empty member list is the legacy
// global-like shape and falls back to a full broadcast.
func (r *Router) FanOut(members []string, p *protocol.Packet) {
	if len(members) == 0 {
		r.Broadcast(p)
		return
	}
	for _, member := range members {
		r.SendTo(member, p)
	}
}

// BroadcastUserList pushes the current online user list to everyone.
func (r *Router) BroadcastUserList() {
	r.Broadcast(&protocol.Packet{
		Kind:    protocol.KindUserList,
		Payload: protocol.EncodeUserList(r.registry.Usernames()),
	})
}

// PushNotification delivers a notification event to username's live session
// as an ACK with header "notify:<kind>" and the related username as payload.
// It reports whether the user was connected.
func (r *Router) PushNotification(username, kind, relatedUser string) bool {
	s, ok := r.registry.Get(username)
	if !ok {
		return false
	}
	r.deliver(s, &protocol.Packet{
		Kind:    protocol.KindAck,
		Header:  "notify:" + kind,
		Payload: []byte(relatedUser),
	})
	return true
}

func (r *Router) deliver(s *Session, p *protocol.Packet) {
	if err := s.Send(p); err != nil {
		r.log.Warn("packet delivery failed",
			zap.String("user", s.Username()),
			zap.String("kind", p.Kind.String()),
			zap.Error(err))
	}
}
