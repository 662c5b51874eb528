package server

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"gomessenger/internal/chat"
	"gomessenger/internal/common"
	"gomessenger/internal/dbmysql"
	"gomessenger/internal/media"
	"gomessenger/internal/protocol"
	"gomessenger/internal/user"
)

// tokenLoginHeader is the LOGIN header a client sends to resume with a
// session token in the payload instead of a password.
const tokenLoginHeader = "#token"

// Deps collects everything one connection handler dispatches into.
type Deps struct {
	Registry *Registry
	Router   *Router
	Auth     user.AuthService
	Friends  user.FriendService
	Chats    chat.Service
	Files    *media.FileStore
	Avatars  media.AvatarStore
	Notifs   common.NotificationSink
	Log      *zap.Logger

	ReadTimeout time.Duration
	GlobalID    string
}

// Handler runs the per-connection read loop: UNAUTHENTICATED until a valid
// LOGIN, then dispatching every packet kind until disconnect. The policy for
// packets before LOGIN is tolerant-reject: an ACK error is sent and the
// connection stays open. Only transport-level errors (EOF, read timeout,
// unrecoverable framing) close a connection; every application-level failure
// is answered with an ACK error.
type Handler struct {
	deps Deps
}

func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// Handle owns conn until it dies. Run one goroutine per connection.
func (h *Handler) Handle(conn net.Conn) {
	sess := NewSession(conn)
	defer h.teardown(sess)

	authenticated := false
	for {
		if h.deps.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(h.deps.ReadTimeout))
		}
		p, err := protocol.Read(conn)
		if err != nil {
			if err != io.EOF {
				h.deps.Log.Debug("read loop ended",
					zap.String("remote", sess.RemoteAddr()), zap.Error(err))
			}
			return
		}

		if !authenticated {
			if p.Kind != protocol.KindLogin {
				h.sendErr(sess, "login required")
				continue
			}
			authenticated = h.handleLogin(sess, p)
			continue
		}
		h.dispatch(sess, p)
	}
}

func (h *Handler) teardown(sess *Session) {
	sess.Close()
	username := sess.Username()
	if username == "" {
		return
	}
	if h.deps.Registry.Unregister(username, sess) {
		h.deps.Router.BroadcastUserList()
		h.deps.Log.Info("session closed", zap.String("user", username))
	}
}

func (h *Handler) dispatch(sess *Session, p *protocol.Packet) {
	defer func() {
		if r := recover(); r != nil {
			h.deps.Log.Error("panic in dispatch",
				zap.String("kind", p.Kind.String()), zap.Any("panic", r))
			h.sendErr(sess, "internal error")
		}
	}()

	switch p.Kind {
	case protocol.KindLogin:
		h.sendErr(sess, "already logged in")
	case protocol.KindMsg:
		h.handleGlobalMsg(sess, p)
	case protocol.KindPM:
		h.handlePM(sess, p)
	case protocol.KindGroupMsg:
		h.handleGroupMsg(sess, p)
	case protocol.KindFile:
		h.handleFileUpload(sess, p)
	case protocol.KindGetFile:
		h.handleGetFile(sess, p)
	case protocol.KindGetThumb:
		h.handleGetThumb(sess, p)
	case protocol.KindGetUserList:
		h.handleGetUserList(sess)
	case protocol.KindConvList:
		h.pushConvList(sess)
	case protocol.KindJoinConv, protocol.KindGetHistory:
		h.handleHistory(sess, p)
	case protocol.KindCreateGroup:
		h.handleCreateGroup(sess, p)
	case protocol.KindAvatarUpload:
		h.handleAvatarUpload(sess, p)
	case protocol.KindGetAvatar:
		h.handleGetAvatar(sess, p)
	case protocol.KindFriendRequest:
		h.handleFriendRequest(sess, p)
	case protocol.KindFriendAccept:
		h.handleFriendResponse(sess, p, true)
	case protocol.KindFriendReject:
		h.handleFriendResponse(sess, p, false)
	case protocol.KindFriendPendingList:
		h.handleFriendPendingList(sess)
	default:
		h.sendErr(sess, "unexpected packet kind "+p.Kind.String())
	}
}

func (h *Handler) handleLogin(sess *Session, p *protocol.Packet) bool {
	ctx := context.Background()

	var (
		u     *dbmysql.User
		token string
		err   error
	)
	if p.Header == tokenLoginHeader {
		token = string(p.Payload)
		u, err = h.deps.Auth.Resume(ctx, token)
	} else {
		u, token, err = h.deps.Auth.Login(ctx, p.Header, string(p.Payload))
	}
	if err != nil {
		h.sendErr(sess, "login failed: "+err.Error())
		return false
	}

	sess.Bind(u.Username)
	if displaced := h.deps.Registry.Register(u.Username, sess); displaced != nil {
		displaced.Send(&protocol.Packet{
			Kind:    protocol.KindAck,
			Header:  "error",
			Payload: []byte("session replaced by a newer login"),
		})
		displaced.Close()
	}

	h.sendOK(sess, "login", []byte(token))
	h.pushConvList(sess)
	h.deps.Router.BroadcastUserList()
	h.deps.Log.Info("session opened",
		zap.String("user", u.Username), zap.String("remote", sess.RemoteAddr()))
	return true
}

func (h *Handler) handleGlobalMsg(sess *Session, p *protocol.Packet) {
	sender := sess.Username()
	if len(p.Payload) == 0 {
		h.sendErr(sess, "empty message")
		return
	}
	msg := &dbmysql.Message{
		ConversationID: h.deps.GlobalID,
		Sender:         sender,
		Content:        string(p.Payload),
	}
	if err := h.deps.Chats.SaveMessage(context.Background(), msg); err != nil {
		h.opFailed(sess, "message not saved", err)
		return
	}
	h.deps.Router.Broadcast(&protocol.Packet{
		Kind:    protocol.KindMsg,
		Header:  protocol.FormatRouted(sender, h.deps.GlobalID),
		Payload: p.Payload,
	})
}

func (h *Handler) handlePM(sess *Session, p *protocol.Packet) {
	ctx := context.Background()
	sender := sess.Username()
	target := p.Header
	if target == "" || target == sender {
		h.sendErr(sess, "invalid private message target")
		return
	}
	if len(p.Payload) == 0 {
		h.sendErr(sess, "empty message")
		return
	}

	// The friendship gate lives here, not in the client: only ACCEPTED
	// pairs may exchange private messages.
	friends, err := h.deps.Friends.AreFriends(ctx, sender, target)
	if err != nil {
		h.opFailed(sess, "friendship check failed", err)
		return
	}
	if !friends {
		h.sendErr(sess, "you are not friends with "+target)
		return
	}

	conv, err := h.deps.Chats.FindOrCreatePrivate(ctx, sender, target)
	if err != nil {
		h.opFailed(sess, "conversation unavailable", err)
		return
	}

	msg := &dbmysql.Message{
		ConversationID: conv.ID,
		Sender:         sender,
		Content:        string(p.Payload),
	}
	if err := h.deps.Chats.SaveMessage(ctx, msg); err != nil {
		h.opFailed(sess, "message not saved", err)
		return
	}

	out := &protocol.Packet{
		Kind:    protocol.KindPM,
		Header:  protocol.FormatRouted(sender, conv.ID),
		Payload: p.Payload,
	}
	h.deps.Router.SendTo(target, out)
	sess.Send(out) // echo so the sender sees server-confirmed order
}

func (h *Handler) handleGroupMsg(sess *Session, p *protocol.Packet) {
	ctx := context.Background()
	sender := sess.Username()
	conv, err := h.deps.Chats.FindByID(ctx, p.Header)
	if errors.Is(err, chat.ErrNotFound) {
		h.sendErr(sess, "unknown conversation "+p.Header)
		return
	}
	if err != nil {
		h.opFailed(sess, "conversation lookup failed", err)
		return
	}
	if len(p.Payload) == 0 {
		h.sendErr(sess, "empty message")
		return
	}

	targets, err := h.conversationTargets(ctx, conv)
	if err != nil {
		h.opFailed(sess, "membership lookup failed", err)
		return
	}
	if conv.Type == dbmysql.ConvGroup && len(targets) > 0 && !containsString(targets, sender) {
		h.sendErr(sess, "you are not a member of "+conv.Name)
		return
	}

	msg := &dbmysql.Message{
		ConversationID: conv.ID,
		Sender:         sender,
		Content:        string(p.Payload),
	}
	if err := h.deps.Chats.SaveMessage(ctx, msg); err != nil {
		h.opFailed(sess, "message not saved", err)
		return
	}

	h.deps.Router.FanOut(targets, &protocol.Packet{
		Kind:    protocol.KindGroupMsg,
		Header:  protocol.FormatRouted(sender, conv.ID),
		Payload: p.Payload,
	})
}

func (h *Handler) handleFileUpload(sess *Session, p *protocol.Packet) {
	ctx := context.Background()
	sender := sess.Username()

	convID, filename, err := protocol.ParseUpload(p.Header)
	if err != nil {
		h.sendErr(sess, err.Error())
		return
	}
	conv, err := h.deps.Chats.FindByID(ctx, convID)
	if errors.Is(err, chat.ErrNotFound) {
		h.sendErr(sess, "unknown conversation "+convID)
		return
	}
	if err != nil {
		h.opFailed(sess, "conversation lookup failed", err)
		return
	}

	targets, err := h.conversationTargets(ctx, conv)
	if err != nil {
		h.opFailed(sess, "membership lookup failed", err)
		return
	}
	if conv.Type != dbmysql.ConvGlobal && len(targets) > 0 && !containsString(targets, sender) {
		h.sendErr(sess, "you are not a participant of "+conv.Name)
		return
	}

	attachment, _, err := h.deps.Files.Save(ctx, filename, p.Payload)
	if err != nil {
		h.opFailed(sess, "upload failed", err)
		return
	}

	content := protocol.FormatFileTag(protocol.FileTag{
		Name:         filename,
		Size:         int64(len(p.Payload)),
		AttachmentID: attachment.ID,
	})
	msg := &dbmysql.Message{
		ConversationID: conv.ID,
		Sender:         sender,
		Content:        content,
		AttachmentID:   &attachment.ID,
	}
	if err := h.deps.Chats.SaveMessage(ctx, msg); err != nil {
		h.opFailed(sess, "message not saved", err)
		return
	}

	meta := protocol.FormatFileMeta(protocol.FileMeta{
		Sender:       sender,
		Name:         filename,
		Size:         int64(len(p.Payload)),
		AttachmentID: attachment.ID,
		HasThumb:     attachment.ThumbPath != nil,
	})
	h.deps.Router.FanOut(targets, &protocol.Packet{
		Kind:    protocol.KindFileMeta,
		Header:  conv.ID,
		Payload: []byte(meta),
	})
}

func (h *Handler) handleGetFile(sess *Session, p *protocol.Packet) {
	id := p.Header
	err := h.deps.Files.Stream(context.Background(), id, func(c media.Chunk) error {
		return sess.Send(&protocol.Packet{
			Kind:    protocol.KindFileChunk,
			Header:  protocol.ChunkHeader{AttachmentID: id, Seq: c.Seq, Last: c.Last}.String(),
			Payload: c.Data,
		})
	})
	if errors.Is(err, media.ErrAttachmentNotFound) {
		h.sendErr(sess, "attachment not found: "+id)
		return
	}
	if err != nil {
		h.opFailed(sess, "download failed", err)
	}
}

func (h *Handler) handleGetThumb(sess *Session, p *protocol.Packet) {
	data, err := h.deps.Files.Thumb(context.Background(), p.Header)
	if errors.Is(err, media.ErrAttachmentNotFound) || errors.Is(err, media.ErrNoThumbnail) {
		h.sendErr(sess, "thumbnail not found: "+p.Header)
		return
	}
	if err != nil {
		h.opFailed(sess, "thumbnail fetch failed", err)
		return
	}
	sess.Send(&protocol.Packet{
		Kind:    protocol.KindFileThumb,
		Header:  p.Header,
		Payload: data,
	})
}

func (h *Handler) handleGetUserList(sess *Session) {
	sess.Send(&protocol.Packet{
		Kind:    protocol.KindUserList,
		Payload: protocol.EncodeUserList(h.deps.Registry.Usernames()),
	})
}

func (h *Handler) pushConvList(sess *Session) {
	convs, err := h.deps.Chats.ListConversationsForUser(context.Background(), sess.Username())
	if err != nil {
		h.opFailed(sess, "conversation list unavailable", err)
		return
	}
	summaries := make([]protocol.ConvSummary, 0, len(convs))
	for _, c := range convs {
		summaries = append(summaries, protocol.ConvSummary{ID: c.ID, Type: c.Type, Name: c.Name})
	}
	sess.Send(&protocol.Packet{
		Kind:    protocol.KindConvList,
		Payload: protocol.EncodeConvList(summaries),
	})
}

func (h *Handler) handleHistory(sess *Session, p *protocol.Packet) {
	ctx := context.Background()
	conv, err := h.deps.Chats.FindByID(ctx, p.Header)
	if errors.Is(err, chat.ErrNotFound) {
		h.sendErr(sess, "unknown conversation "+p.Header)
		return
	}
	if err != nil {
		h.opFailed(sess, "conversation lookup failed", err)
		return
	}

	// History is as private as posting: reads are gated by the same
	// participant list the fan-out uses.
	targets, err := h.conversationTargets(ctx, conv)
	if err != nil {
		h.opFailed(sess, "membership lookup failed", err)
		return
	}
	if conv.Type != dbmysql.ConvGlobal && len(targets) > 0 && !containsString(targets, sess.Username()) {
		h.sendErr(sess, "you are not a participant of "+conv.Name)
		return
	}

	messages, err := h.deps.Chats.History(ctx, conv.ID)
	if err != nil {
		h.opFailed(sess, "history unavailable", err)
		return
	}
	out := make([]protocol.HistoryMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, protocol.HistoryMessage{
			Sender:    m.Sender,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	sess.Send(&protocol.Packet{
		Kind:    protocol.KindHistory,
		Header:  conv.ID,
		Payload: protocol.EncodeHistory(out),
	})
}

func (h *Handler) handleCreateGroup(sess *Session, p *protocol.Packet) {
	ctx := context.Background()
	creator := sess.Username()

	members, err := protocol.DecodeUserList(p.Payload)
	if err != nil {
		h.sendErr(sess, "malformed member list")
		return
	}
	conv, added, err := h.deps.Chats.CreateGroup(ctx, p.Header, creator, members)
	if err != nil {
		h.sendErr(sess, "group not created: "+err.Error())
		return
	}

	h.sendOK(sess, "create_group", []byte(conv.ID))
	for _, member := range added {
		if member != creator {
			h.deps.Notifs.CreateNotification(member, common.NotifGroupAdded, creator)
		}
		if memberSess, ok := h.deps.Registry.Get(member); ok {
			h.pushConvList(memberSess)
		}
	}
}

func (h *Handler) handleAvatarUpload(sess *Session, p *protocol.Packet) {
	sender := sess.Username()
	if len(p.Payload) == 0 {
		h.sendErr(sess, "empty avatar")
		return
	}
	if err := h.deps.Avatars.Put(context.Background(), sender, p.Payload); err != nil {
		h.opFailed(sess, "avatar upload failed", err)
		return
	}
	h.deps.Router.Broadcast(&protocol.Packet{
		Kind:    protocol.KindAvatarData,
		Header:  sender,
		Payload: p.Payload,
	})
}

func (h *Handler) handleGetAvatar(sess *Session, p *protocol.Packet) {
	data, err := h.deps.Avatars.Get(context.Background(), p.Header)
	if errors.Is(err, media.ErrAvatarNotFound) {
		h.sendErr(sess, "avatar not found: "+p.Header)
		return
	}
	if err != nil {
		h.opFailed(sess, "avatar fetch failed", err)
		return
	}
	sess.Send(&protocol.Packet{
		Kind:    protocol.KindAvatarData,
		Header:  p.Header,
		Payload: data,
	})
}

func (h *Handler) handleFriendRequest(sess *Session, p *protocol.Packet) {
	from, to, err := protocol.ParseArrow(p.Header)
	if err != nil {
		h.sendErr(sess, err.Error())
		return
	}
	if from != sess.Username() {
		h.sendErr(sess, "friend request sender must be the logged-in user")
		return
	}
	if err := h.deps.Friends.SendRequest(context.Background(), from, to); err != nil {
		h.sendErr(sess, "friend request failed: "+err.Error())
		return
	}
	h.sendOK(sess, "friend_request", nil)
	h.deps.Router.SendTo(to, &protocol.Packet{
		Kind:   protocol.KindFriendRequest,
		Header: p.Header,
	})
}

func (h *Handler) handleFriendResponse(sess *Session, p *protocol.Packet, accept bool) {
	from, to, err := protocol.ParseArrow(p.Header)
	if err != nil {
		h.sendErr(sess, err.Error())
		return
	}
	if to != sess.Username() {
		h.sendErr(sess, "only the requested user may respond")
		return
	}

	ctx := context.Background()
	if accept {
		err = h.deps.Friends.Accept(ctx, from, to)
	} else {
		err = h.deps.Friends.Reject(ctx, from, to)
	}
	if err != nil {
		h.sendErr(sess, "friend response failed: "+err.Error())
		return
	}

	h.sendOK(sess, "friend_response", nil)
	kind := protocol.KindFriendReject
	if accept {
		kind = protocol.KindFriendAccept
	}
	h.deps.Router.SendTo(from, &protocol.Packet{Kind: kind, Header: p.Header})
}

func (h *Handler) handleFriendPendingList(sess *Session) {
	pending, err := h.deps.Friends.PendingFor(context.Background(), sess.Username())
	if err != nil {
		h.opFailed(sess, "pending list unavailable", err)
		return
	}
	out := make([]protocol.PendingRequest, 0, len(pending))
	for _, f := range pending {
		out = append(out, protocol.PendingRequest{From: f.User1, RequestedAt: f.RequestedAt})
	}
	sess.Send(&protocol.Packet{
		Kind:    protocol.KindFriendPendingList,
		Payload: protocol.EncodePendingList(out),
	})
}

// conversationTargets resolves a conversation to its routing fan-out list.
// nil means broadcast (GLOBAL, or a group with no membership rows).
func (h *Handler) conversationTargets(ctx context.Context, conv *dbmysql.Conversation) ([]string, error) {
	switch conv.Type {
	case dbmysql.ConvGlobal:
		return nil, nil
	case dbmysql.ConvPrivate:
		a, b, ok := strings.Cut(conv.Name, "|")
		if !ok {
			return nil, errors.New("malformed private conversation name " + conv.Name)
		}
		return []string{a, b}, nil
	default:
		return h.deps.Chats.ListMembers(ctx, conv.ID)
	}
}

func (h *Handler) sendOK(sess *Session, what string, payload []byte) {
	sess.Send(&protocol.Packet{Kind: protocol.KindAck, Header: "ok:" + what, Payload: payload})
}

func (h *Handler) sendErr(sess *Session, reason string) {
	sess.Send(&protocol.Packet{Kind: protocol.KindAck, Header: "error", Payload: []byte(reason)})
}

// opFailed answers an internal failure without leaking its detail; the error
// itself goes to the log.
func (h *Handler) opFailed(sess *Session, what string, err error) {
	h.deps.Log.Error(what, zap.String("user", sess.Username()), zap.Error(err))
	h.sendErr(sess, what)
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
