package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"gomessenger/internal/common"
	"gomessenger/internal/dbmysql"
)

// GlobalName is the name of the singleton GLOBAL conversation, seeded at
// server start.
const GlobalName = "global"

// HistoryLimit caps how many messages a history reply replays.
const HistoryLimit = 200

// UserLookup is the slice of the user store the chat service needs when
// resolving group member names.
type UserLookup interface {
	Exists(ctx context.Context, username string) (bool, error)
}

type Service interface {
	EnsureGlobal(ctx context.Context) (*dbmysql.Conversation, error)
	FindByID(ctx context.Context, id string) (*dbmysql.Conversation, error)
	FindOrCreatePrivate(ctx context.Context, userA, userB string) (*dbmysql.Conversation, error)
	CreateGroup(ctx context.Context, name, creator string, members []string) (*dbmysql.Conversation, []string, error)
	ListConversationsForUser(ctx context.Context, username string) ([]*dbmysql.Conversation, error)
	ListMembers(ctx context.Context, conversationID string) ([]string, error)
	SaveMessage(ctx context.Context, msg *dbmysql.Message) error
	History(ctx context.Context, conversationID string) ([]*dbmysql.Message, error)
}

type service struct {
	convs ConversationRepository
	msgs  MessageRepository
	users UserLookup

	// nameLocks serializes concurrent findOrCreate calls for the same
	// canonical name; the unique index on conversations.name backstops
	// races across processes.
	mu        sync.Mutex
	nameLocks map[string]*sync.Mutex
}

func NewService(convs ConversationRepository, msgs MessageRepository, users UserLookup) Service {
	return &service{
		convs:     convs,
		msgs:      msgs,
		users:     users,
		nameLocks: make(map[string]*sync.Mutex),
	}
}

func (s *service) lockName(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.nameLocks[name]
	if !ok {
		l = &sync.Mutex{}
		s.nameLocks[name] = l
	}
	return l
}

// findOrCreate looks name up, creating the conversation if absent. Safe under
// concurrent identical calls: a duplicate-key failure on create is resolved
// by re-looking up the row the winner inserted.
func (s *service) findOrCreate(ctx context.Context, name, convType string) (*dbmysql.Conversation, error) {
	l := s.lockName(name)
	l.Lock()
	defer l.Unlock()

	conv, err := s.convs.FindByName(ctx, name)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	conv = &dbmysql.Conversation{
		ID:   uuid.NewString(),
		Type: convType,
		Name: name,
	}
	if createErr := s.convs.Create(ctx, conv); createErr != nil {
		// Lost a race with another process; the row must exist now.
		if conv, err = s.convs.FindByName(ctx, name); err == nil {
			return conv, nil
		}
		return nil, createErr
	}
	return conv, nil
}

func (s *service) EnsureGlobal(ctx context.Context) (*dbmysql.Conversation, error) {
	return s.findOrCreate(ctx, GlobalName, dbmysql.ConvGlobal)
}

func (s *service) FindByID(ctx context.Context, id string) (*dbmysql.Conversation, error) {
	return s.convs.FindByID(ctx, id)
}

func (s *service) FindOrCreatePrivate(ctx context.Context, userA, userB string) (*dbmysql.Conversation, error) {
	if userA == userB {
		return nil, errors.New("private conversation needs two distinct users")
	}
	return s.findOrCreate(ctx, common.PairKey(userA, userB), dbmysql.ConvPrivate)
}

// CreateGroup creates a GROUP conversation with creator as owner and each
// known member name as member. Unknown usernames are silently skipped; the
// second return value lists the members actually added (creator included).
func (s *service) CreateGroup(ctx context.Context, name, creator string, members []string) (*dbmysql.Conversation, []string, error) {
	if err := common.ValidateGroupName(name); err != nil {
		return nil, nil, err
	}
	if _, err := s.convs.FindByName(ctx, name); err == nil {
		return nil, nil, errors.New("a conversation with that name already exists")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, nil, err
	}

	conv := &dbmysql.Conversation{
		ID:   uuid.NewString(),
		Type: dbmysql.ConvGroup,
		Name: name,
	}
	if err := s.convs.Create(ctx, conv); err != nil {
		return nil, nil, err
	}

	if err := s.convs.AddMember(ctx, &dbmysql.Membership{
		ConversationID: conv.ID,
		Username:       creator,
		Role:           dbmysql.RoleOwner,
	}); err != nil {
		return nil, nil, err
	}
	added := []string{creator}

	seen := map[string]bool{creator: true}
	for _, member := range members {
		if seen[member] {
			continue
		}
		seen[member] = true
		ok, err := s.users.Exists(ctx, member)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		if err := s.convs.AddMember(ctx, &dbmysql.Membership{
			ConversationID: conv.ID,
			Username:       member,
			Role:           dbmysql.RoleMember,
		}); err != nil {
			return nil, nil, err
		}
		added = append(added, member)
	}
	return conv, added, nil
}

func (s *service) ListConversationsForUser(ctx context.Context, username string) ([]*dbmysql.Conversation, error) {
	return s.convs.ListForUser(ctx, username)
}

func (s *service) ListMembers(ctx context.Context, conversationID string) ([]string, error) {
	members, err := s.convs.ListMembers(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Username)
	}
	return names, nil
}

func (s *service) SaveMessage(ctx context.Context, msg *dbmysql.Message) error {
	return s.msgs.Save(ctx, msg)
}

func (s *service) History(ctx context.Context, conversationID string) ([]*dbmysql.Message, error) {
	return s.msgs.ListByConversation(ctx, conversationID, HistoryLimit)
}
