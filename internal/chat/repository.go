package chat

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gomessenger/internal/dbmysql"
)

// ErrNotFound is returned when a conversation lookup misses.
var ErrNotFound = errors.New("conversation not found")

type ConversationRepository interface {
	Create(ctx context.Context, conv *dbmysql.Conversation) error
	FindByID(ctx context.Context, id string) (*dbmysql.Conversation, error)
	FindByName(ctx context.Context, name string) (*dbmysql.Conversation, error)
	ListForUser(ctx context.Context, username string) ([]*dbmysql.Conversation, error)
	AddMember(ctx context.Context, m *dbmysql.Membership) error
	ListMembers(ctx context.Context, conversationID string) ([]*dbmysql.Membership, error)
}

type MessageRepository interface {
	Save(ctx context.Context, msg *dbmysql.Message) error
	ListByConversation(ctx context.Context, conversationID string, limit int) ([]*dbmysql.Message, error)
}

type conversationRepo struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) Create(ctx context.Context, conv *dbmysql.Conversation) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

func (r *conversationRepo) FindByID(ctx context.Context, id string) (*dbmysql.Conversation, error) {
	var conv dbmysql.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) FindByName(ctx context.Context, name string) (*dbmysql.Conversation, error) {
	var conv dbmysql.Conversation
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListForUser returns the GLOBAL conversation, every private conversation the
// user is one side of, and every group the user is a member of. The private
// match compares the exact pair halves: usernames may contain '_', which is a
// wildcard under LIKE.
func (r *conversationRepo) ListForUser(ctx context.Context, username string) ([]*dbmysql.Conversation, error) {
	memberOf := r.db.WithContext(ctx).
		Model(&dbmysql.Membership{}).
		Select("conversation_id").
		Where("username = ?", username)

	var convs []*dbmysql.Conversation
	err := r.db.WithContext(ctx).
		Where("type = ?", dbmysql.ConvGlobal).
		Or("type = ? AND (substring_index(name, '|', 1) = ? OR substring_index(name, '|', -1) = ?)",
			dbmysql.ConvPrivate, username, username).
		Or("id IN (?)", memberOf).
		Order("created_at ASC").
		Find(&convs).Error
	return convs, err
}

func (r *conversationRepo) AddMember(ctx context.Context, m *dbmysql.Membership) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *conversationRepo) ListMembers(ctx context.Context, conversationID string) ([]*dbmysql.Membership, error) {
	var members []*dbmysql.Membership
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Find(&members).Error
	return members, err
}

type messageRepo struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Save(ctx context.Context, msg *dbmysql.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListByConversation returns the most recent limit messages in chronological
// order (created_at, then insertion order).
func (r *messageRepo) ListByConversation(ctx context.Context, conversationID string, limit int) ([]*dbmysql.Message, error) {
	var messages []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
