package chat

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gomessenger/internal/dbmysql"
)

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return gormDB, mock, cleanup
}

func TestConversationRepository_Create(t *testing.T) {
	tests := []struct {
		name        string
		conv        *dbmysql.Conversation
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError bool
	}{
		{
			name: "successful create",
			conv: &dbmysql.Conversation{ID: "conv-123", Type: dbmysql.ConvGroup, Name: "plans"},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(
					"INSERT INTO `conversations`")).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "duplicate name",
			conv: &dbmysql.Conversation{ID: "conv-456", Type: dbmysql.ConvGroup, Name: "plans"},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(
					"INSERT INTO `conversations`")).
					WillReturnError(assert.AnError)
				mock.ExpectRollback()
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()
			tt.mockSetup(mock)

			repo := NewConversationRepository(db)
			err := repo.Create(context.Background(), tt.conv)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestConversationRepository_FindByName(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "type", "name", "created_at", "updated_at"}).
		AddRow("conv-123", dbmysql.ConvPrivate, "alice|bob", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT * FROM `conversations` WHERE name = ?")).
		WithArgs("alice|bob", 1).
		WillReturnRows(rows)

	repo := NewConversationRepository(db)
	conv, err := repo.FindByName(context.Background(), "alice|bob")
	require.NoError(t, err)
	assert.Equal(t, "conv-123", conv.ID)
	assert.Equal(t, dbmysql.ConvPrivate, conv.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepository_FindByNameMissing(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT * FROM `conversations` WHERE name = ?")).
		WithArgs("nowhere", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "name"}))

	repo := NewConversationRepository(db)
	_, err := repo.FindByName(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepository_ListMembers(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "conversation_id", "username", "role", "created_at"}).
		AddRow(1, "conv-123", "alice", dbmysql.RoleOwner, time.Now()).
		AddRow(2, "conv-123", "bob", dbmysql.RoleMember, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT * FROM `memberships` WHERE conversation_id = ?")).
		WithArgs("conv-123").
		WillReturnRows(rows)

	repo := NewConversationRepository(db)
	members, err := repo.ListMembers(context.Background(), "conv-123")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].Username)
	assert.Equal(t, dbmysql.RoleOwner, members[0].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepository_ListForUserExactPairMatch(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	// '_' is a valid username character and a single-character wildcard under
	// LIKE, so the private match must compare exact pair halves. "ali_e" must
	// be bound as an equality argument, never folded into a pattern.
	rows := sqlmock.NewRows([]string{"id", "type", "name", "created_at", "updated_at"}).
		AddRow("conv-g", dbmysql.ConvGlobal, "global", time.Now(), time.Now()).
		AddRow("conv-p", dbmysql.ConvPrivate, "ali_e|bob", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(
		"substring_index(name, '|', 1) = ? OR substring_index(name, '|', -1) = ?")).
		WithArgs(dbmysql.ConvGlobal, dbmysql.ConvPrivate, "ali_e", "ali_e", "ali_e").
		WillReturnRows(rows)

	repo := NewConversationRepository(db)
	convs, err := repo.ListForUser(context.Background(), "ali_e")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "ali_e|bob", convs[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_Save(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO `messages`")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := NewMessageRepository(db)
	err := repo.Save(context.Background(), &dbmysql.Message{
		ConversationID: "conv-123",
		Sender:         "alice",
		Content:        "Hello, world!",
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_ListByConversation(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	// Rows come back newest-first from the query; the repository reverses
	// them into chronological order.
	rows := sqlmock.NewRows([]string{"id", "conversation_id", "sender", "content", "attachment_id", "created_at"}).
		AddRow(2, "conv-123", "bob", "second", nil, now).
		AddRow(1, "conv-123", "alice", "first", nil, now.Add(-time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT * FROM `messages` WHERE conversation_id = ?")).
		WithArgs("conv-123", 200).
		WillReturnRows(rows)

	repo := NewMessageRepository(db)
	messages, err := repo.ListByConversation(context.Background(), "conv-123", 200)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}
