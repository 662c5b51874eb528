//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"gomessenger/internal/chat"
	"gomessenger/internal/common"
	"gomessenger/internal/notif"
	"gomessenger/internal/user"
)

// InitChatService wires the conversation/message repositories into the chat
// service, with the user repository as the member-name resolver.
func InitChatService(db *gorm.DB) chat.Service {
	wire.Build(
		chat.NewConversationRepository,
		chat.NewMessageRepository,
		user.NewUserRepository,
		wire.Bind(new(chat.UserLookup), new(user.UserRepository)),
		chat.NewService,
	)
	return nil
}

// InitFriendService wires the friendship state machine.
func InitFriendService(db *gorm.DB, sink common.NotificationSink) user.FriendService {
	wire.Build(
		user.NewFriendRepository,
		user.NewUserRepository,
		user.NewFriendService,
	)
	return nil
}

// InitNotificationRepository wires the notification persistence.
func InitNotificationRepository(db *gorm.DB) notif.NotificationRepository {
	wire.Build(notif.NewNotificationRepository)
	return nil
}
