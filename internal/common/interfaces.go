package common

// Notification kinds emitted by the core.
const (
	NotifFriendRequest  = "friend_request"
	NotifFriendAccepted = "friend_accepted"
	NotifFriendRejected = "friend_rejected"
	NotifGroupAdded     = "group_added"
)

// NotificationSink is the fire-and-forget notification contract. Failures are
// logged by the implementation, never returned to routing paths.
type NotificationSink interface {
	CreateNotification(username, kind, relatedUser string)
}

// NopSink discards notifications. Used in tests and when the sink is disabled.
type NopSink struct{}

func (NopSink) CreateNotification(username, kind, relatedUser string) {}
