package notif

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gomessenger/internal/dbmysql"
)

func newRecord(event Event) *dbmysql.Notification {
	return &dbmysql.Notification{
		ID:          uuid.NewString(),
		Username:    event.Username,
		Type:        event.Kind,
		RelatedUser: event.RelatedUser,
	}
}

// DatabaseObserver persists every event as a Notification row.
type DatabaseObserver struct {
	repo NotificationRepository
}

func NewDatabaseObserver(repo NotificationRepository) *DatabaseObserver {
	return &DatabaseObserver{repo: repo}
}

func (d *DatabaseObserver) Name() string { return "database_observer" }

func (d *DatabaseObserver) Update(event Event) error {
	notification := newRecord(event)
	if err := d.repo.Create(context.Background(), notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

// LivePusher is the slice of the session router the live observer needs:
// push a notification packet to a user's live session, reporting whether the
// user was connected.
type LivePusher interface {
	PushNotification(username, kind, relatedUser string) bool
}

// LiveSessionObserver forwards events to the target's live session when one
// is connected. Offline targets are not an error; they see the database row
// via history/pending queries on next login.
type LiveSessionObserver struct {
	pusher LivePusher
}

func NewLiveSessionObserver(pusher LivePusher) *LiveSessionObserver {
	return &LiveSessionObserver{pusher: pusher}
}

func (l *LiveSessionObserver) Name() string { return "live_session_observer" }

func (l *LiveSessionObserver) Update(event Event) error {
	l.pusher.PushNotification(event.Username, event.Kind, event.RelatedUser)
	return nil
}
