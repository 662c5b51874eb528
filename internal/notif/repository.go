package notif

import (
	"context"

	"gorm.io/gorm"

	"gomessenger/internal/dbmysql"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *dbmysql.Notification) error
	ListForUser(ctx context.Context, username string, limit int) ([]*dbmysql.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *dbmysql.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) ListForUser(ctx context.Context, username string, limit int) ([]*dbmysql.Notification, error) {
	var notifications []*dbmysql.Notification
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}
