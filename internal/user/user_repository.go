package user

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"gomessenger/internal/dbmysql"
)

// ErrNotFound is returned when a user lookup misses.
var ErrNotFound = errors.New("user not found")

type UserRepository interface {
	Create(ctx context.Context, u *dbmysql.User) error
	GetByUsername(ctx context.Context, username string) (*dbmysql.User, error)
	Exists(ctx context.Context, username string) (bool, error)
	TouchLogin(ctx context.Context, username string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *dbmysql.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*dbmysql.User, error) {
	var u dbmysql.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Exists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&dbmysql.User{}).
		Where("username = ?", username).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) TouchLogin(ctx context.Context, username string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&dbmysql.User{}).
		Where("username = ?", username).
		Update("last_login_at", &now).Error
}
