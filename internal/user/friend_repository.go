package user

import (
	"context"

	"gorm.io/gorm"

	"gomessenger/internal/common"
	"gomessenger/internal/dbmysql"
)

type FriendRepository interface {
	Create(ctx context.Context, f *dbmysql.Friendship) error
	// GetByPair returns the friendship row for the unordered pair, in
	// whichever direction it was created.
	GetByPair(ctx context.Context, a, b string) (*dbmysql.Friendship, error)
	Update(ctx context.Context, f *dbmysql.Friendship) error
	ListPendingFor(ctx context.Context, username string) ([]*dbmysql.Friendship, error)
}

type friendRepository struct {
	db *gorm.DB
}

func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) Create(ctx context.Context, f *dbmysql.Friendship) error {
	f.PairKey = common.PairKey(f.User1, f.User2)
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *friendRepository) GetByPair(ctx context.Context, a, b string) (*dbmysql.Friendship, error) {
	var f dbmysql.Friendship
	err := r.db.WithContext(ctx).
		Where("pair_key = ?", common.PairKey(a, b)).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *friendRepository) Update(ctx context.Context, f *dbmysql.Friendship) error {
	return r.db.WithContext(ctx).Save(f).Error
}

// ListPendingFor returns the pending requests targeting username, newest first.
func (r *friendRepository) ListPendingFor(ctx context.Context, username string) ([]*dbmysql.Friendship, error) {
	var requests []*dbmysql.Friendship
	err := r.db.WithContext(ctx).
		Where("user2 = ? AND status = ?", username, dbmysql.FriendPending).
		Order("requested_at DESC").
		Find(&requests).Error
	return requests, err
}
