package media

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"gomessenger/internal/dbmysql"
)

var (
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrNoThumbnail        = errors.New("attachment has no thumbnail")
)

type AttachmentRepository interface {
	Create(ctx context.Context, a *dbmysql.FileAttachment) error
	FindByID(ctx context.Context, id string) (*dbmysql.FileAttachment, error)
	FindByHash(ctx context.Context, contentHash string) (*dbmysql.FileAttachment, error)
}

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, a *dbmysql.FileAttachment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *attachmentRepository) FindByID(ctx context.Context, id string) (*dbmysql.FileAttachment, error) {
	var a dbmysql.FileAttachment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAttachmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attachmentRepository) FindByHash(ctx context.Context, contentHash string) (*dbmysql.FileAttachment, error) {
	var a dbmysql.FileAttachment
	err := r.db.WithContext(ctx).Where("content_hash = ?", contentHash).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAttachmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
