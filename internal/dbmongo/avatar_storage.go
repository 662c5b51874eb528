package dbmongo

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gomessenger/internal/media"
)

// AvatarStorage keeps avatar blobs in GridFS, one file per username. It is
// the alternative backend to the disk store in internal/media, selected when
// MONGO_URI is configured.
type AvatarStorage struct {
	gridFS *gridfs.Bucket
}

func NewAvatarStorage(mongoClient *MongoClient) *AvatarStorage {
	return &AvatarStorage{gridFS: mongoClient.GridFS}
}

var _ media.AvatarStore = (*AvatarStorage)(nil)

// Put uploads data under username, deleting any previous avatar file first so
// the username stays a unique key.
func (s *AvatarStorage) Put(ctx context.Context, username string, data []byte) error {
	s.deleteExisting(ctx, username)

	metadata := bson.M{
		"username":    username,
		"uploaded_at": time.Now(),
	}
	opts := options.GridFSUpload().SetMetadata(metadata)
	stream, err := s.gridFS.OpenUploadStream(username, opts)
	if err != nil {
		return fmt.Errorf("avatar upload failed: %w", err)
	}
	defer stream.Close()

	if _, err := stream.Write(data); err != nil {
		return fmt.Errorf("avatar write failed: %w", err)
	}
	return nil
}

func (s *AvatarStorage) Get(ctx context.Context, username string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := s.gridFS.DownloadToStreamByName(username, &buf); err != nil {
		if err == gridfs.ErrFileNotFound || err == mongo.ErrNoDocuments {
			return nil, media.ErrAvatarNotFound
		}
		return nil, fmt.Errorf("avatar download failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *AvatarStorage) deleteExisting(ctx context.Context, username string) {
	cursor, err := s.gridFS.Find(bson.M{"filename": username})
	if err != nil {
		return
	}
	defer cursor.Close(ctx)
	for cursor.Next(ctx) {
		var file struct {
			ID interface{} `bson:"_id"`
		}
		if cursor.Decode(&file) == nil {
			s.gridFS.Delete(file.ID)
		}
	}
}
