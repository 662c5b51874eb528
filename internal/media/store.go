package media

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gomessenger/internal/dbmysql"
)

// FileStore is the content-addressed attachment store. Uploads are keyed by
// the SHA-256 of their bytes: a second upload of identical bytes reuses the
// existing attachment and touches no disk. Blobs land under date-bucketed
// paths; image uploads get a bounded-dimension jpeg thumbnail alongside.
type FileStore struct {
	root      string
	chunkSize int
	thumbMax  int
	repo      AttachmentRepository
	log       *zap.Logger
}

func NewFileStore(root string, chunkSize, thumbMax int, repo AttachmentRepository, log *zap.Logger) *FileStore {
	return &FileStore{
		root:      root,
		chunkSize: chunkSize,
		thumbMax:  thumbMax,
		repo:      repo,
		log:       log,
	}
}

// ChunkSize is the payload cap for one FILE_CHUNK packet.
func (s *FileStore) ChunkSize() int { return s.chunkSize }

// Save stores data under filename's attachment record, deduplicating by
// content hash. The second return value reports whether a new blob was
// written (false means the hash matched an existing attachment).
func (s *FileStore) Save(ctx context.Context, filename string, data []byte) (*dbmysql.FileAttachment, bool, error) {
	sum := sha256.Sum256(data)
	contentHash := hex.EncodeToString(sum[:])

	existing, err := s.repo.FindByHash(ctx, contentHash)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrAttachmentNotFound) {
		return nil, false, err
	}

	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filename))
	bucket := time.Now().Format("2006/01/02")
	dir := filepath.Join(s.root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, false, fmt.Errorf("create storage dir: %w", err)
	}

	storagePath := filepath.Join(dir, id+ext)
	if err := os.WriteFile(storagePath, data, 0o644); err != nil {
		return nil, false, fmt.Errorf("write blob: %w", err)
	}

	attachment := &dbmysql.FileAttachment{
		ID:           id,
		OriginalName: filename,
		StoragePath:  storagePath,
		MimeType:     mimeTypeFor(ext),
		Size:         int64(len(data)),
		ContentHash:  contentHash,
	}

	if IsImageName(filename) {
		thumbPath := filepath.Join(dir, id+"_thumb.jpg")
		if err := writeThumbnail(data, thumbPath, s.thumbMax); err != nil {
			// Undecodable image bytes are stored without a thumbnail.
			s.log.Warn("thumbnail generation failed",
				zap.String("attachment", id), zap.Error(err))
		} else {
			attachment.ThumbPath = &thumbPath
		}
	}

	if err := s.repo.Create(ctx, attachment); err != nil {
		// Lost a concurrent race on the hash; reuse the winner's row.
		if winner, findErr := s.repo.FindByHash(ctx, contentHash); findErr == nil {
			s.removeBlob(attachment)
			return winner, false, nil
		}
		s.removeBlob(attachment)
		return nil, false, err
	}
	return attachment, true, nil
}

func (s *FileStore) removeBlob(a *dbmysql.FileAttachment) {
	if err := os.Remove(a.StoragePath); err != nil {
		s.log.Warn("orphan blob cleanup failed", zap.String("path", a.StoragePath), zap.Error(err))
	}
	if a.ThumbPath != nil {
		os.Remove(*a.ThumbPath)
	}
}

// Find returns the attachment record for id.
func (s *FileStore) Find(ctx context.Context, id string) (*dbmysql.FileAttachment, error) {
	return s.repo.FindByID(ctx, id)
}

// Chunk is one bounded slice of a streamed blob.
type Chunk struct {
	Seq  int
	Last bool
	Data []byte
}

// Stream reads the stored blob for id and hands it to emit as chunks of at
// most ChunkSize bytes, with Seq strictly increasing from 0 and Last set on
// exactly the final chunk. An empty blob yields a single empty last chunk.
func (s *FileStore) Stream(ctx context.Context, id string, emit func(Chunk) error) error {
	attachment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	f, err := os.Open(attachment.StoragePath)
	if err != nil {
		return fmt.Errorf("open blob: %w", err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, s.chunkSize)
	seq := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		buf := make([]byte, s.chunkSize)
		n, readErr := io.ReadFull(r, buf)
		if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
			return fmt.Errorf("read blob: %w", readErr)
		}

		last := readErr != nil // short read means the file is drained
		if !last {
			if _, peekErr := r.Peek(1); peekErr == io.EOF {
				last = true
			}
		}

		if err := emit(Chunk{Seq: seq, Last: last, Data: buf[:n]}); err != nil {
			return err
		}
		if last {
			return nil
		}
		seq++
	}
}

// Thumb returns the thumbnail bytes for id.
func (s *FileStore) Thumb(ctx context.Context, id string) ([]byte, error) {
	attachment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if attachment.ThumbPath == nil {
		return nil, ErrNoThumbnail
	}
	data, err := os.ReadFile(*attachment.ThumbPath)
	if err != nil {
		return nil, fmt.Errorf("read thumbnail: %w", err)
	}
	return data, nil
}

func mimeTypeFor(ext string) string {
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
