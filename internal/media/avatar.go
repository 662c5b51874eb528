package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrAvatarNotFound is returned when no avatar exists for a username.
var ErrAvatarNotFound = errors.New("avatar not found")

// AvatarStore is a blob store keyed by username. Two backends exist: this
// disk store and the GridFS store in internal/dbmongo, selected by config.
type AvatarStore interface {
	Put(ctx context.Context, username string, data []byte) error
	Get(ctx context.Context, username string) ([]byte, error)
}

type diskAvatarStore struct {
	dir string
}

// NewDiskAvatarStore stores one blob per username under dir. Usernames are
// restricted to [A-Za-z0-9_] at login, so they are safe path components.
func NewDiskAvatarStore(dir string) (AvatarStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &diskAvatarStore{dir: dir}, nil
}

func (s *diskAvatarStore) Put(ctx context.Context, username string, data []byte) error {
	return os.WriteFile(filepath.Join(s.dir, username), data, 0o644)
}

func (s *diskAvatarStore) Get(ctx context.Context, username string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, username))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrAvatarNotFound
	}
	return data, err
}
