package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	domrepo "FinTrain/internal/domain/repository"
	"FinTrain/pkg/cache"
)

// FileSnapshotStore keeps the snapshot in a single file.
// Save overwrites in place; a crash mid-write leaves a truncated file.
type FileSnapshotStore struct {
	path string
}

func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

func (s *FileSnapshotStore) Location() string { return s.path }

func (s *FileSnapshotStore) Load(_ context.Context) ([]byte, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domrepo.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}
	return b, nil
}

func (s *FileSnapshotStore) Save(_ context.Context, data []byte) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", s.path, err)
	}
	return nil
}

// RedisSnapshotStore keeps the snapshot under <prefix>:model:<symbol>.
type RedisSnapshotStore struct {
	cache cache.Service
	key   string
	loc   string
}

// NewRedisSnapshotStore stores the snapshot of symbol in rc.
func NewRedisSnapshotStore(rc *cache.RedisCache, symbol string) *RedisSnapshotStore {
	key := "model:" + symbol
	return &RedisSnapshotStore{cache: rc, key: key, loc: "redis://" + rc.Key(key)}
}

func (s *RedisSnapshotStore) Location() string { return s.loc }

func (s *RedisSnapshotStore) Load(ctx context.Context) ([]byte, error) {
	b, err := s.cache.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, domrepo.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("get snapshot %s: %w", s.loc, err)
	}
	return b, nil
}

func (s *RedisSnapshotStore) Save(ctx context.Context, data []byte) error {
	if err := s.cache.Set(ctx, s.key, data, 0); err != nil {
		return fmt.Errorf("set snapshot %s: %w", s.loc, err)
	}
	return nil
}

var (
	_ domrepo.SnapshotStore = (*FileSnapshotStore)(nil)
	_ domrepo.SnapshotStore = (*RedisSnapshotStore)(nil)
)
