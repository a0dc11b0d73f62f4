package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tybalex/otto8-log-tool/internal/model"
)

const (
	defaultFileMode = 0644
	defaultDirMode  = 0755
)

// LocalStore keeps the snapshot in a single JSON file on the local
// filesystem. Writes go through a temp file, fsync, and rename so a crash
// never leaves a partial document behind.
type LocalStore struct {
	path string
}

// NewLocalStore returns a store writing to path.
func NewLocalStore(path string) *LocalStore {
	return &LocalStore{path: path}
}

func (s *LocalStore) Save(_ context.Context, snap *model.Snapshot) error {
	if snap == nil {
		return errors.New("snapshot: nil snapshot")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), defaultDirMode); err != nil {
		return fmt.Errorf("snapshot: mkdir: %w", err)
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return fmt.Errorf("snapshot: open tmp: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("snapshot: write tmp: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("snapshot: sync tmp: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("snapshot: close tmp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	return nil
}

func (s *LocalStore) Load(_ context.Context) (*model.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("snapshot: parse %s: %w", s.path, err)
	}
	return &snap, nil
}
