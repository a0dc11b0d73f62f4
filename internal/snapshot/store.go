package snapshot

import (
	"context"
	"errors"

	"github.com/tybalex/otto8-log-tool/internal/model"
)

// ErrNotFound reports that no snapshot has been persisted yet.
var ErrNotFound = errors.New("snapshot: not found")

// Store persists and restores one discover run. A snapshot is written and
// read as a whole document, never incrementally; each save supersedes the
// previous snapshot.
type Store interface {
	Save(ctx context.Context, snap *model.Snapshot) error
	Load(ctx context.Context) (*model.Snapshot, error)
}
