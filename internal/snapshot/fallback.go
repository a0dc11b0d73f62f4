package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tybalex/otto8-log-tool/internal/model"
)

// Fallback tries an ordered list of backends with first-success semantics.
// Save and Load walk the same order, so a snapshot written to any backend in
// the chain is recoverable by a subsequent load.
type Fallback struct {
	backends []Store
}

// NewFallback builds a chain over the given backends, primary first.
func NewFallback(backends ...Store) *Fallback {
	return &Fallback{backends: backends}
}

func (f *Fallback) Save(ctx context.Context, snap *model.Snapshot) error {
	if len(f.backends) == 0 {
		return errors.New("snapshot: no backends configured")
	}
	var errs []error
	for i, backend := range f.backends {
		err := backend.Save(ctx, snap)
		if err == nil {
			return nil
		}
		if i < len(f.backends)-1 {
			log.Printf("snapshot: backend %d save failed, trying next: %v", i, err)
		}
		errs = append(errs, err)
	}
	return fmt.Errorf("snapshot: all backends failed to save: %w", errors.Join(errs...))
}

func (f *Fallback) Load(ctx context.Context) (*model.Snapshot, error) {
	if len(f.backends) == 0 {
		return nil, errors.New("snapshot: no backends configured")
	}
	var errs []error
	for i, backend := range f.backends {
		snap, err := backend.Load(ctx)
		if err == nil {
			return snap, nil
		}
		if i < len(f.backends)-1 {
			log.Printf("snapshot: backend %d load failed, trying next: %v", i, err)
		}
		errs = append(errs, err)
	}
	joined := errors.Join(errs...)
	if errors.Is(joined, ErrNotFound) {
		return nil, ErrNotFound
	}
	return nil, fmt.Errorf("snapshot: all backends failed to load: %w", joined)
}
