package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tybalex/otto8-log-tool/internal/align"
	"github.com/tybalex/otto8-log-tool/internal/mask"
	"github.com/tybalex/otto8-log-tool/internal/model"
	"github.com/tybalex/otto8-log-tool/internal/templates"
)

var (
	// ErrEmptyInput reports a discover run over zero lines.
	ErrEmptyInput = errors.New("pipeline: no log lines to process")
	// ErrClusterNotFound reports a reconstruct request for a cluster id the
	// snapshot does not contain.
	ErrClusterNotFound = errors.New("pipeline: cluster not found in snapshot")
)

// Controller runs the two pipeline phases. Discover mines templates from raw
// lines; Reconstruct replays a persisted snapshot to recover the parameter
// values of one cluster. The phases share no mutable state: each run builds
// its own template store.
type Controller struct {
	masker   *mask.Masker
	newStore func() templates.Store
}

// New builds a controller. newStore is called once per phase run, so one
// run's clustering never leaks into another.
func New(masker *mask.Masker, newStore func() templates.Store) *Controller {
	return &Controller{masker: masker, newStore: newStore}
}

// Discover masks and ingests every line in order, then returns the snapshot
// of the mined templates together with the untouched input lines.
func (c *Controller) Discover(ctx context.Context, lines []string) (*model.Snapshot, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}

	store := c.newStore()
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		masked, _ := c.masker.Mask(line)
		if err := store.Ingest(masked); err != nil {
			return nil, fmt.Errorf("pipeline: discover: %w", err)
		}
	}

	return &model.Snapshot{
		Clusters: store.ListTemplates(),
		LogLines: lines,
	}, nil
}

// Reconstruct recovers the parameters of every retained line belonging to the
// requested cluster. The template store is rebuilt from the snapshot's own
// lines, which keeps cluster ids deterministic across process lifetimes.
// Lines that match a different cluster are ignored; lines that fail alignment
// are skipped and logged, never fatal.
func (c *Controller) Reconstruct(ctx context.Context, snap *model.Snapshot, clusterID int64) (*model.ReconstructResult, error) {
	if snap == nil {
		return nil, errors.New("pipeline: nil snapshot")
	}
	requested, ok := snap.FindCluster(clusterID)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrClusterNotFound, clusterID)
	}

	store := c.newStore()
	for _, line := range snap.LogLines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		masked, _ := c.masker.Mask(line)
		if err := store.Ingest(masked); err != nil {
			return nil, fmt.Errorf("pipeline: rebuild store: %w", err)
		}
	}

	result := &model.ReconstructResult{
		ClusterID:  clusterID,
		Template:   requested.Template,
		Parameters: []model.LineParameters{},
	}

	skipped := 0
	for _, line := range snap.LogLines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		masked, catalogue := c.masker.Mask(line)
		template, matchedID, ok := store.Match(masked)
		if !ok {
			skipped++
			log.Printf("pipeline: no cluster matched line %q, skipping", line)
			continue
		}
		if matchedID != clusterID {
			continue
		}
		occurrences, err := align.ExtractParameters(template, masked, catalogue)
		if err != nil {
			skipped++
			log.Printf("pipeline: skipping line %q: %v", line, err)
			continue
		}
		result.Parameters = append(result.Parameters, model.LineParameters{
			Line:       line,
			Parameters: occurrences,
		})
	}
	if skipped > 0 {
		log.Printf("pipeline: reconstruct cluster %d: skipped %d of %d lines", clusterID, skipped, len(snap.LogLines))
	}
	return result, nil
}
