package templates

import (
	"context"
	"fmt"
	"sort"

	"github.com/jaeyo/go-drain3/pkg/drain3"

	"github.com/tybalex/otto8-log-tool/internal/model"
)

// Store is the three-operation contract the pipeline consumes. The clustering
// algorithm behind it is opaque; alignment must work for any implementation,
// including degenerate single-token templates.
type Store interface {
	// Ingest incorporates one masked line into the evolving template set.
	Ingest(maskedLine string) error
	// Match returns the best-fitting existing template for a masked line.
	// ok is false when no cluster fits or nothing has been ingested yet.
	Match(maskedLine string) (template string, clusterID int64, ok bool)
	// ListTemplates returns the current templates sorted by size descending.
	ListTemplates() []model.ClusterInfo
}

// Config carries the clustering tunables. They are consumed opaquely by the
// underlying miner and fixed for the lifetime of one store.
type Config struct {
	SimilarityThreshold float64
	Depth               int
	MaxChildren         int
	MaxClusters         int
}

// DefaultConfig mirrors the drain3 defaults.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.4,
		Depth:               4,
		MaxChildren:         100,
		MaxClusters:         1024,
	}
}

// DrainStore implements Store on top of the go-drain3 template miner. It
// keeps its own cluster listing, updated from ingest results, so listing
// never reaches into miner internals. The miner caps live clusters with an
// LRU cache, so the listing evicts its least-recently-updated entries
// whenever the miner reports fewer clusters than the listing holds.
type DrainStore struct {
	miner    *drain3.TemplateMiner
	clusters map[int64]*model.ClusterInfo
	touched  map[int64]uint64
	seq      uint64
}

// NewDrainStore builds a fresh in-memory miner with the given tunables.
// Zero-valued tunables fall back to the drain3 defaults.
func NewDrainStore(cfg Config) *DrainStore {
	def := DefaultConfig()
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = def.SimilarityThreshold
	}
	if cfg.Depth <= 0 {
		cfg.Depth = def.Depth
	}
	if cfg.MaxChildren <= 0 {
		cfg.MaxChildren = def.MaxChildren
	}
	if cfg.MaxClusters <= 0 {
		cfg.MaxClusters = def.MaxClusters
	}

	d, _ := drain3.NewDrain(
		drain3.WithSimTh(cfg.SimilarityThreshold),
		drain3.WithDepth(int64(cfg.Depth)),
		drain3.WithMaxChildren(int64(cfg.MaxChildren)),
		drain3.WithMaxCluster(cfg.MaxClusters),
	)
	return &DrainStore{
		miner:    drain3.NewTemplateMiner(d, drain3.NewMemoryPersistence()),
		clusters: make(map[int64]*model.ClusterInfo),
		touched:  make(map[int64]uint64),
	}
}

// Ingest feeds one masked line to the miner and folds the result into the
// cluster listing.
func (s *DrainStore) Ingest(maskedLine string) error {
	_, cluster, template, clusterCount, err := s.miner.AddLogMessage(context.Background(), maskedLine)
	if err != nil {
		return fmt.Errorf("templates: ingest: %w", err)
	}
	if cluster == nil {
		return fmt.Errorf("templates: ingest: miner returned no cluster")
	}

	info, ok := s.clusters[cluster.ClusterId]
	if !ok {
		info = &model.ClusterInfo{ID: cluster.ClusterId}
		s.clusters[cluster.ClusterId] = info
	}
	info.Size++
	info.Template = template

	s.seq++
	s.touched[cluster.ClusterId] = s.seq
	s.dropEvicted(clusterCount)
	return nil
}

// dropEvicted trims the listing down to the miner's reported cluster count,
// removing least-recently-updated entries first to mirror the miner's LRU.
func (s *DrainStore) dropEvicted(clusterCount int) {
	for clusterCount > 0 && len(s.clusters) > clusterCount {
		var oldest int64
		var oldestSeq uint64
		first := true
		for id, at := range s.touched {
			if first || at < oldestSeq {
				oldest, oldestSeq, first = id, at, false
			}
		}
		delete(s.clusters, oldest)
		delete(s.touched, oldest)
	}
}

// Match looks up the best existing cluster for a masked line.
func (s *DrainStore) Match(maskedLine string) (string, int64, bool) {
	cluster, err := s.miner.Match(maskedLine, drain3.SearchStrategyNever)
	if err != nil || cluster == nil {
		return "", 0, false
	}
	return cluster.GetTemplate(), cluster.ClusterId, true
}

// ListTemplates returns the mined templates sorted by size descending,
// id ascending on ties.
func (s *DrainStore) ListTemplates() []model.ClusterInfo {
	out := make([]model.ClusterInfo, 0, len(s.clusters))
	for _, info := range s.clusters {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size > out[j].Size
		}
		return out[i].ID < out[j].ID
	})
	return out
}
