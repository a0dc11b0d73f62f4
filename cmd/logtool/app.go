package main

import (
	"context"
	"fmt"
	"log"

	"github.com/tybalex/otto8-log-tool/internal/mask"
	"github.com/tybalex/otto8-log-tool/internal/model"
	"github.com/tybalex/otto8-log-tool/internal/pipeline"
	"github.com/tybalex/otto8-log-tool/internal/snapshot"
	"github.com/tybalex/otto8-log-tool/internal/source"
	"github.com/tybalex/otto8-log-tool/internal/templates"
)

// app wires the pipeline, the input fetcher, and the snapshot store into the
// operations shared by the CLI commands and the HTTP API.
type app struct {
	fetcher   *source.Fetcher
	ctrl      *pipeline.Controller
	snapshots snapshot.Store
}

func newApp(cfg appConfig) (*app, error) {
	masker, err := buildMasker(cfg)
	if err != nil {
		return nil, err
	}

	storeCfg := templates.Config{
		SimilarityThreshold: cfg.SimilarityThreshold,
		Depth:               cfg.TreeDepth,
		MaxChildren:         cfg.MaxChildren,
		MaxClusters:         cfg.MaxClusters,
	}
	ctrl := pipeline.New(masker, func() templates.Store {
		return templates.NewDrainStore(storeCfg)
	})

	snapshots, err := buildSnapshotStore(cfg)
	if err != nil {
		return nil, err
	}

	return &app{
		fetcher:   source.NewFetcher(cfg.CacheDir),
		ctrl:      ctrl,
		snapshots: snapshots,
	}, nil
}

func buildMasker(cfg appConfig) (*mask.Masker, error) {
	if cfg.MaskRules == "" {
		return mask.New(), nil
	}
	rules, err := mask.LoadRules(cfg.MaskRules)
	if err != nil {
		return nil, err
	}
	return mask.NewWithRules(rules)
}

// buildSnapshotStore assembles the backend chain: the workspace bucket when
// configured, then the local file. Save and load walk the same order.
func buildSnapshotStore(cfg appConfig) (snapshot.Store, error) {
	local := snapshot.NewLocalStore(cfg.SnapshotPath)
	if cfg.WorkspaceURL == "" {
		return local, nil
	}
	remote, err := snapshot.NewS3Store(snapshot.S3Config{
		BucketURL:    cfg.WorkspaceURL,
		Endpoint:     cfg.S3Endpoint,
		Region:       cfg.S3Region,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		SessionToken: cfg.S3SessionToken,
		UseSSL:       cfg.S3UseSSL,
	})
	if err != nil {
		// A misconfigured workspace should not take the tool down; the local
		// backend still satisfies save and load.
		log.Printf("workspace store unavailable, using local snapshots only: %v", err)
		return local, nil
	}
	return snapshot.NewFallback(remote, local), nil
}

// Discover fetches the input, mines templates from it, and persists the
// resulting snapshot.
func (a *app) Discover(ctx context.Context, src string) (*model.Snapshot, error) {
	path, err := a.fetcher.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	lines, err := source.ReadLines(path)
	if err != nil {
		return nil, err
	}
	snap, err := a.ctrl.Discover(ctx, lines)
	if err != nil {
		return nil, err
	}
	if err := a.snapshots.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	return snap, nil
}

// Clusters lists the templates of the persisted snapshot.
func (a *app) Clusters(ctx context.Context) ([]model.ClusterInfo, error) {
	snap, err := a.snapshots.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Clusters, nil
}

// Reconstruct loads the persisted snapshot and recovers the parameters of
// the requested cluster.
func (a *app) Reconstruct(ctx context.Context, clusterID int64) (*model.ReconstructResult, error) {
	snap, err := a.snapshots.Load(ctx)
	if err != nil {
		return nil, err
	}
	return a.ctrl.Reconstruct(ctx, snap, clusterID)
}
