package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"cabin-network-backend/config"
	"cabin-network-backend/internal/db"
	"cabin-network-backend/internal/model"
	"cabin-network-backend/internal/store"
	"cabin-network-backend/internal/tree"
)

// backend is the tree plus whatever keeps it alive.
type backend struct {
	tree         tree.Tree
	store        store.Store
	checkpointer *tree.Checkpointer
	remote       *tree.Remote
	log          *zap.Logger
}

func openBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backend, error) {
	gormDB, err := db.Init(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	b := &backend{store: store.NewGormStore(gormDB), log: log}

	switch cfg.Tree.Backend {
	case config.BackendRemote:
		b.remote = tree.NewRemote(cfg.Tree.Remote, log)
		b.tree = b.remote
		log.Info("using remote tree", zap.String("base_url", cfg.Tree.Remote.BaseURL))
	default:
		mem := tree.NewMemory()
		b.tree = mem
		if cfg.Tree.Checkpoint.Enabled {
			cp := &cfg.Tree.Checkpoint
			b.checkpointer = tree.NewCheckpointer(mem, b.store, cp.Key, cp.Schedule, log)
			if err := b.checkpointer.Restore(ctx); err != nil {
				b.closeDB()
				return nil, err
			}
		}
		log.Info("using in-memory tree", zap.Bool("checkpoint", cfg.Tree.Checkpoint.Enabled))
	}
	return b, nil
}

// snapshot reads the zones subtree once.
func (b *backend) snapshot(ctx context.Context) (model.Snapshot, error) {
	raw, err := b.tree.Get(ctx, model.ZonesPath)
	if errors.Is(err, tree.ErrNotFound) {
		return model.EmptySnapshot(), nil
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to read inventory: %w", err)
	}
	return model.Normalize(raw), nil
}

func (b *backend) close(ctx context.Context) {
	if b.checkpointer != nil {
		if err := b.checkpointer.Stop(ctx); err != nil {
			b.log.Error("final checkpoint failed", zap.Error(err))
		}
	}
	if b.remote != nil {
		b.remote.Close()
	}
	b.closeDB()
}

func (b *backend) closeDB() {
	if sqlDB, err := b.store.DB().DB(); err == nil {
		sqlDB.Close()
	}
}
