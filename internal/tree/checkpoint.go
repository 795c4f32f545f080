package tree

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"cabin-network-backend/internal/store"
)

// Checkpointer persists a Memory tree to the database on a schedule so a
// restart does not lose the inventory.
type Checkpointer struct {
	tree     *Memory
	store    store.Store
	key      string
	schedule string
	log      *zap.Logger

	cron *cron.Cron

	mu   sync.Mutex
	last []byte
}

// NewCheckpointer creates a checkpointer writing tree under key.
func NewCheckpointer(tree *Memory, s store.Store, key, schedule string, log *zap.Logger) *Checkpointer {
	return &Checkpointer{
		tree:     tree,
		store:    s,
		key:      key,
		schedule: schedule,
		log:      log,
		cron:     cron.New(),
	}
}

// Restore loads the last saved document into the tree. A missing document
// leaves the tree empty.
func (c *Checkpointer) Restore(ctx context.Context) error {
	body, err := c.store.LoadDocument(ctx, c.key)
	if errors.Is(err, store.ErrNotFound) {
		c.log.Info("no checkpoint found, starting empty", zap.String("key", c.key))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if err := c.tree.Import(ctx, body); err != nil {
		return err
	}
	c.mu.Lock()
	c.last = body
	c.mu.Unlock()
	c.log.Info("checkpoint restored", zap.String("key", c.key), zap.Int("bytes", len(body)))
	return nil
}

// Save writes the tree if it changed since the last save.
func (c *Checkpointer) Save(ctx context.Context) error {
	body, err := c.tree.Export()
	if err != nil {
		return fmt.Errorf("failed to export tree: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if bytes.Equal(body, c.last) {
		return nil
	}
	if err := c.store.SaveDocument(ctx, c.key, body); err != nil {
		return err
	}
	c.last = body
	return nil
}

// Start schedules periodic saves.
func (c *Checkpointer) Start() error {
	_, err := c.cron.AddFunc(c.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.Save(ctx); err != nil {
			c.log.Error("checkpoint failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid checkpoint schedule %q: %w", c.schedule, err)
	}
	c.cron.Start()
	c.log.Info("checkpointing enabled", zap.String("schedule", c.schedule))
	return nil
}

// Stop waits for a running save to finish, then saves one last time.
func (c *Checkpointer) Stop(ctx context.Context) error {
	<-c.cron.Stop().Done()
	return c.Save(ctx)
}
