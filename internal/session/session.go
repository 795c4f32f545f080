// Package session holds the live subscription to the inventory tree and
// the latest normalized snapshot derived from it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"cabin-network-backend/internal/model"
	"cabin-network-backend/internal/tree"
)

// ErrAlreadyStarted is returned by Start on a running session.
var ErrAlreadyStarted = errors.New("session: already started")

// WatchFunc is called after every snapshot update with the previous and
// the new snapshot. It runs on the delivery path and must not block or
// write to the tree.
type WatchFunc func(prev, next model.Snapshot)

// Session projects the tree's zones subtree into a typed snapshot. The
// snapshot is replaced wholesale on every delivery and never edited.
type Session struct {
	tree tree.Tree
	log  *zap.Logger

	mu          sync.RWMutex
	snap        model.Snapshot
	revision    uint64
	watchers    []WatchFunc
	unsubscribe func()

	ready     chan struct{}
	readyOnce sync.Once
}

// New creates a stopped session over t.
func New(t tree.Tree, log *zap.Logger) *Session {
	return &Session{
		tree:  t,
		log:   log,
		snap:  model.EmptySnapshot(),
		ready: make(chan struct{}),
	}
}

// Start subscribes to the zones subtree.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.unsubscribe = func() {}
	s.mu.Unlock()

	unsubscribe, err := s.tree.Subscribe(model.ZonesPath, s.apply)
	if err != nil {
		s.mu.Lock()
		s.unsubscribe = nil
		s.mu.Unlock()
		return fmt.Errorf("failed to subscribe to %s: %w", model.ZonesPath, err)
	}

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
	s.log.Info("session started", zap.String("path", model.ZonesPath))
	return nil
}

// Stop ends the subscription. The last snapshot stays readable.
func (s *Session) Stop() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
		s.log.Info("session stopped", zap.Uint64("revision", s.Revision()))
	}
}

// Snapshot returns the latest snapshot. Callers must treat it as read-only.
func (s *Session) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Revision counts the deliveries received so far.
func (s *Session) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Current returns the snapshot together with its revision.
func (s *Session) Current() (model.Snapshot, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.revision
}

// Ready is closed once the first snapshot has arrived.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// WaitReady blocks until the first snapshot or until ctx is done.
func (s *Session) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Watch registers fn for every subsequent update.
func (s *Session) Watch(fn WatchFunc) {
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	s.mu.Unlock()
}

func (s *Session) apply(raw any) {
	next := model.Normalize(raw)

	s.mu.Lock()
	prev := s.snap
	s.snap = next
	s.revision++
	revision := s.revision
	watchers := append([]WatchFunc(nil), s.watchers...)
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
	s.log.Debug("snapshot updated", zap.Uint64("revision", revision))

	for _, fn := range watchers {
		fn(prev, next)
	}
}
