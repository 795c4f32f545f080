package tree

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type subscription struct {
	id   uint64
	path []string
	fn   func(any)
}

// Memory is an in-process Tree. Writes are serialized; subscribers are
// called synchronously after each write, in write order, and must not call
// back into the tree from inside the callback.
type Memory struct {
	mu     sync.RWMutex
	root   map[string]any
	subs   map[uint64]*subscription
	nextID uint64

	// deliver serializes callbacks so every subscriber sees writes in order.
	deliver sync.Mutex
}

// NewMemory creates an empty tree.
func NewMemory() *Memory {
	return &Memory{
		root: map[string]any{},
		subs: map[uint64]*subscription{},
	}
}

// Subscribe implements Tree.
func (m *Memory) Subscribe(path string, fn func(any)) (func(), error) {
	segs := Split(path)

	m.mu.Lock()
	m.nextID++
	sub := &subscription{id: m.nextID, path: segs, fn: fn}
	m.subs[sub.id] = sub
	initial := clone(lookup(m.root, segs))
	m.deliver.Lock()
	m.mu.Unlock()

	fn(initial)
	m.deliver.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, sub.id)
		m.mu.Unlock()
	}, nil
}

// Get implements Tree.
func (m *Memory) Get(ctx context.Context, path string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v := lookup(m.root, Split(path))
	if v == nil {
		return nil, ErrNotFound
	}
	return clone(v), nil
}

// Push implements Tree. Keys are UUIDv7 strings, so lexical order follows
// creation order.
func (m *Memory) Push(ctx context.Context, path string, value any) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	key := id.String()
	if err := m.Set(ctx, Join(path, key), value); err != nil {
		return "", err
	}
	return key, nil
}

// Set implements Tree. Setting nil removes the node.
func (m *Memory) Set(ctx context.Context, path string, value any) error {
	v, err := normalize(value)
	if err != nil {
		return err
	}
	return m.write(ctx, Split(path), func(segs []string) {
		if len(segs) == 0 {
			root, ok := v.(map[string]any)
			if !ok {
				root = map[string]any{}
			}
			m.root = root
			return
		}
		put(m.root, segs, v)
	})
}

// Update implements Tree.
func (m *Memory) Update(ctx context.Context, path string, fields map[string]any) error {
	vals := make(map[string]any, len(fields))
	for k, f := range fields {
		v, err := normalize(f)
		if err != nil {
			return err
		}
		vals[k] = v
	}
	return m.write(ctx, Split(path), func(segs []string) {
		for k, v := range vals {
			target := append(append([]string{}, segs...), Split(k)...)
			if len(target) == 0 {
				continue
			}
			put(m.root, target, v)
		}
	})
}

// Remove implements Tree.
func (m *Memory) Remove(ctx context.Context, path string) error {
	return m.write(ctx, Split(path), func(segs []string) {
		if len(segs) == 0 {
			m.root = map[string]any{}
			return
		}
		put(m.root, segs, nil)
	})
}

// Export returns the whole tree encoded as JSON.
func (m *Memory) Export() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return json.Marshal(m.root)
}

// Import replaces the whole tree with a JSON document and notifies every
// subscriber.
func (m *Memory) Import(ctx context.Context, body []byte) error {
	var root map[string]any
	if err := json.Unmarshal(body, &root); err != nil {
		return fmt.Errorf("failed to decode tree document: %w", err)
	}
	return m.Set(ctx, "", root)
}

func (m *Memory) write(ctx context.Context, segs []string, apply func([]string)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	apply(segs)
	type delivery struct {
		fn    func(any)
		value any
	}
	var pending []delivery
	for _, sub := range m.subs {
		if overlaps(sub.path, segs) {
			pending = append(pending, delivery{fn: sub.fn, value: clone(lookup(m.root, sub.path))})
		}
	}
	m.deliver.Lock()
	m.mu.Unlock()
	defer m.deliver.Unlock()

	for _, d := range pending {
		d.fn(d.value)
	}
	return nil
}

func lookup(root map[string]any, segs []string) any {
	var cur any = root
	for _, s := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[s]
		if !ok {
			return nil
		}
	}
	if m, ok := cur.(map[string]any); ok && len(m) == 0 && len(segs) > 0 {
		return nil
	}
	return cur
}

// put writes v at segs, creating parents on the way. A nil v deletes the
// node and prunes parents left empty.
func put(root map[string]any, segs []string, v any) {
	parent := root
	chain := []map[string]any{root}
	for _, s := range segs[:len(segs)-1] {
		next, ok := parent[s].(map[string]any)
		if !ok {
			if v == nil {
				return
			}
			next = map[string]any{}
			parent[s] = next
		}
		parent = next
		chain = append(chain, parent)
	}
	last := segs[len(segs)-1]
	if v == nil {
		delete(parent, last)
		for i := len(chain) - 1; i > 0; i-- {
			if len(chain[i]) > 0 {
				break
			}
			delete(chain[i-1], segs[i-1])
		}
		return
	}
	parent[last] = v
}

// normalize round-trips value through JSON so the tree only holds plain
// JSON types and never aliases caller memory.
func normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}
	return out, nil
}

func clone(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = clone(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = clone(e)
		}
		return out
	}
	return v
}
