package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/MohnajibG/circet/internal/utils"
)

/* ------------------------------------------------------------------
   In-memory driver. Used by the test suite and by STORE_DRIVER=memory
   for local development: same contract as the postgres driver, no I/O.
------------------------------------------------------------------ */

type memWatcher struct {
	docPath        string
	collectionPath string
	signal         chan struct{}
}

type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]map[string]any
	watchers map[*memWatcher]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]map[string]any),
		watchers: make(map[*memWatcher]struct{}),
	}
}

func (m *MemoryStore) Get(_ context.Context, path string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fields, ok := m.docs[path]
	if !ok {
		return Snapshot{Path: path, ID: DocID(path)}, utils.ErrNotFound
	}
	return m.snapshotLocked(path, fields), nil
}

func (m *MemoryStore) List(_ context.Context, collectionPath string) (CollectionSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked(collectionPath), nil
}

func (m *MemoryStore) Create(_ context.Context, collectionPath string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	path := Join(collectionPath, id)

	m.mu.Lock()
	m.docs[path] = deepCopyFields(fields)
	m.mu.Unlock()

	m.notify(path)
	return id, nil
}

func (m *MemoryStore) Set(_ context.Context, path string, fields map[string]any) error {
	m.mu.Lock()
	existing, ok := m.docs[path]
	if !ok {
		existing = make(map[string]any, len(fields))
		m.docs[path] = existing
	}
	for k, v := range deepCopyFields(fields) {
		existing[k] = v
	}
	m.mu.Unlock()

	m.notify(path)
	return nil
}

func (m *MemoryStore) Update(_ context.Context, path string, fields map[string]any) error {
	m.mu.Lock()
	existing, ok := m.docs[path]
	if !ok {
		m.mu.Unlock()
		return utils.ErrNotFound
	}
	for k, v := range deepCopyFields(fields) {
		existing[k] = v
	}
	m.mu.Unlock()

	m.notify(path)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	_, existed := m.docs[path]
	delete(m.docs, path)
	m.mu.Unlock()

	if existed {
		m.notify(path)
	}
	return nil
}

func (m *MemoryStore) WatchDoc(ctx context.Context, path string) *DocSubscription {
	w := &memWatcher{docPath: path, signal: make(chan struct{}, 1)}
	m.register(w)

	sub := &DocSubscription{updates: make(chan Snapshot)}
	done := make(chan struct{})
	sub.stop = func() { close(done) }

	go func() {
		defer m.unregister(w)
		defer close(sub.updates)
		for {
			snap, err := m.Get(ctx, path)
			if err != nil {
				snap = Snapshot{Path: path, ID: DocID(path)}
			}
			select {
			case sub.updates <- snap:
			case <-done:
				return
			case <-ctx.Done():
				return
			}
			select {
			case <-w.signal:
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub
}

func (m *MemoryStore) WatchCollection(ctx context.Context, collectionPath string) *CollectionSubscription {
	w := &memWatcher{collectionPath: collectionPath, signal: make(chan struct{}, 1)}
	m.register(w)

	sub := &CollectionSubscription{updates: make(chan CollectionSnapshot)}
	done := make(chan struct{})
	sub.stop = func() { close(done) }

	go func() {
		defer m.unregister(w)
		defer close(sub.updates)
		for {
			m.mu.RLock()
			snap := m.listLocked(collectionPath)
			m.mu.RUnlock()

			select {
			case sub.updates <- snap:
			case <-done:
				return
			case <-ctx.Done():
				return
			}
			select {
			case <-w.signal:
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub
}

func (m *MemoryStore) Close() {}

/* ---------- internals ---------- */

func (m *MemoryStore) snapshotLocked(path string, fields map[string]any) Snapshot {
	return Snapshot{
		Path:   path,
		ID:     DocID(path),
		Exists: true,
		Fields: deepCopyFields(fields),
	}
}

func (m *MemoryStore) listLocked(collectionPath string) CollectionSnapshot {
	snap := CollectionSnapshot{Path: collectionPath}
	for path, fields := range m.docs {
		if ParentCollection(path) == collectionPath {
			snap.Docs = append(snap.Docs, m.snapshotLocked(path, fields))
		}
	}
	return snap
}

func (m *MemoryStore) register(w *memWatcher) {
	m.mu.Lock()
	m.watchers[w] = struct{}{}
	m.mu.Unlock()
}

func (m *MemoryStore) unregister(w *memWatcher) {
	m.mu.Lock()
	delete(m.watchers, w)
	m.mu.Unlock()
}

// notify wakes every watcher interested in the written path. The signal
// channel has capacity 1: pending deliveries coalesce, and the dispatch
// goroutine always re-reads the latest state before sending.
func (m *MemoryStore) notify(path string) {
	coll := ParentCollection(path)

	m.mu.RLock()
	defer m.mu.RUnlock()
	for w := range m.watchers {
		if w.docPath == path || (w.collectionPath != "" && w.collectionPath == coll) {
			select {
			case w.signal <- struct{}{}:
			default:
			}
		}
	}
}

func deepCopyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyFields(t)
	case []any:
		cp := make([]any, len(t))
		for i, e := range t {
			cp[i] = deepCopyValue(e)
		}
		return cp
	default:
		return v
	}
}
