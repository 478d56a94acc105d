package docstore

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

/* ------------------------------------------------------------------
   Path-addressed document store.

   Documents live at paths like "buildings/{id}" or
   "buildings/{id}/apartments/{id}"; a collection path is the document
   path minus its last segment. This is the only component of the core
   that touches storage I/O; everything above it consumes snapshots.
------------------------------------------------------------------ */

// Snapshot is an immutable copy of one document. Subscribers each hold
// their own copy; no mutable state is ever shared across consumers.
type Snapshot struct {
	Path   string
	ID     string
	Exists bool
	Fields map[string]any
}

// Decode unmarshals the snapshot fields (plus the document id under
// the "id" key) into v via a JSON round-trip.
func (s Snapshot) Decode(v any) error {
	merged := make(map[string]any, len(s.Fields)+1)
	for k, val := range s.Fields {
		merged[k] = val
	}
	merged["id"] = s.ID
	raw, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// CollectionSnapshot is the full state of a collection at one point in
// time. Consumers replace their local view wholesale on every delivery;
// there is no diffing contract.
type CollectionSnapshot struct {
	Path string
	Docs []Snapshot
}

// Store is the subscribe/read/write primitive over the document tree.
// Writes report failure to the caller; nothing retries automatically.
type Store interface {
	// Get returns the document at path, or utils.ErrNotFound.
	Get(ctx context.Context, path string) (Snapshot, error)

	// List returns every document in the collection, unordered.
	List(ctx context.Context, collectionPath string) (CollectionSnapshot, error)

	// Create appends a new document with a generated id and returns it.
	Create(ctx context.Context, collectionPath string, fields map[string]any) (string, error)

	// Set merge-upserts fields at path (the document is created when absent).
	Set(ctx context.Context, path string, fields map[string]any) error

	// Update merge-patches an existing document; utils.ErrNotFound when absent.
	Update(ctx context.Context, path string, fields map[string]any) error

	// Delete removes the document at path. Deleting an absent document is a no-op.
	Delete(ctx context.Context, path string) error

	// WatchDoc streams full snapshots of one document, starting with its
	// current state, then on every remote change, in write order.
	WatchDoc(ctx context.Context, path string) *DocSubscription

	// WatchCollection streams full snapshots of one collection on the
	// same terms. Ordering across different watched paths is not defined.
	WatchCollection(ctx context.Context, collectionPath string) *CollectionSubscription

	Close()
}

/* ---------- subscriptions ---------- */

// DocSubscription is a cancellable stream of document snapshots.
type DocSubscription struct {
	updates chan Snapshot
	stop    func()
	once    sync.Once
}

// Updates is closed after Cancel (or context cancellation).
func (s *DocSubscription) Updates() <-chan Snapshot { return s.updates }

// Cancel tears the subscription down. Idempotent: the server-side
// registration is released exactly once, extra calls are safe.
func (s *DocSubscription) Cancel() { s.once.Do(s.stop) }

// CollectionSubscription is a cancellable stream of collection snapshots.
type CollectionSubscription struct {
	updates chan CollectionSnapshot
	stop    func()
	once    sync.Once
}

func (s *CollectionSubscription) Updates() <-chan CollectionSnapshot { return s.updates }

func (s *CollectionSubscription) Cancel() { s.once.Do(s.stop) }

/* ---------- path helpers ---------- */

// ParentCollection returns the collection path of a document path
// ("buildings/b1/apartments/a1" -> "buildings/b1/apartments").
func ParentCollection(docPath string) string {
	i := strings.LastIndex(docPath, "/")
	if i < 0 {
		return ""
	}
	return docPath[:i]
}

// DocID returns the last path segment.
func DocID(docPath string) string {
	i := strings.LastIndex(docPath, "/")
	return docPath[i+1:]
}

// Join builds a document path from a collection path and an id.
func Join(collectionPath, id string) string {
	return collectionPath + "/" + id
}
