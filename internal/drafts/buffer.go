package drafts

import (
	"context"
	"sync"
	"time"

	"github.com/MohnajibG/circet/internal/utils"
)

/* ------------------------------------------------------------------
   Two-tier state for free-text fields edited keystroke by keystroke
   (apartment notes): the draft value lives here, the committed value
   lives in the repository. The draft wins over any concurrent remote
   value until it is committed or discarded; there is no merge.

   Persistence strategy: debounce. A draft is committed automatically
   once DefaultQuietPeriod has passed without further edits.
------------------------------------------------------------------ */

const DefaultQuietPeriod = 500 * time.Millisecond

// DraftKey identifies one editable field of one apartment.
type DraftKey struct {
	BuildingID  string
	ApartmentID string
	Field       string
}

// CommitFunc persists a settled draft. A returned error keeps the draft
// buffered (WriteFailed semantics: reported, never retried here).
type CommitFunc func(ctx context.Context, key DraftKey, value string) error

// ErrorFunc is told about failed commits.
type ErrorFunc func(key DraftKey, err error)

type entry struct {
	value string
	timer *time.Timer
}

type Buffer struct {
	mu      sync.Mutex
	quiet   time.Duration
	commit  CommitFunc
	onError ErrorFunc
	entries map[DraftKey]*entry
}

func NewBuffer(quiet time.Duration, commit CommitFunc, onError ErrorFunc) *Buffer {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Buffer{
		quiet:   quiet,
		commit:  commit,
		onError: onError,
		entries: make(map[DraftKey]*entry),
	}
}

// Edit records a keystroke-level draft and restarts the quiet-period
// timer for that field.
func (b *Buffer) Edit(key DraftKey, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	if !ok {
		e = &entry{}
		b.entries[key] = e
	}
	e.value = value

	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(b.quiet, func() { b.settle(key) })
}

// Resolve reconciles a live repository value with the buffer: while a
// draft is pending it takes precedence, otherwise the live value is
// returned unchanged.
func (b *Buffer) Resolve(key DraftKey, live string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.entries[key]; ok {
		return e.value
	}
	return live
}

// Pending reports whether a draft is waiting for its quiet period.
func (b *Buffer) Pending(key DraftKey) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[key]
	return ok
}

// Flush commits every pending draft immediately, regardless of timers.
// The first commit error is returned; the failing draft stays buffered.
func (b *Buffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	pending := make(map[DraftKey]string, len(b.entries))
	for key, e := range b.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		pending[key] = e.value
	}
	b.mu.Unlock()

	for key, value := range pending {
		if err := b.commit(ctx, key, value); err != nil {
			return err
		}
		b.drop(key, value)
	}
	return nil
}

// Discard drops a draft without persisting it ("navigates away").
func (b *Buffer) Discard(key DraftKey) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.entries[key]; ok {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(b.entries, key)
	}
}

// settle runs when a field's quiet period elapses.
func (b *Buffer) settle(key DraftKey) {
	b.mu.Lock()
	e, ok := b.entries[key]
	if !ok {
		b.mu.Unlock()
		return
	}
	value := e.value
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := b.commit(ctx, key, value); err != nil {
		utils.Logger.WithError(err).WithField("apartment", key.ApartmentID).
			Warn("Draft commit failed; draft retained")
		if b.onError != nil {
			b.onError(key, err)
		}
		return
	}
	b.drop(key, value)
}

// drop removes the entry only if it still holds the committed value;
// a newer keystroke that raced the commit keeps its draft.
func (b *Buffer) drop(key DraftKey, committed string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.entries[key]; ok && e.value == committed {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(b.entries, key)
	}
}
