package drafts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type commitRecorder struct {
	mu      sync.Mutex
	commits []string
	fail    bool
}

func (r *commitRecorder) commit(_ context.Context, _ DraftKey, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("store unavailable")
	}
	r.commits = append(r.commits, value)
	return nil
}

func (r *commitRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commits...)
}

func (r *commitRecorder) setFail(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = fail
}

var testKey = DraftKey{BuildingID: "b1", ApartmentID: "a1", Field: "notes"}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestDraftWinsOverLiveValue(t *testing.T) {
	rec := &commitRecorder{}
	b := NewBuffer(time.Hour, rec.commit, nil)

	b.Edit(testKey, "draft text")

	require.Equal(t, "draft text", b.Resolve(testKey, "remote text"))
	require.Equal(t, "live text", b.Resolve(DraftKey{BuildingID: "b1", ApartmentID: "other", Field: "notes"}, "live text"))
}

func TestDebounceCommitsLastValueOnce(t *testing.T) {
	rec := &commitRecorder{}
	b := NewBuffer(30*time.Millisecond, rec.commit, nil)

	// Rapid keystrokes: only the settled value reaches the store.
	b.Edit(testKey, "b")
	b.Edit(testKey, "bo")
	b.Edit(testKey, "bon")
	b.Edit(testKey, "bonjour")

	waitFor(t, func() bool { return len(rec.all()) > 0 })
	require.Equal(t, []string{"bonjour"}, rec.all())

	waitFor(t, func() bool { return !b.Pending(testKey) })
	require.Equal(t, "remote", b.Resolve(testKey, "remote"))
}

func TestEditResetsQuietPeriod(t *testing.T) {
	rec := &commitRecorder{}
	b := NewBuffer(60*time.Millisecond, rec.commit, nil)

	b.Edit(testKey, "first")
	time.Sleep(40 * time.Millisecond)
	b.Edit(testKey, "second")
	time.Sleep(40 * time.Millisecond)

	// 80ms elapsed but never 60ms of quiet until now.
	require.Empty(t, rec.all())

	waitFor(t, func() bool { return len(rec.all()) > 0 })
	require.Equal(t, []string{"second"}, rec.all())
}

func TestFailedCommitRetainsDraft(t *testing.T) {
	rec := &commitRecorder{fail: true}
	var reported error
	var mu sync.Mutex
	b := NewBuffer(20*time.Millisecond, rec.commit, func(_ DraftKey, err error) {
		mu.Lock()
		reported = err
		mu.Unlock()
	})

	b.Edit(testKey, "unsaved")

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reported != nil
	})

	// The draft is still there and still wins.
	require.True(t, b.Pending(testKey))
	require.Equal(t, "unsaved", b.Resolve(testKey, "remote"))

	// A later flush, once the store recovers, persists it.
	rec.setFail(false)
	require.NoError(t, b.Flush(context.Background()))
	require.Equal(t, []string{"unsaved"}, rec.all())
	require.False(t, b.Pending(testKey))
}

func TestFlushCommitsAllPending(t *testing.T) {
	rec := &commitRecorder{}
	b := NewBuffer(time.Hour, rec.commit, nil)

	other := DraftKey{BuildingID: "b1", ApartmentID: "a2", Field: "notes"}
	b.Edit(testKey, "one")
	b.Edit(other, "two")

	require.NoError(t, b.Flush(context.Background()))
	require.ElementsMatch(t, []string{"one", "two"}, rec.all())
	require.False(t, b.Pending(testKey))
	require.False(t, b.Pending(other))
}

func TestDiscardDropsWithoutCommit(t *testing.T) {
	rec := &commitRecorder{}
	b := NewBuffer(20*time.Millisecond, rec.commit, nil)

	b.Edit(testKey, "abandoned")
	b.Discard(testKey)

	time.Sleep(60 * time.Millisecond)
	require.Empty(t, rec.all())
	require.False(t, b.Pending(testKey))
}

func TestKeystrokeDuringCommitKeepsNewerDraft(t *testing.T) {
	rec := &commitRecorder{}
	b := NewBuffer(time.Hour, rec.commit, nil)

	b.Edit(testKey, "old")
	// Simulate the race: the commit of "old" lands while "new" was typed.
	b.Edit(testKey, "new")
	b.drop(testKey, "old")

	require.True(t, b.Pending(testKey))
	require.Equal(t, "new", b.Resolve(testKey, "remote"))
}
