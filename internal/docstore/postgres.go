package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/MohnajibG/circet/internal/utils"
)

/* ------------------------------------------------------------------
   Postgres driver. One jsonb row per document; every committed write
   fires pg_notify on a shared channel and a single listener connection
   fans the change out to in-process watchers, which then re-read the
   full snapshot. Transport reconnection lives entirely in this layer:
   repositories above only ever see a gap in updates, never an error.
------------------------------------------------------------------ */

const notifyChannel = "doc_changes"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS documents (
	path       text PRIMARY KEY,
	collection text NOT NULL,
	doc_id     text NOT NULL,
	fields     jsonb NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS documents_collection_idx ON documents (collection);
`

type pgWatcher struct {
	docPath        string
	collectionPath string
	signal         chan struct{}
}

type PostgresStore struct {
	pool *pgxpool.Pool

	mu       sync.RWMutex
	watchers map[*pgWatcher]struct{}

	stopListener context.CancelFunc
	listenerDone chan struct{}
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return nil, err
	}

	listenerCtx, cancel := context.WithCancel(context.Background())
	s := &PostgresStore{
		pool:         pool,
		watchers:     make(map[*pgWatcher]struct{}),
		stopListener: cancel,
		listenerDone: make(chan struct{}),
	}
	go s.listen(listenerCtx)
	return s, nil
}

/* ---------- reads ---------- */

func (s *PostgresStore) Get(ctx context.Context, path string) (Snapshot, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT fields FROM documents WHERE path=$1`, path).Scan(&raw)
	if err == pgx.ErrNoRows {
		return Snapshot{Path: path, ID: DocID(path)}, utils.ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	return decodeSnapshot(path, raw)
}

func (s *PostgresStore) List(ctx context.Context, collectionPath string) (CollectionSnapshot, error) {
	rows, err := s.pool.Query(ctx, `SELECT path, fields FROM documents WHERE collection=$1`, collectionPath)
	if err != nil {
		return CollectionSnapshot{}, err
	}
	defer rows.Close()

	snap := CollectionSnapshot{Path: collectionPath}
	for rows.Next() {
		var path string
		var raw []byte
		if err := rows.Scan(&path, &raw); err != nil {
			return CollectionSnapshot{}, err
		}
		doc, err := decodeSnapshot(path, raw)
		if err != nil {
			return CollectionSnapshot{}, err
		}
		snap.Docs = append(snap.Docs, doc)
	}
	return snap, rows.Err()
}

/* ---------- writes ---------- */

func (s *PostgresStore) Create(ctx context.Context, collectionPath string, fields map[string]any) (string, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}

	// Retry once with a fresh id on a path collision.
	for attempt := 0; ; attempt++ {
		id := uuid.NewString()
		path := Join(collectionPath, id)
		err = s.writeAndNotify(ctx, path, `
			INSERT INTO documents (path, collection, doc_id, fields)
			VALUES ($1,$2,$3,$4)
		`, path, collectionPath, id, raw)
		if err == nil {
			return id, nil
		}
		var pgErr *pgconn.PgError
		if attempt == 0 && errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return "", err
	}
}

func (s *PostgresStore) Set(ctx context.Context, path string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return s.writeAndNotify(ctx, path, `
		INSERT INTO documents (path, collection, doc_id, fields)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (path) DO UPDATE SET fields = documents.fields || EXCLUDED.fields
	`, path, ParentCollection(path), DocID(path), raw)
}

func (s *PostgresStore) Update(ctx context.Context, path string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE documents SET fields = fields || $2 WHERE path=$1`, path, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1,$2)`, notifyChannel, path); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Delete(ctx context.Context, path string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM documents WHERE path=$1`, path)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		if _, err := tx.Exec(ctx, `SELECT pg_notify($1,$2)`, notifyChannel, path); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) writeAndNotify(ctx context.Context, path, sql string, args ...any) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1,$2)`, notifyChannel, path); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

/* ---------- subscriptions ---------- */

func (s *PostgresStore) WatchDoc(ctx context.Context, path string) *DocSubscription {
	w := &pgWatcher{docPath: path, signal: make(chan struct{}, 1)}
	s.register(w)

	sub := &DocSubscription{updates: make(chan Snapshot)}
	done := make(chan struct{})
	sub.stop = func() { close(done) }

	go func() {
		defer s.unregister(w)
		defer close(sub.updates)
		for {
			snap, err := s.Get(ctx, path)
			if err != nil && err != utils.ErrNotFound {
				utils.Logger.WithError(err).WithField("path", path).
					Warn("watch re-read failed; keeping last delivered snapshot")
			} else {
				select {
				case sub.updates <- snap:
				case <-done:
					return
				case <-ctx.Done():
					return
				}
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

func (s *PostgresStore) WatchCollection(ctx context.Context, collectionPath string) *CollectionSubscription {
	w := &pgWatcher{collectionPath: collectionPath, signal: make(chan struct{}, 1)}
	s.register(w)

	sub := &CollectionSubscription{updates: make(chan CollectionSnapshot)}
	done := make(chan struct{})
	sub.stop = func() { close(done) }

	go func() {
		defer s.unregister(w)
		defer close(sub.updates)
		for {
			snap, err := s.List(ctx, collectionPath)
			if err != nil {
				utils.Logger.WithError(err).WithField("path", collectionPath).
					Warn("watch re-read failed; keeping last delivered snapshot")
			} else {
				select {
				case sub.updates <- snap:
				case <-done:
					return
				case <-ctx.Done():
					return
				}
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

func (s *PostgresStore) Close() {
	s.stopListener()
	<-s.listenerDone
}

/* ---------- listener ---------- */

// listen holds one dedicated connection on LISTEN and fans notifications
// out to watchers. On any transport error it reconnects with backoff and
// wakes every watcher so they resync past the gap.
func (s *PostgresStore) listen(ctx context.Context) {
	defer close(s.listenerDone)

	backoff := 500 * time.Millisecond
	const maxBackoff = 30 * time.Second

	for ctx.Err() == nil {
		conn, err := s.pool.Acquire(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			utils.Logger.WithError(err).Warnf("docstore listener connect failed, retrying in %v", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
			conn.Release()
			utils.Logger.WithError(err).Warn("docstore LISTEN failed, reconnecting")
			continue
		}

		backoff = 500 * time.Millisecond
		s.wakeAll()

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				conn.Release()
				if ctx.Err() != nil {
					return
				}
				utils.Logger.WithError(err).Warn("docstore notification stream interrupted, reconnecting")
				break
			}
			s.dispatch(n.Payload)
		}
	}
}

func (s *PostgresStore) register(w *pgWatcher) {
	s.mu.Lock()
	s.watchers[w] = struct{}{}
	s.mu.Unlock()
}

func (s *PostgresStore) unregister(w *pgWatcher) {
	s.mu.Lock()
	delete(s.watchers, w)
	s.mu.Unlock()
}

func (s *PostgresStore) dispatch(path string) {
	coll := ParentCollection(path)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for w := range s.watchers {
		if w.docPath == path || (w.collectionPath != "" && w.collectionPath == coll) {
			select {
			case w.signal <- struct{}{}:
			default:
			}
		}
	}
}

func (s *PostgresStore) wakeAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for w := range s.watchers {
		select {
		case w.signal <- struct{}{}:
		default:
		}
	}
}

func decodeSnapshot(path string, raw []byte) (Snapshot, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: path, ID: DocID(path), Exists: true, Fields: fields}, nil
}
