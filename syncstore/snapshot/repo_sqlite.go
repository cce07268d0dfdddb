package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/jrsteele09/go-schooltracker-client/internal/errors"
)

// SQLiteRepo keeps snapshots in a single table of a local SQLite database.
type SQLiteRepo struct {
	db *sql.DB
	mu sync.Mutex
}

var _ Repo = (*SQLiteRepo)(nil)

// NewSQLiteRepo opens (or creates) the database at path and prepares the
// schema. ":memory:" gives a throwaway database.
func NewSQLiteRepo(path string) (*SQLiteRepo, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection so ":memory:" is shared by every query
	db.SetMaxOpenConns(1)

	r := &SQLiteRepo{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Debug().Str("path", path).Msg("snapshot store opened")
	return r, nil
}

func (r *SQLiteRepo) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			collection TEXT PRIMARY KEY,
			payload TEXT NOT NULL DEFAULT '[]',
			item_count INTEGER NOT NULL DEFAULT 0,
			synced_at INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
		)`,
	}

	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:min(len(stmt), 60)], err)
		}
	}
	return nil
}

func (r *SQLiteRepo) Save(ctx context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var synced int64
	if !rec.SyncedAt.IsZero() {
		synced = rec.SyncedAt.UnixMilli()
	}
	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO snapshots (collection, payload, item_count, synced_at, updated_at)
		VALUES (?, ?, ?, ?, strftime('%s','now'))`,
		rec.Collection, string(rec.Payload), rec.Count, synced)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", rec.Collection, err)
	}
	return nil
}

func (r *SQLiteRepo) Load(ctx context.Context, collection string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		payload string
		count   int
		synced  int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT payload, item_count, synced_at FROM snapshots WHERE collection = ?`, collection,
	).Scan(&payload, &count, &synced)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, errors.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load snapshot %s: %w", collection, err)
	}

	rec := Record{Collection: collection, Payload: []byte(payload), Count: count}
	if synced > 0 {
		rec.SyncedAt = time.UnixMilli(synced)
	}
	return rec, nil
}

func (r *SQLiteRepo) Delete(ctx context.Context, collection string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", collection, err)
	}
	return nil
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}
