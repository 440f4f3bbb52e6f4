package lookupcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"vodsieve/internal/lookupkey"
	"vodsieve/internal/media"
)

// SQLiteStore keeps cache tables in a single SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
	opts options
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the cache database at path.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite cache path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if err := initSchema(ctx, db, path+".lock"); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, path: path, opts: buildOptions(opts)}, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func tableName(table Table) string {
	if table == TableDetail {
		return "detail_cache"
	}
	return "search_cache"
}

// Get returns a payload only while expires_at is in the future; the expiry
// predicate is part of the SELECT so no expired row can be observed.
func (s *SQLiteStore) Get(ctx context.Context, table Table, key lookupkey.Key) ([]byte, bool, error) {
	if err := checkTable(table); err != nil {
		return nil, false, err
	}
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM "+tableName(table)+" WHERE key = ? AND expires_at > ?",
		string(key), s.now(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s cache: %w", table, err)
	}
	return payload, true, nil
}

// Put upserts payload and refreshes created_at/expires_at.
func (s *SQLiteStore) Put(ctx context.Context, table Table, kind media.Kind, key lookupkey.Key, payload []byte, ttl time.Duration) error {
	if err := checkTable(table); err != nil {
		return err
	}
	created := s.opts.now()
	expires := created.Add(s.opts.ttl(ttl))
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO `+tableName(table)+` (key, kind, payload, created_at, expires_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET
            kind = excluded.kind,
            payload = excluded.payload,
            created_at = excluded.created_at,
            expires_at = excluded.expires_at`,
		string(key), string(kind), payload, created.UnixMilli(), expires.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write %s cache: %w", table, err)
	}
	return nil
}

// Invalidate deletes entries of kind (or all entries) from both tables.
func (s *SQLiteStore) Invalidate(ctx context.Context, kind media.Kind) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin invalidate tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var removed int64
	for _, table := range Tables {
		var res sql.Result
		if kind == "" {
			res, err = tx.ExecContext(ctx, "DELETE FROM "+tableName(table))
		} else {
			res, err = tx.ExecContext(ctx, "DELETE FROM "+tableName(table)+" WHERE kind = ?", string(kind))
		}
		if err != nil {
			return 0, fmt.Errorf("invalidate %s cache: %w", table, err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit invalidate: %w", err)
	}
	return removed, nil
}

// Sweep deletes rows whose expiry has passed.
func (s *SQLiteStore) Sweep(ctx context.Context) (int64, error) {
	now := s.now()
	var removed int64
	for _, table := range Tables {
		res, err := s.db.ExecContext(ctx, "DELETE FROM "+tableName(table)+" WHERE expires_at <= ?", now)
		if err != nil {
			return removed, fmt.Errorf("sweep %s cache: %w", table, err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	return removed, nil
}

// Stats counts live and expired rows per table and live rows per kind.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Backend: "sqlite"}
	now := s.now()
	for _, table := range Tables {
		ts := TableStats{ByKind: make(map[media.Kind]int64)}
		rows, err := s.db.QueryContext(ctx,
			"SELECT kind, SUM(CASE WHEN expires_at > ? THEN 1 ELSE 0 END), SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END) FROM "+
				tableName(table)+" GROUP BY kind",
			now, now,
		)
		if err != nil {
			return Stats{}, fmt.Errorf("stat %s cache: %w", table, err)
		}
		for rows.Next() {
			var (
				kind          string
				live, expired int64
			)
			if err := rows.Scan(&kind, &live, &expired); err != nil {
				rows.Close()
				return Stats{}, fmt.Errorf("scan %s stats: %w", table, err)
			}
			ts.Live += live
			ts.Expired += expired
			if live > 0 {
				ts.ByKind[media.Kind(kind)] = live
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return Stats{}, fmt.Errorf("iterate %s stats: %w", table, err)
		}
		rows.Close()
		if table == TableSearch {
			stats.Search = ts
		} else {
			stats.Detail = ts
		}
	}
	return stats, nil
}

func (s *SQLiteStore) now() int64 {
	return s.opts.now().UnixMilli()
}
