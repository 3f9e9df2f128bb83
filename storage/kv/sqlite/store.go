// Package sqlitekv is a file-backed kv.Store built on zombiezen.com/go/sqlite.
//
// Every connection runs in WAL mode with NORMAL synchronous: readers never block the single
// writer, and committed writes survive a process crash. All values live in one table:
//
//	kv(key TEXT PRIMARY KEY, value TEXT NOT NULL, updated_at TEXT NOT NULL)
package sqlitekv

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/trezcool/eduverse/core"
	"github.com/trezcool/eduverse/storage/kv"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
) WITHOUT ROWID;
`

var (
	pragmas = []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=OFF",
		"PRAGMA temp_store=MEMORY",
	}

	NowFunc = time.Now // mockable
)

type Config struct {
	// Path of the database file; its directory must exist.
	Path string
	// PoolSize defaults to 4.
	PoolSize int
	Logger   core.Logger
}

type Store struct {
	pool   *sqlitex.Pool
	logger core.Logger
	path   string
}

var (
	_ kv.Store   = (*Store)(nil) // interface compliance check
	_ kv.Batcher = (*Store)(nil)
)

// Open opens (or creates) the database at cfg.Path. Connections are prepared lazily on first use.
func Open(cfg Config) (*Store, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(cfg.Path, "Path"),
		vala.Not(vala.Equals(cfg.Path, ":memory:", "Path")),
	).Check(); err != nil {
		return nil, errors.Wrap(err, "sqlite")
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConn,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: opening %s", cfg.Path)
	}

	if cfg.Logger != nil {
		cfg.Logger.Debug("sqlite store opened", map[string]interface{}{"path": cfg.Path, "poolSize": poolSize})
	}
	return &Store{pool: pool, logger: cfg.Logger, path: cfg.Path}, nil
}

func prepareConn(conn *sqlite.Conn) error {
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return errors.Wrap(err, "sqlite: "+pragma)
		}
	}
	return errors.Wrap(sqlitex.ExecuteScript(conn, schema, nil), "sqlite: creating schema")
}

func (s *Store) take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: take")
	}
	return conn, nil
}

func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	conn, err := s.take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var (
		value []byte
		found bool
	)
	err = sqlitex.Execute(conn, `SELECT value FROM kv WHERE key = ?`, &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			value = []byte(stmt.ColumnText(0))
			found = true
			return nil
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: reading %q", key)
	}
	if !found {
		return nil, kv.ErrKeyNotFound
	}
	return value, nil
}

func upsert(conn *sqlite.Conn, key string, value []byte, now string) error {
	return sqlitex.Execute(conn, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		&sqlitex.ExecOptions{Args: []any{key, string(value), now}},
	)
}

func (s *Store) Write(ctx context.Context, key string, value []byte) error {
	conn, err := s.take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	return errors.Wrapf(upsert(conn, key, value, NowFunc().UTC().Format(time.RFC3339Nano)), "sqlite: writing %q", key)
}

func (s *Store) Remove(ctx context.Context, key string) error {
	conn, err := s.take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `DELETE FROM kv WHERE key = ?`, &sqlitex.ExecOptions{Args: []any{key}})
	return errors.Wrapf(err, "sqlite: removing %q", key)
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	conn, err := s.take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	keys := make([]string, 0)
	err = sqlitex.Execute(conn, `SELECT key FROM kv ORDER BY key`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			keys = append(keys, stmt.ColumnText(0))
			return nil
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: listing keys")
	}
	return keys, nil
}

func (s *Store) Clear(ctx context.Context) error {
	conn, err := s.take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	return errors.Wrap(sqlitex.Execute(conn, `DELETE FROM kv`, nil), "sqlite: clearing")
}

// Replace swaps the whole table content inside a single immediate transaction.
func (s *Store) Replace(ctx context.Context, entries map[string][]byte) (err error) {
	conn, err := s.take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return errors.Wrap(err, "sqlite: begin transaction")
	}
	defer endTransaction(&err)

	if err = sqlitex.Execute(conn, `DELETE FROM kv`, nil); err != nil {
		return errors.Wrap(err, "sqlite: clearing")
	}
	now := NowFunc().UTC().Format(time.RFC3339Nano)
	for key, value := range entries {
		if err = upsert(conn, key, value, now); err != nil {
			return errors.Wrapf(err, "sqlite: writing %q", key)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if err := s.pool.Close(); err != nil {
		if s.logger != nil {
			s.logger.Error("sqlite store close error", err, map[string]interface{}{"path": s.path})
		}
		return errors.Wrapf(err, "sqlite: closing %s", s.path)
	}
	return nil
}
