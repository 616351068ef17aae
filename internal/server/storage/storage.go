// Package storage binds the service to exactly one backing engine per Store:
// an embedded local SQLite database (available right after open, one
// instance per process) or a distributed edge libSQL replica (async-only
// initialization, one Store per request). Both engines sit behind the same
// readiness-checked contract, so callers never special-case which one they
// talk to.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MoCipher/EmailAlies/internal/common"
	"github.com/MoCipher/EmailAlies/internal/dbx"
	"github.com/MoCipher/EmailAlies/internal/logging"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Engine identifies the backing database engine of a Store.
type Engine int

const (
	EngineLocal Engine = iota
	EngineEdge
)

func (e Engine) String() string {
	if e == EngineEdge {
		return "edge"
	}
	return "local"
}

// State is the adapter readiness state. Queries are only served in
// StateReady; anything else yields common.ErrUnavailable.
type State int32

const (
	StateInitializing State = iota
	StateReady
	StateFailed
	StateClosed
)

// Store is one adapter instance bound to one engine. All entity access
// funnels through Handle/WithTx, which gate on readiness and normalize
// engine-level failures so raw driver errors never reach services.
type Store struct {
	engine Engine
	db     *sql.DB
	path   string
	conn   EdgeConnector // nil for the local engine
	state  atomic.Int32
	logger logging.Logger
}

func (s *Store) Engine() Engine { return s.engine }

func (s *Store) State() State { return State(s.state.Load()) }

// Handle returns the dispatch handle used by repositories. It fails with
// common.ErrUnavailable until the store is ready.
func (s *Store) Handle() (dbx.DBTX, error) {
	if s.State() != StateReady {
		return nil, fmt.Errorf("%w: %s engine is %s", common.ErrUnavailable, s.engine, s.stateName())
	}
	return &dispatcher{db: s.db}, nil
}

// WithTx runs fn inside a transaction on the bound engine, gated on
// readiness like Handle.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if s.State() != StateReady {
		return fmt.Errorf("%w: %s engine is %s", common.ErrUnavailable, s.engine, s.stateName())
	}
	return dbx.WithTx(ctx, s.db, nil, fn)
}

// Close releases the underlying connection. For the local engine prefer
// CloseLocal, which also clears the process-wide instance.
func (s *Store) Close() error {
	if s.State() == StateClosed {
		return nil
	}
	s.state.Store(int32(StateClosed))
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing %s store: %w", s.engine, err)
	}
	return nil
}

func (s *Store) stateName() string {
	switch s.State() {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "closed"
	}
}

// dispatcher is the single internal funnel for engine access. Parameters
// are bound positionally by database/sql; here we normalize engine-level
// failures into the shared taxonomy. Row-shape normalization (scanning)
// happens in the repositories, which only ever see dbx.DBTX.
type dispatcher struct {
	db *sql.DB
}

func (d *dispatcher) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, normalize(err)
	}
	return res, nil
}

func (d *dispatcher) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, normalize(err)
	}
	return rows, nil
}

func (d *dispatcher) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

// normalize maps transport/lifecycle failures to ErrUnavailable and leaves
// constraint and syntax errors for the repositories to classify.
func normalize(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	msg := err.Error()
	if strings.Contains(msg, "database is closed") || strings.Contains(msg, "database is locked") {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	return err
}

// Process-wide local store. The embedded engine holds a single on-disk
// handle, so exactly one instance may exist until it is explicitly torn
// down with CloseLocal.
var (
	localMu sync.Mutex
	local   *Store
)

// OpenLocal opens (or returns) the process-wide local store at path,
// creating the containing directory if absent, applying pragmas and the
// schema. Calling it again with the same path returns the existing
// instance; a different path is an error until CloseLocal.
func OpenLocal(ctx context.Context, path string, logger logging.Logger) (*Store, error) {
	localMu.Lock()
	defer localMu.Unlock()

	if local != nil {
		if local.path == path {
			return local, nil
		}
		return nil, fmt.Errorf("local store already open at %s", local.path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %v", common.ErrUnavailable, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	s := &Store{engine: EngineLocal, db: db, path: path, logger: logger}
	ApplySchema(ctx, db, logger)
	s.state.Store(int32(StateReady))

	logger.Info(ctx, "local store ready", "path", path)

	local = s
	return s, nil
}

// CloseLocal tears down the process-wide local store. Safe to call when no
// store is open.
func CloseLocal() error {
	localMu.Lock()
	defer localMu.Unlock()

	if local == nil {
		return nil
	}
	err := local.Close()
	local = nil
	return err
}
