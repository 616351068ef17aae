package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MoCipher/EmailAlies/internal/common"
	"github.com/MoCipher/EmailAlies/internal/logging"
	"github.com/tursodatabase/go-libsql"
)

// EdgeConnector is the subset of the libSQL embedded-replica connector the
// edge store needs. *libsql.Connector satisfies it.
type EdgeConnector interface {
	driver.Connector
	Sync() (libsql.Replicated, error)
}

// BindEdge binds a fresh edge store to a caller-supplied connector. The
// store starts in StateInitializing: the edge engine is async-only, so no
// query is served until Init completes. Edge stores are never shared across
// requests; the connector's identity may change per invocation environment.
func BindEdge(connector EdgeConnector, logger logging.Logger) *Store {
	s := &Store{
		engine: EngineEdge,
		db:     sql.OpenDB(connector),
		conn:   connector,
		logger: logger,
	}
	s.state.Store(int32(StateInitializing))
	return s
}

// OpenEdge builds an embedded-replica connector for the given primary and
// binds a store to it. Init must still be called before use.
func OpenEdge(replicaPath, primaryURL, authToken string, logger logging.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(replicaPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating replica directory: %w", err)
	}

	connector, err := libsql.NewEmbeddedReplicaConnector(replicaPath, primaryURL,
		libsql.WithAuthToken(authToken))
	if err != nil {
		return nil, fmt.Errorf("building edge connector: %w", err)
	}

	return BindEdge(connector, logger), nil
}

// Init performs the engine's asynchronous initialization: replicating from
// the primary and applying the schema. The local engine is already ready
// after OpenLocal, so Init is a no-op there; modeling both engines behind
// the same call keeps callers from special-casing readiness.
func (s *Store) Init(ctx context.Context) error {
	switch s.State() {
	case StateReady:
		return nil
	case StateClosed:
		return fmt.Errorf("%w: store is closed", common.ErrUnavailable)
	}

	if s.conn != nil {
		if _, err := s.conn.Sync(); err != nil {
			s.state.Store(int32(StateFailed))
			return fmt.Errorf("%w: replica sync: %v", common.ErrUnavailable, err)
		}
	}

	if err := s.db.PingContext(ctx); err != nil {
		s.state.Store(int32(StateFailed))
		return fmt.Errorf("%w: ping: %v", common.ErrUnavailable, err)
	}

	ApplySchema(ctx, s.db, s.logger)
	s.state.Store(int32(StateReady))

	s.logger.Debug(ctx, "edge store ready")
	return nil
}
