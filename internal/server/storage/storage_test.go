package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"path/filepath"
	"testing"

	"github.com/MoCipher/EmailAlies/internal/common"
	"github.com/MoCipher/EmailAlies/internal/logging"
	"github.com/stretchr/testify/require"
	"github.com/tursodatabase/go-libsql"
)

func openLocalForTest(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mail.db")
	s, err := OpenLocal(context.Background(), path, logging.NewDiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, CloseLocal()) })
	return s
}

func TestOpenLocal_ReadyImmediately(t *testing.T) {
	s := openLocalForTest(t)

	require.Equal(t, StateReady, s.State())
	require.Equal(t, EngineLocal, s.Engine())

	h, err := s.Handle()
	require.NoError(t, err)

	var n int
	require.NoError(t, h.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM users`).Scan(&n))
	require.Equal(t, 0, n)
}

func TestOpenLocal_SingletonSemantics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mail.db")
	log := logging.NewDiscardLogger()

	s1, err := OpenLocal(context.Background(), path, log)
	require.NoError(t, err)

	// same path returns the same instance
	s2, err := OpenLocal(context.Background(), path, log)
	require.NoError(t, err)
	require.Same(t, s1, s2)

	// a different path is refused while the instance lives
	_, err = OpenLocal(context.Background(), filepath.Join(t.TempDir(), "other.db"), log)
	require.Error(t, err)

	// explicit teardown allows a fresh open
	require.NoError(t, CloseLocal())
	s3, err := OpenLocal(context.Background(), filepath.Join(t.TempDir(), "other.db"), log)
	require.NoError(t, err)
	require.NotSame(t, s1, s3)
	require.NoError(t, CloseLocal())
}

func TestStore_HandleAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mail.db")
	s, err := OpenLocal(context.Background(), path, logging.NewDiscardLogger())
	require.NoError(t, err)
	require.NoError(t, CloseLocal())

	_, err = s.Handle()
	require.True(t, errors.Is(err, common.ErrUnavailable), "got %v", err)

	err = s.WithTx(context.Background(), nil)
	require.True(t, errors.Is(err, common.ErrUnavailable), "got %v", err)
}

// fakeEdgeConnector satisfies EdgeConnector by delegating Connect to a real
// embedded driver, standing in for a libSQL embedded replica in tests.
type fakeEdgeConnector struct {
	drv     driver.Driver
	dsn     string
	syncErr error
	synced  int
}

func newFakeEdgeConnector(t *testing.T, syncErr error) *fakeEdgeConnector {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "replica.db")
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	drv := db.Driver()
	require.NoError(t, db.Close())
	return &fakeEdgeConnector{drv: drv, dsn: dsn, syncErr: syncErr}
}

func (c *fakeEdgeConnector) Connect(context.Context) (driver.Conn, error) {
	return c.drv.Open(c.dsn)
}

func (c *fakeEdgeConnector) Driver() driver.Driver { return c.drv }

func (c *fakeEdgeConnector) Sync() (libsql.Replicated, error) {
	if c.syncErr != nil {
		return libsql.Replicated{}, c.syncErr
	}
	c.synced++
	return libsql.Replicated{}, nil
}

func TestBindEdge_UnavailableUntilInit(t *testing.T) {
	s := BindEdge(newFakeEdgeConnector(t, nil), logging.NewDiscardLogger())
	defer s.Close()

	require.Equal(t, StateInitializing, s.State())

	_, err := s.Handle()
	require.True(t, errors.Is(err, common.ErrUnavailable), "got %v", err)

	require.NoError(t, s.Init(context.Background()))
	require.Equal(t, StateReady, s.State())

	h, err := s.Handle()
	require.NoError(t, err)

	var n int
	require.NoError(t, h.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM sync_data`).Scan(&n))
	require.Equal(t, 0, n)
}

func TestBindEdge_InitReplicatesFirst(t *testing.T) {
	conn := newFakeEdgeConnector(t, nil)
	s := BindEdge(conn, logging.NewDiscardLogger())
	defer s.Close()

	require.NoError(t, s.Init(context.Background()))
	require.Equal(t, 1, conn.synced)

	// second Init is a no-op once ready
	require.NoError(t, s.Init(context.Background()))
	require.Equal(t, 1, conn.synced)
}

func TestBindEdge_SyncFailureMarksFailed(t *testing.T) {
	s := BindEdge(newFakeEdgeConnector(t, errors.New("primary unreachable")), logging.NewDiscardLogger())
	defer s.Close()

	err := s.Init(context.Background())
	require.True(t, errors.Is(err, common.ErrUnavailable), "got %v", err)
	require.Equal(t, StateFailed, s.State())

	_, err = s.Handle()
	require.True(t, errors.Is(err, common.ErrUnavailable), "got %v", err)
}
