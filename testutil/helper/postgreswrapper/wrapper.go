// Package postgreswrapper opens the event repository against a real PostgreSQL database for
// integration tests. The adapter is chosen by the ADAPTER_TYPE environment variable (pgx, sql, sqlx)
// and the database by EVENT_ATTENDEES_TEST_DSN; without a DSN the calling test is skipped.
package postgreswrapper

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qlibin/event-attendees/config"
	"github.com/qlibin/event-attendees/eventrepo"
	"github.com/qlibin/event-attendees/eventrepo/sqlengine"
	"github.com/qlibin/event-attendees/schema"
)

const (
	envAdapterType = "ADAPTER_TYPE"
	envTestDSN     = "EVENT_ATTENDEES_TEST_DSN"
)

// Wrapper holds an open connection and the repository built on it.
type Wrapper struct {
	conn *config.Connection
	repo sqlengine.Repository
}

// GetRepository returns the repository under test.
func (w *Wrapper) GetRepository() sqlengine.Repository {
	return w.repo
}

// Connection returns the underlying connection.
func (w *Wrapper) Connection() *config.Connection {
	return w.conn
}

// CreateWrapperWithTestConfig recreates the schema and builds a repository with options.
// The connection is closed when the test finishes.
func CreateWrapperWithTestConfig(t testing.TB, options ...sqlengine.Option) *Wrapper {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv(envTestDSN))
	if dsn == "" {
		t.Skipf("%s is not set", envTestDSN)
	}

	driver := driverFromEnv(t)
	ctx := context.Background()

	conn, err := config.Open(ctx, driver, dsn, config.DefaultPoolSettings(4))
	require.NoError(t, err, "error connecting to DB in test setup")

	t.Cleanup(func() {
		_ = conn.Close()
	})

	bootstrapper, err := schema.NewBootstrapper(conn.SQLDB(), eventrepo.DialectPostgres)
	require.NoError(t, err, "error in test setup")
	require.NoError(t, bootstrapper.Recreate(ctx), "error recreating the schema in test setup")

	repo, err := conn.NewRepository(options...)
	require.NoError(t, err, "error in test setup")

	return &Wrapper{conn: conn, repo: repo}
}

// CleanUp truncates both tables.
func CleanUp(t testing.TB, wrapper *Wrapper) {
	t.Helper()

	tables := wrapper.repo.TableNames()
	_, err := wrapper.conn.SQLDB().ExecContext(
		context.Background(),
		fmt.Sprintf("TRUNCATE TABLE %s, %s", tables.Attendees, tables.Events),
	)
	require.NoError(t, err, "error cleaning up the event tables")
}

func driverFromEnv(t testing.TB) config.Driver {
	name := strings.ToLower(strings.TrimSpace(os.Getenv(envAdapterType)))
	if name == "" {
		return config.DriverPGX
	}

	driver, err := config.ParseDriver(name)
	require.NoError(t, err, "unsupported adapter type from env")
	require.NotEqual(t, config.DriverSQLite, driver, "sqlite is covered by the in-memory tests")

	return driver
}
