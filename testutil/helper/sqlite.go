package helper

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/qlibin/event-attendees/eventrepo"
	"github.com/qlibin/event-attendees/eventrepo/sqlengine"
	"github.com/qlibin/event-attendees/schema"
)

// NewSQLiteDB opens a private in-memory SQLite database restricted to one connection,
// since every connection to ":memory:" would see its own empty database.
func NewSQLiteDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err, "error in arranging test data")

	db.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// NewSQLiteDBWithSchema opens an in-memory SQLite database and creates the tables.
func NewSQLiteDBWithSchema(t testing.TB) *sql.DB {
	t.Helper()

	db := NewSQLiteDB(t)

	bootstrapper, err := schema.NewBootstrapper(db, eventrepo.DialectSQLite)
	require.NoError(t, err, "error in arranging test data")
	require.NoError(t, bootstrapper.CreateTables(context.Background()), "error in arranging test data")

	return db
}

// NewSQLiteRepository returns a repository on a fresh in-memory database with the schema in place.
func NewSQLiteRepository(t testing.TB, options ...sqlengine.Option) (sqlengine.Repository, *sql.DB) {
	t.Helper()

	db := NewSQLiteDBWithSchema(t)

	allOptions := append([]sqlengine.Option{sqlengine.WithDialect(eventrepo.DialectSQLite)}, options...)

	repo, err := sqlengine.NewRepositoryFromSQLDB(db, allOptions...)
	require.NoError(t, err, "error in arranging test data")

	return repo, db
}

// CountRows counts the rows of table.
func CountRows(t testing.TB, db *sql.DB, table string) int {
	t.Helper()

	var count int
	err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&count)
	require.NoError(t, err, "error in asserting test data")

	return count
}

// RelationAttendees reads the attendee ids stored for eventID in the relation table.
func RelationAttendees(t testing.TB, db *sql.DB, eventID eventrepo.EventID) eventrepo.AttendeeSet {
	t.Helper()

	rows, err := db.QueryContext(
		context.Background(),
		"SELECT attendee_id FROM "+eventrepo.DefaultAttendeeTableName+" WHERE event_id = ?",
		eventID,
	)
	require.NoError(t, err, "error in asserting test data")

	defer func() {
		_ = rows.Close()
	}()

	ids := make([]eventrepo.AttendeeID, 0)
	for rows.Next() {
		var id eventrepo.AttendeeID
		require.NoError(t, rows.Scan(&id), "error in asserting test data")
		ids = append(ids, id)
	}

	require.NoError(t, rows.Err(), "error in asserting test data")

	return eventrepo.NewAttendeeSet(ids...)
}

// GivenAttendees is a shorthand for eventrepo.NewAttendeeSet.
func GivenAttendees(ids ...eventrepo.AttendeeID) eventrepo.AttendeeSet {
	return eventrepo.NewAttendeeSet(ids...)
}
