package sqlengine

import (
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/qlibin/event-attendees/eventrepo"
	"github.com/qlibin/event-attendees/eventrepo/sqlengine/internal/adapters"
)

const (
	logMsgBuildQueryFailed       = "failed to build query"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgDBExecFailed           = "database execution failed"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgScanRowFailed          = "failed to scan database row"
	logMsgRollbackFailed         = "failed to roll back transaction"
	logMsgEventCreated           = "event created"
	logMsgEventUpdated           = "event updated"
	logMsgEventsFound            = "events found"
	logMsgSQLExecuted            = "executed sql for: "
	logMsgOperation              = "repository operation: "
	logAttrError                 = "error"
	logAttrQuery                 = "query"
	logAttrEventID               = "event_id"
	logAttrAttendeeCount         = "attendee_count"
	logAttrEventCount            = "event_count"
	logAttrDurationMS            = "duration_ms"
	logAttrTransactional         = "transactional"
	logActionExists              = "exists"
	logActionInsertEvent         = "insert event"
	logActionUpdateEvent         = "update event"
	logActionDeleteAttendees     = "delete attendees"
	logActionInsertAttendees     = "insert attendees"
	logActionFindEvents          = "find events"
	logActionLoadAttendees       = "load attendees"
	logActionGetEvent            = "get event"
	logActionCountEvents         = "count events"
	colID                        = "id"
	colStartTime                 = "start_time"
	colAttendees                 = "attendees"
	colEventID                   = "event_id"
	colAttendeeID                = "attendee_id"
	aliasEvent                   = "e"
	aliasAttendeePrefix          = "a"
	placeholderPaddedTokenColumn = "(' ' || ? || ' ') LIKE ?"
)

// Repository is the SQL event repository. It is safe for concurrent use.
type Repository struct {
	db               adapters.DBAdapter
	dialect          eventrepo.Dialect
	tables           eventrepo.TableNames
	storage          AttendeeStorage
	transactional    bool
	cacheSize        int
	cacheTTL         time.Duration
	cache            *ExistenceCache
	logger           eventrepo.Logger
	metricsCollector eventrepo.MetricsCollector
}

// NewRepositoryFromPGXPool creates a new Repository using a pgx Pool with optional configuration.
func NewRepositoryFromPGXPool(db *pgxpool.Pool, options ...Option) (Repository, error) {
	if db == nil {
		return Repository{}, eventrepo.ErrNilDatabaseConnection
	}

	return newRepository(adapters.NewPGXAdapter(db), options)
}

// NewRepositoryFromSQLDB creates a new Repository using a sql.DB with optional configuration.
func NewRepositoryFromSQLDB(db *sql.DB, options ...Option) (Repository, error) {
	if db == nil {
		return Repository{}, eventrepo.ErrNilDatabaseConnection
	}

	return newRepository(adapters.NewSQLAdapter(db), options)
}

// NewRepositoryFromSQLX creates a new Repository using a sqlx.DB with optional configuration.
func NewRepositoryFromSQLX(db *sqlx.DB, options ...Option) (Repository, error) {
	if db == nil {
		return Repository{}, eventrepo.ErrNilDatabaseConnection
	}

	return newRepository(adapters.NewSQLXAdapter(db), options)
}

func newRepository(db adapters.DBAdapter, options []Option) (Repository, error) {
	r := Repository{
		db:        db,
		dialect:   eventrepo.DialectPostgres,
		tables:    eventrepo.DefaultTableNames(),
		storage:   AttendeeStorageRelation,
		cacheSize: DefaultExistenceCacheSize,
		cacheTTL:  DefaultExistenceCacheTTL,
	}

	for _, option := range options {
		if err := option(&r); err != nil {
			return Repository{}, err
		}
	}

	if r.cacheSize > 0 {
		cache, err := NewExistenceCache(r.cacheSize, r.cacheTTL)
		if err != nil {
			return Repository{}, err
		}

		r.cache = cache
	}

	return r, nil
}

// CacheStats returns the existence cache statistics. It is the zero value without a cache.
func (r Repository) CacheStats() CacheStats {
	if r.cache == nil {
		return CacheStats{}
	}

	return r.cache.Stats()
}

// Dialect returns the dialect the statements are built for.
func (r Repository) Dialect() eventrepo.Dialect {
	return r.dialect
}

// TableNames returns the configured table names.
func (r Repository) TableNames() eventrepo.TableNames {
	return r.tables
}

func (r Repository) goquDialect() goqu.DialectWrapper {
	return goqu.Dialect(string(r.dialect))
}
