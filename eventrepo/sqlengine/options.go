package sqlengine

import (
	"time"

	"github.com/qlibin/event-attendees/eventrepo"
)

// AttendeeStorage selects how attendee sets are persisted and queried.
type AttendeeStorage string

const (
	// AttendeeStorageRelation keeps one event_attendee row per attendee and queries with self-joins.
	AttendeeStorageRelation AttendeeStorage = "relation"

	// AttendeeStorageTokens keeps the set as "att_1 att_3" in event.attendees and queries with LIKE predicates.
	AttendeeStorageTokens AttendeeStorage = "tokens"
)

// Validate returns ErrUnsupportedAttendeeStorage for unknown storage kinds.
func (as AttendeeStorage) Validate() error {
	switch as {
	case AttendeeStorageRelation, AttendeeStorageTokens:
		return nil
	default:
		return eventrepo.ErrUnsupportedAttendeeStorage
	}
}

// Option defines a functional option for configuring Repository.
type Option func(*Repository) error

// WithDialect sets the SQL dialect the statements are built for. The default is postgres.
func WithDialect(dialect eventrepo.Dialect) Option {
	return func(r *Repository) error {
		if err := dialect.Validate(); err != nil {
			return err
		}

		r.dialect = dialect

		return nil
	}
}

// WithTableNames sets the names of the event and event attendee tables.
func WithTableNames(tableNames eventrepo.TableNames) Option {
	return func(r *Repository) error {
		if err := tableNames.Validate(); err != nil {
			return err
		}

		r.tables = tableNames

		return nil
	}
}

// WithAttendeeStorage selects relation rows or serialized tokens.
func WithAttendeeStorage(storage AttendeeStorage) Option {
	return func(r *Repository) error {
		if err := storage.Validate(); err != nil {
			return err
		}

		r.storage = storage

		return nil
	}
}

// WithTransactionalWrites wraps all statements of CreateOrUpdate in one transaction.
func WithTransactionalWrites() Option {
	return func(r *Repository) error {
		r.transactional = true
		return nil
	}
}

// WithExistenceCache configures the size and time-to-idle of the existence cache.
// A ttl <= 0 keeps entries until they are evicted by size.
func WithExistenceCache(size int, ttl time.Duration) Option {
	return func(r *Repository) error {
		if size < 1 {
			return eventrepo.ErrInvalidExistenceCacheSize
		}

		r.cacheSize = size
		r.cacheTTL = ttl

		return nil
	}
}

// WithoutExistenceCache makes every Exists call hit the store.
func WithoutExistenceCache() Option {
	return func(r *Repository) error {
		r.cacheSize = 0
		return nil
	}
}

// WithLogger sets the logger for the Repository.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing, created/updated events and query result counts
// Warn level: non-critical issues like rollback or cleanup failures
// Error level: failures that cause operation failures.
func WithLogger(logger eventrepo.Logger) Option {
	return func(r *Repository) error {
		r.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Repository.
// It receives operation durations, result counts, cache hits and database errors.
func WithMetrics(collector eventrepo.MetricsCollector) Option {
	return func(r *Repository) error {
		r.metricsCollector = collector
		return nil
	}
}
