package eventrepo

import (
	"errors"
)

// EventID identifies an event. It is immutable once the event was created.
type EventID = int64

// AttendeeID identifies an attendee.
type AttendeeID = int64

// StartTime is the numeric start time of an event.
type StartTime = int64

var (
	// ErrStoreFailure is joined into every error that originates from the record store.
	ErrStoreFailure = errors.New("record store operation failed")

	ErrNilDatabaseConnection       = errors.New("database connection must not be nil")
	ErrEmptyTableNameSupplied      = errors.New("empty table name supplied")
	ErrUnsupportedDialect          = errors.New("unsupported sql dialect")
	ErrUnsupportedAttendeeStorage  = errors.New("unsupported attendee storage")
	ErrInvalidExistenceCacheSize   = errors.New("existence cache size must be positive")
	ErrEventNotFound               = errors.New("event not found")
	ErrBuildingQueryFailed         = errors.New("building the query failed")
	ErrCheckingExistenceFailed     = errors.New("checking event existence failed")
	ErrInsertingEventFailed        = errors.New("inserting the event failed")
	ErrUpdatingEventFailed         = errors.New("updating the event failed")
	ErrReplacingAttendeesFailed    = errors.New("replacing the event attendees failed")
	ErrQueryingEventsFailed        = errors.New("querying events failed")
	ErrScanningDBRowFailed         = errors.New("scanning db row failed")
	ErrBeginningTransactionFailed  = errors.New("beginning the transaction failed")
	ErrCommittingTransactionFailed = errors.New("committing the transaction failed")
)

// StoreError joins ErrStoreFailure with the operation specific sentinel and the cause.
func StoreError(sentinel error, cause error) error {
	return errors.Join(ErrStoreFailure, sentinel, cause)
}

// Dialect names the SQL dialect statements are built for.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// Validate returns ErrUnsupportedDialect for unknown dialects.
func (d Dialect) Validate() error {
	switch d {
	case DialectPostgres, DialectSQLite:
		return nil
	default:
		return ErrUnsupportedDialect
	}
}

const (
	DefaultEventTableName    = "event"
	DefaultAttendeeTableName = "event_attendee"
)

// TableNames holds the names of the event table and the event attendee relation table.
type TableNames struct {
	Events    string
	Attendees string
}

// DefaultTableNames returns the table names created by the schema bootstrap.
func DefaultTableNames() TableNames {
	return TableNames{
		Events:    DefaultEventTableName,
		Attendees: DefaultAttendeeTableName,
	}
}

// Validate returns ErrEmptyTableNameSupplied if one of the names is empty.
func (tn TableNames) Validate() error {
	if tn.Events == "" || tn.Attendees == "" {
		return ErrEmptyTableNameSupplied
	}

	return nil
}
