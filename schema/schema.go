// Package schema creates and drops the tables the event repository works on.
package schema

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	bunschema "github.com/uptrace/bun/schema"

	"github.com/qlibin/event-attendees/eventrepo"
)

var (
	ErrCreatingSchemaFailed = errors.New("creating the schema failed")
	ErrDroppingSchemaFailed = errors.New("dropping the schema failed")
)

const (
	indexEventStartTime       = "i_event_start_time"
	indexEventAttendeeEventID = "i_event_attendee_event_id"
	indexEventAttendeeID      = "i_event_attendee_attendee_id"
	logMsgSchemaCreated       = "schema created"
	logMsgSchemaDropped       = "schema dropped"
	logMsgDDLExecuted         = "executed ddl"
	logAttrEventTable         = "event_table"
	logAttrAttendeeTable      = "attendee_table"
	logAttrQuery              = "query"
	logAttrDurationMS         = "duration_ms"
)

type eventRow struct {
	bun.BaseModel `bun:"table:event"`

	ID        int64  `bun:"id,pk"`
	StartTime int64  `bun:"start_time,notnull"`
	Attendees string `bun:"attendees,type:varchar"`
}

type eventAttendeeRow struct {
	bun.BaseModel `bun:"table:event_attendee"`

	EventID    int64 `bun:"event_id,notnull"`
	AttendeeID int64 `bun:"attendee_id,notnull"`
}

// Bootstrapper creates and drops the event and event attendee tables.
type Bootstrapper struct {
	db     *bun.DB
	tables eventrepo.TableNames
	logger eventrepo.Logger
}

// Option defines a functional option for configuring a Bootstrapper.
type Option func(*Bootstrapper) error

// WithTableNames overrides the default table names.
func WithTableNames(tableNames eventrepo.TableNames) Option {
	return func(b *Bootstrapper) error {
		if err := tableNames.Validate(); err != nil {
			return err
		}

		b.tables = tableNames

		return nil
	}
}

// WithLogger logs every DDL statement at debug level and the outcome at info level.
func WithLogger(logger eventrepo.Logger) Option {
	return func(b *Bootstrapper) error {
		b.logger = logger
		return nil
	}
}

// NewBootstrapper wraps sqlDB in a bun.DB for the given dialect.
func NewBootstrapper(sqlDB *sql.DB, dialect eventrepo.Dialect, options ...Option) (*Bootstrapper, error) {
	if sqlDB == nil {
		return nil, eventrepo.ErrNilDatabaseConnection
	}

	bunDialect, err := bunDialectFor(dialect)
	if err != nil {
		return nil, err
	}

	b := &Bootstrapper{
		db:     bun.NewDB(sqlDB, bunDialect),
		tables: eventrepo.DefaultTableNames(),
	}

	for _, option := range options {
		if err := option(b); err != nil {
			return nil, err
		}
	}

	if b.logger != nil {
		b.db.AddQueryHook(queryLogHook{logger: b.logger})
	}

	return b, nil
}

func bunDialectFor(dialect eventrepo.Dialect) (bunschema.Dialect, error) {
	switch dialect {
	case eventrepo.DialectPostgres:
		return pgdialect.New(), nil
	case eventrepo.DialectSQLite:
		return sqlitedialect.New(), nil
	default:
		return nil, eventrepo.ErrUnsupportedDialect
	}
}

// CreateTables creates both tables and their indexes in one transaction. Existing objects are kept.
func (b *Bootstrapper) CreateTables(ctx context.Context) error {
	err := b.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewCreateTable().
			Model((*eventRow)(nil)).
			ModelTableExpr("?", bun.Ident(b.tables.Events)).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewCreateTable().
			Model((*eventAttendeeRow)(nil)).
			ModelTableExpr("?", bun.Ident(b.tables.Attendees)).
			IfNotExists().
			ForeignKey("(?) REFERENCES ? (?)", bun.Ident("event_id"), bun.Ident(b.tables.Events), bun.Ident("id")).
			Exec(ctx); err != nil {
			return err
		}

		indexes := []struct {
			table  string
			name   string
			column string
		}{
			{b.tables.Events, indexEventStartTime, "start_time"},
			{b.tables.Attendees, indexEventAttendeeEventID, "event_id"},
			{b.tables.Attendees, indexEventAttendeeID, "attendee_id"},
		}

		for _, index := range indexes {
			if _, err := tx.NewCreateIndex().
				Table(index.table).
				Index(index.name).
				Column(index.column).
				IfNotExists().
				Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return errors.Join(ErrCreatingSchemaFailed, err)
	}

	b.logInfo(logMsgSchemaCreated)

	return nil
}

// DropTables drops both tables if they exist, the relation table first.
func (b *Bootstrapper) DropTables(ctx context.Context) error {
	for _, table := range []string{b.tables.Attendees, b.tables.Events} {
		if _, err := b.db.NewDropTable().
			Table(table).
			IfExists().
			Exec(ctx); err != nil {
			return errors.Join(ErrDroppingSchemaFailed, err)
		}
	}

	b.logInfo(logMsgSchemaDropped)

	return nil
}

// Recreate drops and creates the tables.
func (b *Bootstrapper) Recreate(ctx context.Context) error {
	if err := b.DropTables(ctx); err != nil {
		return err
	}

	return b.CreateTables(ctx)
}

func (b *Bootstrapper) logInfo(message string) {
	if b.logger != nil {
		b.logger.Info(message, logAttrEventTable, b.tables.Events, logAttrAttendeeTable, b.tables.Attendees)
	}
}

// queryLogHook sends the DDL bun executes to the logger.
type queryLogHook struct {
	logger eventrepo.Logger
}

func (h queryLogHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h queryLogHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	h.logger.Debug(
		logMsgDDLExecuted,
		logAttrQuery, event.Query,
		logAttrDurationMS, float64(time.Since(event.StartTime).Microseconds())/1000,
	)
}
