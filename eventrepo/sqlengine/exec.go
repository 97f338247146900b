package sqlengine

import (
	"context"
	"time"

	"github.com/qlibin/event-attendees/eventrepo/sqlengine/internal/adapters"
)

// executeQuery runs a query and logs it with its duration.
func (r Repository) executeQuery(
	ctx context.Context,
	db adapters.DBExecutor,
	action string,
	sqlQuery sqlQueryString,
	args []any,
) (adapters.DBRows, error) {

	start := time.Now()
	rows, queryErr := db.Query(ctx, sqlQuery, args...)
	r.logQueryWithDuration(sqlQuery, action, time.Since(start))

	if queryErr != nil {
		r.logError(logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return nil, queryErr
	}

	return rows, nil
}

// executeStatement runs a statement that returns no rows and logs it with its duration.
func (r Repository) executeStatement(
	ctx context.Context,
	db adapters.DBExecutor,
	action string,
	sqlQuery sqlQueryString,
	args []any,
) error {

	start := time.Now()
	_, execErr := db.Exec(ctx, sqlQuery, args...)
	r.logQueryWithDuration(sqlQuery, action, time.Since(start))

	if execErr != nil {
		r.logError(logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		return execErr
	}

	return nil
}

// closeRows safely closes database rows and logs any errors.
func (r Repository) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		r.logWarn(logMsgCloseRowsFailed, closeErr)
	}
}

// rollback ends a failed transaction. Its error is only logged; the write error is returned.
func (r Repository) rollback(ctx context.Context, tx adapters.DBTx) {
	if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
		r.logWarn(logMsgRollbackFailed, rollbackErr)
	}
}
