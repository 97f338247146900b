package sqlengine

import (
	"context"
	"time"

	"github.com/qlibin/event-attendees/eventrepo"
	"github.com/qlibin/event-attendees/eventrepo/sqlengine/internal/adapters"
)

// CreateOrUpdate stores the event with id, setting its start time and replacing its attendee set.
//
// An unknown id inserts the event and its attendee rows. A known id updates the start time,
// deletes the attendee rows and inserts the new ones. Without WithTransactionalWrites the
// statements are not atomic: a failure after the delete leaves the event with no attendees,
// and readers may observe the replacement half done.
func (r Repository) CreateOrUpdate(
	ctx context.Context,
	id eventrepo.EventID,
	startTime eventrepo.StartTime,
	attendees eventrepo.AttendeeSet,
) error {

	start := time.Now()
	created, err := r.createOrUpdate(ctx, id, startTime, attendees)
	duration := time.Since(start)
	r.recordDuration(operationCreateOrUpdate, statusOf(err), duration)

	if err != nil {
		return err
	}

	message := logMsgEventUpdated
	if created {
		message = logMsgEventCreated
		r.incrementCounter(metricEventsCreated)

		if r.cache != nil {
			r.cache.Remember(id)
		}
	}

	r.logOperation(
		message,
		logAttrEventID, id,
		logAttrAttendeeCount, attendees.Len(),
		logAttrTransactional, r.transactional,
		logAttrDurationMS, toMilliseconds(duration),
	)

	return nil
}

func (r Repository) createOrUpdate(
	ctx context.Context,
	id eventrepo.EventID,
	startTime eventrepo.StartTime,
	attendees eventrepo.AttendeeSet,
) (bool, error) {

	if !r.transactional {
		return r.writeEvent(ctx, r.db, id, startTime, attendees)
	}

	tx, beginErr := r.db.BeginTx(ctx)
	if beginErr != nil {
		r.recordError(operationCreateOrUpdate, errorTypeTransaction)
		r.logError(logMsgDBExecFailed, beginErr)

		return false, eventrepo.StoreError(eventrepo.ErrBeginningTransactionFailed, beginErr)
	}

	created, writeErr := r.writeEvent(ctx, tx, id, startTime, attendees)
	if writeErr != nil {
		r.rollback(ctx, tx)
		return false, writeErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		r.recordError(operationCreateOrUpdate, errorTypeTransaction)
		r.logError(logMsgDBExecFailed, commitErr)

		return false, eventrepo.StoreError(eventrepo.ErrCommittingTransactionFailed, commitErr)
	}

	return created, nil
}

// writeEvent runs the exists check and the write statements on db and reports whether the event was created.
func (r Repository) writeEvent(
	ctx context.Context,
	db adapters.DBExecutor,
	id eventrepo.EventID,
	startTime eventrepo.StartTime,
	attendees eventrepo.AttendeeSet,
) (bool, error) {

	exists, existsErr := r.exists(ctx, db, id)
	if existsErr != nil {
		return false, existsErr
	}

	if !exists {
		return true, r.insertEvent(ctx, db, id, startTime, attendees)
	}

	return false, r.updateEvent(ctx, db, id, startTime, attendees)
}

func (r Repository) insertEvent(
	ctx context.Context,
	db adapters.DBExecutor,
	id eventrepo.EventID,
	startTime eventrepo.StartTime,
	attendees eventrepo.AttendeeSet,
) error {

	sqlQuery, args, buildErr := r.buildInsertEventQuery(id, startTime, attendees)
	if buildErr != nil {
		return r.buildError(operationCreateOrUpdate, buildErr)
	}

	if err := r.executeStatement(ctx, db, logActionInsertEvent, sqlQuery, args); err != nil {
		r.recordError(operationCreateOrUpdate, errorTypeExec)
		return eventrepo.StoreError(eventrepo.ErrInsertingEventFailed, err)
	}

	if err := r.insertAttendees(ctx, db, id, attendees); err != nil {
		return eventrepo.StoreError(eventrepo.ErrInsertingEventFailed, err)
	}

	return nil
}

func (r Repository) updateEvent(
	ctx context.Context,
	db adapters.DBExecutor,
	id eventrepo.EventID,
	startTime eventrepo.StartTime,
	attendees eventrepo.AttendeeSet,
) error {

	sqlQuery, args, buildErr := r.buildUpdateEventQuery(id, startTime, attendees)
	if buildErr != nil {
		return r.buildError(operationCreateOrUpdate, buildErr)
	}

	if err := r.executeStatement(ctx, db, logActionUpdateEvent, sqlQuery, args); err != nil {
		r.recordError(operationCreateOrUpdate, errorTypeExec)
		return eventrepo.StoreError(eventrepo.ErrUpdatingEventFailed, err)
	}

	if r.storage != AttendeeStorageRelation {
		return nil
	}

	sqlQuery, args, buildErr = r.buildDeleteAttendeesQuery(id)
	if buildErr != nil {
		return r.buildError(operationCreateOrUpdate, buildErr)
	}

	if err := r.executeStatement(ctx, db, logActionDeleteAttendees, sqlQuery, args); err != nil {
		r.recordError(operationCreateOrUpdate, errorTypeExec)
		return eventrepo.StoreError(eventrepo.ErrReplacingAttendeesFailed, err)
	}

	if err := r.insertAttendees(ctx, db, id, attendees); err != nil {
		return eventrepo.StoreError(eventrepo.ErrReplacingAttendeesFailed, err)
	}

	return nil
}

// insertAttendees writes the relation rows of one event. It is a no-op for token storage and empty sets.
// The returned error is the raw cause; callers join it with the sentinel of their step.
func (r Repository) insertAttendees(
	ctx context.Context,
	db adapters.DBExecutor,
	id eventrepo.EventID,
	attendees eventrepo.AttendeeSet,
) error {

	if r.storage != AttendeeStorageRelation || attendees.IsEmpty() {
		return nil
	}

	sqlQuery, args, buildErr := r.buildInsertAttendeesQuery(id, attendees)
	if buildErr != nil {
		r.recordError(operationCreateOrUpdate, errorTypeBuildQuery)
		r.logError(logMsgBuildQueryFailed, buildErr)

		return buildErr
	}

	if err := r.executeStatement(ctx, db, logActionInsertAttendees, sqlQuery, args); err != nil {
		r.recordError(operationCreateOrUpdate, errorTypeExec)
		return err
	}

	return nil
}
