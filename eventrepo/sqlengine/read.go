package sqlengine

import (
	"context"
	"database/sql"
	"time"

	"github.com/qlibin/event-attendees/eventrepo"
	"github.com/qlibin/event-attendees/eventrepo/sqlengine/internal/adapters"
)

// loadAttendeesBatchSize bounds the number of ids in one IN list.
const loadAttendeesBatchSize = 500

// Exists reports whether an event with id is stored. Known ids are answered from the existence cache.
func (r Repository) Exists(ctx context.Context, id eventrepo.EventID) (bool, error) {
	start := time.Now()
	exists, err := r.exists(ctx, r.db, id)
	r.recordDuration(operationExists, statusOf(err), time.Since(start))

	return exists, err
}

func (r Repository) exists(ctx context.Context, db adapters.DBExecutor, id eventrepo.EventID) (bool, error) {
	if r.cache != nil {
		if r.cache.Known(id) {
			r.incrementCounter(metricCacheHits)
			return true, nil
		}

		r.incrementCounter(metricCacheMisses)
	}

	sqlQuery, args, buildErr := r.buildExistsQuery(id)
	if buildErr != nil {
		return false, r.buildError(operationExists, buildErr)
	}

	rows, queryErr := r.executeQuery(ctx, db, logActionExists, sqlQuery, args)
	if queryErr != nil {
		r.recordError(operationExists, errorTypeQuery)
		return false, eventrepo.StoreError(eventrepo.ErrCheckingExistenceFailed, queryErr)
	}
	defer r.closeRows(rows)

	found := rows.Next()
	if err := rows.Err(); err != nil {
		r.recordError(operationExists, errorTypeQuery)
		return false, eventrepo.StoreError(eventrepo.ErrCheckingExistenceFailed, err)
	}

	if found && r.cache != nil {
		r.cache.Remember(id)
	}

	return found, nil
}

// GetEvent loads one event with its attendee set. It returns eventrepo.ErrEventNotFound for unknown ids.
func (r Repository) GetEvent(ctx context.Context, id eventrepo.EventID) (eventrepo.Event, error) {
	start := time.Now()
	event, err := r.getEvent(ctx, id)
	r.recordDuration(operationGetEvent, statusOf(err), time.Since(start))

	return event, err
}

func (r Repository) getEvent(ctx context.Context, id eventrepo.EventID) (eventrepo.Event, error) {
	sqlQuery, args, buildErr := r.buildGetEventQuery(id)
	if buildErr != nil {
		return eventrepo.Event{}, r.buildError(operationGetEvent, buildErr)
	}

	events, err := r.queryEvents(ctx, operationGetEvent, logActionGetEvent, sqlQuery, args)
	if err != nil {
		return eventrepo.Event{}, err
	}

	if len(events) == 0 {
		return eventrepo.Event{}, eventrepo.ErrEventNotFound
	}

	return events[0], nil
}

// FindEvents returns the events with from <= start time <= until whose attendee set contains
// every id of attendees, ordered by id. An empty attendees set matches every event in range.
func (r Repository) FindEvents(
	ctx context.Context,
	from eventrepo.StartTime,
	until eventrepo.StartTime,
	attendees eventrepo.AttendeeSet,
) ([]eventrepo.Event, error) {

	start := time.Now()
	events, err := r.findEvents(ctx, from, until, attendees)
	duration := time.Since(start)
	r.recordDuration(operationFindEvents, statusOf(err), duration)

	if err != nil {
		return nil, err
	}

	r.recordValue(metricEventsFound, float64(len(events)), operationFindEvents)
	r.logOperation(
		logMsgEventsFound,
		logAttrEventCount, len(events),
		logAttrAttendeeCount, attendees.Len(),
		logAttrDurationMS, toMilliseconds(duration),
	)

	return events, nil
}

func (r Repository) findEvents(
	ctx context.Context,
	from eventrepo.StartTime,
	until eventrepo.StartTime,
	attendees eventrepo.AttendeeSet,
) ([]eventrepo.Event, error) {

	sqlQuery, args, buildErr := r.buildFindEventsQuery(from, until, attendees)
	if buildErr != nil {
		return nil, r.buildError(operationFindEvents, buildErr)
	}

	return r.queryEvents(ctx, operationFindEvents, logActionFindEvents, sqlQuery, args)
}

// queryEvents runs a query selecting id, start_time and attendees, and attaches the attendee sets.
// The rows are fully read and closed before the attendees are loaded, so a single connection suffices.
func (r Repository) queryEvents(
	ctx context.Context,
	operation string,
	action string,
	sqlQuery sqlQueryString,
	args []any,
) ([]eventrepo.Event, error) {

	rows, queryErr := r.executeQuery(ctx, r.db, action, sqlQuery, args)
	if queryErr != nil {
		r.recordError(operation, errorTypeQuery)
		return nil, eventrepo.StoreError(eventrepo.ErrQueryingEventsFailed, queryErr)
	}

	events, scanErr := r.scanEvents(rows)
	r.closeRows(rows)

	if scanErr != nil {
		r.recordError(operation, errorTypeScan)
		return nil, scanErr
	}

	if r.storage == AttendeeStorageRelation && len(events) > 0 {
		if err := r.loadAttendees(ctx, operation, events); err != nil {
			return nil, err
		}
	}

	return events, nil
}

func (r Repository) scanEvents(rows adapters.DBRows) ([]eventrepo.Event, error) {
	events := make([]eventrepo.Event, 0)

	for rows.Next() {
		var (
			event  eventrepo.Event
			tokens sql.NullString
		)

		if err := rows.Scan(&event.ID, &event.StartTime, &tokens); err != nil {
			r.logError(logMsgScanRowFailed, err)
			return nil, eventrepo.StoreError(eventrepo.ErrScanningDBRowFailed, err)
		}

		if r.storage == AttendeeStorageTokens {
			event.Attendees = eventrepo.ParseAttendees(tokens.String)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, eventrepo.StoreError(eventrepo.ErrQueryingEventsFailed, err)
	}

	return events, nil
}

// loadAttendees fills the attendee sets of events from the relation table.
func (r Repository) loadAttendees(ctx context.Context, operation string, events []eventrepo.Event) error {
	attendeesByEvent := make(map[eventrepo.EventID][]eventrepo.AttendeeID, len(events))

	for offset := 0; offset < len(events); offset += loadAttendeesBatchSize {
		batch := events[offset:min(offset+loadAttendeesBatchSize, len(events))]

		ids := make([]eventrepo.EventID, len(batch))
		for i, event := range batch {
			ids[i] = event.ID
		}

		if err := r.loadAttendeeBatch(ctx, operation, ids, attendeesByEvent); err != nil {
			return err
		}
	}

	for i := range events {
		events[i].Attendees = eventrepo.NewAttendeeSet(attendeesByEvent[events[i].ID]...)
	}

	return nil
}

func (r Repository) loadAttendeeBatch(
	ctx context.Context,
	operation string,
	ids []eventrepo.EventID,
	into map[eventrepo.EventID][]eventrepo.AttendeeID,
) error {

	sqlQuery, args, buildErr := r.buildLoadAttendeesQuery(ids)
	if buildErr != nil {
		return r.buildError(operation, buildErr)
	}

	rows, queryErr := r.executeQuery(ctx, r.db, logActionLoadAttendees, sqlQuery, args)
	if queryErr != nil {
		r.recordError(operation, errorTypeQuery)
		return eventrepo.StoreError(eventrepo.ErrQueryingEventsFailed, queryErr)
	}
	defer r.closeRows(rows)

	for rows.Next() {
		var eventID, attendeeID int64

		if err := rows.Scan(&eventID, &attendeeID); err != nil {
			r.recordError(operation, errorTypeScan)
			r.logError(logMsgScanRowFailed, err)

			return eventrepo.StoreError(eventrepo.ErrScanningDBRowFailed, err)
		}

		into[eventID] = append(into[eventID], attendeeID)
	}

	if err := rows.Err(); err != nil {
		r.recordError(operation, errorTypeQuery)
		return eventrepo.StoreError(eventrepo.ErrQueryingEventsFailed, err)
	}

	return nil
}

// CountEvents returns the number of stored events.
func (r Repository) CountEvents(ctx context.Context) (int, error) {
	start := time.Now()
	count, err := r.countEvents(ctx)
	r.recordDuration(operationCountEvents, statusOf(err), time.Since(start))

	return count, err
}

func (r Repository) countEvents(ctx context.Context) (int, error) {
	sqlQuery, args, buildErr := r.buildCountEventsQuery()
	if buildErr != nil {
		return 0, r.buildError(operationCountEvents, buildErr)
	}

	rows, queryErr := r.executeQuery(ctx, r.db, logActionCountEvents, sqlQuery, args)
	if queryErr != nil {
		r.recordError(operationCountEvents, errorTypeQuery)
		return 0, eventrepo.StoreError(eventrepo.ErrQueryingEventsFailed, queryErr)
	}
	defer r.closeRows(rows)

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			r.recordError(operationCountEvents, errorTypeScan)
			return 0, eventrepo.StoreError(eventrepo.ErrScanningDBRowFailed, err)
		}
	}

	if err := rows.Err(); err != nil {
		r.recordError(operationCountEvents, errorTypeQuery)
		return 0, eventrepo.StoreError(eventrepo.ErrQueryingEventsFailed, err)
	}

	return int(count), nil
}

func (r Repository) buildError(operation string, buildErr error) error {
	r.recordError(operation, errorTypeBuildQuery)
	r.logError(logMsgBuildQueryFailed, buildErr)

	return eventrepo.StoreError(eventrepo.ErrBuildingQueryFailed, buildErr)
}
