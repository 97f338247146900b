package sqlengine

import (
	"strconv"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/qlibin/event-attendees/eventrepo"
)

type sqlQueryString = string

// buildExistsQuery builds the primary key point lookup.
func (r Repository) buildExistsQuery(id eventrepo.EventID) (sqlQueryString, []any, error) {
	return r.goquDialect().
		From(r.tables.Events).
		Prepared(true).
		Select(goqu.C(colID)).
		Where(goqu.C(colID).Eq(id)).
		ToSQL()
}

// buildGetEventQuery selects one event row by id.
func (r Repository) buildGetEventQuery(id eventrepo.EventID) (sqlQueryString, []any, error) {
	return r.goquDialect().
		From(r.tables.Events).
		Prepared(true).
		Select(goqu.C(colID), goqu.C(colStartTime), goqu.C(colAttendees)).
		Where(goqu.C(colID).Eq(id)).
		ToSQL()
}

func (r Repository) buildCountEventsQuery() (sqlQueryString, []any, error) {
	return r.goquDialect().
		From(r.tables.Events).
		Prepared(true).
		Select(goqu.COUNT(goqu.Star())).
		ToSQL()
}

// buildFindEventsQuery builds the superset query for the configured attendee storage.
//
// Relation storage adds one INNER JOIN of the attendee table per requested attendee, each
// constrained to the event id and to that attendee id. The attendees are already sorted, so
// alias aN always belongs to the N-th smallest id.
//
// Token storage adds one LIKE predicate per attendee on the space padded token column, so
// att_1 never matches att_12.
func (r Repository) buildFindEventsQuery(
	from eventrepo.StartTime,
	until eventrepo.StartTime,
	attendees eventrepo.AttendeeSet,
) (sqlQueryString, []any, error) {

	startTime := goqu.I(aliasEvent + "." + colStartTime)

	query := r.goquDialect().
		From(goqu.T(r.tables.Events).As(aliasEvent)).
		Prepared(true).
		Select(
			goqu.I(aliasEvent+"."+colID),
			startTime,
			goqu.I(aliasEvent+"."+colAttendees),
		).
		Distinct()

	conditions := []exp.Expression{startTime.Gte(from), startTime.Lte(until)}

	switch r.storage {
	case AttendeeStorageTokens:
		column := goqu.I(aliasEvent + "." + colAttendees)
		for _, id := range attendees.IDs() {
			conditions = append(conditions, goqu.L(placeholderPaddedTokenColumn, column, "% "+eventrepo.AttendeeToken(id)+" %"))
		}

	default:
		for i, id := range attendees.IDs() {
			alias := aliasAttendeePrefix + strconv.Itoa(i)
			query = query.InnerJoin(
				goqu.T(r.tables.Attendees).As(alias),
				goqu.On(
					goqu.I(alias+"."+colEventID).Eq(goqu.I(aliasEvent+"."+colID)),
					goqu.I(alias+"."+colAttendeeID).Eq(id),
				),
			)
		}
	}

	return query.
		Where(conditions...).
		Order(goqu.I(aliasEvent + "." + colID).Asc()).
		ToSQL()
}

// buildLoadAttendeesQuery loads the relation rows of several events at once.
func (r Repository) buildLoadAttendeesQuery(ids []eventrepo.EventID) (sqlQueryString, []any, error) {
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}

	return r.goquDialect().
		From(r.tables.Attendees).
		Prepared(true).
		Select(goqu.C(colEventID), goqu.C(colAttendeeID)).
		Where(goqu.C(colEventID).In(values...)).
		Order(goqu.C(colEventID).Asc(), goqu.C(colAttendeeID).Asc()).
		ToSQL()
}

func (r Repository) buildInsertEventQuery(
	id eventrepo.EventID,
	startTime eventrepo.StartTime,
	attendees eventrepo.AttendeeSet,
) (sqlQueryString, []any, error) {

	return r.goquDialect().
		Insert(r.tables.Events).
		Prepared(true).
		Rows(goqu.Record{
			colID:        id,
			colStartTime: startTime,
			colAttendees: r.attendeeColumnValue(attendees),
		}).
		ToSQL()
}

func (r Repository) buildUpdateEventQuery(
	id eventrepo.EventID,
	startTime eventrepo.StartTime,
	attendees eventrepo.AttendeeSet,
) (sqlQueryString, []any, error) {

	return r.goquDialect().
		Update(r.tables.Events).
		Prepared(true).
		Set(goqu.Record{
			colStartTime: startTime,
			colAttendees: r.attendeeColumnValue(attendees),
		}).
		Where(goqu.C(colID).Eq(id)).
		ToSQL()
}

func (r Repository) buildDeleteAttendeesQuery(id eventrepo.EventID) (sqlQueryString, []any, error) {
	return r.goquDialect().
		Delete(r.tables.Attendees).
		Prepared(true).
		Where(goqu.C(colEventID).Eq(id)).
		ToSQL()
}

// buildInsertAttendeesQuery inserts all relation rows of one event with a single multi-row insert.
// The attendee set must not be empty.
func (r Repository) buildInsertAttendeesQuery(
	id eventrepo.EventID,
	attendees eventrepo.AttendeeSet,
) (sqlQueryString, []any, error) {

	rows := make([][]any, 0, attendees.Len())
	for _, attendeeID := range attendees.IDs() {
		rows = append(rows, []any{id, attendeeID})
	}

	return r.goquDialect().
		Insert(r.tables.Attendees).
		Prepared(true).
		Cols(colEventID, colAttendeeID).
		Vals(rows...).
		ToSQL()
}

// attendeeColumnValue is the content of event.attendees. Relation storage leaves it empty.
func (r Repository) attendeeColumnValue(attendees eventrepo.AttendeeSet) string {
	if r.storage == AttendeeStorageTokens {
		return eventrepo.SerializeAttendees(attendees)
	}

	return ""
}
