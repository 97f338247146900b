package sqlengine

import (
	"github.com/qlibin/event-attendees/eventrepo"
)

// BuildFindEventsQuery exposes the superset query builder to the external test package.
func (r Repository) BuildFindEventsQuery(
	from eventrepo.StartTime,
	until eventrepo.StartTime,
	attendees eventrepo.AttendeeSet,
) (string, []any, error) {

	return r.buildFindEventsQuery(from, until, attendees)
}

// BuildInsertAttendeesQuery exposes the relation insert builder to the external test package.
func (r Repository) BuildInsertAttendeesQuery(id eventrepo.EventID, attendees eventrepo.AttendeeSet) (string, []any, error) {
	return r.buildInsertAttendeesQuery(id, attendees)
}
