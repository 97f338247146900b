// Package eventrepo provides the core types shared by the event repository
// implementations and the workload harness.
//
// The repository stores events with a start time and a set of attendees.
// Attendee membership is kept either in a normalized relation table
// (one row per event and attendee) or as a serialized token string on the
// event row.
//
// Key types:
//   - Event: an event with its id, start time and attendee set
//   - AttendeeSet: an immutable, sorted, duplicate-free set of attendee ids
//   - TableNames: the names of the event and attendee relation tables
//   - Dialect: the SQL dialect used to build statements
//
// Common usage pattern:
//
//	repo, _ := sqlengine.NewRepositoryFromPGXPool(pool)
//
//	err := repo.CreateOrUpdate(ctx, 7, 500, eventrepo.NewAttendeeSet(1, 2, 3))
//	if err != nil {
//		// handle error
//	}
//
//	events, err := repo.FindEvents(ctx, 100, 900, eventrepo.NewAttendeeSet(2))
package eventrepo
