// Package sqlengine provides the SQL implementation of the event repository.
//
// The Repository stores events in an event table and their attendees either as rows of a
// relation table (the default) or as a serialized token column. All statements are built with
// goqu for the configured dialect and executed through one of three connection types:
//
//   - pgxpool.Pool via NewRepositoryFromPGXPool
//   - sql.DB via NewRepositoryFromSQLDB (lib/pq, or sqlite through bun's sqliteshim)
//   - sqlx.DB via NewRepositoryFromSQLX
//
// FindEvents expresses "has all of these attendees" as one self-join per requested attendee:
//
//	SELECT DISTINCT e.id, e.start_time FROM event AS e
//	INNER JOIN event_attendee AS a0 ON (a0.event_id = e.id AND a0.attendee_id = $1)
//	INNER JOIN event_attendee AS a1 ON (a1.event_id = e.id AND a1.attendee_id = $2)
//	WHERE (e.start_time >= $3 AND e.start_time <= $4) ORDER BY e.id ASC
//
// CreateOrUpdate is three independent statements unless WithTransactionalWrites is set.
// Concurrent readers may observe a partially replaced attendee set in that mode.
//
// Exists consults an ExistenceCache before the store. Only positive answers are cached since
// events are never deleted.
package sqlengine
