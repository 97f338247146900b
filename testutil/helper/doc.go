// Package helper provides testing utilities shared by the repository, schema and workload tests:
// in-memory SQLite databases with the schema in place, a slog handler spy and a metrics collector spy.
package helper
