// Package adapters provide database adapter implementations for the SQL event repository.
//
// The adapters unify pgxpool.Pool, sql.DB and sqlx.DB behind the DBAdapter interface,
// including parameterized statements and transactions, so the repository works with any
// supported connection type.
package adapters
