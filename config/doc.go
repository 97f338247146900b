// Package config opens the database connection the command line runs against and builds the
// event repository on top of it.
//
// Supported drivers:
//   - pgx: pgxpool.Pool (default)
//   - sql: database/sql with the lib/pq driver
//   - sqlx: sqlx.DB with the lib/pq driver
//   - sqlite: database/sql with bun's sqliteshim driver, limited to one connection
package config
