// Package postgres implements store.Gateway on PostgreSQL. Connections come
// from a pgx pool exposed through database/sql, the schema is embedded and
// applied with goose, and list queries are rendered by sqlfilter.
package postgres
