// Package store defines the persistence contract (Gateway and the per-entity
// stores) shared by the postgres, sqlite and memory backends, along with the
// error values those backends return and transaction helpers for the
// database/sql backends.
package store
