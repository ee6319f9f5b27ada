// Package service contains the task-tracking use cases: listing, reading,
// creating, updating and the soft-delete lifecycle of tasks and subtasks,
// plus tag management.
//
// Every operation takes the calling domain.Actor explicitly. Visibility and
// permission decisions are delegated to internal/authz, and a denial is
// reported exactly like a missing record (domain.ErrNotFound) so callers
// cannot probe for the existence of other users' data.
//
// Services depend only on the store.Gateway abstraction. Multi-step writes
// run inside Gateway.InTx, which is the single commit boundary for every
// backend.
//
// Errors returned from this package always wrap one of the domain error
// classes (validation, not found, conflict), or are a *ServiceError for
// unexpected infrastructure failures.
package service
