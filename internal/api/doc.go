// Package api exposes the task, subtask and tag services over HTTP. Handlers
// decode and validate requests, call the service with the authenticated
// actor, and map domain errors to status codes. Denied access always
// answers 404 so callers cannot probe for records they may not see.
package api
