// Package shared holds the request decoding, validation, response writing
// and request-context helpers used by both the API handlers and the
// middleware.
package shared
