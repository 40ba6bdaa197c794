// Package handler implements the HTTP API of storyweave on a chi router.
//
// Routes live under /api/graphs/{graphID}; see NewRouter for the table.
// Bodies are JSON except the DSL export, which is text/plain.
//
// # Errors
//
// Failures are returned as {error, details} with a status derived from the
// domain error: parse, validation and unresolved-reference errors are 400,
// duplicate IDs 409, missing entities 404 and everything else 500. Only 500s
// are logged.
//
// # Middleware
//
// Each request gets an ID and a charmbracelet logger carrying it, an access
// log line at debug level, panic recovery and permissive CORS headers for
// the browser editor.
package handler
