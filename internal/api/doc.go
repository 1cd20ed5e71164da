// Package api contains the HTTP handlers for the dashboard API: competitor
// management and report retrieval. Handlers translate between HTTP and the
// service layer, mapping service errors to status codes and keeping raw
// error details out of responses.
package api
