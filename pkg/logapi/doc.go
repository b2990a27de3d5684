// Package logapi exposes the notification log over HTTP for operator
// tooling and support dashboards.
//
// The surface is read only: two endpoints, GET /logs with query-string
// filters (status, channel, type, from, to, is_test, limit, offset) and
// GET /logs/{id} for a single entry. Mutating the log stays the exclusive
// business of the delivery engine.
package logapi
