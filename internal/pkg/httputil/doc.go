// Package httputil holds the shared request/response helpers the HTTP
// handlers use: one JSON writer, one error envelope, one body decoder.
// Handlers go through these instead of raw http.ResponseWriter calls so
// every endpoint speaks the same {error, hint?, ...context} dialect.
package httputil
