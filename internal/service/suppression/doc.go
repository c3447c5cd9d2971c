// Package suppression is the validating command surface over the
// blocked-recipient store. Entries flow in from provider callbacks
// (bounces, complaints), unsubscribe submissions, and manual operator
// action, and membership is checked before every send.
//
// The service wraps the in-memory membership engine and depends only on
// the Repository interface in repository.go; it never touches net/http
// or database/sql directly.
package suppression
