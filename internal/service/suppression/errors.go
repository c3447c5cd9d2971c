package suppression

import "errors"

// ErrNotFound is returned by Remove when no entry exists for the
// (email, tenant) pair.
var ErrNotFound = errors.New("suppression entry not found")
