package repositories

import "errors"

// ErrNotFound is wrapped by all repositories when a requested record
// does not exist, so callers can test with errors.Is regardless of the
// backing store.
var ErrNotFound = errors.New("not found")
