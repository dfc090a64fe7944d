package local

import "errors"

// ErrNotFound is returned by Load when a namespace is absent or unreadable.
var ErrNotFound = errors.New("namespace not found")
