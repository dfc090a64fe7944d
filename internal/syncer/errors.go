package syncer

import "errors"

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")
